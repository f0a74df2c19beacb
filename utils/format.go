package utils

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var currencyPrinter = message.NewPrinter(language.AmericanEnglish)

// FormatCurrency renders an amount the way push messages show it: $1,234.50.
func FormatCurrency(amount decimal.Decimal) string {
	f, _ := amount.Round(2).Float64()
	if f < 0 {
		return currencyPrinter.Sprintf("-$%.2f", -f)
	}
	return currencyPrinter.Sprintf("$%.2f", f)
}

// ShortenName keeps the first given name and the last family name.
func ShortenName(fullName string) string {
	parts := strings.Fields(fullName)
	switch len(parts) {
	case 0:
		return ""
	case 1, 2:
		return strings.Join(parts, " ")
	}
	return parts[0] + " " + parts[len(parts)-1]
}
