package utils

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestTokenGenerator_GivenSameSeed_WhenDerived_ThenStable(t *testing.T) {
	g, err := NewTokenGenerator("salt")
	if err != nil {
		t.Fatalf("NewTokenGenerator() error = %v", err)
	}

	a := g.Derive("txn-1")
	b := g.Derive("txn-1")
	c := g.Derive("txn-2")

	if a != b {
		t.Errorf("Derive() not stable: %q != %q", a, b)
	}
	if a == c {
		t.Errorf("Derive() collided for different seeds: %q", a)
	}
	if len(a) < tokenMinLength {
		t.Errorf("Derive() length = %d, want >= %d", len(a), tokenMinLength)
	}
}

func TestTokenGenerator_New_IsRandom(t *testing.T) {
	g, _ := NewTokenGenerator("salt")
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		tok := g.New()
		if seen[tok] {
			t.Fatalf("New() repeated token %q", tok)
		}
		seen[tok] = true
	}
}

func TestJobIDs(t *testing.T) {
	if got := JobID("queueTransaction", "abc"); got != "queueTransaction@abc" {
		t.Errorf("JobID() = %q", got)
	}
	if got := RecurringJobID("weekly", "everyMonday", "abc"); got != "weekly@everyMonday@abc" {
		t.Errorf("RecurringJobID() = %q", got)
	}
}

func TestFormatCurrency(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"40", "$40.00"},
		{"1234.5", "$1,234.50"},
		{"0.004", "$0.00"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := FormatCurrency(decimal.RequireFromString(tt.in)); got != tt.want {
				t.Errorf("FormatCurrency(%s) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestShortenName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"Maria", "Maria"},
		{"Maria Perez", "Maria Perez"},
		{"  Maria   Altagracia Perez  Gomez ", "Maria Gomez"},
	}
	for _, tt := range tests {
		if got := ShortenName(tt.in); got != tt.want {
			t.Errorf("ShortenName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestValidateStruct_DecimalGreaterThanZero(t *testing.T) {
	type payload struct {
		Amount   decimal.Decimal `validate:"gt=0"`
		Currency string          `validate:"required,oneof=DOP"`
	}

	if err := ValidateStruct(payload{Amount: decimal.NewFromInt(10), Currency: "DOP"}); err != nil {
		t.Errorf("ValidateStruct() valid payload error = %v", err)
	}
	if err := ValidateStruct(payload{Amount: decimal.Zero, Currency: "DOP"}); err == nil {
		t.Error("ValidateStruct() zero amount, want error")
	}
	if err := ValidateStruct(payload{Amount: decimal.NewFromInt(1), Currency: "USD"}); err == nil {
		t.Error("ValidateStruct() USD currency, want error")
	}
}

func TestJWTToken_RoundTrip(t *testing.T) {
	j := NewJWTToken(&Config{SigningKey: "secret"})

	tok, err := j.CreateToken(TokenObject{Service: "api", UserID: 7}, time.Hour)
	if err != nil {
		t.Fatalf("CreateToken() error = %v", err)
	}
	obj, err := j.VerifyToken(tok)
	if err != nil {
		t.Fatalf("VerifyToken() error = %v", err)
	}
	if obj.Service != "api" || obj.UserID != 7 {
		t.Errorf("VerifyToken() = %+v", obj)
	}

	expired, _ := j.CreateToken(TokenObject{Service: "api"}, -time.Minute)
	if _, err := j.VerifyToken(expired); err == nil {
		t.Error("VerifyToken() expired token, want error")
	}

	other := NewJWTToken(&Config{SigningKey: "other"})
	if _, err := other.VerifyToken(tok); err == nil || !strings.Contains(err.Error(), "invalid") {
		t.Errorf("VerifyToken() wrong key error = %v", err)
	}
}

func TestGetDBSource(t *testing.T) {
	c := &Config{DBUsername: "root", DBPassword: "pw", DBHost: "localhost", DBPort: "5432"}
	want := "postgres://root:pw@localhost:5432/queue?sslmode=disable"
	if got := GetDBSource(c, "queue"); got != want {
		t.Errorf("GetDBSource() = %q, want %q", got, want)
	}
}
