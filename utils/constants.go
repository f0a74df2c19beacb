package utils

// REVISION is stamped on every response envelope.
const REVISION = "2024.11.1"

const (
	CurrencyDOP = "DOP"
	// OneTime marks a request with no recurrence attached.
	OneTime = "oneTime"
)
