package db

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sqlc-dev/pqtype"
)

type Account struct {
	ID             int64           `json:"id"`
	UserID         int64           `json:"user_id"`
	Username       string          `json:"username"`
	FullName       string          `json:"full_name"`
	Balance        decimal.Decimal `json:"balance"`
	PendingBalance decimal.Decimal `json:"pending_balance"`
	SendLimit      decimal.Decimal `json:"send_limit"`
	ReceiveLimit   decimal.Decimal `json:"receive_limit"`
	WithdrawLimit  decimal.Decimal `json:"withdraw_limit"`
	DepositLimit   decimal.Decimal `json:"deposit_limit"`
	AllowSend      bool            `json:"allow_send"`
	AllowReceive   bool            `json:"allow_receive"`
	AllowWithdraw  bool            `json:"allow_withdraw"`
	AllowDeposit   bool            `json:"allow_deposit"`
	AllowRequestMe bool            `json:"allow_request_me"`
	Status         string          `json:"status"`
	Currency       string          `json:"currency"`
	Version        int64           `json:"version"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

type BankingTransaction struct {
	ID              int64                 `json:"id"`
	TransactionID   string                `json:"transaction_id"`
	AccountID       int64                 `json:"account_id"`
	UserID          int64                 `json:"user_id"`
	CardID          int64                 `json:"card_id"`
	Amount          decimal.Decimal       `json:"amount"`
	TransactionType string                `json:"transaction_type"`
	Currency        string                `json:"currency"`
	Status          string                `json:"status"`
	Location        pqtype.NullRawMessage `json:"location"`
	Data            pqtype.NullRawMessage `json:"data"`
	Signature       string                `json:"signature"`
	CreatedAt       time.Time             `json:"created_at"`
}

type LedgerEntry struct {
	ID            int64                 `json:"id"`
	AccountID     int64                 `json:"account_id"`
	TransactionID string                `json:"transaction_id"`
	Amount        decimal.Decimal       `json:"amount"`
	Currency      string                `json:"currency"`
	Type          string                `json:"type"`
	Status        string                `json:"status"`
	BeforeBalance decimal.Decimal       `json:"before_balance"`
	AfterBalance  decimal.Decimal       `json:"after_balance"`
	Fee           decimal.Decimal       `json:"fee"`
	Latitude      float64               `json:"latitude"`
	Longitude     float64               `json:"longitude"`
	Anomalies     pqtype.NullRawMessage `json:"anomalies"`
	Notes         string                `json:"notes"`
	CreatedAt     time.Time             `json:"created_at"`
}

type QueueJob struct {
	ID               int64                 `json:"id"`
	JobID            string                `json:"job_id"`
	RepeatJobKey     string                `json:"repeat_job_key"`
	UserID           int64                 `json:"user_id"`
	JobName          string                `json:"job_name"`
	QueueType        string                `json:"queue_type"`
	JobTime          string                `json:"job_time"`
	Amount           decimal.Decimal       `json:"amount"`
	Status           string                `json:"status"`
	RepeatedCount    int32                 `json:"repeated_count"`
	LastOccurrenceID string                `json:"last_occurrence_id"`
	Data             string                `json:"-"`
	ReferenceData    pqtype.NullRawMessage `json:"reference_data"`
	Signature        string                `json:"signature"`
	CreatedAt        time.Time             `json:"created_at"`
	UpdatedAt        time.Time             `json:"updated_at"`
}

type Session struct {
	ID                    int64          `json:"id"`
	UserID                int64          `json:"user_id"`
	Verified              bool           `json:"verified"`
	ExpoNotificationToken sql.NullString `json:"expo_notification_token"`
	Expires               time.Time      `json:"expires"`
	CreatedAt             time.Time      `json:"created_at"`
}

type Topup struct {
	ID          int64                 `json:"id"`
	ReferenceID string                `json:"reference_id"`
	PhoneID     int64                 `json:"phone_id"`
	CompanyID   int64                 `json:"company_id"`
	UserID      int64                 `json:"user_id"`
	Amount      decimal.Decimal       `json:"amount"`
	Status      string                `json:"status"`
	Location    pqtype.NullRawMessage `json:"location"`
	CreatedAt   time.Time             `json:"created_at"`
	UpdatedAt   time.Time             `json:"updated_at"`
}

type TopupsCompany struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Logo   string `json:"logo"`
	Status string `json:"status"`
}

type TopupsPhone struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	CompanyID   int64     `json:"company_id"`
	FullName    string    `json:"full_name"`
	Phone       string    `json:"phone"`
	LastUpdated time.Time `json:"last_updated"`
}

type Transaction struct {
	ID               int64                 `json:"id"`
	TransactionID    string                `json:"transaction_id"`
	FromAccount      int64                 `json:"from_account"`
	ToAccount        int64                 `json:"to_account"`
	SenderFullName   string                `json:"sender_full_name"`
	ReceiverFullName string                `json:"receiver_full_name"`
	Amount           decimal.Decimal       `json:"amount"`
	DeliveredAmount  decimal.Decimal       `json:"delivered_amount"`
	VoidedAmount     decimal.Decimal       `json:"voided_amount"`
	TransactionType  string                `json:"transaction_type"`
	Currency         string                `json:"currency"`
	Status           string                `json:"status"`
	Location         pqtype.NullRawMessage `json:"location"`
	Signature        string                `json:"signature"`
	DeviceID         string                `json:"device_id"`
	IpAddress        string                `json:"ip_address"`
	SessionID        string                `json:"session_id"`
	Platform         string                `json:"platform"`
	IsRecurring      bool                  `json:"is_recurring"`
	PreviousBalance  decimal.Decimal       `json:"previous_balance"`
	FraudScore       float64               `json:"fraud_score"`
	Speed            float64               `json:"speed"`
	Distance         float64               `json:"distance"`
	Features         pqtype.NullRawMessage `json:"features"`
	CreatedAt        time.Time             `json:"created_at"`
	UpdatedAt        time.Time             `json:"updated_at"`
}

type User struct {
	ID              int64          `json:"id"`
	Username        string         `json:"username"`
	FullName        string         `json:"full_name"`
	ProfileImageUrl sql.NullString `json:"profile_image_url"`
	CreatedAt       time.Time      `json:"created_at"`
}
