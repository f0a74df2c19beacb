package transaction

import (
	"encoding/json"

	db "github.com/SwiftFiat/SwiftFiat-Queue/db/sqlc"
	"github.com/SwiftFiat/SwiftFiat-Queue/providers/geocoding"
	"github.com/SwiftFiat/SwiftFiat-Queue/services/queue"
	"github.com/SwiftFiat/SwiftFiat-Queue/utils"
	"github.com/shopspring/decimal"
)

const (
	StatusPending    = "pending"
	StatusRequested  = "requested"
	StatusSuspicious = "suspicious"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
)

const (
	TypeTransfer = "transfer"
	TypeRequest  = "request"
	TypeDeposit  = "deposit"
	TypeWithdraw = "withdraw"
)

// Recurrence is the cadence a client attaches to a transfer, e.g.
// {title: weekly, time: everyMonday}.
type Recurrence struct {
	Title string `json:"title"`
	Time  string `json:"time"`
}

func (r Recurrence) Scheduled() bool {
	return r.Time != "" && r.Time != utils.OneTime
}

type Device struct {
	DeviceID  string `json:"deviceId"`
	SessionID string `json:"sessionId"`
	IPAddress string `json:"ipAddress"`
	Platform  string `json:"platform" validate:"required"`
}

// Party identifies the caller that initiated a queued transfer or request.
type Party struct {
	UserID    int64  `json:"id"`
	Username  string `json:"username" validate:"required"`
	FullName  string `json:"fullName"`
	AccountID int64  `json:"accountId"`
}

type Details struct {
	TransactionID   string             `json:"transactionId" validate:"required"`
	Amount          decimal.Decimal    `json:"amount" validate:"gt=0"`
	Currency        string             `json:"currency" validate:"required"`
	TransactionType string             `json:"transactionType" validate:"required"`
	Location        geocoding.Location `json:"location"`
	Signature       string             `json:"signature" validate:"required"`
	IsRecurring     bool               `json:"isRecurring"`
	Recurrence      Recurrence         `json:"recurrenceData"`
}

// QueuedTransfer is the body of queueTransaction and queueRequestTransaction
// jobs, and the template a recurring transfer replays.
type QueuedTransfer struct {
	Sender           Party   `json:"sender"`
	ReceiverUsername string  `json:"receiverUsername" validate:"required"`
	Transaction      Details `json:"transaction"`
	Device           Device  `json:"device"`
}

// DirectTransfer moves money at once, without the fraud check.
type DirectTransfer struct {
	Sender          string             `json:"sender" validate:"required"`
	Receiver        string             `json:"receiver" validate:"required"`
	Amount          decimal.Decimal    `json:"amount" validate:"gt=0"`
	TransactionType string             `json:"transactionType" validate:"required"`
	Currency        string             `json:"currency" validate:"required"`
	Location        geocoding.Location `json:"location"`
}

type PayRequest struct {
	TransactionID   string `json:"transactionId" validate:"required"`
	ToAccount       int64  `json:"toAccount" validate:"required"`
	PaymentApproved bool   `json:"paymentApproved"`
}

type CancelRequest struct {
	TransactionID  string `json:"transactionId" validate:"required"`
	FromAccount    int64  `json:"fromAccount" validate:"required"`
	SenderUsername string `json:"senderUsername" validate:"required"`
}

// BankingTransfer is a deposit from or a withdrawal to a linked card.
type BankingTransfer struct {
	TransactionID   string             `json:"transactionId" validate:"required"`
	AccountID       int64              `json:"accountId" validate:"required"`
	UserID          int64              `json:"userId" validate:"required"`
	CardID          int64              `json:"cardId"`
	Amount          decimal.Decimal    `json:"amount" validate:"gt=0"`
	TransactionType string             `json:"transactionType" validate:"oneof=deposit withdraw"`
	Currency        string             `json:"currency" validate:"required"`
	Location        geocoding.Location `json:"location"`
	Data            json.RawMessage    `json:"data,omitempty"`
	Signature       string             `json:"signature" validate:"required"`
}

type SettlementRef struct {
	TransactionID string `json:"transactionId" validate:"required"`
}

type TrainRequest struct {
	LastTransactionFeatures json.RawMessage `json:"last_transaction_features" validate:"required"`
}

// Outcome is the result of a queued transfer. Suspicious is a valid end
// state, not an error.
type Outcome struct {
	Transaction db.Transaction   `json:"transaction"`
	Suspicious  bool             `json:"suspicious"`
	Replayed    bool             `json:"replayed"`
	Settlement  *queue.JobHandle `json:"settlement,omitempty"`
	Recurrence  *queue.JobHandle `json:"recurrence,omitempty"`
}
