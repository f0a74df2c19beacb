package topup

import (
	db "github.com/SwiftFiat/SwiftFiat-Queue/db/sqlc"
	"github.com/SwiftFiat/SwiftFiat-Queue/providers/geocoding"
	"github.com/SwiftFiat/SwiftFiat-Queue/services/queue"
	"github.com/SwiftFiat/SwiftFiat-Queue/utils"
	"github.com/shopspring/decimal"
)

const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
)

type Recurrence struct {
	Title string `json:"title"`
	Time  string `json:"time"`
}

func (r Recurrence) Scheduled() bool {
	return r.Time != "" && r.Time != utils.OneTime
}

// Request is the body of a queueTopUp job and the template a recurring
// top-up replays.
type Request struct {
	ReferenceID    string             `json:"referenceId" validate:"required"`
	UserID         int64              `json:"userId" validate:"required"`
	SenderUsername string             `json:"senderUsername" validate:"required"`
	FullName       string             `json:"fullName" validate:"required"`
	PhoneNumber    string             `json:"phoneNumber" validate:"required"`
	CompanyID      int64              `json:"companyId" validate:"required"`
	Amount         decimal.Decimal    `json:"amount" validate:"gt=0"`
	Location       geocoding.Location `json:"location"`
	Recurrence     Recurrence         `json:"recurrenceData"`
}

type SettlementRef struct {
	ReferenceID string `json:"referenceId" validate:"required"`
}

type Outcome struct {
	TopUp      db.Topup         `json:"topUp"`
	Replayed   bool             `json:"replayed"`
	Settlement *queue.JobHandle `json:"settlement,omitempty"`
	Recurrence *queue.JobHandle `json:"recurrence,omitempty"`
}
