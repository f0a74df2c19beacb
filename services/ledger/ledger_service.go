package ledger

import (
	"context"
	"encoding/json"

	db "github.com/SwiftFiat/SwiftFiat-Queue/db/sqlc"
	"github.com/SwiftFiat/SwiftFiat-Queue/services/monitoring/logging"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/sqlc-dev/pqtype"
)

const (
	TypeDebit  = "DEBIT"
	TypeCredit = "CREDIT"
)

const (
	StatusExecuted  = "EXECUTED"
	StatusPending   = "PENDING"
	StatusCompleted = "COMPLETED"
	StatusRecurring = "RECURRING"
)

// Side is one account's view of a movement. Status overrides the pair's
// status for that side when set.
type Side struct {
	AccountID int64
	Before    decimal.Decimal
	After     decimal.Decimal
	Status    string
}

type Pair struct {
	TransactionID string
	Amount        decimal.Decimal
	Currency      string
	Status        string
	Sender        Side
	Receiver      Side
	Latitude      float64
	Longitude     float64
	Anomalies     json.RawMessage
	Fee           decimal.Decimal
	Notes         string
}

type LedgerService struct {
	store  db.Querier
	logger *logging.Logger
}

func NewLedgerService(store db.Querier, logger *logging.Logger) *LedgerService {
	return &LedgerService{store: store, logger: logger}
}

// WritePair appends the debit and the credit of p through q. Callers pass the
// querier of their open store transaction so both rows land or neither does.
func (l *LedgerService) WritePair(ctx context.Context, q db.Querier, p Pair) (debit, credit db.LedgerEntry, err error) {
	if p.TransactionID == "" || !p.Amount.IsPositive() {
		return debit, credit, ErrInvalidEntry
	}
	if p.Sender.AccountID == p.Receiver.AccountID {
		return debit, credit, ErrSameAccount
	}

	var anomalies pqtype.NullRawMessage
	if len(p.Anomalies) > 0 {
		anomalies = pqtype.NullRawMessage{RawMessage: p.Anomalies, Valid: true}
	}

	entry := func(side Side, kind string) db.CreateLedgerEntryParams {
		status := side.Status
		if status == "" {
			status = p.Status
		}
		return db.CreateLedgerEntryParams{
			AccountID:     side.AccountID,
			TransactionID: p.TransactionID,
			Amount:        p.Amount,
			Currency:      p.Currency,
			Type:          kind,
			Status:        status,
			BeforeBalance: side.Before,
			AfterBalance:  side.After,
			Fee:           p.Fee,
			Latitude:      p.Latitude,
			Longitude:     p.Longitude,
			Anomalies:     anomalies,
			Notes:         p.Notes,
		}
	}

	if debit, err = q.CreateLedgerEntry(ctx, entry(p.Sender, TypeDebit)); err != nil {
		return debit, credit, err
	}
	if credit, err = q.CreateLedgerEntry(ctx, entry(p.Receiver, TypeCredit)); err != nil {
		return debit, credit, err
	}

	l.logger.WithFields(logrus.Fields{
		"transaction_id": p.TransactionID,
		"status":         p.Status,
		"amount":         p.Amount.String(),
	}).Debug("ledger pair written")
	return debit, credit, nil
}

// History lists every entry recorded for transactionID in write order.
func (l *LedgerService) History(ctx context.Context, transactionID string) ([]db.LedgerEntry, error) {
	entries, err := l.store.ListLedgerEntriesByTransaction(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, ErrNoEntriesFound
	}
	return entries, nil
}
