package account

import (
	"context"
	"database/sql"
	"errors"
	"sort"

	db "github.com/SwiftFiat/SwiftFiat-Queue/db/sqlc"
	"github.com/SwiftFiat/SwiftFiat-Queue/services/monitoring/logging"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Precision is the number of decimal places money is persisted with.
const Precision = 4

const (
	StatusActive      = "active"
	StatusFlagged     = "flagged"
	StatusBlacklisted = "blacklisted"
)

type Action string

const (
	ActionSend     Action = "send"
	ActionReceive  Action = "receive"
	ActionWithdraw Action = "withdraw"
	ActionDeposit  Action = "deposit"
	// Settlement moves already authorized money and skips flags and limits.
	ActionSettleDebit  Action = "settleDebit"
	ActionSettleCredit Action = "settleCredit"
)

func (a Action) debit() bool {
	return a == ActionSend || a == ActionWithdraw || a == ActionSettleDebit
}

func (a Action) valid() bool {
	switch a {
	case ActionSend, ActionReceive, ActionWithdraw, ActionDeposit, ActionSettleDebit, ActionSettleCredit:
		return true
	}
	return false
}

// Field selects which balances a delta touches.
type Field uint8

const (
	FieldBalance Field = 1 << iota
	FieldPending
	FieldBoth = FieldBalance | FieldPending
)

type Delta struct {
	AccountID int64
	Action    Action
	Amount    decimal.Decimal
	Fields    Field
}

// Mutation is the outcome of one applied delta.
type Mutation struct {
	Account       db.Account
	BalanceBefore decimal.Decimal
	BalanceAfter  decimal.Decimal
	PendingBefore decimal.Decimal
	PendingAfter  decimal.Decimal
}

type AccountService struct {
	logger *logging.Logger
}

func NewAccountService(logger *logging.Logger) *AccountService {
	return &AccountService{logger: logger}
}

func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(Precision)
}

// Amount rounds a requested amount to the stored precision. Amounts that
// round down to zero are rejected.
func Amount(d decimal.Decimal) (decimal.Decimal, error) {
	amount := Round(d)
	if !amount.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	return amount, nil
}

func (s *AccountService) Get(ctx context.Context, q db.Querier, id int64) (db.Account, error) {
	a, err := q.GetAccountByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return db.Account{}, ErrAccountNotFound
	}
	return a, err
}

func (s *AccountService) GetByUsername(ctx context.Context, q db.Querier, username string) (db.Account, error) {
	a, err := q.GetAccountByUsername(ctx, username)
	if errors.Is(err, sql.ErrNoRows) {
		return db.Account{}, ErrAccountNotFound
	}
	return a, err
}

// LockAccounts takes row locks on ids in ascending order, so two transfers
// between the same pair of accounts can never wait on each other.
func (s *AccountService) LockAccounts(ctx context.Context, q db.Querier, ids ...int64) (map[int64]db.Account, error) {
	sorted := append([]int64(nil), ids...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	out := make(map[int64]db.Account, len(sorted))
	for _, id := range sorted {
		if _, seen := out[id]; seen {
			continue
		}
		a, err := q.GetAccountForUpdate(ctx, id)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		if err != nil {
			return nil, err
		}
		out[id] = a
	}
	return out, nil
}

// Allows rejects action when the capability flags on a forbid it.
func Allows(a db.Account, action Action) error {
	if a.Status == StatusBlacklisted && (action == ActionSend || action == ActionReceive || action == ActionWithdraw || action == ActionDeposit) {
		return ErrAccountBlocked
	}
	switch action {
	case ActionSend:
		if !a.AllowSend {
			return ErrSendNotAllowed
		}
	case ActionReceive:
		if !a.AllowReceive {
			return ErrReceiveNotAllowed
		}
	case ActionWithdraw:
		if !a.AllowWithdraw {
			return ErrWithdrawNotAllowed
		}
	case ActionDeposit:
		if !a.AllowDeposit {
			return ErrDepositNotAllowed
		}
	}
	return nil
}

func CanBeRequested(a db.Account) error {
	if !a.AllowRequestMe {
		return ErrRequestNotAllowed
	}
	return nil
}

func limitFor(a db.Account, action Action) (decimal.Decimal, bool) {
	switch action {
	case ActionSend:
		return a.SendLimit, true
	case ActionReceive:
		return a.ReceiveLimit, true
	case ActionWithdraw:
		return a.WithdrawLimit, true
	case ActionDeposit:
		return a.DepositLimit, true
	}
	return decimal.Zero, false
}

// Check runs every rule ApplyDelta enforces against a, without writing.
func Check(a db.Account, d Delta) error {
	if !d.Action.valid() || d.Fields == 0 {
		return ErrUnknownAction
	}
	amount := Round(d.Amount)
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	if err := Allows(a, d.Action); err != nil {
		return err
	}
	if limit, ok := limitFor(a, d.Action); ok && limit.IsPositive() && amount.GreaterThan(limit) {
		return ErrLimitExceeded
	}
	if d.Action.debit() {
		if d.Fields&FieldBalance != 0 && Round(a.Balance).LessThan(amount) {
			return ErrInsufficientFunds
		}
		if d.Fields&FieldPending != 0 && Round(a.PendingBalance).LessThan(amount) {
			return ErrInsufficientFunds
		}
	}
	return nil
}

// ApplyDelta re-reads the account under a row lock, validates d against the
// fresh row and writes the new balances guarded by the row version. It must
// run inside the caller's store transaction.
func (s *AccountService) ApplyDelta(ctx context.Context, q db.Querier, d Delta) (*Mutation, error) {
	a, err := q.GetAccountForUpdate(ctx, d.AccountID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := Check(a, d); err != nil {
		return nil, err
	}

	amount := Round(d.Amount)
	if d.Action.debit() {
		amount = amount.Neg()
	}

	m := &Mutation{
		BalanceBefore: Round(a.Balance),
		PendingBefore: Round(a.PendingBalance),
	}
	m.BalanceAfter, m.PendingAfter = m.BalanceBefore, m.PendingBefore
	if d.Fields&FieldBalance != 0 {
		m.BalanceAfter = Round(m.BalanceBefore.Add(amount))
	}
	if d.Fields&FieldPending != 0 {
		m.PendingAfter = Round(m.PendingBefore.Add(amount))
	}

	updated, err := q.UpdateAccountBalances(ctx, db.UpdateAccountBalancesParams{
		ID:             a.ID,
		Balance:        m.BalanceAfter,
		PendingBalance: m.PendingAfter,
		Version:        a.Version,
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrConcurrentUpdate
	}
	if err != nil {
		return nil, err
	}
	m.Account = updated

	s.logger.WithFields(logrus.Fields{
		"account_id": a.ID,
		"action":     d.Action,
		"amount":     amount.String(),
	}).Debug("balance updated")
	return m, nil
}

func (s *AccountService) Flag(ctx context.Context, q db.Querier, id int64) (db.Account, error) {
	a, err := q.UpdateAccountStatus(ctx, db.UpdateAccountStatusParams{ID: id, Status: StatusFlagged})
	if errors.Is(err, sql.ErrNoRows) {
		return db.Account{}, ErrAccountNotFound
	}
	return a, err
}
