package transaction

import (
	"context"
	"database/sql"
	"errors"

	db "github.com/SwiftFiat/SwiftFiat-Queue/db/sqlc"
	"github.com/SwiftFiat/SwiftFiat-Queue/models"
	provider "github.com/SwiftFiat/SwiftFiat-Queue/providers/notification"
	"github.com/SwiftFiat/SwiftFiat-Queue/services/account"
	"github.com/SwiftFiat/SwiftFiat-Queue/utils"
	"github.com/sirupsen/logrus"
	"github.com/sqlc-dev/pqtype"
)

// CreateBankingTransaction applies a deposit from or a withdrawal to a linked
// card. The card side is not charged here; only the account moves.
func (s *TransactionService) CreateBankingTransaction(ctx context.Context, req BankingTransfer) (*db.BankingTransaction, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	if err := checkCurrency(req.Currency); err != nil {
		return nil, err
	}

	existing, err := s.store.GetBankingTransaction(ctx, req.TransactionID)
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	acct, err := s.accounts.Get(ctx, s.store, req.AccountID)
	if err != nil {
		return nil, err
	}
	if acct.UserID != req.UserID {
		return nil, ErrAccountMismatch
	}
	if err := s.protocol.VerifyRSA(s.protocol.BankingMessage(req.AccountID, req.UserID, req.Amount), req.Signature); err != nil {
		return nil, models.Wrap("createBankingTransaction", err)
	}

	action := account.ActionDeposit
	if req.TransactionType == TypeWithdraw {
		action = account.ActionWithdraw
	}
	amount, err := account.Amount(req.Amount)
	if err != nil {
		return nil, err
	}
	delta := account.Delta{AccountID: acct.ID, Action: action, Amount: amount, Fields: account.FieldBoth}
	if err := account.Check(acct, delta); err != nil {
		return nil, err
	}

	loc, err := locationJSON(req.Location)
	if err != nil {
		return nil, err
	}
	var data pqtype.NullRawMessage
	if len(req.Data) > 0 {
		data = pqtype.NullRawMessage{RawMessage: req.Data, Valid: true}
	}

	var created db.BankingTransaction
	err = s.store.ExecTx(ctx, func(q db.Querier) error {
		var err error
		created, err = q.CreateBankingTransaction(ctx, db.CreateBankingTransactionParams{
			TransactionID:   req.TransactionID,
			AccountID:       acct.ID,
			UserID:          req.UserID,
			CardID:          req.CardID,
			Amount:          amount,
			TransactionType: req.TransactionType,
			Currency:        utils.CurrencyDOP,
			Status:          StatusCompleted,
			Location:        loc,
			Data:            data,
			Signature:       req.Signature,
		})
		if err != nil {
			return err
		}
		_, err = s.accounts.ApplyDelta(ctx, q, delta)
		return err
	})
	if err != nil {
		return nil, models.Wrap("createBankingTransaction", err)
	}

	s.log(req.TransactionID).WithFields(logrus.Fields{
		"account_id": acct.ID,
		"card_id":    req.CardID,
		"type":       req.TransactionType,
		"amount":     amount.String(),
	}).Info("banking transaction applied, card gateway not charged")
	s.emit(ctx, req.TransactionID, provider.ChannelNotificationBankingTransaction, acct.Username, acct.Username, created)
	return &created, nil
}
