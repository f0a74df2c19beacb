package transaction

import (
	"context"
	"database/sql"
	"errors"

	db "github.com/SwiftFiat/SwiftFiat-Queue/db/sqlc"
	"github.com/SwiftFiat/SwiftFiat-Queue/models"
	provider "github.com/SwiftFiat/SwiftFiat-Queue/providers/notification"
	"github.com/SwiftFiat/SwiftFiat-Queue/services/account"
	"github.com/SwiftFiat/SwiftFiat-Queue/services/ledger"
	"github.com/SwiftFiat/SwiftFiat-Queue/services/notification"
	"github.com/SwiftFiat/SwiftFiat-Queue/utils"
)

// CreateRequestQueuedTransaction records a payment request from the sender
// to ReceiverUsername. No money moves until the payer approves it.
func (s *TransactionService) CreateRequestQueuedTransaction(ctx context.Context, req QueuedTransfer) (*db.Transaction, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	d := req.Transaction
	requester, err := s.accounts.GetByUsername(ctx, s.store, req.Sender.Username)
	if err != nil {
		return nil, err
	}
	payer, err := s.accounts.GetByUsername(ctx, s.store, req.ReceiverUsername)
	if err != nil {
		return nil, err
	}

	if err := s.protocol.VerifyRSA(s.protocol.RequestMessage(d.TransactionID, d.Amount), d.Signature); err != nil {
		return nil, models.Wrap("queueRequestTransaction", err)
	}
	amount, err := account.Amount(d.Amount)
	if err != nil {
		return nil, err
	}

	tx, err := s.getTransaction(ctx, s.store, d.TransactionID)
	if err == nil {
		if !recordedAs(tx, TypeRequest, requester.ID, payer.ID, amount) {
			return nil, models.Wrap(d.TransactionID, ErrReplayMismatch)
		}
		s.notifyRequest(ctx, requester, payer, tx)
		return &tx, nil
	}
	if !errors.Is(err, ErrTransactionNotFound) {
		return nil, err
	}

	if err := account.CanBeRequested(payer); err != nil {
		return nil, err
	}
	if err := checkCurrency(d.Currency); err != nil {
		return nil, err
	}

	features, err := requestFeatures(amount, req.Device.Platform)
	if err != nil {
		return nil, err
	}
	loc, err := locationJSON(d.Location)
	if err != nil {
		return nil, err
	}
	tx, err = s.store.CreateTransaction(ctx, db.CreateTransactionParams{
		TransactionID:    d.TransactionID,
		FromAccount:      requester.ID,
		ToAccount:        payer.ID,
		SenderFullName:   requester.FullName,
		ReceiverFullName: payer.FullName,
		Amount:           amount,
		DeliveredAmount:  amount,
		TransactionType:  TypeRequest,
		Currency:         utils.CurrencyDOP,
		Status:           StatusRequested,
		Location:         loc,
		Signature:        d.Signature,
		DeviceID:         req.Device.DeviceID,
		IpAddress:        req.Device.IPAddress,
		SessionID:        req.Device.SessionID,
		Platform:         req.Device.Platform,
		PreviousBalance:  requester.Balance,
		Features:         features,
	})
	if db.IsUniqueViolation(err) {
		// a concurrent delivery got there first
		tx, err = s.getTransaction(ctx, s.store, d.TransactionID)
	}
	if err != nil {
		return nil, models.Wrap("queueRequestTransaction", err)
	}
	s.log(tx.TransactionID).WithField("amount", amount.String()).Info("payment requested")

	s.notifyRequest(ctx, requester, payer, tx)
	return &tx, nil
}

func (s *TransactionService) notifyRequest(ctx context.Context, requester, payer db.Account, tx db.Transaction) {
	s.push(ctx, tx.TransactionID, payer.UserID, notification.RequestMessage(requester.FullName, tx.Amount))
	s.emit(ctx, tx.TransactionID, provider.ChannelNotificationQueueTransaction, requester.Username, payer.Username, tx)
}

// requestFor loads a request and checks that it belongs to the caller. A
// request owned by someone else looks the same as a missing one.
func (s *TransactionService) requestFor(ctx context.Context, txID string, owns func(db.Transaction) bool) (db.Transaction, error) {
	tx, err := s.getTransaction(ctx, s.store, txID)
	if err != nil {
		return db.Transaction{}, err
	}
	if tx.TransactionType != TypeRequest || !owns(tx) {
		return db.Transaction{}, ErrTransactionNotFound
	}
	return tx, nil
}

// transition moves txID from one status to another. It reports false when the
// row had already left from, together with the row as it is now.
func (s *TransactionService) transition(ctx context.Context, q db.Querier, txID, from, to string) (db.Transaction, bool, error) {
	tx, err := q.TransitionTransactionStatus(ctx, db.TransitionTransactionStatusParams{
		TransactionID: txID,
		FromStatus:    from,
		ToStatus:      to,
	})
	if errors.Is(err, sql.ErrNoRows) {
		current, err := s.getTransaction(ctx, q, txID)
		return current, false, err
	}
	if err != nil {
		return db.Transaction{}, false, err
	}
	return tx, true, nil
}

// PayRequestTransaction answers a request. Declining cancels it; approving
// reserves the amount the same way a queued transfer does and schedules the
// settlement.
func (s *TransactionService) PayRequestTransaction(ctx context.Context, req PayRequest) (*Outcome, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	tx, err := s.requestFor(ctx, req.TransactionID, func(t db.Transaction) bool { return t.ToAccount == req.ToAccount })
	if err != nil {
		return nil, err
	}
	payer, err := s.accounts.Get(ctx, s.store, tx.ToAccount)
	if err != nil {
		return nil, err
	}
	requester, err := s.accounts.Get(ctx, s.store, tx.FromAccount)
	if err != nil {
		return nil, err
	}

	switch {
	case tx.Status == StatusRequested:
	case req.PaymentApproved && (tx.Status == StatusPending || tx.Status == StatusCompleted):
		return s.afterPaid(ctx, payer, requester, tx)
	case !req.PaymentApproved && tx.Status == StatusCancelled:
		s.emit(ctx, tx.TransactionID, provider.ChannelNotificationRequestCanceled, payer.Username, requester.Username, tx)
		return &Outcome{Transaction: tx, Replayed: true}, nil
	default:
		return nil, ErrTransactionNotFound
	}

	if err := s.protocol.VerifyRSA(s.protocol.RequestMessage(tx.TransactionID, tx.Amount), tx.Signature); err != nil {
		return nil, models.Wrap("payRequestTransaction", err)
	}

	if !req.PaymentApproved {
		cancelled, _, err := s.transition(ctx, s.store, tx.TransactionID, StatusRequested, StatusCancelled)
		if err != nil {
			return nil, models.Wrap("payRequestTransaction", err)
		}
		s.log(tx.TransactionID).Info("request declined")
		s.emit(ctx, tx.TransactionID, provider.ChannelNotificationRequestCanceled, payer.Username, requester.Username, cancelled)
		return &Outcome{Transaction: cancelled}, nil
	}

	if err := account.Check(payer, account.Delta{AccountID: payer.ID, Action: account.ActionSend, Amount: tx.Amount, Fields: account.FieldBoth}); err != nil {
		return nil, err
	}
	if err := account.Check(requester, account.Delta{AccountID: requester.ID, Action: account.ActionReceive, Amount: tx.Amount, Fields: account.FieldBoth}); err != nil {
		return nil, err
	}

	var paid db.Transaction
	err = s.store.ExecTx(ctx, func(q db.Querier) error {
		var moved bool
		var err error
		paid, moved, err = s.transition(ctx, q, tx.TransactionID, StatusRequested, StatusPending)
		if err != nil {
			return err
		}
		if !moved {
			return models.Wrap(paid.Status, ErrInvalidStatus)
		}
		if _, err := s.accounts.LockAccounts(ctx, q, payer.ID, requester.ID); err != nil {
			return err
		}
		pm, err := s.accounts.ApplyDelta(ctx, q, account.Delta{AccountID: payer.ID, Action: account.ActionSend, Amount: tx.Amount, Fields: account.FieldPending})
		if err != nil {
			return err
		}
		rm, err := s.accounts.ApplyDelta(ctx, q, account.Delta{AccountID: requester.ID, Action: account.ActionReceive, Amount: tx.Amount, Fields: account.FieldBalance})
		if err != nil {
			return err
		}
		_, _, err = s.ledger.WritePair(ctx, q, ledger.Pair{
			TransactionID: tx.TransactionID,
			Amount:        tx.Amount,
			Currency:      tx.Currency,
			Status:        ledger.StatusExecuted,
			Sender:        ledger.Side{AccountID: payer.ID, Before: pm.PendingBefore, After: pm.PendingAfter},
			Receiver:      ledger.Side{AccountID: requester.ID, Before: rm.BalanceBefore, After: rm.BalanceAfter},
			Notes:         "request paid",
		})
		return err
	})
	if err != nil {
		return nil, models.Wrap("payRequestTransaction", err)
	}
	s.log(tx.TransactionID).WithField("amount", tx.Amount.String()).Info("request paid")
	return s.afterPaid(ctx, payer, requester, paid)
}

func (s *TransactionService) afterPaid(ctx context.Context, payer, requester db.Account, tx db.Transaction) (*Outcome, error) {
	out := &Outcome{Transaction: tx}
	if tx.Status == StatusPending {
		h, err := s.scheduleSettlement(ctx, tx.TransactionID)
		if err != nil {
			return nil, err
		}
		out.Settlement = h
	}
	s.emit(ctx, tx.TransactionID, provider.ChannelNotificationRequestPaid, payer.Username, requester.Username, tx)
	s.push(ctx, tx.TransactionID, requester.UserID, notification.TransferMessage(payer.FullName, tx.Amount))
	return out, nil
}

// CancelRequestedTransaction withdraws a request. The other side is notified
// even when the request was already closed.
func (s *TransactionService) CancelRequestedTransaction(ctx context.Context, req CancelRequest) (*db.Transaction, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	tx, err := s.requestFor(ctx, req.TransactionID, func(t db.Transaction) bool { return t.FromAccount == req.FromAccount })
	if err != nil {
		return nil, err
	}
	payer, err := s.accounts.Get(ctx, s.store, tx.ToAccount)
	if err != nil {
		return nil, err
	}

	if tx.Status == StatusRequested {
		var moved bool
		tx, moved, err = s.transition(ctx, s.store, tx.TransactionID, StatusRequested, StatusCancelled)
		if err != nil {
			return nil, models.Wrap("cancelRequestedTransaction", err)
		}
		if moved {
			s.log(tx.TransactionID).Info("request cancelled")
		}
	}

	s.emit(ctx, tx.TransactionID, provider.ChannelNotificationRequestCanceled, req.SenderUsername, payer.Username, tx)
	return &tx, nil
}
