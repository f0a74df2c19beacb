package transaction

import (
	"context"

	"github.com/SwiftFiat/SwiftFiat-Queue/models"
	"github.com/SwiftFiat/SwiftFiat-Queue/services/queue"
	"github.com/sirupsen/logrus"
)

// Register installs a handler for every transaction job kind.
func (s *TransactionService) Register(r *queue.Registry) error {
	handlers := map[queue.Kind]queue.Handler{
		queue.KindQueueTransaction: func(ctx context.Context, d *queue.Delivery) error {
			var req QueuedTransfer
			if err := d.Envelope.Decode(&req); err != nil {
				return err
			}
			_, err := s.CreateQueuedTransaction(ctx, req)
			return err
		},
		queue.KindQueueRequestTransaction: func(ctx context.Context, d *queue.Delivery) error {
			var req QueuedTransfer
			if err := d.Envelope.Decode(&req); err != nil {
				return err
			}
			_, err := s.CreateRequestQueuedTransaction(ctx, req)
			return err
		},
		queue.KindPendingTransaction: func(ctx context.Context, d *queue.Delivery) error {
			var ref SettlementRef
			if err := d.Envelope.Decode(&ref); err != nil {
				return err
			}
			_, err := s.PendingTransaction(ctx, ref.TransactionID)
			return err
		},
		queue.KindPayRequestTransaction: func(ctx context.Context, d *queue.Delivery) error {
			var req PayRequest
			if err := d.Envelope.Decode(&req); err != nil {
				return err
			}
			_, err := s.PayRequestTransaction(ctx, req)
			return err
		},
		queue.KindCancelRequestedTransaction: func(ctx context.Context, d *queue.Delivery) error {
			var req CancelRequest
			if err := d.Envelope.Decode(&req); err != nil {
				return err
			}
			_, err := s.CancelRequestedTransaction(ctx, req)
			return err
		},
		queue.KindCreateBankingTransaction: func(ctx context.Context, d *queue.Delivery) error {
			var req BankingTransfer
			if err := d.Envelope.Decode(&req); err != nil {
				return err
			}
			_, err := s.CreateBankingTransaction(ctx, req)
			return err
		},
		queue.KindTrainFraudModel: func(ctx context.Context, d *queue.Delivery) error {
			var req TrainRequest
			if err := d.Envelope.Decode(&req); err != nil {
				return err
			}
			_, err := s.TrainTransactionFraudDetectionModel(ctx, req)
			return err
		},
		queue.KindRecurringTransaction: func(ctx context.Context, d *queue.Delivery) error {
			_, err := s.ProcessRecurringTransaction(ctx, d.Job.RepeatJobKey, d.Job.ID)
			return err
		},
	}
	for kind, h := range handlers {
		if err := r.Register(kind, h); err != nil {
			return err
		}
	}
	return nil
}

// TrainTransactionFraudDetectionModel retrains the classifier once enough new
// labelled transfers exist. It reports whether a retrain ran.
func (s *TransactionService) TrainTransactionFraudDetectionModel(ctx context.Context, req TrainRequest) (bool, error) {
	trained, err := s.fraud.Train(ctx, req.LastTransactionFeatures)
	if err != nil {
		return false, models.Wrap("trainTransactionFraudDetectionModel", err)
	}
	s.logger.WithField("trained", trained).Info("fraud model training checked")
	return trained, nil
}

// ProcessRecurringTransaction runs one occurrence of a recurring transfer.
// The occurrence id seeds the transaction id, so a redelivered occurrence
// does not charge twice.
func (s *TransactionService) ProcessRecurringTransaction(ctx context.Context, repeatJobKey, occurrenceID string) (*Outcome, error) {
	if repeatJobKey == "" {
		return nil, ErrNotRecurring
	}
	rec, env, err := s.queue.LoadRecurring(ctx, repeatJobKey)
	if err != nil {
		return nil, err
	}
	if env.Kind != queue.KindRecurringTransaction {
		return nil, models.Wrap(string(env.Kind), ErrNotRecurring)
	}
	var req QueuedTransfer
	if err := env.Decode(&req); err != nil {
		return nil, err
	}

	req.Transaction.TransactionID = s.tokens.Derive(occurrenceID)
	req.Transaction.Recurrence = Recurrence{}
	req.Transaction.IsRecurring = true

	out, err := s.CreateQueuedTransaction(ctx, req)
	if err != nil {
		return nil, err
	}
	if _, err := s.queue.RecordRun(ctx, repeatJobKey, occurrenceID); err != nil {
		return nil, err
	}
	s.log(req.Transaction.TransactionID).WithFields(logrus.Fields{
		"repeat_job_key": repeatJobKey,
		"user_id":        rec.UserID,
		"suspicious":     out.Suspicious,
	}).Info("recurring transfer processed")
	return out, nil
}
