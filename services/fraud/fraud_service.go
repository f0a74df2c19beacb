package fraud

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	db "github.com/SwiftFiat/SwiftFiat-Queue/db/sqlc"
	"github.com/SwiftFiat/SwiftFiat-Queue/providers/anomaly"
	"github.com/SwiftFiat/SwiftFiat-Queue/services/monitoring/logging"
	"github.com/sirupsen/logrus"
	"github.com/sqlc-dev/pqtype"
)

const (
	// StatusAudited marks a transfer ops already reviewed.
	StatusAudited = "audited"

	lookback = 30 * 24 * time.Hour
	// RetrainBatch is both the bootstrap sample and the backlog a retrain waits for.
	RetrainBatch = 1000
)

// Classifier is the external model.
type Classifier interface {
	Detect(ctx context.Context, features []float64) (*anomaly.Detection, error)
	Retrain(ctx context.Context, features []json.RawMessage) error
}

type FraudService struct {
	store      db.Querier
	classifier Classifier
	logger     *logging.Logger
}

func NewFraudService(store db.Querier, classifier Classifier, logger *logging.Logger) *FraudService {
	return &FraudService{store: store, classifier: classifier, logger: logger}
}

// Previous loads the sender's most recent transfer of the last 30 days.
func (s *FraudService) Previous(ctx context.Context, accountID int64, now time.Time) (*Previous, error) {
	last, err := s.store.GetLastTransactionFromAccount(ctx, db.GetLastTransactionFromAccountParams{
		FromAccount: accountID,
		Since:       now.Add(-lookback),
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	p, ok := PointFrom(last.Location.RawMessage)
	if !ok {
		return nil, nil
	}
	return &Previous{Location: p, At: last.CreatedAt, Audited: last.Status == StatusAudited}, nil
}

// Evaluate builds the features of in and asks the classifier for a verdict.
func (s *FraudService) Evaluate(ctx context.Context, accountID int64, in Input) (Features, *anomaly.Detection, error) {
	prev, err := s.Previous(ctx, accountID, in.At)
	if err != nil {
		return Features{}, nil, err
	}
	f := Build(in, prev)
	if f.Currency < 0 || f.Platform < 0 {
		return f, nil, ErrUnknownFeature
	}

	verdict, err := s.classifier.Detect(ctx, f.Vector())
	if err != nil {
		return f, nil, err
	}
	s.logger.WithFields(logrus.Fields{
		"account_id":  accountID,
		"is_fraud":    verdict.IsFraud,
		"fraud_score": verdict.FraudScore,
		"distance":    f.Distance,
		"speed":       f.Speed,
	}).Info("transfer scored")
	return f, verdict, nil
}

// Train retrains the model from lastFeatures on. Without a known watermark it
// bootstraps from the most recent labelled transfers; otherwise it waits until
// more than RetrainBatch new ones piled up.
func (s *FraudService) Train(ctx context.Context, lastFeatures json.RawMessage) (bool, error) {
	watermark, err := s.store.GetEarliestTransactionByFeatures(ctx, pqtype.NullRawMessage{RawMessage: lastFeatures, Valid: len(lastFeatures) > 0})
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return false, err
	}

	var after time.Time
	limit := int32(RetrainBatch)
	if err == nil {
		after = watermark.CreatedAt
		backlog, err := s.store.CountTrainingTransactions(ctx, after)
		if err != nil {
			return false, err
		}
		if backlog <= RetrainBatch {
			s.logger.WithField("backlog", backlog).Debug("retrain skipped, backlog too small")
			return false, nil
		}
		limit = int32(backlog)
	}

	rows, err := s.store.ListTrainingTransactions(ctx, db.ListTrainingTransactionsParams{After: after, Limit: limit})
	if err != nil {
		return false, err
	}
	samples := make([]json.RawMessage, 0, len(rows))
	for _, r := range rows {
		if r.Features.Valid {
			samples = append(samples, r.Features.RawMessage)
		}
	}
	if len(samples) == 0 {
		return false, nil
	}
	if err := s.classifier.Retrain(ctx, samples); err != nil {
		return false, err
	}
	return true, nil
}
