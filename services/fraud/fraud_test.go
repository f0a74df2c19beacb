package fraud_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	db "github.com/SwiftFiat/SwiftFiat-Queue/db/sqlc"
	"github.com/SwiftFiat/SwiftFiat-Queue/internal/testutil"
	"github.com/SwiftFiat/SwiftFiat-Queue/providers/anomaly"
	"github.com/SwiftFiat/SwiftFiat-Queue/services/fraud"
	"github.com/shopspring/decimal"
	"github.com/sqlc-dev/pqtype"
)

type fakeClassifier struct {
	verdict   anomaly.Detection
	err       error
	detected  [][]float64
	retrained [][]json.RawMessage
}

func (f *fakeClassifier) Detect(ctx context.Context, features []float64) (*anomaly.Detection, error) {
	f.detected = append(f.detected, features)
	if f.err != nil {
		return nil, f.err
	}
	v := f.verdict
	return &v, nil
}

func (f *fakeClassifier) Retrain(ctx context.Context, features []json.RawMessage) error {
	f.retrained = append(f.retrained, features)
	return nil
}

func TestDistance(t *testing.T) {
	tests := []struct {
		name string
		a, b fraud.Point
		want float64
	}{
		{"same point", fraud.Point{Latitude: 18.47, Longitude: -69.9}, fraud.Point{Latitude: 18.47, Longitude: -69.9}, 0},
		{"one degree of latitude", fraud.Point{Latitude: 0, Longitude: 0}, fraud.Point{Latitude: 1, Longitude: 0}, 111.19},
		{"santo domingo to santiago", fraud.Point{Latitude: 18.4861, Longitude: -69.9312}, fraud.Point{Latitude: 19.4517, Longitude: -70.6970}, 134.21},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := fraud.Distance(tt.a, tt.b); got != tt.want {
				t.Errorf("Distance() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSpeed(t *testing.T) {
	if got := fraud.Speed(100, 2*time.Hour); got != 50 {
		t.Errorf("Speed() = %v, want 50", got)
	}
	if got := fraud.Speed(10, 0); got != 0 {
		t.Errorf("Speed(no time) = %v, want 0", got)
	}
	if got := fraud.Speed(10, 3*time.Hour); got != 3.33 {
		t.Errorf("Speed() = %v, want 3.33", got)
	}
}

func TestBuild_GivenAuditedPrevious_ThenNoMovement(t *testing.T) {
	now := time.Date(2024, 1, 3, 12, 0, 0, 0, time.UTC)
	in := fraud.Input{
		Location:        fraud.Point{Latitude: 1, Longitude: 0},
		Amount:          decimal.RequireFromString("40.456"),
		Currency:        "DOP",
		TransactionType: "transfer",
		Platform:        "android",
		IsRecurring:     true,
		At:              now,
	}
	prev := &fraud.Previous{Location: fraud.Point{}, At: now.Add(-time.Hour)}

	got := fraud.Build(in, prev)
	want := fraud.Features{Speed: 111.19, Distance: 111.19, Amount: 40.46, Currency: 0, TransactionType: 0, Platform: 1, IsRecurring: 1}
	if got != want {
		t.Errorf("Build() = %+v, want %+v", got, want)
	}

	prev.Audited = true
	got = fraud.Build(in, prev)
	if got.Speed != 0 || got.Distance != 0 {
		t.Errorf("Build(audited) = %+v, want zero movement", got)
	}
	if v := got.Vector(); len(v) != 7 || v[2] != 40.46 || v[5] != 1 {
		t.Errorf("Vector() = %v", v)
	}
}

func TestEvaluate_UsesLastTransferOfSender(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewMemStore()
	now := time.Date(2024, 1, 3, 12, 0, 0, 0, time.UTC)
	store.AddTransaction(db.Transaction{
		TransactionID: "old",
		FromAccount:   1,
		Status:        "completed",
		Location:      pqtype.NullRawMessage{RawMessage: json.RawMessage(`{"latitude":0,"longitude":0}`), Valid: true},
		CreatedAt:     now.Add(-time.Hour),
	})
	logger, _ := testutil.Logger(t)
	cls := &fakeClassifier{verdict: anomaly.Detection{FraudScore: 0.2, Features: json.RawMessage(`[1]`)}}
	svc := fraud.NewFraudService(store, cls, logger)

	f, verdict, err := svc.Evaluate(ctx, 1, fraud.Input{
		Location: fraud.Point{Latitude: 1}, Amount: decimal.NewFromInt(5), Currency: "DOP", TransactionType: "transfer", Platform: "ios", At: now,
	})
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if f.Distance != 111.19 || f.Speed != 111.19 {
		t.Errorf("features = %+v", f)
	}
	if verdict.FraudScore != 0.2 || len(cls.detected) != 1 {
		t.Errorf("verdict = %+v, calls = %d", verdict, len(cls.detected))
	}

	if _, _, err := svc.Evaluate(ctx, 1, fraud.Input{Currency: "EUR", Platform: "ios", At: now}); !errors.Is(err, fraud.ErrUnknownFeature) {
		t.Errorf("Evaluate(EUR) error = %v", err)
	}
}

func addLabelled(store *testutil.MemStore, n int, from time.Time) {
	for i := 0; i < n; i++ {
		store.AddTransaction(db.Transaction{
			TransactionID: fmt.Sprintf("t%d", i),
			Status:        "completed",
			Features:      pqtype.NullRawMessage{RawMessage: json.RawMessage(fmt.Sprintf("[%d]", i)), Valid: true},
			CreatedAt:     from.Add(time.Duration(i) * time.Second),
		})
	}
}

func TestTrain(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		rows        int
		watermark   string
		wantRetrain bool
		wantSamples int
	}{
		{name: "no watermark bootstraps from the latest batch", rows: 1200, watermark: `[999999]`, wantRetrain: true, wantSamples: fraud.RetrainBatch},
		{name: "small backlog waits", rows: 600, watermark: `[0]`, wantRetrain: false},
		{name: "backlog over the batch retrains", rows: 1003, watermark: `[0]`, wantRetrain: true, wantSamples: 1002},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := testutil.NewMemStore()
			addLabelled(store, tt.rows, start)
			logger, _ := testutil.Logger(t)
			cls := &fakeClassifier{}

			got, err := fraud.NewFraudService(store, cls, logger).Train(context.Background(), json.RawMessage(tt.watermark))
			if err != nil {
				t.Fatalf("Train() error = %v", err)
			}
			if got != tt.wantRetrain {
				t.Fatalf("Train() = %v, want %v", got, tt.wantRetrain)
			}
			if tt.wantRetrain && len(cls.retrained[0]) != tt.wantSamples {
				t.Errorf("retrained on %d samples, want %d", len(cls.retrained[0]), tt.wantSamples)
			}
		})
	}
}
