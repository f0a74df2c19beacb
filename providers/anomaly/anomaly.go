package anomaly

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/SwiftFiat/SwiftFiat-Queue/models"
	"github.com/SwiftFiat/SwiftFiat-Queue/providers"
	"github.com/SwiftFiat/SwiftFiat-Queue/services/monitoring/logging"
	"github.com/SwiftFiat/SwiftFiat-Queue/utils"
	"github.com/sirupsen/logrus"
)

// AnomalyProvider talks JSON-RPC to the fraud classifier.
type AnomalyProvider struct {
	providers.BaseProvider
}

func NewAnomalyProvider(c *utils.Config, logger *logging.Logger) *AnomalyProvider {
	return &AnomalyProvider{
		BaseProvider: providers.BaseProvider{
			Name:    providers.Anomaly,
			BaseURL: c.AnomalyServerURL,
			Client: &http.Client{
				Timeout: time.Second * 15,
			},
			Logger: logger,
		},
	}
}

func (p *AnomalyProvider) Detect(ctx context.Context, features []float64) (*Detection, error) {
	var out Detection
	if err := p.Call(ctx, MethodDetect, DetectRequest{Features: features}, &out); err != nil {
		return nil, asTransient(err)
	}
	if len(out.Features) == 0 {
		return nil, models.Transient(p.Name, fmt.Errorf("%s returned no features", MethodDetect))
	}
	p.Logger.WithFields(logrus.Fields{
		"is_fraud":    out.IsFraud,
		"fraud_score": out.FraudScore,
	}).Debug("fraud verdict received")
	return &out, nil
}

func (p *AnomalyProvider) Retrain(ctx context.Context, features []json.RawMessage) error {
	if err := p.Call(ctx, MethodRetrain, RetrainRequest{Features: features}, nil); err != nil {
		return asTransient(err)
	}
	p.Logger.WithField("samples", len(features)).Info("fraud model retrain requested")
	return nil
}

// The classifier is an infrastructure dependency: anything it answers with
// other than a verdict is worth another attempt.
func asTransient(err error) error {
	if models.KindOf(err) == models.KindTransient {
		return err
	}
	return models.Transient(providers.Anomaly, err)
}
