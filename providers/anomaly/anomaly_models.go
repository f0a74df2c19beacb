package anomaly

import "encoding/json"

const (
	MethodDetect  = "detect_fraudulent_transaction"
	MethodRetrain = "retrain_model"
)

type DetectRequest struct {
	Features []float64 `json:"features"`
}

// Detection is the classifier verdict. LastTransactionFeatures is only set
// when the model wants to be retrained from that point on.
type Detection struct {
	IsFraud                 bool            `json:"is_fraud"`
	FraudScore              float64         `json:"fraud_score"`
	Features                json.RawMessage `json:"features"`
	LastTransactionFeatures json.RawMessage `json:"last_transaction_features,omitempty"`
}

func (d Detection) WantsRetrain() bool {
	return len(d.LastTransactionFeatures) > 0 && string(d.LastTransactionFeatures) != "null"
}

type RetrainRequest struct {
	Features []json.RawMessage `json:"features"`
}
