package anomaly_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/SwiftFiat/SwiftFiat-Queue/internal/testutil"
	"github.com/SwiftFiat/SwiftFiat-Queue/models"
	"github.com/SwiftFiat/SwiftFiat-Queue/providers/anomaly"
	"github.com/SwiftFiat/SwiftFiat-Queue/utils"
)

func newProvider(t *testing.T, h http.HandlerFunc) *anomaly.AnomalyProvider {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	logger, _ := testutil.Logger(t)
	return anomaly.NewAnomalyProvider(&utils.Config{AnomalyServerURL: srv.URL}, logger)
}

func TestDetect_GivenVerdict_ThenDecoded(t *testing.T) {
	var gotReq models.RPCRequest
	p := newProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":{"is_fraud":true,"fraud_score":0.91,"features":[[1,2]],"last_transaction_features":[[0,0]]}}`))
	})

	got, err := p.Detect(context.Background(), []float64{12.5, 3.1, 40, 0, 0, 1, 0})
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if !got.IsFraud || got.FraudScore != 0.91 || !got.WantsRetrain() {
		t.Errorf("Detect() = %+v", got)
	}
	if gotReq.Method != anomaly.MethodDetect || gotReq.JSONRPC != "2.0" {
		t.Errorf("request = %+v", gotReq)
	}
	var params anomaly.DetectRequest
	if err := json.Unmarshal(gotReq.Params, &params); err != nil || len(params.Features) != 7 {
		t.Errorf("params = %s (%v)", gotReq.Params, err)
	}
}

func TestDetect_Failures_AreTransient(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusBadGateway) }},
		{"rpc error", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"jsonrpc":"2.0","id":1,"error":{"code":-32603,"message":"model not loaded"}}`))
		}},
		{"no features", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":{"is_fraud":false,"fraud_score":0}}`))
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newProvider(t, tt.handler).Detect(context.Background(), []float64{1})
			if models.KindOf(err) != models.KindTransient {
				t.Errorf("Detect() error = %v, want transient", err)
			}
		})
	}
}

func TestDetection_WantsRetrain(t *testing.T) {
	tests := []struct {
		raw  string
		want bool
	}{
		{`{"features":[1]}`, false},
		{`{"features":[1],"last_transaction_features":null}`, false},
		{`{"features":[1],"last_transaction_features":[[1,2]]}`, true},
	}
	for _, tt := range tests {
		var d anomaly.Detection
		if err := json.Unmarshal([]byte(tt.raw), &d); err != nil {
			t.Fatalf("unmarshal %s: %v", tt.raw, err)
		}
		if got := d.WantsRetrain(); got != tt.want {
			t.Errorf("WantsRetrain(%s) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}

func TestRetrain_SendsSamples(t *testing.T) {
	var n int
	p := newProvider(t, func(w http.ResponseWriter, r *http.Request) {
		var req models.RPCRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		var params anomaly.RetrainRequest
		_ = json.Unmarshal(req.Params, &params)
		n = len(params.Features)
		w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":"ok"}`))
	})

	err := p.Retrain(context.Background(), []json.RawMessage{json.RawMessage(`[1]`), json.RawMessage(`[2]`)})
	if err != nil {
		t.Fatalf("Retrain() error = %v", err)
	}
	if n != 2 {
		t.Errorf("server saw %d samples, want 2", n)
	}
}
