package models

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"not found", NotFound("account not found"), false},
		{"validation", Validation("insufficient balance"), false},
		{"signature", ErrSignatureInvalid, false},
		{"wrapped signature", Wrap("processQueuedTransaction", ErrSignatureInvalid), false},
		{"transient", Transient("fraud.detect", errors.New("connection refused")), true},
		{"plain error", errors.New("pq: deadlock detected"), true},
		{"fmt wrapped validation", fmt.Errorf("outer: %w", Validation("x")), false},
		{"canceled", context.Canceled, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestWrap_KeepsKindAndSentinelIdentity(t *testing.T) {
	sentinel := NotFound("transaction not found")
	err := Wrap("pendingTransaction", sentinel)

	if !errors.Is(err, sentinel) {
		t.Error("errors.Is(wrapped, sentinel) = false")
	}
	if KindOf(err) != KindNotFound {
		t.Errorf("KindOf() = %v", KindOf(err))
	}
	if err.Error() != "pendingTransaction: transaction not found" {
		t.Errorf("Error() = %q", err.Error())
	}
	if errors.Is(err, NotFound("account not found")) {
		t.Error("errors.Is matched a different sentinel")
	}
}

func TestTransient_UnwrapsCause(t *testing.T) {
	cause := errors.New("dial tcp: timeout")
	err := Transient("anomaly.detect", cause)
	if !errors.Is(err, cause) {
		t.Error("errors.Is(transient, cause) = false")
	}
}

func TestRPCErrorFor(t *testing.T) {
	tests := []struct {
		err  error
		code int
	}{
		{NotFound("x"), RPCNotFound},
		{Validation("x"), RPCInvalidParams},
		{ErrSignatureInvalid, RPCSignatureInvalid},
		{Transient("op", errors.New("x")), RPCUnavailable},
		{errors.New("boom"), RPCInternalError},
	}
	for _, tt := range tests {
		if got := RPCErrorFor(tt.err); got.Code != tt.code {
			t.Errorf("RPCErrorFor(%v).Code = %d, want %d", tt.err, got.Code, tt.code)
		}
	}
	if msg := RPCErrorFor(errors.New("pq: secret detail")).Message; msg != "unknown internal error" {
		t.Errorf("unknown errors leak detail: %q", msg)
	}
}
