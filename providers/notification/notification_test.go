package notification_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/SwiftFiat/SwiftFiat-Queue/internal/testutil"
	"github.com/SwiftFiat/SwiftFiat-Queue/models"
	"github.com/SwiftFiat/SwiftFiat-Queue/providers/notification"
	"github.com/SwiftFiat/SwiftFiat-Queue/utils"
)

func TestEmitSocketEvent_PostsJSONRPC(t *testing.T) {
	var got models.RPCRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":true}`))
	}))
	defer srv.Close()
	logger, _ := testutil.Logger(t)
	p := notification.NewNotificationProvider(&utils.Config{NotificationServerURL: srv.URL}, logger)

	err := p.EmitSocketEvent(context.Background(), notification.SocketEvent{
		Data:                json.RawMessage(`{"transactionId":"tx1"}`),
		Channel:             notification.ChannelTransactionCreated,
		SenderSocketRoom:    "$ana",
		RecipientSocketRoom: "$bob",
	})
	if err != nil {
		t.Fatalf("EmitSocketEvent() error = %v", err)
	}
	if got.Method != notification.MethodSocketEvent {
		t.Errorf("method = %q", got.Method)
	}
	var ev notification.SocketEvent
	if err := json.Unmarshal(got.Params, &ev); err != nil || ev.RecipientSocketRoom != "$bob" {
		t.Errorf("params = %s", got.Params)
	}
}

func TestPush_GivenEmptyBatch_ThenNoCall(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()
	logger, _ := testutil.Logger(t)
	p := notification.NewNotificationProvider(&utils.Config{NotificationServerURL: srv.URL}, logger)

	if err := p.Push(context.Background(), notification.PushBatch{}); err != nil {
		t.Errorf("Push(empty) error = %v", err)
	}
	if calls != 0 {
		t.Errorf("server called %d times", calls)
	}

	err := p.Push(context.Background(), notification.PushBatch{Data: []notification.PushMessage{{Token: "ExponentPushToken[x]", Message: "hola"}}})
	if !models.IsRetryable(err) {
		t.Errorf("Push() error = %v, want retryable", err)
	}
}
