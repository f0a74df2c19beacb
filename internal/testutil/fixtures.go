package testutil

import (
	"testing"

	"github.com/SwiftFiat/SwiftFiat-Queue/services/monitoring/logging"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

// Logger returns a logger that discards output and records every entry.
func Logger(t testing.TB) (*logging.Logger, *test.Hook) {
	t.Helper()
	l, hook := test.NewNullLogger()
	l.SetLevel(logrus.DebugLevel)
	return logging.Wrap(l), hook
}

// Redis starts a miniredis server torn down with the test.
func Redis(t testing.TB) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func Dec(t testing.TB, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("decimal %q: %v", s, err)
	}
	return d
}

// HasEntry reports whether hook saw a log entry with msg.
func HasEntry(hook *test.Hook, msg string) bool {
	for _, e := range hook.AllEntries() {
		if e.Message == msg {
			return true
		}
	}
	return false
}

// HasField reports whether any entry carries key=value.
func HasField(hook *test.Hook, key string, value interface{}) bool {
	for _, e := range hook.AllEntries() {
		if v, ok := e.Data[key]; ok && v == value {
			return true
		}
	}
	return false
}
