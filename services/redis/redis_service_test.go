package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/SwiftFiat/SwiftFiat-Queue/internal/testutil"
	"github.com/SwiftFiat/SwiftFiat-Queue/services/redis"
)

func TestDropQueuedTopUp(t *testing.T) {
	tests := []struct {
		name    string
		cached  string
		drop    string
		want    string
		present bool
	}{
		{
			name:    "keeps the other entries",
			cached:  `[{"referenceId":"a","amount":100},{"referenceId":"b","amount":50}]`,
			drop:    "a",
			want:    `[{"referenceId":"b","amount":50}]`,
			present: true,
		},
		{
			name:   "deletes the key with its last entry",
			cached: `[{"referenceId":"a"}]`,
			drop:   "a",
		},
		{
			name:    "unknown reference leaves the cache alone",
			cached:  `[{"referenceId":"a"}]`,
			drop:    "z",
			want:    `[{"referenceId":"a"}]`,
			present: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mr, rdb := testutil.Redis(t)
			svc := redis.Wrap(rdb)
			key := redis.QueuedTopUpsKey(7)
			if err := mr.Set(key, tt.cached); err != nil {
				t.Fatalf("seed: %v", err)
			}
			mr.SetTTL(key, time.Hour)

			if err := svc.DropQueuedTopUp(context.Background(), 7, tt.drop); err != nil {
				t.Fatalf("DropQueuedTopUp() error = %v", err)
			}
			if got := mr.Exists(key); got != tt.present {
				t.Fatalf("key present = %v, want %v", got, tt.present)
			}
			if !tt.present {
				return
			}
			got, _ := mr.Get(key)
			if got != tt.want {
				t.Errorf("cache = %s, want %s", got, tt.want)
			}
			if mr.TTL(key) != time.Hour {
				t.Errorf("ttl = %v, want it kept", mr.TTL(key))
			}
		})
	}
}

func TestDropQueuedTopUp_GivenNoCache_ThenNoop(t *testing.T) {
	mr, rdb := testutil.Redis(t)
	if err := redis.Wrap(rdb).DropQueuedTopUp(context.Background(), 9, "a"); err != nil {
		t.Fatalf("DropQueuedTopUp() error = %v", err)
	}
	if mr.Exists(redis.QueuedTopUpsKey(9)) {
		t.Error("key created")
	}
}
