package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/SwiftFiat/SwiftFiat-Queue/models"
	"github.com/SwiftFiat/SwiftFiat-Queue/utils"
	"github.com/redis/go-redis/v9"
)

type RedisService struct {
	client *redis.Client
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

func ConfigFrom(c *utils.Config) *RedisConfig {
	return &RedisConfig{Host: c.RedisHost, Port: c.RedisPort, Password: c.RedisPassword, DB: c.RedisDB}
}

func NewRedisService(config *RedisConfig) (*RedisService, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", config.Host, config.Port),
		Password: config.Password,
		DB:       config.DB,
	})

	// Test the connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %v", err)
	}

	return &RedisService{client: client}, nil
}

// Wrap reuses an existing client.
func Wrap(client *redis.Client) *RedisService {
	return &RedisService{client: client}
}

// Client is shared with the job queues.
func (r *RedisService) Client() *redis.Client {
	return r.client
}

func (r *RedisService) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return models.Transient("redis.ping", err)
	}
	return nil
}

// QueuedTopUpsKey holds the top-ups the app shows as queued for userID.
func QueuedTopUpsKey(userID int64) string {
	return fmt.Sprintf("queuedTopUps:%d", userID)
}

// QueuedTopUps returns the cached queued top-ups of userID as raw entries.
func (r *RedisService) QueuedTopUps(ctx context.Context, userID int64) ([]json.RawMessage, error) {
	raw, err := r.client.Get(ctx, QueuedTopUpsKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, models.Transient("redis.get", err)
	}
	var entries []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil, fmt.Errorf("decode %s: %w", QueuedTopUpsKey(userID), err)
	}
	return entries, nil
}

// DropQueuedTopUp removes referenceID from the queued top-ups of userID. The
// key goes away with its last entry.
func (r *RedisService) DropQueuedTopUp(ctx context.Context, userID int64, referenceID string) error {
	entries, err := r.QueuedTopUps(ctx, userID)
	if err != nil || entries == nil {
		return err
	}

	kept := entries[:0]
	for _, e := range entries {
		var ref struct {
			ReferenceID string `json:"referenceId"`
		}
		if json.Unmarshal(e, &ref) == nil && ref.ReferenceID == referenceID {
			continue
		}
		kept = append(kept, e)
	}

	key := QueuedTopUpsKey(userID)
	if len(kept) == 0 {
		if err := r.client.Del(ctx, key).Err(); err != nil {
			return models.Transient("redis.del", err)
		}
		return nil
	}
	b, err := json.Marshal(kept)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, key, b, redis.KeepTTL).Err(); err != nil {
		return models.Transient("redis.set", err)
	}
	return nil
}

// Close closes the Redis connection
func (r *RedisService) Close() error {
	return r.client.Close()
}
