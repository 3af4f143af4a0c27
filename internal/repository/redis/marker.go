package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/notification"
	goredis "github.com/redis/go-redis/v9"
)

const markerPrefix = "hris:reminder:"

type markerStore struct {
	client *goredis.Client
}

// NewMarkerStore keeps reminder markers as expiring Redis keys.
func NewMarkerStore(client *goredis.Client) notification.MarkerStore {
	return &markerStore{client: client}
}

// Acquire implements notification.MarkerStore.
func (s *markerStore) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if key == "" {
		return false, errors.New("marker key is empty")
	}
	if ttl <= 0 {
		return false, errors.New("marker ttl must be positive")
	}

	ok, err := s.client.SetNX(ctx, markerPrefix+key, time.Now().UTC().Format(time.RFC3339), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire reminder marker: %w", err)
	}
	return ok, nil
}

// Release implements notification.MarkerStore.
func (s *markerStore) Release(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, markerPrefix+key).Err(); err != nil {
		return fmt.Errorf("failed to release reminder marker: %w", err)
	}
	return nil
}

// NewClient parses a redis:// URL and verifies the connection.
func NewClient(ctx context.Context, url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := goredis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}
