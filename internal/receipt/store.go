package receipt

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/drinkpos/internal/order"
	"github.com/noah-isme/drinkpos/internal/resilience"
)

// DefaultPath is where FileStore appends receipts when no path is configured.
const DefaultPath = "receipt.txt"

// ErrStoreNotConfigured is returned by stores missing their backing resource.
var ErrStoreNotConfigured = errors.New("receipt store not configured")

// Store persists rendered receipts.
type Store interface {
	Save(ctx context.Context, o order.Order, text string) error
}

// FileStore appends receipts to a text file.
type FileStore struct {
	Path string

	mu sync.Mutex
}

// Save appends text to the configured file, creating it when missing.
func (s *FileStore) Save(_ context.Context, _ order.Order, text string) error {
	if s == nil {
		return ErrStoreNotConfigured
	}
	path := s.Path
	if path == "" {
		path = DefaultPath
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open receipt file: %w", err)
	}
	if _, err := f.WriteString(text); err != nil {
		_ = f.Close()
		return fmt.Errorf("write receipt: %w", err)
	}
	return f.Close()
}

func (s *FileStore) String() string {
	if s == nil || s.Path == "" {
		return DefaultPath
	}
	return s.Path
}

// RedisStore keeps the most recent receipts in a capped redis list, newest first.
type RedisStore struct {
	Client     *redis.Client
	Key        string
	MaxEntries int64
}

const defaultRedisKey = "receipts"

func (s *RedisStore) key() string {
	if s.Key == "" {
		return defaultRedisKey
	}
	return s.Key
}

// Save pushes text onto the list and trims it to MaxEntries.
func (s *RedisStore) Save(ctx context.Context, _ order.Order, text string) error {
	if s == nil || s.Client == nil {
		return ErrStoreNotConfigured
	}
	_, err := s.Client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, s.key(), text)
		if s.MaxEntries > 0 {
			pipe.LTrim(ctx, s.key(), 0, s.MaxEntries-1)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("store receipt: %w", err)
	}
	return nil
}

// Recent returns up to n receipts, newest first.
func (s *RedisStore) Recent(ctx context.Context, n int64) ([]string, error) {
	if s == nil || s.Client == nil {
		return nil, ErrStoreNotConfigured
	}
	if n <= 0 {
		return []string{}, nil
	}
	return s.Client.LRange(ctx, s.key(), 0, n-1).Result()
}

// NopStore discards receipts.
type NopStore struct{}

func (NopStore) Save(context.Context, order.Order, string) error { return nil }

// GuardedStore routes saves through a breaker so a failing sink is skipped quickly
// instead of retried on every checkout.
type GuardedStore struct {
	Store   Store
	Breaker *resilience.Breaker
}

func (s GuardedStore) Save(ctx context.Context, o order.Order, text string) error {
	if s.Store == nil {
		return ErrStoreNotConfigured
	}
	if s.Breaker == nil {
		return s.Store.Save(ctx, o, text)
	}
	return s.Breaker.Do(ctx, func(ctx context.Context) error {
		return s.Store.Save(ctx, o, text)
	})
}
