package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/drinkpos/internal/menu"
)

// CatalogKeys supplies the current menu keys in catalog order.
type CatalogKeys func() []menu.Key

// Service provides cached access to the sales summary. Cache entries are keyed by the
// process instance, a digest of the menu keys and the number of folded orders, so a new
// order, a menu swap or another process sharing the redis never serves a foreign snapshot.
type Service struct {
	Stats   *Stats
	Catalog CatalogKeys
	R       *redis.Client
	TTL     time.Duration
	// Instance scopes cache keys to one process. A random id is used when empty.
	Instance string

	once sync.Once
}

func (s *Service) instance() string {
	s.once.Do(func() {
		if s.Instance == "" {
			s.Instance = uuid.NewString()
		}
	})
	return s.Instance
}

// catalogDigest fingerprints the menu keys in order.
func catalogDigest(keys []menu.Key) string {
	d := xxhash.New()
	for _, k := range keys {
		_, _ = d.WriteString(k.Name)
		_, _ = d.WriteString("\x00")
		_, _ = d.WriteString(k.Size)
		_, _ = d.WriteString("\x1f")
	}
	return strconv.FormatUint(d.Sum64(), 16)
}

func cacheKey(parts ...any) string {
	formatted := make([]string, 0, len(parts))
	for _, part := range parts {
		formatted = append(formatted, fmt.Sprint(part))
	}
	return strings.Join(formatted, ":")
}

// Summary returns the current sales summary.
func (s *Service) Summary(ctx context.Context) (Summary, error) {
	if s == nil || s.Stats == nil {
		return Summary{}, fmt.Errorf("analytics service not configured")
	}
	var keys []menu.Key
	if s.Catalog != nil {
		keys = s.Catalog()
	}
	instance, digest := s.instance(), catalogDigest(keys)
	if sum, ok := s.fromCache(ctx, cacheKey("an", "summary", instance, digest, s.Stats.Orders())); ok {
		return sum, nil
	}
	sum := s.Stats.Summarize(keys)
	s.store(ctx, cacheKey("an", "summary", instance, digest, sum.Orders), sum)
	return sum, nil
}

func (s *Service) fromCache(ctx context.Context, key string) (Summary, bool) {
	if s.R == nil || s.TTL <= 0 {
		return Summary{}, false
	}
	data, err := s.R.Get(ctx, key).Bytes()
	if err != nil {
		return Summary{}, false
	}
	var sum Summary
	if err := json.Unmarshal(data, &sum); err != nil {
		return Summary{}, false
	}
	return sum, true
}

func (s *Service) store(ctx context.Context, key string, value any) {
	if s.R == nil || s.TTL <= 0 {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	_ = s.R.Set(ctx, key, data, s.TTL).Err()
}
