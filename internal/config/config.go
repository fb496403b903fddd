package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Receipt store kinds accepted by RECEIPT_STORE.
const (
	ReceiptStoreFile  = "file"
	ReceiptStoreRedis = "redis"
	ReceiptStoreNone  = "none"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	MenuPath           string
	StoreTimezone      string
	Location           *time.Location
	ReceiptStore       string
	ReceiptPath        string
	ReceiptRedisKey    string
	ReceiptRedisMax    int64
	ReceiptRetries     int
	ReceiptBreakerOpen time.Duration
	RedisURL           string
	CORSAllowedOrigins []string
	IdempotencyTTL     time.Duration
	CheckoutRateLimit  int
	CheckoutRateWindow time.Duration
	APIRateLimit       string
	BodyLimitBytes     int64
	SummaryCacheTTL    time.Duration
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:             valueOrDefault(k.String("APP_ENV"), "development"),
		Port:               valueOrDefault(k.String("PORT"), "8080"),
		MenuPath:           valueOrDefault(k.String("MENU_PATH"), "menu.csv"),
		StoreTimezone:      valueOrDefault(k.String("STORE_TIMEZONE"), "Local"),
		ReceiptStore:       strings.ToLower(valueOrDefault(k.String("RECEIPT_STORE"), ReceiptStoreFile)),
		ReceiptPath:        valueOrDefault(k.String("RECEIPT_PATH"), "receipt.txt"),
		ReceiptRedisKey:    valueOrDefault(k.String("RECEIPT_REDIS_KEY"), "drinkpos:receipts"),
		ReceiptRedisMax:    int64(parseInt(k.String("RECEIPT_REDIS_MAX"), 500)),
		ReceiptRetries:     parseInt(k.String("RECEIPT_RETRIES"), 2),
		ReceiptBreakerOpen: parseDuration(k.String("RECEIPT_BREAKER_OPEN"), "30s"),
		RedisURL:           strings.TrimSpace(k.String("REDIS_URL")),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),
		IdempotencyTTL:     parseDuration(k.String("IDEMPOTENCY_TTL"), "24h"),
		CheckoutRateLimit:  parseInt(k.String("CHECKOUT_RATE_LIMIT"), 30),
		CheckoutRateWindow: parseDuration(k.String("CHECKOUT_RATE_WINDOW"), "1m"),
		APIRateLimit:       strings.TrimSpace(valueOrDefault(k.String("API_RATE_LIMIT"), "600-M")),
		BodyLimitBytes:     int64(parseInt(k.String("HTTP_BODY_LIMIT_BYTES"), 1<<20)),
		SummaryCacheTTL:    parseDuration(k.String("SUMMARY_CACHE_TTL"), "30s"),
	}

	loc, err := time.LoadLocation(cfg.StoreTimezone)
	if err != nil {
		return nil, fmt.Errorf("STORE_TIMEZONE: %w", err)
	}
	cfg.Location = loc

	switch cfg.ReceiptStore {
	case ReceiptStoreFile, ReceiptStoreNone:
	case ReceiptStoreRedis:
		if cfg.RedisURL == "" {
			return nil, errors.New("REDIS_URL is required when RECEIPT_STORE=redis")
		}
	default:
		return nil, fmt.Errorf("RECEIPT_STORE must be one of file, redis, none: got %q", cfg.ReceiptStore)
	}

	return cfg, nil
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

func parseInt(value string, fallback int) int {
	v, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return v
}

// MustLoad behaves like Load but panics on error. Useful for tests and command entrypoints.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadForTests allows tests to override environment variables without touching the real environment.
func LoadForTests(env map[string]string) (*Config, error) {
	original := make(map[string]string, len(env))
	for key := range env {
		original[key] = os.Getenv(key)
		if err := setEnvVar(key, env[key]); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()
	restoreErr := restoreEnv(original)
	if err != nil {
		return nil, err
	}
	return cfg, restoreErr
}

func setEnvVar(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

func restoreEnv(values map[string]string) error {
	var errs []string
	for key, value := range values {
		if err := setEnvVar(key, value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("restore env: %s", strings.Join(errs, "; "))
	}
	return nil
}
