package config

import (
	"context"
	"time"
)

// ListenerConfig holds the network/TLS settings for the HTTP listener.
type ListenerConfig struct {
	Port              int
	TLSCertFile       string
	TLSKeyFile        string
	ReadHeaderTimeout time.Duration
}

type contextKey struct{}

// WithContext returns a new context carrying the given Config.
func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, contextKey{}, cfg)
}

// FromContext retrieves the Config from the context.
func FromContext(ctx context.Context) *Config {
	cfg, _ := ctx.Value(contextKey{}).(*Config)
	return cfg
}

const (
	ModeProd    = "prod"
	ModeTesting = "testing"
)

// Config holds all configuration for the papo service.
type Config struct {
	// Mode controls auth behavior: "prod" (default) or "testing".
	// In testing mode the X-User-ID header is accepted in place of a token.
	Mode string

	// Database
	DatastoreType           string // "postgres" or "sqlite"
	DBURL                   string
	DatastoreMigrateAtStart bool
	DBMaxOpenConns          int
	DBMaxIdleConns          int

	// Cache
	CacheType       string // "none", "memory", or "redis"
	RedisURL        string
	CacheTTL        time.Duration
	CacheMaxEntries int64

	// Auth
	// JWTSecret is the HMAC key bearer tokens are signed with. Empty disables
	// token auth, which is only allowed in testing mode.
	JWTSecret string

	// Server
	Listener    ListenerConfig
	AccessLog   bool
	MaxBodySize int64
	// Graceful shutdown drain timeout (seconds).
	DrainTimeout int

	// MetricsLabels is a comma-separated list of key=value pairs added as
	// constant labels to all Prometheus metrics. Values support ${VAR}
	// expansion. Defaults to "service=papo".
	MetricsLabels string
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Mode:                    ModeProd,
		DatastoreType:           "postgres",
		DatastoreMigrateAtStart: true,
		DBMaxOpenConns:          25,
		DBMaxIdleConns:          5,
		CacheType:               "none",
		CacheTTL:                10 * time.Minute,
		CacheMaxEntries:         10_000,
		Listener: ListenerConfig{
			Port:              8080,
			ReadHeaderTimeout: 5 * time.Second,
		},
		AccessLog:    true,
		MaxBodySize:  1 << 20, // 1 MB; messages are text
		DrainTimeout: 30,
	}
}
