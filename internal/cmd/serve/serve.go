// Package serve implements the serve sub-command: it wires the store, cache,
// and route plugins together and runs the HTTP server until interrupted.
package serve

import (
	"context"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/papo-chat/papo/internal/config"
	"github.com/urfave/cli/v3"

	// Import all plugins to trigger init() registration
	_ "github.com/papo-chat/papo/internal/plugin/cache/memory"
	_ "github.com/papo-chat/papo/internal/plugin/cache/noop"
	_ "github.com/papo-chat/papo/internal/plugin/cache/redis"
	_ "github.com/papo-chat/papo/internal/plugin/store/postgres"
	_ "github.com/papo-chat/papo/internal/plugin/store/sqlite"
)

// Command returns the serve sub-command.
func Command() *cli.Command {
	cfg := config.DefaultConfig()
	var readHeaderTimeoutSecs int = 5
	var cacheTTLSecs int64 = int64(cfg.CacheTTL / time.Second)
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the papo HTTP server",
		Flags: flags(&cfg, &readHeaderTimeoutSecs, &cacheTTLSecs),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg.Listener.ReadHeaderTimeout = time.Duration(readHeaderTimeoutSecs) * time.Second
			cfg.CacheTTL = time.Duration(cacheTTLSecs) * time.Second
			if err := cfg.ApplyEnvOverrides(); err != nil {
				return err
			}
			return run(config.WithContext(ctx, &cfg), cfg)
		},
	}
}

func flags(cfg *config.Config, readHeaderTimeoutSecs *int, cacheTTLSecs *int64) []cli.Flag {
	return []cli.Flag{

		// ── Server ────────────────────────────────────────────────
		&cli.IntFlag{
			Name:        "port",
			Category:    "Server:",
			Sources:     cli.EnvVars("PAPO_PORT"),
			Destination: &cfg.Listener.Port,
			Value:       cfg.Listener.Port,
			Usage:       "HTTP server port",
		},
		&cli.StringFlag{
			Name:        "tls-cert-file",
			Category:    "Server:",
			Sources:     cli.EnvVars("PAPO_TLS_CERT_FILE"),
			Destination: &cfg.Listener.TLSCertFile,
			Usage:       "TLS certificate file; TLS is enabled when both cert and key are set",
		},
		&cli.StringFlag{
			Name:        "tls-key-file",
			Category:    "Server:",
			Sources:     cli.EnvVars("PAPO_TLS_KEY_FILE"),
			Destination: &cfg.Listener.TLSKeyFile,
			Usage:       "TLS private key file",
		},
		&cli.IntFlag{
			Name:        "read-header-timeout-seconds",
			Category:    "Server:",
			Sources:     cli.EnvVars("PAPO_READ_HEADER_TIMEOUT_SECONDS"),
			Destination: readHeaderTimeoutSecs,
			Value:       *readHeaderTimeoutSecs,
			Usage:       "HTTP read header timeout in seconds",
		},
		&cli.IntFlag{
			Name:        "drain-timeout-seconds",
			Category:    "Server:",
			Sources:     cli.EnvVars("PAPO_DRAIN_TIMEOUT_SECONDS"),
			Destination: &cfg.DrainTimeout,
			Value:       cfg.DrainTimeout,
			Usage:       "Graceful shutdown drain timeout in seconds",
		},
		&cli.BoolFlag{
			Name:        "access-log",
			Category:    "Server:",
			Sources:     cli.EnvVars("PAPO_ACCESS_LOG"),
			Destination: &cfg.AccessLog,
			Value:       cfg.AccessLog,
			Usage:       "Enable HTTP access logging",
		},

		// ── Database ──────────────────────────────────────────────
		&cli.StringFlag{
			Name:        "db-kind",
			Category:    "Database:",
			Sources:     cli.EnvVars("PAPO_DB_KIND"),
			Destination: &cfg.DatastoreType,
			Value:       cfg.DatastoreType,
			Usage:       "Database kind: postgres or sqlite",
		},
		&cli.StringFlag{
			Name:        "db-url",
			Category:    "Database:",
			Sources:     cli.EnvVars("PAPO_DB_URL"),
			Destination: &cfg.DBURL,
			Usage:       "Database connection URL (or sqlite DSN)",
		},
		&cli.BoolFlag{
			Name:        "db-migrate-at-start",
			Category:    "Database:",
			Sources:     cli.EnvVars("PAPO_DB_MIGRATE_AT_START"),
			Destination: &cfg.DatastoreMigrateAtStart,
			Value:       cfg.DatastoreMigrateAtStart,
			Usage:       "Run schema migrations at startup",
		},
		&cli.IntFlag{
			Name:        "db-max-open-conns",
			Category:    "Database:",
			Sources:     cli.EnvVars("PAPO_DB_MAX_OPEN_CONNS"),
			Destination: &cfg.DBMaxOpenConns,
			Value:       cfg.DBMaxOpenConns,
			Usage:       "Maximum open database connections",
		},
		&cli.IntFlag{
			Name:        "db-max-idle-conns",
			Category:    "Database:",
			Sources:     cli.EnvVars("PAPO_DB_MAX_IDLE_CONNS"),
			Destination: &cfg.DBMaxIdleConns,
			Value:       cfg.DBMaxIdleConns,
			Usage:       "Maximum idle database connections",
		},

		// ── Cache ─────────────────────────────────────────────────
		&cli.StringFlag{
			Name:        "cache-kind",
			Category:    "Cache:",
			Sources:     cli.EnvVars("PAPO_CACHE_KIND"),
			Destination: &cfg.CacheType,
			Value:       cfg.CacheType,
			Usage:       "Conversation cache kind: none, memory, or redis",
		},
		&cli.StringFlag{
			Name:        "redis-url",
			Category:    "Cache:",
			Sources:     cli.EnvVars("PAPO_REDIS_URL"),
			Destination: &cfg.RedisURL,
			Usage:       "Redis connection URL (required for the redis cache)",
		},
		&cli.Int64Flag{
			Name:        "cache-ttl-seconds",
			Category:    "Cache:",
			Sources:     cli.EnvVars("PAPO_CACHE_TTL_SECONDS"),
			Destination: cacheTTLSecs,
			Value:       *cacheTTLSecs,
			Usage:       "Conversation cache entry TTL in seconds",
		},
		&cli.Int64Flag{
			Name:        "cache-max-entries",
			Category:    "Cache:",
			Sources:     cli.EnvVars("PAPO_CACHE_MAX_ENTRIES"),
			Destination: &cfg.CacheMaxEntries,
			Value:       cfg.CacheMaxEntries,
			Usage:       "Maximum entries held by the in-memory cache",
		},

		// ── Auth ──────────────────────────────────────────────────
		&cli.StringFlag{
			Name:        "jwt-secret",
			Category:    "Auth:",
			Sources:     cli.EnvVars("PAPO_JWT_SECRET"),
			Destination: &cfg.JWTSecret,
			Usage:       "HMAC key bearer tokens are signed with",
		},
		&cli.StringFlag{
			Name:        "mode",
			Category:    "Auth:",
			Sources:     cli.EnvVars("PAPO_MODE"),
			Destination: &cfg.Mode,
			Value:       cfg.Mode,
			Usage:       "Run mode: prod or testing (testing accepts the X-User-ID header)",
		},

		// ── Observability ─────────────────────────────────────────
		&cli.StringFlag{
			Name:        "metrics-labels",
			Category:    "Observability:",
			Sources:     cli.EnvVars("PAPO_METRICS_LABELS"),
			Destination: &cfg.MetricsLabels,
			Usage:       "Comma-separated key=value pairs added as constant labels to all metrics",
		},
	}
}

func run(ctx context.Context, cfg config.Config) error {
	srv, err := StartServer(ctx, &cfg)
	if err != nil {
		return err
	}

	<-ctx.Done()
	log.Info("Shutting down...")

	drainCtx, drainCancel := context.WithTimeout(context.Background(), time.Duration(cfg.DrainTimeout)*time.Second)
	defer drainCancel()
	if err := srv.Shutdown(drainCtx); err != nil {
		log.Error("Shutdown error", "err", err)
	}
	log.Info("Server stopped")
	return nil
}

func maxBodySizeMiddleware(maxBodySize int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodySize)
		c.Next()
	}
}
