package serve

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/papo-chat/papo/internal/config"
	"github.com/papo-chat/papo/internal/plugin/route/conversations"
	"github.com/papo-chat/papo/internal/plugin/route/friends"
	"github.com/papo-chat/papo/internal/plugin/route/messages"
	routesystem "github.com/papo-chat/papo/internal/plugin/route/system"
	"github.com/papo-chat/papo/internal/plugin/route/users"
	storemetrics "github.com/papo-chat/papo/internal/plugin/store/metrics"
	registrycache "github.com/papo-chat/papo/internal/registry/cache"
	registrymigrate "github.com/papo-chat/papo/internal/registry/migrate"
	registrystore "github.com/papo-chat/papo/internal/registry/store"
	"github.com/papo-chat/papo/internal/security"
)

// Server holds the running server and its subsystems.
type Server struct {
	Config *config.Config
	Store  registrystore.ChatStore
	Router *gin.Engine
	// Port is the actual listening port, useful when Port 0 was requested.
	Port       int
	httpServer *http.Server
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// StartServer initializes all subsystems and starts the HTTP server.
// Use cfg.Listener.Port=0 for a random port; the actual port is Server.Port.
func StartServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	log.Info("Starting papo service",
		"httpPort", cfg.Listener.Port,
		"db", cfg.DatastoreType,
		"cache", cfg.CacheType,
	)

	if cfg.JWTSecret == "" && cfg.Mode != config.ModeTesting {
		return nil, errors.New("a JWT secret is required outside testing mode")
	}

	// Initialize Prometheus metrics with configured constant labels.
	metricsLabels, err := security.ParseMetricsLabels(cfg.MetricsLabels)
	if err != nil {
		return nil, fmt.Errorf("invalid --metrics-labels: %w", err)
	}
	security.InitMetrics(metricsLabels)

	// Run migrations
	if err := registrymigrate.RunAll(ctx); err != nil {
		return nil, fmt.Errorf("migrations failed: %w", err)
	}

	// Initialize cache and inject into context so the store loader can read it.
	if cacheLoader, err := registrycache.Select(cfg.CacheType); err != nil {
		log.Warn("Cache not available", "cache", cfg.CacheType, "err", err)
	} else if conversationCache, err := cacheLoader(ctx); err != nil {
		log.Warn("Failed to initialize cache", "cache", cfg.CacheType, "err", err)
	} else {
		ctx = registrycache.WithConversationCacheContext(ctx, conversationCache)
	}

	// Initialize store
	storeLoader, err := registrystore.Select(cfg.DatastoreType)
	if err != nil {
		return nil, err
	}
	store, err := storeLoader(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize store: %w", err)
	}
	store = storemetrics.Wrap(store)

	// Set up gin
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	if cfg.AccessLog {
		router.Use(security.AccessLogMiddleware("/health", "/ready", "/metrics"))
	}
	router.Use(security.MetricsMiddleware())
	router.Use(maxBodySizeMiddleware(cfg.MaxBodySize))

	routesystem.MountRoutes(router)

	// Create shared token resolver and auth middleware.
	resolver := security.NewTokenResolver(cfg)
	auth := security.AuthMiddleware(resolver)

	conversations.MountRoutes(router, store, auth)
	messages.MountRoutes(router, store, auth)
	friends.MountRoutes(router, store, auth)
	users.MountRoutes(router, store, auth)

	httpServer := &http.Server{
		Handler:           router,
		ReadHeaderTimeout: cfg.Listener.ReadHeaderTimeout,
	}

	listener, err := net.Listen("tcp", ":"+strconv.Itoa(cfg.Listener.Port))
	if err != nil {
		return nil, fmt.Errorf("failed to listen: %w", err)
	}
	port := listener.Addr().(*net.TCPAddr).Port

	useTLS := cfg.Listener.TLSCertFile != "" && cfg.Listener.TLSKeyFile != ""
	go func() {
		var err error
		if useTLS {
			err = httpServer.ServeTLS(listener, cfg.Listener.TLSCertFile, cfg.Listener.TLSKeyFile)
		} else {
			err = httpServer.Serve(listener)
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", "err", err)
		}
	}()

	log.Info("Server listening", "port", port, "tls", useTLS)

	routesystem.MarkReady()
	return &Server{
		Config:     cfg,
		Store:      store,
		Router:     router,
		Port:       port,
		httpServer: httpServer,
	}, nil
}
