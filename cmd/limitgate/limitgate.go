package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"limitgate/internal/api"
	"limitgate/internal/config"
	"limitgate/internal/limiter"
	"limitgate/internal/logger"
	"limitgate/internal/models"
	"limitgate/internal/observability"
	"limitgate/internal/stats"
	"limitgate/internal/version"

	"github.com/redis/go-redis/v9"
)

var (
	configFile  = flag.String("config", "", "Path to configuration file")
	showVersion = flag.Bool("version", false, "Print version information and exit")
)

func main() {
	flag.Parse()

	ver := version.GetInfo()
	if *showVersion {
		fmt.Println(ver.String())
		return
	}

	// Load configuration
	cfg, err := config.Load(*configFile)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Initialize structured logging
	log, closer, err := logger.Setup(cfg.Logging, ver)
	if err != nil {
		slog.Error("Failed to initialize logger", "error", err)
		os.Exit(1)
	}
	if closer != nil {
		defer closer.Close()
	}
	slog.SetDefault(log)

	// Initialize observability (OpenTelemetry)
	otelProvider, err := observability.Setup(cfg.Metrics, cfg.Observability, ver)
	if err != nil {
		slog.Error("Failed to initialize observability", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := otelProvider.Shutdown(shutdownCtx); err != nil {
			slog.Error("Failed to shutdown observability", "error", err)
		}
	}()

	// Initialize the shared counter store
	counterStore, err := initializeStore(cfg)
	if err != nil {
		slog.Error("Failed to initialize counter store", "error", err)
		os.Exit(1)
	}
	defer counterStore.Close()

	// Wrap the store with instrumentation if metrics are enabled
	var activeStore limiter.CounterStore = counterStore
	var gateMetrics *observability.GateMetrics
	if cfg.Metrics.Enabled {
		instrumented, err := observability.NewInstrumentedStore(counterStore)
		if err != nil {
			slog.Error("Failed to create instrumented store", "error", err)
			os.Exit(1)
		}
		activeStore = instrumented

		gateMetrics, err = observability.NewGateMetrics()
		if err != nil {
			slog.Error("Failed to create gate metrics", "error", err)
			os.Exit(1)
		}
	}

	// Initialize the decision audit sink
	statsStore, err := stats.NewFactory().Create(cfg.Stats)
	if err != nil {
		slog.Error("Failed to initialize stats store", "error", err)
		os.Exit(1)
	}
	defer statsStore.Close()

	// Build the policy resolver from the immutable config tables
	resolver, err := limiter.NewResolver(
		tierLimits(cfg.Policy.Tiers),
		tierLimits(cfg.Policy.Overrides),
	)
	if err != nil {
		slog.Error("Failed to build policy resolver", "error", err)
		os.Exit(1)
	}

	gate := limiter.NewGate(resolver, limiter.NewAccountant(activeStore),
		limiter.WithFailureMode(limiter.FailureMode(cfg.Policy.FailureMode)),
		limiter.WithLogger(log),
	)

	// Initialize HTTP handlers
	handlers := api.NewHandlers(gate, resolver, activeStore, statsStore, gateMetrics, cfg.Policy, log)

	// Setup routes with middleware. The service enforces its own limits on
	// everything except health probes and the remote check endpoint.
	routeOpts := []api.RouteOption{api.WithSelfEnforcement(handlers)}
	if cfg.Observability.Tracing.Enabled {
		routeOpts = append(routeOpts, api.WithOTelMiddleware(cfg.Observability.ServiceName))
	}

	router := api.SetupRoutes(handlers, routeOpts...)

	// Start metrics server if enabled
	var metricsServer *observability.MetricsServer
	if cfg.Metrics.Enabled {
		metricsServer = observability.NewMetricsServer(cfg.Metrics.Port, cfg.Metrics.Path, otelProvider)
		go func() {
			if err := metricsServer.Start(); err != nil && err != http.ErrServerClosed {
				slog.Error("Metrics server failed", "error", err)
			}
		}()
	}

	// Create HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in a goroutine
	go func() {
		slog.Info("Starting server",
			"addr", server.Addr,
			"store", cfg.Store.Type,
			"failure_mode", cfg.Policy.FailureMode,
			"default_tier", cfg.Policy.DefaultTier,
		)

		var err error
		if cfg.Server.TLSEnabled {
			if cfg.Server.TLSCertFile == "" || cfg.Server.TLSKeyFile == "" {
				slog.Error("TLS is enabled but cert file or key file is not specified")
				os.Exit(1)
			}
			slog.Info("Starting HTTPS server with TLS")
			err = server.ListenAndServeTLS(cfg.Server.TLSCertFile, cfg.Server.TLSKeyFile)
		} else {
			slog.Info("Starting HTTP server")
			err = server.ListenAndServe()
		}

		if err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down server")

	// Create a deadline to wait for shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Shutdown metrics server
	if metricsServer != nil {
		if err := metricsServer.Shutdown(ctx); err != nil {
			slog.Error("Metrics server forced to shutdown", "error", err)
		}
	}

	// Attempt graceful shutdown
	if err := server.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	slog.Info("Server shutdown complete")
}

// initializeStore creates the counter store selected by configuration.
func initializeStore(cfg *models.Config) (limiter.CounterStore, error) {
	switch cfg.Store.Type {
	case models.StoreTypeMemory:
		slog.Warn("Using in-memory counter store; limits are per-instance, not shared")
		return limiter.NewMemoryStore(), nil
	case models.StoreTypeRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Store.Redis.Addr,
			Password: cfg.Store.Redis.Password,
			DB:       cfg.Store.Redis.DB,
			PoolSize: cfg.Store.Redis.PoolSize,
		})

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to ping redis at %s: %w", cfg.Store.Redis.Addr, err)
		}

		return limiter.NewRedisStore(client, limiter.WithOpTimeout(cfg.Store.OpTimeout)), nil
	default:
		return nil, fmt.Errorf("unsupported store type: %s", cfg.Store.Type)
	}
}

// tierLimits converts config limit tables into the limiter's representation.
func tierLimits(in map[string]models.TierLimit) map[string]limiter.Limit {
	out := make(map[string]limiter.Limit, len(in))
	for name, tl := range in {
		out[name] = limiter.Limit{Requests: tl.Requests, Window: tl.Window}
	}
	return out
}
