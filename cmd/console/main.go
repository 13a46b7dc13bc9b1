// Command console runs the realtime sync engine for the outreach
// dashboard: it maintains the event-stream connection to the backend,
// keeps the query cache coherent, and serves the local status surface the
// dashboard shell reads.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/time/rate"

	"github.com/reachforge/reachforge-console/internal/api"
	"github.com/reachforge/reachforge-console/internal/api/status"
	"github.com/reachforge/reachforge-console/internal/config"
	"github.com/reachforge/reachforge-console/internal/notify"
	"github.com/reachforge/reachforge-console/internal/pkg/logger"
	"github.com/reachforge/reachforge-console/internal/pkg/redact"
	"github.com/reachforge/reachforge-console/internal/pkg/tracing"
	"github.com/reachforge/reachforge-console/internal/query"
	"github.com/reachforge/reachforge-console/internal/realtime"
	"github.com/reachforge/reachforge-console/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.StdLogger("info").Error("failed to load config", "error", err)
		os.Exit(1)
	}
	log := logger.StdLogger(cfg.LogLevel)
	log.Info("reachforge console starting",
		"api_base_url", cfg.APIBaseURL,
		"api_key", redact.Key(cfg.APIKey),
		"status_port", cfg.StatusPort)

	cleanupTracing, err := tracing.Init("reachforge-console", cfg.OTLPEndpoint, 1.0)
	if err != nil {
		log.Error("failed to initialize tracing", "error", err)
		os.Exit(1)
	}
	defer cleanupTracing()

	client, err := api.NewClient(cfg.APIBaseURL, cfg.APIKey, time.Duration(cfg.RequestTimeoutSec)*time.Second, log)
	if err != nil {
		log.Error("failed to build API client", "error", err)
		os.Exit(1)
	}

	// Compatibility is advisory: an out-of-range backend degrades the
	// dashboard, it never blocks startup.
	checkBackend(client, log)

	cache, err := query.NewCache(query.Options{
		MaxEntries:   cfg.CacheMaxEntries,
		RefetchLimit: rate.Limit(cfg.RefetchPerSec),
		RefetchBurst: cfg.RefetchBurst,
		Logger:       log,
	})
	if err != nil {
		log.Error("failed to build query cache", "error", err)
		os.Exit(1)
	}

	toasts := notify.NewCenter()
	registry := realtime.NewRegistry(log)

	engine := service.NewSyncService(registry, cache, toasts, log, service.Options{
		ShowReplyToasts: true,
	})
	engine.Start()

	socketURL, err := cfg.SocketURL()
	if err != nil {
		log.Error("failed to derive socket URL", "error", err)
		os.Exit(1)
	}
	socket := realtime.NewSocket(realtime.SocketOptions{
		URL:               socketURL,
		APIKey:            cfg.APIKey,
		DialTimeout:       time.Duration(cfg.ConnectTimeoutSec) * time.Second,
		ReconnectAttempts: cfg.ReconnectAttempts,
		ReconnectDelay:    time.Duration(cfg.ReconnectDelayMs) * time.Millisecond,
		Registry:          registry,
		Logger:            log,
	})
	releaseStateLog := socket.OnStateChange(func(conn realtime.Connection) {
		log.Info("connection state changed", "state", string(conn.State), "attempt", conn.ReconnectAttempt, "error", redact.Message(conn.LastError))
	})
	defer releaseStateLog()

	if err := socket.Connect(); err != nil {
		// Non-fatal: the reconnect policy and the offline indicator cover it.
		log.Warn("initial connect failed", "error", err)
	}

	statusServer := status.NewServer(status.Options{
		Port:           cfg.StatusPort,
		AllowedOrigins: cfg.AllowedOrigins,
		Connection:     socket,
		Telemetry:      engine,
		Toasts:         toasts,
		Logger:         log,
	})
	go func() {
		if err := statusServer.Start(); err != nil {
			log.Error("status server failed", "error", err)
			os.Exit(1)
		}
	}()
	log.Info("status surface listening", "port", cfg.StatusPort)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")

	// Detach the socket first so nothing mutates the cache or the toast
	// stack during teardown.
	socket.Close()
	engine.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.ShutdownTimeoutSec)*time.Second)
	defer cancel()
	if err := statusServer.Shutdown(shutdownCtx); err != nil {
		log.Warn("status server forced to shut down", "error", err)
	}

	cache.Close()
	toasts.Close()
	log.Info("console exited gracefully")
}

// checkBackend logs the backend identity and flags versions outside the
// supported range.
func checkBackend(client *api.Client, log *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	info, err := client.Health(ctx)
	if err != nil {
		log.Warn("backend health check failed", "error", err)
		return
	}
	ok, err := api.CheckCompatibility(info.Version)
	switch {
	case err != nil:
		log.Warn("backend version check skipped", "version", info.Version, "error", err)
	case !ok:
		log.Warn("backend version outside supported range", "version", info.Version, "supported", api.SupportedBackendVersions)
	default:
		log.Info("backend reachable", "service", info.Service, "version", info.Version)
	}
}
