package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/grbuguj/Sinker-IOT/internal/adapters/http/api"
	"github.com/grbuguj/Sinker-IOT/internal/adapters/mqtt"
	"github.com/grbuguj/Sinker-IOT/internal/adapters/repository"
	service "github.com/grbuguj/Sinker-IOT/internal/app"
	"github.com/grbuguj/Sinker-IOT/internal/config"
	"github.com/grbuguj/Sinker-IOT/internal/domain/thresholds"
	"github.com/grbuguj/Sinker-IOT/pkg/logger"
	"github.com/grbuguj/Sinker-IOT/pkg/metrics"
)

// HTTP server timeout constants.
const (
	idleTimeout           = 60 * time.Second
	readHeaderTimeout     = 5 * time.Second
	shutdownTimeout       = 30 * time.Second
	systemMetricsInterval = 10 * time.Second
)

func main() {
	// Disable default Go metrics collection to avoid duplicate metrics
	// We collect our own custom system metrics instead
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// Initialize logging
	if err := logger.Init(); err != nil {
		// Logger isn't available yet
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}

	log := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	// Select persistence: PostgreSQL when configured, in-memory otherwise.
	var serviceOpts []service.Option
	if cfg.DatabaseURL != "" {
		pg, err := repository.NewPGStore(ctx, cfg.DatabaseURL)
		if err != nil {
			os.Stderr.WriteString("failed to connect to database: " + err.Error() + "\n")
			return
		}
		serviceOpts = append(serviceOpts,
			service.WithHistoryStore(pg),
			service.WithThresholdStore(pg),
		)
		log.Info(ctx, "using postgresql persistence")
	} else {
		serviceOpts = append(serviceOpts,
			service.WithThresholdStore(thresholds.NewMemStore()),
		)
	}

	serviceOpts = append(serviceOpts,
		service.WithLogger(log),
		service.WithStrategy(cfg.RiskStrategy),
		service.WithTimezone(cfg.Timezone),
		service.WithQueryLimit(cfg.HistoryLimit),
		service.WithExportLimit(cfg.ExportLimit),
		service.WithHubQueueSize(cfg.WSQueueSize),
	)

	svc := service.New(serviceOpts...)
	if err := svc.Start(ctx); err != nil {
		os.Stderr.WriteString("failed to start service: " + err.Error() + "\n")
		return
	}
	defer svc.Stop()

	// Optional MQTT ingest bridge.
	if cfg.MQTTBroker != "" {
		bridge, err := mqtt.NewIngest(ctx, cfg.MQTTBroker, cfg.MQTTClientID, cfg.MQTTTopic, svc)
		if err != nil {
			os.Stderr.WriteString("failed to start mqtt bridge: " + err.Error() + "\n")
			return
		}
		defer bridge.Close()
	}

	// Start system metrics updater
	go startSystemMetricsUpdater(ctx)

	// HTTP mux and routes.
	mux := http.NewServeMux()
	apiServer := api.NewServer(svc, svc)
	apiServer.Register(ctx, mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       time.Duration(cfg.ReadTimeoutSec) * time.Second,
		WriteTimeout:      time.Duration(cfg.WriteTimeoutSec) * time.Second,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	// Start the HTTP server
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			os.Stderr.WriteString("HTTP server failed: " + err.Error() + "\n")
			return
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	log.Info(ctx, "shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
}

// startSystemMetricsUpdater starts a background goroutine that updates system metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			var m runtime.MemStats
			runtime.ReadMemStats(&m)
			metrics.UpdateSystemMemoryUsage(m.Alloc)
			metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())
		}
	}
}
