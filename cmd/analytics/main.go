// Command analytics starts the standalone analytics aggregation service.
//
// It consumes intake events from Kafka, aggregates them in memory (lookups by
// kind, zero-match rate, latency percentiles, cache hit rate, most queried
// and most matched ideas, record writes), snapshots the aggregate to the
// intake database, and serves GET /api/v1/analytics for dashboards.
//
// Usage:
//
//	go run ./cmd/analytics [-config configs/development.yaml]
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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/Adithya-Monish-Kumar-K/idea-intake-platform/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/idea-intake-platform/internal/intake/store"
	"github.com/Adithya-Monish-Kumar-K/idea-intake-platform/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/idea-intake-platform/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/idea-intake-platform/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/idea-intake-platform/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/idea-intake-platform/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/idea-intake-platform/pkg/middleware"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting analytics service", "port", cfg.Analytics.Port)

	if !cfg.Kafka.Enabled {
		slog.Error("analytics service needs kafka; enable kafka or read /api/v1/analytics from the intake service")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, dialect, err := store.Connect(ctx, cfg)
	if err != nil {
		slog.Error("failed to open storage", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	if _, err := store.New(db, dialect).Migrate(ctx); err != nil {
		slog.Error("failed to migrate storage", "error", err)
		os.Exit(1)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)
	if cfg.Metrics.Enabled {
		shutdownMetrics := metrics.StartServer(cfg.Metrics.Port, reg)
		defer shutdownMetrics(context.Background())
	}

	aggregator := analytics.NewAggregator(cfg.Analytics.TopIdeas)
	snapshots := analytics.NewSnapshotStore(db, dialect)
	snapshots.StartPeriodicSave(ctx, aggregator, cfg.Analytics.SnapshotInterval)

	consumer := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.AnalyticsEvents, aggregator.HandleMessage)
	defer consumer.Close()

	consumerErr := make(chan error, 1)
	go func() {
		consumerErr <- consumer.Start(ctx)
	}()
	slog.Info("analytics consumer started", "topic", cfg.Kafka.Topics.AnalyticsEvents, "group", cfg.Kafka.ConsumerGroup)

	checker := health.NewChecker(5 * time.Second)
	checker.Register("storage", health.Ping(db.PingContext, true))
	checker.Register("kafka", func(ctx context.Context) health.ComponentHealth {
		select {
		case err := <-consumerErr:
			consumerErr <- err
			return health.ComponentHealth{Status: health.StatusDown, Message: fmt.Sprintf("consumer stopped: %v", err)}
		default:
			return health.ComponentHealth{Status: health.StatusUp, Message: "consumer active"}
		}
	})

	mux := http.NewServeMux()
	analytics.NewHandler(aggregator, snapshots).RegisterRoutes(mux)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	var chain http.Handler = mux
	chain = middleware.Timeout(cfg.Server.RequestTimeout)(chain)
	chain = middleware.Metrics(m)(chain)
	chain = middleware.RequestID(chain)
	chain = middleware.CORS(middleware.DefaultCORSConfig(cfg.CORS.AllowOrigins...))(chain)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Analytics.Port),
		Handler:      chain,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	slog.Info("analytics service listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
	// ListenAndServe returns as soon as Shutdown starts; wait for in-flight
	// requests before tearing down what they use.
	<-shutdownDone

	slog.Info("analytics service stopped")
}
