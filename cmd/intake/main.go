// Command intake serves the idea intake REST API.
//
// It stores ideas and problems in PostgreSQL (or SQLite for single-node use),
// answers similarity lookups through an optional Redis cache, and ships
// analytics events to Kafka. With Kafka disabled the events are aggregated
// in process and served at GET /api/v1/analytics.
//
// Usage:
//
//	go run ./cmd/intake [-config configs/development.yaml]
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
	"github.com/Adithya-Monish-Kumar-K/idea-intake-platform/internal/intake/cache"
	"github.com/Adithya-Monish-Kumar-K/idea-intake-platform/internal/intake/handler"
	"github.com/Adithya-Monish-Kumar-K/idea-intake-platform/internal/intake/matcher"
	"github.com/Adithya-Monish-Kumar-K/idea-intake-platform/internal/intake/store"
	"github.com/Adithya-Monish-Kumar-K/idea-intake-platform/internal/similarity/ranker"
	"github.com/Adithya-Monish-Kumar-K/idea-intake-platform/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/idea-intake-platform/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/idea-intake-platform/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/idea-intake-platform/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/idea-intake-platform/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/idea-intake-platform/pkg/middleware"
	pkgredis "github.com/Adithya-Monish-Kumar-K/idea-intake-platform/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/idea-intake-platform/pkg/resilience"
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
	slog.Info("starting intake service", "port", cfg.Server.Port, "storage", cfg.Storage.Driver)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, dialect, err := store.Connect(ctx, cfg)
	if err != nil {
		slog.Error("failed to open storage", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	st := store.New(db, dialect)
	applied, err := st.Migrate(ctx)
	if err != nil {
		slog.Error("failed to migrate storage", "error", err)
		os.Exit(1)
	}
	slog.Info("storage ready", "dialect", dialect, "migrations_applied", applied)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)
	if cfg.Metrics.Enabled {
		shutdownMetrics := metrics.StartServer(cfg.Metrics.Port, reg)
		defer shutdownMetrics(context.Background())
	}

	var queryCache *cache.Cache
	var redisClient *pkgredis.Client
	if cfg.Redis.Enabled {
		redisClient, err = pkgredis.NewClient(ctx, cfg.Redis)
		if err != nil {
			slog.Warn("redis unavailable, similarity caching disabled", "error", err)
		} else {
			defer redisClient.Close()
			queryCache = cache.New(redisClient, cfg.Redis.CacheTTL, m)
			slog.Info("similarity cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
		}
	}

	var publisher analytics.Publisher
	var localStats *analytics.Aggregator
	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.AnalyticsEvents)
		defer producer.Close()
		publisher = producer
		slog.Info("analytics events go to kafka", "topic", cfg.Kafka.Topics.AnalyticsEvents)
	} else {
		localStats = analytics.NewAggregator(cfg.Analytics.TopIdeas)
		publisher = localStats
		slog.Info("kafka disabled, aggregating analytics in process")
	}
	collector := analytics.NewCollector(publisher, analytics.CollectorConfig{BufferSize: cfg.Analytics.BufferSize}, m)
	collector.Start(ctx)

	match := matcher.New(st, st,
		matcher.WithCache(queryCache),
		matcher.WithTracker(collector),
		matcher.WithMetrics(m),
		matcher.WithRankerOptions(
			ranker.WithWorkers(cfg.Ranking.Workers),
			ranker.WithParallelThreshold(cfg.Ranking.ParallelThreshold),
		),
	)
	api := handler.New(st, match, queryCache, collector, m)

	checker := health.NewChecker(5 * time.Second)
	checker.Register("storage", health.Ping(st.Ping, true))
	checker.Register("ideas", func(ctx context.Context) health.ComponentHealth {
		n, err := st.CountIdeas(ctx)
		if err != nil {
			return health.ComponentHealth{Status: health.StatusDown, Message: err.Error()}
		}
		return health.ComponentHealth{Status: health.StatusUp, Message: fmt.Sprintf("%d ideas stored", n)}
	})
	checker.Register("redis", func(ctx context.Context) health.ComponentHealth {
		if redisClient == nil {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: "not configured"}
		}
		return health.Ping(redisClient.Ping, false)(ctx)
	})
	checker.Register("analytics", func(ctx context.Context) health.ComponentHealth {
		if state := collector.CircuitState(); state != resilience.StateClosed {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: "publish circuit " + state.String()}
		}
		return health.ComponentHealth{Status: health.StatusUp}
	})

	mux := http.NewServeMux()
	api.RegisterRoutes(mux)
	if localStats != nil {
		analytics.NewHandler(localStats, nil).RegisterRoutes(mux)
	}
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	var chain http.Handler = mux
	chain = middleware.Timeout(cfg.Server.RequestTimeout)(chain)
	chain = middleware.Metrics(m)(chain)
	chain = middleware.RequestID(chain)
	chain = middleware.CORS(middleware.DefaultCORSConfig(cfg.CORS.AllowOrigins...))(chain)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
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

	slog.Info("intake service listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
	// ListenAndServe returns as soon as Shutdown starts; wait for in-flight
	// requests before tearing down what they use.
	<-shutdownDone

	collector.Close()
	slog.Info("intake service stopped")
}
