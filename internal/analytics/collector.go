package analytics

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/Adithya-Monish-Kumar-K/idea-intake-platform/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/idea-intake-platform/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/idea-intake-platform/pkg/resilience"
)

// Publisher ships a batch of events. *kafka.Producer and *Aggregator both
// satisfy it.
type Publisher interface {
	PublishBatch(ctx context.Context, events []kafka.Event) error
}

type CollectorConfig struct {
	BufferSize    int
	BatchSize     int
	FlushInterval time.Duration
}

// Collector buffers events on a channel so tracking never blocks a request,
// and publishes them in batches from a single goroutine. Publishing goes
// through a circuit breaker; a batch that cannot be published is dropped.
type Collector struct {
	publisher Publisher
	cfg       CollectorConfig
	eventCh   chan Event
	breaker   *resilience.CircuitBreaker
	metrics   *metrics.Metrics
	logger    *slog.Logger

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

// NewCollector creates a Collector. m may be nil.
func NewCollector(publisher Publisher, cfg CollectorConfig, m *metrics.Metrics) *Collector {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1024
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = time.Second
	}
	return &Collector{
		publisher: publisher,
		cfg:       cfg,
		eventCh:   make(chan Event, cfg.BufferSize),
		breaker: resilience.NewCircuitBreaker("analytics-publish", resilience.CircuitBreakerConfig{
			FailureThreshold: 3,
			ResetTimeout:     30 * time.Second,
			OnStateChange: func(name string, _, to resilience.State) {
				if m != nil {
					m.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
				}
			},
		}),
		metrics: m,
		logger:  slog.Default().With("component", "analytics-collector"),
		done:    make(chan struct{}),
	}
}

// Start launches the publish loop. It returns immediately.
func (c *Collector) Start(ctx context.Context) {
	go c.run(ctx)
	c.logger.Info("analytics collector started",
		"buffer_size", c.cfg.BufferSize,
		"batch_size", c.cfg.BatchSize,
		"flush_interval", c.cfg.FlushInterval,
	)
}

// Track enqueues e without blocking. Events are dropped when the buffer is
// full or the collector is closed. Tracking on a nil Collector is a no-op.
func (c *Collector) Track(e Event) {
	if c == nil {
		return
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		c.dropped(e, "collector closed")
		return
	}
	select {
	case c.eventCh <- e:
	default:
		c.dropped(e, "buffer full")
	}
}

func (c *Collector) dropped(e Event, reason string) {
	if c.metrics != nil {
		c.metrics.EventsDroppedTotal.Inc()
	}
	c.logger.Warn("analytics event dropped", "reason", reason, "type", e.EventType())
}

// Close stops accepting events, flushes what is buffered and waits for the
// publish loop to exit. Later Track calls drop their events.
func (c *Collector) Close() {
	if c == nil {
		return
	}
	c.mu.Lock()
	if !c.closed {
		c.closed = true
		close(c.eventCh)
	}
	c.mu.Unlock()
	<-c.done
}

// CircuitState reports the publish breaker's state.
func (c *Collector) CircuitState() resilience.State {
	return c.breaker.GetState()
}

func (c *Collector) run(ctx context.Context) {
	defer close(c.done)
	ticker := time.NewTicker(c.cfg.FlushInterval)
	defer ticker.Stop()

	batch := make([]kafka.Event, 0, c.cfg.BatchSize)
	flush := func(ctx context.Context) {
		if len(batch) == 0 {
			return
		}
		c.publish(ctx, batch)
		batch = make([]kafka.Event, 0, c.cfg.BatchSize)
	}

	// After ctx is cancelled the loop keeps collecting until Close, so events
	// from requests still draining are published on a detached context.
	stopping := ctx.Done()
	detached := false
	flushNow := func() {
		if !detached {
			flush(ctx)
			return
		}
		pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		flush(pctx)
	}

	for {
		select {
		case e, ok := <-c.eventCh:
			if !ok {
				detached = true
				flushNow()
				return
			}
			batch = append(batch, toKafka(e))
			if len(batch) >= c.cfg.BatchSize {
				flushNow()
			}
		case <-ticker.C:
			flushNow()
		case <-stopping:
			stopping = nil
			detached = true
			flushNow()
		}
	}
}

func (c *Collector) publish(ctx context.Context, batch []kafka.Event) {
	err := c.breaker.Execute(func() error {
		return c.publisher.PublishBatch(ctx, batch)
	})
	if err == nil {
		c.logger.Debug("analytics batch published", "events", len(batch))
		return
	}
	if c.metrics != nil {
		c.metrics.EventPublishFailures.Inc()
	}
	if errors.Is(err, resilience.ErrCircuitOpen) {
		c.logger.Debug("analytics batch skipped (circuit open)", "events", len(batch))
		return
	}
	c.logger.Error("analytics batch publish failed", "events", len(batch), "error", err)
}
