package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Adithya-Monish-Kumar-K/idea-intake-platform/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/idea-intake-platform/pkg/metrics"
)

// maxLatencySamples bounds the latency window used for percentiles.
const maxLatencySamples = 10000

type Stats struct {
	TotalLookups     int64            `json:"total_lookups"`
	LookupsByKind    map[string]int64 `json:"lookups_by_kind"`
	ZeroMatchLookups int64            `json:"zero_match_lookups"`
	ZeroMatchByKind  map[string]int64 `json:"zero_match_by_kind"`
	CacheHits        int64            `json:"cache_hits"`
	CacheHitRate     float64          `json:"cache_hit_rate"`
	AvgMatches       float64          `json:"avg_matches"`
	AvgLatencyMs     float64          `json:"avg_latency_ms"`
	P50LatencyMs     float64          `json:"p50_latency_ms"`
	P95LatencyMs     float64          `json:"p95_latency_ms"`
	P99LatencyMs     float64          `json:"p99_latency_ms"`
	TopQueriedIdeas  []IdeaCount      `json:"top_queried_ideas"`
	TopMatchedIdeas  []IdeaCount      `json:"top_matched_ideas"`
	Writes           map[string]int64 `json:"writes"`
	LookupsPerMinute float64          `json:"lookups_per_minute"`
	CollectingSince  time.Time        `json:"collecting_since"`
}

type IdeaCount struct {
	IdeaID string `json:"idea_id"`
	Count  int64  `json:"count"`
}

// Aggregator folds analytics events into in-memory statistics.
type Aggregator struct {
	totalLookups atomic.Int64
	zeroMatches  atomic.Int64
	cacheHits    atomic.Int64
	totalMatches atomic.Int64

	mu           sync.RWMutex
	byKind       map[string]int64
	zeroByKind   map[string]int64
	latencies    []int64
	next         int
	queriedIdeas map[string]int64
	matchedIdeas map[string]int64
	writes       map[string]int64
	startTime    time.Time
	topN         int

	now    func() time.Time
	logger *slog.Logger
}

// NewAggregator creates an Aggregator reporting the topN most frequent ideas.
func NewAggregator(topN int) *Aggregator {
	if topN <= 0 {
		topN = 10
	}
	return &Aggregator{
		byKind:       make(map[string]int64),
		zeroByKind:   make(map[string]int64),
		latencies:    make([]int64, 0, 1024),
		queriedIdeas: make(map[string]int64),
		matchedIdeas: make(map[string]int64),
		writes:       make(map[string]int64),
		startTime:    time.Now(),
		topN:         topN,
		now:          time.Now,
		logger:       slog.Default().With("component", "analytics-aggregator"),
	}
}

// HandleMessage is the Kafka consumer callback. Undecodable messages are
// logged and skipped so one bad record never stalls the partition.
func (a *Aggregator) HandleMessage(_ context.Context, msg kafka.Message) error {
	switch EventType(msg.Type) {
	case EventSimilarity:
		e, err := kafka.DecodeJSON[SimilarityEvent](msg.Value)
		if err != nil {
			a.logger.Error("failed to decode similarity event", "error", err)
			return nil
		}
		a.RecordSimilarity(e)
	case EventRecordWrite:
		e, err := kafka.DecodeJSON[RecordEvent](msg.Value)
		if err != nil {
			a.logger.Error("failed to decode record event", "error", err)
			return nil
		}
		a.RecordWrite(e)
	default:
		a.logger.Warn("skipping unknown analytics event", "type", msg.Type)
	}
	return nil
}

// PublishBatch applies events in process, letting the intake service feed
// the aggregator directly when Kafka is disabled.
func (a *Aggregator) PublishBatch(_ context.Context, events []kafka.Event) error {
	for _, e := range events {
		switch v := e.Value.(type) {
		case SimilarityEvent:
			a.RecordSimilarity(v)
		case RecordEvent:
			a.RecordWrite(v)
		default:
			return fmt.Errorf("unsupported analytics event %T", e.Value)
		}
	}
	return nil
}

func (a *Aggregator) RecordSimilarity(e SimilarityEvent) {
	a.totalLookups.Add(1)
	a.totalMatches.Add(int64(e.Matches))
	if e.CacheHit {
		a.cacheHits.Add(1)
	}
	if e.Matches == 0 {
		a.zeroMatches.Add(1)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.byKind[e.Kind]++
	if e.Matches == 0 {
		a.zeroByKind[e.Kind]++
	}
	if len(a.latencies) < maxLatencySamples {
		a.latencies = append(a.latencies, e.LatencyUs)
	} else {
		a.latencies[a.next] = e.LatencyUs
		a.next = (a.next + 1) % maxLatencySamples
	}
	if e.Kind == metrics.KindIdea && e.BaseID != "" {
		a.queriedIdeas[e.BaseID]++
	}
	for _, id := range e.MatchIDs {
		a.matchedIdeas[id]++
	}
}

func (a *Aggregator) RecordWrite(e RecordEvent) {
	a.mu.Lock()
	a.writes[e.Entity+"."+e.Operation]++
	a.mu.Unlock()
}

func (a *Aggregator) Stats() Stats {
	stats := Stats{
		TotalLookups:     a.totalLookups.Load(),
		ZeroMatchLookups: a.zeroMatches.Load(),
		CacheHits:        a.cacheHits.Load(),
		CollectingSince:  a.startTime.UTC(),
	}
	if stats.TotalLookups > 0 {
		stats.CacheHitRate = float64(stats.CacheHits) / float64(stats.TotalLookups)
		stats.AvgMatches = float64(a.totalMatches.Load()) / float64(stats.TotalLookups)
	}

	a.mu.RLock()
	stats.LookupsByKind = copyCounts(a.byKind)
	stats.ZeroMatchByKind = copyCounts(a.zeroByKind)
	stats.Writes = copyCounts(a.writes)
	stats.TopQueriedIdeas = topN(a.queriedIdeas, a.topN)
	stats.TopMatchedIdeas = topN(a.matchedIdeas, a.topN)
	sorted := make([]int64, len(a.latencies))
	copy(sorted, a.latencies)
	a.mu.RUnlock()

	if len(sorted) > 0 {
		sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
		var sum int64
		for _, l := range sorted {
			sum += l
		}
		stats.AvgLatencyMs = float64(sum) / float64(len(sorted)) / 1000
		stats.P50LatencyMs = float64(percentile(sorted, 50)) / 1000
		stats.P95LatencyMs = float64(percentile(sorted, 95)) / 1000
		stats.P99LatencyMs = float64(percentile(sorted, 99)) / 1000
	}
	if elapsed := a.now().Sub(a.startTime).Minutes(); elapsed > 0 {
		stats.LookupsPerMinute = float64(stats.TotalLookups) / elapsed
	}
	return stats
}

func copyCounts(m map[string]int64) map[string]int64 {
	out := make(map[string]int64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func percentile(sorted []int64, pct int) int64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := (pct * len(sorted)) / 100
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

// topN returns the n largest counts, ties broken by id.
func topN(counts map[string]int64, n int) []IdeaCount {
	result := make([]IdeaCount, 0, len(counts))
	for id, count := range counts {
		result = append(result, IdeaCount{IdeaID: id, Count: count})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].IdeaID < result[j].IdeaID
	})
	if len(result) > n {
		result = result[:n]
	}
	return result
}
