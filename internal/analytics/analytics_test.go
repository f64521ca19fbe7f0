package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/idea-intake-platform/internal/intake/store"
	"github.com/Adithya-Monish-Kumar-K/idea-intake-platform/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/idea-intake-platform/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/idea-intake-platform/pkg/resilience"
	"github.com/Adithya-Monish-Kumar-K/idea-intake-platform/pkg/sqlite"
)

func TestAggregatorStats(t *testing.T) {
	agg := NewAggregator(2)
	for _, e := range []SimilarityEvent{
		{Kind: metrics.KindIdea, BaseID: "a", Matches: 2, MatchIDs: []string{"b", "c"}, LatencyUs: 1000},
		{Kind: metrics.KindIdea, BaseID: "a", Matches: 1, MatchIDs: []string{"b"}, LatencyUs: 3000, CacheHit: true},
		{Kind: metrics.KindText, Matches: 0, LatencyUs: 2000},
		{Kind: metrics.KindIdea, BaseID: "d", Matches: 1, MatchIDs: []string{"c"}, LatencyUs: 4000},
	} {
		agg.RecordSimilarity(e)
	}
	agg.RecordWrite(RecordEvent{Entity: "idea", Operation: "create", ID: "a"})
	agg.RecordWrite(RecordEvent{Entity: "idea", Operation: "create", ID: "d"})

	s := agg.Stats()
	assert.EqualValues(t, 4, s.TotalLookups)
	assert.EqualValues(t, 1, s.ZeroMatchLookups)
	assert.Equal(t, map[string]int64{"idea": 3, "text": 1}, s.LookupsByKind)
	assert.Equal(t, map[string]int64{"text": 1}, s.ZeroMatchByKind)
	assert.InDelta(t, 0.25, s.CacheHitRate, 1e-9)
	assert.InDelta(t, 1.0, s.AvgMatches, 1e-9)
	assert.InDelta(t, 2.5, s.AvgLatencyMs, 1e-9)
	assert.InDelta(t, 3.0, s.P50LatencyMs, 1e-9)
	assert.InDelta(t, 4.0, s.P99LatencyMs, 1e-9)
	assert.Equal(t, map[string]int64{"idea.create": 2}, s.Writes)

	want := []IdeaCount{{IdeaID: "a", Count: 2}, {IdeaID: "d", Count: 1}}
	if diff := cmp.Diff(want, s.TopQueriedIdeas); diff != "" {
		t.Errorf("top queried (-want +got):\n%s", diff)
	}
	want = []IdeaCount{{IdeaID: "b", Count: 2}, {IdeaID: "c", Count: 2}}
	if diff := cmp.Diff(want, s.TopMatchedIdeas); diff != "" {
		t.Errorf("top matched (-want +got):\n%s", diff)
	}
}

func TestAggregatorLatencyWindowIsBounded(t *testing.T) {
	agg := NewAggregator(0)
	for i := 0; i < maxLatencySamples+10; i++ {
		agg.RecordSimilarity(SimilarityEvent{Kind: metrics.KindText, LatencyUs: int64(i)})
	}
	agg.mu.RLock()
	defer agg.mu.RUnlock()
	assert.Len(t, agg.latencies, maxLatencySamples)
	assert.Equal(t, 10, agg.next)
}

func TestHandleMessageRoutesByType(t *testing.T) {
	agg := NewAggregator(5)
	ctx := context.Background()
	sim, _ := json.Marshal(SimilarityEvent{Kind: metrics.KindProblem, Matches: 3})
	rec, _ := json.Marshal(RecordEvent{Entity: "problem", Operation: "delete", ID: "p"})

	require.NoError(t, agg.HandleMessage(ctx, kafka.Message{Type: string(EventSimilarity), Value: sim}))
	require.NoError(t, agg.HandleMessage(ctx, kafka.Message{Type: string(EventRecordWrite), Value: rec}))
	require.NoError(t, agg.HandleMessage(ctx, kafka.Message{Type: string(EventSimilarity), Value: []byte("{")}))
	require.NoError(t, agg.HandleMessage(ctx, kafka.Message{Type: "other", Value: sim}))

	s := agg.Stats()
	assert.EqualValues(t, 1, s.TotalLookups)
	assert.Equal(t, map[string]int64{"problem.delete": 1}, s.Writes)
}

func TestAggregatorAsPublisher(t *testing.T) {
	agg := NewAggregator(5)
	err := agg.PublishBatch(context.Background(), []kafka.Event{
		toKafka(SimilarityEvent{Kind: metrics.KindIdea, BaseID: "x"}),
		toKafka(RecordEvent{Entity: "idea", Operation: "update", ID: "x"}),
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, agg.Stats().TotalLookups)

	err = agg.PublishBatch(context.Background(), []kafka.Event{{Value: "nope"}})
	assert.Error(t, err)
}

type recordingPublisher struct {
	mu      sync.Mutex
	batches [][]kafka.Event
	err     error
}

func (p *recordingPublisher) PublishBatch(_ context.Context, events []kafka.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.batches = append(p.batches, append([]kafka.Event(nil), events...))
	return nil
}

func (p *recordingPublisher) total() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, b := range p.batches {
		n += len(b)
	}
	return n
}

func TestCollectorBatchesAndFlushesOnClose(t *testing.T) {
	pub := &recordingPublisher{}
	c := NewCollector(pub, CollectorConfig{BufferSize: 16, BatchSize: 2, FlushInterval: time.Hour}, nil)
	c.Start(context.Background())

	for i := 0; i < 5; i++ {
		c.Track(RecordEvent{Entity: "idea", Operation: "create", ID: "i"})
	}
	c.Close()

	assert.Equal(t, 5, pub.total())
	for _, b := range pub.batches {
		assert.LessOrEqual(t, len(b), 2)
		assert.Equal(t, string(EventRecordWrite), b[0].Type)
	}
}

func TestCollectorDropsWhenBufferFull(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	c := NewCollector(&recordingPublisher{}, CollectorConfig{BufferSize: 1}, m)

	c.Track(RecordEvent{ID: "1"})
	c.Track(RecordEvent{ID: "2"})

	families, err := reg.Gather()
	require.NoError(t, err)
	var dropped float64
	for _, mf := range families {
		if mf.GetName() == "analytics_events_dropped_total" {
			dropped = mf.GetMetric()[0].GetCounter().GetValue()
		}
	}
	assert.Equal(t, float64(1), dropped)
}

func TestCollectorOpensCircuitOnPublishFailures(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker unavailable")}
	c := NewCollector(pub, CollectorConfig{BufferSize: 16, BatchSize: 1, FlushInterval: time.Hour}, nil)
	c.Start(context.Background())
	for i := 0; i < 4; i++ {
		c.Track(SimilarityEvent{Kind: metrics.KindText})
	}
	c.Close()
	assert.Equal(t, resilience.StateOpen, c.CircuitState())
}

func TestCollectorPublishesEventsTrackedAfterCancel(t *testing.T) {
	pub := &recordingPublisher{}
	c := NewCollector(pub, CollectorConfig{BufferSize: 16, BatchSize: 10, FlushInterval: time.Hour}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	c.Start(ctx)

	c.Track(RecordEvent{ID: "before"})
	cancel()
	time.Sleep(20 * time.Millisecond)
	c.Track(RecordEvent{ID: "draining"})
	c.Close()

	assert.Equal(t, 2, pub.total())
}

func TestCollectorTrackAfterCloseDrops(t *testing.T) {
	reg := prometheus.NewRegistry()
	pub := &recordingPublisher{}
	c := NewCollector(pub, CollectorConfig{BufferSize: 16}, metrics.New(reg))
	ctx, cancel := context.WithCancel(context.Background())
	c.Start(ctx)
	cancel()
	c.Close()

	assert.NotPanics(t, func() { c.Track(RecordEvent{ID: "late"}) })
	c.Close()

	families, err := reg.Gather()
	require.NoError(t, err)
	var dropped float64
	for _, mf := range families {
		if mf.GetName() == "analytics_events_dropped_total" {
			dropped = mf.GetMetric()[0].GetCounter().GetValue()
		}
	}
	assert.Equal(t, float64(1), dropped)
	assert.Zero(t, pub.total())
}

func TestNilCollectorIsNoop(t *testing.T) {
	var c *Collector
	c.Track(RecordEvent{})
	c.Close()
}

func openSnapshots(t *testing.T) *SnapshotStore {
	t.Helper()
	client, err := sqlite.Open(context.Background(), sqlite.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	_, err = store.New(client.DB, store.DialectSQLite).Migrate(context.Background())
	require.NoError(t, err)

	s := NewSnapshotStore(client.DB, store.DialectSQLite)
	clock := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}
	return s
}

func TestSnapshotStore(t *testing.T) {
	ctx := context.Background()
	s := openSnapshots(t)

	latest, err := s.Latest(ctx)
	require.NoError(t, err)
	assert.Nil(t, latest)

	require.NoError(t, s.Save(ctx, Stats{TotalLookups: 1}))
	require.NoError(t, s.Save(ctx, Stats{TotalLookups: 7}))

	latest, err = s.Latest(ctx)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.EqualValues(t, 7, latest.Stats.TotalLookups)

	list, err := s.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.True(t, list[0].CapturedAt.After(list[1].CapturedAt))
}

func TestHandler(t *testing.T) {
	agg := NewAggregator(3)
	agg.RecordSimilarity(SimilarityEvent{Kind: metrics.KindIdea, BaseID: "a", Matches: 1})
	snaps := openSnapshots(t)
	require.NoError(t, snaps.Save(context.Background(), agg.Stats()))

	mux := http.NewServeMux()
	NewHandler(agg, snaps).RegisterRoutes(mux)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/analytics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var stats Stats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.EqualValues(t, 1, stats.TotalLookups)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/analytics/snapshots?limit=5", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"count":1`)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/analytics/snapshots?limit=zero", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	mux = http.NewServeMux()
	NewHandler(agg, nil).RegisterRoutes(mux)
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/analytics/snapshots", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
