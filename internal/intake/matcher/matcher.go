// Package matcher answers similarity lookups for the intake API: it loads the
// idea corpus, ranks it against an idea, a free-text query or a problem, and
// shapes the result for clients. Responses pass through the similarity
// cache, and every lookup is measured and reported to analytics.
package matcher

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Adithya-Monish-Kumar-K/idea-intake-platform/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/idea-intake-platform/internal/intake"
	"github.com/Adithya-Monish-Kumar-K/idea-intake-platform/internal/intake/cache"
	"github.com/Adithya-Monish-Kumar-K/idea-intake-platform/internal/similarity/ranker"
	"github.com/Adithya-Monish-Kumar-K/idea-intake-platform/internal/similarity/scorer"
	apperrors "github.com/Adithya-Monish-Kumar-K/idea-intake-platform/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/idea-intake-platform/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/idea-intake-platform/pkg/metrics"
)

const (
	// TextLabel is the base label of a lookup with blank text.
	TextLabel = "Provided text"

	textLabelPrefix = "Text search: "
	textLabelRunes  = 50
)

type IdeaReader interface {
	GetIdea(ctx context.Context, id string) (*intake.Idea, error)
	ListIdeas(ctx context.Context, filter intake.IdeaFilter) ([]intake.Idea, error)
}

type ProblemReader interface {
	GetProblem(ctx context.Context, id string) (*intake.Problem, error)
}

// Tracker receives one event per answered lookup. *analytics.Collector
// satisfies it.
type Tracker interface {
	Track(e analytics.Event)
}

type Matcher struct {
	ideas    IdeaReader
	problems ProblemReader
	cache    *cache.Cache
	tracker  Tracker
	metrics  *metrics.Metrics
	opts     []ranker.Option
	logger   *slog.Logger
}

type Option func(*Matcher)

// WithCache serves responses through c.
func WithCache(c *cache.Cache) Option { return func(m *Matcher) { m.cache = c } }

func WithTracker(t Tracker) Option { return func(m *Matcher) { m.tracker = t } }

func WithMetrics(mt *metrics.Metrics) Option { return func(m *Matcher) { m.metrics = mt } }

// WithRankerOptions tunes ranking passes (worker count, parallel threshold).
func WithRankerOptions(opts ...ranker.Option) Option {
	return func(m *Matcher) { m.opts = append(m.opts, opts...) }
}

func New(ideas IdeaReader, problems ProblemReader, opts ...Option) *Matcher {
	m := &Matcher{
		ideas:    ideas,
		problems: problems,
		logger:   slog.Default().With("component", "matcher"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// SimilarIdeas ranks every other idea against the idea with id.
func (m *Matcher) SimilarIdeas(ctx context.Context, id string) (*intake.SimilarIdeasResponse, error) {
	start := time.Now()
	resp, hit, err := cache.Fetch(ctx, m.cache, cache.IdeaKey(id), func(ctx context.Context) (*intake.SimilarIdeasResponse, error) {
		base, err := m.ideas.GetIdea(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("loading base idea: %w", err)
		}
		corpus, err := m.corpus(ctx)
		if err != nil {
			return nil, err
		}
		res := ranker.SimilarTo(*base, corpus, m.opts...)
		return toResponse(base.ID, base.ExperimentName, res), nil
	})
	m.observe(ctx, metrics.KindIdea, id, start, hit, resp, err)
	return resp, err
}

// SimilarIdeasFromText ranks every idea against free text. Blank text
// yields an empty response without reading the corpus.
func (m *Matcher) SimilarIdeasFromText(ctx context.Context, text string) (*intake.SimilarIdeasResponse, error) {
	if strings.TrimSpace(text) == "" {
		return emptyTextResponse(), nil
	}
	start := time.Now()
	resp, hit, err := cache.Fetch(ctx, m.cache, cache.TextKey(text), func(ctx context.Context) (*intake.SimilarIdeasResponse, error) {
		return m.rankText(ctx, text, "", textLabel(text))
	})
	m.observe(ctx, metrics.KindText, "", start, hit, resp, err)
	return resp, err
}

// RelatedIdeasForProblem ranks every idea against the problem's description,
// process and expected solution.
func (m *Matcher) RelatedIdeasForProblem(ctx context.Context, problemID string) (*intake.ProblemWithIdeasResponse, error) {
	start := time.Now()
	resp, hit, err := cache.Fetch(ctx, m.cache, cache.ProblemKey(problemID), func(ctx context.Context) (*intake.ProblemWithIdeasResponse, error) {
		p, err := m.problems.GetProblem(ctx, problemID)
		if err != nil {
			return nil, fmt.Errorf("loading problem: %w", err)
		}
		query := p.QueryText()
		label := textLabel(query)
		if query == "" {
			label = TextLabel
		}
		related, err := m.rankText(ctx, query, p.ID, label)
		if err != nil {
			return nil, err
		}
		return &intake.ProblemWithIdeasResponse{Problem: *p, RelatedIdeas: *related}, nil
	})
	var related *intake.SimilarIdeasResponse
	if resp != nil {
		related = &resp.RelatedIdeas
	}
	m.observe(ctx, metrics.KindProblem, problemID, start, hit, related, err)
	return resp, err
}

func (m *Matcher) rankText(ctx context.Context, text, baseID, label string) (*intake.SimilarIdeasResponse, error) {
	if scorer.NewQuery(text).Blank() {
		return &intake.SimilarIdeasResponse{BaseID: baseID, BaseLabel: label, Matches: []intake.IdeaMatch{}}, nil
	}
	corpus, err := m.corpus(ctx)
	if err != nil {
		return nil, err
	}
	res := ranker.SimilarToText(text, corpus, m.opts...)
	return toResponse(baseID, label, res), nil
}

func (m *Matcher) corpus(ctx context.Context) ([]intake.Idea, error) {
	ideas, err := m.ideas.ListIdeas(ctx, intake.IdeaFilter{})
	if err != nil {
		return nil, fmt.Errorf("loading idea corpus: %w", err)
	}
	if m.metrics != nil {
		m.metrics.CorpusSize.Set(float64(len(ideas)))
	}
	return ideas, nil
}

func (m *Matcher) observe(ctx context.Context, kind, baseID string, start time.Time, hit bool, resp *intake.SimilarIdeasResponse, err error) {
	elapsed := time.Since(start)
	result := "match"
	switch {
	case apperrors.IsNotFound(err):
		result = "not_found"
	case err != nil:
		result = "error"
		logger.FromContext(ctx).Error("similarity lookup failed", "component", "matcher", "kind", kind, "base_id", baseID, "error", err)
	case resp.Count == 0:
		result = "empty"
	}

	if m.metrics != nil {
		cacheStatus := "miss"
		if hit {
			cacheStatus = "hit"
		}
		m.metrics.SimilarityLookupsTotal.WithLabelValues(kind, result).Inc()
		m.metrics.SimilarityLatency.WithLabelValues(kind, cacheStatus).Observe(elapsed.Seconds())
		if resp != nil {
			m.metrics.SimilarityMatches.WithLabelValues(kind).Observe(float64(resp.Count))
		}
	}
	if err != nil || m.tracker == nil {
		return
	}

	event := analytics.SimilarityEvent{
		Kind:      kind,
		BaseID:    baseID,
		Matches:   resp.Count,
		LatencyUs: elapsed.Microseconds(),
		CacheHit:  hit,
		RequestID: logger.RequestID(ctx),
		Timestamp: time.Now().UTC(),
	}
	if resp.Count > 0 {
		event.TopScore = resp.Matches[0].Score
	}
	for i := 0; i < len(resp.Matches) && i < 5; i++ {
		event.MatchIDs = append(event.MatchIDs, resp.Matches[i].Idea.ID)
	}
	m.tracker.Track(event)
}

func toResponse(baseID, label string, res ranker.Result[intake.Idea]) *intake.SimilarIdeasResponse {
	matches := make([]intake.IdeaMatch, len(res.Matches))
	for i, mt := range res.Matches {
		matches[i] = intake.IdeaMatch{
			Idea:       mt.Record,
			Score:      mt.Score,
			Percentage: mt.Percentage,
			Level:      mt.Level,
			Criteria:   mt.Criteria,
		}
	}
	return &intake.SimilarIdeasResponse{
		BaseID:    baseID,
		BaseLabel: label,
		Count:     res.Count,
		Matches:   matches,
	}
}

func emptyTextResponse() *intake.SimilarIdeasResponse {
	return &intake.SimilarIdeasResponse{
		BaseLabel: TextLabel,
		Matches:   []intake.IdeaMatch{},
	}
}

// textLabel names a text lookup by its first runes.
func textLabel(text string) string {
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) <= textLabelRunes {
		return textLabelPrefix + text
	}
	runes := []rune(text)
	return textLabelPrefix + string(runes[:textLabelRunes]) + "..."
}
