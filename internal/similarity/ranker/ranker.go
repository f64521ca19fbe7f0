// Package ranker scores a corpus against a base record or a free-text query,
// keeps the candidates above a threshold, sorts them by descending score and
// annotates each with a percentage, a level and the criteria that matched.
//
// Ranking is pure: the corpus is only read, and every call builds its own
// result. Ties keep corpus order.
package ranker

import (
	"fmt"
	"math"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/idea-intake-platform/internal/similarity/scorer"
)

const (
	// RecordThreshold is the score a candidate must exceed in SimilarTo.
	RecordThreshold = 0.3
	// TextThreshold is the score a candidate must exceed in SimilarToText.
	TextThreshold = 0.2

	HighLevel   = 0.7
	MediumLevel = 0.4
)

const (
	LevelHigh   = "High"
	LevelMedium = "Medium"
	LevelLow    = "Low"
)

// Match is one ranked candidate.
type Match[T scorer.Record] struct {
	Record     T
	Score      float64
	Percentage float64
	Level      string
	Criteria   []string
}

// Result is the ordered outcome of a ranking pass.
type Result[T scorer.Record] struct {
	Matches []Match[T]
	Count   int
}

type options struct {
	workers           int
	parallelThreshold int
}

// Option tunes how a ranking pass is executed. Options never change the
// result.
type Option func(*options)

// WithWorkers caps the goroutines used to score large corpora.
func WithWorkers(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.workers = n
		}
	}
}

// WithParallelThreshold sets the corpus size above which scoring is spread
// across workers. Zero or less keeps scoring sequential.
func WithParallelThreshold(n int) Option {
	return func(o *options) { o.parallelThreshold = n }
}

func buildOptions(opts []Option) options {
	o := options{workers: runtime.GOMAXPROCS(0), parallelThreshold: 2000}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// SimilarTo ranks corpus against base. The base record itself, matched by
// id, is never part of the result.
func SimilarTo[T scorer.Record](base T, corpus []T, opts ...Option) Result[T] {
	baseID := base.RecordID()
	return rank(corpus, buildOptions(opts), func(candidate T) (Match[T], bool) {
		if candidate.RecordID() == baseID {
			return Match[T]{}, false
		}
		bd := scorer.Compare(base, candidate)
		if bd.Score <= RecordThreshold {
			return Match[T]{}, false
		}
		return annotate(candidate, bd, recordCriteria(candidate, bd)), true
	})
}

// SimilarToText ranks corpus against a free-text query. A blank query yields
// an empty result without looking at the corpus.
func SimilarToText[T scorer.Record](query string, corpus []T, opts ...Option) Result[T] {
	if strings.TrimSpace(query) == "" {
		return Result[T]{Matches: []Match[T]{}}
	}
	q := scorer.NewQuery(query)
	return rank(corpus, buildOptions(opts), func(candidate T) (Match[T], bool) {
		bd := scorer.CompareQuery(q, candidate)
		if bd.Score <= TextThreshold {
			return Match[T]{}, false
		}
		return annotate(candidate, bd, textCriteria(bd)), true
	})
}

// Level buckets a score for display.
func Level(score float64) string {
	switch {
	case score >= HighLevel:
		return LevelHigh
	case score >= MediumLevel:
		return LevelMedium
	default:
		return LevelLow
	}
}

func rank[T scorer.Record](corpus []T, o options, score func(T) (Match[T], bool)) Result[T] {
	slots := make([]*Match[T], len(corpus))

	if o.parallelThreshold > 0 && len(corpus) > o.parallelThreshold && o.workers > 1 {
		var g errgroup.Group
		g.SetLimit(o.workers)
		for i := range corpus {
			g.Go(func() error {
				if m, ok := score(corpus[i]); ok {
					slots[i] = &m
				}
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for i := range corpus {
			if m, ok := score(corpus[i]); ok {
				slots[i] = &m
			}
		}
	}

	matches := make([]Match[T], 0)
	for _, m := range slots {
		if m != nil {
			matches = append(matches, *m)
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	return Result[T]{Matches: matches, Count: len(matches)}
}

func annotate[T scorer.Record](candidate T, bd scorer.Breakdown, criteria []string) Match[T] {
	return Match[T]{
		Record:     candidate,
		Score:      bd.Score,
		Percentage: bd.Score * 100,
		Level:      Level(bd.Score),
		Criteria:   criteria,
	}
}

func recordCriteria[T scorer.Record](candidate T, bd scorer.Breakdown) []string {
	criteria := make([]string, 0, len(bd.Fields)+1)
	if bd.Category {
		criteria = append(criteria, "Same category: "+candidate.RecordCategory())
	}
	for _, f := range bd.Fields {
		if f.Similarity > RecordThreshold {
			criteria = append(criteria, fmt.Sprintf("Similar %s (%d%% match)", label(f.Field), percent(f.Similarity)))
		}
	}
	return criteria
}

func textCriteria(bd scorer.Breakdown) []string {
	criteria := make([]string, 0, len(bd.Fields))
	for _, f := range bd.Fields {
		if f.Similarity > TextThreshold {
			criteria = append(criteria, fmt.Sprintf("Matches %s (%d%%)", label(f.Field), percent(f.Similarity)))
		}
	}
	return criteria
}

func label(f scorer.Field) string {
	return strings.ReplaceAll(string(f), "_", " ")
}

func percent(sim float64) int {
	return int(math.Round(sim * 100))
}
