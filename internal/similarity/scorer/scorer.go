// Package scorer computes lexical similarity between text fragments and
// weighted composite scores between records, or between a free-text query and
// a record.
//
// A composite score is the raw sum of weighted contributions. Both weight
// tables sum to 1.0, so composite scores never exceed 1.0.
package scorer

import (
	"strings"

	"github.com/Adithya-Monish-Kumar-K/idea-intake-platform/internal/similarity/tokenizer"
)

// Field names one comparable text attribute of a record.
type Field string

const (
	FieldChallenge      Field = "challenge"
	FieldSolution       Field = "solution"
	FieldExperimentName Field = "experiment_name"
	FieldMethodology    Field = "methodology"
)

// Record is anything the engine can score. An empty string means the value is
// absent.
type Record interface {
	RecordID() string
	RecordCategory() string
	FieldText(f Field) string
}

// Weight pairs a field with its share of the composite score.
type Weight struct {
	Field  Field
	Weight float64
}

// CategoryWeight is awarded when two records carry the same category.
const CategoryWeight = 0.40

var recordWeights = []Weight{
	{Field: FieldChallenge, Weight: 0.25},
	{Field: FieldSolution, Weight: 0.25},
	{Field: FieldExperimentName, Weight: 0.10},
}

var textWeights = []Weight{
	{Field: FieldChallenge, Weight: 0.45},
	{Field: FieldSolution, Weight: 0.30},
	{Field: FieldExperimentName, Weight: 0.15},
	{Field: FieldMethodology, Weight: 0.10},
}

// RecordWeights returns a copy of the field weights used by Compare, in the
// order criteria are reported.
func RecordWeights() []Weight {
	return append([]Weight(nil), recordWeights...)
}

// TextWeights returns a copy of the field weights used by CompareText.
func TextWeights() []Weight {
	return append([]Weight(nil), textWeights...)
}

// MaxScore is the highest score Compare can produce.
func MaxScore() float64 {
	return CategoryWeight + sum(recordWeights)
}

// MaxTextScore is the highest score CompareText can produce.
func MaxTextScore() float64 {
	return sum(textWeights)
}

func sum(ws []Weight) float64 {
	var total float64
	for _, w := range ws {
		total += w.Weight
	}
	return total
}

// FieldScore is the outcome of comparing one field.
type FieldScore struct {
	Field        Field
	Similarity   float64
	Contribution float64
}

// Breakdown explains how a composite score was reached.
type Breakdown struct {
	Score float64
	// Evaluated counts the criteria that could be compared at all. When it is
	// zero the score is zero.
	Evaluated int
	// Category is true when both categories are present and equal.
	Category bool
	Fields   []FieldScore
}

// Jaccard returns |A∩B| / |A∪B| over the significant words of a and b, or 0
// when either side has no significant words.
func Jaccard(a, b string) float64 {
	if strings.TrimSpace(a) == "" || strings.TrimSpace(b) == "" {
		return 0
	}
	return JaccardSets(tokenizer.Tokenize(a), tokenizer.Tokenize(b))
}

// JaccardSets is Jaccard over already tokenized text.
func JaccardSets(a, b tokenizer.Set) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	small, large := a, b
	if len(small) > len(large) {
		small, large = large, small
	}
	inter := 0
	for w := range small {
		if large.Has(w) {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}

// Compare scores candidate against base using the category bonus and the
// record field weights.
func Compare(base, candidate Record) Breakdown {
	var bd Breakdown

	bc, cc := base.RecordCategory(), candidate.RecordCategory()
	if bc != "" && cc != "" {
		bd.Evaluated++
		if bc == cc {
			bd.Category = true
			bd.Score += CategoryWeight
		}
	}

	for _, w := range recordWeights {
		a, b := base.FieldText(w.Field), candidate.FieldText(w.Field)
		if strings.TrimSpace(a) == "" || strings.TrimSpace(b) == "" {
			continue
		}
		bd.Evaluated++
		sim := Jaccard(a, b)
		contrib := sim * w.Weight
		bd.Score += contrib
		bd.Fields = append(bd.Fields, FieldScore{Field: w.Field, Similarity: sim, Contribution: contrib})
	}

	if bd.Evaluated == 0 {
		bd.Score = 0
	}
	return bd
}

// Query is a tokenized free-text query. Building it once lets a ranking pass
// reuse the token set for every candidate.
type Query struct {
	text   string
	tokens tokenizer.Set
}

// NewQuery tokenizes text.
func NewQuery(text string) Query {
	return Query{text: text, tokens: tokenizer.Tokenize(text)}
}

// Text returns the original query text.
func (q Query) Text() string { return q.text }

// Blank reports whether the query has no significant words.
func (q Query) Blank() bool { return len(q.tokens) == 0 }

// CompareText scores candidate against a free-text query.
func CompareText(query string, candidate Record) Breakdown {
	return CompareQuery(NewQuery(query), candidate)
}

// CompareQuery is CompareText with a pre-tokenized query.
func CompareQuery(q Query, candidate Record) Breakdown {
	var bd Breakdown
	if strings.TrimSpace(q.text) == "" {
		return bd
	}
	for _, w := range textWeights {
		text := candidate.FieldText(w.Field)
		if strings.TrimSpace(text) == "" {
			continue
		}
		bd.Evaluated++
		sim := JaccardSets(q.tokens, tokenizer.Tokenize(text))
		contrib := sim * w.Weight
		bd.Score += contrib
		bd.Fields = append(bd.Fields, FieldScore{Field: w.Field, Similarity: sim, Contribution: contrib})
	}
	if bd.Evaluated == 0 {
		bd.Score = 0
	}
	return bd
}
