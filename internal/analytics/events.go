// Package analytics collects usage events from the intake service, ships
// them over Kafka and aggregates them into dashboard statistics.
package analytics

import (
	"time"

	"github.com/Adithya-Monish-Kumar-K/idea-intake-platform/pkg/kafka"
)

type EventType string

const (
	EventSimilarity  EventType = "similarity_lookup"
	EventRecordWrite EventType = "record_write"
)

// Event is anything the collector can ship.
type Event interface {
	EventType() EventType
	PartitionKey() string
}

// SimilarityEvent describes one answered similarity lookup.
type SimilarityEvent struct {
	Kind      string    `json:"kind"`
	BaseID    string    `json:"base_id,omitempty"`
	Matches   int       `json:"matches"`
	TopScore  float64   `json:"top_score"`
	MatchIDs  []string  `json:"match_ids,omitempty"`
	CorpusLen int       `json:"corpus_size"`
	LatencyUs int64     `json:"latency_us"`
	CacheHit  bool      `json:"cache_hit"`
	RequestID string    `json:"request_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func (SimilarityEvent) EventType() EventType { return EventSimilarity }

func (e SimilarityEvent) PartitionKey() string {
	if e.BaseID != "" {
		return e.BaseID
	}
	return e.Kind
}

// RecordEvent describes a successful write to an idea or problem.
type RecordEvent struct {
	Entity    string    `json:"entity"`
	Operation string    `json:"operation"`
	ID        string    `json:"id"`
	RequestID string    `json:"request_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func (RecordEvent) EventType() EventType { return EventRecordWrite }
func (e RecordEvent) PartitionKey() string { return e.ID }

func toKafka(e Event) kafka.Event {
	return kafka.Event{
		Key:   e.PartitionKey(),
		Type:  string(e.EventType()),
		Value: e,
	}
}
