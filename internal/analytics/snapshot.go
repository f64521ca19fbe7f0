package analytics

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/idea-intake-platform/internal/intake/store"
)

// SnapshotStore persists Stats in the analytics_snapshots table created by
// the intake migrations.
type SnapshotStore struct {
	db      *sql.DB
	dialect store.Dialect
	now     func() time.Time
	logger  *slog.Logger
}

// Snapshot is a stored Stats value with its capture time.
type Snapshot struct {
	CapturedAt time.Time `json:"captured_at"`
	Stats      Stats     `json:"stats"`
}

func NewSnapshotStore(db *sql.DB, dialect store.Dialect) *SnapshotStore {
	return &SnapshotStore{
		db:      db,
		dialect: dialect,
		now:     func() time.Time { return time.Now().UTC() },
		logger:  slog.Default().With("component", "analytics-snapshots"),
	}
}

func (s *SnapshotStore) Save(ctx context.Context, stats Stats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("marshaling stats: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		s.dialect.Rebind(`INSERT INTO analytics_snapshots (data, captured_at) VALUES (?, ?)`),
		string(data), s.now(),
	)
	if err != nil {
		return fmt.Errorf("saving analytics snapshot: %w", err)
	}
	s.logger.Debug("analytics snapshot saved", "total_lookups", stats.TotalLookups)
	return nil
}

// Latest returns the most recent snapshot, or nil when none exist.
func (s *SnapshotStore) Latest(ctx context.Context) (*Snapshot, error) {
	list, err := s.List(ctx, 1)
	if err != nil || len(list) == 0 {
		return nil, err
	}
	return &list[0], nil
}

// List returns up to limit snapshots, newest first. Corrupt rows are skipped.
func (s *SnapshotStore) List(ctx context.Context, limit int) ([]Snapshot, error) {
	rows, err := s.db.QueryContext(ctx,
		s.dialect.Rebind(`SELECT data, captured_at FROM analytics_snapshots ORDER BY captured_at DESC LIMIT ?`),
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}
	defer rows.Close()

	snapshots := make([]Snapshot, 0, limit)
	for rows.Next() {
		var data string
		var snap Snapshot
		if err := rows.Scan(&data, &snap.CapturedAt); err != nil {
			return nil, fmt.Errorf("scanning snapshot row: %w", err)
		}
		if err := json.Unmarshal([]byte(data), &snap.Stats); err != nil {
			s.logger.Warn("skipping corrupt snapshot", "error", err)
			continue
		}
		snap.CapturedAt = snap.CapturedAt.UTC()
		snapshots = append(snapshots, snap)
	}
	return snapshots, rows.Err()
}

// StartPeriodicSave snapshots agg every interval until ctx is done, then
// writes one final snapshot.
func (s *SnapshotStore) StartPeriodicSave(ctx context.Context, agg *Aggregator, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := s.Save(ctx, agg.Stats()); err != nil && !errors.Is(err, context.Canceled) {
					s.logger.Error("periodic snapshot failed", "error", err)
				}
			case <-ctx.Done():
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := s.Save(shutdownCtx, agg.Stats()); err != nil {
					s.logger.Error("final snapshot failed", "error", err)
				}
				return
			}
		}
	}()
	s.logger.Info("periodic snapshot started", "interval", interval)
}
