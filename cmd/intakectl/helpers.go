package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/Adithya-Monish-Kumar-K/idea-intake-platform/internal/intake"
	"github.com/Adithya-Monish-Kumar-K/idea-intake-platform/internal/intake/matcher"
	"github.com/Adithya-Monish-Kumar-K/idea-intake-platform/internal/intake/store"
	"github.com/Adithya-Monish-Kumar-K/idea-intake-platform/internal/similarity/ranker"
	"github.com/Adithya-Monish-Kumar-K/idea-intake-platform/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/idea-intake-platform/pkg/logger"
)

// openStore loads the config, connects and migrates. The returned func closes
// the connection.
func openStore(ctx context.Context) (*store.Store, *config.Config, func(), error) {
	cfg, err := config.Load(rootFlags.configPath)
	if err != nil {
		return nil, nil, nil, err
	}
	logger.Setup("warn", cfg.Logging.Format)

	db, dialect, err := store.Connect(ctx, cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	st := store.New(db, dialect)
	if _, err := st.Migrate(ctx); err != nil {
		db.Close()
		return nil, nil, nil, fmt.Errorf("migrate: %w", err)
	}
	return st, cfg, func() { db.Close() }, nil
}

func newMatcher(st *store.Store, cfg *config.Config) *matcher.Matcher {
	return matcher.New(st, st, matcher.WithRankerOptions(
		ranker.WithWorkers(cfg.Ranking.Workers),
		ranker.WithParallelThreshold(cfg.Ranking.ParallelThreshold),
	))
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printMatches(w io.Writer, resp *intake.SimilarIdeasResponse) error {
	if rootFlags.jsonOutput {
		return printJSON(w, resp)
	}
	fmt.Fprintf(w, "%s: %d similar idea(s)\n", resp.BaseLabel, resp.Count)
	if resp.Count == 0 {
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tEXPERIMENT\tSCORE\tLEVEL\tCRITERIA")
	for _, m := range resp.Matches {
		criteria := "-"
		if len(m.Criteria) > 0 {
			criteria = fmt.Sprint(m.Criteria)
		}
		fmt.Fprintf(tw, "%s\t%s\t%.0f%%\t%s\t%s\n", m.Idea.ID, m.Idea.ExperimentName, m.Percentage, m.Level, criteria)
	}
	return tw.Flush()
}
