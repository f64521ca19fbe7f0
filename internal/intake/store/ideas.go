package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/idea-intake-platform/internal/intake"
	apperrors "github.com/Adithya-Monish-Kumar-K/idea-intake-platform/pkg/errors"
)

const ideaColumns = `id, proponent_name, proponent_id, proponent_unit, experiment_name,
	team, challenge, solution, methodology, hypothesis, horizon, baseline,
	expected_results, kpis, category, status, ai_review, human_review, created_at`

func scanIdea(row rowScanner) (*intake.Idea, error) {
	var i intake.Idea
	err := row.Scan(
		&i.ID, &i.ProponentName, &i.ProponentID, &i.ProponentUnit, &i.ExperimentName,
		&i.Team, &i.Challenge, &i.Solution, &i.Methodology, &i.Hypothesis, &i.Horizon, &i.Baseline,
		&i.ExpectedResults, &i.KPIs, &i.Category, &i.Status, &i.AIReview, &i.HumanReview, &i.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	i.CreatedAt = i.CreatedAt.UTC()
	return &i, nil
}

func ideaNotFound(id string) error {
	return fmt.Errorf("idea %s: %w", id, apperrors.ErrIdeaNotFound)
}

// CreateIdea inserts idea, filling in its id, creation time and default
// status.
func (s *Store) CreateIdea(ctx context.Context, idea *intake.Idea) error {
	if idea.ID == "" {
		idea.ID = s.newID()
	}
	if idea.Status == "" {
		idea.Status = intake.StatusOpen
	}
	idea.CreatedAt = s.now()

	_, err := s.db.ExecContext(ctx, s.rebind(`INSERT INTO ideas (`+ideaColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		idea.ID, idea.ProponentName, idea.ProponentID, idea.ProponentUnit, idea.ExperimentName,
		idea.Team, idea.Challenge, idea.Solution, idea.Methodology, idea.Hypothesis, idea.Horizon, idea.Baseline,
		idea.ExpectedResults, idea.KPIs, idea.Category, idea.Status, idea.AIReview, idea.HumanReview, idea.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting idea: %w", err)
	}
	return nil
}

// GetIdea returns the idea with id or an error wrapping ErrIdeaNotFound.
func (s *Store) GetIdea(ctx context.Context, id string) (*intake.Idea, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`SELECT `+ideaColumns+` FROM ideas WHERE id = ?`), id)
	idea, err := scanIdea(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ideaNotFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("loading idea %s: %w", id, err)
	}
	return idea, nil
}

// ListIdeas returns the ideas matching filter, oldest first.
func (s *Store) ListIdeas(ctx context.Context, filter intake.IdeaFilter) ([]intake.Idea, error) {
	var w where
	if name := strings.TrimSpace(filter.NameContains); name != "" {
		w.add("LOWER(experiment_name) LIKE ?", "%"+strings.ToLower(name)+"%")
	}
	if filter.Status != "" {
		w.add("status = ?", filter.Status)
	}
	if filter.Category != "" {
		w.add("category = ?", filter.Category)
	}
	query := `SELECT ` + ideaColumns + ` FROM ideas` + w.String() + ` ORDER BY created_at, id`

	rows, err := s.db.QueryContext(ctx, s.rebind(query), w.args...)
	if err != nil {
		return nil, fmt.Errorf("listing ideas: %w", err)
	}
	defer rows.Close()

	ideas := make([]intake.Idea, 0)
	for rows.Next() {
		idea, err := scanIdea(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning idea: %w", err)
		}
		ideas = append(ideas, *idea)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating ideas: %w", err)
	}
	return ideas, nil
}

// UpdateIdea replaces every editable field of the stored idea. The id and
// creation time are kept.
func (s *Store) UpdateIdea(ctx context.Context, idea *intake.Idea) error {
	res, err := s.db.ExecContext(ctx, s.rebind(`UPDATE ideas SET
		proponent_name = ?, proponent_id = ?, proponent_unit = ?, experiment_name = ?,
		team = ?, challenge = ?, solution = ?, methodology = ?, hypothesis = ?,
		horizon = ?, baseline = ?, expected_results = ?, kpis = ?, category = ?, status = ?
		WHERE id = ?`),
		idea.ProponentName, idea.ProponentID, idea.ProponentUnit, idea.ExperimentName,
		idea.Team, idea.Challenge, idea.Solution, idea.Methodology, idea.Hypothesis,
		idea.Horizon, idea.Baseline, idea.ExpectedResults, idea.KPIs, idea.Category, idea.Status,
		idea.ID,
	)
	if err != nil {
		return fmt.Errorf("updating idea %s: %w", idea.ID, err)
	}
	ok, err := affected(res)
	if err != nil {
		return err
	}
	if !ok {
		return ideaNotFound(idea.ID)
	}
	return nil
}

func (s *Store) UpdateIdeaStatus(ctx context.Context, id string, status intake.Status) (*intake.Idea, error) {
	return s.setIdeaColumn(ctx, id, "status", status)
}

func (s *Store) UpdateIdeaAIReview(ctx context.Context, id, review string) (*intake.Idea, error) {
	return s.setIdeaColumn(ctx, id, "ai_review", review)
}

func (s *Store) UpdateIdeaHumanReview(ctx context.Context, id, review string) (*intake.Idea, error) {
	return s.setIdeaColumn(ctx, id, "human_review", review)
}

// setIdeaColumn updates one column; column is never user input.
func (s *Store) setIdeaColumn(ctx context.Context, id, column string, value any) (*intake.Idea, error) {
	res, err := s.db.ExecContext(ctx, s.rebind(`UPDATE ideas SET `+column+` = ? WHERE id = ?`), value, id)
	if err != nil {
		return nil, fmt.Errorf("updating idea %s %s: %w", id, column, err)
	}
	ok, err := affected(res)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ideaNotFound(id)
	}
	return s.GetIdea(ctx, id)
}

func (s *Store) DeleteIdea(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM ideas WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("deleting idea %s: %w", id, err)
	}
	ok, err := affected(res)
	if err != nil {
		return err
	}
	if !ok {
		return ideaNotFound(id)
	}
	return nil
}

func (s *Store) CountIdeas(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM ideas`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting ideas: %w", err)
	}
	return n, nil
}
