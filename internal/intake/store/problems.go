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

const problemColumns = `id, reporter_name, reporter_id, unit, email, description, process,
	category, financial_impact, people_impact, expected_solution, status,
	matching_score, created_at`

func scanProblem(row rowScanner) (*intake.Problem, error) {
	var (
		p         intake.Problem
		financial sql.NullFloat64
		people    sql.NullInt64
		score     sql.NullFloat64
	)
	err := row.Scan(
		&p.ID, &p.ReporterName, &p.ReporterID, &p.Unit, &p.Email, &p.Description, &p.Process,
		&p.Category, &financial, &people, &p.ExpectedSolution, &p.Status,
		&score, &p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if financial.Valid {
		p.FinancialImpact = &financial.Float64
	}
	if people.Valid {
		n := int(people.Int64)
		p.PeopleImpact = &n
	}
	if score.Valid {
		p.MatchingScore = &score.Float64
	}
	p.CreatedAt = p.CreatedAt.UTC()
	return &p, nil
}

func problemNotFound(id string) error {
	return fmt.Errorf("problem %s: %w", id, apperrors.ErrProblemNotFound)
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

// CreateProblem inserts problem, filling in its id, creation time and
// default status. Any matching score on the input is ignored.
func (s *Store) CreateProblem(ctx context.Context, p *intake.Problem) error {
	if p.ID == "" {
		p.ID = s.newID()
	}
	if p.Status == "" {
		p.Status = intake.StatusOpen
	}
	p.MatchingScore = nil
	p.CreatedAt = s.now()

	_, err := s.db.ExecContext(ctx, s.rebind(`INSERT INTO problems (`+problemColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		p.ID, p.ReporterName, p.ReporterID, p.Unit, p.Email, p.Description, p.Process,
		p.Category, nullFloat(p.FinancialImpact), nullInt(p.PeopleImpact), p.ExpectedSolution, p.Status,
		sql.NullFloat64{}, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting problem: %w", err)
	}
	return nil
}

// GetProblem returns the problem with id or an error wrapping
// ErrProblemNotFound.
func (s *Store) GetProblem(ctx context.Context, id string) (*intake.Problem, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`SELECT `+problemColumns+` FROM problems WHERE id = ?`), id)
	p, err := scanProblem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, problemNotFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("loading problem %s: %w", id, err)
	}
	return p, nil
}

func (s *Store) ListProblems(ctx context.Context, filter intake.ProblemFilter) ([]intake.Problem, error) {
	var w where
	if filter.Status != "" {
		w.add("status = ?", filter.Status)
	}
	if email := strings.TrimSpace(filter.Email); email != "" {
		w.add("LOWER(email) = ?", strings.ToLower(email))
	}
	if filter.Category != "" {
		w.add("category = ?", filter.Category)
	}
	return s.queryProblems(ctx, `SELECT `+problemColumns+` FROM problems`+w.String()+` ORDER BY created_at, id`, w.args...)
}

// ListByMatchingScore returns the problems that carry a matching score,
// highest first.
func (s *Store) ListByMatchingScore(ctx context.Context) ([]intake.Problem, error) {
	return s.queryProblems(ctx, `SELECT `+problemColumns+` FROM problems
		WHERE matching_score IS NOT NULL
		ORDER BY matching_score DESC, created_at, id`)
}

func (s *Store) queryProblems(ctx context.Context, query string, args ...any) ([]intake.Problem, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("listing problems: %w", err)
	}
	defer rows.Close()

	problems := make([]intake.Problem, 0)
	for rows.Next() {
		p, err := scanProblem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning problem: %w", err)
		}
		problems = append(problems, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating problems: %w", err)
	}
	return problems, nil
}

// UpdateProblem replaces every editable field. The id, creation time and
// matching score are kept.
func (s *Store) UpdateProblem(ctx context.Context, p *intake.Problem) error {
	res, err := s.db.ExecContext(ctx, s.rebind(`UPDATE problems SET
		reporter_name = ?, reporter_id = ?, unit = ?, email = ?, description = ?,
		process = ?, category = ?, financial_impact = ?, people_impact = ?,
		expected_solution = ?, status = ?
		WHERE id = ?`),
		p.ReporterName, p.ReporterID, p.Unit, p.Email, p.Description,
		p.Process, p.Category, nullFloat(p.FinancialImpact), nullInt(p.PeopleImpact),
		p.ExpectedSolution, p.Status,
		p.ID,
	)
	if err != nil {
		return fmt.Errorf("updating problem %s: %w", p.ID, err)
	}
	ok, err := affected(res)
	if err != nil {
		return err
	}
	if !ok {
		return problemNotFound(p.ID)
	}
	return nil
}

func (s *Store) UpdateProblemStatus(ctx context.Context, id string, status intake.Status) (*intake.Problem, error) {
	return s.setProblemColumn(ctx, id, "status", status)
}

// UpdateMatchingScore stores an externally computed matching score.
func (s *Store) UpdateMatchingScore(ctx context.Context, id string, score float64) (*intake.Problem, error) {
	return s.setProblemColumn(ctx, id, "matching_score", score)
}

func (s *Store) setProblemColumn(ctx context.Context, id, column string, value any) (*intake.Problem, error) {
	res, err := s.db.ExecContext(ctx, s.rebind(`UPDATE problems SET `+column+` = ? WHERE id = ?`), value, id)
	if err != nil {
		return nil, fmt.Errorf("updating problem %s %s: %w", id, column, err)
	}
	ok, err := affected(res)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, problemNotFound(id)
	}
	return s.GetProblem(ctx, id)
}

func (s *Store) DeleteProblem(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM problems WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("deleting problem %s: %w", id, err)
	}
	ok, err := affected(res)
	if err != nil {
		return err
	}
	if !ok {
		return problemNotFound(id)
	}
	return nil
}
