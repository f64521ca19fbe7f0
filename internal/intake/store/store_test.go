package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/idea-intake-platform/internal/intake"
	apperrors "github.com/Adithya-Monish-Kumar-K/idea-intake-platform/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/idea-intake-platform/pkg/sqlite"
)

// setupStore opens a migrated in-memory store whose clock advances one
// second per record and whose ids are sequential.
func setupStore(t *testing.T) *Store {
	t.Helper()
	client, err := sqlite.Open(context.Background(), sqlite.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, client.Close()) })

	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	tick, seq := 0, 0
	s := New(client.DB, DialectSQLite,
		WithClock(func() time.Time {
			tick++
			return base.Add(time.Duration(tick) * time.Second)
		}),
		WithIDGenerator(func() string {
			seq++
			return fmt.Sprintf("id-%03d", seq)
		}),
	)
	_, err = s.Migrate(context.Background())
	require.NoError(t, err)
	return s
}

func TestMigrateIsIdempotent(t *testing.T) {
	s := setupStore(t)
	applied, err := s.Migrate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, applied)
}

func TestParseDialect(t *testing.T) {
	d, err := ParseDialect("PostgreSQL")
	require.NoError(t, err)
	assert.Equal(t, DialectPostgres, d)
	d, err = ParseDialect("sqlite3")
	require.NoError(t, err)
	assert.Equal(t, DialectSQLite, d)
	_, err = ParseDialect("oracle")
	assert.Error(t, err)
}

func TestRebind(t *testing.T) {
	pg := New(nil, DialectPostgres)
	assert.Equal(t, "UPDATE t SET a = $1 WHERE id = $2", pg.rebind("UPDATE t SET a = ? WHERE id = ?"))
	lite := New(nil, DialectSQLite)
	assert.Equal(t, "SELECT ? ", lite.rebind("SELECT ? "))
}

func TestIdeaLifecycle(t *testing.T) {
	ctx := context.Background()
	s := setupStore(t)

	idea := &intake.Idea{
		ProponentName:  "João",
		ExperimentName: "Conciliação automática",
		Challenge:      "Retrabalho na conciliação",
		Horizon:        intake.HorizonH1,
		Category:       intake.CategoryProcess,
	}
	require.NoError(t, s.CreateIdea(ctx, idea))
	assert.Equal(t, "id-001", idea.ID)
	assert.Equal(t, intake.StatusOpen, idea.Status)

	got, err := s.GetIdea(ctx, idea.ID)
	require.NoError(t, err)
	assert.Equal(t, idea.ExperimentName, got.ExperimentName)
	assert.Equal(t, intake.HorizonH1, got.Horizon)
	assert.True(t, idea.CreatedAt.Equal(got.CreatedAt), "created_at %v != %v", idea.CreatedAt, got.CreatedAt)

	got.Solution = "Robô conciliador"
	got.Status = intake.StatusUnderReview
	require.NoError(t, s.UpdateIdea(ctx, got))

	updated, err := s.UpdateIdeaAIReview(ctx, idea.ID, "Viável, baixo custo")
	require.NoError(t, err)
	assert.Equal(t, "Robô conciliador", updated.Solution)
	assert.Equal(t, intake.StatusUnderReview, updated.Status)
	assert.Equal(t, "Viável, baixo custo", updated.AIReview)

	updated, err = s.UpdateIdeaHumanReview(ctx, idea.ID, "Aprovar piloto")
	require.NoError(t, err)
	assert.Equal(t, "Aprovar piloto", updated.HumanReview)

	updated, err = s.UpdateIdeaStatus(ctx, idea.ID, intake.StatusApproved)
	require.NoError(t, err)
	assert.Equal(t, intake.StatusApproved, updated.Status)

	n, err := s.CountIdeas(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	require.NoError(t, s.DeleteIdea(ctx, idea.ID))
	_, err = s.GetIdea(ctx, idea.ID)
	assert.ErrorIs(t, err, apperrors.ErrIdeaNotFound)
}

func TestIdeaNotFound(t *testing.T) {
	ctx := context.Background()
	s := setupStore(t)

	_, err := s.GetIdea(ctx, "missing")
	assert.ErrorIs(t, err, apperrors.ErrIdeaNotFound)
	assert.ErrorIs(t, s.UpdateIdea(ctx, &intake.Idea{ID: "missing", ExperimentName: "x"}), apperrors.ErrIdeaNotFound)
	_, err = s.UpdateIdeaStatus(ctx, "missing", intake.StatusClosed)
	assert.ErrorIs(t, err, apperrors.ErrIdeaNotFound)
	assert.ErrorIs(t, s.DeleteIdea(ctx, "missing"), apperrors.ErrIdeaNotFound)
}

func TestListIdeasFiltersAndOrder(t *testing.T) {
	ctx := context.Background()
	s := setupStore(t)

	for _, idea := range []*intake.Idea{
		{ExperimentName: "Chatbot de atendimento", Category: intake.CategoryCustomerService},
		{ExperimentName: "Painel de riscos", Category: intake.CategoryRisk},
		{ExperimentName: "Chatbot interno", Category: intake.CategoryPeople, Status: intake.StatusApproved},
	} {
		require.NoError(t, s.CreateIdea(ctx, idea))
	}

	all, err := s.ListIdeas(ctx, intake.IdeaFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"id-001", "id-002", "id-003"}, []string{all[0].ID, all[1].ID, all[2].ID})

	byName, err := s.ListIdeas(ctx, intake.IdeaFilter{NameContains: "CHATBOT"})
	require.NoError(t, err)
	assert.Len(t, byName, 2)

	byStatus, err := s.ListIdeas(ctx, intake.IdeaFilter{NameContains: "chatbot", Status: intake.StatusApproved})
	require.NoError(t, err)
	require.Len(t, byStatus, 1)
	assert.Equal(t, "Chatbot interno", byStatus[0].ExperimentName)

	byCategory, err := s.ListIdeas(ctx, intake.IdeaFilter{Category: intake.CategoryRisk})
	require.NoError(t, err)
	require.Len(t, byCategory, 1)
	assert.Equal(t, "id-002", byCategory[0].ID)

	none, err := s.ListIdeas(ctx, intake.IdeaFilter{Category: intake.CategoryHousing})
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func newProblem(email string) *intake.Problem {
	return &intake.Problem{
		ReporterName: "Ana",
		ReporterID:   "c000111",
		Unit:         "Agência Norte",
		Email:        email,
		Description:  "Fila longa no caixa",
		Process:      "Atendimento presencial",
		Category:     intake.CategoryCustomerService,
	}
}

func TestProblemLifecycle(t *testing.T) {
	ctx := context.Background()
	s := setupStore(t)

	impact := 1500.50
	people := 40
	p := newProblem("ana@example.com")
	p.FinancialImpact = &impact
	p.PeopleImpact = &people
	require.NoError(t, s.CreateProblem(ctx, p))

	got, err := s.GetProblem(ctx, p.ID)
	require.NoError(t, err)
	require.NotNil(t, got.FinancialImpact)
	assert.InDelta(t, 1500.50, *got.FinancialImpact, 0.001)
	require.NotNil(t, got.PeopleImpact)
	assert.Equal(t, 40, *got.PeopleImpact)
	assert.Nil(t, got.MatchingScore)
	assert.Equal(t, intake.StatusOpen, got.Status)

	got.Description = "Fila longa no caixa eletrônico"
	got.FinancialImpact = nil
	require.NoError(t, s.UpdateProblem(ctx, got))

	scored, err := s.UpdateMatchingScore(ctx, p.ID, 0.82)
	require.NoError(t, err)
	require.NotNil(t, scored.MatchingScore)
	assert.InDelta(t, 0.82, *scored.MatchingScore, 1e-9)
	assert.Nil(t, scored.FinancialImpact)
	assert.Equal(t, "Fila longa no caixa eletrônico", scored.Description)

	resolved, err := s.UpdateProblemStatus(ctx, p.ID, intake.StatusResolved)
	require.NoError(t, err)
	assert.Equal(t, intake.StatusResolved, resolved.Status)
	assert.NotNil(t, resolved.MatchingScore, "status updates keep the score")

	require.NoError(t, s.DeleteProblem(ctx, p.ID))
	_, err = s.GetProblem(ctx, p.ID)
	assert.ErrorIs(t, err, apperrors.ErrProblemNotFound)
	assert.ErrorIs(t, s.DeleteProblem(ctx, p.ID), apperrors.ErrProblemNotFound)
}

func TestListProblems(t *testing.T) {
	ctx := context.Background()
	s := setupStore(t)

	a := newProblem("ana@example.com")
	b := newProblem("bruno@example.com")
	b.Category = intake.CategoryTechnology
	c := newProblem("Ana@Example.com")
	c.Status = intake.StatusClosed
	for _, p := range []*intake.Problem{a, b, c} {
		require.NoError(t, s.CreateProblem(ctx, p))
	}

	byEmail, err := s.ListProblems(ctx, intake.ProblemFilter{Email: "ana@example.com"})
	require.NoError(t, err)
	assert.Len(t, byEmail, 2)

	open, err := s.ListProblems(ctx, intake.ProblemFilter{Status: intake.StatusOpen})
	require.NoError(t, err)
	assert.Len(t, open, 2)

	tech, err := s.ListProblems(ctx, intake.ProblemFilter{Category: intake.CategoryTechnology})
	require.NoError(t, err)
	require.Len(t, tech, 1)
	assert.Equal(t, b.ID, tech[0].ID)
}

func TestListByMatchingScore(t *testing.T) {
	ctx := context.Background()
	s := setupStore(t)

	var ids []string
	for i := 0; i < 4; i++ {
		p := newProblem(fmt.Sprintf("p%d@example.com", i))
		require.NoError(t, s.CreateProblem(ctx, p))
		ids = append(ids, p.ID)
	}
	for id, score := range map[string]float64{ids[0]: 0.4, ids[1]: 0.9, ids[3]: 0.4} {
		_, err := s.UpdateMatchingScore(ctx, id, score)
		require.NoError(t, err)
	}

	ranked, err := s.ListByMatchingScore(ctx)
	require.NoError(t, err)
	got := make([]string, 0, len(ranked))
	for _, p := range ranked {
		got = append(got, p.ID)
	}
	assert.Equal(t, []string{ids[1], ids[0], ids[3]}, got)
}
