// Package handler exposes the intake REST API: CRUD for ideas and problems,
// similarity lookups and cache administration.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/Adithya-Monish-Kumar-K/idea-intake-platform/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/idea-intake-platform/internal/intake"
	"github.com/Adithya-Monish-Kumar-K/idea-intake-platform/internal/intake/cache"
	"github.com/Adithya-Monish-Kumar-K/idea-intake-platform/internal/intake/validator"
	apperrors "github.com/Adithya-Monish-Kumar-K/idea-intake-platform/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/idea-intake-platform/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/idea-intake-platform/pkg/metrics"
)

const maxBodyBytes = 1 << 20

// Store is the persistence the API needs. *store.Store satisfies it.
type Store interface {
	CreateIdea(ctx context.Context, idea *intake.Idea) error
	GetIdea(ctx context.Context, id string) (*intake.Idea, error)
	ListIdeas(ctx context.Context, filter intake.IdeaFilter) ([]intake.Idea, error)
	UpdateIdea(ctx context.Context, idea *intake.Idea) error
	UpdateIdeaStatus(ctx context.Context, id string, status intake.Status) (*intake.Idea, error)
	UpdateIdeaAIReview(ctx context.Context, id, review string) (*intake.Idea, error)
	UpdateIdeaHumanReview(ctx context.Context, id, review string) (*intake.Idea, error)
	DeleteIdea(ctx context.Context, id string) error

	CreateProblem(ctx context.Context, p *intake.Problem) error
	GetProblem(ctx context.Context, id string) (*intake.Problem, error)
	ListProblems(ctx context.Context, filter intake.ProblemFilter) ([]intake.Problem, error)
	ListByMatchingScore(ctx context.Context) ([]intake.Problem, error)
	UpdateProblem(ctx context.Context, p *intake.Problem) error
	UpdateProblemStatus(ctx context.Context, id string, status intake.Status) (*intake.Problem, error)
	UpdateMatchingScore(ctx context.Context, id string, score float64) (*intake.Problem, error)
	DeleteProblem(ctx context.Context, id string) error
}

// Matcher answers similarity lookups. *matcher.Matcher satisfies it.
type Matcher interface {
	SimilarIdeas(ctx context.Context, id string) (*intake.SimilarIdeasResponse, error)
	SimilarIdeasFromText(ctx context.Context, text string) (*intake.SimilarIdeasResponse, error)
	RelatedIdeasForProblem(ctx context.Context, problemID string) (*intake.ProblemWithIdeasResponse, error)
}

type Tracker interface {
	Track(e analytics.Event)
}

type Handler struct {
	store   Store
	matcher Matcher
	cache   *cache.Cache
	tracker Tracker
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// New builds the API handler. queryCache, tracker and m may be nil.
func New(s Store, mt Matcher, queryCache *cache.Cache, tracker Tracker, m *metrics.Metrics) *Handler {
	return &Handler{
		store:   s,
		matcher: mt,
		cache:   queryCache,
		tracker: tracker,
		metrics: m,
		logger:  slog.Default().With("component", "intake-handler"),
	}
}

// RegisterRoutes mounts every API route on mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/ideas", h.ListIdeas)
	mux.HandleFunc("POST /api/v1/ideas", h.CreateIdea)
	mux.HandleFunc("GET /api/v1/ideas/similar", h.SimilarIdeasFromText)
	mux.HandleFunc("GET /api/v1/ideas/{id}", h.GetIdea)
	mux.HandleFunc("PUT /api/v1/ideas/{id}", h.UpdateIdea)
	mux.HandleFunc("DELETE /api/v1/ideas/{id}", h.DeleteIdea)
	mux.HandleFunc("PUT /api/v1/ideas/{id}/status", h.UpdateIdeaStatus)
	mux.HandleFunc("PUT /api/v1/ideas/{id}/ai-review", h.UpdateIdeaAIReview)
	mux.HandleFunc("PUT /api/v1/ideas/{id}/human-review", h.UpdateIdeaHumanReview)
	mux.HandleFunc("GET /api/v1/ideas/{id}/similar", h.SimilarIdeas)

	mux.HandleFunc("GET /api/v1/problems", h.ListProblems)
	mux.HandleFunc("POST /api/v1/problems", h.CreateProblem)
	mux.HandleFunc("GET /api/v1/problems/matching-score", h.ListByMatchingScore)
	mux.HandleFunc("GET /api/v1/problems/{id}", h.GetProblem)
	mux.HandleFunc("PUT /api/v1/problems/{id}", h.UpdateProblem)
	mux.HandleFunc("DELETE /api/v1/problems/{id}", h.DeleteProblem)
	mux.HandleFunc("PUT /api/v1/problems/{id}/status", h.UpdateProblemStatus)
	mux.HandleFunc("PUT /api/v1/problems/{id}/matching-score", h.UpdateMatchingScore)
	mux.HandleFunc("GET /api/v1/problems/{id}/related-ideas", h.RelatedIdeas)

	mux.HandleFunc("GET /api/v1/cache/stats", h.CacheStats)
	mux.HandleFunc("POST /api/v1/cache/invalidate", h.CacheInvalidate)
}

func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.cache.Stats())
}

func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeError(w, http.StatusServiceUnavailable, "caching is disabled")
		return
	}
	deleted, err := h.cache.Invalidate(r.Context())
	if err != nil {
		logger.FromContext(r.Context()).Error("cache invalidation failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "cache invalidation failed")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"status": "invalidated", "keys_deleted": deleted})
}

// recordWrite runs after every successful mutation.
func (h *Handler) recordWrite(ctx context.Context, entity, operation, id string) {
	if _, err := h.cache.Invalidate(ctx); err != nil {
		logger.FromContext(ctx).Warn("similarity cache not invalidated", "error", err)
	}
	if h.metrics != nil {
		h.metrics.RecordWritesTotal.WithLabelValues(entity, operation).Inc()
	}
	if h.tracker != nil {
		h.tracker.Track(analytics.RecordEvent{
			Entity:    entity,
			Operation: operation,
			ID:        id,
			RequestID: logger.RequestID(ctx),
			Timestamp: time.Now().UTC(),
		})
	}
	logger.FromContext(ctx).Info("record written", "entity", entity, "operation", operation, "id", id)
}

// decode reads a JSON body, answering 400 itself when the body is unusable.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

// rawBody reads a plain-text body such as a review.
func (h *Handler) rawBody(w http.ResponseWriter, r *http.Request) (string, bool) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "unreadable request body")
		return "", false
	}
	return string(data), true
}

// fail maps err onto a status code and writes it.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	var validationErr *validator.ValidationError
	if errors.As(err, &validationErr) {
		h.writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":  "validation failed",
			"fields": validationErr.Fields,
		})
		return
	}

	status := apperrors.HTTPStatusCode(err)
	log := logger.FromContext(r.Context())
	switch {
	case status == http.StatusNotFound:
		msg := apperrors.ErrIdeaNotFound.Error()
		if errors.Is(err, apperrors.ErrProblemNotFound) {
			msg = apperrors.ErrProblemNotFound.Error()
		}
		h.writeError(w, status, msg)
	case status < http.StatusInternalServerError:
		h.writeError(w, status, err.Error())
	default:
		log.Error(op+" failed", "error", err, "status_code", status)
		h.writeError(w, status, op+" failed")
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
