package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/idea-intake-platform/internal/intake"
	"github.com/Adithya-Monish-Kumar-K/idea-intake-platform/internal/intake/validator"
	apperrors "github.com/Adithya-Monish-Kumar-K/idea-intake-platform/pkg/errors"
)

const entityProblem = "problem"

func (h *Handler) ListProblems(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := intake.ProblemFilter{Email: strings.TrimSpace(q.Get("email"))}
	if raw := q.Get("status"); raw != "" {
		st, err := intake.ParseStatus(raw)
		if err != nil {
			h.fail(w, r, "list problems", err)
			return
		}
		filter.Status = st
	}
	if raw := q.Get("category"); raw != "" {
		cat, err := intake.ParseCategory(raw)
		if err != nil {
			h.fail(w, r, "list problems", err)
			return
		}
		filter.Category = cat
	}
	problems, err := h.store.ListProblems(r.Context(), filter)
	if err != nil {
		h.fail(w, r, "list problems", err)
		return
	}
	h.writeJSON(w, http.StatusOK, problems)
}

func (h *Handler) ListByMatchingScore(w http.ResponseWriter, r *http.Request) {
	problems, err := h.store.ListByMatchingScore(r.Context())
	if err != nil {
		h.fail(w, r, "list problems by matching score", err)
		return
	}
	h.writeJSON(w, http.StatusOK, problems)
}

func (h *Handler) CreateProblem(w http.ResponseWriter, r *http.Request) {
	var req intake.ProblemRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := validator.ValidateProblemRequest(&req); err != nil {
		h.fail(w, r, "create problem", err)
		return
	}
	p := &intake.Problem{}
	applyProblemRequest(p, &req)
	if err := h.store.CreateProblem(r.Context(), p); err != nil {
		h.fail(w, r, "create problem", err)
		return
	}
	h.recordWrite(r.Context(), entityProblem, "create", p.ID)
	h.writeJSON(w, http.StatusCreated, p)
}

func (h *Handler) GetProblem(w http.ResponseWriter, r *http.Request) {
	p, err := h.store.GetProblem(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, "get problem", err)
		return
	}
	h.writeJSON(w, http.StatusOK, p)
}

// UpdateProblem replaces the editable fields. The matching score and the
// creation time are kept, and a blank status leaves the current one.
func (h *Handler) UpdateProblem(w http.ResponseWriter, r *http.Request) {
	var req intake.ProblemRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := validator.ValidateProblemRequest(&req); err != nil {
		h.fail(w, r, "update problem", err)
		return
	}
	p, err := h.store.GetProblem(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, "update problem", err)
		return
	}
	applyProblemRequest(p, &req)
	if err := h.store.UpdateProblem(r.Context(), p); err != nil {
		h.fail(w, r, "update problem", err)
		return
	}
	h.recordWrite(r.Context(), entityProblem, "update", p.ID)
	h.writeJSON(w, http.StatusOK, p)
}

func (h *Handler) UpdateProblemStatus(w http.ResponseWriter, r *http.Request) {
	status, err := intake.ParseStatus(r.URL.Query().Get("status"))
	if err != nil {
		h.fail(w, r, "update problem status", err)
		return
	}
	p, err := h.store.UpdateProblemStatus(r.Context(), r.PathValue("id"), status)
	if err != nil {
		h.fail(w, r, "update problem status", err)
		return
	}
	h.recordWrite(r.Context(), entityProblem, "status", p.ID)
	h.writeJSON(w, http.StatusOK, p)
}

// UpdateMatchingScore stores a score computed outside this service.
func (h *Handler) UpdateMatchingScore(w http.ResponseWriter, r *http.Request) {
	score, err := strconv.ParseFloat(r.URL.Query().Get("score"), 64)
	if err != nil {
		h.fail(w, r, "update matching score", apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, "score must be a number"))
		return
	}
	if err := validator.ValidateMatchingScore(score); err != nil {
		h.fail(w, r, "update matching score", err)
		return
	}
	p, err := h.store.UpdateMatchingScore(r.Context(), r.PathValue("id"), score)
	if err != nil {
		h.fail(w, r, "update matching score", err)
		return
	}
	h.recordWrite(r.Context(), entityProblem, "matching_score", p.ID)
	h.writeJSON(w, http.StatusOK, p)
}

func (h *Handler) DeleteProblem(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.store.DeleteProblem(r.Context(), id); err != nil {
		h.fail(w, r, "delete problem", err)
		return
	}
	h.recordWrite(r.Context(), entityProblem, "delete", id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) RelatedIdeas(w http.ResponseWriter, r *http.Request) {
	resp, err := h.matcher.RelatedIdeasForProblem(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, "related ideas", err)
		return
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func applyProblemRequest(p *intake.Problem, req *intake.ProblemRequest) {
	p.ReporterName = strings.TrimSpace(req.ReporterName)
	p.ReporterID = strings.TrimSpace(req.ReporterID)
	p.Unit = strings.TrimSpace(req.Unit)
	p.Email = strings.TrimSpace(req.Email)
	p.Description = req.Description
	p.Process = req.Process
	p.Category, _ = intake.ParseCategory(req.Category)
	p.FinancialImpact = req.FinancialImpact
	p.PeopleImpact = req.PeopleImpact
	p.ExpectedSolution = req.ExpectedSolution
	if strings.TrimSpace(req.Status) != "" {
		p.Status, _ = intake.ParseStatus(req.Status)
	}
}
