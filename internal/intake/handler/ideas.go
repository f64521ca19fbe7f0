package handler

import (
	"net/http"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/idea-intake-platform/internal/intake"
	"github.com/Adithya-Monish-Kumar-K/idea-intake-platform/internal/intake/validator"
)

const entityIdea = "idea"

func (h *Handler) ListIdeas(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := intake.IdeaFilter{NameContains: strings.TrimSpace(q.Get("name"))}
	if raw := q.Get("status"); raw != "" {
		st, err := intake.ParseStatus(raw)
		if err != nil {
			h.fail(w, r, "list ideas", err)
			return
		}
		filter.Status = st
	}
	if raw := q.Get("category"); raw != "" {
		cat, err := intake.ParseCategory(raw)
		if err != nil {
			h.fail(w, r, "list ideas", err)
			return
		}
		filter.Category = cat
	}
	ideas, err := h.store.ListIdeas(r.Context(), filter)
	if err != nil {
		h.fail(w, r, "list ideas", err)
		return
	}
	h.writeJSON(w, http.StatusOK, ideas)
}

func (h *Handler) CreateIdea(w http.ResponseWriter, r *http.Request) {
	var req intake.IdeaRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := validator.ValidateIdeaRequest(&req); err != nil {
		h.fail(w, r, "create idea", err)
		return
	}
	idea := &intake.Idea{}
	applyIdeaRequest(idea, &req)
	if err := h.store.CreateIdea(r.Context(), idea); err != nil {
		h.fail(w, r, "create idea", err)
		return
	}
	h.recordWrite(r.Context(), entityIdea, "create", idea.ID)
	h.writeJSON(w, http.StatusCreated, idea)
}

func (h *Handler) GetIdea(w http.ResponseWriter, r *http.Request) {
	idea, err := h.store.GetIdea(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, "get idea", err)
		return
	}
	h.writeJSON(w, http.StatusOK, idea)
}

// UpdateIdea replaces the editable fields. Reviews and creation time are
// kept, and a blank status leaves the current one.
func (h *Handler) UpdateIdea(w http.ResponseWriter, r *http.Request) {
	var req intake.IdeaRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := validator.ValidateIdeaRequest(&req); err != nil {
		h.fail(w, r, "update idea", err)
		return
	}
	idea, err := h.store.GetIdea(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, "update idea", err)
		return
	}
	applyIdeaRequest(idea, &req)
	if err := h.store.UpdateIdea(r.Context(), idea); err != nil {
		h.fail(w, r, "update idea", err)
		return
	}
	h.recordWrite(r.Context(), entityIdea, "update", idea.ID)
	h.writeJSON(w, http.StatusOK, idea)
}

func (h *Handler) UpdateIdeaStatus(w http.ResponseWriter, r *http.Request) {
	status, err := intake.ParseStatus(r.URL.Query().Get("status"))
	if err != nil {
		h.fail(w, r, "update idea status", err)
		return
	}
	idea, err := h.store.UpdateIdeaStatus(r.Context(), r.PathValue("id"), status)
	if err != nil {
		h.fail(w, r, "update idea status", err)
		return
	}
	h.recordWrite(r.Context(), entityIdea, "status", idea.ID)
	h.writeJSON(w, http.StatusOK, idea)
}

func (h *Handler) UpdateIdeaAIReview(w http.ResponseWriter, r *http.Request) {
	review, ok := h.rawBody(w, r)
	if !ok {
		return
	}
	idea, err := h.store.UpdateIdeaAIReview(r.Context(), r.PathValue("id"), review)
	if err != nil {
		h.fail(w, r, "update ai review", err)
		return
	}
	h.recordWrite(r.Context(), entityIdea, "ai_review", idea.ID)
	h.writeJSON(w, http.StatusOK, idea)
}

func (h *Handler) UpdateIdeaHumanReview(w http.ResponseWriter, r *http.Request) {
	review, ok := h.rawBody(w, r)
	if !ok {
		return
	}
	idea, err := h.store.UpdateIdeaHumanReview(r.Context(), r.PathValue("id"), review)
	if err != nil {
		h.fail(w, r, "update human review", err)
		return
	}
	h.recordWrite(r.Context(), entityIdea, "human_review", idea.ID)
	h.writeJSON(w, http.StatusOK, idea)
}

func (h *Handler) DeleteIdea(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.store.DeleteIdea(r.Context(), id); err != nil {
		h.fail(w, r, "delete idea", err)
		return
	}
	h.recordWrite(r.Context(), entityIdea, "delete", id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) SimilarIdeas(w http.ResponseWriter, r *http.Request) {
	resp, err := h.matcher.SimilarIdeas(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, "similar ideas", err)
		return
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// SimilarIdeasFromText ranks ideas against ?q. A blank query is answered
// with an empty result, not an error.
func (h *Handler) SimilarIdeasFromText(w http.ResponseWriter, r *http.Request) {
	resp, err := h.matcher.SimilarIdeasFromText(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		h.fail(w, r, "similar ideas from text", err)
		return
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// applyIdeaRequest copies a validated request onto idea.
func applyIdeaRequest(idea *intake.Idea, req *intake.IdeaRequest) {
	idea.ProponentName = strings.TrimSpace(req.ProponentName)
	idea.ProponentID = strings.TrimSpace(req.ProponentID)
	idea.ProponentUnit = strings.TrimSpace(req.ProponentUnit)
	idea.ExperimentName = strings.TrimSpace(req.ExperimentName)
	idea.Team = req.Team
	idea.Challenge = req.Challenge
	idea.Solution = req.Solution
	idea.Methodology = req.Methodology
	idea.Hypothesis = req.Hypothesis
	idea.Baseline = req.Baseline
	idea.ExpectedResults = req.ExpectedResults
	idea.KPIs = req.KPIs
	idea.Horizon, _ = intake.ParseHorizon(req.Horizon)
	idea.Category = ""
	if strings.TrimSpace(req.Category) != "" {
		idea.Category, _ = intake.ParseCategory(req.Category)
	}
	if strings.TrimSpace(req.Status) != "" {
		idea.Status, _ = intake.ParseStatus(req.Status)
	}
}
