package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/hyperengineering/okrpulse/internal/drafting"
	"github.com/hyperengineering/okrpulse/internal/types"
	"github.com/hyperengineering/okrpulse/internal/validation"
)

// GenerateObjective handles POST /api/v1/ai/objective
func (h *Handler) GenerateObjective(w http.ResponseWriter, r *http.Request) {
	if !h.allowDraft(w, r, "generate_objective") {
		return
	}
	var req types.GenerateObjectiveRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if errs := validation.ValidateGenerateObjective(req); len(errs) > 0 {
		WriteProblemWithErrors(w, r, "Request contains invalid fields", errs)
		return
	}
	resp, err := h.drafter.GenerateObjective(r.Context(), req)
	h.writeDraft(w, r, "generate_objective", resp, err)
}

// GenerateKeyResults handles POST /api/v1/ai/key-results
func (h *Handler) GenerateKeyResults(w http.ResponseWriter, r *http.Request) {
	if !h.allowDraft(w, r, "generate_key_results") {
		return
	}
	var req types.GenerateKeyResultsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if errs := validation.ValidateGenerateKeyResults(req); len(errs) > 0 {
		WriteProblemWithErrors(w, r, "Request contains invalid fields", errs)
		return
	}
	resp, err := h.drafter.GenerateKeyResults(r.Context(), req)
	h.writeDraft(w, r, "generate_key_results", resp, err)
}

// OptimizeObjective handles POST /api/v1/ai/objective/optimize
func (h *Handler) OptimizeObjective(w http.ResponseWriter, r *http.Request) {
	if !h.allowDraft(w, r, "optimize_objective") {
		return
	}
	var req types.OptimizeObjectiveRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if errs := validation.ValidateOptimizeObjective(req); len(errs) > 0 {
		WriteProblemWithErrors(w, r, "Request contains invalid fields", errs)
		return
	}
	resp, err := h.drafter.OptimizeObjective(r.Context(), req)
	h.writeDraft(w, r, "optimize_objective", resp, err)
}

// OptimizeKeyResults handles POST /api/v1/ai/key-results/optimize
func (h *Handler) OptimizeKeyResults(w http.ResponseWriter, r *http.Request) {
	if !h.allowDraft(w, r, "optimize_key_results") {
		return
	}
	var req types.OptimizeKeyResultsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if errs := validation.ValidateOptimizeKeyResults(req); len(errs) > 0 {
		WriteProblemWithErrors(w, r, "Request contains invalid fields", errs)
		return
	}
	resp, err := h.drafter.OptimizeKeyResults(r.Context(), req)
	h.writeDraft(w, r, "optimize_key_results", resp, err)
}

// allowDraft applies the per-user drafting budget, writing 429 when exhausted.
func (h *Handler) allowDraft(w http.ResponseWriter, r *http.Request, endpoint string) bool {
	user := MustUserFromContext(r.Context())
	if h.limiter.Allow("user:" + user.ID) {
		return true
	}
	h.metrics.DraftRequest(endpoint, "rate_limited")
	w.Header().Set("Retry-After", "60")
	WriteProblem(w, r, http.StatusTooManyRequests, "Drafting rate limit exceeded, try again later")
	return false
}

// writeDraft counts the outcome and writes the drafting result or its problem.
func (h *Handler) writeDraft(w http.ResponseWriter, r *http.Request, endpoint string, resp *types.DraftingResponse, err error) {
	if err != nil {
		outcome := "error"
		if errors.Is(err, drafting.ErrUnavailable) {
			outcome = "unavailable"
		} else {
			slog.Warn("drafting request failed",
				"component", "api",
				"endpoint", endpoint,
				"error", err,
			)
		}
		h.metrics.DraftRequest(endpoint, outcome)
		MapStoreError(w, r, err)
		return
	}

	outcome := "ok"
	if resp.Feedback != "" {
		outcome = "feedback"
	}
	h.metrics.DraftRequest(endpoint, outcome)
	writeJSON(w, http.StatusOK, resp)
}
