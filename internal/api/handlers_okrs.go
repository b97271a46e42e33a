package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hyperengineering/okrpulse/internal/progress"
	"github.com/hyperengineering/okrpulse/internal/types"
	"github.com/hyperengineering/okrpulse/internal/validation"
)

// ListOKRs handles GET /api/v1/okrs
func (h *Handler) ListOKRs(w http.ResponseWriter, r *http.Request) {
	user := MustUserFromContext(r.Context())
	p, ok := h.periodParam(w, r)
	if !ok {
		return
	}
	objs, err := h.store.ListObjectives(r.Context(), user.ID, p)
	if err != nil {
		MapStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, objectiveViews(objs))
}

// SubmitOKRs handles POST /api/v1/okrs
func (h *Handler) SubmitOKRs(w http.ResponseWriter, r *http.Request) {
	user := MustUserFromContext(r.Context())

	var req types.SubmitObjectivesRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if errs := validation.ValidateSubmitObjectives(req, h.minObjectives); len(errs) > 0 {
		WriteProblemWithErrors(w, r, "Request contains invalid fields", errs)
		return
	}

	objs, err := h.store.SubmitObjectives(r.Context(), user.ID, req.Period, req.OKRs)
	if err != nil {
		slog.Error("submit objectives failed", "component", "api", "user_id", user.ID, "error", err)
		MapStoreError(w, r, err)
		return
	}
	slog.Info("objectives submitted",
		"component", "api",
		"user_id", user.ID,
		"period", req.Period,
		"count", len(objs),
	)
	writeJSON(w, http.StatusCreated, objectiveViews(objs))
}

// GetOKR handles GET /api/v1/okrs/{id}
func (h *Handler) GetOKR(w http.ResponseWriter, r *http.Request) {
	obj, err := h.store.GetObjective(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		MapStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, objectiveView(*obj))
}

// ArchiveOKR handles DELETE /api/v1/okrs/{id}
func (h *Handler) ArchiveOKR(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.ownedObjective(w, r); !ok {
		return
	}
	id := chi.URLParam(r, "id")
	if err := h.store.ArchiveObjective(r.Context(), id, h.minObjectives); err != nil {
		MapStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CheckIn handles POST /api/v1/okrs/{id}/check-ins.
// An omitted week_number means the current week of the objective's period.
func (h *Handler) CheckIn(w http.ResponseWriter, r *http.Request) {
	obj, ok := h.ownedObjective(w, r)
	if !ok {
		return
	}

	var req types.CheckInRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if errs := validation.ValidateCheckInRequest(req); len(errs) > 0 {
		WriteProblemWithErrors(w, r, "Request contains invalid fields", errs)
		return
	}

	in := progress.CheckInInput{
		Values:     req.Values,
		Confidence: req.Confidence,
		Notes:      req.Notes,
		Date:       h.now(),
	}
	if req.WeekNumber != nil {
		in.WeekNumber = *req.WeekNumber
	}

	updated, ci, err := h.store.RecordCheckIn(r.Context(), obj.ID, in)
	if err != nil {
		MapStoreError(w, r, err)
		return
	}
	h.metrics.CheckInRecorded(string(ci.Confidence))
	slog.Info("check-in recorded",
		"component", "api",
		"objective_id", obj.ID,
		"week_number", ci.WeekNumber,
		"overall_progress", ci.OverallProgress,
	)
	writeJSON(w, http.StatusOK, types.CheckInResponse{
		Objective: objectiveView(*updated),
		CheckIn:   *ci,
	})
}

// Trend handles GET /api/v1/okrs/{id}/trend
func (h *Handler) Trend(w http.ResponseWriter, r *http.Request) {
	obj, err := h.store.GetObjective(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		MapStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, types.TrendResponse{
		ObjectiveID:      obj.ID,
		ObjectiveSummary: progress.Summarize(*obj),
	})
}

// ownedObjective loads the {id} objective and rejects users who do not own it.
func (h *Handler) ownedObjective(w http.ResponseWriter, r *http.Request) (*types.Objective, bool) {
	user := MustUserFromContext(r.Context())
	obj, err := h.store.GetObjective(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		MapStoreError(w, r, err)
		return nil, false
	}
	if obj.UserID != user.ID {
		WriteProblem(w, r, http.StatusForbidden, "Objective belongs to another user")
		return nil, false
	}
	return obj, true
}
