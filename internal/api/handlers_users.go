package api

import (
	"log/slog"
	"net/http"

	"github.com/hyperengineering/okrpulse/internal/types"
	"github.com/hyperengineering/okrpulse/internal/validation"
)

// UpsertUser handles POST /api/v1/users
func (h *Handler) UpsertUser(w http.ResponseWriter, r *http.Request) {
	var req types.UpsertUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if errs := validation.ValidateUpsertUser(req); len(errs) > 0 {
		WriteProblemWithErrors(w, r, "Request contains invalid fields", errs)
		return
	}

	u, err := h.store.UpsertUser(r.Context(), req)
	if err != nil {
		slog.Error("upsert user failed", "component", "api", "error", err)
		MapStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// Me handles GET /api/v1/me
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, MustUserFromContext(r.Context()))
}

// Setup handles POST /api/v1/me/setup
func (h *Handler) Setup(w http.ResponseWriter, r *http.Request) {
	user := MustUserFromContext(r.Context())

	var req types.SetupRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if errs := validation.ValidateSetup(req); len(errs) > 0 {
		WriteProblemWithErrors(w, r, "Request contains invalid fields", errs)
		return
	}

	u, err := h.store.SetupUser(r.Context(), user.ID, req.Role, req.DepartmentID)
	if err != nil {
		MapStoreError(w, r, err)
		return
	}
	slog.Info("user setup completed",
		"component", "api",
		"user_id", u.ID,
		"role", u.Role,
		"department_id", u.DepartmentID,
	)
	writeJSON(w, http.StatusOK, u)
}
