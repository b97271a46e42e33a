package api

import (
	"net/http"

	"github.com/hyperengineering/okrpulse/internal/types"
	"github.com/hyperengineering/okrpulse/internal/validation"
)

// GetDraft handles GET /api/v1/drafts
func (h *Handler) GetDraft(w http.ResponseWriter, r *http.Request) {
	user := MustUserFromContext(r.Context())
	d, err := h.store.GetDraft(r.Context(), user.ID)
	if err != nil {
		MapStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// SaveDraft handles PUT /api/v1/drafts
func (h *Handler) SaveDraft(w http.ResponseWriter, r *http.Request) {
	user := MustUserFromContext(r.Context())

	var req types.DraftRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if errs := validation.ValidateDraft(req); len(errs) > 0 {
		WriteProblemWithErrors(w, r, "Request contains invalid fields", errs)
		return
	}

	d, err := h.store.SaveDraft(r.Context(), user.ID, req)
	if err != nil {
		MapStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// DeleteDraft handles DELETE /api/v1/drafts
func (h *Handler) DeleteDraft(w http.ResponseWriter, r *http.Request) {
	user := MustUserFromContext(r.Context())
	if err := h.store.DeleteDraft(r.Context(), user.ID); err != nil {
		MapStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
