package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/hyperengineering/okrpulse/internal/drafting"
	"github.com/hyperengineering/okrpulse/internal/metrics"
	"github.com/hyperengineering/okrpulse/internal/period"
	"github.com/hyperengineering/okrpulse/internal/progress"
	"github.com/hyperengineering/okrpulse/internal/store"
	"github.com/hyperengineering/okrpulse/internal/types"
	"github.com/hyperengineering/okrpulse/internal/validation"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// Options configures a Handler.
type Options struct {
	APIKey        string
	Version       string
	MinObjectives int
	Metrics       *metrics.Metrics
	RateLimit     RateLimitConfig
}

// Handler implements the API handlers.
type Handler struct {
	store         store.Store
	drafter       drafting.Drafter
	metrics       *metrics.Metrics
	limiter       *RateLimiter
	apiKey        string
	version       string
	minObjectives int
	now           func() time.Time
}

// NewHandler creates a Handler. A nil drafter disables the AI endpoints.
func NewHandler(s store.Store, d drafting.Drafter, opts Options) *Handler {
	if d == nil {
		d = drafting.NoopDrafter{}
	}
	minObjectives := opts.MinObjectives
	if minObjectives < 1 {
		minObjectives = 3
	}
	return &Handler{
		store:         s,
		drafter:       d,
		metrics:       opts.Metrics,
		limiter:       NewRateLimiter(opts.RateLimit),
		apiKey:        opts.APIKey,
		version:       opts.Version,
		minObjectives: minObjectives,
		now:           time.Now,
	}
}

// Health returns the health status
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.GetStats(r.Context())
	if err != nil {
		slog.Error("health stats failed", "component", "api", "error", err)
		WriteProblem(w, r, http.StatusServiceUnavailable, "Store unavailable")
		return
	}

	writeJSON(w, http.StatusOK, types.HealthResponse{
		Status:         "healthy",
		Version:        h.version,
		DraftingModel:  h.drafter.ModelName(),
		ObjectiveCount: stats.ObjectiveCount,
		CheckInCount:   stats.CheckInCount,
		LastBackup:     stats.LastBackup,
	})
}

// Periods handles GET /api/v1/periods
func (h *Handler) Periods(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, period.Available(h.now()))
}

// decodeJSON reads the body into v, writing a 400 problem on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		WriteProblem(w, r, http.StatusBadRequest, fmt.Sprintf("Invalid JSON: %s", err.Error()))
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "component", "api", "error", err)
	}
}

// periodParam reads ?period=, defaulting to the current period.
func (h *Handler) periodParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	p := r.URL.Query().Get("period")
	if p == "" {
		return period.Current(h.now()).String(), true
	}
	if err := validation.ValidatePeriod("period", p); err != nil {
		WriteProblemWithErrors(w, r, "Request contains invalid fields", []validation.ValidationError{*err})
		return "", false
	}
	return p, true
}

func objectiveView(obj types.Objective) types.ObjectiveView {
	return types.ObjectiveView{Objective: obj, Summary: progress.Summarize(obj)}
}

func objectiveViews(objs []types.Objective) []types.ObjectiveView {
	views := make([]types.ObjectiveView, 0, len(objs))
	for _, o := range objs {
		views = append(views, objectiveView(o))
	}
	return views
}
