package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/hyperengineering/okrpulse/internal/progress"
	"github.com/hyperengineering/okrpulse/internal/store"
	"github.com/hyperengineering/okrpulse/internal/types"
	"github.com/hyperengineering/okrpulse/internal/validation"
)

// overviewConcurrency bounds the rollups computed at once for the overview.
const overviewConcurrency = 4

// ListDepartments handles GET /api/v1/departments
func (h *Handler) ListDepartments(w http.ResponseWriter, r *http.Request) {
	depts, err := h.store.ListDepartments(r.Context())
	if err != nil {
		MapStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, depts)
}

// CreateDepartment handles POST /api/v1/departments
func (h *Handler) CreateDepartment(w http.ResponseWriter, r *http.Request) {
	var req types.CreateDepartmentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if errs := validation.ValidateCreateDepartment(req); len(errs) > 0 {
		WriteProblemWithErrors(w, r, "Request contains invalid fields", errs)
		return
	}

	d, err := h.store.UpsertDepartment(r.Context(), req.ID, req.Name)
	if err != nil {
		MapStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, d)
}

// GetDepartmentGoal handles GET /api/v1/departments/{id}/goal
func (h *Handler) GetDepartmentGoal(w http.ResponseWriter, r *http.Request) {
	p, ok := h.periodParam(w, r)
	if !ok {
		return
	}
	goal, err := h.store.GetDepartmentGoal(r.Context(), chi.URLParam(r, "id"), p)
	if err != nil {
		MapStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, goal)
}

// PutDepartmentGoal handles PUT /api/v1/departments/{id}/goal.
// Only the department's own leader may set its goal.
func (h *Handler) PutDepartmentGoal(w http.ResponseWriter, r *http.Request) {
	user := MustUserFromContext(r.Context())
	deptID := chi.URLParam(r, "id")

	if user.Role != types.RoleLeader || user.DepartmentID != deptID {
		WriteProblem(w, r, http.StatusForbidden, "Only the department leader can set the department goal")
		return
	}

	var req types.DepartmentGoalRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if errs := validation.ValidateDepartmentGoal(req); len(errs) > 0 {
		WriteProblemWithErrors(w, r, "Request contains invalid fields", errs)
		return
	}

	goal, err := h.store.UpsertDepartmentGoal(r.Context(), deptID, req.Period, req.Objectives)
	if err != nil {
		MapStoreError(w, r, err)
		return
	}
	slog.Info("department goal set",
		"component", "api",
		"department_id", deptID,
		"period", req.Period,
		"user_id", user.ID,
	)
	writeJSON(w, http.StatusOK, goal)
}

// TeamOKRs handles GET /api/v1/departments/{id}/okrs.
// Objectives are grouped under each member; members without objectives are listed empty.
func (h *Handler) TeamOKRs(w http.ResponseWriter, r *http.Request) {
	p, ok := h.periodParam(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	deptID := chi.URLParam(r, "id")

	if _, err := h.store.GetDepartment(ctx, deptID); err != nil {
		MapStoreError(w, r, err)
		return
	}

	resp := types.TeamOKRsResponse{Members: []types.MemberOKRs{}}
	goal, err := h.store.GetDepartmentGoal(ctx, deptID, p)
	switch {
	case err == nil:
		resp.DepartmentGoal = goal.Objectives
	case !errors.Is(err, store.ErrNotFound):
		MapStoreError(w, r, err)
		return
	}

	members, err := h.store.ListDepartmentMembers(ctx, deptID)
	if err != nil {
		MapStoreError(w, r, err)
		return
	}
	objs, err := h.store.ListDepartmentObjectives(ctx, deptID, p)
	if err != nil {
		MapStoreError(w, r, err)
		return
	}

	byUser := make(map[string][]types.ObjectiveView, len(members))
	for _, o := range objs {
		byUser[o.UserID] = append(byUser[o.UserID], objectiveView(o))
	}
	for _, m := range members {
		okrs := byUser[m.ID]
		if okrs == nil {
			okrs = []types.ObjectiveView{}
		}
		resp.Members = append(resp.Members, types.MemberOKRs{
			UserID:   m.ID,
			UserName: m.Name,
			Image:    m.Image,
			OKRs:     okrs,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// DepartmentProgress handles GET /api/v1/departments/{id}/progress
func (h *Handler) DepartmentProgress(w http.ResponseWriter, r *http.Request) {
	p, ok := h.periodParam(w, r)
	if !ok {
		return
	}
	dept, err := h.store.GetDepartment(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		MapStoreError(w, r, err)
		return
	}
	rollup, err := h.departmentRollup(r, *dept, p)
	if err != nil {
		MapStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rollup)
}

// DepartmentsOverview handles GET /api/v1/departments/overview
func (h *Handler) DepartmentsOverview(w http.ResponseWriter, r *http.Request) {
	p, ok := h.periodParam(w, r)
	if !ok {
		return
	}
	depts, err := h.store.ListDepartments(r.Context())
	if err != nil {
		MapStoreError(w, r, err)
		return
	}

	out := make([]types.DepartmentProgress, len(depts))
	g, _ := errgroup.WithContext(r.Context())
	g.SetLimit(overviewConcurrency)
	for i, d := range depts {
		g.Go(func() error {
			rollup, err := h.departmentRollup(r, d, p)
			if err != nil {
				return err
			}
			out[i] = *rollup
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		slog.Error("department overview failed", "component", "api", "period", p, "error", err)
		MapStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// departmentRollup computes a department's progress from its leader's objectives.
func (h *Handler) departmentRollup(r *http.Request, d types.Department, p string) (*types.DepartmentProgress, error) {
	objs, err := h.store.ListLeaderObjectives(r.Context(), d.ID, p)
	if err != nil {
		return nil, err
	}
	return &types.DepartmentProgress{
		DepartmentID:   d.ID,
		DepartmentName: d.Name,
		Period:         p,
		Progress:       progress.DepartmentProgress(objs),
		Trend:          progress.BuildDepartmentTrend(objs),
		ObjectiveCount: len(objs),
	}, nil
}

// CreateReminder handles POST /api/v1/reminders
func (h *Handler) CreateReminder(w http.ResponseWriter, r *http.Request) {
	user := MustUserFromContext(r.Context())

	var req types.ReminderRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if errs := validation.ValidateReminder(req); len(errs) > 0 {
		WriteProblemWithErrors(w, r, "Request contains invalid fields", errs)
		return
	}

	rem, err := h.store.CreateReminder(r.Context(), user.ID, req)
	if err != nil {
		MapStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rem)
}
