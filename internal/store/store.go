package store

import (
	"context"
	"time"

	"github.com/hyperengineering/okrpulse/internal/progress"
	"github.com/hyperengineering/okrpulse/internal/types"
)

// Store defines the persistence contract for users, departments and OKRs.
type Store interface {
	ListDepartments(ctx context.Context) ([]types.Department, error)
	GetDepartment(ctx context.Context, id string) (*types.Department, error)
	UpsertDepartment(ctx context.Context, id, name string) (*types.Department, error)
	ListDepartmentMembers(ctx context.Context, departmentID string) ([]types.User, error)

	UpsertUser(ctx context.Context, req types.UpsertUserRequest) (*types.User, error)
	GetUser(ctx context.Context, id string) (*types.User, error)
	SetupUser(ctx context.Context, id string, role types.UserRole, departmentID string) (*types.User, error)

	GetDepartmentGoal(ctx context.Context, departmentID, period string) (*types.DepartmentGoal, error)
	UpsertDepartmentGoal(ctx context.Context, departmentID, period, objectives string) (*types.DepartmentGoal, error)

	SubmitObjectives(ctx context.Context, userID, period string, objectives []types.NewObjective) ([]types.Objective, error)
	ListObjectives(ctx context.Context, userID, period string) ([]types.Objective, error)
	GetObjective(ctx context.Context, id string) (*types.Objective, error)
	ListDepartmentObjectives(ctx context.Context, departmentID, period string) ([]types.Objective, error)
	ListLeaderObjectives(ctx context.Context, departmentID, period string) ([]types.Objective, error)
	ArchiveObjective(ctx context.Context, id string, minRemaining int) error
	RecordCheckIn(ctx context.Context, objectiveID string, in progress.CheckInInput) (*types.Objective, *types.WeeklyCheckIn, error)

	CreateReminder(ctx context.Context, fromUserID string, req types.ReminderRequest) (*types.Reminder, error)

	SaveDraft(ctx context.Context, userID string, req types.DraftRequest) (*types.Draft, error)
	GetDraft(ctx context.Context, userID string) (*types.Draft, error)
	DeleteDraft(ctx context.Context, userID string) error

	GetStats(ctx context.Context) (*types.StoreStats, error)
	GenerateSnapshot(ctx context.Context, path string) error
	RecordBackup(ctx context.Context, at time.Time) error
	Close() error
}
