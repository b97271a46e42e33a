package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hyperengineering/okrpulse/internal/types"
)

const departmentColumns = `
	d.id, d.name, COALESCE(d.leader_id, ''), COALESCE(l.name, ''),
	(SELECT COUNT(*) FROM users m WHERE m.department_id = d.id),
	d.created_at, d.updated_at`

func scanDepartment(scanner interface{ Scan(...any) error }) (*types.Department, error) {
	var d types.Department
	var createdAt, updatedAt string
	if err := scanner.Scan(&d.ID, &d.Name, &d.LeaderID, &d.LeaderName, &d.MemberCount, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	d.CreatedAt = parseTime(createdAt)
	d.UpdatedAt = parseTime(updatedAt)
	return &d, nil
}

// ListDepartments returns every department ordered by name.
func (s *SQLiteStore) ListDepartments(ctx context.Context) ([]types.Department, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT`+departmentColumns+`
		FROM departments d LEFT JOIN users l ON l.id = d.leader_id
		ORDER BY d.name
	`)
	if err != nil {
		return nil, fmt.Errorf("query departments: %w", err)
	}
	defer rows.Close()

	departments := []types.Department{}
	for rows.Next() {
		d, err := scanDepartment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan department: %w", err)
		}
		departments = append(departments, *d)
	}
	return departments, rows.Err()
}

// GetDepartment returns one department or ErrNotFound.
func (s *SQLiteStore) GetDepartment(ctx context.Context, id string) (*types.Department, error) {
	return getDepartment(ctx, s.db, id)
}

func getDepartment(ctx context.Context, q querier, id string) (*types.Department, error) {
	row := q.QueryRowContext(ctx, `
		SELECT`+departmentColumns+`
		FROM departments d LEFT JOIN users l ON l.id = d.leader_id
		WHERE d.id = ?
	`, id)
	d, err := scanDepartment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("department %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get department: %w", err)
	}
	return d, nil
}

// UpsertDepartment creates a department or renames an existing one.
func (s *SQLiteStore) UpsertDepartment(ctx context.Context, id, name string) (*types.Department, error) {
	now := formatTime(s.now())
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO departments (id, name, created_at, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, updated_at = excluded.updated_at
	`, id, name, now, now)
	if err != nil {
		return nil, fmt.Errorf("upsert department: %w", err)
	}
	return s.GetDepartment(ctx, id)
}

// ListDepartmentMembers returns the users assigned to a department ordered by name.
func (s *SQLiteStore) ListDepartmentMembers(ctx context.Context, departmentID string) ([]types.User, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT`+userColumns+` FROM users WHERE department_id = ? ORDER BY name, id
	`, departmentID)
	if err != nil {
		return nil, fmt.Errorf("query members: %w", err)
	}
	defer rows.Close()

	users := []types.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

const userColumns = `
	id, email, name, image, COALESCE(role, ''), COALESCE(department_id, ''), created_at, updated_at`

func scanUser(scanner interface{ Scan(...any) error }) (*types.User, error) {
	var u types.User
	var role, createdAt, updatedAt string
	if err := scanner.Scan(&u.ID, &u.Email, &u.Name, &u.Image, &role, &u.DepartmentID, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	u.Role = types.UserRole(role)
	u.CreatedAt = parseTime(createdAt)
	u.UpdatedAt = parseTime(updatedAt)
	return &u, nil
}

// UpsertUser registers a user by email, refreshing name and image on repeat sign-ins.
func (s *SQLiteStore) UpsertUser(ctx context.Context, req types.UpsertUserRequest) (*types.User, error) {
	now := formatTime(s.now())
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, email, name, image, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(email) DO UPDATE SET name = excluded.name, image = excluded.image, updated_at = excluded.updated_at
	`, newID(), req.Email, req.Name, req.Image, now, now)
	if err != nil {
		return nil, fmt.Errorf("upsert user: %w", err)
	}

	u, err := scanUser(s.db.QueryRowContext(ctx, `SELECT`+userColumns+` FROM users WHERE email = ?`, req.Email))
	if err != nil {
		return nil, fmt.Errorf("reload user: %w", err)
	}
	return u, nil
}

// GetUser returns one user or ErrNotFound.
func (s *SQLiteStore) GetUser(ctx context.Context, id string) (*types.User, error) {
	return getUser(ctx, s.db, id)
}

func getUser(ctx context.Context, q querier, id string) (*types.User, error) {
	u, err := scanUser(q.QueryRowContext(ctx, `SELECT`+userColumns+` FROM users WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// SetupUser assigns a role and department. A leader also becomes the
// department's leader, replacing any previous one.
func (s *SQLiteStore) SetupUser(ctx context.Context, id string, role types.UserRole, departmentID string) (*types.User, error) {
	var user *types.User
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := getDepartment(ctx, tx, departmentID); err != nil {
			return err
		}
		now := formatTime(s.now())
		res, err := tx.ExecContext(ctx, `
			UPDATE users SET role = ?, department_id = ?, updated_at = ? WHERE id = ?
		`, string(role), departmentID, now, id)
		if err != nil {
			return fmt.Errorf("update user: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("user %s: %w", id, ErrNotFound)
		}

		if role == types.RoleLeader {
			if _, err := tx.ExecContext(ctx, `
				UPDATE departments SET leader_id = ?, updated_at = ? WHERE id = ?
			`, id, now, departmentID); err != nil {
				return fmt.Errorf("set department leader: %w", err)
			}
		} else {
			// A leader stepping down leaves the department without one.
			if _, err := tx.ExecContext(ctx, `
				UPDATE departments SET leader_id = NULL, updated_at = ? WHERE leader_id = ?
			`, now, id); err != nil {
				return fmt.Errorf("clear department leader: %w", err)
			}
		}

		user, err = getUser(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// GetDepartmentGoal returns the goal for a department and period or ErrNotFound.
func (s *SQLiteStore) GetDepartmentGoal(ctx context.Context, departmentID, period string) (*types.DepartmentGoal, error) {
	return getDepartmentGoal(ctx, s.db, departmentID, period)
}

func getDepartmentGoal(ctx context.Context, q querier, departmentID, period string) (*types.DepartmentGoal, error) {
	var g types.DepartmentGoal
	var createdAt, updatedAt string
	err := q.QueryRowContext(ctx, `
		SELECT id, department_id, period, objectives, created_at, updated_at
		FROM department_goals WHERE department_id = ? AND period = ?
	`, departmentID, period).Scan(&g.ID, &g.DepartmentID, &g.Period, &g.Objectives, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("goal for %s %s: %w", departmentID, period, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get department goal: %w", err)
	}
	g.CreatedAt = parseTime(createdAt)
	g.UpdatedAt = parseTime(updatedAt)
	return &g, nil
}

// UpsertDepartmentGoal sets the goal for a period and closes the pending
// reminders that asked for it.
func (s *SQLiteStore) UpsertDepartmentGoal(ctx context.Context, departmentID, period, objectives string) (*types.DepartmentGoal, error) {
	var goal *types.DepartmentGoal
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := getDepartment(ctx, tx, departmentID); err != nil {
			return err
		}
		now := formatTime(s.now())
		_, err := tx.ExecContext(ctx, `
			INSERT INTO department_goals (id, department_id, period, objectives, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(department_id, period) DO UPDATE SET
				objectives = excluded.objectives, updated_at = excluded.updated_at
		`, newID(), departmentID, period, objectives, now, now)
		if err != nil {
			return fmt.Errorf("upsert department goal: %w", err)
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE reminders SET status = ? WHERE department_id = ? AND period = ? AND status = ?
		`, string(types.ReminderDone), departmentID, period, string(types.ReminderPending))
		if err != nil {
			return fmt.Errorf("close reminders: %w", err)
		}

		goal, err = getDepartmentGoal(ctx, tx, departmentID, period)
		return err
	})
	if err != nil {
		return nil, err
	}
	return goal, nil
}

// CreateReminder records a nudge from one user to a department leader.
// Returns ErrDuplicateReminder when the same reminder is still pending.
func (s *SQLiteStore) CreateReminder(ctx context.Context, fromUserID string, req types.ReminderRequest) (*types.Reminder, error) {
	r := &types.Reminder{
		ID:           newID(),
		FromUserID:   fromUserID,
		ToUserID:     req.ToUserID,
		DepartmentID: req.DepartmentID,
		Period:       req.Period,
		Status:       types.ReminderPending,
		CreatedAt:    s.now(),
	}

	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var exists int
		err := tx.QueryRowContext(ctx, `
			SELECT COUNT(*) FROM reminders
			WHERE from_user_id = ? AND to_user_id = ? AND department_id = ? AND period = ? AND status = ?
		`, r.FromUserID, r.ToUserID, r.DepartmentID, r.Period, string(types.ReminderPending)).Scan(&exists)
		if err != nil {
			return fmt.Errorf("check pending reminders: %w", err)
		}
		if exists > 0 {
			return ErrDuplicateReminder
		}
		if _, err := getUser(ctx, tx, r.ToUserID); err != nil {
			return err
		}
		if _, err := getDepartment(ctx, tx, r.DepartmentID); err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO reminders (id, from_user_id, to_user_id, department_id, period, status, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, r.ID, r.FromUserID, r.ToUserID, r.DepartmentID, r.Period, string(r.Status), formatTime(r.CreatedAt))
		if err != nil {
			return fmt.Errorf("insert reminder: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}
