package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hyperengineering/okrpulse/internal/period"
	"github.com/hyperengineering/okrpulse/internal/progress"
	"github.com/hyperengineering/okrpulse/internal/types"
)

const objectiveColumns = `
	o.id, o.user_id, COALESCE(o.department_id, ''), o.period, o.objective,
	o.status, o.is_archived, o.created_at, o.updated_at`

const activeSubmitted = `o.status = 'SUBMITTED' AND o.is_archived = 0`

func scanObjective(scanner interface{ Scan(...any) error }) (*types.Objective, error) {
	var o types.Objective
	var status, createdAt, updatedAt string
	var archived int
	err := scanner.Scan(&o.ID, &o.UserID, &o.DepartmentID, &o.Period, &o.Objective,
		&status, &archived, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	o.Status = types.OKRStatus(status)
	o.IsArchived = archived != 0
	o.CreatedAt = parseTime(createdAt)
	o.UpdatedAt = parseTime(updatedAt)
	o.KeyResults = []types.KeyResult{}
	o.CheckIns = []types.WeeklyCheckIn{}
	return &o, nil
}

// queryObjectives loads objectives matching where, then their key results and
// check-ins. Parent rows are drained before child queries run because the
// pool holds a single connection.
func queryObjectives(ctx context.Context, q querier, where string, args ...any) ([]types.Objective, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT`+objectiveColumns+`
		FROM objectives o
		WHERE `+where+`
		ORDER BY o.created_at, o.id
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("query objectives: %w", err)
	}

	objectives := []types.Objective{}
	for rows.Next() {
		o, err := scanObjective(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan objective: %w", err)
		}
		objectives = append(objectives, *o)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for i := range objectives {
		if err := loadChildren(ctx, q, &objectives[i]); err != nil {
			return nil, err
		}
	}
	return objectives, nil
}

func loadChildren(ctx context.Context, q querier, o *types.Objective) error {
	krRows, err := q.QueryContext(ctx, `
		SELECT id, content, metric_type, baseline, target, current_value, unit, progress, confidence
		FROM key_results WHERE objective_id = ? ORDER BY position
	`, o.ID)
	if err != nil {
		return fmt.Errorf("query key results: %w", err)
	}
	for krRows.Next() {
		var kr types.KeyResult
		var metricType, confidence string
		if err := krRows.Scan(&kr.ID, &kr.Content, &metricType, &kr.Metric.Baseline, &kr.Metric.Target,
			&kr.Metric.Current, &kr.Metric.Unit, &kr.Progress, &confidence); err != nil {
			krRows.Close()
			return fmt.Errorf("scan key result: %w", err)
		}
		kr.Metric.Type = types.MetricType(metricType)
		kr.Confidence = types.Confidence(confidence)
		o.KeyResults = append(o.KeyResults, kr)
	}
	err = krRows.Err()
	krRows.Close()
	if err != nil {
		return err
	}

	ciRows, err := q.QueryContext(ctx, `
		SELECT id, week_number, date, kr_progress, overall_progress, confidence, notes
		FROM check_ins WHERE objective_id = ? ORDER BY week_number
	`, o.ID)
	if err != nil {
		return fmt.Errorf("query check-ins: %w", err)
	}
	defer ciRows.Close()
	for ciRows.Next() {
		var ci types.WeeklyCheckIn
		var date, krProgress, confidence string
		if err := ciRows.Scan(&ci.ID, &ci.WeekNumber, &date, &krProgress, &ci.OverallProgress, &confidence, &ci.Notes); err != nil {
			return fmt.Errorf("scan check-in: %w", err)
		}
		ci.Date = parseTime(date)
		ci.Confidence = types.Confidence(confidence)
		if err := json.Unmarshal([]byte(krProgress), &ci.KRProgress); err != nil {
			return fmt.Errorf("decode kr_progress for check-in %s: %w", ci.ID, err)
		}
		o.CheckIns = append(o.CheckIns, ci)
	}
	return ciRows.Err()
}

func getObjective(ctx context.Context, q querier, id string) (*types.Objective, error) {
	objectives, err := queryObjectives(ctx, q, `o.id = ?`, id)
	if err != nil {
		return nil, err
	}
	if len(objectives) == 0 {
		return nil, fmt.Errorf("objective %s: %w", id, ErrNotFound)
	}
	return &objectives[0], nil
}

// GetObjective returns one objective, archived or not, or ErrNotFound.
func (s *SQLiteStore) GetObjective(ctx context.Context, id string) (*types.Objective, error) {
	return getObjective(ctx, s.db, id)
}

// ListObjectives returns a user's active objectives, optionally limited to one period.
func (s *SQLiteStore) ListObjectives(ctx context.Context, userID, period string) ([]types.Objective, error) {
	if period == "" {
		return queryObjectives(ctx, s.db, `o.user_id = ? AND o.is_archived = 0`, userID)
	}
	return queryObjectives(ctx, s.db, `o.user_id = ? AND o.period = ? AND o.is_archived = 0`, userID, period)
}

// ListDepartmentObjectives returns every submitted, active objective in a department for a period.
func (s *SQLiteStore) ListDepartmentObjectives(ctx context.Context, departmentID, period string) ([]types.Objective, error) {
	return queryObjectives(ctx, s.db, `o.department_id = ? AND o.period = ? AND `+activeSubmitted, departmentID, period)
}

// ListLeaderObjectives returns the department leader's submitted, active
// objectives for a period. A department without a leader has none.
func (s *SQLiteStore) ListLeaderObjectives(ctx context.Context, departmentID, period string) ([]types.Objective, error) {
	return queryObjectives(ctx, s.db, `
		o.user_id = (SELECT leader_id FROM departments WHERE id = ?) AND o.period = ? AND `+activeSubmitted,
		departmentID, period)
}

// SubmitObjectives replaces a user's draft objectives for a period with the
// submitted set and clears the user's creation draft.
func (s *SQLiteStore) SubmitObjectives(ctx context.Context, userID, period string, objectives []types.NewObjective) ([]types.Objective, error) {
	var created []types.Objective
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		user, err := getUser(ctx, tx, userID)
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `
			DELETE FROM objectives WHERE user_id = ? AND period = ? AND status = ?
		`, userID, period, string(types.StatusDraft)); err != nil {
			return fmt.Errorf("delete draft objectives: %w", err)
		}

		now := s.now()
		for _, n := range objectives {
			obj, err := insertObjective(ctx, tx, user, period, n, now)
			if err != nil {
				return err
			}
			created = append(created, obj)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM drafts WHERE user_id = ?`, userID); err != nil {
			return fmt.Errorf("clear draft: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func insertObjective(ctx context.Context, tx *sql.Tx, user *types.User, period string, n types.NewObjective, now time.Time) (types.Objective, error) {
	obj := types.Objective{
		ID:           newID(),
		UserID:       user.ID,
		DepartmentID: user.DepartmentID,
		Period:       period,
		Objective:    n.Objective,
		Status:       types.StatusSubmitted,
		KeyResults:   make([]types.KeyResult, 0, len(n.KeyResults)),
		CheckIns:     []types.WeeklyCheckIn{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	var department sql.NullString
	if user.DepartmentID != "" {
		department = sql.NullString{String: user.DepartmentID, Valid: true}
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO objectives (id, user_id, department_id, period, objective, status, is_archived, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, 0, ?, ?)
	`, obj.ID, obj.UserID, department, obj.Period, obj.Objective, string(obj.Status), formatTime(now), formatTime(now))
	if err != nil {
		return obj, fmt.Errorf("insert objective: %w", err)
	}

	for i, nkr := range n.KeyResults {
		m := types.DefaultMetric()
		if nkr.Metric != nil {
			m = *nkr.Metric
		}
		kr := types.KeyResult{
			ID:      newID(),
			Content: nkr.Content,
			Metric: types.Metric{
				Type:     m.Type,
				Baseline: m.Baseline,
				Target:   m.Target,
				Current:  m.Baseline,
				Unit:     m.Unit,
			},
			Confidence: types.ConfidenceOnTrack,
		}
		kr.Progress = progress.MetricProgress(kr.Metric)

		_, err := tx.ExecContext(ctx, `
			INSERT INTO key_results (id, objective_id, position, content, metric_type, baseline, target, current_value, unit, progress, confidence)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, kr.ID, obj.ID, i, kr.Content, string(kr.Metric.Type), kr.Metric.Baseline, kr.Metric.Target,
			kr.Metric.Current, kr.Metric.Unit, kr.Progress, string(kr.Confidence))
		if err != nil {
			return obj, fmt.Errorf("insert key result: %w", err)
		}
		obj.KeyResults = append(obj.KeyResults, kr)
	}
	return obj, nil
}

// ArchiveObjective hides an objective from active views. It fails with
// ErrMinimumObjectives when the owner would keep fewer than minRemaining
// active objectives in that period.
func (s *SQLiteStore) ArchiveObjective(ctx context.Context, id string, minRemaining int) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		var userID, periodStr string
		var archived int
		err := tx.QueryRowContext(ctx, `
			SELECT user_id, period, is_archived FROM objectives WHERE id = ?
		`, id).Scan(&userID, &periodStr, &archived)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("objective %s: %w", id, ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("get objective: %w", err)
		}
		if archived != 0 {
			return nil
		}

		var active int
		if err := tx.QueryRowContext(ctx, `
			SELECT COUNT(*) FROM objectives o WHERE o.user_id = ? AND o.period = ? AND `+activeSubmitted,
			userID, periodStr).Scan(&active); err != nil {
			return fmt.Errorf("count active objectives: %w", err)
		}
		if active-1 < minRemaining {
			return fmt.Errorf("%d active objectives, %d required: %w", active, minRemaining, ErrMinimumObjectives)
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE objectives SET is_archived = 1, updated_at = ? WHERE id = ?
		`, formatTime(s.now()), id); err != nil {
			return fmt.Errorf("archive objective: %w", err)
		}
		return nil
	})
}

// RecordCheckIn applies a weekly check-in to an objective and persists the
// result atomically. A zero week number means the week of in.Date within the
// objective's period.
func (s *SQLiteStore) RecordCheckIn(ctx context.Context, objectiveID string, in progress.CheckInInput) (*types.Objective, *types.WeeklyCheckIn, error) {
	unlock := s.locks.Lock(objectiveID)
	defer unlock()

	if in.Date.IsZero() {
		in.Date = s.now()
	}
	if in.ID == "" {
		in.ID = newID()
	}

	var updated types.Objective
	var record types.WeeklyCheckIn
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		obj, err := getObjective(ctx, tx, objectiveID)
		if err != nil {
			return err
		}
		if obj.IsArchived {
			return &progress.ValidationError{Field: "objective", Message: "is archived"}
		}

		weeks := 0
		if p, err := period.Parse(obj.Period); err == nil {
			weeks = p.Weeks()
			if in.WeekNumber == 0 {
				in.WeekNumber = p.WeekOf(in.Date)
			}
		}

		updated, record, err = progress.RecordCheckIn(*obj, in, weeks)
		if err != nil {
			return err
		}

		for _, kr := range updated.KeyResults {
			if _, err := tx.ExecContext(ctx, `
				UPDATE key_results SET current_value = ?, progress = ?, confidence = ? WHERE id = ?
			`, kr.Metric.Current, kr.Progress, string(kr.Confidence), kr.ID); err != nil {
				return fmt.Errorf("update key result %s: %w", kr.ID, err)
			}
		}

		krProgress, err := json.Marshal(record.KRProgress)
		if err != nil {
			return fmt.Errorf("encode kr_progress: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO check_ins (id, objective_id, week_number, date, kr_progress, overall_progress, confidence, notes)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(objective_id, week_number) DO UPDATE SET
				date = excluded.date,
				kr_progress = excluded.kr_progress,
				overall_progress = excluded.overall_progress,
				confidence = excluded.confidence,
				notes = excluded.notes
		`, record.ID, objectiveID, record.WeekNumber, formatTime(record.Date), string(krProgress),
			record.OverallProgress, string(record.Confidence), record.Notes); err != nil {
			return fmt.Errorf("upsert check-in: %w", err)
		}

		updated.UpdatedAt = s.now()
		if _, err := tx.ExecContext(ctx, `
			UPDATE objectives SET updated_at = ? WHERE id = ?
		`, formatTime(updated.UpdatedAt), objectiveID); err != nil {
			return fmt.Errorf("touch objective: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return &updated, &record, nil
}
