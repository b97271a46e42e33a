package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hyperengineering/okrpulse/internal/types"
)

// SaveDraft stores the user's creation-flow state, replacing any previous draft.
func (s *SQLiteStore) SaveDraft(ctx context.Context, userID string, req types.DraftRequest) (*types.Draft, error) {
	d := &types.Draft{
		UserID:        userID,
		Period:        req.Period,
		CurrentStep:   req.CurrentStep,
		Answers:       req.Answers,
		ConfirmedOKRs: req.ConfirmedOKRs,
		UpdatedAt:     s.now(),
	}
	if d.Answers == nil {
		d.Answers = map[string]string{}
	}
	if d.ConfirmedOKRs == nil {
		d.ConfirmedOKRs = []types.ConfirmedOKR{}
	}

	answers, err := json.Marshal(d.Answers)
	if err != nil {
		return nil, fmt.Errorf("encode answers: %w", err)
	}
	confirmed, err := json.Marshal(d.ConfirmedOKRs)
	if err != nil {
		return nil, fmt.Errorf("encode confirmed okrs: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO drafts (user_id, period, current_step, answers, confirmed_okrs, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			period = excluded.period,
			current_step = excluded.current_step,
			answers = excluded.answers,
			confirmed_okrs = excluded.confirmed_okrs,
			updated_at = excluded.updated_at
	`, userID, d.Period, d.CurrentStep, string(answers), string(confirmed), formatTime(d.UpdatedAt))
	if err != nil {
		return nil, fmt.Errorf("save draft: %w", err)
	}
	return d, nil
}

// GetDraft returns the user's saved draft or ErrNotFound.
func (s *SQLiteStore) GetDraft(ctx context.Context, userID string) (*types.Draft, error) {
	d := &types.Draft{UserID: userID}
	var answers, confirmed, updatedAt string
	err := s.db.QueryRowContext(ctx, `
		SELECT period, current_step, answers, confirmed_okrs, updated_at FROM drafts WHERE user_id = ?
	`, userID).Scan(&d.Period, &d.CurrentStep, &answers, &confirmed, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("draft for %s: %w", userID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get draft: %w", err)
	}

	if err := json.Unmarshal([]byte(answers), &d.Answers); err != nil {
		return nil, fmt.Errorf("decode answers: %w", err)
	}
	if err := json.Unmarshal([]byte(confirmed), &d.ConfirmedOKRs); err != nil {
		return nil, fmt.Errorf("decode confirmed okrs: %w", err)
	}
	d.UpdatedAt = parseTime(updatedAt)
	return d, nil
}

// DeleteDraft discards the user's draft. Deleting a missing draft is not an error.
func (s *SQLiteStore) DeleteDraft(ctx context.Context, userID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM drafts WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("delete draft: %w", err)
	}
	return nil
}
