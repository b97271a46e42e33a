package progress

import (
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/hyperengineering/okrpulse/internal/types"
)

// CheckInInput is one user's weekly check-in submission for an objective.
type CheckInInput struct {
	WeekNumber int
	Values     []types.KRValue
	Confidence types.Confidence
	Notes      string
	Date       time.Time
	// ID is used only when the week has no check-in yet; a replaced week keeps its id.
	ID string
}

// RecordCheckIn applies a weekly check-in to obj and returns the updated
// objective together with the stored check-in record.
//
// Only key results named in in.Values are touched: their metric current value,
// progress, and confidence change; all others keep their previous state. The
// check-in's overall progress is the rounded mean over the touched key results.
// A check-in for an already recorded week replaces that week's entry.
//
// periodWeeks bounds the week number; zero or negative means no upper bound.
// obj is never modified, so a returned error leaves the caller's state intact.
func RecordCheckIn(obj types.Objective, in CheckInInput, periodWeeks int) (types.Objective, types.WeeklyCheckIn, error) {
	if err := validateCheckIn(obj, in, periodWeeks); err != nil {
		return obj, types.WeeklyCheckIn{}, err
	}

	index := make(map[string]int, len(obj.KeyResults))
	for i, kr := range obj.KeyResults {
		index[kr.ID] = i
	}

	seen := make(map[string]bool, len(in.Values))
	for i, v := range in.Values {
		field := fmt.Sprintf("values[%d].kr_id", i)
		if v.KeyResultID == "" {
			return obj, types.WeeklyCheckIn{}, invalid(field, "is required")
		}
		if _, ok := index[v.KeyResultID]; !ok {
			return obj, types.WeeklyCheckIn{}, &NotFoundError{KeyResultID: v.KeyResultID}
		}
		if seen[v.KeyResultID] {
			return obj, types.WeeklyCheckIn{}, invalid(field, "duplicate key result "+v.KeyResultID)
		}
		seen[v.KeyResultID] = true
		if math.IsNaN(v.Value) || math.IsInf(v.Value, 0) {
			return obj, types.WeeklyCheckIn{}, invalid(fmt.Sprintf("values[%d].value", i), "must be a finite number")
		}
	}

	updated := cloneObjective(obj)
	entries := make([]types.KRProgress, 0, len(in.Values))
	scores := make([]int, 0, len(in.Values))

	for _, v := range in.Values {
		kr := &updated.KeyResults[index[v.KeyResultID]]
		p := ComputeProgress(kr.Metric.Baseline, kr.Metric.Target, v.Value)
		kr.Metric.Current = v.Value
		kr.Progress = p
		kr.Confidence = in.Confidence

		entries = append(entries, types.KRProgress{
			KeyResultID: v.KeyResultID,
			Value:       v.Value,
			Progress:    p,
		})
		scores = append(scores, p)
	}

	checkIn := types.WeeklyCheckIn{
		ID:              in.ID,
		WeekNumber:      in.WeekNumber,
		Date:            in.Date,
		KRProgress:      entries,
		OverallProgress: roundedMean(scores),
		Confidence:      in.Confidence,
		Notes:           in.Notes,
	}

	pos, found := slices.BinarySearchFunc(updated.CheckIns, in.WeekNumber, func(c types.WeeklyCheckIn, week int) int {
		return c.WeekNumber - week
	})
	if found {
		checkIn.ID = updated.CheckIns[pos].ID
		updated.CheckIns[pos] = checkIn
	} else {
		updated.CheckIns = slices.Insert(updated.CheckIns, pos, checkIn)
	}

	return updated, checkIn, nil
}

func validateCheckIn(obj types.Objective, in CheckInInput, periodWeeks int) error {
	if in.WeekNumber <= 0 {
		return invalid("week_number", "must be positive")
	}
	if periodWeeks > 0 && in.WeekNumber > periodWeeks {
		return invalid("week_number", fmt.Sprintf("must not exceed %d weeks in the period", periodWeeks))
	}
	if len(in.Values) == 0 {
		return invalid("values", "select at least one key result to check in")
	}
	if !in.Confidence.Valid() {
		return invalid("confidence", "must be one of: on_track, at_risk, off_track")
	}
	if len(obj.KeyResults) == 0 {
		return invalid("key_results", "objective has no key results")
	}
	return nil
}

// cloneObjective deep-copies the slices RecordCheckIn mutates and keeps the
// check-in list sorted by week so binary search holds even for unsorted input.
func cloneObjective(obj types.Objective) types.Objective {
	out := obj
	out.KeyResults = slices.Clone(obj.KeyResults)
	out.CheckIns = make([]types.WeeklyCheckIn, len(obj.CheckIns))
	for i, c := range obj.CheckIns {
		c.KRProgress = slices.Clone(c.KRProgress)
		out.CheckIns[i] = c
	}
	slices.SortStableFunc(out.CheckIns, func(a, b types.WeeklyCheckIn) int {
		return a.WeekNumber - b.WeekNumber
	})
	return out
}
