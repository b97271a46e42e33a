package progress

import (
	"iter"
	"slices"

	"github.com/hyperengineering/okrpulse/internal/types"
)

// BuildTrend yields one point per recorded week in ascending week order.
// The sequence reads obj without copying it and can be ranged over repeatedly.
func BuildTrend(obj types.Objective) iter.Seq[types.ProgressPoint] {
	return func(yield func(types.ProgressPoint) bool) {
		order := make([]int, len(obj.CheckIns))
		for i := range order {
			order[i] = i
		}
		slices.SortStableFunc(order, func(a, b int) int {
			return obj.CheckIns[a].WeekNumber - obj.CheckIns[b].WeekNumber
		})
		for _, i := range order {
			c := obj.CheckIns[i]
			if !yield(types.ProgressPoint{WeekNumber: c.WeekNumber, Progress: c.OverallProgress}) {
				return
			}
		}
	}
}

// Trend collects BuildTrend into a slice. It never returns nil.
func Trend(obj types.Objective) []types.ProgressPoint {
	points := slices.Collect(BuildTrend(obj))
	if points == nil {
		return []types.ProgressPoint{}
	}
	return points
}

// LatestConfidence is the confidence of the highest-week check-in,
// or on_track when nothing has been recorded.
func LatestConfidence(obj types.Objective) types.Confidence {
	latest := -1
	for i, c := range obj.CheckIns {
		if latest < 0 || c.WeekNumber > obj.CheckIns[latest].WeekNumber {
			latest = i
		}
	}
	if latest < 0 {
		return types.ConfidenceOnTrack
	}
	return obj.CheckIns[latest].Confidence
}

// Summarize computes the derived figures shown alongside an objective.
func Summarize(obj types.Objective) types.ObjectiveSummary {
	return types.ObjectiveSummary{
		Progress:         AggregateObjectiveProgress(obj.KeyResults),
		LatestConfidence: LatestConfidence(obj),
		Trend:            Trend(obj),
	}
}
