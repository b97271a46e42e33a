package progress

import (
	"maps"
	"slices"

	"github.com/hyperengineering/okrpulse/internal/types"
)

// BuildDepartmentTrend averages overall check-in progress across objectives
// week by week. Weeks nobody checked in are absent, not zero.
func BuildDepartmentTrend(objectives []types.Objective) []types.ProgressPoint {
	byWeek := make(map[int][]int)
	for _, obj := range objectives {
		for _, c := range obj.CheckIns {
			byWeek[c.WeekNumber] = append(byWeek[c.WeekNumber], c.OverallProgress)
		}
	}

	points := make([]types.ProgressPoint, 0, len(byWeek))
	for _, week := range slices.Sorted(maps.Keys(byWeek)) {
		points = append(points, types.ProgressPoint{
			WeekNumber: week,
			Progress:   roundedMean(byWeek[week]),
		})
	}
	return points
}

// DepartmentProgress is the department's current overall figure: the rounded
// mean of each objective's key-result aggregate. It deliberately ignores
// check-in history, which only feeds the trend.
func DepartmentProgress(objectives []types.Objective) int {
	if len(objectives) == 0 {
		return 0
	}
	values := make([]int, len(objectives))
	for i, obj := range objectives {
		values[i] = AggregateObjectiveProgress(obj.KeyResults)
	}
	return roundedMean(values)
}
