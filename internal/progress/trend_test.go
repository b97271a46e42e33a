package progress

import (
	"reflect"
	"testing"

	"github.com/hyperengineering/okrpulse/internal/types"
)

func objectiveWithCheckIns(id string, points ...types.ProgressPoint) types.Objective {
	obj := types.Objective{ID: id}
	for _, p := range points {
		obj.CheckIns = append(obj.CheckIns, types.WeeklyCheckIn{
			ID:              id + "-ci",
			WeekNumber:      p.WeekNumber,
			OverallProgress: p.Progress,
			Confidence:      types.ConfidenceOnTrack,
		})
	}
	return obj
}

func TestBuildTrend_SortsByWeek(t *testing.T) {
	obj := objectiveWithCheckIns("o",
		types.ProgressPoint{WeekNumber: 3, Progress: 20},
		types.ProgressPoint{WeekNumber: 1, Progress: 2},
		types.ProgressPoint{WeekNumber: 5, Progress: 39},
		types.ProgressPoint{WeekNumber: 2, Progress: 15},
	)

	got := Trend(obj)
	want := []types.ProgressPoint{
		{WeekNumber: 1, Progress: 2},
		{WeekNumber: 2, Progress: 15},
		{WeekNumber: 3, Progress: 20},
		{WeekNumber: 5, Progress: 39},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Trend() = %+v, want %+v", got, want)
	}
	if obj.CheckIns[0].WeekNumber != 3 {
		t.Error("BuildTrend must not reorder the objective's check-ins")
	}
}

func TestBuildTrend_Restartable(t *testing.T) {
	obj := objectiveWithCheckIns("o",
		types.ProgressPoint{WeekNumber: 2, Progress: 40},
		types.ProgressPoint{WeekNumber: 1, Progress: 10},
	)
	seq := BuildTrend(obj)

	var first, second []types.ProgressPoint
	for p := range seq {
		first = append(first, p)
	}
	for p := range seq {
		second = append(second, p)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("second pass %+v differs from first %+v", second, first)
	}
}

func TestBuildTrend_EarlyBreak(t *testing.T) {
	obj := objectiveWithCheckIns("o",
		types.ProgressPoint{WeekNumber: 1, Progress: 10},
		types.ProgressPoint{WeekNumber: 2, Progress: 20},
		types.ProgressPoint{WeekNumber: 3, Progress: 30},
	)

	var seen int
	for p := range BuildTrend(obj) {
		seen++
		if p.WeekNumber == 2 {
			break
		}
	}
	if seen != 2 {
		t.Errorf("saw %d points before break, want 2", seen)
	}
}

func TestTrend_EmptyIsNonNil(t *testing.T) {
	got := Trend(types.Objective{})
	if got == nil || len(got) != 0 {
		t.Errorf("Trend() = %#v, want empty non-nil slice", got)
	}
}

func TestLatestConfidence(t *testing.T) {
	if got := LatestConfidence(types.Objective{}); got != types.ConfidenceOnTrack {
		t.Errorf("no check-ins: got %q, want on_track", got)
	}

	obj := types.Objective{CheckIns: []types.WeeklyCheckIn{
		{WeekNumber: 4, Confidence: types.ConfidenceOffTrack},
		{WeekNumber: 2, Confidence: types.ConfidenceOnTrack},
		{WeekNumber: 3, Confidence: types.ConfidenceAtRisk},
	}}
	if got := LatestConfidence(obj); got != types.ConfidenceOffTrack {
		t.Errorf("LatestConfidence() = %q, want off_track", got)
	}
}

func TestSummarize(t *testing.T) {
	obj := objectiveWithCheckIns("o", types.ProgressPoint{WeekNumber: 1, Progress: 25})
	obj.KeyResults = []types.KeyResult{{ID: "a", Progress: 60}, {ID: "b", Progress: 70}, {ID: "c", Progress: 60}}
	obj.CheckIns[0].Confidence = types.ConfidenceAtRisk

	s := Summarize(obj)
	if s.Progress != 63 {
		t.Errorf("Progress = %d, want 63", s.Progress)
	}
	if s.LatestConfidence != types.ConfidenceAtRisk {
		t.Errorf("LatestConfidence = %q, want at_risk", s.LatestConfidence)
	}
	if len(s.Trend) != 1 || s.Trend[0].Progress != 25 {
		t.Errorf("Trend = %+v, want single week-1 point at 25", s.Trend)
	}
}
