package progress

import (
	"errors"
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/hyperengineering/okrpulse/internal/types"
)

// newTestObjective returns the two-KR objective used across check-in tests:
// KR1 baseline 40 -> target 60, KR2 baseline 0 -> target 100, both at baseline.
func newTestObjective() types.Objective {
	return types.Objective{
		ID:        "obj-1",
		Period:    "2026-01/02",
		Objective: "Improve onboarding",
		Status:    types.StatusSubmitted,
		KeyResults: []types.KeyResult{
			{
				ID:         "kr-1",
				Content:    "Raise activation from 40% to 60%",
				Metric:     types.Metric{Type: types.MetricPercentage, Baseline: 40, Target: 60, Current: 40, Unit: "%"},
				Confidence: types.ConfidenceOnTrack,
			},
			{
				ID:         "kr-2",
				Content:    "Ship 100 onboarding experiments",
				Metric:     types.Metric{Type: types.MetricNumber, Baseline: 0, Target: 100, Current: 0, Unit: "tests"},
				Confidence: types.ConfidenceOnTrack,
			},
		},
	}
}

func checkInFor(week int, kr1, kr2 float64) CheckInInput {
	return CheckInInput{
		WeekNumber: week,
		Values: []types.KRValue{
			{KeyResultID: "kr-1", Value: kr1},
			{KeyResultID: "kr-2", Value: kr2},
		},
		Confidence: types.ConfidenceOnTrack,
		Date:       time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC),
		ID:         "ci-week-" + string(rune('0'+week)),
	}
}

func TestRecordCheckIn_ComputesProgress(t *testing.T) {
	obj, ci, err := RecordCheckIn(newTestObjective(), checkInFor(1, 46, 20), 9)
	if err != nil {
		t.Fatalf("RecordCheckIn failed: %v", err)
	}

	want := []types.KRProgress{
		{KeyResultID: "kr-1", Value: 46, Progress: 30},
		{KeyResultID: "kr-2", Value: 20, Progress: 20},
	}
	if !reflect.DeepEqual(ci.KRProgress, want) {
		t.Errorf("KRProgress = %+v, want %+v", ci.KRProgress, want)
	}
	if ci.OverallProgress != 25 {
		t.Errorf("OverallProgress = %d, want 25", ci.OverallProgress)
	}
	if obj.KeyResults[0].Metric.Current != 46 || obj.KeyResults[0].Progress != 30 {
		t.Errorf("KR1 = %+v, want current 46 progress 30", obj.KeyResults[0])
	}
	if obj.KeyResults[1].Metric.Current != 20 || obj.KeyResults[1].Progress != 20 {
		t.Errorf("KR2 = %+v, want current 20 progress 20", obj.KeyResults[1])
	}
	if len(obj.CheckIns) != 1 || obj.CheckIns[0].ID != ci.ID {
		t.Errorf("CheckIns = %+v, want the new check-in only", obj.CheckIns)
	}
}

func TestRecordCheckIn_SameWeekReplaces(t *testing.T) {
	obj, first, err := RecordCheckIn(newTestObjective(), checkInFor(1, 46, 20), 9)
	if err != nil {
		t.Fatalf("first check-in failed: %v", err)
	}

	second := checkInFor(1, 52, 40)
	second.ID = "ignored-on-replace"
	obj, ci, err := RecordCheckIn(obj, second, 9)
	if err != nil {
		t.Fatalf("second check-in failed: %v", err)
	}

	if ci.OverallProgress != 50 {
		t.Errorf("OverallProgress = %d, want 50", ci.OverallProgress)
	}
	if ci.ID != first.ID {
		t.Errorf("replaced check-in ID = %q, want original %q", ci.ID, first.ID)
	}
	if obj.KeyResults[0].Progress != 60 || obj.KeyResults[1].Progress != 40 {
		t.Errorf("KR progress = (%d, %d), want (60, 40)", obj.KeyResults[0].Progress, obj.KeyResults[1].Progress)
	}

	trend := Trend(obj)
	want := []types.ProgressPoint{{WeekNumber: 1, Progress: 50}}
	if !reflect.DeepEqual(trend, want) {
		t.Errorf("Trend = %+v, want %+v", trend, want)
	}
}

func TestRecordCheckIn_Idempotent(t *testing.T) {
	in := checkInFor(3, 52, 40)

	once, _, err := RecordCheckIn(newTestObjective(), in, 9)
	if err != nil {
		t.Fatalf("first call failed: %v", err)
	}
	twice, _, err := RecordCheckIn(once, in, 9)
	if err != nil {
		t.Fatalf("second call failed: %v", err)
	}

	if !reflect.DeepEqual(once, twice) {
		t.Errorf("state differs after repeating the check-in:\nonce:  %+v\ntwice: %+v", once, twice)
	}
	if len(twice.CheckIns) != 1 {
		t.Errorf("len(CheckIns) = %d, want 1", len(twice.CheckIns))
	}
}

func TestRecordCheckIn_KeepsWeeksSorted(t *testing.T) {
	obj := newTestObjective()
	var err error
	for _, week := range []int{4, 1, 3, 2} {
		obj, _, err = RecordCheckIn(obj, checkInFor(week, 40+float64(week), float64(week*10)), 9)
		if err != nil {
			t.Fatalf("week %d failed: %v", week, err)
		}
	}

	for i, c := range obj.CheckIns {
		if c.WeekNumber != i+1 {
			t.Fatalf("CheckIns[%d].WeekNumber = %d, want %d", i, c.WeekNumber, i+1)
		}
	}
}

func TestRecordCheckIn_PartialUsesTouchedKeyResultsOnly(t *testing.T) {
	obj, _, err := RecordCheckIn(newTestObjective(), checkInFor(1, 52, 40), 9)
	if err != nil {
		t.Fatal(err)
	}

	partial := CheckInInput{
		WeekNumber: 2,
		Values:     []types.KRValue{{KeyResultID: "kr-2", Value: 90}},
		Confidence: types.ConfidenceAtRisk,
		ID:         "ci-2",
	}
	obj, ci, err := RecordCheckIn(obj, partial, 9)
	if err != nil {
		t.Fatalf("partial check-in failed: %v", err)
	}

	if ci.OverallProgress != 90 {
		t.Errorf("OverallProgress = %d, want 90 (mean over touched KRs only)", ci.OverallProgress)
	}
	if len(ci.KRProgress) != 1 {
		t.Errorf("len(KRProgress) = %d, want 1", len(ci.KRProgress))
	}

	untouched := obj.KeyResults[0]
	if untouched.Metric.Current != 52 || untouched.Progress != 60 || untouched.Confidence != types.ConfidenceOnTrack {
		t.Errorf("untouched KR changed: %+v", untouched)
	}
	touched := obj.KeyResults[1]
	if touched.Metric.Current != 90 || touched.Progress != 90 || touched.Confidence != types.ConfidenceAtRisk {
		t.Errorf("touched KR = %+v, want current 90 progress 90 at_risk", touched)
	}
}

func TestRecordCheckIn_DecreasingMetric(t *testing.T) {
	obj := types.Objective{
		ID: "obj-dec",
		KeyResults: []types.KeyResult{{
			ID:     "turnover",
			Metric: types.Metric{Type: types.MetricPercentage, Baseline: 100, Target: 50, Current: 100},
		}},
	}

	_, ci, err := RecordCheckIn(obj, CheckInInput{
		WeekNumber: 2,
		Values:     []types.KRValue{{KeyResultID: "turnover", Value: 75}},
		Confidence: types.ConfidenceOnTrack,
	}, 0)
	if err != nil {
		t.Fatal(err)
	}
	if ci.OverallProgress != 50 {
		t.Errorf("OverallProgress = %d, want 50", ci.OverallProgress)
	}
}

func TestRecordCheckIn_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*CheckInInput)
		weeks   int
		wantErr error
		field   string
	}{
		{"zero week", func(in *CheckInInput) { in.WeekNumber = 0 }, 9, ErrValidation, "week_number"},
		{"negative week", func(in *CheckInInput) { in.WeekNumber = -1 }, 9, ErrValidation, "week_number"},
		{"week beyond period", func(in *CheckInInput) { in.WeekNumber = 10 }, 9, ErrValidation, "week_number"},
		{"empty values", func(in *CheckInInput) { in.Values = nil }, 9, ErrValidation, "values"},
		{"unknown confidence", func(in *CheckInInput) { in.Confidence = "maybe" }, 9, ErrValidation, "confidence"},
		{"unknown kr", func(in *CheckInInput) { in.Values[1].KeyResultID = "kr-404" }, 9, ErrNotFound, ""},
		{"duplicate kr", func(in *CheckInInput) { in.Values[1].KeyResultID = "kr-1" }, 9, ErrValidation, "values[1].kr_id"},
		{"missing kr id", func(in *CheckInInput) { in.Values[0].KeyResultID = "" }, 9, ErrValidation, "values[0].kr_id"},
		{"NaN value", func(in *CheckInInput) { in.Values[0].Value = math.NaN() }, 9, ErrValidation, "values[0].value"},
		{"infinite value", func(in *CheckInInput) { in.Values[1].Value = math.Inf(1) }, 9, ErrValidation, "values[1].value"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := checkInFor(1, 46, 20)
			tt.mutate(&in)

			_, _, err := RecordCheckIn(newTestObjective(), in, tt.weeks)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}
			if tt.field != "" {
				var ve *ValidationError
				if !errors.As(err, &ve) {
					t.Fatalf("error %T is not *ValidationError", err)
				}
				if ve.Field != tt.field {
					t.Errorf("Field = %q, want %q", ve.Field, tt.field)
				}
			}
		})
	}
}

func TestRecordCheckIn_NotFoundNamesKeyResult(t *testing.T) {
	in := checkInFor(1, 46, 20)
	in.Values[0].KeyResultID = "ghost"

	_, _, err := RecordCheckIn(newTestObjective(), in, 9)
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("error = %v, want *NotFoundError", err)
	}
	if nf.KeyResultID != "ghost" {
		t.Errorf("KeyResultID = %q, want %q", nf.KeyResultID, "ghost")
	}
}

func TestRecordCheckIn_ObjectiveWithoutKeyResults(t *testing.T) {
	_, _, err := RecordCheckIn(types.Objective{ID: "empty"}, checkInFor(1, 1, 1), 9)
	if !errors.Is(err, ErrValidation) {
		t.Errorf("error = %v, want ErrValidation", err)
	}
}

func TestRecordCheckIn_FailureLeavesInputUntouched(t *testing.T) {
	obj, _, err := RecordCheckIn(newTestObjective(), checkInFor(1, 46, 20), 9)
	if err != nil {
		t.Fatal(err)
	}
	before := Trend(obj)
	beforeKR := obj.KeyResults[0]

	bad := checkInFor(1, 60, 100)
	bad.Values = append(bad.Values, types.KRValue{KeyResultID: "kr-missing", Value: 1})
	if _, _, err := RecordCheckIn(obj, bad, 9); err == nil {
		t.Fatal("expected error")
	}

	if !reflect.DeepEqual(Trend(obj), before) {
		t.Errorf("trend changed after failed check-in")
	}
	if obj.KeyResults[0] != beforeKR {
		t.Errorf("KR changed after failed check-in: %+v", obj.KeyResults[0])
	}
}

func TestRecordCheckIn_SuccessDoesNotMutateInput(t *testing.T) {
	original := newTestObjective()
	if _, _, err := RecordCheckIn(original, checkInFor(1, 60, 100), 9); err != nil {
		t.Fatal(err)
	}

	if original.KeyResults[0].Metric.Current != 40 || original.KeyResults[0].Progress != 0 {
		t.Errorf("input KR mutated: %+v", original.KeyResults[0])
	}
	if len(original.CheckIns) != 0 {
		t.Errorf("input check-ins mutated: %+v", original.CheckIns)
	}
}

func TestRecordCheckIn_NoUpperBoundWhenWeeksUnknown(t *testing.T) {
	if _, _, err := RecordCheckIn(newTestObjective(), checkInFor(1, 46, 20), 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	in := checkInFor(1, 46, 20)
	in.WeekNumber = 52
	if _, _, err := RecordCheckIn(newTestObjective(), in, 0); err != nil {
		t.Fatalf("week 52 with unbounded period: %v", err)
	}
}
