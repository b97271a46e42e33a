// Package progress derives key result, objective, and department progress
// from metric snapshots and weekly check-ins.
//
// Every function here is pure: inputs are never mutated and no I/O happens.
// Persistence and locking belong to the caller (see internal/store).
package progress

import (
	"math"

	"github.com/hyperengineering/okrpulse/internal/types"
)

// ComputeProgress maps a metric reading to a percentage in [0, 100].
//
// The same formula serves increasing and decreasing targets: when target is
// below baseline the denominator is negative, so moving current toward target
// still yields a positive ratio. A metric whose baseline equals its target has
// no usable range and is all-or-nothing.
func ComputeProgress(baseline, target, current float64) int {
	if target == baseline {
		if current >= target {
			return 100
		}
		return 0
	}

	raw := (current - baseline) / (target - baseline) * 100
	if math.IsNaN(raw) {
		return 0
	}
	return int(math.Round(clamp(raw, 0, 100)))
}

// MetricProgress is ComputeProgress applied to a metric's stored reading.
func MetricProgress(m types.Metric) int {
	return ComputeProgress(m.Baseline, m.Target, m.Current)
}

// AggregateObjectiveProgress returns the rounded mean progress of krs.
// An objective without key results reports 0 so views can render it.
func AggregateObjectiveProgress(krs []types.KeyResult) int {
	if len(krs) == 0 {
		return 0
	}
	values := make([]int, len(krs))
	for i, kr := range krs {
		values[i] = kr.Progress
	}
	return roundedMean(values)
}

func roundedMean(values []int) int {
	if len(values) == 0 {
		return 0
	}
	sum := 0
	for _, v := range values {
		sum += v
	}
	return int(math.Round(float64(sum) / float64(len(values))))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
