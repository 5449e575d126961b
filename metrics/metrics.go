// Package metrics computes the derived values of core logging records:
// run and interval lengths, core recovery, RQD and QA/QC variance.
// All functions are pure.
package metrics

import "math"

// QA/QC tolerance bands, in absolute percent variance.
const (
	PassTolerance    = 5.0
	WarningTolerance = 10.0
)

// UndefinedVariance stands in for the infinite variance produced by a
// non-zero actual value against a zero expected value. It carries the sign
// of the actual value and always classifies as a failure.
const UndefinedVariance = 999999.99

// Status is a QA/QC classification.
type Status string

const (
	Pass    Status = "pass"
	Warning Status = "warning"
	Fail    Status = "fail"
)

// Round2 rounds v to two decimal places, half away from zero.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// RunLength is to - from. No ordering of the bounds is enforced.
func RunLength(from, to float64) float64 {
	return to - from
}

// IntervalLength is to - from for a logged interval.
func IntervalLength(from, to float64) float64 {
	return to - from
}

// RecoveryPercentage is recovered/runLength*100, or 0 for a non-positive run.
func RecoveryPercentage(recovered, runLength float64) float64 {
	if runLength <= 0 {
		return 0
	}
	return recovered / runLength * 100
}

// RQDPercentage is rqdLength/runLength*100, or 0 for a non-positive run.
func RQDPercentage(rqdLength, runLength float64) float64 {
	return RecoveryPercentage(rqdLength, runLength)
}

// Variance is the percent deviation of actual from expected.
func Variance(expected, actual float64) float64 {
	if expected != 0 {
		return (actual - expected) * 100 / expected
	}
	switch {
	case actual == 0:
		return 0
	case actual < 0:
		return -UndefinedVariance
	default:
		return UndefinedVariance
	}
}

// Classify maps a variance to its QA/QC status. The variance is compared at
// two decimal places so 5.00 and 10.00 sit inside their bands.
func Classify(variance float64) Status {
	v := math.Abs(Round2(variance))
	switch {
	case v <= PassTolerance:
		return Pass
	case v <= WarningTolerance:
		return Warning
	default:
		return Fail
	}
}

// Run holds the derived fields of a core run.
type Run struct {
	RunLength         float64
	TotalCoreRecovery float64
	RQDPercentage     float64
}

// ComputeRun derives run length and the rounded recovery and RQD percentages.
func ComputeRun(from, to, recovered, rqdLength float64) Run {
	l := RunLength(from, to)
	return Run{
		RunLength:         l,
		TotalCoreRecovery: Round2(RecoveryPercentage(recovered, l)),
		RQDPercentage:     Round2(RQDPercentage(rqdLength, l)),
	}
}

// Assess returns the rounded variance and status for a QA/QC check when both
// values are present. ok is false when either value is missing, in which case
// the caller keeps whatever status it already has.
func Assess(expected, actual *float64) (variance float64, status Status, ok bool) {
	if expected == nil || actual == nil {
		return 0, "", false
	}
	v := Variance(*expected, *actual)
	return Round2(v), Classify(v), true
}
