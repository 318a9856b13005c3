// Package rating converts raw accomplishment observations into the
// 1-5 component scores used on appraisal sub-tasks. Scores are computed
// either from the built-in fixed thresholds or from a configured formula
// rule set; both modes are pure functions over explicit inputs.
package rating

import "math"

type Metric int

const (
	MetricQuantity Metric = iota
	MetricEfficiency
	MetricTimeliness
)

func (m Metric) String() string {
	switch m {
	case MetricQuantity:
		return "quantity"
	case MetricEfficiency:
		return "efficiency"
	case MetricTimeliness:
		return "timeliness"
	}
	return "unknown"
}

// Config carries the settings-driven portion of the engine. It is passed
// in at every call so that settings edits take effect immediately.
type Config struct {
	EnableFormula bool
	Quantity      *Formula
	Efficiency    *Formula
	Timeliness    *Formula
}

// Score maps one (target, actual) observation to an integer score in
// [1,5], or 0 when the metric has no usable target. When formula mode is
// enabled but the configured formula is malformed, the fixed-rule result
// is returned together with the validation error so the caller can
// surface it without losing the rating.
func (c Config) Score(metric Metric, target, actual float64) (int, error) {
	if c.EnableFormula {
		if f := c.formula(metric); f != nil {
			score, err := f.Eval(target, actual)
			if err != nil {
				return fixedScore(metric, target, actual), err
			}
			return score, nil
		}
	}
	return fixedScore(metric, target, actual), nil
}

func (c Config) formula(metric Metric) *Formula {
	switch metric {
	case MetricQuantity:
		return c.Quantity
	case MetricEfficiency:
		return c.Efficiency
	case MetricTimeliness:
		return c.Timeliness
	}
	return nil
}

func fixedScore(metric Metric, target, actual float64) int {
	switch metric {
	case MetricQuantity:
		return FixedQuantityScore(target, actual)
	case MetricEfficiency:
		return FixedEfficiencyScore(actual)
	case MetricTimeliness:
		return FixedTimelinessScore(target, actual)
	}
	return 0
}

// FixedQuantityScore rates actual output against target output.
func FixedQuantityScore(target, actual float64) int {
	if target <= 0 {
		return 0
	}
	ratio := actual / target
	switch {
	case ratio >= 1.30:
		return 5
	case ratio >= 1.01:
		return 4
	case ratio >= 0.90:
		return 3
	case ratio >= 0.70:
		return 2
	}
	return 1
}

// FixedEfficiencyScore rates the recorded modification count directly;
// fewer required corrections means a higher score.
func FixedEfficiencyScore(modifications float64) int {
	switch {
	case modifications <= 0:
		return 5
	case modifications <= 2:
		return 4
	case modifications <= 4:
		return 3
	case modifications <= 6:
		return 2
	}
	return 1
}

// FixedTimelinessScore rates elapsed time against the allotted time.
func FixedTimelinessScore(target, actual float64) int {
	if target <= 0 {
		return 0
	}
	calc := 1 + (target-actual)/target
	switch {
	case calc >= 1.30:
		return 5
	case calc >= 1.15:
		return 4
	case calc >= 0.90:
		return 3
	case calc >= 0.51:
		return 2
	}
	return 1
}

// Average combines the three component scores, rounded to two decimals.
func Average(quantity, efficiency, timeliness int) float64 {
	return Round2(float64(quantity+efficiency+timeliness) / 3)
}

func Round2(value float64) float64 {
	return math.Round(value*100) / 100
}
