// Package settings is the single point of truth for rating thresholds,
// formula rule sets and the current appraisal period. Exactly one
// settings record exists; it is created lazily on first access and
// mutated through partial-update merges.
package settings

import (
	"encoding/json"
	"time"

	"ipcr/internal/domain/rating"
)

// SentinelID is the primary key of the only settings row.
const SentinelID = "default"

const (
	PhasePlanning   = "planning"
	PhaseMonitoring = "monitoring"
	PhaseRating     = "rating"
)

type Settings struct {
	ID                string           `json:"id"`
	RatingThresholds  []Threshold      `json:"ratingThresholds"`
	QuantityFormula   *rating.Formula  `json:"quantityFormula,omitempty"`
	EfficiencyFormula *rating.Formula  `json:"efficiencyFormula,omitempty"`
	TimelinessFormula *rating.Formula  `json:"timelinessFormula,omitempty"`
	EnableFormula     bool             `json:"enableFormula"`
	CurrentPeriodID   string           `json:"currentPeriodId"`
	Phases            []PhaseWindow    `json:"phases"`
	AlertThresholds   json.RawMessage  `json:"alertThresholds,omitempty"`
	KPIDefinitions    json.RawMessage  `json:"kpiDefinitions,omitempty"`
	CreatedAt         time.Time        `json:"createdAt"`
	UpdatedAt         time.Time        `json:"updatedAt"`
}

// Threshold maps a rating label to a numeric range. Either bound may be
// absent, giving a half-open range. Thresholds are ordered; the first
// match wins.
type Threshold struct {
	Label string   `json:"label"`
	Min   *float64 `json:"min,omitempty"`
	Max   *float64 `json:"max,omitempty"`
}

// PhaseWindow is one appraisal phase with an inclusive date range.
// Windows may overlap.
type PhaseWindow struct {
	Name      string    `json:"name"`
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
}

// Patch carries a partial settings update. Nil fields keep their prior
// value.
type Patch struct {
	RatingThresholds  []Threshold     `json:"ratingThresholds,omitempty"`
	QuantityFormula   *rating.Formula `json:"quantityFormula,omitempty"`
	EfficiencyFormula *rating.Formula `json:"efficiencyFormula,omitempty"`
	TimelinessFormula *rating.Formula `json:"timelinessFormula,omitempty"`
	EnableFormula     *bool           `json:"enableFormula,omitempty"`
	CurrentPeriodID   *string         `json:"currentPeriodId,omitempty"`
	Phases            []PhaseWindow   `json:"phases,omitempty"`
	AlertThresholds   json.RawMessage `json:"alertThresholds,omitempty"`
	KPIDefinitions    json.RawMessage `json:"kpiDefinitions,omitempty"`
}

// RatingConfig projects the record into the rating engine's call-time
// configuration.
func (s *Settings) RatingConfig() rating.Config {
	return rating.Config{
		EnableFormula: s.EnableFormula,
		Quantity:      s.QuantityFormula,
		Efficiency:    s.EfficiencyFormula,
		Timeliness:    s.TimelinessFormula,
	}
}

// RatingLabel resolves a numeric average against the threshold table.
// Returns "" when no range matches.
func (s *Settings) RatingLabel(value float64) string {
	for _, threshold := range s.RatingThresholds {
		if threshold.Min != nil && value < *threshold.Min {
			continue
		}
		if threshold.Max != nil && value > *threshold.Max {
			continue
		}
		if threshold.Min == nil && threshold.Max == nil {
			continue
		}
		return threshold.Label
	}
	return ""
}

// CurrentPhases returns every phase whose window contains today.
// Comparison is on calendar dates, both bounds inclusive.
func (s *Settings) CurrentPhases(today time.Time) []string {
	day := truncateToDay(today)
	var active []string
	for _, phase := range s.Phases {
		start := truncateToDay(phase.StartDate)
		end := truncateToDay(phase.EndDate)
		if day.Before(start) || day.After(end) {
			continue
		}
		active = append(active, phase.Name)
	}
	return active
}

func truncateToDay(t time.Time) time.Time {
	year, month, day := t.UTC().Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func defaultThresholds() []Threshold {
	f := func(v float64) *float64 { return &v }
	return []Threshold{
		{Label: "Outstanding", Min: f(4.51), Max: f(5.00)},
		{Label: "Very Satisfactory", Min: f(3.51), Max: f(4.50)},
		{Label: "Satisfactory", Min: f(2.51), Max: f(3.50)},
		{Label: "Unsatisfactory", Min: f(1.51), Max: f(2.50)},
		{Label: "Poor", Min: f(0.01), Max: f(1.50)},
	}
}
