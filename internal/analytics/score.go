package analytics

import "math"

// MaxRowsPerQuery caps every analytics scan.
const MaxRowsPerQuery = 5000

// Acceleration thresholds in g.
const (
	HarshThreshold = 1.25
	CrashThreshold = 2.5

	harshPenalty = 15.0
	crashPenalty = 50.0
)

// Interpretations of a safety score.
const (
	InterpretationNoData     = "no data — unscored"
	InterpretationExemplary  = "exemplary"
	InterpretationGood       = "good"
	InterpretationAggressive = "aggressive"
	InterpretationDangerous  = "dangerous"
)

// DrivingStats are the counters behind a score.
type DrivingStats struct {
	TotalHarsh     int     `json:"total_harsh"`
	AvgHarshPerDay float64 `json:"avg_harsh_per_day"`
	TotalCrashes   int     `json:"total_crashes"`
	TotalReadings  int     `json:"total_readings"`
}

// SafetyScore is the driving-behaviour score of a window.
type SafetyScore struct {
	Score          int          `json:"score"`
	Interpretation string       `json:"interpretation"`
	PeriodDays     int          `json:"period_days"`
	Stats          DrivingStats `json:"stats"`
	Truncated      bool         `json:"truncated,omitempty"`
}

// ScoreDriving scores acceleration magnitudes collected over durationDays.
// Penalties are additive: 15 points per average harsh event per day and
// 50 points per crash, clamped to [0, 100].
func ScoreDriving(values []float64, durationDays int) SafetyScore {
	if durationDays < 1 {
		durationDays = 1
	}
	if len(values) == 0 {
		return SafetyScore{
			Score:          100,
			Interpretation: InterpretationNoData,
			PeriodDays:     durationDays,
		}
	}

	harsh, crash := 0, 0
	for _, v := range values {
		switch {
		case v > CrashThreshold:
			crash++
		case v > HarshThreshold:
			harsh++
		}
	}

	avgHarshPerDay := float64(harsh) / float64(durationDays)
	score := clampScore(100 - (avgHarshPerDay*harshPenalty + float64(crash)*crashPenalty))

	return SafetyScore{
		Score:          score,
		Interpretation: Interpret(score),
		PeriodDays:     durationDays,
		Stats: DrivingStats{
			TotalHarsh:     harsh,
			AvgHarshPerDay: round(avgHarshPerDay, 2),
			TotalCrashes:   crash,
			TotalReadings:  len(values),
		},
	}
}

// clampScore truncates toward zero, then clamps.
func clampScore(raw float64) int {
	if math.IsNaN(raw) {
		return 0
	}
	if raw >= 100 {
		return 100
	}
	if raw <= 0 {
		return 0
	}
	return int(raw)
}

// Interpret maps a score to its bucket, evaluated top-down.
func Interpret(score int) string {
	switch {
	case score >= 90:
		return InterpretationExemplary
	case score >= 75:
		return InterpretationGood
	case score >= 50:
		return InterpretationAggressive
	default:
		return InterpretationDangerous
	}
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
