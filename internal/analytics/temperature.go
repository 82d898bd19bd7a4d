package analytics

// TemperatureSummary summarizes engine temperature readings above a noise floor.
type TemperatureSummary struct {
	AvgTemp       float64  `json:"avg_temp"`
	MaxTemp       float64  `json:"max_temp"`
	TotalReadings int      `json:"total_readings"`
	ThresholdUsed *float64 `json:"threshold_used"`
	Truncated     bool     `json:"truncated,omitempty"`
}

// SummarizeTemperature returns nil when no reading is strictly above minValue
// (or when there are no readings at all and minValue is nil).
func SummarizeTemperature(values []float64, minValue *float64) *TemperatureSummary {
	var (
		sum   float64
		maxV  float64
		count int
	)
	for _, v := range values {
		if minValue != nil && !(v > *minValue) {
			continue
		}
		if count == 0 || v > maxV {
			maxV = v
		}
		sum += v
		count++
	}
	if count == 0 {
		return nil
	}

	var floor *float64
	if minValue != nil {
		f := *minValue
		floor = &f
	}

	return &TemperatureSummary{
		AvgTemp:       round(sum/float64(count), 1),
		MaxTemp:       round(maxV, 1),
		TotalReadings: count,
		ThresholdUsed: floor,
	}
}
