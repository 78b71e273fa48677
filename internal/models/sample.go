package models

// Prediction is the inspection verdict attached to a simulated sample.
type Prediction string

const (
	PredictionPass Prediction = "Pass"
	PredictionFail Prediction = "Fail"
)

// Valid reports whether p is one of the known verdicts.
func (p Prediction) Valid() bool {
	return p == PredictionPass || p == PredictionFail
}

// SimulationSample is one labeled inspection result emitted by the ML service.
// Values are never mutated after decoding.
type SimulationSample struct {
	Time        string     `json:"time"`        // wall clock of emission, e.g. "14:03:27"
	SampleID    string     `json:"sampleId"`    // SAMPLE_001, SAMPLE_002, ...
	Prediction  Prediction `json:"prediction"`  // Pass | Fail
	Confidence  float64    `json:"confidence"`  // 0..100
	Temperature float64    `json:"temperature"` // °C
	Pressure    float64    `json:"pressure"`    // hPa
	Humidity    float64    `json:"humidity"`    // %
}

// LiveStatistics aggregates the current simulation window.
type LiveStatistics struct {
	Total         int `json:"total"`
	Pass          int `json:"pass"`
	Fail          int `json:"fail"`
	AvgConfidence int `json:"avgConfidence"`
}

// RunState is the ML service acknowledgement for start/stop signals.
type RunState struct {
	Running bool `json:"running"`
}

// ClearState is the ML service acknowledgement for a clear signal.
type ClearState struct {
	Cleared bool `json:"cleared"`
}
