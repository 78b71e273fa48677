package models

// DatasetInfo describes the uploaded CSV as reported by the ML service.
type DatasetInfo struct {
	FileName  string       `json:"fileName"`
	FileSize  string       `json:"fileSize"`
	Records   int          `json:"records"`
	Features  int          `json:"features"`
	PassRate  int          `json:"passRate"`
	DateRange DatasetRange `json:"dateRange"`
}

type DatasetRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// DatePeriod is one inclusive calendar period (dates are YYYY-MM-DD).
type DatePeriod struct {
	Start string `json:"start"`
	End   string `json:"end"`
	Days  int    `json:"days"`
}

// DateRanges splits the dataset into training, testing and simulation periods.
type DateRanges struct {
	Training   DatePeriod `json:"training"`
	Testing    DatePeriod `json:"testing"`
	Simulation DatePeriod `json:"simulation"`
}

// ModelMetrics is the evaluation summary of the last trained model.
type ModelMetrics struct {
	Accuracy       float64 `json:"accuracy"`
	Precision      float64 `json:"precision"`
	Recall         float64 `json:"recall"`
	F1Score        float64 `json:"f1Score"`
	TrainingData   string  `json:"trainingData"`
	ValidationData string  `json:"validationData"`
	SimulationData string  `json:"simulationData"`
}

// Training algorithms accepted by the ML service.
const (
	AlgorithmLogReg   = "sklearn_logreg"
	AlgorithmXGBoost  = "xgboost"
	AlgorithmLightGBM = "lightgbm"
)

// TrainRequest is the body relayed to POST /api/train.
type TrainRequest struct {
	Model       string   `json:"model,omitempty"`
	Target      *string  `json:"target,omitempty"`
	TestSize    *float64 `json:"test_size,omitempty"`
	RandomState *int     `json:"random_state,omitempty"`
}

// TrainResponse is the ML service reply to a successful training run.
type TrainResponse struct {
	ModelID   string       `json:"model_id"`
	Algorithm string       `json:"algorithm"`
	Metrics   ModelMetrics `json:"metrics"`
	Features  []string     `json:"features"`
	Target    string       `json:"target"`
}

// WorkflowState is the persisted part of the shared state: everything the
// guided workflow produced before the live simulation.
type WorkflowState struct {
	Dataset      *DatasetInfo  `json:"dataset"`
	DateRanges   *DateRanges   `json:"dateRanges"`
	ModelMetrics *ModelMetrics `json:"modelMetrics"`
}
