package service

import (
	"math"

	"intelliinspect/internal/models"
)

// Aggregate derives the live statistics of a window. It has no side effects
// and an empty window yields all zeros.
func Aggregate(window []models.SimulationSample) models.LiveStatistics {
	total := len(window)
	if total == 0 {
		return models.LiveStatistics{}
	}

	pass := 0
	sum := 0.0
	for _, s := range window {
		if s.Prediction == models.PredictionPass {
			pass++
		}
		sum += s.Confidence
	}

	return models.LiveStatistics{
		Total:         total,
		Pass:          pass,
		Fail:          total - pass,
		AvgConfidence: int(math.Round(sum / float64(total))),
	}
}
