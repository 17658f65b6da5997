package worker

import (
	"context"
	"fmt"
	"math"

	"github.com/danbi-ai/danbi/pkg/models"
)

// AnomalyDetector flags days whose visitor counts fall outside two standard
// deviations of the period mean.
type AnomalyDetector struct {
	Data Dataset
}

// Invoke implements Worker.
func (d *AnomalyDetector) Invoke(_ context.Context, task *models.Task) *models.AgentResult {
	anomalies := []any{}

	visitors := d.Data.DailyVisitors
	if len(visitors) > 2 {
		mean, std := meanStd(visitors)
		for i, v := range visitors {
			dev := math.Abs(float64(v) - mean)
			if dev <= 2*std {
				continue
			}
			severity := "medium"
			if dev > 3*std {
				severity = "high"
			}
			anomalies = append(anomalies, map[string]any{
				"date_index":     i,
				"metric":         "daily_visitors",
				"value":          v,
				"expected_range": fmt.Sprintf("%.0f-%.0f", mean-2*std, mean+2*std),
				"deviation":      fmt.Sprintf("%+.1f%%", (float64(v)/mean-1)*100),
				"severity":       severity,
			})
		}
	}

	days := len(visitors)
	if days == 0 {
		days = 1
	}

	return &models.AgentResult{
		TaskID: task.ID,
		Status: models.ResultSuccess,
		Payload: map[string]any{
			"anomalies":        anomalies,
			"anomaly_score":    float64(len(anomalies)) / float64(days),
			"detection_method": "statistical_threshold",
		},
		Confidence: 0.88,
	}
}

func meanStd(values []int) (mean, std float64) {
	sum := 0
	for _, v := range values {
		sum += v
	}
	mean = float64(sum) / float64(len(values))

	variance := 0.0
	for _, v := range values {
		diff := float64(v) - mean
		variance += diff * diff
	}
	variance /= float64(len(values))
	return mean, math.Sqrt(variance)
}
