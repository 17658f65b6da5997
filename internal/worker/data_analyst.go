package worker

import (
	"context"
	"time"

	"github.com/danbi-ai/danbi/pkg/models"
)

// DataAnalyst collects the raw store metrics every downstream analysis
// builds on. Its confidence is the dataset's quality score.
type DataAnalyst struct {
	Data Dataset
}

// Invoke implements Worker.
func (a *DataAnalyst) Invoke(_ context.Context, task *models.Task) *models.AgentResult {
	visitors := make([]any, len(a.Data.DailyVisitors))
	for i, v := range a.Data.DailyVisitors {
		visitors[i] = v
	}
	zones := make([]any, len(a.Data.TopZones))
	for i, z := range a.Data.TopZones {
		zones[i] = z
	}

	return &models.AgentResult{
		TaskID: task.ID,
		Status: models.ResultSuccess,
		Payload: map[string]any{
			"daily_visitors":       visitors,
			"conversion_rate":      a.Data.ConversionRate,
			"pickup_rate":          a.Data.PickupRate,
			"avg_dwell_time":       a.Data.AvgDwellTime,
			"top_zones":            zones,
			"data_quality":         a.Data.DataQuality,
			"sample_size":          a.Data.SampleSize,
			"collection_timestamp": time.Now().Format(time.RFC3339),
		},
		Confidence: a.Data.DataQuality,
	}
}
