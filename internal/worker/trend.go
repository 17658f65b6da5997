package worker

import (
	"context"
	"fmt"
	"math"

	"github.com/danbi-ai/danbi/pkg/models"
)

// TrendPredictor fits a linear trend to the visitor series and extrapolates
// one period ahead.
type TrendPredictor struct {
	Data Dataset
}

// Invoke implements Worker.
func (p *TrendPredictor) Invoke(_ context.Context, task *models.Task) *models.AgentResult {
	trends := map[string]any{}
	var forecast any = "N/A"

	visitors := p.Data.DailyVisitors
	if len(visitors) >= 3 {
		slope := linearSlope(visitors)
		direction := "increasing"
		if slope <= 0 {
			direction = "decreasing"
		}
		next := float64(visitors[len(visitors)-1]) + slope
		forecast = next
		trends["visitor_trend"] = map[string]any{
			"direction":            direction,
			"strength":             math.Abs(slope),
			"forecast_next_period": next,
			"confidence":           0.75,
		}
	}

	return &models.AgentResult{
		TaskID: task.ID,
		Status: models.ResultSuccess,
		Payload: map[string]any{
			"trends":        trends,
			"trend_summary": summarizeTrends(trends),
			"predictions": map[string]any{
				"next_week_forecast":  forecast,
				"confidence_interval": "±15%",
			},
		},
		Confidence: 0.79,
	}
}

// linearSlope is the least-squares slope of the series over day indices.
func linearSlope(values []int) float64 {
	n := float64(len(values))
	var sumX, sumY, sumXY, sumXX float64
	for i, v := range values {
		x, y := float64(i), float64(v)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}
	return (n*sumXY - sumX*sumY) / (n*sumXX - sumX*sumX)
}

func summarizeTrends(trends map[string]any) string {
	if len(trends) == 0 {
		return "충분한 데이터가 없어 트렌드를 파악할 수 없습니다."
	}
	visitorTrend, ok := trends["visitor_trend"].(map[string]any)
	if !ok {
		return "트렌드 패턴이 명확하지 않습니다."
	}

	strength, _ := visitorTrend["strength"].(float64)
	if visitorTrend["direction"] == "increasing" {
		return fmt.Sprintf("방문객 수가 상승 추세입니다 (강도: %.2f)", strength)
	}
	return fmt.Sprintf("방문객 수가 하락 추세입니다 (강도: %.2f)", strength)
}
