package worker

import (
	"context"
	"fmt"

	"github.com/danbi-ai/danbi/pkg/models"
)

// Insight is one finding derived from the store metrics.
type Insight struct {
	Type       string
	Message    string
	Confidence float64
	Priority   string
}

// InsightGenerator derives findings from the collected metrics: visitor
// momentum, conversion performance, and product engagement.
type InsightGenerator struct {
	Data Dataset
}

// Invoke implements Worker.
func (g *InsightGenerator) Invoke(_ context.Context, task *models.Task) *models.AgentResult {
	insights := deriveInsights(g.Data)

	confidence := 0.5
	if len(insights) > 0 {
		sum := 0.0
		for _, in := range insights {
			sum += in.Confidence
		}
		confidence = sum / float64(len(insights))
	}

	return &models.AgentResult{
		TaskID: task.ID,
		Status: models.ResultSuccess,
		Payload: map[string]any{
			"insights":      insightMaps(insights),
			"analysis_type": task.Kind,
			"key_metrics": map[string]any{
				"performance_score": performanceScore(g.Data),
				"trend_direction":   trendDirection(g.Data.DailyVisitors),
				"risk_level":        riskLevel(insights),
			},
		},
		Confidence: confidence,
	}
}

// deriveInsights applies the fixed finding rules to the dataset. The
// recommender reuses it so both agents agree on the findings without
// sharing mutable state.
func deriveInsights(data Dataset) []Insight {
	var insights []Insight

	if len(data.DailyVisitors) >= 2 {
		recent, earlier := splitAverages(data.DailyVisitors)
		switch {
		case recent > earlier*1.1:
			insights = append(insights, Insight{
				Type:       "positive_trend",
				Message:    fmt.Sprintf("최근 방문객이 %.1f%% 증가 추세", (recent/earlier-1)*100),
				Confidence: 0.85,
				Priority:   "high",
			})
		case recent < earlier*0.9:
			insights = append(insights, Insight{
				Type:       "negative_trend",
				Message:    fmt.Sprintf("최근 방문객이 %.1f%% 감소 우려", (1-recent/earlier)*100),
				Confidence: 0.87,
				Priority:   "critical",
			})
		}
	}

	switch {
	case data.ConversionRate > 0.35:
		insights = append(insights, Insight{
			Type:       "performance",
			Message:    fmt.Sprintf("전환율 %.1f%%로 우수한 성과", data.ConversionRate*100),
			Confidence: 0.90,
			Priority:   "medium",
		})
	case data.ConversionRate < 0.25:
		insights = append(insights, Insight{
			Type:       "performance_issue",
			Message:    fmt.Sprintf("전환율 %.1f%%로 개선 필요", data.ConversionRate*100),
			Confidence: 0.88,
			Priority:   "high",
		})
	}

	if data.PickupRate < 0.08 {
		insights = append(insights, Insight{
			Type:       "engagement_issue",
			Message:    fmt.Sprintf("픽업률 %.1f%%로 상품 매력도 점검 필요", data.PickupRate*100),
			Confidence: 0.82,
			Priority:   "medium",
		})
	}

	return insights
}

// splitAverages compares the most recent three days against the earlier
// days. Short series fall back to last-vs-first.
func splitAverages(visitors []int) (recent, earlier float64) {
	n := len(visitors)
	if n >= 3 {
		recent = float64(visitors[n-3]+visitors[n-2]+visitors[n-1]) / 3
	} else {
		recent = float64(visitors[n-1])
	}
	if n > 3 {
		sum := 0
		for _, v := range visitors[:n-3] {
			sum += v
		}
		earlier = float64(sum) / float64(n-3)
	} else {
		earlier = float64(visitors[0])
	}
	return recent, earlier
}

func insightMaps(insights []Insight) []any {
	out := make([]any, len(insights))
	for i, in := range insights {
		out[i] = map[string]any{
			"type":       in.Type,
			"message":    in.Message,
			"confidence": in.Confidence,
			"priority":   in.Priority,
		}
	}
	return out
}

// performanceScore rates overall store performance in [0,1] from conversion
// and pickup rates.
func performanceScore(data Dataset) float64 {
	score := 0.5

	switch {
	case data.ConversionRate >= 0.35:
		score += 0.3
	case data.ConversionRate >= 0.25:
		score += 0.1
	}

	switch {
	case data.PickupRate >= 0.12:
		score += 0.2
	case data.PickupRate >= 0.08:
		score += 0.1
	}

	if score > 1.0 {
		score = 1.0
	}
	return score
}

// trendDirection classifies visitor momentum with a 5% dead band.
func trendDirection(visitors []int) string {
	if len(visitors) < 2 {
		return "insufficient_data"
	}
	recent, earlier := splitAverages(visitors)
	switch {
	case recent > earlier*1.05:
		return "increasing"
	case recent < earlier*0.95:
		return "decreasing"
	default:
		return "stable"
	}
}

// riskLevel grades the findings by their priorities.
func riskLevel(insights []Insight) string {
	critical, high := 0, 0
	for _, in := range insights {
		switch in.Priority {
		case "critical":
			critical++
		case "high":
			high++
		}
	}
	switch {
	case critical > 0:
		return "critical"
	case high > 1:
		return "high"
	case high == 1:
		return "medium"
	default:
		return "low"
	}
}
