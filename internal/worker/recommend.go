package worker

import (
	"context"
	"sort"
	"strings"

	"github.com/danbi-ai/danbi/pkg/models"
)

// recommendation is one prioritized action with its expected impact.
type recommendation struct {
	Priority           string
	Action             string
	ExpectedImpact     string
	ImplementationTime string
	ROIEstimate        string
}

var priorityRank = map[string]int{
	"CRITICAL": 0,
	"HIGH":     1,
	"MEDIUM":   2,
	"LOW":      3,
}

// Recommender turns findings into prioritized actions plus an
// implementation roadmap. Without actionable findings it falls back to a
// keep-monitoring recommendation, so it never returns an empty list.
type Recommender struct {
	Data Dataset
}

// Invoke implements Worker.
func (r *Recommender) Invoke(_ context.Context, task *models.Task) *models.AgentResult {
	recs := buildRecommendations(r.Data)

	prioritized := make([]recommendation, len(recs))
	copy(prioritized, recs)
	sort.SliceStable(prioritized, func(i, j int) bool {
		return priorityRank[prioritized[i].Priority] < priorityRank[prioritized[j].Priority]
	})

	return &models.AgentResult{
		TaskID: task.ID,
		Status: models.ResultSuccess,
		Payload: map[string]any{
			"recommendations":        recommendationMaps(recs),
			"prioritized_actions":    recommendationMaps(prioritized),
			"implementation_roadmap": buildRoadmap(recs),
		},
		Confidence: 0.82,
	}
}

func buildRecommendations(data Dataset) []recommendation {
	var recs []recommendation

	for _, insight := range deriveInsights(data) {
		switch insight.Type {
		case "negative_trend":
			recs = append(recs, recommendation{
				Priority:           "HIGH",
				Action:             "방문객 유입 채널 다각화 및 프로모션 강화",
				ExpectedImpact:     "15-20% 방문객 증가",
				ImplementationTime: "1-2주",
				ROIEstimate:        "월 매출 10-15% 증대",
			})
		case "performance_issue":
			recs = append(recs, recommendation{
				Priority:           "CRITICAL",
				Action:             "전환 장벽 분석 및 구매 동선 최적화",
				ExpectedImpact:     "전환율 5-8% 포인트 개선",
				ImplementationTime: "3-5일",
				ROIEstimate:        "월 순이익 20-25% 증가",
			})
		case "engagement_issue":
			recs = append(recs, recommendation{
				Priority:           "MEDIUM",
				Action:             "상품 진열 및 시각적 어필 강화",
				ExpectedImpact:     "픽업률 3-5% 포인트 개선",
				ImplementationTime: "1-2일",
				ROIEstimate:        "월 매출 5-8% 증가",
			})
		}
	}

	if data.DataQuality < 0.8 {
		recs = append(recs, recommendation{
			Priority:           "MEDIUM",
			Action:             "데이터 수집 시스템 점검 및 품질 개선",
			ExpectedImpact:     "분석 정확도 향상",
			ImplementationTime: "1주일",
			ROIEstimate:        "장기적 의사결정 품질 개선",
		})
	}

	if len(recs) == 0 {
		recs = append(recs, recommendation{
			Priority:           "LOW",
			Action:             "현재 성과 유지 및 지속적 모니터링",
			ExpectedImpact:     "안정적 운영 지속",
			ImplementationTime: "지속",
			ROIEstimate:        "현 수준 유지",
		})
	}
	return recs
}

// buildRoadmap buckets actions by how fast they can land.
func buildRoadmap(recs []recommendation) map[string]any {
	immediate := []any{}
	shortTerm := []any{}
	mediumTerm := []any{}

	for _, rec := range recs {
		switch {
		case containsAnyWord(rec.ImplementationTime, "즉시", "바로", "24시간", "1-2일"):
			immediate = append(immediate, rec.Action)
		case containsAnyWord(rec.ImplementationTime, "주", "week"):
			shortTerm = append(shortTerm, rec.Action)
		default:
			mediumTerm = append(mediumTerm, rec.Action)
		}
	}

	return map[string]any{
		"immediate":   immediate,
		"short_term":  shortTerm,
		"medium_term": mediumTerm,
	}
}

func containsAnyWord(s string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func recommendationMaps(recs []recommendation) []any {
	out := make([]any, len(recs))
	for i, rec := range recs {
		out[i] = map[string]any{
			"priority":            rec.Priority,
			"action":              rec.Action,
			"expected_impact":     rec.ExpectedImpact,
			"implementation_time": rec.ImplementationTime,
			"roi_estimate":        rec.ROIEstimate,
		}
	}
	return out
}
