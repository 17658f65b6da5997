// Package synthesize merges all agent results into the final report and its
// aggregate confidence score.
package synthesize

import (
	"fmt"
	"strings"

	"github.com/danbi-ai/danbi/internal/state"
	"github.com/danbi-ai/danbi/pkg/models"
)

// Canned responses for the simple-query fast path, keyed by the matched
// category.
var simpleResponses = map[string]string{
	"greeting": "안녕하세요! 멀티 에이전트 분석 시스템입니다. 어떤 분석이나 인사이트가 필요하신가요? 도움이 필요하시면 언제든지 말씀해 주세요.",
	"thanks":   "천만에요! 더 도움이 필요하시면 언제든지 말씀해 주세요.",
	"test":     "시스템이 정상 작동 중입니다! 멀티 에이전트 분석 시스템이 준비되어 있습니다.",
	"simple":   "구체적으로 어떤 분석이나 정보가 필요하신가요? 예를 들어 '이번 주 방문객 수는?', '매출 트렌드는?' 같은 질문을 해주세요.",
}

// fastPathConfidence is the fixed score for canned responses.
const fastPathConfidence = 0.9

// Task kinds grouped by which report section their payloads feed.
var (
	dataKinds           = []string{"data_collection", "comparative_data_collection", "time_series_collection", "historical_data_collection", "performance_analysis", "data_validation"}
	insightKinds        = []string{"insight_generation", "comparative_analysis", "optimization_analysis"}
	recommendationKinds = []string{"recommendation", "action_planning"}
	anomalyKinds        = []string{"anomaly_detection"}
	trendKinds          = []string{"trend_analysis", "predictive_analysis"}
)

// Synthesize produces the final insight document and confidence score from
// the session's results. Simple intents get a canned response; everything
// else gets the sectioned report built from whatever results exist.
func Synthesize(st *state.SessionState) (string, float64) {
	if st.Intent.IsSimple || st.Intent.Primary == models.IntentSimple {
		category := "greeting"
		if len(st.Intent.Secondary) > 0 {
			category = st.Intent.Secondary[0]
		}
		response, ok := simpleResponses[category]
		if !ok {
			response = simpleResponses["greeting"]
		}
		return response, fastPathConfidence
	}

	return fullReport(st), Confidence(st.SuccessfulResults())
}

// Confidence aggregates successful result confidences. The mean is weighted
// down when fewer than five results are present, pulling sparse sessions
// toward the 0.1 floor. No successes at all means a neutral 0.5.
func Confidence(results []*models.AgentResult) float64 {
	if len(results) == 0 {
		return 0.5
	}
	sum := 0.0
	for _, r := range results {
		sum += r.Confidence
	}
	mean := sum / float64(len(results))

	weight := float64(len(results)) / 5
	if weight > 1 {
		weight = 1
	}
	return mean*weight + 0.1*(1-weight)
}

func fullReport(st *state.SessionState) string {
	data := payloadByKinds(st, dataKinds)
	insight := payloadByKinds(st, insightKinds)
	recommendation := payloadByKinds(st, recommendationKinds)
	anomaly := payloadByKinds(st, anomalyKinds)
	trend := payloadByKinds(st, trendKinds)

	parts := []string{"# 📊 Executive Summary"}

	summary := summaryLine(data)
	if summary == "" {
		if len(st.SuccessfulResults()) == 0 {
			summary = "분석을 완료하지 못했습니다. 수집된 결과가 없습니다."
		} else {
			summary = "데이터 분석이 완료되었습니다."
		}
	}
	parts = append(parts, summary, "", "## 🔍 Key Insights")

	findings := keyFindings(insight, anomaly, trend)
	if len(findings) == 0 {
		findings = []string{"• 특별한 이상사항은 발견되지 않았습니다."}
	}
	parts = append(parts, findings...)

	if recs := topRecommendations(recommendation); len(recs) > 0 {
		parts = append(parts, "", "## 💡 주요 추천사항")
		parts = append(parts, recs...)
	}

	successes := st.SuccessfulResults()
	parts = append(parts, "",
		fmt.Sprintf("**분석 신뢰도**: %.1f%%", Confidence(successes)*100),
		fmt.Sprintf("**처리 완료**: %d개 작업", len(successes)))

	return strings.Join(parts, "\n")
}

// payloadByKinds returns the first successful payload among the kinds.
func payloadByKinds(st *state.SessionState, kinds []string) map[string]any {
	for _, kind := range kinds {
		if r := st.ResultByKind(kind); r != nil {
			return r.Payload
		}
	}
	return nil
}

func summaryLine(data map[string]any) string {
	if data == nil {
		return ""
	}
	var pieces []string
	if visitors, ok := data["daily_visitors"].([]any); ok && len(visitors) > 0 {
		if last, ok := asFloat(visitors[len(visitors)-1]); ok {
			pieces = append(pieces, fmt.Sprintf("📊 **현재 성과**: 일평균 방문객 %.0f명", last))
		}
	}
	if rate, ok := asFloat(data["conversion_rate"]); ok {
		pieces = append(pieces, fmt.Sprintf("전환율 %.1f%%", rate*100))
	}
	return strings.Join(pieces, " ")
}

func keyFindings(insight, anomaly, trend map[string]any) []string {
	var findings []string

	if insight != nil {
		if insights, ok := insight["insights"].([]any); ok {
			for _, raw := range insights {
				if m, ok := raw.(map[string]any); ok {
					if msg, ok := m["message"].(string); ok {
						findings = append(findings, "• "+msg)
					}
				}
			}
		}
	}

	if anomaly != nil {
		if anomalies, ok := anomaly["anomalies"].([]any); ok && len(anomalies) > 0 {
			findings = append(findings, fmt.Sprintf("• ⚠️ %d개 이상 패턴 감지", len(anomalies)))
		}
	}

	if trend != nil {
		if trends, ok := trend["trends"].(map[string]any); ok {
			if visitorTrend, ok := trends["visitor_trend"].(map[string]any); ok {
				direction := "하락"
				if visitorTrend["direction"] == "increasing" {
					direction = "상승"
				}
				findings = append(findings, fmt.Sprintf("• 📈 방문객 추세: %s세", direction))
			}
		}
	}

	return findings
}

func topRecommendations(recommendation map[string]any) []string {
	if recommendation == nil {
		return nil
	}
	recs, ok := recommendation["recommendations"].([]any)
	if !ok {
		return nil
	}

	var out []string
	for _, raw := range recs {
		if len(out) == 3 {
			break
		}
		m, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		priority, _ := m["priority"].(string)
		action, _ := m["action"].(string)
		impact, _ := m["expected_impact"].(string)
		out = append(out, fmt.Sprintf("🎯 **%s**: %s\n   └ 예상 효과: %s", priority, action, impact))
	}
	return out
}

// asFloat reads a numeric payload value, which is float64 after a JSON
// round trip but may still be an int for in-process results.
func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}
