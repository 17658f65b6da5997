// Package classify turns a raw user query into an Intent plus extracted
// Metadata. The primary classifier calls Claude; a keyword classifier serves
// as its fallback and as the offline default.
package classify

import (
	"context"
	"strings"

	"github.com/danbi-ai/danbi/pkg/models"
)

// Classifier determines the intent of a user query.
type Classifier interface {
	Classify(ctx context.Context, query string) (models.Intent, error)
}

// metricKeywords maps Korean metric mentions to canonical metric names.
// Order is fixed so extracted metrics are deterministic.
var metricKeywords = []struct {
	korean string
	name   string
}{
	{"방문객", "visitors"},
	{"매출", "sales"},
	{"전환율", "conversion"},
	{"픽업", "pickup"},
	{"체류", "dwell_time"},
}

// ExtractMetadata derives the time period, mentioned metrics, and urgency
// from the query text. It is keyword based regardless of which classifier
// produced the intent.
func ExtractMetadata(query string) models.Metadata {
	md := models.Metadata{
		TimePeriod: models.PeriodThisWeek,
		Urgency:    models.UrgencyNormal,
	}

	switch {
	case containsAny(query, "오늘", "today"):
		md.TimePeriod = models.PeriodToday
	case containsAny(query, "어제", "yesterday"):
		md.TimePeriod = models.PeriodYesterday
	case containsAny(query, "지난 주", "last week"):
		md.TimePeriod = models.PeriodLastWeek
	}

	for _, m := range metricKeywords {
		if strings.Contains(query, m.korean) {
			md.Metrics = append(md.Metrics, m.name)
		}
	}

	if containsAny(query, "긴급", "당장", "urgent") {
		md.Urgency = models.UrgencyHigh
	}
	return md
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func mentionsMetric(query string) bool {
	for _, m := range metricKeywords {
		if strings.Contains(query, m.korean) {
			return true
		}
	}
	return false
}
