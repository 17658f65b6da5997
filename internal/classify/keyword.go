package classify

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/danbi-ai/danbi/pkg/models"
)

// fastPathMaxRunes bounds how long a query can be and still take the simple
// fast path.
const fastPathMaxRunes = 20

// simplePatterns are checked in order against short queries. The interrogative
// fillers of the "simple" category are suppressed when the query names a
// metric, so "방문객수 어떻게 되나요" still gets full analysis.
var simplePatterns = []struct {
	category string
	keywords []string
}{
	{"greeting", []string{"안녕", "hello", "hi", "좋은", "반가", "헬로"}},
	{"thanks", []string{"고마워", "감사", "thank"}},
	{"test", []string{"테스트", "test", "확인"}},
	{"simple", []string{"뭐", "어떻게", "뭔데", "무엇"}},
}

// intentPatterns score the full classification. Order fixes tie-breaking and
// the order of secondary labels.
var intentPatterns = []struct {
	label    models.IntentLabel
	keywords []string
}{
	{models.IntentDiagnostic, []string{"현재", "상태", "어떻게", "분석"}},
	{models.IntentComparative, []string{"비교", "대비", "차이", "vs", "지난"}},
	{models.IntentTrend, []string{"트렌드", "추세", "변화", "패턴", "시간"}},
	{models.IntentPredictive, []string{"예측", "전망", "앞으로", "미래"}},
	{models.IntentOptimization, []string{"개선", "최적화", "향상", "방법"}},
	{models.IntentAnomaly, []string{"이상", "문제", "급증", "급감", "갑자기"}},
}

// KeywordClassifier classifies queries by keyword matching alone. It never
// fails, which makes it the fallback for the model-backed classifier.
type KeywordClassifier struct{}

// NewKeywordClassifier creates a keyword-only classifier.
func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{}
}

// Classify implements Classifier.
func (k *KeywordClassifier) Classify(_ context.Context, query string) (models.Intent, error) {
	if intent, ok := FastPath(query); ok {
		return intent, nil
	}

	lower := strings.ToLower(query)
	var (
		primary   models.IntentLabel
		best      int
		secondary []string
	)
	for _, p := range intentPatterns {
		score := 0
		for _, kw := range p.keywords {
			if strings.Contains(lower, kw) {
				score++
			}
		}
		if score == 0 {
			continue
		}
		secondary = append(secondary, string(p.label))
		if score > best {
			best = score
			primary = p.label
		}
	}

	if best == 0 {
		primary = models.IntentDiagnostic
	}
	return models.Intent{
		Primary:    primary,
		Secondary:  secondary,
		Confidence: 0.7,
	}, nil
}

// FastPath detects trivial queries that bypass all analytic stages. The
// second return value is false when the query needs full classification.
func FastPath(query string) (models.Intent, bool) {
	if utf8.RuneCountInString(query) >= fastPathMaxRunes {
		return models.Intent{}, false
	}
	lower := strings.ToLower(query)
	for _, p := range simplePatterns {
		if p.category == "simple" && mentionsMetric(query) {
			continue
		}
		if containsAny(lower, p.keywords...) {
			return models.Intent{
				Primary:    models.IntentSimple,
				Secondary:  []string{p.category},
				Confidence: 0.9,
				IsSimple:   true,
			}, true
		}
	}
	return models.Intent{}, false
}
