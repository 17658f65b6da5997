package models

// IntentLabel classifies the purpose of a user query.
type IntentLabel string

const (
	// IntentDiagnostic asks about the current state of a metric.
	IntentDiagnostic IntentLabel = "diagnostic"
	// IntentComparative asks for a comparison between periods or segments.
	IntentComparative IntentLabel = "comparative"
	// IntentTrend asks about change over time.
	IntentTrend IntentLabel = "trend"
	// IntentPredictive asks for a forecast.
	IntentPredictive IntentLabel = "predictive"
	// IntentOptimization asks for improvement suggestions.
	IntentOptimization IntentLabel = "optimization"
	// IntentAnomaly asks whether something unusual happened.
	IntentAnomaly IntentLabel = "anomaly"
	// IntentSimple is a greeting, thanks, or other trivial input that
	// needs no analysis.
	IntentSimple IntentLabel = "simple_response"
)

// Valid returns true if the label is a known value.
func (l IntentLabel) Valid() bool {
	switch l {
	case IntentDiagnostic, IntentComparative, IntentTrend, IntentPredictive,
		IntentOptimization, IntentAnomaly, IntentSimple:
		return true
	default:
		return false
	}
}

// Intent is the classified purpose of a user query. It is produced once per
// session by the intent classifier and is immutable afterward.
type Intent struct {
	// Primary is the dominant intent label.
	Primary IntentLabel `json:"primary"`
	// Secondary lists additional detected labels, or for simple inputs the
	// matched category (greeting, thanks, test, simple).
	Secondary []string `json:"secondary,omitempty"`
	// Confidence is the classifier's certainty in [0,1].
	Confidence float64 `json:"confidence"`
	// IsSimple marks trivial inputs that bypass all analytic stages.
	IsSimple bool `json:"is_simple,omitempty"`
}

// TimePeriod identifies the time range a query refers to.
type TimePeriod string

const (
	PeriodToday     TimePeriod = "today"
	PeriodYesterday TimePeriod = "yesterday"
	PeriodThisWeek  TimePeriod = "this_week"
	PeriodLastWeek  TimePeriod = "last_week"
)

// Urgency indicates how quickly a query should be handled.
type Urgency string

const (
	UrgencyNormal Urgency = "normal"
	UrgencyHigh   Urgency = "high"
)

// Metadata holds attributes extracted from the query alongside the intent.
// It is consumed by the task decomposer and copied into every task's params.
type Metadata struct {
	// TimePeriod is the detected time range (defaults to this_week).
	TimePeriod TimePeriod `json:"time_period,omitempty"`
	// Metrics lists the metric names mentioned in the query
	// (visitors, sales, conversion, pickup, dwell_time).
	Metrics []string `json:"metrics,omitempty"`
	// Urgency is the detected urgency level.
	Urgency Urgency `json:"urgency,omitempty"`
}

// Clone returns a deep copy of the metadata.
func (m Metadata) Clone() Metadata {
	out := m
	if m.Metrics != nil {
		out.Metrics = append([]string(nil), m.Metrics...)
	}
	return out
}
