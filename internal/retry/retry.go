// Package retry implements the bounded error-handling policy: a failed
// stage is retried up to a configured maximum, after which the session
// terminates with a degraded result instead of an error.
package retry

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/danbi-ai/danbi/internal/state"
)

// DefaultMaxRetries is the default retry budget per session.
const DefaultMaxRetries = 2

// degradedConfidence marks a result produced after retry exhaustion.
const degradedConfidence = 0.1

// Handler applies the retry policy to a session that entered error handling.
type Handler struct {
	maxRetries int
	logger     *zap.Logger
}

// Option configures a Handler.
type Option func(*Handler)

// WithMaxRetries sets the retry budget.
func WithMaxRetries(n int) Option {
	return func(h *Handler) {
		if n >= 0 {
			h.maxRetries = n
		}
	}
}

// WithLogger sets the handler's logger.
func WithLogger(logger *zap.Logger) Option {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// New creates a Handler with the default budget.
func New(opts ...Option) *Handler {
	h := &Handler{
		maxRetries: DefaultMaxRetries,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// MaxRetries returns the configured retry budget.
func (h *Handler) MaxRetries() int {
	return h.maxRetries
}

// Handle mutates the session after a stage failure. While budget remains it
// consumes one retry and leaves FailedStage set, so the router loops back to
// the failed stage. On exhaustion it writes the degraded final insight,
// drops the confidence score, and clears FailedStage, so the session
// terminates.
func (h *Handler) Handle(st *state.SessionState) {
	if st.RetryCount < h.maxRetries {
		st.RetryCount++
		h.logger.Warn("stage failed, retrying",
			zap.String("session", st.SessionID),
			zap.String("stage", st.FailedStage),
			zap.Int("attempt", st.RetryCount),
			zap.Int("max_retries", h.maxRetries))
		return
	}

	h.logger.Error("retry budget exhausted, degrading",
		zap.String("session", st.SessionID),
		zap.String("stage", st.FailedStage),
		zap.Strings("errors", st.LastErrors(2)))

	st.FinalInsight = degradedInsight(st.LastErrors(2))
	st.ConfidenceScore = degradedConfidence
	st.FailedStage = ""
}

// degradedInsight is the apology report returned when analysis could not be
// completed.
func degradedInsight(lastErrors []string) string {
	return fmt.Sprintf(
		"# ⚠️ 분석 오류\n\n"+
			"죄송합니다. 요청을 완전히 처리하는 중 기술적 문제가 발생했습니다.\n"+
			"기본적인 상태 정보는 다음과 같습니다:\n\n"+
			"• 시스템이 정상 작동 중입니다\n"+
			"• 데이터 수집 기능이 활성화되어 있습니다\n"+
			"• 잠시 후 다시 시도해 주시기 바랍니다\n\n"+
			"**오류 내용**: %s",
		strings.Join(lastErrors, "; "))
}
