package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/bedrock"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/aws/aws-sdk-go-v2/config"
	"go.uber.org/zap"

	"github.com/danbi-ai/danbi/pkg/models"
)

// ClaudeConfig contains configuration for creating a ClaudeClassifier.
type ClaudeConfig struct {
	// Model is the Claude model to use.
	Model anthropic.Model
	// APIKey is the Anthropic API key. If empty, uses ANTHROPIC_API_KEY env var.
	APIKey string
	// UseAWSBedrock indicates whether to use AWS Bedrock instead of direct API.
	UseAWSBedrock bool
	// AWSRegion is the AWS region for Bedrock (e.g., "us-west-2").
	AWSRegion string
	// AWSProfile is the optional AWS profile name to use.
	AWSProfile string
	// Logger receives fallback warnings. Nil means no logging.
	Logger *zap.Logger
}

// ClaudeClassifier classifies queries with a Claude model. Trivial queries
// are handled locally without an API call, and any model failure degrades to
// keyword classification, so Classify never returns an error in practice.
type ClaudeClassifier struct {
	inner    anthropic.Client
	model    anthropic.Model
	fallback *KeywordClassifier
	logger   *zap.Logger
}

// NewClaudeClassifier creates a model-backed classifier.
func NewClaudeClassifier(cfg ClaudeConfig) (*ClaudeClassifier, error) {
	var opts []option.RequestOption

	if cfg.UseAWSBedrock {
		ctx := context.Background()

		var loadOpts []func(*config.LoadOptions) error
		if cfg.AWSRegion != "" {
			loadOpts = append(loadOpts, config.WithRegion(cfg.AWSRegion))
		}
		if cfg.AWSProfile != "" {
			loadOpts = append(loadOpts, config.WithSharedConfigProfile(cfg.AWSProfile))
		}

		opts = append(opts, bedrock.WithLoadDefaultConfig(ctx, loadOpts...))
	} else {
		apiKey := cfg.APIKey
		if apiKey == "" {
			apiKey = os.Getenv("ANTHROPIC_API_KEY")
		}
		if apiKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY environment variable is not set")
		}
		opts = append(opts, option.WithAPIKey(apiKey))
	}

	model := cfg.Model
	if model == "" {
		model = anthropic.ModelClaude3_5Haiku20241022
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &ClaudeClassifier{
		inner:    anthropic.NewClient(opts...),
		model:    model,
		fallback: NewKeywordClassifier(),
		logger:   logger,
	}, nil
}

const intentPrompt = `사용자 질문을 분석하여 주요 의도를 분류해주세요:

질문: %q

다음 의도 중에서 가장 적합한 것들을 선택하고 우선순위를 매겨주세요:
1. diagnostic - 현재 상태 진단
2. comparative - 비교 분석
3. trend - 트렌드/시계열 분석
4. predictive - 예측 분석
5. optimization - 개선/최적화 제안
6. anomaly - 이상 탐지

JSON 형식으로만 응답:
{"primary": "가장_중요한_의도", "secondary": ["부차적_의도들"], "confidence": 0.9}`

// Classify implements Classifier.
func (c *ClaudeClassifier) Classify(ctx context.Context, query string) (models.Intent, error) {
	if intent, ok := FastPath(query); ok {
		return intent, nil
	}

	intent, err := c.classifyWithModel(ctx, query)
	if err != nil {
		c.logger.Warn("model classification failed, using keyword fallback",
			zap.Error(err))
		return c.fallback.Classify(ctx, query)
	}
	return intent, nil
}

func (c *ClaudeClassifier) classifyWithModel(ctx context.Context, query string) (models.Intent, error) {
	resp, err := c.inner.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: 1024,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(fmt.Sprintf(intentPrompt, query))),
		},
	})
	if err != nil {
		return models.Intent{}, fmt.Errorf("messages api: %w", err)
	}

	var text string
	for _, block := range resp.Content {
		if variant, ok := block.AsAny().(anthropic.TextBlock); ok {
			text += variant.Text
		}
	}
	return parseIntentJSON(text)
}

// parseIntentJSON decodes the model's intent response, tolerating prose
// around the JSON object.
func parseIntentJSON(text string) (models.Intent, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return models.Intent{}, fmt.Errorf("no JSON object in response %q", text)
	}

	var raw struct {
		Primary    string   `json:"primary"`
		Secondary  []string `json:"secondary"`
		Confidence float64  `json:"confidence"`
	}
	if err := json.Unmarshal([]byte(text[start:end+1]), &raw); err != nil {
		return models.Intent{}, fmt.Errorf("decode intent: %w", err)
	}

	primary := models.IntentLabel(raw.Primary)
	if !primary.Valid() || primary == models.IntentSimple {
		return models.Intent{}, fmt.Errorf("unknown intent label %q", raw.Primary)
	}
	if raw.Confidence < 0 || raw.Confidence > 1 {
		return models.Intent{}, fmt.Errorf("confidence %v out of range", raw.Confidence)
	}
	return models.Intent{
		Primary:    primary,
		Secondary:  raw.Secondary,
		Confidence: raw.Confidence,
	}, nil
}
