package arbiter_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/roleguard/roleguard/pkg/config"
	"github.com/roleguard/roleguard/pkg/domain/rule"
	"github.com/roleguard/roleguard/pkg/infra/providers"
	factoryMocks "github.com/roleguard/roleguard/pkg/infra/providers/factory/mocks"
	providerMocks "github.com/roleguard/roleguard/pkg/infra/providers/mocks"
	"github.com/roleguard/roleguard/pkg/moderation/arbiter"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func newArbiter(t *testing.T, response string, callErr error) *arbiter.ContextArbiter {
	t.Helper()
	client := new(providerMocks.MockProviderClient)
	if callErr != nil {
		client.On("Ask", mock.Anything, mock.Anything, mock.Anything).Return(nil, callErr)
	} else {
		client.On("Ask", mock.Anything, mock.Anything, mock.Anything).Return(&providers.CompletionResponse{
			Response: response,
			Model:    "test-model",
		}, nil)
	}

	locator := new(factoryMocks.MockProviderLocator)
	locator.On("Get", "anthropic").Return(client, nil)

	return arbiter.NewContextArbiter(locator, config.JudgeConfig{
		Provider: "anthropic",
		Model:    "test-model",
	}, testLogger())
}

func TestJudge_FalsePositiveVerdict(t *testing.T) {
	a := newArbiter(t, `{"is_sensitive": false, "confidence": 0.9, "reason": "garment sense", "recommended_action": "allow", "false_positive": true, "context_analysis": "the word names clothing here"}`, nil)

	result := a.Judge(context.Background(), "新しいパンツを買った", "", []string{"パンツ"}, "static_pattern")
	assert.True(t, result.FalsePositive)
	assert.False(t, result.IsSensitive)
	assert.Equal(t, rule.ActionAllow, result.RecommendedAction)
	assert.Equal(t, 0.9, result.Confidence)
}

func TestJudge_SensitiveVerdict(t *testing.T) {
	a := newArbiter(t, `{"is_sensitive": true, "confidence": 0.95, "reason": "credible threat", "recommended_action": "block", "false_positive": false, "context_analysis": "directed at a person"}`, nil)

	result := a.Judge(context.Background(), "お前を殺す", "", []string{"殺す"}, "static_pattern")
	assert.True(t, result.IsSensitive)
	assert.Equal(t, rule.ActionBlock, result.RecommendedAction)
	assert.False(t, result.FalsePositive)
}

func TestJudge_ToleratesCodeFencedResponse(t *testing.T) {
	a := newArbiter(t, "Sure, here is my analysis:\n```json\n{\"is_sensitive\": false, \"confidence\": 0.8, \"recommended_action\": \"allow\", \"false_positive\": true}\n```\nLet me know if you need more.", nil)

	result := a.Judge(context.Background(), "text", "", []string{"term"}, "static_pattern")
	assert.True(t, result.FalsePositive)
	assert.Equal(t, rule.ActionAllow, result.RecommendedAction)
}

func TestJudge_ConversationIncludedInPrompt(t *testing.T) {
	client := new(providerMocks.MockProviderClient)
	client.On("Ask", mock.Anything, mock.Anything, mock.MatchedBy(func(prompt string) bool {
		return strings.Contains(prompt, "昨日ゲームで負けた")
	})).Return(&providers.CompletionResponse{
		Response: `{"is_sensitive": false, "confidence": 0.8, "recommended_action": "allow", "false_positive": true}`,
		Model:    "test-model",
	}, nil)

	locator := new(factoryMocks.MockProviderLocator)
	locator.On("Get", "anthropic").Return(client, nil)
	a := arbiter.NewContextArbiter(locator, config.JudgeConfig{Provider: "anthropic", Model: "test-model"}, testLogger())

	result := a.Judge(context.Background(), "殺す気か", "user: 昨日ゲームで負けた", []string{"殺す"}, "static_pattern")
	assert.True(t, result.FalsePositive)
	client.AssertExpectations(t)
}

func TestJudge_FailsSafeOnCallError(t *testing.T) {
	a := newArbiter(t, "", errors.New("connection refused"))

	result := a.Judge(context.Background(), "text", "", []string{"term"}, "static_pattern")
	assert.True(t, result.IsSensitive)
	assert.Equal(t, 0.5, result.Confidence)
	assert.Equal(t, rule.ActionWarn, result.RecommendedAction)
	assert.False(t, result.FalsePositive)
}

func TestJudge_FailsSafeOnUnparseableResponse(t *testing.T) {
	a := newArbiter(t, "I cannot answer in JSON today.", nil)

	result := a.Judge(context.Background(), "text", "", []string{"term"}, "static_pattern")
	assert.True(t, result.IsSensitive)
	assert.Equal(t, 0.5, result.Confidence)
	assert.Equal(t, rule.ActionWarn, result.RecommendedAction)
}

func TestJudge_FailsSafeOnUnknownProvider(t *testing.T) {
	locator := new(factoryMocks.MockProviderLocator)
	locator.On("Get", "nonexistent").Return(nil, errors.New("unsupported provider"))

	a := arbiter.NewContextArbiter(locator, config.JudgeConfig{Provider: "nonexistent", Model: "m"}, testLogger())
	result := a.Judge(context.Background(), "text", "", []string{"term"}, "static_pattern")
	assert.True(t, result.IsSensitive)
	assert.Equal(t, rule.ActionWarn, result.RecommendedAction)
}
