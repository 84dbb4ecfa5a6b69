package arbiter

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/roleguard/roleguard/pkg/config"
	"github.com/roleguard/roleguard/pkg/domain/rule"
	"github.com/roleguard/roleguard/pkg/infra/metrics"
	"github.com/roleguard/roleguard/pkg/infra/providers"
	"github.com/roleguard/roleguard/pkg/infra/providers/factory"
	"github.com/roleguard/roleguard/pkg/types"
)

const defaultJudgeTimeout = 60 * time.Second

// ContextArbiter asks an external LLM judge to confirm or correct a static
// keyword match using the surrounding context. It can only ever tighten or
// loosen a match the earlier layers produced; it is never consulted for
// unmatched text.
type ContextArbiter struct {
	locator factory.ProviderLocator
	cfg     config.JudgeConfig
	logger  *logrus.Logger
}

func NewContextArbiter(locator factory.ProviderLocator, cfg config.JudgeConfig, logger *logrus.Logger) *ContextArbiter {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultJudgeTimeout
	}
	return &ContextArbiter{
		locator: locator,
		cfg:     cfg,
		logger:  logger,
	}
}

// Judge reviews flagged text in context. conversation carries the recent
// dialogue when the caller has it. Any failure, from an unreachable provider
// to unparseable output, fails safe: the content stays flagged at warning
// strength rather than passing unreviewed.
func (a *ContextArbiter) Judge(ctx context.Context, text, conversation string, matchedTerms []string, detectionMethod string) *types.JudgeResult {
	client, err := a.locator.Get(a.cfg.Provider)
	if err != nil {
		a.logger.WithError(err).Error("judge provider unavailable")
		metrics.JudgeCalls.WithLabelValues("call_error").Inc()
		return failSafe("judge provider unavailable")
	}

	ctx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
	defer cancel()

	started := time.Now()
	resp, err := client.Ask(ctx, &providers.Config{
		Credentials: providers.Credentials{
			ApiKey: a.cfg.APIKey,
		},
		Model:        a.cfg.Model,
		MaxTokens:    a.cfg.MaxTokens,
		Temperature:  a.cfg.Temperature,
		SystemPrompt: systemPrompt,
	}, buildPrompt(text, conversation, matchedTerms, detectionMethod))
	metrics.JudgeLatency.Observe(time.Since(started).Seconds())

	if err != nil {
		a.logger.WithError(err).Error("judge call failed")
		metrics.JudgeCalls.WithLabelValues("call_error").Inc()
		return failSafe("judge call failed")
	}

	result, err := parseJudgeResponse(resp.Response)
	if err != nil {
		a.logger.WithError(err).WithField("model", resp.Model).Error("judge response unparseable")
		metrics.JudgeCalls.WithLabelValues("parse_error").Inc()
		return failSafe("judge response unparseable")
	}

	metrics.JudgeCalls.WithLabelValues("ok").Inc()
	a.logger.WithFields(logrus.Fields{
		"sensitive":      result.IsSensitive,
		"confidence":     result.Confidence,
		"action":         result.RecommendedAction,
		"false_positive": result.FalsePositive,
	}).Debug("judge verdict")
	return result
}

// failSafe is the arbiter's answer when it cannot produce a real one:
// treat the content as sensitive at middling confidence and keep the
// existing flag standing as a warning. Unreviewed content is never allowed
// through on the arbiter's authority.
func failSafe(reason string) *types.JudgeResult {
	return &types.JudgeResult{
		IsSensitive:       true,
		Confidence:        0.5,
		Reason:            reason,
		RecommendedAction: rule.ActionWarn,
		FalsePositive:     false,
	}
}
