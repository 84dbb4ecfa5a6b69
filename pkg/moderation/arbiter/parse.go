package arbiter

import (
	"fmt"
	"strings"

	"github.com/valyala/fastjson"

	"github.com/roleguard/roleguard/pkg/domain/rule"
	"github.com/roleguard/roleguard/pkg/types"
)

// parseJudgeResponse extracts the judge's JSON object from raw model output,
// tolerating code fences and surrounding prose, and validates the required
// fields. Optional fields get defaults; absence of a required field is an
// error so the caller can fail safe.
func parseJudgeResponse(raw string) (*types.JudgeResult, error) {
	payload := extractJSONObject(raw)
	if payload == "" {
		return nil, fmt.Errorf("no JSON object in judge response")
	}

	v, err := fastjson.Parse(payload)
	if err != nil {
		return nil, fmt.Errorf("malformed judge response: %w", err)
	}

	sensitive := v.Get("is_sensitive")
	if sensitive == nil || sensitive.Type() != fastjson.TypeTrue && sensitive.Type() != fastjson.TypeFalse {
		return nil, fmt.Errorf("judge response missing is_sensitive")
	}

	result := &types.JudgeResult{
		IsSensitive:     sensitive.GetBool(),
		Confidence:      0.5,
		Reason:          string(v.GetStringBytes("reason")),
		FalsePositive:   v.GetBool("false_positive"),
		ContextAnalysis: string(v.GetStringBytes("context_analysis")),
	}

	if c := v.Get("confidence"); c != nil && c.Type() == fastjson.TypeNumber {
		result.Confidence = clamp01(c.GetFloat64())
	}

	switch action := rule.Action(v.GetStringBytes("recommended_action")); action {
	case rule.ActionBlock, rule.ActionWarn, rule.ActionAllow:
		result.RecommendedAction = action
	case "":
		if result.IsSensitive {
			result.RecommendedAction = rule.ActionWarn
		} else {
			result.RecommendedAction = rule.ActionAllow
		}
	default:
		return nil, fmt.Errorf("judge response has unknown action %q", action)
	}

	// A false positive claim overrides contradictory fields.
	if result.FalsePositive {
		result.IsSensitive = false
		result.RecommendedAction = rule.ActionAllow
	}

	return result, nil
}

// extractJSONObject returns the first balanced top-level JSON object in raw,
// skipping braces inside string literals.
func extractJSONObject(raw string) string {
	start := strings.IndexByte(raw, '{')
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(raw); i++ {
		c := raw[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return raw[start : i+1]
			}
		}
	}
	return ""
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
