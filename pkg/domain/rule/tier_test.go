package rule_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roleguard/roleguard/pkg/domain/rule"
)

func TestTierForSeverity(t *testing.T) {
	cases := []struct {
		severity int
		expected rule.Tier
	}{
		{1, rule.TierSafe},
		{4, rule.TierSafe},
		{5, rule.TierWarning},
		{7, rule.TierWarning},
		{8, rule.TierCritical},
		{10, rule.TierCritical},
	}
	for _, c := range cases {
		assert.Equal(t, c.expected, rule.TierForSeverity(c.severity), "severity %d", c.severity)
	}
}

func TestTierDominates(t *testing.T) {
	assert.True(t, rule.TierCritical.Dominates(rule.TierWarning))
	assert.True(t, rule.TierWarning.Dominates(rule.TierSafe))
	assert.False(t, rule.TierSafe.Dominates(rule.TierWarning))
	assert.False(t, rule.TierWarning.Dominates(rule.TierWarning))
}

func TestActionTierRoundTrip(t *testing.T) {
	for _, tier := range []rule.Tier{rule.TierSafe, rule.TierWarning, rule.TierCritical} {
		assert.Equal(t, tier, rule.TierForAction(rule.ActionForTier(tier)))
	}
}

func TestRuleIsValid(t *testing.T) {
	valid := rule.Rule{Term: "x y", Severity: 5, MatchMode: rule.MatchSubstring}
	assert.True(t, valid.IsValid())

	assert.False(t, rule.Rule{Term: "", Severity: 5, MatchMode: rule.MatchSubstring}.IsValid())
	assert.False(t, rule.Rule{Term: "x", Severity: 0, MatchMode: rule.MatchSubstring}.IsValid())
	assert.False(t, rule.Rule{Term: "x", Severity: 11, MatchMode: rule.MatchSubstring}.IsValid())
	assert.False(t, rule.Rule{Term: "x", Severity: 5, MatchMode: "fuzzy"}.IsValid())
}
