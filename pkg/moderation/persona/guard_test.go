package persona_test

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"github.com/roleguard/roleguard/pkg/config"
	"github.com/roleguard/roleguard/pkg/moderation/persona"
	"github.com/roleguard/roleguard/pkg/types"
)

func newGuard(cfg config.PersonaConfig) *persona.Guard {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return persona.NewGuard(cfg, logger)
}

func TestCheckOutbound_CleanReply(t *testing.T) {
	g := newGuard(config.PersonaConfig{})

	result := g.CheckOutbound("今日は楽しかったね!また明日話そう。")
	assert.True(t, result.IsValid)
	assert.Equal(t, types.LeakSafe, result.Severity)
	assert.Empty(t, result.DetectedTerms)
}

func TestCheckOutbound_IdentityLeakIsCritical(t *testing.T) {
	g := newGuard(config.PersonaConfig{})

	result := g.CheckOutbound("実は私は言語モデルなんです")
	assert.False(t, result.IsValid)
	assert.Equal(t, types.LeakCritical, result.Severity)
	assert.Contains(t, result.DetectedTerms, "言語モデル")
}

func TestCheckOutbound_ProductNameIsCritical(t *testing.T) {
	g := newGuard(config.PersonaConfig{})

	result := g.CheckOutbound("それはChatGPTに聞いた方が早いよ")
	assert.False(t, result.IsValid)
	assert.Equal(t, types.LeakCritical, result.Severity)
}

func TestCheckOutbound_TechnicalTermAloneIsWarning(t *testing.T) {
	g := newGuard(config.PersonaConfig{})

	result := g.CheckOutbound("昨日のデプロイで疲れちゃった")
	assert.True(t, result.IsValid)
	assert.Equal(t, types.LeakWarning, result.Severity)
}

func TestCheckOutbound_ASCIITermsNeedWordBoundaries(t *testing.T) {
	g := newGuard(config.PersonaConfig{})

	// "api" must not fire inside "rapid".
	result := g.CheckOutbound("the rapid river flows")
	assert.Equal(t, types.LeakSafe, result.Severity)

	result = g.CheckOutbound("check the API docs")
	assert.Equal(t, types.LeakWarning, result.Severity)
}

func TestCheckOutbound_ExtraTermsFromConfig(t *testing.T) {
	g := newGuard(config.PersonaConfig{
		ExtraForbiddenTerms: map[string][]string{
			"service": {"社内コードネーム"},
		},
	})

	result := g.CheckOutbound("これは社内コードネームだよ")
	assert.False(t, result.IsValid)
	assert.Equal(t, types.LeakCritical, result.Severity)
}

func TestCheckInbound_MetaQuestion(t *testing.T) {
	g := newGuard(config.PersonaConfig{})

	result := g.CheckInbound("ねえ、あなたはAIですか?")
	assert.True(t, result.IsMetaQuestion)
	assert.Equal(t, types.ModeDeflect, result.SuggestedMode)
}

func TestCheckInbound_NormalMessage(t *testing.T) {
	g := newGuard(config.PersonaConfig{})

	result := g.CheckInbound("今日の天気はどう?")
	assert.False(t, result.IsMetaQuestion)
	assert.Equal(t, types.ModeNormal, result.SuggestedMode)
}

func TestFallbackLine_KnownPersona(t *testing.T) {
	g := newGuard(config.PersonaConfig{
		FallbackLines: map[string][]string{
			"mono": {"それは秘密だよ"},
		},
	})

	assert.Equal(t, "それは秘密だよ", g.FallbackLine("mono"))
}

func TestFallbackLine_UnknownPersonaUsesDefault(t *testing.T) {
	g := newGuard(config.PersonaConfig{})

	line := g.FallbackLine("no-such-persona")
	assert.NotEmpty(t, line)
}

func TestFallbackLine_VariesAcrossCalls(t *testing.T) {
	g := newGuard(config.PersonaConfig{
		FallbackLines: map[string][]string{
			"varied": {"a", "b", "c", "d", "e", "f", "g", "h"},
		},
	})

	seen := make(map[string]struct{})
	for i := 0; i < 200; i++ {
		seen[g.FallbackLine("varied")] = struct{}{}
	}
	assert.Greater(t, len(seen), 1)
}
