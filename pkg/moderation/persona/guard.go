package persona

import (
	"fmt"
	"math/rand"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"github.com/roleguard/roleguard/pkg/config"
	"github.com/roleguard/roleguard/pkg/infra/metrics"
	"github.com/roleguard/roleguard/pkg/moderation/matcher"
	"github.com/roleguard/roleguard/pkg/types"
)

// Guard keeps generated replies inside the persona: it flags outbound text
// that leaks the system behind the character and advises on inbound
// questions that probe for it. It runs outside the inbound verdict chain.
type Guard struct {
	groups        []termGroup
	fallbackLines map[string][]string
	logger        *logrus.Logger
}

func NewGuard(cfg config.PersonaConfig, logger *logrus.Logger) *Guard {
	groups := make([]termGroup, len(outboundGroups))
	copy(groups, outboundGroups)
	for name, terms := range cfg.ExtraForbiddenTerms {
		groups = append(groups, termGroup{
			name:     name,
			severity: types.LeakCritical,
			terms:    terms,
		})
	}

	lines := make(map[string][]string, len(defaultFallbackLines))
	for id, l := range defaultFallbackLines {
		lines[id] = l
	}
	for id, l := range cfg.FallbackLines {
		if len(l) > 0 {
			lines[id] = l
		}
	}

	return &Guard{
		groups:        groups,
		fallbackLines: lines,
		logger:        logger,
	}
}

// CheckOutbound scans a generated reply against the forbidden term taxonomy.
// Identity and product leaks are critical regardless of anything else; a
// reply that only trips technical jargon is a warning and may still ship.
func (g *Guard) CheckOutbound(text string) types.PersonaLeakResult {
	folded := matcher.Fold(text)

	result := types.PersonaLeakResult{
		IsValid:  true,
		Severity: types.LeakSafe,
	}
	var groupNames []string

	for _, group := range g.groups {
		hit := false
		for _, term := range group.terms {
			if containsTerm(folded, matcher.Fold(term)) {
				result.DetectedTerms = append(result.DetectedTerms, term)
				hit = true
			}
		}
		if !hit {
			continue
		}
		groupNames = append(groupNames, group.name)
		if group.severity == types.LeakCritical {
			result.Severity = types.LeakCritical
		} else if result.Severity == types.LeakSafe {
			result.Severity = types.LeakWarning
		}
	}

	if result.Severity == types.LeakCritical {
		result.IsValid = false
	}
	if result.Severity != types.LeakSafe {
		result.Reason = fmt.Sprintf("forbidden vocabulary: %s", strings.Join(groupNames, ", "))
		metrics.PersonaLeaks.WithLabelValues(string(result.Severity)).Inc()
		g.logger.WithFields(logrus.Fields{
			"severity": result.Severity,
			"groups":   groupNames,
		}).Warn("persona leak detected")
	}
	return result
}

// CheckInbound scans a user message for "are you artificial / who built you"
// probes. Advisory only.
func (g *Guard) CheckInbound(text string) types.MetaCheckResult {
	folded := matcher.Fold(text)
	for _, template := range metaQuestionTemplates {
		if strings.Contains(folded, template) {
			return types.MetaCheckResult{
				IsMetaQuestion: true,
				SuggestedMode:  types.ModeDeflect,
			}
		}
	}
	return types.MetaCheckResult{SuggestedMode: types.ModeNormal}
}

// FallbackLine picks a deflection line for the given persona, randomized so
// repeated leaks do not produce the same canned reply. Unknown personas fall
// back to the default set.
func (g *Guard) FallbackLine(personaID string) string {
	lines, ok := g.fallbackLines[personaID]
	if !ok || len(lines) == 0 {
		lines = g.fallbackLines[defaultPersonaID]
	}
	return lines[rand.Intn(len(lines))]
}

// containsTerm reports whether folded text contains the folded term. ASCII
// terms additionally require non-alphanumeric boundaries so "api" does not
// fire inside "rapid"; CJK terms match by pure containment since those
// scripts carry no whitespace word boundaries.
func containsTerm(folded, term string) bool {
	if term == "" {
		return false
	}
	if !isASCIIWord(term) {
		return strings.Contains(folded, term)
	}
	for from := 0; ; {
		i := strings.Index(folded[from:], term)
		if i < 0 {
			return false
		}
		i += from
		before, _ := utf8.DecodeLastRuneInString(folded[:i])
		after, _ := utf8.DecodeRuneInString(folded[i+len(term):])
		if !isWordRune(before) && !isWordRune(after) {
			return true
		}
		from = i + len(term)
	}
}

func isASCIIWord(s string) bool {
	for _, r := range s {
		if r > unicode.MaxASCII || (!unicode.IsLetter(r) && !unicode.IsDigit(r)) {
			return false
		}
	}
	return true
}

func isWordRune(r rune) bool {
	return r <= unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r))
}
