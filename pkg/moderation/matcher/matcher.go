package matcher

import (
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"

	"github.com/roleguard/roleguard/pkg/domain/rule"
	"github.com/roleguard/roleguard/pkg/moderation/patternstore"
	"github.com/roleguard/roleguard/pkg/types"
)

// StaticMatcher applies the pattern store's rules to text. It has no side
// effects and is deterministic for a fixed store snapshot.
type StaticMatcher struct {
	store  *patternstore.Store
	logger *logrus.Logger
}

func NewStaticMatcher(store *patternstore.Store, logger *logrus.Logger) *StaticMatcher {
	return &StaticMatcher{
		store:  store,
		logger: logger,
	}
}

// Match scans text against every active rule. The tier is the maximum
// severity band among all matches; MatchedTerms lists every matched rule
// term, not just the winning one.
func (m *StaticMatcher) Match(text string) types.MatchResult {
	snapshot := m.store.Snapshot()
	folded := Fold(text)

	result := types.MatchResult{Tier: rule.TierSafe}
	seenCategories := make(map[string]struct{})

	for _, r := range snapshot.Rules {
		var matched bool
		switch r.MatchMode {
		case rule.MatchSubstring:
			matched = strings.Contains(folded, Fold(r.Term))
		case rule.MatchRegex:
			re, ok := snapshot.Regex(r.Term)
			if !ok {
				continue
			}
			matched = re.MatchString(text) || re.MatchString(folded)
		}
		if !matched {
			continue
		}

		result.MatchedTerms = append(result.MatchedTerms, r.Term)
		if _, ok := seenCategories[string(r.Category)]; !ok {
			seenCategories[string(r.Category)] = struct{}{}
			result.Categories = append(result.Categories, string(r.Category))
		}
		if tier := r.Tier(); tier.Dominates(result.Tier) {
			result.Tier = tier
		}
	}

	if len(result.MatchedTerms) > 0 {
		m.logger.WithFields(logrus.Fields{
			"tier":    result.Tier,
			"matches": len(result.MatchedTerms),
		}).Debug("static match")
	}
	return result
}

// Fold canonicalizes text for containment matching: NFKC, half/full width
// folding and lower-casing, so mixed-script variants match one rule term.
func Fold(text string) string {
	return strings.ToLower(width.Fold.String(norm.NFKC.String(text)))
}
