package learner

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/roleguard/roleguard/pkg/cache"
	"github.com/roleguard/roleguard/pkg/config"
	"github.com/roleguard/roleguard/pkg/domain/rule"
	"github.com/roleguard/roleguard/pkg/infra/lookup"
	"github.com/roleguard/roleguard/pkg/infra/metrics"
	"github.com/roleguard/roleguard/pkg/moderation/patternstore"
)

// probeTemplates are the bias-declaring queries fired per candidate term. The
// query text itself names the categories being probed, so the lookup result
// answers "does this source associate the term with anything sensitive"
// rather than "what does the term mean".
var probeTemplates = []string{
	"%s とは 意味 隠語 スラング",
	"%s slang meaning nsfw offensive",
}

// VocabularyLearner discovers new sensitive vocabulary from live traffic.
// It probes unknown terms against an external lookup source, classifies the
// snippets heuristically and feeds accepted terms back into the pattern
// store. Every step degrades silently; the learner never gates a verdict.
type VocabularyLearner struct {
	store    *patternstore.Store
	quota    *cache.QuotaCache
	provider lookup.Provider
	repo     rule.Repository
	cfg      config.LearnerConfig
	logger   *logrus.Logger
	group    singleflight.Group
}

func NewVocabularyLearner(
	store *patternstore.Store,
	quota *cache.QuotaCache,
	provider lookup.Provider,
	repo rule.Repository,
	cfg config.LearnerConfig,
	logger *logrus.Logger,
) *VocabularyLearner {
	if cfg.CandidateCap <= 0 {
		cfg.CandidateCap = 3
	}
	if cfg.MinTermLength <= 0 {
		cfg.MinTermLength = 2
	}
	return &VocabularyLearner{
		store:    store,
		quota:    quota,
		provider: provider,
		repo:     repo,
		cfg:      cfg,
		logger:   logger,
	}
}

// LearnFromText probes up to the configured number of unknown terms from
// text and returns how many new rules were accepted into the store.
func (l *VocabularyLearner) LearnFromText(ctx context.Context, text string) int {
	candidates := ExtractCandidates(text, l.cfg.MinTermLength)

	accepted := 0
	probed := 0
	for _, term := range candidates {
		if probed >= l.cfg.CandidateCap {
			break
		}
		if l.store.Contains(term) {
			continue
		}
		probed++

		added, err, _ := l.group.Do(term, func() (interface{}, error) {
			return l.probe(ctx, term), nil
		})
		if err == nil && added.(bool) {
			accepted++
		}
	}
	return accepted
}

// probe runs the lookup-classify-insert cycle for one term. It returns true
// only when a genuinely new rule was inserted.
func (l *VocabularyLearner) probe(ctx context.Context, term string) bool {
	digest, queries := l.gatherEvidence(ctx, term)
	if digest == "" {
		return false
	}

	result := classifyDigest(digest)
	acceptedRule := result.severity > 0

	if l.repo != nil {
		candidate := &rule.Candidate{
			ID:         uuid.New(),
			Term:       term,
			Category:   result.category,
			Severity:   result.severity,
			Accepted:   acceptedRule,
			Evidence:   digest,
			QueryCount: queries,
			CreatedAt:  time.Now(),
		}
		if err := l.repo.AppendCandidate(ctx, candidate); err != nil {
			l.logger.WithError(err).WithField("term", term).Warn("failed to append learner audit row")
		}
	}

	if !acceptedRule {
		return false
	}

	inserted, err := l.store.Insert(ctx, rule.Rule{
		Term:        term,
		Category:    result.category,
		Subcategory: result.subcategory,
		Severity:    result.severity,
		MatchMode:   rule.MatchSubstring,
		Action:      rule.ActionForTier(rule.TierForSeverity(result.severity)),
		Provenance:  rule.ProvenanceLearned,
		Notes:       "signals: " + strings.Join(result.signals, ","),
	})
	if err != nil {
		l.logger.WithError(err).WithField("term", term).Warn("failed to insert learned rule")
		return false
	}
	if inserted {
		metrics.TermsLearned.WithLabelValues(string(result.category)).Inc()
		l.logger.WithFields(logrus.Fields{
			"term":     term,
			"category": result.category,
			"severity": result.severity,
		}).Info("learned new term")
	}
	return inserted
}

// gatherEvidence collects lookup snippets for every probe query, preferring
// cached results and spending quota only on misses. It returns the
// concatenated digest and the number of external calls actually made.
func (l *VocabularyLearner) gatherEvidence(ctx context.Context, term string) (string, int) {
	var parts []string
	calls := 0

	for _, template := range probeTemplates {
		query := fmt.Sprintf(template, term)

		if cached, ok := l.quota.Get(ctx, query); ok {
			parts = append(parts, cached)
			continue
		}

		admitted, reason := l.quota.TryAdmit(ctx, cache.PriorityLow)
		if !admitted {
			l.logger.WithFields(logrus.Fields{
				"term":   term,
				"reason": reason,
			}).Debug("lookup denied by quota")
			continue
		}

		calls++
		snippet, err := l.provider.Search(ctx, query, 0)
		if err != nil {
			l.logger.WithError(err).WithField("term", term).Debug("lookup failed")
			continue
		}
		l.quota.Put(ctx, query, snippet)
		parts = append(parts, snippet)
	}

	return strings.Join(parts, "\n"), calls
}
