package learner_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/roleguard/roleguard/pkg/cache"
	"github.com/roleguard/roleguard/pkg/config"
	"github.com/roleguard/roleguard/pkg/domain/rule"
	ruleMocks "github.com/roleguard/roleguard/pkg/domain/rule/mocks"
	"github.com/roleguard/roleguard/pkg/infra/lookup"
	lookupMocks "github.com/roleguard/roleguard/pkg/infra/lookup/mocks"
	"github.com/roleguard/roleguard/pkg/moderation/learner"
	"github.com/roleguard/roleguard/pkg/moderation/patternstore"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func newLearner(t *testing.T, provider lookup.Provider, repo rule.Repository) (*learner.VocabularyLearner, *patternstore.Store) {
	t.Helper()
	logger := testLogger()
	store := patternstore.NewStore(logger, nil)
	quota := cache.NewQuotaCache(config.RedisConfig{}, config.QuotaConfig{
		DailyLimit:   90,
		MonthlyLimit: 2700,
		CacheTTL:     7 * 24 * time.Hour,
	}, logger, nil)
	l := learner.NewVocabularyLearner(store, quota, provider, repo, config.LearnerConfig{
		CandidateCap:  3,
		MinTermLength: 2,
	}, logger)
	return l, store
}

func queryContains(substr string) interface{} {
	return mock.MatchedBy(func(q string) bool {
		return strings.Contains(q, substr)
	})
}

func TestLearnFromText_AcceptsSensitiveTerm(t *testing.T) {
	provider := new(lookupMocks.MockLookupProvider)
	provider.On("Search", mock.Anything, queryContains("ナニカゴ"), mock.Anything).
		Return("この語は性的な隠語として使われるスラングです", nil)
	provider.On("Search", mock.Anything, mock.Anything, mock.Anything).
		Return("普通の言葉です", nil)

	l, store := newLearner(t, provider, nil)

	accepted := l.LearnFromText(context.Background(), "昨日ナニカゴという言葉を聞いた")
	assert.Equal(t, 1, accepted)
	assert.True(t, store.Contains("ナニカゴ"))
}

func TestLearnFromText_IgnoresBenignTerm(t *testing.T) {
	provider := new(lookupMocks.MockLookupProvider)
	provider.On("Search", mock.Anything, mock.Anything, mock.Anything).
		Return("果物の一種。甘くて美味しい。", nil)

	l, store := newLearner(t, provider, nil)

	accepted := l.LearnFromText(context.Background(), "ドラゴンフルーツを食べた")
	assert.Equal(t, 0, accepted)
	assert.False(t, store.Contains("ドラゴンフルーツ"))
}

func TestLearnFromText_SkipsKnownTerms(t *testing.T) {
	provider := new(lookupMocks.MockLookupProvider)

	l, _ := newLearner(t, provider, nil)

	// Every candidate already has a seed rule, so no lookup happens.
	l.LearnFromText(context.Background(), "パンツ")
	provider.AssertNotCalled(t, "Search", mock.Anything, mock.Anything, mock.Anything)
}

func TestLearnFromText_SilentOnProviderFailure(t *testing.T) {
	provider := new(lookupMocks.MockLookupProvider)
	provider.On("Search", mock.Anything, mock.Anything, mock.Anything).
		Return("", lookup.ErrUnavailable)

	l, store := newLearner(t, provider, nil)

	accepted := l.LearnFromText(context.Background(), "ミステリ単語を聞いた")
	assert.Equal(t, 0, accepted)
	assert.False(t, store.Contains("ミステリ単語"))
}

func TestLearnFromText_RespectsCandidateCap(t *testing.T) {
	provider := new(lookupMocks.MockLookupProvider)
	provider.On("Search", mock.Anything, mock.Anything, mock.Anything).
		Return("普通の言葉です", nil)

	logger := testLogger()
	store := patternstore.NewStore(logger, nil)
	quota := cache.NewQuotaCache(config.RedisConfig{}, config.QuotaConfig{
		DailyLimit: 90, MonthlyLimit: 2700, CacheTTL: time.Hour,
	}, logger, nil)
	l := learner.NewVocabularyLearner(store, quota, provider, nil, config.LearnerConfig{
		CandidateCap:  1,
		MinTermLength: 2,
	}, logger)

	l.LearnFromText(context.Background(), "アルファ ブラボー チャーリー デルタ")

	// One candidate probed, two queries per probe.
	provider.AssertNumberOfCalls(t, "Search", 2)
}

func TestLearnFromText_AppendsAuditRow(t *testing.T) {
	provider := new(lookupMocks.MockLookupProvider)
	provider.On("Search", mock.Anything, queryContains("ゼッタイ"), mock.Anything).
		Return("暴力的な表現として知られる", nil)
	provider.On("Search", mock.Anything, mock.Anything, mock.Anything).
		Return("普通の言葉です", nil)

	repo := new(ruleMocks.MockRuleRepository)
	repo.On("AppendCandidate", mock.Anything, mock.Anything).Return(nil)

	l, _ := newLearner(t, provider, repo)

	accepted := l.LearnFromText(context.Background(), "ゼッタイ単語という言葉")
	assert.Equal(t, 1, accepted)
	repo.AssertCalled(t, "AppendCandidate", mock.Anything, mock.MatchedBy(func(c *rule.Candidate) bool {
		return c.Accepted && c.Category == rule.CategoryViolence && c.Term == "ゼッタイ"
	}))
}

func TestLearnFromText_DeniedByQuota(t *testing.T) {
	provider := new(lookupMocks.MockLookupProvider)

	logger := testLogger()
	store := patternstore.NewStore(logger, nil)
	quota := cache.NewQuotaCache(config.RedisConfig{}, config.QuotaConfig{
		DailyLimit: 1, MonthlyLimit: 1, LowReserve: 2, NormalReserve: 1, CacheTTL: time.Hour,
	}, logger, nil)
	l := learner.NewVocabularyLearner(store, quota, provider, nil, config.LearnerConfig{
		CandidateCap:  3,
		MinTermLength: 2,
	}, logger)

	// Low-priority probes fall inside the daily reserve and are denied.
	accepted := l.LearnFromText(context.Background(), "クォータ単語を聞いた")
	assert.Equal(t, 0, accepted)
	provider.AssertNotCalled(t, "Search", mock.Anything, mock.Anything, mock.Anything)
}
