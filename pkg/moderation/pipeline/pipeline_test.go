package pipeline_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"github.com/roleguard/roleguard/pkg/domain/rule"
	"github.com/roleguard/roleguard/pkg/moderation/matcher"
	"github.com/roleguard/roleguard/pkg/moderation/patternstore"
	"github.com/roleguard/roleguard/pkg/moderation/pipeline"
	"github.com/roleguard/roleguard/pkg/types"
)

type stubJudge struct {
	mu               sync.Mutex
	result           *types.JudgeResult
	calls            int
	lastTerms        []string
	lastConversation string
}

func (s *stubJudge) Judge(ctx context.Context, text, conversation string, matchedTerms []string, detectionMethod string) *types.JudgeResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.lastTerms = matchedTerms
	s.lastConversation = conversation
	return s.result
}

func (s *stubJudge) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type stubLearner struct {
	mu    sync.Mutex
	texts []string
	done  chan struct{}
}

func (s *stubLearner) LearnFromText(ctx context.Context, text string) int {
	s.mu.Lock()
	s.texts = append(s.texts, text)
	s.mu.Unlock()
	select {
	case s.done <- struct{}{}:
	default:
	}
	return 0
}

func newPipeline(t *testing.T, judge pipeline.Judge, l pipeline.Learner) *pipeline.Pipeline {
	t.Helper()
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	store := patternstore.NewStore(logger, nil)
	m := matcher.NewStaticMatcher(store, logger)
	p := pipeline.NewPipeline(m, judge, l, 8, logger)
	t.Cleanup(p.Close)
	return p
}

func TestEvaluate_NoMatchShortCircuits(t *testing.T) {
	judge := &stubJudge{}
	p := newPipeline(t, judge, nil)

	verdict := p.Evaluate(context.Background(), pipeline.Input{Text: "今日はいい天気ですね"})
	assert.Equal(t, rule.TierSafe, verdict.Tier)
	assert.Equal(t, rule.ActionAllow, verdict.RecommendedAction)
	assert.Equal(t, []string{types.LayerStaticMatcher}, verdict.LayersFired)
	assert.Equal(t, 0, judge.callCount())
	assert.Nil(t, verdict.Arbitration)
}

func TestEvaluate_FalsePositiveCorrectedToSafe(t *testing.T) {
	judge := &stubJudge{result: &types.JudgeResult{
		IsSensitive:       false,
		Confidence:        0.9,
		Reason:            "garment sense",
		RecommendedAction: rule.ActionAllow,
		FalsePositive:     true,
	}}
	p := newPipeline(t, judge, nil)

	// "パンツ" matches a warning-tier seed rule; the judge reads it as the
	// garment and overturns the match.
	verdict := p.Evaluate(context.Background(), pipeline.Input{Text: "新しいパンツを買った"})
	assert.Equal(t, rule.TierSafe, verdict.Tier)
	assert.Equal(t, rule.ActionAllow, verdict.RecommendedAction)
	assert.True(t, verdict.FalsePositiveCorrected)
	assert.Equal(t, rule.TierWarning, verdict.PreArbitrationTier)
	assert.Equal(t, []string{types.LayerStaticMatcher, types.LayerVocabLearner, types.LayerContextArbiter}, verdict.LayersFired)
	assert.NotNil(t, verdict.Arbitration)
}

func TestEvaluate_ConfirmedMatchMapsActionToTier(t *testing.T) {
	judge := &stubJudge{result: &types.JudgeResult{
		IsSensitive:       true,
		Confidence:        0.95,
		Reason:            "credible threat",
		RecommendedAction: rule.ActionBlock,
	}}
	p := newPipeline(t, judge, nil)

	verdict := p.Evaluate(context.Background(), pipeline.Input{Text: "お前を殺すぞ"})
	assert.Equal(t, rule.TierCritical, verdict.Tier)
	assert.Equal(t, rule.ActionBlock, verdict.RecommendedAction)
	assert.False(t, verdict.FalsePositiveCorrected)
	assert.Equal(t, 0.95, verdict.Confidence)
}

func TestEvaluate_ArbiterDowngradeToWarning(t *testing.T) {
	judge := &stubJudge{result: &types.JudgeResult{
		IsSensitive:       true,
		Confidence:        0.6,
		Reason:            "fiction, but borderline",
		RecommendedAction: rule.ActionWarn,
	}}
	p := newPipeline(t, judge, nil)

	verdict := p.Evaluate(context.Background(), pipeline.Input{Text: "小説の中で殺す場面を書いた"})
	assert.Equal(t, rule.TierWarning, verdict.Tier)
	assert.Equal(t, rule.ActionWarn, verdict.RecommendedAction)
	assert.Equal(t, rule.TierCritical, verdict.PreArbitrationTier)
}

func TestEvaluate_KnownTermsAndConversationReachJudge(t *testing.T) {
	judge := &stubJudge{result: &types.JudgeResult{
		IsSensitive:       true,
		Confidence:        0.7,
		RecommendedAction: rule.ActionWarn,
	}}
	p := newPipeline(t, judge, nil)

	verdict := p.Evaluate(context.Background(), pipeline.Input{
		Text:         "お前を殺すぞ",
		Conversation: "user: 昨日ゲームで負けた\nbot: 悔しいですね",
		KnownTerms:   []string{"隠語X", "殺す"},
	})
	assert.Equal(t, rule.TierWarning, verdict.Tier)

	judge.mu.Lock()
	defer judge.mu.Unlock()
	assert.Contains(t, judge.lastTerms, "殺す")
	assert.Contains(t, judge.lastTerms, "隠語X")
	// a term already matched must not be duplicated by the caller hint
	count := 0
	for _, term := range judge.lastTerms {
		if term == "殺す" {
			count++
		}
	}
	assert.Equal(t, 1, count)
	assert.Contains(t, judge.lastConversation, "悔しいですね")
}

func TestEvaluate_KnownTermsAloneDoNotTriggerJudge(t *testing.T) {
	judge := &stubJudge{}
	p := newPipeline(t, judge, nil)

	verdict := p.Evaluate(context.Background(), pipeline.Input{
		Text:       "今日はいい天気ですね",
		KnownTerms: []string{"隠語X"},
	})
	assert.Equal(t, rule.TierSafe, verdict.Tier)
	assert.Equal(t, 0, judge.callCount())
}

func TestEvaluate_LearnerSeesEveryMessage(t *testing.T) {
	judge := &stubJudge{result: &types.JudgeResult{RecommendedAction: rule.ActionAllow}}
	l := &stubLearner{done: make(chan struct{}, 1)}
	p := newPipeline(t, judge, l)

	p.Evaluate(context.Background(), pipeline.Input{Text: "無害なメッセージ"})

	select {
	case <-l.done:
	case <-time.After(2 * time.Second):
		t.Fatal("learner was never fed")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	assert.Contains(t, l.texts, "無害なメッセージ")
}

func TestEvaluate_VerdictNotGatedByLearner(t *testing.T) {
	judge := &stubJudge{}
	slow := &blockingLearner{release: make(chan struct{})}
	p := newPipeline(t, judge, slow)
	defer close(slow.release)

	start := time.Now()
	p.Evaluate(context.Background(), pipeline.Input{Text: "学習は遅いが判定は速い"})
	assert.Less(t, time.Since(start), time.Second)
}

type blockingLearner struct {
	release chan struct{}
}

func (b *blockingLearner) LearnFromText(ctx context.Context, text string) int {
	<-b.release
	return 0
}
