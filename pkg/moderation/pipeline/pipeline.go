package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/roleguard/roleguard/pkg/domain/rule"
	"github.com/roleguard/roleguard/pkg/infra/metrics"
	"github.com/roleguard/roleguard/pkg/moderation/arbiter"
	"github.com/roleguard/roleguard/pkg/moderation/learner"
	"github.com/roleguard/roleguard/pkg/moderation/matcher"
	"github.com/roleguard/roleguard/pkg/types"
)

const (
	detectionStaticPattern = "static_pattern"
	defaultQueueSize       = 64
	learnTimeout           = 30 * time.Second
)

// Judge is the context-review layer consulted when the static matcher fired.
type Judge interface {
	Judge(ctx context.Context, text, conversation string, matchedTerms []string, detectionMethod string) *types.JudgeResult
}

var _ Judge = (*arbiter.ContextArbiter)(nil)

// Learner is the background vocabulary-enrichment layer.
type Learner interface {
	LearnFromText(ctx context.Context, text string) int
}

var _ Learner = (*learner.VocabularyLearner)(nil)

// Pipeline runs one inbound message through the moderation layers and folds
// their judgments into a single Verdict. The learner runs on a worker
// goroutine fed by a bounded queue; when the queue is full the text is
// dropped, never the verdict delayed.
type Pipeline struct {
	matcher *matcher.StaticMatcher
	judge   Judge
	learner Learner
	logger  *logrus.Logger

	learnQueue chan string
	done       chan struct{}
	closeOnce  sync.Once
	wg         sync.WaitGroup
}

func NewPipeline(
	m *matcher.StaticMatcher,
	judge Judge,
	l Learner,
	queueSize int,
	logger *logrus.Logger,
) *Pipeline {
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	p := &Pipeline{
		matcher:    m,
		judge:      judge,
		learner:    l,
		logger:     logger,
		learnQueue: make(chan string, queueSize),
		done:       make(chan struct{}),
	}
	if l != nil {
		p.wg.Add(1)
		go p.learnWorker()
	}
	return p
}

// Input is one inbound message plus whatever surrounding knowledge the
// caller has: recent dialogue for the judge, and terms earlier turns
// already flagged.
type Input struct {
	Text         string
	Conversation string
	KnownTerms   []string
}

// Evaluate produces the moderation verdict for one inbound message. The
// static matcher always runs; the judge runs only when it matched something;
// the learner sees every message but can never gate the result.
func (p *Pipeline) Evaluate(ctx context.Context, in Input) types.Verdict {
	text := in.Text
	match := p.matcher.Match(text)
	p.enqueueLearn(text)

	verdict := types.Verdict{
		Tier:              match.Tier,
		Confidence:        1.0,
		MatchedTerms:      match.MatchedTerms,
		Categories:        match.Categories,
		LayersFired:       []string{types.LayerStaticMatcher},
		RecommendedAction: rule.ActionForTier(match.Tier),
	}

	if len(match.MatchedTerms) == 0 {
		verdict.Tier = rule.TierSafe
		verdict.RecommendedAction = rule.ActionAllow
		verdict.Reasoning = "no rule matched"
		metrics.VerdictsTotal.WithLabelValues(string(verdict.Tier), string(verdict.RecommendedAction)).Inc()
		return verdict
	}

	// Terms flagged in earlier turns sharpen the judge's reading but never
	// trigger arbitration by themselves.
	judgeTerms := match.MatchedTerms
	for _, term := range in.KnownTerms {
		if !containsString(judgeTerms, term) {
			judgeTerms = append(judgeTerms, term)
		}
	}
	result := p.judge.Judge(ctx, text, in.Conversation, judgeTerms, detectionStaticPattern)

	verdict.LayersFired = append(verdict.LayersFired, types.LayerVocabLearner, types.LayerContextArbiter)
	verdict.PreArbitrationTier = match.Tier
	verdict.Arbitration = result
	verdict.Confidence = result.Confidence
	verdict.Reasoning = result.Reason

	// The judge is authoritative once it has run.
	if result.FalsePositive {
		verdict.Tier = rule.TierSafe
		verdict.RecommendedAction = rule.ActionAllow
		verdict.FalsePositiveCorrected = true
		metrics.FalsePositivesCorrected.Inc()
	} else {
		verdict.RecommendedAction = result.RecommendedAction
		verdict.Tier = rule.TierForAction(result.RecommendedAction)
	}

	p.logger.WithFields(logrus.Fields{
		"tier":           verdict.Tier,
		"action":         verdict.RecommendedAction,
		"matches":        len(match.MatchedTerms),
		"false_positive": verdict.FalsePositiveCorrected,
	}).Info("moderation verdict")
	metrics.VerdictsTotal.WithLabelValues(string(verdict.Tier), string(verdict.RecommendedAction)).Inc()
	return verdict
}

// Close stops the learner worker and waits for in-flight learning to finish.
func (p *Pipeline) Close() {
	p.closeOnce.Do(func() {
		close(p.done)
	})
	p.wg.Wait()
}

func (p *Pipeline) enqueueLearn(text string) {
	if p.learner == nil {
		return
	}
	select {
	case p.learnQueue <- text:
	case <-p.done:
	default:
		p.logger.Debug("learn queue full, dropping text")
	}
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func (p *Pipeline) learnWorker() {
	defer p.wg.Done()
	for {
		select {
		case text := <-p.learnQueue:
			ctx, cancel := context.WithTimeout(context.Background(), learnTimeout)
			p.learner.LearnFromText(ctx, text)
			cancel()
		case <-p.done:
			return
		}
	}
}
