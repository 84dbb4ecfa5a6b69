package types

import (
	"github.com/roleguard/roleguard/pkg/domain/rule"
)

// Layer names recorded on a Verdict for provenance.
const (
	LayerStaticMatcher  = "layer1"
	LayerVocabLearner   = "layer2"
	LayerContextArbiter = "layer3"
)

// Verdict is the unified output of one pipeline evaluation. It is constructed
// once per input text and never mutated after return; persistence is the
// caller's concern.
type Verdict struct {
	Tier                   rule.Tier   `json:"tier"`
	Confidence             float64     `json:"confidence"`
	MatchedTerms           []string    `json:"matched_terms"`
	Categories             []string    `json:"categories"`
	LayersFired            []string    `json:"layers_fired"`
	RecommendedAction      rule.Action `json:"recommended_action"`
	Reasoning              string      `json:"reasoning"`
	FalsePositiveCorrected bool        `json:"false_positive_corrected"`

	// Audit trail when the arbiter ran: the static tier before arbitration
	// and the arbiter's structured result.
	PreArbitrationTier rule.Tier    `json:"pre_arbitration_tier,omitempty"`
	Arbitration        *JudgeResult `json:"arbitration,omitempty"`
}

// JudgeResult is the parsed, validated form of the external judge's JSON
// response. Missing optional fields are defaulted at the parse boundary.
type JudgeResult struct {
	IsSensitive       bool        `json:"is_sensitive"`
	Confidence        float64     `json:"confidence"`
	Reason            string      `json:"reason"`
	RecommendedAction rule.Action `json:"recommended_action"`
	FalsePositive     bool        `json:"false_positive"`
	ContextAnalysis   string      `json:"context_analysis"`
}

// MatchResult is the static matcher's provisional judgment.
type MatchResult struct {
	Tier         rule.Tier `json:"tier"`
	MatchedTerms []string  `json:"matched_terms"`
	Categories   []string  `json:"categories"`
}

type LeakSeverity string

const (
	LeakSafe     LeakSeverity = "safe"
	LeakWarning  LeakSeverity = "warning"
	LeakCritical LeakSeverity = "critical"
)

// PersonaLeakResult is the outbound persona-guard judgment for one generated
// reply. Ephemeral, per call.
type PersonaLeakResult struct {
	IsValid       bool         `json:"is_valid"`
	DetectedTerms []string     `json:"detected_terms"`
	Severity      LeakSeverity `json:"severity"`
	Reason        string       `json:"reason"`
}

// MetaCheckResult advises the caller's dialogue strategy for inbound text
// that probes the system behind the persona. It never blocks a message.
type MetaCheckResult struct {
	IsMetaQuestion bool   `json:"is_meta_question"`
	SuggestedMode  string `json:"suggested_mode"`
}

const (
	ModeDeflect = "deflect"
	ModeNormal  = "normal"
)
