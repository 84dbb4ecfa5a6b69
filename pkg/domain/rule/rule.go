package rule

import (
	"time"

	"github.com/google/uuid"
)

type Category string

const (
	CategoryViolence     Category = "violence"
	CategorySelfHarm     Category = "self_harm"
	CategorySexual       Category = "sexual"
	CategoryHate         Category = "hate"
	CategoryPrivacy      Category = "privacy"
	CategoryPolitics     Category = "politics"
	CategoryReligion     Category = "religion"
	CategoryAIIdentity   Category = "ai_identity"
	CategoryPersonaTaboo Category = "persona_taboo"
	CategorySpam         Category = "spam"
	CategoryGeneral      Category = "general"
)

type MatchMode string

const (
	MatchSubstring MatchMode = "substring"
	MatchRegex     MatchMode = "regex"
)

type Action string

const (
	ActionAllow Action = "allow"
	ActionWarn  Action = "warn"
	ActionBlock Action = "block"
)

type Provenance string

const (
	ProvenanceStatic  Provenance = "static"
	ProvenanceLearned Provenance = "learned"
)

// Rule is a single tiered keyword rule applied by the static matcher.
type Rule struct {
	ID          uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	Term        string     `json:"term" gorm:"uniqueIndex"`
	Category    Category   `json:"category" gorm:"index"`
	Subcategory string     `json:"subcategory"`
	Severity    int        `json:"severity"`
	Language    string     `json:"language"`
	MatchMode   MatchMode  `json:"match_mode"`
	Action      Action     `json:"action"`
	Provenance  Provenance `json:"provenance" gorm:"index"`
	Notes       string     `json:"notes"`
	CreatedAt   time.Time  `json:"created_at"`
}

func (r Rule) TableName() string {
	return "public.moderation_rules"
}

func (r Rule) IsValid() bool {
	if r.Term == "" {
		return false
	}
	if r.Severity < 1 || r.Severity > 10 {
		return false
	}
	switch r.MatchMode {
	case MatchSubstring, MatchRegex:
	default:
		return false
	}
	return true
}

// Tier returns the tier band the rule's severity falls into.
func (r Rule) Tier() Tier {
	return TierForSeverity(r.Severity)
}
