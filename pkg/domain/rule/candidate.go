package rule

import (
	"time"

	"github.com/google/uuid"
)

// Candidate is one row of the learner's audit trail: a term that was probed
// against the external lookup provider, with the evidence text that drove the
// classification. Rows are appended regardless of whether the term was
// accepted into the rule set.
type Candidate struct {
	ID         uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Term       string    `json:"term" gorm:"index"`
	Category   Category  `json:"category"`
	Severity   int       `json:"severity"`
	Accepted   bool      `json:"accepted"`
	Evidence   string    `json:"evidence"`
	QueryCount int       `json:"query_count"`
	CreatedAt  time.Time `json:"created_at"`
}

func (c Candidate) TableName() string {
	return "public.moderation_candidates"
}
