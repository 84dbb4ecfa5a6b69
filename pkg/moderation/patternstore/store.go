package patternstore

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"

	"github.com/roleguard/roleguard/pkg/domain/rule"
)

// Snapshot is an immutable view of the active rule set. A matcher scan runs
// against exactly one snapshot, so a concurrent insert is either fully
// visible or fully invisible to it.
type Snapshot struct {
	Rules    []rule.Rule
	compiled map[string]*regexp.Regexp
}

// Regex returns the compiled pattern for a regex-mode rule term.
func (s *Snapshot) Regex(term string) (*regexp.Regexp, bool) {
	re, ok := s.compiled[term]
	return re, ok
}

// Store holds the tiered keyword rules: the static seed plus terms accepted
// by the vocabulary learner. Reads go through copy-on-write snapshots;
// writes serialize on a mutex and publish a fresh snapshot.
type Store struct {
	mu       sync.Mutex
	byTerm   map[string]struct{}
	rules    []rule.Rule
	snapshot atomic.Pointer[Snapshot]
	repo     rule.Repository
	logger   *logrus.Logger
}

// NewStore builds a store pre-populated with the static seed rules. repo may
// be nil for callers that do not persist learned rules.
func NewStore(logger *logrus.Logger, repo rule.Repository) *Store {
	s := &Store{
		byTerm: make(map[string]struct{}),
		repo:   repo,
		logger: logger,
	}
	for _, r := range seedRules() {
		if err := s.add(r); err != nil {
			logger.WithError(err).WithField("term", r.Term).Warn("skipping seed rule")
		}
	}
	s.publish()
	return s
}

// LoadLearned restores previously learned rules from the repository. Rows
// that fail validation or regex compilation are skipped and logged, never
// fatal: matching continues with the remaining rules.
func (s *Store) LoadLearned(ctx context.Context) error {
	if s.repo == nil {
		return nil
	}
	rows, err := s.repo.ListByProvenance(ctx, rule.ProvenanceLearned)
	if err != nil {
		return fmt.Errorf("failed to load learned rules: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	loaded := 0
	for _, r := range rows {
		if _, exists := s.byTerm[foldTerm(r.Term)]; exists {
			continue
		}
		if err := s.add(r); err != nil {
			s.logger.WithError(err).WithField("term", r.Term).Warn("skipping corrupt learned rule")
			continue
		}
		loaded++
	}
	s.publish()

	s.logger.WithField("count", loaded).Info("learned rules loaded")
	return nil
}

// Insert adds a rule if its term is not already present. The first return
// value reports whether the rule was actually added. Learned rules are
// persisted write-through when a repository is configured.
func (s *Store) Insert(ctx context.Context, r rule.Rule) (bool, error) {
	if !r.IsValid() {
		return false, fmt.Errorf("term %q: %w", r.Term, rule.ErrInvalidRule)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byTerm[foldTerm(r.Term)]; exists {
		return false, nil
	}
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	if err := s.add(r); err != nil {
		return false, err
	}
	s.publish()

	if s.repo != nil && r.Provenance == rule.ProvenanceLearned {
		if err := s.repo.Save(ctx, &r); err != nil {
			// The in-memory insert stands; persistence is best-effort.
			s.logger.WithError(err).WithField("term", r.Term).Error("failed to persist learned rule")
		}
	}
	return true, nil
}

// Contains reports whether a term (width/case folded) already has a rule.
func (s *Store) Contains(term string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.byTerm[foldTerm(term)]
	return ok
}

// Snapshot returns the current immutable rule set view.
func (s *Store) Snapshot() *Snapshot {
	return s.snapshot.Load()
}

// Len reports the number of active rules.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rules)
}

// add validates and appends under s.mu (or during construction).
func (s *Store) add(r rule.Rule) error {
	if r.MatchMode == rule.MatchRegex {
		if _, err := regexp.Compile(r.Term); err != nil {
			return fmt.Errorf("invalid regex pattern %q: %w", r.Term, err)
		}
	}
	s.byTerm[foldTerm(r.Term)] = struct{}{}
	s.rules = append(s.rules, r)
	return nil
}

func (s *Store) publish() {
	rules := make([]rule.Rule, len(s.rules))
	copy(rules, s.rules)

	compiled := make(map[string]*regexp.Regexp)
	for _, r := range rules {
		if r.MatchMode != rule.MatchRegex {
			continue
		}
		re, err := regexp.Compile(r.Term)
		if err != nil {
			continue
		}
		compiled[r.Term] = re
	}
	s.snapshot.Store(&Snapshot{Rules: rules, compiled: compiled})
}

// foldTerm canonicalizes a term for duplicate detection: width variants and
// case variants of the same word are one rule.
func foldTerm(term string) string {
	return strings.ToLower(width.Fold.String(norm.NFKC.String(strings.TrimSpace(term))))
}
