package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/roleguard/roleguard/pkg/domain/rule"
)

type RuleRepository struct {
	db *gorm.DB
}

func NewRuleRepository(db *gorm.DB) rule.Repository {
	return &RuleRepository{
		db: db,
	}
}

func (r *RuleRepository) ListByProvenance(ctx context.Context, provenance rule.Provenance) ([]rule.Rule, error) {
	var entities []rule.Rule
	if err := r.db.WithContext(ctx).
		Where("provenance = ?", provenance).
		Order("created_at ASC").
		Find(&entities).Error; err != nil {
		return nil, fmt.Errorf("failed to list rules: %w", err)
	}
	return entities, nil
}

func (r *RuleRepository) Save(ctx context.Context, entity *rule.Rule) error {
	if !entity.IsValid() {
		return fmt.Errorf("term %q: %w", entity.Term, rule.ErrInvalidRule)
	}
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "term"}},
			DoNothing: true,
		}).
		Create(entity).Error; err != nil {
		return fmt.Errorf("failed to save rule: %w", err)
	}
	return nil
}

func (r *RuleRepository) AppendCandidate(ctx context.Context, entity *rule.Candidate) error {
	if err := r.db.WithContext(ctx).Create(entity).Error; err != nil {
		return fmt.Errorf("failed to append candidate: %w", err)
	}
	return nil
}
