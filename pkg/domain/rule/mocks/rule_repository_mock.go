package mocks

import (
	"context"
	"fmt"

	"github.com/stretchr/testify/mock"

	"github.com/roleguard/roleguard/pkg/domain/rule"
)

type MockRuleRepository struct {
	mock.Mock
}

func (m *MockRuleRepository) ListByProvenance(ctx context.Context, provenance rule.Provenance) ([]rule.Rule, error) {
	args := m.Called(ctx, provenance)
	rules, ok := args.Get(0).([]rule.Rule)
	if !ok && args.Get(0) != nil {
		return nil, fmt.Errorf("expected []rule.Rule, got %T", args.Get(0))
	}
	return rules, args.Error(1)
}

func (m *MockRuleRepository) Save(ctx context.Context, entity *rule.Rule) error {
	args := m.Called(ctx, entity)
	return args.Error(0)
}

func (m *MockRuleRepository) AppendCandidate(ctx context.Context, entity *rule.Candidate) error {
	args := m.Called(ctx, entity)
	return args.Error(0)
}
