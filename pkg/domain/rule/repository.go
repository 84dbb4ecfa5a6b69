package rule

import (
	"context"
)

//go:generate mockery --name=Repository --dir=. --output=./mocks --filename=rule_repository_mock.go --case=underscore --with-expecter

type Repository interface {
	ListByProvenance(ctx context.Context, provenance Provenance) ([]Rule, error)
	Save(ctx context.Context, entity *Rule) error
	AppendCandidate(ctx context.Context, entity *Candidate) error
}
