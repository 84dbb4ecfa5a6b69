package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type MockLookupProvider struct {
	mock.Mock
}

func (m *MockLookupProvider) Search(ctx context.Context, query string, count int) (string, error) {
	args := m.Called(ctx, query, count)
	return args.String(0), args.Error(1)
}
