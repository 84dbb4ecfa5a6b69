package mocks

import (
	"fmt"

	"github.com/stretchr/testify/mock"

	"github.com/roleguard/roleguard/pkg/infra/providers"
)

type MockProviderLocator struct {
	mock.Mock
}

func (m *MockProviderLocator) Get(provider string) (providers.Client, error) {
	args := m.Called(provider)
	client, ok := args.Get(0).(providers.Client)
	if !ok && args.Get(0) != nil {
		return nil, fmt.Errorf("expected providers.Client, got %T", args.Get(0))
	}
	return client, args.Error(1)
}
