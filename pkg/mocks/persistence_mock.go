package mocks

import (
	"context"

	"github.com/dukex/flowadmin/pkg/persistence"
	"github.com/stretchr/testify/mock"
)

// MockPersistence is a mock implementation of persistence.Persistence interface.
type MockPersistence struct {
	mock.Mock
}

func (m *MockPersistence) LoadFlows(ctx context.Context) (*persistence.Snapshot, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*persistence.Snapshot), args.Error(1)
}

func (m *MockPersistence) SaveFlows(ctx context.Context, snapshot *persistence.Snapshot) error {
	args := m.Called(ctx, snapshot)

	return args.Error(0)
}

func (m *MockPersistence) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}

func (m *MockPersistence) Close(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}
