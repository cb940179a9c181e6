package mocks

import (
	"context"

	"github.com/dukex/flowadmin/pkg/models"
	"github.com/stretchr/testify/mock"
)

// MockFlowStore is a mock implementation of services.FlowStore interface.
type MockFlowStore struct {
	mock.Mock
}

func (m *MockFlowStore) FlowSet() *models.FlowSet {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}

	return args.Get(0).(*models.FlowSet)
}

func (m *MockFlowStore) Reload(ctx context.Context) (string, error) {
	args := m.Called(ctx)

	return args.String(0), args.Error(1)
}

func (m *MockFlowStore) SetFlows(ctx context.Context, flows []models.NodeConfig, deploymentType models.DeploymentType) (string, error) {
	args := m.Called(ctx, flows, deploymentType)

	return args.String(0), args.Error(1)
}

func (m *MockFlowStore) AddFlow(ctx context.Context, flow *models.Flow) (string, error) {
	args := m.Called(ctx, flow)

	return args.String(0), args.Error(1)
}

func (m *MockFlowStore) Flow(id string) (*models.Flow, bool) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Bool(1)
	}

	return args.Get(0).(*models.Flow), args.Bool(1)
}

func (m *MockFlowStore) UpdateFlow(ctx context.Context, id string, flow *models.Flow) error {
	args := m.Called(ctx, id, flow)

	return args.Error(0)
}

func (m *MockFlowStore) RemoveFlow(ctx context.Context, id string) error {
	args := m.Called(ctx, id)

	return args.Error(0)
}

func (m *MockFlowStore) Credentials(id string) (models.Credentials, bool) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Bool(1)
	}

	return args.Get(0).(models.Credentials), args.Bool(1)
}

func (m *MockFlowStore) CredentialDefinition(nodeType string) models.CredentialDefinition {
	args := m.Called(nodeType)
	if args.Get(0) == nil {
		return nil
	}

	return args.Get(0).(models.CredentialDefinition)
}
