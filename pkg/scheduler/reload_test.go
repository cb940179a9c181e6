package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/dukex/flowadmin/pkg/models"
	"github.com/dukex/flowadmin/pkg/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDeployer struct {
	mu       sync.Mutex
	requests []services.SetFlowsRequest
	err      error
}

func (f *fakeDeployer) SetFlows(_ context.Context, req services.SetFlowsRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.requests = append(f.requests, req)

	return "r1", f.err
}

func TestNewReloadScheduler_Validation(t *testing.T) {
	_, err := NewReloadScheduler("", &fakeDeployer{}, slog.Default())
	assert.ErrorContains(t, err, "required")

	_, err = NewReloadScheduler("not a cron", &fakeDeployer{}, slog.Default())
	assert.ErrorContains(t, err, "invalid cron expression")

	s, err := NewReloadScheduler("*/5 * * * *", &fakeDeployer{}, slog.Default())
	require.NoError(t, err)
	assert.Equal(t, "*/5 * * * *", s.CronExpr)
}

func TestReloadScheduler_Run(t *testing.T) {
	deployer := &fakeDeployer{}

	s, err := NewReloadScheduler("@every 1h", deployer, slog.Default())
	require.NoError(t, err)

	s.Run(context.Background())

	require.Len(t, deployer.requests, 1)
	assert.Equal(t, SystemUser, deployer.requests[0].User)
	assert.Equal(t, models.DeploymentTypeReload, deployer.requests[0].DeploymentType)
	assert.Nil(t, deployer.requests[0].Flows)

	// Failures are logged, never raised
	deployer.err = errors.New("storage down")
	s.Run(context.Background())
	assert.Len(t, deployer.requests, 2)
}

func TestReloadScheduler_StartStop(t *testing.T) {
	s, err := NewReloadScheduler("@every 1h", &fakeDeployer{}, slog.Default())
	require.NoError(t, err)

	require.NoError(t, s.Start(context.Background()))
	s.Stop(context.Background())
}
