// Package scheduler runs periodic reload deployments.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/dukex/flowadmin/pkg/models"
	"github.com/dukex/flowadmin/pkg/services"
	"github.com/robfig/cron/v3"
)

// SystemUser is the identity scheduled deployments are audited under.
const SystemUser = "system"

// Deployer is the part of the flow service the scheduler drives.
type Deployer interface {
	SetFlows(ctx context.Context, req services.SetFlowsRequest) (string, error)
}

// ReloadScheduler re-derives the active flow set from storage on a cron
// schedule.
type ReloadScheduler struct {
	CronExpr string

	deployer Deployer
	logger   *slog.Logger

	mu   sync.Mutex
	cron *cron.Cron
}

func NewReloadScheduler(cronExpr string, deployer Deployer, logger *slog.Logger) (*ReloadScheduler, error) {
	s := &ReloadScheduler{
		CronExpr: cronExpr,
		deployer: deployer,
		logger:   logger.With("module", "reload_scheduler", "cron", cronExpr),
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *ReloadScheduler) Validate() error {
	if s.CronExpr == "" {
		return errors.New("reload schedule cron expression is required")
	}

	if _, err := cron.ParseStandard(s.CronExpr); err != nil {
		return fmt.Errorf("invalid cron expression: %w", err)
	}

	return nil
}

func (s *ReloadScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.logger.InfoContext(ctx, "Starting reload scheduler")

	s.cron = cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.DefaultLogger),
		cron.Recover(cron.DefaultLogger),
	))

	_, err := s.cron.AddFunc(s.CronExpr, func() { s.Run(ctx) })
	if err != nil {
		return fmt.Errorf("failed to add reload job: %w", err)
	}

	s.cron.Start()

	return nil
}

// Run performs one reload deployment.
func (s *ReloadScheduler) Run(ctx context.Context) {
	rev, err := s.deployer.SetFlows(ctx, services.SetFlowsRequest{
		Options:        services.Options{User: SystemUser},
		DeploymentType: models.DeploymentTypeReload,
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "Scheduled reload failed", "error", err)

		return
	}

	s.logger.InfoContext(ctx, "Scheduled reload finished", "rev", rev)
}

func (s *ReloadScheduler) Stop(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.logger.InfoContext(ctx, "Stopping reload scheduler")

	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
}
