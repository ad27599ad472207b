package main

import (
	"github.com/questx-lab/badge-minter/internal/domain/cron"
	"github.com/questx-lab/badge-minter/internal/repository"
	"github.com/questx-lab/badge-minter/pkg/xcontext"
	"github.com/urfave/cli/v2"
)

func (s *srv) startReconcile(*cli.Context) error {
	cancel := s.withSignal()
	defer cancel()

	if err := s.loadDatabase(); err != nil {
		return err
	}

	s.mintAttemptRepo = repository.NewMintAttemptRepository()
	if err := s.loadChain(); err != nil {
		return err
	}

	s.startPrometheusServer("reconcile")

	cronJobManager := cron.NewCronJobManager()
	cronJobManager.Register(cron.NewReconcileMintCronJob(
		s.mintAttemptRepo, s.chain, xcontext.Configs(s.ctx).Mint.ReconcileInterval))
	cronJobManager.Start(s.ctx)

	return nil
}
