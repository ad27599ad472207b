package main

import (
	"github.com/questx-lab/badge-minter/pkg/kafka"
	"github.com/questx-lab/badge-minter/pkg/xcontext"
	"github.com/urfave/cli/v2"
)

func (s *srv) startWorker(*cli.Context) error {
	cancel := s.withSignal()
	defer cancel()

	if err := s.loadMintStack(); err != nil {
		return err
	}
	defer s.stop()

	s.startPrometheusServer("worker")

	cfg := xcontext.Configs(s.ctx).Kafka
	subscriber, err := kafka.NewSubscriber(
		cfg.GroupID,
		cfg.Addrs,
		[]string{cfg.BadgeEarnedTopic},
		s.nftMintDomain.HandleBadgeEarned,
		kafka.SubscriberOptions{MaxRetries: cfg.MaxRetries, RetryBackoff: cfg.RetryBackoff},
	)
	if err != nil {
		return err
	}

	subscriber.Subscribe(s.ctx)
	xcontext.Logger(s.ctx).Infof("Started to consume topic %s", cfg.BadgeEarnedTopic)

	<-s.ctx.Done()
	return subscriber.Stop(s.ctx)
}
