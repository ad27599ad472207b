package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/questx-lab/badge-minter/internal/middleware"
	"github.com/questx-lab/badge-minter/pkg/router"
	"github.com/questx-lab/badge-minter/pkg/xcontext"
	"github.com/urfave/cli/v2"
)

func (s *srv) startApi(*cli.Context) error {
	cancel := s.withSignal()
	defer cancel()

	if err := s.loadMintStack(); err != nil {
		return err
	}
	defer s.stop()

	s.startPrometheusServer("api")

	cfg := xcontext.Configs(s.ctx)
	server := &http.Server{
		Addr:              cfg.ApiServer.Address(),
		Handler:           s.loadRouter().Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-s.ctx.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(s.ctx), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	xcontext.Logger(s.ctx).Infof("Started api server at %s", cfg.ApiServer.Address())
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

func (s *srv) loadRouter() *router.Router {
	r := router.New(xcontext.DB(s.ctx), xcontext.Configs(s.ctx), xcontext.Logger(s.ctx))
	r.Before(middleware.WithStartTime())
	r.AddCloser(middleware.Logger())
	r.AddCloser(middleware.Prometheus())

	router.POST(r, "/requestMint", s.nftMintDomain.RequestMint)
	router.GET(r, "/getMintAttempt", s.nftMintDomain.GetMintAttempt)
	router.GET(r, "/getMintAttempts", s.nftMintDomain.GetMintAttempts)

	return r
}
