package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/questx-lab/badge-minter/config"
	"github.com/questx-lab/badge-minter/internal/domain"
	"github.com/questx-lab/badge-minter/internal/domain/blockchain/eth"
	"github.com/questx-lab/badge-minter/internal/domain/mint"
	"github.com/questx-lab/badge-minter/internal/repository"
	"github.com/questx-lab/badge-minter/pkg/kafka"
	"github.com/questx-lab/badge-minter/pkg/logger"
	"github.com/questx-lab/badge-minter/pkg/prometheus"
	"github.com/questx-lab/badge-minter/pkg/xcontext"
	"github.com/questx-lab/badge-minter/pkg/xredis"
	"github.com/urfave/cli/v2"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type stopper interface {
	Stop(context.Context) error
}

type srv struct {
	app *cli.App
	ctx context.Context

	redisClient xredis.Client
	publisher   stopper

	userRepo        repository.UserRepository
	mintAttemptRepo repository.MintAttemptRepository

	chain         *eth.EthDispatcher
	minter        mint.Minter
	nftMintDomain domain.NftMintDomain
}

func (s *srv) loadConfig(cctx *cli.Context) error {
	cfg, err := config.Load(cctx.String("config"), cctx.String("env-file"))
	if err != nil {
		return err
	}

	s.ctx = xcontext.WithConfigs(cctx.Context, cfg)
	s.ctx = xcontext.WithLogger(s.ctx, logger.NewLogger(logger.Options{
		Level:      logger.ParseLevel(cfg.Log.Level),
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
	}))

	return nil
}

func (s *srv) newDatabase() (*gorm.DB, error) {
	cfg := xcontext.Configs(s.ctx).Database
	gormCfg := &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	}

	switch cfg.Driver {
	case "mysql":
		return gorm.Open(mysql.New(mysql.Config{
			DSN:                       cfg.ConnectionString(),
			DefaultStringSize:         256,
			SkipInitializeWithVersion: false,
		}), gormCfg)

	case "sqlite":
		db, err := gorm.Open(sqlite.Open(cfg.Database), gormCfg)
		if err != nil {
			return nil, err
		}

		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}

		// sqlite allows a single writer.
		sqlDB.SetMaxOpenConns(1)
		return db, nil
	}

	return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
}

func (s *srv) loadDatabase() error {
	db, err := s.newDatabase()
	if err != nil {
		return fmt.Errorf("cannot open database: %w", err)
	}

	s.ctx = xcontext.WithDB(s.ctx, db)
	return nil
}

func (s *srv) loadRedisClient() error {
	client, err := xredis.NewClient(s.ctx)
	if err != nil {
		return fmt.Errorf("cannot connect to redis: %w", err)
	}

	s.redisClient = client
	return nil
}

func (s *srv) loadRepos() {
	s.userRepo = repository.NewUserRepository(s.redisClient)
	s.mintAttemptRepo = repository.NewMintAttemptRepository()
}

func (s *srv) loadChain() error {
	client, err := eth.NewEthClient(xcontext.Configs(s.ctx).Blockchain)
	if err != nil {
		return err
	}

	client.Start(s.ctx)
	s.chain = eth.NewEthDispatcher(client)
	return nil
}

func (s *srv) loadMinter() {
	s.minter = mint.NewMinter(s.mintAttemptRepo, mint.NewRecipientResolver(s.userRepo), s.chain)
}

func (s *srv) loadDomains() error {
	cfg := xcontext.Configs(s.ctx).Kafka
	publisher, err := kafka.NewPublisher(cfg.GroupID, cfg.Addrs)
	if err != nil {
		return fmt.Errorf("cannot create kafka publisher: %w", err)
	}

	s.publisher = publisher
	s.nftMintDomain = domain.NewNftMintDomain(s.mintAttemptRepo, s.minter, publisher)
	return nil
}

// loadMintStack opens every dependency needed to mint.
func (s *srv) loadMintStack() error {
	if err := s.loadDatabase(); err != nil {
		return err
	}

	if err := s.loadRedisClient(); err != nil {
		return err
	}

	s.loadRepos()
	if err := s.loadChain(); err != nil {
		return err
	}

	s.loadMinter()
	return s.loadDomains()
}

func (s *srv) withSignal() context.CancelFunc {
	ctx, cancel := signal.NotifyContext(s.ctx, syscall.SIGINT, syscall.SIGTERM)
	s.ctx = ctx
	return cancel
}

func (s *srv) startPrometheusServer(service string) {
	cfg := xcontext.Configs(s.ctx).PrometheusServer
	if cfg.Port == "" {
		return
	}

	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           prometheus.NewHandler(service),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		xcontext.Logger(s.ctx).Infof("Started prometheus server at %s", cfg.Address())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			xcontext.Logger(s.ctx).Errorf("Prometheus server stopped: %v", err)
		}
	}()

	go func() {
		<-s.ctx.Done()
		server.Close()
	}()
}

func (s *srv) stop() {
	ctx := context.WithoutCancel(s.ctx)
	if s.publisher != nil {
		if err := s.publisher.Stop(ctx); err != nil {
			xcontext.Logger(ctx).Warnf("Cannot stop publisher: %v", err)
		}
	}
}
