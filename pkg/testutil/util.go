package testutil

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/questx-lab/badge-minter/config"
	"github.com/questx-lab/badge-minter/internal/entity"
	"github.com/questx-lab/badge-minter/pkg/logger"
	"github.com/questx-lab/badge-minter/pkg/xcontext"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// MockContext returns a context holding test configurations and an isolated
// in-memory database with all tables migrated.
func MockContext() context.Context {
	// Every context owns a named shared-cache database, so that all pooled
	// connections of this context see the same data while tests stay
	// isolated from each other.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_busy_timeout=5000", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		panic(err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		panic(err)
	}

	// sqlite allows only one writer, serialize everything through a single
	// connection to avoid lock errors in concurrent tests.
	sqlDB.SetMaxOpenConns(1)

	cfg := config.Configs{
		Env: "test",
		Redis: config.RedisConfigs{
			CacheTTL: time.Minute,
		},
		Kafka: config.KafkaConfigs{
			BadgeEarnedTopic: "badge_earned",
			NftMintedTopic:   "nft_minted",
		},
		Mint: config.MintConfigs{
			FreshnessWindow:    5 * time.Minute,
			PollInterval:       time.Millisecond,
			MaxPollAttempts:    3,
			ReconcileInterval:  time.Minute,
			ReconcileBatchSize: 10,
		},
	}

	ctx := context.Background()
	ctx = xcontext.WithConfigs(ctx, cfg)
	ctx = xcontext.WithLogger(ctx, logger.NewNopLogger())
	ctx = xcontext.WithDB(ctx, db)

	if err := entity.MigrateTable(ctx); err != nil {
		panic(err)
	}

	return ctx
}
