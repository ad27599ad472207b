package migration

import (
	"context"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/questx-lab/badge-minter/internal/entity"
	"github.com/questx-lab/badge-minter/pkg/xcontext"
)

//go:embed mysql/*.sql
var mysqlFS embed.FS

func mysqlSource() (source.Driver, error) {
	return iofs.New(mysqlFS, "mysql")
}

// Migrate brings the database of ctx to the latest version. MySQL databases
// apply the embedded SQL files, sqlite databases are migrated by gorm.
func Migrate(ctx context.Context) error {
	cfg := xcontext.Configs(ctx).Database
	if cfg.Driver == "sqlite" {
		return entity.MigrateTable(ctx)
	}

	db, err := xcontext.DB(ctx).DB()
	if err != nil {
		return err
	}

	src, err := mysqlSource()
	if err != nil {
		return fmt.Errorf("open migration source: %w", err)
	}

	driver, err := mysql.WithInstance(db, &mysql.Config{DatabaseName: cfg.Database})
	if err != nil {
		return fmt.Errorf("open migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, cfg.Database, driver)
	if err != nil {
		return err
	}

	m.Log = &migrateLogger{ctx: ctx}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}

	version, dirty, err := m.Version()
	if err != nil {
		return err
	}

	xcontext.Logger(ctx).Infof("Database %s is at version %d (dirty = %t)", cfg.Database, version, dirty)
	return nil
}

type migrateLogger struct {
	ctx context.Context
}

func (l *migrateLogger) Printf(format string, v ...any) {
	xcontext.Logger(l.ctx).Infof(format, v...)
}

func (l *migrateLogger) Verbose() bool {
	return false
}
