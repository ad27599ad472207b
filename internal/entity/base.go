package entity

import (
	"context"
	"time"

	"github.com/questx-lab/badge-minter/pkg/xcontext"
)

type Base struct {
	ID        string `gorm:"primarykey;size:36"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// MigrateTable creates the tables with gorm. Production databases are
// migrated with the SQL files in the migration package, this is used for
// sqlite databases in local runs and tests.
func MigrateTable(ctx context.Context) error {
	return xcontext.DB(ctx).AutoMigrate(
		&User{},
		&MintAttempt{},
	)
}
