package testutil

import (
	"context"
	"database/sql"

	"github.com/questx-lab/badge-minter/internal/entity"
	"github.com/questx-lab/badge-minter/internal/repository"
)

var (
	User1 = entity.User{
		Base:          entity.Base{ID: "U1"},
		Name:          "user1",
		WalletAddress: sql.NullString{Valid: true, String: "0x1111111111111111111111111111111111111111"},
	}

	User2 = entity.User{
		Base:          entity.Base{ID: "U2"},
		Name:          "user2",
		WalletAddress: sql.NullString{Valid: true, String: "0x2222222222222222222222222222222222222222"},
	}

	// User3 has not provisioned any wallet.
	User3 = entity.User{
		Base: entity.Base{ID: "U3"},
		Name: "user3",
	}

	// User4 has a corrupted wallet address.
	User4 = entity.User{
		Base:          entity.Base{ID: "U4"},
		Name:          "user4",
		WalletAddress: sql.NullString{Valid: true, String: "not-an-address"},
	}

	Users = []*entity.User{&User1, &User2, &User3, &User4}
)

func CreateFixtureDb(ctx context.Context) {
	userRepo := repository.NewUserRepository(&MockRedisClient{})
	for _, u := range Users {
		// Copy to not let gorm mutate the shared fixture.
		user := *u
		if err := userRepo.Create(ctx, &user); err != nil {
			panic(err)
		}
	}
}
