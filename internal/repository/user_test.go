package repository_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/questx-lab/badge-minter/internal/entity"
	"github.com/questx-lab/badge-minter/internal/repository"
	"github.com/questx-lab/badge-minter/pkg/testutil"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

type UserTestSuite struct {
	suite.Suite
}

func TestUserSuite(t *testing.T) {
	suite.Run(t, new(UserTestSuite))
}

func (suite *UserTestSuite) TestReadWriteUser() {
	t := suite.T()
	ctx := testutil.MockContext()
	userRepo := repository.NewUserRepository(&testutil.MockRedisClient{})

	err := userRepo.Create(ctx, &entity.User{
		Base:          entity.Base{ID: "id1"},
		Name:          "user1",
		WalletAddress: sql.NullString{Valid: true, String: "0x1111111111111111111111111111111111111111"},
	})
	require.NoError(t, err)

	user, err := userRepo.GetByID(ctx, "id1")
	require.NoError(t, err)
	require.Equal(t, "user1", user.Name)

	_, err = userRepo.GetByID(ctx, "id2")
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func (suite *UserTestSuite) TestCacheReadThrough() {
	t := suite.T()
	ctx := testutil.MockContext()

	cached := map[string]bool{}
	redisClient := &testutil.MockRedisClient{
		SetObjFunc: func(ctx context.Context, key string, obj any, ttl time.Duration) error {
			require.Equal(t, time.Minute, ttl)
			cached[key] = true
			return nil
		},
	}

	userRepo := repository.NewUserRepository(redisClient)
	require.NoError(t, userRepo.Create(ctx, &entity.User{
		Base:          entity.Base{ID: "with-wallet"},
		WalletAddress: sql.NullString{Valid: true, String: "0x1111111111111111111111111111111111111111"},
	}))
	require.NoError(t, userRepo.Create(ctx, &entity.User{Base: entity.Base{ID: "without-wallet"}}))

	_, err := userRepo.GetByID(ctx, "with-wallet")
	require.NoError(t, err)
	_, err = userRepo.GetByID(ctx, "without-wallet")
	require.NoError(t, err)

	require.Equal(t, map[string]bool{"minter:user:with-wallet": true}, cached)
}

func (suite *UserTestSuite) TestCacheFailureIsIgnored() {
	t := suite.T()
	ctx := testutil.MockContext()

	redisClient := &testutil.MockRedisClient{
		GetObjFunc: func(ctx context.Context, key string, v any) error {
			return errors.New("connection refused")
		},
		SetObjFunc: func(ctx context.Context, key string, obj any, ttl time.Duration) error {
			return errors.New("connection refused")
		},
	}

	userRepo := repository.NewUserRepository(redisClient)
	require.NoError(t, userRepo.Create(ctx, &entity.User{
		Base:          entity.Base{ID: "id1"},
		WalletAddress: sql.NullString{Valid: true, String: "0x1111111111111111111111111111111111111111"},
	}))

	user, err := userRepo.GetByID(ctx, "id1")
	require.NoError(t, err)
	require.Equal(t, "0x1111111111111111111111111111111111111111", user.WalletAddress.String)
}

func (suite *UserTestSuite) TestCacheHit() {
	t := suite.T()
	ctx := testutil.MockContext()

	redisClient := &testutil.MockRedisClient{
		GetObjFunc: func(ctx context.Context, key string, v any) error {
			v.(*entity.User).Name = "cached"
			return nil
		},
	}

	// The user does not exist in database, only in cache.
	user, err := repository.NewUserRepository(redisClient).GetByID(ctx, "id1")
	require.NoError(t, err)
	require.Equal(t, "cached", user.Name)
}

