package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/questx-lab/badge-minter/internal/entity"
	"github.com/questx-lab/badge-minter/pkg/xcontext"
	"github.com/questx-lab/badge-minter/pkg/xredis"
)

type UserRepository interface {
	Create(ctx context.Context, data *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
}

type userRepository struct {
	redisClient xredis.Client
}

func NewUserRepository(redisClient xredis.Client) *userRepository {
	return &userRepository{redisClient: redisClient}
}

func userCacheKey(id string) string {
	return fmt.Sprintf("minter:user:%s", id)
}

func (r *userRepository) Create(ctx context.Context, data *entity.User) error {
	if err := xcontext.DB(ctx).Create(data).Error; err != nil {
		return err
	}

	if err := r.redisClient.Del(ctx, userCacheKey(data.ID)); err != nil {
		xcontext.Logger(ctx).Warnf("Cannot invalidate cached user %s: %v", data.ID, err)
	}

	return nil
}

// GetByID reads the user through a redis cache. A cache failure is never an
// error, the database is the source of truth.
func (r *userRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	var record entity.User
	err := r.redisClient.GetObj(ctx, userCacheKey(id), &record)
	if err == nil {
		return &record, nil
	}

	if !errors.Is(err, xredis.Nil) {
		xcontext.Logger(ctx).Warnf("Cannot get cached user %s: %v", id, err)
	}

	if err := xcontext.DB(ctx).Take(&record, "id=?", id).Error; err != nil {
		return nil, err
	}

	// Users without wallet are not cached, their wallet is being provisioned.
	if !record.WalletAddress.Valid {
		return &record, nil
	}

	ttl := xcontext.Configs(ctx).Redis.CacheTTL
	if err := r.redisClient.SetObj(ctx, userCacheKey(id), &record, ttl); err != nil {
		xcontext.Logger(ctx).Warnf("Cannot cache user %s: %v", id, err)
	}

	return &record, nil
}
