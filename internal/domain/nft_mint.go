package domain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/questx-lab/badge-minter/internal/domain/mint"
	"github.com/questx-lab/badge-minter/internal/entity"
	"github.com/questx-lab/badge-minter/internal/model"
	"github.com/questx-lab/badge-minter/internal/repository"
	"github.com/questx-lab/badge-minter/pkg/enum"
	"github.com/questx-lab/badge-minter/pkg/errorx"
	"github.com/questx-lab/badge-minter/pkg/pubsub"
	"github.com/questx-lab/badge-minter/pkg/xcontext"
	"gorm.io/gorm"
)

const (
	defaultMintAttemptsLimit = 50
	maxMintAttemptsLimit     = 200
)

type NftMintDomain interface {
	RequestMint(context.Context, *model.RequestMintRequest) (*model.RequestMintResponse, error)
	GetMintAttempt(context.Context, *model.GetMintAttemptRequest) (*model.GetMintAttemptResponse, error)
	GetMintAttempts(context.Context, *model.GetMintAttemptsRequest) (*model.GetMintAttemptsResponse, error)

	HandleBadgeEarned(context.Context, *pubsub.Pack, time.Time) error
}

type nftMintDomain struct {
	attemptRepo repository.MintAttemptRepository
	minter      mint.Minter
	publisher   pubsub.Publisher
}

func NewNftMintDomain(
	attemptRepo repository.MintAttemptRepository,
	minter mint.Minter,
	publisher pubsub.Publisher,
) *nftMintDomain {
	return &nftMintDomain{
		attemptRepo: attemptRepo,
		minter:      minter,
		publisher:   publisher,
	}
}

func (d *nftMintDomain) RequestMint(
	ctx context.Context, req *model.RequestMintRequest,
) (*model.RequestMintResponse, error) {
	result := d.minter.RequestMint(ctx, req.UserID, req.AchievementID)
	if result.Category == entity.MintErrorInvalidRequest {
		return nil, errorx.New(errorx.BadRequest, "Invalid user or achievement: %s", result.Detail)
	}

	if result.Status == mint.MintResultSuccess {
		d.publishMinted(ctx, req.UserID, req.AchievementID, result)
	}

	return &model.RequestMintResponse{
		Status:      string(result.Status),
		LedgerID:    result.LedgerID,
		TxReference: result.TxReference,
		BlockHeight: result.BlockHeight,
		TokenID:     result.TokenID,
		Category:    string(result.Category),
		Detail:      result.Detail,
		Retryable:   result.Retryable(),
	}, nil
}

func (d *nftMintDomain) GetMintAttempt(
	ctx context.Context, req *model.GetMintAttemptRequest,
) (*model.GetMintAttemptResponse, error) {
	if req.ID == "" {
		return nil, errorx.New(errorx.BadRequest, "Require an attempt id")
	}

	attempt, err := d.attemptRepo.GetByID(ctx, req.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found mint attempt")
		}

		xcontext.Logger(ctx).Errorf("Cannot get mint attempt %s: %v", req.ID, err)
		return nil, errorx.Unknown
	}

	return &model.GetMintAttemptResponse{Attempt: convertMintAttempt(attempt)}, nil
}

func (d *nftMintDomain) GetMintAttempts(
	ctx context.Context, req *model.GetMintAttemptsRequest,
) (*model.GetMintAttemptsResponse, error) {
	if req.Limit == 0 {
		req.Limit = defaultMintAttemptsLimit
	}

	if req.Limit < 0 || req.Limit > maxMintAttemptsLimit {
		return nil, errorx.New(errorx.BadRequest, "Limit must be between 1 and %d", maxMintAttemptsLimit)
	}

	if req.Offset < 0 {
		return nil, errorx.New(errorx.BadRequest, "Offset must not be negative")
	}

	filter := repository.GetListMintAttemptFilter{
		UserID:        req.UserID,
		AchievementID: req.AchievementID,
		Offset:        req.Offset,
		Limit:         req.Limit,
	}

	if req.Status != "" {
		status, err := enum.ToEnum[entity.MintAttemptStatus](req.Status)
		if err != nil {
			return nil, errorx.New(errorx.BadRequest, "Invalid status %s", req.Status)
		}

		filter.Status = status
	}

	attempts, err := d.attemptRepo.GetList(ctx, filter)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get list of mint attempts: %v", err)
		return nil, errorx.Unknown
	}

	clientAttempts := []model.MintAttempt{}
	for i := range attempts {
		clientAttempts = append(clientAttempts, convertMintAttempt(&attempts[i]))
	}

	return &model.GetMintAttemptsResponse{Attempts: clientAttempts}, nil
}

// HandleBadgeEarned mints the badge of a badge_earned event. It returns an
// error only if the mint failed transiently and the event should be delivered
// again.
func (d *nftMintDomain) HandleBadgeEarned(ctx context.Context, pack *pubsub.Pack, t time.Time) error {
	var event model.BadgeEarnedEvent
	if err := json.Unmarshal(pack.Msg, &event); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot unmarshal badge earned event: %v", err)
		return nil
	}

	result := d.minter.RequestMint(ctx, event.UserID, event.AchievementID)
	switch {
	case result.Status == mint.MintResultSuccess || result.Status == mint.MintResultAlreadyMinted:
		d.publishMinted(ctx, event.UserID, event.AchievementID, result)

	case result.Retryable():
		return fmt.Errorf("mint of %s/%s earned at %s: %s",
			event.UserID, event.AchievementID, t.Format(time.RFC3339), result.Detail)
	}

	return nil
}

func (d *nftMintDomain) publishMinted(ctx context.Context, userID, achievementID string, result mint.MintResult) {
	b, err := json.Marshal(model.NftMintedEvent{
		UserID:        userID,
		AchievementID: achievementID,
		LedgerID:      result.LedgerID,
		TxReference:   result.TxReference,
		BlockHeight:   result.BlockHeight,
		TokenID:       result.TokenID,
	})
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot marshal nft minted event: %v", err)
		return
	}

	topic := xcontext.Configs(ctx).Kafka.NftMintedTopic
	if err := d.publisher.Publish(ctx, topic, &pubsub.Pack{Key: []byte(result.LedgerID), Msg: b}); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot publish nft minted event of attempt %s: %v", result.LedgerID, err)
	}
}
