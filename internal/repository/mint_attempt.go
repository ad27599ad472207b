package repository

import (
	"context"
	"errors"
	"time"

	"github.com/questx-lab/badge-minter/internal/entity"
	"github.com/questx-lab/badge-minter/pkg/xcontext"
)

var (
	// ErrAttemptNotPending is returned when a write targets an attempt which
	// already reached a terminal status.
	ErrAttemptNotPending = errors.New("mint attempt is not pending")

	// ErrAttemptNotClaimed is returned when a write requires the attempt to
	// own its pair, but the claim was released or superseded.
	ErrAttemptNotClaimed = errors.New("mint attempt does not own the claim")

	// ErrTxReferenceImmutable is returned when the attempt already recorded
	// a different transaction reference.
	ErrTxReferenceImmutable = errors.New("mint attempt already has another transaction reference")

	ErrAttemptChanged = errors.New("mint attempt was modified concurrently")
)

type GetListMintAttemptFilter struct {
	UserID        string
	AchievementID string
	Status        entity.MintAttemptStatus
	Offset        int
	Limit         int
}

type MintAttemptRepository interface {
	// Create inserts a new attempt. If the attempt has a claim key which is
	// owned by another attempt, gorm.ErrDuplicatedKey is returned.
	Create(ctx context.Context, data *entity.MintAttempt) error
	GetByID(ctx context.Context, id string) (*entity.MintAttempt, error)
	// GetByPair returns all attempts of the pair, most recent first.
	GetByPair(ctx context.Context, userID, achievementID string) ([]entity.MintAttempt, error)
	GetList(ctx context.Context, filter GetListMintAttemptFilter) ([]entity.MintAttempt, error)
	// GetUnconfirmed returns claimed pending attempts created before the given
	// time which have already broadcast a transaction, oldest first.
	GetUnconfirmed(ctx context.Context, createdBefore time.Time, limit int) ([]entity.MintAttempt, error)

	SetRecipient(ctx context.Context, id, recipient string) error
	// SetTxReference requires the attempt to own its pair, so an attempt
	// which lost its claim can never broadcast.
	SetTxReference(ctx context.Context, id, txReference string) error
	MarkSuccess(ctx context.Context, id, txReference string, blockHeight uint64) error
	MarkFailed(ctx context.Context, id string, category entity.MintErrorCategory, detail string) error
	Annotate(ctx context.Context, id string, category entity.MintErrorCategory, detail string) error
	ReleaseClaim(ctx context.Context, id string, category entity.MintErrorCategory, detail string) error
	// Supersede releases the claim of an attempt only if its transaction
	// reference is still the given one (empty means none).
	Supersede(ctx context.Context, id, txReference, detail string) error

	// GetReleased returns pending attempts created before the given time
	// which lost their claim, oldest first.
	GetReleased(ctx context.Context, createdBefore time.Time, limit int) ([]entity.MintAttempt, error)
	// CloseReleased moves a pending attempt without claim to failed.
	CloseReleased(ctx context.Context, id string, category entity.MintErrorCategory, detail string) error
}

type mintAttemptRepository struct{}

func NewMintAttemptRepository() *mintAttemptRepository {
	return &mintAttemptRepository{}
}

func (r *mintAttemptRepository) Create(ctx context.Context, data *entity.MintAttempt) error {
	return xcontext.DB(ctx).Create(data).Error
}

func (r *mintAttemptRepository) GetByID(ctx context.Context, id string) (*entity.MintAttempt, error) {
	var result entity.MintAttempt
	if err := xcontext.DB(ctx).Take(&result, "id=?", id).Error; err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *mintAttemptRepository) GetByPair(
	ctx context.Context, userID, achievementID string,
) ([]entity.MintAttempt, error) {
	var result []entity.MintAttempt
	err := xcontext.DB(ctx).
		Where("user_id=? AND achievement_id=?", userID, achievementID).
		Order("created_at DESC").
		Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *mintAttemptRepository) GetList(
	ctx context.Context, filter GetListMintAttemptFilter,
) ([]entity.MintAttempt, error) {
	tx := xcontext.DB(ctx).Model(&entity.MintAttempt{})
	if filter.UserID != "" {
		tx = tx.Where("user_id=?", filter.UserID)
	}

	if filter.AchievementID != "" {
		tx = tx.Where("achievement_id=?", filter.AchievementID)
	}

	if filter.Status != "" {
		tx = tx.Where("status=?", filter.Status)
	}

	var result []entity.MintAttempt
	err := tx.Order("created_at DESC").
		Offset(filter.Offset).
		Limit(filter.Limit).
		Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *mintAttemptRepository) GetUnconfirmed(
	ctx context.Context, createdBefore time.Time, limit int,
) ([]entity.MintAttempt, error) {
	var result []entity.MintAttempt
	err := xcontext.DB(ctx).
		Where("status=? AND claim_key IS NOT NULL AND tx_reference IS NOT NULL AND created_at<?",
			entity.MintAttemptPending, createdBefore).
		Order("created_at ASC").
		Limit(limit).
		Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *mintAttemptRepository) GetReleased(
	ctx context.Context, createdBefore time.Time, limit int,
) ([]entity.MintAttempt, error) {
	var result []entity.MintAttempt
	err := xcontext.DB(ctx).
		Where("status=? AND claim_key IS NULL AND created_at<?", entity.MintAttemptPending, createdBefore).
		Order("created_at ASC").
		Limit(limit).
		Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *mintAttemptRepository) SetRecipient(ctx context.Context, id, recipient string) error {
	tx := xcontext.DB(ctx).Model(&entity.MintAttempt{}).
		Where("id=? AND status=?", id, entity.MintAttemptPending).
		Update("recipient", recipient)
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return ErrAttemptNotPending
	}

	return nil
}

func (r *mintAttemptRepository) SetTxReference(ctx context.Context, id, txReference string) error {
	tx := xcontext.DB(ctx).Model(&entity.MintAttempt{}).
		Where("id=? AND status=? AND claim_key IS NOT NULL AND tx_reference IS NULL",
			id, entity.MintAttemptPending).
		Update("tx_reference", txReference)
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected > 0 {
		return nil
	}

	attempt, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}

	// Setting the same reference twice is allowed.
	if attempt.TxReference.Valid {
		if attempt.TxReference.String == txReference {
			return nil
		}

		return ErrTxReferenceImmutable
	}

	if attempt.Status != entity.MintAttemptPending {
		return ErrAttemptNotPending
	}

	if !attempt.ClaimKey.Valid {
		return ErrAttemptNotClaimed
	}

	return ErrAttemptChanged
}

func (r *mintAttemptRepository) MarkSuccess(
	ctx context.Context, id, txReference string, blockHeight uint64,
) error {
	tx := xcontext.DB(ctx).Model(&entity.MintAttempt{}).
		Where("id=? AND status=? AND claim_key IS NOT NULL", id, entity.MintAttemptPending).
		Where("(tx_reference IS NULL OR tx_reference=?)", txReference).
		Updates(map[string]any{
			"status":         entity.MintAttemptSuccess,
			"tx_reference":   txReference,
			"block_height":   int64(blockHeight),
			"error_category": nil,
			"error_detail":   nil,
		})
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return r.explainConflict(ctx, id, txReference)
	}

	return nil
}

func (r *mintAttemptRepository) MarkFailed(
	ctx context.Context, id string, category entity.MintErrorCategory, detail string,
) error {
	// Releasing the claim lets a later request retry the pair.
	tx := xcontext.DB(ctx).Model(&entity.MintAttempt{}).
		Where("id=? AND status=? AND claim_key IS NOT NULL", id, entity.MintAttemptPending).
		Updates(map[string]any{
			"status":         entity.MintAttemptFailed,
			"claim_key":      nil,
			"error_category": nullCategory(category),
			"error_detail":   detail,
		})
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return r.explainConflict(ctx, id, "")
	}

	return nil
}

func (r *mintAttemptRepository) Annotate(
	ctx context.Context, id string, category entity.MintErrorCategory, detail string,
) error {
	tx := xcontext.DB(ctx).Model(&entity.MintAttempt{}).
		Where("id=? AND status=?", id, entity.MintAttemptPending).
		Updates(map[string]any{
			"error_category": nullCategory(category),
			"error_detail":   detail,
		})
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}

		return ErrAttemptNotPending
	}

	return nil
}

func (r *mintAttemptRepository) ReleaseClaim(
	ctx context.Context, id string, category entity.MintErrorCategory, detail string,
) error {
	tx := xcontext.DB(ctx).Model(&entity.MintAttempt{}).
		Where("id=? AND status=? AND claim_key IS NOT NULL", id, entity.MintAttemptPending).
		Updates(map[string]any{
			"claim_key":      nil,
			"error_category": nullCategory(category),
			"error_detail":   detail,
		})
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return r.explainConflict(ctx, id, "")
	}

	return nil
}

func (r *mintAttemptRepository) Supersede(ctx context.Context, id, txReference, detail string) error {
	tx := xcontext.DB(ctx).Model(&entity.MintAttempt{}).
		Where("id=? AND status=? AND claim_key IS NOT NULL", id, entity.MintAttemptPending)
	if txReference == "" {
		tx = tx.Where("tx_reference IS NULL")
	} else {
		tx = tx.Where("tx_reference=?", txReference)
	}

	tx = tx.Updates(map[string]any{
		"claim_key":    nil,
		"error_detail": detail,
	})
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		// ErrAttemptChanged also covers a reference set after the caller
		// read the attempt.
		return r.explainConflict(ctx, id, "")
	}

	return nil
}

func (r *mintAttemptRepository) CloseReleased(
	ctx context.Context, id string, category entity.MintErrorCategory, detail string,
) error {
	tx := xcontext.DB(ctx).Model(&entity.MintAttempt{}).
		Where("id=? AND status=? AND claim_key IS NULL", id, entity.MintAttemptPending).
		Updates(map[string]any{
			"status":         entity.MintAttemptFailed,
			"error_category": nullCategory(category),
			"error_detail":   detail,
		})
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		attempt, err := r.GetByID(ctx, id)
		if err != nil {
			return err
		}

		if attempt.Status != entity.MintAttemptPending {
			return ErrAttemptNotPending
		}

		return ErrAttemptChanged
	}

	return nil
}

// explainConflict tells why a conditional update on a claimed pending attempt
// matched no row.
func (r *mintAttemptRepository) explainConflict(ctx context.Context, id, txReference string) error {
	attempt, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if attempt.Status != entity.MintAttemptPending {
		return ErrAttemptNotPending
	}

	if !attempt.ClaimKey.Valid {
		return ErrAttemptNotClaimed
	}

	if txReference != "" && attempt.TxReference.Valid && attempt.TxReference.String != txReference {
		return ErrTxReferenceImmutable
	}

	// The attempt matches now, it was changed between the update and this
	// read.
	return ErrAttemptChanged
}

func nullCategory(category entity.MintErrorCategory) any {
	if category == "" {
		return nil
	}

	return category
}
