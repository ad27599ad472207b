package domain

import (
	"time"

	"github.com/questx-lab/badge-minter/internal/entity"
	"github.com/questx-lab/badge-minter/internal/model"
)

const defaultTimeLayout string = time.RFC3339Nano

func convertMintAttempt(attempt *entity.MintAttempt) model.MintAttempt {
	if attempt == nil {
		return model.MintAttempt{}
	}

	return model.MintAttempt{
		ID:            attempt.ID,
		UserID:        attempt.UserID,
		AchievementID: attempt.AchievementID,
		Status:        string(attempt.Status),
		TokenID:       attempt.TokenID,
		Recipient:     attempt.Recipient.String,
		TxReference:   attempt.TxReference.String,
		BlockHeight:   uint64(attempt.BlockHeight.Int64),
		ErrorCategory: attempt.ErrorCategory.String,
		ErrorDetail:   attempt.ErrorDetail.String,
		CreatedAt:     attempt.CreatedAt.Format(defaultTimeLayout),
		UpdatedAt:     attempt.UpdatedAt.Format(defaultTimeLayout),
	}
}
