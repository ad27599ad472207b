package mint

import (
	"testing"
	"time"

	"github.com/questx-lab/badge-minter/internal/entity"
	"github.com/questx-lab/badge-minter/internal/repository"
	"github.com/questx-lab/badge-minter/pkg/testutil"
	"github.com/stretchr/testify/require"
)

func TestRecorder_Record(t *testing.T) {
	ctx := testutil.MockContext()
	attemptRepo := repository.NewMintAttemptRepository()
	recorder := NewRecorder(attemptRepo)

	attempt := createAttempt(t, ctx, entity.MintAttemptPending, true, 0, "")
	require.NoError(t, recorder.RecordBroadcast(ctx, attempt.ID, "0x01"))
	require.NoError(t, recorder.Record(ctx, attempt.ID, UnresolvedOutcome("", "0x01", "waiting")))

	result, err := attemptRepo.GetByID(ctx, attempt.ID)
	require.NoError(t, err)
	require.Equal(t, entity.MintAttemptPending, result.Status)
	require.True(t, result.ClaimKey.Valid)
	require.False(t, result.ErrorCategory.Valid)
	require.Equal(t, "waiting", result.ErrorDetail.String)

	require.NoError(t, recorder.Record(ctx, attempt.ID, SuccessOutcome("0x01", 5)))

	// Terminal attempts never change.
	require.ErrorIs(t, recorder.Record(ctx, attempt.ID, FailedOutcome(entity.MintErrorChainRejected, "x")),
		repository.ErrAttemptNotPending)
	require.ErrorIs(t, recorder.Record(ctx, attempt.ID, TransientOutcome("x")),
		repository.ErrAttemptNotPending)
	require.ErrorIs(t, recorder.RecordBroadcast(ctx, attempt.ID, "0x02"), repository.ErrTxReferenceImmutable)

	result, err = attemptRepo.GetByID(ctx, attempt.ID)
	require.NoError(t, err)
	require.Equal(t, entity.MintAttemptSuccess, result.Status)
	require.Equal(t, int64(5), result.BlockHeight.Int64)
}

func TestRecorder_SupersededAttemptCannotSucceed(t *testing.T) {
	ctx := testutil.MockContext()
	attemptRepo := repository.NewMintAttemptRepository()
	recorder := NewRecorder(attemptRepo)

	attempt := createAttempt(t, ctx, entity.MintAttemptPending, true, time.Hour, "0x01")
	require.NoError(t, attemptRepo.ReleaseClaim(ctx, attempt.ID, "", supersededAnnotation))

	require.ErrorIs(t, recorder.Record(ctx, attempt.ID, SuccessOutcome("0x01", 5)), repository.ErrAttemptNotClaimed)
	require.ErrorIs(t, recorder.Record(ctx, attempt.ID, TransientOutcome("x")), repository.ErrAttemptNotClaimed)
}
