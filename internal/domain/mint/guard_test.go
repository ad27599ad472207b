package mint

import (
	"context"
	"database/sql"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/questx-lab/badge-minter/internal/entity"
	"github.com/questx-lab/badge-minter/internal/repository"
	"github.com/questx-lab/badge-minter/pkg/testutil"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

// unavailableAttemptRepo fails every read. Writes are not implemented and
// panic if called.
type unavailableAttemptRepo struct {
	repository.MintAttemptRepository
}

func (unavailableAttemptRepo) GetByPair(context.Context, string, string) ([]entity.MintAttempt, error) {
	return nil, errors.New("connection refused")
}

func createAttempt(
	t *testing.T, ctx context.Context, status entity.MintAttemptStatus, claimed bool, age time.Duration, txReference string,
) *entity.MintAttempt {
	attempt := &entity.MintAttempt{
		Base:          entity.Base{ID: uuid.NewString(), CreatedAt: time.Now().Add(-age)},
		UserID:        testutil.User1.ID,
		AchievementID: "A1",
		Status:        status,
	}

	if claimed {
		attempt.ClaimKey = sql.NullString{Valid: true, String: entity.MintClaimKey(attempt.UserID, attempt.AchievementID)}
	}

	if txReference != "" {
		attempt.TxReference = sql.NullString{Valid: true, String: txReference}
	}

	if status == entity.MintAttemptSuccess {
		attempt.BlockHeight = sql.NullInt64{Valid: true, Int64: 10}
	}

	require.NoError(t, repository.NewMintAttemptRepository().Create(ctx, attempt))
	return attempt
}

func TestGuard_Proceed(t *testing.T) {
	ctx := testutil.MockContext()
	attemptRepo := repository.NewMintAttemptRepository()
	guard := NewGuard(attemptRepo)

	decision, err := guard.Check(ctx, testutil.User1.ID, "A1")
	require.NoError(t, err)
	require.Equal(t, DecisionProceed, decision.Kind)
	require.Empty(t, decision.PriorTxReference)

	attempt, err := attemptRepo.GetByID(ctx, decision.LedgerID)
	require.NoError(t, err)
	require.Equal(t, entity.MintAttemptPending, attempt.Status)
	require.True(t, attempt.ClaimKey.Valid)
	require.Equal(t, DeriveTokenID(testutil.User1.ID, "A1").String(), attempt.TokenID)

	decision, err = guard.Check(ctx, testutil.User1.ID, "A1")
	require.NoError(t, err)
	require.Equal(t, DecisionInProgress, decision.Kind)
	require.Equal(t, attempt.ID, decision.LedgerID)
}

func TestGuard_AlreadyMinted(t *testing.T) {
	ctx := testutil.MockContext()
	createAttempt(t, ctx, entity.MintAttemptFailed, false, time.Hour, "")
	success := createAttempt(t, ctx, entity.MintAttemptSuccess, true, 30*time.Minute, "0xabc")

	decision, err := NewGuard(repository.NewMintAttemptRepository()).Check(ctx, testutil.User1.ID, "A1")
	require.NoError(t, err)
	require.Equal(t, Decision{
		Kind:        DecisionAlreadyMinted,
		LedgerID:    success.ID,
		TxReference: "0xabc",
		BlockHeight: 10,
	}, decision)
}

func TestGuard_ReleasedAttemptsDoNotBlock(t *testing.T) {
	ctx := testutil.MockContext()
	createAttempt(t, ctx, entity.MintAttemptFailed, false, time.Minute, "")
	createAttempt(t, ctx, entity.MintAttemptPending, false, time.Second, "")

	decision, err := NewGuard(repository.NewMintAttemptRepository()).Check(ctx, testutil.User1.ID, "A1")
	require.NoError(t, err)
	require.Equal(t, DecisionProceed, decision.Kind)
}

func TestGuard_SupersedeStaleAttempt(t *testing.T) {
	ctx := testutil.MockContext()
	attemptRepo := repository.NewMintAttemptRepository()
	stale := createAttempt(t, ctx, entity.MintAttemptPending, true, time.Hour, "0xstale")

	decision, err := NewGuard(attemptRepo).Check(ctx, testutil.User1.ID, "A1")
	require.NoError(t, err)
	require.Equal(t, DecisionProceed, decision.Kind)
	require.NotEqual(t, stale.ID, decision.LedgerID)
	require.Equal(t, "0xstale", decision.PriorTxReference)

	superseded, err := attemptRepo.GetByID(ctx, stale.ID)
	require.NoError(t, err)
	require.Equal(t, entity.MintAttemptPending, superseded.Status)
	require.False(t, superseded.ClaimKey.Valid)
	require.Equal(t, supersededAnnotation, superseded.ErrorDetail.String)
	require.Equal(t, "0xstale", superseded.TxReference.String)
}

func TestGuard_UnresolvableIsNeverSuperseded(t *testing.T) {
	ctx := testutil.MockContext()
	attemptRepo := repository.NewMintAttemptRepository()
	stuck := createAttempt(t, ctx, entity.MintAttemptPending, true, 24*time.Hour, "")
	require.NoError(t, attemptRepo.Annotate(ctx, stuck.ID, entity.MintErrorUnresolvable, manualReconciliationAnnotation))

	decision, err := NewGuard(attemptRepo).Check(ctx, testutil.User1.ID, "A1")
	require.NoError(t, err)
	require.Equal(t, Decision{Kind: DecisionInProgress, LedgerID: stuck.ID}, decision)

	attempts, err := attemptRepo.GetByPair(ctx, testutil.User1.ID, "A1")
	require.NoError(t, err)
	require.Len(t, attempts, 1)
	require.True(t, attempts[0].ClaimKey.Valid)
}

func TestGuard_FailClosed(t *testing.T) {
	ctx := testutil.MockContext()

	_, err := NewGuard(unavailableAttemptRepo{}).Check(ctx, testutil.User1.ID, "A1")
	require.ErrorIs(t, err, ErrLedgerUnavailable)
}

func TestGuard_Concurrent(t *testing.T) {
	ctx := testutil.MockContext()
	guard := NewGuard(repository.NewMintAttemptRepository())

	var proceeds, inProgress atomic.Int32
	var ledgerIDs [20]string
	g := errgroup.Group{}
	for i := 0; i < len(ledgerIDs); i++ {
		i := i
		g.Go(func() error {
			decision, err := guard.Check(ctx, testutil.User1.ID, "A1")
			if err != nil {
				return err
			}

			switch decision.Kind {
			case DecisionProceed:
				proceeds.Add(1)
			case DecisionInProgress:
				inProgress.Add(1)
			}

			ledgerIDs[i] = decision.LedgerID
			return nil
		})
	}

	require.NoError(t, g.Wait())
	require.Equal(t, int32(1), proceeds.Load())
	require.Equal(t, int32(len(ledgerIDs)-1), inProgress.Load())
	for _, id := range ledgerIDs {
		require.Equal(t, ledgerIDs[0], id)
	}

	attempts, err := repository.NewMintAttemptRepository().GetByPair(ctx, testutil.User1.ID, "A1")
	require.NoError(t, err)
	require.Len(t, attempts, 1)
}
