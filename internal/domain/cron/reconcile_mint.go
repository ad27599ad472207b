package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/questx-lab/badge-minter/internal/common"
	"github.com/questx-lab/badge-minter/internal/domain/blockchain/types"
	"github.com/questx-lab/badge-minter/internal/domain/mint"
	"github.com/questx-lab/badge-minter/internal/entity"
	"github.com/questx-lab/badge-minter/internal/repository"
	"github.com/questx-lab/badge-minter/pkg/xcontext"
)

// ReconcileMintCronJob settles pending attempts whose transaction was
// broadcast but not confirmed in time, and closes attempts which lost their
// claim. It only queries receipts, it never submits anything.
type ReconcileMintCronJob struct {
	attemptRepo repository.MintAttemptRepository
	chain       mint.Chain
	recorder    *mint.Recorder
	interval    time.Duration
}

func NewReconcileMintCronJob(
	attemptRepo repository.MintAttemptRepository,
	chain mint.Chain,
	interval time.Duration,
) *ReconcileMintCronJob {
	return &ReconcileMintCronJob{
		attemptRepo: attemptRepo,
		chain:       chain,
		recorder:    mint.NewRecorder(attemptRepo),
		interval:    interval,
	}
}

func (job *ReconcileMintCronJob) Do(ctx context.Context) {
	cfg := xcontext.Configs(ctx).Mint

	// Younger attempts are still followed by their own request.
	before := time.Now().Add(-cfg.FreshnessWindow)

	attempts, err := job.attemptRepo.GetUnconfirmed(ctx, before, cfg.ReconcileBatchSize)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get unconfirmed mint attempts: %v", err)
		return
	}

	for i := range attempts {
		if ctx.Err() != nil {
			return
		}

		job.reconcile(ctx, &attempts[i])
	}

	released, err := job.attemptRepo.GetReleased(ctx, before, cfg.ReconcileBatchSize)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get released mint attempts: %v", err)
		return
	}

	for i := range released {
		if ctx.Err() != nil {
			return
		}

		job.close(ctx, &released[i])
	}
}

func (job *ReconcileMintCronJob) reconcile(ctx context.Context, attempt *entity.MintAttempt) {
	txReference := attempt.TxReference.String
	receipt, err := job.chain.GetReceipt(ctx, txReference)
	if err != nil {
		if !errors.Is(err, types.ErrNotYetConfirmed) {
			xcontext.Logger(ctx).Warnf("Cannot get receipt of tx %s of attempt %s: %v", txReference, attempt.ID, err)
		}

		return
	}

	var outcome mint.Outcome
	var status entity.MintAttemptStatus
	if receipt.Succeeded {
		outcome = mint.SuccessOutcome(txReference, receipt.BlockHeight)
		status = entity.MintAttemptSuccess
	} else {
		outcome = mint.FailedOutcome(entity.MintErrorChainRejected,
			fmt.Sprintf("tx %s reverted in block %d", txReference, receipt.BlockHeight))
		outcome.TxReference = txReference
		status = entity.MintAttemptFailed
	}

	if err := job.recorder.Record(ctx, attempt.ID, outcome); err != nil {
		xcontext.Logger(ctx).Warnf("Cannot record reconciled outcome of attempt %s: %v", attempt.ID, err)
		return
	}

	common.PromCounters[common.MintReconciledTotal].WithLabelValues(string(status)).Inc()
	xcontext.Logger(ctx).Infof("Reconciled mint attempt %s of %s/%s as %s",
		attempt.ID, attempt.UserID, attempt.AchievementID, status)
}

// close moves an attempt which lost its claim to failed. Its transaction, if
// any, stays listed on the attempt and is followed by the successor which
// adopted it.
func (job *ReconcileMintCronJob) close(ctx context.Context, attempt *entity.MintAttempt) {
	successor := "none"
	others, err := job.attemptRepo.GetByPair(ctx, attempt.UserID, attempt.AchievementID)
	if err != nil {
		xcontext.Logger(ctx).Warnf("Cannot get attempts of %s/%s: %v", attempt.UserID, attempt.AchievementID, err)
		return
	}

	// Attempts are sorted from the most recent, the first younger one is
	// the latest successor.
	for _, other := range others {
		if other.ID != attempt.ID && other.CreatedAt.After(attempt.CreatedAt) {
			successor = other.ID
			break
		}
	}

	category := entity.MintErrorCategory(attempt.ErrorCategory.String)
	if category == "" {
		category = entity.MintErrorUnresolvable
	}

	detail := fmt.Sprintf("closed after losing its claim (%s), successor attempt: %s",
		attempt.ErrorDetail.String, successor)
	if err := job.attemptRepo.CloseReleased(ctx, attempt.ID, category, detail); err != nil {
		xcontext.Logger(ctx).Warnf("Cannot close released mint attempt %s: %v", attempt.ID, err)
		return
	}

	common.PromCounters[common.MintReconciledTotal].WithLabelValues("closed").Inc()
	xcontext.Logger(ctx).Infof("Closed released mint attempt %s of %s/%s, successor = %s",
		attempt.ID, attempt.UserID, attempt.AchievementID, successor)
}

func (job *ReconcileMintCronJob) RunNow() bool {
	return true
}

func (job *ReconcileMintCronJob) Next() time.Time {
	return time.Now().Add(job.interval)
}
