package mint

import (
	"context"
	"errors"
	"fmt"

	"github.com/questx-lab/badge-minter/internal/entity"
	"github.com/questx-lab/badge-minter/internal/repository"
	"github.com/questx-lab/badge-minter/pkg/xcontext"
)

// Recorder is the only writer of attempt outcomes. All writes are conditional
// on the attempt being pending, so a terminal attempt never changes.
type Recorder struct {
	attemptRepo repository.MintAttemptRepository
}

func NewRecorder(attemptRepo repository.MintAttemptRepository) *Recorder {
	return &Recorder{attemptRepo: attemptRepo}
}

// RecordBroadcast sets the transaction reference of the attempt. The reference
// cannot be changed afterwards.
func (r *Recorder) RecordBroadcast(ctx context.Context, attemptID, txReference string) error {
	return r.attemptRepo.SetTxReference(ctx, attemptID, txReference)
}

func (r *Recorder) Record(ctx context.Context, attemptID string, outcome Outcome) error {
	switch outcome.Kind {
	case OutcomeSuccess:
		return r.attemptRepo.MarkSuccess(ctx, attemptID, outcome.TxReference, outcome.BlockHeight)

	case OutcomeFailed:
		if err := r.keepReference(ctx, attemptID, outcome.TxReference); err != nil {
			return err
		}

		return r.attemptRepo.MarkFailed(ctx, attemptID, outcome.Category, outcome.Detail)

	case OutcomeUnresolved:
		if err := r.keepReference(ctx, attemptID, outcome.TxReference); err != nil {
			return err
		}

		return r.attemptRepo.Annotate(ctx, attemptID, outcome.Category, outcome.Detail)

	case OutcomeTransient:
		return r.attemptRepo.ReleaseClaim(ctx, attemptID, entity.MintErrorTransient, outcome.Detail)
	}

	return fmt.Errorf("unknown outcome kind %d", outcome.Kind)
}

// keepReference makes sure the reference of an undecided or reverted
// transaction is on the attempt, so it is never broadcast again.
func (r *Recorder) keepReference(ctx context.Context, attemptID, txReference string) error {
	if txReference == "" {
		return nil
	}

	err := r.attemptRepo.SetTxReference(ctx, attemptID, txReference)
	if errors.Is(err, repository.ErrTxReferenceImmutable) {
		xcontext.Logger(ctx).Warnf("Attempt %s already references another transaction than %s",
			attemptID, txReference)
		return nil
	}

	return err
}
