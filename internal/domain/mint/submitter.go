package mint

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/questx-lab/badge-minter/internal/common"
	"github.com/questx-lab/badge-minter/internal/domain/blockchain/types"
	"github.com/questx-lab/badge-minter/internal/entity"
	"github.com/questx-lab/badge-minter/internal/repository"
	"github.com/questx-lab/badge-minter/pkg/xcontext"
	"golang.org/x/exp/slices"
)

type submitState string

const (
	stateNotStarted         submitState = "not_started"
	stateBroadcasting       submitState = "broadcasting"
	stateConfirmed          submitState = "confirmed"
	stateBroadcastAmbiguous submitState = "broadcast_ambiguous"
	stateRejected           submitState = "rejected"
	stateSuccess            submitState = "success"
	stateFailed             submitState = "failed"
)

const manualReconciliationAnnotation = "transaction already known by the chain but no reference " +
	"is recorded, manual reconciliation required"

// Submitter broadcasts at most one mint transaction per attempt and follows it
// until the chain decides or the confirmation bound is reached.
type Submitter struct {
	chain       Chain
	attemptRepo repository.MintAttemptRepository
	recorder    *Recorder
}

func NewSubmitter(
	chain Chain,
	attemptRepo repository.MintAttemptRepository,
	recorder *Recorder,
) *Submitter {
	return &Submitter{
		chain:       chain,
		attemptRepo: attemptRepo,
		recorder:    recorder,
	}
}

func (s *Submitter) Submit(
	ctx context.Context, attempt *entity.MintAttempt, to ethcommon.Address, tokenID *big.Int,
) Outcome {
	s.transit(ctx, attempt, stateNotStarted, stateBroadcasting)

	// The reference is on the attempt before the transaction leaves the
	// process, so a crash never loses track of a broadcast mint.
	recordBroadcast := func(txReference string) error {
		return s.recorder.RecordBroadcast(ctx, attempt.ID, txReference)
	}

	txReference, err := s.chain.SubmitMint(ctx, to, tokenID, recordBroadcast)
	if err == nil {
		s.transit(ctx, attempt, stateBroadcasting, stateConfirmed)
		return s.await(ctx, attempt, stateConfirmed, []string{txReference})
	}

	var chainErr *types.ChainError
	if !errors.As(err, &chainErr) {
		chainErr = &types.ChainError{Kind: types.ChainErrorTransient, Err: err}
	}

	detail := err.Error()
	if chainErr.Err != nil {
		detail = chainErr.Err.Error()
	}

	switch chainErr.Kind {
	case types.ChainErrorRejected:
		s.transit(ctx, attempt, stateBroadcasting, stateRejected)
		s.transit(ctx, attempt, stateRejected, stateFailed)
		outcome := FailedOutcome(entity.MintErrorChainRejected, detail)
		outcome.TxReference = chainErr.TxReference
		return outcome

	case types.ChainErrorAlreadyBroadcast:
		s.transit(ctx, attempt, stateBroadcasting, stateBroadcastAmbiguous)
		return s.recover(ctx, attempt, chainErr.TxReference)
	}

	if chainErr.TxReference != "" || ctx.Err() != nil {
		// The node may hold the transaction. The attempt keeps its claim
		// until the transaction is found or the attempt goes stale.
		s.transit(ctx, attempt, stateBroadcasting, stateBroadcastAmbiguous)
		xcontext.Logger(ctx).Warnf("Attempt %s is interrupted while sending tx %q: %v",
			attempt.ID, chainErr.TxReference, err)
		return UnresolvedOutcome("", chainErr.TxReference,
			fmt.Sprintf("interrupted while sending tx %q: %s", chainErr.TxReference, detail))
	}

	xcontext.Logger(ctx).Warnf("Transient error when submitting attempt %s: %v", attempt.ID, err)
	return TransientOutcome(detail)
}

// Resume follows a transaction broadcast by an earlier attempt of the same
// pair. It never submits.
func (s *Submitter) Resume(ctx context.Context, attempt *entity.MintAttempt, txReference string) Outcome {
	if err := s.recorder.RecordBroadcast(ctx, attempt.ID, txReference); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot adopt tx %s for attempt %s: %v", txReference, attempt.ID, err)
	}

	xcontext.Logger(ctx).Infof("Attempt %s resumes tx %s of a superseded attempt", attempt.ID, txReference)
	return s.await(ctx, attempt, stateBroadcastAmbiguous, []string{txReference})
}

// recover handles a transaction the chain already knows. The transaction is
// looked up by the references the ledger knows, it is never broadcast again.
func (s *Submitter) recover(ctx context.Context, attempt *entity.MintAttempt, hint string) Outcome {
	candidates := s.candidateReferences(ctx, attempt, hint)
	if len(candidates) == 0 {
		xcontext.Logger(ctx).Errorf("Attempt %s: %s", attempt.ID, manualReconciliationAnnotation)
		return UnresolvedOutcome(entity.MintErrorUnresolvable, "", manualReconciliationAnnotation)
	}

	xcontext.Logger(ctx).Infof("Attempt %s recovers with candidate txs %v", attempt.ID, candidates)
	return s.await(ctx, attempt, stateBroadcastAmbiguous, candidates)
}

// candidateReferences lists, without duplicates, the reference of the attempt
// itself, then those of the other attempts of the pair from the most recent,
// then the hint of the chain client.
func (s *Submitter) candidateReferences(ctx context.Context, attempt *entity.MintAttempt, hint string) []string {
	candidates := []string{}
	add := func(reference string) {
		if reference != "" && !slices.Contains(candidates, reference) {
			candidates = append(candidates, reference)
		}
	}

	current, err := s.attemptRepo.GetByID(ctx, attempt.ID)
	if err != nil {
		xcontext.Logger(ctx).Warnf("Cannot reload attempt %s: %v", attempt.ID, err)
		add(attempt.TxReference.String)
	} else {
		add(current.TxReference.String)
	}

	others, err := s.attemptRepo.GetByPair(ctx, attempt.UserID, attempt.AchievementID)
	if err != nil {
		xcontext.Logger(ctx).Warnf("Cannot get attempts of %s/%s: %v", attempt.UserID, attempt.AchievementID, err)
	}

	for _, other := range others {
		if other.ID != attempt.ID {
			add(other.TxReference.String)
		}
	}

	add(hint)
	return candidates
}

// await polls the receipts of the candidates until one of them is mined. The
// wait is bounded by MaxPollAttempts rounds spaced by PollInterval.
func (s *Submitter) await(
	ctx context.Context, attempt *entity.MintAttempt, state submitState, candidates []string,
) Outcome {
	cfg := xcontext.Configs(ctx).Mint
	rounds := cfg.MaxPollAttempts
	if rounds <= 0 {
		rounds = 1
	}

	start := time.Now()
	for round := 0; round < rounds; round++ {
		if round > 0 {
			select {
			case <-ctx.Done():
				return UnresolvedOutcome("", candidates[0],
					fmt.Sprintf("interrupted while waiting for tx %s: %v", candidates[0], ctx.Err()))
			case <-time.After(cfg.PollInterval):
			}
		}

		for _, reference := range candidates {
			receipt, err := s.chain.GetReceipt(ctx, reference)
			if err != nil {
				if !errors.Is(err, types.ErrNotYetConfirmed) {
					xcontext.Logger(ctx).Warnf("Cannot get receipt of tx %s: %v", reference, err)
				}

				continue
			}

			elapsed := time.Since(start).Seconds()
			if !receipt.Succeeded {
				common.PromHistograms[common.MintConfirmationSeconds].WithLabelValues("reverted").Observe(elapsed)
				s.transit(ctx, attempt, state, stateFailed)
				outcome := FailedOutcome(entity.MintErrorChainRejected,
					fmt.Sprintf("tx %s reverted in block %d", reference, receipt.BlockHeight))
				outcome.TxReference = reference
				return outcome
			}

			common.PromHistograms[common.MintConfirmationSeconds].WithLabelValues("succeeded").Observe(elapsed)
			s.transit(ctx, attempt, state, stateSuccess)
			return SuccessOutcome(reference, receipt.BlockHeight)
		}
	}

	common.PromHistograms[common.MintConfirmationSeconds].WithLabelValues("timeout").
		Observe(time.Since(start).Seconds())

	return UnresolvedOutcome("", candidates[0], fmt.Sprintf(
		"tx %s is not confirmed after %d receipt queries, awaiting reconciliation", candidates[0], rounds))
}

func (s *Submitter) transit(ctx context.Context, attempt *entity.MintAttempt, from, to submitState) {
	xcontext.Logger(ctx).Debugf("Mint attempt %s of %s/%s: %s -> %s",
		attempt.ID, attempt.UserID, attempt.AchievementID, from, to)
}
