package mint

import (
	"context"
	"errors"
	"fmt"

	"github.com/questx-lab/badge-minter/internal/common"
	"github.com/questx-lab/badge-minter/internal/entity"
	"github.com/questx-lab/badge-minter/internal/repository"
	"github.com/questx-lab/badge-minter/pkg/enum"
	"github.com/questx-lab/badge-minter/pkg/xcontext"
)

type MintResultStatus string

var (
	MintResultAlreadyMinted = enum.New(MintResultStatus("already_minted"), "already_minted")
	MintResultInProgress    = enum.New(MintResultStatus("in_progress"), "in_progress")
	MintResultSuccess       = enum.New(MintResultStatus("success"), "success")
	MintResultFailed        = enum.New(MintResultStatus("failed"), "failed")
	MintResultUnresolved    = enum.New(MintResultStatus("unresolved"), "unresolved")
)

type MintResult struct {
	Status      MintResultStatus
	LedgerID    string
	TxReference string
	BlockHeight uint64
	TokenID     string
	Category    entity.MintErrorCategory
	Detail      string
}

// Retryable tells whether the same request may succeed later without any
// change on the user side.
func (r MintResult) Retryable() bool {
	return r.Status == MintResultFailed && r.Category == entity.MintErrorTransient
}

type Minter interface {
	RequestMint(ctx context.Context, userID, achievementID string) MintResult
}

type minter struct {
	attemptRepo repository.MintAttemptRepository
	guard       *Guard
	resolver    RecipientResolver
	submitter   *Submitter
	recorder    *Recorder
}

func NewMinter(
	attemptRepo repository.MintAttemptRepository,
	resolver RecipientResolver,
	chain Chain,
) *minter {
	recorder := NewRecorder(attemptRepo)
	return &minter{
		attemptRepo: attemptRepo,
		guard:       NewGuard(attemptRepo),
		resolver:    resolver,
		submitter:   NewSubmitter(chain, attemptRepo, recorder),
		recorder:    recorder,
	}
}

// RequestMint mints the badge of achievementID for userID at most once, no
// matter how many times it is called, concurrently or not.
func (m *minter) RequestMint(ctx context.Context, userID, achievementID string) MintResult {
	result := m.requestMint(ctx, userID, achievementID)

	common.PromCounters[common.MintResultsTotal].
		WithLabelValues(string(result.Status), string(result.Category)).Inc()

	if result.Status == MintResultFailed || result.Status == MintResultUnresolved {
		xcontext.Logger(ctx).Warnf("Mint of %s/%s ends with %s (%s): %s",
			userID, achievementID, result.Status, result.Category, result.Detail)
	} else {
		xcontext.Logger(ctx).Infof("Mint of %s/%s ends with %s, ledger = %s, tx = %s",
			userID, achievementID, result.Status, result.LedgerID, result.TxReference)
	}

	return result
}

func (m *minter) requestMint(ctx context.Context, userID, achievementID string) MintResult {
	if err := ValidatePair(userID, achievementID); err != nil {
		return MintResult{
			Status:   MintResultFailed,
			Category: entity.MintErrorInvalidRequest,
			Detail:   err.Error(),
		}
	}

	tokenID := DeriveTokenID(userID, achievementID)

	decision, err := m.guard.Check(ctx, userID, achievementID)
	if err != nil {
		return MintResult{
			Status:   MintResultFailed,
			TokenID:  tokenID.String(),
			Category: entity.MintErrorTransient,
			Detail:   err.Error(),
		}
	}

	switch decision.Kind {
	case DecisionAlreadyMinted:
		return MintResult{
			Status:      MintResultAlreadyMinted,
			LedgerID:    decision.LedgerID,
			TxReference: decision.TxReference,
			BlockHeight: decision.BlockHeight,
			TokenID:     tokenID.String(),
		}

	case DecisionInProgress:
		return MintResult{
			Status:   MintResultInProgress,
			LedgerID: decision.LedgerID,
			TokenID:  tokenID.String(),
		}
	}

	attempt := &entity.MintAttempt{
		Base:          entity.Base{ID: decision.LedgerID},
		UserID:        userID,
		AchievementID: achievementID,
		Status:        entity.MintAttemptPending,
		TokenID:       tokenID.String(),
	}

	var outcome Outcome
	if decision.PriorTxReference != "" {
		outcome = m.submitter.Resume(ctx, attempt, decision.PriorTxReference)
	} else {
		outcome = m.submit(ctx, attempt)
	}

	recordCtx := ctx
	if ctx.Err() != nil {
		// The caller is gone, still leave a trace on the attempt.
		recordCtx = context.WithoutCancel(ctx)
	}

	if err := m.recorder.Record(recordCtx, attempt.ID, outcome); err != nil {
		return m.recordFailed(recordCtx, attempt, outcome, err)
	}

	return resultOf(attempt, outcome)
}

func (m *minter) submit(ctx context.Context, attempt *entity.MintAttempt) Outcome {
	to, err := m.resolver.ResolveAddress(ctx, attempt.UserID)
	if err != nil {
		if errors.Is(err, ErrNoWalletProvisioned) || errors.Is(err, ErrMalformedAddress) {
			return FailedOutcome(entity.MintErrorNoWallet, err.Error())
		}

		return TransientOutcome(err.Error())
	}

	if err := m.attemptRepo.SetRecipient(ctx, attempt.ID, to.Hex()); err != nil {
		xcontext.Logger(ctx).Warnf("Cannot record recipient of attempt %s: %v", attempt.ID, err)
	}

	tokenID := DeriveTokenID(attempt.UserID, attempt.AchievementID)
	return m.submitter.Submit(ctx, attempt, to, tokenID)
}

// recordFailed builds the result when the outcome could not be written. If the
// attempt was superseded meanwhile, the ledger tells what happened to the pair.
func (m *minter) recordFailed(
	ctx context.Context, attempt *entity.MintAttempt, outcome Outcome, err error,
) MintResult {
	xcontext.Logger(ctx).Errorf("Cannot record %s outcome of attempt %s: %v", outcome.Kind, attempt.ID, err)

	if isLostUpdate(err) {
		attempts, getErr := m.attemptRepo.GetByPair(ctx, attempt.UserID, attempt.AchievementID)
		if getErr == nil {
			for _, a := range attempts {
				if a.Status == entity.MintAttemptSuccess {
					return MintResult{
						Status:      MintResultAlreadyMinted,
						LedgerID:    a.ID,
						TxReference: a.TxReference.String,
						BlockHeight: uint64(a.BlockHeight.Int64),
						TokenID:     attempt.TokenID,
					}
				}
			}
		}
	}

	return MintResult{
		Status:      MintResultUnresolved,
		LedgerID:    attempt.ID,
		TxReference: outcome.TxReference,
		TokenID:     attempt.TokenID,
		Category:    outcome.Category,
		Detail:      fmt.Sprintf("cannot record %s outcome: %v", outcome.Kind, err),
	}
}

func resultOf(attempt *entity.MintAttempt, outcome Outcome) MintResult {
	result := MintResult{
		LedgerID:    attempt.ID,
		TxReference: outcome.TxReference,
		BlockHeight: outcome.BlockHeight,
		TokenID:     attempt.TokenID,
		Category:    outcome.Category,
		Detail:      outcome.Detail,
	}

	switch outcome.Kind {
	case OutcomeSuccess:
		result.Status = MintResultSuccess
	case OutcomeUnresolved:
		result.Status = MintResultUnresolved
	default:
		result.Status = MintResultFailed
	}

	return result
}
