package mint

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/questx-lab/badge-minter/internal/entity"
	"github.com/questx-lab/badge-minter/internal/repository"
	"github.com/questx-lab/badge-minter/pkg/xcontext"
	"gorm.io/gorm"
)

var (
	// ErrLedgerUnavailable is returned when the guard cannot tell whether the
	// pair is already being minted. No attempt is created in that case.
	ErrLedgerUnavailable = errors.New("mint ledger is unavailable")

	// ErrClaimContended is returned when the pair changed owner twice during
	// a single check.
	ErrClaimContended = errors.New("mint claim is contended")
)

const supersededAnnotation = "superseded: no progress within the freshness window"

type DecisionKind int

const (
	DecisionProceed DecisionKind = iota
	DecisionInProgress
	DecisionAlreadyMinted
)

func (k DecisionKind) String() string {
	switch k {
	case DecisionProceed:
		return "proceed"
	case DecisionInProgress:
		return "in_progress"
	default:
		return "already_minted"
	}
}

type Decision struct {
	Kind     DecisionKind
	LedgerID string

	// Set for DecisionAlreadyMinted.
	TxReference string
	BlockHeight uint64

	// PriorTxReference is the transaction of a stale attempt superseded by
	// this check. The new attempt must follow it instead of submitting again.
	PriorTxReference string
}

// Guard decides whether a mint may be submitted for a pair. Its only state is
// the ledger, any number of guards may run concurrently.
type Guard struct {
	attemptRepo repository.MintAttemptRepository
}

func NewGuard(attemptRepo repository.MintAttemptRepository) *Guard {
	return &Guard{attemptRepo: attemptRepo}
}

// Check returns DecisionProceed together with a freshly claimed attempt only
// when no other attempt owns the pair.
func (g *Guard) Check(ctx context.Context, userID, achievementID string) (Decision, error) {
	decision, lost, err := g.check(ctx, userID, achievementID)
	if err != nil || !lost {
		return decision, err
	}

	// A concurrent guard changed the pair under us, check again to report
	// the winner.
	xcontext.Logger(ctx).Debugf("Lost the claim race of %s/%s, checking again", userID, achievementID)
	decision, lost, err = g.check(ctx, userID, achievementID)
	if err != nil {
		return decision, err
	}

	if lost {
		return Decision{}, ErrClaimContended
	}

	return decision, nil
}

func (g *Guard) check(ctx context.Context, userID, achievementID string) (Decision, bool, error) {
	attempts, err := g.attemptRepo.GetByPair(ctx, userID, achievementID)
	if err != nil {
		return Decision{}, false, fmt.Errorf("%w: %v", ErrLedgerUnavailable, err)
	}

	for _, attempt := range attempts {
		if attempt.Status == entity.MintAttemptSuccess {
			return Decision{
				Kind:        DecisionAlreadyMinted,
				LedgerID:    attempt.ID,
				TxReference: attempt.TxReference.String,
				BlockHeight: uint64(attempt.BlockHeight.Int64),
			}, false, nil
		}
	}

	freshness := xcontext.Configs(ctx).Mint.FreshnessWindow
	priorTxReference := ""
	for _, attempt := range attempts {
		if attempt.Status != entity.MintAttemptPending || !attempt.ClaimKey.Valid {
			continue
		}

		if time.Since(attempt.CreatedAt) < freshness {
			return Decision{Kind: DecisionInProgress, LedgerID: attempt.ID}, false, nil
		}

		// Nobody knows what such an attempt broadcast. It blocks the pair
		// until an operator settles it, whatever its age.
		if entity.MintErrorCategory(attempt.ErrorCategory.String) == entity.MintErrorUnresolvable {
			return Decision{Kind: DecisionInProgress, LedgerID: attempt.ID}, false, nil
		}

		err := g.attemptRepo.Supersede(ctx, attempt.ID, attempt.TxReference.String, supersededAnnotation)
		if err != nil {
			if isLostUpdate(err) {
				return Decision{}, true, nil
			}

			return Decision{}, false, fmt.Errorf("%w: %v", ErrLedgerUnavailable, err)
		}

		xcontext.Logger(ctx).Infof("Superseded stale mint attempt %s of %s/%s",
			attempt.ID, userID, achievementID)

		if attempt.TxReference.Valid {
			priorTxReference = attempt.TxReference.String
		}
	}

	newAttempt := &entity.MintAttempt{
		Base:          entity.Base{ID: uuid.NewString()},
		UserID:        userID,
		AchievementID: achievementID,
		Status:        entity.MintAttemptPending,
		ClaimKey:      sql.NullString{Valid: true, String: entity.MintClaimKey(userID, achievementID)},
		TokenID:       DeriveTokenID(userID, achievementID).String(),
	}

	if err := g.attemptRepo.Create(ctx, newAttempt); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return Decision{}, true, nil
		}

		return Decision{}, false, fmt.Errorf("%w: %v", ErrLedgerUnavailable, err)
	}

	return Decision{
		Kind:             DecisionProceed,
		LedgerID:         newAttempt.ID,
		PriorTxReference: priorTxReference,
	}, false, nil
}

func isLostUpdate(err error) bool {
	return errors.Is(err, repository.ErrAttemptNotPending) ||
		errors.Is(err, repository.ErrAttemptNotClaimed) ||
		errors.Is(err, repository.ErrAttemptChanged)
}
