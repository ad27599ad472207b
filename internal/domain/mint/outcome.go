package mint

import "github.com/questx-lab/badge-minter/internal/entity"

type OutcomeKind int

const (
	// OutcomeSuccess means the mint transaction is confirmed.
	OutcomeSuccess OutcomeKind = iota

	// OutcomeFailed is terminal. The pair can be retried by a new attempt.
	OutcomeFailed

	// OutcomeUnresolved means the transaction may or may not be mined. The
	// attempt keeps owning the pair until it is reconciled or goes stale.
	OutcomeUnresolved

	// OutcomeTransient means nothing reached the chain. The attempt gives up
	// the pair so the next request proceeds at once.
	OutcomeTransient
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeFailed:
		return "failed"
	case OutcomeUnresolved:
		return "unresolved"
	default:
		return "transient"
	}
}

type Outcome struct {
	Kind        OutcomeKind
	TxReference string
	BlockHeight uint64
	Category    entity.MintErrorCategory

	// Detail is the verbatim error for failures, or the annotation of an
	// unresolved attempt.
	Detail string
}

func SuccessOutcome(txReference string, blockHeight uint64) Outcome {
	return Outcome{Kind: OutcomeSuccess, TxReference: txReference, BlockHeight: blockHeight}
}

func FailedOutcome(category entity.MintErrorCategory, detail string) Outcome {
	return Outcome{Kind: OutcomeFailed, Category: category, Detail: detail}
}

func UnresolvedOutcome(category entity.MintErrorCategory, txReference, annotation string) Outcome {
	return Outcome{Kind: OutcomeUnresolved, Category: category, TxReference: txReference, Detail: annotation}
}

func TransientOutcome(detail string) Outcome {
	return Outcome{Kind: OutcomeTransient, Category: entity.MintErrorTransient, Detail: detail}
}
