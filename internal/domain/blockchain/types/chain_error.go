package types

import (
	"errors"
	"fmt"
)

type ChainErrorKind int

const (
	// ChainErrorTransient means the node did not accept the transaction for a
	// reason which may go away, e.g. a timeout or a dropped connection.
	ChainErrorTransient ChainErrorKind = iota

	// ChainErrorAlreadyBroadcast means the node already knows an identical
	// transaction. It may have been mined or still be in the mempool.
	ChainErrorAlreadyBroadcast

	// ChainErrorRejected means the chain refused the transaction and will
	// keep refusing it.
	ChainErrorRejected
)

func (k ChainErrorKind) String() string {
	switch k {
	case ChainErrorAlreadyBroadcast:
		return "already_broadcast"
	case ChainErrorRejected:
		return "rejected"
	default:
		return "transient"
	}
}

// ChainError is returned by the chain client when a transaction could not be
// submitted.
type ChainError struct {
	Kind ChainErrorKind

	// TxReference is the hash of the transaction the client attempted to
	// send, if it is known.
	TxReference string

	Err error
}

func (e *ChainError) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *ChainError) Unwrap() error {
	return e.Err
}

// ErrNotYetConfirmed is returned when the transaction has no receipt yet.
var ErrNotYetConfirmed = errors.New("transaction is not yet confirmed")
