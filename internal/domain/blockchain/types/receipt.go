package types

type Receipt struct {
	TxReference string
	BlockHeight uint64

	// Succeeded is false if the transaction was mined but reverted.
	Succeeded bool
}
