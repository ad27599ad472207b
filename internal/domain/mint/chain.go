package mint

import (
	"context"
	"math/big"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/questx-lab/badge-minter/internal/domain/blockchain/types"
)

// Chain is the blockchain the badges are minted on.
type Chain interface {
	// SubmitMint signs mint(to, tokenID), hands the transaction reference to
	// beforeSend, and broadcasts it only if beforeSend succeeded. A failure is
	// reported as *types.ChainError, whose TxReference is set as soon as the
	// transaction may have left the process.
	SubmitMint(
		ctx context.Context,
		to ethcommon.Address,
		tokenID *big.Int,
		beforeSend func(txReference string) error,
	) (string, error)

	// GetReceipt returns types.ErrNotYetConfirmed until the transaction is
	// mined.
	GetReceipt(ctx context.Context, txReference string) (*types.Receipt, error)
}
