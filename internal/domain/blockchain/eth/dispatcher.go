package eth

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	ethereum "github.com/ethereum/go-ethereum"
	ethcommon "github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/questx-lab/badge-minter/internal/domain/blockchain/types"
	"github.com/questx-lab/badge-minter/pkg/xcontext"
)

// EthDispatcher submits mint transactions to an ETH chain and queries their
// receipts.
type EthDispatcher struct {
	client EthClient

	// All mint transactions are signed by the same account. Building and
	// sending are serialized so two transactions never pick the same nonce.
	mutex sync.Mutex
}

func NewEthDispatcher(client EthClient) *EthDispatcher {
	return &EthDispatcher{client: client}
}

// SubmitMint signs mint(to, tokenID), gives its hash to beforeSend, then
// broadcasts it. Nothing is broadcast if beforeSend fails. Errors are always
// *types.ChainError.
func (d *EthDispatcher) SubmitMint(
	ctx context.Context,
	to ethcommon.Address,
	tokenID *big.Int,
	beforeSend func(txReference string) error,
) (string, error) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	tx, err := d.client.GetSignedMintTx(ctx, to, tokenID)
	if err != nil {
		// The transaction was never sent, there is no hash to report.
		return "", &types.ChainError{Kind: buildErrorKind(err), Err: err}
	}

	txHash := tx.Hash().Hex()
	if beforeSend != nil {
		if err := beforeSend(txHash); err != nil {
			// The nonce is not consumed, the next transaction reuses it.
			return "", &types.ChainError{
				Kind: types.ChainErrorTransient,
				Err:  fmt.Errorf("cannot prepare sending of tx %s: %w", txHash, err),
			}
		}
	}

	if err := d.client.SendTransaction(ctx, tx); err != nil {
		kind := ClassifySendError(err)
		xcontext.Logger(ctx).Warnf("Cannot send mint tx %s to %s (%s): %v", txHash, to, kind, err)
		return "", &types.ChainError{Kind: kind, TxReference: txHash, Err: err}
	}

	xcontext.Logger(ctx).Infof("Mint tx is dispatched successfully to %s, token = %s, txHash = %s",
		to, tokenID, txHash)

	return txHash, nil
}

// GetReceipt returns the receipt of the transaction, or types.ErrNotYetConfirmed
// if the chain does not know it yet.
func (d *EthDispatcher) GetReceipt(ctx context.Context, txReference string) (*types.Receipt, error) {
	hashBytes := ethcommon.FromHex(txReference)
	if len(hashBytes) != ethcommon.HashLength {
		return nil, fmt.Errorf("invalid transaction hash %q", txReference)
	}

	if timeout := xcontext.Configs(ctx).Blockchain.RPCTimeout; timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	receipt, err := d.client.TransactionReceipt(ctx, ethcommon.BytesToHash(hashBytes))
	if err != nil {
		if errors.Is(err, ethereum.NotFound) {
			return nil, types.ErrNotYetConfirmed
		}

		return nil, err
	}

	var height uint64
	if receipt.BlockNumber != nil {
		height = receipt.BlockNumber.Uint64()
	}

	return &types.Receipt{
		TxReference: txReference,
		BlockHeight: height,
		Succeeded:   receipt.Status == ethtypes.ReceiptStatusSuccessful,
	}, nil
}

// buildErrorKind classifies an error returned while preparing a transaction.
// Nothing reached the mempool, so an "already known" wording here cannot
// mean the transaction was broadcast.
func buildErrorKind(err error) types.ChainErrorKind {
	kind := ClassifySendError(err)
	if kind == types.ChainErrorAlreadyBroadcast {
		return types.ChainErrorTransient
	}

	return kind
}
