package eth

import (
	"context"
	"errors"
	"math/big"
	"testing"

	ethereum "github.com/ethereum/go-ethereum"
	ethcommon "github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/questx-lab/badge-minter/internal/domain/blockchain/types"
	"github.com/questx-lab/badge-minter/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var (
	testRecipient = ethcommon.HexToAddress("0x1111111111111111111111111111111111111111")
	testTokenID   = big.NewInt(42)
)

func newTestTx() *ethtypes.Transaction {
	return ethtypes.NewTransaction(7, testRecipient, big.NewInt(0), 21000, big.NewInt(1), nil)
}

func TestEthDispatcher_SubmitMint(t *testing.T) {
	ctx := context.Background()
	tx := newTestTx()

	client := &mocks.EthClient{}
	client.On("GetSignedMintTx", mock.Anything, testRecipient, testTokenID).Return(tx, nil)
	client.On("SendTransaction", mock.Anything, tx).Return(nil)

	stored := ""
	beforeSend := func(txReference string) error {
		client.AssertNotCalled(t, "SendTransaction", mock.Anything, mock.Anything)
		stored = txReference
		return nil
	}

	txHash, err := NewEthDispatcher(client).SubmitMint(ctx, testRecipient, testTokenID, beforeSend)
	require.NoError(t, err)
	require.Equal(t, tx.Hash().Hex(), txHash)
	require.Equal(t, txHash, stored)
	client.AssertExpectations(t)
}

func TestEthDispatcher_SubmitMint_NotStored(t *testing.T) {
	ctx := context.Background()

	client := &mocks.EthClient{}
	client.On("GetSignedMintTx", mock.Anything, testRecipient, testTokenID).Return(newTestTx(), nil)

	_, err := NewEthDispatcher(client).SubmitMint(ctx, testRecipient, testTokenID, func(string) error {
		return errors.New("database is down")
	})

	var chainErr *types.ChainError
	require.ErrorAs(t, err, &chainErr)
	require.Equal(t, types.ChainErrorTransient, chainErr.Kind)
	require.Empty(t, chainErr.TxReference)
	client.AssertNotCalled(t, "SendTransaction", mock.Anything, mock.Anything)
}

func TestEthDispatcher_SubmitMint_SendFailed(t *testing.T) {
	ctx := context.Background()
	tx := newTestTx()

	client := &mocks.EthClient{}
	client.On("GetSignedMintTx", mock.Anything, testRecipient, testTokenID).Return(tx, nil)
	client.On("SendTransaction", mock.Anything, tx).Return(errors.New("i/o timeout"))

	_, err := NewEthDispatcher(client).SubmitMint(ctx, testRecipient, testTokenID, nil)

	var chainErr *types.ChainError
	require.ErrorAs(t, err, &chainErr)
	require.Equal(t, types.ChainErrorTransient, chainErr.Kind)
	require.Equal(t, tx.Hash().Hex(), chainErr.TxReference)
}

func TestEthDispatcher_SubmitMint_AlreadyKnown(t *testing.T) {
	ctx := context.Background()
	tx := newTestTx()

	client := &mocks.EthClient{}
	client.On("GetSignedMintTx", mock.Anything, testRecipient, testTokenID).Return(tx, nil)
	client.On("SendTransaction", mock.Anything, tx).Return(errors.New("already known"))

	_, err := NewEthDispatcher(client).SubmitMint(ctx, testRecipient, testTokenID, nil)

	var chainErr *types.ChainError
	require.ErrorAs(t, err, &chainErr)
	require.Equal(t, types.ChainErrorAlreadyBroadcast, chainErr.Kind)
	require.Equal(t, tx.Hash().Hex(), chainErr.TxReference)
	client.AssertNumberOfCalls(t, "SendTransaction", 1)
}

func TestEthDispatcher_SubmitMint_BuildFailed(t *testing.T) {
	ctx := context.Background()

	client := &mocks.EthClient{}
	client.On("GetSignedMintTx", mock.Anything, testRecipient, testTokenID).
		Return(nil, errors.New("execution reverted: ERC721: token already minted"))

	_, err := NewEthDispatcher(client).SubmitMint(ctx, testRecipient, testTokenID, nil)

	var chainErr *types.ChainError
	require.ErrorAs(t, err, &chainErr)
	require.Equal(t, types.ChainErrorRejected, chainErr.Kind)
	require.Empty(t, chainErr.TxReference)
	client.AssertNotCalled(t, "SendTransaction", mock.Anything, mock.Anything)
}

func TestEthDispatcher_GetReceipt(t *testing.T) {
	ctx := context.Background()
	hash := newTestTx().Hash()

	client := &mocks.EthClient{}
	client.On("TransactionReceipt", mock.Anything, hash).Return(&ethtypes.Receipt{
		Status:      ethtypes.ReceiptStatusSuccessful,
		BlockNumber: big.NewInt(100),
	}, nil).Once()
	client.On("TransactionReceipt", mock.Anything, hash).Return(&ethtypes.Receipt{
		Status:      ethtypes.ReceiptStatusFailed,
		BlockNumber: big.NewInt(101),
	}, nil).Once()
	client.On("TransactionReceipt", mock.Anything, hash).Return(nil, ethereum.NotFound).Once()

	dispatcher := NewEthDispatcher(client)

	receipt, err := dispatcher.GetReceipt(ctx, hash.Hex())
	require.NoError(t, err)
	require.Equal(t, &types.Receipt{TxReference: hash.Hex(), BlockHeight: 100, Succeeded: true}, receipt)

	receipt, err = dispatcher.GetReceipt(ctx, hash.Hex())
	require.NoError(t, err)
	require.False(t, receipt.Succeeded)
	require.Equal(t, uint64(101), receipt.BlockHeight)

	_, err = dispatcher.GetReceipt(ctx, hash.Hex())
	require.ErrorIs(t, err, types.ErrNotYetConfirmed)

	_, err = dispatcher.GetReceipt(ctx, "0xabc")
	require.Error(t, err)
}
