package mocks

import (
	"context"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/questx-lab/badge-minter/internal/domain/blockchain/types"
	"github.com/stretchr/testify/mock"
)

type Chain struct {
	mock.Mock
}

// SubmitMint calls beforeSend with the reference it is configured to return,
// either directly or inside a *types.ChainError, the way a real chain client
// does before broadcasting.
func (c *Chain) SubmitMint(
	arg1 context.Context, arg2 common.Address, arg3 *big.Int, arg4 func(string) error,
) (string, error) {
	args := c.Called(arg1, arg2, arg3)

	txReference := args.String(0)
	var chainErr *types.ChainError
	if errors.As(args.Error(1), &chainErr) {
		txReference = chainErr.TxReference
	}

	if txReference != "" && arg4 != nil {
		if err := arg4(txReference); err != nil {
			return "", &types.ChainError{Kind: types.ChainErrorTransient, Err: err}
		}
	}

	return args.String(0), args.Error(1)
}

func (c *Chain) GetReceipt(arg1 context.Context, arg2 string) (*types.Receipt, error) {
	args := c.Called(arg1, arg2)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Receipt), args.Error(1)
}
