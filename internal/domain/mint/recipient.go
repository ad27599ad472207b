package mint

import (
	"context"
	"errors"
	"fmt"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/questx-lab/badge-minter/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrNoWalletProvisioned = errors.New("user has no wallet provisioned")
	ErrMalformedAddress    = errors.New("user wallet address is malformed")
)

type RecipientResolver interface {
	ResolveAddress(ctx context.Context, userID string) (ethcommon.Address, error)
}

type userRecipientResolver struct {
	userRepo repository.UserRepository
}

func NewRecipientResolver(userRepo repository.UserRepository) *userRecipientResolver {
	return &userRecipientResolver{userRepo: userRepo}
}

// ResolveAddress returns the wallet of the user. Any error other than
// ErrNoWalletProvisioned and ErrMalformedAddress comes from the store and is
// worth retrying.
func (r *userRecipientResolver) ResolveAddress(ctx context.Context, userID string) (ethcommon.Address, error) {
	user, err := r.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ethcommon.Address{}, fmt.Errorf("%w: user %s not found", ErrNoWalletProvisioned, userID)
		}

		return ethcommon.Address{}, fmt.Errorf("cannot get user %s: %w", userID, err)
	}

	if !user.WalletAddress.Valid || user.WalletAddress.String == "" {
		return ethcommon.Address{}, fmt.Errorf("%w: user %s", ErrNoWalletProvisioned, userID)
	}

	if !ethcommon.IsHexAddress(user.WalletAddress.String) {
		return ethcommon.Address{}, fmt.Errorf("%w: %q", ErrMalformedAddress, user.WalletAddress.String)
	}

	address := ethcommon.HexToAddress(user.WalletAddress.String)
	if address == (ethcommon.Address{}) {
		return ethcommon.Address{}, fmt.Errorf("%w: zero address", ErrMalformedAddress)
	}

	return address, nil
}
