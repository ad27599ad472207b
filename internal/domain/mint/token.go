package mint

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
	"unicode/utf8"

	"github.com/ethereum/go-ethereum/crypto"
)

const MaxIdentifierLength = 64

var ErrInvalidIdentifier = errors.New("invalid identifier")

// DeriveTokenID returns keccak256(userID || achievementID) as an uint256. The
// same pair always yields the same token, so the contract itself refuses a
// second mint of a pair.
func DeriveTokenID(userID, achievementID string) *big.Int {
	hash := crypto.Keccak256([]byte(userID), []byte(achievementID))
	return new(big.Int).SetBytes(hash)
}

func validateIdentifier(name, id string) error {
	switch {
	case id == "":
		return fmt.Errorf("%w: %s is empty", ErrInvalidIdentifier, name)
	case strings.TrimSpace(id) != id:
		return fmt.Errorf("%w: %s has leading or trailing spaces", ErrInvalidIdentifier, name)
	case len(id) > MaxIdentifierLength:
		return fmt.Errorf("%w: %s is longer than %d bytes", ErrInvalidIdentifier, name, MaxIdentifierLength)
	case !utf8.ValidString(id):
		return fmt.Errorf("%w: %s is not valid utf8", ErrInvalidIdentifier, name)
	}

	return nil
}

func ValidatePair(userID, achievementID string) error {
	if err := validateIdentifier("user id", userID); err != nil {
		return err
	}

	return validateIdentifier("achievement id", achievementID)
}
