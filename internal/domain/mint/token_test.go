package mint

import (
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"
)

func TestDeriveTokenID(t *testing.T) {
	a := DeriveTokenID("U1", "A1")
	require.Equal(t, a, DeriveTokenID("U1", "A1"))
	require.NotEqual(t, a, DeriveTokenID("U1", "A2"))
	require.NotEqual(t, a, DeriveTokenID("U2", "A1"))

	expected := crypto.Keccak256Hash([]byte("U1A1")).Big()
	require.Equal(t, expected, a)
	require.LessOrEqual(t, a.BitLen(), 256)
}

func TestValidatePair(t *testing.T) {
	require.NoError(t, ValidatePair("U1", "A1"))
	require.NoError(t, ValidatePair(strings.Repeat("u", MaxIdentifierLength), "A1"))

	require.ErrorIs(t, ValidatePair("", "A1"), ErrInvalidIdentifier)
	require.ErrorIs(t, ValidatePair("U1", ""), ErrInvalidIdentifier)
	require.ErrorIs(t, ValidatePair(" U1", "A1"), ErrInvalidIdentifier)
	require.ErrorIs(t, ValidatePair("U1", "A1\n"), ErrInvalidIdentifier)
	require.ErrorIs(t, ValidatePair(strings.Repeat("u", MaxIdentifierLength+1), "A1"), ErrInvalidIdentifier)
	require.ErrorIs(t, ValidatePair("U1", string([]byte{0xff, 0xfe})), ErrInvalidIdentifier)
}
