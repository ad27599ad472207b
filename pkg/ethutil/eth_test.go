package ethutil

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"
)

func derivedAddress(t *testing.T, secret, nonce string) common.Address {
	key, err := GeneratePrivateKey([]byte(secret), []byte(nonce))
	require.NoError(t, err)
	return ethcrypto.PubkeyToAddress(key.PublicKey)
}

func TestGeneratePrivateKey_Deterministic(t *testing.T) {
	a := derivedAddress(t, "secret", "nonce")
	require.Equal(t, a, derivedAddress(t, "secret", "nonce"))
	require.NotEqual(t, a, derivedAddress(t, "secret", "other"))
}

func TestLoadPrivateKey(t *testing.T) {
	key, err := ethcrypto.GenerateKey()
	require.NoError(t, err)
	address := ethcrypto.PubkeyToAddress(key.PublicKey)

	loaded, err := LoadPrivateKey(hexutil.Encode(ethcrypto.FromECDSA(key)), "")
	require.NoError(t, err)
	require.Equal(t, address, ethcrypto.PubkeyToAddress(loaded.PublicKey))

	derived, err := LoadPrivateKey("", "secret")
	require.NoError(t, err)
	require.Equal(t, derivedAddress(t, "secret", ""), ethcrypto.PubkeyToAddress(derived.PublicKey))

	_, err = LoadPrivateKey("", "")
	require.Error(t, err)

	_, err = LoadPrivateKey("zz", "")
	require.Error(t, err)
}
