package ethutil

import (
	"crypto/ecdsa"
	"crypto/sha256"
	"errors"
	"strings"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// GeneratePrivateKey derives a key from secret and nonce. The same inputs
// always give the same key.
func GeneratePrivateKey(secret, nonce []byte) (*ecdsa.PrivateKey, error) {
	// ecdsa.GenerateKey may consume an extra random byte of its reader, so
	// the seed is used as the scalar itself.
	seed := sha256.Sum256(append(secret, nonce...))
	return ethcrypto.ToECDSA(seed[:])
}

// LoadPrivateKey parses a hex encoded key, with or without 0x prefix. If hexKey
// is empty, the key is derived from secret instead.
func LoadPrivateKey(hexKey, secret string) (*ecdsa.PrivateKey, error) {
	if hexKey != "" {
		return ethcrypto.HexToECDSA(strings.TrimPrefix(hexKey, "0x"))
	}

	if secret == "" {
		return nil, errors.New("neither private key nor secret key is configured")
	}

	return GeneratePrivateKey([]byte(secret), []byte{})
}
