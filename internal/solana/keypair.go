package solana

import (
	"crypto/ed25519"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/blocto/solana-go-sdk/types"
	"github.com/mr-tron/base58"
)

// LoadKeypair restores an account from either a solana-keygen JSON array ([u8;64])
// or a base58 string holding the 64-byte secret key or its 32-byte seed.
func LoadKeypair(secret string) (types.Account, error) {
	s := strings.TrimSpace(secret)
	if s == "" {
		return types.Account{}, fmt.Errorf("empty keypair secret")
	}

	var key []byte
	if strings.HasPrefix(s, "[") {
		b, err := decodeKeypairJSON([]byte(s))
		if err != nil {
			return types.Account{}, err
		}
		key = b
	} else {
		b, err := base58.Decode(s)
		if err != nil {
			return types.Account{}, fmt.Errorf("decode base58 keypair: %w", err)
		}
		key = b
	}

	switch len(key) {
	case ed25519.PrivateKeySize:
	case ed25519.SeedSize:
		key = ed25519.NewKeyFromSeed(key)
	default:
		return types.Account{}, fmt.Errorf("keypair must be %d or %d bytes, got %d",
			ed25519.PrivateKeySize, ed25519.SeedSize, len(key))
	}

	acc, err := types.AccountFromBytes(key)
	if err != nil {
		return types.Account{}, fmt.Errorf("restore account: %w", err)
	}
	return acc, nil
}

// LoadKeypairFile reads a solana-keygen keypair file.
func LoadKeypairFile(path string) (types.Account, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.Account{}, fmt.Errorf("read keypair file: %w", err)
	}
	return LoadKeypair(string(data))
}

// MarshalKeypair renders acc in the solana-keygen JSON array format.
func MarshalKeypair(acc types.Account) ([]byte, error) {
	ints := make([]int, len(acc.PrivateKey))
	for i, b := range acc.PrivateKey {
		ints[i] = int(b)
	}
	return json.Marshal(ints)
}

func decodeKeypairJSON(data []byte) ([]byte, error) {
	var ints []int
	if err := json.Unmarshal(data, &ints); err != nil {
		return nil, fmt.Errorf("unmarshal keypair json: %w", err)
	}
	b := make([]byte, len(ints))
	for i, v := range ints {
		if v < 0 || v > 255 {
			return nil, fmt.Errorf("keypair byte out of range at %d: %d", i, v)
		}
		b[i] = byte(v)
	}
	return b, nil
}
