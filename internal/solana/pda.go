package solana

import (
	"crypto/sha256"
	"errors"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/blocto/solana-go-sdk/common"
	"github.com/mr-tron/base58"

	"solana-token-minter/internal/domain"
)

// ErrNoViableBump is returned when every bump seed lands on the curve.
var ErrNoViableBump = errors.New("unable to find a viable program address bump seed")

const (
	maxSeeds      = 16
	maxSeedLength = 32
	pdaMarker     = "ProgramDerivedAddress"
)

// Well-known programs as public keys.
var (
	SystemProgram          = common.PublicKeyFromString(SystemProgramID)
	TokenProgram           = common.PublicKeyFromString(TokenProgramID)
	AssociatedTokenProgram = common.PublicKeyFromString(AssociatedTokenProgramID)
	MetadataProgram        = common.PublicKeyFromString(MetaplexTokenMetadataID)
)

// ParsePublicKey decodes a base58 address and checks its length.
func ParsePublicKey(address string) (common.PublicKey, error) {
	raw, err := base58.Decode(address)
	if err != nil || len(raw) != 32 {
		return common.PublicKey{}, fmt.Errorf("%w: %q", domain.ErrInvalidAddress, address)
	}
	return common.PublicKeyFromBytes(raw), nil
}

// FindProgramAddress derives the program address for seeds under programID.
// Bumps are tried from 255 downwards; the first off-curve hash wins.
func FindProgramAddress(seeds [][]byte, programID common.PublicKey) (common.PublicKey, uint8, error) {
	if len(seeds) > maxSeeds-1 {
		return common.PublicKey{}, 0, fmt.Errorf("too many seeds: %d", len(seeds))
	}
	for _, seed := range seeds {
		if len(seed) > maxSeedLength {
			return common.PublicKey{}, 0, fmt.Errorf("seed longer than %d bytes", maxSeedLength)
		}
	}

	for bump := byte(255); bump > 0; bump-- {
		data := make([]byte, 0, 32*len(seeds)+1+32+len(pdaMarker))
		for _, seed := range seeds {
			data = append(data, seed...)
		}
		data = append(data, bump)
		data = append(data, programID[:]...)
		data = append(data, pdaMarker...)

		hash := sha256.Sum256(data)
		if !IsOnCurve(hash[:]) {
			return common.PublicKeyFromBytes(hash[:]), bump, nil
		}
	}

	return common.PublicKey{}, 0, ErrNoViableBump
}

// IsOnCurve reports whether b is a valid compressed ed25519 point.
func IsOnCurve(b []byte) bool {
	if len(b) != 32 {
		return false
	}
	_, err := new(edwards25519.Point).SetBytes(b)
	return err == nil
}

// FindAssociatedTokenAddress derives the associated token account of owner for mint.
func FindAssociatedTokenAddress(owner, mint common.PublicKey) (common.PublicKey, error) {
	ata, _, err := common.FindAssociatedTokenAddress(owner, mint)
	if err != nil {
		return common.PublicKey{}, fmt.Errorf("derive associated token address: %w", err)
	}
	return ata, nil
}

// FindMetadataAddress derives the Metaplex metadata account of mint.
func FindMetadataAddress(mint common.PublicKey) (common.PublicKey, error) {
	pda, _, err := FindProgramAddress(
		[][]byte{[]byte("metadata"), MetadataProgram[:], mint[:]},
		MetadataProgram,
	)
	if err != nil {
		return common.PublicKey{}, fmt.Errorf("derive metadata address: %w", err)
	}
	return pda, nil
}
