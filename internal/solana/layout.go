package solana

import (
	"encoding/binary"
	"fmt"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/program/token"
	"github.com/mr-tron/base58"
)

// MintAccount is the decoded SPL token mint layout with base58 addresses.
// Decoding goes through the SDK; encoding exists for the stub ledger, which the SDK does not serve.
type MintAccount struct {
	MintAuthority   *string // nil when revoked
	Supply          uint64
	Decimals        uint8
	IsInitialized   bool
	FreezeAuthority *string // nil when revoked or never set
}

// TokenAccountState mirrors the SPL account state byte.
type TokenAccountState uint8

const (
	TokenAccountUninitialized TokenAccountState = iota
	TokenAccountInitialized
	TokenAccountFrozen
)

// TokenAccount is the decoded SPL token account layout.
type TokenAccount struct {
	Mint   string
	Owner  string
	Amount uint64
	State  TokenAccountState
}

// DecodeMintAccount decodes an 82-byte SPL mint through the SDK's token state decoder.
func DecodeMintAccount(data []byte) (*MintAccount, error) {
	m, err := token.MintAccountFromData(data)
	if err != nil {
		return nil, fmt.Errorf("decode mint account (%d bytes): %w", len(data), err)
	}
	return &MintAccount{
		MintAuthority:   optionalKey(m.MintAuthority),
		Supply:          m.Supply,
		Decimals:        m.Decimals,
		IsInitialized:   m.IsInitialized,
		FreezeAuthority: optionalKey(m.FreezeAuthority),
	}, nil
}

// EncodeMintAccount is the inverse of DecodeMintAccount. Layout:
//
//	0..4   mint authority option (u32)
//	4..36  mint authority
//	36..44 supply (u64)
//	44     decimals
//	45     is_initialized
//	46..50 freeze authority option (u32)
//	50..82 freeze authority
func EncodeMintAccount(m *MintAccount) ([]byte, error) {
	data := make([]byte, MintAccountSize)
	if err := encodeCOptionKey(data[0:36], m.MintAuthority); err != nil {
		return nil, fmt.Errorf("mint authority: %w", err)
	}
	binary.LittleEndian.PutUint64(data[36:44], m.Supply)
	data[44] = m.Decimals
	if m.IsInitialized {
		data[45] = 1
	}
	if err := encodeCOptionKey(data[46:82], m.FreezeAuthority); err != nil {
		return nil, fmt.Errorf("freeze authority: %w", err)
	}
	return data, nil
}

// DecodeTokenAccount reads mint, owner, amount and state from a 165-byte token account.
func DecodeTokenAccount(data []byte) (*TokenAccount, error) {
	a, err := token.TokenAccountFromData(data)
	if err != nil {
		return nil, fmt.Errorf("decode token account (%d bytes): %w", len(data), err)
	}
	return &TokenAccount{
		Mint:   a.Mint.ToBase58(),
		Owner:  a.Owner.ToBase58(),
		Amount: a.Amount,
		State:  TokenAccountState(a.State),
	}, nil
}

// EncodeTokenAccount writes the fields DecodeTokenAccount reads into a zeroed account.
// Offsets: mint 0..32, owner 32..64, amount 64..72, state 108.
func EncodeTokenAccount(a *TokenAccount) ([]byte, error) {
	data := make([]byte, TokenAccountSize)
	mint, err := base58.Decode(a.Mint)
	if err != nil || len(mint) != 32 {
		return nil, fmt.Errorf("invalid mint %q", a.Mint)
	}
	owner, err := base58.Decode(a.Owner)
	if err != nil || len(owner) != 32 {
		return nil, fmt.Errorf("invalid owner %q", a.Owner)
	}
	copy(data[0:32], mint)
	copy(data[32:64], owner)
	binary.LittleEndian.PutUint64(data[64:72], a.Amount)
	data[108] = byte(a.State)
	return data, nil
}

func optionalKey(k *common.PublicKey) *string {
	if k == nil {
		return nil
	}
	key := k.ToBase58()
	return &key
}

func encodeCOptionKey(dst []byte, key *string) error {
	if key == nil {
		return nil
	}
	raw, err := base58.Decode(*key)
	if err != nil || len(raw) != 32 {
		return fmt.Errorf("invalid key %q", *key)
	}
	binary.LittleEndian.PutUint32(dst[0:4], 1)
	copy(dst[4:36], raw)
	return nil
}
