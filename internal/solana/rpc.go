package solana

import (
	"context"
	"encoding/base64"
	"fmt"
)

// Ledger defines the Solana RPC HTTP surface used by the service.
type Ledger interface {
	// GetLatestBlockhash returns a recent blockhash and the last block height it is valid for.
	GetLatestBlockhash(ctx context.Context) (*Blockhash, error)

	// GetBlockHeight returns the current block height at confirmed commitment.
	GetBlockHeight(ctx context.Context) (uint64, error)

	// GetMinimumBalanceForRentExemption returns lamports required for an account of size bytes.
	GetMinimumBalanceForRentExemption(ctx context.Context, size uint64) (uint64, error)

	// SendTransaction submits a signed, serialized transaction and returns its signature.
	SendTransaction(ctx context.Context, raw []byte) (string, error)

	// GetSignatureStatuses returns one entry per signature; nil when the signature is unknown.
	GetSignatureStatuses(ctx context.Context, signatures []string) ([]*SignatureStatus, error)

	// GetAccountInfo returns nil, nil when the account does not exist.
	GetAccountInfo(ctx context.Context, pubkey string) (*AccountInfo, error)

	// GetBalance returns the lamport balance of pubkey.
	GetBalance(ctx context.Context, pubkey string) (uint64, error)

	// GetTokenAccountsByOwner lists token accounts of owner under programID.
	GetTokenAccountsByOwner(ctx context.Context, owner, programID string) ([]KeyedAccount, error)

	// GetHealth returns nil when the node reports itself healthy.
	GetHealth(ctx context.Context) error

	// GetSlot retrieves the current slot.
	GetSlot(ctx context.Context) (int64, error)
}

// Blockhash is the result of getLatestBlockhash.
type Blockhash struct {
	Blockhash            string
	LastValidBlockHeight uint64
}

// Commitment levels reported by getSignatureStatuses.
const (
	CommitmentProcessed = "processed"
	CommitmentConfirmed = "confirmed"
	CommitmentFinalized = "finalized"
)

// SignatureStatus is one entry of getSignatureStatuses.
type SignatureStatus struct {
	Slot               int64
	Confirmations      *int64 // nil once rooted
	Err                interface{}
	ConfirmationStatus string
}

// Confirmed reports whether the status reached at least confirmed commitment.
func (s *SignatureStatus) Confirmed() bool {
	if s == nil {
		return false
	}
	return s.ConfirmationStatus == CommitmentConfirmed || s.ConfirmationStatus == CommitmentFinalized
}

// AccountInfo represents Solana account information.
type AccountInfo struct {
	Lamports   uint64 `json:"lamports"`
	Owner      string `json:"owner"`
	Data       string `json:"data"` // base64 encoded
	Executable bool   `json:"executable"`
	RentEpoch  uint64 `json:"rentEpoch"`
}

// DecodeData returns the raw account data.
func (a *AccountInfo) DecodeData() ([]byte, error) {
	if a == nil || a.Data == "" {
		return nil, nil
	}
	data, err := base64.StdEncoding.DecodeString(a.Data)
	if err != nil {
		return nil, fmt.Errorf("decode account data: %w", err)
	}
	return data, nil
}

// KeyedAccount pairs an account address with its info.
type KeyedAccount struct {
	Pubkey  string
	Account AccountInfo
}
