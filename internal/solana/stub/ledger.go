// Package stub provides an in-memory solana.Ledger for tests and local runs.
package stub

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"sync"

	"github.com/blocto/solana-go-sdk/types"

	"solana-token-minter/internal/solana"
)

// ErrInjected is returned by calls configured to fail.
var ErrInjected = errors.New("stub: injected failure")

// Ledger implements solana.Ledger in memory.
// Sent transactions are recorded and reported as confirmed; they are not executed.
type Ledger struct {
	mu sync.Mutex

	Blockhash            string
	LastValidBlockHeight uint64
	BlockHeight          uint64
	Slot                 int64
	RentExemptLamports   uint64
	HealthErr            error

	// FailSendAt makes the n-th SendTransaction call (1-based) fail. Zero disables.
	FailSendAt int
	// FailConfirmAt marks the n-th sent transaction (1-based) as failed on chain. Zero disables.
	FailConfirmAt int

	balances      map[string]uint64
	accounts      map[string]*solana.AccountInfo
	tokenAccounts map[string][]solana.KeyedAccount
	statuses      map[string]*solana.SignatureStatus
	sent          [][]byte
	sendCalls     int
}

// NewLedger creates an empty ledger with a valid recent blockhash.
func NewLedger() *Ledger {
	return &Ledger{
		Blockhash:            types.NewAccount().PublicKey.ToBase58(),
		LastValidBlockHeight: 1_150,
		BlockHeight:          1_000,
		Slot:                 1_200,
		RentExemptLamports:   1_461_600,
		balances:             make(map[string]uint64),
		accounts:             make(map[string]*solana.AccountInfo),
		tokenAccounts:        make(map[string][]solana.KeyedAccount),
		statuses:             make(map[string]*solana.SignatureStatus),
	}
}

// Compile-time interface check.
var _ solana.Ledger = (*Ledger)(nil)

// SetBalance sets the lamport balance of address.
func (l *Ledger) SetBalance(address string, lamports uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[address] = lamports
}

// SetAccount stores raw account data owned by owner.
func (l *Ledger) SetAccount(address, owner string, data []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.accounts[address] = &solana.AccountInfo{
		Lamports: l.RentExemptLamports,
		Owner:    owner,
		Data:     base64.StdEncoding.EncodeToString(data),
	}
}

// SetMint stores a mint account owned by the token program.
func (l *Ledger) SetMint(address string, m *solana.MintAccount) error {
	data, err := solana.EncodeMintAccount(m)
	if err != nil {
		return err
	}
	l.SetAccount(address, solana.TokenProgramID, data)
	return nil
}

// AddTokenAccount registers a token account of owner under the token program.
func (l *Ledger) AddTokenAccount(owner, address string, acc *solana.TokenAccount) error {
	data, err := solana.EncodeTokenAccount(acc)
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.tokenAccounts[owner] = append(l.tokenAccounts[owner], solana.KeyedAccount{
		Pubkey: address,
		Account: solana.AccountInfo{
			Lamports: 2_039_280,
			Owner:    solana.TokenProgramID,
			Data:     base64.StdEncoding.EncodeToString(data),
		},
	})
	return nil
}

// Sent returns copies of every transaction passed to SendTransaction.
func (l *Ledger) Sent() [][]byte {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([][]byte, len(l.sent))
	for i, raw := range l.sent {
		out[i] = append([]byte(nil), raw...)
	}
	return out
}

// SendCalls returns how many times SendTransaction was invoked.
func (l *Ledger) SendCalls() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sendCalls
}

// GetLatestBlockhash returns the configured blockhash.
func (l *Ledger) GetLatestBlockhash(context.Context) (*solana.Blockhash, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return &solana.Blockhash{Blockhash: l.Blockhash, LastValidBlockHeight: l.LastValidBlockHeight}, nil
}

// GetBlockHeight returns the configured block height.
func (l *Ledger) GetBlockHeight(context.Context) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.BlockHeight, nil
}

// GetMinimumBalanceForRentExemption returns the configured rent value for any size.
func (l *Ledger) GetMinimumBalanceForRentExemption(context.Context, uint64) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.RentExemptLamports, nil
}

// SendTransaction records raw and marks its signature confirmed (or failed, see FailConfirmAt).
func (l *Ledger) SendTransaction(_ context.Context, raw []byte) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.sendCalls++
	if l.FailSendAt > 0 && l.sendCalls == l.FailSendAt {
		return "", fmt.Errorf("send #%d: %w", l.sendCalls, ErrInjected)
	}

	sig, err := solana.SignatureFromWire(raw)
	if err != nil {
		return "", err
	}

	l.sent = append(l.sent, append([]byte(nil), raw...))
	status := &solana.SignatureStatus{
		Slot:               l.Slot,
		ConfirmationStatus: solana.CommitmentConfirmed,
	}
	if l.FailConfirmAt > 0 && len(l.sent) == l.FailConfirmAt {
		status.Err = map[string]interface{}{"InstructionError": []interface{}{0, "Custom"}}
	}
	l.statuses[sig] = status
	return sig, nil
}

// GetSignatureStatuses returns recorded statuses; unknown signatures map to nil.
func (l *Ledger) GetSignatureStatuses(_ context.Context, signatures []string) ([]*solana.SignatureStatus, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]*solana.SignatureStatus, len(signatures))
	for i, sig := range signatures {
		if st, ok := l.statuses[sig]; ok {
			cp := *st
			out[i] = &cp
		}
	}
	return out, nil
}

// GetAccountInfo returns nil, nil for unknown accounts.
func (l *Ledger) GetAccountInfo(_ context.Context, pubkey string) (*solana.AccountInfo, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	acc, ok := l.accounts[pubkey]
	if !ok {
		return nil, nil
	}
	cp := *acc
	return &cp, nil
}

// GetBalance returns zero for unknown addresses.
func (l *Ledger) GetBalance(_ context.Context, pubkey string) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[pubkey], nil
}

// GetTokenAccountsByOwner returns token accounts registered with AddTokenAccount.
func (l *Ledger) GetTokenAccountsByOwner(_ context.Context, owner, programID string) ([]solana.KeyedAccount, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if programID != solana.TokenProgramID {
		return nil, nil
	}
	return append([]solana.KeyedAccount(nil), l.tokenAccounts[owner]...), nil
}

// GetHealth returns HealthErr.
func (l *Ledger) GetHealth(context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.HealthErr
}

// GetSlot returns the configured slot.
func (l *Ledger) GetSlot(context.Context) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.Slot, nil
}
