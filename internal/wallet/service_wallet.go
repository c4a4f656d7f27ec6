// Package wallet holds the service signing identity and reads its balances.
package wallet

import (
	"fmt"
	"sync"

	"github.com/blocto/solana-go-sdk/types"

	"solana-token-minter/internal/domain"
	"solana-token-minter/internal/solana"
)

// ServiceWallet is the process-wide payer and authority.
// The keypair is restored on first use and never replaced.
type ServiceWallet struct {
	once sync.Once
	load func() (types.Account, error)

	account types.Account
	err     error
}

// NewServiceWallet returns a wallet restored from secret, or from the keypair file at path
// when secret is empty. Neither set yields domain.ErrWalletNotConfigured on first use.
func NewServiceWallet(secret, path string) *ServiceWallet {
	return &ServiceWallet{load: func() (types.Account, error) {
		switch {
		case secret != "":
			acc, err := solana.LoadKeypair(secret)
			if err != nil {
				return types.Account{}, fmt.Errorf("load service wallet secret: %w", err)
			}
			return acc, nil
		case path != "":
			acc, err := solana.LoadKeypairFile(path)
			if err != nil {
				return types.Account{}, fmt.Errorf("load service wallet file: %w", err)
			}
			return acc, nil
		default:
			return types.Account{}, domain.ErrWalletNotConfigured
		}
	}}
}

// FromAccount wraps an already restored account.
func FromAccount(acc types.Account) *ServiceWallet {
	return &ServiceWallet{load: func() (types.Account, error) { return acc, nil }}
}

// Account returns the keypair, restoring it on the first call.
func (w *ServiceWallet) Account() (types.Account, error) {
	w.once.Do(func() {
		w.account, w.err = w.load()
	})
	return w.account, w.err
}

// Address returns the base58 public key.
func (w *ServiceWallet) Address() (string, error) {
	acc, err := w.Account()
	if err != nil {
		return "", err
	}
	return acc.PublicKey.ToBase58(), nil
}
