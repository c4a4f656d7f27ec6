package wallet

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"solana-token-minter/internal/amount"
	"solana-token-minter/internal/domain"
	"solana-token-minter/internal/solana"
)

// BalanceReader reports SOL and SPL holdings of the service wallet.
type BalanceReader struct {
	ledger solana.Ledger
	wallet *ServiceWallet
	logger *zap.Logger
}

// NewBalanceReader creates a BalanceReader.
func NewBalanceReader(ledger solana.Ledger, wallet *ServiceWallet, logger *zap.Logger) *BalanceReader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BalanceReader{ledger: ledger, wallet: wallet, logger: logger}
}

// GetBalance reads the wallet. A wallet that never appeared on chain has zero lamports
// and no holdings; that is a valid result, not an error.
func (r *BalanceReader) GetBalance(ctx context.Context) (*domain.WalletBalance, error) {
	address, err := r.wallet.Address()
	if err != nil {
		return nil, err
	}
	return r.BalanceOf(ctx, address)
}

// BalanceOf reads any owner address.
func (r *BalanceReader) BalanceOf(ctx context.Context, address string) (*domain.WalletBalance, error) {
	if _, err := solana.ParsePublicKey(address); err != nil {
		return nil, err
	}

	lamports, err := r.ledger.GetBalance(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("get balance: %w", err)
	}

	accounts, err := r.ledger.GetTokenAccountsByOwner(ctx, address, solana.TokenProgramID)
	if err != nil {
		return nil, fmt.Errorf("get token accounts: %w", err)
	}

	holdings := make([]domain.TokenHolding, 0, len(accounts))
	decimals := make(map[string]uint8)

	for _, ka := range accounts {
		data, err := ka.Account.DecodeData()
		if err != nil {
			r.logger.Warn("skipping undecodable token account", zap.String("account", ka.Pubkey), zap.Error(err))
			continue
		}
		ta, err := solana.DecodeTokenAccount(data)
		if err != nil {
			r.logger.Warn("skipping malformed token account", zap.String("account", ka.Pubkey), zap.Error(err))
			continue
		}
		if ta.State != solana.TokenAccountInitialized || ta.Amount == 0 {
			continue
		}

		d, ok := decimals[ta.Mint]
		if !ok {
			d, err = r.mintDecimals(ctx, ta.Mint)
			if err != nil {
				return nil, err
			}
			decimals[ta.Mint] = d
		}

		holdings = append(holdings, domain.TokenHolding{
			Mint:      ta.Mint,
			Account:   ka.Pubkey,
			RawAmount: ta.Amount,
			Decimals:  d,
			Amount:    amount.FormatTokenAmount(ta.Amount, d),
		})
	}

	sort.SliceStable(holdings, func(i, j int) bool {
		if holdings[i].Mint != holdings[j].Mint {
			return holdings[i].Mint < holdings[j].Mint
		}
		return holdings[i].Account < holdings[j].Account
	})

	return &domain.WalletBalance{
		Address:  address,
		Lamports: lamports,
		SOL:      amount.LamportsToSOL(lamports),
		Holdings: holdings,
	}, nil
}

// mintDecimals reads the decimals byte of a mint account.
func (r *BalanceReader) mintDecimals(ctx context.Context, mint string) (uint8, error) {
	info, err := r.ledger.GetAccountInfo(ctx, mint)
	if err != nil {
		return 0, fmt.Errorf("get mint %s: %w", mint, err)
	}
	if info == nil {
		return 0, fmt.Errorf("%w: %s", domain.ErrMintNotFound, mint)
	}
	data, err := info.DecodeData()
	if err != nil {
		return 0, fmt.Errorf("decode mint %s: %w", mint, err)
	}
	m, err := solana.DecodeMintAccount(data)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", domain.ErrNotAMint, mint, err)
	}
	return m.Decimals, nil
}
