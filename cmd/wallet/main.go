// Command wallet manages the service keypair and inspects its holdings.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/blocto/solana-go-sdk/types"
	"github.com/spf13/cobra"

	"solana-token-minter/internal/config"
	"solana-token-minter/internal/domain"
	"solana-token-minter/internal/logging"
	"solana-token-minter/internal/solana"
	"solana-token-minter/internal/wallet"
)

func main() {
	if err := config.LoadEnvFile(".env"); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "wallet",
		Short:        "Service wallet utilities",
		SilenceUsage: true,
	}
	root.AddCommand(newKeygenCmd(), newBalanceCmd())
	return root
}

func newKeygenCmd() *cobra.Command {
	var (
		out   string
		force bool
	)
	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate a keypair file ([u8;64] JSON) and print its address",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			addr, err := keygen(out, force, types.NewAccount)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "address: %s\nwritten: %s\n", addr, out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "wallet.json", "Output keypair file")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")
	return cmd
}

// keygen writes a fresh keypair to path with owner-only permissions.
func keygen(path string, force bool, newAccount func() types.Account) (string, error) {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return "", fmt.Errorf("%s already exists (use --force to overwrite)", path)
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", err
		}
	}

	acc := newAccount()
	data, err := solana.MarshalKeypair(acc)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("write keypair: %w", err)
	}
	return acc.PublicKey.ToBase58(), nil
}

func newBalanceCmd() *cobra.Command {
	var (
		address string
		timeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "balance",
		Short: "Print SOL and SPL token balances of the service wallet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.FromEnv(os.Getenv)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			logger, err := logging.New(logging.Options{Level: cfg.LogLevel, Format: logging.FormatConsole})
			if err != nil {
				return err
			}
			defer logger.Sync()

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			ledger := solana.NewHTTPClient(cfg.RPCEndpoint, solana.WithTimeout(cfg.RPCTimeout))
			reader := wallet.NewBalanceReader(ledger, wallet.NewServiceWallet(cfg.WalletSecret, cfg.WalletPath), logger)

			var bal *domain.WalletBalance
			if address != "" {
				bal, err = reader.BalanceOf(ctx, address)
			} else {
				bal, err = reader.GetBalance(ctx)
			}
			if err != nil {
				return err
			}
			printBalance(cmd.OutOrStdout(), bal)
			return nil
		},
	}
	cmd.Flags().StringVar(&address, "address", "", "Inspect this address instead of the service wallet")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "Overall timeout")
	return cmd
}

func printBalance(w io.Writer, bal *domain.WalletBalance) {
	fmt.Fprintf(w, "address:  %s\n", bal.Address)
	fmt.Fprintf(w, "sol:      %.9f (%d lamports)\n", bal.SOL, bal.Lamports)
	if len(bal.Holdings) == 0 {
		fmt.Fprintln(w, "tokens:   none")
		return
	}
	fmt.Fprintln(w, "tokens:")
	for _, h := range bal.Holdings {
		fmt.Fprintf(w, "  %-44s %s (decimals %d, account %s)\n", h.Mint, h.Amount, h.Decimals, h.Account)
	}
}
