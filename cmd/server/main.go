// Command server runs the token minter HTTP service.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"solana-token-minter/internal/api"
	"solana-token-minter/internal/config"
	"solana-token-minter/internal/domain"
	"solana-token-minter/internal/logging"
	"solana-token-minter/internal/metadata"
	"solana-token-minter/internal/mint"
	"solana-token-minter/internal/oplog"
	"solana-token-minter/internal/pinning"
	"solana-token-minter/internal/solana"
	"solana-token-minter/internal/wallet"
)

func main() {
	if err := config.LoadEnvFile(".env"); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	cfg, err := config.FromEnv(os.Getenv)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := newRootCmd(cfg).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(cfg *config.Config) *cobra.Command {
	var mintMode string

	cmd := &cobra.Command{
		Use:          "server",
		Short:        "Mint fungible SPL tokens with Metaplex metadata over HTTP",
		SilenceUsage: true,
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg.MintMode = domain.MintMode(mintMode)
			if err := cfg.Validate(); err != nil {
				return err
			}
			return run(cfg)
		},
	}

	// Flags default to environment values.
	f := cmd.Flags()
	f.StringVar(&cfg.RPCEndpoint, "rpc-endpoint", cfg.RPCEndpoint, "Solana RPC HTTP endpoint")
	f.StringVar(&cfg.WSEndpoint, "ws-endpoint", cfg.WSEndpoint, "Solana WebSocket endpoint (derived from --rpc-endpoint when empty)")
	f.StringVar(&cfg.Cluster, "cluster", cfg.Cluster, "Explorer cluster name (inferred from --rpc-endpoint when empty)")
	f.DurationVar(&cfg.RPCTimeout, "rpc-timeout", cfg.RPCTimeout, "Timeout of a single RPC request")
	f.StringVar(&mintMode, "mint-mode", string(cfg.MintMode), "Token creation mode: combined or sequential")
	f.StringVar(&cfg.WalletPath, "wallet-path", cfg.WalletPath, "Service wallet keypair JSON file")
	f.StringVar(&cfg.PinataAPIURL, "pinata-api-url", cfg.PinataAPIURL, "Pinata API base URL")
	f.StringVar(&cfg.PinataGatewayURL, "pinata-gateway-url", cfg.PinataGatewayURL, "IPFS gateway prefix for returned URIs")
	f.Int64Var(&cfg.MaxUploadBytes, "max-upload-bytes", cfg.MaxUploadBytes, "Maximum accepted upload size")
	f.StringVar(&cfg.PostgresDSN, "postgres-dsn", cfg.PostgresDSN, "PostgreSQL connection string")
	f.StringVar(&cfg.ClickHouseDSN, "clickhouse-dsn", cfg.ClickHouseDSN, "ClickHouse connection string")
	f.BoolVar(&cfg.UseMemory, "use-memory", cfg.UseMemory, "Use in-memory storage instead of PostgreSQL/ClickHouse")
	f.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "HTTP listen address")
	f.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn, error")
	f.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "Log format: json or console")
	f.DurationVar(&cfg.ShutdownTimeout, "shutdown-timeout", cfg.ShutdownTimeout, "Graceful shutdown timeout")

	return cmd
}

func run(cfg *config.Config) error {
	logger, err := logging.New(logging.Options{Level: cfg.LogLevel, Format: logging.Format(cfg.LogFormat)})
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Stores
	st, cleanup, err := createStores(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("create stores: %w", err)
	}
	defer cleanup()

	// Solana
	ledger := solana.NewHTTPClient(cfg.RPCEndpoint, solana.WithTimeout(cfg.RPCTimeout))
	confirmer, closeConfirmer := newConfirmer(ctx, cfg, ledger, logger)
	defer closeConfirmer()

	svcWallet := wallet.NewServiceWallet(cfg.WalletSecret, cfg.WalletPath)
	if addr, err := svcWallet.Address(); err != nil {
		logger.Warn("service wallet unavailable; signing endpoints will fail", zap.Error(err))
	} else {
		logger.Info("service wallet loaded", zap.String("address", addr))
	}

	mintDeps := mint.Deps{
		Submitter: solana.NewSubmitter(ledger, confirmer, logger.Named("submit")),
		Wallet:    svcWallet,
		Records:   st.records,
		Logger:    logger,
	}
	creator, err := mint.New(cfg.MintMode, mintDeps)
	if err != nil {
		return err
	}

	// Pinning
	if !cfg.PinningConfigured() {
		logger.Warn("pinata credentials missing; upload endpoints will fail")
	}
	pinner := pinning.NewClient(cfg.PinataAPIKey, cfg.PinataSecretKey,
		pinning.WithBaseURL(cfg.PinataAPIURL),
		pinning.WithGatewayURL(cfg.PinataGatewayURL),
	)

	router := api.NewRouter(api.Deps{
		Creator:    creator,
		Revoker:    mint.NewRevoker(mintDeps),
		Metadata:   metadata.NewService(pinner, st.sessions, cfg.MaxUploadBytes, logger),
		Balance:    wallet.NewBalanceReader(ledger, svcWallet, logger),
		Chain:      ledger,
		Records:    st.records,
		Operations: st.operations,
		OpLog:      oplog.NewRecorder(st.operations, logger.Named("oplog")),
		Cluster:    cfg.Cluster,
		Logger:     logger,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("http server listening",
			zap.String("addr", cfg.HTTPAddr),
			zap.String("rpc", cfg.RPCEndpoint),
			zap.String("cluster", cfg.Cluster),
			zap.String("mint_mode", string(cfg.MintMode)))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case err, ok := <-serveErr:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case sig := <-sigCh:
		logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
	}

	// Wait for second signal for immediate shutdown
	go func() {
		sig := <-sigCh
		logger.Warn("received second signal, forcing exit", zap.String("signal", sig.String()))
		os.Exit(1)
	}()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	cancel()

	logger.Info("shutdown complete")
	return nil
}

// newConfirmer prefers signatureSubscribe and falls back to status polling
// when the WebSocket endpoint cannot be reached.
func newConfirmer(ctx context.Context, cfg *config.Config, ledger solana.Ledger, logger *zap.Logger) (solana.Confirmer, func()) {
	wsCfg := solana.DefaultWSConfig()
	wsCfg.Logger = logger.Named("ws")

	ws, err := solana.NewWSClient(ctx, cfg.WSEndpoint, &wsCfg)
	if err != nil {
		logger.Warn("websocket unavailable, confirming by polling",
			zap.String("endpoint", cfg.WSEndpoint), zap.Error(err))
		return solana.NewPollingConfirmer(ledger, 0), func() {}
	}
	return solana.NewWSConfirmer(ws, ledger, 0, logger.Named("confirm")), func() { ws.Close() }
}
