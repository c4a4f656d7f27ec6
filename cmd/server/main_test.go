package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"solana-token-minter/internal/config"
	"solana-token-minter/internal/domain"
	"solana-token-minter/internal/solana"
	"solana-token-minter/internal/solana/stub"
	"solana-token-minter/internal/storage/memory"
)

func TestRootCmd_FlagsDefaultToEnv(t *testing.T) {
	cfg, err := config.FromEnv(func(k string) string {
		return map[string]string{
			"SOLANA_RPC_ENDPOINT": "https://api.devnet.solana.com",
			"MINT_MODE":           "sequential",
			"HTTP_ADDR":           ":9999",
		}[k]
	})
	require.NoError(t, err)

	cmd := newRootCmd(cfg)
	assert.Equal(t, "https://api.devnet.solana.com", cmd.Flags().Lookup("rpc-endpoint").DefValue)
	assert.Equal(t, "sequential", cmd.Flags().Lookup("mint-mode").DefValue)
	assert.Equal(t, ":9999", cmd.Flags().Lookup("http-addr").DefValue)
}

func TestRootCmd_RejectsInvalidConfig(t *testing.T) {
	cfg, err := config.FromEnv(func(string) string { return "" })
	require.NoError(t, err)

	cmd := newRootCmd(cfg)
	cmd.SetArgs([]string{"--mint-mode", "batch", "--rpc-endpoint", "http://127.0.0.1:8899"})
	cmd.SilenceErrors = true

	err = cmd.Execute()
	var cfgErr *config.Error
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "MINT_MODE", cfgErr.Field)
	assert.Equal(t, domain.MintMode("batch"), cfg.MintMode)
}

func TestCreateStores_Memory(t *testing.T) {
	cfg := &config.Config{UseMemory: true, PostgresDSN: "postgres://ignored"}

	st, cleanup, err := createStores(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	defer cleanup()

	assert.IsType(t, &memory.SessionStore{}, st.sessions)
	assert.IsType(t, &memory.TokenRecordStore{}, st.records)
	assert.IsType(t, &memory.OperationLogStore{}, st.operations)
}

func TestNewConfirmer_FallsBackToPolling(t *testing.T) {
	cfg := &config.Config{WSEndpoint: "ws://127.0.0.1:1"}

	confirmer, closeFn := newConfirmer(context.Background(), cfg, stub.NewLedger(), zap.NewNop())
	defer closeFn()

	assert.IsType(t, &solana.PollingConfirmer{}, confirmer)
}
