package solana

import (
	"context"
	"fmt"

	"github.com/blocto/solana-go-sdk/types"
	"github.com/mr-tron/base58"
	"go.uber.org/zap"
)

// Submitter signs, sends and confirms transactions one at a time.
type Submitter struct {
	ledger    Ledger
	confirmer Confirmer
	logger    *zap.Logger
}

// NewSubmitter creates a Submitter.
func NewSubmitter(ledger Ledger, confirmer Confirmer, logger *zap.Logger) *Submitter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Submitter{ledger: ledger, confirmer: confirmer, logger: logger}
}

// Ledger returns the RPC surface the submitter sends through.
func (s *Submitter) Ledger() Ledger {
	return s.ledger
}

// Submit builds a transaction paid by feePayer, signs it with feePayer and extra,
// sends it exactly once and blocks until it is confirmed.
// The signature is returned whenever the transaction was sent, even if confirmation failed.
func (s *Submitter) Submit(ctx context.Context, feePayer types.Account, extra []types.Account, instructions []types.Instruction) (string, error) {
	bh, err := s.ledger.GetLatestBlockhash(ctx)
	if err != nil {
		return "", fmt.Errorf("get latest blockhash: %w", err)
	}

	signers := append([]types.Account{feePayer}, extra...)
	tx, err := types.NewTransaction(types.NewTransactionParam{
		Signers: signers,
		Message: types.NewMessage(types.NewMessageParam{
			FeePayer:        feePayer.PublicKey,
			RecentBlockhash: bh.Blockhash,
			Instructions:    instructions,
		}),
	})
	if err != nil {
		return "", fmt.Errorf("build transaction: %w", err)
	}

	raw, err := tx.Serialize()
	if err != nil {
		return "", fmt.Errorf("serialize transaction: %w", err)
	}
	if len(tx.Signatures) == 0 {
		return "", fmt.Errorf("transaction has no signatures")
	}
	sig := base58.Encode(tx.Signatures[0])

	waiter, err := s.confirmer.Watch(ctx, sig)
	if err != nil {
		return "", fmt.Errorf("watch signature: %w", err)
	}
	defer waiter.Close()

	sent, err := s.ledger.SendTransaction(ctx, raw)
	if err != nil {
		return "", fmt.Errorf("send transaction: %w", err)
	}
	if sent != sig {
		s.logger.Warn("node returned a different signature",
			zap.String("expected", sig), zap.String("returned", sent))
	}

	s.logger.Debug("transaction sent",
		zap.String("signature", sig),
		zap.Int("instructions", len(instructions)),
		zap.Uint64("last_valid_block_height", bh.LastValidBlockHeight))

	if err := waiter.Wait(ctx, bh.LastValidBlockHeight); err != nil {
		return sig, fmt.Errorf("confirm %s: %w", sig, err)
	}
	return sig, nil
}

// SignatureFromWire returns the first signature of a serialized transaction.
func SignatureFromWire(raw []byte) (string, error) {
	count, n, err := decodeCompactU16(raw)
	if err != nil {
		return "", err
	}
	if count == 0 {
		return "", fmt.Errorf("transaction carries no signatures")
	}
	if len(raw) < n+64 {
		return "", fmt.Errorf("transaction too short: %d bytes", len(raw))
	}
	return base58.Encode(raw[n : n+64]), nil
}

// decodeCompactU16 reads the shortvec length prefix used by the wire format.
func decodeCompactU16(b []byte) (int, int, error) {
	value := 0
	for i := 0; i < 3; i++ {
		if i >= len(b) {
			return 0, 0, fmt.Errorf("truncated compact-u16")
		}
		value |= int(b[i]&0x7f) << (7 * i)
		if b[i]&0x80 == 0 {
			return value, i + 1, nil
		}
	}
	return 0, 0, fmt.Errorf("compact-u16 overflow")
}
