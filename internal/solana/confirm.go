package solana

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"solana-token-minter/internal/domain"
)

// Default confirmation polling intervals.
const (
	DefaultPollInterval   = 500 * time.Millisecond
	DefaultWSPollInterval = 2 * time.Second
)

// maxCheckFailures is how many status checks in a row may fail on RPC errors
// before a waiter gives up with an unknown outcome.
const maxCheckFailures = 10

// Confirmer produces waiters for submitted signatures.
// Watch is called before the transaction is sent so no notification can be missed.
type Confirmer interface {
	Watch(ctx context.Context, signature string) (Waiter, error)
}

// Waiter blocks until its signature is confirmed, fails on chain,
// or the blockhash it was built with expires.
type Waiter interface {
	Wait(ctx context.Context, lastValidBlockHeight uint64) error
	Close()
}

// PollingConfirmer confirms via getSignatureStatuses and getBlockHeight.
type PollingConfirmer struct {
	ledger   Ledger
	interval time.Duration
}

// NewPollingConfirmer creates a PollingConfirmer. interval <= 0 uses DefaultPollInterval.
func NewPollingConfirmer(ledger Ledger, interval time.Duration) *PollingConfirmer {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &PollingConfirmer{ledger: ledger, interval: interval}
}

// Watch returns a polling waiter for signature.
func (p *PollingConfirmer) Watch(_ context.Context, signature string) (Waiter, error) {
	return &pollWaiter{ledger: p.ledger, signature: signature, interval: p.interval}, nil
}

type pollWaiter struct {
	ledger    Ledger
	signature string
	interval  time.Duration
}

func (w *pollWaiter) Wait(ctx context.Context, lastValidBlockHeight uint64) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	var c checker
	for {
		if done, err := c.check(ctx, w.ledger, w.signature, lastValidBlockHeight); done {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (w *pollWaiter) Close() {}

// WSConfirmer confirms via signatureSubscribe, with slow status polling alongside
// so a dropped connection still ends in a definite outcome.
type WSConfirmer struct {
	subscriber   SignatureSubscriber
	ledger       Ledger
	pollInterval time.Duration
	logger       *zap.Logger
}

// NewWSConfirmer creates a WSConfirmer. pollInterval <= 0 uses DefaultWSPollInterval.
func NewWSConfirmer(subscriber SignatureSubscriber, ledger Ledger, pollInterval time.Duration, logger *zap.Logger) *WSConfirmer {
	if pollInterval <= 0 {
		pollInterval = DefaultWSPollInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WSConfirmer{
		subscriber:   subscriber,
		ledger:       ledger,
		pollInterval: pollInterval,
		logger:       logger,
	}
}

// Watch subscribes to signature. If the subscription cannot be set up the
// waiter degrades to polling at the WS poll interval.
func (c *WSConfirmer) Watch(ctx context.Context, signature string) (Waiter, error) {
	ch, cancel, err := c.subscriber.SubscribeSignature(ctx, signature)
	if err != nil {
		c.logger.Warn("signature subscription unavailable, polling instead",
			zap.String("signature", signature), zap.Error(err))
		return &pollWaiter{ledger: c.ledger, signature: signature, interval: c.pollInterval}, nil
	}
	return &wsWaiter{
		ledger:    c.ledger,
		signature: signature,
		interval:  c.pollInterval,
		notify:    ch,
		cancel:    cancel,
	}, nil
}

type wsWaiter struct {
	ledger    Ledger
	signature string
	interval  time.Duration
	notify    <-chan SignatureNotification
	cancel    func()
}

func (w *wsWaiter) Wait(ctx context.Context, lastValidBlockHeight uint64) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	var c checker
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case n := <-w.notify:
			if n.Err != nil {
				return fmt.Errorf("%w: %s: %v", domain.ErrTransactionFailed, w.signature, n.Err)
			}
			return nil
		case <-ticker.C:
			if done, err := c.check(ctx, w.ledger, w.signature, lastValidBlockHeight); done {
				return err
			}
		}
	}
}

func (w *wsWaiter) Close() {
	if w.cancel != nil {
		w.cancel()
	}
}

// checker counts consecutive failed status checks for one waiter.
type checker struct {
	failures int
}

// check runs one status check. An RPC error says nothing about the transaction,
// so polling continues until maxCheckFailures such errors happen in a row.
func (c *checker) check(ctx context.Context, ledger Ledger, signature string, lastValidBlockHeight uint64) (bool, error) {
	done, err := checkSignature(ctx, ledger, signature, lastValidBlockHeight)
	if done {
		return true, err
	}
	if err == nil {
		c.failures = 0
		return false, nil
	}
	c.failures++
	if c.failures >= maxCheckFailures {
		return true, fmt.Errorf("%d status checks failed: %w", c.failures, err)
	}
	return false, nil
}

// checkSignature returns done=true once the outcome of signature is known.
// An error with done=false is an RPC failure; the outcome is still open.
func checkSignature(ctx context.Context, ledger Ledger, signature string, lastValidBlockHeight uint64) (bool, error) {
	status, err := signatureStatus(ctx, ledger, signature)
	if err != nil {
		return false, err
	}
	if done, err := statusOutcome(signature, status); done {
		return true, err
	}

	height, err := ledger.GetBlockHeight(ctx)
	if err != nil {
		return false, fmt.Errorf("get block height: %w", err)
	}
	if height <= lastValidBlockHeight {
		return false, nil
	}

	// The transaction may have landed in the last valid block.
	status, err = signatureStatus(ctx, ledger, signature)
	if err != nil {
		return false, err
	}
	if done, err := statusOutcome(signature, status); done {
		return true, err
	}
	return true, fmt.Errorf("%w: %s (height %d > %d)", domain.ErrBlockhashExpired, signature, height, lastValidBlockHeight)
}

func signatureStatus(ctx context.Context, ledger Ledger, signature string) (*SignatureStatus, error) {
	statuses, err := ledger.GetSignatureStatuses(ctx, []string{signature})
	if err != nil {
		return nil, fmt.Errorf("get signature status: %w", err)
	}
	if len(statuses) == 0 {
		return nil, nil
	}
	return statuses[0], nil
}

func statusOutcome(signature string, status *SignatureStatus) (bool, error) {
	if status == nil {
		return false, nil
	}
	if status.Err != nil {
		return true, fmt.Errorf("%w: %s: %v", domain.ErrTransactionFailed, signature, status.Err)
	}
	return status.Confirmed(), nil
}
