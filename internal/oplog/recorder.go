// Package oplog appends service operations to the operation log.
package oplog

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"solana-token-minter/internal/domain"
	"solana-token-minter/internal/observability"
	"solana-token-minter/internal/storage"
)

// Entry describes one finished operation.
type Entry struct {
	Operation   string
	MintAddress string
	Signature   string
	SessionID   string
	Started     time.Time
	Partial     bool // some on-chain steps confirmed before Err
	Err         error
}

// Recorder writes entries to an OperationLogStore.
// Write failures are logged and counted; they never fail the operation itself.
type Recorder struct {
	store  storage.OperationLogStore
	logger *zap.Logger
	now    func() time.Time
}

// NewRecorder creates a Recorder.
func NewRecorder(store storage.OperationLogStore, logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{store: store, logger: logger, now: time.Now}
}

// Record appends e and returns the stored event.
func (r *Recorder) Record(ctx context.Context, e Entry) *domain.OperationEvent {
	now := r.now()
	event := &domain.OperationEvent{
		EventID:     uuid.NewString(),
		Operation:   e.Operation,
		Status:      statusOf(e),
		MintAddress: e.MintAddress,
		Signature:   e.Signature,
		SessionID:   e.SessionID,
		Timestamp:   now.UnixMilli(),
	}
	if !e.Started.IsZero() {
		event.DurationMs = now.Sub(e.Started).Milliseconds()
	}
	if e.Err != nil {
		msg := e.Err.Error()
		event.Error = &msg
	}

	observability.RecordOperation(event.Operation, event.Status)

	if r == nil || r.store == nil {
		return event
	}
	// the log outlives a cancelled request
	if err := r.store.Append(context.WithoutCancel(ctx), event); err != nil {
		observability.RecordOperationLogFailure()
		r.logger.Warn("operation log write failed",
			zap.String("operation", event.Operation),
			zap.String("event_id", event.EventID),
			zap.Error(err))
	}
	return event
}

func statusOf(e Entry) string {
	switch {
	case e.Err == nil:
		return domain.OpStatusOK
	case e.Partial:
		return domain.OpStatusPartial
	default:
		return domain.OpStatusError
	}
}
