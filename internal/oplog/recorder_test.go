package oplog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-token-minter/internal/domain"
	"solana-token-minter/internal/storage/memory"
)

func TestRecorder_Record(t *testing.T) {
	store := memory.NewOperationLogStore()
	r := NewRecorder(store, nil)
	now := time.UnixMilli(1_700_000_001_500)
	r.now = func() time.Time { return now }

	ev := r.Record(context.Background(), Entry{
		Operation:   domain.OpCreateToken,
		MintAddress: "Mint1",
		Signature:   "sig",
		Started:     now.Add(-1500 * time.Millisecond),
	})

	assert.NotEmpty(t, ev.EventID)
	assert.Equal(t, domain.OpStatusOK, ev.Status)
	assert.Equal(t, int64(1500), ev.DurationMs)
	assert.Nil(t, ev.Error)

	stored, err := store.GetByMint(context.Background(), "Mint1")
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, ev.EventID, stored[0].EventID)
}

func TestRecorder_Statuses(t *testing.T) {
	r := NewRecorder(memory.NewOperationLogStore(), nil)
	boom := errors.New("boom")

	assert.Equal(t, domain.OpStatusError, r.Record(context.Background(), Entry{Operation: "x", Err: boom}).Status)

	partial := r.Record(context.Background(), Entry{Operation: "x", Err: boom, Partial: true})
	assert.Equal(t, domain.OpStatusPartial, partial.Status)
	require.NotNil(t, partial.Error)
	assert.Equal(t, "boom", *partial.Error)
}

func TestRecorder_CancelledContextStillWrites(t *testing.T) {
	store := memory.NewOperationLogStore()
	r := NewRecorder(store, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r.Record(ctx, Entry{Operation: domain.OpBalance})
	assert.Equal(t, 1, store.Len())
}

func TestRecorder_NilStore(t *testing.T) {
	r := NewRecorder(nil, nil)
	ev := r.Record(context.Background(), Entry{Operation: domain.OpBalance})
	assert.Equal(t, domain.OpStatusOK, ev.Status)
}
