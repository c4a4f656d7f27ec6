package memory

import (
	"context"
	"errors"
	"testing"

	"solana-token-minter/internal/domain"
	"solana-token-minter/internal/storage"
)

func TestOperationLogStore_AppendAndGetByMint(t *testing.T) {
	store := NewOperationLogStore()
	ctx := context.Background()

	msg := "blockhash expired"
	events := []*domain.OperationEvent{
		{EventID: "e2", Operation: domain.OpRevokeMint, Status: domain.OpStatusError, MintAddress: "mint1", Error: &msg, Timestamp: 20},
		{EventID: "e1", Operation: domain.OpCreateToken, Status: domain.OpStatusOK, MintAddress: "mint1", Timestamp: 10},
		{EventID: "e3", Operation: domain.OpBalance, Status: domain.OpStatusOK, Timestamp: 15},
	}
	for _, e := range events {
		if err := store.Append(ctx, e); err != nil {
			t.Fatalf("Append %s failed: %v", e.EventID, err)
		}
	}

	if store.Len() != 3 {
		t.Errorf("expected 3 events, got %d", store.Len())
	}

	got, err := store.GetByMint(ctx, "mint1")
	if err != nil {
		t.Fatalf("GetByMint failed: %v", err)
	}
	if len(got) != 2 || got[0].EventID != "e1" || got[1].EventID != "e2" {
		t.Fatalf("unexpected events: %+v", got)
	}
	if got[1].Error == nil || *got[1].Error != msg {
		t.Errorf("error text not preserved")
	}

	if err := store.Append(ctx, events[0]); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("expected ErrDuplicateKey, got %v", err)
	}
}
