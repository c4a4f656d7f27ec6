package memory

import (
	"context"
	"errors"
	"testing"

	"solana-token-minter/internal/domain"
	"solana-token-minter/internal/storage"
)

func TestTokenRecordStore_InsertAndGetByMint(t *testing.T) {
	store := NewTokenRecordStore()
	ctx := context.Background()

	records := []*domain.TokenRecord{
		{ID: "r2", Kind: domain.RecordKindRevokeMint, MintAddress: "mint1", Status: domain.RecordStatusSuccess, CreatedAt: 2000},
		{ID: "r1", Kind: domain.RecordKindCreate, MintAddress: "mint1", Status: domain.RecordStatusSuccess, Signatures: []string{"sig"}, CreatedAt: 1000},
		{ID: "r3", Kind: domain.RecordKindCreate, MintAddress: "mint2", Status: domain.RecordStatusSuccess, CreatedAt: 1500},
	}
	for _, r := range records {
		if err := store.Insert(ctx, r); err != nil {
			t.Fatalf("Insert %s failed: %v", r.ID, err)
		}
	}

	got, err := store.GetByMint(ctx, "mint1")
	if err != nil {
		t.Fatalf("GetByMint failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got))
	}
	if got[0].ID != "r1" || got[1].ID != "r2" {
		t.Errorf("records not ordered by created_at: %s, %s", got[0].ID, got[1].ID)
	}

	none, err := store.GetByMint(ctx, "unknown")
	if err != nil {
		t.Fatalf("GetByMint failed: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("expected no records, got %d", len(none))
	}
}

func TestTokenRecordStore_InsertDuplicate(t *testing.T) {
	store := NewTokenRecordStore()
	ctx := context.Background()

	r := &domain.TokenRecord{ID: "r1", MintAddress: "m"}
	if err := store.Insert(ctx, r); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if err := store.Insert(ctx, r); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("expected ErrDuplicateKey, got %v", err)
	}
}
