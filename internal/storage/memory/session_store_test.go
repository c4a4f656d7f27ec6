package memory

import (
	"context"
	"errors"
	"testing"

	"solana-token-minter/internal/domain"
	"solana-token-minter/internal/storage"
)

func TestSessionStore_CreateAndGet(t *testing.T) {
	store := NewSessionStore()
	ctx := context.Background()

	sess := &domain.UploadSession{
		ID:        "sess-1",
		Image:     domain.PinResult{IpfsHash: "QmImage", GatewayURI: "https://gw/ipfs/QmImage", MimeType: "image/png"},
		CreatedAt: 1704067200000,
		UpdatedAt: 1704067200000,
	}

	if err := store.Create(ctx, sess); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := store.Get(ctx, "sess-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Image.IpfsHash != "QmImage" {
		t.Errorf("IpfsHash mismatch: got %s, want QmImage", got.Image.IpfsHash)
	}
	if got.Metadata != nil {
		t.Errorf("expected no metadata yet, got %+v", got.Metadata)
	}
}

func TestSessionStore_CreateDuplicate(t *testing.T) {
	store := NewSessionStore()
	ctx := context.Background()

	sess := &domain.UploadSession{ID: "dup"}
	if err := store.Create(ctx, sess); err != nil {
		t.Fatalf("first Create failed: %v", err)
	}
	if err := store.Create(ctx, sess); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("expected ErrDuplicateKey, got %v", err)
	}
	if err := store.Create(ctx, &domain.UploadSession{}); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestSessionStore_AttachMetadata(t *testing.T) {
	store := NewSessionStore()
	ctx := context.Background()

	if err := store.Create(ctx, &domain.UploadSession{ID: "s", CreatedAt: 1, UpdatedAt: 1}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	pin := domain.PinResult{IpfsHash: "QmMeta", MimeType: "application/json"}
	if err := store.AttachMetadata(ctx, "s", pin, "Test Token", "TEST", 5); err != nil {
		t.Fatalf("AttachMetadata failed: %v", err)
	}

	got, err := store.Get(ctx, "s")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Metadata == nil || got.Metadata.IpfsHash != "QmMeta" {
		t.Fatalf("metadata not attached: %+v", got.Metadata)
	}
	if got.Symbol != "TEST" || got.UpdatedAt != 5 {
		t.Errorf("unexpected session state: %+v", got)
	}

	// returned copies must not alias stored state
	got.Metadata.IpfsHash = "mutated"
	again, _ := store.Get(ctx, "s")
	if again.Metadata.IpfsHash != "QmMeta" {
		t.Errorf("stored session was mutated through a returned copy")
	}

	if err := store.AttachMetadata(ctx, "missing", pin, "", "", 0); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
