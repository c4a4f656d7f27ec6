package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-token-minter/internal/domain"
	"solana-token-minter/internal/storage"
)

func TestSessionStore_CreateAndGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewSessionStore(pool)

	sess := &domain.UploadSession{
		ID: "8f0c7e1a-0000-4000-8000-000000000001",
		Image: domain.PinResult{
			IpfsHash:   "bafkreigh2akiscaildcqabsyg3dfr6chu3fgpregiymsck7e7aqa4s52zy",
			GatewayURI: "https://gateway.pinata.cloud/ipfs/bafkreigh2akiscaildcqabsyg3dfr6chu3fgpregiymsck7e7aqa4s52zy",
			Size:       2048,
			MimeType:   "image/png",
			Timestamp:  "2024-01-01T00:00:00Z",
		},
		CreatedAt: 1704067200000,
		UpdatedAt: 1704067200000,
	}

	require.NoError(t, store.Create(ctx, sess))

	got, err := store.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.Image, got.Image)
	assert.Nil(t, got.Metadata)
	assert.Equal(t, sess.CreatedAt, got.CreatedAt)

	assert.ErrorIs(t, store.Create(ctx, sess), storage.ErrDuplicateKey)
}

func TestSessionStore_AttachMetadata(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewSessionStore(pool)

	require.NoError(t, store.Create(ctx, &domain.UploadSession{
		ID:        "s1",
		Image:     domain.PinResult{IpfsHash: "QmImage", GatewayURI: "https://gw/ipfs/QmImage"},
		CreatedAt: 1,
		UpdatedAt: 1,
	}))

	pin := domain.PinResult{IpfsHash: "QmMeta", GatewayURI: "https://gw/ipfs/QmMeta", Size: 300}
	require.NoError(t, store.AttachMetadata(ctx, "s1", pin, "Test Token", "TEST", 2))

	got, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	require.NotNil(t, got.Metadata)
	assert.Equal(t, "QmMeta", got.Metadata.IpfsHash)
	assert.Equal(t, int64(300), got.Metadata.Size)
	assert.Equal(t, "TEST", got.Symbol)
	assert.Equal(t, int64(2), got.UpdatedAt)

	assert.ErrorIs(t, store.AttachMetadata(ctx, "missing", pin, "", "", 3), storage.ErrNotFound)
}

func TestSessionStore_GetNotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := NewSessionStore(pool).Get(context.Background(), "nope")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
