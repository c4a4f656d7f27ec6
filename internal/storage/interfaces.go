package storage

import (
	"context"

	"solana-token-minter/internal/domain"
)

// SessionStore provides access to upload_sessions storage.
type SessionStore interface {
	// Create adds a new session. Returns ErrDuplicateKey if id exists.
	Create(ctx context.Context, s *domain.UploadSession) error

	// Get retrieves a session by id. Returns ErrNotFound if not exists.
	Get(ctx context.Context, id string) (*domain.UploadSession, error)

	// AttachMetadata records the pinned metadata document on an existing session.
	// Returns ErrNotFound if the session does not exist.
	AttachMetadata(ctx context.Context, id string, pin domain.PinResult, name, symbol string, updatedAt int64) error
}

// TokenRecordStore provides access to token_records storage.
type TokenRecordStore interface {
	// Insert adds a new record. Returns ErrDuplicateKey if id exists.
	Insert(ctx context.Context, r *domain.TokenRecord) error

	// GetByMint retrieves all records for a mint, ordered by created_at ASC.
	GetByMint(ctx context.Context, mint string) ([]*domain.TokenRecord, error)
}

// OperationLogStore provides access to operation_log storage.
type OperationLogStore interface {
	// Append adds an event. Returns ErrDuplicateKey if event_id exists.
	Append(ctx context.Context, e *domain.OperationEvent) error

	// GetByMint retrieves events for a mint, ordered by timestamp ASC.
	GetByMint(ctx context.Context, mint string) ([]*domain.OperationEvent, error)
}
