package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"solana-token-minter/internal/domain"
	"solana-token-minter/internal/storage"
)

// SessionStore implements storage.SessionStore using PostgreSQL.
type SessionStore struct {
	pool *Pool
}

// NewSessionStore creates a new SessionStore.
func NewSessionStore(pool *Pool) *SessionStore {
	return &SessionStore{pool: pool}
}

// Compile-time interface check.
var _ storage.SessionStore = (*SessionStore)(nil)

// Create adds a new session. Returns ErrDuplicateKey if id exists.
func (s *SessionStore) Create(ctx context.Context, sess *domain.UploadSession) (err error) {
	if sess == nil || sess.ID == "" {
		return storage.ErrInvalidInput
	}
	defer func(start time.Time) { observe("session_create", start, err) }(time.Now())

	query := `
		INSERT INTO upload_sessions (
			id, image_cid, image_uri, image_size, image_mime, image_pinned_at,
			metadata_cid, metadata_uri, metadata_size, metadata_pinned_at,
			name, symbol, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	var metaCID, metaURI, metaTS *string
	var metaSize *int64
	if m := sess.Metadata; m != nil {
		metaCID, metaURI, metaSize, metaTS = &m.IpfsHash, &m.GatewayURI, &m.Size, &m.Timestamp
	}

	_, err = s.pool.Exec(ctx, query,
		sess.ID,
		sess.Image.IpfsHash,
		sess.Image.GatewayURI,
		sess.Image.Size,
		sess.Image.MimeType,
		sess.Image.Timestamp,
		metaCID,
		metaURI,
		metaSize,
		metaTS,
		sess.Name,
		sess.Symbol,
		sess.CreatedAt,
		sess.UpdatedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert upload session: %w", err)
	}
	return nil
}

// Get retrieves a session by id. Returns ErrNotFound if not exists.
func (s *SessionStore) Get(ctx context.Context, id string) (_ *domain.UploadSession, err error) {
	defer func(start time.Time) { observe("session_get", start, err) }(time.Now())

	query := `
		SELECT id, image_cid, image_uri, image_size, image_mime, image_pinned_at,
			metadata_cid, metadata_uri, metadata_size, metadata_pinned_at,
			name, symbol, created_at, updated_at
		FROM upload_sessions
		WHERE id = $1
	`

	sess, err := scanSession(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get upload session: %w", err)
	}
	return sess, nil
}

// AttachMetadata records the pinned metadata document on an existing session.
func (s *SessionStore) AttachMetadata(ctx context.Context, id string, pin domain.PinResult, name, symbol string, updatedAt int64) (err error) {
	defer func(start time.Time) { observe("session_attach", start, err) }(time.Now())

	query := `
		UPDATE upload_sessions
		SET metadata_cid = $2, metadata_uri = $3, metadata_size = $4, metadata_pinned_at = $5,
			name = $6, symbol = $7, updated_at = $8
		WHERE id = $1
	`

	tag, err := s.pool.Exec(ctx, query, id, pin.IpfsHash, pin.GatewayURI, pin.Size, pin.Timestamp, name, symbol, updatedAt)
	if err != nil {
		return fmt.Errorf("attach session metadata: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// scanSession scans a single row into UploadSession.
func scanSession(row pgx.Row) (*domain.UploadSession, error) {
	var sess domain.UploadSession
	var metaCID, metaURI, metaTS *string
	var metaSize *int64

	err := row.Scan(
		&sess.ID,
		&sess.Image.IpfsHash,
		&sess.Image.GatewayURI,
		&sess.Image.Size,
		&sess.Image.MimeType,
		&sess.Image.Timestamp,
		&metaCID,
		&metaURI,
		&metaSize,
		&metaTS,
		&sess.Name,
		&sess.Symbol,
		&sess.CreatedAt,
		&sess.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if metaCID != nil {
		sess.Metadata = &domain.PinResult{
			IpfsHash:   *metaCID,
			GatewayURI: deref(metaURI),
			MimeType:   "application/json",
			Timestamp:  deref(metaTS),
		}
		if metaSize != nil {
			sess.Metadata.Size = *metaSize
		}
	}
	return &sess, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
