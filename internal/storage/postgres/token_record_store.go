package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"solana-token-minter/internal/domain"
	"solana-token-minter/internal/storage"
)

// TokenRecordStore implements storage.TokenRecordStore using PostgreSQL.
type TokenRecordStore struct {
	pool *Pool
}

// NewTokenRecordStore creates a new TokenRecordStore.
func NewTokenRecordStore(pool *Pool) *TokenRecordStore {
	return &TokenRecordStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TokenRecordStore = (*TokenRecordStore)(nil)

// Insert adds a new record. Returns ErrDuplicateKey if id exists.
func (s *TokenRecordStore) Insert(ctx context.Context, r *domain.TokenRecord) (err error) {
	if r == nil || r.ID == "" {
		return storage.ErrInvalidInput
	}
	defer func(start time.Time) { observe("token_record_insert", start, err) }(time.Now())

	query := `
		INSERT INTO token_records (
			id, kind, mint_address, name, symbol, uri, supply, decimals, mode,
			associated_account, metadata_account, signatures, status, failed_step, error, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	signatures := r.Signatures
	if signatures == nil {
		signatures = []string{}
	}

	_, err = s.pool.Exec(ctx, query,
		r.ID,
		r.Kind,
		r.MintAddress,
		r.Name,
		r.Symbol,
		r.URI,
		r.Supply,
		int16(r.Decimals),
		string(r.Mode),
		r.AssociatedAccount,
		r.MetadataAccount,
		signatures,
		r.Status,
		r.FailedStep,
		r.Error,
		r.CreatedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert token record: %w", err)
	}
	return nil
}

// GetByMint retrieves all records for a mint, ordered by created_at ASC.
func (s *TokenRecordStore) GetByMint(ctx context.Context, mint string) (_ []*domain.TokenRecord, err error) {
	defer func(start time.Time) { observe("token_record_by_mint", start, err) }(time.Now())

	query := `
		SELECT id, kind, mint_address, name, symbol, uri, supply, decimals, mode,
			associated_account, metadata_account, signatures, status, failed_step, error, created_at
		FROM token_records
		WHERE mint_address = $1
		ORDER BY created_at ASC, id ASC
	`

	rows, err := s.pool.Query(ctx, query, mint)
	if err != nil {
		return nil, fmt.Errorf("query token records: %w", err)
	}
	defer rows.Close()

	var records []*domain.TokenRecord
	for rows.Next() {
		r, err := scanTokenRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan token record: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate token records: %w", err)
	}
	return records, nil
}

// scanTokenRecord scans a single row into TokenRecord.
func scanTokenRecord(row pgx.Row) (*domain.TokenRecord, error) {
	var r domain.TokenRecord
	var decimals int16
	var mode string

	err := row.Scan(
		&r.ID,
		&r.Kind,
		&r.MintAddress,
		&r.Name,
		&r.Symbol,
		&r.URI,
		&r.Supply,
		&decimals,
		&mode,
		&r.AssociatedAccount,
		&r.MetadataAccount,
		&r.Signatures,
		&r.Status,
		&r.FailedStep,
		&r.Error,
		&r.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	r.Decimals = uint8(decimals)
	r.Mode = domain.MintMode(mode)
	return &r, nil
}
