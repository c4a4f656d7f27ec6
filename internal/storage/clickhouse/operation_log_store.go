package clickhouse

import (
	"context"
	"fmt"
	"time"

	"solana-token-minter/internal/domain"
	"solana-token-minter/internal/storage"
)

// OperationLogStore implements storage.OperationLogStore using ClickHouse.
type OperationLogStore struct {
	conn *Conn
}

// NewOperationLogStore creates a new OperationLogStore.
func NewOperationLogStore(conn *Conn) *OperationLogStore {
	return &OperationLogStore{conn: conn}
}

// Compile-time interface check.
var _ storage.OperationLogStore = (*OperationLogStore)(nil)

// Append adds an event. Returns ErrDuplicateKey if event_id exists.
// MergeTree does not enforce keys, so the check is explicit.
func (s *OperationLogStore) Append(ctx context.Context, e *domain.OperationEvent) (err error) {
	if e == nil || e.EventID == "" {
		return storage.ErrInvalidInput
	}
	defer func(start time.Time) { observe("operation_append", start, err) }(time.Now())

	exists, err := s.exists(ctx, e.EventID)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if exists {
		return storage.ErrDuplicateKey
	}

	query := `
		INSERT INTO operation_log (
			event_id, operation, status, mint_address, signature, session_id,
			duration_ms, error, timestamp_ms
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	err = s.conn.Exec(ctx, query,
		e.EventID, e.Operation, e.Status, e.MintAddress, e.Signature, e.SessionID,
		e.DurationMs, e.Error, e.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert operation event: %w", err)
	}
	return nil
}

// GetByMint retrieves events for a mint, ordered by timestamp ASC.
func (s *OperationLogStore) GetByMint(ctx context.Context, mint string) (_ []*domain.OperationEvent, err error) {
	defer func(start time.Time) { observe("operation_by_mint", start, err) }(time.Now())

	query := `
		SELECT event_id, operation, status, mint_address, signature, session_id,
			duration_ms, error, timestamp_ms
		FROM operation_log
		WHERE mint_address = ?
		ORDER BY timestamp_ms ASC, event_id ASC
	`

	rows, err := s.conn.Query(ctx, query, mint)
	if err != nil {
		return nil, fmt.Errorf("query operation log: %w", err)
	}
	defer rows.Close()

	var events []*domain.OperationEvent
	for rows.Next() {
		var e domain.OperationEvent
		if err := rows.Scan(
			&e.EventID, &e.Operation, &e.Status, &e.MintAddress, &e.Signature, &e.SessionID,
			&e.DurationMs, &e.Error, &e.Timestamp,
		); err != nil {
			return nil, fmt.Errorf("scan operation event: %w", err)
		}
		events = append(events, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate operation log: %w", err)
	}
	return events, nil
}

func (s *OperationLogStore) exists(ctx context.Context, eventID string) (bool, error) {
	var count uint64
	row := s.conn.QueryRow(ctx, `SELECT count() FROM operation_log WHERE event_id = ?`, eventID)
	if err := row.Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}
