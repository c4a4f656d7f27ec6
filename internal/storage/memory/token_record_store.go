package memory

import (
	"context"
	"sort"
	"sync"

	"solana-token-minter/internal/domain"
	"solana-token-minter/internal/storage"
)

// TokenRecordStore is an in-memory implementation of storage.TokenRecordStore.
type TokenRecordStore struct {
	mu     sync.RWMutex
	byID   map[string]struct{}
	byMint map[string][]*domain.TokenRecord
}

// NewTokenRecordStore creates a new in-memory token record store.
func NewTokenRecordStore() *TokenRecordStore {
	return &TokenRecordStore{
		byID:   make(map[string]struct{}),
		byMint: make(map[string][]*domain.TokenRecord),
	}
}

// Insert adds a new record. Returns ErrDuplicateKey if id exists.
func (s *TokenRecordStore) Insert(_ context.Context, r *domain.TokenRecord) error {
	if r == nil || r.ID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[r.ID]; exists {
		return storage.ErrDuplicateKey
	}
	s.byID[r.ID] = struct{}{}
	s.byMint[r.MintAddress] = append(s.byMint[r.MintAddress], copyRecord(r))
	return nil
}

// GetByMint retrieves all records for a mint, ordered by created_at ASC.
func (s *TokenRecordStore) GetByMint(_ context.Context, mint string) ([]*domain.TokenRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := s.byMint[mint]
	result := make([]*domain.TokenRecord, 0, len(records))
	for _, r := range records {
		result = append(result, copyRecord(r))
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt < result[j].CreatedAt
	})
	return result, nil
}

func copyRecord(r *domain.TokenRecord) *domain.TokenRecord {
	c := *r
	c.Signatures = append([]string(nil), r.Signatures...)
	if r.FailedStep != nil {
		v := *r.FailedStep
		c.FailedStep = &v
	}
	if r.Error != nil {
		v := *r.Error
		c.Error = &v
	}
	return &c
}

var _ storage.TokenRecordStore = (*TokenRecordStore)(nil)
