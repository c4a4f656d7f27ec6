package memory

import (
	"context"
	"sort"
	"sync"

	"solana-token-minter/internal/domain"
	"solana-token-minter/internal/storage"
)

// OperationLogStore is an in-memory implementation of storage.OperationLogStore.
type OperationLogStore struct {
	mu     sync.RWMutex
	events []*domain.OperationEvent
	ids    map[string]struct{}
}

// NewOperationLogStore creates a new in-memory operation log.
func NewOperationLogStore() *OperationLogStore {
	return &OperationLogStore{ids: make(map[string]struct{})}
}

// Append adds an event. Returns ErrDuplicateKey if event_id exists.
func (s *OperationLogStore) Append(_ context.Context, e *domain.OperationEvent) error {
	if e == nil || e.EventID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.ids[e.EventID]; exists {
		return storage.ErrDuplicateKey
	}
	s.ids[e.EventID] = struct{}{}
	s.events = append(s.events, copyEvent(e))
	return nil
}

// GetByMint retrieves events for a mint, ordered by timestamp ASC.
func (s *OperationLogStore) GetByMint(_ context.Context, mint string) ([]*domain.OperationEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.OperationEvent
	for _, e := range s.events {
		if e.MintAddress == mint {
			result = append(result, copyEvent(e))
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Timestamp < result[j].Timestamp
	})
	return result, nil
}

// Len returns the number of stored events.
func (s *OperationLogStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}

func copyEvent(e *domain.OperationEvent) *domain.OperationEvent {
	c := *e
	if e.Error != nil {
		v := *e.Error
		c.Error = &v
	}
	return &c
}

var _ storage.OperationLogStore = (*OperationLogStore)(nil)
