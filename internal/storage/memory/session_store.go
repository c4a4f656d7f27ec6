package memory

import (
	"context"
	"sync"

	"solana-token-minter/internal/domain"
	"solana-token-minter/internal/storage"
)

// SessionStore is an in-memory implementation of storage.SessionStore.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*domain.UploadSession
}

// NewSessionStore creates a new in-memory session store.
func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]*domain.UploadSession)}
}

// Create adds a new session. Returns ErrDuplicateKey if id exists.
func (s *SessionStore) Create(_ context.Context, sess *domain.UploadSession) error {
	if sess == nil || sess.ID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[sess.ID]; exists {
		return storage.ErrDuplicateKey
	}
	s.sessions[sess.ID] = copySession(sess)
	return nil
}

// Get retrieves a session by id. Returns ErrNotFound if not exists.
func (s *SessionStore) Get(_ context.Context, id string) (*domain.UploadSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, exists := s.sessions[id]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return copySession(sess), nil
}

// AttachMetadata records the pinned metadata document on an existing session.
func (s *SessionStore) AttachMetadata(_ context.Context, id string, pin domain.PinResult, name, symbol string, updatedAt int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, exists := s.sessions[id]
	if !exists {
		return storage.ErrNotFound
	}
	p := pin
	sess.Metadata = &p
	sess.Name = name
	sess.Symbol = symbol
	sess.UpdatedAt = updatedAt
	return nil
}

func copySession(s *domain.UploadSession) *domain.UploadSession {
	c := *s
	if s.Metadata != nil {
		m := *s.Metadata
		c.Metadata = &m
	}
	return &c
}

var _ storage.SessionStore = (*SessionStore)(nil)
