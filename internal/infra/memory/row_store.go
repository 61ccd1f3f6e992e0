package memory

import (
	"context"
	"sync"

	"arena-quiz-service/internal/domain"
)

// RowStore is an in-memory implementation of app.RowStore, one document
// string per user key. Useful for tests and for running without a backend.
type RowStore struct {
	mu   sync.RWMutex
	rows map[string]string
}

func NewRowStore() *RowStore {
	return &RowStore{rows: make(map[string]string)}
}

func (s *RowStore) Find(_ context.Context, userKey string) (domain.RowHandle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.rows[userKey]; !ok {
		return domain.RowHandle{}, domain.ErrRowNotFound
	}
	return domain.RowHandle{UserKey: userKey}, nil
}

func (s *RowStore) ReadCell(_ context.Context, row domain.RowHandle) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.rows[row.UserKey]
	if !ok {
		return "", domain.ErrRowNotFound
	}
	return value, nil
}

func (s *RowStore) WriteCell(_ context.Context, row domain.RowHandle, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[row.UserKey] = value
	return nil
}

func (s *RowStore) AppendRow(_ context.Context, userKey, value string) (domain.RowHandle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[userKey]; !ok {
		s.rows[userKey] = value
	}
	return domain.RowHandle{UserKey: userKey}, nil
}
