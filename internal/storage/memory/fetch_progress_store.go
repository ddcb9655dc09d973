package memory

import (
	"context"
	"sort"
	"sync"

	"strategy-reset-lab/internal/storage"
)

// FetchProgressStore is an in-memory implementation of storage.FetchProgressStore.
type FetchProgressStore struct {
	mu       sync.RWMutex
	progress map[string]storage.FetchProgress
}

// NewFetchProgressStore creates a new in-memory fetch progress store.
func NewFetchProgressStore() *FetchProgressStore {
	return &FetchProgressStore{
		progress: make(map[string]storage.FetchProgress),
	}
}

// GetProgress returns the stored range of an order.
func (s *FetchProgressStore) GetProgress(_ context.Context, orderHash string) (*storage.FetchProgress, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.progress[orderHash]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &p, nil
}

// SetProgress saves the stored range of an order.
func (s *FetchProgressStore) SetProgress(_ context.Context, progress *storage.FetchProgress) error {
	if progress == nil || progress.OrderHash == "" || progress.To.Before(progress.From) {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.progress[progress.OrderHash] = *progress
	return nil
}

// ListOrders returns all orders with saved progress.
func (s *FetchProgressStore) ListOrders(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	orders := make([]string, 0, len(s.progress))
	for order := range s.progress {
		orders = append(orders, order)
	}
	sort.Strings(orders)
	return orders, nil
}

var _ storage.FetchProgressStore = (*FetchProgressStore)(nil)
