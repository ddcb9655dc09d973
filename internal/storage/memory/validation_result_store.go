package memory

import (
	"context"
	"sort"
	"sync"

	"strategy-reset-lab/internal/domain"
	"strategy-reset-lab/internal/storage"
)

// ValidationResultStore is an in-memory implementation of storage.ValidationResultStore.
type ValidationResultStore struct {
	mu   sync.RWMutex
	data map[string]*domain.ValidationResult // keyed by result_id
}

// NewValidationResultStore creates a new in-memory validation result store.
func NewValidationResultStore() *ValidationResultStore {
	return &ValidationResultStore{
		data: make(map[string]*domain.ValidationResult),
	}
}

func validResult(r *domain.ValidationResult) bool {
	return r != nil && r.ResultID != "" && r.OrderHash != "" && r.ModelVersion != ""
}

// Insert adds a new result. Returns ErrDuplicateKey if result_id exists.
func (s *ValidationResultStore) Insert(_ context.Context, r *domain.ValidationResult) error {
	if !validResult(r) {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[r.ResultID]; exists {
		return storage.ErrDuplicateKey
	}

	resCopy := *r
	s.data[r.ResultID] = &resCopy
	return nil
}

// InsertBulk adds multiple results atomically. Fails entire batch on any duplicate.
func (s *ValidationResultStore) InsertBulk(_ context.Context, results []*domain.ValidationResult) error {
	if len(results) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(results))
	for _, r := range results {
		if !validResult(r) {
			return storage.ErrInvalidInput
		}
		if _, exists := s.data[r.ResultID]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[r.ResultID]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[r.ResultID] = struct{}{}
	}

	for _, r := range results {
		resCopy := *r
		s.data[r.ResultID] = &resCopy
	}
	return nil
}

// GetByID retrieves a result by id. Returns ErrNotFound if not exists.
func (s *ValidationResultStore) GetByID(_ context.Context, resultID string) (*domain.ValidationResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, exists := s.data[resultID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	resCopy := *r
	return &resCopy, nil
}

// GetByModelVersion retrieves results of a model version ordered by order_hash.
func (s *ValidationResultStore) GetByModelVersion(_ context.Context, modelVersion string) ([]*domain.ValidationResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.ValidationResult
	for _, r := range s.data {
		if r.ModelVersion == modelVersion {
			resCopy := *r
			result = append(result, &resCopy)
		}
	}
	sortResults(result)
	return result, nil
}

// GetAll retrieves all results ordered by model version, then order hash.
func (s *ValidationResultStore) GetAll(_ context.Context) ([]*domain.ValidationResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.ValidationResult, 0, len(s.data))
	for _, r := range s.data {
		resCopy := *r
		result = append(result, &resCopy)
	}
	sortResults(result)
	return result, nil
}

func sortResults(result []*domain.ValidationResult) {
	sort.Slice(result, func(i, j int) bool {
		if result[i].ModelVersion != result[j].ModelVersion {
			return result[i].ModelVersion < result[j].ModelVersion
		}
		if result[i].OrderHash != result[j].OrderHash {
			return result[i].OrderHash < result[j].OrderHash
		}
		return result[i].ResultID < result[j].ResultID
	})
}

var _ storage.ValidationResultStore = (*ValidationResultStore)(nil)
