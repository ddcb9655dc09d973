package memory

import (
	"context"
	"sync"
	"time"

	"strategy-reset-lab/internal/domain"
	"strategy-reset-lab/internal/storage"
)

// TradeStore is an in-memory implementation of storage.TradeStore.
type TradeStore struct {
	mu   sync.RWMutex
	data map[string]*domain.TradeRecord // keyed by order_hash|trade_id
}

// NewTradeStore creates a new in-memory trade store.
func NewTradeStore() *TradeStore {
	return &TradeStore{
		data: make(map[string]*domain.TradeRecord),
	}
}

func tradeKey(t *domain.TradeRecord) string {
	return t.OrderHash + "|" + t.TradeID
}

func validTrade(t *domain.TradeRecord) bool {
	return t != nil && t.TradeID != "" && t.OrderHash != "" && !t.Timestamp.IsZero()
}

// Insert adds a new trade. Returns ErrDuplicateKey if (order_hash, trade_id) exists.
func (s *TradeStore) Insert(_ context.Context, t *domain.TradeRecord) error {
	if !validTrade(t) {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := tradeKey(t)
	if _, exists := s.data[key]; exists {
		return storage.ErrDuplicateKey
	}
	s.data[key] = storedTrade(t)
	return nil
}

// InsertBulk adds multiple trades atomically. Fails entire batch on any duplicate.
func (s *TradeStore) InsertBulk(_ context.Context, trades []*domain.TradeRecord) error {
	if len(trades) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(trades))
	for _, t := range trades {
		if !validTrade(t) {
			return storage.ErrInvalidInput
		}
		key := tradeKey(t)
		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	for _, t := range trades {
		s.data[tradeKey(t)] = storedTrade(t)
	}
	return nil
}

// GetByOrder retrieves trades of an order in [start, end), ordered by timestamp ASC, trade_id ASC.
func (s *TradeStore) GetByOrder(_ context.Context, orderHash string, start, end time.Time) ([]*domain.TradeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	from, to := start.Unix(), end.Unix()
	var result []*domain.TradeRecord
	for _, t := range s.data {
		if t.OrderHash != orderHash {
			continue
		}
		if sec := t.Timestamp.Unix(); sec >= from && sec < to {
			result = append(result, t.Clone())
		}
	}

	domain.SortTrades(result)

	return result, nil
}

// CountByOrder returns the number of stored trades of an order.
func (s *TradeStore) CountByOrder(_ context.Context, orderHash string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, t := range s.data {
		if t.OrderHash == orderHash {
			n++
		}
	}
	return n, nil
}

// storedTrade copies t with its timestamp in epoch form.
func storedTrade(t *domain.TradeRecord) *domain.TradeRecord {
	c := t.Clone()
	c.Timestamp = domain.EpochSeconds(t.Timestamp.Unix())
	return c
}

var _ storage.TradeStore = (*TradeStore)(nil)
