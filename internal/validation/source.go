// Package validation runs the reset validation of strategy orders: trades are
// fetched, resets detected and reconciled with the model input, and the merged
// interval counts are compared with the model output.
package validation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"strategy-reset-lab/internal/domain"
	"strategy-reset-lab/internal/logging"
	"strategy-reset-lab/internal/storage"
	"strategy-reset-lab/internal/subgraph"
)

// TradeSource provides the trades of an order on the calendar days start
// through end (inclusive, UTC), ordered as domain.SortTrades orders them.
type TradeSource interface {
	FetchTrades(ctx context.Context, orderHash string, start, end time.Time) ([]*domain.TradeRecord, error)
}

// DefaultIndexLag is how far behind the fetch time recorded progress stops.
// Trades younger than that may not be indexed by the subgraph yet.
const DefaultIndexLag = 15 * time.Minute

// CachedSource is a read-through cache of a TradeSource backed by a TradeStore.
// A FetchProgressStore records which range of an order is already stored;
// requests inside that range are served from the store. Progress never
// extends past the fetch time minus the index lag, so a range reaching into
// the present is fetched again on the next request.
type CachedSource struct {
	source   TradeSource
	trades   storage.TradeStore
	progress storage.FetchProgressStore
	logger   *zap.Logger
	now      func() time.Time
	indexLag time.Duration
}

// NewCachedSource wraps source with trades and progress.
func NewCachedSource(source TradeSource, trades storage.TradeStore, progress storage.FetchProgressStore, logger *zap.Logger) *CachedSource {
	return &CachedSource{
		source:   source,
		trades:   trades,
		progress: progress,
		logger:   logging.OrNop(logger),
		now:      func() time.Time { return time.Now().UTC() },
		indexLag: DefaultIndexLag,
	}
}

// WithClock sets a custom clock function for progress timestamps.
func (s *CachedSource) WithClock(now func() time.Time) *CachedSource {
	s.now = now
	return s
}

// WithIndexLag sets how far behind the fetch time progress stops.
func (s *CachedSource) WithIndexLag(lag time.Duration) *CachedSource {
	if lag >= 0 {
		s.indexLag = lag
	}
	return s
}

// FetchTrades returns stored trades when the requested days were fetched
// before, otherwise fetches them, stores the new ones and extends the progress.
func (s *CachedSource) FetchTrades(ctx context.Context, orderHash string, start, end time.Time) ([]*domain.TradeRecord, error) {
	fromTs, toTs, err := subgraph.DayRange(start, end)
	if err != nil {
		return nil, err
	}
	from, to := time.Unix(fromTs, 0).UTC(), time.Unix(toTs, 0).UTC()
	key := strings.ToLower(orderHash)

	prev, err := s.progress.GetProgress(ctx, key)
	switch {
	case err == nil && prev.Covers(from, to):
		trades, err := s.trades.GetByOrder(ctx, key, from, to)
		if err != nil {
			return nil, fmt.Errorf("load stored trades: %w", err)
		}
		s.logger.Debug("serving trades from store",
			zap.String("order_hash", key),
			zap.Int("trades", len(trades)),
		)
		return trades, nil
	case errors.Is(err, storage.ErrNotFound):
		prev = nil
	case err != nil:
		return nil, fmt.Errorf("load fetch progress: %w", err)
	}

	fetchedAt := s.now()
	fetched, err := s.source.FetchTrades(ctx, orderHash, start, end)
	if err != nil {
		return nil, err
	}
	trades := append([]*domain.TradeRecord(nil), fetched...)
	domain.SortTrades(trades)

	if err := s.store(ctx, key, from, to, trades); err != nil {
		return nil, err
	}
	if err := s.saveProgress(ctx, key, from, to, prev, fetchedAt); err != nil {
		return nil, err
	}
	return trades, nil
}

// store inserts the trades that are not stored yet.
func (s *CachedSource) store(ctx context.Context, orderHash string, from, to time.Time, trades []*domain.TradeRecord) error {
	existing, err := s.trades.GetByOrder(ctx, orderHash, from, to)
	if err != nil {
		return fmt.Errorf("load stored trades: %w", err)
	}
	seen := make(map[string]struct{}, len(existing))
	for _, t := range existing {
		seen[t.TradeID] = struct{}{}
	}

	fresh := make([]*domain.TradeRecord, 0, len(trades))
	for _, t := range trades {
		if _, ok := seen[t.TradeID]; ok {
			continue
		}
		seen[t.TradeID] = struct{}{}
		fresh = append(fresh, t)
	}
	if err := s.trades.InsertBulk(ctx, fresh); err != nil {
		return fmt.Errorf("store trades: %w", err)
	}
	s.logger.Debug("stored trades",
		zap.String("order_hash", orderHash),
		zap.Int("fetched", len(trades)),
		zap.Int("inserted", len(fresh)),
	)
	return nil
}

// saveProgress records [from, to), merged with prev when the ranges touch
// and cut at fetchedAt minus the index lag. Nothing is recorded when the cut
// leaves an empty range.
func (s *CachedSource) saveProgress(ctx context.Context, orderHash string, from, to time.Time, prev *storage.FetchProgress, fetchedAt time.Time) error {
	if prev != nil && !from.After(prev.To) && !to.Before(prev.From) {
		if prev.From.Before(from) {
			from = prev.From
		}
		if prev.To.After(to) {
			to = prev.To
		}
	}
	if settled := fetchedAt.Add(-s.indexLag); to.After(settled) {
		to = settled
	}
	if !to.After(from) {
		s.logger.Debug("range not settled yet, progress not recorded",
			zap.String("order_hash", orderHash),
			zap.Time("from", from),
		)
		return nil
	}

	stored, err := s.trades.GetByOrder(ctx, orderHash, from, to)
	if err != nil {
		return fmt.Errorf("count stored trades: %w", err)
	}
	err = s.progress.SetProgress(ctx, &storage.FetchProgress{
		OrderHash:  orderHash,
		From:       from,
		To:         to,
		TradeCount: len(stored),
		UpdatedAt:  fetchedAt,
	})
	if err != nil {
		return fmt.Errorf("save fetch progress: %w", err)
	}
	return nil
}

var _ TradeSource = (*CachedSource)(nil)
var _ TradeSource = (*subgraph.Client)(nil)
