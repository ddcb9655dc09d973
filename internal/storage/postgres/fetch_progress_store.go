package postgres

import (
	"context"
	"fmt"
	"time"

	"strategy-reset-lab/internal/storage"
)

// FetchProgressStore is a PostgreSQL implementation of storage.FetchProgressStore.
// One row per order in fetch_progress.
type FetchProgressStore struct {
	pool *Pool
}

// NewFetchProgressStore creates a new PostgreSQL fetch progress store.
func NewFetchProgressStore(pool *Pool) *FetchProgressStore {
	return &FetchProgressStore{pool: pool}
}

var _ storage.FetchProgressStore = (*FetchProgressStore)(nil)

// GetProgress returns the stored range of an order.
func (s *FetchProgressStore) GetProgress(ctx context.Context, orderHash string) (_ *storage.FetchProgress, err error) {
	defer func(started time.Time) { observe("get_progress", started, err) }(time.Now())

	row := s.pool.QueryRow(ctx, `
		SELECT order_hash, range_from, range_to, trade_count, updated_at
		FROM fetch_progress
		WHERE order_hash = $1
	`, orderHash)

	var p storage.FetchProgress
	if err = row.Scan(&p.OrderHash, &p.From, &p.To, &p.TradeCount, &p.UpdatedAt); err != nil {
		return nil, mapError("get fetch progress", err)
	}
	p.From, p.To, p.UpdatedAt = p.From.UTC(), p.To.UTC(), p.UpdatedAt.UTC()
	return &p, nil
}

// SetProgress saves the stored range of an order.
// Uses upsert to handle initial insert and subsequent updates.
func (s *FetchProgressStore) SetProgress(ctx context.Context, progress *storage.FetchProgress) (err error) {
	if progress == nil || progress.OrderHash == "" || progress.To.Before(progress.From) {
		return storage.ErrInvalidInput
	}
	defer func(started time.Time) { observe("set_progress", started, err) }(time.Now())

	_, err = s.pool.Exec(ctx, `
		INSERT INTO fetch_progress (order_hash, range_from, range_to, trade_count, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (order_hash) DO UPDATE
		SET range_from = EXCLUDED.range_from,
		    range_to = EXCLUDED.range_to,
		    trade_count = EXCLUDED.trade_count,
		    updated_at = NOW()
	`, progress.OrderHash, progress.From.UTC(), progress.To.UTC(), progress.TradeCount)
	return mapError("set fetch progress", err)
}

// ListOrders returns all orders with saved progress.
func (s *FetchProgressStore) ListOrders(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT order_hash FROM fetch_progress ORDER BY order_hash`)
	if err != nil {
		return nil, fmt.Errorf("list fetch progress: %w", err)
	}
	defer rows.Close()

	var orders []string
	for rows.Next() {
		var order string
		if err := rows.Scan(&order); err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	return orders, rows.Err()
}
