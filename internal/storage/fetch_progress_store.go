package storage

import (
	"context"
	"time"
)

// FetchProgress records which time range of an order's trades is held in a TradeStore.
type FetchProgress struct {
	OrderHash  string
	From       time.Time // inclusive
	To         time.Time // exclusive
	TradeCount int       // trades stored for the range
	UpdatedAt  time.Time
}

// Covers reports whether the stored range contains [start, end).
func (p *FetchProgress) Covers(start, end time.Time) bool {
	return !start.Before(p.From) && !end.After(p.To)
}

// FetchProgressStore provides persistence for trade fetch state.
// One row per order; the range only grows while it stays contiguous.
type FetchProgressStore interface {
	// GetProgress returns the stored range of an order.
	// Returns ErrNotFound if the order was never fetched.
	GetProgress(ctx context.Context, orderHash string) (*FetchProgress, error)

	// SetProgress saves the stored range of an order, replacing any previous one.
	SetProgress(ctx context.Context, progress *FetchProgress) error

	// ListOrders returns all orders with saved progress, ascending.
	ListOrders(ctx context.Context) ([]string, error)
}
