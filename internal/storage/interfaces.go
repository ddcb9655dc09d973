package storage

import (
	"context"
	"time"

	"strategy-reset-lab/internal/domain"
)

// TradeStore provides storage for raw strategy trades fetched from the subgraph.
// Trades are keyed by (order_hash, trade_id). Timestamps are stored as unix
// seconds and returned in epoch form.
type TradeStore interface {
	// Insert adds a new trade. Returns ErrDuplicateKey if the key exists.
	Insert(ctx context.Context, t *domain.TradeRecord) error

	// InsertBulk adds multiple trades atomically. Fails the entire batch on any duplicate.
	InsertBulk(ctx context.Context, trades []*domain.TradeRecord) error

	// GetByOrder retrieves trades of an order with start <= timestamp < end,
	// ordered by timestamp ASC, trade_id ASC.
	GetByOrder(ctx context.Context, orderHash string, start, end time.Time) ([]*domain.TradeRecord, error)

	// CountByOrder returns the number of stored trades of an order.
	CountByOrder(ctx context.Context, orderHash string) (int, error)
}

// ValidationResultStore provides storage for per-order validation results.
// Append-only, keyed by result_id.
type ValidationResultStore interface {
	// Insert adds a new result. Returns ErrDuplicateKey if result_id exists.
	Insert(ctx context.Context, r *domain.ValidationResult) error

	// InsertBulk adds multiple results atomically.
	InsertBulk(ctx context.Context, results []*domain.ValidationResult) error

	// GetByID retrieves a result by id. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, resultID string) (*domain.ValidationResult, error)

	// GetByModelVersion retrieves results of a model version ordered by order_hash ASC.
	GetByModelVersion(ctx context.Context, modelVersion string) ([]*domain.ValidationResult, error)

	// GetAll retrieves all results ordered by model_version ASC, order_hash ASC.
	GetAll(ctx context.Context) ([]*domain.ValidationResult, error)
}
