package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"strategy-reset-lab/internal/domain"
	"strategy-reset-lab/internal/storage"
)

// TradeStore implements storage.TradeStore using PostgreSQL.
// Amounts are NUMERIC columns written and read as text to keep full precision.
type TradeStore struct {
	pool *Pool
}

// NewTradeStore creates a new TradeStore.
func NewTradeStore(pool *Pool) *TradeStore {
	return &TradeStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TradeStore = (*TradeStore)(nil)

const insertTradeQuery = `
	INSERT INTO strategy_trades (
		order_hash, trade_id, tx_id, block_number, timestamp_sec,
		input_token, input_decimals, input_amount, input_old_balance, input_new_balance,
		output_token, output_decimals, output_amount, output_old_balance, output_new_balance
	) VALUES (
		$1, $2, $3, $4, $5,
		$6, $7, $8::numeric, $9::numeric, $10::numeric,
		$11, $12, $13::numeric, $14::numeric, $15::numeric
	)
`

func tradeArgs(t *domain.TradeRecord) []any {
	return []any{
		t.OrderHash, t.TradeID, t.TxID, t.BlockNumber, t.Timestamp.Unix(),
		t.InputToken, t.InputDecimals, t.InputAmount.String(), t.InputOldBalance.String(), t.InputNewBalance.String(),
		t.OutputToken, t.OutputDecimals, t.OutputAmount.String(), t.OutputOldBalance.String(), t.OutputNewBalance.String(),
	}
}

func validTrade(t *domain.TradeRecord) bool {
	return t != nil && t.TradeID != "" && t.OrderHash != "" && !t.Timestamp.IsZero()
}

// Insert adds a new trade. Returns ErrDuplicateKey if (order_hash, trade_id) exists.
func (s *TradeStore) Insert(ctx context.Context, t *domain.TradeRecord) (err error) {
	if !validTrade(t) {
		return storage.ErrInvalidInput
	}
	defer func(started time.Time) { observe("insert_trade", started, err) }(time.Now())

	_, err = s.pool.Exec(ctx, insertTradeQuery, tradeArgs(t)...)
	return mapError("insert strategy trade", err)
}

// InsertBulk adds multiple trades in one transaction. Any duplicate rolls back the batch.
func (s *TradeStore) InsertBulk(ctx context.Context, trades []*domain.TradeRecord) (err error) {
	if len(trades) == 0 {
		return nil
	}
	for _, t := range trades {
		if !validTrade(t) {
			return storage.ErrInvalidInput
		}
	}
	defer func(started time.Time) { observe("insert_trades", started, err) }(time.Now())

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, t := range trades {
		batch.Queue(insertTradeQuery, tradeArgs(t)...)
	}
	results := tx.SendBatch(ctx, batch)
	for range trades {
		if _, err = results.Exec(); err != nil {
			results.Close()
			return mapError("insert strategy trades", err)
		}
	}
	if err = results.Close(); err != nil {
		return mapError("insert strategy trades", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetByOrder retrieves trades of an order in [start, end), ordered by timestamp ASC, trade_id ASC.
func (s *TradeStore) GetByOrder(ctx context.Context, orderHash string, start, end time.Time) (result []*domain.TradeRecord, err error) {
	defer func(started time.Time) { observe("get_trades", started, err) }(time.Now())

	query := `
		SELECT
			order_hash, trade_id, tx_id, block_number, timestamp_sec,
			input_token, input_decimals, input_amount::text, input_old_balance::text, input_new_balance::text,
			output_token, output_decimals, output_amount::text, output_old_balance::text, output_new_balance::text
		FROM strategy_trades
		WHERE order_hash = $1 AND timestamp_sec >= $2 AND timestamp_sec < $3
		ORDER BY timestamp_sec ASC, trade_id COLLATE "C" ASC
	`

	rows, err := s.pool.Query(ctx, query, orderHash, start.Unix(), end.Unix())
	if err != nil {
		return nil, fmt.Errorf("query strategy trades: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		t, err := scanTrade(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate strategy trades: %w", err)
	}
	return result, nil
}

// CountByOrder returns the number of stored trades of an order.
func (s *TradeStore) CountByOrder(ctx context.Context, orderHash string) (n int, err error) {
	defer func(started time.Time) { observe("count_trades", started, err) }(time.Now())

	err = s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM strategy_trades WHERE order_hash = $1`, orderHash).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count strategy trades: %w", err)
	}
	return n, nil
}

func scanTrade(row pgx.Row) (*domain.TradeRecord, error) {
	var (
		t       domain.TradeRecord
		sec     int64
		amounts [6]string
	)
	err := row.Scan(
		&t.OrderHash, &t.TradeID, &t.TxID, &t.BlockNumber, &sec,
		&t.InputToken, &t.InputDecimals, &amounts[0], &amounts[1], &amounts[2],
		&t.OutputToken, &t.OutputDecimals, &amounts[3], &amounts[4], &amounts[5],
	)
	if err != nil {
		return nil, fmt.Errorf("scan strategy trade: %w", err)
	}
	t.Timestamp = domain.EpochSeconds(sec)

	targets := []*decimal.Decimal{
		&t.InputAmount, &t.InputOldBalance, &t.InputNewBalance,
		&t.OutputAmount, &t.OutputOldBalance, &t.OutputNewBalance,
	}
	for i, raw := range amounts {
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("parse amount %q of trade %s: %w", raw, t.TradeID, err)
		}
		*targets[i] = d
	}
	return &t, nil
}
