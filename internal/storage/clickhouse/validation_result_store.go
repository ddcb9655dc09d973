package clickhouse

import (
	"context"
	"fmt"
	"time"

	"strategy-reset-lab/internal/domain"
	"strategy-reset-lab/internal/storage"
)

// ValidationResultStore implements storage.ValidationResultStore using ClickHouse.
// MergeTree does not enforce uniqueness, so result ids are checked before insert.
type ValidationResultStore struct {
	conn *Conn
}

// NewValidationResultStore creates a new ValidationResultStore.
func NewValidationResultStore(conn *Conn) *ValidationResultStore {
	return &ValidationResultStore{conn: conn}
}

// Compile-time interface check.
var _ storage.ValidationResultStore = (*ValidationResultStore)(nil)

const resultColumns = `
	result_id, run_id, order_hash, network, model_version,
	start_date, end_date, created_at,
	model_input_trade_count, strategy_trade_count, strategy_reset_count,
	model_output_reset_count, actual_reset_count, duplicates_dropped,
	modeled_mean_trade_count, actual_mean_trade_count,
	modeled_median_trade_count, actual_median_trade_count,
	mean_difference, median_difference,
	actual_mean_minutes, actual_median_minutes,
	sum_matches
`

func validResult(r *domain.ValidationResult) bool {
	return r != nil && r.ResultID != "" && r.OrderHash != "" && r.ModelVersion != ""
}

func resultArgs(r *domain.ValidationResult) []any {
	var sumMatches *uint8
	if r.SumMatches != nil {
		v := uint8(0)
		if *r.SumMatches {
			v = 1
		}
		sumMatches = &v
	}
	return []any{
		r.ResultID, r.RunID, r.OrderHash, r.Network, r.ModelVersion,
		r.StartDate, r.EndDate, r.CreatedAt,
		uint32(r.ModelInputTradeCount), uint32(r.StrategyTradeCount), uint32(r.StrategyResetCount),
		uint32(r.ModelOutputResetCount), uint32(r.ActualResetCount), uint32(r.DuplicatesDropped),
		r.ModeledMeanTradeCount, r.ActualMeanTradeCount,
		r.ModeledMedianTradeCount, r.ActualMedianTradeCount,
		r.MeanDifference, r.MedianDifference,
		r.ActualMeanMinutes, r.ActualMedianMinutes,
		sumMatches,
	}
}

// Insert adds a new result. Returns ErrDuplicateKey if result_id exists.
func (s *ValidationResultStore) Insert(ctx context.Context, r *domain.ValidationResult) (err error) {
	if !validResult(r) {
		return storage.ErrInvalidInput
	}
	defer func(started time.Time) { observe("insert_result", started, err) }(time.Now())

	exists, err := s.exists(ctx, r.ResultID)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if exists {
		return storage.ErrDuplicateKey
	}

	query := `INSERT INTO validation_results (` + resultColumns + `) VALUES (
		?, ?, ?, ?, ?,
		?, ?, ?,
		?, ?, ?,
		?, ?, ?,
		?, ?,
		?, ?,
		?, ?,
		?, ?,
		?
	)`
	if err := s.conn.Exec(ctx, query, resultArgs(r)...); err != nil {
		return fmt.Errorf("insert validation result: %w", err)
	}
	return nil
}

// InsertBulk adds multiple results atomically. Fails entire batch on any duplicate.
func (s *ValidationResultStore) InsertBulk(ctx context.Context, results []*domain.ValidationResult) (err error) {
	if len(results) == 0 {
		return nil
	}
	defer func(started time.Time) { observe("insert_results", started, err) }(time.Now())

	// Check for intra-batch duplicates
	seen := make(map[string]struct{}, len(results))
	for _, r := range results {
		if !validResult(r) {
			return storage.ErrInvalidInput
		}
		if _, exists := seen[r.ResultID]; exists {
			return storage.ErrDuplicateKey
		}
		seen[r.ResultID] = struct{}{}
	}

	// Check for duplicates against existing DB rows
	for _, r := range results {
		exists, err := s.exists(ctx, r.ResultID)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		if exists {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `INSERT INTO validation_results (`+resultColumns+`)`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, r := range results {
		if err := batch.Append(resultArgs(r)...); err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// GetByID retrieves a result by id. Returns ErrNotFound if not exists.
func (s *ValidationResultStore) GetByID(ctx context.Context, resultID string) (*domain.ValidationResult, error) {
	rows, err := s.conn.Query(ctx, `SELECT `+resultColumns+` FROM validation_results WHERE result_id = ? LIMIT 1`, resultID)
	if err != nil {
		return nil, fmt.Errorf("query by id: %w", err)
	}
	defer rows.Close()

	results, err := scanValidationResults(rows)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, storage.ErrNotFound
	}
	return results[0], nil
}

// GetByModelVersion retrieves results of a model version ordered by order_hash.
func (s *ValidationResultStore) GetByModelVersion(ctx context.Context, modelVersion string) ([]*domain.ValidationResult, error) {
	query := `SELECT ` + resultColumns + ` FROM validation_results
		WHERE model_version = ?
		ORDER BY order_hash ASC, result_id ASC`

	rows, err := s.conn.Query(ctx, query, modelVersion)
	if err != nil {
		return nil, fmt.Errorf("query by model version: %w", err)
	}
	defer rows.Close()

	return scanValidationResults(rows)
}

// GetAll retrieves all results ordered by model version, then order hash.
func (s *ValidationResultStore) GetAll(ctx context.Context) ([]*domain.ValidationResult, error) {
	query := `SELECT ` + resultColumns + ` FROM validation_results
		ORDER BY model_version ASC, order_hash ASC, result_id ASC`

	rows, err := s.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query all: %w", err)
	}
	defer rows.Close()

	return scanValidationResults(rows)
}

func (s *ValidationResultStore) exists(ctx context.Context, resultID string) (bool, error) {
	var count uint64
	err := s.conn.QueryRow(ctx, `SELECT count(*) FROM validation_results WHERE result_id = ?`, resultID).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Rows interface for scanning
type chRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

// scanValidationResults scans multiple rows into a slice.
func scanValidationResults(rows chRows) ([]*domain.ValidationResult, error) {
	var results []*domain.ValidationResult

	for rows.Next() {
		var (
			r          domain.ValidationResult
			counts     [6]uint32
			sumMatches *uint8
		)
		err := rows.Scan(
			&r.ResultID, &r.RunID, &r.OrderHash, &r.Network, &r.ModelVersion,
			&r.StartDate, &r.EndDate, &r.CreatedAt,
			&counts[0], &counts[1], &counts[2],
			&counts[3], &counts[4], &counts[5],
			&r.ModeledMeanTradeCount, &r.ActualMeanTradeCount,
			&r.ModeledMedianTradeCount, &r.ActualMedianTradeCount,
			&r.MeanDifference, &r.MedianDifference,
			&r.ActualMeanMinutes, &r.ActualMedianMinutes,
			&sumMatches,
		)
		if err != nil {
			return nil, fmt.Errorf("scan validation result row: %w", err)
		}

		r.ModelInputTradeCount = int(counts[0])
		r.StrategyTradeCount = int(counts[1])
		r.StrategyResetCount = int(counts[2])
		r.ModelOutputResetCount = int(counts[3])
		r.ActualResetCount = int(counts[4])
		r.DuplicatesDropped = int(counts[5])
		if sumMatches != nil {
			v := *sumMatches == 1
			r.SumMatches = &v
		}
		r.StartDate, r.EndDate, r.CreatedAt = r.StartDate.UTC(), r.EndDate.UTC(), r.CreatedAt.UTC()

		results = append(results, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate validation result rows: %w", err)
	}
	return results, nil
}
