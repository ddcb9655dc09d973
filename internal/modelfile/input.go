package modelfile

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"time"

	"strategy-reset-lab/internal/domain"
	"strategy-reset-lab/internal/resets"
)

const (
	colTxHash    = "tx_hash"
	colTimestamp = "timestamp"
)

// calendarLayouts are the accepted calendar forms of model input timestamps.
var calendarLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseModelInput reads the reference trades the model was run on.
//
// The tx hash and timestamp columns are found by case-insensitive substring
// match; other columns are ignored. Timestamps must be all unix seconds or
// all calendar values; a file mixing both fails with resets.ErrTypeMismatch.
func ParseModelInput(r io.Reader, skipRows int) ([]*domain.TradeRecord, error) {
	t, err := readTable(r, skipRows)
	if err != nil {
		return nil, err
	}
	idx, err := t.columns(map[string]columnMatch{
		colTxHash:    contains(colTxHash),
		colTimestamp: contains(colTimestamp),
	}, colTxHash, colTimestamp)
	if err != nil {
		return nil, err
	}

	trades := make([]*domain.TradeRecord, 0, len(t.rows))
	kind := domain.TimeKindUnknown
	for _, row := range t.rows {
		tx := row.cell(idx, colTxHash)
		if tx == "" {
			return nil, &RowError{Line: row.line, Column: colTxHash, Err: ErrMissingValue}
		}
		raw := row.cell(idx, colTimestamp)
		if raw == "" {
			return nil, &RowError{Line: row.line, Column: colTimestamp, Err: ErrMissingValue}
		}

		ts, err := parseInputTimestamp(raw)
		if err != nil {
			return nil, &RowError{Line: row.line, Column: colTimestamp, Value: raw, Err: err}
		}
		if kind == domain.TimeKindUnknown {
			kind = ts.Kind
		} else if ts.Kind != kind {
			return nil, &RowError{
				Line:   row.line,
				Column: colTimestamp,
				Value:  raw,
				Err:    fmt.Errorf("%w: %s value in %s column", resets.ErrTypeMismatch, ts.Kind, kind),
			}
		}

		trades = append(trades, &domain.TradeRecord{
			TxID:      tx,
			Timestamp: ts,
		})
	}
	return trades, nil
}

// parseInputTimestamp reads unix seconds (integer or fractional) or one of
// the calendar layouts.
func parseInputTimestamp(s string) (domain.Timestamp, error) {
	if sec, err := strconv.ParseInt(s, 10, 64); err == nil {
		return domain.EpochSeconds(sec), nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return domain.EpochSeconds(int64(math.Floor(f))), nil
	}
	for _, layout := range calendarLayouts {
		if ts, err := domain.ParseCalendar(s, layout); err == nil {
			return ts, nil
		}
	}
	return domain.Timestamp{}, ErrInvalidValue
}
