package modelfile

import (
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"strategy-reset-lab/internal/domain"
)

const (
	colDateTime          = "date/time"
	colTradeCountInReset = "trade_count_in_reset"
)

// outputLayouts are the accepted forms of the model output Date/time column
// (day first).
var outputLayouts = []string{
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
	"2/1/2006 15:04:05",
	"2/1/2006 15:04",
}

// ParseModelOutput reads the modeled trade counts between resets.
//
// skipRows physical lines precede the header (the model sheet keeps its
// parameters above the table). Counts may carry thousands separators and
// fractions, which are rounded; a blank count is kept as nil.
func ParseModelOutput(r io.Reader, skipRows int) ([]domain.ModelOutputRow, error) {
	t, err := readTable(r, skipRows)
	if err != nil {
		return nil, err
	}
	idx, err := t.columns(map[string]columnMatch{
		colDateTime:          contains(colDateTime),
		colTradeCountInReset: contains(colTradeCountInReset),
	}, colDateTime, colTradeCountInReset)
	if err != nil {
		return nil, err
	}

	out := make([]domain.ModelOutputRow, 0, len(t.rows))
	for _, row := range t.rows {
		rawTime := row.cell(idx, colDateTime)
		if rawTime == "" {
			return nil, &RowError{Line: row.line, Column: colDateTime, Err: ErrMissingValue}
		}
		ts, err := parseOutputTime(rawTime)
		if err != nil {
			return nil, &RowError{Line: row.line, Column: colDateTime, Value: rawTime, Err: err}
		}

		rawCount := row.cell(idx, colTradeCountInReset)
		count, err := parseCount(rawCount)
		if err != nil {
			return nil, &RowError{Line: row.line, Column: colTradeCountInReset, Value: rawCount, Err: err}
		}

		out = append(out, domain.ModelOutputRow{Time: ts, TradeCountInReset: count})
	}
	return out, nil
}

func parseOutputTime(s string) (time.Time, error) {
	for _, layout := range outputLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, ErrInvalidValue
}

// parseCount parses "1,234", "12.6" or "" (nil).
func parseCount(s string) (*int, error) {
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, ErrInvalidValue
	}
	n := int(math.Round(f))
	return &n, nil
}
