// Package resets detects strategy resets in a trade sequence, counts the
// trades between them and reconciles strategy trades with reference trades.
//
// Every stage is a pure function over its input: slices are copied before
// sorting and records are never mutated.
package resets

import (
	"sort"

	"strategy-reset-lab/internal/domain"
)

// DetectResets flags every trade whose token pair exactly reverses the pair
// of the chronologically preceding trade.
//
// Trades are stable-sorted by timestamp, so equal timestamps keep their input
// order. The first trade is never a reset. All records are validated before
// any output is produced.
func DetectResets(trades []*domain.TradeRecord) ([]domain.FlaggedTrade, error) {
	for i, t := range trades {
		if err := validateTrade(i, t); err != nil {
			return nil, err
		}
	}

	sorted := make([]*domain.TradeRecord, len(trades))
	copy(sorted, trades)
	sortTradesByTime(sorted)

	flagged := make([]domain.FlaggedTrade, len(sorted))
	for i, t := range sorted {
		isReset := false
		if i > 0 {
			prev := sorted[i-1]
			isReset = t.InputToken == prev.OutputToken && t.OutputToken == prev.InputToken
		}
		flagged[i] = domain.FlaggedTrade{
			Trade:  t,
			Reset:  domain.ResetFlagOf(isReset),
			Source: domain.SourceStrategy,
		}
	}

	return flagged, nil
}

// CountResets returns the number of reset rows.
func CountResets(flagged []domain.FlaggedTrade) int {
	n := 0
	for _, f := range flagged {
		if f.Reset.IsReset() {
			n++
		}
	}
	return n
}

func validateTrade(i int, t *domain.TradeRecord) error {
	switch {
	case t == nil:
		return fieldError(i, "trade", ErrInvalidInput)
	case t.Timestamp.IsZero():
		return fieldError(i, "timestamp", ErrMissingField)
	case t.InputToken == "":
		return fieldError(i, "input_token_symbol", ErrMissingField)
	case t.OutputToken == "":
		return fieldError(i, "output_token_symbol", ErrMissingField)
	}
	return nil
}

func sortTradesByTime(trades []*domain.TradeRecord) {
	sort.SliceStable(trades, func(i, j int) bool {
		return trades[i].Timestamp.Before(trades[j].Timestamp)
	})
}

func sortFlaggedByTime(rows []domain.FlaggedTrade) {
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Trade.Timestamp.Before(rows[j].Trade.Timestamp)
	})
}
