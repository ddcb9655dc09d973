package resets

import (
	"sort"
	"time"

	"strategy-reset-lab/internal/domain"
)

// IntervalSeries is a timeline with an interval count attached to every reset.
//
// A series without resets is a valid result: Found reports false and Counts
// is empty. Callers must check Found before treating a total as a number,
// because a zero interval (back-to-back resets) is a real count.
type IntervalSeries struct {
	Rows      []domain.IntervalRow
	positions []int // positions of reset rows in Rows, ascending
}

// Found reports whether the timeline contains at least one reset.
func (s *IntervalSeries) Found() bool {
	return len(s.positions) > 0
}

// Positions returns the 0-based positions of reset rows.
func (s *IntervalSeries) Positions() []int {
	out := make([]int, len(s.positions))
	copy(out, s.positions)
	return out
}

// Counts returns the interval counts of reset rows in timeline order.
func (s *IntervalSeries) Counts() []int {
	out := make([]int, len(s.positions))
	for k, pos := range s.positions {
		out[k] = *s.Rows[pos].Count
	}
	return out
}

// ResetRows returns the reset rows in timeline order.
func (s *IntervalSeries) ResetRows() []domain.IntervalRow {
	out := make([]domain.IntervalRow, len(s.positions))
	for k, pos := range s.positions {
		out[k] = s.Rows[pos]
	}
	return out
}

// ResetTimestamps returns the timestamps of reset rows in timeline order.
func (s *IntervalSeries) ResetTimestamps() []domain.Timestamp {
	out := make([]domain.Timestamp, len(s.positions))
	for k, pos := range s.positions {
		out[k] = s.Rows[pos].Trade.Timestamp
	}
	return out
}

// Total returns the sum of all interval counts.
// The boolean is false when there are no resets.
func (s *IntervalSeries) Total() (int, bool) {
	if !s.Found() {
		return 0, false
	}
	total := 0
	for _, c := range s.Counts() {
		total += c
	}
	return total, true
}

// Len returns the number of timeline rows.
func (s *IntervalSeries) Len() int {
	return len(s.Rows)
}

// CountIntervals attaches to every reset the number of trades strictly between
// it and the previous reset, or strictly before it for the first reset.
//
// Rows are stable-sorted by timestamp on a copy first. Every row must carry a
// computed reset flag.
func CountIntervals(flagged []domain.FlaggedTrade) (*IntervalSeries, error) {
	for i, f := range flagged {
		if f.Trade == nil {
			return nil, fieldError(i, "trade", ErrInvalidInput)
		}
		if !f.Reset.Known() {
			return nil, fieldError(i, "is_reset", ErrMissingColumn)
		}
	}

	sorted := make([]domain.FlaggedTrade, len(flagged))
	copy(sorted, flagged)
	sortFlaggedByTime(sorted)

	series := &IntervalSeries{
		Rows: make([]domain.IntervalRow, len(sorted)),
	}
	for i, f := range sorted {
		series.Rows[i] = domain.IntervalRow{FlaggedTrade: f}
		if f.Reset.IsReset() {
			series.positions = append(series.positions, i)
		}
	}

	for k, pos := range series.positions {
		count := pos
		if k > 0 {
			count = pos - series.positions[k-1] - 1
		}
		series.Rows[pos].Count = &count
	}

	return series, nil
}

// MinutesBetweenResets returns, for each timestamp, the minutes elapsed since
// the previous one; the first element is nil.
//
// All timestamps must share one representation. Mixed epoch and calendar
// values are rejected rather than coerced row by row. The input is sorted on
// a copy.
func MinutesBetweenResets(timestamps []domain.Timestamp) ([]*float64, error) {
	kind := domain.TimeKindUnknown
	for i, ts := range timestamps {
		if ts.IsZero() {
			return nil, fieldError(i, "timestamp", ErrMissingField)
		}
		if kind == domain.TimeKindUnknown {
			kind = ts.Kind
		} else if ts.Kind != kind {
			return nil, fieldError(i, "timestamp", ErrTypeMismatch)
		}
	}

	instants := make([]time.Time, len(timestamps))
	for i, ts := range timestamps {
		instants[i] = ts.Instant()
	}
	sortTimes(instants)

	out := make([]*float64, len(instants))
	for k := 1; k < len(instants); k++ {
		minutes := instants[k].Sub(instants[k-1]).Minutes()
		out[k] = &minutes
	}
	return out, nil
}

func sortTimes(ts []time.Time) {
	sort.Slice(ts, func(i, j int) bool {
		return ts[i].Before(ts[j])
	})
}
