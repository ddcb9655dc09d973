package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TimeKind identifies how a timestamp was represented by its source.
type TimeKind int

// Timestamp representations.
const (
	TimeKindUnknown  TimeKind = iota // absent
	TimeKindEpoch                    // unix seconds
	TimeKindCalendar                 // calendar date-time
)

// String returns the representation name.
func (k TimeKind) String() string {
	switch k {
	case TimeKindEpoch:
		return "epoch"
	case TimeKindCalendar:
		return "calendar"
	default:
		return "unknown"
	}
}

// Timestamp is a point in time that remembers its source representation.
// Sources disagree on representation (the subgraph reports unix seconds, model
// files carry calendar strings), and reconciliation has to detect that rather
// than compare mismatched values.
type Timestamp struct {
	Kind     TimeKind
	Epoch    int64     // set when Kind == TimeKindEpoch
	Calendar time.Time // set when Kind == TimeKindCalendar, UTC
}

// EpochSeconds returns an epoch timestamp.
func EpochSeconds(sec int64) Timestamp {
	return Timestamp{Kind: TimeKindEpoch, Epoch: sec}
}

// CalendarTime returns a calendar timestamp normalized to UTC.
func CalendarTime(t time.Time) Timestamp {
	return Timestamp{Kind: TimeKindCalendar, Calendar: t.UTC()}
}

// IsZero reports whether the timestamp is absent.
func (ts Timestamp) IsZero() bool {
	return ts.Kind == TimeKindUnknown
}

// Instant returns the absolute UTC instant.
// Returns the zero time for an absent timestamp.
func (ts Timestamp) Instant() time.Time {
	switch ts.Kind {
	case TimeKindEpoch:
		return time.Unix(ts.Epoch, 0).UTC()
	case TimeKindCalendar:
		return ts.Calendar
	default:
		return time.Time{}
	}
}

// Unix returns the instant as unix seconds.
func (ts Timestamp) Unix() int64 {
	if ts.Kind == TimeKindEpoch {
		return ts.Epoch
	}
	return ts.Instant().Unix()
}

// ToCalendar converts an epoch timestamp to calendar form.
// Calendar and absent timestamps are returned unchanged.
func (ts Timestamp) ToCalendar() Timestamp {
	if ts.Kind != TimeKindEpoch {
		return ts
	}
	return CalendarTime(time.Unix(ts.Epoch, 0))
}

// Before reports whether ts happens strictly before other.
func (ts Timestamp) Before(other Timestamp) bool {
	return ts.Instant().Before(other.Instant())
}

// Equal reports whether both timestamps denote the same instant.
func (ts Timestamp) Equal(other Timestamp) bool {
	return ts.Instant().Equal(other.Instant())
}

// String formats the timestamp in its own representation.
func (ts Timestamp) String() string {
	switch ts.Kind {
	case TimeKindEpoch:
		return strconv.FormatInt(ts.Epoch, 10)
	case TimeKindCalendar:
		return ts.Calendar.Format(time.RFC3339)
	default:
		return ""
	}
}

// ParseEpochSeconds parses a base-10 unix seconds string.
func ParseEpochSeconds(s string) (Timestamp, error) {
	sec, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return Timestamp{}, fmt.Errorf("parse epoch seconds %q: %w", s, err)
	}
	return EpochSeconds(sec), nil
}

// ParseCalendar parses s with layout and returns a calendar timestamp in UTC.
func ParseCalendar(s, layout string) (Timestamp, error) {
	t, err := time.ParseInLocation(layout, strings.TrimSpace(s), time.UTC)
	if err != nil {
		return Timestamp{}, fmt.Errorf("parse calendar time %q: %w", s, err)
	}
	return CalendarTime(t), nil
}
