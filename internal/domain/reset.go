package domain

// ResetFlag marks whether a trade reverses the token pair of its predecessor.
// The zero value means the flag was never computed for the row.
type ResetFlag int

// Reset flag values.
const (
	ResetUnknown ResetFlag = iota
	ResetFalse
	ResetTrue
)

// ResetFlagOf converts a computed boolean to a flag.
func ResetFlagOf(isReset bool) ResetFlag {
	if isReset {
		return ResetTrue
	}
	return ResetFalse
}

// IsReset reports whether the flag is set.
func (f ResetFlag) IsReset() bool {
	return f == ResetTrue
}

// Known reports whether the flag was computed.
func (f ResetFlag) Known() bool {
	return f == ResetFalse || f == ResetTrue
}

// String returns "true", "false" or "" for an unknown flag.
func (f ResetFlag) String() string {
	switch f {
	case ResetTrue:
		return "true"
	case ResetFalse:
		return "false"
	default:
		return ""
	}
}

// TradeSource identifies which dataset a timeline row came from.
type TradeSource string

// Trade sources
const (
	SourceStrategy  TradeSource = "strategy"  // on-chain strategy trades
	SourceReference TradeSource = "reference" // model input / market trades file
)

// FlaggedTrade is a trade with its reset flag.
type FlaggedTrade struct {
	Trade  *TradeRecord
	Reset  ResetFlag
	Source TradeSource
}

// IntervalRow is a timeline row with its interval count.
// Count is nil for rows that are not resets.
type IntervalRow struct {
	FlaggedTrade
	Count *int
}
