package domain

import (
	"sort"

	"github.com/shopspring/decimal"
)

// TradeRecord represents one executed trade of a strategy order.
// Corresponds to strategy_trades table in PostgreSQL.
type TradeRecord struct {
	TradeID     string    // subgraph trade id
	OrderHash   string    // strategy instance that produced the trade
	TxID        string    // transaction hash, dedup key during reconciliation
	BlockNumber int64     // block the transaction landed in
	Timestamp   Timestamp // execution time, sole ordering key

	// Input side of the swap
	InputToken      string // token symbol
	InputDecimals   int32
	InputAmount     decimal.Decimal // raw amount (not scaled by decimals)
	InputOldBalance decimal.Decimal // vault balance before the trade
	InputNewBalance decimal.Decimal // vault balance after the trade

	// Output side of the swap
	OutputToken      string
	OutputDecimals   int32
	OutputAmount     decimal.Decimal
	OutputOldBalance decimal.Decimal
	OutputNewBalance decimal.Decimal
}

// displayPlaces is the rounding applied to human readable amounts.
const displayPlaces = 5

// InputAmountBase returns the input amount scaled by its token decimals.
func (t *TradeRecord) InputAmountBase() decimal.Decimal {
	return scaleAmount(t.InputAmount, t.InputDecimals)
}

// OutputAmountBase returns the output amount scaled by its token decimals.
func (t *TradeRecord) OutputAmountBase() decimal.Decimal {
	return scaleAmount(t.OutputAmount, t.OutputDecimals)
}

func scaleAmount(amount decimal.Decimal, decimals int32) decimal.Decimal {
	return amount.Shift(-decimals).Round(displayPlaces)
}

// Pair returns the (input, output) token symbols.
func (t *TradeRecord) Pair() (string, string) {
	return t.InputToken, t.OutputToken
}

// Clone returns a copy of the record.
// Decimal values are immutable, so a shallow copy is sufficient.
func (t *TradeRecord) Clone() *TradeRecord {
	c := *t
	return &c
}

// SortTrades orders trades ascending by timestamp, then trade id. Every
// TradeSource and TradeStore returns trades in this order.
func SortTrades(trades []*TradeRecord) {
	sort.SliceStable(trades, func(i, j int) bool {
		ti, tj := trades[i].Timestamp.Instant(), trades[j].Timestamp.Instant()
		if !ti.Equal(tj) {
			return ti.Before(tj)
		}
		return trades[i].TradeID < trades[j].TradeID
	})
}
