package domain

import "time"

// ModelOutputRow is one row of the strategy model output file.
// TradeCountInReset is nil when the model left the cell empty.
type ModelOutputRow struct {
	Time              time.Time
	TradeCountInReset *int
}

// OrderInfo describes a strategy order as reported by the subgraph.
type OrderInfo struct {
	ID              string
	OrderHash       string
	Active          bool
	TimestampAdded  Timestamp
	LastInputToken  string // input token of the most recent trade, if any
	LastOutputToken string
}

// OrderSample is one row of the batch sample dataset.
type OrderSample struct {
	OrderHash       string
	Network         string
	ModelVersion    string
	ModelInputPath  string
	ModelOutputPath string
	StartDate       time.Time // inclusive, UTC day
	EndDate         time.Time // inclusive, UTC day
}

// ValidationResult holds modeled-vs-actual reset metrics for one order.
// Corresponds to validation_results table in ClickHouse.
type ValidationResult struct {
	ResultID     string // deterministic hash of (order, model version, range)
	RunID        string // random id of the run that produced the result
	OrderHash    string
	Network      string
	ModelVersion string
	StartDate    time.Time
	EndDate      time.Time
	CreatedAt    time.Time

	// Counts
	ModelInputTradeCount  int // rows in the model input (reference) file
	StrategyTradeCount    int // on-chain strategy trades in range
	StrategyResetCount    int // resets detected on strategy trades alone
	ModelOutputResetCount int // non-empty modeled interval counts
	ActualResetCount      int // resets on the reconciled timeline
	DuplicatesDropped     int // reference rows replaced by strategy resets

	// Trade count between resets (nil when a side has no values)
	ModeledMeanTradeCount   *float64
	ActualMeanTradeCount    *float64
	ModeledMedianTradeCount *float64
	ActualMedianTradeCount  *float64
	MeanDifference          *float64 // modeled - actual
	MedianDifference        *float64 // modeled - actual

	// Elapsed time between resets on the reconciled timeline
	ActualMeanMinutes   *float64
	ActualMedianMinutes *float64

	// SumMatches reports whether the sum of all modeled interval counts
	// equals the total actual interval count. Every modeled interval takes
	// part, not only the first one. Nil without modeled counts or without
	// actual resets.
	SumMatches *bool
}

// ModelVersionSummary aggregates validation results of one model version.
type ModelVersionSummary struct {
	ModelVersion       string
	Orders             int
	ExactMedianMatches int // orders with MedianDifference == 0
	SkippedOrders      int // orders without a median difference

	MeanDiffMean     float64
	MeanDiffMedian   float64
	MedianDiffMean   float64
	MedianDiffMedian float64
	MedianDiffStddev float64
	MedianDiffP10    float64
	MedianDiffP90    float64

	ResetCountDiffMean float64 // modeled - actual reset count
}
