package reporting

import (
	"time"

	"strategy-reset-lab/internal/domain"
	"strategy-reset-lab/internal/resets"
)

// Report represents the validation report of one order.
type Report struct {
	// Metadata
	GeneratedAt time.Time

	// Comparison of modeled and actual interval counts
	Result *domain.ValidationResult

	// Reconciliation summary
	Reconciliation ReconciliationSummary

	// Data quality warnings (model output coverage, skipped rows)
	Warnings []string
}

// ReconciliationSummary describes how the merged timeline was built.
type ReconciliationSummary struct {
	StrategyResets    int
	ReferenceTrades   int
	TimelineRows      int
	DuplicatesDropped int
	TimestampCoercion string // side converted to calendar form, empty if none
	TxIDCoercion      bool
}

// SummarizeReconciliation extracts the report fields of a reconciliation.
func SummarizeReconciliation(rec *resets.Reconciliation) ReconciliationSummary {
	if rec == nil {
		return ReconciliationSummary{}
	}
	return ReconciliationSummary{
		StrategyResets:    rec.StrategyResets,
		ReferenceTrades:   rec.ReferenceTrades,
		TimelineRows:      len(rec.Timeline),
		DuplicatesDropped: rec.DuplicatesDropped,
		TimestampCoercion: string(rec.TimestampCoercion),
		TxIDCoercion:      rec.TxIDCoercion,
	}
}

// SummaryReport represents the per model version report across orders.
type SummaryReport struct {
	GeneratedAt time.Time
	Source      string // where results were loaded from
	TotalOrders int

	// Sorted by model version
	Summaries []*domain.ModelVersionSummary
}
