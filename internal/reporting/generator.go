package reporting

import (
	"context"
	"time"

	"strategy-reset-lab/internal/domain"
	"strategy-reset-lab/internal/metrics"
	"strategy-reset-lab/internal/resets"
	"strategy-reset-lab/internal/storage"
)

// Generator produces reports from validation outcomes and stored results.
type Generator struct {
	resultStore storage.ValidationResultStore // optional, used by GenerateSummary
	now         func() time.Time              // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator. resultStore may be nil when
// only per-order reports and in-memory summaries are generated.
func NewGenerator(resultStore storage.ValidationResultStore) *Generator {
	return &Generator{
		resultStore: resultStore,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate builds the report of one validated order.
func (g *Generator) Generate(result *domain.ValidationResult, rec *resets.Reconciliation, warnings []string) *Report {
	return &Report{
		GeneratedAt:    g.now(),
		Result:         result,
		Reconciliation: SummarizeReconciliation(rec),
		Warnings:       warnings,
	}
}

// GenerateSummary summarizes every result in the store per model version.
// Returns metrics.ErrNoResults if the store is empty.
func (g *Generator) GenerateSummary(ctx context.Context, source string) (*SummaryReport, error) {
	summaries, err := metrics.NewAggregator(g.resultStore).ComputeSummaries(ctx)
	if err != nil {
		return nil, err
	}
	return g.summaryReport(source, summaries), nil
}

// GenerateVersionSummary summarizes the stored results of one model version.
// Returns metrics.ErrNoResults if the version has no results.
func (g *Generator) GenerateVersionSummary(ctx context.Context, source, modelVersion string) (*SummaryReport, error) {
	summary, err := metrics.NewAggregator(g.resultStore).ComputeSummary(ctx, modelVersion)
	if err != nil {
		return nil, err
	}
	return g.summaryReport(source, []*domain.ModelVersionSummary{summary}), nil
}

// SummarizeResults summarizes results loaded outside a store, such as a
// results CSV. Returns metrics.ErrNoResults for no results.
func (g *Generator) SummarizeResults(results []*domain.ValidationResult, source string) (*SummaryReport, error) {
	if len(results) == 0 {
		return nil, metrics.ErrNoResults
	}
	return g.summaryReport(source, metrics.Summarize(results)), nil
}

func (g *Generator) summaryReport(source string, summaries []*domain.ModelVersionSummary) *SummaryReport {
	return &SummaryReport{
		GeneratedAt: g.now(),
		Source:      source,
		TotalOrders: summaryTotal(summaries),
		Summaries:   summaries,
	}
}
