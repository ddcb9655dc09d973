package reporting

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"strategy-reset-lab/internal/domain"
	"strategy-reset-lab/internal/metrics"
	"strategy-reset-lab/internal/resets"
	"strategy-reset-lab/internal/storage/memory"
)

var fixedTime = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

func floatPtr(v float64) *float64 { return &v }
func boolPtr(v bool) *bool        { return &v }

func sampleResult(id, version string, medianDiff *float64) *domain.ValidationResult {
	return &domain.ValidationResult{
		ResultID:                id,
		RunID:                   "run-1",
		OrderHash:               "0x" + id,
		Network:                 "flare",
		ModelVersion:            version,
		StartDate:               time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		EndDate:                 time.Date(2024, 3, 7, 0, 0, 0, 0, time.UTC),
		CreatedAt:               fixedTime,
		ModelInputTradeCount:    120,
		StrategyTradeCount:      14,
		StrategyResetCount:      6,
		ModelOutputResetCount:   7,
		ActualResetCount:        6,
		DuplicatesDropped:       2,
		ModeledMeanTradeCount:   floatPtr(18.5),
		ActualMeanTradeCount:    floatPtr(17.25),
		ModeledMedianTradeCount: floatPtr(18),
		ActualMedianTradeCount:  floatPtr(17),
		MeanDifference:          floatPtr(1.25),
		MedianDifference:        medianDiff,
		ActualMeanMinutes:       floatPtr(95.5),
		ActualMedianMinutes:     floatPtr(80),
		SumMatches:              boolPtr(false),
	}
}

func TestGenerate_WithClock(t *testing.T) {
	rec, err := resets.NewReconciler().Reconcile(
		[]domain.FlaggedTrade{{
			Trade: &domain.TradeRecord{TxID: "0xaa", Timestamp: domain.EpochSeconds(100)},
			Reset: domain.ResetTrue,
		}},
		[]*domain.TradeRecord{
			{TxID: "0xbb", Timestamp: domain.EpochSeconds(50)},
			{TxID: "0xaa", Timestamp: domain.EpochSeconds(100)},
		},
	)
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}

	gen := NewGenerator(nil).WithClock(func() time.Time { return fixedTime })
	report := gen.Generate(sampleResult("r1", "v1", floatPtr(1)), rec, []string{"model output starts late"})

	if !report.GeneratedAt.Equal(fixedTime) {
		t.Errorf("Expected GeneratedAt %v, got %v", fixedTime, report.GeneratedAt)
	}
	if report.Reconciliation.TimelineRows != 2 {
		t.Errorf("Expected 2 timeline rows, got %d", report.Reconciliation.TimelineRows)
	}
	if report.Reconciliation.DuplicatesDropped != 1 {
		t.Errorf("Expected 1 duplicate dropped, got %d", report.Reconciliation.DuplicatesDropped)
	}
	if report.Reconciliation.StrategyResets != 1 || report.Reconciliation.ReferenceTrades != 2 {
		t.Errorf("Unexpected reconciliation summary: %+v", report.Reconciliation)
	}
}

func TestGenerateSummary_FromStore(t *testing.T) {
	ctx := context.Background()
	store := memory.NewValidationResultStore()
	gen := NewGenerator(store).WithClock(func() time.Time { return fixedTime })

	if _, err := gen.GenerateSummary(ctx, "clickhouse"); !errors.Is(err, metrics.ErrNoResults) {
		t.Fatalf("Expected ErrNoResults, got %v", err)
	}

	results := []*domain.ValidationResult{
		sampleResult("r1", "v1", floatPtr(0)),
		sampleResult("r2", "v1", floatPtr(2)),
		sampleResult("r3", "v2", nil),
	}
	if err := store.InsertBulk(ctx, results); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	report, err := gen.GenerateSummary(ctx, "clickhouse")
	if err != nil {
		t.Fatalf("GenerateSummary failed: %v", err)
	}
	if report.TotalOrders != 3 {
		t.Errorf("Expected 3 orders, got %d", report.TotalOrders)
	}
	if len(report.Summaries) != 2 {
		t.Fatalf("Expected 2 summaries, got %d", len(report.Summaries))
	}
	if report.Summaries[0].ExactMedianMatches != 1 {
		t.Errorf("Expected 1 exact match for v1, got %d", report.Summaries[0].ExactMedianMatches)
	}
	if report.Summaries[1].SkippedOrders != 1 {
		t.Errorf("Expected 1 skipped order for v2, got %d", report.Summaries[1].SkippedOrders)
	}

	v1, err := gen.GenerateVersionSummary(ctx, "clickhouse", "v1")
	if err != nil {
		t.Fatalf("GenerateVersionSummary failed: %v", err)
	}
	if v1.TotalOrders != 2 || len(v1.Summaries) != 1 || v1.Summaries[0].ModelVersion != "v1" {
		t.Errorf("Unexpected v1 summary: %+v", v1)
	}
	if _, err := gen.GenerateVersionSummary(ctx, "clickhouse", "v9"); !errors.Is(err, metrics.ErrNoResults) {
		t.Errorf("Expected ErrNoResults for unknown version, got %v", err)
	}
}

func TestSummarizeResults_Empty(t *testing.T) {
	gen := NewGenerator(nil)
	if _, err := gen.SummarizeResults(nil, "results.csv"); !errors.Is(err, metrics.ErrNoResults) {
		t.Errorf("Expected ErrNoResults, got %v", err)
	}
}

func TestRenderMarkdown_Format(t *testing.T) {
	report := &Report{
		GeneratedAt: fixedTime,
		Result:      sampleResult("r1", "v1", floatPtr(1)),
		Reconciliation: ReconciliationSummary{
			TimelineRows:      126,
			DuplicatesDropped: 2,
			TimestampCoercion: "reference",
		},
		Warnings: []string{"model output ends early"},
	}

	md := RenderMarkdown(report)

	required := []string{
		"# Reset Validation Report",
		"Generated: 2024-03-10T12:00:00Z",
		"Order: `0xr1` | Network: flare | Model: v1",
		"Range: 2024-03-01 to 2024-03-07",
		"## Data Summary",
		"| Timeline Rows | 126 |",
		"- reference timestamps converted to calendar time",
		"| Resets | 7 | 6 | 1 |",
		"| Mean | 18.5000 | 17.2500 | 1.2500 |",
		"| Median | 18.0000 | 17.0000 | 1.0000 |",
		"Mean: 95.5000 | Median: 80.0000",
		"| Total modeled trades equals total actual trades | FAIL |",
		"| Median difference is zero | FAIL |",
		"## Warnings",
		"- model output ends early",
	}
	for _, s := range required {
		if !strings.Contains(md, s) {
			t.Errorf("Missing %q in markdown:\n%s", s, md)
		}
	}
	if strings.Contains(md, "transaction ids rewritten") {
		t.Error("Unexpected tx id normalization line")
	}
}

func TestRenderMarkdown_NoResets(t *testing.T) {
	res := &domain.ValidationResult{OrderHash: "0xempty", ModelOutputResetCount: 3}
	md := RenderMarkdown(&Report{GeneratedAt: fixedTime, Result: res})

	for _, s := range []string{
		"No resets found on the merged timeline.",
		"| Mean | n/a | n/a | n/a |",
		"| Total modeled trades equals total actual trades | N/A |",
	} {
		if !strings.Contains(md, s) {
			t.Errorf("Missing %q in markdown:\n%s", s, md)
		}
	}
}

func TestRenderSummaryMarkdown(t *testing.T) {
	report := &SummaryReport{
		GeneratedAt: fixedTime,
		Source:      "results.csv",
		TotalOrders: 3,
		Summaries: []*domain.ModelVersionSummary{
			{ModelVersion: "v1", Orders: 2, ExactMedianMatches: 1, MedianDiffMean: 1, MedianDiffStddev: 1.4142},
			{ModelVersion: "v2", Orders: 1, SkippedOrders: 1},
		},
	}

	md := RenderSummaryMarkdown(report)
	for _, s := range []string{
		"# Model Version Summary",
		"Source: results.csv",
		"Orders: 3 | Model versions: 2",
		"| v1 | 2 | 1 | 0 | 1.0000 | 0.0000 | 1.4142 | 0.0000 | 0.0000 |",
		"| v2 | 1 | 0 | 1 |",
	} {
		if !strings.Contains(md, s) {
			t.Errorf("Missing %q in markdown:\n%s", s, md)
		}
	}

	empty := RenderSummaryMarkdown(&SummaryReport{GeneratedAt: fixedTime})
	if !strings.Contains(empty, "No results available.") {
		t.Error("Expected empty summary notice")
	}
}
