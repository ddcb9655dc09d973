package reporting

import (
	"fmt"
	"strings"
	"time"

	"strategy-reset-lab/internal/domain"
)

// RenderMarkdown renders the report of one order as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder
	res := r.Result

	// Header
	sb.WriteString("# Reset Validation Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	if res == nil {
		sb.WriteString("No validation result available.\n")
		return sb.String()
	}
	sb.WriteString(fmt.Sprintf("Order: `%s` | Network: %s | Model: %s\n\n", res.OrderHash, res.Network, res.ModelVersion))
	sb.WriteString(fmt.Sprintf("Range: %s to %s (inclusive, UTC)\n\n", formatDate(res.StartDate), formatDate(res.EndDate)))

	// Data Summary
	sb.WriteString("## Data Summary\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Strategy Trades | %d |\n", res.StrategyTradeCount))
	sb.WriteString(fmt.Sprintf("| Strategy Resets | %d |\n", res.StrategyResetCount))
	sb.WriteString(fmt.Sprintf("| Model Input Trades | %d |\n", res.ModelInputTradeCount))
	sb.WriteString(fmt.Sprintf("| Timeline Rows | %d |\n", r.Reconciliation.TimelineRows))
	sb.WriteString(fmt.Sprintf("| Duplicates Dropped | %d |\n", r.Reconciliation.DuplicatesDropped))
	sb.WriteString("\n")

	// Normalization
	if r.Reconciliation.TimestampCoercion != "" || r.Reconciliation.TxIDCoercion {
		sb.WriteString("### Normalization\n\n")
		if r.Reconciliation.TimestampCoercion != "" {
			sb.WriteString(fmt.Sprintf("- %s timestamps converted to calendar time\n", r.Reconciliation.TimestampCoercion))
		}
		if r.Reconciliation.TxIDCoercion {
			sb.WriteString("- transaction ids rewritten to hex\n")
		}
		sb.WriteString("\n")
	}

	// Comparison
	sb.WriteString("## Trade Count Between Resets\n\n")
	sb.WriteString("| Metric | Modeled | Actual | Difference |\n")
	sb.WriteString("|--------|---------|--------|------------|\n")
	sb.WriteString(fmt.Sprintf("| Resets | %d | %d | %d |\n",
		res.ModelOutputResetCount, res.ActualResetCount, res.ModelOutputResetCount-res.ActualResetCount))
	sb.WriteString(fmt.Sprintf("| Mean | %s | %s | %s |\n",
		mdFloat(res.ModeledMeanTradeCount), mdFloat(res.ActualMeanTradeCount), mdFloat(res.MeanDifference)))
	sb.WriteString(fmt.Sprintf("| Median | %s | %s | %s |\n",
		mdFloat(res.ModeledMedianTradeCount), mdFloat(res.ActualMedianTradeCount), mdFloat(res.MedianDifference)))
	sb.WriteString("\n")

	if res.ActualResetCount == 0 {
		sb.WriteString("No resets found on the merged timeline.\n\n")
	}

	// Timing
	sb.WriteString("## Minutes Between Resets\n\n")
	sb.WriteString(fmt.Sprintf("Mean: %s | Median: %s\n\n", mdFloat(res.ActualMeanMinutes), mdFloat(res.ActualMedianMinutes)))

	// Checks
	sb.WriteString("## Checks\n\n")
	sb.WriteString("| Check | Status |\n")
	sb.WriteString("|-------|--------|\n")
	sb.WriteString(fmt.Sprintf("| Total modeled trades equals total actual trades | %s |\n", checkStatus(res.SumMatches)))
	sb.WriteString(fmt.Sprintf("| Median difference is zero | %s |\n", zeroStatus(res.MedianDifference)))
	sb.WriteString("\n")

	// Warnings
	if len(r.Warnings) > 0 {
		sb.WriteString("## Warnings\n\n")
		for _, w := range r.Warnings {
			sb.WriteString(fmt.Sprintf("- %s\n", w))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// RenderSummaryMarkdown renders per model version summaries as Markdown string.
func RenderSummaryMarkdown(r *SummaryReport) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Model Version Summary\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	if r.Source != "" {
		sb.WriteString(fmt.Sprintf("Source: %s\n\n", r.Source))
	}
	sb.WriteString(fmt.Sprintf("Orders: %d | Model versions: %d\n\n", r.TotalOrders, len(r.Summaries)))

	// Median difference
	sb.WriteString("## Median Trade Count Difference (modeled - actual)\n\n")
	if len(r.Summaries) == 0 {
		sb.WriteString("No results available.\n\n")
		return sb.String()
	}
	sb.WriteString("| Model | Orders | Exact | Skipped | Mean | Median | Stddev | P10 | P90 |\n")
	sb.WriteString("|-------|--------|-------|---------|------|--------|--------|-----|-----|\n")
	for _, s := range r.Summaries {
		sb.WriteString(fmt.Sprintf("| %s | %d | %d | %d | %.4f | %.4f | %.4f | %.4f | %.4f |\n",
			s.ModelVersion, s.Orders, s.ExactMedianMatches, s.SkippedOrders,
			s.MedianDiffMean, s.MedianDiffMedian, s.MedianDiffStddev, s.MedianDiffP10, s.MedianDiffP90))
	}
	sb.WriteString("\n")

	// Mean difference and reset counts
	sb.WriteString("## Mean Trade Count and Reset Count Difference\n\n")
	sb.WriteString("| Model | Mean Diff Mean | Mean Diff Median | Reset Count Diff Mean |\n")
	sb.WriteString("|-------|----------------|------------------|-----------------------|\n")
	for _, s := range r.Summaries {
		sb.WriteString(fmt.Sprintf("| %s | %.4f | %.4f | %.4f |\n",
			s.ModelVersion, s.MeanDiffMean, s.MeanDiffMedian, s.ResetCountDiffMean))
	}
	sb.WriteString("\n")

	return sb.String()
}

func mdFloat(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.4f", *v)
}

func checkStatus(v *bool) string {
	switch {
	case v == nil:
		return "N/A"
	case *v:
		return "PASS"
	default:
		return "FAIL"
	}
}

func zeroStatus(v *float64) string {
	if v == nil {
		return "N/A"
	}
	ok := *v == 0
	return checkStatus(&ok)
}

// summaryTotal counts orders across summaries.
func summaryTotal(summaries []*domain.ModelVersionSummary) int {
	total := 0
	for _, s := range summaries {
		total += s.Orders
	}
	return total
}
