package reporting

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"strategy-reset-lab/internal/domain"
)

// ErrMalformedResults is returned when a results CSV cannot be read back.
var ErrMalformedResults = errors.New("malformed results csv")

const dateLayout = "2006-01-02"

// resultColumns is the header of the aggregated results file.
var resultColumns = []string{
	"result_id",
	"run_id",
	"target_order_hash",
	"network",
	"model_version",
	"start_date",
	"end_date",
	"strategy_trade_count",
	"strategy_reset_count",
	"model_input_trade_count",
	"model_output_reset_count",
	"actual_reset_count",
	"duplicates_dropped",
	"model_output_median_trade_count_between_resets",
	"actual_median_trade_count_between_resets",
	"model_output_average_trade_count_between_resets",
	"actual_average_trade_count_between_resets",
	"median_trade_count_difference_modeled_vs_actual",
	"average_trade_count_difference_modeled_vs_actual",
	"actual_median_minutes_between_executed_auctions",
	"actual_average_minutes_between_executed_auctions",
	"sum_matches",
	"created_at",
}

// RenderResultsCSV renders validation results as CSV string.
// Missing statistics are written as empty cells.
func RenderResultsCSV(results []*domain.ValidationResult) string {
	var sb strings.Builder
	w := csv.NewWriter(&sb)

	// Header
	w.Write(resultColumns)

	// Rows
	for _, r := range results {
		w.Write([]string{
			r.ResultID,
			r.RunID,
			r.OrderHash,
			r.Network,
			r.ModelVersion,
			formatDate(r.StartDate),
			formatDate(r.EndDate),
			strconv.Itoa(r.StrategyTradeCount),
			strconv.Itoa(r.StrategyResetCount),
			strconv.Itoa(r.ModelInputTradeCount),
			strconv.Itoa(r.ModelOutputResetCount),
			strconv.Itoa(r.ActualResetCount),
			strconv.Itoa(r.DuplicatesDropped),
			formatFloat(r.ModeledMedianTradeCount),
			formatFloat(r.ActualMedianTradeCount),
			formatFloat(r.ModeledMeanTradeCount),
			formatFloat(r.ActualMeanTradeCount),
			formatFloat(r.MedianDifference),
			formatFloat(r.MeanDifference),
			formatFloat(r.ActualMedianMinutes),
			formatFloat(r.ActualMeanMinutes),
			formatBool(r.SumMatches),
			formatTime(r.CreatedAt),
		})
	}

	w.Flush()
	return sb.String()
}

// ParseResultsCSV reads a file written by RenderResultsCSV. Columns are
// matched by name, so files with extra or reordered columns are accepted;
// target_order_hash and model_version are required.
func ParseResultsCSV(r io.Reader) ([]*domain.ValidationResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty file", ErrMalformedResults)
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	for _, required := range []string{"target_order_hash", "model_version"} {
		if _, ok := idx[required]; !ok {
			return nil, fmt.Errorf("%w: missing column %s", ErrMalformedResults, required)
		}
	}

	var results []*domain.ValidationResult
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read line %d: %w", line, err)
		}

		p := resultParser{idx: idx, record: record}
		res := &domain.ValidationResult{
			ResultID:     p.str("result_id"),
			RunID:        p.str("run_id"),
			OrderHash:    p.str("target_order_hash"),
			Network:      p.str("network"),
			ModelVersion: p.str("model_version"),
			StartDate:    p.date("start_date"),
			EndDate:      p.date("end_date"),
			CreatedAt:    p.timestamp("created_at"),

			StrategyTradeCount:    p.int("strategy_trade_count"),
			StrategyResetCount:    p.int("strategy_reset_count"),
			ModelInputTradeCount:  p.int("model_input_trade_count"),
			ModelOutputResetCount: p.int("model_output_reset_count"),
			ActualResetCount:      p.int("actual_reset_count"),
			DuplicatesDropped:     p.int("duplicates_dropped"),

			ModeledMedianTradeCount: p.float("model_output_median_trade_count_between_resets"),
			ActualMedianTradeCount:  p.float("actual_median_trade_count_between_resets"),
			ModeledMeanTradeCount:   p.float("model_output_average_trade_count_between_resets"),
			ActualMeanTradeCount:    p.float("actual_average_trade_count_between_resets"),
			MedianDifference:        p.float("median_trade_count_difference_modeled_vs_actual"),
			MeanDifference:          p.float("average_trade_count_difference_modeled_vs_actual"),
			ActualMedianMinutes:     p.float("actual_median_minutes_between_executed_auctions"),
			ActualMeanMinutes:       p.float("actual_average_minutes_between_executed_auctions"),
			SumMatches:              p.bool("sum_matches"),
		}
		if p.err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrMalformedResults, line, p.err)
		}
		if res.OrderHash == "" {
			// trailing rows of spreadsheet exports
			continue
		}
		results = append(results, res)
	}
	return results, nil
}

// resultParser reads named cells of one record and keeps the first error.
type resultParser struct {
	idx    map[string]int
	record []string
	err    error
}

func (p *resultParser) str(col string) string {
	i, ok := p.idx[col]
	if !ok || i >= len(p.record) {
		return ""
	}
	return strings.TrimSpace(p.record[i])
}

func (p *resultParser) fail(col, value string, err error) {
	if p.err == nil {
		p.err = fmt.Errorf("column %s: %q: %w", col, value, err)
	}
}

func (p *resultParser) int(col string) int {
	s := p.str(col)
	if s == "" {
		return 0
	}
	// exports with missing values write integer columns as floats, e.g. "3.0"
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		p.fail(col, s, err)
		return 0
	}
	return int(f)
}

func (p *resultParser) float(col string) *float64 {
	s := p.str(col)
	if s == "" || strings.EqualFold(s, "nan") {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		p.fail(col, s, err)
		return nil
	}
	return &f
}

func (p *resultParser) bool(col string) *bool {
	s := p.str(col)
	if s == "" {
		return nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		p.fail(col, s, err)
		return nil
	}
	return &b
}

func (p *resultParser) date(col string) time.Time {
	s := p.str(col)
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		p.fail(col, s, err)
	}
	return t
}

func (p *resultParser) timestamp(col string) time.Time {
	s := p.str(col)
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		p.fail(col, s, err)
	}
	return t
}

// RenderTimelineCSV renders the merged timeline of one order as CSV string.
// Amounts are only known for strategy trades.
func RenderTimelineCSV(rows []domain.IntervalRow) string {
	var sb strings.Builder
	w := csv.NewWriter(&sb)

	w.Write([]string{
		"timestamp", "datetime", "tx_hash", "trade_id", "block_number", "source",
		"input_token", "output_token", "input_amount_base", "output_amount_base",
		"is_reset", "trades_since_last_reset",
	})

	for _, row := range rows {
		t := row.Trade
		record := []string{
			strconv.FormatInt(t.Timestamp.Unix(), 10),
			t.Timestamp.Instant().Format(time.DateTime),
			t.TxID,
			t.TradeID,
			"",
			string(row.Source),
			t.InputToken,
			t.OutputToken,
			"",
			"",
			strconv.FormatBool(row.Reset.IsReset()),
			"",
		}
		if row.Source == domain.SourceStrategy {
			if t.BlockNumber > 0 {
				record[4] = strconv.FormatInt(t.BlockNumber, 10)
			}
			record[8] = t.InputAmountBase().String()
			record[9] = t.OutputAmountBase().String()
		}
		if row.Count != nil {
			record[11] = strconv.Itoa(*row.Count)
		}
		w.Write(record)
	}

	w.Flush()
	return sb.String()
}

// RenderSummaryCSV renders per model version summaries as CSV string.
func RenderSummaryCSV(summaries []*domain.ModelVersionSummary) string {
	var sb strings.Builder

	// Header
	sb.WriteString("model_version,orders,exact_median_matches,skipped_orders,")
	sb.WriteString("mean_diff_mean,mean_diff_median,median_diff_mean,median_diff_median,")
	sb.WriteString("median_diff_stddev,median_diff_p10,median_diff_p90,reset_count_diff_mean\n")

	// Rows
	for _, s := range summaries {
		sb.WriteString(fmt.Sprintf("%s,%d,%d,%d,%.6f,%.6f,%.6f,%.6f,%.6f,%.6f,%.6f,%.6f\n",
			csvEscape(s.ModelVersion),
			s.Orders,
			s.ExactMedianMatches,
			s.SkippedOrders,
			s.MeanDiffMean,
			s.MeanDiffMedian,
			s.MedianDiffMean,
			s.MedianDiffMedian,
			s.MedianDiffStddev,
			s.MedianDiffP10,
			s.MedianDiffP90,
			s.ResetCountDiffMean,
		))
	}

	return sb.String()
}

func csvEscape(s string) string {
	if !strings.ContainsAny(s, ",\"\n") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func formatBool(v *bool) string {
	if v == nil {
		return ""
	}
	return strconv.FormatBool(*v)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateLayout)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
