// Package main validates every order of a sample dataset.
// Writes per-order timelines and reports, the aggregated results CSV and a
// per model version summary.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"strategy-reset-lab/internal/app"
	"strategy-reset-lab/internal/idhash"
	"strategy-reset-lab/internal/modelfile"
	"strategy-reset-lab/internal/reporting"
	"strategy-reset-lab/internal/validation"
)

func main() {
	// Parse flags
	sample := flag.String("sample", "", "Sample dataset CSV path or URL (required)")
	start := flag.String("start", "2024-01-01", "Default first day for rows without start_date")
	end := flag.String("end", "2025-04-17", "Default last day for rows without end_date")
	outputDir := flag.String("output-dir", "", "Output directory (default: OUTPUT_DIR)")
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL trade cache (default: POSTGRES_DSN)")
	clickhouseDSN := flag.String("clickhouse-dsn", "", "ClickHouse result store (default: CLICKHOUSE_DSN)")
	metricsAddr := flag.String("metrics-addr", "", "Prometheus metrics HTTP address (default: METRICS_ADDR)")
	flag.Parse()

	if *sample == "" {
		flag.Usage()
		os.Exit(2)
	}

	a, err := app.New()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	cfg := a.Config
	if *outputDir != "" {
		cfg.OutputDir = *outputDir
	}
	if *postgresDSN != "" {
		cfg.Storage.PostgresDSN = *postgresDSN
	}
	if *clickhouseDSN != "" {
		cfg.Storage.ClickhouseDSN = *clickhouseDSN
	}
	if *metricsAddr != "" {
		cfg.MetricsAddr = *metricsAddr
	}

	ctx, cancel := app.SignalContext()
	defer cancel()
	a.ServeMetrics(ctx)

	err = run(ctx, a, *sample, *start, *end)
	if err != nil {
		a.Logger.Error("batch failed", zap.Error(err))
	}
	a.Close()
	if err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, a *app.App, samplePath, start, end string) error {
	defaultStart, err := modelfile.ParseFlexibleDate(start)
	if err != nil {
		return fmt.Errorf("parse -start: %w", err)
	}
	defaultEnd, err := modelfile.ParseFlexibleDate(end)
	if err != nil {
		return fmt.Errorf("parse -end: %w", err)
	}

	rc, err := modelfile.Open(ctx, samplePath)
	if err != nil {
		return fmt.Errorf("open sample dataset: %w", err)
	}
	samples, err := modelfile.ParseOrderSample(rc)
	rc.Close()
	if err != nil {
		return fmt.Errorf("parse sample dataset: %w", err)
	}
	a.Logger.Info("loaded sample dataset", zap.String("source", samplePath), zap.Int("orders", len(samples)))

	if err := a.OpenStores(ctx); err != nil {
		return err
	}

	// One run id for every result of the batch
	runID := idhash.NewRunID()
	dir := a.Config.OutputDir
	ordersDir := filepath.Join(dir, "orders")

	batch := validation.NewBatchRunner(
		func(network string) (*validation.Runner, error) {
			return a.Runner(network, runID)
		},
		validation.ModelFileLoader{
			InputSkipRows:  a.Config.Model.InputSkipRows,
			OutputSkipRows: a.Config.Model.OutputSkipRows,
		},
	).WithLogger(a.Logger).
		WithMetrics(a.Metrics).
		WithDefaultRange(defaultStart, defaultEnd).
		WithOutcomeHandler(func(o *validation.Outcome) error {
			return validation.WriteArtifacts(ordersDir, o)
		})

	result, batchErr := batch.Run(ctx, samples)
	if batchErr != nil {
		a.Logger.Warn("some orders were skipped", zap.Int("skipped", result.Skipped), zap.Error(batchErr))
	}
	if len(result.Outcomes) == 0 {
		return fmt.Errorf("no order validated: %w", batchErr)
	}

	// Aggregated results and summary
	results := result.Results()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	resultsPath := filepath.Join(dir, "results.csv")
	if err := os.WriteFile(resultsPath, []byte(reporting.RenderResultsCSV(results)), 0644); err != nil {
		return err
	}

	summary, err := reporting.NewGenerator(nil).SummarizeResults(results, "batch run "+runID)
	if err != nil {
		return err
	}
	summaryMDPath := filepath.Join(dir, "summary.md")
	if err := os.WriteFile(summaryMDPath, []byte(reporting.RenderSummaryMarkdown(summary)), 0644); err != nil {
		return err
	}
	summaryCSVPath := filepath.Join(dir, "summary.csv")
	if err := os.WriteFile(summaryCSVPath, []byte(reporting.RenderSummaryCSV(summary.Summaries)), 0644); err != nil {
		return err
	}

	fmt.Printf("Batch %s completed: %d validated, %d skipped\n", runID, len(result.Outcomes), result.Skipped)
	fmt.Printf("  - %s\n", resultsPath)
	fmt.Printf("  - %s\n", summaryMDPath)
	fmt.Printf("  - %s\n", summaryCSVPath)
	fmt.Printf("  - %s/\n", ordersDir)
	return nil
}
