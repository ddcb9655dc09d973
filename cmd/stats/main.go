// Package main summarizes validation results per model version.
// Results are read from a results CSV (path or URL) or from ClickHouse.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"strategy-reset-lab/internal/app"
	"strategy-reset-lab/internal/modelfile"
	"strategy-reset-lab/internal/reporting"
)

func main() {
	// Parse flags
	results := flag.String("results", "", "Results CSV path or URL; empty reads ClickHouse")
	modelVersion := flag.String("model-version", "", "Only summarize this model version")
	outputDir := flag.String("output-dir", "", "Output directory (default: OUTPUT_DIR)")
	clickhouseDSN := flag.String("clickhouse-dsn", "", "ClickHouse result store (default: CLICKHOUSE_DSN)")
	flag.Parse()

	a, err := app.New()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	cfg := a.Config
	if *outputDir != "" {
		cfg.OutputDir = *outputDir
	}
	if *clickhouseDSN != "" {
		cfg.Storage.ClickhouseDSN = *clickhouseDSN
	}
	// Trades are not fetched
	cfg.Storage.PostgresDSN = ""

	ctx, cancel := app.SignalContext()
	defer cancel()

	err = run(ctx, a, *results, *modelVersion)
	if err != nil {
		a.Logger.Error("stats failed", zap.Error(err))
	}
	a.Close()
	if err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, a *app.App, resultsPath, modelVersion string) error {
	var report *reporting.SummaryReport
	if resultsPath != "" {
		rc, err := modelfile.Open(ctx, resultsPath)
		if err != nil {
			return fmt.Errorf("open results: %w", err)
		}
		results, err := reporting.ParseResultsCSV(rc)
		rc.Close()
		if err != nil {
			return fmt.Errorf("parse results: %w", err)
		}
		if modelVersion != "" {
			kept := results[:0]
			for _, r := range results {
				if r.ModelVersion == modelVersion {
					kept = append(kept, r)
				}
			}
			results = kept
		}
		report, err = reporting.NewGenerator(nil).SummarizeResults(results, resultsPath)
		if err != nil {
			return err
		}
	} else {
		if a.Config.Storage.ClickhouseDSN == "" {
			return fmt.Errorf("either -results or a ClickHouse DSN is required")
		}
		if err := a.OpenStores(ctx); err != nil {
			return err
		}
		gen := reporting.NewGenerator(a.ResultStore())
		var err error
		if modelVersion != "" {
			report, err = gen.GenerateVersionSummary(ctx, "clickhouse", modelVersion)
		} else {
			report, err = gen.GenerateSummary(ctx, "clickhouse")
		}
		if err != nil {
			return err
		}
	}

	dir := a.Config.OutputDir
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	stamp := time.Now().UTC().Format("2006-01-02")
	mdPath := filepath.Join(dir, fmt.Sprintf("stats_results_%s.md", stamp))
	csvPath := filepath.Join(dir, fmt.Sprintf("stats_results_%s.csv", stamp))
	if err := os.WriteFile(mdPath, []byte(reporting.RenderSummaryMarkdown(report)), 0644); err != nil {
		return err
	}
	if err := os.WriteFile(csvPath, []byte(reporting.RenderSummaryCSV(report.Summaries)), 0644); err != nil {
		return err
	}

	for _, s := range report.Summaries {
		fmt.Printf("%s: %d orders, %d exact median matches, median difference mean %.4f\n",
			s.ModelVersion, s.Orders, s.ExactMedianMatches, s.MedianDiffMean)
	}
	fmt.Printf("  - %s\n", mdPath)
	fmt.Printf("  - %s\n", csvPath)
	return nil
}
