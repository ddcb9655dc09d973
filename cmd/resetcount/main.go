// Package main counts the resets of every order in a sample dataset.
// Writes order_hash, network, reset_count rows to reset_counts.csv.
package main

import (
	"context"
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"go.uber.org/zap"

	"strategy-reset-lab/internal/app"
	"strategy-reset-lab/internal/modelfile"
	"strategy-reset-lab/internal/validation"
)

func main() {
	// Parse flags
	sample := flag.String("sample", "", "Sample dataset CSV path or URL (required)")
	start := flag.String("start", "2024-01-01", "First day of the range")
	end := flag.String("end", "2025-04-17", "Last day of the range, inclusive")
	outputDir := flag.String("output-dir", "", "Output directory (default: OUTPUT_DIR)")
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL trade cache (default: POSTGRES_DSN)")
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
	// Counts are not stored as results
	cfg.Storage.ClickhouseDSN = ""

	ctx, cancel := app.SignalContext()
	defer cancel()

	err = run(ctx, a, *sample, *start, *end)
	if err != nil {
		a.Logger.Error("reset count failed", zap.Error(err))
	}
	a.Close()
	if err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, a *app.App, samplePath, start, end string) error {
	startDate, err := modelfile.ParseFlexibleDate(start)
	if err != nil {
		return fmt.Errorf("parse -start: %w", err)
	}
	endDate, err := modelfile.ParseFlexibleDate(end)
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

	if err := a.OpenStores(ctx); err != nil {
		return err
	}

	runners := make(map[string]*validation.Runner)
	records := [][]string{{"order_hash", "network", "reset_count"}}
	var errs []error
	for _, s := range samples {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		runner, ok := runners[s.Network]
		if !ok {
			runner, err = a.Runner(s.Network, "")
			if err != nil {
				a.Metrics.RecordSkip("load")
				errs = append(errs, fmt.Errorf("order %s: %w", s.OrderHash, err))
				continue
			}
			runners[s.Network] = runner
		}

		n, err := runner.CountResets(ctx, s.OrderHash, startDate, endDate)
		if err != nil {
			a.Logger.Warn("skipping order", zap.String("order_hash", s.OrderHash), zap.Error(err))
			a.Metrics.RecordSkip("fetch")
			errs = append(errs, err)
			continue
		}
		records = append(records, []string{s.OrderHash, s.Network, strconv.Itoa(n)})
	}

	if len(records) == 1 {
		return fmt.Errorf("no reset counts: %w", errors.Join(errs...))
	}

	dir := a.Config.OutputDir
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	path := filepath.Join(dir, "reset_counts.csv")
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := csv.NewWriter(f)
	w.WriteAll(records)
	if err := w.Error(); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	fmt.Printf("Counted resets of %d orders (%d skipped)\n", len(records)-1, len(errs))
	fmt.Printf("  - %s\n", path)
	return nil
}
