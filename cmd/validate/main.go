// Package main validates the modeled reset intervals of one strategy order.
// Executes: fetch trades → detect resets → reconcile with model input →
// compare with model output → timeline and report files
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"strategy-reset-lab/internal/app"
	"strategy-reset-lab/internal/modelfile"
	"strategy-reset-lab/internal/validation"
)

func main() {
	// Parse flags
	order := flag.String("order", "", "Order hash to validate (required)")
	network := flag.String("network", "", "Network of the order (default: NETWORK)")
	start := flag.String("start", "", "First day of the range, e.g. 2024-03-01 (required)")
	end := flag.String("end", "", "Last day of the range, inclusive (required)")
	modelInput := flag.String("model-input", "", "Model input (reference trades) CSV path or URL (required)")
	modelOutput := flag.String("model-output", "", "Model output CSV path or URL (required)")
	modelVersion := flag.String("model-version", validation.DefaultModelVersion, "Model version label")
	outputDir := flag.String("output-dir", "", "Output directory (default: OUTPUT_DIR)")
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL trade cache (default: POSTGRES_DSN)")
	clickhouseDSN := flag.String("clickhouse-dsn", "", "ClickHouse result store (default: CLICKHOUSE_DSN)")
	flag.Parse()

	if *order == "" || *start == "" || *end == "" || *modelInput == "" || *modelOutput == "" {
		flag.Usage()
		os.Exit(2)
	}

	a, err := app.New()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	cfg := a.Config
	if *network != "" {
		cfg.Subgraph.Network = *network
	}
	if *outputDir != "" {
		cfg.OutputDir = *outputDir
	}
	if *postgresDSN != "" {
		cfg.Storage.PostgresDSN = *postgresDSN
	}
	if *clickhouseDSN != "" {
		cfg.Storage.ClickhouseDSN = *clickhouseDSN
	}

	ctx, cancel := app.SignalContext()
	defer cancel()

	err = run(ctx, a, *order, *start, *end, *modelInput, *modelOutput, *modelVersion)
	if err != nil {
		a.Logger.Error("validation failed", zap.Error(err))
	}
	a.Close()
	if err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, a *app.App, order, start, end, inputPath, outputPath, modelVersion string) error {
	startDate, err := modelfile.ParseFlexibleDate(start)
	if err != nil {
		return fmt.Errorf("parse -start: %w", err)
	}
	endDate, err := modelfile.ParseFlexibleDate(end)
	if err != nil {
		return fmt.Errorf("parse -end: %w", err)
	}

	if err := a.OpenStores(ctx); err != nil {
		return err
	}

	loader := validation.ModelFileLoader{
		InputSkipRows:  a.Config.Model.InputSkipRows,
		OutputSkipRows: a.Config.Model.OutputSkipRows,
	}
	input, err := loader.LoadModelInput(ctx, inputPath)
	if err != nil {
		return fmt.Errorf("load model input: %w", err)
	}
	output, err := loader.LoadModelOutput(ctx, outputPath)
	if err != nil {
		return fmt.Errorf("load model output: %w", err)
	}

	network := a.Config.Subgraph.Network
	runner, err := a.Runner(network, "")
	if err != nil {
		return err
	}

	client, err := a.SubgraphClient(network)
	if err != nil {
		return err
	}
	info, err := client.OrderInfo(ctx, order)
	if err != nil {
		return fmt.Errorf("look up order: %w", err)
	}
	a.Logger.Info("order found",
		zap.String("order_hash", info.OrderHash),
		zap.Bool("active", info.Active),
		zap.Time("added", info.TimestampAdded.Instant()),
		zap.String("last_pair", info.LastInputToken+"/"+info.LastOutputToken),
	)

	started := time.Now()
	outcome, err := runner.Run(ctx, validation.Request{
		OrderHash:    order,
		Network:      network,
		ModelVersion: modelVersion,
		StartDate:    startDate,
		EndDate:      endDate,
		ModelInput:   input,
		ModelOutput:  output,
	})
	if err != nil {
		return err
	}

	dir := a.Config.OutputDir
	if err := validation.WriteArtifacts(dir, outcome); err != nil {
		return fmt.Errorf("write artifacts: %w", err)
	}
	timelinePath, reportPath := validation.ArtifactPaths(dir, order)

	res := outcome.Result
	fmt.Printf("Validated %s on %s in %s:\n", res.OrderHash, network, time.Since(started).Round(time.Millisecond))
	fmt.Printf("  Order active: %t (added %s)\n", info.Active, info.TimestampAdded.Instant().Format(time.DateOnly))
	fmt.Printf("  Strategy trades: %d (resets: %d)\n", res.StrategyTradeCount, res.StrategyResetCount)
	fmt.Printf("  Reference trades: %d (duplicates dropped: %d)\n", res.ModelInputTradeCount, res.DuplicatesDropped)
	fmt.Printf("  Resets modeled/actual: %d/%d\n", res.ModelOutputResetCount, res.ActualResetCount)
	fmt.Printf("  Median difference: %s\n", optional(res.MedianDifference))
	for _, w := range outcome.Warnings {
		fmt.Printf("  Warning: %s\n", w)
	}
	fmt.Printf("  - %s\n", timelinePath)
	fmt.Printf("  - %s\n", reportPath)
	return nil
}

func optional(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.4f", *v)
}
