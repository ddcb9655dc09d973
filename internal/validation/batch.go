package validation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"strategy-reset-lab/internal/domain"
	"strategy-reset-lab/internal/logging"
	"strategy-reset-lab/internal/modelfile"
	"strategy-reset-lab/internal/observability"
)

// ErrIncompleteSample is returned for a sample row missing model file locations.
var ErrIncompleteSample = errors.New("sample row has no model input or output location")

// DefaultModelVersion labels results of sample rows without a model version.
const DefaultModelVersion = "unversioned"

// FileLoader reads the model files of a sample row.
type FileLoader interface {
	LoadModelInput(ctx context.Context, location string) ([]*domain.TradeRecord, error)
	LoadModelOutput(ctx context.Context, location string) ([]domain.ModelOutputRow, error)
}

// ModelFileLoader loads model files from local paths or http(s) URLs.
type ModelFileLoader struct {
	InputSkipRows  int // physical lines before the model input header
	OutputSkipRows int // physical lines before the model output header
}

// LoadModelInput reads the reference trades at location.
func (l ModelFileLoader) LoadModelInput(ctx context.Context, location string) ([]*domain.TradeRecord, error) {
	rc, err := modelfile.Open(ctx, location)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return modelfile.ParseModelInput(rc, l.InputSkipRows)
}

// LoadModelOutput reads the modeled interval counts at location.
func (l ModelFileLoader) LoadModelOutput(ctx context.Context, location string) ([]domain.ModelOutputRow, error) {
	rc, err := modelfile.Open(ctx, location)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return modelfile.ParseModelOutput(rc, l.OutputSkipRows)
}

// RunnerFactory returns the runner for a network.
type RunnerFactory func(network string) (*Runner, error)

// BatchResult collects the outcomes of a batch run.
type BatchResult struct {
	Outcomes []*Outcome
	Skipped  int
}

// Results returns the validation results in sample order.
func (b *BatchResult) Results() []*domain.ValidationResult {
	out := make([]*domain.ValidationResult, 0, len(b.Outcomes))
	for _, o := range b.Outcomes {
		out = append(out, o.Result)
	}
	return out
}

// BatchRunner validates every row of a sample dataset, one order at a time.
type BatchRunner struct {
	runners      RunnerFactory
	loader       FileLoader
	metrics      *observability.Metrics // optional
	logger       *zap.Logger
	defaultStart time.Time
	defaultEnd   time.Time
	onOutcome    func(*Outcome) error
	cache        map[string]*Runner
}

// NewBatchRunner creates a batch runner.
func NewBatchRunner(runners RunnerFactory, loader FileLoader) *BatchRunner {
	return &BatchRunner{
		runners: runners,
		loader:  loader,
		logger:  zap.NewNop(),
		cache:   make(map[string]*Runner),
	}
}

// WithMetrics sets the metrics recorder.
func (b *BatchRunner) WithMetrics(m *observability.Metrics) *BatchRunner {
	b.metrics = m
	return b
}

// WithLogger sets the logger.
func (b *BatchRunner) WithLogger(l *zap.Logger) *BatchRunner {
	b.logger = logging.OrNop(l)
	return b
}

// WithDefaultRange sets the days used for sample rows without dates.
func (b *BatchRunner) WithDefaultRange(start, end time.Time) *BatchRunner {
	b.defaultStart = start
	b.defaultEnd = end
	return b
}

// WithOutcomeHandler sets a function called after every successful order,
// such as an artifact writer. A handler error counts as a failed order.
func (b *BatchRunner) WithOutcomeHandler(fn func(*Outcome) error) *BatchRunner {
	b.onOutcome = fn
	return b
}

// Run validates every sample. A failed sample is logged and skipped; the
// returned error joins all failures and is nil when every sample succeeded.
// Cancellation of ctx stops the run after the current sample.
func (b *BatchRunner) Run(ctx context.Context, samples []domain.OrderSample) (*BatchResult, error) {
	result := &BatchResult{}
	var errs []error

	for i, sample := range samples {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		logger := b.logger.With(
			zap.Int("sample", i),
			zap.String("order_hash", sample.OrderHash),
			zap.String("network", sample.Network),
		)

		outcome, err := b.runSample(ctx, sample)
		if err == nil && b.onOutcome != nil {
			err = b.onOutcome(outcome)
		}
		if err != nil {
			reason := skipReason(err)
			logger.Warn("skipping order", zap.String("reason", reason), zap.Error(err))
			if b.metrics != nil {
				b.metrics.RecordSkip(reason)
			}
			result.Skipped++
			errs = append(errs, fmt.Errorf("sample %d: %w", i, err))
			continue
		}
		result.Outcomes = append(result.Outcomes, outcome)
	}

	b.logger.Info("batch finished",
		zap.Int("samples", len(samples)),
		zap.Int("validated", len(result.Outcomes)),
		zap.Int("skipped", result.Skipped),
	)
	return result, errors.Join(errs...)
}

func (b *BatchRunner) runSample(ctx context.Context, sample domain.OrderSample) (*Outcome, error) {
	loadErr := func(err error) error {
		return &StageError{OrderHash: sample.OrderHash, Stage: StageLoad, Err: err}
	}

	if sample.ModelInputPath == "" || sample.ModelOutputPath == "" {
		return nil, loadErr(ErrIncompleteSample)
	}

	runner, err := b.runner(sample.Network)
	if err != nil {
		return nil, loadErr(err)
	}

	input, err := b.loader.LoadModelInput(ctx, sample.ModelInputPath)
	if err != nil {
		return nil, loadErr(fmt.Errorf("model input %s: %w", sample.ModelInputPath, err))
	}
	output, err := b.loader.LoadModelOutput(ctx, sample.ModelOutputPath)
	if err != nil {
		return nil, loadErr(fmt.Errorf("model output %s: %w", sample.ModelOutputPath, err))
	}

	req := Request{
		OrderHash:    sample.OrderHash,
		Network:      sample.Network,
		ModelVersion: sample.ModelVersion,
		StartDate:    sample.StartDate,
		EndDate:      sample.EndDate,
		ModelInput:   input,
		ModelOutput:  output,
	}
	if req.ModelVersion == "" {
		req.ModelVersion = DefaultModelVersion
	}
	if req.StartDate.IsZero() {
		req.StartDate = b.defaultStart
	}
	if req.EndDate.IsZero() {
		req.EndDate = b.defaultEnd
	}
	if req.StartDate.IsZero() || req.EndDate.IsZero() {
		return nil, loadErr(fmt.Errorf("%w: no date range", ErrInvalidRequest))
	}

	return runner.Run(ctx, req)
}

func (b *BatchRunner) runner(network string) (*Runner, error) {
	if r, ok := b.cache[network]; ok {
		return r, nil
	}
	r, err := b.runners(network)
	if err != nil {
		return nil, err
	}
	b.cache[network] = r
	return r, nil
}

// skipReason returns the metrics label of a failed sample.
func skipReason(err error) string {
	var se *StageError
	if errors.As(err, &se) {
		return string(se.Stage)
	}
	return "output"
}
