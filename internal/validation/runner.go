package validation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"strategy-reset-lab/internal/domain"
	"strategy-reset-lab/internal/idhash"
	"strategy-reset-lab/internal/logging"
	"strategy-reset-lab/internal/metrics"
	"strategy-reset-lab/internal/modelfile"
	"strategy-reset-lab/internal/observability"
	"strategy-reset-lab/internal/resets"
	"strategy-reset-lab/internal/storage"
)

// ErrInvalidRequest is returned for a request that cannot be validated.
var ErrInvalidRequest = errors.New("invalid validation request")

// Stage names a step of the validation of one order.
type Stage string

// Validation stages, in execution order.
const (
	StageLoad      Stage = "load"
	StageFetch     Stage = "fetch"
	StageDetect    Stage = "detect"
	StageIntervals Stage = "intervals"
	StageReconcile Stage = "reconcile"
	StageCompare   Stage = "compare"
	StagePersist   Stage = "persist"
)

// StageError reports the stage at which the validation of an order failed.
type StageError struct {
	OrderHash string
	Stage     Stage
	Err       error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("order %s: %s: %v", e.OrderHash, e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Request describes the validation of one order.
type Request struct {
	OrderHash    string
	Network      string
	ModelVersion string
	StartDate    time.Time // inclusive, UTC day
	EndDate      time.Time // inclusive, UTC day

	ModelInput  []*domain.TradeRecord   // reference trades
	ModelOutput []domain.ModelOutputRow // modeled interval counts
}

// Outcome is the result of validating one order.
type Outcome struct {
	Result            *domain.ValidationResult
	Reconciliation    *resets.Reconciliation
	StrategyTrades    []domain.FlaggedTrade  // strategy trades with reset flags
	StrategyIntervals *resets.IntervalSeries // intervals over strategy trades alone
	Warnings          []string               // model output coverage and storage notes
}

// Runner validates orders against one trade source.
type Runner struct {
	source      TradeSource
	reconciler  *resets.Reconciler
	resultStore storage.ValidationResultStore // optional
	metrics     *observability.Metrics        // optional
	logger      *zap.Logger
	runID       string
	now         func() time.Time // Injectable clock for deterministic output
}

// NewRunner creates a runner reading strategy trades from source.
func NewRunner(source TradeSource) *Runner {
	return &Runner{
		source:     source,
		reconciler: resets.NewReconciler(),
		logger:     zap.NewNop(),
		runID:      idhash.NewRunID(),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// WithReconciler sets the reconciler used to merge strategy and reference trades.
func (r *Runner) WithReconciler(rec *resets.Reconciler) *Runner {
	r.reconciler = rec
	return r
}

// WithResultStore sets the store every validation result is written to.
func (r *Runner) WithResultStore(store storage.ValidationResultStore) *Runner {
	r.resultStore = store
	return r
}

// WithMetrics sets the metrics recorder.
func (r *Runner) WithMetrics(m *observability.Metrics) *Runner {
	r.metrics = m
	return r
}

// WithLogger sets the logger.
func (r *Runner) WithLogger(l *zap.Logger) *Runner {
	r.logger = logging.OrNop(l)
	return r
}

// WithRunID sets the run id stamped on results.
func (r *Runner) WithRunID(id string) *Runner {
	r.runID = id
	return r
}

// WithClock sets a custom clock function for deterministic output.
func (r *Runner) WithClock(now func() time.Time) *Runner {
	r.now = now
	return r
}

// RunID returns the run id stamped on results.
func (r *Runner) RunID() string {
	return r.runID
}

// Run validates one order. Errors are *StageError values naming the failed step.
func (r *Runner) Run(ctx context.Context, req Request) (*Outcome, error) {
	started := time.Now()
	logger := r.logger.With(
		zap.String("order_hash", req.OrderHash),
		zap.String("model_version", req.ModelVersion),
	)

	out, err := r.run(ctx, req, logger)
	elapsed := time.Since(started).Seconds()
	if err != nil {
		logger.Error("validation failed", zap.Error(err))
		if r.metrics != nil {
			r.metrics.RecordValidation("error", elapsed, 0, 0, 0)
		}
		return nil, err
	}

	res := out.Result
	logger.Info("validated order",
		zap.Int("strategy_trades", res.StrategyTradeCount),
		zap.Int("strategy_resets", res.StrategyResetCount),
		zap.Int("actual_resets", res.ActualResetCount),
		zap.Int("modeled_resets", res.ModelOutputResetCount),
		zap.Int("duplicates_dropped", res.DuplicatesDropped),
		zap.Int("warnings", len(out.Warnings)),
		zap.Float64("seconds", elapsed),
	)
	if r.metrics != nil {
		r.metrics.RecordValidation("success", elapsed, res.StrategyResetCount, res.ActualResetCount, res.DuplicatesDropped)
		r.metrics.LastSuccessfulRun.SetToCurrentTime()
	}
	return out, nil
}

func (r *Runner) run(ctx context.Context, req Request, logger *zap.Logger) (*Outcome, error) {
	fail := func(stage Stage, err error) error {
		return &StageError{OrderHash: req.OrderHash, Stage: stage, Err: err}
	}

	if req.OrderHash == "" {
		return nil, fail(StageLoad, fmt.Errorf("%w: empty order hash", ErrInvalidRequest))
	}
	if req.EndDate.Before(req.StartDate) {
		return nil, fail(StageLoad, fmt.Errorf("%w: end date before start date", ErrInvalidRequest))
	}

	// 1. Strategy trades
	trades, err := r.source.FetchTrades(ctx, req.OrderHash, req.StartDate, req.EndDate)
	if err != nil {
		return nil, fail(StageFetch, err)
	}

	// 2. Resets on strategy trades alone
	flagged, err := resets.DetectResets(trades)
	if err != nil {
		return nil, fail(StageDetect, err)
	}
	strategyIntervals, err := resets.CountIntervals(flagged)
	if err != nil {
		return nil, fail(StageIntervals, err)
	}

	// 3. Merge with the model input
	rec, err := r.reconciler.Reconcile(flagged, req.ModelInput)
	if err != nil {
		return nil, fail(StageReconcile, err)
	}

	// 4. Compare with the model output
	result, err := metrics.Compare(metrics.ComparisonInput{
		OrderHash:            req.OrderHash,
		Network:              req.Network,
		ModelVersion:         req.ModelVersion,
		StartDate:            req.StartDate,
		EndDate:              req.EndDate,
		RunID:                r.runID,
		CreatedAt:            r.now(),
		ModelInputTradeCount: len(req.ModelInput),
		StrategyTradeCount:   len(trades),
		StrategyResetCount:   resets.CountResets(flagged),
		ModelOutput:          req.ModelOutput,
		Reconciliation:       rec,
	})
	if err != nil {
		return nil, fail(StageCompare, err)
	}

	warnings := modelfile.CheckDateRange(req.ModelOutput, req.StartDate, req.EndDate)
	for _, w := range warnings {
		logger.Warn("model output coverage", zap.String("warning", w))
	}

	// 5. Persist
	if r.resultStore != nil {
		err := r.resultStore.Insert(ctx, result)
		switch {
		case errors.Is(err, storage.ErrDuplicateKey):
			msg := fmt.Sprintf("result %s already stored, kept the stored row", result.ResultID)
			logger.Warn("result already stored", zap.String("result_id", result.ResultID))
			warnings = append(warnings, msg)
		case err != nil:
			return nil, fail(StagePersist, err)
		}
	}

	return &Outcome{
		Result:            result,
		Reconciliation:    rec,
		StrategyTrades:    flagged,
		StrategyIntervals: strategyIntervals,
		Warnings:          warnings,
	}, nil
}

// CountResets returns the number of resets in the strategy trades of an order
// on the calendar days start through end.
func (r *Runner) CountResets(ctx context.Context, orderHash string, start, end time.Time) (int, error) {
	trades, err := r.source.FetchTrades(ctx, orderHash, start, end)
	if err != nil {
		return 0, &StageError{OrderHash: orderHash, Stage: StageFetch, Err: err}
	}
	flagged, err := resets.DetectResets(trades)
	if err != nil {
		return 0, &StageError{OrderHash: orderHash, Stage: StageDetect, Err: err}
	}
	n := resets.CountResets(flagged)
	r.logger.Info("counted resets",
		zap.String("order_hash", orderHash),
		zap.Int("trades", len(trades)),
		zap.Int("resets", n),
	)
	return n, nil
}
