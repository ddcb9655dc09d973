package metrics

import (
	"errors"
	"fmt"
	"time"

	"strategy-reset-lab/internal/domain"
	"strategy-reset-lab/internal/idhash"
	"strategy-reset-lab/internal/resets"
)

// ErrNoReconciliation is returned when Compare has no merged timeline to measure.
var ErrNoReconciliation = errors.New("comparison requires a reconciliation")

// ComparisonInput holds everything measured for one order.
type ComparisonInput struct {
	OrderHash    string
	Network      string
	ModelVersion string
	StartDate    time.Time
	EndDate      time.Time
	RunID        string
	CreatedAt    time.Time

	ModelInputTradeCount int // reference rows fed to the reconciler
	StrategyTradeCount   int // on-chain trades of the order in range
	StrategyResetCount   int // resets detected on strategy trades alone

	ModelOutput    []domain.ModelOutputRow
	Reconciliation *resets.Reconciliation
}

// Compare measures modeled interval counts against the counts of the merged
// timeline. Statistics of a side without values stay nil.
func Compare(in ComparisonInput) (*domain.ValidationResult, error) {
	if in.Reconciliation == nil || in.Reconciliation.Intervals == nil {
		return nil, ErrNoReconciliation
	}
	rec := in.Reconciliation

	modeled := modeledCounts(in.ModelOutput)
	actual := rec.Intervals.Counts()

	minutes, err := resets.MinutesBetweenResets(rec.Intervals.ResetTimestamps())
	if err != nil {
		return nil, fmt.Errorf("minutes between resets: %w", err)
	}
	elapsed := make([]float64, 0, len(minutes))
	for _, m := range minutes {
		if m != nil {
			elapsed = append(elapsed, *m)
		}
	}

	r := &domain.ValidationResult{
		ResultID:     idhash.ComputeResultID(in.OrderHash, in.ModelVersion, in.StartDate, in.EndDate),
		RunID:        in.RunID,
		OrderHash:    in.OrderHash,
		Network:      in.Network,
		ModelVersion: in.ModelVersion,
		StartDate:    in.StartDate,
		EndDate:      in.EndDate,
		CreatedAt:    in.CreatedAt,

		ModelInputTradeCount:  in.ModelInputTradeCount,
		StrategyTradeCount:    in.StrategyTradeCount,
		StrategyResetCount:    in.StrategyResetCount,
		ModelOutputResetCount: len(modeled),
		ActualResetCount:      len(actual),
		DuplicatesDropped:     rec.DuplicatesDropped,

		ModeledMeanTradeCount:   meanOf(intsToFloats(modeled)),
		ActualMeanTradeCount:    meanOf(intsToFloats(actual)),
		ModeledMedianTradeCount: medianOf(intsToFloats(modeled)),
		ActualMedianTradeCount:  medianOf(intsToFloats(actual)),

		ActualMeanMinutes:   meanOf(elapsed),
		ActualMedianMinutes: medianOf(elapsed),
	}
	r.MeanDifference = diffOf(r.ModeledMeanTradeCount, r.ActualMeanTradeCount)
	r.MedianDifference = diffOf(r.ModeledMedianTradeCount, r.ActualMedianTradeCount)

	if len(modeled) > 0 {
		if total, ok := rec.Intervals.Total(); ok {
			matches := sumInts(modeled) == total
			r.SumMatches = &matches
		}
	}

	return r, nil
}

// modeledCounts returns the non-empty modeled interval counts in file order.
func modeledCounts(rows []domain.ModelOutputRow) []int {
	out := make([]int, 0, len(rows))
	for _, row := range rows {
		if row.TradeCountInReset != nil {
			out = append(out, *row.TradeCountInReset)
		}
	}
	return out
}

func sumInts(values []int) int {
	total := 0
	for _, v := range values {
		total += v
	}
	return total
}
