package metrics

import (
	"context"
	"errors"
	"sort"

	"strategy-reset-lab/internal/domain"
	"strategy-reset-lab/internal/storage"
)

// ErrNoResults is returned when no validation results are available for aggregation.
var ErrNoResults = errors.New("no validation results available for aggregation")

// Aggregator computes per model version summaries from stored validation results.
type Aggregator struct {
	resultStore storage.ValidationResultStore
}

// NewAggregator creates a new metrics aggregator.
func NewAggregator(resultStore storage.ValidationResultStore) *Aggregator {
	return &Aggregator{resultStore: resultStore}
}

// ComputeSummaries loads every stored result and summarizes it per model version.
// Returns ErrNoResults if the store is empty.
func (a *Aggregator) ComputeSummaries(ctx context.Context) ([]*domain.ModelVersionSummary, error) {
	results, err := a.resultStore.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, ErrNoResults
	}
	return Summarize(results), nil
}

// ComputeSummary summarizes the results of one model version.
// Returns ErrNoResults if the version has no results.
func (a *Aggregator) ComputeSummary(ctx context.Context, modelVersion string) (*domain.ModelVersionSummary, error) {
	results, err := a.resultStore.GetByModelVersion(ctx, modelVersion)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, ErrNoResults
	}
	return summarizeVersion(modelVersion, results), nil
}

// Summarize groups results by model version, ordered by version ASC.
func Summarize(results []*domain.ValidationResult) []*domain.ModelVersionSummary {
	groups := make(map[string][]*domain.ValidationResult)
	for _, r := range results {
		groups[r.ModelVersion] = append(groups[r.ModelVersion], r)
	}

	versions := make([]string, 0, len(groups))
	for v := range groups {
		versions = append(versions, v)
	}
	sort.Strings(versions)

	summaries := make([]*domain.ModelVersionSummary, 0, len(versions))
	for _, v := range versions {
		summaries = append(summaries, summarizeVersion(v, groups[v]))
	}
	return summaries
}

func summarizeVersion(version string, results []*domain.ValidationResult) *domain.ModelVersionSummary {
	s := &domain.ModelVersionSummary{
		ModelVersion: version,
		Orders:       len(results),
	}

	var meanDiffs, medianDiffs, resetDiffs []float64
	for _, r := range results {
		resetDiffs = append(resetDiffs, float64(r.ModelOutputResetCount-r.ActualResetCount))
		if r.MeanDifference != nil {
			meanDiffs = append(meanDiffs, *r.MeanDifference)
		}
		if r.MedianDifference == nil {
			s.SkippedOrders++
			continue
		}
		medianDiffs = append(medianDiffs, *r.MedianDifference)
		if *r.MedianDifference == 0 {
			s.ExactMedianMatches++
		}
	}

	s.ResetCountDiffMean = computeMean(resetDiffs)

	if len(meanDiffs) > 0 {
		s.MeanDiffMean = computeMean(meanDiffs)
		s.MeanDiffMedian = computeMedian(meanDiffs)
	}

	if len(medianDiffs) > 0 {
		sorted := make([]float64, len(medianDiffs))
		copy(sorted, medianDiffs)
		sort.Float64s(sorted)

		s.MedianDiffMean = computeMean(sorted)
		s.MedianDiffMedian = computePercentile(sorted, 0.50)
		s.MedianDiffStddev = computeStddev(sorted, s.MedianDiffMean)
		s.MedianDiffP10 = computePercentile(sorted, 0.10)
		s.MedianDiffP90 = computePercentile(sorted, 0.90)
	}

	return s
}
