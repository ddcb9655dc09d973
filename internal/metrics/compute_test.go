package metrics

import (
	"math"
	"testing"
)

func TestComputeMean(t *testing.T) {
	if got := computeMean(nil); got != 0 {
		t.Errorf("expected 0 for empty input, got %f", got)
	}
	if got := computeMean([]float64{1, 2, 3, 4}); got != 2.5 {
		t.Errorf("expected 2.5, got %f", got)
	}
}

func TestComputeStddev(t *testing.T) {
	values := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	mean := computeMean(values)
	// sample variance = 32 / 7
	want := math.Sqrt(32.0 / 7.0)
	if got := computeStddev(values, mean); math.Abs(got-want) > 1e-9 {
		t.Errorf("expected %f, got %f", want, got)
	}
	if got := computeStddev([]float64{3}, 3); got != 0 {
		t.Errorf("expected 0 for single sample, got %f", got)
	}
}

func TestComputePercentile(t *testing.T) {
	sorted := []float64{1, 2, 3, 4, 5}

	tests := []struct {
		p    float64
		want float64
	}{
		{0.0, 1},
		{0.10, 1.4},
		{0.50, 3},
		{0.90, 4.6},
		{1.0, 5},
	}
	for _, tt := range tests {
		if got := computePercentile(sorted, tt.p); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("p=%.2f: expected %f, got %f", tt.p, tt.want, got)
		}
	}
}

func TestComputeMedian_EvenCountDoesNotMutate(t *testing.T) {
	values := []float64{4, 1, 3, 2}
	if got := computeMedian(values); got != 2.5 {
		t.Errorf("expected 2.5, got %f", got)
	}
	if values[0] != 4 {
		t.Errorf("input was reordered")
	}
}

func TestDiffOf(t *testing.T) {
	a, b := 5.0, 3.0
	if got := diffOf(&a, &b); got == nil || *got != 2 {
		t.Errorf("expected 2, got %v", got)
	}
	if got := diffOf(&a, nil); got != nil {
		t.Errorf("expected nil, got %v", *got)
	}
	if medianOf(nil) != nil || meanOf(nil) != nil {
		t.Errorf("expected nil for empty input")
	}
}
