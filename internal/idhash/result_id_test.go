package idhash

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestComputeResultID(t *testing.T) {
	tests := []struct {
		name         string
		orderHash    string
		modelVersion string
		start        time.Time
		end          time.Time
		wantLen      int // hash length should be 64
	}{
		{
			name:         "single week",
			orderHash:    "0xabc123def456",
			modelVersion: "v1.0",
			start:        day(2024, 3, 1),
			end:          day(2024, 3, 7),
			wantLen:      64,
		},
		{
			name:         "same day range",
			orderHash:    "0x999",
			modelVersion: "baseline",
			start:        day(2024, 1, 1),
			end:          day(2024, 1, 1),
			wantLen:      64,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeResultID(tt.orderHash, tt.modelVersion, tt.start, tt.end)

			if len(got) != tt.wantLen {
				t.Errorf("ComputeResultID() length = %d, want %d", len(got), tt.wantLen)
			}

			got2 := ComputeResultID(tt.orderHash, tt.modelVersion, tt.start, tt.end)
			if got != got2 {
				t.Errorf("ComputeResultID() not deterministic: %s != %s", got, got2)
			}
		})
	}
}

func TestComputeResultID_Normalization(t *testing.T) {
	base := ComputeResultID("0xABC", "v1", day(2024, 3, 1), day(2024, 3, 7))

	if got := ComputeResultID("0xabc", "v1", day(2024, 3, 1), day(2024, 3, 7)); got != base {
		t.Error("order hash case should not change the id")
	}

	// Same UTC day, different time of day
	start := time.Date(2024, 3, 1, 15, 30, 0, 0, time.UTC)
	if got := ComputeResultID("0xabc", "v1", start, day(2024, 3, 7)); got != base {
		t.Error("time of day should not change the id")
	}
}

func TestComputeResultID_DifferentInputs(t *testing.T) {
	base := ComputeResultID("0xabc", "v1", day(2024, 3, 1), day(2024, 3, 7))

	variants := map[string]string{
		"order":   ComputeResultID("0xdef", "v1", day(2024, 3, 1), day(2024, 3, 7)),
		"version": ComputeResultID("0xabc", "v2", day(2024, 3, 1), day(2024, 3, 7)),
		"start":   ComputeResultID("0xabc", "v1", day(2024, 3, 2), day(2024, 3, 7)),
		"end":     ComputeResultID("0xabc", "v1", day(2024, 3, 1), day(2024, 3, 8)),
	}
	for field, got := range variants {
		if got == base {
			t.Errorf("different %s should produce different hash", field)
		}
	}
}

func TestNewRunID(t *testing.T) {
	a := NewRunID()
	b := NewRunID()

	if a == b {
		t.Error("run ids should be unique")
	}
	if _, err := uuid.Parse(a); err != nil {
		t.Errorf("run id is not a uuid: %v", err)
	}
}
