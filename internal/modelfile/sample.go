package modelfile

import (
	"io"
	"strings"
	"time"

	"strategy-reset-lab/internal/domain"
)

const (
	colOrderHash       = "order_hash"
	colNetwork         = "network"
	colModelVersion    = "model_version"
	colModelInputPath  = "model_input_path"
	colModelOutputPath = "model_output_path"
	colStartDate       = "start_date"
	colEndDate         = "end_date"
)

// sampleDateLayouts are tried in order by ParseFlexibleDate.
var sampleDateLayouts = []string{
	"01/02/2006",
	"2006-01-02",
	"01/02/06",
	"02-Jan-2006",
}

// ParseFlexibleDate parses a calendar day in any of the sample dataset
// layouts and returns midnight UTC.
func ParseFlexibleDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range sampleDateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, ErrInvalidValue
}

// ParseOrderSample reads the batch sample dataset. order_hash and network
// are required; the other columns are optional and blank dates stay zero.
// Returns ErrEmptyDataset if the file has no data rows.
func ParseOrderSample(r io.Reader) ([]domain.OrderSample, error) {
	t, err := readTable(r, 0)
	if err != nil {
		return nil, err
	}
	idx, err := t.columns(map[string]columnMatch{
		colOrderHash:       equals(colOrderHash),
		colNetwork:         equals(colNetwork),
		colModelVersion:    equals(colModelVersion),
		colModelInputPath:  equals(colModelInputPath),
		colModelOutputPath: equals(colModelOutputPath),
		colStartDate:       equals(colStartDate),
		colEndDate:         equals(colEndDate),
	}, colOrderHash, colNetwork)
	if err != nil {
		return nil, err
	}
	if len(t.rows) == 0 {
		return nil, ErrEmptyDataset
	}

	samples := make([]domain.OrderSample, 0, len(t.rows))
	for _, row := range t.rows {
		s := domain.OrderSample{
			OrderHash:       row.cell(idx, colOrderHash),
			Network:         strings.ToLower(row.cell(idx, colNetwork)),
			ModelVersion:    row.cell(idx, colModelVersion),
			ModelInputPath:  row.cell(idx, colModelInputPath),
			ModelOutputPath: row.cell(idx, colModelOutputPath),
		}
		if s.OrderHash == "" {
			return nil, &RowError{Line: row.line, Column: colOrderHash, Err: ErrMissingValue}
		}
		if s.Network == "" {
			return nil, &RowError{Line: row.line, Column: colNetwork, Err: ErrMissingValue}
		}

		dates := []struct {
			col string
			dst *time.Time
		}{
			{colStartDate, &s.StartDate},
			{colEndDate, &s.EndDate},
		}
		for _, d := range dates {
			raw := row.cell(idx, d.col)
			if raw == "" {
				continue
			}
			day, err := ParseFlexibleDate(raw)
			if err != nil {
				return nil, &RowError{Line: row.line, Column: d.col, Value: raw, Err: err}
			}
			*d.dst = day
		}

		samples = append(samples, s)
	}
	return samples, nil
}
