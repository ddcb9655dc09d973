// Package modelfile reads the CSV files exchanged with the strategy model:
// the model input (reference trades), the model output (modeled trade counts
// between resets) and the batch sample dataset.
package modelfile

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

var (
	// ErrMissingColumns is returned when a required column is absent from the header.
	ErrMissingColumns = errors.New("missing required columns")

	// ErrEmptyDataset is returned when a file has no header or no data rows.
	ErrEmptyDataset = errors.New("empty dataset")

	// ErrMissingValue is returned when a required cell is blank.
	ErrMissingValue = errors.New("missing value")

	// ErrInvalidValue is returned when a cell cannot be parsed.
	ErrInvalidValue = errors.New("invalid value")
)

// RowError carries the file line and column of a cell that failed to parse.
type RowError struct {
	Line   int // 1-based line in the file, skipped rows included
	Column string
	Value  string
	Err    error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("line %d: column %s: %q: %v", e.Line, e.Column, e.Value, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// table is a parsed CSV file.
type table struct {
	header []string
	rows   []row
}

type row struct {
	line   int
	fields []string
}

// readTable skips skipRows physical lines, then reads a header row and the
// data rows. Blank rows are dropped.
func readTable(r io.Reader, skipRows int) (*table, error) {
	br := bufio.NewReader(r)
	for i := 0; i < skipRows; i++ {
		if _, err := br.ReadString('\n'); err != nil {
			if errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("%w: only %d of %d leading rows present", ErrEmptyDataset, i, skipRows)
			}
			return nil, fmt.Errorf("skip leading rows: %w", err)
		}
	}

	reader := csv.NewReader(br)
	reader.FieldsPerRecord = -1 // model exports pad rows unevenly
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: no header row", ErrEmptyDataset)
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	t := &table{header: header}
	for {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		if blank(fields) {
			continue
		}
		line, _ := reader.FieldPos(0)
		t.rows = append(t.rows, row{line: skipRows + line, fields: fields})
	}
	return t, nil
}

func blank(fields []string) bool {
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

// columnMatch selects a header cell.
type columnMatch func(name string) bool

func contains(substr string) columnMatch {
	return func(name string) bool {
		return strings.Contains(strings.ToLower(strings.TrimSpace(name)), substr)
	}
}

func equals(want string) columnMatch {
	return func(name string) bool {
		return strings.EqualFold(strings.TrimSpace(name), want)
	}
}

// columns resolves the first matching header index of every wanted column.
// All missing names are reported together.
func (t *table) columns(wanted map[string]columnMatch, required ...string) (map[string]int, error) {
	idx := make(map[string]int, len(wanted))
	for name, match := range wanted {
		for i, h := range t.header {
			if match(h) {
				idx[name] = i
				break
			}
		}
	}

	var missing []string
	for _, name := range required {
		if _, ok := idx[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}
	return idx, nil
}

// cell returns the trimmed value of a column, or "" when the row is short
// or the column is absent.
func (r row) cell(idx map[string]int, name string) string {
	i, ok := idx[name]
	if !ok || i >= len(r.fields) {
		return ""
	}
	return strings.TrimSpace(r.fields[i])
}
