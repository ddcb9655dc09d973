package modelfile

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseModelOutput(t *testing.T) {
	header := strings.Repeat("param,value\n", 3)
	csv := header +
		"Date/time,price,trade_count_in_reset\n" +
		"01/03/2024 00:00:00,1.2,\"1,204\"\n" +
		"01/03/2024 00:15:00,1.3,\n" +
		"02/03/2024 10:30,1.1,7.6\n"

	rows, err := ParseModelOutput(strings.NewReader(csv), 3)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), rows[0].Time)
	require.NotNil(t, rows[0].TradeCountInReset)
	assert.Equal(t, 1204, *rows[0].TradeCountInReset)

	assert.Nil(t, rows[1].TradeCountInReset)

	assert.Equal(t, time.Date(2024, 3, 2, 10, 30, 0, 0, time.UTC), rows[2].Time)
	require.NotNil(t, rows[2].TradeCountInReset)
	assert.Equal(t, 8, *rows[2].TradeCountInReset)
}

func TestParseModelOutput_MissingColumns(t *testing.T) {
	_, err := ParseModelOutput(strings.NewReader("Date/time,trade_count_btwn_resets\n01/03/2024 00:00:00,4\n"), 0)
	require.ErrorIs(t, err, ErrMissingColumns)
	assert.Contains(t, err.Error(), colTradeCountInReset)
}

func TestParseModelOutput_NotEnoughRows(t *testing.T) {
	_, err := ParseModelOutput(strings.NewReader("a\nb\n"), 22)
	assert.ErrorIs(t, err, ErrEmptyDataset)
}

func TestParseModelOutput_InvalidCells(t *testing.T) {
	tests := []struct {
		name    string
		row     string
		wantErr error
		column  string
	}{
		{"month first date", "03/31/2024 00:00:00,4", ErrInvalidValue, colDateTime},
		{"blank date", ",4", ErrMissingValue, colDateTime},
		{"text count", "01/03/2024 00:00:00,n/a", ErrInvalidValue, colTradeCountInReset},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseModelOutput(strings.NewReader("Date/time,trade_count_in_reset\n"+tt.row+"\n"), 0)
			require.ErrorIs(t, err, tt.wantErr)

			var rowErr *RowError
			require.ErrorAs(t, err, &rowErr)
			assert.Equal(t, tt.column, rowErr.Column)
			assert.Equal(t, 2, rowErr.Line)
		})
	}
}

func TestParseCount(t *testing.T) {
	tests := []struct {
		in   string
		want *int
	}{
		{"", nil},
		{"0", intPtr(0)},
		{"12", intPtr(12)},
		{"2,500", intPtr(2500)},
		{"3.4", intPtr(3)},
		{"3.5", intPtr(4)},
	}
	for _, tt := range tests {
		got, err := parseCount(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func intPtr(v int) *int {
	return &v
}
