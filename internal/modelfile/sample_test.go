package modelfile

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOrderSample(t *testing.T) {
	csv := "order_hash,network,model_version,model_input_path,model_output_path,start_date,end_date\n" +
		"0xaaa,Flare,v1,in/a.csv,out/a.csv,03/01/2024,2024-03-07\n" +
		"0xbbb,base,v2,,,01-Mar-2024,03/07/24\n" +
		"0xccc,polygon,,,,,\n"

	samples, err := ParseOrderSample(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, samples, 3)

	a := samples[0]
	assert.Equal(t, "0xaaa", a.OrderHash)
	assert.Equal(t, "flare", a.Network)
	assert.Equal(t, "v1", a.ModelVersion)
	assert.Equal(t, "in/a.csv", a.ModelInputPath)
	assert.Equal(t, "out/a.csv", a.ModelOutputPath)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), a.StartDate)
	assert.Equal(t, time.Date(2024, 3, 7, 0, 0, 0, 0, time.UTC), a.EndDate)

	b := samples[1]
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), b.StartDate)
	assert.Equal(t, time.Date(2024, 3, 7, 0, 0, 0, 0, time.UTC), b.EndDate)

	c := samples[2]
	assert.True(t, c.StartDate.IsZero())
	assert.Empty(t, c.ModelVersion)
}

func TestParseOrderSample_Errors(t *testing.T) {
	_, err := ParseOrderSample(strings.NewReader("order_hash,network\n"))
	assert.ErrorIs(t, err, ErrEmptyDataset)

	_, err = ParseOrderSample(strings.NewReader("order_hash,model_version\n0xaaa,v1\n"))
	assert.ErrorIs(t, err, ErrMissingColumns)

	_, err = ParseOrderSample(strings.NewReader("order_hash,network\n,flare\n"))
	assert.ErrorIs(t, err, ErrMissingValue)

	_, err = ParseOrderSample(strings.NewReader("order_hash,network,start_date\n0xaaa,flare,31.03.2024\n"))
	var rowErr *RowError
	require.ErrorAs(t, err, &rowErr)
	assert.Equal(t, colStartDate, rowErr.Column)
}

func TestParseFlexibleDate(t *testing.T) {
	want := time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC)
	for _, in := range []string{"10/01/2024", "2024-10-01", "10/01/24", "01-Oct-2024", " 2024-10-01 "} {
		got, err := ParseFlexibleDate(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseFlexibleDate("Oct 1st")
	assert.ErrorIs(t, err, ErrInvalidValue)
}
