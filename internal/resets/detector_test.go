package resets

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"strategy-reset-lab/internal/domain"
)

func TestDetectResets_ReversedPair(t *testing.T) {
	trades := []*domain.TradeRecord{
		trade("tx1", 1, "A", "B"),
		trade("tx2", 2, "B", "A"),
		trade("tx3", 3, "A", "B"),
	}

	out, err := DetectResets(trades)
	require.NoError(t, err)

	assert.Equal(t, []bool{false, true, true}, resetFlags(out))
	for _, f := range out {
		assert.Equal(t, domain.SourceStrategy, f.Source)
	}
}

func TestDetectResets_ComparesOnlyImmediatePredecessor(t *testing.T) {
	trades := []*domain.TradeRecord{
		trade("tx1", 1, "A", "B"),
		trade("tx2", 2, "C", "D"),
		trade("tx3", 3, "B", "A"),
	}

	out, err := DetectResets(trades)
	require.NoError(t, err)

	assert.Equal(t, []bool{false, false, false}, resetFlags(out))
	assert.Equal(t, 0, CountResets(out))
}

func TestDetectResets_SortsByTimestamp(t *testing.T) {
	trades := []*domain.TradeRecord{
		trade("tx3", 30, "A", "B"),
		trade("tx1", 10, "A", "B"),
		trade("tx2", 20, "B", "A"),
	}

	out, err := DetectResets(trades)
	require.NoError(t, err)

	assert.Equal(t, []string{"tx1", "tx2", "tx3"}, txIDs(out))
	assert.Equal(t, []bool{false, true, true}, resetFlags(out))

	// input slice untouched
	assert.Equal(t, "tx3", trades[0].TxID)
}

func TestDetectResets_EqualTimestampsKeepInputOrder(t *testing.T) {
	trades := []*domain.TradeRecord{
		trade("tx1", 5, "A", "B"),
		trade("tx2", 5, "B", "A"),
		trade("tx0", 1, "X", "Y"),
	}

	out, err := DetectResets(trades)
	require.NoError(t, err)

	assert.Equal(t, []string{"tx0", "tx1", "tx2"}, txIDs(out))
	assert.Equal(t, []bool{false, false, true}, resetFlags(out))
}

func TestDetectResets_Idempotent(t *testing.T) {
	trades := []*domain.TradeRecord{
		trade("tx4", 4, "B", "A"),
		trade("tx2", 2, "B", "A"),
		trade("tx1", 1, "A", "B"),
		trade("tx3", 3, "A", "B"),
	}

	first, err := DetectResets(trades)
	require.NoError(t, err)
	second, err := DetectResets(trades)
	require.NoError(t, err)

	assert.Equal(t, txIDs(first), txIDs(second))
	assert.Equal(t, resetFlags(first), resetFlags(second))
}

func TestDetectResets_SymmetryProperty(t *testing.T) {
	pairs := [][2]string{
		{"A", "B"}, {"B", "A"}, {"B", "A"}, {"A", "C"}, {"C", "A"},
		{"A", "A"}, {"A", "A"}, {"C", "B"}, {"B", "C"}, {"C", "B"},
	}
	trades := make([]*domain.TradeRecord, len(pairs))
	for i, p := range pairs {
		trades[i] = trade("tx"+string(rune('a'+i)), int64(i), p[0], p[1])
	}

	out, err := DetectResets(trades)
	require.NoError(t, err)
	require.Len(t, out, len(pairs))

	assert.False(t, out[0].Reset.IsReset())
	for i := 1; i < len(out); i++ {
		cur, prev := out[i].Trade, out[i-1].Trade
		want := cur.InputToken == prev.OutputToken && cur.OutputToken == prev.InputToken
		assert.Equal(t, want, out[i].Reset.IsReset(), "row %d", i)
	}
}

func TestDetectResets_Empty(t *testing.T) {
	out, err := DetectResets(nil)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestDetectResets_SingleTradeNeverReset(t *testing.T) {
	out, err := DetectResets([]*domain.TradeRecord{trade("tx1", 1, "A", "B")})
	require.NoError(t, err)
	assert.Equal(t, []bool{false}, resetFlags(out))
}

func TestDetectResets_MissingFields(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(*domain.TradeRecord)
		field string
	}{
		{"input token", func(tr *domain.TradeRecord) { tr.InputToken = "" }, "input_token_symbol"},
		{"output token", func(tr *domain.TradeRecord) { tr.OutputToken = "" }, "output_token_symbol"},
		{"timestamp", func(tr *domain.TradeRecord) { tr.Timestamp = domain.Timestamp{} }, "timestamp"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trades := []*domain.TradeRecord{
				trade("tx1", 1, "A", "B"),
				trade("tx2", 2, "B", "A"),
			}
			tt.edit(trades[1])

			out, err := DetectResets(trades)
			require.Error(t, err)
			assert.Nil(t, out)
			assert.True(t, errors.Is(err, ErrMissingField))

			var fe *FieldError
			require.True(t, errors.As(err, &fe))
			assert.Equal(t, 1, fe.Index)
			assert.Equal(t, tt.field, fe.Field)
		})
	}
}

func TestDetectResets_NilRecord(t *testing.T) {
	_, err := DetectResets([]*domain.TradeRecord{trade("tx1", 1, "A", "B"), nil})
	assert.ErrorIs(t, err, ErrInvalidInput)
}
