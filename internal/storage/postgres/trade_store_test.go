package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"strategy-reset-lab/internal/domain"
	"strategy-reset-lab/internal/storage"
)

func createTestTrade(orderHash, tradeID string, sec int64) *domain.TradeRecord {
	return &domain.TradeRecord{
		TradeID:          tradeID,
		OrderHash:        orderHash,
		TxID:             "0x" + tradeID,
		BlockNumber:      4242,
		Timestamp:        domain.EpochSeconds(sec),
		InputToken:       "WFLR",
		InputDecimals:    18,
		InputAmount:      decimal.RequireFromString("123456789012345678901234"),
		InputOldBalance:  decimal.RequireFromString("1000000000000000000000000"),
		InputNewBalance:  decimal.RequireFromString("876543210987654321098766"),
		OutputToken:      "USDT",
		OutputDecimals:   6,
		OutputAmount:     decimal.RequireFromString("-2500000"),
		OutputOldBalance: decimal.RequireFromString("10000000"),
		OutputNewBalance: decimal.RequireFromString("7500000"),
	}
}

func TestTradeStore_InsertAndGetByOrder(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTradeStore(pool)

	original := createTestTrade("0xorder", "trade-1", 1700000000)
	require.NoError(t, store.Insert(ctx, original))

	got, err := store.GetByOrder(ctx, "0xorder", time.Unix(1699999999, 0), time.Unix(1700000001, 0))
	require.NoError(t, err)
	require.Len(t, got, 1)

	tr := got[0]
	assert.Equal(t, original.TradeID, tr.TradeID)
	assert.Equal(t, original.TxID, tr.TxID)
	assert.Equal(t, original.BlockNumber, tr.BlockNumber)
	assert.Equal(t, domain.EpochSeconds(1700000000), tr.Timestamp)
	assert.Equal(t, int32(18), tr.InputDecimals)
	assert.True(t, original.InputAmount.Equal(tr.InputAmount), "input amount %s", tr.InputAmount)
	assert.True(t, original.OutputAmount.Equal(tr.OutputAmount), "output amount %s", tr.OutputAmount)
	assert.True(t, original.InputNewBalance.Equal(tr.InputNewBalance))
}

func TestTradeStore_DuplicateKey(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTradeStore(pool)

	require.NoError(t, store.Insert(ctx, createTestTrade("0xorder", "trade-1", 1)))
	err := store.Insert(ctx, createTestTrade("0xorder", "trade-1", 1))
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestTradeStore_InsertBulkRollsBack(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTradeStore(pool)

	require.NoError(t, store.Insert(ctx, createTestTrade("0xorder", "trade-2", 2)))

	err := store.InsertBulk(ctx, []*domain.TradeRecord{
		createTestTrade("0xorder", "trade-1", 1),
		createTestTrade("0xorder", "trade-2", 2),
	})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	n, err := store.CountByOrder(ctx, "0xorder")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestTradeStore_GetByOrderRangeAndOrdering(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTradeStore(pool)

	require.NoError(t, store.InsertBulk(ctx, []*domain.TradeRecord{
		createTestTrade("0xorder", "c", 300),
		createTestTrade("0xorder", "a", 100),
		createTestTrade("0xorder", "b", 100),
		createTestTrade("0xorder", "d", 400),
		createTestTrade("0xother", "x", 200),
	}))

	got, err := store.GetByOrder(ctx, "0xorder", time.Unix(100, 0), time.Unix(400, 0))
	require.NoError(t, err)

	ids := make([]string, len(got))
	for i, tr := range got {
		ids[i] = tr.TradeID
	}
	assert.Equal(t, []string{"a", "b", "c"}, ids)

	n, err := store.CountByOrder(ctx, "0xother")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestTradeStore_InvalidInput(t *testing.T) {
	store := NewTradeStore(nil)
	err := store.Insert(context.Background(), &domain.TradeRecord{TradeID: "x"})
	assert.ErrorIs(t, err, storage.ErrInvalidInput)
}
