package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"strategy-reset-lab/internal/storage"
)

func TestFetchProgressStore_Upsert(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewFetchProgressStore(pool)

	_, err := store.GetProgress(ctx, "0xorder")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 7)
	require.NoError(t, store.SetProgress(ctx, &storage.FetchProgress{OrderHash: "0xorder", From: from, To: to, TradeCount: 5}))

	got, err := store.GetProgress(ctx, "0xorder")
	require.NoError(t, err)
	assert.True(t, got.From.Equal(from))
	assert.True(t, got.To.Equal(to))
	assert.Equal(t, 5, got.TradeCount)

	wider := to.AddDate(0, 0, 7)
	require.NoError(t, store.SetProgress(ctx, &storage.FetchProgress{OrderHash: "0xorder", From: from, To: wider, TradeCount: 9}))

	got, err = store.GetProgress(ctx, "0xorder")
	require.NoError(t, err)
	assert.True(t, got.To.Equal(wider))
	assert.Equal(t, 9, got.TradeCount)

	orders, err := store.ListOrders(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"0xorder"}, orders)
}
