package modelfile

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"strategy-reset-lab/internal/domain"
)

func TestOpen_LocalFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "input.csv")
	require.NoError(t, os.WriteFile(path, []byte("tx_hash,timestamp\n0xaaa,100\n"), 0o644))

	rc, err := Open(context.Background(), path)
	require.NoError(t, err)
	defer rc.Close()

	trades, err := ParseModelInput(rc, 0)
	require.NoError(t, err)
	assert.Len(t, trades, 1)

	_, err = Open(context.Background(), filepath.Join(t.TempDir(), "missing.csv"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestOpen_URL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("order_hash,network\n0xaaa,flare\n"))
	}))
	defer server.Close()

	rc, err := Open(context.Background(), server.URL+"/sample.csv")
	require.NoError(t, err)
	body, err := io.ReadAll(rc)
	rc.Close()
	require.NoError(t, err)
	assert.Contains(t, string(body), "0xaaa")

	_, err = Open(context.Background(), server.URL+"/missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestCheckDateRange(t *testing.T) {
	rows := func(times ...time.Time) []domain.ModelOutputRow {
		out := make([]domain.ModelOutputRow, len(times))
		for i, ts := range times {
			out[i] = domain.ModelOutputRow{Time: ts}
		}
		return out
	}
	at := func(d, h int) time.Time {
		return time.Date(2024, 3, d, h, 0, 0, 0, time.UTC)
	}

	start, end := at(1, 0), at(7, 0)

	assert.Empty(t, CheckDateRange(rows(at(1, 0), at(4, 12), at(7, 23)), start, end))
	assert.Len(t, CheckDateRange(rows(at(2, 0), at(7, 0)), start, end), 1)
	assert.Len(t, CheckDateRange(rows(at(1, 0), at(6, 23)), start, end), 1)
	assert.Len(t, CheckDateRange(nil, start, end), 1)

	// entirely after the range: starts late, and no overlap
	assert.Len(t, CheckDateRange(rows(at(8, 0), at(9, 0)), start, end), 2)
}
