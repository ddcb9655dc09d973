package migrations

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Postgres(t *testing.T) {
	files, err := Load(Postgres)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "001_strategy_trades.sql", files[0].Name)
	assert.Equal(t, "002_fetch_progress.sql", files[1].Name)
	assert.Contains(t, files[0].SQL, "PRIMARY KEY (order_hash, trade_id)")
}

func TestLoad_UnknownDialect(t *testing.T) {
	_, err := Load(Dialect("sqlite"))
	assert.Error(t, err)
}

func TestStatements(t *testing.T) {
	stmts, err := Statements(`
-- comment; with semicolon
CREATE TABLE a (x UInt8) ENGINE = Memory;

CREATE TABLE b (y String DEFAULT 'it''s') ENGINE = Memory;
`)
	require.NoError(t, err)
	require.Len(t, stmts, 2)
	assert.Equal(t, "CREATE TABLE a (x UInt8) ENGINE = Memory", stmts[0])
	assert.Contains(t, stmts[1], "'it''s'")

	_, err = Statements(`SELECT 'a;b'`)
	assert.ErrorIs(t, err, errQuotedSemicolon)
}

type recordingDB struct {
	stmts []string
	fail  error
}

func (r *recordingDB) Exec(_ context.Context, query string, _ ...any) error {
	if r.fail != nil {
		return r.fail
	}
	r.stmts = append(r.stmts, query)
	return nil
}

func TestRunClickhouseMigrations(t *testing.T) {
	db := &recordingDB{}
	require.NoError(t, RunClickhouseMigrations(context.Background(), db))
	require.Len(t, db.stmts, 1)
	assert.Contains(t, db.stmts[0], "CREATE TABLE IF NOT EXISTS validation_results")

	boom := errors.New("boom")
	err := RunClickhouseMigrations(context.Background(), &recordingDB{fail: boom})
	assert.ErrorIs(t, err, boom)
	assert.ErrorContains(t, err, "001_validation_results.sql")
}
