package db

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrateSQLiteIsIdempotent(t *testing.T) {
	ctx := context.Background()
	conn, err := Connect(DriverSQLite, "file::memory:", time.Second)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, Migrate(ctx, conn, DriverSQLite))
	require.NoError(t, Migrate(ctx, conn, DriverSQLite))

	var applied int
	require.NoError(t, conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM schema_migrations`).Scan(&applied))
	assert.Equal(t, 2, applied)

	for _, table := range []string{"events", "match_records", "payouts", "player_stats", "leaderboard"} {
		var n int
		err := conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+table).Scan(&n)
		assert.NoError(t, err, table)
	}
	_, err = conn.ExecContext(ctx, `SELECT scope FROM events`)
	assert.NoError(t, err)
}

func TestSplitStatements(t *testing.T) {
	got := splitStatements("-- comment\nCREATE TABLE a (x INT);\n\nCREATE TABLE b (y INT);\n")
	assert.Equal(t, []string{"CREATE TABLE a (x INT)", "CREATE TABLE b (y INT)"}, got)
}

func TestConnectFailsOnUnknownDriver(t *testing.T) {
	_, err := Connect("nope", "", time.Second)
	assert.Error(t, err)
}
