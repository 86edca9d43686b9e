package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/Dosada05/tournament-engine/ledger"
	"github.com/Dosada05/tournament-engine/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBootstrapTiers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tiers.json")
	require.NoError(t, os.WriteFile(path, []byte(`[
		{"tier_id": 0, "player_count": 2, "instance_count": 3, "entry_fee_wei": "1000",
		 "prize_shares": [10000],
		 "timeouts": {"match_time_per_player": "2m", "match_level2_delay": "1m", "match_level3_delay": "1m",
		              "enrollment_window": "30m", "enrollment_level2_delay": "30m"}}
	]`), 0o600))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	engine := services.NewTournamentEngine(services.EngineConfig{}, services.EngineDeps{Ledger: ledger.New(), Logger: logger})
	ctx := context.Background()

	require.NoError(t, bootstrapTiers(ctx, engine, path, logger))
	// повторный запуск не падает на уже известных тирах
	require.NoError(t, bootstrapTiers(ctx, engine, path, logger))

	tiers, err := engine.ListTiers(ctx)
	require.NoError(t, err)
	require.Len(t, tiers, 1)
	assert.Equal(t, 3, tiers[0].InstanceCount)

	require.NoError(t, os.WriteFile(path, []byte(`[{"tier_id": 1, "player_count": 1, "instance_count": 1, "entry_fee_wei": "1",
		"prize_shares": [10000], "timeouts": {"match_time_per_player": "1m", "enrollment_window": "1m"}}]`), 0o600))
	assert.ErrorIs(t, bootstrapTiers(ctx, engine, path, logger), services.ErrInvalidTierConfig)
}
