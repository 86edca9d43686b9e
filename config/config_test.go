package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("DATABASE_URL", "file::memory:")
	t.Setenv("DATABASE_DRIVER", "sqlite")
	t.Setenv("JWT_SECRET_KEY", "secret")
	t.Setenv("OWNER_ADDRESS", "0x00000000000000000000000000000000000000ff")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Equal(t, 100, cfg.LeaderboardSize)
	assert.Equal(t, 15*time.Second, cfg.StallScanInterval)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	assert.False(t, cfg.R2.Enabled())
	assert.Equal(t, "0x00000000000000000000000000000000000000FF", cfg.Owner().Hex())

	thresholds, err := cfg.Thresholds()
	require.NoError(t, err)
	assert.Empty(t, thresholds)
}

func TestLoadThresholdsAndR2(t *testing.T) {
	setRequired(t)
	t.Setenv("RAFFLE_THRESHOLDS_WEI", "1000000000000000000, 5000000000000000000")
	t.Setenv("R2_ACCOUNT_ID", "acc")
	t.Setenv("R2_ACCESS_KEY_ID", "key")
	t.Setenv("R2_SECRET_ACCESS_KEY", "secret")
	t.Setenv("R2_BUCKET_NAME", "bucket")
	t.Setenv("R2_PUBLIC_BASE_URL", "https://cdn.example.com")

	cfg, err := Load()
	require.NoError(t, err)
	thresholds, err := cfg.Thresholds()
	require.NoError(t, err)
	require.Len(t, thresholds, 2)
	assert.Equal(t, "5000000000000000000", thresholds[1].String())
	assert.True(t, cfg.R2.Enabled())
	assert.Equal(t, "bucket", cfg.R2.BucketName)
}

func TestLoadRejectsInvalid(t *testing.T) {
	setRequired(t)
	t.Setenv("SERVER_PORT", "70000")
	t.Setenv("OWNER_ADDRESS", "not-an-address")
	t.Setenv("RAFFLE_THRESHOLDS_WEI", "abc")
	t.Setenv("DATABASE_DRIVER", "mysql")

	_, err := Load()
	require.Error(t, err)
	for _, want := range []string{"SERVER_PORT", "OWNER_ADDRESS", "RAFFLE_THRESHOLDS_WEI", "DATABASE_DRIVER"} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestLoadParseError(t *testing.T) {
	setRequired(t)
	t.Setenv("STALL_SCAN_INTERVAL", "soon")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse env:")
}

func TestLoadTiers(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tiers.json")
	body := `[
		{"tier_id": 0, "player_count": 2, "instance_count": 10, "entry_fee_wei": "1000000000000000",
		 "prize_shares": [10000],
		 "timeouts": {"match_time_per_player": "2m", "match_level2_delay": "1m", "match_level3_delay": "1m",
		              "enrollment_window": "30m", "enrollment_level2_delay": "30m"}},
		{"tier_id": 1, "player_count": 8, "instance_count": 4, "entry_fee_wei": "10000000000000000",
		 "prize_shares": [6000, 3000, 1000],
		 "timeouts": {"match_time_per_player": "5m", "time_increment": "10s", "match_level2_delay": "2m",
		              "match_level3_delay": "2m", "enrollment_window": "2h", "enrollment_level2_delay": "1h"}}
	]`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	tiers, err := LoadTiers(path)
	require.NoError(t, err)
	require.Len(t, tiers, 2)
	assert.Equal(t, 8, tiers[1].PlayerCount)
	assert.Equal(t, 10*time.Second, tiers[1].Timeouts.TimeIncrement)

	require.NoError(t, os.WriteFile(path, []byte(`[{"tier_id": 5, "entry_fee_wei": "lots"}]`), 0o600))
	_, err = LoadTiers(path)
	assert.ErrorContains(t, err, "tier 5")

	_, err = LoadTiers(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}
