package models

import (
	"encoding/json"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTierSpecConfig(t *testing.T) {
	raw := `{
		"tier_id": 3,
		"player_count": 8,
		"instance_count": 4,
		"entry_fee_wei": "10000000000000000",
		"prize_shares": [6000, 3000, 1000],
		"timeouts": {
			"match_time_per_player": "5m",
			"time_increment": "15s",
			"match_level2_delay": "2m",
			"match_level3_delay": "3m",
			"enrollment_window": "24h",
			"enrollment_level2_delay": "1h"
		}
	}`
	var spec TierSpec
	require.NoError(t, json.Unmarshal([]byte(raw), &spec))

	cfg, err := spec.Config()
	require.NoError(t, err)
	assert.Equal(t, uint8(3), cfg.TierID)
	assert.Equal(t, 0, cfg.EntryFee.Cmp(big.NewInt(10_000_000_000_000_000)))
	assert.Equal(t, 15*time.Second, cfg.Timeouts.TimeIncrement)
	assert.Equal(t, 24*time.Hour, cfg.Timeouts.EnrollmentWindow)
	assert.Equal(t, BasisPoints, cfg.SharesTotal())
}

func TestTierSpecConfigErrors(t *testing.T) {
	_, err := TierSpec{EntryFeeWei: "1e18"}.Config()
	assert.ErrorContains(t, err, "entry_fee_wei")

	_, err = TierSpec{EntryFeeWei: "1", Timeouts: TimeoutSpec{MatchTimePerPlayer: "ten minutes", EnrollmentWindow: "1d"}}.Config()
	assert.ErrorContains(t, err, "match_time_per_player")
	assert.ErrorContains(t, err, "enrollment_window")
}

func TestEnumTextRoundTrip(t *testing.T) {
	for _, s := range []TournamentStatus{StatusEnrolling, StatusInProgress, StatusCompleted} {
		b, err := s.MarshalText()
		require.NoError(t, err)
		var got TournamentStatus
		require.NoError(t, got.UnmarshalText(b))
		assert.Equal(t, s, got)
	}
	var reason CompletionReason
	assert.Error(t, reason.UnmarshalText([]byte("gave_up")))
}

func TestRoundIsComplete(t *testing.T) {
	tests := []struct {
		name  string
		round Round
		want  bool
	}{
		{"not initialized", Round{TotalMatches: 0}, false},
		{"open matches", Round{TotalMatches: 2, CompletedMatches: 1, Initialized: true}, false},
		{"all resolved", Round{TotalMatches: 2, CompletedMatches: 2, Initialized: true}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.round.IsComplete())
		})
	}
}

func TestThresholdAt(t *testing.T) {
	thresholds := []*big.Int{big.NewInt(100), big.NewInt(250), big.NewInt(400)}
	tests := []struct {
		name       string
		thresholds []*big.Int
		index      uint64
		want       int64
	}{
		{"first", thresholds, 0, 100},
		{"middle", thresholds, 1, 250},
		{"last", thresholds, 2, 400},
		{"past the list", thresholds, 3, 400},
		{"far past the list", thresholds, 1000, 400},
		{"empty list", nil, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ThresholdAt(tt.thresholds, tt.index).Int64())
		})
	}

	// возвращается копия
	ThresholdAt(thresholds, 5).SetInt64(1)
	assert.Equal(t, int64(400), thresholds[2].Int64())
}
