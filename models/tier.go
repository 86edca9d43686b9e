package models

import (
	"errors"
	"fmt"
	"math/big"
	"time"
)

// BasisPoints is the denominator for every share expressed in bps.
const BasisPoints = 10_000

// TimeoutConfig holds the per-tier clocks used by games and by both escalation ladders.
type TimeoutConfig struct {
	MatchTimePerPlayer    time.Duration `json:"match_time_per_player"`
	TimeIncrement         time.Duration `json:"time_increment"`
	MatchLevel2Delay      time.Duration `json:"match_level2_delay"`
	MatchLevel3Delay      time.Duration `json:"match_level3_delay"`
	EnrollmentWindow      time.Duration `json:"enrollment_window"`
	EnrollmentLevel2Delay time.Duration `json:"enrollment_level2_delay"`
}

// TierConfig is immutable once registered.
type TierConfig struct {
	TierID        uint8         `json:"tier_id"`
	PlayerCount   int           `json:"player_count"`
	InstanceCount int           `json:"instance_count"`
	EntryFee      *big.Int      `json:"entry_fee"`
	Timeouts      TimeoutConfig `json:"timeouts"`
	// PrizeShares splits the participants' share by placement group:
	// index 0 is the champion, index 1 the finalist, index 2 the players
	// knocked out one round before the final, and so on. Must sum to BasisPoints.
	PrizeShares []uint16 `json:"prize_shares"`
}

// Clone returns a deep copy so callers can never alias registry state.
func (t TierConfig) Clone() TierConfig {
	c := t
	if t.EntryFee != nil {
		c.EntryFee = new(big.Int).Set(t.EntryFee)
	}
	c.PrizeShares = append([]uint16(nil), t.PrizeShares...)
	return c
}

// SharesTotal sums PrizeShares.
func (t TierConfig) SharesTotal() int {
	total := 0
	for _, s := range t.PrizeShares {
		total += int(s)
	}
	return total
}

// TierSpec is the human-written form of a tier used by the API and TIERS_FILE:
// wei as a decimal string, timeouts as Go durations ("10m", "1h30m").
type TierSpec struct {
	TierID        uint8       `json:"tier_id"`
	PlayerCount   int         `json:"player_count"`
	InstanceCount int         `json:"instance_count"`
	EntryFeeWei   string      `json:"entry_fee_wei"`
	PrizeShares   []uint16    `json:"prize_shares"`
	Timeouts      TimeoutSpec `json:"timeouts"`
}

type TimeoutSpec struct {
	MatchTimePerPlayer    string `json:"match_time_per_player"`
	TimeIncrement         string `json:"time_increment,omitempty"`
	MatchLevel2Delay      string `json:"match_level2_delay"`
	MatchLevel3Delay      string `json:"match_level3_delay"`
	EnrollmentWindow      string `json:"enrollment_window"`
	EnrollmentLevel2Delay string `json:"enrollment_level2_delay"`
}

// Config converts the JSON form. Range checks stay with tier registration.
func (s TierSpec) Config() (TierConfig, error) {
	fee, ok := new(big.Int).SetString(s.EntryFeeWei, 10)
	if !ok {
		return TierConfig{}, fmt.Errorf("entry_fee_wei: invalid amount %q", s.EntryFeeWei)
	}
	var errs []error
	dur := func(field, v string) time.Duration {
		if v == "" {
			return 0
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("timeouts.%s: %w", field, err))
		}
		return d
	}
	to := TimeoutConfig{
		MatchTimePerPlayer:    dur("match_time_per_player", s.Timeouts.MatchTimePerPlayer),
		TimeIncrement:         dur("time_increment", s.Timeouts.TimeIncrement),
		MatchLevel2Delay:      dur("match_level2_delay", s.Timeouts.MatchLevel2Delay),
		MatchLevel3Delay:      dur("match_level3_delay", s.Timeouts.MatchLevel3Delay),
		EnrollmentWindow:      dur("enrollment_window", s.Timeouts.EnrollmentWindow),
		EnrollmentLevel2Delay: dur("enrollment_level2_delay", s.Timeouts.EnrollmentLevel2Delay),
	}
	if err := errors.Join(errs...); err != nil {
		return TierConfig{}, err
	}
	return TierConfig{
		TierID:        s.TierID,
		PlayerCount:   s.PlayerCount,
		InstanceCount: s.InstanceCount,
		EntryFee:      fee,
		Timeouts:      to,
		PrizeShares:   append([]uint16(nil), s.PrizeShares...),
	}, nil
}
