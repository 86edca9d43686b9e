package models

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// PlayerStats accumulates across tournament cycles and tiers.
type PlayerStats struct {
	Address           common.Address `json:"address" db:"address"`
	Earnings          *big.Int       `json:"earnings" db:"earnings"`
	TournamentsPlayed int            `json:"tournaments_played" db:"tournaments_played"`
	TournamentsWon    int            `json:"tournaments_won" db:"tournaments_won"`
	MatchesWon        int            `json:"matches_won" db:"matches_won"`
	MatchesLost       int            `json:"matches_lost" db:"matches_lost"`
	MatchesDrawn      int            `json:"matches_drawn" db:"matches_drawn"`
	UpdatedAt         time.Time      `json:"updated_at" db:"updated_at"`
}

// NewPlayerStats returns zeroed stats for addr.
func NewPlayerStats(addr common.Address) PlayerStats {
	return PlayerStats{Address: addr, Earnings: new(big.Int)}
}

func (p PlayerStats) Clone() PlayerStats {
	c := p
	if p.Earnings != nil {
		c.Earnings = new(big.Int).Set(p.Earnings)
	} else {
		c.Earnings = new(big.Int)
	}
	return c
}

// LeaderboardEntry is one ranked row of the bounded leaderboard.
type LeaderboardEntry struct {
	Rank     int            `json:"rank"`
	Address  common.Address `json:"address"`
	Earnings *big.Int       `json:"earnings"`
}
