package models

import "github.com/ethereum/go-ethereum/common"

// Round is created lazily when a round begins.
type Round struct {
	PlayerCount       int            `json:"player_count"`
	TotalMatches      int            `json:"total_matches"`
	CompletedMatches  int            `json:"completed_matches"`
	DrawCount         int            `json:"draw_count"`
	ForceEliminations int            `json:"force_eliminations"`
	ByePlayer         common.Address `json:"bye_player"`
	Initialized       bool           `json:"initialized"`
}

// HasBye reports whether a player advanced from this round without playing.
func (r Round) HasBye() bool {
	return r.ByePlayer != (common.Address{})
}

// IsComplete reports whether every match of the round has been resolved.
func (r Round) IsComplete() bool {
	return r.Initialized && r.CompletedMatches == r.TotalMatches
}

// ExpectedAdvancers is the count of players entering the next round:
// winners plus the bye carried over from an odd field.
func (r Round) ExpectedAdvancers() int {
	n := r.TotalMatches - r.DrawCount - r.ForceEliminations
	if r.PlayerCount%2 == 1 {
		n++
	}
	return n
}
