package models

import (
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

type MatchStatus uint8

const (
	MatchNotStarted MatchStatus = iota
	MatchInProgress
	MatchCompleted
)

func (s MatchStatus) String() string {
	switch s {
	case MatchNotStarted:
		return "not_started"
	case MatchInProgress:
		return "in_progress"
	case MatchCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

func (s MatchStatus) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *MatchStatus) UnmarshalText(text []byte) error {
	for _, v := range []MatchStatus{MatchNotStarted, MatchInProgress, MatchCompleted} {
		if v.String() == string(text) {
			*s = v
			return nil
		}
	}
	return fmt.Errorf("unknown match status %q", text)
}

// CompletionReason is reported together with a match result.
type CompletionReason uint8

const (
	ReasonNone CompletionReason = iota
	ReasonNormalWin
	ReasonDraw
	ReasonForceElimination
	ReasonReplacement
	ReasonTimeout
)

func (r CompletionReason) String() string {
	switch r {
	case ReasonNormalWin:
		return "normal_win"
	case ReasonDraw:
		return "draw"
	case ReasonForceElimination:
		return "force_elimination"
	case ReasonReplacement:
		return "replacement"
	case ReasonTimeout:
		return "timeout"
	default:
		return "none"
	}
}

func (r CompletionReason) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

func (r *CompletionReason) UnmarshalText(text []byte) error {
	v, err := ParseCompletionReason(string(text))
	if err != nil {
		return err
	}
	*r = v
	return nil
}

func ParseCompletionReason(s string) (CompletionReason, error) {
	for r := ReasonNone; r <= ReasonTimeout; r++ {
		if r.String() == s {
			return r, nil
		}
	}
	return ReasonNone, fmt.Errorf("unknown completion reason %q", s)
}

// Match holds the game-agnostic part of a pairing.
type Match struct {
	ID           common.Hash      `json:"id"`
	TierID       uint8            `json:"tier_id"`
	InstanceID   uint8            `json:"instance_id"`
	Round        uint8            `json:"round"`
	MatchNumber  uint8            `json:"match_number"`
	Player1      common.Address   `json:"player1"`
	Player2      common.Address   `json:"player2"`
	Winner       common.Address   `json:"winner"`
	Status       MatchStatus      `json:"status"`
	IsDraw       bool             `json:"is_draw"`
	Reason       CompletionReason `json:"reason"`
	StartTime    time.Time        `json:"start_time"`
	LastMoveTime time.Time        `json:"last_move_time"`
}

// MatchID derives the deterministic id of a bracket slot.
func MatchID(tier, instance, round, matchNumber uint8) common.Hash {
	return crypto.Keccak256Hash([]byte{tier, instance, round, matchNumber})
}

// HasPlayer reports whether addr plays in this match.
func (m Match) HasPlayer(addr common.Address) bool {
	return addr != (common.Address{}) && (m.Player1 == addr || m.Player2 == addr)
}

// Opponent returns the other side of the match, or the zero address.
func (m Match) Opponent(addr common.Address) common.Address {
	switch addr {
	case m.Player1:
		return m.Player2
	case m.Player2:
		return m.Player1
	default:
		return common.Address{}
	}
}

// RoundKey returns the key of the round this match belongs to.
func (m Match) RoundKey() RoundKey {
	return RoundKey{Tier: m.TierID, Instance: m.InstanceID, Round: m.Round}
}

// MatchTimeoutState is the recorded escalation ladder of one match: when the
// current mover ran out of time, when level 2 opens and the highest level
// open when the stall was last observed. The zero value is the state right
// after any accepted move.
type MatchTimeoutState struct {
	IsStalled        bool            `json:"is_stalled"`
	Escalation1Start time.Time       `json:"escalation1_start"`
	Escalation2Start time.Time       `json:"escalation2_start"`
	ActiveEscalation EscalationLevel `json:"active_escalation"`
}
