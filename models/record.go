package models

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// RecordOutcome is the result of a match from one player's point of view.
type RecordOutcome string

const (
	OutcomeWon        RecordOutcome = "won"
	OutcomeLost       RecordOutcome = "lost"
	OutcomeDraw       RecordOutcome = "draw"
	OutcomeEliminated RecordOutcome = "eliminated"
	OutcomeReplaced   RecordOutcome = "replaced"
	OutcomeReplacing  RecordOutcome = "replacing"
	// OutcomeOpponentReplaced is written for the player whose opponent was swapped out.
	OutcomeOpponentReplaced RecordOutcome = "opponent_replaced"
)

// MatchRecord is an append-only history entry, one per affected player.
type MatchRecord struct {
	ID          string           `json:"id" db:"id"`
	MatchID     common.Hash      `json:"match_id" db:"match_id"`
	Cycle       uint64           `json:"cycle" db:"cycle"`
	TierID      uint8            `json:"tier_id" db:"tier_id"`
	InstanceID  uint8            `json:"instance_id" db:"instance_id"`
	Round       uint8            `json:"round" db:"round"`
	MatchNumber uint8            `json:"match_number" db:"match_number"`
	Player      common.Address   `json:"player" db:"player"`
	Opponent    common.Address   `json:"opponent" db:"opponent"`
	Replacement common.Address   `json:"replacement,omitempty" db:"replacement"`
	Outcome     RecordOutcome    `json:"outcome" db:"outcome"`
	Reason      CompletionReason `json:"reason" db:"reason"`
	Snapshot    Match            `json:"snapshot" db:"-"`
	RecordedAt  time.Time        `json:"recorded_at" db:"recorded_at"`
}
