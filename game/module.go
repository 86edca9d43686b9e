// Package game defines the capability set the tournament engine consumes from
// a two-player turn-based game.
package game

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrUnknownMatch = errors.New("unknown match")
	ErrMatchExists  = errors.New("match already exists")
	ErrNotYourTurn  = errors.New("not your turn")
	ErrIllegalMove  = errors.New("illegal move")
	ErrMatchOver    = errors.New("match is over")
	ErrTimedOut     = errors.New("mover ran out of time")
)

// Ref identifies a bracket slot.
type Ref struct {
	ID          common.Hash
	Tier        uint8
	Instance    uint8
	Round       uint8
	MatchNumber uint8
}

// Setup is everything a module needs to open a match.
type Setup struct {
	Ref       Ref
	Player1   common.Address
	Player2   common.Address
	TimeBank  time.Duration
	Increment time.Duration
	StartedAt time.Time
}

// Result is the module's view of a match outcome. Winner is the zero address on a draw.
type Result struct {
	Finished bool
	Winner   common.Address
	IsDraw   bool
}

// Module is implemented by every game the engine can host. Implementations
// are driven only from inside engine operations and need no locking of their own.
type Module interface {
	Name() string

	CreateMatch(ctx context.Context, setup Setup) error
	// ResetMatch forgets every trace of the match so the id can be reused.
	ResetMatch(ctx context.Context, id common.Hash) error
	MatchResult(id common.Hash) (Result, error)
	IsMatchActive(id common.Hash) bool
	HasCurrentPlayerTimedOut(id common.Hash, now time.Time) bool
	TimeIncrement(id common.Hash) time.Duration

	CurrentMover(id common.Hash) (common.Address, error)
	// MoverDeadline is the instant the current mover's bank runs out.
	MoverDeadline(id common.Hash) (time.Time, error)
	ApplyMove(ctx context.Context, id common.Hash, player common.Address, move json.RawMessage, now time.Time) (Result, error)
	// ReplacePlayer seats replacement in place of old. The replacement gets a
	// fresh bank and, if old was to move, the turn restarts at now.
	ReplacePlayer(ctx context.Context, id common.Hash, old, replacement common.Address, now time.Time) error
}

// Journaled modules take part in the engine's rollback.
type Journaled interface {
	Snapshot() int
	RevertToSnapshot(id int)
	Commit()
}
