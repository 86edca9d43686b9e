// Package connectfour is a 6x7 gravity four-in-a-row game played on a
// Fischer clock. It is the reference game module of the engine.
package connectfour

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/Dosada05/tournament-engine/game"
	"github.com/Dosada05/tournament-engine/random"
	"github.com/Dosada05/tournament-engine/state"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

const Name = "connect-four"

// Move is the wire format of a move.
type Move struct {
	Column int `json:"column"`
}

// Column encodes a move for column c.
func Column(c int) json.RawMessage {
	raw, _ := json.Marshal(Move{Column: c})
	return raw
}

type match struct {
	players  [2]common.Address
	board    Board
	clock    game.Clock
	bank     time.Duration
	moves    []uint8
	seen     []common.Hash
	finished bool
	winner   common.Address
	draw     bool
}

type positionKey struct {
	match    common.Hash
	position common.Hash
}

// Module keeps all live boards. It relies on the engine for serialization.
type Module struct {
	rng       random.Source
	journal   state.Journal
	matches   map[common.Hash]match
	positions map[positionKey]int
}

var (
	_ game.Module    = (*Module)(nil)
	_ game.Journaled = (*Module)(nil)
)

func New(rng random.Source) *Module {
	return &Module{
		rng:       rng,
		matches:   make(map[common.Hash]match),
		positions: make(map[positionKey]int),
	}
}

func (g *Module) Name() string { return Name }

func (g *Module) CreateMatch(_ context.Context, setup game.Setup) error {
	id := setup.Ref.ID
	if _, exists := g.matches[id]; exists {
		return fmt.Errorf("%w: %s", game.ErrMatchExists, id.Hex())
	}
	if setup.Player1 == (common.Address{}) || setup.Player2 == (common.Address{}) || setup.Player1 == setup.Player2 {
		return fmt.Errorf("connectfour: match %s needs two distinct players", id.Hex())
	}
	first := g.rng.Intn(2, id.Bytes())
	m := match{
		players: [2]common.Address{setup.Player1, setup.Player2},
		clock:   game.NewClock(setup.TimeBank, setup.Increment, first, setup.StartedAt),
		bank:    setup.TimeBank,
	}
	state.Put(&g.journal, g.matches, id, m)
	return nil
}

func (g *Module) ResetMatch(_ context.Context, id common.Hash) error {
	m, ok := g.matches[id]
	if !ok {
		return fmt.Errorf("%w: %s", game.ErrUnknownMatch, id.Hex())
	}
	for _, pos := range m.seen {
		state.Delete(&g.journal, g.positions, positionKey{id, pos})
	}
	state.Delete(&g.journal, g.matches, id)
	return nil
}

func (g *Module) MatchResult(id common.Hash) (game.Result, error) {
	m, ok := g.matches[id]
	if !ok {
		return game.Result{}, fmt.Errorf("%w: %s", game.ErrUnknownMatch, id.Hex())
	}
	return game.Result{Finished: m.finished, Winner: m.winner, IsDraw: m.draw}, nil
}

func (g *Module) IsMatchActive(id common.Hash) bool {
	m, ok := g.matches[id]
	return ok && !m.finished
}

func (g *Module) HasCurrentPlayerTimedOut(id common.Hash, now time.Time) bool {
	m, ok := g.matches[id]
	return ok && !m.finished && m.clock.TimedOut(now)
}

func (g *Module) TimeIncrement(id common.Hash) time.Duration {
	return g.matches[id].clock.Increment
}

func (g *Module) CurrentMover(id common.Hash) (common.Address, error) {
	m, ok := g.matches[id]
	if !ok {
		return common.Address{}, fmt.Errorf("%w: %s", game.ErrUnknownMatch, id.Hex())
	}
	return m.players[m.clock.Mover], nil
}

func (g *Module) MoverDeadline(id common.Hash) (time.Time, error) {
	m, ok := g.matches[id]
	if !ok {
		return time.Time{}, fmt.Errorf("%w: %s", game.ErrUnknownMatch, id.Hex())
	}
	return m.clock.Deadline(), nil
}

func (g *Module) ApplyMove(_ context.Context, id common.Hash, player common.Address, raw json.RawMessage, now time.Time) (game.Result, error) {
	m, ok := g.matches[id]
	if !ok {
		return game.Result{}, fmt.Errorf("%w: %s", game.ErrUnknownMatch, id.Hex())
	}
	if m.finished {
		return game.Result{}, game.ErrMatchOver
	}
	side := m.clock.Mover
	if m.players[side] != player {
		return game.Result{}, game.ErrNotYourTurn
	}
	if m.clock.TimedOut(now) {
		return game.Result{}, game.ErrTimedOut
	}

	var mv Move
	if err := json.Unmarshal(raw, &mv); err != nil {
		return game.Result{}, fmt.Errorf("%w: %v", game.ErrIllegalMove, err)
	}
	if mv.Column < 0 || mv.Column >= Cols {
		return game.Result{}, fmt.Errorf("%w: column %d out of range", game.ErrIllegalMove, mv.Column)
	}
	row := m.board.dropDisc(mv.Column, Cell(side+1))
	if row < 0 {
		return game.Result{}, fmt.Errorf("%w: column %d is full", game.ErrIllegalMove, mv.Column)
	}

	m.moves = append(slices.Clone(m.moves), uint8(mv.Column))
	pos := crypto.Keccak256Hash(m.board.bytes())
	pk := positionKey{id, pos}
	if g.positions[pk] == 0 {
		m.seen = append(slices.Clone(m.seen), pos)
	}
	state.Put(&g.journal, g.positions, pk, g.positions[pk]+1)

	switch {
	case m.board.connects(row, mv.Column):
		m.finished = true
		m.winner = player
	case m.board.full():
		m.finished = true
		m.draw = true
	default:
		m.clock.Punch(now)
	}
	state.Put(&g.journal, g.matches, id, m)
	return game.Result{Finished: m.finished, Winner: m.winner, IsDraw: m.draw}, nil
}

func (g *Module) ReplacePlayer(_ context.Context, id common.Hash, old, replacement common.Address, now time.Time) error {
	m, ok := g.matches[id]
	if !ok {
		return fmt.Errorf("%w: %s", game.ErrUnknownMatch, id.Hex())
	}
	side := slices.Index(m.players[:], old)
	if side < 0 {
		return fmt.Errorf("connectfour: %s does not play in match %s", old.Hex(), id.Hex())
	}
	m.players[side] = replacement
	m.clock.Banks[side] = m.bank
	if m.clock.Mover == side {
		m.clock.TurnStarted = now
	}
	state.Put(&g.journal, g.matches, id, m)
	return nil
}

// Board returns the current position of a match.
func (g *Module) Board(id common.Hash) (Board, bool) {
	m, ok := g.matches[id]
	return m.board, ok
}

// History returns the columns played so far.
func (g *Module) History(id common.Hash) []uint8 {
	return slices.Clone(g.matches[id].moves)
}

// PositionCount returns how many times a board hash occurred in match id.
func (g *Module) PositionCount(id common.Hash, b Board) int {
	return g.positions[positionKey{id, crypto.Keccak256Hash(b.bytes())}]
}

func (g *Module) Snapshot() int           { return g.journal.Snapshot() }
func (g *Module) RevertToSnapshot(id int) { g.journal.RevertToSnapshot(id) }
func (g *Module) Commit()                 { g.journal.Commit() }
