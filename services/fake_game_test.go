package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Dosada05/tournament-engine/game"
	"github.com/ethereum/go-ethereum/common"
)

// fakeMove drives fakeGame: Win ends the match for the mover, Draw ends it drawn.
type fakeMove struct {
	Win     bool `json:"win,omitempty"`
	Draw    bool `json:"draw,omitempty"`
	Illegal bool `json:"illegal,omitempty"`
}

func moveJSON(m fakeMove) json.RawMessage {
	raw, _ := json.Marshal(m)
	return raw
}

type fakeMatch struct {
	players  [2]common.Address
	mover    int
	bank     time.Duration
	deadline time.Time
	result   game.Result
}

type fakeGame struct {
	matches    map[common.Hash]*fakeMatch
	created    []common.Hash
	resets     []common.Hash
	failCreate bool
	onApply    func(ctx context.Context) error
}

func newFakeGame() *fakeGame {
	return &fakeGame{matches: make(map[common.Hash]*fakeMatch)}
}

func (g *fakeGame) Name() string { return "fake" }

func (g *fakeGame) CreateMatch(_ context.Context, s game.Setup) error {
	if g.failCreate {
		return fmt.Errorf("create refused")
	}
	if _, ok := g.matches[s.Ref.ID]; ok {
		return game.ErrMatchExists
	}
	g.matches[s.Ref.ID] = &fakeMatch{
		players:  [2]common.Address{s.Player1, s.Player2},
		bank:     s.TimeBank,
		deadline: s.StartedAt.Add(s.TimeBank),
	}
	g.created = append(g.created, s.Ref.ID)
	return nil
}

func (g *fakeGame) ResetMatch(_ context.Context, id common.Hash) error {
	if _, ok := g.matches[id]; !ok {
		return game.ErrUnknownMatch
	}
	delete(g.matches, id)
	g.resets = append(g.resets, id)
	return nil
}

func (g *fakeGame) MatchResult(id common.Hash) (game.Result, error) {
	m, ok := g.matches[id]
	if !ok {
		return game.Result{}, game.ErrUnknownMatch
	}
	return m.result, nil
}

func (g *fakeGame) IsMatchActive(id common.Hash) bool {
	m, ok := g.matches[id]
	return ok && !m.result.Finished
}

func (g *fakeGame) HasCurrentPlayerTimedOut(id common.Hash, now time.Time) bool {
	m, ok := g.matches[id]
	return ok && !m.result.Finished && !now.Before(m.deadline)
}

func (g *fakeGame) TimeIncrement(common.Hash) time.Duration { return 0 }

func (g *fakeGame) CurrentMover(id common.Hash) (common.Address, error) {
	m, ok := g.matches[id]
	if !ok {
		return common.Address{}, game.ErrUnknownMatch
	}
	return m.players[m.mover], nil
}

func (g *fakeGame) MoverDeadline(id common.Hash) (time.Time, error) {
	m, ok := g.matches[id]
	if !ok {
		return time.Time{}, game.ErrUnknownMatch
	}
	return m.deadline, nil
}

func (g *fakeGame) ApplyMove(ctx context.Context, id common.Hash, player common.Address, raw json.RawMessage, now time.Time) (game.Result, error) {
	if g.onApply != nil {
		if err := g.onApply(ctx); err != nil {
			return game.Result{}, err
		}
	}
	m, ok := g.matches[id]
	if !ok {
		return game.Result{}, game.ErrUnknownMatch
	}
	if m.result.Finished {
		return game.Result{}, game.ErrMatchOver
	}
	if m.players[m.mover] != player {
		return game.Result{}, game.ErrNotYourTurn
	}
	if !now.Before(m.deadline) {
		return game.Result{}, game.ErrTimedOut
	}
	var mv fakeMove
	if err := json.Unmarshal(raw, &mv); err != nil || mv.Illegal {
		return game.Result{}, game.ErrIllegalMove
	}
	switch {
	case mv.Win:
		m.result = game.Result{Finished: true, Winner: player}
	case mv.Draw:
		m.result = game.Result{Finished: true, IsDraw: true}
	default:
		m.mover ^= 1
		m.deadline = now.Add(m.bank)
	}
	return m.result, nil
}

func (g *fakeGame) ReplacePlayer(_ context.Context, id common.Hash, old, replacement common.Address, now time.Time) error {
	m, ok := g.matches[id]
	if !ok {
		return game.ErrUnknownMatch
	}
	for i, p := range m.players {
		if p == old {
			m.players[i] = replacement
			if m.mover == i {
				m.deadline = now.Add(m.bank)
			}
			return nil
		}
	}
	return fmt.Errorf("%s not in match", old.Hex())
}
