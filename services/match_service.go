package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Dosada05/tournament-engine/events"
	"github.com/Dosada05/tournament-engine/game"
	"github.com/Dosada05/tournament-engine/models"
	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
)

type MatchService interface {
	SubmitMove(ctx context.Context, caller common.Address, matchID common.Hash, move json.RawMessage) error
	// ReportMatchResult settles a match the game module already considers
	// finished. Anyone may call it; the result comes from the module.
	ReportMatchResult(ctx context.Context, matchID common.Hash) error
}

func (e *engine) SubmitMove(ctx context.Context, caller common.Address, matchID common.Hash, move json.RawMessage) error {
	return e.write(ctx, "submit_move", func(ctx context.Context, t *txn) error {
		m, err := e.activeMatch(matchID)
		if err != nil {
			return err
		}
		if !m.HasPlayer(caller) {
			return ErrNotMatchPlayer
		}

		res, err := e.game.ApplyMove(ctx, m.ID, caller, move, t.now)
		switch {
		case err == nil:
		case errors.Is(err, game.ErrNotYourTurn):
			return fmt.Errorf("%w: %v", ErrNotMover, err)
		case errors.Is(err, game.ErrTimedOut):
			return fmt.Errorf("%w: %v", ErrMoverTimedOut, err)
		case errors.Is(err, game.ErrIllegalMove), errors.Is(err, game.ErrMatchOver):
			return fmt.Errorf("%w: %v", ErrIllegalMove, err)
		default:
			return fmt.Errorf("apply move: %w", err)
		}

		// любой принятый ход сбрасывает лестницу эскалации матча
		m.LastMoveTime = t.now
		e.store.PutMatch(m)
		e.store.ClearMatchTimeout(m.ID)
		t.emit(events.Event{
			Type:        events.MoveMade,
			Tier:        m.TierID,
			Instance:    m.InstanceID,
			Cycle:       e.cycleOf(m),
			Round:       m.Round,
			MatchID:     m.ID,
			MatchNumber: m.MatchNumber,
			Player:      caller,
			Data:        move,
		})

		if !res.Finished {
			return nil
		}
		reason := models.ReasonNormalWin
		if res.IsDraw {
			reason = models.ReasonDraw
		}
		return e.completeMatch(ctx, t, m, res.Winner, res.IsDraw, reason)
	})
}

func (e *engine) ReportMatchResult(ctx context.Context, matchID common.Hash) error {
	return e.write(ctx, "report_match_result", func(ctx context.Context, t *txn) error {
		m, err := e.activeMatch(matchID)
		if err != nil {
			return err
		}
		res, err := e.game.MatchResult(m.ID)
		if err != nil {
			return fmt.Errorf("read match result: %w", err)
		}
		if !res.Finished {
			return fmt.Errorf("%w: game still running", ErrInvalidState)
		}
		reason := models.ReasonNormalWin
		if res.IsDraw {
			reason = models.ReasonDraw
		}
		return e.completeMatch(ctx, t, m, res.Winner, res.IsDraw, reason)
	})
}

// activeMatch loads a match that can still change.
func (e *engine) activeMatch(id common.Hash) (models.Match, error) {
	m, err := e.loadMatch(id)
	if err != nil {
		return models.Match{}, err
	}
	inst, ok := e.store.Instance(models.InstanceKey{Tier: m.TierID, Instance: m.InstanceID})
	if !ok || inst.Status != models.StatusInProgress {
		return models.Match{}, ErrNotInProgress
	}
	if m.Status != models.MatchInProgress {
		return models.Match{}, ErrMatchNotActive
	}
	return m, nil
}

func (e *engine) cycleOf(m models.Match) uint64 {
	inst, _ := e.store.Instance(models.InstanceKey{Tier: m.TierID, Instance: m.InstanceID})
	return inst.Cycle
}

// completeMatch is the single completion hook. A zero winner with isDraw
// false means both sides were eliminated.
func (e *engine) completeMatch(ctx context.Context, t *txn, m models.Match, winner common.Address, isDraw bool, reason models.CompletionReason) error {
	if m.Status == models.MatchCompleted {
		return ErrMatchNotActive
	}
	if !isZero(winner) && !m.HasPlayer(winner) {
		return fmt.Errorf("%w: winner %s does not play in match", ErrInvalidState, winner.Hex())
	}

	m.Status = models.MatchCompleted
	m.Winner = winner
	m.IsDraw = isDraw
	m.Reason = reason
	e.store.PutMatch(m)
	e.store.ClearMatchTimeout(m.ID)

	rk := m.RoundKey()
	round, ok := e.store.Round(rk)
	if !ok {
		return fmt.Errorf("%w: round %d missing", ErrInvalidState, rk.Round)
	}
	round.CompletedMatches++
	switch {
	case isDraw:
		round.DrawCount++
	case isZero(winner):
		round.ForceEliminations++
	}
	if round.CompletedMatches > round.TotalMatches {
		return fmt.Errorf("%w: round %d over-completed", ErrInvalidState, rk.Round)
	}
	e.store.PutRound(rk, round)

	cycle := e.cycleOf(m)
	records := make([]models.MatchRecord, 0, 2)
	for _, p := range []common.Address{m.Player1, m.Player2} {
		outcome := models.OutcomeLost
		switch {
		case isDraw:
			outcome = models.OutcomeDraw
		case isZero(winner):
			outcome = models.OutcomeEliminated
		case p == winner:
			outcome = models.OutcomeWon
		}
		rec := e.newRecord(t, m, cycle, p, m.Opponent(p), outcome, reason)
		e.store.AppendRecord(rec)
		records = append(records, rec)

		e.updateStats(p, func(st *models.PlayerStats) {
			switch outcome {
			case models.OutcomeWon:
				st.MatchesWon++
			case models.OutcomeDraw:
				st.MatchesDrawn++
			default:
				st.MatchesLost++
			}
			st.UpdatedAt = t.now
		})
	}

	t.emit(events.Event{
		Type:        events.MatchCompleted,
		Tier:        m.TierID,
		Instance:    m.InstanceID,
		Cycle:       cycle,
		Round:       m.Round,
		MatchID:     m.ID,
		MatchNumber: m.MatchNumber,
		Players:     []common.Address{m.Player1, m.Player2},
		Winner:      winner,
		Reason:      reason.String(),
		Data:        records,
	})

	if round.IsComplete() {
		return e.completeRound(ctx, t, rk)
	}
	return nil
}

func (e *engine) newRecord(t *txn, m models.Match, cycle uint64, player, opponent common.Address, outcome models.RecordOutcome, reason models.CompletionReason) models.MatchRecord {
	return models.MatchRecord{
		ID:          uuid.NewString(),
		MatchID:     m.ID,
		Cycle:       cycle,
		TierID:      m.TierID,
		InstanceID:  m.InstanceID,
		Round:       m.Round,
		MatchNumber: m.MatchNumber,
		Player:      player,
		Opponent:    opponent,
		Outcome:     outcome,
		Reason:      reason,
		Snapshot:    m,
		RecordedAt:  t.now,
	}
}
