package services

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/Dosada05/tournament-engine/events"
	"github.com/Dosada05/tournament-engine/models"
	"github.com/ethereum/go-ethereum/common"
)

// EscalationService is the match ladder. Each level opens on a timer that
// starts when the current mover's bank runs out; any accepted move closes it again.
type EscalationService interface {
	// ClaimTimeoutWin is level 1: the opponent of the timed-out mover takes the match.
	ClaimTimeoutWin(ctx context.Context, caller common.Address, matchID common.Hash) error
	// ForceEliminateStalledMatch is level 2: a player who already advanced
	// this round removes both sides of the stalled match.
	ForceEliminateStalledMatch(ctx context.Context, caller common.Address, matchID common.Hash) error
	// ClaimStalledSlot is level 3: an outsider pays the entry fee and takes
	// the timed-out mover's seat.
	ClaimStalledSlot(ctx context.Context, caller common.Address, matchID common.Hash, value *big.Int) error
	// MarkStalledMatches records the timeout state of every running match
	// whose mover ran out of time and returns how many records changed.
	MarkStalledMatches(ctx context.Context) (int, error)
}

// stall describes the ladder of one match at a given instant.
type stall struct {
	mover    common.Address
	opponent common.Address
	timedOut bool
	level1At time.Time
	level2At time.Time
	level3At time.Time
}

func (e *engine) stallOf(m models.Match, tier models.TierConfig, now time.Time) (stall, error) {
	mover, err := e.game.CurrentMover(m.ID)
	if err != nil {
		return stall{}, fmt.Errorf("current mover: %w", err)
	}
	deadline, err := e.game.MoverDeadline(m.ID)
	if err != nil {
		return stall{}, fmt.Errorf("mover deadline: %w", err)
	}
	l2 := deadline.Add(tier.Timeouts.MatchLevel2Delay)
	return stall{
		mover:    mover,
		opponent: m.Opponent(mover),
		timedOut: e.game.HasCurrentPlayerTimedOut(m.ID, now),
		level1At: deadline,
		level2At: l2,
		level3At: l2.Add(tier.Timeouts.MatchLevel3Delay),
	}, nil
}

// top is the highest level open at now.
func (s stall) top(now time.Time) models.EscalationLevel {
	levels := s.available(now)
	if len(levels) == 0 {
		return models.EscalationNone
	}
	return levels[len(levels)-1]
}

// available lists the levels open at now. Lower levels stay open.
func (s stall) available(now time.Time) []models.EscalationLevel {
	if !s.timedOut {
		return nil
	}
	levels := []models.EscalationLevel{models.EscalationLevel1}
	if !now.Before(s.level2At) {
		levels = append(levels, models.EscalationLevel2)
	}
	if !now.Before(s.level3At) {
		levels = append(levels, models.EscalationLevel3)
	}
	return levels
}

// openLevel checks the timer of level and records the stall.
func (e *engine) openLevel(m models.Match, s stall, level models.EscalationLevel, now time.Time) error {
	var opensAt time.Time
	switch level {
	case models.EscalationLevel1:
		opensAt = s.level1At
	case models.EscalationLevel2:
		opensAt = s.level2At
	case models.EscalationLevel3:
		opensAt = s.level3At
	}
	if !s.timedOut || now.Before(opensAt) {
		return fmt.Errorf("%w: level %s opens at %s", ErrTimerNotElapsed, level, opensAt.Format(time.RFC3339))
	}
	e.recordStall(m, s, now)
	return nil
}

// recordStall stores the ladder of a timed-out match. It stays until an
// accepted move, a replacement or the match result clears it.
func (e *engine) recordStall(m models.Match, s stall, now time.Time) bool {
	want := models.MatchTimeoutState{
		IsStalled:        true,
		Escalation1Start: s.level1At,
		Escalation2Start: s.level2At,
		ActiveEscalation: s.top(now),
	}
	cur := e.store.MatchTimeout(m.ID)
	if cur.IsStalled == want.IsStalled && cur.ActiveEscalation == want.ActiveEscalation &&
		cur.Escalation1Start.Equal(want.Escalation1Start) && cur.Escalation2Start.Equal(want.Escalation2Start) {
		return false
	}
	e.store.PutMatchTimeout(m.ID, want)
	return true
}

func (e *engine) MarkStalledMatches(ctx context.Context) (int, error) {
	var changed int
	err := e.write(ctx, "mark_stalled_matches", func(ctx context.Context, t *txn) error {
		changed = 0
		for _, key := range e.store.InstanceKeys() {
			inst, ok := e.store.Instance(key)
			if !ok || inst.Status != models.StatusInProgress {
				continue
			}
			tier, err := e.loadTier(key.Tier)
			if err != nil {
				return err
			}
			rk := models.RoundKey{Tier: key.Tier, Instance: key.Instance, Round: inst.CurrentRound}
			round, _ := e.store.Round(rk)
			for _, m := range e.roundMatches(rk, round.TotalMatches) {
				if m.Status != models.MatchInProgress || !e.game.IsMatchActive(m.ID) {
					continue
				}
				s, err := e.stallOf(m, tier, t.now)
				if err != nil {
					return err
				}
				if s.timedOut && e.recordStall(m, s, t.now) {
					changed++
				}
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return changed, nil
}

func (e *engine) ClaimTimeoutWin(ctx context.Context, caller common.Address, matchID common.Hash) error {
	return e.write(ctx, "claim_timeout_win", func(ctx context.Context, t *txn) error {
		m, err := e.activeMatch(matchID)
		if err != nil {
			return err
		}
		tier, err := e.loadTier(m.TierID)
		if err != nil {
			return err
		}
		s, err := e.stallOf(m, tier, t.now)
		if err != nil {
			return err
		}
		if !m.HasPlayer(caller) || caller != s.opponent {
			return ErrNotOpponent
		}
		if err := e.openLevel(m, s, models.EscalationLevel1, t.now); err != nil {
			return err
		}
		return e.completeMatch(ctx, t, m, caller, false, models.ReasonTimeout)
	})
}

func (e *engine) ForceEliminateStalledMatch(ctx context.Context, caller common.Address, matchID common.Hash) error {
	return e.write(ctx, "force_eliminate_stalled_match", func(ctx context.Context, t *txn) error {
		m, err := e.activeMatch(matchID)
		if err != nil {
			return err
		}
		tier, err := e.loadTier(m.TierID)
		if err != nil {
			return err
		}
		s, err := e.stallOf(m, tier, t.now)
		if err != nil {
			return err
		}
		if err := e.openLevel(m, s, models.EscalationLevel2, t.now); err != nil {
			return err
		}
		if !e.isAdvanced(m, caller) {
			return ErrNotAdvanced
		}

		e.logger.InfoContext(ctx, "Stalled match force eliminated",
			slog.String("match_id", m.ID.Hex()), slog.String("caller", caller.Hex()),
			slog.String("player1", m.Player1.Hex()), slog.String("player2", m.Player2.Hex()))
		return e.completeMatch(ctx, t, m, common.Address{}, false, models.ReasonForceElimination)
	})
}

// isAdvanced reports whether caller already secured a place in the next
// round of m's instance: a winner of this round or its bye.
func (e *engine) isAdvanced(m models.Match, caller common.Address) bool {
	key := models.InstanceKey{Tier: m.TierID, Instance: m.InstanceID}
	if isZero(caller) || m.HasPlayer(caller) || !e.store.IsEnrolled(key, caller) {
		return false
	}
	rk := m.RoundKey()
	round, ok := e.store.Round(rk)
	if !ok {
		return false
	}
	if round.ByePlayer == caller {
		return true
	}
	for _, other := range e.roundMatches(rk, round.TotalMatches) {
		if other.Status == models.MatchCompleted && !other.IsDraw && other.Winner == caller {
			return true
		}
	}
	return false
}

func (e *engine) ClaimStalledSlot(ctx context.Context, caller common.Address, matchID common.Hash, value *big.Int) error {
	return e.write(ctx, "claim_stalled_slot", func(ctx context.Context, t *txn) error {
		if err := checkCaller(caller); err != nil {
			return err
		}
		m, err := e.activeMatch(matchID)
		if err != nil {
			return err
		}
		tier, inst, err := e.loadInstance(m.TierID, m.InstanceID)
		if err != nil {
			return err
		}
		s, err := e.stallOf(m, tier, t.now)
		if err != nil {
			return err
		}
		if err := e.openLevel(m, s, models.EscalationLevel3, t.now); err != nil {
			return err
		}
		key := inst.Key()
		if e.store.IsEnrolled(key, caller) || e.store.WasReplaced(key, caller) {
			return ErrNotOutsider
		}
		if value == nil || value.Cmp(tier.EntryFee) != 0 {
			return fmt.Errorf("%w: want %s, got %s", ErrValueMismatch, tier.EntryFee, amountOrZero(value))
		}

		// снимок игроков до замены
		replaced, opponent := s.mover, s.opponent
		before := m

		if err := e.ledger.Receive(caller, value); err != nil {
			return fmt.Errorf("receive stake: %w", err)
		}
		inst.PrizePool.Add(inst.PrizePool, value)
		e.store.PutInstance(inst)
		e.store.ReplaceEnrolled(key, replaced, caller)

		if err := e.game.ReplacePlayer(ctx, m.ID, replaced, caller, t.now); err != nil {
			return fmt.Errorf("replace player in game: %w", err)
		}
		if m.Player1 == replaced {
			m.Player1 = caller
		} else {
			m.Player2 = caller
		}
		m.LastMoveTime = t.now
		e.store.PutMatch(m)
		e.store.ClearMatchTimeout(m.ID)

		records := []models.MatchRecord{
			e.newRecord(t, before, inst.Cycle, replaced, opponent, models.OutcomeReplaced, models.ReasonReplacement),
			e.newRecord(t, m, inst.Cycle, caller, opponent, models.OutcomeReplacing, models.ReasonReplacement),
			e.newRecord(t, m, inst.Cycle, opponent, caller, models.OutcomeOpponentReplaced, models.ReasonReplacement),
		}
		for i := range records {
			records[i].Replacement = caller
			e.store.AppendRecord(records[i])
		}

		e.updateStats(replaced, func(st *models.PlayerStats) {
			st.MatchesLost++
			st.UpdatedAt = t.now
		})
		e.updateStats(caller, func(st *models.PlayerStats) {
			st.TournamentsPlayed++
			st.UpdatedAt = t.now
		})

		t.emit(events.Event{
			Type:        events.PlayerReplaced,
			Tier:        m.TierID,
			Instance:    m.InstanceID,
			Cycle:       inst.Cycle,
			Round:       m.Round,
			MatchID:     m.ID,
			MatchNumber: m.MatchNumber,
			Player:      caller,
			Players:     []common.Address{replaced, opponent},
			Amount:      new(big.Int).Set(value),
			Level:       uint8(models.EscalationLevel3),
			Reason:      models.ReasonReplacement.String(),
			Data:        records,
		})
		return nil
	})
}
