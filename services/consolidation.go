package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Dosada05/tournament-engine/events"
	"github.com/Dosada05/tournament-engine/models"
	"github.com/ethereum/go-ethereum/common"
)

// completeRound closes a round once every match is resolved. Advancers are
// recomputed from the match outcomes every time: winners in match order,
// then the bye. Two or more open the next round, where an odd count gets a
// fresh random bye; one is the champion; none ends the tournament through
// the all-draw path.
func (e *engine) completeRound(ctx context.Context, t *txn, rk models.RoundKey) error {
	round, ok := e.store.Round(rk)
	if !ok || !round.IsComplete() {
		return fmt.Errorf("%w: round %d still has open matches", ErrInvalidState, rk.Round)
	}
	tier, inst, err := e.loadInstance(rk.Tier, rk.Instance)
	if err != nil {
		return err
	}
	if inst.Status != models.StatusInProgress || inst.CurrentRound != rk.Round {
		return fmt.Errorf("%w: round %d is not the current round", ErrInvalidState, rk.Round)
	}

	matches := e.roundMatches(rk, round.TotalMatches)
	advancers := make([]common.Address, 0, len(matches)+1)
	for _, m := range matches {
		if m.Status == models.MatchCompleted && !m.IsDraw && !isZero(m.Winner) {
			advancers = append(advancers, m.Winner)
		}
	}
	if round.HasBye() {
		advancers = append(advancers, round.ByePlayer)
	}
	if want := round.ExpectedAdvancers(); want != len(advancers) {
		e.logger.WarnContext(ctx, "Advancer count differs from round counters",
			slog.Int("tier_id", int(rk.Tier)), slog.Int("instance_id", int(rk.Instance)),
			slog.Int("round", int(rk.Round)), slog.Int("expected", want), slog.Int("actual", len(advancers)))
	}

	t.emit(events.Event{
		Type:     events.RoundCompleted,
		Tier:     rk.Tier,
		Instance: rk.Instance,
		Cycle:    inst.Cycle,
		Round:    rk.Round,
		Players:  advancers,
		Data:     round,
	})

	switch {
	case len(advancers) >= 2:
		if int(rk.Round)+1 > 255 {
			return fmt.Errorf("%w: round counter overflow", ErrInvalidState)
		}
		return e.startRound(ctx, t, tier, inst, rk.Round+1, advancers)
	case len(advancers) == 1:
		return e.completeTournament(ctx, t, tier, inst, advancers, false)
	default:
		// никто не прошёл дальше: делят игроки ничейных матчей
		var coWinners []common.Address
		for _, m := range matches {
			if m.IsDraw {
				coWinners = append(coWinners, m.Player1, m.Player2)
			}
		}
		inst.AllDrawResolution = true
		inst.AllDrawRound = rk.Round
		return e.completeTournament(ctx, t, tier, inst, coWinners, true)
	}
}
