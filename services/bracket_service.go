package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Dosada05/tournament-engine/brackets"
	"github.com/Dosada05/tournament-engine/events"
	"github.com/Dosada05/tournament-engine/game"
	"github.com/Dosada05/tournament-engine/models"
	"github.com/ethereum/go-ethereum/common"
)

// startTournament moves an instance out of enrollment and opens round 0
// with everyone currently enrolled.
func (e *engine) startTournament(ctx context.Context, t *txn, tier models.TierConfig, inst models.TournamentInstance, mode models.TournamentMode) error {
	key := inst.Key()
	players := e.store.Enrolled(key)

	inst.Status = models.StatusInProgress
	inst.Mode = mode
	inst.StartTime = t.now
	inst.CurrentRound = 0
	e.store.PutInstance(inst)

	for _, p := range players {
		e.updateStats(p, func(st *models.PlayerStats) { st.TournamentsPlayed++ })
	}

	t.emit(events.Event{
		Type:     events.TournamentStarted,
		Tier:     key.Tier,
		Instance: key.Instance,
		Cycle:    inst.Cycle,
		Players:  players,
		Amount:   amountOrZero(inst.PrizePool),
	})
	e.logger.InfoContext(ctx, "Tournament started",
		slog.Int("tier_id", int(key.Tier)), slog.Int("instance_id", int(key.Instance)),
		slog.Int("players", len(players)), slog.Bool("force_started", mode == models.ModeForceStarted))

	return e.startRound(ctx, t, tier, inst, 0, players)
}

// startRound generates pairings for players and creates every match through
// the game module. Round 0 also rewrites the enrolled pool so the bye sits last.
func (e *engine) startRound(ctx context.Context, t *txn, tier models.TierConfig, inst models.TournamentInstance, round uint8, players []common.Address) error {
	key := inst.Key()
	plan, err := e.generator.GenerateRound(ctx, brackets.GenerateRoundParams{
		Tier:     key.Tier,
		Instance: key.Instance,
		Round:    round,
		Players:  players,
	})
	if err != nil {
		return fmt.Errorf("generate round %d for tier %d instance %d: %w", round, key.Tier, key.Instance, err)
	}
	if round == 0 {
		e.store.SetEnrolled(key, plan.Seats)
	}

	rk := models.RoundKey{Tier: key.Tier, Instance: key.Instance, Round: round}
	e.store.PutRound(rk, models.Round{
		PlayerCount:  len(players),
		TotalMatches: len(plan.Pairings),
		ByePlayer:    plan.Bye,
		Initialized:  true,
	})

	for _, pairing := range plan.Pairings {
		m := models.Match{
			ID:           models.MatchID(key.Tier, key.Instance, round, pairing.MatchNumber),
			TierID:       key.Tier,
			InstanceID:   key.Instance,
			Round:        round,
			MatchNumber:  pairing.MatchNumber,
			Player1:      pairing.Player1,
			Player2:      pairing.Player2,
			Status:       models.MatchInProgress,
			StartTime:    t.now,
			LastMoveTime: t.now,
		}
		err := e.game.CreateMatch(ctx, game.Setup{
			Ref: game.Ref{
				ID:          m.ID,
				Tier:        key.Tier,
				Instance:    key.Instance,
				Round:       round,
				MatchNumber: pairing.MatchNumber,
			},
			Player1:   m.Player1,
			Player2:   m.Player2,
			TimeBank:  tier.Timeouts.MatchTimePerPlayer,
			Increment: tier.Timeouts.TimeIncrement,
			StartedAt: t.now,
		})
		if err != nil {
			return fmt.Errorf("create match %d of round %d: %w", pairing.MatchNumber, round, err)
		}
		e.store.PutMatch(m)
		e.store.ClearMatchTimeout(m.ID)

		t.emit(events.Event{
			Type:        events.MatchStarted,
			Tier:        key.Tier,
			Instance:    key.Instance,
			Cycle:       inst.Cycle,
			Round:       round,
			MatchID:     m.ID,
			MatchNumber: m.MatchNumber,
			Players:     []common.Address{m.Player1, m.Player2},
		})
	}

	inst.CurrentRound = round
	e.store.PutInstance(inst)

	t.emit(events.Event{
		Type:     events.RoundStarted,
		Tier:     key.Tier,
		Instance: key.Instance,
		Cycle:    inst.Cycle,
		Round:    round,
		Players:  plan.Seats,
		Player:   plan.Bye,
		Data:     map[string]int{"player_count": len(players), "total_matches": len(plan.Pairings)},
	})
	return nil
}
