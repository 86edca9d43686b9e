package services

import (
	"context"
	"errors"
	"log/slog"
	"math/big"

	"github.com/Dosada05/tournament-engine/events"
	"github.com/Dosada05/tournament-engine/game"
	"github.com/Dosada05/tournament-engine/models"
	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
)

// completeTournament runs the terminal path exactly once per cycle:
// distribution, completion event, raffle check, reset.
func (e *engine) completeTournament(ctx context.Context, t *txn, tier models.TierConfig, inst models.TournamentInstance, winners []common.Address, allDraw bool) error {
	key := inst.Key()
	inst.Status = models.StatusCompleted
	if allDraw {
		inst.CoWinners = winners
	} else {
		inst.Winner = winners[0]
	}
	pool := amountOrZero(inst.PrizePool)
	e.store.PutInstance(inst)

	for _, w := range winners {
		e.updateStats(w, func(st *models.PlayerStats) {
			st.TournamentsWon++
			st.UpdatedAt = t.now
		})
	}

	e.distribute(ctx, t, tier, inst, winners)

	inst, _ = e.store.Instance(key)
	snapshot := e.cycleSnapshot(inst, t)
	t.emit(events.Event{
		Type:     events.TournamentCompleted,
		Tier:     key.Tier,
		Instance: key.Instance,
		Cycle:    inst.Cycle,
		Round:    inst.CurrentRound,
		Winner:   inst.Winner,
		Players:  winners,
		Amount:   pool,
		Reason:   completionLabel(allDraw),
		Data:     snapshot,
	})
	e.logger.InfoContext(ctx, "Tournament completed",
		slog.Int("tier_id", int(key.Tier)), slog.Int("instance_id", int(key.Instance)),
		slog.Uint64("cycle", inst.Cycle), slog.String("winner", inst.Winner.Hex()),
		slog.Bool("all_draw", allDraw), slog.String("pool", pool.String()))

	e.maybeRaffle(ctx, t)
	e.resetInstance(ctx, t, key)
	return nil
}

func completionLabel(allDraw bool) string {
	if allDraw {
		return "all_draw"
	}
	return "champion"
}

// distribute splits the pool into owner, protocol and participant shares.
// Anything the placement table cannot hand out goes to the protocol pool.
func (e *engine) distribute(ctx context.Context, t *txn, tier models.TierConfig, inst models.TournamentInstance, winners []common.Address) {
	key := inst.Key()
	pool := amountOrZero(inst.PrizePool)
	ownerAmt := bps(pool, OwnerShareBps)
	protocolAmt := bps(pool, ProtocolShareBps)
	participants := new(big.Int).Sub(pool, ownerAmt)
	participants.Sub(participants, protocolAmt)

	inst.PrizePool = new(big.Int)
	e.store.PutInstance(inst)

	e.pay(t, key, inst.Cycle, e.cfg.Owner, ownerAmt, models.PayoutOwner)
	e.accrueProtocol(protocolAmt)

	groups := e.placementGroups(inst, winners)
	awards, unallocated := splitByPlacement(participants, tier.PrizeShares, groups)
	for _, a := range awards {
		e.pay(t, key, inst.Cycle, a.to, a.amount, models.PayoutPrize)
	}
	if unallocated.Sign() > 0 {
		e.logger.InfoContext(ctx, "Unallocated prize share moved to protocol pool",
			slog.Int("tier_id", int(key.Tier)), slog.Int("instance_id", int(key.Instance)),
			slog.String("amount", unallocated.String()))
		e.accrueProtocol(unallocated)
	}
}

// placementGroups lists who placed where: index 0 holds the winners, index k
// the players knocked out k-1 rounds before the last one. Force-eliminated
// players never place.
func (e *engine) placementGroups(inst models.TournamentInstance, winners []common.Address) [][]common.Address {
	groups := [][]common.Address{winners}
	placed := make(map[common.Address]bool, len(winners))
	for _, w := range winners {
		placed[w] = true
	}
	for r := int(inst.CurrentRound); r >= 0; r-- {
		rk := models.RoundKey{Tier: inst.TierID, Instance: inst.InstanceID, Round: uint8(r)}
		round, ok := e.store.Round(rk)
		if !ok {
			groups = append(groups, nil)
			continue
		}
		var out []common.Address
		for _, m := range e.roundMatches(rk, round.TotalMatches) {
			if m.Status != models.MatchCompleted || m.Reason == models.ReasonForceElimination {
				continue
			}
			for _, p := range []common.Address{m.Player1, m.Player2} {
				if p != m.Winner && !placed[p] {
					placed[p] = true
					out = append(out, p)
				}
			}
		}
		groups = append(groups, out)
	}
	return groups
}

type award struct {
	to     common.Address
	amount *big.Int
}

// splitByPlacement applies the tier's share table to groups. Each group
// splits its share equally; shares of empty groups and rounding dust fall
// to group 0. With nobody in group 0 that remainder is returned as unallocated.
func splitByPlacement(total *big.Int, shares []uint16, groups [][]common.Address) ([]award, *big.Int) {
	topBucket := new(big.Int).Set(total)
	var awards []award
	for k, share := range shares {
		if k == 0 || k >= len(groups) || len(groups[k]) == 0 {
			continue
		}
		amt := bps(total, int(share))
		per := new(big.Int).Quo(amt, big.NewInt(int64(len(groups[k]))))
		if per.Sign() == 0 {
			continue
		}
		for _, p := range groups[k] {
			awards = append(awards, award{to: p, amount: new(big.Int).Set(per)})
			topBucket.Sub(topBucket, per)
		}
	}

	if len(groups) == 0 || len(groups[0]) == 0 {
		return awards, topBucket
	}
	top := groups[0]
	per := new(big.Int).Quo(topBucket, big.NewInt(int64(len(top))))
	dust := new(big.Int).Sub(topBucket, new(big.Int).Mul(per, big.NewInt(int64(len(top)))))
	head := make([]award, 0, len(top))
	for i, p := range top {
		amt := new(big.Int).Set(per)
		if i == 0 {
			amt.Add(amt, dust)
		}
		head = append(head, award{to: p, amount: amt})
	}
	return append(head, awards...), new(big.Int)
}

// pay transfers amount out of escrow. A failed transfer is rerouted to the
// protocol pool and reported, never retried inside the operation.
func (e *engine) pay(t *txn, key models.InstanceKey, cycle uint64, to common.Address, amount *big.Int, kind models.PayoutKind) bool {
	if amount == nil || amount.Sign() == 0 {
		return true
	}
	p := models.Payout{
		ID:         uuid.NewString(),
		TierID:     key.Tier,
		InstanceID: key.Instance,
		Cycle:      cycle,
		Recipient:  to,
		Amount:     new(big.Int).Set(amount),
		Kind:       kind,
		CreatedAt:  t.now,
	}
	ev := events.Event{
		Global:   kind == models.PayoutRaffle,
		Tier:     key.Tier,
		Instance: key.Instance,
		Cycle:    cycle,
		Player:   to,
		Amount:   new(big.Int).Set(amount),
		Reason:   string(kind),
	}

	if err := e.ledger.Transfer(to, amount); err != nil {
		p.Failed = true
		ev.Type = events.PrizeDistributionFailed
		ev.Reason = string(kind) + ": " + err.Error()
		if kind != models.PayoutRaffle {
			e.accrueProtocol(amount)
		}
		e.logger.Warn("Payout failed, amount kept in protocol pool",
			slog.String("recipient", to.Hex()), slog.String("amount", amount.String()),
			slog.String("kind", string(kind)), slog.Any("error", err))
	} else {
		ev.Type = events.PrizeDistributed
		if kind != models.PayoutOwner {
			e.creditEarnings(t, to, amount)
		}
	}
	ev.Data = p
	t.emit(ev)
	if kind != models.PayoutRaffle {
		e.store.AppendPayout(key, p)
	}
	return !p.Failed
}

func (e *engine) accrueProtocol(amount *big.Int) {
	if amount == nil || amount.Sign() == 0 {
		return
	}
	r := e.store.Raffle()
	r.Accumulated.Add(r.Accumulated, amount)
	e.store.SetRaffle(r)
}

// resetInstance clears every round, match and enrollment of a slot and
// opens the next cycle. Match records are kept.
func (e *engine) resetInstance(ctx context.Context, t *txn, key models.InstanceKey) {
	inst, _ := e.store.Instance(key)
	for r := 0; r <= 255; r++ {
		rk := models.RoundKey{Tier: key.Tier, Instance: key.Instance, Round: uint8(r)}
		round, ok := e.store.Round(rk)
		if !ok {
			break
		}
		for j := 0; j < round.TotalMatches; j++ {
			id := models.MatchID(key.Tier, key.Instance, uint8(r), uint8(j))
			if err := e.game.ResetMatch(ctx, id); err != nil && !errors.Is(err, game.ErrUnknownMatch) {
				e.logger.WarnContext(ctx, "Game module failed to reset match", slog.String("match_id", id.Hex()), slog.Any("error", err))
			}
			e.store.DeleteMatch(id)
		}
		e.store.DeleteRound(rk)
	}
	e.store.ClearEnrollment(key)
	e.store.ClearPayouts(key)
	e.store.PutInstance(models.NewInstance(key.Tier, key.Instance, inst.Cycle+1))

	t.emit(events.Event{
		Type:     events.InstanceReset,
		Tier:     key.Tier,
		Instance: key.Instance,
		Cycle:    inst.Cycle + 1,
	})
}

// cycleSnapshot captures a finished cycle for archiving.
func (e *engine) cycleSnapshot(inst models.TournamentInstance, t *txn) models.CycleSnapshot {
	key := inst.Key()
	snap := models.CycleSnapshot{
		Instance:  inst.Clone(),
		Players:   e.store.Enrolled(key),
		Payouts:   e.store.Payouts(key),
		Records:   e.store.CycleRecords(key, inst.Cycle),
		Completed: t.now,
	}
	for r := 0; r <= int(inst.CurrentRound); r++ {
		rk := models.RoundKey{Tier: key.Tier, Instance: key.Instance, Round: uint8(r)}
		round, ok := e.store.Round(rk)
		if !ok {
			continue
		}
		snap.Rounds = append(snap.Rounds, round)
		snap.Matches = append(snap.Matches, e.roundMatches(rk, round.TotalMatches)...)
	}
	seen := make(map[common.Address]bool)
	for _, p := range append(snap.Players, e.store.Replaced(key)...) {
		if seen[p] {
			continue
		}
		seen[p] = true
		st, _ := e.store.Stats(p)
		snap.Stats = append(snap.Stats, st)
	}
	return snap
}
