package services

import (
	"context"
	"log/slog"
	"math/big"

	"github.com/Dosada05/tournament-engine/events"
	"github.com/Dosada05/tournament-engine/models"
	"github.com/Dosada05/tournament-engine/random"
	"github.com/ethereum/go-ethereum/common"
)

// raffleResolution is the granularity of the stake-weighted draw.
const raffleResolution = 1 << 30

type RaffleService interface {
	// ExecuteRaffle lets any player enrolled in a live instance trigger a
	// raffle whose threshold is already met.
	ExecuteRaffle(ctx context.Context, caller common.Address) error
}

func (e *engine) ExecuteRaffle(ctx context.Context, caller common.Address) error {
	return e.write(ctx, "execute_raffle", func(ctx context.Context, t *txn) error {
		cands := e.raffleCandidates()
		if _, ok := cands.weights[caller]; !ok {
			return ErrNotEnrolled
		}
		_, err := e.runRaffle(ctx, t)
		return err
	})
}

// maybeRaffle runs after every distribution. Not meeting the threshold is the normal case.
func (e *engine) maybeRaffle(ctx context.Context, t *txn) {
	if len(e.cfg.RaffleThresholds) == 0 {
		return
	}
	if _, err := e.runRaffle(ctx, t); err != nil {
		e.logger.DebugContext(ctx, "Raffle skipped", slog.Any("error", err))
	}
}

func (e *engine) runRaffle(ctx context.Context, t *txn) (bool, error) {
	if len(e.cfg.RaffleThresholds) == 0 {
		return false, ErrRaffleBelowThreshold
	}
	r := e.store.Raffle()
	threshold := models.ThresholdAt(e.cfg.RaffleThresholds, r.Index)
	if r.Accumulated.Sign() == 0 || r.Accumulated.Cmp(threshold) < 0 {
		return false, ErrRaffleBelowThreshold
	}
	cands := e.raffleCandidates()
	if len(cands.order) == 0 {
		return false, ErrNoRaffleCandidates
	}

	winner := cands.pick(e.rng, r.Index)
	amount := new(big.Int).Set(r.Accumulated)
	if !e.pay(t, models.InstanceKey{}, r.Index, winner, amount, models.PayoutRaffle) {
		// сумма остаётся в аккумуляторе до следующего розыгрыша
		return false, nil
	}

	t.emit(events.Event{
		Type:   events.RaffleExecuted,
		Global: true,
		Cycle:  r.Index,
		Player: winner,
		Amount: amount,
		Data: map[string]any{
			"raffle_index": r.Index,
			"threshold":    threshold.String(),
			"candidates":   len(cands.order),
		},
	})
	e.logger.InfoContext(ctx, "Raffle executed",
		slog.Uint64("raffle_index", r.Index), slog.String("winner", winner.Hex()), slog.String("amount", amount.String()))

	r.Accumulated = new(big.Int)
	r.Index++
	e.store.SetRaffle(r)
	return true, nil
}

type raffleCandidates struct {
	order   []common.Address
	weights map[common.Address]*big.Int
	total   *big.Int
}

// raffleCandidates weights every player enrolled in an Enrolling or
// InProgress instance by the stake they have in it.
func (e *engine) raffleCandidates() raffleCandidates {
	c := raffleCandidates{weights: make(map[common.Address]*big.Int), total: new(big.Int)}
	for _, key := range e.store.InstanceKeys() {
		inst, ok := e.store.Instance(key)
		if !ok || (inst.Status != models.StatusEnrolling && inst.Status != models.StatusInProgress) {
			continue
		}
		tier, _ := e.store.Tier(key.Tier)
		for _, p := range e.store.Enrolled(key) {
			w, seen := c.weights[p]
			if !seen {
				w = new(big.Int)
				c.weights[p] = w
				c.order = append(c.order, p)
			}
			w.Add(w, tier.EntryFee)
			c.total.Add(c.total, tier.EntryFee)
		}
	}
	return c
}

func (c raffleCandidates) pick(rng random.Source, index uint64) common.Address {
	roll := rng.Intn(raffleResolution, random.Uint64(index), c.total.Bytes())
	target := new(big.Int).Mul(c.total, big.NewInt(int64(roll)))
	target.Quo(target, big.NewInt(raffleResolution))

	cum := new(big.Int)
	for _, p := range c.order {
		cum.Add(cum, c.weights[p])
		if cum.Cmp(target) > 0 {
			return p
		}
	}
	return c.order[len(c.order)-1]
}
