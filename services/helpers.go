package services

import (
	"fmt"
	"math/big"

	"github.com/Dosada05/tournament-engine/models"
	"github.com/ethereum/go-ethereum/common"
)

// --- Загрузка сущностей ---

func (e *engine) loadTier(tierID uint8) (models.TierConfig, error) {
	tier, ok := e.store.Tier(tierID)
	if !ok {
		return models.TierConfig{}, fmt.Errorf("%w: tier %d", ErrNotFound, tierID)
	}
	return tier, nil
}

func (e *engine) loadInstance(tierID, instanceID uint8) (models.TierConfig, models.TournamentInstance, error) {
	tier, err := e.loadTier(tierID)
	if err != nil {
		return models.TierConfig{}, models.TournamentInstance{}, err
	}
	inst, ok := e.store.Instance(models.InstanceKey{Tier: tierID, Instance: instanceID})
	if !ok {
		return models.TierConfig{}, models.TournamentInstance{}, fmt.Errorf("%w: instance %d of tier %d", ErrNotFound, instanceID, tierID)
	}
	return tier, inst, nil
}

func (e *engine) loadMatch(id common.Hash) (models.Match, error) {
	m, ok := e.store.Match(id)
	if !ok {
		return models.Match{}, fmt.Errorf("%w: match %s", ErrNotFound, id.Hex())
	}
	return m, nil
}

// roundMatches returns the matches of a round in match-number order.
func (e *engine) roundMatches(key models.RoundKey, total int) []models.Match {
	out := make([]models.Match, 0, total)
	for j := 0; j < total; j++ {
		if m, ok := e.store.Match(models.MatchID(key.Tier, key.Instance, key.Round, uint8(j))); ok {
			out = append(out, m)
		}
	}
	return out
}

// --- Счётчики игроков ---

func (e *engine) updateStats(addr common.Address, fn func(st *models.PlayerStats)) models.PlayerStats {
	st, _ := e.store.Stats(addr)
	fn(&st)
	e.store.PutStats(st)
	return st
}

// --- Арифметика ---

// bps returns amount * share / 10000, rounded down.
func bps(amount *big.Int, share int) *big.Int {
	v := new(big.Int).Mul(amount, big.NewInt(int64(share)))
	return v.Quo(v, big.NewInt(models.BasisPoints))
}

func isZero(addr common.Address) bool {
	return addr == (common.Address{})
}

func checkCaller(caller common.Address) error {
	if isZero(caller) {
		return ErrZeroAddressCaller
	}
	return nil
}

func amountOrZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(v)
}
