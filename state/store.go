package state

import (
	"math/big"
	"slices"

	"github.com/Dosada05/tournament-engine/models"
	"github.com/ethereum/go-ethereum/common"
)

type playerKey struct {
	models.InstanceKey
	Player common.Address
}

// Store is the in-memory arena of all tiers, instances, rounds and matches.
// Getters return copies; setters go through the journal.
type Store struct {
	journal Journal

	tiers       map[uint8]models.TierConfig
	instances   map[models.InstanceKey]models.TournamentInstance
	enrolled    map[models.InstanceKey][]common.Address
	isEnrolled  map[playerKey]bool
	replaced    map[models.InstanceKey][]common.Address
	wasReplaced map[playerKey]bool

	rounds   map[models.RoundKey]models.Round
	matches  map[common.Hash]models.Match
	timeouts map[common.Hash]models.MatchTimeoutState

	records         []models.MatchRecord
	recordsByPlayer map[common.Address][]int

	stats         map[common.Address]models.PlayerStats
	leaderboard   []common.Address
	onLeaderboard map[common.Address]bool

	payouts map[models.InstanceKey][]models.Payout
	raffle  models.RaffleState
}

func NewStore() *Store {
	return &Store{
		tiers:           make(map[uint8]models.TierConfig),
		instances:       make(map[models.InstanceKey]models.TournamentInstance),
		enrolled:        make(map[models.InstanceKey][]common.Address),
		isEnrolled:      make(map[playerKey]bool),
		replaced:        make(map[models.InstanceKey][]common.Address),
		wasReplaced:     make(map[playerKey]bool),
		rounds:          make(map[models.RoundKey]models.Round),
		matches:         make(map[common.Hash]models.Match),
		timeouts:        make(map[common.Hash]models.MatchTimeoutState),
		recordsByPlayer: make(map[common.Address][]int),
		stats:           make(map[common.Address]models.PlayerStats),
		onLeaderboard:   make(map[common.Address]bool),
		payouts:         make(map[models.InstanceKey][]models.Payout),
	}
}

func (s *Store) Snapshot() int           { return s.journal.Snapshot() }
func (s *Store) RevertToSnapshot(id int) { s.journal.RevertToSnapshot(id) }
func (s *Store) Commit()                 { s.journal.Commit() }

// Tiers

func (s *Store) Tier(id uint8) (models.TierConfig, bool) {
	t, ok := s.tiers[id]
	if !ok {
		return models.TierConfig{}, false
	}
	return t.Clone(), true
}

func (s *Store) PutTier(cfg models.TierConfig) {
	Put(&s.journal, s.tiers, cfg.TierID, cfg.Clone())
}

// Tiers returns every registered tier ordered by id.
func (s *Store) Tiers() []models.TierConfig {
	ids := make([]uint8, 0, len(s.tiers))
	for id := range s.tiers {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	out := make([]models.TierConfig, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.tiers[id].Clone())
	}
	return out
}

// Instances

func (s *Store) Instance(key models.InstanceKey) (models.TournamentInstance, bool) {
	inst, ok := s.instances[key]
	if !ok {
		return models.TournamentInstance{}, false
	}
	return inst.Clone(), true
}

func (s *Store) PutInstance(inst models.TournamentInstance) {
	Put(&s.journal, s.instances, inst.Key(), inst.Clone())
}

// InstanceKeys lists every slot ordered by tier then instance.
func (s *Store) InstanceKeys() []models.InstanceKey {
	var keys []models.InstanceKey
	for _, tier := range s.Tiers() {
		for i := 0; i < tier.InstanceCount; i++ {
			keys = append(keys, models.InstanceKey{Tier: tier.TierID, Instance: uint8(i)})
		}
	}
	return keys
}

// Enrollment

func (s *Store) Enrolled(key models.InstanceKey) []common.Address {
	return slices.Clone(s.enrolled[key])
}

func (s *Store) IsEnrolled(key models.InstanceKey, addr common.Address) bool {
	return s.isEnrolled[playerKey{key, addr}]
}

func (s *Store) AppendEnrolled(key models.InstanceKey, addr common.Address) {
	next := append(slices.Clone(s.enrolled[key]), addr)
	Put(&s.journal, s.enrolled, key, next)
	Put(&s.journal, s.isEnrolled, playerKey{key, addr}, true)
}

// SetEnrolled overwrites the ordered pool, keeping membership untouched.
func (s *Store) SetEnrolled(key models.InstanceKey, players []common.Address) {
	Put(&s.journal, s.enrolled, key, slices.Clone(players))
}

// ReplaceEnrolled swaps old for replacement in place and remembers old for cleanup.
func (s *Store) ReplaceEnrolled(key models.InstanceKey, old, replacement common.Address) {
	next := slices.Clone(s.enrolled[key])
	if i := slices.Index(next, old); i >= 0 {
		next[i] = replacement
	}
	Put(&s.journal, s.enrolled, key, next)
	Delete(&s.journal, s.isEnrolled, playerKey{key, old})
	Put(&s.journal, s.isEnrolled, playerKey{key, replacement}, true)
	Put(&s.journal, s.replaced, key, append(slices.Clone(s.replaced[key]), old))
	Put(&s.journal, s.wasReplaced, playerKey{key, old}, true)
}

// WasReplaced reports whether addr lost its seat in this cycle.
func (s *Store) WasReplaced(key models.InstanceKey, addr common.Address) bool {
	return s.wasReplaced[playerKey{key, addr}]
}

func (s *Store) Replaced(key models.InstanceKey) []common.Address {
	return slices.Clone(s.replaced[key])
}

// ClearEnrollment drops the pool, membership flags and the replaced list of a slot.
func (s *Store) ClearEnrollment(key models.InstanceKey) {
	for _, p := range s.enrolled[key] {
		Delete(&s.journal, s.isEnrolled, playerKey{key, p})
	}
	for _, p := range s.replaced[key] {
		Delete(&s.journal, s.isEnrolled, playerKey{key, p})
		Delete(&s.journal, s.wasReplaced, playerKey{key, p})
	}
	Delete(&s.journal, s.enrolled, key)
	Delete(&s.journal, s.replaced, key)
}

// Rounds and matches

func (s *Store) Round(key models.RoundKey) (models.Round, bool) {
	r, ok := s.rounds[key]
	return r, ok
}

func (s *Store) PutRound(key models.RoundKey, r models.Round) {
	Put(&s.journal, s.rounds, key, r)
}

func (s *Store) DeleteRound(key models.RoundKey) {
	Delete(&s.journal, s.rounds, key)
}

func (s *Store) Match(id common.Hash) (models.Match, bool) {
	m, ok := s.matches[id]
	return m, ok
}

func (s *Store) PutMatch(m models.Match) {
	Put(&s.journal, s.matches, m.ID, m)
}

func (s *Store) DeleteMatch(id common.Hash) {
	Delete(&s.journal, s.matches, id)
	Delete(&s.journal, s.timeouts, id)
}

func (s *Store) MatchTimeout(id common.Hash) models.MatchTimeoutState {
	return s.timeouts[id]
}

func (s *Store) PutMatchTimeout(id common.Hash, st models.MatchTimeoutState) {
	Put(&s.journal, s.timeouts, id, st)
}

func (s *Store) ClearMatchTimeout(id common.Hash) {
	Delete(&s.journal, s.timeouts, id)
}

// Records

func (s *Store) AppendRecord(r models.MatchRecord) {
	n := len(s.records)
	s.journal.Append(func() {
		s.records = s.records[:n]
		idx := s.recordsByPlayer[r.Player]
		if len(idx) <= 1 {
			delete(s.recordsByPlayer, r.Player)
		} else {
			s.recordsByPlayer[r.Player] = idx[:len(idx)-1]
		}
	})
	s.records = append(s.records, r)
	s.recordsByPlayer[r.Player] = append(s.recordsByPlayer[r.Player], n)
}

// PlayerRecords returns the history of addr, oldest first.
func (s *Store) PlayerRecords(addr common.Address) []models.MatchRecord {
	idx := s.recordsByPlayer[addr]
	out := make([]models.MatchRecord, 0, len(idx))
	for _, i := range idx {
		out = append(out, s.records[i])
	}
	return out
}

// CycleRecords returns all records written for one cycle of a slot.
func (s *Store) CycleRecords(key models.InstanceKey, cycle uint64) []models.MatchRecord {
	var out []models.MatchRecord
	for _, r := range s.records {
		if r.TierID == key.Tier && r.InstanceID == key.Instance && r.Cycle == cycle {
			out = append(out, r)
		}
	}
	return out
}

// Stats and leaderboard

func (s *Store) Stats(addr common.Address) (models.PlayerStats, bool) {
	st, ok := s.stats[addr]
	if !ok {
		return models.NewPlayerStats(addr), false
	}
	return st.Clone(), true
}

func (s *Store) PutStats(st models.PlayerStats) {
	Put(&s.journal, s.stats, st.Address, st.Clone())
}

func (s *Store) Leaderboard() []common.Address {
	return slices.Clone(s.leaderboard)
}

func (s *Store) OnLeaderboard(addr common.Address) bool {
	return s.onLeaderboard[addr]
}

// SetLeaderboard replaces the ranked list and keeps the membership set in sync.
func (s *Store) SetLeaderboard(ranked []common.Address) {
	keep := make(map[common.Address]bool, len(ranked))
	for _, a := range ranked {
		keep[a] = true
	}
	for a := range s.onLeaderboard {
		if !keep[a] {
			Delete(&s.journal, s.onLeaderboard, a)
		}
	}
	for a := range keep {
		if !s.onLeaderboard[a] {
			Put(&s.journal, s.onLeaderboard, a, true)
		}
	}
	Set(&s.journal, &s.leaderboard, slices.Clone(ranked))
}

// Payouts of the running cycle

func (s *Store) AppendPayout(key models.InstanceKey, p models.Payout) {
	Put(&s.journal, s.payouts, key, append(slices.Clone(s.payouts[key]), p))
}

func (s *Store) Payouts(key models.InstanceKey) []models.Payout {
	return slices.Clone(s.payouts[key])
}

func (s *Store) ClearPayouts(key models.InstanceKey) {
	Delete(&s.journal, s.payouts, key)
}

// Raffle

func (s *Store) Raffle() models.RaffleState {
	r := s.raffle
	if r.Accumulated == nil {
		r.Accumulated = new(big.Int)
	} else {
		r.Accumulated = new(big.Int).Set(r.Accumulated)
	}
	return r
}

func (s *Store) SetRaffle(r models.RaffleState) {
	c := r
	if r.Accumulated != nil {
		c.Accumulated = new(big.Int).Set(r.Accumulated)
	}
	Set(&s.journal, &s.raffle, c)
}
