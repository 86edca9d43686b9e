package services

import (
	"context"
	"math/big"
	"time"

	"github.com/Dosada05/tournament-engine/brackets"
	"github.com/Dosada05/tournament-engine/models"
	"github.com/ethereum/go-ethereum/common"
)

type ViewService interface {
	ListInstances(ctx context.Context, tierID uint8) ([]models.TournamentInstance, error)
	GetInstance(ctx context.Context, tierID, instanceID uint8) (*InstanceView, error)
	GetMatch(ctx context.Context, matchID common.Hash) (*MatchView, error)
	ListStalledMatches(ctx context.Context) ([]MatchView, error)
	GetPlayer(ctx context.Context, addr common.Address) (*PlayerView, error)
	GetLeaderboard(ctx context.Context) ([]models.LeaderboardEntry, error)
	GetRaffle(ctx context.Context) (*RaffleView, error)
	GetBalance(ctx context.Context, addr common.Address) (*big.Int, error)
}

type EscalationWindow struct {
	Level1At  time.Time                `json:"level1_at"`
	Level2At  time.Time                `json:"level2_at"`
	Level3At  time.Time                `json:"level3_at"`
	Available []models.EscalationLevel `json:"available"`
}

type MatchView struct {
	models.Match
	Game          string                   `json:"game"`
	Timeout       models.MatchTimeoutState `json:"timeout"`
	CurrentMover  common.Address           `json:"current_mover"`
	MoverDeadline time.Time                `json:"mover_deadline"`
	TimedOut      bool                     `json:"timed_out"`
	Escalation    *EscalationWindow        `json:"escalation,omitempty"`
}

type RoundView struct {
	Number  uint8        `json:"number"`
	Round   models.Round `json:"round"`
	Matches []MatchView  `json:"matches"`
}

type InstanceView struct {
	Instance models.TournamentInstance `json:"instance"`
	Tier     models.TierConfig         `json:"tier"`
	Players  []common.Address          `json:"players"`
	Replaced []common.Address          `json:"replaced,omitempty"`
	Rounds   []RoundView               `json:"rounds"`
	Bracket  []brackets.RoundShape     `json:"bracket"`
	// Enrollment ladder, meaningful while enrolling.
	ForceStartAvailable   bool `json:"force_start_available"`
	AbandonClaimAvailable bool `json:"abandon_claim_available"`
}

type PlayerView struct {
	Stats   models.PlayerStats   `json:"stats"`
	Records []models.MatchRecord `json:"records"`
	Balance *big.Int             `json:"balance"`
}

type RaffleView struct {
	Accumulated   *big.Int `json:"accumulated"`
	Index         uint64   `json:"index"`
	NextThreshold *big.Int `json:"next_threshold"`
	Ready         bool     `json:"ready"`
	Candidates    int      `json:"candidates"`
}

func (e *engine) ListInstances(ctx context.Context, tierID uint8) ([]models.TournamentInstance, error) {
	defer e.read(ctx)()
	tier, err := e.loadTier(tierID)
	if err != nil {
		return nil, err
	}
	out := make([]models.TournamentInstance, 0, tier.InstanceCount)
	for i := 0; i < tier.InstanceCount; i++ {
		if inst, ok := e.store.Instance(models.InstanceKey{Tier: tierID, Instance: uint8(i)}); ok {
			out = append(out, inst)
		}
	}
	return out, nil
}

func (e *engine) GetInstance(ctx context.Context, tierID, instanceID uint8) (*InstanceView, error) {
	defer e.read(ctx)()
	tier, inst, err := e.loadInstance(tierID, instanceID)
	if err != nil {
		return nil, err
	}
	now := e.clock.Now()
	key := inst.Key()
	view := &InstanceView{
		Instance: inst,
		Tier:     tier,
		Players:  e.store.Enrolled(key),
		Replaced: e.store.Replaced(key),
		Rounds:   []RoundView{},
	}

	switch inst.Status {
	case models.StatusEnrolling:
		view.Bracket = brackets.Shape(tier.PlayerCount)
		after1 := inst.EnrolledCount > 0 && !now.Before(inst.EnrollmentTimeout.Escalation1Start)
		view.ForceStartAvailable = after1 && inst.EnrolledCount >= 2
		view.AbandonClaimAvailable = inst.EnrolledCount == 1 && !now.Before(inst.EnrollmentTimeout.Escalation2Start)
	default:
		if r0, ok := e.store.Round(models.RoundKey{Tier: tierID, Instance: instanceID}); ok {
			view.Bracket = brackets.Shape(r0.PlayerCount)
		}
	}

	for r := 0; r <= int(inst.CurrentRound); r++ {
		rk := models.RoundKey{Tier: tierID, Instance: instanceID, Round: uint8(r)}
		round, ok := e.store.Round(rk)
		if !ok {
			continue
		}
		rv := RoundView{Number: uint8(r), Round: round}
		for _, m := range e.roundMatches(rk, round.TotalMatches) {
			rv.Matches = append(rv.Matches, e.matchView(m, tier, now))
		}
		view.Rounds = append(view.Rounds, rv)
	}
	return view, nil
}

func (e *engine) GetMatch(ctx context.Context, matchID common.Hash) (*MatchView, error) {
	defer e.read(ctx)()
	m, err := e.loadMatch(matchID)
	if err != nil {
		return nil, err
	}
	tier, err := e.loadTier(m.TierID)
	if err != nil {
		return nil, err
	}
	v := e.matchView(m, tier, e.clock.Now())
	return &v, nil
}

// ListStalledMatches returns running matches whose mover has run out of time.
func (e *engine) ListStalledMatches(ctx context.Context) ([]MatchView, error) {
	defer e.read(ctx)()
	now := e.clock.Now()
	var out []MatchView
	for _, key := range e.store.InstanceKeys() {
		inst, ok := e.store.Instance(key)
		if !ok || inst.Status != models.StatusInProgress {
			continue
		}
		tier, _ := e.store.Tier(key.Tier)
		rk := models.RoundKey{Tier: key.Tier, Instance: key.Instance, Round: inst.CurrentRound}
		round, _ := e.store.Round(rk)
		for _, m := range e.roundMatches(rk, round.TotalMatches) {
			if m.Status != models.MatchInProgress {
				continue
			}
			if v := e.matchView(m, tier, now); v.TimedOut {
				out = append(out, v)
			}
		}
	}
	return out, nil
}

func (e *engine) matchView(m models.Match, tier models.TierConfig, now time.Time) MatchView {
	v := MatchView{
		Match:   m,
		Game:    e.game.Name(),
		Timeout: e.store.MatchTimeout(m.ID),
	}
	if m.Status != models.MatchInProgress || !e.game.IsMatchActive(m.ID) {
		return v
	}
	s, err := e.stallOf(m, tier, now)
	if err != nil {
		return v
	}
	v.CurrentMover = s.mover
	v.MoverDeadline = s.level1At
	v.TimedOut = s.timedOut
	if s.timedOut {
		v.Escalation = &EscalationWindow{
			Level1At:  s.level1At,
			Level2At:  s.level2At,
			Level3At:  s.level3At,
			Available: s.available(now),
		}
	}
	return v
}

func (e *engine) GetPlayer(ctx context.Context, addr common.Address) (*PlayerView, error) {
	defer e.read(ctx)()
	st, _ := e.store.Stats(addr)
	return &PlayerView{
		Stats:   st,
		Records: e.store.PlayerRecords(addr),
		Balance: e.ledger.Balance(addr),
	}, nil
}

func (e *engine) GetLeaderboard(ctx context.Context) ([]models.LeaderboardEntry, error) {
	defer e.read(ctx)()
	return e.leaderboardEntries(), nil
}

func (e *engine) GetRaffle(ctx context.Context) (*RaffleView, error) {
	defer e.read(ctx)()
	r := e.store.Raffle()
	view := &RaffleView{
		Accumulated: r.Accumulated,
		Index:       r.Index,
		Candidates:  len(e.raffleCandidates().order),
	}
	if len(e.cfg.RaffleThresholds) > 0 {
		view.NextThreshold = models.ThresholdAt(e.cfg.RaffleThresholds, r.Index)
		view.Ready = r.Accumulated.Sign() > 0 && r.Accumulated.Cmp(view.NextThreshold) >= 0
	}
	return view, nil
}

func (e *engine) GetBalance(ctx context.Context, addr common.Address) (*big.Int, error) {
	defer e.read(ctx)()
	return e.ledger.Balance(addr), nil
}
