package services

import (
	"context"
	"fmt"

	"github.com/Dosada05/tournament-engine/events"
	"github.com/Dosada05/tournament-engine/models"
	"github.com/Dosada05/tournament-engine/repositories"
	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"
)

const maxHistoryLimit = 500

// HistoryService reads what the persistence sink journaled. Unlike the
// views it survives restarts and covers past cycles.
type HistoryService interface {
	InstanceEvents(ctx context.Context, tierID, instanceID uint8, cycle *uint64, limit int) ([]events.Event, error)
	// RaffleEvents lists raffle draws and raffle payouts, which belong to no instance.
	RaffleEvents(ctx context.Context, limit int) ([]events.Event, error)
	PlayerRecords(ctx context.Context, player common.Address, limit int) ([]models.MatchRecord, error)
	PlayerPayouts(ctx context.Context, player common.Address) ([]models.Payout, error)
	Cycle(ctx context.Context, tierID, instanceID uint8, cycle uint64) (*CycleHistory, error)
}

type CycleHistory struct {
	TierID     uint8                `json:"tier_id"`
	InstanceID uint8                `json:"instance_id"`
	Cycle      uint64               `json:"cycle"`
	Records    []models.MatchRecord `json:"records"`
	Payouts    []models.Payout      `json:"payouts"`
}

type historyService struct {
	events  repositories.EventRepository
	records repositories.MatchRecordRepository
	payouts repositories.PayoutRepository
}

func NewHistoryService(ev repositories.EventRepository, rec repositories.MatchRecordRepository, pay repositories.PayoutRepository) HistoryService {
	return &historyService{events: ev, records: rec, payouts: pay}
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > maxHistoryLimit {
		return maxHistoryLimit
	}
	return limit
}

func (s *historyService) InstanceEvents(ctx context.Context, tierID, instanceID uint8, cycle *uint64, limit int) ([]events.Event, error) {
	evs, err := s.events.ListByInstance(ctx, tierID, instanceID, cycle, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list events of tier %d instance %d: %w", tierID, instanceID, err)
	}
	return evs, nil
}

func (s *historyService) RaffleEvents(ctx context.Context, limit int) ([]events.Event, error) {
	evs, err := s.events.ListGlobal(ctx, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list raffle events: %w", err)
	}
	return evs, nil
}

func (s *historyService) PlayerRecords(ctx context.Context, player common.Address, limit int) ([]models.MatchRecord, error) {
	recs, err := s.records.ListByPlayer(ctx, player, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list records of %s: %w", player.Hex(), err)
	}
	return recs, nil
}

func (s *historyService) PlayerPayouts(ctx context.Context, player common.Address) ([]models.Payout, error) {
	ps, err := s.payouts.ListByRecipient(ctx, player)
	if err != nil {
		return nil, fmt.Errorf("list payouts of %s: %w", player.Hex(), err)
	}
	return ps, nil
}

// Cycle loads records and payouts of one finished cycle in parallel.
func (s *historyService) Cycle(ctx context.Context, tierID, instanceID uint8, cycle uint64) (*CycleHistory, error) {
	h := &CycleHistory{TierID: tierID, InstanceID: instanceID, Cycle: cycle}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		recs, err := s.records.ListByCycle(gctx, tierID, instanceID, cycle)
		if err != nil {
			return fmt.Errorf("list cycle records: %w", err)
		}
		h.Records = recs
		return nil
	})
	g.Go(func() error {
		ps, err := s.payouts.ListByCycle(gctx, tierID, instanceID, cycle)
		if err != nil {
			return fmt.Errorf("list cycle payouts: %w", err)
		}
		h.Payouts = ps
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if len(h.Records) == 0 && len(h.Payouts) == 0 {
		return nil, fmt.Errorf("%w: no history for tier %d instance %d cycle %d", ErrNotFound, tierID, instanceID, cycle)
	}
	return h, nil
}
