package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Dosada05/tournament-engine/events"
	"github.com/Dosada05/tournament-engine/models"
	"github.com/ethereum/go-ethereum/common"
	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// StallSource is the part of the engine the monitor needs.
type StallSource interface {
	MarkStalledMatches(ctx context.Context) (int, error)
	ListStalledMatches(ctx context.Context) ([]MatchView, error)
}

// StallMonitor watches running matches, records their timeout state and
// announces each escalation level once, when it opens.
type StallMonitor struct {
	views  StallSource
	sink   events.Sink
	clock  clockwork.Clock
	logger *slog.Logger

	mu       sync.Mutex
	notified map[common.Hash]models.EscalationLevel
}

func NewStallMonitor(views StallSource, sink events.Sink, clock clockwork.Clock, logger *slog.Logger) *StallMonitor {
	return &StallMonitor{
		views:    views,
		sink:     sink,
		clock:    clock,
		logger:   logger,
		notified: make(map[common.Hash]models.EscalationLevel),
	}
}

// Scan publishes an EscalationAvailable notice for every match whose highest
// open level was not announced yet and returns how many were sent.
func (m *StallMonitor) Scan(ctx context.Context) (int, error) {
	if _, err := m.views.MarkStalledMatches(ctx); err != nil {
		return 0, err
	}
	stalled, err := m.views.ListStalledMatches(ctx)
	if err != nil {
		return 0, err
	}
	now := m.clock.Now()

	m.mu.Lock()
	seen := make(map[common.Hash]bool, len(stalled))
	var notices []events.Event
	for _, v := range stalled {
		if v.Escalation == nil || len(v.Escalation.Available) == 0 {
			continue
		}
		seen[v.ID] = true
		top := v.Escalation.Available[len(v.Escalation.Available)-1]
		if m.notified[v.ID] >= top {
			continue
		}
		m.notified[v.ID] = top
		notices = append(notices, events.Event{
			ID:          uuid.NewString(),
			Type:        events.EscalationAvailable,
			Tier:        v.TierID,
			Instance:    v.InstanceID,
			Round:       v.Round,
			MatchID:     v.ID,
			MatchNumber: v.MatchNumber,
			Player:      v.CurrentMover,
			Players:     []common.Address{v.Player1, v.Player2},
			Level:       uint8(top),
			Data:        v.Escalation,
			At:          now,
		})
	}
	// матчи, которые сдвинулись, можно объявить заново
	for id := range m.notified {
		if !seen[id] {
			delete(m.notified, id)
		}
	}
	m.mu.Unlock()

	if len(notices) == 0 {
		return 0, nil
	}
	if err := m.sink.Publish(ctx, notices); err != nil {
		return 0, err
	}
	return len(notices), nil
}

func (m *StallMonitor) Schedule(s gocron.Scheduler, every time.Duration) (gocron.Job, error) {
	return s.NewJob(
		gocron.DurationJob(every),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), every)
			defer cancel()
			n, err := m.Scan(ctx)
			if err != nil {
				m.logger.Warn("Stall scan failed", slog.Any("error", err))
				return
			}
			if n > 0 {
				m.logger.Info("Escalation notices sent", slog.Int("matches", n))
			}
		}),
		gocron.WithName("stall-monitor"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
}
