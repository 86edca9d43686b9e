// Package events carries engine notifications to subscribers.
package events

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

type Type string

const (
	TournamentInitialized   Type = "TOURNAMENT_INITIALIZED"
	TournamentStarted       Type = "TOURNAMENT_STARTED"
	TournamentCompleted     Type = "TOURNAMENT_COMPLETED"
	TournamentForceStarted  Type = "TOURNAMENT_FORCE_STARTED"
	PlayerEnrolled          Type = "PLAYER_ENROLLED"
	EnrollmentWindowReset   Type = "ENROLLMENT_WINDOW_RESET"
	AbandonedPoolClaimed    Type = "ABANDONED_POOL_CLAIMED"
	RoundStarted            Type = "ROUND_STARTED"
	RoundCompleted          Type = "ROUND_COMPLETED"
	MatchStarted            Type = "MATCH_STARTED"
	MatchCompleted          Type = "MATCH_COMPLETED"
	MoveMade                Type = "MOVE_MADE"
	PlayerReplaced          Type = "PLAYER_REPLACED"
	PrizeDistributed        Type = "PRIZE_DISTRIBUTED"
	PrizeDistributionFailed Type = "PRIZE_DISTRIBUTION_FAILED"
	RaffleExecuted          Type = "RAFFLE_EXECUTED"
	InstanceReset           Type = "INSTANCE_RESET"

	// EscalationAvailable is a notice from the stall monitor, not a state change.
	EscalationAvailable Type = "ESCALATION_AVAILABLE"
)

// Event is a flat notification. Fields that do not apply stay zero.
// Global events (raffles) belong to no instance: Tier and Instance are zero
// and Cycle carries the raffle index.
type Event struct {
	ID          string           `json:"id"`
	Seq         uint64           `json:"seq"` // порядок коммитов внутри процесса
	Type        Type             `json:"type"`
	Global      bool             `json:"global,omitempty"`
	Tier        uint8            `json:"tier_id"`
	Instance    uint8            `json:"instance_id"`
	Cycle       uint64           `json:"cycle"`
	Round       uint8            `json:"round"`
	MatchID     common.Hash      `json:"match_id,omitempty"`
	MatchNumber uint8            `json:"match_number"`
	Player      common.Address   `json:"player,omitempty"`
	Players     []common.Address `json:"players,omitempty"`
	Winner      common.Address   `json:"winner,omitempty"`
	Amount      *big.Int         `json:"amount,omitempty"`
	Reason      string           `json:"reason,omitempty"`
	Level       uint8            `json:"level,omitempty"`
	Data        any              `json:"data,omitempty"`
	At          time.Time        `json:"at"`
}

// Room is the websocket room of the event's instance, or the lobby for global events.
func (e Event) Room() string {
	if e.Global {
		return LobbyRoom
	}
	return RoomFor(e.Tier, e.Instance)
}

func RoomFor(tier, instance uint8) string {
	return fmt.Sprintf("tier_%d_instance_%d", tier, instance)
}

// LobbyRoom receives every event. Global events go nowhere else.
const LobbyRoom = "lobby"

// Sink receives events after the operation that produced them committed.
type Sink interface {
	Publish(ctx context.Context, evs []Event) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, evs []Event) error

func (f SinkFunc) Publish(ctx context.Context, evs []Event) error { return f(ctx, evs) }

// MultiSink fans a batch out to every sink. A failing sink is logged and
// does not stop the others.
type MultiSink struct {
	sinks  []Sink
	logger *slog.Logger
}

func NewMultiSink(logger *slog.Logger, sinks ...Sink) *MultiSink {
	return &MultiSink{sinks: sinks, logger: logger}
}

func (m *MultiSink) Add(s Sink) {
	m.sinks = append(m.sinks, s)
}

func (m *MultiSink) Publish(ctx context.Context, evs []Event) error {
	if len(evs) == 0 {
		return nil
	}
	var failed int
	for _, s := range m.sinks {
		if err := s.Publish(ctx, evs); err != nil {
			failed++
			m.logger.Error("event sink failed", slog.Int("events", len(evs)), slog.Any("error", err))
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d sinks failed", failed, len(m.sinks))
	}
	return nil
}

// Discard drops everything.
var Discard Sink = SinkFunc(func(context.Context, []Event) error { return nil })
