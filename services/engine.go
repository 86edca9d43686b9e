package services

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"sync"
	"time"

	"github.com/Dosada05/tournament-engine/brackets"
	"github.com/Dosada05/tournament-engine/events"
	"github.com/Dosada05/tournament-engine/game"
	"github.com/Dosada05/tournament-engine/random"
	"github.com/Dosada05/tournament-engine/state"
	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// Fixed fee split of every prize pool, in basis points.
const (
	OwnerShareBps    = 750
	ProtocolShareBps = 250
)

const (
	MaxPlayerCount   = 256
	MaxInstanceCount = 256
)

// Ledger moves staked value. Implementations must support rollback.
type Ledger interface {
	Receive(from common.Address, amount *big.Int) error
	Transfer(to common.Address, amount *big.Int) error
	Balance(addr common.Address) *big.Int
	Snapshot() int
	RevertToSnapshot(id int)
	Commit()
}

type EngineConfig struct {
	Owner            common.Address
	RaffleThresholds []*big.Int
	LeaderboardSize  int
}

type EngineDeps struct {
	Store     *state.Store
	Game      game.Module
	Ledger    Ledger
	Generator brackets.BracketGenerator
	Random    random.Source
	Clock     clockwork.Clock
	Sink      events.Sink
	Logger    *slog.Logger
}

// TournamentEngine is the full operation surface of the engine.
type TournamentEngine interface {
	TierService
	EnrollmentService
	MatchService
	EscalationService
	RaffleService
	ViewService
}

type engine struct {
	mu        sync.RWMutex
	cfg       EngineConfig
	store     *state.Store
	game      game.Module
	ledger    Ledger
	generator brackets.BracketGenerator
	rng       random.Source
	clock     clockwork.Clock
	sink      events.Sink
	logger    *slog.Logger

	// seq numbers committed events; guarded by mu
	seq uint64
}

func NewTournamentEngine(cfg EngineConfig, deps EngineDeps) TournamentEngine {
	if deps.Store == nil {
		deps.Store = state.NewStore()
	}
	if deps.Clock == nil {
		deps.Clock = clockwork.NewRealClock()
	}
	if deps.Sink == nil {
		deps.Sink = events.Discard
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Random == nil {
		deps.Random = random.NewKeccak(time.Now().UnixNano(), deps.Clock)
	}
	if deps.Generator == nil {
		deps.Generator = brackets.NewSingleEliminationGenerator(deps.Random)
	}
	if cfg.LeaderboardSize <= 0 {
		cfg.LeaderboardSize = 100
	}
	return &engine{
		cfg:       cfg,
		store:     deps.Store,
		game:      deps.Game,
		ledger:    deps.Ledger,
		generator: deps.Generator,
		rng:       deps.Random,
		clock:     deps.Clock,
		sink:      deps.Sink,
		logger:    deps.Logger,
	}
}

type txKey struct{}

// txn collects what an operation produced until it commits.
type txn struct {
	op     string
	now    time.Time
	events []events.Event
}

func (t *txn) emit(ev events.Event) {
	ev.ID = uuid.NewString()
	ev.At = t.now
	t.events = append(t.events, ev)
}

func inTx(ctx context.Context) bool {
	return ctx.Value(txKey{}) != nil
}

// write runs fn as one all-or-nothing operation. On error every change to
// the store, the ledger and a journaled game module is reverted and the
// buffered events are dropped.
//
// Events are published after the lock is released, so sinks may call back
// into the engine. Batches of concurrent operations can reach a sink in any
// order; Event.Seq is the commit order.
//
// Reentrancy is detected through ctx only. Game hooks run under the lock and
// must pass the ctx they were given: a write with a fresh context from inside
// a hook blocks forever.
func (e *engine) write(ctx context.Context, op string, fn func(ctx context.Context, t *txn) error) error {
	if inTx(ctx) {
		return fmt.Errorf("%w: %s", ErrReentrantCall, op)
	}
	evs, err := e.runLocked(ctx, op, fn)
	if err != nil {
		return err
	}
	if len(evs) > 0 {
		if perr := e.sink.Publish(ctx, evs); perr != nil {
			e.logger.WarnContext(ctx, "Failed to publish events", slog.String("op", op), slog.Int("events", len(evs)), slog.Any("error", perr))
		}
	}
	return nil
}

func (e *engine) runLocked(ctx context.Context, op string, fn func(ctx context.Context, t *txn) error) (evs []events.Event, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	t := &txn{op: op, now: e.clock.Now()}
	storeSnap := e.store.Snapshot()
	ledgerSnap := e.ledger.Snapshot()
	journaled, isJournaled := e.game.(game.Journaled)
	gameSnap := 0
	if isJournaled {
		gameSnap = journaled.Snapshot()
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		e.store.RevertToSnapshot(storeSnap)
		e.ledger.RevertToSnapshot(ledgerSnap)
		if isJournaled {
			journaled.RevertToSnapshot(gameSnap)
		}
		if r := recover(); r != nil {
			e.logger.ErrorContext(ctx, "Operation panicked, state reverted", slog.String("op", op), slog.Any("panic", r))
			evs, err = nil, fmt.Errorf("%s: internal error: %v", op, r)
		}
	}()

	if ferr := fn(context.WithValue(ctx, txKey{}, t), t); ferr != nil {
		e.logger.DebugContext(ctx, "Operation rejected", slog.String("op", op), slog.Any("error", ferr))
		return nil, ferr
	}

	e.store.Commit()
	e.ledger.Commit()
	if isJournaled {
		journaled.Commit()
	}
	committed = true
	for i := range t.events {
		e.seq++
		t.events[i].Seq = e.seq
	}
	return t.events, nil
}

// read takes the shared lock unless ctx already belongs to a running operation.
// Usage: defer e.read(ctx)()
func (e *engine) read(ctx context.Context) func() {
	if inTx(ctx) {
		return func() {}
	}
	e.mu.RLock()
	return e.mu.RUnlock
}
