package services

import (
	"io"
	"log/slog"
	"math/big"
	"testing"
	"time"

	"github.com/Dosada05/tournament-engine/db"
	"github.com/Dosada05/tournament-engine/events"
	"github.com/Dosada05/tournament-engine/models"
	"github.com/Dosada05/tournament-engine/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPersistenceSinkJournalsTournament(t *testing.T) {
	h := newHarness(t, EngineConfig{})
	conn, err := db.Connect(db.DriverSQLite, "file::memory:", time.Second)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, db.Migrate(h.ctx, conn, db.DriverSQLite))

	repos := PersistenceRepos{
		Events:  repositories.NewEventRepository(conn, db.DriverSQLite),
		Records: repositories.NewMatchRecordRepository(conn, db.DriverSQLite),
		Payouts: repositories.NewPayoutRepository(conn, db.DriverSQLite),
		Stats:   repositories.NewPlayerStatsRepository(conn, db.DriverSQLite),
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sink := NewPersistenceSink(conn, repos, logger)
	sink.Attach(h.engine)
	h.eng.sink = events.NewMultiSink(logger, h.rec, sink)

	h.register(testTier(1, 4))
	h.enroll(1, 0, addr(1), addr(2), addr(3), addr(4))
	h.win(h.match(1, 0, 0, 0))
	h.win(h.match(1, 0, 0, 1))
	final := h.match(1, 0, 1, 0)
	champion := h.win(final)
	runnerUp := final.Opponent(champion)

	journal, err := repos.Events.ListByInstance(h.ctx, 1, 0, nil, 0)
	require.NoError(t, err)
	recorded := 0
	for _, ev := range h.rec.Events() {
		if ev.Tier == 1 && ev.Instance == 0 {
			recorded++
		}
	}
	assert.Equal(t, recorded, len(journal))

	records, err := repos.Records.ListByCycle(h.ctx, 1, 0, 0)
	require.NoError(t, err)
	assert.Len(t, records, 6)

	payouts, err := repos.Payouts.ListByCycle(h.ctx, 1, 0, 0)
	require.NoError(t, err)
	assert.Len(t, payouts, 3)

	st, err := repos.Stats.GetByAddress(h.ctx, champion)
	require.NoError(t, err)
	assert.Equal(t, 1, st.TournamentsWon)
	assert.Equal(t, 2, st.MatchesWon)
	assertAmount(t, eth(2520), st.Earnings)

	board, err := repos.Stats.Leaderboard(h.ctx)
	require.NoError(t, err)
	require.Len(t, board, 2)
	assert.Equal(t, champion, board[0].Address)
	assert.Equal(t, runnerUp, board[1].Address)
	assertAmount(t, eth(1080), board[1].Earnings)

	history := NewHistoryService(repos.Events, repos.Records, repos.Payouts)
	cyc, err := history.Cycle(h.ctx, 1, 0, 0)
	require.NoError(t, err)
	assert.Len(t, cyc.Records, 6)
	assert.Len(t, cyc.Payouts, 3)

	mine, err := history.PlayerRecords(h.ctx, champion, 0)
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	_, err = history.Cycle(h.ctx, 1, 0, 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPersistenceSinkKeepsRaffleOutOfInstanceHistory(t *testing.T) {
	h := newHarness(t, EngineConfig{RaffleThresholds: []*big.Int{eth(100)}})
	conn, err := db.Connect(db.DriverSQLite, "file::memory:", time.Second)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, db.Migrate(h.ctx, conn, db.DriverSQLite))

	repos := PersistenceRepos{
		Events:  repositories.NewEventRepository(conn, db.DriverSQLite),
		Records: repositories.NewMatchRecordRepository(conn, db.DriverSQLite),
		Payouts: repositories.NewPayoutRepository(conn, db.DriverSQLite),
		Stats:   repositories.NewPlayerStatsRepository(conn, db.DriverSQLite),
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sink := NewPersistenceSink(conn, repos, logger)
	sink.Attach(h.engine)
	h.eng.sink = events.NewMultiSink(logger, h.rec, sink)

	h.register(testTier(1, 4))
	h.enroll(1, 1, addr(5), addr(6))
	h.enroll(1, 0, addr(1), addr(2), addr(3), addr(4))
	h.win(h.match(1, 0, 0, 0))
	h.win(h.match(1, 0, 0, 1))
	h.win(h.match(1, 0, 1, 0))
	require.Len(t, h.rec.OfType(events.RaffleExecuted), 1)

	history := NewHistoryService(repos.Events, repos.Records, repos.Payouts)
	raffle, err := history.RaffleEvents(h.ctx, 0)
	require.NoError(t, err)
	require.Len(t, raffle, 2)
	for _, ev := range raffle {
		assert.Equal(t, addr(5), ev.Player)
		assertAmount(t, eth(100), ev.Amount)
	}
	assert.Less(t, raffle[0].Seq, raffle[1].Seq)

	for _, key := range []models.InstanceKey{{Tier: 0, Instance: 0}, {Tier: 1, Instance: 0}, {Tier: 1, Instance: 1}} {
		evs, err := history.InstanceEvents(h.ctx, key.Tier, key.Instance, nil, 0)
		require.NoError(t, err)
		for _, ev := range evs {
			assert.NotEqual(t, events.RaffleExecuted, ev.Type)
			assert.NotEqual(t, string(models.PayoutRaffle), ev.Reason)
		}
	}

	cyc, err := history.Cycle(h.ctx, 1, 0, 0)
	require.NoError(t, err)
	assert.Len(t, cyc.Payouts, 3)
}
