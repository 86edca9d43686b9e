package connectfour

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/Dosada05/tournament-engine/game"
	"github.com/Dosada05/tournament-engine/random"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	p1 = common.HexToAddress("0x01")
	p2 = common.HexToAddress("0x02")
	p3 = common.HexToAddress("0x03")

	matchID = common.HexToHash("0xabc")
	start   = time.Unix(1_700_000_000, 0)
)

// firstMover always hands the first move to player1.
var firstMover = random.Func(func(int, ...[]byte) int { return 0 })

func newMatch(t *testing.T) *Module {
	t.Helper()
	g := New(firstMover)
	require.NoError(t, g.CreateMatch(context.Background(), game.Setup{
		Ref:       game.Ref{ID: matchID},
		Player1:   p1,
		Player2:   p2,
		TimeBank:  time.Minute,
		Increment: 5 * time.Second,
		StartedAt: start,
	}))
	return g
}

func play(t *testing.T, g *Module, at time.Time, cols ...int) game.Result {
	t.Helper()
	var res game.Result
	for i, c := range cols {
		mover, err := g.CurrentMover(matchID)
		require.NoError(t, err)
		res, err = g.ApplyMove(context.Background(), matchID, mover, Column(c), at.Add(time.Duration(i)*time.Second))
		require.NoError(t, err, "move %d col %d", i, c)
	}
	return res
}

func TestVerticalWin(t *testing.T) {
	g := newMatch(t)
	res := play(t, g, start, 0, 1, 0, 1, 0, 1, 0)

	assert.True(t, res.Finished)
	assert.Equal(t, p1, res.Winner)
	assert.False(t, g.IsMatchActive(matchID))

	_, err := g.ApplyMove(context.Background(), matchID, p2, Column(1), start.Add(time.Minute))
	assert.ErrorIs(t, err, game.ErrMatchOver)
}

func TestDiagonalWin(t *testing.T) {
	g := newMatch(t)
	// X: 0,1,2,3 rising diagonal
	res := play(t, g, start, 0, 1, 1, 2, 2, 3, 2, 3, 3, 6, 3)
	assert.True(t, res.Finished)
	assert.Equal(t, p1, res.Winner)
}

func TestMoveValidation(t *testing.T) {
	g := newMatch(t)
	ctx := context.Background()

	_, err := g.ApplyMove(ctx, matchID, p2, Column(0), start)
	assert.ErrorIs(t, err, game.ErrNotYourTurn)

	_, err = g.ApplyMove(ctx, matchID, p1, Column(7), start)
	assert.ErrorIs(t, err, game.ErrIllegalMove)

	_, err = g.ApplyMove(ctx, matchID, p1, json.RawMessage(`{"column":`), start)
	assert.ErrorIs(t, err, game.ErrIllegalMove)

	play(t, g, start, 0, 0, 0, 0, 0, 0)
	_, err = g.ApplyMove(ctx, matchID, p1, Column(0), start.Add(10*time.Second))
	assert.ErrorIs(t, err, game.ErrIllegalMove)

	_, err = g.ApplyMove(ctx, common.HexToHash("0x1"), p1, Column(0), start)
	assert.ErrorIs(t, err, game.ErrUnknownMatch)
}

func TestClockAndTimeout(t *testing.T) {
	g := newMatch(t)

	deadline, err := g.MoverDeadline(matchID)
	require.NoError(t, err)
	assert.Equal(t, start.Add(time.Minute), deadline)
	assert.False(t, g.HasCurrentPlayerTimedOut(matchID, start.Add(59*time.Second)))
	assert.True(t, g.HasCurrentPlayerTimedOut(matchID, deadline))

	_, err = g.ApplyMove(context.Background(), matchID, p1, Column(3), deadline)
	assert.ErrorIs(t, err, game.ErrTimedOut)
	assert.Equal(t, 5*time.Second, g.TimeIncrement(matchID))
}

func TestResetClearsHistoryAndPositions(t *testing.T) {
	g := newMatch(t)
	play(t, g, start, 3, 3)
	b, _ := g.Board(matchID)
	assert.Equal(t, 1, g.PositionCount(matchID, b))
	assert.Len(t, g.History(matchID), 2)

	require.NoError(t, g.ResetMatch(context.Background(), matchID))
	assert.Zero(t, g.PositionCount(matchID, b))
	assert.ErrorIs(t, g.ResetMatch(context.Background(), matchID), game.ErrUnknownMatch)

	require.NoError(t, g.CreateMatch(context.Background(), game.Setup{
		Ref: game.Ref{ID: matchID}, Player1: p1, Player2: p2, TimeBank: time.Minute, StartedAt: start,
	}))
	fresh, _ := g.Board(matchID)
	assert.Equal(t, Board{}, fresh)
	assert.Empty(t, g.History(matchID))
	assert.Zero(t, g.PositionCount(matchID, b))
}

func TestReplacePlayerGetsFreshBank(t *testing.T) {
	g := newMatch(t)
	late := start.Add(2 * time.Minute)
	require.True(t, g.HasCurrentPlayerTimedOut(matchID, late))

	require.NoError(t, g.ReplacePlayer(context.Background(), matchID, p1, p3, late))
	mover, _ := g.CurrentMover(matchID)
	assert.Equal(t, p3, mover)
	assert.False(t, g.HasCurrentPlayerTimedOut(matchID, late))

	_, err := g.ApplyMove(context.Background(), matchID, p3, Column(2), late.Add(time.Second))
	assert.NoError(t, err)

	assert.Error(t, g.ReplacePlayer(context.Background(), matchID, p1, p3, late))
}

func TestJournalRevert(t *testing.T) {
	g := newMatch(t)
	g.Commit()

	snap := g.Snapshot()
	play(t, g, start, 4)
	require.NoError(t, g.ResetMatch(context.Background(), matchID))
	g.RevertToSnapshot(snap)

	assert.True(t, g.IsMatchActive(matchID))
	assert.Empty(t, g.History(matchID))
	b, _ := g.Board(matchID)
	assert.Equal(t, Board{}, b)
}

func TestCreateMatchRejectsBadPlayers(t *testing.T) {
	g := New(firstMover)
	err := g.CreateMatch(context.Background(), game.Setup{Ref: game.Ref{ID: matchID}, Player1: p1, Player2: p1})
	assert.Error(t, err)

	g = newMatch(t)
	err = g.CreateMatch(context.Background(), game.Setup{Ref: game.Ref{ID: matchID}, Player1: p1, Player2: p2})
	assert.ErrorIs(t, err, game.ErrMatchExists)
}
