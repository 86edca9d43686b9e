package state

import (
	"math/big"
	"testing"

	"github.com/Dosada05/tournament-engine/models"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	alice = common.HexToAddress("0xa1")
	bob   = common.HexToAddress("0xb0")
	carol = common.HexToAddress("0xc0")
)

func TestStoreEnrollmentRevert(t *testing.T) {
	s := NewStore()
	key := models.InstanceKey{Tier: 1, Instance: 0}
	s.AppendEnrolled(key, alice)
	s.Commit()

	snap := s.Snapshot()
	s.AppendEnrolled(key, bob)
	s.ReplaceEnrolled(key, bob, carol)
	assert.Equal(t, []common.Address{alice, carol}, s.Enrolled(key))
	assert.False(t, s.IsEnrolled(key, bob))
	assert.True(t, s.WasReplaced(key, bob))

	s.RevertToSnapshot(snap)
	assert.Equal(t, []common.Address{alice}, s.Enrolled(key))
	assert.False(t, s.IsEnrolled(key, carol))
	assert.False(t, s.WasReplaced(key, bob))
	assert.Empty(t, s.Replaced(key))
}

func TestStoreClearEnrollment(t *testing.T) {
	s := NewStore()
	key := models.InstanceKey{Tier: 2, Instance: 1}
	s.AppendEnrolled(key, alice)
	s.AppendEnrolled(key, bob)
	s.ReplaceEnrolled(key, bob, carol)

	s.ClearEnrollment(key)
	assert.Empty(t, s.Enrolled(key))
	for _, p := range []common.Address{alice, bob, carol} {
		assert.False(t, s.IsEnrolled(key, p))
		assert.False(t, s.WasReplaced(key, p))
	}
}

func TestStoreGettersReturnCopies(t *testing.T) {
	s := NewStore()
	inst := models.NewInstance(1, 0, 0)
	inst.PrizePool = big.NewInt(10)
	s.PutInstance(inst)

	got, ok := s.Instance(inst.Key())
	require.True(t, ok)
	got.PrizePool.SetInt64(99)

	again, _ := s.Instance(inst.Key())
	assert.Equal(t, int64(10), again.PrizePool.Int64())
}

func TestStoreRecordsRevert(t *testing.T) {
	s := NewStore()
	s.AppendRecord(models.MatchRecord{Player: alice, Cycle: 0, TierID: 1})
	s.Commit()

	snap := s.Snapshot()
	s.AppendRecord(models.MatchRecord{Player: alice, Cycle: 0, TierID: 1})
	s.AppendRecord(models.MatchRecord{Player: bob, Cycle: 0, TierID: 1})
	assert.Len(t, s.PlayerRecords(alice), 2)

	s.RevertToSnapshot(snap)
	assert.Len(t, s.PlayerRecords(alice), 1)
	assert.Empty(t, s.PlayerRecords(bob))
	assert.Len(t, s.CycleRecords(models.InstanceKey{Tier: 1}, 0), 1)
}

func TestStoreLeaderboardMembership(t *testing.T) {
	s := NewStore()
	s.SetLeaderboard([]common.Address{alice, bob})
	assert.True(t, s.OnLeaderboard(bob))

	s.SetLeaderboard([]common.Address{carol, alice})
	assert.False(t, s.OnLeaderboard(bob))
	assert.True(t, s.OnLeaderboard(carol))
	assert.Equal(t, []common.Address{carol, alice}, s.Leaderboard())
}

func TestStoreRaffleDefaults(t *testing.T) {
	s := NewStore()
	r := s.Raffle()
	require.NotNil(t, r.Accumulated)
	assert.Zero(t, r.Accumulated.Sign())

	s.SetRaffle(models.RaffleState{Accumulated: big.NewInt(5), Index: 2})
	r = s.Raffle()
	r.Accumulated.SetInt64(1)
	assert.Equal(t, int64(5), s.Raffle().Accumulated.Int64())
	assert.Equal(t, uint64(2), s.Raffle().Index)
}
