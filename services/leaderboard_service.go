package services

import (
	"math/big"
	"sort"

	"github.com/Dosada05/tournament-engine/models"
	"github.com/ethereum/go-ethereum/common"
)

// creditEarnings adds a payout to the player's totals and keeps the
// bounded leaderboard ranked by earnings.
func (e *engine) creditEarnings(t *txn, addr common.Address, amount *big.Int) {
	e.updateStats(addr, func(st *models.PlayerStats) {
		st.Earnings.Add(st.Earnings, amount)
		st.UpdatedAt = t.now
	})
	e.updateLeaderboard(addr)
}

func (e *engine) updateLeaderboard(addr common.Address) {
	board := e.store.Leaderboard()
	if !e.store.OnLeaderboard(addr) {
		if len(board) < e.cfg.LeaderboardSize {
			board = append(board, addr)
		} else {
			lowest := len(board) - 1
			if e.earnings(addr).Cmp(e.earnings(board[lowest])) <= 0 {
				return
			}
			board[lowest] = addr
		}
	}

	earnings := make(map[common.Address]*big.Int, len(board))
	for _, a := range board {
		earnings[a] = e.earnings(a)
	}
	sort.SliceStable(board, func(i, j int) bool {
		return earnings[board[i]].Cmp(earnings[board[j]]) > 0
	})
	e.store.SetLeaderboard(board)
}

func (e *engine) earnings(addr common.Address) *big.Int {
	st, _ := e.store.Stats(addr)
	return st.Earnings
}

func (e *engine) leaderboardEntries() []models.LeaderboardEntry {
	board := e.store.Leaderboard()
	out := make([]models.LeaderboardEntry, 0, len(board))
	for i, a := range board {
		out = append(out, models.LeaderboardEntry{Rank: i + 1, Address: a, Earnings: e.earnings(a)})
	}
	return out
}
