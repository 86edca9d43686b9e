package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/tournament-engine/models"
	"github.com/ethereum/go-ethereum/common"
)

var ErrPlayerStatsNotFound = errors.New("player stats not found")

// PlayerStatsRepository mirrors the engine's player counters and the
// bounded leaderboard for reporting.
type PlayerStatsRepository interface {
	Upsert(ctx context.Context, exec SQLExecutor, st models.PlayerStats) error
	GetByAddress(ctx context.Context, addr common.Address) (*models.PlayerStats, error)
	ReplaceLeaderboard(ctx context.Context, exec SQLExecutor, entries []models.LeaderboardEntry) error
	Leaderboard(ctx context.Context) ([]models.LeaderboardEntry, error)
}

type sqlPlayerStatsRepository struct {
	base
}

func NewPlayerStatsRepository(db *sql.DB, driver string) PlayerStatsRepository {
	return &sqlPlayerStatsRepository{base{db: db, driver: driver}}
}

func (r *sqlPlayerStatsRepository) Upsert(ctx context.Context, exec SQLExecutor, st models.PlayerStats) error {
	executor := r.getExecutor(exec)
	query := r.q(`
		INSERT INTO player_stats
			(address, earnings, tournaments_played, tournaments_won, matches_won, matches_lost, matches_drawn, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (address) DO UPDATE SET
			earnings = excluded.earnings,
			tournaments_played = excluded.tournaments_played,
			tournaments_won = excluded.tournaments_won,
			matches_won = excluded.matches_won,
			matches_lost = excluded.matches_lost,
			matches_drawn = excluded.matches_drawn,
			updated_at = excluded.updated_at`)
	_, err := executor.ExecContext(ctx, query,
		st.Address.Hex(),
		amountString(st.Earnings),
		st.TournamentsPlayed,
		st.TournamentsWon,
		st.MatchesWon,
		st.MatchesLost,
		st.MatchesDrawn,
		st.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert stats of %s: %w", st.Address.Hex(), err)
	}
	return nil
}

func (r *sqlPlayerStatsRepository) GetByAddress(ctx context.Context, addr common.Address) (*models.PlayerStats, error) {
	query := r.q(`
		SELECT earnings, tournaments_played, tournaments_won, matches_won, matches_lost, matches_drawn, updated_at
		FROM player_stats
		WHERE address = $1`)

	st := models.NewPlayerStats(addr)
	var (
		earnings  string
		updatedAt time.Time
	)
	err := r.db.QueryRowContext(ctx, query, addr.Hex()).Scan(
		&earnings,
		&st.TournamentsPlayed,
		&st.TournamentsWon,
		&st.MatchesWon,
		&st.MatchesLost,
		&st.MatchesDrawn,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPlayerStatsNotFound
		}
		return nil, fmt.Errorf("failed to scan stats of %s: %w", addr.Hex(), err)
	}
	if st.Earnings, err = parseAmount(earnings); err != nil {
		return nil, err
	}
	st.UpdatedAt = updatedAt
	return &st, nil
}

// ReplaceLeaderboard swaps the stored ranking for entries. Pass a transaction
// as exec to make the swap atomic.
func (r *sqlPlayerStatsRepository) ReplaceLeaderboard(ctx context.Context, exec SQLExecutor, entries []models.LeaderboardEntry) error {
	executor := r.getExecutor(exec)
	if _, err := executor.ExecContext(ctx, `DELETE FROM leaderboard`); err != nil {
		return fmt.Errorf("failed to clear leaderboard: %w", err)
	}
	query := r.q(`INSERT INTO leaderboard (rank, address, earnings) VALUES ($1, $2, $3)`)
	for _, e := range entries {
		if _, err := executor.ExecContext(ctx, query, e.Rank, e.Address.Hex(), amountString(e.Earnings)); err != nil {
			return fmt.Errorf("failed to insert leaderboard rank %d: %w", e.Rank, err)
		}
	}
	return nil
}

func (r *sqlPlayerStatsRepository) Leaderboard(ctx context.Context) ([]models.LeaderboardEntry, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT rank, address, earnings FROM leaderboard ORDER BY rank ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard: %w", err)
	}
	defer rows.Close()

	out := make([]models.LeaderboardEntry, 0)
	for rows.Next() {
		var (
			e                 models.LeaderboardEntry
			address, earnings string
		)
		if err := rows.Scan(&e.Rank, &address, &earnings); err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard row: %w", err)
		}
		if e.Earnings, err = parseAmount(earnings); err != nil {
			return nil, err
		}
		e.Address = common.HexToAddress(address)
		out = append(out, e)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during leaderboard rows iteration: %w", err)
	}
	return out, nil
}
