package services

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/Dosada05/tournament-engine/events"
	"github.com/Dosada05/tournament-engine/models"
	"github.com/Dosada05/tournament-engine/repositories"
	"github.com/ethereum/go-ethereum/common"
)

// statsReader is the part of the engine the journal needs after a commit.
type statsReader interface {
	GetPlayer(ctx context.Context, addr common.Address) (*PlayerView, error)
	GetLeaderboard(ctx context.Context) ([]models.LeaderboardEntry, error)
}

type PersistenceRepos struct {
	Events  repositories.EventRepository
	Records repositories.MatchRecordRepository
	Payouts repositories.PayoutRepository
	Stats   repositories.PlayerStatsRepository
}

// PersistenceSink writes every published batch in one database transaction:
// the events themselves, the match records and payouts they carry, and fresh
// stats for every player the batch touched.
type PersistenceSink struct {
	db     *sql.DB
	repos  PersistenceRepos
	reader statsReader
	logger *slog.Logger
}

func NewPersistenceSink(db *sql.DB, repos PersistenceRepos, logger *slog.Logger) *PersistenceSink {
	return &PersistenceSink{db: db, repos: repos, logger: logger}
}

// Attach wires the engine in once it exists; the engine itself needs the sink first.
func (s *PersistenceSink) Attach(reader statsReader) {
	s.reader = reader
}

func (s *PersistenceSink) Publish(ctx context.Context, evs []events.Event) error {
	if len(evs) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin journal transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.repos.Events.Append(ctx, tx, evs); err != nil {
		return err
	}

	touched := make(map[common.Address]bool)
	touch := func(addrs ...common.Address) {
		for _, a := range addrs {
			if !isZero(a) {
				touched[a] = true
			}
		}
	}
	earningsChanged := false

	for _, ev := range evs {
		touch(ev.Player)
		touch(ev.Players...)
		switch data := ev.Data.(type) {
		case []models.MatchRecord:
			for i := range data {
				if err := s.repos.Records.Create(ctx, tx, &data[i]); err != nil {
					return err
				}
				touch(data[i].Player)
			}
		case models.Payout:
			if err := s.repos.Payouts.Create(ctx, tx, &data); err != nil {
				return err
			}
			if !data.Failed {
				earningsChanged = true
			}
		}
	}

	if s.reader != nil {
		for addr := range touched {
			view, err := s.reader.GetPlayer(ctx, addr)
			if err != nil {
				return fmt.Errorf("read stats of %s: %w", addr.Hex(), err)
			}
			if err := s.repos.Stats.Upsert(ctx, tx, view.Stats); err != nil {
				return err
			}
		}
		if earningsChanged {
			board, err := s.reader.GetLeaderboard(ctx)
			if err != nil {
				return fmt.Errorf("read leaderboard: %w", err)
			}
			if err := s.repos.Stats.ReplaceLeaderboard(ctx, tx, board); err != nil {
				return err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit journal transaction: %w", err)
	}
	s.logger.DebugContext(ctx, "Events journaled", slog.Int("events", len(evs)), slog.Int("players", len(touched)))
	return nil
}
