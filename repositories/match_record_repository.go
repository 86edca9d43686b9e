package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/tournament-engine/models"
	"github.com/ethereum/go-ethereum/common"
)

var ErrMatchRecordExists = errors.New("match record already stored")

type MatchRecordRepository interface {
	Create(ctx context.Context, exec SQLExecutor, rec *models.MatchRecord) error
	ListByPlayer(ctx context.Context, player common.Address, limit int) ([]models.MatchRecord, error)
	ListByCycle(ctx context.Context, tierID, instanceID uint8, cycle uint64) ([]models.MatchRecord, error)
}

type sqlMatchRecordRepository struct {
	base
}

func NewMatchRecordRepository(db *sql.DB, driver string) MatchRecordRepository {
	return &sqlMatchRecordRepository{base{db: db, driver: driver}}
}

const matchRecordColumns = `id, match_id, cycle, tier_id, instance_id, round, match_number,
	player, opponent, replacement, outcome, reason, snapshot, recorded_at`

func (r *sqlMatchRecordRepository) Create(ctx context.Context, exec SQLExecutor, rec *models.MatchRecord) error {
	executor := r.getExecutor(exec)
	snapshot, err := json.Marshal(rec.Snapshot)
	if err != nil {
		return fmt.Errorf("marshal match snapshot: %w", err)
	}
	replacement := ""
	if rec.Replacement != (common.Address{}) {
		replacement = rec.Replacement.Hex()
	}

	query := r.q(`
		INSERT INTO match_records (` + matchRecordColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`)
	_, err = executor.ExecContext(ctx, query,
		rec.ID,
		rec.MatchID.Hex(),
		int64(rec.Cycle),
		int(rec.TierID),
		int(rec.InstanceID),
		int(rec.Round),
		int(rec.MatchNumber),
		rec.Player.Hex(),
		rec.Opponent.Hex(),
		replacement,
		string(rec.Outcome),
		rec.Reason.String(),
		string(snapshot),
		rec.RecordedAt.UTC(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", ErrMatchRecordExists, rec.ID)
		}
		return fmt.Errorf("failed to insert match record %s: %w", rec.ID, err)
	}
	return nil
}

func (r *sqlMatchRecordRepository) ListByPlayer(ctx context.Context, player common.Address, limit int) ([]models.MatchRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	query := r.q(`
		SELECT ` + matchRecordColumns + `
		FROM match_records
		WHERE player = $1
		ORDER BY recorded_at DESC, round DESC, match_number DESC
		LIMIT $2`)
	return r.list(ctx, query, player.Hex(), limit)
}

func (r *sqlMatchRecordRepository) ListByCycle(ctx context.Context, tierID, instanceID uint8, cycle uint64) ([]models.MatchRecord, error) {
	query := r.q(`
		SELECT ` + matchRecordColumns + `
		FROM match_records
		WHERE tier_id = $1 AND instance_id = $2 AND cycle = $3
		ORDER BY round ASC, match_number ASC, recorded_at ASC`)
	return r.list(ctx, query, int(tierID), int(instanceID), int64(cycle))
}

func (r *sqlMatchRecordRepository) list(ctx context.Context, query string, args ...interface{}) ([]models.MatchRecord, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query match records: %w", err)
	}
	defer rows.Close()

	out := make([]models.MatchRecord, 0)
	for rows.Next() {
		rec, err := scanMatchRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during match record rows iteration: %w", err)
	}
	return out, nil
}

func scanMatchRecord(rows *sql.Rows) (models.MatchRecord, error) {
	var (
		rec                                    models.MatchRecord
		matchID, player, opponent, replacement string
		outcome, reason, snapshot              string
		cycle                                  int64
		tierID, instanceID, round, matchNumber int
		recordedAt                             time.Time
	)
	if err := rows.Scan(&rec.ID, &matchID, &cycle, &tierID, &instanceID, &round, &matchNumber,
		&player, &opponent, &replacement, &outcome, &reason, &snapshot, &recordedAt); err != nil {
		return rec, fmt.Errorf("failed to scan match record row: %w", err)
	}
	parsedReason, err := models.ParseCompletionReason(reason)
	if err != nil {
		return rec, err
	}
	if err := json.Unmarshal([]byte(snapshot), &rec.Snapshot); err != nil {
		return rec, fmt.Errorf("failed to decode match snapshot of record %s: %w", rec.ID, err)
	}
	rec.MatchID = common.HexToHash(matchID)
	rec.Cycle = uint64(cycle)
	rec.TierID = uint8(tierID)
	rec.InstanceID = uint8(instanceID)
	rec.Round = uint8(round)
	rec.MatchNumber = uint8(matchNumber)
	rec.Player = common.HexToAddress(player)
	rec.Opponent = common.HexToAddress(opponent)
	if replacement != "" {
		rec.Replacement = common.HexToAddress(replacement)
	}
	rec.Outcome = models.RecordOutcome(outcome)
	rec.Reason = parsedReason
	rec.RecordedAt = recordedAt
	return rec, nil
}
