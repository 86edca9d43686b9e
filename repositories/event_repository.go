package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Dosada05/tournament-engine/events"
	"github.com/ethereum/go-ethereum/common"
)

var ErrEventExists = errors.New("event already stored")

const (
	scopeInstance = "instance"
	scopeGlobal   = "global"
)

// EventRepository is the append-only journal of published engine events.
type EventRepository interface {
	Append(ctx context.Context, exec SQLExecutor, evs []events.Event) error
	// ListByInstance skips global events even when they carry zero ids.
	ListByInstance(ctx context.Context, tierID, instanceID uint8, cycle *uint64, limit int) ([]events.Event, error)
	ListGlobal(ctx context.Context, limit int) ([]events.Event, error)
}

type sqlEventRepository struct {
	base
}

func NewEventRepository(db *sql.DB, driver string) EventRepository {
	return &sqlEventRepository{base{db: db, driver: driver}}
}

func (r *sqlEventRepository) Append(ctx context.Context, exec SQLExecutor, evs []events.Event) error {
	executor := r.getExecutor(exec)
	query := r.q(`
		INSERT INTO events
			(id, seq, type, scope, tier_id, instance_id, cycle, round, match_id, player, amount, payload, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`)

	for _, ev := range evs {
		payload, err := json.Marshal(ev)
		if err != nil {
			return fmt.Errorf("marshal event %s: %w", ev.ID, err)
		}
		matchID := ""
		if ev.MatchID != (common.Hash{}) {
			matchID = ev.MatchID.Hex()
		}
		player := ""
		if ev.Player != (common.Address{}) {
			player = ev.Player.Hex()
		}
		scope := scopeInstance
		if ev.Global {
			scope = scopeGlobal
		}
		_, err = executor.ExecContext(ctx, query,
			ev.ID,
			int64(ev.Seq),
			string(ev.Type),
			scope,
			int(ev.Tier),
			int(ev.Instance),
			int64(ev.Cycle),
			int(ev.Round),
			matchID,
			player,
			amountString(ev.Amount),
			string(payload),
			ev.At.UTC(),
		)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: %s", ErrEventExists, ev.ID)
			}
			return fmt.Errorf("failed to insert event %s: %w", ev.ID, err)
		}
	}
	return nil
}

func (r *sqlEventRepository) ListByInstance(ctx context.Context, tierID, instanceID uint8, cycle *uint64, limit int) ([]events.Event, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`
		SELECT payload
		FROM events
		WHERE scope = $1 AND tier_id = $2 AND instance_id = $3`)

	args := []interface{}{scopeInstance, int(tierID), int(instanceID)}
	placeholderIndex := 4

	if cycle != nil {
		queryBuilder.WriteString(" AND cycle = $")
		queryBuilder.WriteString(strconv.Itoa(placeholderIndex))
		args = append(args, int64(*cycle))
		placeholderIndex++
	}
	queryBuilder.WriteString(" ORDER BY occurred_at ASC, seq ASC")
	if limit > 0 {
		queryBuilder.WriteString(" LIMIT $")
		queryBuilder.WriteString(strconv.Itoa(placeholderIndex))
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, r.q(queryBuilder.String()), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events for tier %d instance %d: %w", tierID, instanceID, err)
	}
	return scanEvents(rows)
}

func (r *sqlEventRepository) ListGlobal(ctx context.Context, limit int) ([]events.Event, error) {
	query := `
		SELECT payload
		FROM events
		WHERE scope = $1
		ORDER BY occurred_at ASC, seq ASC`
	args := []interface{}{scopeGlobal}
	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, r.q(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query global events: %w", err)
	}
	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]events.Event, error) {
	defer rows.Close()

	out := make([]events.Event, 0)
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan event row: %w", err)
		}
		var ev events.Event
		if err := json.Unmarshal([]byte(payload), &ev); err != nil {
			return nil, fmt.Errorf("failed to decode event payload: %w", err)
		}
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during event rows iteration: %w", err)
	}
	return out, nil
}
