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

var ErrPayoutExists = errors.New("payout already stored")

type PayoutRepository interface {
	Create(ctx context.Context, exec SQLExecutor, p *models.Payout) error
	ListByRecipient(ctx context.Context, recipient common.Address) ([]models.Payout, error)
	ListByCycle(ctx context.Context, tierID, instanceID uint8, cycle uint64) ([]models.Payout, error)
}

type sqlPayoutRepository struct {
	base
}

func NewPayoutRepository(db *sql.DB, driver string) PayoutRepository {
	return &sqlPayoutRepository{base{db: db, driver: driver}}
}

const payoutColumns = `id, tier_id, instance_id, cycle, recipient, amount, kind, failed, created_at`

func (r *sqlPayoutRepository) Create(ctx context.Context, exec SQLExecutor, p *models.Payout) error {
	executor := r.getExecutor(exec)
	query := r.q(`
		INSERT INTO payouts (` + payoutColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`)
	_, err := executor.ExecContext(ctx, query,
		p.ID,
		int(p.TierID),
		int(p.InstanceID),
		int64(p.Cycle),
		p.Recipient.Hex(),
		amountString(p.Amount),
		string(p.Kind),
		p.Failed,
		p.CreatedAt.UTC(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", ErrPayoutExists, p.ID)
		}
		return fmt.Errorf("failed to insert payout %s: %w", p.ID, err)
	}
	return nil
}

func (r *sqlPayoutRepository) ListByRecipient(ctx context.Context, recipient common.Address) ([]models.Payout, error) {
	query := r.q(`SELECT ` + payoutColumns + ` FROM payouts WHERE recipient = $1 ORDER BY created_at DESC`)
	return r.list(ctx, query, recipient.Hex())
}

func (r *sqlPayoutRepository) ListByCycle(ctx context.Context, tierID, instanceID uint8, cycle uint64) ([]models.Payout, error) {
	query := r.q(`
		SELECT ` + payoutColumns + `
		FROM payouts
		WHERE tier_id = $1 AND instance_id = $2 AND cycle = $3 AND kind <> 'raffle'
		ORDER BY created_at ASC`)
	return r.list(ctx, query, int(tierID), int(instanceID), int64(cycle))
}

func (r *sqlPayoutRepository) list(ctx context.Context, query string, args ...interface{}) ([]models.Payout, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query payouts: %w", err)
	}
	defer rows.Close()

	out := make([]models.Payout, 0)
	for rows.Next() {
		var (
			p                  models.Payout
			tierID, instanceID int
			cycle              int64
			recipient, amount  string
			kind               string
			createdAt          time.Time
		)
		if err := rows.Scan(&p.ID, &tierID, &instanceID, &cycle, &recipient, &amount, &kind, &p.Failed, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan payout row: %w", err)
		}
		if p.Amount, err = parseAmount(amount); err != nil {
			return nil, err
		}
		p.TierID = uint8(tierID)
		p.InstanceID = uint8(instanceID)
		p.Cycle = uint64(cycle)
		p.Recipient = common.HexToAddress(recipient)
		p.Kind = models.PayoutKind(kind)
		p.CreatedAt = createdAt
		out = append(out, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during payout rows iteration: %w", err)
	}
	return out, nil
}
