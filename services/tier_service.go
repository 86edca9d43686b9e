package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Dosada05/tournament-engine/events"
	"github.com/Dosada05/tournament-engine/models"
)

type TierService interface {
	RegisterTier(ctx context.Context, cfg models.TierConfig) error
	GetTier(ctx context.Context, tierID uint8) (models.TierConfig, error)
	ListTiers(ctx context.Context) ([]models.TierConfig, error)
}

func (e *engine) RegisterTier(ctx context.Context, cfg models.TierConfig) error {
	return e.write(ctx, "register_tier", func(ctx context.Context, t *txn) error {
		if _, exists := e.store.Tier(cfg.TierID); exists {
			return fmt.Errorf("%w: tier %d", ErrTierExists, cfg.TierID)
		}
		if err := validateTierConfig(cfg); err != nil {
			return err
		}

		e.store.PutTier(cfg)
		for i := 0; i < cfg.InstanceCount; i++ {
			inst := models.NewInstance(cfg.TierID, uint8(i), 0)
			e.store.PutInstance(inst)
			t.emit(events.Event{
				Type:     events.TournamentInitialized,
				Tier:     cfg.TierID,
				Instance: uint8(i),
				Amount:   amountOrZero(cfg.EntryFee),
				Data:     cfg.Clone(),
			})
		}

		e.logger.InfoContext(ctx, "Tier registered",
			slog.Int("tier_id", int(cfg.TierID)),
			slog.Int("player_count", cfg.PlayerCount),
			slog.Int("instance_count", cfg.InstanceCount),
			slog.String("entry_fee", cfg.EntryFee.String()))
		return nil
	})
}

func validateTierConfig(cfg models.TierConfig) error {
	if cfg.PlayerCount < 2 || cfg.PlayerCount > MaxPlayerCount {
		return fmt.Errorf("%w: player count must be between 2 and %d, got %d", ErrInvalidTierConfig, MaxPlayerCount, cfg.PlayerCount)
	}
	if cfg.InstanceCount < 1 || cfg.InstanceCount > MaxInstanceCount {
		return fmt.Errorf("%w: instance count must be between 1 and %d, got %d", ErrInvalidTierConfig, MaxInstanceCount, cfg.InstanceCount)
	}
	if cfg.EntryFee == nil || cfg.EntryFee.Sign() <= 0 {
		return fmt.Errorf("%w: entry fee must be positive", ErrInvalidTierConfig)
	}
	if len(cfg.PrizeShares) == 0 || cfg.SharesTotal() != models.BasisPoints {
		return fmt.Errorf("%w: prize shares must sum to %d bps, got %d", ErrInvalidTierConfig, models.BasisPoints, cfg.SharesTotal())
	}
	to := cfg.Timeouts
	if to.MatchTimePerPlayer <= 0 || to.EnrollmentWindow <= 0 {
		return fmt.Errorf("%w: match time per player and enrollment window must be positive", ErrInvalidTierConfig)
	}
	if to.TimeIncrement < 0 || to.MatchLevel2Delay < 0 || to.MatchLevel3Delay < 0 || to.EnrollmentLevel2Delay < 0 {
		return fmt.Errorf("%w: timeouts must not be negative", ErrInvalidTierConfig)
	}
	return nil
}

func (e *engine) GetTier(ctx context.Context, tierID uint8) (models.TierConfig, error) {
	defer e.read(ctx)()
	return e.loadTier(tierID)
}

func (e *engine) ListTiers(ctx context.Context) ([]models.TierConfig, error) {
	defer e.read(ctx)()
	return e.store.Tiers(), nil
}
