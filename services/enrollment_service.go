package services

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/Dosada05/tournament-engine/events"
	"github.com/Dosada05/tournament-engine/models"
	"github.com/ethereum/go-ethereum/common"
)

// EnrollmentService covers joining an instance and the enrollment escalation ladder.
type EnrollmentService interface {
	Enroll(ctx context.Context, caller common.Address, tierID, instanceID uint8, value *big.Int) error
	// ForceStart is enrollment level 1.
	ForceStart(ctx context.Context, caller common.Address, tierID, instanceID uint8) error
	// ClaimAbandonedPool is enrollment level 2.
	ClaimAbandonedPool(ctx context.Context, caller common.Address, tierID, instanceID uint8) error
	ResetEnrollmentWindow(ctx context.Context, caller common.Address, tierID, instanceID uint8) error
}

func (e *engine) Enroll(ctx context.Context, caller common.Address, tierID, instanceID uint8, value *big.Int) error {
	return e.write(ctx, "enroll", func(ctx context.Context, t *txn) error {
		if err := checkCaller(caller); err != nil {
			return err
		}
		tier, inst, err := e.loadInstance(tierID, instanceID)
		if err != nil {
			return err
		}
		key := inst.Key()

		if inst.Status != models.StatusEnrolling {
			return ErrNotEnrolling
		}
		if e.store.IsEnrolled(key, caller) {
			return ErrAlreadyEnrolled
		}
		if inst.EnrolledCount >= tier.PlayerCount {
			return ErrInstanceFull
		}
		if value == nil || value.Cmp(tier.EntryFee) != 0 {
			return fmt.Errorf("%w: want %s, got %s", ErrValueMismatch, tier.EntryFee, amountOrZero(value))
		}

		if err := e.ledger.Receive(caller, value); err != nil {
			return fmt.Errorf("receive stake: %w", err)
		}
		e.store.AppendEnrolled(key, caller)
		inst.EnrolledCount++
		inst.PrizePool.Add(inst.PrizePool, value)

		if inst.EnrolledCount == 1 {
			e.openEnrollmentWindow(&inst, tier, t)
		}
		e.store.PutInstance(inst)

		t.emit(events.Event{
			Type:     events.PlayerEnrolled,
			Tier:     tierID,
			Instance: instanceID,
			Cycle:    inst.Cycle,
			Player:   caller,
			Amount:   new(big.Int).Set(value),
			Data:     map[string]int{"enrolled_count": inst.EnrolledCount, "player_count": tier.PlayerCount},
		})

		if inst.EnrolledCount == tier.PlayerCount {
			return e.startTournament(ctx, t, tier, inst, models.ModeFullBracket)
		}
		return nil
	})
}

func (e *engine) openEnrollmentWindow(inst *models.TournamentInstance, tier models.TierConfig, t *txn) {
	esc1 := t.now.Add(tier.Timeouts.EnrollmentWindow)
	inst.EnrollmentTimeout = models.EnrollmentTimeout{
		Escalation1Start: esc1,
		Escalation2Start: esc1.Add(tier.Timeouts.EnrollmentLevel2Delay),
		ActiveEscalation: models.EscalationNone,
	}
}

func (e *engine) ForceStart(ctx context.Context, caller common.Address, tierID, instanceID uint8) error {
	return e.write(ctx, "force_start", func(ctx context.Context, t *txn) error {
		tier, inst, err := e.loadInstance(tierID, instanceID)
		if err != nil {
			return err
		}
		if inst.Status != models.StatusEnrolling {
			return ErrNotEnrolling
		}
		if !e.store.IsEnrolled(inst.Key(), caller) {
			return ErrNotEnrolled
		}
		if inst.EnrolledCount < 2 {
			return ErrNotEnoughEnrolled
		}
		if t.now.Before(inst.EnrollmentTimeout.Escalation1Start) {
			return fmt.Errorf("%w: force start opens at %s", ErrTimerNotElapsed, inst.EnrollmentTimeout.Escalation1Start)
		}

		inst.HasStartedViaTimeout = true
		inst.EnrollmentTimeout.ActiveEscalation = models.EscalationLevel1
		t.emit(events.Event{
			Type:     events.TournamentForceStarted,
			Tier:     tierID,
			Instance: instanceID,
			Cycle:    inst.Cycle,
			Player:   caller,
			Players:  e.store.Enrolled(inst.Key()),
			Amount:   new(big.Int).Set(inst.PrizePool),
			Level:    uint8(models.EscalationLevel1),
		})
		e.logger.InfoContext(ctx, "Tournament force started",
			slog.Int("tier_id", int(tierID)), slog.Int("instance_id", int(instanceID)),
			slog.Int("enrolled", inst.EnrolledCount), slog.String("caller", caller.Hex()))

		return e.startTournament(ctx, t, tier, inst, models.ModeForceStarted)
	})
}

func (e *engine) ClaimAbandonedPool(ctx context.Context, caller common.Address, tierID, instanceID uint8) error {
	return e.write(ctx, "claim_abandoned_pool", func(ctx context.Context, t *txn) error {
		_, inst, err := e.loadInstance(tierID, instanceID)
		if err != nil {
			return err
		}
		if inst.Status != models.StatusEnrolling {
			return ErrNotEnrolling
		}
		if inst.EnrolledCount != 1 {
			return ErrNotLonePlayer
		}
		// снимок до выплаты и сброса
		enrolled := e.store.Enrolled(inst.Key())
		if len(enrolled) != 1 || enrolled[0] != caller {
			return ErrNotEnrolled
		}
		if t.now.Before(inst.EnrollmentTimeout.Escalation2Start) {
			return fmt.Errorf("%w: abandoned pool claim opens at %s", ErrTimerNotElapsed, inst.EnrollmentTimeout.Escalation2Start)
		}

		inst.EnrollmentTimeout.ActiveEscalation = models.EscalationLevel2
		pool := new(big.Int).Set(inst.PrizePool)
		inst.PrizePool.SetInt64(0)
		e.store.PutInstance(inst)

		paid := e.pay(t, inst.Key(), inst.Cycle, caller, pool, models.PayoutAbandoned)
		t.emit(events.Event{
			Type:     events.AbandonedPoolClaimed,
			Tier:     tierID,
			Instance: instanceID,
			Cycle:    inst.Cycle,
			Player:   caller,
			Amount:   pool,
			Level:    uint8(models.EscalationLevel2),
			Data:     map[string]bool{"paid": paid},
		})

		e.resetInstance(ctx, t, inst.Key())
		e.maybeRaffle(ctx, t)
		return nil
	})
}

func (e *engine) ResetEnrollmentWindow(ctx context.Context, caller common.Address, tierID, instanceID uint8) error {
	return e.write(ctx, "reset_enrollment_window", func(ctx context.Context, t *txn) error {
		tier, inst, err := e.loadInstance(tierID, instanceID)
		if err != nil {
			return err
		}
		if inst.Status != models.StatusEnrolling {
			return ErrNotEnrolling
		}
		if inst.EnrolledCount != 1 {
			return ErrNotLonePlayer
		}
		if !e.store.IsEnrolled(inst.Key(), caller) {
			return ErrNotEnrolled
		}
		if t.now.Before(inst.EnrollmentTimeout.Escalation1Start) {
			return fmt.Errorf("%w: window still open until %s", ErrTimerNotElapsed, inst.EnrollmentTimeout.Escalation1Start)
		}

		e.openEnrollmentWindow(&inst, tier, t)
		e.store.PutInstance(inst)
		t.emit(events.Event{
			Type:     events.EnrollmentWindowReset,
			Tier:     tierID,
			Instance: instanceID,
			Cycle:    inst.Cycle,
			Player:   caller,
			Data:     inst.EnrollmentTimeout,
		})
		return nil
	})
}
