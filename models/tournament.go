package models

import (
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// TournamentStatus is the lifecycle phase of an instance slot.
type TournamentStatus uint8

const (
	StatusEnrolling TournamentStatus = iota
	StatusInProgress
	StatusCompleted
)

func (s TournamentStatus) String() string {
	switch s {
	case StatusEnrolling:
		return "enrolling"
	case StatusInProgress:
		return "in_progress"
	case StatusCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

func (s TournamentStatus) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *TournamentStatus) UnmarshalText(text []byte) error {
	for v := StatusEnrolling; v <= StatusCompleted; v++ {
		if v.String() == string(text) {
			*s = v
			return nil
		}
	}
	return fmt.Errorf("unknown tournament status %q", text)
}

// TournamentMode tells how an instance left enrollment.
type TournamentMode uint8

const (
	ModeFullBracket TournamentMode = iota
	ModeForceStarted
)

// EscalationLevel is shared by the enrollment and the match ladders.
type EscalationLevel uint8

const (
	EscalationNone EscalationLevel = iota
	EscalationLevel1
	EscalationLevel2
	EscalationLevel3
)

func (l EscalationLevel) String() string {
	switch l {
	case EscalationLevel1:
		return "level1"
	case EscalationLevel2:
		return "level2"
	case EscalationLevel3:
		return "level3"
	default:
		return "none"
	}
}

func (l EscalationLevel) MarshalText() ([]byte, error) { return []byte(l.String()), nil }

func (l *EscalationLevel) UnmarshalText(text []byte) error {
	for v := EscalationNone; v <= EscalationLevel3; v++ {
		if v.String() == string(text) {
			*l = v
			return nil
		}
	}
	return fmt.Errorf("unknown escalation level %q", text)
}

// EnrollmentTimeout marks when each enrollment escalation becomes available.
type EnrollmentTimeout struct {
	Escalation1Start time.Time       `json:"escalation1_start"`
	Escalation2Start time.Time       `json:"escalation2_start"`
	ActiveEscalation EscalationLevel `json:"active_escalation"`
}

// InstanceKey addresses one tournament slot.
type InstanceKey struct {
	Tier     uint8 `json:"tier_id"`
	Instance uint8 `json:"instance_id"`
}

// RoundKey addresses one round of one slot.
type RoundKey struct {
	Tier     uint8 `json:"tier_id"`
	Instance uint8 `json:"instance_id"`
	Round    uint8 `json:"round"`
}

// TournamentInstance is one reusable tournament slot of a tier.
type TournamentInstance struct {
	TierID               uint8             `json:"tier_id"`
	InstanceID           uint8             `json:"instance_id"`
	Status               TournamentStatus  `json:"status"`
	Mode                 TournamentMode    `json:"mode"`
	CurrentRound         uint8             `json:"current_round"`
	EnrolledCount        int               `json:"enrolled_count"`
	PrizePool            *big.Int          `json:"prize_pool"`
	StartTime            time.Time         `json:"start_time"`
	Winner               common.Address    `json:"winner"`
	CoWinners            []common.Address  `json:"co_winners,omitempty"`
	AllDrawResolution    bool              `json:"all_draw_resolution"`
	AllDrawRound         uint8             `json:"all_draw_round"`
	EnrollmentTimeout    EnrollmentTimeout `json:"enrollment_timeout"`
	HasStartedViaTimeout bool              `json:"has_started_via_timeout"`
	// Cycle counts completed tournaments in this slot.
	Cycle uint64 `json:"cycle"`
}

// NewInstance returns the empty shape of a slot. Reset and creation must agree on it.
func NewInstance(tier, instance uint8, cycle uint64) TournamentInstance {
	return TournamentInstance{
		TierID:     tier,
		InstanceID: instance,
		Status:     StatusEnrolling,
		PrizePool:  new(big.Int),
		Cycle:      cycle,
	}
}

// Key returns the composite key of the slot.
func (t TournamentInstance) Key() InstanceKey {
	return InstanceKey{Tier: t.TierID, Instance: t.InstanceID}
}

// Clone deep-copies the pointer and slice fields.
func (t TournamentInstance) Clone() TournamentInstance {
	c := t
	if t.PrizePool != nil {
		c.PrizePool = new(big.Int).Set(t.PrizePool)
	}
	c.CoWinners = append([]common.Address(nil), t.CoWinners...)
	return c
}
