package models

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// PayoutKind tells which bucket of the pool a payout came from.
type PayoutKind string

const (
	PayoutPrize     PayoutKind = "prize"
	PayoutOwner     PayoutKind = "owner"
	PayoutAbandoned PayoutKind = "abandoned_pool"
	PayoutRaffle    PayoutKind = "raffle"
)

// Payout is a single transfer attempt made by the distributor.
type Payout struct {
	ID         string         `json:"id" db:"id"`
	TierID     uint8          `json:"tier_id" db:"tier_id"`
	InstanceID uint8          `json:"instance_id" db:"instance_id"`
	Cycle      uint64         `json:"cycle" db:"cycle"`
	Recipient  common.Address `json:"recipient" db:"recipient"`
	Amount     *big.Int       `json:"amount" db:"amount"`
	Kind       PayoutKind     `json:"kind" db:"kind"`
	// Failed payouts are rerouted to the protocol pool.
	Failed    bool      `json:"failed" db:"failed"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// RaffleState is the cross-tier protocol accumulator.
type RaffleState struct {
	Accumulated *big.Int `json:"accumulated"`
	Index       uint64   `json:"index"`
}

// ThresholdAt returns the threshold of raffle i; the last entry repeats forever.
func ThresholdAt(thresholds []*big.Int, i uint64) *big.Int {
	if len(thresholds) == 0 {
		return new(big.Int)
	}
	if i >= uint64(len(thresholds)) {
		i = uint64(len(thresholds) - 1)
	}
	return new(big.Int).Set(thresholds[i])
}

// CycleSnapshot captures a finished tournament right before its slot is reset.
type CycleSnapshot struct {
	Instance  TournamentInstance `json:"instance"`
	Players   []common.Address   `json:"players"`
	Rounds    []Round            `json:"rounds"`
	Matches   []Match            `json:"matches"`
	Payouts   []Payout           `json:"payouts"`
	Records   []MatchRecord      `json:"records"`
	Stats     []PlayerStats      `json:"stats"`
	Completed time.Time          `json:"completed_at"`
}
