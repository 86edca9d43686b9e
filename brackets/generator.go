package brackets

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
)

type GenerateRoundParams struct {
	Tier     uint8
	Instance uint8
	Round    uint8
	// Players in seat order. Round 0 gets the enrollment order, later
	// rounds the advancers in match order followed by the carried bye.
	Players []common.Address
}

type Pairing struct {
	MatchNumber uint8
	Player1     common.Address
	Player2     common.Address
}

// RoundPlan is the output of a generator: pairings plus an optional bye.
type RoundPlan struct {
	Pairings []Pairing
	Bye      common.Address
	// Seats is the player order after the bye swap.
	Seats []common.Address
}

func (p RoundPlan) HasBye() bool {
	return p.Bye != (common.Address{})
}

type BracketGenerator interface {
	GenerateRound(ctx context.Context, params GenerateRoundParams) (*RoundPlan, error)

	GetName() string
}
