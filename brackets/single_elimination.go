package brackets

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/Dosada05/tournament-engine/random"
	"github.com/ethereum/go-ethereum/common"
)

var ErrNotEnoughPlayers = errors.New("not enough players to generate a round (minimum 2)")

type SingleEliminationGenerator struct {
	rng random.Source
}

func NewSingleEliminationGenerator(rng random.Source) BracketGenerator {
	return &SingleEliminationGenerator{rng: rng}
}

func (g *SingleEliminationGenerator) GetName() string {
	return "SingleElimination"
}

// GenerateRound pairs players by position. With an odd field one player,
// chosen by entropy(tier, instance, count) mod n, is swapped to the end and
// sits the round out.
func (g *SingleEliminationGenerator) GenerateRound(ctx context.Context, params GenerateRoundParams) (*RoundPlan, error) {
	n := len(params.Players)
	if n < 2 {
		return nil, ErrNotEnoughPlayers
	}
	if n/2 > math.MaxUint8 {
		return nil, fmt.Errorf("too many players for one round: %d", n)
	}

	seats := make([]common.Address, n)
	copy(seats, params.Players)

	plan := &RoundPlan{}
	if n%2 == 1 {
		idx := g.rng.Intn(n, random.Uint8s(params.Tier, params.Instance), random.Uint64(uint64(n)))
		seats[idx], seats[n-1] = seats[n-1], seats[idx]
		plan.Bye = seats[n-1]
	}

	plan.Pairings = make([]Pairing, 0, n/2)
	for i := 0; i+1 < n; i += 2 {
		plan.Pairings = append(plan.Pairings, Pairing{
			MatchNumber: uint8(i / 2),
			Player1:     seats[i],
			Player2:     seats[i+1],
		})
	}
	plan.Seats = seats
	return plan, nil
}

// RoundShape describes one round of a bracket assuming every match produces a winner.
type RoundShape struct {
	Round   int  `json:"round"`
	Players int  `json:"players"`
	Matches int  `json:"matches"`
	HasBye  bool `json:"has_bye"`
}

// Shape projects the full bracket for n players.
func Shape(n int) []RoundShape {
	if n < 2 {
		return nil
	}
	shapes := make([]RoundShape, 0, RoundsFor(n))
	for r := 0; n >= 2; r++ {
		shapes = append(shapes, RoundShape{Round: r, Players: n, Matches: n / 2, HasBye: n%2 == 1})
		n = n/2 + n%2
	}
	return shapes
}

// RoundsFor returns ceil(log2(n)), the number of rounds a full bracket of n players needs.
func RoundsFor(n int) int {
	if n < 2 {
		return 0
	}
	return int(math.Ceil(math.Log2(float64(n))))
}
