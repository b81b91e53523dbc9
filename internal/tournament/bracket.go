package tournament

import (
	"fmt"
	"math"
	"math/bits"
	"math/rand/v2"

	"github.com/DoyleJ11/card-battle-backend/internal/engine"
	"github.com/gosimple/slug"
)

const roundStep = 0.15

var opponentNames = []string{
	"The Challenger",
	"The Strategist",
	"The Berserker",
	"The Tactician",
	"The Champion",
	"The Mastermind",
	"The Warrior",
	"The Legend",
}

type Slot struct {
	Round     int             `json:"round"`
	Opponent  engine.Opponent `json:"opponent"`
	Completed bool            `json:"completed"`
	Won       bool            `json:"won"`
}

// slotRound is floor(log2(i+2)).
func slotRound(i int) int {
	return bits.Len(uint(i+2)) - 1
}

// GenerateBracket seeds 2^rounds-1 slots.
func GenerateBracket(rng *rand.Rand, rounds int, baseline float64) []Slot {
	n := (1 << rounds) - 1
	bracket := make([]Slot, 0, n)
	for i := 0; i < n; i++ {
		round := slotRound(i)
		bracket = append(bracket, Slot{
			Round:    round,
			Opponent: newOpponent(rng, i, baseline+float64(round)*roundStep),
		})
	}
	return bracket
}

func newOpponent(rng *rand.Rand, idx int, multiplier float64) engine.Opponent {
	name := opponentNames[rng.IntN(len(opponentNames))]
	personality := "balanced"
	if multiplier > 1.0 {
		personality = "aggressive"
	}
	return engine.Opponent{
		ID:                 fmt.Sprintf("%s-%d", slug.Make(name), idx),
		Name:               name,
		StrengthMultiplier: multiplier,
		DeckBonus:          int(math.Floor(multiplier * 2)),
		Personality:        personality,
	}
}
