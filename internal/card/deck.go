package card

import (
	"fmt"
	"math/rand/v2"
)

// Quick-start hands draw strengths from this range.
const (
	quickMinStrength = 2
	quickMaxStrength = 7
)

// Copies is the rarity curve of the draft pool: stronger cards are scarcer.
func Copies(strength int) int {
	switch {
	case strength <= 5:
		return 6
	case strength <= 8:
		return 4
	default:
		return 3
	}
}

// GenerateDraftPool emits Copies(strength) cards per element and strength and
// shuffles the result. Ids are unique within the returned pool.
func GenerateDraftPool(rng *rand.Rand) []Card {
	pool := make([]Card, 0, PoolSize())
	for _, element := range Elements {
		for strength := MinStrength; strength <= MaxStrength; strength++ {
			for i := 0; i < Copies(strength); i++ {
				pool = append(pool, Card{
					ID:               fmt.Sprintf("%s_%d_%d", element, strength, i),
					Element:          element,
					BaseStrength:     strength,
					ModifiedStrength: strength,
				})
			}
		}
	}
	Shuffle(rng, pool)
	return pool
}

// PoolSize is the number of cards GenerateDraftPool returns.
func PoolSize() int {
	n := 0
	for strength := MinStrength; strength <= MaxStrength; strength++ {
		n += Copies(strength)
	}
	return n * len(Elements)
}

// Shuffle is an in-place Fisher-Yates shuffle.
func Shuffle(rng *rand.Rand, cards []Card) {
	for i := len(cards) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		cards[i], cards[j] = cards[j], cards[i]
	}
}

// MakeHand deals n independent random cards for a quick-start match.
func MakeHand(rng *rand.Rand, n int) []Card {
	if n < 0 {
		n = 0
	}
	hand := make([]Card, 0, n)
	for i := 0; i < n; i++ {
		element := Elements[rng.IntN(len(Elements))]
		strength := quickMinStrength + rng.IntN(quickMaxStrength-quickMinStrength+1)
		hand = append(hand, Card{
			ID:               fmt.Sprintf("card_%d_%s_%d", i, element, strength),
			Element:          element,
			BaseStrength:     strength,
			ModifiedStrength: strength,
		})
	}
	return hand
}

// RemoveAt returns a copy of hand without the card at idx. The input slice is
// never modified.
func RemoveAt(hand []Card, idx int) (Card, []Card, bool) {
	if idx < 0 || idx >= len(hand) {
		return Card{}, hand, false
	}
	out := make([]Card, 0, len(hand)-1)
	out = append(out, hand[:idx]...)
	out = append(out, hand[idx+1:]...)
	return hand[idx], out, true
}

// Strongest returns the index of the card with the highest base strength.
// Ties keep the earliest card. Returns -1 for an empty slice.
func Strongest(cards []Card) int {
	best := -1
	for i, c := range cards {
		if best < 0 || c.BaseStrength > cards[best].BaseStrength {
			best = i
		}
	}
	return best
}
