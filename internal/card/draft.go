package card

import (
	"errors"
	"math/rand/v2"
	"slices"
)

var ErrDraftComplete = errors.New("draft complete")
var ErrNotYourPick = errors.New("not your pick")
var ErrNotOffered = errors.New("card not offered")

const (
	DraftPicksPerSide = 20
	DraftOfferSize    = 3
)

// Draft alternates picks from small offers taken off the top of a shuffled
// pool. The human picks freely; the AI always takes the strongest card left
// in the offer. Leftover offered cards are discarded when the next offer is
// dealt.
type Draft struct {
	Pool       []Card `json:"-"`
	Offer      []Card `json:"offer"`
	HumanPicks []Card `json:"humanPicks"`
	AIPicks    []Card `json:"aiPicks"`
	Turn       Side   `json:"turn"`
	Round      int    `json:"round"`
}

func NewDraft(rng *rand.Rand) *Draft {
	d := &Draft{
		Pool:  GenerateDraftPool(rng),
		Turn:  SideHuman,
		Round: 1,
	}
	d.dealOffer()
	return d
}

func (d *Draft) Done() bool {
	return len(d.HumanPicks) >= DraftPicksPerSide && len(d.AIPicks) >= DraftPicksPerSide
}

// PickHuman takes the offered card with the given id.
func (d *Draft) PickHuman(cardID string) (Card, error) {
	if d.Done() {
		return Card{}, ErrDraftComplete
	}
	if d.Turn != SideHuman {
		return Card{}, ErrNotYourPick
	}
	idx := slices.IndexFunc(d.Offer, func(c Card) bool { return c.ID == cardID })
	if idx < 0 {
		return Card{}, ErrNotOffered
	}
	picked, rest, _ := RemoveAt(d.Offer, idx)
	d.Offer = rest
	d.HumanPicks = append(d.HumanPicks, picked)
	d.Turn = SideAI
	return picked, nil
}

// PickAI is greedy by base strength.
func (d *Draft) PickAI() (Card, error) {
	if d.Done() {
		return Card{}, ErrDraftComplete
	}
	if d.Turn != SideAI {
		return Card{}, ErrNotYourPick
	}
	idx := Strongest(d.Offer)
	if idx < 0 {
		// Nothing left in this offer; move on without a pick.
		d.advance()
		return Card{}, ErrNotOffered
	}
	picked, rest, _ := RemoveAt(d.Offer, idx)
	d.Offer = rest
	d.AIPicks = append(d.AIPicks, picked)
	d.advance()
	return picked, nil
}

// Decks returns copies of both decks.
func (d *Draft) Decks() (human, ai []Card) {
	return slices.Clone(d.HumanPicks), slices.Clone(d.AIPicks)
}

func (d *Draft) advance() {
	d.Turn = SideHuman
	d.Round++
	d.dealOffer()
}

func (d *Draft) dealOffer() {
	if d.Done() || len(d.Pool) < DraftOfferSize {
		d.Offer = nil
		return
	}
	d.Offer = slices.Clone(d.Pool[:DraftOfferSize])
	d.Pool = d.Pool[DraftOfferSize:]
}
