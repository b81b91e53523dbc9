// Package combo tracks consecutive same-element plays per side.
package combo

import "github.com/DoyleJ11/card-battle-backend/internal/card"

type Tier string

const (
	TierNone   Tier = ""
	TierSmall  Tier = "SMALL"
	TierMedium Tier = "MEDIUM"
	TierLarge  Tier = "LARGE"
	TierMega   Tier = "MEGA"
)

type Bonus struct {
	Tier          Tier
	MinStreak     int
	StrengthBonus int
	ScoreBonus    int
	Label         string
}

// Bonuses is ordered highest threshold first; lookup takes the first match.
var Bonuses = []Bonus{
	{Tier: TierMega, MinStreak: 5, StrengthBonus: 5, ScoreBonus: 5, Label: "ULTRA COMBO x5+!"},
	{Tier: TierLarge, MinStreak: 4, StrengthBonus: 3, ScoreBonus: 3, Label: "Mega Combo x4!"},
	{Tier: TierMedium, MinStreak: 3, StrengthBonus: 2, ScoreBonus: 2, Label: "Combo x3!"},
	{Tier: TierSmall, MinStreak: 2, StrengthBonus: 1, ScoreBonus: 1, Label: "Combo x2!"},
}

// BonusFor returns the bonus for a streak length, ok=false below two.
func BonusFor(streak int) (Bonus, bool) {
	for _, b := range Bonuses {
		if streak >= b.MinStreak {
			return b, true
		}
	}
	return Bonus{}, false
}

type State struct {
	Element card.Element `json:"element,omitempty"`
	Streak  int          `json:"streak"`
}

type Result struct {
	Active        bool         `json:"active"`
	Streak        int          `json:"streak"`
	Element       card.Element `json:"element"`
	Tier          Tier         `json:"tier,omitempty"`
	StrengthBonus int          `json:"strengthBonus"`
	ScoreBonus    int          `json:"scoreBonus"`
	Label         string       `json:"label,omitempty"`
}

// Tracker holds one State per side. The zero value is ready to use and is
// safe to copy, so it can live inside a match snapshot.
type Tracker struct {
	Human State `json:"human"`
	AI    State `json:"ai"`
}

func (t *Tracker) state(side card.Side) *State {
	if side == card.SideAI {
		return &t.AI
	}
	return &t.Human
}

// RecordPlay extends or restarts the side's streak and reports the bonus of
// the new streak.
func (t *Tracker) RecordPlay(side card.Side, element card.Element) Result {
	st := t.state(side)
	if st.Streak > 0 && st.Element == element {
		st.Streak++
	} else {
		st.Element = element
		st.Streak = 1
	}

	res := Result{Streak: st.Streak, Element: element}
	if b, ok := BonusFor(st.Streak); ok {
		res.Active = true
		res.Tier = b.Tier
		res.StrengthBonus = b.StrengthBonus
		res.ScoreBonus = b.ScoreBonus
		res.Label = b.Label
	}
	return res
}

func (t *Tracker) Status(side card.Side) State {
	return *t.state(side)
}

func (t *Tracker) Reset(side card.Side) {
	*t.state(side) = State{}
}

func (t *Tracker) ResetAll() {
	t.Reset(card.SideHuman)
	t.Reset(card.SideAI)
}
