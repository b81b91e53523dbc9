package effects

import "github.com/DoyleJ11/card-battle-backend/internal/card"

type Target string

const (
	TargetSelf     Target = "self"
	TargetOpponent Target = "opponent"
)

type Ability struct {
	Target   Target
	Type     Type
	Value    int
	Duration int
}

// Abilities are triggered by the element of a played card when element
// abilities are enabled for the match.
var Abilities = map[card.Element][]Ability{
	card.ElementFire:        {{TargetOpponent, Burn, 2, 3}},
	card.ElementIce:         {{TargetOpponent, Freeze, 1, 1}, {TargetOpponent, Weakness, 2, 2}},
	card.ElementWater:       {{TargetOpponent, Vulnerability, 2, 3}},
	card.ElementElectricity: {{TargetOpponent, Confusion, 1, 2}},
	card.ElementEarth:       {{TargetSelf, DrawPower, 1, 2}},
	card.ElementPower:       {{TargetSelf, StrengthBoost, 2, 2}},
	card.ElementTechnology:  {{TargetSelf, Shield, 5, 5}, {TargetOpponent, Silence, 1, 2}},
	card.ElementMeteor:      {{TargetOpponent, Fatigue, 1, 3}},
	card.ElementLight:       {{TargetSelf, Regeneration, 2, 4}, {TargetSelf, Piercing, 1, 3}},
	card.ElementDark:        {{TargetOpponent, Curse, 2, 3}, {TargetOpponent, Poison, 1, 4}},
}

type Applied struct {
	Target Target
	Effect Effect
}

// Trigger applies the abilities of element unless self is silenced. It
// returns the updated ledgers and what was applied to whom.
func Trigger(element card.Element, self, opponent Ledger) (Ledger, Ledger, []Applied) {
	if self.Has(Silence) {
		return self, opponent, nil
	}
	return Grant(element, self, opponent)
}

// Grant applies the abilities of element without checking for silence.
func Grant(element card.Element, self, opponent Ledger) (Ledger, Ledger, []Applied) {
	var applied []Applied
	for _, a := range Abilities[element] {
		e := New(a.Type, a.Value, a.Duration, "")
		if a.Target == TargetSelf {
			self = self.Apply(e)
		} else {
			opponent = opponent.Apply(e)
		}
		applied = append(applied, Applied{Target: a.Target, Effect: e})
	}
	return self, opponent, applied
}
