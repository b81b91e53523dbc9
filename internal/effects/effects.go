// Package effects models timed buffs and debuffs attached to one side of a
// match.
package effects

import (
	"fmt"
	"slices"
	"strings"

	"github.com/DoyleJ11/card-battle-backend/internal/card"
	"github.com/google/uuid"
)

type Type string

const (
	StrengthBoost  Type = "STRENGTH_BOOST"
	Shield         Type = "SHIELD"
	DoubleStrike   Type = "DOUBLE_STRIKE"
	Regeneration   Type = "REGENERATION"
	ElementMastery Type = "ELEMENT_MASTERY"
	DrawPower      Type = "DRAW_POWER"
	TurnExtension  Type = "TURN_EXTENSION"
	Piercing       Type = "PIERCING"
	CriticalHit    Type = "CRITICAL_HIT"

	Weakness      Type = "WEAKNESS"
	Burn          Type = "BURN"
	Freeze        Type = "FREEZE"
	Confusion     Type = "CONFUSION"
	Silence       Type = "SILENCE"
	Fatigue       Type = "FATIGUE"
	Curse         Type = "CURSE"
	Poison        Type = "POISON"
	Vulnerability Type = "VULNERABILITY"
)

type Kind string

const (
	KindBuff   Kind = "buff"
	KindDebuff Kind = "debuff"
)

// Definition is the presentation metadata of an effect type. Description is
// a template with {value}, {duration} and {element} placeholders.
type Definition struct {
	Kind        Kind   `json:"type"`
	Icon        string `json:"icon"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type Catalog map[Type]Definition

var DefaultCatalog = Catalog{
	StrengthBoost:  {Kind: KindBuff, Icon: "💪", Name: "Strength Boost", Description: "+{value} strength for {duration} turns"},
	Shield:         {Kind: KindBuff, Icon: "🛡️", Name: "Shield", Description: "Absorb next {value} damage"},
	DoubleStrike:   {Kind: KindBuff, Icon: "⚔️", Name: "Double Strike", Description: "Play 2 cards this turn"},
	Regeneration:   {Kind: KindBuff, Icon: "💚", Name: "Regeneration", Description: "+{value} score each turn for {duration} turns"},
	ElementMastery: {Kind: KindBuff, Icon: "🔮", Name: "Element Mastery", Description: "All {element} cards get +{value} strength"},
	DrawPower:      {Kind: KindBuff, Icon: "📚", Name: "Draw Power", Description: "Draw {value} extra cards"},
	TurnExtension:  {Kind: KindBuff, Icon: "⏰", Name: "Turn Extension", Description: "Get +{value} seconds on turns"},
	Piercing:       {Kind: KindBuff, Icon: "🗡️", Name: "Piercing", Description: "Ignore opponent shields for {duration} turns"},
	CriticalHit:    {Kind: KindBuff, Icon: "💥", Name: "Critical Strike", Description: "Next attack deals double damage"},

	Weakness:      {Kind: KindDebuff, Icon: "😵", Name: "Weakness", Description: "-{value} strength for {duration} turns"},
	Burn:          {Kind: KindDebuff, Icon: "🔥", Name: "Burn", Description: "Lose {value} score each turn for {duration} turns"},
	Freeze:        {Kind: KindDebuff, Icon: "🧊", Name: "Freeze", Description: "Skip next {duration} turns"},
	Confusion:     {Kind: KindDebuff, Icon: "😵‍💫", Name: "Confusion", Description: "Random card selection for {duration} turns"},
	Silence:       {Kind: KindDebuff, Icon: "🔇", Name: "Silence", Description: "No element abilities for {duration} turns"},
	Fatigue:       {Kind: KindDebuff, Icon: "😴", Name: "Fatigue", Description: "Cards cost 1 score to play for {duration} turns"},
	Curse:         {Kind: KindDebuff, Icon: "👹", Name: "Curse", Description: "All cards have -{value} strength for {duration} turns"},
	Poison:        {Kind: KindDebuff, Icon: "☠️", Name: "Poison", Description: "Lose {value} score and strength each turn"},
	Vulnerability: {Kind: KindDebuff, Icon: "🎯", Name: "Vulnerability", Description: "Take +{value} damage for {duration} turns"},
}

// Effect is the descriptor handed to presentation.
type Effect struct {
	ID               string       `json:"id"`
	Type             Type         `json:"type"`
	Value            int          `json:"value"`
	TurnsRemaining   int          `json:"turnsRemaining"`
	Element          card.Element `json:"element,omitempty"`
	TotalDamageDealt int          `json:"totalDamageDealt,omitempty"`
	AppliedThisTurn  bool         `json:"appliedThisTurn,omitempty"`
}

// stacking types add their values together instead of refreshing.
var stacking = []Type{StrengthBoost, Weakness, Shield}

// Ledger is the list of effects on one side. Methods return new ledgers and
// never modify the receiver's backing array.
type Ledger []Effect

func New(t Type, value, duration int, element card.Element) Effect {
	return Effect{
		ID:              uuid.NewString(),
		Type:            t,
		Value:           value,
		TurnsRemaining:  duration,
		Element:         element,
		AppliedThisTurn: true,
	}
}

// Apply adds e, merging it into an existing effect of the same type and
// element: stacking types sum values and keep the longer duration, the rest
// refresh their duration.
func (l Ledger) Apply(e Effect) Ledger {
	out := slices.Clone(l)
	idx := slices.IndexFunc(out, func(x Effect) bool { return x.Type == e.Type && x.Element == e.Element })
	if idx < 0 {
		return append(out, e)
	}
	if slices.Contains(stacking, e.Type) {
		out[idx].Value += e.Value
		out[idx].TurnsRemaining = max(out[idx].TurnsRemaining, e.TurnsRemaining)
	} else {
		out[idx].TurnsRemaining = e.TurnsRemaining
	}
	return out
}

func (l Ledger) Has(t Type) bool {
	return slices.ContainsFunc(l, func(e Effect) bool { return e.Type == t })
}

// Tick runs one turn of over-time effects and returns the score delta.
// Effects applied this turn are skipped once. Expired effects are dropped.
func (l Ledger) Tick() (Ledger, int) {
	delta := 0
	out := make(Ledger, 0, len(l))
	for _, e := range l {
		if e.AppliedThisTurn {
			e.AppliedThisTurn = false
			out = append(out, e)
			continue
		}
		switch e.Type {
		case Regeneration:
			delta += e.Value
		case Burn, Poison:
			delta -= e.Value
			e.TotalDamageDealt += e.Value
		}
		e.TurnsRemaining--
		if e.TurnsRemaining > 0 {
			out = append(out, e)
		}
	}
	return out, delta
}

// Modify applies strength modifiers to a card of the given element. Debuffs
// never push strength below 1.
func (l Ledger) Modify(strength int, element card.Element) int {
	for _, e := range l {
		switch e.Type {
		case StrengthBoost:
			strength += e.Value
		case Weakness, Curse, Poison:
			strength = max(1, strength-e.Value)
		case ElementMastery:
			if e.Element == element {
				strength += e.Value
			}
		}
	}
	return strength
}

// Describe renders the effect's description from the catalog. It returns ""
// for types the catalog does not know.
func Describe(catalog Catalog, e Effect) string {
	def, ok := catalog[e.Type]
	if !ok {
		return ""
	}
	element := ""
	if e.Element != "" {
		element = e.Element.DisplayName()
	}
	desc := strings.NewReplacer(
		"{value}", fmt.Sprint(e.Value),
		"{duration}", fmt.Sprint(e.TurnsRemaining),
		"{element}", element,
	).Replace(def.Description)
	if e.TotalDamageDealt > 0 {
		desc += fmt.Sprintf(" (Total: %d)", e.TotalDamageDealt)
	}
	return desc
}

// Classify splits effects into buffs and debuffs. Unknown types are dropped.
func Classify(catalog Catalog, l Ledger) (buffs, debuffs []Effect) {
	for _, e := range l {
		switch catalog[e.Type].Kind {
		case KindBuff:
			buffs = append(buffs, e)
		case KindDebuff:
			debuffs = append(debuffs, e)
		}
	}
	return buffs, debuffs
}
