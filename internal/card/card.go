package card

import (
	"errors"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var ErrUnknownElement = errors.New("unknown element")
var ErrStrengthRange = errors.New("strength out of range")

type Element string

const (
	ElementFire        Element = "FIRE"
	ElementWater       Element = "WATER"
	ElementEarth       Element = "EARTH"
	ElementIce         Element = "ICE"
	ElementElectricity Element = "ELECTRICITY"
	ElementPower       Element = "POWER"
	ElementLight       Element = "LIGHT"
	ElementDark        Element = "DARK"
	ElementNeutral     Element = "NEUTRAL"
	ElementTechnology  Element = "TECHNOLOGY"
	ElementMeteor      Element = "METEOR"
)

// Elements lists every element in canonical order. Pool generation walks it
// in this order before shuffling.
var Elements = []Element{
	ElementFire,
	ElementWater,
	ElementEarth,
	ElementIce,
	ElementElectricity,
	ElementPower,
	ElementLight,
	ElementDark,
	ElementNeutral,
	ElementTechnology,
	ElementMeteor,
}

const (
	MinStrength = 1
	MaxStrength = 10
)

var titleCaser = cases.Title(language.English)

func (e Element) Valid() bool {
	for _, el := range Elements {
		if el == e {
			return true
		}
	}
	return false
}

// DisplayName renders "ELECTRICITY" as "Electricity".
func (e Element) DisplayName() string {
	return titleCaser.String(strings.ToLower(string(e)))
}

// ParseElement accepts any casing.
func ParseElement(s string) (Element, error) {
	e := Element(strings.ToUpper(strings.TrimSpace(s)))
	if !e.Valid() {
		return "", ErrUnknownElement
	}
	return e, nil
}

// Counters maps an element to the elements it counters. Informational only:
// round resolution compares strength and nothing else.
var Counters = map[Element][]Element{
	ElementFire:        {ElementIce, ElementEarth},
	ElementIce:         {ElementWater, ElementElectricity},
	ElementWater:       {ElementFire, ElementLight},
	ElementElectricity: {ElementEarth, ElementWater},
	ElementEarth:       {ElementElectricity, ElementDark},
	ElementPower:       {ElementLight},
	ElementLight:       {ElementDark},
	ElementDark:        {ElementPower},
	ElementTechnology:  {ElementFire, ElementIce, ElementWater},
	ElementMeteor:      {ElementEarth},
	ElementNeutral:     {},
}

// Card is a value object. BaseStrength never changes after the card is drawn;
// ModifiedStrength is recomputed at play time.
type Card struct {
	ID               string  `json:"id"`
	Element          Element `json:"element"`
	BaseStrength     int     `json:"baseStrength"`
	ModifiedStrength int     `json:"modifiedStrength"`

	// Evolution annotations, filled in by the evolution store.
	EvolutionLevel int    `json:"evolutionLevel,omitempty"`
	EvolutionLabel string `json:"evolutionLabel,omitempty"`
	Experience     int    `json:"experience,omitempty"`
	MaxExperience  int    `json:"maxExperience,omitempty"`
}

func New(id string, element Element, strength int) (Card, error) {
	if !element.Valid() {
		return Card{}, ErrUnknownElement
	}
	if strength < MinStrength || strength > MaxStrength {
		return Card{}, ErrStrengthRange
	}
	return Card{ID: id, Element: element, BaseStrength: strength, ModifiedStrength: strength}, nil
}

// Strength is the value used for round comparison.
func (c Card) Strength() int {
	if c.ModifiedStrength > 0 {
		return c.ModifiedStrength
	}
	return c.BaseStrength
}

func (c Card) Counters(other Element) bool {
	for _, e := range Counters[c.Element] {
		if e == other {
			return true
		}
	}
	return false
}

// Side names the two seats of a match.
type Side string

const (
	SideHuman Side = "human"
	SideAI    Side = "ai"
)

func (s Side) Opponent() Side {
	if s == SideHuman {
		return SideAI
	}
	return SideHuman
}
