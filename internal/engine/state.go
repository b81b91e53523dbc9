package engine

import (
	"slices"

	"github.com/DoyleJ11/card-battle-backend/internal/card"
	"github.com/DoyleJ11/card-battle-backend/internal/combo"
	"github.com/DoyleJ11/card-battle-backend/internal/effects"
)

const DefaultHandSize = 5

type Player struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	IsAI       bool           `json:"isAI"`
	Hand       []card.Card    `json:"hand"`
	Score      int            `json:"score"`
	Active     bool           `json:"active"`
	ChosenCard *card.Card     `json:"chosenCard"`
	Effects    effects.Ledger `json:"statusEffects"`

	Dealt  int `json:"dealt"`
	Played int `json:"played"`
}

type Rules struct {
	HandSize         int  `json:"handSize"`
	ElementAbilities bool `json:"elementAbilities"`

	// Optional decks, e.g. from a completed draft. Hands are dealt from a
	// shuffled copy instead of random quick-start cards.
	HumanDeck []card.Card `json:"-"`
	AIDeck    []card.Card `json:"-"`
}

// Opponent tunes the computer side, typically from a tournament bracket slot.
type Opponent struct {
	ID                 string  `json:"id"`
	Name               string  `json:"name"`
	StrengthMultiplier float64 `json:"strengthMultiplier"`
	DeckBonus          int     `json:"deckBonus"`
	Personality        string  `json:"personality"`
}

type RoundResult struct {
	Round         int          `json:"round"`
	HumanCard     card.Card    `json:"humanCard"`
	AICard        card.Card    `json:"aiCard"`
	HumanStrength int          `json:"humanStrength"`
	AIStrength    int          `json:"aiStrength"`
	Winner        Outcome      `json:"winner"`
	HumanCombo    combo.Result `json:"humanCombo"`
	AICombo       combo.Result `json:"aiCombo"`
}

type State struct {
	RoomID   string        `json:"roomId"`
	Phase    Phase         `json:"phase"`
	Step     Step          `json:"step,omitempty"`
	Round    int           `json:"round"`
	Human    *Player       `json:"human"`
	AI       *Player       `json:"ai"`
	Combo    combo.Tracker `json:"combo"`
	Rules    Rules         `json:"rules"`
	Opponent *Opponent     `json:"opponent,omitempty"`
	Winner   Outcome       `json:"winner,omitempty"`
	History  []RoundResult `json:"history"`
}

func NewState(roomID string, rules Rules, opp *Opponent) State {
	if rules.HandSize <= 0 {
		rules.HandSize = DefaultHandSize
	}
	return State{RoomID: roomID, Phase: PhaseLobby, Rules: rules, Opponent: opp}
}

func (s State) Started() bool { return s.Phase != PhaseLobby }
func (s State) Over() bool    { return s.Phase == PhaseComplete }

// RoundsPlayed counts resolved rounds.
func (s State) RoundsPlayed() int { return len(s.History) }

func (s *State) player(side card.Side) *Player {
	if side == card.SideAI {
		return s.AI
	}
	return s.Human
}

// Clone returns a deep copy so reducers can mutate freely.
func (s State) Clone() State {
	out := s
	out.Human = s.Human.clone()
	out.AI = s.AI.clone()
	out.History = slices.Clone(s.History)
	out.Rules.HumanDeck = slices.Clone(s.Rules.HumanDeck)
	out.Rules.AIDeck = slices.Clone(s.Rules.AIDeck)
	if s.Opponent != nil {
		opp := *s.Opponent
		out.Opponent = &opp
	}
	return out
}

func (p *Player) clone() *Player {
	if p == nil {
		return nil
	}
	out := *p
	out.Hand = slices.Clone(p.Hand)
	out.Effects = slices.Clone(p.Effects)
	if p.ChosenCard != nil {
		c := *p.ChosenCard
		out.ChosenCard = &c
	}
	return &out
}

func ContainsEvent(events []Event, eventType EventType) bool {
	for _, event := range events {
		if event.Type == eventType {
			return true
		}
	}
	return false
}
