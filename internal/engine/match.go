package engine

import (
	"context"
	"errors"
	"math/rand/v2"
	"slices"

	"github.com/DoyleJ11/card-battle-backend/internal/card"
	"github.com/DoyleJ11/card-battle-backend/internal/combo"
	"github.com/DoyleJ11/card-battle-backend/internal/effects"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrUnknownPlayer = errors.New("unknown player")
var ErrEmptyDeck = errors.New("deck is empty")

const defaultAIName = "Computer"

func (e *Engine) join(s *State, cmd Command) ([]Event, error) {
	if s.Started() {
		return nil, ErrGameStarted
	}
	if s.Human != nil {
		return nil, ErrRoomFull
	}

	id := cmd.PlayerID
	if id == "" {
		id = uuid.NewString()
	}
	name := cmd.PlayerName
	if name == "" {
		name = "Player"
	}
	s.Human = &Player{ID: id, Name: name}

	ai := &Player{ID: "ai", Name: defaultAIName, IsAI: true}
	if s.Opponent != nil {
		if s.Opponent.ID != "" {
			ai.ID = s.Opponent.ID
		}
		if s.Opponent.Name != "" {
			ai.Name = s.Opponent.Name
		}
	}
	s.AI = ai

	return []Event{
		{Type: EvtPlayerJoined, Side: card.SideHuman, PlayerID: s.Human.ID},
		{Type: EvtPlayerJoined, Side: card.SideAI, PlayerID: s.AI.ID},
	}, nil
}

func (e *Engine) start(s *State) ([]Event, error) {
	if s.Started() {
		return nil, ErrGameStarted
	}
	if s.Human == nil || s.AI == nil {
		return nil, ErrNotEnoughPlayers
	}

	human, ai := e.deal(s.Rules)
	if len(human) == 0 {
		return nil, ErrEmptyDeck
	}

	s.Human.Hand, s.Human.Dealt = human, len(human)
	s.AI.Hand, s.AI.Dealt = ai, len(ai)
	s.Human.Active = true
	s.AI.Active = false
	s.Phase = PhaseInProgress
	s.Step = StepAwaitingHuman
	s.Round = 1

	return []Event{{Type: EvtGameStarted, Round: s.Round}}, nil
}

// deal returns two hands of equal size. Configured decks are shuffled and
// cut; a side without a deck gets random quick-start cards.
func (e *Engine) deal(r Rules) (human, ai []card.Card) {
	n := r.HandSize
	if len(r.HumanDeck) > 0 {
		n = min(n, len(r.HumanDeck))
	}
	if len(r.AIDeck) > 0 {
		n = min(n, len(r.AIDeck))
	}

	e.withRand(func(rng *rand.Rand) {
		human = fromDeck(rng, r.HumanDeck, n)
		ai = fromDeck(rng, r.AIDeck, n)
	})
	return human, ai
}

func fromDeck(rng *rand.Rand, deck []card.Card, n int) []card.Card {
	if len(deck) == 0 {
		return card.MakeHand(rng, n)
	}
	d := slices.Clone(deck)
	card.Shuffle(rng, d)
	return d[:n]
}

func (e *Engine) chooseCard(s *State, cmd Command) ([]Event, error) {
	switch s.Phase {
	case PhaseLobby:
		return nil, ErrNotActive
	case PhaseComplete:
		return nil, ErrGameOver
	}

	side := cmd.Side
	if side == "" {
		side = card.SideHuman
	}
	p := s.player(side)
	if p == nil || p.IsAI || !p.Active || s.Step != StepAwaitingHuman {
		return nil, ErrNotActive
	}

	c, hand, ok := card.RemoveAt(p.Hand, cmd.CardIndex)
	if !ok {
		return nil, ErrCardIndex
	}
	if e.evo != nil {
		c = e.evo.ApplyBonus(c)
	}

	p.Hand = hand
	p.ChosenCard = &c
	p.Active = false
	p.Played++
	s.Step = StepOpponentTurn

	return []Event{
		{Type: EvtCardChosen, Side: side, PlayerID: p.ID, Round: s.Round, Card: &c},
		e.schedule(CmdOpponentActivate, e.delays.Activate, s.Round),
	}, nil
}

func expectStep(s *State, cmd Command, want Step) error {
	if s.Phase != PhaseInProgress || s.Step != want || s.Round != cmd.Round {
		return ErrStaleStep
	}
	return nil
}

func (e *Engine) opponentActivate(s *State, cmd Command) ([]Event, error) {
	if err := expectStep(s, cmd, StepOpponentTurn); err != nil {
		return nil, err
	}
	s.AI.Active = true
	s.Step = StepOpponentThinking

	return []Event{
		{Type: EvtOpponentActive, Side: card.SideAI, PlayerID: s.AI.ID, Round: s.Round},
		e.schedule(CmdOpponentPlay, e.delays.Think, s.Round),
	}, nil
}

// opponentPlay picks uniformly at random. Draft picks are greedy instead;
// the two policies are intentionally different.
func (e *Engine) opponentPlay(s *State, cmd Command) ([]Event, error) {
	if err := expectStep(s, cmd, StepOpponentThinking); err != nil {
		return nil, err
	}
	ai := s.AI
	if len(ai.Hand) == 0 {
		e.log.Error("opponent has no cards to play",
			zap.String("room", s.RoomID), zap.Int("round", s.Round))
		return nil, ErrCardIndex
	}

	c, hand, _ := card.RemoveAt(ai.Hand, e.intN(len(ai.Hand)))
	c.ModifiedStrength = c.BaseStrength
	if s.Opponent != nil {
		c.ModifiedStrength += s.Opponent.DeckBonus
	}

	ai.Hand = hand
	ai.ChosenCard = &c
	ai.Active = false
	ai.Played++
	s.Step = StepResolving

	return []Event{
		{Type: EvtCardChosen, Side: card.SideAI, PlayerID: ai.ID, Round: s.Round, Card: &c},
		e.schedule(CmdResolve, e.delays.Resolve, s.Round),
	}, nil
}

func (e *Engine) resolve(ctx context.Context, s *State, cmd Command) ([]Event, error) {
	if err := expectStep(s, cmd, StepResolving); err != nil {
		return nil, err
	}
	h, a := s.Human, s.AI
	if h.ChosenCard == nil || a.ChosenCard == nil {
		return nil, ErrStaleStep
	}

	var events []Event

	hCombo := s.Combo.RecordPlay(card.SideHuman, h.ChosenCard.Element)
	aCombo := s.Combo.RecordPlay(card.SideAI, a.ChosenCard.Element)
	for _, c := range []struct {
		side card.Side
		res  combo.Result
	}{{card.SideHuman, hCombo}, {card.SideAI, aCombo}} {
		if c.res.Active {
			res := c.res
			events = append(events, Event{Type: EvtComboTriggered, Side: c.side, Round: s.Round, Combo: &res})
		}
	}

	h.ChosenCard.ModifiedStrength = h.Effects.Modify(h.ChosenCard.Strength()+hCombo.StrengthBonus, h.ChosenCard.Element)
	a.ChosenCard.ModifiedStrength = a.Effects.Modify(a.ChosenCard.Strength()+aCombo.StrengthBonus, a.ChosenCard.Element)
	hc, ac := *h.ChosenCard, *a.ChosenCard

	winner := OutcomeTie
	switch {
	case hc.ModifiedStrength > ac.ModifiedStrength:
		winner = OutcomeHuman
		h.Score++
	case ac.ModifiedStrength > hc.ModifiedStrength:
		winner = OutcomeAI
		a.Score++
	}

	if e.evo != nil {
		won := winner == OutcomeHuman
		amount := ExpOnLoss
		if won {
			amount = ExpOnWin
		}
		lvl, err := e.evo.AddExperience(ctx, hc.Element, hc.BaseStrength, amount, won)
		if err != nil {
			e.log.Warn("evolution update failed", zap.String("room", s.RoomID), zap.Error(err))
		} else if lvl.LeveledUp {
			events = append(events, Event{Type: EvtCardLeveledUp, Side: card.SideHuman, Round: s.Round, LevelUp: &lvl})
		}
	}

	events = append(events, e.applyEffects(s, hc.Element, ac.Element)...)

	result := RoundResult{
		Round:         s.Round,
		HumanCard:     hc,
		AICard:        ac,
		HumanStrength: hc.ModifiedStrength,
		AIStrength:    ac.ModifiedStrength,
		Winner:        winner,
		HumanCombo:    hCombo,
		AICombo:       aCombo,
	}
	s.History = append(s.History, result)
	events = append(events, Event{Type: EvtRoundResolved, Round: s.Round, Result: &result, Winner: winner})

	e.checkConservation(s, h)
	e.checkConservation(s, a)

	if len(h.Hand) == 0 && len(a.Hand) == 0 {
		s.Phase = PhaseComplete
		s.Step = StepDone
		s.Winner = matchWinner(h.Score, a.Score)
		s.Combo.ResetAll()
		h.ChosenCard, a.ChosenCard = nil, nil
		h.Active, a.Active = false, false
		return append(events, Event{Type: EvtGameCompleted, Round: s.Round, Winner: s.Winner}), nil
	}

	s.Step = StepRoundOver
	return append(events, e.schedule(CmdNextRound, e.delays.NextRound, s.Round)), nil
}

// applyEffects triggers both element abilities when enabled, then ticks both
// ledgers. Score never goes below zero.
func (e *Engine) applyEffects(s *State, humanEl, aiEl card.Element) []Event {
	h, a := s.Human, s.AI
	var events []Event

	if s.Rules.ElementAbilities {
		// Silence applied this round takes effect from the next one.
		humanSilenced, aiSilenced := h.Effects.Has(effects.Silence), a.Effects.Has(effects.Silence)
		var applied []effects.Applied
		if !humanSilenced {
			h.Effects, a.Effects, applied = effects.Grant(humanEl, h.Effects, a.Effects)
			events = append(events, effectEvents(s.Round, card.SideHuman, applied)...)
		}
		if !aiSilenced {
			a.Effects, h.Effects, applied = effects.Grant(aiEl, a.Effects, h.Effects)
			events = append(events, effectEvents(s.Round, card.SideAI, applied)...)
		}
	}

	var delta int
	h.Effects, delta = h.Effects.Tick()
	h.Score = max(0, h.Score+delta)
	a.Effects, delta = a.Effects.Tick()
	a.Score = max(0, a.Score+delta)
	return events
}

func effectEvents(round int, caster card.Side, applied []effects.Applied) []Event {
	events := make([]Event, 0, len(applied))
	for _, ap := range applied {
		target := caster
		if ap.Target == effects.TargetOpponent {
			target = caster.Opponent()
		}
		eff := ap.Effect
		events = append(events, Event{Type: EvtEffectApplied, Side: target, Round: round, Effect: &eff})
	}
	return events
}

func (e *Engine) checkConservation(s *State, p *Player) {
	if len(p.Hand)+p.Played != p.Dealt {
		e.log.Error("card conservation violated",
			zap.String("room", s.RoomID),
			zap.String("player", p.ID),
			zap.Int("hand", len(p.Hand)),
			zap.Int("played", p.Played),
			zap.Int("dealt", p.Dealt),
		)
	}
}

func matchWinner(human, ai int) Outcome {
	switch {
	case human > ai:
		return OutcomeHuman
	case ai > human:
		return OutcomeAI
	default:
		return OutcomeTie
	}
}

func (e *Engine) nextRound(s *State, cmd Command) ([]Event, error) {
	if err := expectStep(s, cmd, StepRoundOver); err != nil {
		return nil, err
	}
	s.Human.ChosenCard = nil
	s.AI.ChosenCard = nil
	s.Round++
	s.Human.Active = true
	s.Step = StepAwaitingHuman

	return []Event{{Type: EvtRoundReset, Round: s.Round}}, nil
}

// leave resets both combo streaks. Before the game starts it also frees the
// room for another player.
func (e *Engine) leave(s *State, cmd Command) ([]Event, error) {
	if s.Human == nil || (cmd.PlayerID != "" && cmd.PlayerID != s.Human.ID) {
		return nil, ErrUnknownPlayer
	}
	id := s.Human.ID
	s.Combo.ResetAll()
	if !s.Started() {
		s.Human, s.AI = nil, nil
	}
	return []Event{{Type: EvtPlayerLeft, Side: card.SideHuman, PlayerID: id}}, nil
}
