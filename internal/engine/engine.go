package engine

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/DoyleJ11/card-battle-backend/internal/card"
	"github.com/DoyleJ11/card-battle-backend/internal/combo"
	"github.com/DoyleJ11/card-battle-backend/internal/effects"
	"github.com/DoyleJ11/card-battle-backend/internal/evolution"
	"go.uber.org/zap"
)

var ErrRoomNotFound = errors.New("room not found")
var ErrGameStarted = errors.New("game already started")
var ErrRoomFull = errors.New("room is full")
var ErrNotEnoughPlayers = errors.New("not enough players")
var ErrNotActive = errors.New("player is not active")
var ErrCardIndex = errors.New("card index out of range")
var ErrGameOver = errors.New("game is over")
var ErrStaleStep = errors.New("stale step")
var ErrUnsupportedCommand = errors.New("unsupported command")

type Phase string

const (
	PhaseLobby      Phase = "lobby"
	PhaseInProgress Phase = "in_progress"
	PhaseComplete   Phase = "complete"
)

// Step is the position inside a round while the match is in progress.
type Step string

const (
	StepAwaitingHuman    Step = "awaiting_human"
	StepOpponentTurn     Step = "opponent_turn"
	StepOpponentThinking Step = "opponent_thinking"
	StepResolving        Step = "resolving"
	StepRoundOver        Step = "round_over"
	StepDone             Step = "done"
)

type Outcome string

const (
	OutcomeHuman Outcome = "human"
	OutcomeAI    Outcome = "ai"
	OutcomeTie   Outcome = "tie"
)

type CommandType string

const (
	CmdJoin       CommandType = "Join"
	CmdStart      CommandType = "Start"
	CmdChooseCard CommandType = "ChooseCard"
	CmdLeave      CommandType = "Leave"

	// Continuations, posted by the scheduler.
	CmdOpponentActivate CommandType = "OpponentActivate"
	CmdOpponentPlay     CommandType = "OpponentPlay"
	CmdResolve          CommandType = "Resolve"
	CmdNextRound        CommandType = "NextRound"
)

/*
	CmdJoin          -> EvtPlayerJoined (human) -> EvtPlayerJoined (ai)
	CmdStart         -> EvtGameStarted
	CmdChooseCard    -> EvtCardChosen -> EvtStepScheduled(OpponentActivate)
	OpponentActivate -> EvtOpponentActive -> EvtStepScheduled(OpponentPlay)
	OpponentPlay     -> EvtCardChosen -> EvtStepScheduled(Resolve)
	Resolve          -> EvtComboTriggered* -> EvtCardLeveledUp? -> EvtEffectApplied*
	                    -> EvtRoundResolved -> EvtGameCompleted | EvtStepScheduled(NextRound)
	NextRound        -> EvtRoundReset
*/

type Command struct {
	Type       CommandType
	PlayerID   string
	PlayerName string
	Side       card.Side
	CardIndex  int
	Round      int // continuations only
}

type EventType string

const (
	EvtPlayerJoined   EventType = "PlayerJoined"
	EvtPlayerLeft     EventType = "PlayerLeft"
	EvtGameStarted    EventType = "GameStarted"
	EvtCardChosen     EventType = "CardChosen"
	EvtOpponentActive EventType = "OpponentActive"
	EvtComboTriggered EventType = "ComboTriggered"
	EvtCardLeveledUp  EventType = "CardLeveledUp"
	EvtEffectApplied  EventType = "EffectApplied"
	EvtRoundResolved  EventType = "RoundResolved"
	EvtRoundReset     EventType = "RoundReset"
	EvtGameCompleted  EventType = "GameCompleted"
	EvtStepScheduled  EventType = "StepScheduled"
)

type Event struct {
	Type     EventType
	Side     card.Side
	PlayerID string
	Round    int

	Card    *card.Card
	Combo   *combo.Result
	LevelUp *evolution.LevelResult
	Effect  *effects.Effect
	Result  *RoundResult
	Winner  Outcome

	// StepScheduled only.
	Next  CommandType
	Delay time.Duration
}

// Delays between the scheduled steps of a round.
type Delays struct {
	Activate  time.Duration
	Think     time.Duration
	Resolve   time.Duration
	NextRound time.Duration
}

func DefaultDelays() Delays {
	return Delays{
		Activate:  500 * time.Millisecond,
		Think:     2 * time.Second,
		Resolve:   500 * time.Millisecond,
		NextRound: 2 * time.Second,
	}
}

// Evolver is the part of the evolution store the engine needs.
type Evolver interface {
	ApplyBonus(c card.Card) card.Card
	AddExperience(ctx context.Context, element card.Element, baseStrength, amount int, won bool) (evolution.LevelResult, error)
}

const (
	ExpOnWin  = 3
	ExpOnLoss = 1
)

type Config struct {
	Evolution Evolver // optional
	Rand      *rand.Rand
	Delays    Delays
	Logger    *zap.Logger
}

// Engine applies commands to match states. It is shared by every room, so
// its random source is guarded.
type Engine struct {
	evo    Evolver
	delays Delays
	log    *zap.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

func New(cfg Config) *Engine {
	if cfg.Rand == nil {
		cfg.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Engine{evo: cfg.Evolution, delays: cfg.Delays, log: cfg.Logger, rng: cfg.Rand}
}

func (e *Engine) intN(n int) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rng.IntN(n)
}

func (e *Engine) withRand(fn func(*rand.Rand)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	fn(e.rng)
}

// Apply validates cmd against s and returns the resulting events and state.
// s is never modified; on error the returned state is s.
func (e *Engine) Apply(ctx context.Context, s State, cmd Command) ([]Event, State, error) {
	next := s.Clone()

	var (
		events []Event
		err    error
	)
	switch cmd.Type {
	case CmdJoin:
		events, err = e.join(&next, cmd)
	case CmdStart:
		events, err = e.start(&next)
	case CmdChooseCard:
		events, err = e.chooseCard(&next, cmd)
	case CmdLeave:
		events, err = e.leave(&next, cmd)
	case CmdOpponentActivate:
		events, err = e.opponentActivate(&next, cmd)
	case CmdOpponentPlay:
		events, err = e.opponentPlay(&next, cmd)
	case CmdResolve:
		events, err = e.resolve(ctx, &next, cmd)
	case CmdNextRound:
		events, err = e.nextRound(&next, cmd)
	default:
		err = ErrUnsupportedCommand
	}
	if err != nil {
		return nil, s, err
	}
	return events, next, nil
}

func (e *Engine) schedule(next CommandType, delay time.Duration, round int) Event {
	return Event{Type: EvtStepScheduled, Next: next, Delay: delay, Round: round}
}
