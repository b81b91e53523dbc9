// Package service is the command surface used by the transport adapters.
// Every command returns its own result type; failures are reported as
// ok=false with an error code, never as panics.
package service

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"

	"github.com/DoyleJ11/card-battle-backend/internal/card"
	"github.com/DoyleJ11/card-battle-backend/internal/engine"
	"github.com/DoyleJ11/card-battle-backend/internal/evolution"
	"github.com/DoyleJ11/card-battle-backend/internal/hub"
	"github.com/DoyleJ11/card-battle-backend/internal/lobby"
	"github.com/DoyleJ11/card-battle-backend/internal/tournament"
	"go.uber.org/zap"
)

type Config struct {
	Hub         *hub.Hub
	Evolution   *evolution.Store
	Tournaments *tournament.Manager
	Rules       engine.Rules // defaults for new rooms
	Rand        *rand.Rand
	Logger      *zap.Logger
}

type Service struct {
	hub   *hub.Hub
	evo   *evolution.Store
	tours *tournament.Manager
	rules engine.Rules
	log   *zap.Logger

	mu     sync.Mutex
	rng    *rand.Rand
	drafts map[string]*card.Draft
}

func New(cfg Config) *Service {
	if cfg.Rand == nil {
		cfg.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Service{
		hub:    cfg.Hub,
		evo:    cfg.Evolution,
		tours:  cfg.Tournaments,
		rules:  cfg.Rules,
		log:    cfg.Logger,
		rng:    cfg.Rand,
		drafts: make(map[string]*card.Draft),
	}
}

var errorCodes = []struct {
	err  error
	code string
}{
	{engine.ErrRoomNotFound, "room_not_found"},
	{engine.ErrGameStarted, "game_started"},
	{engine.ErrRoomFull, "room_full"},
	{engine.ErrNotEnoughPlayers, "not_enough_players"},
	{engine.ErrNotActive, "not_active"},
	{engine.ErrCardIndex, "card_index"},
	{engine.ErrGameOver, "game_over"},
	{engine.ErrStaleStep, "stale_step"},
	{engine.ErrUnknownPlayer, "unknown_player"},
	{engine.ErrEmptyDeck, "empty_deck"},
	{engine.ErrUnsupportedCommand, "unsupported_command"},
	{tournament.ErrNoActiveTournament, "no_active_tournament"},
	{tournament.ErrUnknownTier, "unknown_tier"},
	{tournament.ErrStaleMatch, "stale_match"},
	{card.ErrDraftComplete, "draft_complete"},
	{card.ErrNotYourPick, "not_your_pick"},
	{card.ErrNotOffered, "not_offered"},
	{ErrDraftNotFound, "draft_not_found"},
	{ErrDraftIncomplete, "draft_incomplete"},
	{lobby.ErrClosed, "room_closed"},
	{hub.ErrClosed, "shutting_down"},
	{context.DeadlineExceeded, "timeout"},
	{context.Canceled, "canceled"},
}

// ErrorCode maps err to a stable code for clients.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	for _, ec := range errorCodes {
		if errors.Is(err, ec.err) {
			return ec.code
		}
	}
	return "internal"
}

// Failure is embedded in every result.
type Failure struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

func failed(err error) Failure { return Failure{Error: ErrorCode(err)} }

var succeeded = Failure{OK: true}

func (s *Service) do(ctx context.Context, roomID string, cmd engine.Command) (lobby.Result, error) {
	lb, err := s.hub.Get(ctx, roomID)
	if err != nil {
		return lobby.Result{}, err
	}
	res, err := lb.Do(ctx, cmd)
	if err != nil {
		return res, err
	}
	return res, res.Err
}
