package service

import (
	"context"

	"github.com/DoyleJ11/card-battle-backend/internal/card"
	"github.com/DoyleJ11/card-battle-backend/internal/engine"
	"github.com/DoyleJ11/card-battle-backend/internal/evolution"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type CreateRoomResult struct {
	Failure
	RoomID string `json:"roomId,omitempty"`
}

type JoinRoomResult struct {
	Failure
	RoomID   string `json:"roomId,omitempty"`
	PlayerID string `json:"playerId,omitempty"`
}

type StartGameResult struct {
	Failure
	Version int           `json:"version"`
	State   *engine.State `json:"state,omitempty"`
}

type ChooseCardResult struct {
	Failure
	Card    *card.Card    `json:"card,omitempty"`
	Version int           `json:"version"`
	State   *engine.State `json:"state,omitempty"`
}

type GetStateResult struct {
	Failure
	Version int           `json:"version"`
	State   *engine.State `json:"state,omitempty"`
}

type LeaveRoomResult struct {
	Failure
}

type EvolutionResult struct {
	Failure
	Records []evolution.Record `json:"records"`
}

func (s *Service) CreateRoom(ctx context.Context) CreateRoomResult {
	return s.createRoom(ctx, s.rules, nil, nil)
}

func (s *Service) createRoom(ctx context.Context, rules engine.Rules, opp *engine.Opponent, onComplete func(engine.State)) CreateRoomResult {
	id, _, err := s.hub.Create(ctx, engine.NewState("", rules, opp), onComplete)
	if err != nil {
		s.log.Warn("create room failed", zap.Error(err))
		return CreateRoomResult{Failure: failed(err)}
	}
	return CreateRoomResult{Failure: succeeded, RoomID: id}
}

// JoinRoom seats the player as the human side. An empty playerID gets a
// generated one.
func (s *Service) JoinRoom(ctx context.Context, roomID, playerID, playerName string) JoinRoomResult {
	if playerID == "" {
		playerID = uuid.NewString()
	}
	_, err := s.do(ctx, roomID, engine.Command{Type: engine.CmdJoin, PlayerID: playerID, PlayerName: playerName})
	if err != nil {
		return JoinRoomResult{Failure: failed(err), RoomID: roomID}
	}
	return JoinRoomResult{Failure: succeeded, RoomID: roomID, PlayerID: playerID}
}

func (s *Service) StartGame(ctx context.Context, roomID string) StartGameResult {
	res, err := s.do(ctx, roomID, engine.Command{Type: engine.CmdStart})
	if err != nil {
		return StartGameResult{Failure: failed(err)}
	}
	st := res.Snapshot.State
	return StartGameResult{Failure: succeeded, Version: res.Snapshot.Version, State: &st}
}

func (s *Service) ChooseCard(ctx context.Context, roomID string, side card.Side, cardIndex int) ChooseCardResult {
	res, err := s.do(ctx, roomID, engine.Command{Type: engine.CmdChooseCard, Side: side, CardIndex: cardIndex})
	if err != nil {
		return ChooseCardResult{Failure: failed(err)}
	}
	out := ChooseCardResult{Failure: succeeded, Version: res.Snapshot.Version}
	st := res.Snapshot.State
	out.State = &st
	for _, ev := range res.Events {
		if ev.Type == engine.EvtCardChosen {
			out.Card = ev.Card
		}
	}
	return out
}

func (s *Service) GetState(ctx context.Context, roomID string) GetStateResult {
	lb, err := s.hub.Get(ctx, roomID)
	if err != nil {
		return GetStateResult{Failure: failed(err)}
	}
	v, err := lb.View(ctx)
	if err != nil {
		return GetStateResult{Failure: failed(err)}
	}
	return GetStateResult{Failure: succeeded, Version: v.Version, State: &v.State}
}

func (s *Service) LeaveRoom(ctx context.Context, roomID, playerID string) LeaveRoomResult {
	if _, err := s.do(ctx, roomID, engine.Command{Type: engine.CmdLeave, PlayerID: playerID}); err != nil {
		return LeaveRoomResult{Failure: failed(err)}
	}
	return LeaveRoomResult{Failure: succeeded}
}

func (s *Service) EvolvedCards() EvolutionResult {
	return EvolutionResult{Failure: succeeded, Records: s.evo.AllEvolved()}
}

func (s *Service) ResetEvolution(ctx context.Context) EvolutionResult {
	if err := s.evo.ResetAll(ctx); err != nil {
		return EvolutionResult{Failure: failed(err)}
	}
	return EvolutionResult{Failure: succeeded, Records: []evolution.Record{}}
}
