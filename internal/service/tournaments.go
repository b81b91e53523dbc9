package service

import (
	"context"
	"errors"

	"github.com/DoyleJ11/card-battle-backend/internal/engine"
	"github.com/DoyleJ11/card-battle-backend/internal/tournament"
	"go.uber.org/zap"
)

type TournamentResult struct {
	Failure
	Tournament *tournament.Tournament `json:"tournament,omitempty"`
	Opponent   *engine.Opponent       `json:"opponent,omitempty"`
	Progress   *tournament.Progress   `json:"progress,omitempty"`
}

type TournamentMatchResult struct {
	Failure
	RoomID   string           `json:"roomId,omitempty"`
	PlayerID string           `json:"playerId,omitempty"`
	Opponent *engine.Opponent `json:"opponent,omitempty"`
}

type ReportMatchResult struct {
	Failure
	Result *tournament.MatchResult `json:"result,omitempty"`
}

type HistoryResult struct {
	Failure
	Tournaments []tournament.Tournament `json:"tournaments"`
}

func (s *Service) StartTournament(ctx context.Context, tier string) TournamentResult {
	t, err := tournament.ParseTier(tier)
	if err != nil {
		return TournamentResult{Failure: failed(err)}
	}
	tour, err := s.tours.Start(ctx, t)
	if err != nil {
		return TournamentResult{Failure: failed(err)}
	}
	return s.tournamentView(tour)
}

func (s *Service) GetTournament() TournamentResult {
	tour, ok := s.tours.Current()
	if !ok {
		return TournamentResult{Failure: failed(tournament.ErrNoActiveTournament)}
	}
	return s.tournamentView(tour)
}

func (s *Service) tournamentView(tour tournament.Tournament) TournamentResult {
	out := TournamentResult{Failure: succeeded, Tournament: &tour}
	if opp, err := s.tours.CurrentOpponent(); err == nil {
		out.Opponent = &opp
	}
	if p, err := s.tours.Progress(); err == nil {
		out.Progress = &p
	}
	return out
}

// StartTournamentMatch opens a room against the current bracket opponent
// and seats the player. The result is reported to the tournament when the
// match completes; a tie counts as a loss. A room whose run was replaced,
// or whose round was already reported, reports nothing.
func (s *Service) StartTournamentMatch(ctx context.Context, playerID, playerName string) TournamentMatchResult {
	ref, err := s.tours.CurrentMatch()
	if err != nil {
		return TournamentMatchResult{Failure: failed(err)}
	}
	opp := ref.Opponent

	created := s.createRoom(ctx, s.rules, &opp, func(st engine.State) { s.reportMatch(ref, st) })
	if !created.OK {
		return TournamentMatchResult{Failure: created.Failure}
	}
	joined := s.JoinRoom(ctx, created.RoomID, playerID, playerName)
	if !joined.OK {
		return TournamentMatchResult{Failure: joined.Failure, RoomID: created.RoomID}
	}
	return TournamentMatchResult{Failure: succeeded, RoomID: created.RoomID, PlayerID: joined.PlayerID, Opponent: &opp}
}

// reportMatch runs on the room's goroutine.
func (s *Service) reportMatch(ref tournament.MatchRef, st engine.State) {
	won := st.Winner == engine.OutcomeHuman
	res, err := s.tours.CompleteMatchFor(context.Background(), ref, won)
	if err != nil {
		if errors.Is(err, tournament.ErrStaleMatch) {
			s.log.Info("discarding stale tournament match",
				zap.String("room", st.RoomID),
				zap.String("tournament", ref.TournamentID),
				zap.Int("round", ref.Round),
			)
			return
		}
		s.log.Warn("report tournament match failed", zap.String("room", st.RoomID), zap.Error(err))
		return
	}
	fields := []zap.Field{zap.String("room", st.RoomID), zap.Bool("won", won), zap.Bool("continue", res.Continue)}
	if res.Outcome != nil {
		fields = append(fields, zap.Int("coins", res.Outcome.Reward.Coins), zap.Int("exp", res.Outcome.Reward.Exp))
	}
	s.log.Info("tournament match reported", fields...)
}

// ReportTournamentMatch records a result played outside a room.
func (s *Service) ReportTournamentMatch(ctx context.Context, won bool) ReportMatchResult {
	res, err := s.tours.CompleteMatch(ctx, won)
	if err != nil {
		return ReportMatchResult{Failure: failed(err)}
	}
	return ReportMatchResult{Failure: succeeded, Result: &res}
}

func (s *Service) AbandonTournament(ctx context.Context) TournamentResult {
	tour, err := s.tours.Abandon(ctx)
	if err != nil {
		return TournamentResult{Failure: failed(err)}
	}
	return TournamentResult{Failure: succeeded, Tournament: &tour}
}

func (s *Service) TournamentHistory() HistoryResult {
	return HistoryResult{Failure: succeeded, Tournaments: s.tours.History()}
}
