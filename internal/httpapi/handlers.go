package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/DoyleJ11/card-battle-backend/internal/card"
	"github.com/DoyleJ11/card-battle-backend/internal/service"
	"github.com/go-chi/chi/v5"
)

// statusFor maps a service error code to an HTTP status.
func statusFor(code string) int {
	switch code {
	case "":
		return http.StatusOK
	case "room_not_found", "draft_not_found", "no_active_tournament":
		return http.StatusNotFound
	case "card_index", "unknown_tier", "not_offered", "bad_request":
		return http.StatusBadRequest
	case "internal":
		return http.StatusInternalServerError
	case "shutting_down", "room_closed":
		return http.StatusServiceUnavailable
	default:
		return http.StatusConflict
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// reply writes a service result with a status derived from its failure.
func reply(w http.ResponseWriter, okStatus int, f service.Failure, v any) {
	status := statusFor(f.Error)
	if f.OK {
		status = okStatus
	}
	writeJSON(w, status, v)
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if r.ContentLength == 0 {
		return true
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, service.Failure{Error: "bad_request"})
		return false
	}
	return true
}

func CreateRoom(svc *service.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res := svc.CreateRoom(r.Context())
		reply(w, http.StatusCreated, res.Failure, res)
	}
}

type joinRequest struct {
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
}

func JoinRoom(svc *service.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req joinRequest
		if !decode(w, r, &req) {
			return
		}
		res := svc.JoinRoom(r.Context(), chi.URLParam(r, "roomID"), req.PlayerID, req.PlayerName)
		reply(w, http.StatusOK, res.Failure, res)
	}
}

func StartGame(svc *service.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res := svc.StartGame(r.Context(), chi.URLParam(r, "roomID"))
		reply(w, http.StatusOK, res.Failure, res)
	}
}

type chooseRequest struct {
	Side      string `json:"side"`
	CardIndex int    `json:"cardIndex"`
}

func ChooseCard(svc *service.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req chooseRequest
		if !decode(w, r, &req) {
			return
		}
		res := svc.ChooseCard(r.Context(), chi.URLParam(r, "roomID"), card.Side(req.Side), req.CardIndex)
		reply(w, http.StatusOK, res.Failure, res)
	}
}

func LeaveRoom(svc *service.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req joinRequest
		if !decode(w, r, &req) {
			return
		}
		res := svc.LeaveRoom(r.Context(), chi.URLParam(r, "roomID"), req.PlayerID)
		reply(w, http.StatusOK, res.Failure, res)
	}
}

func GetState(svc *service.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res := svc.GetState(r.Context(), chi.URLParam(r, "roomID"))
		reply(w, http.StatusOK, res.Failure, res)
	}
}

type tournamentRequest struct {
	Tier string `json:"tier"`
}

func StartTournament(svc *service.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req tournamentRequest
		if !decode(w, r, &req) {
			return
		}
		res := svc.StartTournament(r.Context(), req.Tier)
		reply(w, http.StatusCreated, res.Failure, res)
	}
}

func GetTournament(svc *service.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res := svc.GetTournament()
		reply(w, http.StatusOK, res.Failure, res)
	}
}

func StartTournamentMatch(svc *service.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req joinRequest
		if !decode(w, r, &req) {
			return
		}
		res := svc.StartTournamentMatch(r.Context(), req.PlayerID, req.PlayerName)
		reply(w, http.StatusCreated, res.Failure, res)
	}
}

type reportRequest struct {
	Won bool `json:"won"`
}

func ReportTournamentMatch(svc *service.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req reportRequest
		if !decode(w, r, &req) {
			return
		}
		res := svc.ReportTournamentMatch(r.Context(), req.Won)
		reply(w, http.StatusOK, res.Failure, res)
	}
}

func AbandonTournament(svc *service.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res := svc.AbandonTournament(r.Context())
		reply(w, http.StatusOK, res.Failure, res)
	}
}

func TournamentHistory(svc *service.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res := svc.TournamentHistory()
		reply(w, http.StatusOK, res.Failure, res)
	}
}

func StartDraft(svc *service.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res := svc.StartDraft()
		reply(w, http.StatusCreated, res.Failure, res)
	}
}

type pickRequest struct {
	CardID string `json:"cardId"`
}

func DraftPick(svc *service.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req pickRequest
		if !decode(w, r, &req) {
			return
		}
		res := svc.DraftPick(chi.URLParam(r, "draftID"), req.CardID)
		reply(w, http.StatusOK, res.Failure, res)
	}
}

func CreateDraftRoom(svc *service.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res := svc.CreateDraftRoom(r.Context(), chi.URLParam(r, "draftID"))
		reply(w, http.StatusCreated, res.Failure, res)
	}
}

func EvolvedCards(svc *service.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res := svc.EvolvedCards()
		reply(w, http.StatusOK, res.Failure, res)
	}
}

func ResetEvolution(svc *service.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res := svc.ResetEvolution(r.Context())
		reply(w, http.StatusOK, res.Failure, res)
	}
}

// Elements lists elements with display names and what each one counters.
func Elements(w http.ResponseWriter, r *http.Request) {
	type element struct {
		ID       card.Element   `json:"id"`
		Name     string         `json:"name"`
		Counters []card.Element `json:"counters"`
	}
	out := make([]element, 0, len(card.Elements))
	for _, e := range card.Elements {
		out = append(out, element{ID: e, Name: e.DisplayName(), Counters: card.Counters[e]})
	}
	writeJSON(w, http.StatusOK, out)
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
