package httpapi

import (
	"net/http"
	"time"

	"github.com/DoyleJ11/card-battle-backend/internal/hub"
	"github.com/DoyleJ11/card-battle-backend/internal/service"
	"github.com/DoyleJ11/card-battle-backend/internal/ws"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

func SetupRoutes(svc *service.Service, h *hub.Hub, log *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(log))

	r.Route("/rooms", func(r chi.Router) {
		r.Post("/", CreateRoom(svc))
		r.Get("/{roomID}", GetState(svc))
		r.Post("/{roomID}/join", JoinRoom(svc))
		r.Post("/{roomID}/start", StartGame(svc))
		r.Post("/{roomID}/choose", ChooseCard(svc))
		r.Post("/{roomID}/leave", LeaveRoom(svc))
	})

	r.Route("/tournaments", func(r chi.Router) {
		r.Post("/", StartTournament(svc))
		r.Get("/current", GetTournament(svc))
		r.Delete("/current", AbandonTournament(svc))
		r.Post("/current/match", StartTournamentMatch(svc))
		r.Post("/current/report", ReportTournamentMatch(svc))
		r.Get("/history", TournamentHistory(svc))
	})

	r.Route("/drafts", func(r chi.Router) {
		r.Post("/", StartDraft(svc))
		r.Post("/{draftID}/pick", DraftPick(svc))
		r.Post("/{draftID}/room", CreateDraftRoom(svc))
	})

	r.Get("/evolution", EvolvedCards(svc))
	r.Delete("/evolution", ResetEvolution(svc))
	r.Get("/elements", Elements)

	// Public routes
	r.Get("/healthz", Healthz)
	r.Get("/ws", ws.Handler(svc, h, log))
	return r
}

func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Debug("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("took", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}
