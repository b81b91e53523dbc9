package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/DoyleJ11/card-battle-backend/internal/card"
	"github.com/DoyleJ11/card-battle-backend/internal/hub"
	"github.com/DoyleJ11/card-battle-backend/internal/lobby"
	"github.com/DoyleJ11/card-battle-backend/internal/service"
	"github.com/DoyleJ11/card-battle-backend/pkg/types"
	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Handler streams room snapshots and accepts player commands on the same
// connection.
func Handler(svc *service.Service, h *hub.Hub, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		roomID := r.URL.Query().Get("room")
		if roomID == "" {
			http.Error(w, "missing room", http.StatusBadRequest)
			return
		}

		lb, err := h.Get(r.Context(), roomID)
		if err != nil {
			http.Error(w, "room not found", http.StatusNotFound)
			return
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			// In dev ONLY, you can loosen origin checks:
			// OriginPatterns: []string{"http://localhost:*", "http://127.0.0.1:*"},
		})
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		out := make(chan lobby.Snapshot, 8)
		clientID := uuid.NewString()
		log := log.With(zap.String("room", roomID), zap.String("client", clientID))

		select {
		case lb.Inbox() <- lobby.Join{ClientID: clientID, Outbox: out}:
		case <-lb.Done():
			return
		}
		defer func() {
			select {
			case lb.Inbox() <- lobby.Leave{ClientID: clientID}:
			case <-lb.Done():
			}
		}()

		write := func(ctx context.Context, msg types.ServerMessage) error {
			payload, err := json.Marshal(msg)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
			defer cancel()
			return conn.Write(ctx, websocket.MessageText, payload)
		}

		// Writer goroutine
		writeCtx, writeCancel := context.WithCancel(r.Context())
		defer writeCancel()
		go func() {
			pump(lb.Done(), out, func(snap lobby.Snapshot) error {
				return write(writeCtx, types.Snapshot(snap.Version, snap.State))
			}, log)
			conn.Close(websocket.StatusGoingAway, "room closed")
		}()

		// Reader loop
		for {
			ctx, cancel := context.WithTimeout(r.Context(), 5*time.Minute)
			_, data, err := conn.Read(ctx)
			cancel()
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				default:
					log.Debug("websocket read ended", zap.Error(err))
				}
				return
			}

			var cm types.ClientMessage
			if err := json.Unmarshal(data, &cm); err != nil {
				_ = write(r.Context(), types.Error("bad_json"))
				continue
			}

			if code := dispatch(r.Context(), svc, roomID, cm); code != "" {
				_ = write(r.Context(), types.Error(code))
			}
		}
	}
}

// pump forwards snapshots until the outbox is closed or the room is gone.
// A Join that raced with shutdown is never registered, so done is the only
// way out for it.
func pump(done <-chan struct{}, out <-chan lobby.Snapshot, send func(lobby.Snapshot) error, log *zap.Logger) {
	for {
		select {
		case snap, ok := <-out:
			if !ok {
				return
			}
			if err := send(snap); err != nil {
				log.Debug("snapshot write failed", zap.Error(err))
			}
		case <-done:
			return
		}
	}
}

// dispatch runs a client message and returns an error code, or "" on
// success. Successful commands are visible through the snapshot stream.
func dispatch(ctx context.Context, svc *service.Service, roomID string, m types.ClientMessage) string {
	switch m.Type {
	case types.MsgJoin:
		return svc.JoinRoom(ctx, roomID, m.PlayerID, m.PlayerName).Error
	case types.MsgStartGame:
		return svc.StartGame(ctx, roomID).Error
	case types.MsgChooseCard:
		return svc.ChooseCard(ctx, roomID, card.Side(m.Side), m.CardIndex).Error
	case types.MsgLeave:
		return svc.LeaveRoom(ctx, roomID, m.PlayerID).Error
	default:
		return "unknown_type"
	}
}
