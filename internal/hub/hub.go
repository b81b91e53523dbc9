// Package hub owns the registry of live rooms.
package hub

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/DoyleJ11/card-battle-backend/internal/engine"
	"github.com/DoyleJ11/card-battle-backend/internal/lobby"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

var ErrClosed = errors.New("hub closed")

type HubMsg interface{ isHubMsg() }

type CreateRoom struct {
	State      engine.State // RoomID is assigned by the hub
	OnComplete func(engine.State)
	Reply      chan Created
}

type Created struct {
	ID    string
	Lobby *lobby.Lobby
	Err   error
}

type GetRoom struct {
	ID    string
	Reply chan *lobby.Lobby
}

type RemoveRoom struct {
	ID string
}

// ReapIdle removes rooms without player activity for TTL.
type ReapIdle struct {
	TTL   time.Duration
	Reply chan []string // optional, receives the removed ids
}

type CountRooms struct {
	Reply chan int
}

type ShutdownHub struct{}

func (CreateRoom) isHubMsg()  {}
func (GetRoom) isHubMsg()     {}
func (RemoveRoom) isHubMsg()  {}
func (ReapIdle) isHubMsg()    {}
func (CountRooms) isHubMsg()  {}
func (ShutdownHub) isHubMsg() {}

type Config struct {
	Engine *engine.Engine
	Clock  clockwork.Clock
	Logger *zap.Logger
}

type Hub struct {
	inbox chan HubMsg
	rooms map[string]*lobby.Lobby

	eng   *engine.Engine
	clock clockwork.Clock
	log   *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
}

func NewHub(parent context.Context, cfg Config) *Hub {
	ctx, cancel := context.WithCancel(parent)
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	h := &Hub{
		inbox:  make(chan HubMsg, 64),
		rooms:  make(map[string]*lobby.Lobby),
		eng:    cfg.Engine,
		clock:  cfg.Clock,
		log:    cfg.Logger,
		ctx:    ctx,
		cancel: cancel,
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

func (h *Hub) loop() {
	for {
		select {
		case <-h.ctx.Done():
			h.shutdown()
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case CreateRoom:
				msg.Reply <- h.create(msg)

			case GetRoom:
				msg.Reply <- h.rooms[msg.ID] // May be nil

			case RemoveRoom:
				h.remove(msg.ID)

			case ReapIdle:
				removed := h.reap(msg.TTL)
				if msg.Reply != nil {
					msg.Reply <- removed
				}

			case CountRooms:
				msg.Reply <- len(h.rooms)

			case ShutdownHub:
				h.shutdown()
				return
			}
		}
	}
}

func (h *Hub) create(msg CreateRoom) Created {
	var id string
	for {
		c, err := GenerateCode()
		if err != nil {
			return Created{Err: fmt.Errorf("generate room code: %w", err)}
		}
		if h.rooms[c] == nil {
			id = c
			break
		}
		h.log.Debug("collision on room code, regenerating", zap.String("room", c))
	}

	state := msg.State
	state.RoomID = id
	lb := lobby.NewLobby(h.ctx, state, lobby.Options{
		Engine:     h.eng,
		Clock:      h.clock,
		Logger:     h.log,
		OnComplete: msg.OnComplete,
	})
	h.rooms[id] = lb
	h.log.Info("room created", zap.String("room", id))
	return Created{ID: id, Lobby: lb}
}

func (h *Hub) remove(id string) {
	lb, ok := h.rooms[id]
	if !ok {
		return
	}
	delete(h.rooms, id)
	go func() {
		select {
		case lb.Inbox() <- lobby.Shutdown{}:
		case <-lb.Done():
		}
	}()
}

func (h *Hub) reap(ttl time.Duration) []string {
	now := h.clock.Now()
	var removed []string
	for id, lb := range h.rooms {
		if now.Sub(lb.LastActivity()) >= ttl {
			removed = append(removed, id)
		}
	}
	for _, id := range removed {
		h.remove(id)
	}
	if len(removed) > 0 {
		h.log.Info("reaped idle rooms", zap.Strings("rooms", removed))
	}
	return removed
}

func (h *Hub) shutdown() {
	for id := range h.rooms {
		h.remove(id)
	}
	h.cancel()
}

func (h *Hub) send(ctx context.Context, msg HubMsg) error {
	select {
	case h.inbox <- msg:
		return nil
	case <-h.ctx.Done():
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func recv[T any](ctx context.Context, h *Hub, ch <-chan T) (T, error) {
	var zero T
	select {
	case v := <-ch:
		return v, nil
	case <-h.ctx.Done():
		return zero, ErrClosed
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// Create registers a new room for state and returns its id.
func (h *Hub) Create(ctx context.Context, state engine.State, onComplete func(engine.State)) (string, *lobby.Lobby, error) {
	reply := make(chan Created, 1)
	if err := h.send(ctx, CreateRoom{State: state, OnComplete: onComplete, Reply: reply}); err != nil {
		return "", nil, err
	}
	c, err := recv(ctx, h, reply)
	if err != nil {
		return "", nil, err
	}
	return c.ID, c.Lobby, c.Err
}

// Get returns the room, or engine.ErrRoomNotFound.
func (h *Hub) Get(ctx context.Context, id string) (*lobby.Lobby, error) {
	reply := make(chan *lobby.Lobby, 1)
	if err := h.send(ctx, GetRoom{ID: id, Reply: reply}); err != nil {
		return nil, err
	}
	lb, err := recv(ctx, h, reply)
	if err != nil {
		return nil, err
	}
	if lb == nil {
		return nil, engine.ErrRoomNotFound
	}
	return lb, nil
}

func (h *Hub) Remove(ctx context.Context, id string) error {
	return h.send(ctx, RemoveRoom{ID: id})
}

func (h *Hub) Reap(ctx context.Context, ttl time.Duration) ([]string, error) {
	reply := make(chan []string, 1)
	if err := h.send(ctx, ReapIdle{TTL: ttl, Reply: reply}); err != nil {
		return nil, err
	}
	return recv(ctx, h, reply)
}

func (h *Hub) Count(ctx context.Context) (int, error) {
	reply := make(chan int, 1)
	if err := h.send(ctx, CountRooms{Reply: reply}); err != nil {
		return 0, err
	}
	return recv(ctx, h, reply)
}

func (h *Hub) Shutdown() {
	select {
	case h.inbox <- ShutdownHub{}:
	case <-h.ctx.Done():
	}
}

func (h *Hub) Done() <-chan struct{} { return h.ctx.Done() }
