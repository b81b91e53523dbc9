// Package lobby runs one match room as an actor goroutine. All state changes
// go through the inbox, including the delayed continuations of a round.
package lobby

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/DoyleJ11/card-battle-backend/internal/engine"
	"github.com/DoyleJ11/card-battle-backend/internal/scheduler"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

type Msg interface{ isLobbyMsg() }

// FromClient applies a player command. Reply, if set, must be buffered.
type FromClient struct {
	Cmd   engine.Command
	Reply chan Result
}

func (FromClient) isLobbyMsg() {}

type Join struct {
	ClientID string
	Outbox   chan Snapshot // where this client wants to receive snapshots
}

func (Join) isLobbyMsg() {}

type Leave struct{ ClientID string }

func (Leave) isLobbyMsg() {}

type Shutdown struct{}

func (Shutdown) isLobbyMsg() {}

type GetState struct {
	Reply chan View
}

func (GetState) isLobbyMsg() {}

// continuation is posted by the scheduler when a round step is due.
type continuation struct{ cmd engine.Command }

func (continuation) isLobbyMsg() {}

type Snapshot struct {
	Version int          `json:"version"`
	State   engine.State `json:"state"`
}

type View struct {
	Version    int
	NumClients int
	Pending    int
	State      engine.State
}

type Result struct {
	Events   []engine.Event
	Snapshot Snapshot
	Err      error
}

type Options struct {
	Engine *engine.Engine
	Clock  clockwork.Clock
	Logger *zap.Logger

	// OnComplete runs on the lobby goroutine once the match completes.
	OnComplete func(engine.State)
}

type Lobby struct {
	inbox   chan Msg
	state   engine.State
	version int
	clients map[string]chan Snapshot

	eng        *engine.Engine
	sched      *scheduler.Scheduler
	clock      clockwork.Clock
	log        *zap.Logger
	onComplete func(engine.State)

	lastActivity atomic.Int64
	ctx          context.Context
	cancel       context.CancelFunc
}

func NewLobby(parent context.Context, initial engine.State, opts Options) *Lobby {
	ctx, cancel := context.WithCancel(parent)
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Engine == nil {
		opts.Engine = engine.New(engine.Config{Delays: engine.DefaultDelays(), Logger: opts.Logger})
	}

	l := &Lobby{
		inbox:      make(chan Msg, 64), // Small buffer
		state:      initial,
		version:    0,
		clients:    make(map[string]chan Snapshot),
		eng:        opts.Engine,
		sched:      scheduler.New(opts.Clock),
		clock:      opts.Clock,
		log:        opts.Logger.With(zap.String("room", initial.RoomID)),
		onComplete: opts.OnComplete,
		ctx:        ctx,
		cancel:     cancel,
	}
	l.touch()

	go l.loop()
	return l
}

func (l *Lobby) loop() {
	for {
		select {
		case <-l.ctx.Done():
			l.shutdown()
			return

		case m := <-l.inbox:
			switch msg := m.(type) {
			case Join:
				// Register client + send current snapshot immediately
				l.clients[msg.ClientID] = msg.Outbox
				msg.Outbox <- l.snapshot()

			case Leave:
				if ch, ok := l.clients[msg.ClientID]; ok {
					close(ch)
					delete(l.clients, msg.ClientID)
				}

			case FromClient:
				l.touch()
				res := l.apply(msg.Cmd)
				if msg.Reply != nil {
					msg.Reply <- res
				}

			case continuation:
				if res := l.apply(msg.cmd); res.Err != nil {
					l.log.Debug("dropped continuation",
						zap.String("cmd", string(msg.cmd.Type)),
						zap.Int("round", msg.cmd.Round),
						zap.Error(res.Err),
					)
				}

			case GetState:
				msg.Reply <- View{
					Version:    l.version,
					NumClients: len(l.clients),
					Pending:    l.sched.Pending(),
					State:      l.state,
				}

			case Shutdown:
				l.shutdown()
				return
			}
		}
	}
}

func (l *Lobby) apply(cmd engine.Command) Result {
	events, next, err := l.eng.Apply(l.ctx, l.state, cmd)
	if err != nil {
		return Result{Err: err, Snapshot: l.snapshot()}
	}
	l.state = next
	l.version++

	completed := false
	for _, ev := range events {
		switch ev.Type {
		case engine.EvtStepScheduled:
			l.schedule(ev)
		case engine.EvtGameCompleted:
			completed = true
		}
	}

	snap := l.snapshot()
	l.broadcast(snap)
	if completed {
		l.log.Info("match completed",
			zap.String("winner", string(l.state.Winner)),
			zap.Int("rounds", l.state.RoundsPlayed()),
		)
		if l.onComplete != nil {
			l.onComplete(l.state.Clone())
		}
	}
	return Result{Events: events, Snapshot: snap}
}

func (l *Lobby) schedule(ev engine.Event) {
	cmd := engine.Command{Type: ev.Next, Round: ev.Round}
	l.sched.AfterFunc(ev.Delay, func() {
		select {
		case l.inbox <- continuation{cmd: cmd}:
		case <-l.ctx.Done():
		}
	})
}

func (l *Lobby) snapshot() Snapshot {
	return Snapshot{Version: l.version, State: l.state}
}

func (l *Lobby) shutdown() {
	l.sched.Stop()
	for id, ch := range l.clients {
		close(ch) // Tell client no more snapshots
		delete(l.clients, id)
	}
	l.cancel()
}

func (l *Lobby) broadcast(snap Snapshot) {
	for id, ch := range l.clients {
		select {
		case ch <- snap:
			//ok
		default:
			// Client is slow/full - drop them.
			close(ch)
			delete(l.clients, id)
		}
	}
}

func (l *Lobby) touch() { l.lastActivity.Store(l.clock.Now().UnixNano()) }

// LastActivity is the time of the last player command.
func (l *Lobby) LastActivity() time.Time { return time.Unix(0, l.lastActivity.Load()) }

// Done is closed once the lobby has shut down.
func (l *Lobby) Done() <-chan struct{} { return l.ctx.Done() }

// Expose the inbox so tests or WS layer can send messages.
func (l *Lobby) Inbox() chan<- Msg { return l.inbox }

var ErrClosed = errors.New("lobby closed")

// Do sends cmd and waits for its result.
func (l *Lobby) Do(ctx context.Context, cmd engine.Command) (Result, error) {
	reply := make(chan Result, 1)
	select {
	case l.inbox <- FromClient{Cmd: cmd, Reply: reply}:
	case <-l.ctx.Done():
		return Result{}, ErrClosed
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
	select {
	case res := <-reply:
		return res, nil
	case <-l.ctx.Done():
		return Result{}, ErrClosed
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

// View asks the lobby for its current state.
func (l *Lobby) View(ctx context.Context) (View, error) {
	reply := make(chan View, 1)
	select {
	case l.inbox <- GetState{Reply: reply}:
	case <-l.ctx.Done():
		return View{}, ErrClosed
	case <-ctx.Done():
		return View{}, ctx.Err()
	}
	select {
	case v := <-reply:
		return v, nil
	case <-l.ctx.Done():
		return View{}, ErrClosed
	case <-ctx.Done():
		return View{}, ctx.Err()
	}
}
