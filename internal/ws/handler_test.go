package ws

import (
	"context"
	"testing"
	"time"

	"github.com/DoyleJ11/card-battle-backend/internal/engine"
	"github.com/DoyleJ11/card-battle-backend/internal/lobby"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func runPump(done <-chan struct{}, out <-chan lobby.Snapshot, sent chan<- lobby.Snapshot) <-chan struct{} {
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		pump(done, out, func(s lobby.Snapshot) error {
			sent <- s
			return nil
		}, zap.NewNop())
	}()
	return finished
}

func waitClosed(t *testing.T, ch <-chan struct{}, within time.Duration) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(within):
		t.Fatalf("pump did not return")
	}
}

func TestPump_ForwardsUntilOutboxCloses(t *testing.T) {
	out := make(chan lobby.Snapshot, 2)
	sent := make(chan lobby.Snapshot, 2)
	out <- lobby.Snapshot{Version: 1}
	out <- lobby.Snapshot{Version: 2}
	close(out)

	waitClosed(t, runPump(make(chan struct{}), out, sent), time.Second)
	assert.Equal(t, 1, (<-sent).Version)
	assert.Equal(t, 2, (<-sent).Version)
}

func TestPump_ReturnsWhenRoomStopsWithoutClosingOutbox(t *testing.T) {
	lb := lobby.NewLobby(context.Background(), engine.NewState("room_ws", engine.Rules{}, nil), lobby.Options{})
	lb.Inbox() <- lobby.Shutdown{}
	waitClosed(t, lb.Done(), time.Second)

	// Never registered with the lobby, so nobody closes it.
	out := make(chan lobby.Snapshot, 1)
	waitClosed(t, runPump(lb.Done(), out, make(chan lobby.Snapshot, 1)), time.Second)
}
