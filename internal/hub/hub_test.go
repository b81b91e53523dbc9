package hub

import (
	"context"
	"testing"
	"time"

	"github.com/DoyleJ11/card-battle-backend/internal/engine"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHub(t *testing.T) (*Hub, *clockwork.FakeClock) {
	t.Helper()
	clock := clockwork.NewFakeClock()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	h := NewHub(ctx, Config{
		Engine: engine.New(engine.Config{Delays: engine.DefaultDelays()}),
		Clock:  clock,
	})
	return h, clock
}

func waitClosed(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("expected channel to be closed")
	}
}

func TestHub_Create_Get_SamePointer(t *testing.T) {
	ctx := context.Background()
	h, _ := newTestHub(t)

	id, lb1, err := h.Create(ctx, engine.NewState("", engine.Rules{}, nil), nil)
	require.NoError(t, err)
	assert.Len(t, id, codeLength)

	lb2, err := h.Get(ctx, id)
	require.NoError(t, err)
	assert.Same(t, lb1, lb2)

	view, err := lb2.View(ctx)
	require.NoError(t, err)
	assert.Equal(t, id, view.State.RoomID)
}

func TestHub_GetUnknownRoom(t *testing.T) {
	h, _ := newTestHub(t)
	_, err := h.Get(context.Background(), "NOPE00")
	assert.ErrorIs(t, err, engine.ErrRoomNotFound)
}

func TestHub_RemoveShutsLobbyDown(t *testing.T) {
	ctx := context.Background()
	h, _ := newTestHub(t)

	id, lb, err := h.Create(ctx, engine.NewState("", engine.Rules{}, nil), nil)
	require.NoError(t, err)
	require.NoError(t, h.Remove(ctx, id))

	waitClosed(t, lb.Done())
	_, err = h.Get(ctx, id)
	assert.ErrorIs(t, err, engine.ErrRoomNotFound)
}

func TestHub_ReapIdleRooms(t *testing.T) {
	ctx := context.Background()
	h, clock := newTestHub(t)

	idleID, idle, err := h.Create(ctx, engine.NewState("", engine.Rules{}, nil), nil)
	require.NoError(t, err)

	clock.Advance(20 * time.Minute)
	busyID, busy, err := h.Create(ctx, engine.NewState("", engine.Rules{}, nil), nil)
	require.NoError(t, err)

	clock.Advance(15 * time.Minute)
	_, err = busy.Do(ctx, engine.Command{Type: engine.CmdJoin, PlayerID: "p1"})
	require.NoError(t, err)

	removed, err := h.Reap(ctx, 30*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, []string{idleID}, removed)
	waitClosed(t, idle.Done())

	n, err := h.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	_, err = h.Get(ctx, busyID)
	assert.NoError(t, err)
}

func TestHub_ShutdownClosesRooms(t *testing.T) {
	ctx := context.Background()
	h, _ := newTestHub(t)
	_, lb, err := h.Create(ctx, engine.NewState("", engine.Rules{}, nil), nil)
	require.NoError(t, err)

	h.Shutdown()
	waitClosed(t, h.Done())
	waitClosed(t, lb.Done())

	_, err = h.Get(ctx, "ANY000")
	assert.ErrorIs(t, err, ErrClosed)
}

func TestHub_StartReaper(t *testing.T) {
	h, _ := newTestHub(t)
	s, err := h.StartReaper(time.Minute, 30*time.Minute)
	require.NoError(t, err)
	assert.Len(t, s.Jobs(), 1)
	assert.NoError(t, s.Shutdown())
}
