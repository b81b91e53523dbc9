package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DoyleJ11/card-battle-backend/internal/engine"
	"github.com/DoyleJ11/card-battle-backend/internal/evolution"
	"github.com/DoyleJ11/card-battle-backend/internal/hub"
	"github.com/DoyleJ11/card-battle-backend/internal/service"
	"github.com/DoyleJ11/card-battle-backend/internal/storage"
	"github.com/DoyleJ11/card-battle-backend/internal/tournament"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	kv := storage.NewMemory()
	evo, err := evolution.NewStore(ctx, kv, nil)
	require.NoError(t, err)
	tours, err := tournament.NewManager(ctx, kv, tournament.Options{Rand: rand.New(rand.NewPCG(1, 1))})
	require.NoError(t, err)
	eng := engine.New(engine.Config{Evolution: evo, Rand: rand.New(rand.NewPCG(2, 2))})
	h := hub.NewHub(ctx, hub.Config{Engine: eng})
	svc := service.New(service.Config{Hub: h, Evolution: evo, Tournaments: tours})

	srv := httptest.NewServer(SetupRoutes(svc, h, zap.NewNop()))
	t.Cleanup(srv.Close)
	return srv
}

func call(t *testing.T, srv *httptest.Server, method, path string, body any, out any) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, srv.URL+path, &buf)
	require.NoError(t, err)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestRoomRoutes(t *testing.T) {
	srv := newTestServer(t)

	var created service.CreateRoomResult
	require.Equal(t, http.StatusCreated, call(t, srv, http.MethodPost, "/rooms", nil, &created))
	require.True(t, created.OK)
	require.Len(t, created.RoomID, 6)

	var joined service.JoinRoomResult
	status := call(t, srv, http.MethodPost, "/rooms/"+created.RoomID+"/join", joinRequest{PlayerName: "Alice"}, &joined)
	require.Equal(t, http.StatusOK, status)
	assert.NotEmpty(t, joined.PlayerID)

	var started service.StartGameResult
	require.Equal(t, http.StatusOK, call(t, srv, http.MethodPost, "/rooms/"+created.RoomID+"/start", nil, &started))
	require.NotNil(t, started.State)
	assert.Equal(t, engine.PhaseInProgress, started.State.Phase)
	assert.Len(t, started.State.Human.Hand, engine.DefaultHandSize)

	var again service.StartGameResult
	assert.Equal(t, http.StatusConflict, call(t, srv, http.MethodPost, "/rooms/"+created.RoomID+"/start", nil, &again))
	assert.Equal(t, "game_started", again.Error)

	var missing service.GetStateResult
	assert.Equal(t, http.StatusNotFound, call(t, srv, http.MethodGet, "/rooms/nope00", nil, &missing))
	assert.Equal(t, "room_not_found", missing.Error)
}

func TestTournamentRoutes(t *testing.T) {
	srv := newTestServer(t)

	var none service.TournamentResult
	assert.Equal(t, http.StatusNotFound, call(t, srv, http.MethodGet, "/tournaments/current", nil, &none))

	var bad service.TournamentResult
	assert.Equal(t, http.StatusBadRequest, call(t, srv, http.MethodPost, "/tournaments", map[string]string{"tier": "diamond"}, &bad))
	assert.Equal(t, "unknown_tier", bad.Error)

	var started service.TournamentResult
	require.Equal(t, http.StatusCreated, call(t, srv, http.MethodPost, "/tournaments", map[string]string{"tier": "bronze"}, &started))
	require.NotNil(t, started.Tournament)
	assert.Equal(t, tournament.TierBronze, started.Tournament.Tier)
}

func TestStaticRoutes(t *testing.T) {
	srv := newTestServer(t)

	assert.Equal(t, http.StatusOK, call(t, srv, http.MethodGet, "/healthz", nil, nil))

	var elements []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	require.Equal(t, http.StatusOK, call(t, srv, http.MethodGet, "/elements", nil, &elements))
	require.Len(t, elements, 11)
	assert.Equal(t, "Electricity", elements[4].Name)

	var malformed service.Failure
	req, err := http.NewRequest(http.MethodPost, srv.URL+"/drafts/x/pick", bytes.NewBufferString("{"))
	require.NoError(t, err)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&malformed))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "bad_request", malformed.Error)
}
