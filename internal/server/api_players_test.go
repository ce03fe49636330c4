package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mpdhub/internal/models"
	"mpdhub/internal/mpd/mpdtest"
)

func loadPlayer(t *testing.T, env *testEnv, id string) {
	t.Helper()
	e := seedEntry(t, env.store, id)
	require.True(t, env.srv.integration.SetupEntry(context.Background(), env.hub, e))
	require.Eventually(t, func() bool {
		st, ok := env.players.Player(id)
		return ok && st.State == models.PlaybackPlay
	}, time.Second, 5*time.Millisecond)
}

func TestListPlayers(t *testing.T) {
	env := newTestEnv(t)
	loadPlayer(t, env, "b")
	loadPlayer(t, env, "a")

	w := doJSON(t, env.srv, http.MethodGet, "/api/players", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var players []models.PlayerState
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &players))
	require.Len(t, players, 2)
	assert.Equal(t, "Player a", players[0].Name)
	assert.Equal(t, 40, players[0].Volume)
}

func TestGetPlayer(t *testing.T) {
	env := newTestEnv(t)
	loadPlayer(t, env, "a")

	w := doJSON(t, env.srv, http.MethodGet, "/api/players/a", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, env.srv, http.MethodGet, "/api/players/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPlayersWithoutSource(t *testing.T) {
	srv, _ := buildServer(t, newTestStore(t), nopPlatform{}, nil, (&mpdtest.Factory{}).Func())

	w := doJSON(t, srv, http.MethodGet, "/api/players", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

type nopPlatform struct{}

func (nopPlatform) SetupEntry(context.Context, models.Entry) error  { return nil }
func (nopPlatform) UnloadEntry(context.Context, models.Entry) error { return nil }

func TestPlayersWebsocket(t *testing.T) {
	env := newTestEnv(t)
	loadPlayer(t, env, "a")

	ts := httptest.NewServer(env.srv)
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/players/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var snap playerMessage
	require.NoError(t, conn.ReadJSON(&snap))
	assert.Equal(t, "snapshot", snap.Type)
	require.Len(t, snap.Players, 1)
	assert.Equal(t, "a", snap.Players[0].EntryID)

	loadPlayer(t, env, "b")
	for {
		var msg playerMessage
		require.NoError(t, conn.ReadJSON(&msg))
		if msg.Type == "update" && msg.Player != nil && msg.Player.EntryID == "b" {
			break
		}
	}
}

func TestPlayersWebsocketRejectsForeignOrigin(t *testing.T) {
	env := newTestEnv(t, WithCORSOrigin("http://ui.lan"))
	ts := httptest.NewServer(env.srv)
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/players/ws"
	_, resp, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": {"http://evil.example"}})
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	conn, _, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": {"http://ui.lan"}})
	require.NoError(t, err)
	conn.Close()
}

func TestPlayersSSE(t *testing.T) {
	env := newTestEnv(t)
	loadPlayer(t, env, "a")

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/api/players/events", nil).WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		env.srv.ServeHTTP(w, req)
		close(done)
	}()
	time.Sleep(20 * time.Millisecond)
	cancel()
	<-done

	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "event: snapshot")
	assert.Contains(t, w.Body.String(), `"entry_id":"a"`)
}
