package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"mpdhub/internal/configflow"
	"mpdhub/internal/hub"
	"mpdhub/internal/integration"
	"mpdhub/internal/mediaplayer"
	"mpdhub/internal/models"
	"mpdhub/internal/mpd"
	"mpdhub/internal/mpd/mpdtest"
	"mpdhub/internal/store"
	"mpdhub/migrations"
)

type testEnv struct {
	srv     *Server
	store   *store.Store
	hub     *hub.Hub
	probe   *mpdtest.Client
	players *mediaplayer.Platform
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	if err := s.MigrateFS(migrations.FS); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// newTestEnv wires a server the way cmd/mpdhub does, with every MPD
// connection served by fakes. The probe client is shared by all config
// flows so tests can script its failures.
func newTestEnv(t *testing.T, opts ...Option) *testEnv {
	t.Helper()
	s := newTestStore(t)

	players := mediaplayer.New(
		(&mpdtest.Factory{New: func() *mpdtest.Client {
			return &mpdtest.Client{StatusAttrs: mpd.Attrs{"state": "play", "volume": "40"}}
		}}).Func(),
		mediaplayer.WithInterval(5*time.Millisecond),
	)

	probe := &mpdtest.Client{}
	probeFactory := &mpdtest.Factory{New: func() *mpdtest.Client { return probe }}

	env := &testEnv{store: s, probe: probe, players: players}
	env.srv, env.hub = buildServer(t, s, players, players, probeFactory.Func(), opts...)
	t.Cleanup(func() { players.Stop(context.Background()) })
	return env
}

func buildServer(t *testing.T, s *store.Store, platform integration.Platform, players PlayerSource, newClient mpd.NewClientFunc, opts ...Option) (*Server, *hub.Hub) {
	t.Helper()
	reg := integration.NewRegistry()
	if err := reg.Register(integration.PlatformMediaPlayer, platform); err != nil {
		t.Fatal(err)
	}
	integ, err := integration.New(reg)
	if err != nil {
		t.Fatal(err)
	}
	h := hub.New(context.Background())
	integ.Setup(h)
	t.Cleanup(func() { h.Shutdown(context.Background()) })

	all := append([]Option{
		WithIntegration(h, integ),
		WithFlows(configflow.NewManager(configflow.New(newClient))),
		WithPlayers(players),
	}, opts...)
	srv := NewServer(s, all...)
	t.Cleanup(srv.Close)
	return srv, h
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func strPtr(s string) *string { return &s }

func seedEntry(t *testing.T, s *store.Store, id string) models.Entry {
	t.Helper()
	e := models.Entry{
		ID:     id,
		Domain: models.Domain,
		Title:  "Player " + id,
		Source: models.SourceUser,
		Data:   models.ConnectionInput{Host: "mpd.lan", Name: "Player " + id, Port: 6600, Password: strPtr("pw")},
	}
	if err := s.CreateEntry(&e); err != nil {
		t.Fatal(err)
	}
	return e
}
