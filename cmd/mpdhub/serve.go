package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"mpdhub/internal/configflow"
	"mpdhub/internal/hub"
	"mpdhub/internal/integration"
	"mpdhub/internal/mediaplayer"
	"mpdhub/internal/models"
	"mpdhub/internal/mpd"
	"mpdhub/internal/scheduler"
	"mpdhub/internal/server"
	"mpdhub/internal/store"
	"mpdhub/internal/version"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and poll configured MPD servers",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve(cmd.Context())
		},
	}

	f := cmd.Flags()
	f.String("listen-addr", "", "HTTP listen address.")
	f.Duration("poll-interval", 0, "How often each MPD server is polled.")
	f.String("cors-origin", "", "Allowed CORS origin for the API.")
	f.Int("flow-rate-limit", 0, "Config flow submissions per client per minute.")
	for flag, key := range map[string]string{
		"listen-addr":     "listen_addr",
		"poll-interval":   "poll_interval",
		"cors-origin":     "cors_origin",
		"flow-rate-limit": "flow_rate_limit",
	} {
		_ = a.v.BindPFlag(key, f.Lookup(flag))
	}
	return cmd
}

func (a *app) serve(ctx context.Context) error {
	s, err := a.openStore()
	if err != nil {
		return err
	}
	defer s.Close()
	if !s.HasSealer() {
		slog.Warn("no secret key configured, MPD passwords are stored in plain text")
	}

	players := mediaplayer.New(mpd.NewClient, mediaplayer.WithInterval(a.cfg.PollInterval))
	reg := integration.NewRegistry()
	if err := reg.Register(integration.PlatformMediaPlayer, players); err != nil {
		return err
	}
	integ, err := integration.New(reg)
	if err != nil {
		return err
	}

	h := hub.New(context.Background())
	integ.Setup(h)

	entries, err := s.ListEntries()
	if err != nil {
		return fmt.Errorf("loading entries: %w", err)
	}
	for _, e := range entries {
		integ.SetupEntry(ctx, h, e)
	}
	slog.Info("entries loaded", "count", len(entries))

	flows := configflow.NewManager(configflow.New(mpd.NewClient))
	sch := scheduler.New(flows)
	sch.Start(ctx)
	defer sch.Stop()

	opts := []server.Option{
		server.WithIntegration(h, integ),
		server.WithFlows(flows),
		server.WithPlayers(players),
		server.WithFlowRateLimit(a.cfg.FlowRateLimit),
	}
	if a.cfg.CORSOrigin != "" {
		opts = append(opts, server.WithCORSOrigin(a.cfg.CORSOrigin))
	}
	srv := server.NewServer(s, opts...)
	defer srv.Close()

	httpServer := &http.Server{
		Addr:              a.cfg.ListenAddr,
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("mpdhub listening", "addr", a.cfg.ListenAddr, "version", version.Get().String())
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("http shutdown", "error", err)
	}
	unloadAll(shutdownCtx, s, h, integ)
	if err := h.Shutdown(shutdownCtx); err != nil {
		slog.Error("hub shutdown", "error", err)
	}
	return nil
}

// unloadAll unloads every entry still loaded in the hub.
func unloadAll(ctx context.Context, s *store.Store, h *hub.Hub, integ *integration.Integration) {
	ns, ok := h.Namespace(models.Domain)
	if !ok {
		return
	}
	for _, id := range ns.IDs() {
		e, err := s.GetEntry(id)
		if err != nil {
			slog.Warn("loaded entry missing from store", "entry_id", id, "error", err)
			continue
		}
		if !integ.UnloadEntry(ctx, h, *e) {
			slog.Warn("entry did not unload cleanly", "entry_id", id)
		}
	}
}
