package mediaplayer

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"mpdhub/internal/metrics"
	"mpdhub/internal/models"
	"mpdhub/internal/mpd"
)

func (p *Platform) run(ctx context.Context, pl *player) {
	defer close(pl.done)

	var client mpd.Client
	defer func() {
		if client != nil {
			client.Disconnect()
		}
	}()

	bo := p.newBackOff()
	bo.Reset()
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		if client == nil {
			c, err := p.connect(pl.entry)
			if err != nil {
				p.update(pl, models.PlayerState{State: models.PlaybackUnavailable, Error: err.Error()})
				wait := bo.NextBackOff()
				if wait == backoff.Stop {
					wait = p.interval
				}
				slog.Debug("media player reconnect scheduled", "entry_id", pl.entry.ID, "in", wait, "error", err)
				select {
				case <-ctx.Done():
					return
				case <-time.After(wait):
				}
				metrics.PlayerReconnects.Inc()
				continue
			}
			client = c
			bo.Reset()
		}

		st, err := poll(client)
		if err != nil {
			slog.Warn("media player lost connection", "entry_id", pl.entry.ID, "name", pl.entry.Title, "error", err)
			client.Disconnect()
			client = nil
			p.update(pl, models.PlayerState{State: models.PlaybackUnavailable, Error: err.Error()})
		} else {
			p.update(pl, st)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (p *Platform) connect(entry models.Entry) (mpd.Client, error) {
	c := p.newClient()
	if err := c.Connect(entry.Data.Addr()); err != nil {
		c.Disconnect()
		return nil, fmt.Errorf("connecting to %s: %w", entry.Data.Addr(), err)
	}
	if entry.Data.HasPassword() {
		if err := c.Password(*entry.Data.Password); err != nil {
			c.Disconnect()
			return nil, fmt.Errorf("authenticating to %s: %w", entry.Data.Addr(), err)
		}
	}
	return c, nil
}

func poll(c mpd.Client) (models.PlayerState, error) {
	status, err := c.Status()
	if err != nil {
		return models.PlayerState{}, fmt.Errorf("status: %w", err)
	}
	st := parseStatus(status)
	if st.State == models.PlaybackStop {
		return st, nil
	}
	song, err := c.CurrentSong()
	if err != nil {
		return models.PlayerState{}, fmt.Errorf("currentsong: %w", err)
	}
	st.Song = parseSong(song)
	return st, nil
}

func parseStatus(attrs mpd.Attrs) models.PlayerState {
	st := models.PlayerState{
		State:  models.ParsePlaybackState(attrs["state"]),
		Volume: -1,
	}
	if v, err := strconv.Atoi(attrs["volume"]); err == nil {
		st.Volume = v
	}
	if v, err := strconv.ParseFloat(attrs["elapsed"], 64); err == nil {
		st.ElapsedSeconds = v
	}
	if v, err := strconv.ParseFloat(attrs["duration"], 64); err == nil {
		st.DurationSeconds = v
	}
	// MPD before 0.20 only reports "time" as elapsed:total in whole seconds.
	if elapsed, total, ok := strings.Cut(attrs["time"], ":"); ok {
		if st.ElapsedSeconds == 0 {
			if v, err := strconv.ParseFloat(elapsed, 64); err == nil {
				st.ElapsedSeconds = v
			}
		}
		if st.DurationSeconds == 0 {
			if v, err := strconv.ParseFloat(total, 64); err == nil {
				st.DurationSeconds = v
			}
		}
	}
	return st
}

func parseSong(attrs mpd.Attrs) *models.Song {
	if attrs["file"] == "" {
		return nil
	}
	song := &models.Song{
		File:   attrs["file"],
		Artist: attrs["Artist"],
		Album:  attrs["Album"],
		Title:  attrs["Title"],
	}
	if song.Title == "" {
		song.Title = attrs["Name"]
	}
	return song
}

// Stop unloads every player. It is used on shutdown when the integration
// layer is already gone.
func (p *Platform) Stop(ctx context.Context) error {
	p.mu.RLock()
	entries := make([]models.Entry, 0, len(p.players))
	for _, pl := range p.players {
		entries = append(entries, pl.entry)
	}
	p.mu.RUnlock()

	var firstErr error
	for _, e := range entries {
		if err := p.UnloadEntry(ctx, e); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
