package models

import "time"

type PlaybackState string

const (
	PlaybackPlay        PlaybackState = "play"
	PlaybackPause       PlaybackState = "pause"
	PlaybackStop        PlaybackState = "stop"
	PlaybackUnavailable PlaybackState = "unavailable"
)

func ParsePlaybackState(s string) PlaybackState {
	switch PlaybackState(s) {
	case PlaybackPlay, PlaybackPause, PlaybackStop:
		return PlaybackState(s)
	}
	return PlaybackUnavailable
}

type Song struct {
	File   string `json:"file,omitempty"`
	Artist string `json:"artist,omitempty"`
	Album  string `json:"album,omitempty"`
	Title  string `json:"title,omitempty"`
}

// PlayerState is a point-in-time view of one entry's media player.
type PlayerState struct {
	EntryID         string        `json:"entry_id"`
	Name            string        `json:"name"`
	State           PlaybackState `json:"state"`
	Volume          int           `json:"volume"`
	Song            *Song         `json:"song,omitempty"`
	ElapsedSeconds  float64       `json:"elapsed_seconds"`
	DurationSeconds float64       `json:"duration_seconds"`
	Error           string        `json:"error,omitempty"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

func (p PlayerState) Available() bool {
	return p.State != PlaybackUnavailable
}
