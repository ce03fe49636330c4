package models

import (
	"errors"
	"net"
	"strconv"
	"time"
)

var ErrNotFound = errors.New("not found")

const (
	Domain = "mpd"

	DefaultName = "MPD"
	DefaultPort = 6600
)

type EntrySource string

const (
	SourceUser   EntrySource = "user"
	SourceImport EntrySource = "import"
)

func (s EntrySource) Valid() bool {
	switch s {
	case SourceUser, SourceImport:
		return true
	}
	return false
}

// ConnectionInput is the data collected by the config flow. It is persisted
// verbatim as the entry data once the connection has been validated.
type ConnectionInput struct {
	Host     string  `json:"host" yaml:"host" validate:"required"`
	Name     string  `json:"name,omitempty" yaml:"name"`
	Password *string `json:"password,omitempty" yaml:"password"`
	Port     int     `json:"port,omitempty" yaml:"port" validate:"omitempty,min=1,max=65535"`
}

// Addr returns host:port suitable for dialing.
func (c ConnectionInput) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// HasPassword reports whether a password was supplied, even an empty one.
func (c ConnectionInput) HasPassword() bool {
	return c.Password != nil
}

type Entry struct {
	ID        string          `json:"entry_id"`
	Domain    string          `json:"domain"`
	Title     string          `json:"title"`
	Data      ConnectionInput `json:"data"`
	Source    EntrySource     `json:"source"`
	CreatedAt time.Time       `json:"created_at"`
}

func (e *Entry) Validate() error {
	if e.ID == "" {
		return errors.New("entry_id is required")
	}
	if e.Title == "" {
		return errors.New("title is required")
	}
	if e.Data.Host == "" {
		return errors.New("host is required")
	}
	if !e.Source.Valid() {
		return errors.New("source must be user or import")
	}
	return nil
}

const redacted = "**REDACTED**"

// Redacted returns a copy with the password masked. Absent stays absent.
func (c ConnectionInput) Redacted() ConnectionInput {
	if c.Password != nil {
		masked := redacted
		c.Password = &masked
	}
	return c
}

// Redacted returns a copy safe to serialize to API clients.
func (e Entry) Redacted() Entry {
	e.Data = e.Data.Redacted()
	return e
}
