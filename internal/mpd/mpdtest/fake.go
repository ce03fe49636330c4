// Package mpdtest provides an in-memory mpd.Client for tests.
package mpdtest

import (
	"net"
	"sync"
	"sync/atomic"

	"mpdhub/internal/mpd"
)

// Client is a scripted mpd.Client. Set the *Err fields to make the matching
// call fail; StatusAttrs and SongAttrs are returned on success.
type Client struct {
	mu sync.Mutex

	// ConnectGate, when set, makes Connect block until it is closed.
	ConnectGate chan struct{}
	connecting  atomic.Int64

	ConnectErr  error
	PasswordErr error
	StatusErr   error
	SongErr     error

	StatusAttrs mpd.Attrs
	SongAttrs   mpd.Attrs

	Addr        string
	Passwords   []string
	Connected   bool
	Disconnects int
}

func (c *Client) Connect(addr string) error {
	if c.ConnectGate != nil {
		c.connecting.Add(1)
		<-c.ConnectGate
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Addr = addr
	if c.ConnectErr != nil {
		return c.ConnectErr
	}
	c.Connected = true
	return nil
}

func (c *Client) Password(password string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Passwords = append(c.Passwords, password)
	if !c.Connected {
		return net.ErrClosed
	}
	return c.PasswordErr
}

func (c *Client) Status() (mpd.Attrs, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.Connected {
		return nil, net.ErrClosed
	}
	if c.StatusErr != nil {
		return nil, c.StatusErr
	}
	return copyAttrs(c.StatusAttrs), nil
}

func (c *Client) CurrentSong() (mpd.Attrs, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.Connected {
		return nil, net.ErrClosed
	}
	if c.SongErr != nil {
		return nil, c.SongErr
	}
	return copyAttrs(c.SongAttrs), nil
}

func (c *Client) Disconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Disconnects++
	c.Connected = false
	return nil
}

// Connecting returns how many Connect calls have reached ConnectGate.
func (c *Client) Connecting() int {
	return int(c.connecting.Load())
}

// Snapshot returns a copy of the recorded state safe to inspect while the
// client is in use.
func (c *Client) Snapshot() (addr string, passwords []string, connected bool, disconnects int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Addr, append([]string(nil), c.Passwords...), c.Connected, c.Disconnects
}

// SetStatus replaces the attrs returned by Status.
func (c *Client) SetStatus(attrs mpd.Attrs) {
	c.mu.Lock()
	c.StatusAttrs = attrs
	c.mu.Unlock()
}

// SetConnectErr replaces the error returned by Connect.
func (c *Client) SetConnectErr(err error) {
	c.mu.Lock()
	c.ConnectErr = err
	c.mu.Unlock()
}

// SetStatusErr replaces the error returned by Status.
func (c *Client) SetStatusErr(err error) {
	c.mu.Lock()
	c.StatusErr = err
	c.mu.Unlock()
}

func copyAttrs(a mpd.Attrs) mpd.Attrs {
	if a == nil {
		return mpd.Attrs{}
	}
	out := make(mpd.Attrs, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// Factory hands out clients produced by New and records every one.
type Factory struct {
	New func() *Client

	mu      sync.Mutex
	clients []*Client
	calls   atomic.Int64
}

// Func adapts the factory to mpd.NewClientFunc.
func (f *Factory) Func() mpd.NewClientFunc {
	return func() mpd.Client {
		f.calls.Add(1)
		var c *Client
		if f.New != nil {
			c = f.New()
		} else {
			c = &Client{}
		}
		f.mu.Lock()
		f.clients = append(f.clients, c)
		f.mu.Unlock()
		return c
	}
}

// Clients returns every client handed out so far.
func (f *Factory) Clients() []*Client {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*Client(nil), f.clients...)
}

// Calls returns how many clients were created.
func (f *Factory) Calls() int {
	return int(f.calls.Load())
}
