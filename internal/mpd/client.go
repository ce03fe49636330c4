package mpd

import (
	"errors"
	"fmt"
	"io"
	"net"

	gompd "github.com/fhs/gompd/v2/mpd"
)

// Attrs is the key/value response of an MPD command.
type Attrs map[string]string

// Client is a single MPD protocol connection. A zero client is unconnected;
// Disconnect on an unconnected client is a no-op.
type Client interface {
	Connect(addr string) error
	Password(password string) error
	Status() (Attrs, error)
	CurrentSong() (Attrs, error)
	Disconnect() error
}

// NewClientFunc returns a fresh, unconnected client.
type NewClientFunc func() Client

// CommandError is returned when the server answers a command with ACK.
type CommandError struct {
	Command string
	Err     error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("mpd command %q rejected: %v", e.Command, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

type gompdClient struct {
	conn *gompd.Client
}

// NewClient returns a Client backed by gompd over TCP.
func NewClient() Client {
	return &gompdClient{}
}

func (c *gompdClient) Connect(addr string) error {
	if c.conn != nil {
		return errors.New("already connected")
	}
	conn, err := gompd.Dial("tcp", addr)
	if err != nil {
		return err
	}
	c.conn = conn
	return nil
}

func (c *gompdClient) Password(password string) error {
	if c.conn == nil {
		return net.ErrClosed
	}
	return commandErr("password", c.conn.Command("password %s", password).OK())
}

func (c *gompdClient) Status() (Attrs, error) {
	if c.conn == nil {
		return nil, net.ErrClosed
	}
	attrs, err := c.conn.Status()
	if err != nil {
		return nil, commandErr("status", err)
	}
	return Attrs(attrs), nil
}

func (c *gompdClient) CurrentSong() (Attrs, error) {
	if c.conn == nil {
		return nil, net.ErrClosed
	}
	attrs, err := c.conn.CurrentSong()
	if err != nil {
		return nil, commandErr("currentsong", err)
	}
	return Attrs(attrs), nil
}

func (c *gompdClient) Disconnect() error {
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

// commandErr wraps an ACK reply from the server as *CommandError. Transport
// and protocol failures are returned unchanged.
func commandErr(command string, err error) error {
	var ack gompd.Error
	if err == nil || !errors.As(err, &ack) {
		return err
	}
	return &CommandError{Command: command, Err: err}
}

// IsTransportError reports whether err came from the network connection
// rather than from the MPD server.
func IsTransportError(err error) bool {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, net.ErrClosed) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
