package mpd_test

import (
	"errors"
	"io"
	"net"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mpdhub/internal/models"
	"mpdhub/internal/mpd"
	"mpdhub/internal/mpd/mpdtest"
)

func strPtr(s string) *string { return &s }

func probeWith(t *testing.T, c *mpdtest.Client, in models.ConnectionInput) error {
	t.Helper()
	f := &mpdtest.Factory{New: func() *mpdtest.Client { return c }}
	err := mpd.Probe(f.Func(), in)
	require.Equal(t, 1, f.Calls(), "probe must create exactly one client")
	return err
}

func TestProbeSuccessWithoutPassword(t *testing.T) {
	c := &mpdtest.Client{}
	err := probeWith(t, c, models.ConnectionInput{Host: "mpd.local", Port: 6600})
	require.NoError(t, err)

	addr, passwords, connected, disconnects := c.Snapshot()
	assert.Equal(t, "mpd.local:6600", addr)
	assert.Empty(t, passwords)
	assert.False(t, connected)
	assert.Equal(t, 1, disconnects)
}

func TestProbeSuccessWithPassword(t *testing.T) {
	c := &mpdtest.Client{}
	err := probeWith(t, c, models.ConnectionInput{Host: "10.0.0.2", Port: 6601, Password: strPtr("hunter2")})
	require.NoError(t, err)

	_, passwords, _, disconnects := c.Snapshot()
	assert.Equal(t, []string{"hunter2"}, passwords)
	assert.Equal(t, 1, disconnects)
}

func TestProbeEmptyPasswordStillAuthenticates(t *testing.T) {
	c := &mpdtest.Client{}
	require.NoError(t, probeWith(t, c, models.ConnectionInput{Host: "h", Port: 1, Password: strPtr("")}))
	_, passwords, _, _ := c.Snapshot()
	assert.Equal(t, []string{""}, passwords)
}

func TestProbeConnectionRefused(t *testing.T) {
	refused := &net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED}
	c := &mpdtest.Client{ConnectErr: refused}

	err := probeWith(t, c, models.ConnectionInput{Host: "h", Port: 6600, Password: strPtr("pw")})
	require.Error(t, err)
	assert.ErrorIs(t, err, mpd.ErrCannotConnect)
	assert.ErrorIs(t, err, syscall.ECONNREFUSED)

	_, passwords, _, disconnects := c.Snapshot()
	assert.Empty(t, passwords, "password must not be sent when connect fails")
	assert.Equal(t, 1, disconnects)
}

func TestProbeAuthRejected(t *testing.T) {
	c := &mpdtest.Client{PasswordErr: &mpd.CommandError{Command: "password", Err: errors.New("incorrect password")}}

	err := probeWith(t, c, models.ConnectionInput{Host: "h", Port: 6600, Password: strPtr("bad")})
	assert.ErrorIs(t, err, mpd.ErrInvalidAuth)
	assert.NotErrorIs(t, err, mpd.ErrCannotConnect)

	_, _, _, disconnects := c.Snapshot()
	assert.Equal(t, 1, disconnects)
}

func TestProbeConnectionDroppedDuringAuth(t *testing.T) {
	c := &mpdtest.Client{PasswordErr: io.EOF}

	err := probeWith(t, c, models.ConnectionInput{Host: "h", Port: 6600, Password: strPtr("pw")})
	assert.ErrorIs(t, err, mpd.ErrCannotConnect)
}

func TestProbeUnclassifiedError(t *testing.T) {
	boom := errors.New("boom")
	c := &mpdtest.Client{PasswordErr: boom}

	err := probeWith(t, c, models.ConnectionInput{Host: "h", Port: 6600, Password: strPtr("pw")})
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, mpd.ErrCannotConnect)
	assert.NotErrorIs(t, err, mpd.ErrInvalidAuth)

	_, _, _, disconnects := c.Snapshot()
	assert.Equal(t, 1, disconnects)
}

func TestIsTransportError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"eof", io.EOF, true},
		{"unexpected eof", io.ErrUnexpectedEOF, true},
		{"closed", net.ErrClosed, true},
		{"op error", &net.OpError{Op: "read", Err: syscall.ECONNRESET}, true},
		{"command", &mpd.CommandError{Command: "password", Err: errors.New("ack")}, false},
		{"plain", errors.New("x"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, mpd.IsTransportError(tt.err))
		})
	}
}
