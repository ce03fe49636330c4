package mpd

import (
	"errors"
	"fmt"
	"log/slog"

	"mpdhub/internal/models"
)

var (
	ErrCannotConnect = errors.New("cannot connect to mpd")
	ErrInvalidAuth   = errors.New("mpd rejected authentication")
)

// Probe opens a temporary connection to validate in. The client is always
// disconnected before Probe returns. Connection failures wrap
// ErrCannotConnect, rejected passwords wrap ErrInvalidAuth, anything else is
// returned unclassified.
func Probe(newClient NewClientFunc, in models.ConnectionInput) error {
	client := newClient()
	defer func() {
		if derr := client.Disconnect(); derr != nil {
			slog.Debug("mpd probe disconnect", "addr", in.Addr(), "error", derr)
		}
	}()

	if err := client.Connect(in.Addr()); err != nil {
		return fmt.Errorf("%w: %w", ErrCannotConnect, err)
	}
	if !in.HasPassword() {
		return nil
	}
	if err := client.Password(*in.Password); err != nil {
		var cmdErr *CommandError
		switch {
		case errors.As(err, &cmdErr):
			return fmt.Errorf("%w: %w", ErrInvalidAuth, err)
		case IsTransportError(err):
			return fmt.Errorf("%w: %w", ErrCannotConnect, err)
		default:
			return err
		}
	}
	return nil
}
