// Package configflow implements the interactive setup wizard for MPD
// entries. Every step validates its input against a live connection before
// an entry is created.
package configflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"mpdhub/internal/metrics"
	"mpdhub/internal/models"
	"mpdhub/internal/mpd"
)

type StepID string

const (
	StepUser   StepID = "user"
	StepImport StepID = "import"
)

type ResultType string

const (
	ResultForm        ResultType = "form"
	ResultCreateEntry ResultType = "create_entry"
	ResultAbort       ResultType = "abort"
)

// Error codes surfaced to the UI, either in a form's error map or as an
// abort reason.
const (
	ErrorCannotConnect = "cannot_connect"
	ErrorInvalidAuth   = "invalid_auth"
	ErrorUnknown       = "unknown"
	ErrorInvalidInput  = "invalid_input"
)

type Result struct {
	Type   ResultType             `json:"type"`
	StepID StepID                 `json:"step_id,omitempty"`
	Schema Schema                 `json:"data_schema,omitempty"`
	Errors map[string]string      `json:"errors"`
	Title  string                 `json:"title,omitempty"`
	Data   *models.ConnectionInput `json:"data,omitempty"`
	Reason string                 `json:"reason,omitempty"`
}

func (r Result) Terminal() bool {
	return r.Type == ResultCreateEntry || r.Type == ResultAbort
}

// State is threaded through successive step calls. Input holds the last
// submitted input only.
type State struct {
	StepID StepID                 `json:"step_id"`
	Input  *models.ConnectionInput `json:"-"`
}

type Flow struct {
	newClient mpd.NewClientFunc
}

func New(newClient mpd.NewClientFunc) *Flow {
	return &Flow{newClient: newClient}
}

// StepUser handles the user-initiated step. A nil or empty input shows the
// initial form; otherwise the input is probed and either re-shown with an
// error code or turned into an entry.
func (f *Flow) StepUser(ctx context.Context, st State, input *models.ConnectionInput) (Result, State) {
	st.StepID = StepUser
	if input == nil || *input == (models.ConnectionInput{}) {
		return showForm(nil), st
	}

	in := DataSchema.ApplyDefaults(*input)
	st.Input = &in

	if errs := DataSchema.Validate(in); errs != nil {
		return showForm(errs), st
	}

	if err := f.probe(ctx, in); err != nil {
		return showForm(map[string]string{"base": errorCode(err)}), st
	}
	return createEntry(in.Name, in), st
}

// StepImport handles configuration carried over from a YAML file. It never
// shows a form: failures abort the flow with the error code as reason.
func (f *Flow) StepImport(ctx context.Context, st State, data models.ConnectionInput) (Result, State) {
	st.StepID = StepImport
	in := DataSchema.ApplyDefaults(data)
	st.Input = &in

	if errs := DataSchema.Validate(in); errs != nil {
		slog.WarnContext(ctx, "import data rejected by schema", "host", in.Host, "errors", errs)
		return abort(ErrorUnknown), st
	}

	if err := f.probe(ctx, in); err != nil {
		return abort(errorCode(err)), st
	}
	return createEntry(in.Name, in), st
}

func (f *Flow) probe(ctx context.Context, in models.ConnectionInput) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("probe panicked: %v", r)
		}
		result := "ok"
		if err != nil {
			result = errorCode(err)
			slog.InfoContext(ctx, "mpd probe failed", "host", in.Host, "port", in.Port, "result", result, "error", err)
		} else {
			slog.InfoContext(ctx, "mpd probe succeeded", "host", in.Host, "port", in.Port)
		}
		metrics.ProbeResults.WithLabelValues(result).Inc()
	}()
	return mpd.Probe(f.newClient, in)
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, mpd.ErrCannotConnect):
		return ErrorCannotConnect
	case errors.Is(err, mpd.ErrInvalidAuth):
		return ErrorInvalidAuth
	default:
		return ErrorUnknown
	}
}

func showForm(errs map[string]string) Result {
	if errs == nil {
		errs = map[string]string{}
	}
	return Result{
		Type:   ResultForm,
		StepID: StepUser,
		Schema: DataSchema,
		Errors: errs,
	}
}

func createEntry(title string, data models.ConnectionInput) Result {
	return Result{Type: ResultCreateEntry, Title: title, Data: &data}
}

func abort(reason string) Result {
	return Result{Type: ResultAbort, Reason: reason}
}
