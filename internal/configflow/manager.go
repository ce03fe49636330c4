package configflow

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"mpdhub/internal/models"
)

var (
	ErrUnknownFlow       = errors.New("unknown flow")
	ErrFlowBusy          = errors.New("flow step already in progress")
	ErrMissingImportData = errors.New("import flow requires data")
	ErrUnsupportedSource = errors.New("unsupported flow source")
)

// Progress is what callers see after every step: the flow id (empty once
// the flow has finished) and the step result.
type Progress struct {
	FlowID string             `json:"flow_id,omitempty"`
	Source models.EntrySource `json:"source"`
	Result Result             `json:"result"`
}

type flowRecord struct {
	source    models.EntrySource
	state     State
	last      Result
	updatedAt time.Time
	busy      bool
}

// Manager tracks flows that are waiting for more user input. Flows that
// reach a terminal result are forgotten.
type Manager struct {
	flow *Flow

	mu    sync.Mutex
	flows map[string]*flowRecord
}

func NewManager(flow *Flow) *Manager {
	return &Manager{
		flow:  flow,
		flows: make(map[string]*flowRecord),
	}
}

// Init starts a flow from source. For SourceUser a nil input shows the
// first form; SourceImport requires input.
func (m *Manager) Init(ctx context.Context, source models.EntrySource, input *models.ConnectionInput) (Progress, error) {
	var (
		res Result
		st  State
	)
	switch source {
	case models.SourceUser:
		res, st = m.flow.StepUser(ctx, State{}, input)
	case models.SourceImport:
		if input == nil {
			return Progress{}, ErrMissingImportData
		}
		res, st = m.flow.StepImport(ctx, State{}, *input)
	default:
		return Progress{}, fmt.Errorf("%w: %q", ErrUnsupportedSource, source)
	}

	p := Progress{Source: source, Result: res}
	if res.Terminal() {
		return p, nil
	}

	p.FlowID = uuid.NewString()
	m.mu.Lock()
	m.flows[p.FlowID] = &flowRecord{source: source, state: st, last: res, updatedAt: time.Now().UTC()}
	m.mu.Unlock()
	return p, nil
}

// Configure feeds input into the user step of an existing flow. Only one
// step runs per flow at a time; a concurrent call gets ErrFlowBusy.
func (m *Manager) Configure(ctx context.Context, flowID string, input *models.ConnectionInput) (Progress, error) {
	m.mu.Lock()
	rec, ok := m.flows[flowID]
	if !ok {
		m.mu.Unlock()
		return Progress{}, fmt.Errorf("flow %s: %w", flowID, ErrUnknownFlow)
	}
	if rec.busy {
		m.mu.Unlock()
		return Progress{}, fmt.Errorf("flow %s: %w", flowID, ErrFlowBusy)
	}
	rec.busy = true
	st := rec.state
	m.mu.Unlock()

	res, st := m.flow.StepUser(ctx, st, input)

	m.mu.Lock()
	defer m.mu.Unlock()
	rec.busy = false
	if cur, ok := m.flows[flowID]; !ok || cur != rec {
		return Progress{}, fmt.Errorf("flow %s: %w", flowID, ErrUnknownFlow)
	}
	if res.Terminal() {
		delete(m.flows, flowID)
		return Progress{Source: rec.source, Result: res}, nil
	}
	rec.state = st
	rec.last = res
	rec.updatedAt = time.Now().UTC()
	return Progress{FlowID: flowID, Source: rec.source, Result: res}, nil
}

func (m *Manager) Get(flowID string) (Progress, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.flows[flowID]
	if !ok {
		return Progress{}, fmt.Errorf("flow %s: %w", flowID, ErrUnknownFlow)
	}
	return Progress{FlowID: flowID, Source: rec.source, Result: rec.last}, nil
}

func (m *Manager) Abort(flowID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.flows[flowID]; !ok {
		return fmt.Errorf("flow %s: %w", flowID, ErrUnknownFlow)
	}
	delete(m.flows, flowID)
	return nil
}

// InProgress returns the number of open flows.
func (m *Manager) InProgress() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.flows)
}

// PruneIdle drops flows not touched since before cutoff and returns how many
// were removed.
func (m *Manager) PruneIdle(cutoff time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, rec := range m.flows {
		if !rec.busy && rec.updatedAt.Before(cutoff) {
			delete(m.flows, id)
			n++
		}
	}
	return n
}

// NewEntry turns a create_entry result into an entry ready to persist.
func NewEntry(source models.EntrySource, res Result) (models.Entry, error) {
	if res.Type != ResultCreateEntry || res.Data == nil {
		return models.Entry{}, fmt.Errorf("result %q does not create an entry", res.Type)
	}
	e := models.Entry{
		ID:     uuid.NewString(),
		Domain: models.Domain,
		Title:  res.Title,
		Data:   *res.Data,
		Source: source,
	}
	return e, e.Validate()
}
