// Package permission tracks per-capability authorization and sequences
// permission prompts: loads the current state, queries without prompting
// when possible, prompts for missing grants, and caches decisions in
// memory for the process lifetime.
package permission

import (
	"context"
	"log/slog"
	"sync"

	"github.com/devicebridge-dev/devicebridge"
)

// State is the authorization status of one capability.
type State string

const (
	StateUnknown    State = "unknown"
	StateGranted    State = "granted"
	StateDenied     State = "denied"
	StateRestricted State = "restricted"
)

// Querier reads the platform's current authorization status without
// showing a prompt.
type Querier interface {
	Query(ctx context.Context, id devicebridge.CapabilityID) (State, error)
}

// Requester asks the platform to authorize a capability. The underlying
// OS or browser owns the prompt and any re-prompt cooldown; a Requester
// shows at most one prompt per call.
type Requester interface {
	Request(ctx context.Context, id devicebridge.CapabilityID) (State, error)
}

// Machine owns the authorization states. They live in memory only and are
// re-derived from the platform after a process restart.
type Machine struct {
	querier   Querier
	requester Requester
	log       *slog.Logger

	mu     sync.RWMutex
	states map[devicebridge.CapabilityID]State

	// locks serializes transitions per capability so two concurrent
	// EnsureAuthorized calls for the same capability cannot double-prompt,
	// while calls for different capabilities never block each other.
	locks map[devicebridge.CapabilityID]*sync.Mutex
}

// Option configures a Machine.
type Option func(*Machine)

// WithQuerier sets the no-prompt status reader.
func WithQuerier(q Querier) Option {
	return func(m *Machine) { m.querier = q }
}

// WithRequester sets the prompting authorizer.
func WithRequester(r Requester) Option {
	return func(m *Machine) { m.requester = r }
}

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(m *Machine) { m.log = log }
}

// NewMachine creates a permission machine with every capability Unknown.
func NewMachine(opts ...Option) *Machine {
	m := &Machine{
		log:    slog.Default(),
		states: make(map[devicebridge.CapabilityID]State),
		locks:  make(map[devicebridge.CapabilityID]*sync.Mutex),
	}
	for _, id := range devicebridge.AllCapabilities() {
		m.states[id] = StateUnknown
		m.locks[id] = &sync.Mutex{}
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// State returns the cached state for a capability.
func (m *Machine) State(id devicebridge.CapabilityID) State {
	if id == devicebridge.CapabilityDeviceInfo {
		return StateGranted
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.states[id]; ok {
		return s
	}
	return StateUnknown
}

// EnsureAuthorized resolves the capability to a terminal state, querying
// first and prompting only while the state is still Unknown. Once the
// state is Granted or Denied repeated calls return it without re-prompting.
// Device info requires no permission and is implicitly Granted.
func (m *Machine) EnsureAuthorized(ctx context.Context, id devicebridge.CapabilityID) (State, error) {
	if id == devicebridge.CapabilityDeviceInfo {
		return StateGranted, nil
	}
	lock, ok := m.locks[id]
	if !ok {
		return StateUnknown, devicebridge.NewError(devicebridge.KindUnavailable, id, "unknown capability")
	}
	lock.Lock()
	defer lock.Unlock()

	state := m.State(id)
	if state != StateUnknown {
		return state, nil
	}

	if m.querier != nil {
		queried, err := m.querier.Query(ctx, id)
		if err != nil {
			return StateUnknown, devicebridge.WrapError(devicebridge.KindUnavailable, id, err)
		}
		if queried != StateUnknown {
			m.set(id, queried)
			return queried, nil
		}
	}

	return m.request(ctx, id)
}

// Query re-reads the platform state without prompting. This is the only
// path out of Denied or Restricted, reflecting an out-of-band settings
// change; the machine never polls for one.
func (m *Machine) Query(ctx context.Context, id devicebridge.CapabilityID) (State, error) {
	if id == devicebridge.CapabilityDeviceInfo {
		return StateGranted, nil
	}
	lock, ok := m.locks[id]
	if !ok {
		return StateUnknown, devicebridge.NewError(devicebridge.KindUnavailable, id, "unknown capability")
	}
	lock.Lock()
	defer lock.Unlock()

	if m.querier == nil {
		return m.State(id), nil
	}
	state, err := m.querier.Query(ctx, id)
	if err != nil {
		return StateUnknown, devicebridge.WrapError(devicebridge.KindUnavailable, id, err)
	}
	if state != StateUnknown {
		m.set(id, state)
	}
	return state, nil
}

// Request asks the platform for authorization. Denied and Restricted are
// terminal here: no prompt is shown for them, the cached state comes back.
func (m *Machine) Request(ctx context.Context, id devicebridge.CapabilityID) (State, error) {
	if id == devicebridge.CapabilityDeviceInfo {
		return StateGranted, nil
	}
	lock, ok := m.locks[id]
	if !ok {
		return StateUnknown, devicebridge.NewError(devicebridge.KindUnavailable, id, "unknown capability")
	}
	lock.Lock()
	defer lock.Unlock()

	if state := m.State(id); state != StateUnknown {
		return state, nil
	}
	return m.request(ctx, id)
}

// request prompts while holding the capability lock. State must be Unknown.
func (m *Machine) request(ctx context.Context, id devicebridge.CapabilityID) (State, error) {
	if m.requester == nil {
		return StateUnknown, devicebridge.NewError(devicebridge.KindUnavailable, id, "no permission requester configured")
	}
	state, err := m.requester.Request(ctx, id)
	if err != nil {
		return StateUnknown, devicebridge.WrapError(devicebridge.KindUnavailable, id, err)
	}
	m.log.Info("permission resolved", "capability", id, "state", state)
	m.set(id, state)
	return state, nil
}

func (m *Machine) set(id devicebridge.CapabilityID, state State) {
	m.mu.Lock()
	m.states[id] = state
	m.mu.Unlock()
}

// Static is a fixed-answer permission source, usable as both Querier and
// Requester. Unlisted capabilities answer Unknown on query and Granted on
// request.
type Static struct {
	States map[devicebridge.CapabilityID]State
}

// Query implements Querier.
func (s Static) Query(_ context.Context, id devicebridge.CapabilityID) (State, error) {
	if st, ok := s.States[id]; ok {
		return st, nil
	}
	return StateUnknown, nil
}

// Request implements Requester.
func (s Static) Request(_ context.Context, id devicebridge.CapabilityID) (State, error) {
	if st, ok := s.States[id]; ok {
		return st, nil
	}
	return StateGranted, nil
}
