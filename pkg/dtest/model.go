package dtest

import (
	"encoding/json"
	"slices"
	"sync"

	"github.com/vango-dev/dippy/pkg/model"
)

// Model is a recording model.Model. It stores the last applied payload and
// counts sync notifications.
type Model struct {
	mu         sync.Mutex
	locator    string
	locatorErr error
	persistent bool
	applyErr   error
	applied    []json.RawMessage
	syncs      int
	listeners  map[int]func()
	nextID     int
	log        *Log
}

var _ model.Model = (*Model)(nil)

// NewModel creates a non-persistent model addressed by locator.
func NewModel(locator string) *Model {
	return &Model{locator: locator, listeners: make(map[int]func())}
}

// WithPersistent marks the model cache-eligible.
func (m *Model) WithPersistent() *Model {
	m.persistent = true
	return m
}

// WithLocatorError makes Locator fail with err.
func (m *Model) WithLocatorError(err error) *Model {
	m.locatorErr = err
	return m
}

// WithApplyError makes Apply fail with err.
func (m *Model) WithApplyError(err error) *Model {
	m.applyErr = err
	return m
}

// WithLog records "apply <locator>" and "sync <locator>" events.
func (m *Model) WithLog(log *Log) *Model {
	m.log = log
	return m
}

// Locator implements model.Model.
func (m *Model) Locator() (string, error) {
	if m.locatorErr != nil {
		return "", m.locatorErr
	}
	if m.locator == "" {
		return "", model.ErrNoLocator
	}
	return m.locator, nil
}

// Persistent implements model.Model.
func (m *Model) Persistent() bool {
	return m.persistent
}

// Apply implements model.Model.
func (m *Model) Apply(payload json.RawMessage) error {
	if m.applyErr != nil {
		return m.applyErr
	}
	m.mu.Lock()
	m.applied = append(m.applied, slices.Clone(payload))
	m.mu.Unlock()
	m.log.Add("apply " + m.locator)
	return nil
}

// NotifySync implements model.Model.
func (m *Model) NotifySync() {
	m.mu.Lock()
	m.syncs++
	ids := make([]int, 0, len(m.listeners))
	for id := range m.listeners {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	fns := make([]func(), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, m.listeners[id])
	}
	m.mu.Unlock()

	m.log.Add("sync " + m.locator)
	for _, fn := range fns {
		fn()
	}
}

// OnSync implements model.Model.
func (m *Model) OnSync(fn func()) (remove func()) {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.listeners[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.listeners, id)
		m.mu.Unlock()
	}
}

// Applied returns the payloads applied so far.
func (m *Model) Applied() []json.RawMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.applied)
}

// Last returns the most recently applied payload, or nil.
func (m *Model) Last() json.RawMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.applied) == 0 {
		return nil
	}
	return m.applied[len(m.applied)-1]
}

// Syncs returns the number of sync notifications.
func (m *Model) Syncs() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.syncs
}

// Listeners returns the number of registered sync listeners.
func (m *Model) Listeners() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.listeners)
}
