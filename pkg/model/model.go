package model

import (
	"encoding/json"
	"errors"
)

// Model errors.
var (
	// ErrNoLocator is returned by Locator when a model cannot be addressed.
	ErrNoLocator = errors.New("model: no locator")

	// ErrNoSyncer is returned when a model needs a Syncer and has none.
	ErrNoSyncer = errors.New("model: no syncer attached")
)

// Method is the intent of a synchronization request.
type Method uint8

const (
	MethodRead Method = iota + 1
	MethodCreate
	MethodUpdate
	MethodDelete
)

// String returns the name of the method.
func (m Method) String() string {
	switch m {
	case MethodRead:
		return "read"
	case MethodCreate:
		return "create"
	case MethodUpdate:
		return "update"
	case MethodDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// Model is synchronized application state.
type Model interface {
	// Locator returns the resource locator this model is bound to.
	// It returns ErrNoLocator when the model cannot be addressed.
	Locator() (string, error)

	// Persistent reports whether pushed payloads may be cached locally.
	Persistent() bool

	// Apply replaces the model's state with a pushed or cached payload.
	Apply(payload json.RawMessage) error

	// NotifySync emits the "sync" notification to observers.
	NotifySync()

	// OnSync registers an observer of the "sync" notification.
	// The returned function removes it.
	OnSync(fn func()) (remove func())
}

// Syncer is a synchronization strategy. A read intent subscribes the model
// to live updates; the other intents are strategy-defined.
type Syncer interface {
	Sync(method Method, m Model) error
}

// Releaser is implemented by syncers that hold per-model state which must
// be dropped when the model is closed.
type Releaser interface {
	Unsubscribe(m Model) error
}

// SyncerFunc adapts a function to the Syncer interface.
type SyncerFunc func(method Method, m Model) error

// Sync calls f(method, m).
func (f SyncerFunc) Sync(method Method, m Model) error {
	return f(method, m)
}
