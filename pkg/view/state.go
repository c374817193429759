package view

import "errors"

// Errors returned by view operations.
var (
	ErrDisposed    = errors.New("view: node is disposed")
	ErrNoNavigator = errors.New("view: no navigator configured")
	ErrNoLink      = errors.New("view: no such link")
)

// State is the lifecycle state of a Node.
type State uint8

const (
	StateUnmounted State = iota
	StateRendering
	StateMounted
	StateCleaning
)

// String returns a human-readable name for the state.
func (s State) String() string {
	switch s {
	case StateUnmounted:
		return "Unmounted"
	case StateRendering:
		return "Rendering"
	case StateMounted:
		return "Mounted"
	case StateCleaning:
		return "Cleaning"
	default:
		return "Unknown"
	}
}
