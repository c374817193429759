package dtest

import (
	"slices"
	"strings"
	"sync"
	"testing"
)

// Log is an ordered, concurrency-safe list of events.
type Log struct {
	mu      sync.Mutex
	entries []string
}

// NewLog creates an empty log.
func NewLog() *Log {
	return &Log{}
}

// Add appends an event. A nil log ignores it.
func (l *Log) Add(event string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	l.entries = append(l.entries, event)
	l.mu.Unlock()
}

// Entries returns a copy of the recorded events.
func (l *Log) Entries() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.entries)
}

// Reset drops all recorded events.
func (l *Log) Reset() {
	l.mu.Lock()
	l.entries = nil
	l.mu.Unlock()
}

// ExpectLog asserts that log holds exactly the given events in order.
func ExpectLog(t *testing.T, log *Log, want ...string) {
	t.Helper()
	got := log.Entries()
	if !slices.Equal(got, want) {
		t.Errorf("event log mismatch\n got: %s\nwant: %s", strings.Join(got, ", "), strings.Join(want, ", "))
	}
}
