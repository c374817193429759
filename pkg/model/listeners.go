package model

import "sync"

// listeners is an ordered set of callbacks. Notification runs on a copy of
// the set, so callbacks may add or remove listeners while being notified.
type listeners struct {
	mu      sync.Mutex
	nextID  uint64
	entries []listenerEntry
}

type listenerEntry struct {
	id uint64
	fn func()
}

// add registers fn and returns a function that removes it.
// Calling the returned function more than once is harmless.
func (l *listeners) add(fn func()) func() {
	if fn == nil {
		return func() {}
	}

	l.mu.Lock()
	l.nextID++
	id := l.nextID
	l.entries = append(l.entries, listenerEntry{id: id, fn: fn})
	l.mu.Unlock()

	return func() { l.remove(id) }
}

func (l *listeners) remove(id uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i, e := range l.entries {
		if e.id == id {
			l.entries = append(l.entries[:i], l.entries[i+1:]...)
			return
		}
	}
}

// notify calls every listener registered at the time of the call,
// in registration order.
func (l *listeners) notify() {
	l.mu.Lock()
	entries := make([]listenerEntry, len(l.entries))
	copy(entries, l.entries)
	l.mu.Unlock()

	for _, e := range entries {
		e.fn()
	}
}

func (l *listeners) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
