package model

import (
	"encoding/json"
	"fmt"
	"sync"
)

// Resource is a Model holding a value of type T decoded from JSON payloads.
//
// Apply decodes the payload over a deep copy of the current value, so
// fields missing from a payload keep their previous contents, the same way
// a partial push only overwrites what it carries.
type Resource[T any] struct {
	mu        sync.RWMutex
	value     T
	populated bool

	locator    func() string
	persistent bool
	syncer     Syncer

	syncListeners   listeners
	changeListeners listeners
}

var _ Model = (*Resource[struct{}])(nil)

// Option configures a Resource.
type Option func(*options)

type options struct {
	persistent bool
	syncer     Syncer
}

// Persistent marks the resource as eligible for local caching.
func Persistent() Option {
	return func(o *options) {
		o.persistent = true
	}
}

// WithSyncer attaches the synchronization strategy used by Fetch, Save,
// Destroy and Close.
func WithSyncer(s Syncer) Option {
	return func(o *options) {
		o.syncer = s
	}
}

// New creates a Resource bound to a fixed locator.
func New[T any](locator string, opts ...Option) *Resource[T] {
	return NewFunc[T](func() string { return locator }, opts...)
}

// NewFunc creates a Resource whose locator is computed on demand, for
// models whose address depends on state that is filled in later.
func NewFunc[T any](locator func() string, opts ...Option) *Resource[T] {
	cfg := options{}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Resource[T]{
		locator:    locator,
		persistent: cfg.persistent,
		syncer:     cfg.syncer,
	}
}

// Locator implements Model.
func (r *Resource[T]) Locator() (string, error) {
	if r.locator == nil {
		return "", ErrNoLocator
	}
	loc := r.locator()
	if loc == "" {
		return "", ErrNoLocator
	}
	return loc, nil
}

// Persistent implements Model.
func (r *Resource[T]) Persistent() bool {
	return r.persistent
}

// Apply implements Model. It notifies change listeners on success.
func (r *Resource[T]) Apply(payload json.RawMessage) error {
	r.mu.Lock()
	next, err := r.decode(payload)
	if err != nil {
		r.mu.Unlock()
		return fmt.Errorf("model: apply payload: %w", err)
	}
	r.value = next
	r.populated = true
	r.mu.Unlock()

	r.changeListeners.notify()
	return nil
}

// decode builds a fresh value from the current one with payload decoded
// over it. Slices and maps are newly allocated, so values returned by
// earlier Get calls are never written to.
func (r *Resource[T]) decode(payload json.RawMessage) (T, error) {
	var next T
	cur, err := json.Marshal(r.value)
	if err != nil {
		return next, err
	}
	if err := json.Unmarshal(cur, &next); err != nil {
		return next, err
	}
	if err := json.Unmarshal(payload, &next); err != nil {
		return next, err
	}
	return next, nil
}

// NotifySync implements Model.
func (r *Resource[T]) NotifySync() {
	r.syncListeners.notify()
}

// OnSync implements Model.
func (r *Resource[T]) OnSync(fn func()) func() {
	return r.syncListeners.add(fn)
}

// OnChange registers a listener called whenever the value changes, either
// through Apply or Set. The returned function removes it.
func (r *Resource[T]) OnChange(fn func()) func() {
	return r.changeListeners.add(fn)
}

// Get returns the current value.
func (r *Resource[T]) Get() T {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.value
}

// Set replaces the value locally and notifies change listeners.
// It does not synchronize; call Save for that.
func (r *Resource[T]) Set(v T) {
	r.mu.Lock()
	r.value = v
	r.populated = true
	r.mu.Unlock()

	r.changeListeners.notify()
}

// Populated reports whether the resource has received a value.
func (r *Resource[T]) Populated() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.populated
}

// Listeners returns the number of registered sync listeners.
func (r *Resource[T]) Listeners() int {
	return r.syncListeners.len()
}

// Syncer returns the attached synchronization strategy, or nil.
func (r *Resource[T]) Syncer() Syncer {
	return r.syncer
}

// SetSyncer replaces the synchronization strategy.
func (r *Resource[T]) SetSyncer(s Syncer) {
	r.syncer = s
}

// Fetch asks the syncer to read the resource.
func (r *Resource[T]) Fetch() error {
	return r.sync(MethodRead)
}

// Save asks the syncer to create the resource if it has never been
// populated, or to update it otherwise.
func (r *Resource[T]) Save() error {
	if r.Populated() {
		return r.sync(MethodUpdate)
	}
	return r.sync(MethodCreate)
}

// Destroy asks the syncer to delete the resource.
func (r *Resource[T]) Destroy() error {
	return r.sync(MethodDelete)
}

// Close drops the live subscription held for this resource, if the syncer
// keeps one.
func (r *Resource[T]) Close() error {
	if rel, ok := r.syncer.(Releaser); ok {
		return rel.Unsubscribe(r)
	}
	return nil
}

func (r *Resource[T]) sync(method Method) error {
	if r.syncer == nil {
		return ErrNoSyncer
	}
	return r.syncer.Sync(method, r)
}
