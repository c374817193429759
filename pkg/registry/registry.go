package registry

import (
	"log/slog"
	"slices"
	"sync"

	"github.com/vango-dev/dippy/pkg/cache"
	"github.com/vango-dev/dippy/pkg/model"
	"github.com/vango-dev/dippy/pkg/protocol"
	"github.com/vango-dev/dippy/pkg/telemetry"
)

// Sender delivers control messages to the server.
type Sender interface {
	Send(c protocol.Control)
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(c protocol.Control)

// Send implements Sender.
func (f SenderFunc) Send(c protocol.Control) {
	f(c)
}

// Registry maps locators to their owning models.
//
// Subscribe and Unsubscribe are meant to run on the client run loop. The
// entry table is guarded so OwnerOf, Len and Locators can also be read from
// other goroutines, such as a debug endpoint.
type Registry struct {
	sender Sender
	cache  *cache.Cache
	policy ResendPolicy

	mu      sync.RWMutex
	entries map[string]model.Model

	logger  *slog.Logger
	metrics *telemetry.Metrics
}

var (
	_ model.Syncer   = (*Registry)(nil)
	_ model.Releaser = (*Registry)(nil)
)

// New creates an empty registry sending controls through sender.
// c may be nil, in which case nothing is hydrated.
func New(sender Sender, c *cache.Cache, opts ...Option) *Registry {
	r := &Registry{
		sender:  sender,
		cache:   c,
		entries: make(map[string]model.Model),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With("component", "registry")
	return r
}

// Sync implements model.Syncer. A read intent subscribes the model; other
// methods belong to the outbound write path and are accepted unchanged.
func (r *Registry) Sync(method model.Method, m model.Model) error {
	if method == model.MethodRead {
		return r.Subscribe(m)
	}
	locator, _ := m.Locator()
	r.logger.Debug("sync passed through", "method", method, "locator", locator)
	return nil
}

// Subscribe records m as the owner of its locator and asks the server to
// push it. A cached payload is applied, followed by one sync notification,
// before the subscribe control is sent.
func (r *Registry) Subscribe(m model.Model) error {
	locator, err := m.Locator()
	if err != nil {
		return &AddressError{Op: "subscribe", Err: err}
	}

	r.hydrate(locator, m)

	r.mu.Lock()
	prev, had := r.entries[locator]
	r.entries[locator] = m
	n := len(r.entries)
	r.mu.Unlock()
	r.metrics.SetSubscriptions(n)

	if had && prev != m {
		r.logger.Debug("subscription owner replaced", "locator", locator)
	}
	if had && prev == m && r.policy == ResendOnOwnerChange {
		r.logger.Debug("subscribe suppressed", "locator", locator)
		return nil
	}

	r.sender.Send(protocol.NewSubscribe(locator))
	return nil
}

func (r *Registry) hydrate(locator string, m model.Model) {
	payload, ok := r.cache.Get(locator)
	if !ok {
		return
	}
	if err := m.Apply(payload); err != nil {
		r.logger.Warn("cached payload rejected", "locator", locator, "error", err)
		return
	}
	m.NotifySync()
	r.logger.Debug("hydrated from cache", "locator", locator)
}

// Unsubscribe drops the entry for m's locator and tells the server, if an
// entry exists. The entry is removed regardless of which model owns it.
func (r *Registry) Unsubscribe(m model.Model) error {
	locator, err := m.Locator()
	if err != nil {
		return &AddressError{Op: "unsubscribe", Err: err}
	}

	r.mu.Lock()
	_, ok := r.entries[locator]
	if ok {
		delete(r.entries, locator)
	}
	n := len(r.entries)
	r.mu.Unlock()

	if !ok {
		return nil
	}
	r.metrics.SetSubscriptions(n)
	r.sender.Send(protocol.NewUnsubscribe(locator))
	return nil
}

// OwnerOf returns the model that owns locator.
func (r *Registry) OwnerOf(locator string) (model.Model, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.entries[locator]
	return m, ok
}

// Len returns the number of subscribed locators.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Locators returns the subscribed locators in sorted order.
func (r *Registry) Locators() []string {
	r.mu.RLock()
	out := make([]string, 0, len(r.entries))
	for locator := range r.entries {
		out = append(out, locator)
	}
	r.mu.RUnlock()

	slices.Sort(out)
	return out
}

// Close unsubscribes every locator.
func (r *Registry) Close() {
	r.mu.Lock()
	locators := make([]string, 0, len(r.entries))
	for locator := range r.entries {
		locators = append(locators, locator)
	}
	clear(r.entries)
	r.mu.Unlock()

	slices.Sort(locators)
	for _, locator := range locators {
		r.sender.Send(protocol.NewUnsubscribe(locator))
	}
	r.metrics.SetSubscriptions(0)
	if len(locators) > 0 {
		r.logger.Info("registry closed", "unsubscribed", len(locators))
	}
}
