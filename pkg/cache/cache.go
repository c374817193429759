package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/vango-dev/dippy/pkg/telemetry"
)

// DefaultTimeout bounds each backend operation.
const DefaultTimeout = 2 * time.Second

// Option configures a Cache.
type Option func(*Cache)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) {
		c.logger = logger
	}
}

// WithMetrics records hits, misses and failures.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(c *Cache) {
		c.metrics = m
	}
}

// WithTimeout sets the per-operation timeout. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(c *Cache) {
		c.timeout = d
	}
}

// Cache is the locator-keyed payload cache used by the registry and the
// bridge. Its methods never return errors.
type Cache struct {
	store   Store
	logger  *slog.Logger
	metrics *telemetry.Metrics
	timeout time.Duration
}

// New creates a Cache over store. A nil store yields a cache that is always
// empty and drops writes.
func New(store Store, opts ...Option) *Cache {
	c := &Cache{
		store:   store,
		logger:  slog.Default(),
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "cache")
	return c
}

// Store returns the backend.
func (c *Cache) Store() Store {
	if c == nil {
		return nil
	}
	return c.store
}

func (c *Cache) context() (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(context.Background())
	}
	return context.WithTimeout(context.Background(), c.timeout)
}

// Get returns the cached payload for locator. Any failure, including a
// stored value that is not valid JSON, reports the entry as absent.
func (c *Cache) Get(locator string) (json.RawMessage, bool) {
	if c == nil || c.store == nil {
		return nil, false
	}

	ctx, cancel := c.context()
	defer cancel()

	value, err := c.store.Load(ctx, locator)
	if err != nil {
		c.logger.Warn("cache read failed", "locator", locator, "error", err)
		c.metrics.RecordCache("get", "error")
		return nil, false
	}
	if value == nil {
		c.metrics.RecordCache("get", "miss")
		return nil, false
	}
	if !json.Valid(value) {
		c.logger.Warn("cache entry is not valid JSON", "locator", locator, "bytes", len(value))
		c.metrics.RecordCache("get", "corrupt")
		return nil, false
	}

	c.metrics.RecordCache("get", "hit")
	return json.RawMessage(value), true
}

// Put stores payload under locator, overwriting any previous entry.
// Failures are logged and otherwise ignored.
func (c *Cache) Put(locator string, payload json.RawMessage) {
	if c == nil || c.store == nil {
		return
	}

	ctx, cancel := c.context()
	defer cancel()

	if err := c.store.Save(ctx, locator, payload); err != nil {
		c.logger.Warn("cache write failed", "locator", locator, "error", err)
		c.metrics.RecordCache("put", "error")
		return
	}
	c.metrics.RecordCache("put", "ok")
}

// Remove deletes the entry for locator. Failures are logged.
func (c *Cache) Remove(locator string) {
	if c == nil || c.store == nil {
		return
	}

	ctx, cancel := c.context()
	defer cancel()

	if err := c.store.Delete(ctx, locator); err != nil {
		c.logger.Warn("cache delete failed", "locator", locator, "error", err)
		c.metrics.RecordCache("delete", "error")
		return
	}
	c.metrics.RecordCache("delete", "ok")
}

// Close closes the backend.
func (c *Cache) Close() error {
	if c == nil || c.store == nil {
		return nil
	}
	return c.store.Close()
}
