package client

import (
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/dippy/pkg/cache"
	"github.com/vango-dev/dippy/pkg/registry"
	"github.com/vango-dev/dippy/pkg/telemetry"
	"github.com/vango-dev/dippy/pkg/transport"
	"github.com/vango-dev/dippy/pkg/view"
)

// DefaultCloseTimeout bounds the view and registry teardown in Close.
const DefaultCloseTimeout = 2 * time.Second

// Config configures a Client.
type Config struct {
	// URL is the game server WebSocket endpoint. Required for Connect.
	URL string

	// Transport holds connection timing and size limits.
	// Default: transport.DefaultConfig()
	Transport transport.Config

	// Store is the cache backend. Default: cache.NewMemoryStore()
	Store cache.Store

	// CacheTimeout bounds each cache operation.
	// Default: cache.DefaultTimeout
	CacheTimeout time.Duration

	// QueueSize is the run loop dispatch queue capacity.
	// Default: runloop.DefaultQueueSize
	QueueSize int

	// Resend controls duplicate subscribe messages.
	// Default: registry.ResendAlways
	Resend registry.ResendPolicy
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the base logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithMetrics records client activity in m.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithTracer sets the tracer used by the bridge and the view runtime.
func WithTracer(t trace.Tracer) Option {
	return func(c *Client) {
		c.tracer = t
	}
}

// WithNavigator sets the navigator that view links are followed through.
func WithNavigator(nav view.Navigator) Option {
	return func(c *Client) {
		c.navigator = nav
	}
}

// WithAfterRender adds a hook run after every successful render pass.
func WithAfterRender(h view.Hook) Option {
	return func(c *Client) {
		c.afterRender = append(c.afterRender, h)
	}
}

// WithID overrides the generated client id.
func WithID(id string) Option {
	return func(c *Client) {
		c.id = id
	}
}
