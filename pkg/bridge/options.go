package bridge

import (
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/dippy/pkg/telemetry"
)

// Option configures a Bridge.
type Option func(*Bridge)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(b *Bridge) {
		b.logger = logger
	}
}

// WithMetrics records frame and push counters.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(b *Bridge) {
		b.metrics = m
	}
}

// WithTracer sets the tracer used for inbound frame spans.
// Default: telemetry.Tracer().
func WithTracer(t trace.Tracer) Option {
	return func(b *Bridge) {
		b.tracer = t
	}
}

// WithRouter binds the owner lookup at construction time.
func WithRouter(r Router) Option {
	return func(b *Bridge) {
		b.router = r
	}
}
