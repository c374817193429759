package registry

import (
	"log/slog"

	"github.com/vango-dev/dippy/pkg/telemetry"
)

// ResendPolicy decides whether a repeated Subscribe sends another control.
type ResendPolicy int

const (
	// ResendAlways sends a subscribe control on every Subscribe call.
	ResendAlways ResendPolicy = iota
	// ResendOnOwnerChange skips the control when the same model already
	// owns the locator.
	ResendOnOwnerChange
)

// String returns the policy name used in configuration.
func (p ResendPolicy) String() string {
	switch p {
	case ResendAlways:
		return "always"
	case ResendOnOwnerChange:
		return "owner-change"
	default:
		return "unknown"
	}
}

// ParseResendPolicy parses a policy name. The empty string means ResendAlways.
func ParseResendPolicy(s string) (ResendPolicy, bool) {
	switch s {
	case "", "always":
		return ResendAlways, true
	case "owner-change":
		return ResendOnOwnerChange, true
	default:
		return ResendAlways, false
	}
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

// WithMetrics reports the number of active subscriptions.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(r *Registry) {
		r.metrics = m
	}
}

// WithResendPolicy sets the duplicate subscribe behavior.
// Default: ResendAlways.
func WithResendPolicy(p ResendPolicy) Option {
	return func(r *Registry) {
		r.policy = p
	}
}
