package view

import (
	"errors"
	"log/slog"
	"sync/atomic"

	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/dippy/pkg/model"
	"github.com/vango-dev/dippy/pkg/telemetry"
)

// Subscriptions is the synchronization strategy views fetch through and
// release subscriptions to. *registry.Registry implements it.
type Subscriptions interface {
	model.Syncer
	model.Releaser
}

// Navigator follows navigation links declared by rendered views.
type Navigator interface {
	Navigate(target string) error
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(target string) error

// Navigate implements Navigator.
func (f NavigatorFunc) Navigate(target string) error {
	return f(target)
}

// Hook runs after a node's render pass.
type Hook func(n *Node)

// maxPasses bounds how often a node re-renders itself within one DoRender
// call when sync notifications arrive while it is rendering.
const maxPasses = 8

// Runtime owns the render stack and host registry for one client.
// It is not safe for concurrent use; all calls belong on the client run loop.
type Runtime struct {
	stack *Stack
	hosts *Hosts
	subs  Subscriptions

	navigator   Navigator
	afterRender []Hook

	logger  *slog.Logger
	metrics *telemetry.Metrics
	tracer  trace.Tracer

	lastID atomic.Uint64
}

// RuntimeOption configures a Runtime.
type RuntimeOption func(*Runtime)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) RuntimeOption {
	return func(rt *Runtime) {
		rt.logger = logger
	}
}

// WithMetrics records render durations and cleanups.
func WithMetrics(m *telemetry.Metrics) RuntimeOption {
	return func(rt *Runtime) {
		rt.metrics = m
	}
}

// WithTracer sets the tracer for render spans. Default: telemetry.Tracer().
func WithTracer(t trace.Tracer) RuntimeOption {
	return func(rt *Runtime) {
		rt.tracer = t
	}
}

// WithNavigator sets the navigator links are wired to.
func WithNavigator(nav Navigator) RuntimeOption {
	return func(rt *Runtime) {
		rt.navigator = nav
	}
}

// WithAfterRender adds a hook run after every node's render pass.
func WithAfterRender(h Hook) RuntimeOption {
	return func(rt *Runtime) {
		rt.afterRender = append(rt.afterRender, h)
	}
}

// NewRuntime creates a runtime fetching and releasing through subs.
func NewRuntime(subs Subscriptions, opts ...RuntimeOption) *Runtime {
	rt := &Runtime{
		stack:  &Stack{},
		hosts:  newHosts(),
		subs:   subs,
		logger: slog.Default(),
		tracer: telemetry.Tracer(),
	}
	for _, opt := range opts {
		opt(rt)
	}
	rt.logger = rt.logger.With("component", "view")
	return rt
}

// Stack returns the render stack.
func (rt *Runtime) Stack() *Stack {
	return rt.stack
}

// Hosts returns the host registry.
func (rt *Runtime) Hosts() *Hosts {
	return rt.hosts
}

// New instantiates a node. While a render pass is running the node becomes
// a child of the node on top of the stack. Otherwise, with OnHost, it
// becomes the sole occupant of that host.
func (rt *Runtime) New(body RenderFunc, opts ...NodeOption) *Node {
	n := rt.newNode(body, opts...)

	if top := rt.stack.Top(); top != nil {
		top.attach(n)
		return n
	}
	if n.cfg.host != nil {
		rt.hosts.occupy(n.cfg.host, n)
	}
	return n
}

// Occupy makes n the sole occupant of host. A previous occupant is cleaned;
// if n already occupies host its children are reset.
func (rt *Runtime) Occupy(host Host, n *Node) {
	rt.hosts.occupy(host, n)
}

// Mount instantiates body on host and renders it.
func (rt *Runtime) Mount(host Host, body RenderFunc, opts ...NodeOption) (*Node, error) {
	opts = append(opts, OnHost(host))
	return rt.New(body, opts...).DoRender()
}

func (rt *Runtime) newNode(body RenderFunc, opts ...NodeOption) *Node {
	n := &Node{
		id:   rt.lastID.Add(1),
		rt:   rt,
		body: body,
	}
	for _, opt := range opts {
		opt(&n.cfg)
	}
	return n
}

// Close cleans every host occupant.
func (rt *Runtime) Close() error {
	var errs []error
	for _, n := range rt.hosts.Nodes() {
		if err := n.Clean(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
