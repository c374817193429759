package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/vango-dev/dippy/pkg/bridge"
	"github.com/vango-dev/dippy/pkg/cache"
	"github.com/vango-dev/dippy/pkg/protocol"
	"github.com/vango-dev/dippy/pkg/registry"
	"github.com/vango-dev/dippy/pkg/runloop"
	"github.com/vango-dev/dippy/pkg/telemetry"
	"github.com/vango-dev/dippy/pkg/transport"
	"github.com/vango-dev/dippy/pkg/view"
)

// Client errors.
var (
	ErrNoURL            = errors.New("client: no server URL configured")
	ErrAlreadyConnected = errors.New("client: already connected")
	ErrClosed           = errors.New("client: closed")
)

// Client wires a channel to the registry, cache and view runtime.
type Client struct {
	id  string
	cfg Config

	loop     *runloop.Loop
	cache    *cache.Cache
	registry *registry.Registry
	views    *view.Runtime

	// Installed by Connect or NewWithChannel.
	installMu sync.Mutex
	bridge    atomic.Pointer[bridge.Bridge]
	conn      *transport.Conn

	logger      *slog.Logger
	metrics     *telemetry.Metrics
	tracer      trace.Tracer
	navigator   view.Navigator
	afterRender []view.Hook

	mu        sync.Mutex
	running   atomic.Bool
	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

// New creates a client. It is not connected until Connect is called.
func New(cfg Config, opts ...Option) (*Client, error) {
	if cfg.QueueSize < 0 {
		return nil, fmt.Errorf("client: invalid queue size %d", cfg.QueueSize)
	}

	c := &Client{
		cfg:    cfg,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.id == "" {
		c.id = ulid.Make().String()
	}
	if t := c.cfg.Transport; t.HandshakeTimeout == 0 && t.ReadTimeout == 0 &&
		t.WriteTimeout == 0 && t.HeartbeatInterval == 0 && t.MaxFrameSize == 0 {
		c.cfg.Transport = transport.DefaultConfig()
		c.cfg.Transport.Header = t.Header
	}
	if c.cfg.Store == nil {
		c.cfg.Store = cache.NewMemoryStore()
	}

	base := c.logger.With("client_id", c.id)
	c.logger = base.With("component", "client")

	c.loop = runloop.New(
		runloop.WithLogger(base),
		runloop.WithQueueSize(c.cfg.QueueSize),
	)

	cacheOpts := []cache.Option{cache.WithLogger(base), cache.WithMetrics(c.metrics)}
	if c.cfg.CacheTimeout > 0 {
		cacheOpts = append(cacheOpts, cache.WithTimeout(c.cfg.CacheTimeout))
	}
	c.cache = cache.New(c.cfg.Store, cacheOpts...)

	c.registry = registry.New(registry.SenderFunc(c.send), c.cache,
		registry.WithLogger(base),
		registry.WithMetrics(c.metrics),
		registry.WithResendPolicy(c.cfg.Resend),
	)

	viewOpts := []view.RuntimeOption{
		view.WithLogger(base),
		view.WithMetrics(c.metrics),
	}
	if c.tracer != nil {
		viewOpts = append(viewOpts, view.WithTracer(c.tracer))
	}
	if c.navigator != nil {
		viewOpts = append(viewOpts, view.WithNavigator(c.navigator))
	}
	for _, h := range c.afterRender {
		viewOpts = append(viewOpts, view.WithAfterRender(h))
	}
	c.views = view.NewRuntime(c.registry, viewOpts...)

	return c, nil
}

// NewWithChannel creates a client over an already open channel.
func NewWithChannel(ch bridge.Channel, cfg Config, opts ...Option) (*Client, error) {
	c, err := New(cfg, opts...)
	if err != nil {
		return nil, err
	}
	if err := c.install(ch); err != nil {
		return nil, err
	}
	return c, nil
}

// Connect dials the server and installs the bridge on the connection.
// Inbound frames are dispatched onto the run loop.
func (c *Client) Connect(ctx context.Context) error {
	if c.closed.Load() {
		return ErrClosed
	}
	if c.cfg.URL == "" {
		return ErrNoURL
	}
	if c.bridge.Load() != nil {
		return ErrAlreadyConnected
	}

	conn, err := transport.Dial(ctx, c.cfg.URL, c.cfg.Transport,
		transport.WithLogger(c.logger.With("client_id", c.id)),
		transport.WithDispatcher(c.loop),
		transport.WithMetrics(c.metrics),
	)
	if err != nil {
		return fmt.Errorf("client: connect: %w", err)
	}

	if err := c.install(conn); err != nil {
		_ = conn.Close()
		return err
	}
	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
	c.logger.Info("connected", "url", c.cfg.URL)
	return nil
}

// install creates the bridge over ch and resends subscriptions that were
// registered before the channel existed. ch is left untouched when a
// bridge is already installed.
func (c *Client) install(ch bridge.Channel) error {
	c.installMu.Lock()
	defer c.installMu.Unlock()
	if c.bridge.Load() != nil {
		return ErrAlreadyConnected
	}

	opts := []bridge.Option{
		bridge.WithLogger(c.logger.With("client_id", c.id)),
		bridge.WithMetrics(c.metrics),
		bridge.WithRouter(c.registry),
	}
	if c.tracer != nil {
		opts = append(opts, bridge.WithTracer(c.tracer))
	}
	b := bridge.New(ch, c.cache, opts...)
	c.bridge.Store(b)

	for _, locator := range c.registry.Locators() {
		b.Send(protocol.NewSubscribe(locator))
	}
	return nil
}

// send hands a control to the bridge. Controls issued before a channel is
// installed are dropped; install resends subscriptions.
func (c *Client) send(ctrl protocol.Control) {
	b := c.bridge.Load()
	if b == nil {
		c.logger.Debug("not connected, deferring control",
			"type", ctrl.Type.String(),
			"locator", ctrl.Locator)
		return
	}
	b.Send(ctrl)
}

// Run drives the run loop and, when connected, the read loop and heartbeat.
// It returns when ctx is cancelled, the client is closed or the connection
// is lost.
func (c *Client) Run(ctx context.Context) error {
	if c.closed.Load() {
		return ErrClosed
	}
	c.running.Store(true)
	defer c.running.Store(false)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return c.loop.Run(gctx)
	})

	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()

	if conn != nil {
		g.Go(func() error {
			err := conn.ReadLoop(gctx)
			if err == nil {
				c.logger.Info("connection closed")
				c.loop.Close()
			}
			return err
		})
		g.Go(func() error {
			return conn.Heartbeat(gctx)
		})
	}

	err := g.Wait()
	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// Do runs fn on the run loop and waits for its result.
func (c *Client) Do(ctx context.Context, fn func() error) error {
	return c.loop.Do(ctx, fn)
}

// Dispatch queues fn on the run loop without waiting.
func (c *Client) Dispatch(fn func()) error {
	return c.loop.Dispatch(fn)
}

// ID returns the client id.
func (c *Client) ID() string {
	return c.id
}

// Registry returns the subscription registry.
func (c *Client) Registry() *registry.Registry {
	return c.registry
}

// Views returns the view runtime.
func (c *Client) Views() *view.Runtime {
	return c.views
}

// Bridge returns the installed bridge, or nil before Connect.
func (c *Client) Bridge() *bridge.Bridge {
	return c.bridge.Load()
}

// Cache returns the cache facade.
func (c *Client) Cache() *cache.Cache {
	return c.cache
}

// Loop returns the run loop.
func (c *Client) Loop() *runloop.Loop {
	return c.loop
}

// Close cleans every mounted view, unsubscribes everything still
// registered, then closes the connection and the cache backend.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		c.closed.Store(true)

		var once sync.Once
		var teardownErr error
		teardown := func() error {
			once.Do(func() {
				teardownErr = c.views.Close()
				c.registry.Close()
			})
			return teardownErr
		}

		var errs []error
		if c.running.Load() {
			ctx, cancel := context.WithTimeout(context.Background(), DefaultCloseTimeout)
			_ = c.loop.Do(ctx, teardown)
			cancel()
		}
		if err := teardown(); err != nil {
			errs = append(errs, err)
		}
		c.loop.Close()

		c.mu.Lock()
		conn := c.conn
		c.mu.Unlock()
		if conn != nil {
			if err := conn.Close(); err != nil {
				errs = append(errs, err)
			}
		}
		if err := c.cache.Close(); err != nil {
			errs = append(errs, err)
		}

		c.closeErr = errors.Join(errs...)
		c.logger.Info("client closed")
	})
	return c.closeErr
}
