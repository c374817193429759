package transport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vango-dev/dippy/pkg/bridge"
	"github.com/vango-dev/dippy/pkg/protocol"
	"github.com/vango-dev/dippy/pkg/runloop"
	"github.com/vango-dev/dippy/pkg/telemetry"
)

// ErrClosed is returned when writing to a closed connection.
var ErrClosed = errors.New("transport: connection closed")

// Config holds connection settings.
type Config struct {
	// HandshakeTimeout bounds the WebSocket opening handshake.
	// Default: 10 seconds
	HandshakeTimeout time.Duration

	// ReadTimeout is how long the connection may stay silent, pongs
	// included, before ReadLoop gives up. Zero disables it.
	// Default: 60 seconds
	ReadTimeout time.Duration

	// WriteTimeout bounds each frame write.
	// Default: 10 seconds
	WriteTimeout time.Duration

	// HeartbeatInterval is the ping period.
	// Default: 30 seconds
	HeartbeatInterval time.Duration

	// MaxFrameSize is the largest inbound frame accepted.
	// Default: protocol.MaxFrameSize
	MaxFrameSize int64

	// Header is sent with the handshake request.
	Header http.Header
}

// DefaultConfig returns the default connection settings.
func DefaultConfig() Config {
	return Config{
		HandshakeTimeout:  10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      10 * time.Second,
		HeartbeatInterval: 30 * time.Second,
		MaxFrameSize:      protocol.MaxFrameSize,
	}
}

// Dispatcher runs callbacks on the client run loop.
type Dispatcher interface {
	Dispatch(fn func()) error
}

// Option configures a Conn.
type Option func(*Conn)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Conn) {
		c.logger = logger
	}
}

// WithDispatcher delivers inbound frames through d instead of calling the
// handler on the read goroutine.
func WithDispatcher(d Dispatcher) Option {
	return func(c *Conn) {
		c.dispatcher = d
	}
}

// WithMetrics counts dropped frames.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(c *Conn) {
		c.metrics = m
	}
}

// Conn is a WebSocket duplex channel.
type Conn struct {
	ws     *websocket.Conn
	config Config

	writeMu sync.Mutex

	handlerMu sync.RWMutex
	handler   bridge.Handler

	dispatcher Dispatcher
	logger     *slog.Logger
	metrics    *telemetry.Metrics

	closed    atomic.Bool
	closeOnce sync.Once
	done      chan struct{}

	bytesIn  atomic.Uint64
	bytesOut atomic.Uint64
}

var _ bridge.Channel = (*Conn)(nil)

// Dial opens a WebSocket connection to url.
func Dial(ctx context.Context, url string, cfg Config, opts ...Option) (*Conn, error) {
	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: cfg.HandshakeTimeout,
	}

	ws, resp, err := dialer.DialContext(ctx, url, cfg.Header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("transport: dial %s: %w (status %d)", url, err, resp.StatusCode)
		}
		return nil, fmt.Errorf("transport: dial %s: %w", url, err)
	}
	return NewConn(ws, cfg, opts...), nil
}

// NewConn wraps an established WebSocket connection.
func NewConn(ws *websocket.Conn, cfg Config, opts ...Option) *Conn {
	c := &Conn{
		ws:     ws,
		config: cfg,
		logger: slog.Default(),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "transport", "remote", ws.RemoteAddr().String())

	if cfg.MaxFrameSize > 0 {
		ws.SetReadLimit(cfg.MaxFrameSize)
	}
	ws.SetPongHandler(func(string) error {
		c.extendReadDeadline()
		return nil
	})
	return c
}

// Send writes one text frame.
func (c *Conn) Send(data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if c.closed.Load() {
		return ErrClosed
	}

	if c.config.WriteTimeout > 0 {
		c.ws.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
	}
	if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("transport: write: %w", err)
	}
	c.bytesOut.Add(uint64(len(data)))
	return nil
}

// Handler implements bridge.Channel.
func (c *Conn) Handler() bridge.Handler {
	c.handlerMu.RLock()
	defer c.handlerMu.RUnlock()
	return c.handler
}

// SetHandler implements bridge.Channel.
func (c *Conn) SetHandler(h bridge.Handler) {
	c.handlerMu.Lock()
	c.handler = h
	c.handlerMu.Unlock()
}

func (c *Conn) extendReadDeadline() {
	if c.config.ReadTimeout > 0 {
		c.ws.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))
	}
}

// ReadLoop reads frames until the connection closes or ctx is cancelled.
// It returns nil on a normal closure or cancellation.
func (c *Conn) ReadLoop(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() {
		c.Close()
	})
	defer stop()

	for {
		c.extendReadDeadline()

		_, msg, err := c.ws.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || c.closed.Load() {
				return nil
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.logger.Info("connection closed by server")
				c.Close()
				return nil
			}
			c.logger.Error("read error", "error", err)
			c.Close()
			return fmt.Errorf("transport: read: %w", err)
		}

		c.bytesIn.Add(uint64(len(msg)))
		if err := c.deliver(msg); err != nil {
			return nil
		}
	}
}

// deliver hands msg to the handler, through the dispatcher when set.
// It returns an error only when the dispatcher has shut down.
func (c *Conn) deliver(msg []byte) error {
	if c.dispatcher == nil {
		if h := c.Handler(); h != nil {
			h(msg)
		}
		return nil
	}

	err := c.dispatcher.Dispatch(func() {
		if h := c.Handler(); h != nil {
			h(msg)
		}
	})
	if err == nil {
		return nil
	}
	c.metrics.RecordFrame("in", "dropped")
	c.logger.Warn("inbound frame dropped", "bytes", len(msg), "error", err)
	if errors.Is(err, runloop.ErrClosed) {
		return err
	}
	return nil
}

// Heartbeat sends a ping every HeartbeatInterval until ctx is cancelled or
// the connection closes.
func (c *Conn) Heartbeat(ctx context.Context) error {
	if c.config.HeartbeatInterval <= 0 {
		select {
		case <-ctx.Done():
		case <-c.done:
		}
		return nil
	}

	ticker := time.NewTicker(c.config.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			deadline := time.Now().Add(c.config.WriteTimeout)
			if err := c.ws.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				if c.closed.Load() {
					return nil
				}
				c.logger.Error("ping error", "error", err)
				return fmt.Errorf("transport: ping: %w", err)
			}
		case <-ctx.Done():
			return nil
		case <-c.done:
			return nil
		}
	}
}

// Close sends a normal closure frame and closes the connection.
func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.writeMu.Lock()
		c.closed.Store(true)
		c.writeMu.Unlock()

		deadline := time.Now().Add(time.Second)
		_ = c.ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		close(c.done)
		err = c.ws.Close()
	})
	return err
}

// Done is closed when the connection is closed.
func (c *Conn) Done() <-chan struct{} {
	return c.done
}

// Stats returns the number of payload bytes read and written.
func (c *Conn) Stats() (in, out uint64) {
	return c.bytesIn.Load(), c.bytesOut.Load()
}
