package bridge

import (
	"context"
	"log/slog"
	"sync/atomic"

	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/dippy/pkg/cache"
	"github.com/vango-dev/dippy/pkg/protocol"
	"github.com/vango-dev/dippy/pkg/telemetry"
)

// Bridge routes pushes from a Channel to their owning models and sends
// subscription controls. Inbound handling and Attach must happen on the
// client run loop; Send may be called from any goroutine.
type Bridge struct {
	ch       Channel
	cache    *cache.Cache
	router   Router
	previous Handler

	logger  *slog.Logger
	metrics *telemetry.Metrics
	tracer  trace.Tracer

	framesIn   atomic.Uint64
	framesOut  atomic.Uint64
	applied    atomic.Uint64
	orphaned   atomic.Uint64
	malformed  atomic.Uint64
	rejected   atomic.Uint64
	sendErrors atomic.Uint64
}

// Stats is a snapshot of bridge counters.
type Stats struct {
	FramesIn   uint64
	FramesOut  uint64
	Applied    uint64
	Orphaned   uint64
	Malformed  uint64
	Rejected   uint64
	SendErrors uint64
}

// New creates a Bridge over ch and installs its inbound handler, chaining
// the handler that was installed before.
func New(ch Channel, c *cache.Cache, opts ...Option) *Bridge {
	b := &Bridge{
		ch:     ch,
		cache:  c,
		logger: slog.Default(),
		tracer: telemetry.Tracer(),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.logger = b.logger.With("component", "bridge")

	b.previous = ch.Handler()
	ch.SetHandler(b.OnMessage)
	return b
}

// Attach binds the owner lookup used to route pushes.
func (b *Bridge) Attach(r Router) {
	b.router = r
}

// Send encodes and writes a control message. Failures are logged and
// counted; they are never returned to the caller.
func (b *Bridge) Send(c protocol.Control) {
	data, err := protocol.EncodeControl(c)
	if err != nil {
		b.logger.Error("encode control failed", "type", c.Type, "locator", c.Locator, "error", err)
		b.sendErrors.Add(1)
		b.metrics.RecordSendError()
		return
	}

	if err := b.ch.Send(data); err != nil {
		b.logger.Warn("send control failed", "type", c.Type, "locator", c.Locator, "error", err)
		b.sendErrors.Add(1)
		b.metrics.RecordSendError()
		return
	}

	b.framesOut.Add(1)
	b.metrics.RecordFrame("out", c.Type.String())
	b.metrics.RecordControl(c.Type.String())
	b.logger.Debug("control sent", "type", c.Type, "locator", c.Locator)
}

// OnMessage handles one raw inbound frame and then passes it to the
// previously installed handler.
func (b *Bridge) OnMessage(raw []byte) {
	b.framesIn.Add(1)
	b.handle(raw)

	if b.previous != nil {
		b.previous(raw)
	}
}

func (b *Bridge) handle(raw []byte) {
	in, err := protocol.DecodeInbound(raw)
	if err != nil {
		b.malformed.Add(1)
		b.metrics.RecordFrame("in", "malformed")
		b.logger.Warn("malformed frame", "bytes", len(raw), "error", err)
		return
	}
	b.metrics.RecordFrame("in", in.Kind().String())

	switch msg := in.(type) {
	case *protocol.Fetch:
		b.applyFetch(msg)
	case *protocol.Unaddressed:
		b.logger.Debug("frame without locator", "type", msg.Type)
	case *protocol.Unknown:
		b.logger.Debug("unhandled frame type", "type", msg.Type, "locator", msg.Locator)
	}
}

func (b *Bridge) applyFetch(msg *protocol.Fetch) {
	_, span := b.tracer.Start(context.Background(), "bridge.fetch",
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(telemetry.AttrLocator.String(msg.Locator)),
	)

	if b.router == nil {
		b.orphan(msg.Locator, "no router attached")
		telemetry.EndSpan(span, nil)
		return
	}

	owner, ok := b.router.OwnerOf(msg.Locator)
	if !ok {
		b.orphan(msg.Locator, "no owner")
		telemetry.EndSpan(span, nil)
		return
	}

	if err := owner.Apply(msg.Data); err != nil {
		b.rejected.Add(1)
		b.metrics.RecordPush("rejected")
		b.logger.Warn("apply push failed", "locator", msg.Locator, "error", err)
		telemetry.EndSpan(span, err)
		return
	}

	owner.NotifySync()
	b.applied.Add(1)
	b.metrics.RecordPush("applied")

	if owner.Persistent() {
		b.cache.Put(msg.Locator, msg.Data)
	}
	b.logger.Debug("push applied", "locator", msg.Locator, "persistent", owner.Persistent())
	telemetry.EndSpan(span, nil)
}

func (b *Bridge) orphan(locator, reason string) {
	b.orphaned.Add(1)
	b.metrics.RecordPush("orphaned")
	b.logger.Warn("discarding push", "locator", locator, "reason", reason)
}

// Stats returns a snapshot of the bridge counters.
func (b *Bridge) Stats() Stats {
	return Stats{
		FramesIn:   b.framesIn.Load(),
		FramesOut:  b.framesOut.Load(),
		Applied:    b.applied.Load(),
		Orphaned:   b.orphaned.Load(),
		Malformed:  b.malformed.Load(),
		Rejected:   b.rejected.Load(),
		SendErrors: b.sendErrors.Load(),
	}
}
