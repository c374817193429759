package telemetry

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DefaultTracerName is the instrumentation name used for spans.
const DefaultTracerName = "github.com/vango-dev/dippy"

// Attribute keys used on spans.
const (
	AttrLocator   = attribute.Key("dippy.locator")
	AttrFrameKind = attribute.Key("dippy.frame_kind")
	AttrNodeID    = attribute.Key("dippy.node_id")
	AttrNodeName  = attribute.Key("dippy.node_name")
	AttrChildren  = attribute.Key("dippy.children")
)

// Tracer returns the tracer from the global provider. Without a configured
// provider this is a no-op tracer.
func Tracer() trace.Tracer {
	return otel.Tracer(DefaultTracerName)
}

// EndSpan records err (if any) on span, sets its status and ends it.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
