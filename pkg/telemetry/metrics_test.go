package telemetry

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.opentelemetry.io/otel/trace/noop"
)

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	m.RecordFrame("in", "Fetch")
	m.RecordPush("applied")
	m.RecordControl("subscribe")
	m.RecordSendError()
	m.SetSubscriptions(3)
	m.RecordCache("get", "hit")
	m.ObserveRender(time.Millisecond)
	m.RecordCleanup()
}

func TestMetricsRecord(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(WithRegistry(reg), WithNamespace("test"))

	m.RecordFrame("in", "Fetch")
	m.RecordFrame("in", "Fetch")
	m.RecordPush("orphaned")
	m.SetSubscriptions(2)
	m.RecordCleanup()

	if got := testutil.ToFloat64(m.frames.WithLabelValues("in", "Fetch")); got != 2 {
		t.Errorf("frames = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.pushes.WithLabelValues("orphaned")); got != 1 {
		t.Errorf("pushes = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.subscriptions); got != 2 {
		t.Errorf("subscriptions = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.cleanups); got != 1 {
		t.Errorf("cleanups = %v, want 1", got)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}
	found := false
	for _, f := range families {
		if f.GetName() == "test_frames_total" {
			found = true
		}
	}
	if !found {
		t.Error("test_frames_total not registered")
	}
}

func TestEndSpan(t *testing.T) {
	tracer := noop.NewTracerProvider().Tracer("test")
	_, span := tracer.Start(t.Context(), "ok")
	EndSpan(span, nil)
	_, span = tracer.Start(t.Context(), "fail")
	EndSpan(span, errors.New("boom"))

	if Tracer() == nil {
		t.Error("Tracer() returned nil")
	}
}
