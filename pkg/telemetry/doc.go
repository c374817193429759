// Package telemetry provides the Prometheus collectors and OpenTelemetry
// tracer shared by the synchronization core.
//
// Every method on *Metrics is safe to call on a nil receiver, so packages
// record unconditionally and metrics stay optional:
//
//	m := telemetry.NewMetrics(telemetry.WithNamespace("dippy"))
//	b := bridge.New(conn, c, bridge.WithMetrics(m))
//
//	http.Handle("/metrics", promhttp.Handler())
package telemetry
