// Package telemetry sets up OpenTelemetry tracing and metrics for callscribe.
//
// Spans are opened by the extraction engine, the ElevenLabs client, and the
// call service through otel.Tracer; New installs the global providers those
// tracers resolve to. When telemetry is disabled the globals stay no-op.
//
//	tel, err := telemetry.New(ctx, telemetry.FromObservability(cfg.Observability, version), logger)
//	if err != nil {
//	    return err
//	}
//	defer tel.Shutdown(context.Background())
//
// Exporter failures never stop the service. The instance is marked degraded
// and the no-op providers remain in place.
//
// Tests use NewTestTelemetry, which records spans in memory.
package telemetry
