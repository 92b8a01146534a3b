// Package telemetry provides OpenTelemetry instrumentation for bereshit.
//
// # Overview
//
// Traces, metrics and log records are exported with the OpenTelemetry
// stdout exporters to a caller-supplied writer (stderr for the CLI). There
// is no collector and nothing leaves the machine.
//
// # Usage
//
//	tel, err := telemetry.New(ctx, telemetry.NewDefaultConfig(), os.Stderr)
//	if err != nil {
//	    return err
//	}
//	defer tel.Shutdown(ctx)
//
//	ctx, span := tel.Tracer("bereshit/registry").Start(ctx, "registry.Upsert")
//	defer span.End()
//
// # Configuration
//
//	telemetry:
//	  enabled: true
//	  service_name: "bereshit"
//
// # Error Handling
//
// Telemetry failures do not fail the command. If an exporter cannot be
// built the instance is marked degraded and falls back to no-op providers.
//
// # Testing
//
//	tt := telemetry.NewTestTelemetry()
//	store := registry.NewStore(dir, registry.WithTracer(tt.Tracer("test")))
//	...
//	tt.AssertSpanExists(t, "registry.Upsert")
package telemetry
