// Package logging provides structured logging for bereshit.
//
// # Overview
//
// Logging package wraps Zap with:
//   - Custom Trace level (-2, below Debug)
//   - Stderr output (stdout is reserved for command results) and an optional
//     OpenTelemetry bridge
//   - Automatic context field injection (trace_id, operation, project.id)
//   - Level-aware sampling (errors never sampled)
//
// # Usage
//
//	cfg := logging.NewDefaultConfig()
//	logger, err := logging.NewLogger(cfg, nil)
//	if err != nil {
//	    return err
//	}
//	defer logger.Sync()
//
//	ctx = logging.WithOperation(ctx, "create_project")
//	logger.Info(ctx, "project created", zap.String("path", p.Path))
//
// Packages that do not own a logger pull it from the context with
// FromContext, which falls back to a no-op logger.
//
// # Testing
//
//	tl := logging.NewTestLogger()
//	store := registry.NewStore(dir, registry.WithLogger(tl.Logger))
//	...
//	tl.AssertLogged(t, zapcore.ErrorLevel, "list projects failed")
package logging
