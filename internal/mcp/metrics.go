package mcp

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/BeFlock/bereshit/internal/commands"
	"github.com/BeFlock/bereshit/internal/logging"
	"github.com/BeFlock/bereshit/internal/project"
)

const instrumentationName = "github.com/BeFlock/bereshit/internal/mcp"

// Metrics holds MCP tool metrics.
type Metrics struct {
	invocations metric.Int64Counter
	duration    metric.Float64Histogram
	errors      metric.Int64Counter
}

// NewMetrics creates the tool instruments on meter. Instruments that fail
// to register are skipped.
func NewMetrics(meter metric.Meter, logger *logging.Logger) *Metrics {
	ctx := context.Background()
	m := &Metrics{}
	var err error

	m.invocations, err = meter.Int64Counter(
		"bereshit.mcp.tool.invocations_total",
		metric.WithDescription("Total number of MCP tool invocations"),
		metric.WithUnit("{invocation}"),
	)
	if err != nil {
		logger.Warn(ctx, "failed to create invocations counter", zap.Error(err))
	}

	m.duration, err = meter.Float64Histogram(
		"bereshit.mcp.tool.duration_seconds",
		metric.WithDescription("Duration of MCP tool invocations"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0),
	)
	if err != nil {
		logger.Warn(ctx, "failed to create duration histogram", zap.Error(err))
	}

	m.errors, err = meter.Int64Counter(
		"bereshit.mcp.tool.errors_total",
		metric.WithDescription("Total number of MCP tool errors"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		logger.Warn(ctx, "failed to create errors counter", zap.Error(err))
	}

	return m
}

// RecordInvocation records one tool call.
func (m *Metrics) RecordInvocation(ctx context.Context, toolName string, duration time.Duration, err error) {
	attrs := []attribute.KeyValue{
		attribute.String("tool", toolName),
	}

	if m.invocations != nil {
		m.invocations.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
	if m.duration != nil {
		m.duration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
	}
	if err != nil && m.errors != nil {
		errorAttrs := append(attrs, attribute.String("reason", categorizeError(err)))
		m.errors.Add(ctx, 1, metric.WithAttributes(errorAttrs...))
	}
}

// categorizeError maps an error to a low-cardinality reason.
func categorizeError(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, project.ErrNotFound):
		return "not_found"
	case errors.Is(err, project.ErrParse):
		return "parse_error"
	case errors.Is(err, project.ErrSerialize):
		return "serialize_error"
	case errors.Is(err, project.ErrIO):
		return "io_error"
	}
	var ce *commands.Error
	if errors.As(err, &ce) {
		return "validation_error"
	}
	return "internal_error"
}
