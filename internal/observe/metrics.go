// Package observe provides netscout's observability primitives: OpenTelemetry
// metric instruments for tool executions, probe batches and sessions, plus a
// Prometheus exporter bridge so an embedding host can scrape them.
//
// A package-level default [Metrics] instance ([Default]) is provided for
// convenience; tests should use [NewMetrics] with a custom
// [metric.MeterProvider] to avoid cross-test pollution.
package observe

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope for all netscout metrics.
const meterName = "github.com/MrWong99/netscout"

// Metrics holds the OpenTelemetry instruments. All fields are safe for
// concurrent use — the underlying OTel types handle their own
// synchronisation.
type Metrics struct {
	// ToolExecutionDuration tracks per-tool execution latency in seconds.
	// Attributes: tool, status.
	ToolExecutionDuration metric.Float64Histogram

	// ToolCalls counts tool invocations. Attributes: tool, status, mode.
	ToolCalls metric.Int64Counter

	// BatchTargets counts per-target batch outcomes. Attributes: kind,
	// outcome.
	BatchTargets metric.Int64Counter

	// ActiveSessions tracks the live conversational session count.
	ActiveSessions metric.Int64UpDownCounter

	// SessionTurns counts processed conversation turns. Attribute: status.
	SessionTurns metric.Int64Counter

	// LLMDuration tracks inference latency in seconds. Attribute: phase
	// (initial, followup).
	LLMDuration metric.Float64Histogram
}

// NewMetrics creates all instruments against the supplied provider.
func NewMetrics(provider metric.MeterProvider) (*Metrics, error) {
	meter := provider.Meter(meterName)

	toolDuration, err := meter.Float64Histogram("netscout.tool.duration",
		metric.WithDescription("Tool execution latency"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}
	toolCalls, err := meter.Int64Counter("netscout.tool.calls",
		metric.WithDescription("Tool invocations"))
	if err != nil {
		return nil, err
	}
	batchTargets, err := meter.Int64Counter("netscout.batch.targets",
		metric.WithDescription("Per-target batch outcomes"))
	if err != nil {
		return nil, err
	}
	activeSessions, err := meter.Int64UpDownCounter("netscout.sessions.active",
		metric.WithDescription("Live conversational sessions"))
	if err != nil {
		return nil, err
	}
	sessionTurns, err := meter.Int64Counter("netscout.sessions.turns",
		metric.WithDescription("Processed conversation turns"))
	if err != nil {
		return nil, err
	}
	llmDuration, err := meter.Float64Histogram("netscout.llm.duration",
		metric.WithDescription("LLM inference latency"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}

	return &Metrics{
		ToolExecutionDuration: toolDuration,
		ToolCalls:             toolCalls,
		BatchTargets:          batchTargets,
		ActiveSessions:        activeSessions,
		SessionTurns:          sessionTurns,
		LLMDuration:           llmDuration,
	}, nil
}

// RecordToolExecution records one tool invocation with its outcome.
func (m *Metrics) RecordToolExecution(ctx context.Context, tool, mode string, elapsed time.Duration, success bool) {
	if m == nil {
		return
	}
	status := "success"
	if !success {
		status = "error"
	}
	m.ToolCalls.Add(ctx, 1, metric.WithAttributes(
		attribute.String("tool", tool),
		attribute.String("status", status),
		attribute.String("mode", mode),
	))
	m.ToolExecutionDuration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(
		attribute.String("tool", tool),
		attribute.String("status", status),
	))
}

// RecordBatchOutcomes records the per-target outcomes of one batch run.
func (m *Metrics) RecordBatchOutcomes(ctx context.Context, kind string, successes, failures int) {
	if m == nil {
		return
	}
	m.BatchTargets.Add(ctx, int64(successes), metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("outcome", "success"),
	))
	m.BatchTargets.Add(ctx, int64(failures), metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("outcome", "failure"),
	))
}

// RecordSessionTurn records one processed conversation turn.
func (m *Metrics) RecordSessionTurn(ctx context.Context, status string) {
	if m == nil {
		return
	}
	m.SessionTurns.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}

// RecordLLMDuration records one inference round trip.
func (m *Metrics) RecordLLMDuration(ctx context.Context, phase string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.LLMDuration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(attribute.String("phase", phase)))
}

// SessionOpened / SessionClosed adjust the live session gauge.
func (m *Metrics) SessionOpened(ctx context.Context) {
	if m != nil {
		m.ActiveSessions.Add(ctx, 1)
	}
}

// SessionClosed decrements the live session gauge.
func (m *Metrics) SessionClosed(ctx context.Context) {
	if m != nil {
		m.ActiveSessions.Add(ctx, -1)
	}
}

var (
	defaultOnce    sync.Once
	defaultMetrics *Metrics
)

// Default returns the process-wide Metrics instance bound to the global OTel
// meter provider, creating it on first use. Returns nil (a safe no-op
// receiver) if instrument creation fails.
func Default() *Metrics {
	defaultOnce.Do(func() {
		if m, err := NewMetrics(otel.GetMeterProvider()); err == nil {
			defaultMetrics = m
		}
	})
	return defaultMetrics
}
