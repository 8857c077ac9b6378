package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const meterName = "github.com/guillermoBallester/nfaudit"

// Instruments holds pre-created OTel metric instruments.
type Instruments struct {
	AuditCount    metric.Int64Counter
	AuditDuration metric.Float64Histogram
	Violations    metric.Int64Counter
	ToolDuration  metric.Float64Histogram
}

// NewInstruments creates metric instruments from the global MeterProvider.
func NewInstruments() *Instruments {
	return newInstrumentsFromMeter(otel.Meter(meterName))
}

// NoopInstruments returns instruments that record nothing.
func NoopInstruments() *Instruments {
	return newInstrumentsFromMeter(noop.NewMeterProvider().Meter(meterName))
}

func newInstrumentsFromMeter(meter metric.Meter) *Instruments {
	// OTel SDK returns noop instruments on error; safe to discard.
	auditCount, _ := meter.Int64Counter("nfaudit.audit.count",
		metric.WithDescription("Total number of schemas audited"),
	)
	auditDuration, _ := meter.Float64Histogram("nfaudit.audit.duration",
		metric.WithDescription("Schema load and analysis duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	violations, _ := meter.Int64Counter("nfaudit.violations",
		metric.WithDescription("Normal-form violations found, by kind"),
	)
	toolDuration, _ := meter.Float64Histogram("nfaudit.tool.duration",
		metric.WithDescription("MCP tool call duration in milliseconds"),
		metric.WithUnit("ms"),
	)

	return &Instruments{
		AuditCount:    auditCount,
		AuditDuration: auditDuration,
		Violations:    violations,
		ToolDuration:  toolDuration,
	}
}

func (i *Instruments) RecordAuditDuration(ctx context.Context, ms float64) {
	i.AuditDuration.Record(ctx, ms)
}

func (i *Instruments) IncrementAuditCount(ctx context.Context) {
	i.AuditCount.Add(ctx, 1)
}

func (i *Instruments) AddViolations(ctx context.Context, kind string, n int64) {
	i.Violations.Add(ctx, n, metric.WithAttributes(attribute.String("kind", kind)))
}

func (i *Instruments) RecordToolDuration(ctx context.Context, ms float64) {
	i.ToolDuration.Record(ctx, ms)
}
