package port

import "context"

// Instrumentation records application-level metrics.
type Instrumentation interface {
	RecordAuditDuration(ctx context.Context, ms float64)
	IncrementAuditCount(ctx context.Context)
	AddViolations(ctx context.Context, kind string, n int64)
	RecordToolDuration(ctx context.Context, ms float64)
}

// NoopInstrumentation discards all metrics.
type NoopInstrumentation struct{}

func (NoopInstrumentation) RecordAuditDuration(context.Context, float64) {}
func (NoopInstrumentation) IncrementAuditCount(context.Context)          {}
func (NoopInstrumentation) AddViolations(context.Context, string, int64) {}
func (NoopInstrumentation) RecordToolDuration(context.Context, float64)  {}
