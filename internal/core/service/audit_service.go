package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/guillermoBallester/nfaudit/internal/core/domain"
	"github.com/guillermoBallester/nfaudit/internal/core/port"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

type toolNameKey struct{}

// WithToolName returns a context carrying the MCP tool name for the finding log.
func WithToolName(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, toolNameKey{}, name)
}

func toolNameFromCtx(ctx context.Context) string {
	if v, ok := ctx.Value(toolNameKey{}).(string); ok {
		return v
	}
	return ""
}

// Result is a finished audit.
type Result struct {
	Source string
	Schema *domain.Schema
	Report *domain.Report
}

// AuditService loads schemas from a source (infrastructure) and runs the
// normal-form checks (domain) on them.
type AuditService struct {
	recorder port.FindingRecorder
	logger   *slog.Logger
	tracer   trace.Tracer
	inst     port.Instrumentation
}

func NewAuditService(recorder port.FindingRecorder, logger *slog.Logger, tracer trace.Tracer, inst port.Instrumentation) *AuditService {
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("noop")
	}
	if inst == nil {
		inst = port.NoopInstrumentation{}
	}
	return &AuditService{
		recorder: recorder,
		logger:   logger,
		tracer:   tracer,
		inst:     inst,
	}
}

// Audit loads the schema from src, validates it and checks every table.
// A malformed declaration fails with an error wrapping domain.ErrInvalidSchema
// and produces no report.
func (s *AuditService) Audit(ctx context.Context, src port.SchemaSource) (*Result, error) {
	ctx, span := s.tracer.Start(ctx, "AuditService.Audit")
	defer span.End()

	start := time.Now()
	in, schema, err := s.load(ctx, src)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(
		attribute.String("nfaudit.source", in.Source),
		attribute.Int("nfaudit.tables", len(schema.Tables())),
	)

	report := domain.Check(schema, in.Samples)
	report.MaskExamples(in.Masks)
	durationMS := time.Since(start).Milliseconds()

	s.inst.RecordAuditDuration(ctx, float64(durationMS))
	s.inst.IncrementAuditCount(ctx)
	for kind, n := range report.Counts() {
		if n > 0 {
			s.inst.AddViolations(ctx, string(kind), int64(n))
		}
	}
	s.record(ctx, in.Source, report)

	violations := len(report.Violations())
	span.SetAttributes(attribute.Int("nfaudit.violations", violations))
	s.logger.InfoContext(ctx, "schema audited",
		slog.String("source", in.Source),
		slog.Int("tables", len(report.Tables)),
		slog.Int("violations", violations),
		slog.Int("warnings", len(report.AllWarnings())),
		slog.Int64("duration_ms", durationMS),
	)

	return &Result{Source: in.Source, Schema: schema, Report: report}, nil
}

// Closure returns the closure of columns within table and whether the
// closure is the whole table.
func (s *AuditService) Closure(ctx context.Context, src port.SchemaSource, table string, columns []string) ([]string, bool, error) {
	t, err := s.table(ctx, src, table)
	if err != nil {
		return nil, false, err
	}
	closure, err := t.Closure(columns)
	if err != nil {
		return nil, false, err
	}
	superkey, err := t.IsSuperkey(columns)
	if err != nil {
		return nil, false, err
	}
	return closure, superkey, nil
}

// CandidateKeys returns the candidate keys and prime columns of table.
func (s *AuditService) CandidateKeys(ctx context.Context, src port.SchemaSource, table string) ([][]string, []string, error) {
	t, err := s.table(ctx, src, table)
	if err != nil {
		return nil, nil, err
	}
	return t.CandidateKeys(), t.PrimeColumns(), nil
}

func (s *AuditService) table(ctx context.Context, src port.SchemaSource, name string) (*domain.Table, error) {
	_, schema, err := s.load(ctx, src)
	if err != nil {
		return nil, err
	}
	t, ok := schema.Table(name)
	if !ok {
		return nil, fmt.Errorf("table %q: %w", name, domain.ErrUnknownTable)
	}
	return t, nil
}

func (s *AuditService) load(ctx context.Context, src port.SchemaSource) (*port.Input, *domain.Schema, error) {
	in, err := src.Load(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "loading schema failed", slog.String("error", err.Error()))
		return nil, nil, fmt.Errorf("loading schema: %w", err)
	}
	schema, err := domain.NewSchema(in.Definition)
	if err != nil {
		var se *domain.SchemaError
		if errors.As(err, &se) {
			s.logger.WarnContext(ctx, "schema rejected",
				slog.String("source", in.Source),
				slog.String("table", se.Table),
				slog.String("column", se.Column),
				slog.String("error.type", "schema_error"),
			)
		}
		return nil, nil, err
	}
	return in, schema, nil
}

func (s *AuditService) record(ctx context.Context, source string, report *domain.Report) {
	if tool := toolNameFromCtx(ctx); tool != "" {
		source = tool + ":" + source
	}
	for _, v := range report.Violations() {
		s.recorder.Record(ctx, port.FindingEntry{
			Source:      source,
			Table:       v.Table,
			Kind:        string(v.Kind),
			Columns:     v.Columns,
			Key:         v.Key,
			Determinant: v.Determinant,
			Heuristic:   v.Heuristic,
			Message:     v.Explanation,
		})
	}
	for _, w := range report.AllWarnings() {
		var columns []string
		if w.Column != "" {
			columns = []string{w.Column}
		}
		s.recorder.Record(ctx, port.FindingEntry{
			Source:  source,
			Table:   w.Table,
			Kind:    "warning",
			Columns: columns,
			Message: w.Message,
		})
	}
}
