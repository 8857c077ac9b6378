package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/guillermoBallester/nfaudit/internal/core/domain"
	"github.com/guillermoBallester/nfaudit/internal/core/port"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- mocks ---

type memRecorder struct {
	mu      sync.Mutex
	entries []port.FindingEntry
}

func (m *memRecorder) Record(_ context.Context, e port.FindingEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
}

func (m *memRecorder) Close() error { return nil }

type memInstrumentation struct {
	port.NoopInstrumentation
	audits     int
	violations map[string]int64
}

func (m *memInstrumentation) IncrementAuditCount(context.Context) { m.audits++ }

func (m *memInstrumentation) AddViolations(_ context.Context, kind string, n int64) {
	if m.violations == nil {
		m.violations = map[string]int64{}
	}
	m.violations[kind] += n
}

type failingSource struct{ err error }

func (f failingSource) Load(context.Context) (*port.Input, error) { return nil, f.err }

func col(name string) domain.Column { return domain.Column{Name: name, Type: "text"} }

func ordersInput() *port.Input {
	return &port.Input{
		Source: "orders.yaml",
		Definition: domain.Definition{Tables: []domain.TableDef{{
			Name:    "bad_orders",
			Columns: []domain.Column{col("order_id"), col("product_id"), col("product_name"), col("customer_name")},
			Keys:    [][]string{{"order_id", "product_id"}},
			Dependencies: []domain.Dependency{
				{Determinant: []string{"product_id"}, Dependent: []string{"product_name"}},
			},
		}}},
		Samples: domain.SampleData{"missing": {{"x": 1}}},
	}
}

// --- tests ---

func TestAuditService_Audit(t *testing.T) {
	rec := &memRecorder{}
	inst := &memInstrumentation{}
	svc := NewAuditService(rec, testLogger(), nil, inst)

	res, err := svc.Audit(context.Background(), port.StaticSource{In: ordersInput()})
	require.NoError(t, err)
	assert.Equal(t, "orders.yaml", res.Source)
	require.Len(t, res.Report.Tables, 1)
	assert.Equal(t, domain.FirstNF, res.Report.Tables[0].NormalForm)

	assert.Equal(t, 1, inst.audits)
	assert.Equal(t, map[string]int64{"2NF": 1}, inst.violations)

	require.Len(t, rec.entries, 2)
	assert.Equal(t, "2NF", rec.entries[0].Kind)
	assert.Equal(t, []string{"product_id"}, rec.entries[0].Determinant)
	assert.Equal(t, "warning", rec.entries[1].Kind)
	assert.Equal(t, "missing", rec.entries[1].Table)
}

func TestAuditService_Audit_ToolNameInSource(t *testing.T) {
	rec := &memRecorder{}
	svc := NewAuditService(rec, testLogger(), nil, nil)

	ctx := WithToolName(context.Background(), "audit_schema")
	_, err := svc.Audit(ctx, port.StaticSource{In: ordersInput()})
	require.NoError(t, err)
	require.NotEmpty(t, rec.entries)
	assert.Equal(t, "audit_schema:orders.yaml", rec.entries[0].Source)
}

func TestAuditService_Audit_InvalidSchema(t *testing.T) {
	rec := &memRecorder{}
	svc := NewAuditService(rec, testLogger(), nil, nil)

	in := ordersInput()
	in.Definition.Tables[0].Keys = [][]string{{"order_id", "ghost"}}

	res, err := svc.Audit(context.Background(), port.StaticSource{In: in})
	require.Error(t, err)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, domain.ErrInvalidSchema)
	assert.Empty(t, rec.entries, "a rejected schema must not produce findings")
}

func TestAuditService_Audit_SourceError(t *testing.T) {
	svc := NewAuditService(&memRecorder{}, testLogger(), nil, nil)

	boom := errors.New("connection refused")
	_, err := svc.Audit(context.Background(), failingSource{err: boom})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "loading schema")
}

func TestAuditService_Audit_RecordsSpan(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	svc := NewAuditService(&memRecorder{}, testLogger(), tp.Tracer("test"), nil)
	_, err := svc.Audit(context.Background(), port.StaticSource{In: ordersInput()})
	require.NoError(t, err)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "AuditService.Audit", spans[0].Name)

	attrs := map[string]int64{}
	for _, kv := range spans[0].Attributes {
		if kv.Key == "nfaudit.violations" || kv.Key == "nfaudit.tables" {
			attrs[string(kv.Key)] = kv.Value.AsInt64()
		}
	}
	assert.Equal(t, map[string]int64{"nfaudit.tables": 1, "nfaudit.violations": 1}, attrs)
}

func TestAuditService_Closure(t *testing.T) {
	svc := NewAuditService(&memRecorder{}, testLogger(), nil, nil)
	src := port.StaticSource{In: ordersInput()}

	got, superkey, err := svc.Closure(context.Background(), src, "bad_orders", []string{"product_id"})
	require.NoError(t, err)
	assert.Equal(t, []string{"product_id", "product_name"}, got)
	assert.False(t, superkey)

	_, superkey, err = svc.Closure(context.Background(), src, "bad_orders", []string{"order_id", "product_id"})
	require.NoError(t, err)
	assert.True(t, superkey)

	_, _, err = svc.Closure(context.Background(), src, "nope", []string{"x"})
	assert.ErrorIs(t, err, domain.ErrUnknownTable)

	_, _, err = svc.Closure(context.Background(), src, "bad_orders", []string{"x"})
	assert.ErrorIs(t, err, domain.ErrUnknownColumn)
}

func TestAuditService_CandidateKeys(t *testing.T) {
	svc := NewAuditService(&memRecorder{}, testLogger(), nil, nil)

	keys, prime, err := svc.CandidateKeys(context.Background(), port.StaticSource{In: ordersInput()}, "bad_orders")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"order_id", "product_id"}}, keys)
	assert.Equal(t, []string{"order_id", "product_id"}, prime)
}

func TestAuditService_Audit_MasksExamples(t *testing.T) {
	t.Parallel()

	in := ordersInput()
	in.Samples = domain.SampleData{"bad_orders": {
		{"order_id": 1, "product_id": 10, "product_name": "Widget", "customer_name": "Ana"},
		{"order_id": 2, "product_id": 10, "product_name": "Widget", "customer_name": "Ben"},
	}}
	in.Masks = domain.Masks{"bad_orders": {"product_name": domain.MaskRedact}}

	svc := NewAuditService(&memRecorder{}, testLogger(), nil, nil)
	res, err := svc.Audit(context.Background(), port.StaticSource{In: in})
	require.NoError(t, err)

	v := res.Report.Violations()
	require.Len(t, v, 1)
	require.NotNil(t, v[0].Example)
	assert.Equal(t, "***", v[0].Example.Rows[0].Values["product_name"])
	assert.Equal(t, "Widget", in.Samples["bad_orders"][0]["product_name"])
}
