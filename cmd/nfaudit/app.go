package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/guillermoBallester/nfaudit/internal/adapter/ddl"
	"github.com/guillermoBallester/nfaudit/internal/adapter/postgres"
	"github.com/guillermoBallester/nfaudit/internal/adapter/yamlschema"
	"github.com/guillermoBallester/nfaudit/internal/audit"
	"github.com/guillermoBallester/nfaudit/internal/config"
	"github.com/guillermoBallester/nfaudit/internal/core/port"
	"github.com/guillermoBallester/nfaudit/internal/core/service"
	"github.com/guillermoBallester/nfaudit/internal/telemetry"
	"go.opentelemetry.io/otel/trace"
)

// app holds what every subcommand wires from the configuration.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	tracer   trace.Tracer
	inst     port.Instrumentation
	recorder port.FindingRecorder
	provider *telemetry.Provider
	audit    *service.AuditService
}

func newApp(ctx context.Context, o config.Overrides, logOut io.Writer) (*app, error) {
	cfg, err := config.Load(o)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	// Logs go to stderr; stdout carries the report or the MCP stdio transport.
	logger := slog.New(slog.NewJSONHandler(logOut, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	tracer, inst, provider, err := telemetry.Setup(ctx, cfg.OTelEnabled, version)
	if err != nil {
		return nil, fmt.Errorf("initializing telemetry: %w", err)
	}
	if provider != nil {
		logger.Info("OpenTelemetry enabled")
	}

	var recorder port.FindingRecorder = audit.NoopRecorder{}
	if cfg.AuditLog != "" {
		fl, err := audit.NewFindingLog(cfg.AuditLog)
		if err != nil {
			if provider != nil {
				_ = provider.Shutdown(ctx)
			}
			return nil, fmt.Errorf("opening audit log: %w", err)
		}
		recorder = fl
		logger.Info("finding log enabled", slog.String("path", cfg.AuditLog))
	}

	return &app{
		cfg:      cfg,
		logger:   logger,
		tracer:   tracer,
		inst:     inst,
		recorder: recorder,
		provider: provider,
		audit:    service.NewAuditService(recorder, logger, tracer, inst),
	}, nil
}

// Close flushes the finding log and exported telemetry.
func (a *app) Close(ctx context.Context) error {
	errs := []error{a.recorder.Close()}
	if a.provider != nil {
		errs = append(errs, a.provider.Shutdown(ctx))
	}
	return errors.Join(errs...)
}

// schemaSource picks the source for the audit: a file named on the command
// line (".sql" scripts through the DDL parser, anything else as YAML), or
// the configured database. The returned func releases the source.
func (a *app) schemaSource(ctx context.Context, path string) (port.SchemaSource, func(), error) {
	switch {
	case path != "":
		if strings.EqualFold(filepath.Ext(path), ".sql") {
			return ddl.FileSource{Path: path}, func() {}, nil
		}
		return yamlschema.FileSource{Path: path}, func() {}, nil

	case a.cfg.DatabaseURL != "":
		pool, err := postgres.NewPool(ctx, a.cfg.DatabaseURL, postgres.PoolOptions{
			MaxConns:        a.cfg.PoolMaxConns,
			MinConns:        a.cfg.PoolMinConns,
			MaxConnLifetime: a.cfg.PoolMaxConnLifetime,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to database: %w", err)
		}
		a.logger.Info("database pool connected",
			slog.String("db.system", "postgresql"),
			slog.Int("sample_rows", a.cfg.SampleRows),
			slog.String("query_timeout", a.cfg.QueryTimeout.String()),
		)
		cat := postgres.NewCatalog(pool, postgres.CatalogOptions{
			Schemas:      a.cfg.Schemas,
			SampleRows:   a.cfg.SampleRows,
			QueryTimeout: a.cfg.QueryTimeout,
		})
		return cat, pool.Close, nil

	default:
		return nil, nil, errors.New("a schema file or --database-url (DATABASE_URL) is required")
	}
}
