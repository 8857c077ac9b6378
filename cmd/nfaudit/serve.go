package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/guillermoBallester/nfaudit/internal/adapter/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
)

func newServeCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the audit tools over MCP on stdio",
		Long: `Run an MCP server on stdin/stdout exposing audit_schema, attribute_closure
and candidate_keys, so agents can audit schemas they are designing.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			a, err := newApp(ctx, g.overrides(cmd), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer func() { _ = a.Close(context.WithoutCancel(ctx)) }()

			a.logger.Info("starting nfaudit",
				slog.String("version", version),
				slog.String("log_level", a.cfg.LogLevel.String()),
			)

			s := mcp.NewServer(version, a.audit, a.logger, a.tracer, a.inst)
			stdio := mcpserver.NewStdioServer(s)

			a.logger.Info("serving MCP over stdio")
			if err := stdio.Listen(ctx, cmd.InOrStdin(), cmd.OutOrStdout()); err != nil && ctx.Err() == nil {
				return fmt.Errorf("stdio server: %w", err)
			}

			a.logger.Info("shutdown complete")
			return nil
		},
	}
}
