package main

import (
	"fmt"

	"github.com/guillermoBallester/nfaudit/internal/config"
	"github.com/spf13/cobra"
)

// globalFlags are the persistent flags shared by every subcommand.
type globalFlags struct {
	logLevel string
	otel     bool
	auditLog string
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}

	root := &cobra.Command{
		Use:   "nfaudit",
		Short: "Audit relational schemas for first, second and third normal form",
		Long: `nfaudit reads a schema declaration (YAML, a PostgreSQL DDL script or a live
database), computes candidate keys from declared keys and functional
dependencies, and reports every 1NF, 2NF and 3NF violation per table.`,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&g.logLevel, "log-level", "", "Log level: debug, info, warn, error (env LOG_LEVEL, default warn)")
	pf.BoolVar(&g.otel, "otel", false, "Export OpenTelemetry traces and metrics over OTLP gRPC (env OTEL_ENABLED)")
	pf.StringVar(&g.auditLog, "audit-log", "", "Append every finding to this NDJSON file (env AUDIT_LOG)")

	root.AddCommand(newAuditCmd(g), newServeCmd(g), newVersionCmd())
	return root
}

// overrides turns the flags set on cmd into config overrides. Flags left at
// their defaults do not override environment variables.
func (g *globalFlags) overrides(cmd *cobra.Command) config.Overrides {
	var o config.Overrides
	flags := cmd.Flags()
	if flags.Changed("log-level") {
		o.LogLevel = &g.logLevel
	}
	if flags.Changed("audit-log") {
		o.AuditLog = &g.auditLog
	}
	o.OTelEnabled = g.otel
	return o
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "nfaudit %s\n", version)
		},
	}
}
