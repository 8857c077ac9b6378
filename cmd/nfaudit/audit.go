package main

import (
	"context"
	"os"

	"github.com/fatih/color"
	"github.com/guillermoBallester/nfaudit/internal/adapter/annotation"
	"github.com/guillermoBallester/nfaudit/internal/adapter/yamlschema"
	"github.com/guillermoBallester/nfaudit/internal/report"
	"github.com/spf13/cobra"
)

type auditFlags struct {
	data        string
	annotations string
	format      string
	databaseURL string
	schemas     []string
	sampleRows  int
	noColor     bool
}

func newAuditCmd(g *globalFlags) *cobra.Command {
	f := &auditFlags{}

	cmd := &cobra.Command{
		Use:   "audit [schema-file]",
		Short: "Report normal-form violations of a schema",
		Long: `Audit a schema file (.yaml, .yml, .json or a .sql DDL script) or, without a
file, the database named by --database-url. Exits 0 when every table is in
3NF, 1 when some table is not, and 2 when the input cannot be read.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAudit(cmd, g, f, args)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&f.data, "data", "", "Sample rows file (YAML or JSON) used for repeating-group detection and examples")
	flags.StringVar(&f.annotations, "annotations", "", "YAML file adding keys, dependencies, multivalued marks and example masks to the schema")
	flags.StringVarP(&f.format, "format", "f", "text", "Output format: text or json")
	flags.StringVar(&f.databaseURL, "database-url", "", "PostgreSQL connection string to audit instead of a file (env DATABASE_URL)")
	flags.StringSliceVar(&f.schemas, "schemas", nil, "Database schemas to audit, comma-separated (env SCHEMAS, default all)")
	flags.IntVar(&f.sampleRows, "sample-rows", 0, "Sample rows fetched per table from the database (env SAMPLE_ROWS, default 50)")
	flags.BoolVar(&f.noColor, "no-color", false, "Disable colored output")

	return cmd
}

func runAudit(cmd *cobra.Command, g *globalFlags, f *auditFlags, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	format, err := report.ParseFormat(f.format)
	if err != nil {
		return err
	}

	o := g.overrides(cmd)
	flags := cmd.Flags()
	if flags.Changed("database-url") {
		o.DatabaseURL = &f.databaseURL
	}
	if flags.Changed("schemas") {
		o.Schemas = f.schemas
	}
	if flags.Changed("sample-rows") {
		o.SampleRows = &f.sampleRows
	}

	a, err := newApp(ctx, o, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer func() { _ = a.Close(context.WithoutCancel(ctx)) }()

	var path string
	if len(args) == 1 {
		path = args[0]
	}
	src, release, err := a.schemaSource(ctx, path)
	if err != nil {
		return err
	}
	defer release()

	if f.data != "" {
		src = yamlschema.SampleOverlay{Inner: src, Path: f.data}
	}
	if f.annotations != "" {
		notes, err := annotation.LoadFromFile(f.annotations)
		if err != nil {
			return err
		}
		src = annotation.NewOverlay(src, notes)
	}

	res, err := a.audit.Audit(ctx, src)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	colored := !f.noColor && !color.NoColor && out == os.Stdout
	if err := report.New(format, out, colored).Format(res.Source, res.Report); err != nil {
		return err
	}

	if !res.Report.AllIn3NF() {
		return &exitError{code: exitNotInNF}
	}
	return nil
}
