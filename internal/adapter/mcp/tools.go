package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/guillermoBallester/nfaudit/internal/core/service"
	"github.com/guillermoBallester/nfaudit/internal/report"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Server metadata
const serverName = "nfaudit"

// Tool descriptions
const (
	descAuditSchema = "Audit a relational schema for first, second and third normal form. " +
		"Pass the schema as YAML (tables with columns, keys, foreign_keys and dependencies) " +
		"or as a PostgreSQL DDL script, where table comment lines 'fd: a -> b' declare functional dependencies. " +
		"Returns a JSON report with the normal form of every table, each violation with the columns, " +
		"key and determinant involved, and example rows when sample data is given."

	descSchemaParam = "Schema declaration as YAML, JSON or SQL DDL"

	descFormatParam = "Schema format: yaml or sql. Detected from the text when omitted."

	descDataParam = "Optional sample rows as YAML or JSON: a map from table name to a list of rows. " +
		"Used for repeating-group detection and examples only, never to infer dependencies."

	descAttributeClosure = "Compute the closure of a set of columns under a table's declared keys and functional dependencies: " +
		"every column the given columns determine. A set whose closure is the whole table is a superkey."

	descCandidateKeys = "List the candidate keys (minimal superkeys) of a table and its prime columns, " +
		"derived from declared keys and functional dependencies."

	descTableParam = "Name of the table"

	descColumnsParam = "Columns to compute the closure of"
)

func RegisterTools(s *server.MCPServer, audit *service.AuditService) {
	s.AddTool(
		mcp.NewTool("audit_schema",
			mcp.WithDescription(descAuditSchema),
			mcp.WithString("schema",
				mcp.Required(),
				mcp.Description(descSchemaParam),
			),
			mcp.WithString("format",
				mcp.Description(descFormatParam),
				mcp.Enum("yaml", "sql"),
			),
			mcp.WithString("data",
				mcp.Description(descDataParam),
			),
		),
		auditSchemaHandler(audit),
	)

	s.AddTool(
		mcp.NewTool("attribute_closure",
			mcp.WithDescription(descAttributeClosure),
			mcp.WithString("schema",
				mcp.Required(),
				mcp.Description(descSchemaParam),
			),
			mcp.WithString("table",
				mcp.Required(),
				mcp.Description(descTableParam),
			),
			mcp.WithArray("columns",
				mcp.Required(),
				mcp.Description(descColumnsParam),
				mcp.WithStringItems(),
			),
		),
		attributeClosureHandler(audit),
	)

	s.AddTool(
		mcp.NewTool("candidate_keys",
			mcp.WithDescription(descCandidateKeys),
			mcp.WithString("schema",
				mcp.Required(),
				mcp.Description(descSchemaParam),
			),
			mcp.WithString("table",
				mcp.Required(),
				mcp.Description(descTableParam),
			),
		),
		candidateKeysHandler(audit),
	)
}

// sourceFromRequest builds the schema source shared by every tool.
func sourceFromRequest(request mcp.CallToolRequest) (inlineSource, error) {
	args := request.GetArguments()
	text, ok := args["schema"].(string)
	if !ok || strings.TrimSpace(text) == "" {
		return inlineSource{}, fmt.Errorf("schema is required")
	}
	format, _ := args["format"].(string)
	data, _ := args["data"].(string)
	return inlineSource{text: text, format: format, data: data}, nil
}

func auditSchemaHandler(audit *service.AuditService) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		src, err := sourceFromRequest(request)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		ctx = service.WithToolName(ctx, "audit_schema")
		res, err := audit.Audit(ctx, src)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("audit failed: %v", err)), nil
		}

		data, err := json.Marshal(report.NewDocument(res.Source, res.Report))
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to marshal results: %v", err)), nil
		}

		return mcp.NewToolResultText(string(data)), nil
	}
}

type closureResult struct {
	Table    string   `json:"table"`
	Columns  []string `json:"columns"`
	Closure  []string `json:"closure"`
	Superkey bool     `json:"superkey"`
}

func attributeClosureHandler(audit *service.AuditService) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		src, err := sourceFromRequest(request)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		table, ok := request.GetArguments()["table"].(string)
		if !ok || table == "" {
			return mcp.NewToolResultError("table is required"), nil
		}
		columns := stringArgs(request.GetArguments()["columns"])

		ctx = service.WithToolName(ctx, "attribute_closure")
		closure, superkey, err := audit.Closure(ctx, src, table, columns)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("closure failed: %v", err)), nil
		}

		data, err := json.Marshal(closureResult{
			Table:    table,
			Columns:  columns,
			Closure:  closure,
			Superkey: superkey,
		})
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to marshal results: %v", err)), nil
		}

		return mcp.NewToolResultText(string(data)), nil
	}
}

type keysResult struct {
	Table         string     `json:"table"`
	CandidateKeys [][]string `json:"candidate_keys"`
	PrimeColumns  []string   `json:"prime_columns"`
}

func candidateKeysHandler(audit *service.AuditService) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		src, err := sourceFromRequest(request)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		table, ok := request.GetArguments()["table"].(string)
		if !ok || table == "" {
			return mcp.NewToolResultError("table is required"), nil
		}

		ctx = service.WithToolName(ctx, "candidate_keys")
		keys, prime, err := audit.CandidateKeys(ctx, src, table)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("candidate keys failed: %v", err)), nil
		}

		data, err := json.Marshal(keysResult{Table: table, CandidateKeys: keys, PrimeColumns: prime})
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to marshal results: %v", err)), nil
		}

		return mcp.NewToolResultText(string(data)), nil
	}
}

// stringArgs accepts a JSON array of strings or a comma-separated string.
func stringArgs(v any) []string {
	switch x := v.(type) {
	case []any:
		out := make([]string, 0, len(x))
		for _, e := range x {
			if s, ok := e.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		var out []string
		for _, s := range strings.Split(x, ",") {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
