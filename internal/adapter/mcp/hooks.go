package mcp

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/guillermoBallester/nfaudit/internal/core/port"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// callState holds per-request timing and span data.
type callState struct {
	tool  string
	start time.Time
	span  trace.Span
}

// callTracker matches the before and after hooks of one request by its id.
type callTracker struct {
	calls sync.Map // id -> *callState
}

func (t *callTracker) begin(id any, state *callState) {
	t.calls.Store(id, state)
}

// end returns the state stored for id, or an empty state when the request
// failed before the tool ran.
func (t *callTracker) end(id any) *callState {
	if v, ok := t.calls.LoadAndDelete(id); ok {
		return v.(*callState)
	}
	return &callState{start: time.Now()}
}

// ToolCallHooks creates MCP hooks that log tool calls and record spans and
// tool durations. A tool error result means the caller sent a bad schema and
// is logged as a warning; protocol errors are logged as errors.
func ToolCallHooks(logger *slog.Logger, tracer trace.Tracer, inst port.Instrumentation) *server.Hooks {
	hooks := &server.Hooks{}
	tracker := &callTracker{}

	hooks.AddBeforeCallTool(func(ctx context.Context, id any, req *mcp.CallToolRequest) {
		state := &callState{tool: req.Params.Name, start: time.Now()}
		if tracer != nil {
			_, state.span = tracer.Start(ctx, "nfaudit.tool.call",
				trace.WithAttributes(attribute.String("mcp.tool", req.Params.Name)),
			)
		}
		tracker.begin(id, state)
	})

	hooks.AddAfterCallTool(func(ctx context.Context, id any, req *mcp.CallToolRequest, result any) {
		state := tracker.end(id)
		duration := time.Since(state.start)

		level := slog.LevelInfo
		rejected := false
		if r, ok := result.(*mcp.CallToolResult); ok && r.IsError {
			level = slog.LevelWarn
			rejected = true
		}

		logger.LogAttrs(ctx, level, "tool call",
			slog.String("rpc.method", "tools/call"),
			slog.String("mcp.tool", req.Params.Name),
			slog.Duration("duration", duration),
			slog.Bool("rejected", rejected),
		)

		if inst != nil {
			inst.RecordToolDuration(ctx, float64(duration.Milliseconds()))
		}

		if state.span != nil {
			state.span.SetAttributes(attribute.Bool("nfaudit.rejected", rejected))
			if rejected {
				state.span.SetStatus(codes.Error, "tool rejected input")
			}
			state.span.End()
		}
	})

	hooks.AddOnError(func(ctx context.Context, id any, method mcp.MCPMethod, message any, err error) {
		state := tracker.end(id)
		if req, ok := message.(*mcp.CallToolRequest); ok && state.tool == "" {
			state.tool = req.Params.Name
		}
		if state.tool == "" {
			return
		}

		logger.LogAttrs(ctx, slog.LevelError, "tool call",
			slog.String("rpc.method", string(method)),
			slog.String("mcp.tool", state.tool),
			slog.Duration("duration", time.Since(state.start)),
			slog.String("error.message", err.Error()),
		)

		if state.span != nil {
			state.span.RecordError(err)
			state.span.SetStatus(codes.Error, err.Error())
			state.span.End()
		}
	})

	return hooks
}
