package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hays/plex-mcp/models"
	"github.com/hays/plex-mcp/plex"
	"github.com/hays/plex-mcp/sentry"
)

// defaulter is implemented by argument structs that have non-zero defaults.
type defaulter interface {
	defaults()
}

// bind adapts a typed handler to a toolFunc. It decodes the arguments into
// In, applying defaults first, and connects to Plex.
func bind[In any](s *Server, fn func(ctx context.Context, c *plex.Client, in In) (any, error)) toolFunc {
	return func(ctx context.Context, args json.RawMessage) (any, error) {
		var in In
		if d, ok := any(&in).(defaulter); ok {
			d.defaults()
		}
		if len(args) > 0 && string(args) != "null" {
			if err := json.Unmarshal(args, &in); err != nil {
				return nil, fmt.Errorf("invalid arguments: %w", err)
			}
		}
		c, err := s.connector.Client(ctx)
		if err != nil {
			return nil, err
		}
		return fn(ctx, c, in)
	}
}

// execute wraps a tool so it runs under the tool timeout, with its arguments
// validated, panics recovered and failures turned into error records.
func (s *Server) execute(name string, schema *jsonschema.Resolved, run toolFunc) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (result *mcp.CallToolResult, err error) {
		timeout := s.cfg.Server.ToolTimeout.Std()
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		start := time.Now()
		defer func() {
			if r := recover(); r != nil {
				sentry.CapturePanic(name, r)
				s.logger.Error("Tool panicked", "tool", name, "panic", r, "stack", string(debug.Stack()))
				result, err = errorResult(fmt.Sprintf("internal error in %s: %v", name, r)), nil
			}
		}()

		var args json.RawMessage
		if req != nil && req.Params != nil {
			args = req.Params.Arguments
		}
		if err := validateArgs(schema, args); err != nil {
			s.logger.Warn("Rejected tool arguments", "tool", name, "error", err)
			return errorResult(err.Error()), nil
		}

		s.logger.Debug("Tool call", "tool", name)
		out, runErr := run(ctx, args)
		elapsed := time.Since(start)

		if runErr != nil {
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				runErr = fmt.Errorf("%s timed out after %s", name, timeout)
				sentry.CaptureError(name, runErr)
			}
			s.logger.Warn("Tool failed", "tool", name, "error", runErr, "elapsed", elapsed)
			return errorResult(runErr.Error()), nil
		}

		s.logger.Debug("Tool completed", "tool", name, "elapsed", elapsed)
		return render(out)
	}
}

// validateArgs checks args against the tool's input schema.
func validateArgs(schema *jsonschema.Resolved, args json.RawMessage) error {
	if schema == nil {
		return nil
	}
	var v any = map[string]any{}
	if len(args) > 0 && string(args) != "null" {
		if err := json.Unmarshal(args, &v); err != nil {
			return fmt.Errorf("invalid arguments: %w", err)
		}
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

// render turns a handler result into a tool result. Strings become a single
// text block; records become indented JSON text plus structured content.
// An ErrorResponse returned as a value is flagged as an error.
func render(out any) (*mcp.CallToolResult, error) {
	switch v := out.(type) {
	case string:
		return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: v}}}, nil
	case models.ErrorResponse:
		return errorResult(v.Message), nil
	case *models.ErrorResponse:
		return errorResult(v.Message), nil
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return errorResult(fmt.Sprintf("encoding result: %v", err)), nil
	}
	return &mcp.CallToolResult{
		Content:           []mcp.Content{&mcp.TextContent{Text: string(data)}},
		StructuredContent: json.RawMessage(data),
	}, nil
}

func errorResult(message string) *mcp.CallToolResult {
	data, _ := json.MarshalIndent(models.NewError(message), "", "  ")
	return &mcp.CallToolResult{
		Content:           []mcp.Content{&mcp.TextContent{Text: string(data)}},
		StructuredContent: json.RawMessage(data),
		IsError:           true,
	}
}
