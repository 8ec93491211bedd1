package mcp

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// trafficLoggingMiddleware logs one line per MCP call with its duration.
// Payloads are included only at debug level.
func trafficLoggingMiddleware(logger *slog.Logger, direction string) sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			if logger == nil || strings.HasPrefix(method, "notifications/") {
				return next(ctx, method, req)
			}

			start := time.Now()
			result, err := next(ctx, method, req)

			attrs := []any{"direction", direction, "method", method, "duration", time.Since(start)}
			if tool := toolName(req); tool != "" {
				attrs = append(attrs, "tool", tool)
			}
			if res, ok := result.(*sdkmcp.CallToolResult); ok && res != nil && res.IsError {
				attrs = append(attrs, "tool_error", true)
			}
			if logger.Enabled(ctx, slog.LevelDebug) {
				attrs = append(attrs, "params", payload(params(req)), "result", payload(result))
			}
			if err != nil {
				logger.Warn("mcp call failed", append(attrs, "error", err)...)
				return result, err
			}
			logger.Debug("mcp call", attrs...)
			return result, nil
		}
	}
}

func toolName(req sdkmcp.Request) string {
	switch p := params(req).(type) {
	case *sdkmcp.CallToolParamsRaw:
		return p.Name
	case *sdkmcp.CallToolParams:
		return p.Name
	}
	return ""
}

// params recovers from requests that carry no params.
func params(req sdkmcp.Request) (p any) {
	if req == nil {
		return nil
	}
	defer func() {
		if recover() != nil {
			p = nil
		}
	}()
	return req.GetParams()
}

func payload(v any) string {
	if v == nil {
		return "<nil>"
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "<unencodable>"
	}
	return string(data)
}
