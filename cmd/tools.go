package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/promptconduit/dashctx/internal/dashctx"
	"github.com/promptconduit/dashctx/internal/legacypath"
	"github.com/promptconduit/dashctx/internal/session"
)

// contextTools exposes the engine as MCP tools
type contextTools struct {
	rt     *engineRuntime
	logger *zap.Logger
}

func newToolServer(rt *engineRuntime, log *zap.Logger) *server.MCPServer {
	t := &contextTools{rt: rt, logger: log}
	s := server.NewMCPServer("dashctx", Version)

	s.AddTool(mcp.NewTool("dashboard_context",
		mcp.WithDescription("Builds the Dashboards.context initialization script (or JSON document) for a dashboard."),
		mcp.WithString("path", mcp.Description("Dashboard path, e.g. public/sales/dash.wcdf")),
		mcp.WithString("solution", mcp.Description("Solution, for old-style solution/path/file addressing")),
		mcp.WithString("file", mcp.Description("Dashboard file, for old-style addressing")),
		mcp.WithString("action", mcp.Description("Dashboard action")),
		mcp.WithString("view", mcp.Description("Saved view id; defaults to the action")),
		mcp.WithString("parameters", mcp.Description("Request parameters as a JSON object of strings")),
		mcp.WithString("user", mcp.Description("Session user name")),
		mcp.WithBoolean("authenticated", mcp.Description("Whether the session is logged in")),
		mcp.WithString("roles", mcp.Description("Comma separated session roles")),
		mcp.WithNumber("inactive_interval", mcp.Description("Session inactivity timeout in seconds")),
		mcp.WithString("format", mcp.Description("script (default) or json")),
	), t.contextHandler)

	s.AddTool(mcp.NewTool("embedded_context",
		mcp.WithDescription("Returns the bootstrap script that loads dashboards into a foreign page."),
	), t.embeddedHandler)

	s.AddTool(mcp.NewTool("clear_cache",
		mcp.WithDescription("Drops the cached auto-include rules so they are rebuilt on the next request."),
	), t.clearCacheHandler)

	s.AddTool(mcp.NewTool("decompose_path",
		mcp.WithDescription("Splits a dashboard path into legacy solution, path and file parts."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Dashboard path to decompose")),
	), t.decomposeHandler)

	return s
}

func (t *contextTools) contextHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]any)
	if !ok {
		args = map[string]any{}
	}

	params := map[string]string{}
	if raw, _ := args["parameters"].(string); raw != "" {
		if err := json.Unmarshal([]byte(raw), &params); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("parameters must be a JSON object of strings: %v", err)), nil
		}
	}
	for _, key := range []string{"solution", "path", "file", "action", "view"} {
		if v, _ := args[key].(string); v != "" {
			params[key] = v
		}
	}

	user, _ := args["user"].(string)
	authed, _ := args["authenticated"].(bool)
	inactive, _ := args["inactive_interval"].(float64)
	format, _ := args["format"].(string)

	sess := &session.Static{Name: user, Authed: authed}
	if roles, _ := args["roles"].(string); roles != "" {
		for _, r := range strings.Split(roles, ",") {
			if r = strings.TrimSpace(r); r != "" {
				sess.RoleList = append(sess.RoleList, r)
			}
		}
	}

	switch format {
	case "", "script":
		var b strings.Builder
		if err := t.rt.engine.Generate(ctx, &b, params, int(inactive), sess); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to write context: %v", err)), nil
		}
		return mcp.NewToolResultText(b.String()), nil
	case "json":
		req := dashctx.RequestFromParameters(params, int(inactive))
		data, err := t.rt.engine.Build(ctx, req, sess).ToIndentedJSON()
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to serialize context: %v", err)), nil
		}
		return mcp.NewToolResultText(data), nil
	default:
		return mcp.NewToolResultError(fmt.Sprintf("Unknown format %q", format)), nil
	}
}

func (t *contextTools) embeddedHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(dashctx.EmbeddedContext()), nil
}

func (t *contextTools) clearCacheHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	t.rt.resolver.ClearCache()
	t.logger.Info("Auto-include cache cleared on request")
	return mcp.NewToolResultText("Auto-include cache cleared."), nil
}

func (t *contextTools) decomposeHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := request.Params.Arguments.(map[string]any)
	p, _ := args["path"].(string)
	if p == "" {
		return mcp.NewToolResultError("Path cannot be empty"), nil
	}

	parts := legacypath.Decompose(p)
	data, err := json.Marshal(map[string]string{
		"solution": parts.Solution,
		"path":     parts.Path,
		"file":     parts.File,
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
