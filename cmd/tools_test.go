package cmd

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/promptconduit/dashctx/internal/autoinclude"
	"github.com/promptconduit/dashctx/internal/config"
	"github.com/promptconduit/dashctx/internal/dashctx"
)

func newTestTools(t *testing.T) *contextTools {
	t.Helper()
	root := t.TempDir()
	s := config.DefaultSettings()
	s.InstanceDir = filepath.Join(root, "instance")
	s.SystemDir = filepath.Join(root, "system")
	s.ContentDir = filepath.Join(root, "content")
	s.StorageDir = filepath.Join(root, "storage")

	require.NoError(t, os.MkdirAll(s.InstanceDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(s.InstanceDir, s.ConfigFileName), []byte(
		`<cdf><sessionattributes><attribute name="userKey">SECURITY_PRINCIPAL</attribute></sessionattributes></cdf>`), 0o644))

	rt, err := newEngineRuntime(s, false, zap.NewNop())
	require.NoError(t, err)
	return &contextTools{rt: rt, logger: zap.NewNop()}
}

func call(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func TestContextTool_JSON(t *testing.T) {
	tools := newTestTools(t)

	res, err := tools.contextHandler(context.Background(), call(map[string]any{
		"path":              "public/dash.wcdf",
		"user":              "joe",
		"authenticated":     true,
		"roles":             "Authenticated, Power User",
		"inactive_interval": float64(1800),
		"parameters":        `{"paramregion":"EU","p":"paramregion"}`,
		"format":            "json",
	}))
	require.NoError(t, err)
	require.False(t, res.IsError)

	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &doc))
	assert.Equal(t, "public/dash.wcdf", doc["path"])
	assert.EqualValues(t, 1800, doc["sessionTimeout"])
	assert.Equal(t, map[string]any{"userKey": "joe"}, doc["sessionAttributes"])
	assert.Equal(t, []any{"Authenticated", "Power User"}, doc["roles"])
	assert.Equal(t, map[string]any{"region": "EU"}, doc["params"])
	assert.Equal(t, map[string]any{}, doc["queryData"])
}

func TestContextTool_Script(t *testing.T) {
	tools := newTestTools(t)

	res, err := tools.contextHandler(context.Background(), call(map[string]any{
		"solution": "public",
		"path":     "sales",
		"file":     "dash.wcdf",
	}))
	require.NoError(t, err)
	require.False(t, res.IsError)

	out := resultText(t, res)
	assert.Contains(t, out, "Dashboards.context = {")
	assert.Contains(t, out, `"path": "public/sales/dash.wcdf"`)
}

func TestContextTool_BadInput(t *testing.T) {
	tools := newTestTools(t)

	res, err := tools.contextHandler(context.Background(), call(map[string]any{"parameters": "[1,2]"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)

	res, err = tools.contextHandler(context.Background(), call(map[string]any{"format": "xml"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestEmbeddedTool(t *testing.T) {
	tools := newTestTools(t)
	res, err := tools.embeddedHandler(context.Background(), call(nil))
	require.NoError(t, err)
	assert.Equal(t, dashctx.EmbeddedContext(), resultText(t, res))
}

func TestClearCacheTool(t *testing.T) {
	tools := newTestTools(t)
	tools.rt.resolver.Cache().GetOrBuild(func() []autoinclude.Rule { return nil })
	require.True(t, tools.rt.resolver.Cache().Populated())

	res, err := tools.clearCacheHandler(context.Background(), call(nil))
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.False(t, tools.rt.resolver.Cache().Populated())
}

func TestDecomposeTool(t *testing.T) {
	tools := newTestTools(t)

	res, err := tools.decomposeHandler(context.Background(), call(map[string]any{"path": "/public/sales/dash.wcdf"}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"solution":"public","path":"sales","file":"dash.wcdf"}`, resultText(t, res))

	res, err = tools.decomposeHandler(context.Background(), call(map[string]any{}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestParseParams(t *testing.T) {
	params, err := parseParams([]string{"a=1", "b=x=y", "c="})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "1", "b": "x=y", "c": ""}, params)

	_, err = parseParams([]string{"novalue"})
	assert.Error(t, err)
	_, err = parseParams([]string{"=v"})
	assert.Error(t, err)
}

func TestWatchTargets(t *testing.T) {
	s := config.DefaultSettings()
	s.ContentDir = "/srv/content"
	s.InstanceDir = "/srv/instance"
	s.SystemDir = ""

	rt := &engineRuntime{}
	dirs, files := rt.watchTargets(s)
	assert.Equal(t, []string{filepath.Join("/srv/content", "public", "cdf", "includes")}, dirs)
	assert.Equal(t, []string{filepath.Join("/srv/instance", config.DefaultConfigFileName)}, files)
}
