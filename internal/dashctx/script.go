package dashctx

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/promptconduit/dashctx/internal/schema"
)

const (
	scriptOpen  = "\n<script language=\"javascript\" type=\"text/javascript\">\n"
	scriptClose = "</script>\n"

	embeddedHeader = "/** This file is generated in cdf to allow using cdf embedded.\n" +
		"It will append to the head tag the dependencies needed, like the FULLY_QUALIFIED_URL**/\n\n"
	requireCfgStart = "var requireCfg = {waitSeconds: 30, paths: {}, shim: {}};\n\n"

	cdfPath          = "content/pentaho-cdf/js/cdf-core-require-js-cfg.js"
	cdfLibPath       = "content/pentaho-cdf/js/lib/cdf-core-lib-require-js-cfg.js"
	requirePath      = "content/common-ui/resources/web/require.js"
	requireStartPath = "content/common-ui/resources/web/require-cfg.js"
)

// Render wraps the document in a script block. The view (viewID, or action
// when viewID is empty) and the user's storage snapshot are appended when
// they exist.
func (e *Engine) Render(ctx context.Context, doc *schema.Document, viewID, action, user string) (string, error) {
	body, err := doc.ToIndentedJSON()
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString(scriptOpen)
	b.WriteString("  Dashboards.context = ")
	b.WriteString(body)
	b.WriteString("\n")

	if view := e.view(ctx, viewID, action, user); view != "" {
		b.WriteString("Dashboards.view = ")
		b.WriteString(view)
		b.WriteString("\n")
	}

	if storage := e.snapshot(ctx, user); storage != "" {
		b.WriteString("Dashboards.initialStorage = ")
		b.WriteString(storage)
		b.WriteString("\n")
	}

	b.WriteString(scriptClose)
	return b.String(), nil
}

func (e *Engine) view(ctx context.Context, viewID, action, user string) string {
	if e.views == nil {
		return ""
	}
	name := viewID
	if name == "" {
		name = action
	}
	if name == "" {
		return ""
	}

	raw, err := e.views.View(ctx, name, user)
	if err != nil {
		e.logger.Error("Failed to resolve view", zap.String("view", name), zap.Error(err))
		return ""
	}
	if len(raw) == 0 {
		return ""
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		e.logger.Error("Stored view is not valid JSON", zap.String("view", name), zap.Error(err))
		return ""
	}
	return buf.String()
}

func (e *Engine) snapshot(ctx context.Context, user string) string {
	if e.storage == nil {
		return ""
	}
	s, err := e.storage.Snapshot(ctx, user)
	if err != nil {
		e.logger.Error("Failed to read storage", zap.String("user", user), zap.Error(err))
		return ""
	}
	return s
}

// Context builds and renders the context for req. Any rendering failure
// yields an empty string.
func (e *Engine) Context(ctx context.Context, req Request, sess Session) string {
	if sess == nil {
		sess = anonymous{}
	}
	doc := e.Build(ctx, req, sess)

	out, err := e.Render(ctx, doc, req.ViewID, req.Action, sess.User())
	if err != nil {
		e.logger.Error("Failed to render context", zap.String("path", req.Path), zap.Error(err))
		return ""
	}
	return out
}

// Generate builds the request from raw parameters and writes the rendered
// context to w
func (e *Engine) Generate(ctx context.Context, w io.Writer, params map[string]string, inactiveInterval int, sess Session) error {
	req := RequestFromParameters(params, inactiveInterval)

	out := e.Context(ctx, req, sess)
	if out == "" {
		e.logger.Error("empty dashboardContext", zap.String("path", req.Path))
	}

	_, err := io.WriteString(w, out)
	return err
}

// EmbeddedContext returns the bootstrap script that loads the dashboard
// framework into a foreign page. It does not vary per request.
func EmbeddedContext() string {
	var b strings.Builder
	b.WriteString(embeddedHeader)
	b.WriteString(requireCfgStart)
	b.WriteString("// injecting document writes to append the cdf require files\n")
	for _, p := range []string{cdfPath, cdfLibPath, requirePath, requireStartPath} {
		b.WriteString("document.write(\"<script language='javascript' type='text/javascript' src='\" + " +
			"FULLY_QUALIFIED_URL + \"" + p + "'></script>\");\n")
	}
	return b.String()
}
