package dashctx

import (
	"path"
	"strings"

	"github.com/promptconduit/dashctx/internal/schema"
)

// legacyDescriptorExt marks old dashboards addressed by solution + path + action
const legacyDescriptorExt = ".xcdf"

// Request identifies the dashboard a context is built for
type Request struct {
	Path             string
	ViewID           string
	Action           string
	Parameters       map[string]string
	InactiveInterval int
}

// RequestFromParameters builds a request from raw request parameters.
// The dashboard path is solution/path/file; for xcdf actions the action is
// appended as a further segment. The view defaults to the action.
func RequestFromParameters(params map[string]string, inactiveInterval int) Request {
	solution := params[schema.ParamSolution]
	p := params[schema.ParamPath]
	file := params[schema.ParamFile]
	action := params[schema.ParamAction]

	viewID := params[schema.ParamView]
	if viewID == "" {
		viewID = action
	}

	fullPath := JoinPaths(solution, p, file)
	if path.Ext(action) == legacyDescriptorExt {
		fullPath = JoinPaths(fullPath, action)
	}

	if inactiveInterval < 0 {
		inactiveInterval = 0
	}

	copied := make(map[string]string, len(params))
	for k, v := range params {
		copied[k] = v
	}

	return Request{
		Path:             fullPath,
		ViewID:           viewID,
		Action:           action,
		Parameters:       copied,
		InactiveInterval: inactiveInterval,
	}
}

// JoinPaths joins repository path pieces with single separators, skipping
// empty pieces. A leading separator on the first piece is kept.
func JoinPaths(parts ...string) string {
	var b strings.Builder
	for _, p := range parts {
		if p == "" {
			continue
		}
		if b.Len() == 0 {
			b.WriteString(p)
			continue
		}
		p = strings.Trim(p, "/")
		if p == "" {
			continue
		}
		if !strings.HasSuffix(b.String(), "/") {
			b.WriteByte('/')
		}
		b.WriteString(p)
	}
	return b.String()
}
