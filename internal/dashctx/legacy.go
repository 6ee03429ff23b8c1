package dashctx

import (
	"context"

	"go.uber.org/zap"

	"github.com/promptconduit/dashctx/internal/legacypath"
	"github.com/promptconduit/dashctx/internal/schema"
)

// legacyStructure adds the deprecated solution/path/file/fullPath/isAdmin
// fields. The implementation is picked once, when the engine is built.
type legacyStructure interface {
	contribute(ctx context.Context, st *buildState) contribution
}

type legacyDisabled struct{}

func (legacyDisabled) contribute(context.Context, *buildState) contribution {
	return ok()
}

type legacyEnabled struct {
	claims Claims
	logger *zap.Logger
}

func (l legacyEnabled) contribute(ctx context.Context, st *buildState) contribution {
	l.logger.Warn("Using legacy structure for Dashboards.context; this structure is deprecated")

	var fields []field
	if l.claims != nil {
		fields = append(fields, field{schema.KeyIsAdmin, l.claims.IsAdministrator(ctx, st.sess)})
	}

	p := st.req.Path
	if p == "" {
		return ok(fields...)
	}

	if !st.doc.Has(schema.KeyFullPath) {
		fields = append(fields, field{schema.KeyFullPath, p})
	}

	parts := legacypath.Decompose(p)
	if parts.HasFile() {
		fields = append(fields, field{schema.KeyFile, parts.File})
	}
	fields = append(fields,
		field{schema.KeySolution, parts.Solution},
		field{schema.KeyPath, parts.Path},
	)
	return ok(fields...)
}
