// Package dashctx assembles the dashboard context document handed to the
// client-side dashboard runtime and renders it as an initialization script.
package dashctx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/promptconduit/dashctx/internal/contextcfg"
	"github.com/promptconduit/dashctx/internal/schema"
)

// paramPrefix marks request parameters smuggled into the params object
const paramPrefix = "param"

// Options configures an Engine
type Options struct {
	Loader  ConfigLoader
	Queries QueryResolver
	Claims  Claims
	Views   ViewRegistry
	Storage StorageProvider

	// Legacy enables the deprecated solution/path/file/fullPath/isAdmin fields
	Legacy bool
	Locale string

	// Clock and Location default to time.Now and time.Local
	Clock    func() time.Time
	Location *time.Location

	Logger *zap.Logger
}

// Engine builds dashboard contexts. It holds no per-request state and is
// safe for concurrent use.
type Engine struct {
	loader   ConfigLoader
	queries  QueryResolver
	claims   Claims
	views    ViewRegistry
	storage  StorageProvider
	legacy   legacyStructure
	locale   string
	clock    func() time.Time
	location *time.Location
	logger   *zap.Logger
}

// New creates an engine
func New(opts Options) *Engine {
	e := &Engine{
		loader:   opts.Loader,
		queries:  opts.Queries,
		claims:   opts.Claims,
		views:    opts.Views,
		storage:  opts.Storage,
		locale:   CanonicalLocale(opts.Locale),
		clock:    opts.Clock,
		location: opts.Location,
		logger:   opts.Logger,
	}
	if e.logger == nil {
		e.logger = zap.NewNop()
	}
	if e.clock == nil {
		e.clock = time.Now
	}
	if e.location == nil {
		e.location = time.Local
	}
	if opts.Legacy {
		e.legacy = legacyEnabled{claims: e.claims, logger: e.logger}
	} else {
		e.legacy = legacyDisabled{}
	}
	return e
}

type field struct {
	key   string
	value any
}

// contribution is what a stage adds to the document: fields, or the error
// that kept it from adding anything
type contribution struct {
	fields []field
	err    error
}

func ok(fields ...field) contribution {
	return contribution{fields: fields}
}

func failed(err error) contribution {
	return contribution{err: err}
}

type buildState struct {
	req    Request
	sess   Session
	user   string
	config *contextcfg.Document
	doc    *schema.Document
}

type stage struct {
	name string
	run  func(ctx context.Context, st *buildState) contribution
}

// Build assembles the context document. It never fails: a stage that cannot
// produce serializable values is logged and left out.
func (e *Engine) Build(ctx context.Context, req Request, sess Session) *schema.Document {
	if sess == nil {
		sess = anonymous{}
	}

	start := e.clock()
	logger := e.logger.With(zap.String("request_id", uuid.NewString()))

	st := &buildState{
		req:    req,
		sess:   sess,
		user:   sess.User(),
		config: e.loadConfig(ctx, logger),
		doc:    schema.NewDocument(),
	}

	stages := []stage{
		{"config", e.configStage},
		{"sessionTimeout", e.timeoutStage},
		{"dates", e.datesStage},
		{"user", e.userStage},
		{"paths", e.pathsStage},
		{"roles", e.rolesStage},
		{"legacy", e.legacy.contribute},
		{"params", e.paramsStage},
	}

	for _, s := range stages {
		c := s.run(ctx, st)
		if c.err == nil {
			c.err = validate(c.fields)
		}
		if c.err != nil {
			logger.Error("Error building context",
				zap.String("stage", s.name),
				zap.Error(c.err))
			continue
		}
		for _, f := range c.fields {
			st.doc.Set(f.key, f.value)
		}
	}

	logger.Info("Finished building context",
		zap.String("path", req.Path),
		zap.Int("fields", st.doc.Len()),
		zap.Duration("elapsed", e.clock().Sub(start)))

	return st.doc
}

func (e *Engine) loadConfig(ctx context.Context, logger *zap.Logger) *contextcfg.Document {
	if e.loader == nil {
		return contextcfg.Empty()
	}
	doc, err := e.loader.Load(ctx)
	if err != nil {
		if errors.Is(err, contextcfg.ErrNotFound) {
			logger.Error("Context configuration not found")
		} else {
			logger.Error("Couldn't read context configuration file", zap.Error(err))
		}
		return contextcfg.Empty()
	}
	return doc
}

// validate rejects values that cannot be serialized
func validate(fields []field) error {
	for _, f := range fields {
		if _, err := json.Marshal(f.value); err != nil {
			return fmt.Errorf("field %s: %w", f.key, err)
		}
	}
	return nil
}

func (e *Engine) configStage(ctx context.Context, st *buildState) contribution {
	queries := map[string][]string{}
	if e.queries != nil {
		queries = e.queries.Resolve(ctx, st.req.Path, st.config)
	}

	attrs := schema.NewDocument()
	for _, a := range st.config.SessionAttributes {
		attrs.Set(a.Key(), st.user)
	}

	return ok(
		field{schema.KeyQueryData, queries},
		field{schema.KeySessionAttributes, attrs},
	)
}

func (e *Engine) timeoutStage(ctx context.Context, st *buildState) contribution {
	if !st.sess.Authenticated() {
		return ok()
	}
	return ok(field{schema.KeySessionTimeout, st.req.InactiveInterval})
}

func (e *Engine) datesStage(ctx context.Context, st *buildState) contribution {
	now := e.clock()
	utc := now.UnixMilli()
	// offset in effect at this instant, daylight saving included
	_, offset := now.In(e.location).Zone()

	return ok(
		field{schema.KeyServerLocalDate, utc + int64(offset)*1000},
		field{schema.KeyServerUTCDate, utc},
	)
}

func (e *Engine) userStage(ctx context.Context, st *buildState) contribution {
	locale := e.locale
	if ls, isLocale := st.sess.(LocaleSession); isLocale {
		if l := CanonicalLocale(ls.Locale()); l != "" {
			locale = l
		}
	}
	return ok(
		field{schema.KeyUser, st.user},
		field{schema.KeyLocale, locale},
	)
}

func (e *Engine) pathsStage(ctx context.Context, st *buildState) contribution {
	fields := []field{{schema.KeyPath, st.req.Path}}
	if solution, has := st.req.Parameters[schema.ParamSolution]; has {
		fields = append(fields, field{schema.KeySolution, solution})
	}
	return ok(fields...)
}

func (e *Engine) rolesStage(ctx context.Context, st *buildState) contribution {
	if e.claims == nil {
		return ok()
	}
	roles, err := e.claims.Roles(ctx, st.sess)
	if err != nil {
		return failed(fmt.Errorf("failed to read roles: %w", err))
	}
	return ok(field{schema.KeyRoles, roles})
}

// paramsStage copies parameters named by a "param"-prefixed value: for each
// value v starting with the prefix that is also a parameter name,
// params[v minus prefix] = parameters[v]
func (e *Engine) paramsStage(ctx context.Context, st *buildState) contribution {
	names := make([]string, 0, len(st.req.Parameters))
	for k := range st.req.Parameters {
		names = append(names, k)
	}
	sort.Strings(names)

	params := schema.NewDocument()
	for _, name := range names {
		v := st.req.Parameters[name]
		if !strings.HasPrefix(v, paramPrefix) {
			continue
		}
		if value, found := st.req.Parameters[v]; found {
			params.Set(strings.TrimPrefix(v, paramPrefix), value)
		}
	}
	return ok(field{schema.KeyParams, params})
}
