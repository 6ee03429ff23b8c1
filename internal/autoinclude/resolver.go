package autoinclude

import (
	"context"

	"go.uber.org/zap"

	"github.com/promptconduit/dashctx/internal/contextcfg"
	"github.com/promptconduit/dashctx/internal/repository"
)

// Broker talks to the cooperating data-access plugin
type Broker interface {
	// PluginPresent reports whether the data-access plugin is reachable
	PluginPresent(ctx context.Context) bool
	// QueriesFor lists the query ids declared by a data-access descriptor
	QueriesFor(ctx context.Context, descriptorPath string) ([]string, error)
}

// Resolver evaluates auto-include rules for a dashboard
type Resolver struct {
	cache       *Cache
	broker      Broker
	content     repository.Reader
	includesDir string
	logger      *zap.Logger
}

// NewResolver creates a resolver. The cache is owned by the caller so it can
// be invalidated from outside (redeploys, file watchers).
func NewResolver(cache *Cache, broker Broker, content repository.Reader, includesDir string, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cache == nil {
		cache = NewCache()
	}
	return &Resolver{
		cache:       cache,
		broker:      broker,
		content:     content,
		includesDir: includesDir,
		logger:      logger,
	}
}

// Cache returns the rule cache used by the resolver
func (r *Resolver) Cache() *Cache {
	return r.cache
}

// ClearCache drops the cached rule list
func (r *Resolver) ClearCache() {
	r.cache.Invalidate()
	r.logger.Debug("auto-includes cleared")
}

// Resolve returns descriptor path -> query ids for every rule that accepts
// dashboardPath. It never fails; missing collaborators yield an empty map.
func (r *Resolver) Resolve(ctx context.Context, dashboardPath string, doc *contextcfg.Document) map[string][]string {
	queries := make(map[string][]string)

	if r.broker == nil || !r.broker.PluginPresent(ctx) {
		r.logger.Warn("Couldn't find data-access plugin, skipping auto-includes")
		return queries
	}

	if r.content == nil || !r.content.Exists(r.includesDir) {
		return queries
	}

	rules := r.cache.GetOrBuild(func() []Rule {
		rules := Build(doc, r.content, r.includesDir)
		r.logger.Debug("auto-includes built", zap.Int("rules", len(rules)))
		return rules
	})

	for _, rule := range rules {
		if !rule.CanInclude(dashboardPath) {
			continue
		}
		if _, done := queries[rule.DescriptorPath]; done {
			continue
		}

		ids, err := r.broker.QueriesFor(ctx, rule.DescriptorPath)
		if err != nil {
			r.logger.Error("Failed to list data-access queries",
				zap.String("descriptor", rule.DescriptorPath),
				zap.Error(err))
			continue
		}
		if ids == nil {
			ids = []string{}
		}
		queries[rule.DescriptorPath] = ids
	}
	return queries
}
