package cmd

import (
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/promptconduit/dashctx/internal/autoinclude"
	"github.com/promptconduit/dashctx/internal/client"
	"github.com/promptconduit/dashctx/internal/config"
	"github.com/promptconduit/dashctx/internal/contextcfg"
	"github.com/promptconduit/dashctx/internal/dashctx"
	"github.com/promptconduit/dashctx/internal/repository"
	"github.com/promptconduit/dashctx/internal/session"
	"github.com/promptconduit/dashctx/internal/storage"
)

// engineRuntime holds the engine and the collaborators it was built from
type engineRuntime struct {
	engine   *dashctx.Engine
	loader   *contextcfg.Loader
	resolver *autoinclude.Resolver
	broker   *client.Client
	store    *storage.Store
	content  *repository.Dir
}

// newEngineRuntime wires settings into an engine. Claims come from the
// static session passed to each call, so the same provider answers for
// whichever session the request carries.
func newEngineRuntime(s *config.Settings, withStorage bool, log *zap.Logger) (*engineRuntime, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	rt := &engineRuntime{
		content: repository.NewDir(s.ContentDir),
		broker:  client.NewClient(s.DataAccess, Version, log.Named("data-access")),
	}
	rt.loader = contextcfg.NewLoader(
		repository.NewDir(s.InstanceDir),
		repository.NewDir(s.SystemDir),
		s.ConfigFileName,
		log.Named("config"),
	)
	rt.resolver = autoinclude.NewResolver(autoinclude.NewCache(), rt.broker, rt.content, s.IncludesDir, log.Named("autoinclude"))

	opts := dashctx.Options{
		Loader:   rt.loader,
		Queries:  rt.resolver,
		Claims:   &session.Static{},
		Legacy:   s.LegacyDashboardContext,
		Locale:   s.Locale,
		Clock:    time.Now,
		Location: time.Local,
		Logger:   log.Named("engine"),
	}

	if withStorage {
		store, err := storage.Open(s.StorageDir)
		if err != nil {
			// contexts still render without a view registry or snapshots
			log.Warn("Storage unavailable", zap.String("dir", s.StorageDir), zap.Error(err))
		} else {
			rt.store = store
			opts.Views = store
			opts.Storage = store
		}
	}

	rt.engine = dashctx.New(opts)
	return rt, nil
}

// watchTargets returns the include directories and configuration files
// whose changes invalidate the auto-include cache
func (rt *engineRuntime) watchTargets(s *config.Settings) (dirs, files []string) {
	if s.ContentDir != "" {
		dirs = append(dirs, filepath.Join(s.ContentDir, filepath.FromSlash(s.IncludesDir)))
	}
	for _, root := range []string{s.InstanceDir, s.SystemDir} {
		if root != "" {
			files = append(files, filepath.Join(root, s.ConfigFileName))
		}
	}
	return dirs, files
}

func (rt *engineRuntime) Close() error {
	if rt.store != nil {
		return rt.store.Close()
	}
	return nil
}

func openStore() (*storage.Store, error) {
	return storage.Open(settings.StorageDir)
}
