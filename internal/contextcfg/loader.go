package contextcfg

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/promptconduit/dashctx/internal/repository"
)

// ErrNotFound is returned when no layer holds the configuration file
var ErrNotFound = errors.New("context configuration not found")

// Loader locates the configuration file in the instance layer first, then
// the system layer
type Loader struct {
	instance repository.Reader
	system   repository.Reader
	name     string
	logger   *zap.Logger
}

// NewLoader creates a loader for the named configuration file
func NewLoader(instance, system repository.Reader, name string, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{
		instance: instance,
		system:   system,
		name:     name,
		logger:   logger,
	}
}

// Name returns the configuration file name
func (l *Loader) Name() string {
	return l.name
}

// Load reads and parses the configuration. The file is read on every call.
func (l *Loader) Load(ctx context.Context) (*Document, error) {
	layer, ok := repository.NewLayered(l.instance, l.system).Locate(l.name)
	if !ok {
		return nil, ErrNotFound
	}

	l.logger.Debug("Reading context configuration",
		zap.String("file", l.name),
		zap.Any("layer", layer))

	rc, err := layer.Open(l.name)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	return Parse(rc)
}
