package dashctx

import (
	"context"
	"encoding/json"

	"github.com/promptconduit/dashctx/internal/contextcfg"
)

// Session identifies the caller
type Session interface {
	User() string
	Authenticated() bool
}

// LocaleSession is implemented by sessions that carry their own locale
type LocaleSession interface {
	Locale() string
}

// Claims exposes the caller's security claims
type Claims interface {
	Roles(ctx context.Context, sess Session) (any, error)
	IsAdministrator(ctx context.Context, sess Session) bool
}

// ViewRegistry resolves saved views. A nil view with a nil error means the
// view does not exist.
type ViewRegistry interface {
	View(ctx context.Context, name, user string) (json.RawMessage, error)
}

// StorageProvider returns a user's serialized storage snapshot, or "" when
// the user has none
type StorageProvider interface {
	Snapshot(ctx context.Context, user string) (string, error)
}

// ConfigLoader loads the context configuration
type ConfigLoader interface {
	Load(ctx context.Context) (*contextcfg.Document, error)
}

// QueryResolver maps a dashboard to the data-access queries it should see
type QueryResolver interface {
	Resolve(ctx context.Context, dashboardPath string, doc *contextcfg.Document) map[string][]string
}

type anonymous struct{}

func (anonymous) User() string        { return "" }
func (anonymous) Authenticated() bool { return false }
