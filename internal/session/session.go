// Package session provides a fixed user identity for command-line and MCP
// callers, where no web session exists.
package session

import (
	"context"
	"slices"

	"github.com/promptconduit/dashctx/internal/dashctx"
)

// AdminRole grants administrator status when present in Roles
const AdminRole = "Administrator"

// Static is a session whose identity is supplied up front. It also answers
// role and administrator queries for itself.
type Static struct {
	Name     string
	Authed   bool
	RoleList []string
	Admin    bool
	Lang     string
}

var (
	_ dashctx.Session       = (*Static)(nil)
	_ dashctx.LocaleSession = (*Static)(nil)
	_ dashctx.Claims        = (*Static)(nil)
)

// User returns the user name
func (s *Static) User() string { return s.Name }

// Authenticated reports whether the user logged in
func (s *Static) Authenticated() bool { return s.Authed }

// Locale returns the session locale, "" when unset
func (s *Static) Locale() string { return s.Lang }

// Roles returns the configured role names. Anonymous sessions have none.
func (s *Static) Roles(ctx context.Context, sess dashctx.Session) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !sess.Authenticated() {
		return []string{}, nil
	}
	if st, isStatic := sess.(*Static); isStatic {
		return slices.Clone(nonNil(st.RoleList)), nil
	}
	return []string{}, nil
}

// IsAdministrator reports whether sess is an authenticated administrator
func (s *Static) IsAdministrator(ctx context.Context, sess dashctx.Session) bool {
	st, isStatic := sess.(*Static)
	if !isStatic || !st.Authed {
		return false
	}
	return st.Admin || slices.Contains(st.RoleList, AdminRole)
}

func nonNil(roles []string) []string {
	if roles == nil {
		return []string{}
	}
	return roles
}
