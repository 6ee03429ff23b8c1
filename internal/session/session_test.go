package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatic_Roles(t *testing.T) {
	ctx := context.Background()
	s := &Static{Name: "joe", Authed: true, RoleList: []string{"Authenticated", "Power User"}}

	roles, err := s.Roles(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, []string{"Authenticated", "Power User"}, roles)

	anon := &Static{Name: "guest", RoleList: []string{"Authenticated"}}
	roles, err = anon.Roles(ctx, anon)
	require.NoError(t, err)
	assert.Equal(t, []string{}, roles)

	none := &Static{Name: "joe", Authed: true}
	roles, err = none.Roles(ctx, none)
	require.NoError(t, err)
	assert.Equal(t, []string{}, roles)
}

func TestStatic_RolesAreCopied(t *testing.T) {
	s := &Static{Name: "joe", Authed: true, RoleList: []string{"A"}}
	roles, err := s.Roles(context.Background(), s)
	require.NoError(t, err)

	roles.([]string)[0] = "changed"
	assert.Equal(t, "A", s.RoleList[0])
}

func TestStatic_IsAdministrator(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name string
		sess *Static
		want bool
	}{
		{"admin flag", &Static{Authed: true, Admin: true}, true},
		{"admin role", &Static{Authed: true, RoleList: []string{AdminRole}}, true},
		{"plain user", &Static{Authed: true, RoleList: []string{"Authenticated"}}, false},
		{"anonymous admin", &Static{Admin: true}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.sess.IsAdministrator(ctx, tt.sess))
		})
	}
}

func TestStatic_Identity(t *testing.T) {
	s := &Static{Name: "joe", Authed: true, Lang: "pt_PT"}
	assert.Equal(t, "joe", s.User())
	assert.True(t, s.Authenticated())
	assert.Equal(t, "pt_PT", s.Locale())
}
