package projects_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/hellojohn-projects/internal/domain/repository"
	"github.com/dropDatabas3/hellojohn-projects/internal/projects"
)

func systemGrants(p repository.Permission) []repository.SystemPermission {
	var out []repository.SystemPermission
	for _, e := range p.Parents {
		if e.ParentSystemPermission != nil {
			out = append(out, *e.ParentSystemPermission)
		}
	}
	return out
}

func TestDefaultPermissions(t *testing.T) {
	perms := projects.DefaultPermissions("p1", "c1")
	require.Len(t, perms, 2)

	member, admin := perms[0], perms[1]

	assert.Equal(t, "member", member.QueryableID)
	assert.True(t, member.IsDefaultTeamMemberPermission)
	assert.False(t, member.IsDefaultTeamCreatorPermission)
	assert.Equal(t, repository.PermissionScopeTeam, member.Scope)
	assert.Equal(t, []repository.SystemPermission{
		repository.SystemPermissionReadMembers,
		repository.SystemPermissionInviteMembers,
	}, systemGrants(member))

	assert.Equal(t, "admin", admin.QueryableID)
	assert.True(t, admin.IsDefaultTeamCreatorPermission)
	assert.False(t, admin.IsDefaultTeamMemberPermission)
	assert.Equal(t, []repository.SystemPermission{
		repository.SystemPermissionUpdateTeam,
		repository.SystemPermissionDeleteTeam,
		repository.SystemPermissionReadMembers,
		repository.SystemPermissionRemoveMembers,
		repository.SystemPermissionInviteMembers,
	}, systemGrants(admin))

	for _, p := range perms {
		for _, e := range p.Parents {
			assert.Nil(t, e.ParentPermissionDBID, "seeded roles only grant system permissions")
		}
	}
}

func TestDefaultPermissions_Deterministic(t *testing.T) {
	a := projects.DefaultPermissions("p1", "c1")
	b := projects.DefaultPermissions("p1", "c1")
	assert.Equal(t, a, b)

	other := projects.DefaultPermissions("p2", "c2")
	assert.NotEqual(t, a[0].DBID, other[0].DBID)
	assert.NotEqual(t, a[0].DBID, a[1].DBID)
}

func TestSystemPermissionID(t *testing.T) {
	assert.Equal(t, "$read_members", projects.SystemPermissionID(repository.SystemPermissionReadMembers))
	assert.Equal(t, "$manage_api_keys", projects.SystemPermissionID(repository.SystemPermissionManageAPIKeys))
}
