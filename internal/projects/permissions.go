package projects

import (
	"strings"

	"github.com/google/uuid"

	"github.com/dropDatabas3/hellojohn-projects/internal/domain/repository"
)

// Roles sembrados en todo proyecto nuevo.
const (
	MemberPermissionID = "member"
	AdminPermissionID  = "admin"
)

var (
	memberSystemGrants = []repository.SystemPermission{
		repository.SystemPermissionReadMembers,
		repository.SystemPermissionInviteMembers,
	}
	adminSystemGrants = []repository.SystemPermission{
		repository.SystemPermissionUpdateTeam,
		repository.SystemPermissionDeleteTeam,
		repository.SystemPermissionReadMembers,
		repository.SystemPermissionRemoveMembers,
		repository.SystemPermissionInviteMembers,
	}
)

// DefaultPermissions retorna los dos permisos de team de todo proyecto nuevo:
// "member" (default de miembro) y "admin" (default del creador). No son
// configurables. Los DBID se derivan (UUIDv5) de proyecto, config y rol, así
// que el resultado es determinístico.
func DefaultPermissions(projectID, configID string) []repository.Permission {
	scope := projectID + "/" + configID + "/"
	return []repository.Permission{
		seedPermission(scope, MemberPermissionID, "Default permission for team members", false, true, memberSystemGrants),
		seedPermission(scope, AdminPermissionID, "Default permission for team creators", true, false, adminSystemGrants),
	}
}

func seedPermission(scope, id, description string, creator, member bool, grants []repository.SystemPermission) repository.Permission {
	parents := make([]repository.PermissionEdge, 0, len(grants))
	for _, g := range grants {
		parents = append(parents, repository.SystemParent(g))
	}
	return repository.Permission{
		DBID:                           uuid.NewSHA1(uuid.NameSpaceOID, []byte(scope+id)).String(),
		QueryableID:                    id,
		Description:                    description,
		Scope:                          repository.PermissionScopeTeam,
		IsDefaultTeamCreatorPermission: creator,
		IsDefaultTeamMemberPermission:  member,
		Parents:                        parents,
	}
}

// SystemPermissionID id público de un permiso de sistema: "$" + nombre en minúsculas.
func SystemPermissionID(p repository.SystemPermission) string {
	return "$" + strings.ToLower(string(p))
}
