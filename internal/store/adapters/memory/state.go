package memory

import (
	"maps"
	"slices"

	"github.com/dropDatabas3/hellojohn-projects/internal/domain/repository"
)

// state es el conjunto de "tablas". Las filas se guardan por valor y nunca se
// mutan en sitio: cada escritura reemplaza la fila o el slice, así un clone
// superficial de los maps alcanza para aislar transacciones.
type state struct {
	projects  map[string]repository.Project // solo escalares; colecciones en las tablas de abajo
	configs   map[string]string             // configID -> projectID
	domains   map[string][]repository.Domain
	providers map[string][]repository.OAuthProviderConfig
	email     map[string]repository.EmailServiceConfig
	methods   map[string][]repository.AuthMethodConfig
	accounts  map[string][]repository.ConnectedAccountConfig
	perms     map[string][]repository.Permission
	owners    map[string]repository.OwnerUser
}

func newState() *state {
	return &state{
		projects:  map[string]repository.Project{},
		configs:   map[string]string{},
		domains:   map[string][]repository.Domain{},
		providers: map[string][]repository.OAuthProviderConfig{},
		email:     map[string]repository.EmailServiceConfig{},
		methods:   map[string][]repository.AuthMethodConfig{},
		accounts:  map[string][]repository.ConnectedAccountConfig{},
		perms:     map[string][]repository.Permission{},
		owners:    map[string]repository.OwnerUser{},
	}
}

func (s *state) clone() *state {
	return &state{
		projects:  maps.Clone(s.projects),
		configs:   maps.Clone(s.configs),
		domains:   maps.Clone(s.domains),
		providers: maps.Clone(s.providers),
		email:     maps.Clone(s.email),
		methods:   maps.Clone(s.methods),
		accounts:  maps.Clone(s.accounts),
		perms:     maps.Clone(s.perms),
		owners:    maps.Clone(s.owners),
	}
}

// appendRow agrega sin compartir backing array con el slice anterior.
func appendRow[T any](rows []T, row T) []T {
	return append(slices.Clip(rows), row)
}

// ─── copias profundas de filas ───

func ptr[T any](v *T) *T {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func copyProvider(p repository.OAuthProviderConfig) repository.OAuthProviderConfig {
	out := repository.OAuthProviderConfig{ID: p.ID, Shared: ptr(p.Shared)}
	if p.Standard != nil {
		std := *p.Standard
		std.FacebookConfigID = ptr(p.Standard.FacebookConfigID)
		std.MicrosoftTenantID = ptr(p.Standard.MicrosoftTenantID)
		out.Standard = &std
	}
	return out
}

func copyEmail(e repository.EmailServiceConfig) repository.EmailServiceConfig {
	return repository.EmailServiceConfig{Shared: ptr(e.Shared), Standard: ptr(e.Standard)}
}

func copyMethod(m repository.AuthMethodConfig) repository.AuthMethodConfig {
	return repository.AuthMethodConfig{
		ID:       m.ID,
		Enabled:  m.Enabled,
		OAuth:    ptr(m.OAuth),
		OTP:      ptr(m.OTP),
		Password: ptr(m.Password),
		Passkey:  ptr(m.Passkey),
	}
}

func copyPermission(p repository.Permission) repository.Permission {
	out := p
	out.Parents = make([]repository.PermissionEdge, 0, len(p.Parents))
	for _, e := range p.Parents {
		out.Parents = append(out.Parents, repository.PermissionEdge{
			ParentPermissionDBID:   ptr(e.ParentPermissionDBID),
			ParentSystemPermission: ptr(e.ParentSystemPermission),
		})
	}
	return out
}

func copyOwner(u repository.OwnerUser) repository.OwnerUser {
	return repository.OwnerUser{
		ID:                u.ID,
		ProjectID:         u.ProjectID,
		ManagedProjectIDs: slices.Clone(u.ManagedProjectIDs),
		ServerMetadata:    maps.Clone(u.ServerMetadata),
	}
}
