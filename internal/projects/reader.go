package projects

import (
	"sort"
	"strings"

	"github.com/dropDatabas3/hellojohn-projects/internal/domain/repository"
)

// Flatten convierte el grafo normalizado de un proyecto en la vista plana.
// Es pura: no toca el store. Un grafo malformado retorna InvariantViolation
// y nunca se repara.
func Flatten(p *repository.Project) (*ProjectView, error) {
	cfg := &p.Config

	providers, err := flattenOAuthProviders(cfg)
	if err != nil {
		return nil, err
	}
	enabled := make([]OAuthProviderView, 0, len(providers))
	for _, pv := range providers {
		if pv.Enabled {
			enabled = append(enabled, pv)
		}
	}

	email, err := flattenEmail(cfg)
	if err != nil {
		return nil, err
	}

	view := &ProjectView{
		ID:               p.ID,
		DisplayName:      p.DisplayName,
		Description:      p.Description,
		CreatedAtMillis:  p.CreatedAt.UnixMilli(),
		UserCount:        p.UserCount,
		IsProductionMode: p.IsProductionMode,
		Config: ConfigView{
			ID:                        cfg.ID,
			AllowLocalhost:            cfg.AllowLocalhost,
			SignUpEnabled:             cfg.SignUpEnabled,
			CredentialEnabled:         hasEnabledMethod(cfg.AuthMethods, func(m repository.AuthMethodConfig) bool { return m.Password != nil }),
			MagicLinkEnabled:          hasEnabledMethod(cfg.AuthMethods, func(m repository.AuthMethodConfig) bool { return m.OTP != nil }),
			PasskeyEnabled:            hasEnabledMethod(cfg.AuthMethods, func(m repository.AuthMethodConfig) bool { return m.Passkey != nil }),
			CreateTeamOnSignUp:        cfg.CreateTeamOnSignUp,
			ClientTeamCreationEnabled: cfg.ClientTeamCreationEnabled,
			ClientUserDeletionEnabled: cfg.ClientUserDeletionEnabled,
			LegacyGlobalJWTSigning:    cfg.LegacyGlobalJWTSigning,

			Domains:               flattenDomains(cfg.Domains),
			OAuthProviders:        providers,
			EnabledOAuthProviders: enabled,
			EmailConfig:           email,

			TeamCreatorDefaultPermissions: defaultPermissionRefs(cfg.Permissions, cfg.TeamCreatorDefaultSystemPermissions,
				func(perm repository.Permission) bool { return perm.IsDefaultTeamCreatorPermission }),
			TeamMemberDefaultPermissions: defaultPermissionRefs(cfg.Permissions, cfg.TeamMemberDefaultSystemPermissions,
				func(perm repository.Permission) bool { return perm.IsDefaultTeamMemberPermission }),
		},
	}
	return view, nil
}

// flattenOAuthProviders recorre los auth methods OAuth (no la tabla de
// providers) y proyecta cada uno, ordenado por id.
func flattenOAuthProviders(cfg *repository.ProjectConfig) ([]OAuthProviderView, error) {
	byID := make(map[string]repository.OAuthProviderConfig, len(cfg.OAuthProviders))
	for _, op := range cfg.OAuthProviders {
		byID[op.ID] = op
	}

	out := make([]OAuthProviderView, 0, len(cfg.OAuthProviders))
	for _, m := range cfg.AuthMethods {
		if m.OAuth == nil {
			continue
		}
		op, ok := byID[m.OAuth.OAuthProviderConfigID]
		if !ok {
			return nil, invariantf("auth_method_config:"+cfg.ID+"/"+m.ID,
				"references oauth provider %q which is not configured", m.OAuth.OAuthProviderConfigID)
		}
		variant, err := ResolveOAuthProvider(cfg.ID, op)
		if err != nil {
			return nil, err
		}
		out = append(out, oauthProviderView(variant, m.Enabled))
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func oauthProviderView(v OAuthProviderVariant, enabled bool) OAuthProviderView {
	pv := OAuthProviderView{
		ID:      strings.ToLower(v.ProviderType()),
		Enabled: enabled,
		Type:    v.Kind(),
	}
	if s, ok := v.(StandardOAuthProvider); ok {
		clientID, secret := s.ClientID, s.ClientSecret
		pv.ClientID = &clientID
		pv.ClientSecret = &secret
		pv.FacebookConfigID = s.FacebookConfigID
		pv.MicrosoftTenantID = s.MicrosoftTenantID
	}
	return pv
}

func flattenEmail(cfg *repository.ProjectConfig) (EmailConfigView, error) {
	variant, err := ResolveEmailService(cfg.ID, cfg.EmailService)
	if err != nil {
		return EmailConfigView{}, err
	}
	switch v := variant.(type) {
	case StandardEmailService:
		return EmailConfigView{
			Type:        KindStandard,
			Host:        &v.Host,
			Port:        &v.Port,
			Username:    &v.Username,
			Password:    &v.Password,
			SenderEmail: &v.SenderEmail,
			SenderName:  &v.SenderName,
		}, nil
	default:
		return EmailConfigView{Type: KindShared}, nil
	}
}

func hasEnabledMethod(methods []repository.AuthMethodConfig, match func(repository.AuthMethodConfig) bool) bool {
	for _, m := range methods {
		if m.Enabled && match(m) {
			return true
		}
	}
	return false
}

func flattenDomains(domains []repository.Domain) []DomainView {
	out := make([]DomainView, 0, len(domains))
	for _, d := range domains {
		out = append(out, DomainView{Domain: d.Domain, HandlerPath: d.HandlerPath})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Domain < out[j].Domain })
	return out
}

// defaultPermissionRefs une permisos custom marcados como default con los
// permisos de sistema default de la config. No deduplica: si un custom
// comparte id con un permiso de sistema, ambos aparecen.
func defaultPermissionRefs(perms []repository.Permission, system []repository.SystemPermission, isDefault func(repository.Permission) bool) []PermissionRef {
	ids := make([]string, 0, len(perms)+len(system))
	for _, p := range perms {
		if isDefault(p) {
			ids = append(ids, p.QueryableID)
		}
	}
	for _, sp := range system {
		ids = append(ids, SystemPermissionID(sp))
	}
	sort.Strings(ids)

	out := make([]PermissionRef, 0, len(ids))
	for _, id := range ids {
		out = append(out, PermissionRef{ID: id})
	}
	return out
}
