package projects

// ─── Vista plana (salida de Flatten) ───

// ProjectView es la vista determinística de un proyecto y su config.
type ProjectView struct {
	ID               string     `json:"id"`
	DisplayName      string     `json:"display_name"`
	Description      string     `json:"description"`
	CreatedAtMillis  int64      `json:"created_at_millis"`
	UserCount        int        `json:"user_count"`
	IsProductionMode bool       `json:"is_production_mode"`
	Config           ConfigView `json:"config"`
}

// ConfigView es la config aplanada. Las listas salen siempre ordenadas.
type ConfigView struct {
	ID                        string `json:"id"`
	AllowLocalhost            bool   `json:"allow_localhost"`
	SignUpEnabled             bool   `json:"sign_up_enabled"`
	CredentialEnabled         bool   `json:"credential_enabled"`
	MagicLinkEnabled          bool   `json:"magic_link_enabled"`
	PasskeyEnabled            bool   `json:"passkey_enabled"`
	CreateTeamOnSignUp        bool   `json:"create_team_on_sign_up"`
	ClientTeamCreationEnabled bool   `json:"client_team_creation_enabled"`
	ClientUserDeletionEnabled bool   `json:"client_user_deletion_enabled"`
	LegacyGlobalJWTSigning    bool   `json:"legacy_global_jwt_signing"`

	Domains               []DomainView        `json:"domains"`
	OAuthProviders        []OAuthProviderView `json:"oauth_providers"`
	EnabledOAuthProviders []OAuthProviderView `json:"enabled_oauth_providers"`
	EmailConfig           EmailConfigView     `json:"email_config"`

	TeamCreatorDefaultPermissions []PermissionRef `json:"team_creator_default_permissions"`
	TeamMemberDefaultPermissions  []PermissionRef `json:"team_member_default_permissions"`
}

// DomainView dominio habilitado; también se usa como input de creación.
type DomainView struct {
	Domain      string `json:"domain"`
	HandlerPath string `json:"handler_path"`
}

// OAuthProviderView proveedor aplanado. Los campos de credenciales solo
// aparecen para la variante standard.
type OAuthProviderView struct {
	ID                string  `json:"id"`
	Enabled           bool    `json:"enabled"`
	Type              string  `json:"type"`
	ClientID          *string `json:"client_id,omitempty"`
	ClientSecret      *string `json:"client_secret,omitempty"`
	FacebookConfigID  *string `json:"facebook_config_id,omitempty"`
	MicrosoftTenantID *string `json:"microsoft_tenant_id,omitempty"`
}

// EmailConfigView {type:"shared"} o {type:"standard", host, ...}.
type EmailConfigView struct {
	Type        string  `json:"type"`
	Host        *string `json:"host,omitempty"`
	Port        *int    `json:"port,omitempty"`
	Username    *string `json:"username,omitempty"`
	Password    *string `json:"password,omitempty"`
	SenderEmail *string `json:"sender_email,omitempty"`
	SenderName  *string `json:"sender_name,omitempty"`
}

// PermissionRef referencia pública a un permiso ({id}).
type PermissionRef struct {
	ID string `json:"id"`
}

// ─── Request de creación ───

// CreateProjectRequest misma forma que la vista con todos los campos de
// config opcionales. Las listas derivadas (enabled_oauth_providers,
// default permissions) las calcula el servidor.
type CreateProjectRequest struct {
	DisplayName      string               `json:"display_name"`
	Description      string               `json:"description,omitempty"`
	IsProductionMode *bool                `json:"is_production_mode,omitempty"`
	Config           *CreateConfigRequest `json:"config,omitempty"`
}

// CreateConfigRequest overrides opcionales de la config.
type CreateConfigRequest struct {
	AllowLocalhost            *bool `json:"allow_localhost,omitempty"`
	SignUpEnabled             *bool `json:"sign_up_enabled,omitempty"`
	CredentialEnabled         *bool `json:"credential_enabled,omitempty"`
	MagicLinkEnabled          *bool `json:"magic_link_enabled,omitempty"`
	PasskeyEnabled            *bool `json:"passkey_enabled,omitempty"`
	CreateTeamOnSignUp        *bool `json:"create_team_on_sign_up,omitempty"`
	ClientTeamCreationEnabled *bool `json:"client_team_creation_enabled,omitempty"`
	ClientUserDeletionEnabled *bool `json:"client_user_deletion_enabled,omitempty"`
	LegacyGlobalJWTSigning    *bool `json:"legacy_global_jwt_signing,omitempty"`

	Domains        []DomainView         `json:"domains,omitempty"`
	OAuthProviders []OAuthProviderInput `json:"oauth_providers,omitempty"`
	EmailConfig    *EmailConfigInput    `json:"email_config,omitempty"`
}

// OAuthProviderInput entrada de proveedor en el request de creación.
type OAuthProviderInput struct {
	ID                string  `json:"id"`
	Type              string  `json:"type"` // "shared" | "standard"
	Enabled           bool    `json:"enabled"`
	ClientID          *string `json:"client_id,omitempty"`
	ClientSecret      *string `json:"client_secret,omitempty"`
	FacebookConfigID  *string `json:"facebook_config_id,omitempty"`
	MicrosoftTenantID *string `json:"microsoft_tenant_id,omitempty"`
}

// EmailConfigInput config de email del request. Para "standard" todos los
// campos son requeridos.
type EmailConfigInput struct {
	Type        string  `json:"type"`
	Host        *string `json:"host,omitempty"`
	Port        *int    `json:"port,omitempty"`
	Username    *string `json:"username,omitempty"`
	Password    *string `json:"password,omitempty"`
	SenderEmail *string `json:"sender_email,omitempty"`
	SenderName  *string `json:"sender_name,omitempty"`
}
