package repository

import (
	"context"
	"time"
)

// InternalProjectID es el namespace donde viven los usuarios administradores
// de la plataforma (owners de otros proyectos).
const InternalProjectID = "internal"

// Project representa un tenant de la plataforma de identidad.
type Project struct {
	ID               string
	DisplayName      string
	Description      string
	IsProductionMode bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
	// UserCount es derivado (COUNT sobre los usuarios del proyecto), no persistido.
	UserCount int
	Config    ProjectConfig
}

// ProjectConfig es el grafo de configuración 1:1 de un proyecto.
type ProjectConfig struct {
	ID                        string
	SignUpEnabled             bool
	AllowLocalhost            bool
	CreateTeamOnSignUp        bool
	ClientTeamCreationEnabled bool
	ClientUserDeletionEnabled bool
	LegacyGlobalJWTSigning    bool

	// Permisos de sistema otorgados por defecto al creador / miembro de un team,
	// además de los permisos custom marcados como default.
	TeamCreatorDefaultSystemPermissions []SystemPermission
	TeamMemberDefaultSystemPermissions  []SystemPermission

	Domains           []Domain
	OAuthProviders    []OAuthProviderConfig
	AuthMethods       []AuthMethodConfig
	ConnectedAccounts []ConnectedAccountConfig
	Permissions       []Permission
	EmailService      *EmailServiceConfig
}

// Domain es un dominio custom habilitado para los handlers del proyecto.
// Único por (config, domain).
type Domain struct {
	Domain      string
	HandlerPath string
}

// ─── OAuth providers ───

// OAuthProviderConfig es un proveedor OAuth configurado, único por (config, ID).
// Exactamente una de las variantes debe estar presente; el write path es
// responsable de respetarlo.
type OAuthProviderConfig struct {
	ID       string // ej: "google"
	Shared   *SharedOAuthProviderConfig
	Standard *StandardOAuthProviderConfig
}

// SharedOAuthProviderConfig usa el pool de credenciales compartidas de la plataforma.
type SharedOAuthProviderConfig struct {
	Type string // enum en mayúsculas, ej: "GOOGLE"
}

// StandardOAuthProviderConfig usa credenciales propias del tenant.
type StandardOAuthProviderConfig struct {
	Type              string
	ClientID          string
	ClientSecret      string
	FacebookConfigID  *string
	MicrosoftTenantID *string
}

// ─── Auth methods ───

// ContactChannelType tipo de canal de contacto para OTP.
type ContactChannelType string

const ContactChannelEmail ContactChannelType = "EMAIL"

// AuthMethodConfig envuelve exactamente un mecanismo de autenticación con un flag enabled.
type AuthMethodConfig struct {
	ID       string
	Enabled  bool
	OAuth    *OAuthAuthMethod
	OTP      *OTPAuthMethod
	Password *PasswordAuthMethod
	Passkey  *PasskeyAuthMethod
}

// OAuthAuthMethod referencia un OAuthProviderConfig de la misma config.
type OAuthAuthMethod struct {
	OAuthProviderConfigID string
}

// OTPAuthMethod one-time-code (magic link) sobre un canal de contacto.
type OTPAuthMethod struct {
	ContactChannelType ContactChannelType
}

// PasswordAuthMethod credencial usuario/contraseña.
type PasswordAuthMethod struct{}

// PasskeyAuthMethod WebAuthn passkeys.
type PasskeyAuthMethod struct{}

// ConnectedAccountConfig es el duplicado legacy de los auth methods OAuth,
// usado por el subsistema de cuentas externas vinculadas.
type ConnectedAccountConfig struct {
	ID                    string
	Enabled               bool
	OAuthProviderConfigID string
}

// ─── Email ───

// EmailServiceConfig configuración de envío de emails. Exactamente una variante.
type EmailServiceConfig struct {
	Shared   *SharedEmailServiceConfig
	Standard *StandardEmailServiceConfig
}

// SharedEmailServiceConfig usa el SMTP de la plataforma.
type SharedEmailServiceConfig struct{}

// StandardEmailServiceConfig SMTP propio del tenant.
type StandardEmailServiceConfig struct {
	Host        string
	Port        int
	Username    string
	Password    string
	SenderEmail string
	SenderName  string
}

// ─── Permisos ───

// SystemPermission es uno de los permisos de team incorporados (conjunto cerrado).
type SystemPermission string

const (
	SystemPermissionUpdateTeam    SystemPermission = "UPDATE_TEAM"
	SystemPermissionDeleteTeam    SystemPermission = "DELETE_TEAM"
	SystemPermissionReadMembers   SystemPermission = "READ_MEMBERS"
	SystemPermissionRemoveMembers SystemPermission = "REMOVE_MEMBERS"
	SystemPermissionInviteMembers SystemPermission = "INVITE_MEMBERS"
	SystemPermissionManageAPIKeys SystemPermission = "MANAGE_API_KEYS"
)

// SystemPermissions lista el enum completo.
var SystemPermissions = []SystemPermission{
	SystemPermissionUpdateTeam,
	SystemPermissionDeleteTeam,
	SystemPermissionReadMembers,
	SystemPermissionRemoveMembers,
	SystemPermissionInviteMembers,
	SystemPermissionManageAPIKeys,
}

// Valid reporta si p pertenece al enum.
func (p SystemPermission) Valid() bool {
	for _, sp := range SystemPermissions {
		if sp == p {
			return true
		}
	}
	return false
}

// PermissionScope alcance de un permiso. Solo TEAM en este dominio.
type PermissionScope string

const PermissionScopeTeam PermissionScope = "TEAM"

// Permission permiso custom de team definido por el proyecto.
type Permission struct {
	DBID                           string
	QueryableID                    string
	Description                    string
	Scope                          PermissionScope
	IsDefaultTeamCreatorPermission bool
	IsDefaultTeamMemberPermission  bool
	Parents                        []PermissionEdge
}

// PermissionEdge apunta a un permiso padre: otro permiso custom (por DBID)
// o un permiso de sistema. Exactamente uno de los dos.
type PermissionEdge struct {
	ParentPermissionDBID   *string
	ParentSystemPermission *SystemPermission
}

// SystemParent construye un edge hacia un permiso de sistema.
func SystemParent(p SystemPermission) PermissionEdge {
	return PermissionEdge{ParentSystemPermission: &p}
}

// CustomParent construye un edge hacia otro permiso custom.
func CustomParent(dbID string) PermissionEdge {
	return PermissionEdge{ParentPermissionDBID: &dbID}
}

// ─── Repositorio ───

// ProjectRepository define las operaciones sobre el grafo de configuración.
// Dentro de Store.InTx todas las escrituras comparten la misma transacción.
type ProjectRepository interface {
	// CreateProject inserta el proyecto y los escalares de su config.
	// Retorna ErrConflict si el ID ya existe.
	CreateProject(ctx context.Context, p *Project) error

	// AddDomain agrega un dominio. ErrConflict si (config, domain) ya existe.
	AddDomain(ctx context.Context, configID string, d Domain) error

	// AddOAuthProvider agrega un proveedor con su variante.
	// ErrConflict si (config, provider) ya existe.
	AddOAuthProvider(ctx context.Context, configID string, p OAuthProviderConfig) error

	// SetEmailService guarda la configuración de email (una por config).
	SetEmailService(ctx context.Context, configID string, e EmailServiceConfig) error

	// AddAuthMethod agrega un auth method con su mecanismo.
	AddAuthMethod(ctx context.Context, configID string, m AuthMethodConfig) error

	// AddConnectedAccount agrega un connected account config.
	AddConnectedAccount(ctx context.Context, configID string, c ConnectedAccountConfig) error

	// AddPermission agrega un permiso custom y sus edges.
	AddPermission(ctx context.Context, projectID, configID string, p Permission) error

	// LoadGraph carga el proyecto con su config completa.
	// Retorna ErrNotFound si no existe.
	LoadGraph(ctx context.Context, projectID string) (*Project, error)
}
