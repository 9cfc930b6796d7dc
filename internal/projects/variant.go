package projects

import (
	"github.com/dropDatabas3/hellojohn-projects/internal/domain/repository"
)

// Variant kinds expuestos en la vista plana.
const (
	KindShared   = "shared"
	KindStandard = "standard"
)

// OAuthProviderVariant es la forma resuelta de un OAuthProviderConfig:
// SharedOAuthProvider o StandardOAuthProvider.
type OAuthProviderVariant interface {
	Kind() string
	ProviderType() string
	isOAuthProviderVariant()
}

// SharedOAuthProvider variante con credenciales compartidas de la plataforma.
type SharedOAuthProvider struct {
	Type string
}

func (SharedOAuthProvider) Kind() string            { return KindShared }
func (v SharedOAuthProvider) ProviderType() string  { return v.Type }
func (SharedOAuthProvider) isOAuthProviderVariant() {}

// StandardOAuthProvider variante con credenciales del tenant.
type StandardOAuthProvider struct {
	Type              string
	ClientID          string
	ClientSecret      string
	FacebookConfigID  *string
	MicrosoftTenantID *string
}

func (StandardOAuthProvider) Kind() string            { return KindStandard }
func (v StandardOAuthProvider) ProviderType() string  { return v.Type }
func (StandardOAuthProvider) isOAuthProviderVariant() {}

// EmailServiceVariant es la forma resuelta de un EmailServiceConfig.
type EmailServiceVariant interface {
	Kind() string
	isEmailServiceVariant()
}

// SharedEmailService usa el SMTP de la plataforma.
type SharedEmailService struct{}

func (SharedEmailService) Kind() string           { return KindShared }
func (SharedEmailService) isEmailServiceVariant() {}

// StandardEmailService SMTP propio del tenant.
type StandardEmailService struct {
	Host        string
	Port        int
	Username    string
	Password    string
	SenderEmail string
	SenderName  string
}

func (StandardEmailService) Kind() string           { return KindStandard }
func (StandardEmailService) isEmailServiceVariant() {}

// ResolveOAuthProvider convierte las dos ramas opcionales de la fila en una
// variante única. Ambas o ninguna => InvariantViolation.
func ResolveOAuthProvider(configID string, p repository.OAuthProviderConfig) (OAuthProviderVariant, error) {
	record := "oauth_provider_config:" + configID + "/" + p.ID
	switch {
	case p.Shared != nil && p.Standard != nil:
		return nil, invariantf(record, "both shared and standard variants are set")
	case p.Shared != nil:
		return SharedOAuthProvider{Type: p.Shared.Type}, nil
	case p.Standard != nil:
		s := p.Standard
		return StandardOAuthProvider{
			Type:              s.Type,
			ClientID:          s.ClientID,
			ClientSecret:      s.ClientSecret,
			FacebookConfigID:  s.FacebookConfigID,
			MicrosoftTenantID: s.MicrosoftTenantID,
		}, nil
	default:
		return nil, invariantf(record, "neither shared nor standard variant is set")
	}
}

// ResolveEmailService igual que ResolveOAuthProvider para la config de email.
// Una config ausente también es InvariantViolation: todo proyecto tiene una.
func ResolveEmailService(configID string, e *repository.EmailServiceConfig) (EmailServiceVariant, error) {
	record := "email_service_config:" + configID
	if e == nil {
		return nil, invariantf(record, "project config has no email service config")
	}
	switch {
	case e.Shared != nil && e.Standard != nil:
		return nil, invariantf(record, "both shared and standard variants are set")
	case e.Shared != nil:
		return SharedEmailService{}, nil
	case e.Standard != nil:
		s := e.Standard
		return StandardEmailService{
			Host:        s.Host,
			Port:        s.Port,
			Username:    s.Username,
			Password:    s.Password,
			SenderEmail: s.SenderEmail,
			SenderName:  s.SenderName,
		}, nil
	default:
		return nil, invariantf(record, "neither shared nor standard variant is set")
	}
}
