package email

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dropDatabas3/hellojohn-projects/internal/domain/repository"
	"github.com/dropDatabas3/hellojohn-projects/internal/observability/logger"
	"github.com/dropDatabas3/hellojohn-projects/internal/projects"
	"github.com/dropDatabas3/hellojohn-projects/internal/util"
)

// ErrPlatformSMTPNotConfigured el proyecto usa el email compartido pero la
// plataforma no tiene SMTP configurado.
var ErrPlatformSMTPNotConfigured = errors.New("platform smtp not configured")

// SenderFor construye el Sender de una variante resuelta. La variante shared
// usa el SMTP de la plataforma.
func SenderFor(v projects.EmailServiceVariant, platform SMTPConfig) (*SMTPSender, error) {
	switch e := v.(type) {
	case projects.SharedEmailService:
		if platform.Host == "" {
			return nil, ErrPlatformSMTPNotConfigured
		}
		return NewSMTPSender(platform), nil
	case projects.StandardEmailService:
		return NewSMTPSender(SMTPConfig{
			Host:      e.Host,
			Port:      e.Port,
			Username:  e.Username,
			Password:  e.Password,
			FromEmail: e.SenderEmail,
			FromName:  e.SenderName,
		}), nil
	default:
		return nil, fmt.Errorf("email: unknown email service variant %T", v)
	}
}

// Service envía emails en nombre de un proyecto.
type Service struct {
	store    repository.Store
	platform SMTPConfig
	now      func() time.Time

	// senderFor se reemplaza en tests.
	senderFor func(v projects.EmailServiceVariant, platform SMTPConfig) (Sender, error)
}

// NewService crea el servicio de email.
func NewService(store repository.Store, platform SMTPConfig) *Service {
	return &Service{
		store:    store,
		platform: platform,
		now:      time.Now,
		senderFor: func(v projects.EmailServiceVariant, platform SMTPConfig) (Sender, error) {
			return SenderFor(v, platform)
		},
	}
}

// SendTest envía un email de prueba a `to` usando la configuración de email
// del proyecto. Retorna el tipo de variante usada ("shared" | "standard").
func (s *Service) SendTest(ctx context.Context, projectID, to string) (string, error) {
	log := logger.From(ctx).With(
		logger.Component("email.service"),
		logger.Op("SendTest"),
		logger.ProjectID(projectID),
	)

	to = strings.TrimSpace(to)
	if to == "" || !strings.Contains(to, "@") {
		return "", &projects.ValidationError{Field: "to", Reason: "a valid recipient email is required"}
	}

	g, err := s.store.Projects().LoadGraph(ctx, projectID)
	if err != nil {
		return "", err
	}
	variant, err := projects.ResolveEmailService(g.Config.ID, g.Config.EmailService)
	if err != nil {
		log.Error("email config invariant violated", logger.Err(err))
		return "", err
	}

	sender, err := s.senderFor(variant, s.platform)
	if err != nil {
		return "", err
	}

	content := TestEmailContent(g.DisplayName, s.now().UTC().Format(time.RFC1123))
	content.To = to
	if err := sender.Send(ctx, content); err != nil {
		log.Warn("test email failed", logger.Email(util.MaskEmail(to)), logger.Err(err))
		return "", err
	}
	log.Info("test email sent", logger.Email(util.MaskEmail(to)), logger.String("variant", variant.Kind()))
	return variant.Kind(), nil
}
