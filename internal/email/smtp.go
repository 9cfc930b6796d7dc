package email

import (
	"context"
	"crypto/tls"
	"fmt"

	mail "github.com/go-mail/mail"

	"github.com/dropDatabas3/hellojohn-projects/internal/observability/logger"
)

// Message es un email multipart (texto + html).
type Message struct {
	To       string
	Subject  string
	HTMLBody string
	TextBody string
}

// Sender envía emails.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPConfig parámetros de un servidor SMTP.
type SMTPConfig struct {
	Host      string
	Port      int
	Username  string
	Password  string
	FromEmail string
	FromName  string
	TLSMode   string // "auto" | "starttls" | "ssl" | "none"
}

// dialer es el subconjunto de *mail.Dialer que usa SMTPSender.
type dialer interface {
	DialAndSend(m ...*mail.Message) error
}

// SMTPSender implementa Sender usando SMTP.
type SMTPSender struct {
	cfg     SMTPConfig
	newDial func(cfg SMTPConfig) dialer
}

// NewSMTPSender crea un SMTPSender; TLSMode vacío equivale a "auto".
func NewSMTPSender(cfg SMTPConfig) *SMTPSender {
	if cfg.TLSMode == "" {
		cfg.TLSMode = "auto"
	}
	return &SMTPSender{cfg: cfg, newDial: goMailDialer}
}

// Config retorna la configuración efectiva (tests / diagnóstico).
func (s *SMTPSender) Config() SMTPConfig { return s.cfg }

func goMailDialer(cfg SMTPConfig) dialer {
	d := mail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	d.TLSConfig = &tls.Config{ServerName: cfg.Host}
	switch cfg.TLSMode {
	case "ssl":
		d.SSL = true
	case "none":
		d.StartTLSPolicy = mail.NoStartTLS
	default:
		// "auto"/"starttls": go-mail negocia STARTTLS si corresponde
	}
	return d
}

// Send envía msg con contenido HTML y texto plano.
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	log := logger.From(ctx).With(
		logger.Component("email.smtp"),
		logger.String("host", s.cfg.Host),
		logger.Int("port", s.cfg.Port),
	)

	m := mail.NewMessage()
	if s.cfg.FromName != "" {
		m.SetAddressHeader("From", s.cfg.FromEmail, s.cfg.FromName)
	} else {
		m.SetHeader("From", s.cfg.FromEmail)
	}
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)

	// Preferimos multipart/alternative (txt + html)
	if msg.TextBody != "" {
		m.SetBody("text/plain", msg.TextBody)
	}
	if msg.HTMLBody != "" {
		if msg.TextBody == "" {
			m.SetBody("text/html", msg.HTMLBody)
		} else {
			m.AddAlternative("text/html", msg.HTMLBody)
		}
	}

	if err := s.newDial(s.cfg).DialAndSend(m); err != nil {
		log.Error("smtp send failed", logger.Err(err))
		return fmt.Errorf("smtp send: %w", err)
	}
	log.Debug("email sent", logger.String("tls_mode", s.cfg.TLSMode))
	return nil
}
