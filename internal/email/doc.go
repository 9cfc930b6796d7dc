// Package email envía emails usando la configuración de email resuelta de
// cada proyecto.
//
//	HTTP (POST /v2/projects/{id}/email/test)
//	  │
//	  ▼
//	Service.SendTest(ctx, projectID, to)
//	  │  LoadGraph + projects.ResolveEmailService
//	  ▼
//	SenderFor(variant, platform)
//	  ├─ shared   → SMTP de la plataforma (config.SMTP)
//	  └─ standard → SMTP propio del proyecto
//	  │
//	  ▼
//	SMTPSender (go-mail)
package email
