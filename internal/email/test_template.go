package email

import "fmt"

// ─── Test Email Template ───

const testEmailStyles = `
body { font-family: 'Helvetica Neue', Helvetica, Arial, sans-serif; background-color: #f4f4f7; color: #333; margin: 0; padding: 0; }
.container { width: 100%%; max-width: 600px; margin: 0 auto; background-color: #ffffff; border-radius: 12px; overflow: hidden; }
.header { background: linear-gradient(135deg, #667eea 0%%, #764ba2 100%%); padding: 40px; text-align: center; }
.header h1 { color: #ffffff; margin: 0; font-size: 26px; }
.content { padding: 40px; line-height: 1.7; }
.timestamp { color: #999; font-size: 12px; margin-top: 16px; }
`

// TestEmailContent arma el email de prueba de la configuración de email.
func TestEmailContent(projectName, timestamp string) Message {
	return Message{
		Subject: fmt.Sprintf("Email configuration works - %s", projectName),
		HTMLBody: fmt.Sprintf(`<!doctype html>
<html>
<head><meta name="viewport" content="width=device-width, initial-scale=1.0"><style>%s</style></head>
<body>
  <div style="padding: 40px 20px;">
    <div class="container">
      <div class="header"><h1>%s</h1></div>
      <div class="content">
        <p>This is a test email confirming that the email configuration for <strong>%s</strong> is working.</p>
        <p>If you didn't request this test, you can ignore this message.</p>
        <p class="timestamp">Sent: %s</p>
      </div>
    </div>
  </div>
</body>
</html>`, testEmailStyles, projectName, projectName, timestamp),
		TextBody: fmt.Sprintf(`Email configuration works - %s

This is a test email confirming that the email configuration for %s is working.

Sent: %s`, projectName, projectName, timestamp),
	}
}
