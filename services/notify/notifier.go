package notify

import (
	"fmt"
	"net/smtp"
	"os"
	"strings"

	"property-sales/logger"
)

// Notifier is the fire-and-forget notification surface of the workflow.
// Failures are logged, never retried by the core, and never abort the owning
// operation; dispatch happens after the entity transaction commits.
type Notifier interface {
	SendMail(to []string, subject string, htmlBody string)
	SendPush(tokens []string, title, body string, data map[string]string)
}

// SMTPNotifier delivers mail over plain SMTP and logs push payloads for the
// gateway to pick up.
type SMTPNotifier struct{}

// NewSMTPNotifier creates a new SMTP-backed notifier
func NewSMTPNotifier() *SMTPNotifier {
	return &SMTPNotifier{}
}

// SendMail dispatches asynchronously; the caller never blocks on delivery.
func (n *SMTPNotifier) SendMail(to []string, subject string, htmlBody string) {
	go func() {
		if err := sendEmail(to, subject, htmlBody); err != nil {
			logger.Error("Failed to send email", err)
		}
	}()
}

// SendPush logs the push payload. Delivery runs through the external push
// gateway, out of scope for the core.
func (n *SMTPNotifier) SendPush(tokens []string, title, body string, data map[string]string) {
	go func() {
		logger.Info(fmt.Sprintf("Push queued for %d device(s): %s - %s", len(tokens), title, body))
	}()
}

// sendEmail sends a single HTML email over SMTP.
func sendEmail(to []string, subject string, htmlBody string) error {
	smtpHost := os.Getenv("SMTP_HOST")
	smtpPort := os.Getenv("SMTP_PORT")
	from := os.Getenv("SMTP_SENDER")
	password := os.Getenv("SMTP_PASSWORD")

	if smtpHost == "" || from == "" {
		return fmt.Errorf("SMTP_HOST or SMTP_SENDER is not set")
	}
	if smtpPort == "" {
		smtpPort = "587"
	}

	// MIME basics
	msg := "MIME-version: 1.0;\nContent-Type: text/html; charset=\"UTF-8\";\n"
	msg += fmt.Sprintf("From: Property Sales <%s>\r\n", from)
	msg += fmt.Sprintf("To: %s\r\n", strings.Join(to, ","))
	msg += fmt.Sprintf("Subject: %s\r\n\r\n", subject)
	msg += htmlBody

	auth := smtp.PlainAuth("", from, password, smtpHost)
	return smtp.SendMail(smtpHost+":"+smtpPort, auth, from, to, []byte(msg))
}

// EmailTemplate wraps body content in the standard layout.
func EmailTemplate(title string, bodyContent string) string {
	return fmt.Sprintf(`
	<!DOCTYPE html>
	<html>
	<head>
		<style>
			body { font-family: 'Helvetica Neue', Helvetica, Arial, sans-serif; background-color: #F6F6F6; margin: 0; padding: 0; }
			.container { max-width: 600px; margin: 40px auto; background: #FFFFFF; border-radius: 8px; overflow: hidden; }
			.header { background-color: #1A2B4C; padding: 30px; text-align: center; }
			.header h1 { color: #FFFFFF; margin: 0; font-size: 24px; letter-spacing: 1px; }
			.content { padding: 40px 30px; color: #1A2B4C; line-height: 1.6; }
			.footer { background-color: #F6F6F6; padding: 20px; text-align: center; font-size: 12px; color: #666666; }
			.btn { display: inline-block; padding: 12px 24px; background-color: #C8A558; color: #FFFFFF; text-decoration: none; border-radius: 4px; font-weight: bold; margin-top: 20px; }
		</style>
	</head>
	<body>
		<div class="container">
			<div class="header">
				<h1>PROPERTY SALES</h1>
			</div>
			<div class="content">
				<h2>%s</h2>
				%s
			</div>
			<div class="footer">
				This is an automated message. Please do not reply.
			</div>
		</div>
	</body>
	</html>`, title, bodyContent)
}
