package mailer

import (
	"github.com/stayvista/stayvista-api/pkg/logger"
)

// DevMailer logs mail instead of sending it.
type DevMailer struct{}

func NewDevMailer() *DevMailer {
	return &DevMailer{}
}

func (d *DevMailer) Send(toEmail, toName, subject, text, html string) (string, error) {
	logger.Info("[DEV MAIL]",
		"to", toEmail,
		"name", toName,
		"subject", subject,
		"text", text,
	)
	return "dev-mail", nil
}

func (d *DevMailer) SendWelcome(toEmail, toName string) error {
	_, err := d.Send(toEmail, toName, "Welcome to StayVista", "your account is ready", "")
	return err
}
