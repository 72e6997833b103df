package mailer

type Service interface {
	Send(toEmail, toName, subject, text, html string) (string, error)
	SendWelcome(toEmail, toName string) error
}
