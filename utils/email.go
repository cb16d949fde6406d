package utils

import (
	"gopkg.in/gomail.v2"

	"github.com/meinhoongagan/home-services/config"
)

// EmailSender delivers HTML mail over SMTP.
type EmailSender struct {
	from   string
	dialer *gomail.Dialer
}

func NewEmailSender(cfg config.SMTPConfig) *EmailSender {
	return &EmailSender{
		from:   cfg.From,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Pass),
	}
}

func (s *EmailSender) SendEmail(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	return s.dialer.DialAndSend(m)
}
