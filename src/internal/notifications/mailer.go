package notifications

import (
	"crypto/tls"
	"fmt"

	"github.com/spf13/viper"
	"gopkg.in/gomail.v2"
)

// Mailer mirrors notifications to email over SMTP
type Mailer struct {
	cfg    *viper.Viper
	dialer *gomail.Dialer
}

// NewMailer creates a new mailer instance
func NewMailer(cfg *viper.Viper) *Mailer {
	var dialer *gomail.Dialer

	if cfg.GetBool("email.enabled") {
		host := cfg.GetString("email.smtp.host")
		port := cfg.GetInt("email.smtp.port")
		username := cfg.GetString("email.smtp.username")
		password := cfg.GetString("email.smtp.password")

		dialer = gomail.NewDialer(host, port, username, password)

		if cfg.GetBool("email.smtp.use_tls") {
			dialer.TLSConfig = &tls.Config{
				ServerName:         host,
				InsecureSkipVerify: cfg.GetBool("email.smtp.skip_verify"),
			}
		}
	}

	return &Mailer{
		cfg:    cfg,
		dialer: dialer,
	}
}

// Enabled reports whether SMTP delivery is configured
func (m *Mailer) Enabled() bool {
	return m.dialer != nil && m.cfg.GetBool("email.enabled")
}

// Send sends one plain-text email
func (m *Mailer) Send(toEmail, toName, subject, body string) error {
	if !m.Enabled() {
		return fmt.Errorf("email sending is disabled")
	}

	message := gomail.NewMessage()
	message.SetHeader("From", message.FormatAddress(
		m.cfg.GetString("email.from_address"),
		m.cfg.GetString("email.from_name"),
	))
	message.SetHeader("To", message.FormatAddress(toEmail, toName))
	message.SetHeader("Subject", subject)
	message.SetBody("text/plain", body)

	return m.dialer.DialAndSend(message)
}
