package mail

import (
	"fmt"

	gomail "gopkg.in/gomail.v2"
)

// Message is a plaintext email.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Mailer defines the mail transport used for password recovery.
type Mailer interface {
	// Verify probes connectivity to the SMTP server without sending anything.
	Verify() error
	// Send delivers a plaintext message.
	Send(msg Message) error
}

// SMTPMailer sends mail through an SMTP server via gomail.
type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

// Ensure SMTPMailer implements Mailer
var _ Mailer = (*SMTPMailer)(nil)

// NewSMTPMailer creates a mailer for the given server. Authentication is only
// configured when both user and pass are set, matching unauthenticated local
// catchers like Mailhog.
func NewSMTPMailer(host string, port int, user, pass, from string) *SMTPMailer {
	var dialer *gomail.Dialer
	if user != "" && pass != "" {
		dialer = gomail.NewDialer(host, port, user, pass)
	} else {
		dialer = &gomail.Dialer{Host: host, Port: port}
	}
	return &SMTPMailer{dialer: dialer, from: from}
}

// Verify opens and closes an SMTP connection as a connectivity probe.
func (m *SMTPMailer) Verify() error {
	closer, err := m.dialer.Dial()
	if err != nil {
		return fmt.Errorf("dial smtp %s:%d: %w", m.dialer.Host, m.dialer.Port, err)
	}
	return closer.Close()
}

// Send delivers a plaintext message.
func (m *SMTPMailer) Send(msg Message) error {
	message := gomail.NewMessage()
	message.SetHeader("From", m.from)
	message.SetHeader("To", msg.To)
	message.SetHeader("Subject", msg.Subject)
	message.SetBody("text/plain", msg.Body)

	if err := m.dialer.DialAndSend(message); err != nil {
		return fmt.Errorf("send mail to %s: %w", msg.To, err)
	}
	return nil
}
