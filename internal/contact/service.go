// Package contact handles the public contact form: validated input relayed by
// mail to the site owner.
package contact

import (
	"fmt"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"github.com/galerie/service/internal/validation"
)

// Input is the validated contact form payload.
type Input struct {
	Name    string `json:"name" validate:"required,min=2,max=100"`
	Email   string `json:"email" validate:"required,email"`
	Message string `json:"message" validate:"required,min=10,max=5000"`
}

// Mailer sends a single plain-text message. Satisfied by SMTPMailer; tests
// substitute a fake.
type Mailer interface {
	Send(from, subject, body string) error
}

// SMTPMailer sends mail over SMTP via gomail.
type SMTPMailer struct {
	dialer *gomail.Dialer
	sender string
	to     string
}

// NewSMTPMailer creates a mailer delivering to the configured recipient.
func NewSMTPMailer(host string, port int, user, password, to string) *SMTPMailer {
	return &SMTPMailer{
		dialer: gomail.NewDialer(host, port, user, password),
		sender: user,
		to:     to,
	}
}

// Send delivers the message. The visitor's address goes into Reply-To; the
// From header must stay the authenticated account or most relays refuse it.
func (m *SMTPMailer) Send(from, subject, body string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.sender)
	msg.SetHeader("Reply-To", from)
	msg.SetHeader("To", m.to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)
	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}

// Service validates contact submissions and relays them by mail.
type Service struct {
	mailer Mailer
	log    *zap.Logger
}

// NewService creates a new contact Service.
func NewService(mailer Mailer, log *zap.Logger) *Service {
	return &Service{mailer: mailer, log: log}
}

// Submit validates the form and sends the message.
func (s *Service) Submit(in Input) error {
	if err := validation.Struct(in); err != nil {
		return err
	}

	subject := fmt.Sprintf("Message from %s via the contact form", in.Name)
	body := fmt.Sprintf("Name: %s\nEmail: %s\n\nMessage:\n%s", in.Name, in.Email, in.Message)
	if err := s.mailer.Send(in.Email, subject, body); err != nil {
		s.log.Error("contact mail failed", zap.String("email", in.Email), zap.Error(err))
		return err
	}

	s.log.Info("contact mail sent", zap.String("email", in.Email))
	return nil
}
