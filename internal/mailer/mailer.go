package mailer

import (
	"fmt"
	"net/smtp"

	"github.com/rs/zerolog"

	"skillsphere/internal/model"
)

type Config struct {
	Host     string
	Port     string
	From     string
	Password string
}

type Mailer struct {
	cfg Config
	log *zerolog.Logger
}

func New(cfg Config, log *zerolog.Logger) *Mailer {
	return &Mailer{cfg: cfg, log: log}
}

// SendRegistrationEmail notifies a user about the current state of their
// event registration. Best effort: callers log and move on when it fails.
func (m *Mailer) SendRegistrationEmail(eventTitle, status, recipientEmail string) error {
	var subject, body string
	switch status {
	case model.RegistrationStatusRegistered:
		subject = "Your registration is confirmed"
		body = fmt.Sprintf("Hello!\n\nYour registration for \"%s\" is confirmed. See you there!", eventTitle)
	case model.RegistrationStatusPending:
		subject = "Your registration is awaiting approval"
		body = fmt.Sprintf("Hello!\n\nYour registration for \"%s\" has been received and is awaiting organizer approval. You will be notified once it is decided.", eventTitle)
	case model.RegistrationStatusRejected:
		subject = "Your registration was declined"
		body = fmt.Sprintf("Hello!\n\nYour registration for \"%s\" was not approved.", eventTitle)
	case model.RegistrationStatusCancelled:
		subject = "Your registration was cancelled"
		body = fmt.Sprintf("Hello!\n\nYour registration for \"%s\" has been cancelled.", eventTitle)
	default:
		return fmt.Errorf("unknown registration status %q", status)
	}

	return m.send(recipientEmail, subject, body)
}

// SendMembershipEmail notifies a user about an organization join request
// decision.
func (m *Mailer) SendMembershipEmail(orgName, status, recipientEmail string) error {
	var subject, body string
	switch status {
	case model.MembershipStatusMember:
		subject = "Your join request was approved"
		body = fmt.Sprintf("Hello!\n\nYou are now a member of \"%s\".", orgName)
	case model.MembershipStatusRejected:
		subject = "Your join request was declined"
		body = fmt.Sprintf("Hello!\n\nYour request to join \"%s\" was not approved.", orgName)
	default:
		return fmt.Errorf("unknown membership status %q", status)
	}

	return m.send(recipientEmail, subject, body)
}

func (m *Mailer) send(recipient, subject, body string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s",
		m.cfg.From, recipient, subject, body,
	)

	addr := m.cfg.Host + ":" + m.cfg.Port
	auth := smtp.PlainAuth("", m.cfg.From, m.cfg.Password, m.cfg.Host)

	if err := smtp.SendMail(addr, auth, m.cfg.From, []string{recipient}, []byte(msg)); err != nil {
		m.log.Warn().Msgf("failed to send email to %s: %v", recipient, err)
		return fmt.Errorf("send email: %w", err)
	}

	m.log.Info().Msgf("email sent to %s (%s)", recipient, subject)
	return nil
}
