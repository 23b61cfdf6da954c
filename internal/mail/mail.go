// Package mail sends the out-of-band verification email for local
// registrations.
package mail

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"
)

// Mailer delivers a verification link to a freshly registered address.
//
// Delivery is best-effort from the registration flow's point of view: a
// send failure never rolls the account back and never marks it verified —
// the user can ask for the mail again or contact support. The service layer
// surfaces the failure to the caller as a soft error.
type Mailer interface {
	SendVerification(ctx context.Context, to, name, verifyURL string) error
}

// SMTPMailer sends mail through a plain SMTP relay (e.g. a Gmail app
// password, or any transactional provider's SMTP endpoint).
type SMTPMailer struct {
	addr string // host:port
	auth smtp.Auth
	from string
}

// NewSMTPMailer configures an SMTPMailer.
//
// host/port point at the relay, user/pass are its credentials, from is the
// envelope and header sender.
func NewSMTPMailer(host, port, user, pass, from string) *SMTPMailer {
	return &SMTPMailer{
		addr: host + ":" + port,
		auth: smtp.PlainAuth("", user, pass, host),
		from: from,
	}
}

var _ Mailer = (*SMTPMailer)(nil)

// SendVerification sends the verification email.
//
// net/smtp has no context support, so cancellation only takes effect between
// the call and the dial. Acceptable here: the send already happens outside
// the request's critical path and its failure is non-fatal.
func (m *SMTPMailer) SendVerification(_ context.Context, to, name, verifyURL string) error {
	msg := buildVerificationMessage(m.from, to, name, verifyURL)

	if err := smtp.SendMail(m.addr, m.auth, m.from, []string{to}, msg); err != nil {
		return fmt.Errorf("mail: sending verification to %s: %w", to, err)
	}
	return nil
}

// buildVerificationMessage assembles the raw RFC 5322 message.
func buildVerificationMessage(from, to, name, verifyURL string) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: Verify your account - Tenderboard\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString("<p>Hi " + name + ",</p>")
	b.WriteString("<p>Click the link below to verify your account:</p>")
	b.WriteString(`<a href="` + verifyURL + `">` + verifyURL + "</a>")
	return []byte(b.String())
}

// LogMailer is a Mailer for development and tests: it logs the verification
// URL instead of sending anything.
type LogMailer struct {
	logger *slog.Logger
}

func NewLogMailer(logger *slog.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

var _ Mailer = (*LogMailer)(nil)

func (m *LogMailer) SendVerification(_ context.Context, to, _, verifyURL string) error {
	m.logger.Info("verification mail (not sent — no SMTP configured)",
		slog.String("to", to),
		slog.String("url", verifyURL),
	)
	return nil
}
