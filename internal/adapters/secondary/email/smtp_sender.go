package email

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"

	"github.com/solvedesk/helpdesk-backend/internal/config"
	"github.com/solvedesk/helpdesk-backend/internal/core/ports"
)

// SMTPSender is a secondary adapter that delivers notification emails over
// plain SMTP. When no host is configured it runs in disabled mode: every send
// is logged and reported as successful, which keeps local development quiet
// without a mail server.
// It implements the ports.EmailSender interface.
type SMTPSender struct {
	host     string
	port     int
	from     string
	username string
	password string
	logger   *slog.Logger
}

// NewSMTPSender creates an email sender from the email configuration.
func NewSMTPSender(cfg config.EmailConfig, logger *slog.Logger) ports.EmailSender {
	return &SMTPSender{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		from:     cfg.FromAddress,
		username: cfg.SMTPUsername,
		password: cfg.SMTPPassword,
		logger:   logger.With("component", "smtp_sender"),
	}
}

// Send renders the template for the given kind and delivers it to the
// recipient address.
func (s *SMTPSender) Send(ctx context.Context, recipient string, kind ports.TemplateKind, data ports.TemplateData) error {
	subject, body := render(kind, data)

	if s.host == "" {
		s.logger.Info("email delivery disabled, logging instead",
			"to", recipient,
			"template", string(kind),
			"subject", subject,
		)
		return nil
	}

	msg := buildMessage(s.from, recipient, subject, body)

	addr := fmt.Sprintf("%s:%d", s.host, s.port)
	var auth smtp.Auth
	if s.username != "" {
		auth = smtp.PlainAuth("", s.username, s.password, s.host)
	}

	if err := smtp.SendMail(addr, auth, s.from, []string{recipient}, msg); err != nil {
		return fmt.Errorf("send mail to %s: %w", recipient, err)
	}

	s.logger.Info("email sent",
		"to", recipient,
		"template", string(kind),
		"ticket_reference", data.Ticket.Reference,
	)
	return nil
}

// render produces the subject and plain-text body for a template kind. The
// subject always carries the ticket reference tag so replies route back to
// the same ticket.
func render(kind ports.TemplateKind, data ports.TemplateData) (subject, body string) {
	tag := fmt.Sprintf("[#%s]", data.Ticket.Reference)

	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", data.RecipientName)

	switch kind {
	case ports.TemplateTicketCreated:
		subject = fmt.Sprintf("%s Ticket created: %s", tag, data.Ticket.Title)
		fmt.Fprintf(&b, "Your ticket %q has been created.\n", data.Ticket.Title)
		fmt.Fprintf(&b, "Current status: %s\n", data.Ticket.Status)

	case ports.TemplateTicketUpdated:
		subject = fmt.Sprintf("%s Ticket updated: %s", tag, data.Ticket.Title)
		fmt.Fprintf(&b, "Your ticket %q has been updated.\n", data.Ticket.Title)
		for _, change := range data.Changes {
			fmt.Fprintf(&b, "  - %s\n", change)
		}

	case ports.TemplateTicketAssigned:
		subject = fmt.Sprintf("%s Ticket assigned to you: %s", tag, data.Ticket.Title)
		fmt.Fprintf(&b, "Ticket %q has been assigned to you.\n", data.Ticket.Title)
		fmt.Fprintf(&b, "Priority: %s\n", data.Ticket.Priority)

	case ports.TemplateCommentAdded:
		subject = fmt.Sprintf("%s New comment on: %s", tag, data.Ticket.Title)
		fmt.Fprintf(&b, "A new comment was added to ticket %q", data.Ticket.Title)
		if data.Comment != nil {
			fmt.Fprintf(&b, " by %s:\n\n%s\n", data.Comment.AuthorName, data.Comment.Body)
		} else {
			b.WriteString(".\n")
		}

	default:
		subject = fmt.Sprintf("%s Ticket notification: %s", tag, data.Ticket.Title)
		fmt.Fprintf(&b, "There is new activity on ticket %q.\n", data.Ticket.Title)
	}

	b.WriteString("\nReply to this email to add a comment to the ticket.\n")
	return subject, b.String()
}

// buildMessage assembles an RFC 5322 message with CRLF line endings.
func buildMessage(from, to, subject, body string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	return []byte(b.String())
}
