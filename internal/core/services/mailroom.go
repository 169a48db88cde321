package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/solvedesk/helpdesk-backend/internal/core/domain"
	apperrors "github.com/solvedesk/helpdesk-backend/internal/core/errors"
	"github.com/solvedesk/helpdesk-backend/internal/core/ports"
)

var (
	// "Jane Doe <jane@example.com>" -> jane@example.com
	addressPattern = regexp.MustCompile(`<(.+?)>`)

	// "Re: Printer broken [#3f9c2a1b]" -> 3f9c2a1b
	referencePattern = regexp.MustCompile(`\[#([0-9a-fA-F]{8})\]`)
)

// InboundEmail is the normalized shape of an inbound-parse webhook payload.
type InboundEmail struct {
	From    string
	To      string
	Subject string
	Text    string
}

// InboundResult reports what an inbound email turned into.
type InboundResult struct {
	TicketID  uuid.UUID
	Reference string
	// NewTicket is false when the email was matched to an existing ticket
	// and appended as a comment.
	NewTicket bool
}

// Mailroom converts inbound support email into tickets and comments. A
// subject carrying a ticket reference tag routes the mail to the existing
// ticket as a comment; anything else opens a new ticket. Both paths announce
// the resulting fact through the event core.
type Mailroom struct {
	intake    ports.TicketIntake
	users     ports.UserDirectory
	tenants   ports.TenantDirectory
	announcer *Announcer
	logger    *slog.Logger
}

// NewMailroom creates the inbound email service.
func NewMailroom(
	intake ports.TicketIntake,
	users ports.UserDirectory,
	tenants ports.TenantDirectory,
	announcer *Announcer,
	logger *slog.Logger,
) *Mailroom {
	return &Mailroom{
		intake:    intake,
		users:     users,
		tenants:   tenants,
		announcer: announcer,
		logger:    logger.With("component", "mailroom"),
	}
}

// ProcessInboundEmail handles one inbound message end to end.
func (m *Mailroom) ProcessInboundEmail(ctx context.Context, mail InboundEmail) (*InboundResult, error) {
	senderAddr := ExtractAddress(mail.From)
	if senderAddr == "" {
		return nil, apperrors.ErrEmptySender
	}

	subject := strings.TrimSpace(mail.Subject)
	if subject == "" {
		return nil, apperrors.ErrEmptySubject
	}

	tenant, err := m.tenants.ResolveByInboundAddress(ctx, ExtractAddress(mail.To))
	if err != nil {
		m.logger.Warn("no tenant for inbound address", "to", mail.To, "error", err)
		return nil, apperrors.ErrInvalidRecipient
	}

	sender, err := m.users.FindOrCreateCustomer(ctx, tenant.ID, senderAddr, displayName(mail.From, senderAddr))
	if err != nil {
		return nil, fmt.Errorf("resolve sender %s: %w", senderAddr, err)
	}

	if ref, ok := ExtractReference(subject); ok {
		result, err := m.appendToTicket(ctx, tenant, sender, ref, mail)
		if err == nil || !errors.Is(err, apperrors.ErrTicketNotFound) {
			return result, err
		}
		// Stale or foreign reference: fall through and open a new ticket.
		m.logger.Warn("referenced ticket not found, opening new ticket",
			"reference", ref,
			"tenant_id", tenant.ID,
		)
	}

	return m.openTicket(ctx, tenant, sender, subject, mail)
}

func (m *Mailroom) openTicket(ctx context.Context, tenant *domain.Tenant, sender *domain.User, subject string, mail InboundEmail) (*InboundResult, error) {
	ticket, err := m.intake.OpenTicket(ctx, ports.OpenTicketParams{
		TenantID:    tenant.ID,
		CreatorID:   sender.ID,
		Title:       subject,
		Description: strings.TrimSpace(mail.Text),
		Priority:    domain.PriorityMedium,
	})
	if err != nil {
		return nil, fmt.Errorf("open ticket from email: %w", err)
	}

	m.announcer.TicketCreated(ctx, *ticket)

	m.logger.Info("ticket opened from email",
		"ticket_id", ticket.ID,
		"tenant_id", tenant.ID,
		"sender", sender.Email,
	)
	return &InboundResult{TicketID: ticket.ID, Reference: ticket.Reference, NewTicket: true}, nil
}

func (m *Mailroom) appendToTicket(ctx context.Context, tenant *domain.Tenant, sender *domain.User, reference string, mail InboundEmail) (*InboundResult, error) {
	ticket, err := m.intake.FindByReference(ctx, tenant.ID, reference)
	if err != nil {
		return nil, err
	}

	comment, err := m.intake.AddComment(ctx, ports.AddCommentParams{
		TicketID: ticket.ID,
		AuthorID: sender.ID,
		Body:     strings.TrimSpace(mail.Text),
	})
	if err != nil {
		return nil, fmt.Errorf("append comment from email: %w", err)
	}
	comment.AuthorName = sender.FullName

	m.announcer.CommentCreated(ctx, *comment, *ticket)

	m.logger.Info("comment appended from email",
		"ticket_id", ticket.ID,
		"tenant_id", tenant.ID,
		"sender", sender.Email,
	)
	return &InboundResult{TicketID: ticket.ID, Reference: ticket.Reference, NewTicket: false}, nil
}

// ExtractAddress pulls the bare address out of a "Name <addr>" header value.
func ExtractAddress(header string) string {
	if match := addressPattern.FindStringSubmatch(header); match != nil {
		return strings.TrimSpace(match[1])
	}
	return strings.TrimSpace(header)
}

// ExtractReference finds a ticket reference tag in a subject line.
func ExtractReference(subject string) (string, bool) {
	if match := referencePattern.FindStringSubmatch(subject); match != nil {
		return strings.ToLower(match[1]), true
	}
	return "", false
}

// displayName derives a human name from the From header, falling back to the
// address local part for bare addresses.
func displayName(header, address string) string {
	name := strings.TrimSpace(addressPattern.ReplaceAllString(header, ""))
	name = strings.Trim(name, `" `)
	if name != "" && name != address {
		return name
	}
	if at := strings.Index(address, "@"); at > 0 {
		return address[:at]
	}
	return address
}
