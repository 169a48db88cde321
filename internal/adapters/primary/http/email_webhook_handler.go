package http

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	apperrors "github.com/solvedesk/helpdesk-backend/internal/core/errors"
	"github.com/solvedesk/helpdesk-backend/internal/core/services"
)

// maxInboundEmailBytes bounds how much of an inbound-parse payload is read.
const maxInboundEmailBytes = 1 << 20

// InboundProcessor is what the webhook needs from the mailroom.
type InboundProcessor interface {
	ProcessInboundEmail(ctx context.Context, mail services.InboundEmail) (*services.InboundResult, error)
}

// EmailWebhookHandler receives inbound-parse callbacks (SendGrid style) and
// turns them into tickets or comments via the mailroom.
type EmailWebhookHandler struct {
	mailroom     InboundProcessor
	errorHandler *ErrorHandler
	webhookToken string
	logger       *slog.Logger
}

// NewEmailWebhookHandler creates the inbound email webhook handler. An empty
// webhookToken disables the shared-secret check (development only; Validate
// enforces it in production).
func NewEmailWebhookHandler(
	mailroom InboundProcessor,
	errorHandler *ErrorHandler,
	webhookToken string,
	logger *slog.Logger,
) *EmailWebhookHandler {
	return &EmailWebhookHandler{
		mailroom:     mailroom,
		errorHandler: errorHandler,
		webhookToken: webhookToken,
		logger:       logger,
	}
}

// inboundEmailRequest matches the fields of an inbound-parse POST. The
// provider sends multipart form data; a JSON body is accepted too for the
// email simulator used in development.
type inboundEmailRequest struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Text    string `json:"text"`
}

// inboundEmailResponse is the acknowledgment the provider expects.
type inboundEmailResponse struct {
	Success   bool   `json:"success"`
	TicketID  string `json:"ticketId,omitempty"`
	Reference string `json:"reference,omitempty"`
	Message   string `json:"message"`
}

// ServeHTTP handles POST /webhooks/email/sendgrid.
func (h *EmailWebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		h.logger.Warn("email webhook rejected: bad token",
			"request_id", GetRequestID(r.Context()),
			"remote_addr", r.RemoteAddr,
		)
		WriteJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error: "Invalid webhook token",
			Code:  "UNAUTHORIZED",
		})
		return
	}

	mail, err := h.parse(r)
	if err != nil {
		h.errorHandler.Handle(w, r, apperrors.NewBadRequestError(err, "Invalid email payload"))
		return
	}

	h.logger.Info("inbound email received",
		"request_id", GetRequestID(r.Context()),
		"from", mail.From,
		"to", mail.To,
	)

	result, err := h.mailroom.ProcessInboundEmail(r.Context(), mail)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	message := "Comment added to existing ticket"
	if result.NewTicket {
		message = "New ticket created"
	}

	WriteJSON(w, http.StatusOK, inboundEmailResponse{
		Success:   true,
		TicketID:  result.TicketID.String(),
		Reference: result.Reference,
		Message:   message,
	})
}

func (h *EmailWebhookHandler) authorized(r *http.Request) bool {
	if h.webhookToken == "" {
		return true
	}
	presented := r.URL.Query().Get("token")
	return subtle.ConstantTimeCompare([]byte(presented), []byte(h.webhookToken)) == 1
}

func (h *EmailWebhookHandler) parse(r *http.Request) (services.InboundEmail, error) {
	r.Body = http.MaxBytesReader(nil, r.Body, maxInboundEmailBytes)

	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var req inboundEmailRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return services.InboundEmail{}, err
		}
		return services.InboundEmail{
			From:    req.From,
			To:      req.To,
			Subject: req.Subject,
			Text:    req.Text,
		}, nil
	}

	if err := r.ParseMultipartForm(maxInboundEmailBytes); err != nil {
		if err := r.ParseForm(); err != nil {
			return services.InboundEmail{}, err
		}
	}

	return services.InboundEmail{
		From:    r.FormValue("from"),
		To:      r.FormValue("to"),
		Subject: r.FormValue("subject"),
		Text:    r.FormValue("text"),
	}, nil
}
