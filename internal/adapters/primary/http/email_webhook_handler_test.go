package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpAdapter "github.com/solvedesk/helpdesk-backend/internal/adapters/primary/http"
	apperrors "github.com/solvedesk/helpdesk-backend/internal/core/errors"
	"github.com/solvedesk/helpdesk-backend/internal/core/services"
)

// stubProcessor records the mail it receives and returns a canned result.
type stubProcessor struct {
	received *services.InboundEmail
	result   *services.InboundResult
	err      error
}

func (s *stubProcessor) ProcessInboundEmail(ctx context.Context, mail services.InboundEmail) (*services.InboundResult, error) {
	s.received = &mail
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func newWebhookHandler(processor *stubProcessor, token string) *httpAdapter.EmailWebhookHandler {
	logger := slog.Default()
	return httpAdapter.NewEmailWebhookHandler(processor, httpAdapter.NewErrorHandler(logger), token, logger)
}

func multipartBody(t *testing.T, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}
	require.NoError(t, writer.Close())
	return &buf, writer.FormDataContentType()
}

func TestEmailWebhookHandler(t *testing.T) {
	ticketID := uuid.New()

	t.Run("multipart payload creates a ticket", func(t *testing.T) {
		processor := &stubProcessor{
			result: &services.InboundResult{TicketID: ticketID, Reference: "3f9c2a1b", NewTicket: true},
		}
		handler := newWebhookHandler(processor, "")

		body, contentType := multipartBody(t, map[string]string{
			"from":    "Jane Doe <jane@customer.test>",
			"to":      "support@acme.helpdesk.test",
			"subject": "Printer broken",
			"text":    "It stopped working.",
		})

		req := httptest.NewRequest(http.MethodPost, "/webhooks/email/sendgrid", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, processor.received)
		assert.Equal(t, "Jane Doe <jane@customer.test>", processor.received.From)
		assert.Equal(t, "Printer broken", processor.received.Subject)

		var resp map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, true, resp["success"])
		assert.Equal(t, ticketID.String(), resp["ticketId"])
		assert.Equal(t, "New ticket created", resp["message"])
	})

	t.Run("json payload appends a comment", func(t *testing.T) {
		processor := &stubProcessor{
			result: &services.InboundResult{TicketID: ticketID, Reference: "3f9c2a1b", NewTicket: false},
		}
		handler := newWebhookHandler(processor, "")

		payload := `{"from":"jane@customer.test","to":"support@acme.helpdesk.test","subject":"Re: Printer broken [#3f9c2a1b]","text":"Still broken"}`
		req := httptest.NewRequest(http.MethodPost, "/webhooks/email/sendgrid", strings.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, processor.received)
		assert.Equal(t, "Re: Printer broken [#3f9c2a1b]", processor.received.Subject)

		var resp map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "Comment added to existing ticket", resp["message"])
	})

	t.Run("wrong webhook token is rejected", func(t *testing.T) {
		processor := &stubProcessor{}
		handler := newWebhookHandler(processor, "secret-token")

		req := httptest.NewRequest(http.MethodPost, "/webhooks/email/sendgrid?token=wrong", strings.NewReader("{}"))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Nil(t, processor.received)
	})

	t.Run("correct webhook token is accepted", func(t *testing.T) {
		processor := &stubProcessor{
			result: &services.InboundResult{TicketID: ticketID, Reference: "3f9c2a1b", NewTicket: true},
		}
		handler := newWebhookHandler(processor, "secret-token")

		payload := `{"from":"jane@customer.test","to":"support@acme.helpdesk.test","subject":"Hi","text":"body"}`
		req := httptest.NewRequest(http.MethodPost, "/webhooks/email/sendgrid?token=secret-token", strings.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("unknown tenant maps to 422", func(t *testing.T) {
		processor := &stubProcessor{err: apperrors.ErrInvalidRecipient}
		handler := newWebhookHandler(processor, "")

		payload := `{"from":"jane@customer.test","to":"support@nobody.test","subject":"Hi","text":"body"}`
		req := httptest.NewRequest(http.MethodPost, "/webhooks/email/sendgrid", strings.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("missing sender maps to 400", func(t *testing.T) {
		processor := &stubProcessor{err: apperrors.ErrEmptySender}
		handler := newWebhookHandler(processor, "")

		payload := `{"to":"support@acme.helpdesk.test","subject":"Hi"}`
		req := httptest.NewRequest(http.MethodPost, "/webhooks/email/sendgrid", strings.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
