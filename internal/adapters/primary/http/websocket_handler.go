package http

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"
	wsAdapter "github.com/solvedesk/helpdesk-backend/internal/adapters/primary/websocket"
	"github.com/solvedesk/helpdesk-backend/internal/config"
	"github.com/solvedesk/helpdesk-backend/internal/core/domain"
	apperrors "github.com/solvedesk/helpdesk-backend/internal/core/errors"
	"github.com/solvedesk/helpdesk-backend/internal/core/ports"
)

// WebSocketHandler authenticates and upgrades incoming persistent
// connections and hands them to the hub.
type WebSocketHandler struct {
	hub      *wsAdapter.Hub
	verifier ports.IdentityVerifier
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(
	hub *wsAdapter.Hub,
	verifier ports.IdentityVerifier,
	cfg *config.Config,
	logger *slog.Logger,
) *WebSocketHandler {
	handler := &WebSocketHandler{
		hub:      hub,
		verifier: verifier,
		logger:   logger,
	}

	handler.upgrader = websocket.Upgrader{
		ReadBufferSize:  cfg.WebSocket.ReadBufferSize,
		WriteBufferSize: cfg.WebSocket.WriteBufferSize,
		CheckOrigin:     handler.makeOriginChecker(cfg),
	}

	return handler
}

// makeOriginChecker creates an origin checking function based on configuration
func (h *WebSocketHandler) makeOriginChecker(cfg *config.Config) func(r *http.Request) bool {
	allowedOrigins := cfg.WebSocket.AllowedOrigins

	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")

		// In development mode, allow all origins (but log a warning)
		if cfg.IsDevelopment() {
			if origin != "" {
				h.logger.Warn("allowing websocket connection in development mode",
					"origin", origin,
					"remote_addr", r.RemoteAddr,
				)
			}
			return true
		}

		// No origin header (same-origin request or non-browser client)
		if origin == "" {
			return true
		}

		parsedOrigin, err := url.Parse(origin)
		if err != nil {
			h.logger.Warn("failed to parse websocket origin",
				"origin", origin,
				"error", err,
			)
			return false
		}

		originHost := parsedOrigin.Host

		for _, allowed := range allowedOrigins {
			// Support wildcard subdomains like "*.example.com"
			if strings.HasPrefix(allowed, "*.") {
				suffix := allowed[1:] // Remove the "*", keep ".example.com"
				if strings.HasSuffix(originHost, suffix) || originHost == allowed[2:] {
					return true
				}
			} else if originHost == allowed {
				return true
			}
		}

		h.logger.Warn("websocket connection rejected due to origin",
			"origin", origin,
			"remote_addr", r.RemoteAddr,
			"allowed_origins", allowedOrigins,
		)
		return false
	}
}

// ServeHTTP handles WebSocket connection requests. The credential is
// verified before the upgrade: a rejected connection never touches the
// registry.
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID := GetRequestID(r.Context())

	identity, err := h.verifier.Verify(r.Context(), bearerCredential(r))
	if err != nil {
		status := http.StatusUnauthorized
		if errors.Is(err, apperrors.ErrInactiveAccount) {
			status = http.StatusForbidden
		}
		h.logger.Warn("websocket connection rejected",
			"request_id", requestID,
			"remote_addr", r.RemoteAddr,
			"error", err,
		)
		http.Error(w, "Invalid or expired credentials", status)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("failed to upgrade websocket connection",
			"request_id", requestID,
			"user_id", identity.UserID,
			"error", err,
		)
		return
	}

	client := wsAdapter.NewClient(h.hub, conn, identity, h.logger)
	h.hub.Register(client)

	h.logger.Info("websocket connection established",
		"request_id", requestID,
		"user_id", identity.UserID,
		"tenant_id", identity.TenantID,
		"remote_addr", r.RemoteAddr,
	)

	go client.WritePump()
	go client.ReadPump()

	// Greet this connection with its session identity, mirroring what web
	// clients expect right after connecting.
	client.TrySend(domain.Envelope{
		Kind: domain.KindConnected,
		Payload: domain.SessionInfo{
			Message: "Connected to real-time service",
			User: domain.SessionUser{
				ID:       identity.UserID,
				Email:    identity.Email,
				Role:     identity.Role,
				TenantID: identity.TenantID,
			},
		},
	})
}

// bearerCredential extracts the token from the query string or, for
// non-browser clients, the Authorization header.
func bearerCredential(r *http.Request) string {
	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}
	header := r.Header.Get("Authorization")
	if after, ok := strings.CutPrefix(header, "Bearer "); ok {
		return after
	}
	return ""
}
