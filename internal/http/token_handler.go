package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"

	"github.com/example/student-rentals/internal/application"
)

type tokenService interface {
	IssueToken(ctx context.Context, principal application.Principal) (application.IssuedToken, error)
}

// TokenHandler exchanges Basic credentials for a bearer token.
type TokenHandler struct {
	service   tokenService
	responder responder
	logger    *slog.Logger
}

func NewTokenHandler(service tokenService, logger *slog.Logger) *TokenHandler {
	base := defaultLogger(logger)
	return &TokenHandler{service: service, responder: newResponder(base), logger: base}
}

// Issue returns a token for the account authenticated by the request.
func (h *TokenHandler) Issue(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	principal, _ := PrincipalFromContext(r.Context())

	issued, err := h.service.IssueToken(r.Context(), principal)
	if err != nil {
		requestLogger(r.Context(), h.logger, "TokenHandler", "Issue", "principal_id", principal.UserID).
			ErrorContext(r.Context(), "token issuance failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, tokenResponse{
		Token:     issued.Token,
		TokenType: "Bearer",
		ExpiresAt: issued.ExpiresAt.UTC().Format(time.RFC3339),
	})
}

type tokenResponse struct {
	Token     string `json:"token"`
	TokenType string `json:"token_type"`
	ExpiresAt string `json:"expires_at"`
}
