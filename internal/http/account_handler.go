package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"

	"github.com/example/student-rentals/internal/application"
	"github.com/example/student-rentals/internal/persistence"
)

type accountService interface {
	RegisterStudent(ctx context.Context, input application.StudentRegistration) (application.Principal, error)
	RegisterHomeowner(ctx context.Context, input application.HomeownerRegistration) (application.Principal, error)
	Account(ctx context.Context, id string) (persistence.Account, error)
}

// AccountHandler serves registration and the current account profile.
type AccountHandler struct {
	service   accountService
	responder responder
	logger    *slog.Logger
}

func NewAccountHandler(service accountService, logger *slog.Logger) *AccountHandler {
	base := defaultLogger(logger)
	return &AccountHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *AccountHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return requestLogger(ctx, h.logger, "AccountHandler", operation, attrs...)
}

func (h *AccountHandler) RegisterStudent(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req application.StudentRegistration
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "RegisterStudent", "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode registration", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, err := h.service.RegisterStudent(r.Context(), req)
	h.registered(w, r, "RegisterStudent", principal, err)
}

func (h *AccountHandler) RegisterHomeowner(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req application.HomeownerRegistration
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "RegisterHomeowner", "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode registration", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, err := h.service.RegisterHomeowner(r.Context(), req)
	h.registered(w, r, "RegisterHomeowner", principal, err)
}

func (h *AccountHandler) registered(w http.ResponseWriter, r *http.Request, operation string, principal application.Principal, err error) {
	logger := h.log(r.Context(), operation)
	if err != nil {
		logger.WarnContext(r.Context(), "registration failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	account, err := h.service.Account(r.Context(), principal.UserID)
	if err != nil {
		logger.ErrorContext(r.Context(), "registered account lookup failed", "error", err)
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("user_id", principal.UserID).InfoContext(r.Context(), "account registered")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, accountResponse{Account: toAccountDTO(account)})
}

// Me returns the authenticated account.
func (h *AccountHandler) Me(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	principal, _ := PrincipalFromContext(r.Context())

	account, err := h.service.Account(r.Context(), principal.UserID)
	if err != nil {
		h.log(r.Context(), "Me", "principal_id", principal.UserID).ErrorContext(r.Context(), "account lookup failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, accountResponse{Account: toAccountDTO(account)})
}

type accountResponse struct {
	Account accountDTO `json:"account"`
}

type accountDTO struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	Role          string `json:"role"`
	University    string `json:"university,omitempty"`
	StudentNumber string `json:"student_number,omitempty"`
	ContactNumber string `json:"contact_number,omitempty"`
	CreatedAt     string `json:"created_at"`
}

func toAccountDTO(account persistence.Account) accountDTO {
	dto := accountDTO{
		ID:        account.ID,
		Name:      account.Name,
		Email:     account.Email,
		Role:      string(account.Role()),
		CreatedAt: account.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	switch profile := account.Profile.(type) {
	case persistence.StudentProfile:
		dto.University = profile.University
		dto.StudentNumber = profile.StudentNumber
	case persistence.HomeownerProfile:
		dto.ContactNumber = profile.ContactNumber
	}
	return dto
}
