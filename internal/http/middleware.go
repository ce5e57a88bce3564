package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"

	"github.com/example/student-rentals/internal/application"
	"github.com/example/student-rentals/internal/persistence"
)

// HeaderRequestID carries the request correlation id in both directions.
const HeaderRequestID = "X-Request-ID"

// Authenticator resolves Basic credentials to a principal.
type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (application.Principal, error)
}

// TokenVerifier resolves bearer tokens to a principal.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (application.Principal, error)
}

// RequireAccount authenticates the request with a bearer token, when tokens is
// set and one is presented, or with HTTP Basic credentials otherwise. When
// roles are given, principals holding none of them are rejected.
func RequireAccount(auth Authenticator, tokens TokenVerifier, logger *slog.Logger, roles ...persistence.Role) func(httprouter.Handle) httprouter.Handle {
	responder := newResponder(logger)

	return func(next httprouter.Handle) httprouter.Handle {
		return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
			ctx := r.Context()

			principal, err := resolvePrincipal(ctx, r, auth, tokens)
			if err != nil {
				switch {
				case errors.Is(err, errMissingCredentials):
					challenge(w, tokens)
					responder.writeError(ctx, w, http.StatusUnauthorized, errMissingCredentials)
				case errors.Is(err, application.ErrInvalidCredentials), errors.Is(err, application.ErrInvalidToken):
					challenge(w, tokens)
					responder.handleServiceError(ctx, w, err)
				default:
					responder.handleServiceError(ctx, w, err)
				}
				return
			}

			if len(roles) > 0 && !slices.Contains(roles, principal.Role) {
				requestLogger(ctx, logger, "RequireAccount", "authorize",
					"principal_id", principal.UserID,
					"role", principal.Role,
				).WarnContext(ctx, "role not permitted")
				responder.writeJSON(ctx, w, http.StatusForbidden, errorResponse{
					ErrorCode: "WRONG_ROLE",
					Message:   errWrongRole.Error(),
				})
				return
			}

			ctx = ContextWithPrincipal(ctx, principal)
			if reqLogger := LoggerFromContext(ctx); reqLogger != nil {
				ctx = ContextWithLogger(ctx, reqLogger.With("principal_id", principal.UserID))
			}
			next(w, r.WithContext(ctx), ps)
		}
	}
}

func resolvePrincipal(ctx context.Context, r *http.Request, auth Authenticator, tokens TokenVerifier) (application.Principal, error) {
	if token, ok := bearerToken(r); ok {
		if tokens == nil {
			return application.Principal{}, fmt.Errorf("%w: bearer tokens are not accepted here", application.ErrInvalidToken)
		}
		return tokens.VerifyToken(ctx, token)
	}

	email, password, ok := r.BasicAuth()
	if !ok || email == "" {
		return application.Principal{}, errMissingCredentials
	}
	if auth == nil {
		return application.Principal{}, errors.New("authenticator not configured")
	}
	return auth.Authenticate(ctx, email, password)
}

func bearerToken(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func challenge(w http.ResponseWriter, tokens TokenVerifier) {
	w.Header().Set("WWW-Authenticate", `Basic realm="rentals"`)
	if tokens != nil {
		w.Header().Add("WWW-Authenticate", `Bearer realm="rentals"`)
	}
}

// RequestLogger attaches a request scoped logger carrying a request id and
// logs the start and completion of each request.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	if base == nil {
		base = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(HeaderRequestID)
			if id == "" {
				id = uuid.NewString()
			}
			w.Header().Set(HeaderRequestID, id)

			logger := base.With(
				"request_id", id,
				"method", r.Method,
				"path", r.URL.Path,
			)

			recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			ctx := ContextWithLogger(r.Context(), logger)
			start := time.Now()
			logger.DebugContext(ctx, "request started")
			next.ServeHTTP(recorder, r.WithContext(ctx))
			logger.InfoContext(ctx, "request completed",
				"status", recorder.status,
				"duration", time.Since(start),
			)
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (s *statusRecorder) WriteHeader(status int) {
	if !s.wroteHeader {
		s.status = status
		s.wroteHeader = true
	}
	s.ResponseWriter.WriteHeader(status)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	s.wroteHeader = true
	return s.ResponseWriter.Write(b)
}
