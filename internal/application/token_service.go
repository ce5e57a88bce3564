package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/example/student-rentals/internal/persistence"
)

const tokenIssuer = "student-rentals"

// IssuedToken is a signed bearer token and the instant it stops being accepted.
type IssuedToken struct {
	Token     string
	ExpiresAt time.Time
}

type tokenClaims struct {
	Name string           `json:"name"`
	Role persistence.Role `json:"role"`
	jwt.RegisteredClaims
}

// TokenService issues HS256 bearer tokens for authenticated accounts so
// clients can stop resending their password on every request.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
	logger *slog.Logger
}

// NewTokenService constructs a TokenService signing with secret.
func NewTokenService(secret string, ttl time.Duration, now func() time.Time) *TokenService {
	return NewTokenServiceWithLogger(secret, ttl, now, nil)
}

// NewTokenServiceWithLogger constructs a TokenService with a specified logger.
func NewTokenServiceWithLogger(secret string, ttl time.Duration, now func() time.Time, logger *slog.Logger) *TokenService {
	if now == nil {
		now = time.Now
	}
	return &TokenService{
		secret: []byte(secret),
		ttl:    ttl,
		now:    now,
		logger: defaultLogger(logger),
	}
}

func (s *TokenService) ready() error {
	if s == nil {
		return fmt.Errorf("TokenService is nil")
	}
	if len(s.secret) == 0 {
		return fmt.Errorf("token secret not configured")
	}
	if s.ttl <= 0 {
		return fmt.Errorf("token ttl must be positive")
	}
	return nil
}

// IssueToken signs a token for the principal valid for the configured TTL.
func (s *TokenService) IssueToken(ctx context.Context, principal Principal) (issued IssuedToken, err error) {
	if err = s.ready(); err != nil {
		return
	}

	logger := serviceLogger(ctx, s.logger, "TokenService", "IssueToken", accountAttrs(principal)...)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to issue token", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("expires_at", issued.ExpiresAt).InfoContext(ctx, "token issued")
	}()

	if strings.TrimSpace(principal.UserID) == "" {
		err = ErrUnauthorized
		return
	}

	now := s.now()
	claims := tokenClaims{
		Name: principal.Name,
		Role: principal.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   principal.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	var signed string
	signed, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		err = fmt.Errorf("sign token: %w", err)
		return
	}

	issued = IssuedToken{Token: signed, ExpiresAt: claims.ExpiresAt.Time}
	return
}

// VerifyToken resolves a bearer token to the principal it was issued for.
// Malformed, expired and foreign tokens yield ErrInvalidToken.
func (s *TokenService) VerifyToken(ctx context.Context, token string) (principal Principal, err error) {
	if err = s.ready(); err != nil {
		return
	}

	logger := serviceLogger(ctx, s.logger, "TokenService", "VerifyToken")
	defer func() {
		if err != nil {
			logger.WarnContext(ctx, "token rejected", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With(accountAttrs(principal)...).DebugContext(ctx, "token accepted")
	}()

	claims := &tokenClaims{}
	_, parseErr := jwt.ParseWithClaims(strings.TrimSpace(token), claims,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if parseErr != nil {
		err = fmt.Errorf("%w: %v", ErrInvalidToken, parseErr)
		return
	}

	switch claims.Role {
	case persistence.RoleStudent, persistence.RoleHomeowner:
	default:
		err = fmt.Errorf("%w: unknown role %q", ErrInvalidToken, claims.Role)
		return
	}
	if claims.Subject == "" {
		err = fmt.Errorf("%w: missing subject", ErrInvalidToken)
		return
	}

	principal = Principal{UserID: claims.Subject, Name: claims.Name, Role: claims.Role}
	return
}
