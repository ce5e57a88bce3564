package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/student-rentals/internal/ids"
	"github.com/example/student-rentals/internal/persistence"
)

// AccountService registers students and homeowners and verifies their
// credentials.
type AccountService struct {
	accounts       persistence.AccountStore
	hashPassword   PasswordHasher
	verifyPassword PasswordVerifier
	idGenerator    func(prefix string) string
	now            func() time.Time
	logger         *slog.Logger
}

// NewAccountService constructs an AccountService with the provided dependencies.
func NewAccountService(accounts persistence.AccountStore, hash PasswordHasher, verify PasswordVerifier, idGenerator func(prefix string) string, now func() time.Time) *AccountService {
	return NewAccountServiceWithLogger(accounts, hash, verify, idGenerator, now, nil)
}

// NewAccountServiceWithLogger constructs an AccountService with a specified logger.
func NewAccountServiceWithLogger(accounts persistence.AccountStore, hash PasswordHasher, verify PasswordVerifier, idGenerator func(prefix string) string, now func() time.Time, logger *slog.Logger) *AccountService {
	if hash == nil {
		hash = Argon2idHasher(DefaultArgon2idParams)
	}
	if verify == nil {
		verify = VerifyPassword
	}
	if idGenerator == nil {
		idGenerator = ids.NewID
	}
	if now == nil {
		now = time.Now
	}
	return &AccountService{
		accounts:       accounts,
		hashPassword:   hash,
		verifyPassword: verify,
		idGenerator:    idGenerator,
		now:            now,
		logger:         defaultLogger(logger),
	}
}

func (s *AccountService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AccountService", operation, attrs...)
}

// RegisterStudent creates a student account.
func (s *AccountService) RegisterStudent(ctx context.Context, input StudentRegistration) (Principal, error) {
	return s.register(ctx, "RegisterStudent", "stu", input, input.Name, input.Email, input.Password, persistence.StudentProfile{
		University:    strings.TrimSpace(input.University),
		StudentNumber: strings.TrimSpace(input.StudentNumber),
	})
}

// RegisterHomeowner creates a homeowner account.
func (s *AccountService) RegisterHomeowner(ctx context.Context, input HomeownerRegistration) (Principal, error) {
	return s.register(ctx, "RegisterHomeowner", "own", input, input.Name, input.Email, input.Password, persistence.HomeownerProfile{
		ContactNumber: strings.TrimSpace(input.ContactNumber),
	})
}

func (s *AccountService) register(ctx context.Context, operation, idPrefix string, input any, name, email, password string, profile persistence.Profile) (principal Principal, err error) {
	if s == nil {
		err = fmt.Errorf("AccountService is nil")
		return
	}
	if s.accounts == nil {
		err = fmt.Errorf("account store not configured")
		return
	}

	email = strings.TrimSpace(email)
	logger := s.loggerWith(ctx, operation,
		"email", persistence.EmailKey(email),
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "registration failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("user_id", principal.UserID, "role", string(principal.Role)).InfoContext(ctx, "account registered")
	}()

	if vErr := validateInput(input); vErr.HasErrors() {
		err = vErr
		return
	}

	if _, lookupErr := s.accounts.FindAccountByEmail(ctx, email); lookupErr == nil {
		err = fmt.Errorf("email %q: %w", email, ErrAlreadyExists)
		return
	} else if !errors.Is(lookupErr, persistence.ErrNotFound) {
		err = lookupErr
		return
	}

	var hash string
	hash, err = s.hashPassword(password)
	if err != nil {
		err = fmt.Errorf("hash password: %w", err)
		return
	}

	account := persistence.Account{
		ID:           s.idGenerator(idPrefix),
		Name:         strings.TrimSpace(name),
		Email:        email,
		PasswordHash: hash,
		Profile:      profile,
		CreatedAt:    s.now(),
	}
	if err = s.accounts.CreateAccount(ctx, account); err != nil {
		if errors.Is(err, persistence.ErrDuplicate) {
			err = fmt.Errorf("email %q: %w", email, ErrAlreadyExists)
		}
		return
	}

	principal = principalFor(account)
	return
}

// Authenticate resolves an email and password pair to the account principal.
// Unknown emails and wrong passwords both yield ErrInvalidCredentials.
func (s *AccountService) Authenticate(ctx context.Context, email, password string) (principal Principal, err error) {
	if s == nil {
		err = fmt.Errorf("AccountService is nil")
		return
	}
	if s.accounts == nil {
		err = fmt.Errorf("account store not configured")
		return
	}

	email = persistence.EmailKey(email)
	logger := s.loggerWith(ctx, "Authenticate",
		"email", email,
	)
	defer func() {
		if err != nil {
			logger.WarnContext(ctx, "authentication failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("user_id", principal.UserID).DebugContext(ctx, "authentication succeeded")
	}()

	if email == "" || password == "" {
		err = ErrInvalidCredentials
		return
	}

	var account persistence.Account
	account, err = s.accounts.FindAccountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			err = ErrInvalidCredentials
		}
		return
	}

	if verifyErr := s.verifyPassword(account.PasswordHash, password); verifyErr != nil {
		err = ErrInvalidCredentials
		return
	}

	principal = principalFor(account)
	return
}

// Account returns the stored account without its password hash.
func (s *AccountService) Account(ctx context.Context, id string) (persistence.Account, error) {
	if s == nil {
		return persistence.Account{}, fmt.Errorf("AccountService is nil")
	}
	if s.accounts == nil {
		return persistence.Account{}, fmt.Errorf("account store not configured")
	}
	account, err := s.accounts.FindAccountByID(ctx, id)
	if err != nil {
		return persistence.Account{}, mapStoreError(err, "account", id)
	}
	account.PasswordHash = ""
	return account, nil
}

func principalFor(account persistence.Account) Principal {
	return Principal{UserID: account.ID, Name: account.Name, Role: account.Role()}
}
