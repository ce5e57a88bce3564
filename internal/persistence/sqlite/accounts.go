package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/student-rentals/internal/persistence"
)

const accountColumns = `id, name, email, password_hash, role, university, student_number, contact_number, created_at`

// CreateAccount stores a new account. Emails are unique ignoring case.
func (s *Storage) CreateAccount(ctx context.Context, account persistence.Account) error {
	var university, studentNumber, contactNumber string
	switch profile := account.Profile.(type) {
	case persistence.StudentProfile:
		university, studentNumber = profile.University, profile.StudentNumber
	case persistence.HomeownerProfile:
		contactNumber = profile.ContactNumber
	default:
		return fmt.Errorf("sqlite: account %s has no profile", account.ID)
	}

	return s.write(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO accounts (`+accountColumns+`, email_key)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			account.ID,
			account.Name,
			account.Email,
			account.PasswordHash,
			string(account.Role()),
			university,
			studentNumber,
			contactNumber,
			formatTime(account.CreatedAt),
			persistence.EmailKey(account.Email),
		)
		if err != nil {
			return fmt.Errorf("sqlite: create account %s: %w", account.ID, err)
		}
		return nil
	})
}

// FindAccountByID retrieves an account by id.
func (s *Storage) FindAccountByID(ctx context.Context, id string) (persistence.Account, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id)
	account, err := scanAccount(row)
	if err != nil {
		return persistence.Account{}, mapError(err)
	}
	return account, nil
}

// FindAccountByEmail retrieves an account by email, ignoring case.
func (s *Storage) FindAccountByEmail(ctx context.Context, email string) (persistence.Account, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE email_key = ?`, persistence.EmailKey(email))
	account, err := scanAccount(row)
	if err != nil {
		return persistence.Account{}, mapError(err)
	}
	return account, nil
}

func scanAccount(row rowScanner) (persistence.Account, error) {
	var (
		account       persistence.Account
		role          string
		university    string
		studentNumber string
		contactNumber string
		createdAt     string
	)
	if err := row.Scan(
		&account.ID,
		&account.Name,
		&account.Email,
		&account.PasswordHash,
		&role,
		&university,
		&studentNumber,
		&contactNumber,
		&createdAt,
	); err != nil {
		return persistence.Account{}, err
	}

	switch persistence.Role(role) {
	case persistence.RoleStudent:
		account.Profile = persistence.StudentProfile{University: university, StudentNumber: studentNumber}
	case persistence.RoleHomeowner:
		account.Profile = persistence.HomeownerProfile{ContactNumber: contactNumber}
	default:
		return persistence.Account{}, fmt.Errorf("sqlite: account %s has unknown role %q", account.ID, role)
	}

	var err error
	if account.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.Account{}, err
	}
	return account, nil
}
