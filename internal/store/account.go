package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dukerupert/notesync/internal/model"
)

// ErrEmailTaken is returned when an email is already bound to another account.
var ErrEmailTaken = errors.New("email already in use")

type AccountStore struct {
	db *sql.DB
}

func NewAccountStore(db *sql.DB) *AccountStore {
	return &AccountStore{db: db}
}

func scanAccount(scanner interface{ Scan(...any) error }) (*model.Account, error) {
	var a model.Account
	var email sql.NullString
	var anonymous int

	err := scanner.Scan(&a.UID, &email, &a.PasswordHash, &a.Salt, &anonymous, &a.CreatedAt)
	if err != nil {
		return nil, err
	}

	a.Anonymous = anonymous != 0
	if email.Valid {
		a.Email = &email.String
	}
	return &a, nil
}

const accountCols = `uid, email, password_hash, salt, anonymous, created_at`

func (s *AccountStore) Create(a model.Account) (*model.Account, error) {
	var email sql.NullString
	if a.Email != nil {
		email = sql.NullString{String: *a.Email, Valid: true}
	}
	var anon int
	if a.Anonymous {
		anon = 1
	}

	_, err := s.db.Exec(
		`INSERT INTO accounts (`+accountCols+`) VALUES (?, ?, ?, ?, ?, ?)`,
		a.UID, email, a.PasswordHash, a.Salt, anon, a.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("insert account: %w", err)
	}
	return s.GetByUID(a.UID)
}

func (s *AccountStore) GetByUID(uid string) (*model.Account, error) {
	row := s.db.QueryRow(`SELECT `+accountCols+` FROM accounts WHERE uid = ?`, uid)
	a, err := scanAccount(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	return a, nil
}

func (s *AccountStore) GetByEmail(email string) (*model.Account, error) {
	row := s.db.QueryRow(`SELECT `+accountCols+` FROM accounts WHERE email = ?`, email)
	a, err := scanAccount(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get account by email: %w", err)
	}
	return a, nil
}

// Link attaches credentials to an existing anonymous account, keeping its uid.
func (s *AccountStore) Link(uid, email string, passwordHash, salt []byte) (*model.Account, error) {
	result, err := s.db.Exec(
		`UPDATE accounts SET email = ?, password_hash = ?, salt = ?, anonymous = 0
		 WHERE uid = ? AND anonymous = 1`,
		email, passwordHash, salt, uid,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("link account: %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if count == 0 {
		return nil, fmt.Errorf("link account: no anonymous account %q", uid)
	}
	return s.GetByUID(uid)
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
