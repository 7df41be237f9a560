// Package identity owns the active authentication identity. It is
// anonymous until the user links or signs in with an email, and falls back
// to a fresh anonymous identity on sign-out so the client is never left
// signed out.
package identity

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/dukerupert/notesync/internal/apperr"
	"github.com/dukerupert/notesync/internal/model"
)

// MinPasswordLength is the shortest password accepted for sign-up, sign-in
// and linking.
const MinPasswordLength = 6

// ChangeFunc is called after every identity transition.
type ChangeFunc func(model.Identity)

// Manager tracks the current identity and drives transitions through a
// Provider. Transitions are serialised; queries never block on a
// transition in progress.
type Manager struct {
	provider Provider
	logger   *slog.Logger

	opMu sync.Mutex

	mu        sync.RWMutex
	current   model.Identity
	listeners []ChangeFunc
}

func NewManager(provider Provider, logger *slog.Logger) *Manager {
	return &Manager{
		provider: provider,
		logger:   logger,
		current:  model.Identity{State: model.Unauthenticated},
	}
}

// OnChange registers fn to be called after each transition.
func (m *Manager) OnChange(fn ChangeFunc) {
	m.mu.Lock()
	m.listeners = append(m.listeners, fn)
	m.mu.Unlock()
}

// Restore resumes the identity persisted by the provider, if any.
func (m *Manager) Restore(ctx context.Context) (model.Identity, error) {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	id, err := m.provider.Restore(ctx)
	if err != nil {
		return m.Current(), err
	}
	if id.IsAuthenticated() {
		m.logger.Info("restored identity", "uid", id.UID, "state", id.State)
		m.set(id)
	}
	return m.Current(), nil
}

// EnsureAuthenticated signs in anonymously when nobody is signed in and
// otherwise returns the current identity unchanged.
func (m *Manager) EnsureAuthenticated(ctx context.Context) (model.Identity, error) {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	if cur := m.Current(); cur.IsAuthenticated() {
		return cur, nil
	}
	return m.signInAnonymously(ctx)
}

func (m *Manager) signInAnonymously(ctx context.Context) (model.Identity, error) {
	m.logger.Debug("attempting anonymous sign-in")
	id, err := m.provider.SignInAnonymously(ctx)
	if err != nil {
		m.logger.Error("anonymous sign-in failed", "error", err)
		return m.Current(), err
	}
	m.logger.Info("anonymous sign-in successful", "uid", id.UID)
	m.set(id)
	return id, nil
}

// SignUp creates a credentialed identity with a new uid and makes it current.
func (m *Manager) SignUp(ctx context.Context, email, password string) (model.Identity, error) {
	email = normalizeEmail(email)
	if err := ValidateCredentials(email, password); err != nil {
		return m.Current(), err
	}

	m.opMu.Lock()
	defer m.opMu.Unlock()

	id, err := m.provider.SignUp(ctx, email, password)
	if err != nil {
		m.logger.Warn("sign-up failed", "email", email, "error", err)
		return m.Current(), err
	}
	m.logger.Info("sign-up successful", "uid", id.UID)
	m.set(id)
	return id, nil
}

// SignIn replaces the current identity, anonymous or linked, with the
// account matching the credentials.
func (m *Manager) SignIn(ctx context.Context, email, password string) (model.Identity, error) {
	email = normalizeEmail(email)
	if err := ValidateCredentials(email, password); err != nil {
		return m.Current(), err
	}

	m.opMu.Lock()
	defer m.opMu.Unlock()

	id, err := m.provider.SignIn(ctx, email, password)
	if err != nil {
		m.logger.Warn("sign-in failed", "email", email, "error", err)
		return m.Current(), err
	}
	m.logger.Info("sign-in successful", "uid", id.UID)
	m.set(id)
	return id, nil
}

// LinkAnonymousToEmail promotes the anonymous identity to a linked one. The
// uid is kept, so every note it owns stays owned.
func (m *Manager) LinkAnonymousToEmail(ctx context.Context, email, password string) (model.Identity, error) {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	cur := m.Current()
	if !cur.IsAnonymous() {
		return cur, apperr.Auth(apperr.AuthNotAnonymous, nil)
	}

	email = normalizeEmail(email)
	if err := ValidateCredentials(email, password); err != nil {
		return cur, err
	}

	id, err := m.provider.Link(ctx, cur.UID, email, password)
	if err != nil {
		m.logger.Warn("account linking failed", "uid", cur.UID, "error", err)
		return cur, err
	}
	m.logger.Info("account linking successful", "uid", id.UID)
	m.set(id)
	return id, nil
}

// SignOut drops the current identity and immediately signs in anonymously
// with a new uid. Notes owned by the previous uid stay in the remote store
// but are no longer visible.
func (m *Manager) SignOut(ctx context.Context) (model.Identity, error) {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	prev := m.Current()
	m.logger.Info("signing out", "uid", prev.UID)
	if err := m.provider.SignOut(ctx); err != nil {
		return prev, err
	}
	m.set(model.Identity{State: model.Unauthenticated})
	return m.signInAnonymously(ctx)
}

func (m *Manager) Current() model.Identity {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// UID returns the active uid, or "" when nobody is signed in.
func (m *Manager) UID() string {
	return m.Current().UID
}

func (m *Manager) IsAnonymous() bool {
	return m.Current().IsAnonymous()
}

func (m *Manager) Email() string {
	return m.Current().Email
}

// DisplayName is the email of a linked identity and "User" otherwise.
func (m *Manager) DisplayName() string {
	if email := m.Email(); email != "" {
		return email
	}
	return "User"
}

func (m *Manager) set(id model.Identity) {
	m.mu.Lock()
	m.current = id
	listeners := append([]ChangeFunc(nil), m.listeners...)
	m.mu.Unlock()

	for _, fn := range listeners {
		fn(id)
	}
}

// ValidateCredentials checks the form of an email/password pair.
func ValidateCredentials(email, password string) error {
	if strings.TrimSpace(email) == "" {
		return apperr.Auth(apperr.AuthValidation, apperr.Validation("email", "is required"))
	}
	if len([]rune(password)) < MinPasswordLength {
		return apperr.Auth(apperr.AuthValidation, apperr.Validation("password", "must be at least 6 characters"))
	}
	return nil
}

// ValidatePasswordConfirmation checks that a sign-up form's two password
// fields agree.
func ValidatePasswordConfirmation(password, confirm string) error {
	if password != confirm {
		return apperr.Validation("password", "passwords do not match")
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
