package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/notesync/internal/apperr"
	"github.com/dukerupert/notesync/internal/model"
	"github.com/dukerupert/notesync/internal/store"
)

// Provider is the authentication backend. It owns credentials and the
// persisted session; Manager owns the state machine around it. Errors are
// AuthErrors.
type Provider interface {
	// Restore returns the identity persisted by a previous session, or an
	// Unauthenticated identity.
	Restore(ctx context.Context) (model.Identity, error)
	SignInAnonymously(ctx context.Context) (model.Identity, error)
	SignUp(ctx context.Context, email, password string) (model.Identity, error)
	SignIn(ctx context.Context, email, password string) (model.Identity, error)
	// Link attaches credentials to the anonymous account uid, keeping uid.
	Link(ctx context.Context, uid, email, password string) (model.Identity, error)
	SignOut(ctx context.Context) error
}

// LocalProvider keeps accounts in the local database. The active uid is
// stored in settings so the session survives restarts.
type LocalProvider struct {
	accounts *store.AccountStore
	settings *store.SettingsStore
	params   Params
	now      func() time.Time
	newUID   func() string
}

func NewLocalProvider(accounts *store.AccountStore, settings *store.SettingsStore, params Params) *LocalProvider {
	return &LocalProvider{
		accounts: accounts,
		settings: settings,
		params:   params,
		now:      time.Now,
		newUID:   uuid.NewString,
	}
}

func (p *LocalProvider) Restore(ctx context.Context) (model.Identity, error) {
	uid, ok, err := p.settings.Lookup(store.SettingCurrentUID)
	if err != nil {
		return model.Identity{}, apperr.Auth(apperr.AuthProvider, err)
	}
	if !ok || uid == "" {
		return model.Identity{State: model.Unauthenticated}, nil
	}

	acc, err := p.accounts.GetByUID(uid)
	if err != nil {
		return model.Identity{}, apperr.Auth(apperr.AuthProvider, err)
	}
	if acc == nil {
		// Stale pointer to a vanished account; start over.
		if err := p.settings.Delete(store.SettingCurrentUID); err != nil {
			return model.Identity{}, apperr.Auth(apperr.AuthProvider, err)
		}
		return model.Identity{State: model.Unauthenticated}, nil
	}
	return acc.Identity(), nil
}

func (p *LocalProvider) SignInAnonymously(ctx context.Context) (model.Identity, error) {
	acc, err := p.accounts.Create(model.Account{
		UID:       p.newUID(),
		Anonymous: true,
		CreatedAt: p.now().UnixMilli(),
	})
	if err != nil {
		return model.Identity{}, apperr.Auth(apperr.AuthProvider, err)
	}
	return p.activate(acc)
}

func (p *LocalProvider) SignUp(ctx context.Context, email, password string) (model.Identity, error) {
	salt, err := p.params.newSalt()
	if err != nil {
		return model.Identity{}, apperr.Auth(apperr.AuthProvider, err)
	}

	acc, err := p.accounts.Create(model.Account{
		UID:          p.newUID(),
		Email:        &email,
		PasswordHash: p.params.hash(password, salt),
		Salt:         salt,
		CreatedAt:    p.now().UnixMilli(),
	})
	if errors.Is(err, store.ErrEmailTaken) {
		return model.Identity{}, apperr.Auth(apperr.AuthEmailInUse, err)
	}
	if err != nil {
		return model.Identity{}, apperr.Auth(apperr.AuthProvider, err)
	}
	return p.activate(acc)
}

func (p *LocalProvider) SignIn(ctx context.Context, email, password string) (model.Identity, error) {
	acc, err := p.accounts.GetByEmail(email)
	if err != nil {
		return model.Identity{}, apperr.Auth(apperr.AuthProvider, err)
	}
	if acc == nil || !p.params.verify(password, acc.Salt, acc.PasswordHash) {
		return model.Identity{}, apperr.Auth(apperr.AuthInvalidCredentials, errors.New("email or password is incorrect"))
	}
	return p.activate(acc)
}

func (p *LocalProvider) Link(ctx context.Context, uid, email, password string) (model.Identity, error) {
	salt, err := p.params.newSalt()
	if err != nil {
		return model.Identity{}, apperr.Auth(apperr.AuthProvider, err)
	}

	acc, err := p.accounts.Link(uid, email, p.params.hash(password, salt), salt)
	if errors.Is(err, store.ErrEmailTaken) {
		return model.Identity{}, apperr.Auth(apperr.AuthEmailInUse, err)
	}
	if err != nil {
		return model.Identity{}, apperr.Auth(apperr.AuthProvider, err)
	}
	return p.activate(acc)
}

func (p *LocalProvider) SignOut(ctx context.Context) error {
	if err := p.settings.Delete(store.SettingCurrentUID); err != nil {
		return apperr.Auth(apperr.AuthProvider, err)
	}
	return nil
}

func (p *LocalProvider) activate(acc *model.Account) (model.Identity, error) {
	if acc == nil {
		return model.Identity{}, apperr.Auth(apperr.AuthProvider, fmt.Errorf("account vanished"))
	}
	if err := p.settings.Set(store.SettingCurrentUID, acc.UID); err != nil {
		return model.Identity{}, apperr.Auth(apperr.AuthProvider, err)
	}
	return acc.Identity(), nil
}
