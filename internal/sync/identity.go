package sync

import (
	"context"

	"github.com/dukerupert/notesync/internal/model"
)

// Identity operations delegate to the identity manager and publish a status
// string for the outcome. Errors are returned unchanged.

func (e *Engine) EnsureAuthenticated(ctx context.Context) (model.Identity, error) {
	id, err := e.identity.EnsureAuthenticated(ctx)
	if err != nil {
		e.fail("Authentication", err)
		return id, err
	}
	return id, nil
}

func (e *Engine) SignUp(ctx context.Context, email, password string) (model.Identity, error) {
	id, err := e.identity.SignUp(ctx, email, password)
	if err != nil {
		e.fail("Sign up", err)
		return id, err
	}
	e.setStatus("Account created: " + id.Email)
	return id, nil
}

func (e *Engine) SignIn(ctx context.Context, email, password string) (model.Identity, error) {
	id, err := e.identity.SignIn(ctx, email, password)
	if err != nil {
		e.fail("Sign in", err)
		return id, err
	}
	e.setStatus("Signed in as " + id.Email)
	return id, nil
}

// LinkAccount upgrades the anonymous identity in place, so every note it
// already owns stays visible.
func (e *Engine) LinkAccount(ctx context.Context, email, password string) (model.Identity, error) {
	id, err := e.identity.LinkAnonymousToEmail(ctx, email, password)
	if err != nil {
		e.fail("Account linking", err)
		return id, err
	}
	e.setStatus("Account linked: " + id.Email)
	return id, nil
}

func (e *Engine) SignOut(ctx context.Context) (model.Identity, error) {
	id, err := e.identity.SignOut(ctx)
	if err != nil {
		e.fail("Sign out", err)
		return id, err
	}
	e.setStatus("Signed out")
	return id, nil
}

func (e *Engine) Identity() model.Identity {
	return e.identity.Current()
}

// DisplayName is the name shown for the current identity.
func (e *Engine) DisplayName() string {
	return e.identity.DisplayName()
}
