// Package apperr defines the error types surfaced by the notes engine.
package apperr

import (
	"errors"
	"fmt"
)

// ValidationError rejects input before any state is mutated.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validation creates a ValidationError for field.
func Validation(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// AuthReason classifies an identity failure.
type AuthReason string

const (
	AuthValidation         AuthReason = "validation"
	AuthNotAnonymous       AuthReason = "not_anonymous"
	AuthInvalidCredentials AuthReason = "invalid_credentials"
	AuthEmailInUse         AuthReason = "email_in_use"
	AuthProvider           AuthReason = "provider"
)

// AuthError reports a failed sign-in, sign-up or link. The active identity
// is left unchanged when one is returned.
type AuthError struct {
	Reason AuthReason
	Err    error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("auth %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("auth %s", e.Reason)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// Auth creates an AuthError.
func Auth(reason AuthReason, err error) *AuthError {
	return &AuthError{Reason: reason, Err: err}
}

// SyncKind classifies a remote store failure.
type SyncKind string

const (
	SyncUnauthenticated SyncKind = "unauthenticated"
	SyncNetwork         SyncKind = "network"
	SyncDecode          SyncKind = "decode"
)

// SyncError reports a remote store failure. NoteID is set when the failure
// concerns a single document.
type SyncError struct {
	Kind   SyncKind
	NoteID string
	Err    error
}

func (e *SyncError) Error() string {
	msg := fmt.Sprintf("sync %s", e.Kind)
	if e.NoteID != "" {
		msg += fmt.Sprintf(" (note %s)", e.NoteID)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *SyncError) Unwrap() error {
	return e.Err
}

// Sync creates a SyncError.
func Sync(kind SyncKind, noteID string, err error) *SyncError {
	return &SyncError{Kind: kind, NoteID: noteID, Err: err}
}

// ErrNotAuthenticated is wrapped by SyncUnauthenticated errors.
var ErrNotAuthenticated = errors.New("no identity is active")

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IsAuth reports whether err is an AuthError with the given reason. An empty
// reason matches any AuthError.
func IsAuth(err error, reason AuthReason) bool {
	var a *AuthError
	if !errors.As(err, &a) {
		return false
	}
	return reason == "" || a.Reason == reason
}

// IsSync reports whether err is a SyncError of the given kind. An empty kind
// matches any SyncError.
func IsSync(err error, kind SyncKind) bool {
	var s *SyncError
	if !errors.As(err, &s) {
		return false
	}
	return kind == "" || s.Kind == kind
}
