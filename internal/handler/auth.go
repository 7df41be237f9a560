package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/dukerupert/notesync/internal/identity"
	"github.com/dukerupert/notesync/internal/model"
	notesync "github.com/dukerupert/notesync/internal/sync"
)

type AuthHandler struct {
	engine *notesync.Engine
	logger *slog.Logger
}

func NewAuthHandler(engine *notesync.Engine, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{engine: engine, logger: logger}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Confirm  string `json:"confirm_password,omitempty"`
}

type identityResponse struct {
	model.Identity
	DisplayName string `json:"display_name"`
}

func (h *AuthHandler) respond(w http.ResponseWriter, id model.Identity) {
	writeJSON(w, http.StatusOK, identityResponse{Identity: id, DisplayName: h.engine.DisplayName()})
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	h.respond(w, h.engine.Identity())
}

type credentialOp func(ctx context.Context, email, password string) (model.Identity, error)

func (h *AuthHandler) credentials(op credentialOp, confirm bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req credentialsRequest
		if err := decode(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON")
			return
		}
		if confirm && req.Confirm != "" {
			if err := identity.ValidatePasswordConfirmation(req.Password, req.Confirm); err != nil {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
		}

		id, err := op(r.Context(), req.Email, req.Password)
		if err != nil {
			writeError(w, errorStatus(err), err.Error())
			return
		}
		h.respond(w, id)
	}
}

// SignUp creates a new account. confirm_password is checked when present.
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	h.credentials(h.engine.SignUp, true)(w, r)
}

func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	h.credentials(h.engine.SignIn, false)(w, r)
}

// Link upgrades the anonymous identity in place.
func (h *AuthHandler) Link(w http.ResponseWriter, r *http.Request) {
	h.credentials(h.engine.LinkAccount, true)(w, r)
}

func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	id, err := h.engine.SignOut(r.Context())
	if err != nil {
		h.logger.Error("sign out", "error", err)
		writeError(w, errorStatus(err), err.Error())
		return
	}
	h.respond(w, id)
}
