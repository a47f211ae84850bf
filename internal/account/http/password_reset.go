package http

import (
	"errors"
	"net/http"

	"github.com/loopline/accountd/internal/account/service"
	"github.com/loopline/accountd/pkg/httpx"
	"github.com/loopline/accountd/pkg/slogx"
)

type PasswordResetHandler struct {
	ResetService *service.PasswordResetService
}

type requestResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// HandleRequest issues a reset token and mails it. The response is 204
// whether or not the email is known, so accounts cannot be enumerated.
func (h *PasswordResetHandler) HandleRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req requestResetRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	if err := h.ResetService.RequestReset(ctx, req.Email); err != nil {
		log.Error("reset request failed", "err", err)
		writeServerError(w)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type resetPasswordRequest struct {
	Password         string `json:"password" validate:"required,passwordrules"`
	RepeatedPassword string `json:"repeated_password" validate:"required,eqfield=Password"`
}

// HandleReset consumes the token from the URL and sets the new password.
// Responds with the account's access token so the client can sign in at once.
func (h *PasswordResetHandler) HandleReset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	rawToken := r.PathValue("token")
	if rawToken == "" {
		writeError(w, http.StatusNotFound, "invalid_token")
		return
	}

	var req resetPasswordRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	accessToken, err := h.ResetService.Reset(ctx, rawToken, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTokenInvalid):
			writeError(w, http.StatusNotFound, "invalid_token")
		case errors.Is(err, service.ErrWeakPassword):
			writeValidationError(w, map[string]string{"password": validationMessageFor("passwordrules")})
		case errors.Is(err, service.ErrPasswordEqualsEmail):
			writeValidationError(w, map[string]string{"password": "must not equal the email address"})
		default:
			log.Error("password reset failed", "err", err)
			writeServerError(w)
		}
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, tokenResponse{AccessToken: accessToken})
}

type validateTokenRequest struct {
	Token string `json:"token" validate:"required"`
}

type validateTokenResponse struct {
	IsValid bool `json:"is_valid"`
}

// HandleValidate reports whether a reset token is still usable, without
// consuming it.
func (h *PasswordResetHandler) HandleValidate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req validateTokenRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	valid, err := h.ResetService.IsTokenValid(ctx, req.Token)
	if err != nil {
		log.Error("token validation failed", "err", err)
		writeServerError(w)
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, validateTokenResponse{IsValid: valid})
}
