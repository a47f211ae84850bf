package http

import (
	"errors"
	"net/http"

	"github.com/loopline/accountd/internal/account/service"
	"github.com/loopline/accountd/pkg/httpx"
	"github.com/loopline/accountd/pkg/slogx"
)

type EmailConfirmationHandler struct {
	ConfirmationService *service.EmailConfirmationService
}

// HandleSend mails the authenticated user a fresh confirmation token.
func (h *EmailConfirmationHandler) HandleSend(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	user, ok := userFromContext(ctx)
	if !ok {
		writeUnauthorized(w)
		return
	}

	if err := h.ConfirmationService.SendConfirmation(ctx, user); err != nil {
		log.Error("send confirmation failed", "user_id", user.ID, "err", err)
		writeServerError(w)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type confirmEmailRequest struct {
	Token string `json:"token" validate:"required"`
}

// HandleConfirm consumes the token and marks the user's email confirmed.
func (h *EmailConfirmationHandler) HandleConfirm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	user, ok := userFromContext(ctx)
	if !ok {
		writeUnauthorized(w)
		return
	}

	var req confirmEmailRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	accessToken, err := h.ConfirmationService.Confirm(ctx, req.Token, user)
	if err != nil {
		if errors.Is(err, service.ErrTokenInvalid) {
			writeError(w, http.StatusNotFound, "invalid_token")
			return
		}
		log.Error("email confirmation failed", "user_id", user.ID, "err", err)
		writeServerError(w)
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, tokenResponse{AccessToken: accessToken})
}
