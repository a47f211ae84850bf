package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/loopline/accountd/internal/account/domain"
	"github.com/loopline/accountd/internal/account/service"
	"github.com/loopline/accountd/pkg/httpx"
	"github.com/loopline/accountd/pkg/slogx"
)

// userResponse is the user as serialized to its owner. The access token is
// included; password material never is.
type userResponse struct {
	ID             string    `json:"id"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	Email          string    `json:"email"`
	MobilePhone    string    `json:"mobile_phone"`
	Company        string    `json:"company"`
	EmailConfirmed bool      `json:"email_confirmed"`
	AccessToken    string    `json:"access_token"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func newUserResponse(u domain.User) userResponse {
	return userResponse{
		ID:             u.ID,
		FirstName:      u.FirstName,
		LastName:       u.LastName,
		Email:          u.Email,
		MobilePhone:    u.MobilePhone,
		Company:        u.Company,
		EmailConfirmed: u.EmailConfirmed(),
		AccessToken:    u.AccessToken,
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
}

type UsersHandler struct {
	UserService              *service.UserService
	EmailConfirmationService *service.EmailConfirmationService
}

type registerRequest struct {
	FirstName   string `json:"first_name" validate:"required,max=100"`
	LastName    string `json:"last_name" validate:"required,max=100"`
	Email       string `json:"email" validate:"required,email,max=254"`
	MobilePhone string `json:"mobile_phone" validate:"omitempty,e164ish"`
	Company     string `json:"company" validate:"max=200"`
	Password    string `json:"password" validate:"required,passwordrules"`
}

// HandleRegister creates an account and kicks off the confirmation mail.
func (h *UsersHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req registerRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	user, err := h.UserService.Register(ctx, service.RegisterParams{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		MobilePhone: req.MobilePhone,
		Company:     req.Company,
		Password:    req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmailTaken):
			writeError(w, http.StatusConflict, "email_taken")
		case errors.Is(err, service.ErrWeakPassword):
			writeValidationError(w, map[string]string{"password": validationMessageFor("passwordrules")})
		case errors.Is(err, service.ErrPasswordEqualsEmail):
			writeValidationError(w, map[string]string{"password": "must not equal the email address"})
		default:
			log.Error("register failed", "err", err)
			writeServerError(w)
		}
		return
	}

	if err := h.EmailConfirmationService.SendConfirmation(ctx, user); err != nil {
		// Account exists; the user can request another mail later.
		log.Warn("confirmation mail not sent", "user_id", user.ID, "err", err)
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, newUserResponse(user))
}

// HandleShow returns the authenticated user's profile.
func (h *UsersHandler) HandleShow(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		writeUnauthorized(w)
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, newUserResponse(user))
}

type updateRequest struct {
	FirstName   *string `json:"first_name" validate:"omitempty,min=1,max=100"`
	LastName    *string `json:"last_name" validate:"omitempty,min=1,max=100"`
	Email       *string `json:"email" validate:"omitempty,email,max=254"`
	MobilePhone *string `json:"mobile_phone" validate:"omitempty,e164ish"`
	Company     *string `json:"company" validate:"omitempty,max=200"`
}

// HandleUpdate applies a partial profile update; absent fields are untouched.
func (h *UsersHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	user, ok := userFromContext(ctx)
	if !ok {
		writeUnauthorized(w)
		return
	}

	var req updateRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	updated, err := h.UserService.UpdateProfile(ctx, user, service.UpdateParams{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		MobilePhone: req.MobilePhone,
		Company:     req.Company,
	})
	if err != nil {
		if errors.Is(err, service.ErrEmailTaken) {
			writeError(w, http.StatusConflict, "email_taken")
			return
		}
		log.Error("profile update failed", "user_id", user.ID, "err", err)
		writeServerError(w)
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, newUserResponse(updated))
}

type changePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required"`
	Password    string `json:"password" validate:"required,passwordrules"`
}

// HandleChangePassword verifies the current password before setting the new one.
func (h *UsersHandler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	user, ok := userFromContext(ctx)
	if !ok {
		writeUnauthorized(w)
		return
	}

	var req changePasswordRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	if err := h.UserService.ChangePassword(ctx, user, req.OldPassword, req.Password); err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			writeValidationError(w, map[string]string{"old_password": "does not match the current password"})
		case errors.Is(err, service.ErrWeakPassword):
			writeValidationError(w, map[string]string{"password": validationMessageFor("passwordrules")})
		case errors.Is(err, service.ErrPasswordEqualsEmail):
			writeValidationError(w, map[string]string{"password": "must not equal the email address"})
		default:
			log.Error("password change failed", "user_id", user.ID, "err", err)
			writeServerError(w)
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleDelete soft-deletes the account and revokes its tokens.
func (h *UsersHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	user, ok := userFromContext(ctx)
	if !ok {
		writeUnauthorized(w)
		return
	}

	if err := h.UserService.Delete(ctx, user); err != nil {
		log.Error("account delete failed", "user_id", user.ID, "err", err)
		writeServerError(w)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
