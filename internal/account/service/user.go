package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/loopline/accountd/internal/account/domain"
	"github.com/loopline/accountd/internal/account/store"
	"github.com/loopline/accountd/pkg/cryptox"
	"github.com/loopline/accountd/pkg/idx"
	"github.com/loopline/accountd/pkg/slogx"
)

// UserService owns the credential side of an account: registration,
// authentication, profile mutation, password change, and soft delete.
type UserService struct {
	Store store.Store
}

type RegisterParams struct {
	FirstName   string
	LastName    string
	Email       string
	MobilePhone string
	Company     string
	Password    string
}

// Register creates a new account. The password is hashed immediately and a
// fresh opaque access token is issued, so the caller can authenticate right
// away without a second round trip.
func (s *UserService) Register(ctx context.Context, p RegisterParams) (domain.User, error) {
	log := slogx.FromContext(ctx)

	if err := validateNewPassword(p.Password, p.Email); err != nil {
		return domain.User{}, err
	}

	// Friendly pre-check; the partial unique index still backstops the race.
	_, err := s.Store.Users().GetUserByEmail(ctx, p.Email)
	if err == nil {
		return domain.User{}, ErrEmailTaken
	}
	if !errors.Is(err, store.ErrNotFound) {
		log.Error("failed to check email availability", slog.Any("error", err))
		return domain.User{}, err
	}

	passwordHash, err := cryptox.HashPassword(p.Password)
	if err != nil {
		log.Error("failed to hash password", slog.Any("error", err))
		return domain.User{}, err
	}

	accessToken, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		log.Error("failed to generate access token", slog.Any("error", err))
		return domain.User{}, err
	}

	user := domain.User{
		ID:           idx.New().String(),
		FirstName:    p.FirstName,
		LastName:     p.LastName,
		Email:        p.Email,
		MobilePhone:  p.MobilePhone,
		Company:      p.Company,
		PasswordHash: passwordHash,
		AccessToken:  accessToken,
	}

	if err := s.Store.Users().CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.User{}, ErrEmailTaken
		}
		log.Error("failed to create user", slog.Any("error", err))
		return domain.User{}, err
	}

	log.Info("user registered", slog.String("user_id", user.ID))

	return s.Store.Users().GetUserByID(ctx, user.ID)
}

// dummyHash is verified when the email is unknown so the response time does
// not reveal whether the account exists. Built lazily because hashing needs
// the pepper, which is configured at startup.
var (
	dummyHashOnce sync.Once
	dummyHash     string
)

func getDummyHash() string {
	dummyHashOnce.Do(func() {
		h, err := cryptox.HashPassword(cryptox.MustGenerateToken(cryptox.TokenSize128))
		if err != nil {
			panic(err)
		}
		dummyHash = h
	})
	return dummyHash
}

// Authenticate verifies email+password and returns the account's access
// token. Unknown email and wrong password produce the same error.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (string, error) {
	log := slogx.FromContext(ctx)

	user, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			_ = cryptox.VerifyPassword(password, getDummyHash())
			return "", ErrInvalidCredentials
		}
		log.Error("failed to fetch user by email", slog.Any("error", err))
		return "", err
	}

	if err := cryptox.VerifyPassword(password, user.PasswordHash); err != nil {
		if errors.Is(err, cryptox.ErrPasswordMismatch) {
			log.Info("authentication failed", slog.String("user_id", user.ID))
			return "", ErrInvalidCredentials
		}
		log.Error("failed to verify password", slog.Any("error", err))
		return "", err
	}

	return user.AccessToken, nil
}

// UserByAccessToken resolves a bearer credential to its live owner. Used by
// the HTTP boundary to authenticate requests.
func (s *UserService) UserByAccessToken(ctx context.Context, token string) (domain.User, error) {
	if token == "" {
		return domain.User{}, ErrInvalidCredentials
	}
	user, err := s.Store.Users().GetUserByAccessToken(ctx, token)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, ErrInvalidCredentials
		}
		return domain.User{}, err
	}
	return user, nil
}

// UpdateParams carries a partial profile update; nil fields keep their
// current value. The password is never updated through this path.
type UpdateParams struct {
	FirstName   *string
	LastName    *string
	Email       *string
	MobilePhone *string
	Company     *string
}

func (s *UserService) UpdateProfile(ctx context.Context, user domain.User, p UpdateParams) (domain.User, error) {
	log := slogx.FromContext(ctx)

	if p.FirstName != nil {
		user.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		user.LastName = *p.LastName
	}
	if p.Email != nil {
		user.Email = *p.Email
	}
	if p.MobilePhone != nil {
		user.MobilePhone = *p.MobilePhone
	}
	if p.Company != nil {
		user.Company = *p.Company
	}

	if err := s.Store.Users().UpdateProfile(ctx, user); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.User{}, ErrEmailTaken
		}
		log.Error("failed to update profile", slog.String("user_id", user.ID), slog.Any("error", err))
		return domain.User{}, err
	}

	return s.Store.Users().GetUserByID(ctx, user.ID)
}

// ChangePassword re-hashes and stores the new password after verifying the
// old one. The access token is not rotated.
func (s *UserService) ChangePassword(ctx context.Context, user domain.User, oldPassword, newPassword string) error {
	log := slogx.FromContext(ctx)

	if err := cryptox.VerifyPassword(oldPassword, user.PasswordHash); err != nil {
		if errors.Is(err, cryptox.ErrPasswordMismatch) {
			log.Info("password change rejected: old password mismatch", slog.String("user_id", user.ID))
			return ErrInvalidCredentials
		}
		log.Error("failed to verify password", slog.Any("error", err))
		return err
	}

	if err := validateNewPassword(newPassword, user.Email); err != nil {
		return err
	}

	newHash, err := cryptox.HashPassword(newPassword)
	if err != nil {
		log.Error("failed to hash password", slog.Any("error", err))
		return err
	}

	if err := s.Store.Users().UpdatePasswordHash(ctx, user.ID, newHash); err != nil {
		log.Error("failed to store password hash", slog.String("user_id", user.ID), slog.Any("error", err))
		return err
	}

	log.Info("password changed", slog.String("user_id", user.ID))
	return nil
}

// Delete soft-deletes the account and discards its outstanding security
// tokens. The row is retained but invisible, so the email address becomes
// available for a fresh registration.
func (s *UserService) Delete(ctx context.Context, user domain.User) error {
	log := slogx.FromContext(ctx)

	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().SoftDeleteUser(ctx, user.ID, time.Now()); err != nil {
			return err
		}
		if err := tx.SecurityTokens().DeleteUserSecurityTokens(ctx, user.ID, domain.TokenPasswordReset); err != nil {
			return err
		}
		return tx.SecurityTokens().DeleteUserSecurityTokens(ctx, user.ID, domain.TokenEmailConfirmation)
	})
	if err != nil {
		log.Error("failed to delete user", slog.String("user_id", user.ID), slog.Any("error", err))
		return err
	}

	log.Info("user deleted", slog.String("user_id", user.ID))
	return nil
}
