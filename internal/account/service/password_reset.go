package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/loopline/accountd/internal/account/domain"
	"github.com/loopline/accountd/internal/account/notify"
	"github.com/loopline/accountd/internal/account/store"
	"github.com/loopline/accountd/pkg/cryptox"
	"github.com/loopline/accountd/pkg/slogx"
)

// PasswordResetService drives the two-step reset flow: a mailed single-use
// token, then a password update that consumes it.
type PasswordResetService struct {
	Store    store.Store
	Mailer   notify.Mailer
	TokenTTL time.Duration
	BaseURL  string // public base URL used to build the reset link
}

func (s *PasswordResetService) ttl() time.Duration {
	if s.TokenTTL > 0 {
		return s.TokenTTL
	}
	return DefaultSecurityTokenTTL
}

// RequestReset issues a password reset token for the account holding the
// email and mails the reset link. The caller gets the same nil result
// whether or not the email is registered.
func (s *PasswordResetService) RequestReset(ctx context.Context, email string) error {
	log := slogx.FromContext(ctx)

	user, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Succeed silently so the endpoint cannot be used to probe
			// which addresses are registered.
			log.Debug("password reset requested for unknown email")
			return nil
		}
		log.Error("failed to fetch user by email", slog.Any("error", err))
		return err
	}

	raw, err := issueSecurityToken(ctx, s.Store, user.ID, domain.TokenPasswordReset, s.ttl())
	if err != nil {
		log.Error("failed to issue reset token", slog.String("user_id", user.ID), slog.Any("error", err))
		return err
	}

	log.Info("password reset token issued", slog.String("user_id", user.ID))

	s.dispatchMail(ctx, notify.Mail{
		To:      user.Email,
		Subject: "Reset your password",
		Body: fmt.Sprintf(
			"Hi %s,\n\nUse the link below to set a new password. It expires in %s.\n\n%s/user/password/reset/%s\n",
			user.FirstName, s.ttl(), s.BaseURL, raw,
		),
	})

	return nil
}

// Reset consumes a password reset token and stores the new password,
// returning the account's access token so the client can proceed
// authenticated. Lookup, update, and consumption run in one transaction so a
// token can never be spent twice.
func (s *PasswordResetService) Reset(ctx context.Context, rawToken, newPassword string) (string, error) {
	log := slogx.FromContext(ctx)

	hash := cryptox.FingerprintToken(rawToken)

	var accessToken string
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		token, err := tx.SecurityTokens().GetActiveSecurityTokenByHash(ctx, hash, domain.TokenPasswordReset)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrTokenInvalid
			}
			return err
		}

		user, err := tx.Users().GetUserByID(ctx, token.UserID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				// Owner soft-deleted after the token was issued.
				return ErrTokenInvalid
			}
			return err
		}

		if err := validateNewPassword(newPassword, user.Email); err != nil {
			return err
		}

		newHash, err := cryptox.HashPassword(newPassword)
		if err != nil {
			return err
		}
		if err := tx.Users().UpdatePasswordHash(ctx, user.ID, newHash); err != nil {
			return err
		}

		if err := tx.SecurityTokens().DeleteSecurityToken(ctx, token.ID); err != nil {
			return err
		}

		accessToken = user.AccessToken
		log.Info("password reset", slog.String("user_id", user.ID))
		return nil
	})
	if err != nil {
		return "", err
	}

	return accessToken, nil
}

// IsTokenValid reports whether an unconsumed, unexpired reset token exists
// for the raw value. Read-only: checking does not consume.
func (s *PasswordResetService) IsTokenValid(ctx context.Context, rawToken string) (bool, error) {
	hash := cryptox.FingerprintToken(rawToken)

	_, err := s.Store.SecurityTokens().GetActiveSecurityTokenByHash(ctx, hash, domain.TokenPasswordReset)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// dispatchMail sends best-effort, off the request path. A failed mail never
// unwinds the committed token state.
func (s *PasswordResetService) dispatchMail(ctx context.Context, m notify.Mail) {
	log := slogx.FromContext(ctx)
	ctx = context.WithoutCancel(ctx)
	go func() {
		if err := s.Mailer.SendMail(ctx, m); err != nil {
			log.Warn("reset mail delivery failed", slog.Any("error", err))
		}
	}()
}
