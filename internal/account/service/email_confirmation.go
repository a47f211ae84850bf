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

// EmailConfirmationService proves ownership of an account's email address
// with a mailed single-use token.
type EmailConfirmationService struct {
	Store    store.Store
	Mailer   notify.Mailer
	TokenTTL time.Duration
	BaseURL  string
}

func (s *EmailConfirmationService) ttl() time.Duration {
	if s.TokenTTL > 0 {
		return s.TokenTTL
	}
	return DefaultSecurityTokenTTL
}

// SendConfirmation issues a confirmation token for the authenticated user
// and mails it. Calling again replaces the previous token.
func (s *EmailConfirmationService) SendConfirmation(ctx context.Context, user domain.User) error {
	log := slogx.FromContext(ctx)

	raw, err := issueSecurityToken(ctx, s.Store, user.ID, domain.TokenEmailConfirmation, s.ttl())
	if err != nil {
		log.Error("failed to issue confirmation token", slog.String("user_id", user.ID), slog.Any("error", err))
		return err
	}

	log.Info("email confirmation token issued", slog.String("user_id", user.ID))

	mail := notify.Mail{
		To:      user.Email,
		Subject: "Confirm your email address",
		Body: fmt.Sprintf(
			"Hi %s,\n\nPlease confirm your email address using the token below. It expires in %s.\n\n%s\n",
			user.FirstName, s.ttl(), raw,
		),
	}

	dispatchCtx := context.WithoutCancel(ctx)
	go func() {
		if err := s.Mailer.SendMail(dispatchCtx, mail); err != nil {
			log.Warn("confirmation mail delivery failed", slog.Any("error", err))
		}
	}()

	return nil
}

// Confirm consumes a confirmation token belonging to the authenticated user
// and marks the email confirmed. A token owned by a different account is
// indistinguishable from a missing one.
func (s *EmailConfirmationService) Confirm(ctx context.Context, rawToken string, user domain.User) (string, error) {
	log := slogx.FromContext(ctx)

	hash := cryptox.FingerprintToken(rawToken)

	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		token, err := tx.SecurityTokens().GetActiveSecurityTokenByHash(ctx, hash, domain.TokenEmailConfirmation)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrTokenInvalid
			}
			return err
		}

		if token.UserID != user.ID {
			log.Warn("confirmation token ownership mismatch",
				slog.String("user_id", user.ID),
				slog.String("token_owner", token.UserID),
			)
			return ErrTokenInvalid
		}

		if err := tx.Users().ConfirmEmail(ctx, user.ID, time.Now()); err != nil {
			return err
		}

		return tx.SecurityTokens().DeleteSecurityToken(ctx, token.ID)
	})
	if err != nil {
		return "", err
	}

	log.Info("email confirmed", slog.String("user_id", user.ID))
	return user.AccessToken, nil
}
