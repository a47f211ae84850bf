package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/loopline/accountd/internal/account/domain"
)

func TestEmailConfirmationFlow(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	users := &UserService{Store: st}
	mailer := newSpyMailer()
	svc := &EmailConfirmationService{Store: st, Mailer: mailer, BaseURL: "https://account.example.test"}

	user := registerTestUser(t, users, "confirm@example.test")
	require.False(t, user.EmailConfirmed())

	require.NoError(t, svc.SendConfirmation(ctx, user))
	mail := mailer.wait(t)
	require.Equal(t, "confirm@example.test", mail.To)
	raw := confirmationTokenFromMail(t, mail.Body)

	t.Run("confirm marks the email and returns the access token", func(t *testing.T) {
		token, err := svc.Confirm(ctx, raw, user)
		require.NoError(t, err)
		require.Equal(t, user.AccessToken, token)

		got, err := users.UserByAccessToken(ctx, user.AccessToken)
		require.NoError(t, err)
		require.True(t, got.EmailConfirmed())
	})

	t.Run("a consumed token cannot be spent again", func(t *testing.T) {
		_, err := svc.Confirm(ctx, raw, user)
		require.ErrorIs(t, err, ErrTokenInvalid)
	})
}

func TestEmailConfirmationEdgeCases(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	users := &UserService{Store: st}
	mailer := newSpyMailer()
	svc := &EmailConfirmationService{Store: st, Mailer: mailer, BaseURL: "https://account.example.test"}

	t.Run("another user's token is indistinguishable from a missing one", func(t *testing.T) {
		owner := registerTestUser(t, users, "owner@example.test")
		intruder := registerTestUser(t, users, "intruder@example.test")

		raw, err := issueSecurityToken(ctx, st, owner.ID, domain.TokenEmailConfirmation, time.Hour)
		require.NoError(t, err)

		_, err = svc.Confirm(ctx, raw, intruder)
		require.ErrorIs(t, err, ErrTokenInvalid)

		// The failed attempt must not consume the owner's token.
		token, err := svc.Confirm(ctx, raw, owner)
		require.NoError(t, err)
		require.Equal(t, owner.AccessToken, token)
	})

	t.Run("expired token behaves as absent", func(t *testing.T) {
		user := registerTestUser(t, users, "late@example.test")

		raw, err := issueSecurityToken(ctx, st, user.ID, domain.TokenEmailConfirmation, -time.Minute)
		require.NoError(t, err)

		_, err = svc.Confirm(ctx, raw, user)
		require.ErrorIs(t, err, ErrTokenInvalid)
	})

	t.Run("a reset token of the same user does not confirm", func(t *testing.T) {
		user := registerTestUser(t, users, "crosstype@example.test")

		raw, err := issueSecurityToken(ctx, st, user.ID, domain.TokenPasswordReset, time.Hour)
		require.NoError(t, err)

		_, err = svc.Confirm(ctx, raw, user)
		require.ErrorIs(t, err, ErrTokenInvalid)
	})

	t.Run("resending replaces the previous token", func(t *testing.T) {
		user := registerTestUser(t, users, "resend@example.test")

		require.NoError(t, svc.SendConfirmation(ctx, user))
		first := confirmationTokenFromMail(t, mailer.wait(t).Body)

		require.NoError(t, svc.SendConfirmation(ctx, user))
		second := confirmationTokenFromMail(t, mailer.wait(t).Body)

		_, err := svc.Confirm(ctx, first, user)
		require.ErrorIs(t, err, ErrTokenInvalid)

		token, err := svc.Confirm(ctx, second, user)
		require.NoError(t, err)
		require.Equal(t, user.AccessToken, token)
	})
}
