package service

import (
	"context"
	"time"

	"github.com/loopline/accountd/internal/account/domain"
	"github.com/loopline/accountd/internal/account/store"
	"github.com/loopline/accountd/pkg/cryptox"
	"github.com/loopline/accountd/pkg/idx"
)

// DefaultSecurityTokenTTL bounds how long a reset or confirmation token stays
// redeemable. Short on purpose: these travel over email.
const DefaultSecurityTokenTTL = time.Hour

// issueSecurityToken mints a fresh opaque token of the given type for the
// user and persists its fingerprint, replacing any outstanding tokens of the
// same type. Returns the raw token, which exists only in this response and
// the outbound notification.
func issueSecurityToken(
	ctx context.Context,
	st store.Store,
	userID string,
	typ domain.TokenType,
	ttl time.Duration,
) (string, error) {
	raw, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return "", err
	}

	record := domain.SecurityToken{
		ID:        idx.New().String(),
		TokenHash: cryptox.FingerprintToken(raw),
		Type:      typ,
		UserID:    userID,
		ExpiresAt: time.Now().Add(ttl),
	}

	err = st.WithTx(ctx, func(tx store.Tx) error {
		// One meaningful token per type per user: issuing a replacement
		// invalidates the previous one.
		if err := tx.SecurityTokens().DeleteUserSecurityTokens(ctx, userID, typ); err != nil {
			return err
		}
		return tx.SecurityTokens().CreateSecurityToken(ctx, record)
	})
	if err != nil {
		return "", err
	}

	return raw, nil
}
