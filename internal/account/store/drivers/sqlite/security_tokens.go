package sqlite

import (
	"context"
	"time"

	"github.com/loopline/accountd/internal/account/domain"
	"github.com/loopline/accountd/internal/account/store"
)

type securityTokensRepo struct {
	db dbtx
}

func (r *securityTokensRepo) CreateSecurityToken(ctx context.Context, t domain.SecurityToken) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO security_tokens (id, token_hash, type, user_id, expires_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		t.ID, t.TokenHash, string(t.Type), t.UserID, t.ExpiresAt.UTC(), time.Now().UTC(),
	)
	return mapConstraint(err)
}

func (r *securityTokensRepo) GetActiveSecurityTokenByHash(
	ctx context.Context,
	hash string,
	typ domain.TokenType,
) (domain.SecurityToken, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, token_hash, type, user_id, expires_at, created_at
		FROM security_tokens
		WHERE token_hash = ? AND type = ? AND expires_at > ?`,
		hash, string(typ), time.Now().UTC(),
	)

	var t domain.SecurityToken
	var rawType string
	if err := row.Scan(&t.ID, &t.TokenHash, &rawType, &t.UserID, &t.ExpiresAt, &t.CreatedAt); err != nil {
		return domain.SecurityToken{}, mapNotFound(err)
	}
	t.Type = domain.TokenType(rawType)
	return t, nil
}

func (r *securityTokensRepo) DeleteSecurityToken(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM security_tokens WHERE id = ?`, id)
	if err != nil {
		return err
	}
	// Surfacing the missing row lets callers detect a concurrent consume.
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *securityTokensRepo) DeleteUserSecurityTokens(
	ctx context.Context,
	userID string,
	typ domain.TokenType,
) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM security_tokens
		WHERE user_id = ? AND type = ?`, userID, string(typ))
	return err
}

func (r *securityTokensRepo) DeleteExpiredSecurityTokens(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM security_tokens
		WHERE expires_at <= ?`, time.Now().UTC())
	return err
}
