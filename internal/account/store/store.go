package store

import (
	"context"
	"errors"
	"time"

	"github.com/loopline/accountd/internal/account/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite today)
// implement this. Sub-repositories keep concerns separated and let a Tx
// expose the same surface as the root store.
type Store interface {
	Users() Users
	SecurityTokens() SecurityTokens

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction, committing when fn returns
	// nil and rolling back otherwise. Use it for any operation where
	// "check token" and "apply change" must be atomic.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

// Users persists user records. Every lookup excludes soft-deleted rows; the
// email and access token uniqueness constraints are likewise scoped to live
// rows so both become reusable after a delete.
type Users interface {
	// CreateUser inserts a new user (id is provided by the app via ULID).
	// Returns ErrAlreadyExists when a live row already holds the email.
	CreateUser(ctx context.Context, u domain.User) error

	// GetUserByID returns a live user by id.
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByEmail matches case-insensitively among live rows.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// GetUserByAccessToken resolves a bearer credential to its live owner.
	GetUserByAccessToken(ctx context.Context, token string) (domain.User, error)

	// UpdateProfile writes the mutable profile fields (never the password)
	// and bumps updated_at. Returns ErrAlreadyExists when the new email
	// collides with another live row.
	UpdateProfile(ctx context.Context, u domain.User) error

	// UpdatePasswordHash sets the password_hash and bumps updated_at.
	UpdatePasswordHash(ctx context.Context, userID, newHash string) error

	// ConfirmEmail stamps email_confirmed_at.
	ConfirmEmail(ctx context.Context, userID string, at time.Time) error

	// SoftDeleteUser marks the row deleted. The record is retained but
	// disappears from every lookup.
	SoftDeleteUser(ctx context.Context, userID string, at time.Time) error
}

// SecurityTokens persists single-use tokens keyed by their fingerprint.
type SecurityTokens interface {
	CreateSecurityToken(ctx context.Context, t domain.SecurityToken) error

	// GetActiveSecurityTokenByHash returns an unexpired token matching the
	// fingerprint and type.
	GetActiveSecurityTokenByHash(ctx context.Context, hash string, typ domain.TokenType) (domain.SecurityToken, error)

	// DeleteSecurityToken consumes a token. Returns ErrNotFound when the
	// row is already gone, which callers treat as a lost race.
	DeleteSecurityToken(ctx context.Context, id string) error

	// DeleteUserSecurityTokens removes all of a user's tokens of one type,
	// used when issuing a replacement or deleting the user.
	DeleteUserSecurityTokens(ctx context.Context, userID string, typ domain.TokenType) error

	// DeleteExpiredSecurityTokens is housekeeping.
	DeleteExpiredSecurityTokens(ctx context.Context) error
}
