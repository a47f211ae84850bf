package domain

import "time"

// TokenType distinguishes the two security token flows.
type TokenType string

const (
	TokenPasswordReset     TokenType = "password_reset"
	TokenEmailConfirmation TokenType = "email_confirmation"
)

// SecurityToken is a single-use opaque token correlating a password reset or
// email confirmation back to the user who initiated it. Only the SHA-256
// fingerprint of the raw token is stored; consuming a token deletes the row.
type SecurityToken struct {
	ID        string
	TokenHash string // base64url SHA-256 fingerprint of the raw token
	Type      TokenType
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}
