package service

import "errors"

var (
	// ErrInvalidCredentials covers both an unknown email and a wrong
	// password so responses cannot be used to enumerate accounts. It also
	// covers a wrong old password on password change.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrEmailTaken reports that a live account already holds the email.
	ErrEmailTaken = errors.New("email already taken")

	// ErrTokenInvalid deliberately does not distinguish between a security
	// token that is absent, expired, already consumed, or owned by a
	// different user.
	ErrTokenInvalid = errors.New("security token invalid or expired")

	// ErrWeakPassword reports a password failing the length or complexity
	// rules.
	ErrWeakPassword = errors.New("password does not meet complexity rules")

	// ErrPasswordEqualsEmail reports a password equal to the account email.
	ErrPasswordEqualsEmail = errors.New("password must differ from email")
)
