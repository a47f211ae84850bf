package service

import "strings"

// passwordSymbols is the punctuation set that can substitute for an
// uppercase letter in the complexity rule.
const passwordSymbols = "#?!@$%^&*-"

const minPasswordLength = 8

// PasswordMeetsComplexity reports whether the password is at least eight
// characters and contains a lowercase letter, a digit, and either an
// uppercase letter or one of #?!@$%^&*-. Shared with the HTTP validation
// layer so both report the same rule.
func PasswordMeetsComplexity(password string) bool {
	if len(password) < minPasswordLength {
		return false
	}

	var lower, digit, upperOrSymbol bool
	for _, r := range password {
		switch {
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= '0' && r <= '9':
			digit = true
		case r >= 'A' && r <= 'Z':
			upperOrSymbol = true
		case strings.ContainsRune(passwordSymbols, r):
			upperOrSymbol = true
		}
	}
	return lower && digit && upperOrSymbol
}

// validateNewPassword applies the complexity rule plus the "must differ from
// the account email" rule used everywhere a password is set.
func validateNewPassword(password, email string) error {
	if !PasswordMeetsComplexity(password) {
		return ErrWeakPassword
	}
	if strings.EqualFold(password, email) {
		return ErrPasswordEqualsEmail
	}
	return nil
}
