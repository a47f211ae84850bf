package domain

import "time"

type User struct {
	ID           string
	FirstName    string
	LastName     string
	Email        string
	MobilePhone  string // leading + followed by digits
	Company      string
	PasswordHash string // argon2id encoded
	AccessToken  string // opaque bearer credential, issued at registration

	EmailConfirmedAt *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
	DeletedAt        *time.Time // soft delete marker; deleted rows are invisible to lookups
}

// Deleted reports whether the user has been soft-deleted.
func (u User) Deleted() bool { return u.DeletedAt != nil }

// EmailConfirmed reports whether the user has completed email confirmation.
func (u User) EmailConfirmed() bool { return u.EmailConfirmedAt != nil }

func (u User) FullName() string {
	return u.FirstName + " " + u.LastName
}
