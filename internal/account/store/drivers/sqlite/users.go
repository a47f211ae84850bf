package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/loopline/accountd/internal/account/domain"
)

type usersRepo struct {
	db dbtx
}

const userColumns = `id, first_name, last_name, email, mobile_phone, company,
	password_hash, access_token, email_confirmed_at, created_at, updated_at, deleted_at`

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, first_name, last_name, email, mobile_phone, company,
			password_hash, access_token, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.FirstName, u.LastName, u.Email, u.MobilePhone, u.Company,
		u.PasswordHash, u.AccessToken, now, now,
	)
	return mapConstraint(err)
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE id = ? AND deleted_at IS NULL`, id)
	return scanUser(row)
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE lower(email) = lower(?) AND deleted_at IS NULL`, email)
	return scanUser(row)
}

func (r *usersRepo) GetUserByAccessToken(ctx context.Context, token string) (domain.User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE access_token = ? AND deleted_at IS NULL`, token)
	return scanUser(row)
}

func (r *usersRepo) UpdateProfile(ctx context.Context, u domain.User) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET first_name = ?, last_name = ?, email = ?, mobile_phone = ?, company = ?,
			updated_at = ?
		WHERE id = ? AND deleted_at IS NULL`,
		u.FirstName, u.LastName, u.Email, u.MobilePhone, u.Company,
		time.Now().UTC(), u.ID,
	)
	return mapConstraint(err)
}

func (r *usersRepo) UpdatePasswordHash(ctx context.Context, userID, newHash string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET password_hash = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL`,
		newHash, time.Now().UTC(), userID,
	)
	return err
}

func (r *usersRepo) ConfirmEmail(ctx context.Context, userID string, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET email_confirmed_at = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL`,
		at.UTC(), time.Now().UTC(), userID,
	)
	return err
}

func (r *usersRepo) SoftDeleteUser(ctx context.Context, userID string, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET deleted_at = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL`,
		at.UTC(), time.Now().UTC(), userID,
	)
	return err
}

func scanUser(row *sql.Row) (domain.User, error) {
	var u domain.User
	var confirmedAt, deletedAt sql.NullTime
	err := row.Scan(
		&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.MobilePhone, &u.Company,
		&u.PasswordHash, &u.AccessToken, &confirmedAt, &u.CreatedAt, &u.UpdatedAt, &deletedAt,
	)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}

	if confirmedAt.Valid {
		t := confirmedAt.Time
		u.EmailConfirmedAt = &t
	}
	if deletedAt.Valid {
		t := deletedAt.Time
		u.DeletedAt = &t
	}
	return u, nil
}
