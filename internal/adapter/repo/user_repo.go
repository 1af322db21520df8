package repo

import (
	"context"

	"sharekindness/internal/domain"
	"sharekindness/internal/infra"
	"sharekindness/internal/sqlinline"
)

// UserRepositoryPG implements domain.UserRepository backed by PostgreSQL.
type UserRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewUserRepository creates a new UserRepositoryPG.
func NewUserRepository(sql infra.SQLExecutor) *UserRepositoryPG {
	return &UserRepositoryPG{sql: sql}
}

// Create inserts the user and reports taken emails or usernames per field.
func (r *UserRepositoryPG) Create(ctx context.Context, u *domain.User) error {
	row := r.sql.QueryRow(ctx, sqlinline.QInsertUser,
		u.Username,
		u.Email,
		u.PasswordHash,
		rolesToStrings(u.Roles),
		u.ProfilePicture,
		u.PhoneNumber,
		u.City,
		u.State,
		u.Country,
		u.Bio,
	)
	if err := row.Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return translateUserConflict(err)
	}
	return nil
}

func translateUserConflict(err error) error {
	constraint, ok := uniqueViolation(err)
	if !ok {
		return err
	}
	switch constraint {
	case "users_email_key":
		return domain.Conflict(domain.NewValidationError("email", "user with this email already exists."))
	case "users_username_key":
		return domain.Conflict(domain.NewValidationError("username", "A user with that username already exists."))
	}
	return domain.ErrConflict
}

// GetByID fetches a user by primary key.
func (r *UserRepositoryPG) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	var s userScan
	if err := r.sql.QueryRow(ctx, sqlinline.QSelectUserByID, id).Scan(s.dest()...); err != nil {
		return nil, notFound(err)
	}
	return s.result(), nil
}

// GetByEmail fetches a user by case-insensitive email.
func (r *UserRepositoryPG) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var s userScan
	if err := r.sql.QueryRow(ctx, sqlinline.QSelectUserByEmail, email).Scan(s.dest()...); err != nil {
		return nil, notFound(err)
	}
	return s.result(), nil
}

// Update persists the editable profile fields.
func (r *UserRepositoryPG) Update(ctx context.Context, u *domain.User) error {
	row := r.sql.QueryRow(ctx, sqlinline.QUpdateUserProfile,
		u.ID,
		u.Username,
		rolesToStrings(u.Roles),
		u.ProfilePicture,
		u.PhoneNumber,
		u.City,
		u.State,
		u.Bio,
	)
	if err := row.Scan(&u.UpdatedAt); err != nil {
		if _, ok := uniqueViolation(err); ok {
			return translateUserConflict(err)
		}
		return notFound(err)
	}
	return nil
}

func (r *UserRepositoryPG) UpdatePassword(ctx context.Context, id int64, hash string) error {
	tag, err := r.sql.Exec(ctx, sqlinline.QUpdateUserPassword, id, hash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *UserRepositoryPG) SetVerified(ctx context.Context, id int64, verified bool) error {
	tag, err := r.sql.Exec(ctx, sqlinline.QUpdateUserVerified, id, verified)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete removes the account; listings and requests cascade.
func (r *UserRepositoryPG) Delete(ctx context.Context, id int64) error {
	tag, err := r.sql.Exec(ctx, sqlinline.QDeleteUser, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
