package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"skillsphere/internal/model"
)

func (r *repository) CreateUser(ctx context.Context, u *model.User) (int64, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`, u.Email,
	).Scan(&exists)
	if err != nil {
		return 0, fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		return 0, ErrEmailTaken
	}

	query := `
		INSERT INTO users (name, email, password_hash, role, bio, resume_url)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	var id int64
	if err := r.db.QueryRowContext(ctx, query,
		u.Name, u.Email, u.PasswordHash, u.Role, u.Bio, u.ResumeURL,
	).Scan(&id); err != nil {
		if isUniqueViolation(err) {
			return 0, ErrEmailTaken
		}
		return 0, fmt.Errorf("failed to insert user: %w", err)
	}
	return id, nil
}

func (r *repository) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	query := `
		SELECT id, name, email, password_hash, role, bio, resume_url,
		       is_active, created_at, updated_at
		FROM users WHERE id = $1 AND is_active = TRUE
	`
	row := r.db.QueryRowContext(ctx, query, id)

	var u model.User
	if err := scanUser(row, &u); err != nil {
		return nil, ErrUserNotFound
	}
	return &u, nil
}

func (r *repository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `
		SELECT id, name, email, password_hash, role, bio, resume_url,
		       is_active, created_at, updated_at
		FROM users WHERE email = $1 AND is_active = TRUE
	`
	row := r.db.QueryRowContext(ctx, query, email)

	var u model.User
	if err := scanUser(row, &u); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return &u, nil
}

func (r *repository) GetAllUsers(ctx context.Context) ([]model.User, error) {
	query := `
		SELECT id, name, email, password_hash, role, bio, resume_url,
		       is_active, created_at, updated_at
		FROM users
		WHERE is_active = TRUE
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		var u model.User
		if err := scanUser(rows, &u); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}

	return users, rows.Err()
}

func (r *repository) UpdateUser(ctx context.Context, u *model.User) error {
	query := `
		UPDATE users
		SET name = $1, bio = $2, resume_url = $3, updated_at = NOW()
		WHERE id = $4 AND is_active = TRUE
		RETURNING id
	`

	var id int64
	if err := r.db.QueryRowContext(ctx, query,
		u.Name, u.Bio, u.ResumeURL, u.ID,
	).Scan(&id); err != nil {
		return ErrUserNotFound
	}
	return nil
}

func (r *repository) DeactivateUser(ctx context.Context, id int64) error {
	query := `
		UPDATE users
		SET is_active = FALSE, updated_at = NOW()
		WHERE id = $1 AND is_active = TRUE
		RETURNING id
	`

	var got int64
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&got); err != nil {
		return ErrUserNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner, u *model.User) error {
	return row.Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.PasswordHash,
		&u.Role,
		&u.Bio,
		&u.ResumeURL,
		&u.IsActive,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
}
