package postgres

import (
	"context"
	"database/sql"
	"errors"

	"usersapi/internal/model"
	"usersapi/internal/repository"
)

// UserPostgres is a PostgreSQL implementation of repository.UserRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type UserPostgres struct {
	db *sql.DB
}

// NewUserPostgres creates a new UserPostgres repository.
func NewUserPostgres(db *sql.DB) *UserPostgres {
	return &UserPostgres{db: db}
}

var _ repository.UserRepository = (*UserPostgres)(nil)

// IsNoRowsError reports whether err means the requested row does not exist.
func IsNoRowsError(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// FetchAll returns the whole users collection ordered by name.
func (r *UserPostgres) FetchAll(ctx context.Context) ([]model.User, error) {
	const q = `
		SELECT id, name, age
		FROM users
		ORDER BY name ASC, id ASC
	`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]model.User, 0)
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Age); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return users, nil
}

// FindByID fetches a single user by its ID.
func (r *UserPostgres) FindByID(ctx context.Context, id string) (*model.User, error) {
	const q = `
		SELECT id, name, age
		FROM users
		WHERE id = $1
	`
	var u model.User
	if err := r.db.QueryRowContext(ctx, q, id).Scan(&u.ID, &u.Name, &u.Age); err != nil {
		return nil, err
	}
	return &u, nil
}

// Set upserts a user row under its caller-assigned ID and returns the stored record.
func (r *UserPostgres) Set(ctx context.Context, u *model.User) (*model.User, error) {
	const q = `
		INSERT INTO users (id, name, age)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, age = EXCLUDED.age
		RETURNING id, name, age
	`
	var out model.User
	if err := r.db.QueryRowContext(ctx, q, u.ID, u.Name, u.Age).Scan(&out.ID, &out.Name, &out.Age); err != nil {
		return nil, err
	}
	return &out, nil
}

// Update rewrites name and age for an existing user.
// Scanning the RETURNING row yields sql.ErrNoRows when the ID is absent.
func (r *UserPostgres) Update(ctx context.Context, u *model.User) (*model.User, error) {
	const q = `
		UPDATE users
		SET name = $2, age = $3
		WHERE id = $1
		RETURNING id, name, age
	`
	var out model.User
	if err := r.db.QueryRowContext(ctx, q, u.ID, u.Name, u.Age).Scan(&out.ID, &out.Name, &out.Age); err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete removes a user by ID. It does not return an error if the row does not exist.
func (r *UserPostgres) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM users WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	// Missing rows are not an error; the remote call is fire-and-forget.
	_, _ = res.RowsAffected()
	return nil
}
