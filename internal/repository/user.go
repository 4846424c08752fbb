// Package repository contains data access abstractions for the remote user
// store. Implementations live in subpackages (e.g., postgres) inside this
// directory.
package repository

import (
	"context"

	"usersapi/internal/model"
)

// UserRepository defines data access for users. Each method is a single
// round trip to the store with no batching, caching, or retries.
// No business logic here — strictly persistence operations.
type UserRepository interface {
	// FetchAll returns every user in the collection.
	FetchAll(ctx context.Context) ([]model.User, error)

	// FindByID returns a user by its ID.
	FindByID(ctx context.Context, id string) (*model.User, error)

	// Set writes the user under its caller-assigned ID, inserting the row
	// or overwriting an existing one (document-store set semantics).
	// Returns the stored user.
	Set(ctx context.Context, u *model.User) (*model.User, error)

	// Update rewrites the mutable fields of an existing user.
	// Returns sql.ErrNoRows via the driver if the ID does not exist.
	Update(ctx context.Context, u *model.User) (*model.User, error)

	// Delete removes a user by ID. It returns nil if the row was deleted or did not exist.
	Delete(ctx context.Context, id string) error
}
