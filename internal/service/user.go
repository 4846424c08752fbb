package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"usersapi/internal/model"
	"usersapi/internal/repository"
	"usersapi/internal/roster"
	"usersapi/internal/storage"
)

var (
	ErrIDRequired = errors.New("id is required")
	ErrNotFound   = errors.New("user not found")
	ErrReaderNil  = errors.New("reader is nil")
)

// AvatarURLExpiry bounds how long a presigned avatar link stays valid.
const AvatarURLExpiry = 15 * time.Minute

// UserService defines the use cases for handling users. Writes go to the
// remote store first and are then mirrored into the in-memory roster; only
// List reads the store back.
type UserService interface {
	// List fetches every user from the store and replaces the roster with the result.
	List(ctx context.Context) ([]model.User, error)

	// Get returns a single user by its ID.
	Get(ctx context.Context, id string) (*model.User, error)

	// Create writes the user under its ID (generating one if empty) and adds it to the roster.
	Create(ctx context.Context, u model.User) (*model.User, error)

	// Update rewrites an existing user's name and age and updates the roster entry.
	Update(ctx context.Context, u model.User) (*model.User, error)

	// Delete removes a user from the store, the roster, and best-effort its avatar object.
	Delete(ctx context.Context, id string) error

	// UploadAvatar streams an avatar image to object storage under the user's key.
	UploadAvatar(ctx context.Context, id string, r io.Reader, originalFilename, contentType string, size int64) (string, error)

	// AvatarURL returns a presigned download URL for the user's avatar.
	AvatarURL(ctx context.Context, id string) (string, error)
}

// userService is a concrete implementation of UserService.
type userService struct {
	repo   repository.UserRepository
	roster *roster.Roster
	store  storage.Storage
	tracer trace.Tracer
}

// NewUserService constructs a new UserService.
func NewUserService(repo repository.UserRepository, r *roster.Roster, store storage.Storage) UserService {
	return &userService{
		repo:   repo,
		roster: r,
		store:  store,
		tracer: otel.Tracer("usersapi/internal/service"),
	}
}

func (s *userService) List(ctx context.Context) ([]model.User, error) {
	ctx, span := s.tracer.Start(ctx, "UserService.List")
	defer span.End()

	users, err := s.repo.FetchAll(ctx)
	if err != nil {
		return nil, err
	}
	s.roster.Replace(users)
	return users, nil
}

func (s *userService) Get(ctx context.Context, id string) (*model.User, error) {
	ctx, span := s.tracer.Start(ctx, "UserService.Get")
	defer span.End()

	if id == "" {
		return nil, ErrIDRequired
	}
	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return u, nil
}

func (s *userService) Create(ctx context.Context, u model.User) (*model.User, error) {
	ctx, span := s.tracer.Start(ctx, "UserService.Create")
	defer span.End()

	// The creator assigns the ID; generate one only when the caller left it out.
	if u.ID == "" {
		u.ID = uuid.NewString()
	}

	stored, err := s.repo.Set(ctx, &u)
	if err != nil {
		return nil, fmt.Errorf("set user: %w", err)
	}
	s.roster.Add(*stored)
	return stored, nil
}

func (s *userService) Update(ctx context.Context, u model.User) (*model.User, error) {
	ctx, span := s.tracer.Start(ctx, "UserService.Update")
	defer span.End()

	if u.ID == "" {
		return nil, ErrIDRequired
	}

	stored, err := s.repo.Update(ctx, &u)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	// Mirror into the roster; a miss just means this process never listed or created it.
	s.roster.Update(*stored)
	return stored, nil
}

func (s *userService) Delete(ctx context.Context, id string) error {
	ctx, span := s.tracer.Start(ctx, "UserService.Delete")
	defer span.End()

	if id == "" {
		return ErrIDRequired
	}
	// Guard so the caller can distinguish a missing user; the repository itself
	// treats deleting an absent row as success.
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	s.roster.Remove(id)
	// Most users never uploaded an avatar; removal is best-effort.
	_ = s.store.Delete(ctx, avatarKey(id))
	return nil
}

func (s *userService) UploadAvatar(ctx context.Context, id string, r io.Reader, originalFilename, contentType string, size int64) (string, error) {
	ctx, span := s.tracer.Start(ctx, "UserService.UploadAvatar")
	defer span.End()

	if id == "" {
		return "", ErrIDRequired
	}
	if r == nil {
		return "", ErrReaderNil
	}
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}

	key := avatarKey(id)
	if _, err := s.store.Put(ctx, key, r, storage.PutObjectOptions{
		Size:        size,
		ContentType: contentType,
		Metadata: map[string]string{
			"original-filename": originalFilename,
		},
	}); err != nil {
		return "", fmt.Errorf("upload avatar: %w", err)
	}
	return key, nil
}

func (s *userService) AvatarURL(ctx context.Context, id string) (string, error) {
	ctx, span := s.tracer.Start(ctx, "UserService.AvatarURL")
	defer span.End()

	if id == "" {
		return "", ErrIDRequired
	}
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}

	url, err := s.store.PresignGet(ctx, avatarKey(id), AvatarURLExpiry)
	if err != nil {
		return "", fmt.Errorf("presign avatar: %w", err)
	}
	return url, nil
}

// avatarKey derives the object key for a user's avatar. Keyed by user ID so
// the URL lookup needs no extra state in the users table.
func avatarKey(id string) string {
	return "avatars/" + id
}
