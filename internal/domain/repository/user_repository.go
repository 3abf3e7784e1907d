// Package repository defines the interfaces for the persistence layer.
// These interfaces act as a contract between the domain/application layers and the infrastructure layer.
package repository

import (
	"context"

	"github.com/brunoeugeniodev/NaLojaTem/internal/domain/entity"
	"github.com/brunoeugeniodev/NaLojaTem/internal/errors"

	"github.com/google/uuid"
)

// Domain-specific errors for user persistence.
var (
	ErrUserNotFound   = errors.New("user not found")
	ErrUserEmailTaken = errors.New("user email already exists")
	ErrUserCPFTaken   = errors.New("user cpf already exists")
)

// UserRepository defines the standard operations for user persistence.
type UserRepository interface {
	// FindByID retrieves a single user by their unique ID.
	FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error)

	// FindByEmail retrieves a single user by their email address (case-insensitive).
	FindByEmail(ctx context.Context, email string) (*entity.User, error)

	// FindByCPF retrieves a single user by national ID.
	FindByCPF(ctx context.Context, cpf string) (*entity.User, error)

	// List returns every user ordered by creation time.
	List(ctx context.Context) ([]*entity.User, error)

	// Create persists a new user. Returns ErrUserEmailTaken or ErrUserCPFTaken on conflicts.
	Create(ctx context.Context, user *entity.User) error

	// Update modifies an existing user entity in the storage.
	Update(ctx context.Context, user *entity.User) error

	// Delete removes the user. Cart, addresses and sessions go with it.
	Delete(ctx context.Context, id uuid.UUID) error
}
