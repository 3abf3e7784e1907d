package usecase

import (
	"context"

	"github.com/brunoeugeniodev/NaLojaTem/internal/domain/entity"

	"github.com/google/uuid"
)

// UpdateProfileInput holds the editable profile fields. Nil fields are left untouched.
type UpdateProfileInput struct {
	Name     *string
	Email    *string
	Password *string
}

// UserUsecase defines profile and account administration operations.
type UserUsecase interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*entity.User, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, input *UpdateProfileInput) (*entity.User, error)
	ListUsers(ctx context.Context) ([]*entity.User, error)
	GetUser(ctx context.Context, userID uuid.UUID) (*entity.User, error)
	DeleteUser(ctx context.Context, userID uuid.UUID) error
}
