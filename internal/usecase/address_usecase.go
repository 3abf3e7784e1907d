package usecase

import (
	"context"

	"github.com/brunoeugeniodev/NaLojaTem/internal/domain/entity"

	"github.com/google/uuid"
)

// AddressUsecase manages the addresses ("enderecos") of the signed-in user.
type AddressUsecase interface {
	List(ctx context.Context, userID uuid.UUID) ([]*entity.Address, error)
	// Get returns ErrAddressNotFound for addresses of other users.
	Get(ctx context.Context, userID, addressID uuid.UUID) (*entity.Address, error)
	Create(ctx context.Context, userID uuid.UUID, input *AddressInput) (*entity.Address, error)
	Update(ctx context.Context, userID, addressID uuid.UUID, input *AddressInput) (*entity.Address, error)
	Delete(ctx context.Context, userID, addressID uuid.UUID) error
}
