package impl

import (
	"context"
	"log/slog"

	deliverycontext "github.com/brunoeugeniodev/NaLojaTem/internal/delivery/context"
	"github.com/brunoeugeniodev/NaLojaTem/internal/domain/entity"
	domainerrors "github.com/brunoeugeniodev/NaLojaTem/internal/domain/errors"
	"github.com/brunoeugeniodev/NaLojaTem/internal/domain/repository"
	"github.com/brunoeugeniodev/NaLojaTem/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// addressService implements the AddressUsecase interface.
type addressService struct {
	txManager   repository.TransactionManager
	addressRepo repository.AddressRepository
	logger      *slog.Logger
}

// AddressServiceParams holds dependencies for AddressService, injected by Fx.
type AddressServiceParams struct {
	fx.In

	TxManager   repository.TransactionManager
	AddressRepo repository.AddressRepository
	Logger      *slog.Logger
}

// NewAddressService is the constructor for addressService.
func NewAddressService(params AddressServiceParams) usecase.AddressUsecase {
	return &addressService{
		txManager:   params.TxManager,
		addressRepo: params.AddressRepo,
		logger:      params.Logger,
	}
}

func (srv *addressService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

func validateAddressInput(input *usecase.AddressInput) error {
	if input == nil {
		return errors.WithStack(domainerrors.ErrValidationFailed.WithMessage("Endereço é obrigatório"))
	}

	return nil
}

func (srv *addressService) List(ctx context.Context, userID uuid.UUID) ([]*entity.Address, error) {
	addresses, err := srv.addressRepo.FindAddressesByUser(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list addresses")
	}

	return addresses, nil
}

// Get hides addresses of other users behind NotFound.
func (srv *addressService) Get(ctx context.Context, userID, addressID uuid.UUID) (*entity.Address, error) {
	address, err := srv.addressRepo.FindAddressByID(ctx, addressID)
	if err != nil {
		return nil, translateRepoError(errors.Wrap(err, "failed to load address"))
	}
	if !address.IsOwnedBy(userID) {
		return nil, errors.WithStack(domainerrors.ErrAddressNotFound)
	}

	return address, nil
}

func (srv *addressService) Create(ctx context.Context, userID uuid.UUID, input *usecase.AddressInput) (*entity.Address, error) {
	if err := validateAddressInput(input); err != nil {
		return nil, err
	}

	address := buildAddress(input)
	address.UserID = &userID
	if err := srv.addressRepo.CreateAddress(ctx, address); err != nil {
		return nil, translateRepoError(errors.Wrap(err, "failed to create address"))
	}
	srv.log(ctx).Info("Address created", slog.Any("addressID", address.ID), slog.Any("userID", userID))

	return address, nil
}

func (srv *addressService) Update(ctx context.Context, userID, addressID uuid.UUID, input *usecase.AddressInput) (*entity.Address, error) {
	if err := validateAddressInput(input); err != nil {
		return nil, err
	}

	var updated *entity.Address
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		addressRepo := repoFactory.NewAddressRepository()

		current, err := loadOwnedAddress(ctx, addressRepo, userID, addressID)
		if err != nil {
			return err
		}

		address := buildAddress(input)
		address.ID = current.ID
		address.UserID = current.UserID
		address.StoreID = current.StoreID
		address.CreatedAt = current.CreatedAt
		if err := addressRepo.UpdateAddress(ctx, address); err != nil {
			return errors.Wrap(err, "failed to update address")
		}
		updated = address

		return nil
	})
	if err != nil {
		return nil, translateRepoError(err)
	}

	return updated, nil
}

func (srv *addressService) Delete(ctx context.Context, userID, addressID uuid.UUID) error {
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		addressRepo := repoFactory.NewAddressRepository()
		if _, err := loadOwnedAddress(ctx, addressRepo, userID, addressID); err != nil {
			return err
		}

		return errors.Wrap(addressRepo.DeleteAddress(ctx, addressID), "failed to delete address")
	})
	if err != nil {
		return translateRepoError(err)
	}
	srv.log(ctx).Info("Address deleted", slog.Any("addressID", addressID), slog.Any("userID", userID))

	return nil
}

// loadOwnedAddress rejects mutation of an address that belongs to someone else.
func loadOwnedAddress(ctx context.Context, addressRepo repository.AddressRepository, userID, addressID uuid.UUID) (*entity.Address, error) {
	address, err := addressRepo.FindAddressByID(ctx, addressID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load address")
	}
	if !address.IsOwnedBy(userID) {
		return nil, errors.WithStack(domainerrors.ErrAddressOwnershipViolation)
	}

	return address, nil
}
