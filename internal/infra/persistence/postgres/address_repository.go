package postgres

import (
	"context"
	"time"

	"github.com/brunoeugeniodev/NaLojaTem/internal/domain/entity"
	domainerrors "github.com/brunoeugeniodev/NaLojaTem/internal/domain/errors"
	"github.com/brunoeugeniodev/NaLojaTem/internal/domain/repository"
	"github.com/brunoeugeniodev/NaLojaTem/internal/infra/persistence/model"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type addressRepository struct {
	db *gorm.DB
}

// NewAddressRepository is the constructor for addressRepository.
func NewAddressRepository(db *gorm.DB) repository.AddressRepository {
	return &addressRepository{db: db}
}

func (repo *addressRepository) CreateAddress(ctx context.Context, address *entity.Address) error {
	if address.ID == uuid.Nil {
		address.ID = uuid.New()
	}
	addressM := fromAddressDomain(address)

	if err := repo.db.WithContext(ctx).Create(addressM).Error; err != nil {
		if isForeignKeyConstraintViolation(err) {
			return domainerrors.ErrValidationFailed.WithMessage("Usuário ou loja do endereço não existe")
		}
		if isUniqueConstraintViolation(err) {
			return domainerrors.ErrValidationFailed.WithMessage("Loja já possui endereço")
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to create address")
	}

	address.CreatedAt = addressM.CreatedAt
	address.UpdatedAt = addressM.UpdatedAt

	return nil
}

func (repo *addressRepository) FindAddressByID(ctx context.Context, id uuid.UUID) (*entity.Address, error) {
	var addressM model.AddressModel
	if err := repo.db.WithContext(ctx).Where("id = ?", id).First(&addressM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrAddressNotFound
		}

		return nil, errors.Wrap(err, "failed to find address by id")
	}

	return toAddressDomain(&addressM), nil
}

func (repo *addressRepository) FindAddressesByUser(ctx context.Context, userID uuid.UUID) ([]*entity.Address, error) {
	var addressModels []*model.AddressModel
	if err := repo.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&addressModels).Error; err != nil {
		return nil, errors.Wrap(err, "failed to find addresses by user")
	}

	addresses := make([]*entity.Address, 0, len(addressModels))
	for _, addressM := range addressModels {
		addresses = append(addresses, toAddressDomain(addressM))
	}

	return addresses, nil
}

func (repo *addressRepository) FindAddressByStore(ctx context.Context, storeID uuid.UUID) (*entity.Address, error) {
	var addressM model.AddressModel
	if err := repo.db.WithContext(ctx).Where("store_id = ?", storeID).First(&addressM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrAddressNotFound
		}

		return nil, errors.Wrap(err, "failed to find address by store")
	}

	return toAddressDomain(&addressM), nil
}

func (repo *addressRepository) UpdateAddress(ctx context.Context, address *entity.Address) error {
	address.UpdatedAt = time.Now()
	addressM := fromAddressDomain(address)

	result := repo.db.WithContext(ctx).Model(&model.AddressModel{ID: address.ID}).
		Select("street", "neighborhood", "city", "number", "state", "store_id", "updated_at").
		Updates(addressM)
	if result.Error != nil {
		return domainerrors.NewDatabaseExecuteError(result.Error, "failed to update address")
	}
	if result.RowsAffected == 0 {
		return repository.ErrAddressNotFound
	}

	return nil
}

func (repo *addressRepository) DeleteAddress(ctx context.Context, id uuid.UUID) error {
	result := repo.db.WithContext(ctx).Delete(&model.AddressModel{}, "id = ?", id)
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to delete address")
	}
	if result.RowsAffected == 0 {
		return repository.ErrAddressNotFound
	}

	return nil
}

func (repo *addressRepository) DeleteAddressesByStore(ctx context.Context, storeID uuid.UUID) error {
	if err := repo.db.WithContext(ctx).Delete(&model.AddressModel{}, "store_id = ?", storeID).Error; err != nil {
		return errors.Wrap(err, "failed to delete store address")
	}

	return nil
}

func toAddressDomain(data *model.AddressModel) *entity.Address {
	if data == nil {
		return nil
	}

	return &entity.Address{
		ID:           data.ID,
		UserID:       data.UserID,
		StoreID:      data.StoreID,
		Street:       data.Street,
		Neighborhood: data.Neighborhood,
		City:         data.City,
		Number:       data.Number,
		State:        data.State,
		CreatedAt:    data.CreatedAt,
		UpdatedAt:    data.UpdatedAt,
	}
}

func fromAddressDomain(data *entity.Address) *model.AddressModel {
	if data == nil {
		return nil
	}

	return &model.AddressModel{
		ID:           data.ID,
		UserID:       data.UserID,
		StoreID:      data.StoreID,
		Street:       data.Street,
		Neighborhood: data.Neighborhood,
		City:         data.City,
		Number:       data.Number,
		State:        data.State,
		CreatedAt:    data.CreatedAt,
		UpdatedAt:    data.UpdatedAt,
	}
}
