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

type storeRepository struct {
	db *gorm.DB
}

// NewStoreRepository is the constructor for storeRepository.
func NewStoreRepository(db *gorm.DB) repository.StoreRepository {
	return &storeRepository{db: db}
}

func (repo *storeRepository) Create(ctx context.Context, store *entity.Store) error {
	if store.ID == uuid.Nil {
		store.ID = uuid.New()
	}
	storeM := fromStoreDomain(store)

	if err := repo.db.WithContext(ctx).Create(storeM).Error; err != nil {
		return mapStoreWriteError(err, "failed to create store")
	}

	store.CreatedAt = storeM.CreatedAt
	store.UpdatedAt = storeM.UpdatedAt

	return nil
}

func (repo *storeRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Store, error) {
	return repo.first(ctx, "failed to find store by id", "id = ?", id)
}

func (repo *storeRepository) FindByCNPJ(ctx context.Context, cnpj string) (*entity.Store, error) {
	return repo.first(ctx, "failed to find store by cnpj", "cnpj = ?", cnpj)
}

func (repo *storeRepository) first(ctx context.Context, msg, query string, args ...any) (*entity.Store, error) {
	var storeM model.StoreModel
	if err := repo.db.WithContext(ctx).Where(query, args...).First(&storeM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrStoreNotFound
		}

		return nil, errors.Wrap(err, msg)
	}

	return toStoreDomain(&storeM), nil
}

func (repo *storeRepository) FindByOwner(ctx context.Context, ownerID uuid.UUID) ([]*entity.Store, error) {
	return repo.find(repo.db.WithContext(ctx).Where("owner_id = ?", ownerID).Order("created_at ASC"), "failed to find stores by owner")
}

func (repo *storeRepository) ListActive(ctx context.Context) ([]*entity.Store, error) {
	return repo.find(repo.db.WithContext(ctx).Where("active = ?", true).Order("name ASC"), "failed to list active stores")
}

func (repo *storeRepository) ListRecent(ctx context.Context, limit int) ([]*entity.Store, error) {
	return repo.find(repo.db.WithContext(ctx).Where("active = ?", true).Order("created_at DESC").Limit(limit), "failed to list recent stores")
}

func (repo *storeRepository) ListAll(ctx context.Context) ([]*entity.Store, error) {
	return repo.find(repo.db.WithContext(ctx).Order("name ASC"), "failed to list stores")
}

func (repo *storeRepository) find(query *gorm.DB, msg string) ([]*entity.Store, error) {
	var storeModels []*model.StoreModel
	if err := query.Find(&storeModels).Error; err != nil {
		return nil, errors.Wrap(err, msg)
	}

	stores := make([]*entity.Store, 0, len(storeModels))
	for _, storeM := range storeModels {
		stores = append(stores, toStoreDomain(storeM))
	}

	return stores, nil
}

func (repo *storeRepository) Update(ctx context.Context, store *entity.Store) error {
	store.UpdatedAt = time.Now()
	storeM := fromStoreDomain(store)

	result := repo.db.WithContext(ctx).Model(&model.StoreModel{ID: store.ID}).
		Select("name", "cnpj", "description", "photo_url", "photo_key", "active", "updated_at").
		Updates(storeM)
	if result.Error != nil {
		return mapStoreWriteError(result.Error, "failed to update store")
	}
	if result.RowsAffected == 0 {
		return repository.ErrStoreNotFound
	}

	return nil
}

// Delete removes the store; products, address and cart lines cascade.
func (repo *storeRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := repo.db.WithContext(ctx).Delete(&model.StoreModel{}, "id = ?", id)
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to delete store")
	}
	if result.RowsAffected == 0 {
		return repository.ErrStoreNotFound
	}

	return nil
}

func mapStoreWriteError(err error, msg string) error {
	if isUniqueConstraintViolation(err) {
		return repository.ErrStoreCNPJTaken
	}
	if isForeignKeyConstraintViolation(err) {
		return domainerrors.ErrValidationFailed.WithMessage("Dono da loja não existe")
	}

	return domainerrors.NewDatabaseExecuteError(err, msg)
}

func toStoreDomain(data *model.StoreModel) *entity.Store {
	if data == nil {
		return nil
	}

	return &entity.Store{
		ID:          data.ID,
		OwnerID:     data.OwnerID,
		Name:        data.Name,
		CNPJ:        data.CNPJ,
		Description: data.Description,
		PhotoURL:    data.PhotoURL,
		PhotoKey:    data.PhotoKey,
		Active:      data.Active,
		CreatedAt:   data.CreatedAt,
		UpdatedAt:   data.UpdatedAt,
	}
}

func fromStoreDomain(data *entity.Store) *model.StoreModel {
	if data == nil {
		return nil
	}

	return &model.StoreModel{
		ID:          data.ID,
		OwnerID:     data.OwnerID,
		Name:        data.Name,
		CNPJ:        data.CNPJ,
		Description: data.Description,
		PhotoURL:    data.PhotoURL,
		PhotoKey:    data.PhotoKey,
		Active:      data.Active,
		CreatedAt:   data.CreatedAt,
		UpdatedAt:   data.UpdatedAt,
	}
}
