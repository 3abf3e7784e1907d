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
	"gorm.io/gorm/clause"
)

type productRepository struct {
	db *gorm.DB
}

// NewProductRepository is the constructor for productRepository.
func NewProductRepository(db *gorm.DB) repository.ProductRepository {
	return &productRepository{db: db}
}

func (repo *productRepository) Create(ctx context.Context, product *entity.Product) error {
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	productM := fromProductDomain(product)

	if err := repo.db.WithContext(ctx).Create(productM).Error; err != nil {
		return mapProductWriteError(err, "failed to create product")
	}

	product.CreatedAt = productM.CreatedAt
	product.UpdatedAt = productM.UpdatedAt

	return nil
}

func (repo *productRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Product, error) {
	return repo.first(repo.db.WithContext(ctx), id)
}

// FindByIDForUpdate takes a row lock (SELECT ... FOR UPDATE). It only has an
// effect inside a transaction.
func (repo *productRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Product, error) {
	return repo.first(repo.db.WithContext(ctx).Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate}), id)
}

func (repo *productRepository) first(query *gorm.DB, id uuid.UUID) (*entity.Product, error) {
	var productM model.ProductModel
	if err := query.Where("id = ?", id).First(&productM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrProductNotFound
		}

		return nil, errors.Wrap(err, "failed to find product by id")
	}

	return toProductDomain(&productM), nil
}

func (repo *productRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*entity.Product, error) {
	products := make(map[uuid.UUID]*entity.Product, len(ids))
	if len(ids) == 0 {
		return products, nil
	}

	var productModels []*model.ProductModel
	if err := repo.db.WithContext(ctx).Where("id IN ?", ids).Find(&productModels).Error; err != nil {
		return nil, errors.Wrap(err, "failed to find products by ids")
	}

	for _, productM := range productModels {
		products[productM.ID] = toProductDomain(productM)
	}

	return products, nil
}

func (repo *productRepository) ListByStore(ctx context.Context, storeID uuid.UUID) ([]*entity.Product, error) {
	return repo.find(repo.db.WithContext(ctx).Where("store_id = ?", storeID).Order("name ASC"), "failed to list products by store")
}

func (repo *productRepository) ListActive(ctx context.Context, limit int) ([]*entity.Product, error) {
	query := repo.db.WithContext(ctx).
		Joins("JOIN stores ON stores.id = products.store_id AND stores.active = ?", true).
		Where("products.active = ?", true).
		Order("products.name ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	return repo.find(query, "failed to list active products")
}

func (repo *productRepository) ListAll(ctx context.Context) ([]*entity.Product, error) {
	return repo.find(repo.db.WithContext(ctx).Order("name ASC"), "failed to list products")
}

func (repo *productRepository) find(query *gorm.DB, msg string) ([]*entity.Product, error) {
	var productModels []*model.ProductModel
	if err := query.Find(&productModels).Error; err != nil {
		return nil, errors.Wrap(err, msg)
	}

	products := make([]*entity.Product, 0, len(productModels))
	for _, productM := range productModels {
		products = append(products, toProductDomain(productM))
	}

	return products, nil
}

// Update writes the editable fields and bumps the version.
func (repo *productRepository) Update(ctx context.Context, product *entity.Product) error {
	product.UpdatedAt = time.Now()

	result := repo.db.WithContext(ctx).Model(&model.ProductModel{}).
		Where("id = ?", product.ID).
		Updates(map[string]any{
			"name":        product.Name,
			"description": product.Description,
			"price":       product.Price,
			"quantity":    product.Quantity,
			"photo_url":   product.PhotoURL,
			"active":      product.Active,
			"version":     gorm.Expr("version + 1"),
			"updated_at":  product.UpdatedAt,
		})
	if result.Error != nil {
		return mapProductWriteError(result.Error, "failed to update product")
	}
	if result.RowsAffected == 0 {
		return repository.ErrProductNotFound
	}
	product.Version++

	return nil
}

// DecrementStock runs a guarded update so concurrent checkouts can never push
// the stock below zero, regardless of isolation level.
func (repo *productRepository) DecrementStock(ctx context.Context, id uuid.UUID, qty int) error {
	result := repo.db.WithContext(ctx).Model(&model.ProductModel{}).
		Where("id = ? AND quantity >= ?", id, qty).
		Updates(map[string]any{
			"quantity":   gorm.Expr("quantity - ?", qty),
			"sold":       gorm.Expr("sold + ?", qty),
			"version":    gorm.Expr("version + 1"),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return domainerrors.NewDatabaseExecuteError(result.Error, "failed to decrement stock")
	}
	if result.RowsAffected == 0 {
		return repository.ErrInsufficientStock
	}

	return nil
}

func (repo *productRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := repo.db.WithContext(ctx).Delete(&model.ProductModel{}, "id = ?", id)
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to delete product")
	}
	if result.RowsAffected == 0 {
		return repository.ErrProductNotFound
	}

	return nil
}

func (repo *productRepository) DeleteByStore(ctx context.Context, storeID uuid.UUID) error {
	if err := repo.db.WithContext(ctx).Delete(&model.ProductModel{}, "store_id = ?", storeID).Error; err != nil {
		return errors.Wrap(err, "failed to delete products by store")
	}

	return nil
}

func mapProductWriteError(err error, msg string) error {
	if isCheckConstraintViolation(err) {
		return domainerrors.ErrValidationFailed.WithMessage("Preço e quantidade não podem ser negativos")
	}
	if isForeignKeyConstraintViolation(err) {
		return domainerrors.ErrStoreNotFound
	}

	return domainerrors.NewDatabaseExecuteError(err, msg)
}

func toProductDomain(data *model.ProductModel) *entity.Product {
	if data == nil {
		return nil
	}

	return &entity.Product{
		ID:          data.ID,
		StoreID:     data.StoreID,
		Name:        data.Name,
		Description: data.Description,
		Price:       data.Price,
		Quantity:    data.Quantity,
		Sold:        data.Sold,
		PhotoURL:    data.PhotoURL,
		Active:      data.Active,
		Version:     data.Version,
		CreatedAt:   data.CreatedAt,
		UpdatedAt:   data.UpdatedAt,
	}
}

func fromProductDomain(data *entity.Product) *model.ProductModel {
	if data == nil {
		return nil
	}

	return &model.ProductModel{
		ID:          data.ID,
		StoreID:     data.StoreID,
		Name:        data.Name,
		Description: data.Description,
		Price:       data.Price,
		Quantity:    data.Quantity,
		Sold:        data.Sold,
		PhotoURL:    data.PhotoURL,
		Active:      data.Active,
		Version:     data.Version,
		CreatedAt:   data.CreatedAt,
		UpdatedAt:   data.UpdatedAt,
	}
}
