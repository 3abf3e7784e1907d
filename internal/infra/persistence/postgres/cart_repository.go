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

type cartRepository struct {
	db *gorm.DB
}

// NewCartRepository is the constructor for cartRepository.
func NewCartRepository(db *gorm.DB) repository.CartRepository {
	return &cartRepository{db: db}
}

func (repo *cartRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*entity.Cart, error) {
	return repo.findByUser(repo.db.WithContext(ctx), userID)
}

// FindByUserIDForUpdate locks the cart row (SELECT ... FOR UPDATE) before its
// items are read, so a second checkout of the same cart waits and then sees
// the emptied cart.
func (repo *cartRepository) FindByUserIDForUpdate(ctx context.Context, userID uuid.UUID) (*entity.Cart, error) {
	return repo.findByUser(repo.db.WithContext(ctx).Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate}), userID)
}

func (repo *cartRepository) findByUser(db *gorm.DB, userID uuid.UUID) (*entity.Cart, error) {
	var cartM model.CartModel
	err := db.
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("cart_items.created_at ASC, cart_items.id ASC")
		}).
		Where("user_id = ?", userID).
		First(&cartM).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrCartNotFound
		}

		return nil, errors.Wrap(err, "failed to find cart by user")
	}

	return toCartDomain(&cartM), nil
}

func (repo *cartRepository) Create(ctx context.Context, cart *entity.Cart) error {
	if cart.ID == uuid.Nil {
		cart.ID = uuid.New()
	}
	cartM := &model.CartModel{ID: cart.ID, UserID: cart.UserID}

	if err := repo.db.WithContext(ctx).Omit("Items").Create(cartM).Error; err != nil {
		if isForeignKeyConstraintViolation(err) {
			return domainerrors.ErrUserNotFound
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to create cart")
	}

	cart.CreatedAt = cartM.CreatedAt
	cart.UpdatedAt = cartM.UpdatedAt

	return nil
}

func (repo *cartRepository) Touch(ctx context.Context, cartID uuid.UUID) error {
	if err := repo.db.WithContext(ctx).Model(&model.CartModel{}).
		Where("id = ?", cartID).
		Update("updated_at", time.Now()).Error; err != nil {
		return errors.Wrap(err, "failed to touch cart")
	}

	return nil
}

func (repo *cartRepository) FindItemByID(ctx context.Context, itemID uuid.UUID) (*entity.CartItem, error) {
	var itemM model.CartItemModel
	if err := repo.db.WithContext(ctx).Where("id = ?", itemID).First(&itemM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrCartItemNotFound
		}

		return nil, errors.Wrap(err, "failed to find cart item")
	}

	return toCartItemDomain(&itemM), nil
}

func (repo *cartRepository) CreateItem(ctx context.Context, item *entity.CartItem) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	itemM := fromCartItemDomain(item)

	if err := repo.db.WithContext(ctx).Create(itemM).Error; err != nil {
		if isUniqueConstraintViolation(err) {
			return domainerrors.ErrValidationFailed.WithMessage("Produto já está no carrinho")
		}
		if isForeignKeyConstraintViolation(err) {
			return domainerrors.ErrProductNotFound
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to create cart item")
	}

	item.CreatedAt = itemM.CreatedAt
	item.UpdatedAt = itemM.UpdatedAt

	return nil
}

func (repo *cartRepository) UpdateItem(ctx context.Context, item *entity.CartItem) error {
	result := repo.db.WithContext(ctx).Model(&model.CartItemModel{}).
		Where("id = ?", item.ID).
		Updates(map[string]any{
			"quantity":   item.Quantity,
			"unit_price": item.UnitPrice,
			"updated_at": item.UpdatedAt,
		})
	if result.Error != nil {
		return domainerrors.NewDatabaseExecuteError(result.Error, "failed to update cart item")
	}
	if result.RowsAffected == 0 {
		return repository.ErrCartItemNotFound
	}

	return nil
}

func (repo *cartRepository) DeleteItem(ctx context.Context, itemID uuid.UUID) error {
	result := repo.db.WithContext(ctx).Delete(&model.CartItemModel{}, "id = ?", itemID)
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to delete cart item")
	}
	if result.RowsAffected == 0 {
		return repository.ErrCartItemNotFound
	}

	return nil
}

func (repo *cartRepository) DeleteItemsByCart(ctx context.Context, cartID uuid.UUID) (int64, error) {
	result := repo.db.WithContext(ctx).Delete(&model.CartItemModel{}, "cart_id = ?", cartID)
	if result.Error != nil {
		return 0, errors.Wrap(result.Error, "failed to clear cart")
	}

	return result.RowsAffected, nil
}

func (repo *cartRepository) DeleteItemsByProduct(ctx context.Context, productID uuid.UUID) error {
	if err := repo.db.WithContext(ctx).Delete(&model.CartItemModel{}, "product_id = ?", productID).Error; err != nil {
		return errors.Wrap(err, "failed to delete cart items by product")
	}

	return nil
}

func toCartDomain(data *model.CartModel) *entity.Cart {
	if data == nil {
		return nil
	}

	cart := &entity.Cart{
		ID:        data.ID,
		UserID:    data.UserID,
		Items:     make([]*entity.CartItem, 0, len(data.Items)),
		CreatedAt: data.CreatedAt,
		UpdatedAt: data.UpdatedAt,
	}
	for _, itemM := range data.Items {
		cart.Items = append(cart.Items, toCartItemDomain(itemM))
	}

	return cart
}

func toCartItemDomain(data *model.CartItemModel) *entity.CartItem {
	if data == nil {
		return nil
	}

	return &entity.CartItem{
		ID:        data.ID,
		CartID:    data.CartID,
		ProductID: data.ProductID,
		Quantity:  data.Quantity,
		UnitPrice: data.UnitPrice,
		CreatedAt: data.CreatedAt,
		UpdatedAt: data.UpdatedAt,
	}
}

func fromCartItemDomain(data *entity.CartItem) *model.CartItemModel {
	if data == nil {
		return nil
	}

	return &model.CartItemModel{
		ID:        data.ID,
		CartID:    data.CartID,
		ProductID: data.ProductID,
		Quantity:  data.Quantity,
		UnitPrice: data.UnitPrice,
		CreatedAt: data.CreatedAt,
		UpdatedAt: data.UpdatedAt,
	}
}
