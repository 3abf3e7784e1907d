package impl

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/brunoeugeniodev/NaLojaTem/config"
	deliverycontext "github.com/brunoeugeniodev/NaLojaTem/internal/delivery/context"
	"github.com/brunoeugeniodev/NaLojaTem/internal/domain/entity"
	domainerrors "github.com/brunoeugeniodev/NaLojaTem/internal/domain/errors"
	"github.com/brunoeugeniodev/NaLojaTem/internal/domain/repository"
	"github.com/brunoeugeniodev/NaLojaTem/internal/domain/service"
	"github.com/brunoeugeniodev/NaLojaTem/internal/usecase"
	"github.com/brunoeugeniodev/NaLojaTem/internal/util"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

const (
	recommendedStoresLimit = 6
	defaultMaxPhotoSize    = 5 << 20
)

// storeService implements the StoreUsecase interface.
type storeService struct {
	txManager    repository.TransactionManager
	storeRepo    repository.StoreRepository
	addressRepo  repository.AddressRepository
	photos       service.PhotoStorage
	qrCodes      service.QRCodeService
	maxPhotoSize int64
	logger       *slog.Logger
}

// StoreServiceParams holds dependencies for StoreService, injected by Fx.
type StoreServiceParams struct {
	fx.In

	TxManager   repository.TransactionManager
	StoreRepo   repository.StoreRepository
	AddressRepo repository.AddressRepository
	Photos      service.PhotoStorage
	QRCodes     service.QRCodeService
	Config      *config.Config
	Logger      *slog.Logger
}

// NewStoreService is the constructor for storeService.
func NewStoreService(params StoreServiceParams) usecase.StoreUsecase {
	maxPhotoSize := int64(defaultMaxPhotoSize)
	if params.Config != nil && params.Config.Blob != nil && params.Config.Blob.MaxUploadSize > 0 {
		maxPhotoSize = params.Config.Blob.MaxUploadSize
	}

	return &storeService{
		txManager:    params.TxManager,
		storeRepo:    params.StoreRepo,
		addressRepo:  params.AddressRepo,
		photos:       params.Photos,
		qrCodes:      params.QRCodes,
		maxPhotoSize: maxPhotoSize,
		logger:       params.Logger,
	}
}

func (srv *storeService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// Create opens a store for the actor, with its optional address, and grants
// the actor the seller role.
func (srv *storeService) Create(ctx context.Context, actor *entity.Principal, input *usecase.StoreInput) (*usecase.StoreDetails, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if err := validateStoreInput(input); err != nil {
		return nil, err
	}

	details := &usecase.StoreDetails{
		Store: &entity.Store{
			OwnerID:     actor.UserID,
			Name:        strings.TrimSpace(input.Name),
			CNPJ:        strings.TrimSpace(input.CNPJ),
			Description: input.Description,
			PhotoURL:    strings.TrimSpace(input.PhotoURL),
			Active:      true,
		},
	}

	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		storeRepo := repoFactory.NewStoreRepository()
		userRepo := repoFactory.NewUserRepository()

		if _, err := storeRepo.FindByCNPJ(ctx, details.Store.CNPJ); err == nil {
			return errors.WithStack(domainerrors.ErrCNPJInUse.Messagef("CNPJ já cadastrado: %s", details.Store.CNPJ))
		} else if !errors.Is(err, repository.ErrStoreNotFound) {
			return errors.Wrap(err, "failed to check cnpj")
		}

		if err := storeRepo.Create(ctx, details.Store); err != nil {
			return errors.Wrap(err, "failed to create store")
		}

		if input.Address != nil {
			address := buildAddress(input.Address)
			address.StoreID = &details.Store.ID
			if err := repoFactory.NewAddressRepository().CreateAddress(ctx, address); err != nil {
				return errors.Wrap(err, "failed to create store address")
			}
			details.Address = address
		}

		owner, err := userRepo.FindByID(ctx, actor.UserID)
		if err != nil {
			return errors.Wrap(err, "failed to load store owner")
		}
		if !owner.HasRole(entity.RoleSeller) {
			owner.Roles = append(owner.Roles, entity.RoleSeller)
			if err := userRepo.Update(ctx, owner); err != nil {
				return errors.Wrap(err, "failed to grant seller role")
			}
		}

		return nil
	})
	if err != nil {
		srv.log(ctx).Warn("Store creation failed", slog.Any("ownerID", actor.UserID), slog.Any("error", err))

		return nil, translateRepoError(err)
	}
	srv.log(ctx).Info("Store created", slog.Any("storeID", details.Store.ID), slog.Any("ownerID", actor.UserID))

	return details, nil
}

func validateStoreInput(input *usecase.StoreInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return errors.WithStack(domainerrors.ErrValidationFailed.WithMessage("Nome da loja é obrigatório"))
	}
	if strings.TrimSpace(input.CNPJ) == "" {
		return errors.WithStack(domainerrors.ErrValidationFailed.WithMessage("CNPJ é obrigatório"))
	}
	if utf8.RuneCountInString(input.Description) > entity.StoreDescriptionMaxLength {
		return errors.WithStack(domainerrors.ErrValidationFailed.Messagef(
			"Descrição deve ter no máximo %d caracteres", entity.StoreDescriptionMaxLength))
	}

	return nil
}

func (srv *storeService) Get(ctx context.Context, storeID uuid.UUID) (*usecase.StoreDetails, error) {
	store, err := srv.storeRepo.FindByID(ctx, storeID)
	if err != nil {
		return nil, translateRepoError(errors.Wrap(err, "failed to load store"))
	}

	return srv.withAddress(ctx, store)
}

func (srv *storeService) ListActive(ctx context.Context) ([]*usecase.StoreDetails, error) {
	stores, err := srv.storeRepo.ListActive(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list stores")
	}

	return srv.withAddresses(ctx, stores)
}

// ListMine returns every store of the actor, including deactivated ones.
func (srv *storeService) ListMine(ctx context.Context, actor *entity.Principal) ([]*usecase.StoreDetails, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	stores, err := srv.storeRepo.FindByOwner(ctx, actor.UserID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list owner stores")
	}

	return srv.withAddresses(ctx, stores)
}

func (srv *storeService) ListRecommended(ctx context.Context) ([]*usecase.StoreDetails, error) {
	stores, err := srv.storeRepo.ListRecent(ctx, recommendedStoresLimit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list recommended stores")
	}

	return srv.withAddresses(ctx, stores)
}

// SearchByName filters the active stores by name. A blank name lists them all.
func (srv *storeService) SearchByName(ctx context.Context, name string) ([]*usecase.StoreDetails, error) {
	stores, err := srv.storeRepo.ListActive(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list stores")
	}

	name = strings.TrimSpace(name)
	matches := make([]*entity.Store, 0, len(stores))
	for _, store := range stores {
		if containsFold(store.Name, name) {
			matches = append(matches, store)
		}
	}

	return srv.withAddresses(ctx, matches)
}

// Update replaces the store fields. The address is upserted when given and
// left alone otherwise.
func (srv *storeService) Update(ctx context.Context, actor *entity.Principal, storeID uuid.UUID, input *usecase.StoreInput) (*usecase.StoreDetails, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if err := validateStoreInput(input); err != nil {
		return nil, err
	}

	var details *usecase.StoreDetails
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		storeRepo := repoFactory.NewStoreRepository()
		addressRepo := repoFactory.NewAddressRepository()

		store, err := loadManagedStore(ctx, storeRepo, actor, storeID)
		if err != nil {
			return err
		}

		cnpj := strings.TrimSpace(input.CNPJ)
		if cnpj != store.CNPJ {
			if _, err := storeRepo.FindByCNPJ(ctx, cnpj); err == nil {
				return errors.WithStack(domainerrors.ErrCNPJInUse.Messagef("CNPJ já está em uso: %s", cnpj))
			} else if !errors.Is(err, repository.ErrStoreNotFound) {
				return errors.Wrap(err, "failed to check cnpj")
			}
		}

		store.Name = strings.TrimSpace(input.Name)
		store.CNPJ = cnpj
		store.Description = input.Description
		if photoURL := strings.TrimSpace(input.PhotoURL); photoURL != "" && photoURL != store.PhotoURL {
			store.PhotoURL = photoURL
			store.PhotoKey = ""
		}
		if err := storeRepo.Update(ctx, store); err != nil {
			return errors.Wrap(err, "failed to update store")
		}

		address, err := upsertStoreAddress(ctx, addressRepo, store.ID, input.Address)
		if err != nil {
			return err
		}
		details = &usecase.StoreDetails{Store: store, Address: address}

		return nil
	})
	if err != nil {
		srv.log(ctx).Warn("Store update failed", slog.Any("storeID", storeID), slog.Any("error", err))

		return nil, translateRepoError(err)
	}

	return details, nil
}

func upsertStoreAddress(ctx context.Context, addressRepo repository.AddressRepository, storeID uuid.UUID, input *usecase.AddressInput) (*entity.Address, error) {
	current, err := addressRepo.FindAddressByStore(ctx, storeID)
	if err != nil && !errors.Is(err, repository.ErrAddressNotFound) {
		return nil, errors.Wrap(err, "failed to load store address")
	}
	if input == nil {
		return current, nil
	}

	address := buildAddress(input)
	address.StoreID = &storeID
	if current == nil {
		if err := addressRepo.CreateAddress(ctx, address); err != nil {
			return nil, errors.Wrap(err, "failed to create store address")
		}

		return address, nil
	}

	address.ID = current.ID
	address.UserID = current.UserID
	if err := addressRepo.UpdateAddress(ctx, address); err != nil {
		return nil, errors.Wrap(err, "failed to update store address")
	}

	return address, nil
}

// Delete removes the store with its products and address.
func (srv *storeService) Delete(ctx context.Context, actor *entity.Principal, storeID uuid.UUID) error {
	if err := requireActor(actor); err != nil {
		return err
	}

	var photoKey string
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		storeRepo := repoFactory.NewStoreRepository()

		store, err := loadManagedStore(ctx, storeRepo, actor, storeID)
		if err != nil {
			return err
		}
		photoKey = store.PhotoKey

		if err := storeRepo.Delete(ctx, storeID); err != nil {
			return errors.Wrap(err, "failed to delete store")
		}

		return nil
	})
	if err != nil {
		return translateRepoError(err)
	}

	srv.dropPhoto(ctx, photoKey)
	srv.log(ctx).Info("Store deleted", slog.Any("storeID", storeID))

	return nil
}

// Deactivate hides the store and its products from public listings.
func (srv *storeService) Deactivate(ctx context.Context, actor *entity.Principal, storeID uuid.UUID) (*usecase.StoreDetails, error) {
	return srv.mutate(ctx, actor, storeID, func(store *entity.Store) {
		store.Active = false
	})
}

func (srv *storeService) SetPhotoURL(ctx context.Context, actor *entity.Principal, storeID uuid.UUID, photoURL string) (*usecase.StoreDetails, error) {
	photoURL = strings.TrimSpace(photoURL)
	if photoURL == "" {
		return nil, errors.WithStack(domainerrors.ErrValidationFailed.WithMessage("fotoUrl é obrigatório"))
	}

	var oldKey string
	details, err := srv.mutate(ctx, actor, storeID, func(store *entity.Store) {
		oldKey = store.PhotoKey
		store.PhotoURL = photoURL
		store.PhotoKey = ""
	})
	if err != nil {
		return nil, err
	}
	srv.dropPhoto(ctx, oldKey)

	return details, nil
}

// UploadPhoto writes the image to blob storage before linking it, and removes
// it again if the store could not be updated.
func (srv *storeService) UploadPhoto(ctx context.Context, actor *entity.Principal, storeID uuid.UUID, upload *usecase.PhotoUpload) (*usecase.StoreDetails, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if !strings.HasPrefix(upload.ContentType, "image/") {
		return nil, errors.WithStack(domainerrors.ErrValidationFailed.WithMessage("A foto deve ser uma imagem"))
	}
	if upload.Size > srv.maxPhotoSize {
		return nil, errors.WithStack(domainerrors.ErrValidationFailed.Messagef("A foto deve ter no máximo %s", util.FormatBytes(srv.maxPhotoSize)))
	}

	store, err := srv.storeRepo.FindByID(ctx, storeID)
	if err != nil {
		return nil, translateRepoError(errors.Wrap(err, "failed to load store"))
	}
	if !canManageStore(actor, store) {
		return nil, errors.WithStack(domainerrors.ErrNotStoreOwner)
	}

	key := fmt.Sprintf("stores/%s/%s", storeID, uuid.NewString())
	if _, err := srv.photos.Save(ctx, key, upload.ContentType, upload.Body); err != nil {
		return nil, errors.Wrap(err, "failed to save store photo")
	}

	var oldKey string
	details, err := srv.mutate(ctx, actor, storeID, func(store *entity.Store) {
		oldKey = store.PhotoKey
		store.PhotoKey = key
		store.PhotoURL = fmt.Sprintf("/api/lojas/%s/foto", storeID)
	})
	if err != nil {
		srv.dropPhoto(ctx, key)

		return nil, err
	}
	srv.dropPhoto(ctx, oldKey)
	srv.log(ctx).Info("Store photo uploaded", slog.Any("storeID", storeID), slog.String("key", key))

	return details, nil
}

func (srv *storeService) OpenPhoto(ctx context.Context, storeID uuid.UUID) (*service.Photo, error) {
	store, err := srv.storeRepo.FindByID(ctx, storeID)
	if err != nil {
		return nil, translateRepoError(errors.Wrap(err, "failed to load store"))
	}
	if store.PhotoKey == "" {
		return nil, errors.WithStack(domainerrors.ErrPhotoNotFound)
	}

	photo, err := srv.photos.Open(ctx, store.PhotoKey)
	if err != nil {
		if errors.Is(err, service.ErrPhotoNotFound) {
			return nil, errors.Wrap(domainerrors.ErrPhotoNotFound, err.Error())
		}

		return nil, errors.Wrap(err, "failed to open store photo")
	}

	return photo, nil
}

func (srv *storeService) QRCode(ctx context.Context, storeID uuid.UUID) ([]byte, error) {
	if _, err := srv.storeRepo.FindByID(ctx, storeID); err != nil {
		return nil, translateRepoError(errors.Wrap(err, "failed to load store"))
	}

	png, err := srv.qrCodes.GenerateStoreQR(storeID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate store qr code")
	}

	return png, nil
}

// mutate applies change to a store the actor manages, inside a transaction.
func (srv *storeService) mutate(ctx context.Context, actor *entity.Principal, storeID uuid.UUID, change func(*entity.Store)) (*usecase.StoreDetails, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	var details *usecase.StoreDetails
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		storeRepo := repoFactory.NewStoreRepository()

		store, err := loadManagedStore(ctx, storeRepo, actor, storeID)
		if err != nil {
			return err
		}
		change(store)
		if err := storeRepo.Update(ctx, store); err != nil {
			return errors.Wrap(err, "failed to update store")
		}

		address, err := repoFactory.NewAddressRepository().FindAddressByStore(ctx, storeID)
		if err != nil && !errors.Is(err, repository.ErrAddressNotFound) {
			return errors.Wrap(err, "failed to load store address")
		}
		details = &usecase.StoreDetails{Store: store, Address: address}

		return nil
	})
	if err != nil {
		return nil, translateRepoError(err)
	}

	return details, nil
}

// dropPhoto removes an uploaded photo. Leftover objects are only wasted space,
// so failures are logged.
func (srv *storeService) dropPhoto(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := srv.photos.Delete(ctx, key); err != nil {
		srv.log(ctx).Warn("Failed to delete store photo", slog.String("key", key), slog.Any("error", err))
	}
}

func loadManagedStore(ctx context.Context, storeRepo repository.StoreRepository, actor *entity.Principal, storeID uuid.UUID) (*entity.Store, error) {
	store, err := storeRepo.FindByID(ctx, storeID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load store")
	}
	if !canManageStore(actor, store) {
		return nil, errors.WithStack(domainerrors.ErrNotStoreOwner)
	}

	return store, nil
}

func (srv *storeService) withAddress(ctx context.Context, store *entity.Store) (*usecase.StoreDetails, error) {
	address, err := srv.addressRepo.FindAddressByStore(ctx, store.ID)
	if err != nil && !errors.Is(err, repository.ErrAddressNotFound) {
		return nil, errors.Wrap(err, "failed to load store address")
	}

	return &usecase.StoreDetails{Store: store, Address: address}, nil
}

func (srv *storeService) withAddresses(ctx context.Context, stores []*entity.Store) ([]*usecase.StoreDetails, error) {
	result := make([]*usecase.StoreDetails, 0, len(stores))
	for _, store := range stores {
		details, err := srv.withAddress(ctx, store)
		if err != nil {
			return nil, err
		}
		result = append(result, details)
	}

	return result, nil
}
