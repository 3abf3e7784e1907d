package usecase

import (
	"context"
	"io"

	"github.com/brunoeugeniodev/NaLojaTem/internal/domain/entity"
	"github.com/brunoeugeniodev/NaLojaTem/internal/domain/service"

	"github.com/google/uuid"
)

// AddressInput is the street address submitted with a store or on its own.
type AddressInput struct {
	Street       string
	Neighborhood string
	City         string
	Number       string
	State        string
}

// StoreInput holds the fields of a store create or update.
type StoreInput struct {
	Name        string
	CNPJ        string
	Description string
	PhotoURL    string
	Address     *AddressInput
}

// PhotoUpload is a store photo received as a multipart file.
type PhotoUpload struct {
	ContentType string
	Size        int64
	Body        io.Reader
}

// StoreDetails is a store joined with its address, when it has one.
type StoreDetails struct {
	Store   *entity.Store
	Address *entity.Address
}

// StoreUsecase manages stores ("lojas"). Mutations require the owner or an admin.
type StoreUsecase interface {
	Create(ctx context.Context, actor *entity.Principal, input *StoreInput) (*StoreDetails, error)
	Get(ctx context.Context, storeID uuid.UUID) (*StoreDetails, error)
	ListActive(ctx context.Context) ([]*StoreDetails, error)
	ListMine(ctx context.Context, actor *entity.Principal) ([]*StoreDetails, error)
	// ListRecommended returns the most recent active stores.
	ListRecommended(ctx context.Context) ([]*StoreDetails, error)
	// SearchByName returns active stores whose name contains name, case-insensitively.
	SearchByName(ctx context.Context, name string) ([]*StoreDetails, error)
	Update(ctx context.Context, actor *entity.Principal, storeID uuid.UUID, input *StoreInput) (*StoreDetails, error)
	Delete(ctx context.Context, actor *entity.Principal, storeID uuid.UUID) error
	Deactivate(ctx context.Context, actor *entity.Principal, storeID uuid.UUID) (*StoreDetails, error)
	// SetPhotoURL points the store photo at an external URL.
	SetPhotoURL(ctx context.Context, actor *entity.Principal, storeID uuid.UUID, photoURL string) (*StoreDetails, error)
	// UploadPhoto stores the image in blob storage and links it to the store.
	UploadPhoto(ctx context.Context, actor *entity.Principal, storeID uuid.UUID, upload *PhotoUpload) (*StoreDetails, error)
	// OpenPhoto returns the uploaded photo of a store. Callers close Photo.Body.
	OpenPhoto(ctx context.Context, storeID uuid.UUID) (*service.Photo, error)
	// QRCode renders a PNG share code for the store page.
	QRCode(ctx context.Context, storeID uuid.UUID) ([]byte, error)
}
