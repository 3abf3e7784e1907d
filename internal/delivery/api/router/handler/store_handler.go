package handler

import (
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/brunoeugeniodev/NaLojaTem/internal/delivery/api/middleware"
	"github.com/brunoeugeniodev/NaLojaTem/internal/delivery/api/response"
	domainerrors "github.com/brunoeugeniodev/NaLojaTem/internal/domain/errors"
	"github.com/brunoeugeniodev/NaLojaTem/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

const (
	photoFormField   = "foto"
	photoURLField    = "fotoUrl"
	photoCacheHeader = "public, max-age=300"
)

// StoreHandlerParams holds dependencies for StoreHandler, injected by Fx.
type StoreHandlerParams struct {
	fx.In

	StoreUC   usecase.StoreUsecase
	ProductUC usecase.ProductUsecase
	Logger    *slog.Logger
}

// StoreHandler serves the store ("loja") endpoints.
type StoreHandler struct {
	storeUC   usecase.StoreUsecase
	productUC usecase.ProductUsecase
	logger    *slog.Logger
}

// NewStoreHandler is the constructor for StoreHandler
func NewStoreHandler(params StoreHandlerParams) *StoreHandler {
	return &StoreHandler{
		storeUC:   params.StoreUC,
		productUC: params.ProductUC,
		logger:    params.Logger,
	}
}

// StoreRequest represents the store body. Multipart forms send the address
// fields flat next to the store fields.
type StoreRequest struct {
	Nome      string          `json:"nome" validate:"required,max=100"`
	CNPJ      string          `json:"cnpj" validate:"required,max=18"`
	Descricao string          `json:"descricao" validate:"max=500"`
	FotoURL   string          `json:"fotoUrl" validate:"omitempty,max=500"`
	Endereco  *AddressRequest `json:"endereco"`
}

// PhotoURLRequest points the store photo at an external image.
type PhotoURLRequest struct {
	FotoURL string `json:"fotoUrl" validate:"required,max=500"`
}

func (r *StoreRequest) toInput() *usecase.StoreInput {
	return &usecase.StoreInput{
		Name:        strings.TrimSpace(r.Nome),
		CNPJ:        strings.TrimSpace(r.CNPJ),
		Description: r.Descricao,
		PhotoURL:    r.FotoURL,
		Address:     r.Endereco.toInput(),
	}
}

func isMultipart(c echo.Context) bool {
	return strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm)
}

// readStoreRequest accepts either a JSON body or a multipart form.
func readStoreRequest(c echo.Context) (*StoreRequest, error) {
	if !isMultipart(c) {
		var req StoreRequest
		if err := bindAndValidate(c, &req); err != nil {
			return nil, err
		}

		return &req, nil
	}

	req := &StoreRequest{
		Nome:      c.FormValue("nome"),
		CNPJ:      c.FormValue("cnpj"),
		Descricao: c.FormValue("descricao"),
		FotoURL:   c.FormValue(photoURLField),
	}
	if rua := c.FormValue("rua"); rua != "" || c.FormValue("cidade") != "" {
		req.Endereco = &AddressRequest{
			Rua:    rua,
			Numero: c.FormValue("numero"),
			Bairro: c.FormValue("bairro"),
			Cidade: c.FormValue("cidade"),
			Estado: c.FormValue("estado"),
		}
	}
	if err := c.Validate(req); err != nil {
		return nil, errors.WithStack(err)
	}

	return req, nil
}

// formPhoto returns the uploaded photo part, or nil when none was sent.
func formPhoto(c echo.Context) (*multipart.FileHeader, error) {
	if !isMultipart(c) {
		return nil, nil
	}

	file, err := c.FormFile(photoFormField)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil
		}

		return nil, errors.WithStack(domainerrors.ErrValidationFailed.WithMessage("Arquivo de foto inválido"))
	}

	return file, nil
}

func (h *StoreHandler) uploadPhoto(c echo.Context, idParam string, file *multipart.FileHeader) (*usecase.StoreDetails, error) {
	principal, err := middleware.RequirePrincipal(c)
	if err != nil {
		return nil, err
	}
	id, err := parseIDParam(c, idParam)
	if err != nil {
		return nil, err
	}

	src, err := file.Open()
	if err != nil {
		return nil, errors.Wrap(err, "failed to open uploaded photo")
	}
	defer src.Close()

	details, err := h.storeUC.UploadPhoto(c.Request().Context(), principal, id, &usecase.PhotoUpload{
		ContentType: file.Header.Get(echo.HeaderContentType),
		Size:        file.Size,
		Body:        src,
	})

	return details, errors.WithStack(err)
}

// Create registers a store owned by the caller, with its optional address and photo.
func (h *StoreHandler) Create(c echo.Context) error {
	principal, err := middleware.RequirePrincipal(c)
	if err != nil {
		return err
	}

	req, err := readStoreRequest(c)
	if err != nil {
		return err
	}
	photo, err := formPhoto(c)
	if err != nil {
		return err
	}

	details, err := h.storeUC.Create(c.Request().Context(), principal, req.toInput())
	if err != nil {
		return errors.WithStack(err)
	}

	if photo != nil {
		src, err := photo.Open()
		if err != nil {
			return errors.Wrap(err, "failed to open uploaded photo")
		}
		defer src.Close()

		withPhoto, err := h.storeUC.UploadPhoto(c.Request().Context(), principal, details.Store.ID, &usecase.PhotoUpload{
			ContentType: photo.Header.Get(echo.HeaderContentType),
			Size:        photo.Size,
			Body:        src,
		})
		if err != nil {
			// The store exists already; report it without the photo.
			h.logger.Warn("Store created without photo", slog.Any("storeID", details.Store.ID), slog.Any("error", err))
		} else {
			details = withPhoto
		}
	}

	return response.Success(c, http.StatusCreated, newStoreResponse(details))
}

func (h *StoreHandler) List(c echo.Context) error {
	stores, err := h.storeUC.ListActive(c.Request().Context())
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, newStoreResponses(stores))
}

// ListMine returns the stores of the caller, inactive ones included.
func (h *StoreHandler) ListMine(c echo.Context) error {
	principal, err := middleware.RequirePrincipal(c)
	if err != nil {
		return err
	}

	stores, err := h.storeUC.ListMine(c.Request().Context(), principal)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, newStoreResponses(stores))
}

func (h *StoreHandler) ListRecommended(c echo.Context) error {
	stores, err := h.storeUC.ListRecommended(c.Request().Context())
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, newStoreResponses(stores))
}

// SearchByName serves GET /api/lojas/buscar?nome=.
func (h *StoreHandler) SearchByName(c echo.Context) error {
	stores, err := h.storeUC.SearchByName(c.Request().Context(), c.QueryParam("nome"))
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, newStoreResponses(stores))
}

func (h *StoreHandler) Get(c echo.Context) error {
	storeID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	details, err := h.storeUC.Get(c.Request().Context(), storeID)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, newStoreResponse(details))
}

// ListProducts returns the active products of a store.
func (h *StoreHandler) ListProducts(c echo.Context) error {
	storeID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	products, err := h.productUC.ListByStore(c.Request().Context(), storeID)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, newProductResponses(products))
}

func (h *StoreHandler) Update(c echo.Context) error {
	principal, err := middleware.RequirePrincipal(c)
	if err != nil {
		return err
	}
	storeID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	req, err := readStoreRequest(c)
	if err != nil {
		return err
	}

	details, err := h.storeUC.Update(c.Request().Context(), principal, storeID, req.toInput())
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, newStoreResponse(details))
}

func (h *StoreHandler) Delete(c echo.Context) error {
	principal, err := middleware.RequirePrincipal(c)
	if err != nil {
		return err
	}
	storeID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	if err := h.storeUC.Delete(c.Request().Context(), principal, storeID); err != nil {
		return errors.WithStack(err)
	}

	return response.NoContent(c)
}

func (h *StoreHandler) Deactivate(c echo.Context) error {
	principal, err := middleware.RequirePrincipal(c)
	if err != nil {
		return err
	}
	storeID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	details, err := h.storeUC.Deactivate(c.Request().Context(), principal, storeID)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, newStoreResponse(details))
}

// UpdatePhoto accepts a multipart "foto" file or a "fotoUrl" reference,
// given as query parameter or JSON body.
func (h *StoreHandler) UpdatePhoto(c echo.Context) error {
	photo, err := formPhoto(c)
	if err != nil {
		return err
	}
	if photo != nil {
		details, err := h.uploadPhoto(c, "id", photo)
		if err != nil {
			return err
		}

		return response.Success(c, http.StatusOK, newStoreResponse(details))
	}

	principal, err := middleware.RequirePrincipal(c)
	if err != nil {
		return err
	}
	storeID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	req := PhotoURLRequest{FotoURL: c.QueryParam(photoURLField)}
	if req.FotoURL == "" && isMultipart(c) {
		req.FotoURL = c.FormValue(photoURLField)
	}
	if req.FotoURL == "" {
		if err := c.Bind(&req); err != nil {
			return errors.WithStack(domainerrors.ErrValidationFailed.WithMessage("Corpo da requisição inválido"))
		}
	}
	if err := c.Validate(&req); err != nil {
		return errors.WithStack(err)
	}

	details, err := h.storeUC.SetPhotoURL(c.Request().Context(), principal, storeID, strings.TrimSpace(req.FotoURL))
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, newStoreResponse(details))
}

// GetPhoto streams the uploaded photo of a store.
func (h *StoreHandler) GetPhoto(c echo.Context) error {
	storeID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	photo, err := h.storeUC.OpenPhoto(c.Request().Context(), storeID)
	if err != nil {
		return errors.WithStack(err)
	}
	defer photo.Body.Close()

	c.Response().Header().Set("Cache-Control", photoCacheHeader)

	return c.Stream(http.StatusOK, photo.ContentType, photo.Body)
}

// QRCode renders the share code of a store as PNG.
func (h *StoreHandler) QRCode(c echo.Context) error {
	storeID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	png, err := h.storeUC.QRCode(c.Request().Context(), storeID)
	if err != nil {
		return errors.WithStack(err)
	}

	return c.Blob(http.StatusOK, "image/png", png)
}
