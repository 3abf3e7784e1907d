// Package handler contains the echo handlers of the API delivery.
package handler

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/brunoeugeniodev/NaLojaTem/internal/domain/entity"
	domainerrors "github.com/brunoeugeniodev/NaLojaTem/internal/domain/errors"
	"github.com/brunoeugeniodev/NaLojaTem/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// money renders a decimal as a JSON number with two fraction digits.
func money(d decimal.Decimal) json.Number {
	return json.Number(d.StringFixed(2))
}

// parseIDParam reads a uuid path parameter.
func parseIDParam(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, errors.WithStack(domainerrors.ErrValidationFailed.WithMessage("Identificador inválido"))
	}

	return id, nil
}

// bindAndValidate decodes the body into req and runs the struct rules.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return errors.WithStack(domainerrors.ErrValidationFailed.WithMessage("Corpo da requisição inválido"))
	}

	return errors.WithStack(c.Validate(req))
}

// AddressRequest is the address ("endereco") body.
type AddressRequest struct {
	Rua    string `json:"rua" validate:"required,max=200"`
	Numero string `json:"numero" validate:"max=20"`
	Bairro string `json:"bairro" validate:"max=100"`
	Cidade string `json:"cidade" validate:"required,max=100"`
	Estado string `json:"estado" validate:"required,max=50"`
}

func (r *AddressRequest) toInput() *usecase.AddressInput {
	if r == nil {
		return nil
	}

	return &usecase.AddressInput{
		Street:       strings.TrimSpace(r.Rua),
		Neighborhood: strings.TrimSpace(r.Bairro),
		City:         strings.TrimSpace(r.Cidade),
		Number:       strings.TrimSpace(r.Numero),
		State:        strings.TrimSpace(r.Estado),
	}
}

// AddressResponse is the public view of an address.
type AddressResponse struct {
	ID               uuid.UUID `json:"id"`
	Rua              string    `json:"rua"`
	Numero           string    `json:"numero"`
	Bairro           string    `json:"bairro"`
	Cidade           string    `json:"cidade"`
	Estado           string    `json:"estado"`
	EnderecoCompleto string    `json:"enderecoCompleto"`
}

func newAddressResponse(address *entity.Address) *AddressResponse {
	if address == nil {
		return nil
	}

	return &AddressResponse{
		ID:               address.ID,
		Rua:              address.Street,
		Numero:           address.Number,
		Bairro:           address.Neighborhood,
		Cidade:           address.City,
		Estado:           address.State,
		EnderecoCompleto: address.FullAddress(),
	}
}

// UserResponse is the public view of an account. The password hash is never exposed.
type UserResponse struct {
	ID          uuid.UUID `json:"id"`
	Nome        string    `json:"nome"`
	Email       string    `json:"email"`
	CPF         string    `json:"cpf"`
	Roles       []string  `json:"roles"`
	DataCriacao time.Time `json:"dataCriacao"`
}

func newUserResponse(user *entity.User) *UserResponse {
	return &UserResponse{
		ID:          user.ID,
		Nome:        user.Name,
		Email:       user.Email,
		CPF:         user.CPF,
		Roles:       user.Roles.ToStrings(),
		DataCriacao: user.CreatedAt,
	}
}

// StoreResponse is the public view of a store ("loja").
type StoreResponse struct {
	ID             uuid.UUID        `json:"id"`
	Nome           string           `json:"nome"`
	CNPJ           string           `json:"cnpj"`
	Descricao      string           `json:"descricao"`
	FotoURL        string           `json:"fotoUrl,omitempty"`
	Ativa          bool             `json:"ativa"`
	ProprietarioID uuid.UUID        `json:"proprietarioId"`
	Endereco       *AddressResponse `json:"endereco,omitempty"`
	DataCriacao    time.Time        `json:"dataCriacao"`
}

func newStoreResponse(details *usecase.StoreDetails) *StoreResponse {
	store := details.Store

	return &StoreResponse{
		ID:             store.ID,
		Nome:           store.Name,
		CNPJ:           store.CNPJ,
		Descricao:      store.Description,
		FotoURL:        store.PhotoURL,
		Ativa:          store.Active,
		ProprietarioID: store.OwnerID,
		Endereco:       newAddressResponse(details.Address),
		DataCriacao:    store.CreatedAt,
	}
}

func newStoreResponses(list []*usecase.StoreDetails) []*StoreResponse {
	out := make([]*StoreResponse, 0, len(list))
	for _, details := range list {
		out = append(out, newStoreResponse(details))
	}

	return out
}

// ProductResponse is the public view of a product ("produto").
type ProductResponse struct {
	ID         uuid.UUID   `json:"id"`
	LojaID     uuid.UUID   `json:"lojaId"`
	Nome       string      `json:"nome"`
	Descricao  string      `json:"descricao"`
	Preco      json.Number `json:"preco"`
	Quantidade int         `json:"quantidade"`
	Vendidos   int         `json:"vendidos"`
	FotoURL    string      `json:"fotoUrl,omitempty"`
	Ativo      bool        `json:"ativo"`
}

func newProductResponse(product *entity.Product) *ProductResponse {
	return &ProductResponse{
		ID:         product.ID,
		LojaID:     product.StoreID,
		Nome:       product.Name,
		Descricao:  product.Description,
		Preco:      money(product.Price),
		Quantidade: product.Quantity,
		Vendidos:   product.Sold,
		FotoURL:    product.PhotoURL,
		Ativo:      product.Active,
	}
}

func newProductResponses(products []*entity.Product) []*ProductResponse {
	out := make([]*ProductResponse, 0, len(products))
	for _, product := range products {
		out = append(out, newProductResponse(product))
	}

	return out
}

// CartItemResponse is one cart line.
type CartItemResponse struct {
	ID            uuid.UUID   `json:"id"`
	ProdutoID     uuid.UUID   `json:"produtoId"`
	NomeProduto   string      `json:"nomeProduto"`
	LojaID        *uuid.UUID  `json:"lojaId,omitempty"`
	Quantidade    int         `json:"quantidade"`
	PrecoUnitario json.Number `json:"precoUnitario"`
	Subtotal      json.Number `json:"subtotal"`
}

// CartResponse is the cart ("carrinho") with its totals.
type CartResponse struct {
	ID         uuid.UUID           `json:"id"`
	Itens      []*CartItemResponse `json:"itens"`
	Total      json.Number         `json:"total"`
	TotalItens int                 `json:"totalItens"`
}

func newCartResponse(details *usecase.CartDetails) *CartResponse {
	cart := details.Cart
	items := make([]*CartItemResponse, 0, len(cart.Items))
	for _, item := range cart.Items {
		line := &CartItemResponse{
			ID:            item.ID,
			ProdutoID:     item.ProductID,
			Quantidade:    item.Quantity,
			PrecoUnitario: money(item.UnitPrice),
			Subtotal:      money(item.Subtotal()),
		}
		if product, ok := details.Products[item.ProductID]; ok {
			line.NomeProduto = product.Name
			storeID := product.StoreID
			line.LojaID = &storeID
		}
		items = append(items, line)
	}

	return &CartResponse{
		ID:         cart.ID,
		Itens:      items,
		Total:      money(cart.Total()),
		TotalItens: cart.ItemCount(),
	}
}
