package dto

import (
	"bytes"
	"encoding/json"

	"github.com/mrops-br/products-api/internal/domain"
)

// Field is a JSON value that records whether its key was present and whether it was null.
type Field[T any] struct {
	Value T
	Set   bool
	Null  bool
}

// UnmarshalJSON is only called when the key is present.
func (f *Field[T]) UnmarshalJSON(b []byte) error {
	f.Set = true
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		f.Null = true
		return nil
	}
	return json.Unmarshal(b, &f.Value)
}

// CreateProductRequest represents the request to create a product
type CreateProductRequest struct {
	Name     *string  `json:"name" example:"Widget"`
	Price    *float64 `json:"price" example:"9.99"`
	Quantity *int64   `json:"quantity" example:"10"`
}

// ToDomain checks that every field is present and builds validated creation input
func (r CreateProductRequest) ToDomain() (domain.ProductCreate, error) {
	var missing []domain.FieldError
	if r.Name == nil {
		missing = append(missing, domain.FieldError{Field: "name", Message: "is required"})
	}
	if r.Price == nil {
		missing = append(missing, domain.FieldError{Field: "price", Message: "is required"})
	}
	if r.Quantity == nil {
		missing = append(missing, domain.FieldError{Field: "quantity", Message: "is required"})
	}
	if len(missing) > 0 {
		return domain.ProductCreate{}, &domain.ValidationError{Fields: missing}
	}

	return domain.NewProductCreate(*r.Name, *r.Price, *r.Quantity)
}

// UpdateProductRequest represents a partial update; absent keys are left unchanged
type UpdateProductRequest struct {
	Name     Field[string]  `json:"name" swaggertype:"string" example:"Widget"`
	Price    Field[float64] `json:"price" swaggertype:"number" example:"9.99"`
	Quantity Field[int64]   `json:"quantity" swaggertype:"integer" example:"5"`
}

// ToDomain rejects explicit nulls and builds validated update input
func (r UpdateProductRequest) ToDomain() (domain.ProductUpdate, error) {
	var nulls []domain.FieldError

	name := optional("name", r.Name, &nulls)
	price := optional("price", r.Price, &nulls)
	quantity := optional("quantity", r.Quantity, &nulls)

	if len(nulls) > 0 {
		return domain.ProductUpdate{}, &domain.ValidationError{Fields: nulls}
	}

	return domain.NewProductUpdate(name, price, quantity)
}

func optional[T any](name string, f Field[T], nulls *[]domain.FieldError) domain.Optional[T] {
	switch {
	case !f.Set:
		return domain.Optional[T]{}
	case f.Null:
		*nulls = append(*nulls, domain.FieldError{Field: name, Message: "must not be null"})
		return domain.Optional[T]{}
	default:
		return domain.Some(f.Value)
	}
}

// ProductResponse represents the product response
type ProductResponse struct {
	ID       int64   `json:"id" example:"1"`
	Name     string  `json:"name" example:"Widget"`
	Price    float64 `json:"price" example:"9.99"`
	Quantity int64   `json:"quantity" example:"10"`
}

// ToProductResponse converts a domain Product to ProductResponse
func ToProductResponse(p domain.Product) ProductResponse {
	return ProductResponse{
		ID:       p.ID,
		Name:     p.Name,
		Price:    p.Price,
		Quantity: p.Quantity,
	}
}

// ToProductResponseList converts a list of domain Products to ProductResponse list
func ToProductResponseList(products []domain.Product) []ProductResponse {
	responses := make([]ProductResponse, len(products))
	for i, p := range products {
		responses[i] = ToProductResponse(p)
	}
	return responses
}

// HealthResponse reports process status
type HealthResponse struct {
	Status  string `json:"status" example:"ok"`
	Service string `json:"service" example:"Products Backend API"`
	Version string `json:"version" example:"1.0.0"`
}
