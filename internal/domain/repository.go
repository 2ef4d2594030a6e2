package domain

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrProductNotFound = errors.New("product not found")
)

// ProductNotFoundError reports a lookup of an id that is not in the store
type ProductNotFoundError struct {
	ID int64
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("Product %d not found", e.ID)
}

func (e *ProductNotFoundError) Is(target error) bool {
	return target == ErrProductNotFound
}

// ProductRepository defines the contract for product storage.
// Implementations own the collection and the id sequence.
type ProductRepository interface {
	FindAll(ctx context.Context) ([]Product, error)
	FindByID(ctx context.Context, id int64) (Product, error)
	Create(ctx context.Context, in ProductCreate) (Product, error)
	Update(ctx context.Context, id int64, in ProductUpdate) (Product, error)
	Delete(ctx context.Context, id int64) error
	Clear(ctx context.Context) error
}
