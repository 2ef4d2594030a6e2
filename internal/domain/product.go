package domain

import "strings"

// Product represents the product entity
type Product struct {
	ID       int64
	Name     string
	Price    float64
	Quantity int64
}

// ProductCreate holds the validated input for creating a product
type ProductCreate struct {
	Name     string
	Price    float64
	Quantity int64
}

// ProductUpdate holds the validated input for a partial update.
// Only fields that are set are applied to the stored product.
type ProductUpdate struct {
	Name     Optional[string]
	Price    Optional[float64]
	Quantity Optional[int64]
}

// Optional is a value that remembers whether it was supplied.
// The zero Optional is unset.
type Optional[T any] struct {
	value T
	set   bool
}

// Some returns an Optional holding v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{value: v, set: true}
}

// Get returns the value and whether it was supplied.
func (o Optional[T]) Get() (T, bool) {
	return o.value, o.set
}

// IsSet reports whether the value was supplied.
func (o Optional[T]) IsSet() bool {
	return o.set
}

// NewProductCreate trims and validates creation input
func NewProductCreate(name string, price float64, quantity int64) (ProductCreate, error) {
	in := ProductCreate{
		Name:     strings.TrimSpace(name),
		Price:    price,
		Quantity: quantity,
	}

	if err := in.Validate(); err != nil {
		return ProductCreate{}, err
	}

	return in, nil
}

// Validate checks every field of the creation input
func (in ProductCreate) Validate() error {
	return validateProduct(productRules{
		Name:     in.Name,
		Price:    in.Price,
		Quantity: in.Quantity,
	})
}

// NewProductUpdate trims and validates the supplied fields of an update
func NewProductUpdate(name Optional[string], price Optional[float64], quantity Optional[int64]) (ProductUpdate, error) {
	if n, ok := name.Get(); ok {
		name = Some(strings.TrimSpace(n))
	}

	in := ProductUpdate{
		Name:     name,
		Price:    price,
		Quantity: quantity,
	}

	if err := in.Validate(); err != nil {
		return ProductUpdate{}, err
	}

	return in, nil
}

// Validate checks only the fields that were supplied
func (in ProductUpdate) Validate() error {
	var (
		rules  productRules
		fields []string
	)

	if v, ok := in.Name.Get(); ok {
		rules.Name = v
		fields = append(fields, "Name")
	}
	if v, ok := in.Price.Get(); ok {
		rules.Price = v
		fields = append(fields, "Price")
	}
	if v, ok := in.Quantity.Get(); ok {
		rules.Quantity = v
		fields = append(fields, "Quantity")
	}

	if len(fields) == 0 {
		return nil
	}

	return validatePartial(rules, fields...)
}

// IsEmpty reports whether the update carries no fields
func (in ProductUpdate) IsEmpty() bool {
	return !in.Name.IsSet() && !in.Price.IsSet() && !in.Quantity.IsSet()
}

// NewProduct builds a product with the given id from creation input
func NewProduct(id int64, in ProductCreate) Product {
	return Product{
		ID:       id,
		Name:     in.Name,
		Price:    in.Price,
		Quantity: in.Quantity,
	}
}

// Apply returns a copy of p with the supplied fields of in merged onto it.
// The id is never changed.
func (p Product) Apply(in ProductUpdate) Product {
	if v, ok := in.Name.Get(); ok {
		p.Name = v
	}
	if v, ok := in.Price.Get(); ok {
		p.Price = v
	}
	if v, ok := in.Quantity.Get(); ok {
		p.Quantity = v
	}
	return p
}

// Validate performs business validation on the product
func (p Product) Validate() error {
	if p.ID <= 0 {
		return NewValidationError("id", "must be a positive integer")
	}
	return validateProduct(productRules{
		Name:     p.Name,
		Price:    p.Price,
		Quantity: p.Quantity,
	})
}
