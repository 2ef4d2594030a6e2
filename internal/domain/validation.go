package domain

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// ErrValidation is matched by every *ValidationError
var ErrValidation = errors.New("validation failed")

// FieldError describes one rejected field
type FieldError struct {
	Field   string
	Message string
}

// ValidationError is returned when input fails field constraints
type ValidationError struct {
	Fields []FieldError
}

// NewValidationError builds a ValidationError for a single field
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: message}}}
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+" "+f.Message)
	}
	return ErrValidation.Error() + ": " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// productRules carries the constraints shared by Product, ProductCreate and ProductUpdate.
type productRules struct {
	Name     string  `field:"name" validate:"required,max=200"`
	Price    float64 `field:"price" validate:"gte=0,cents"`
	Quantity int64   `field:"quantity" validate:"gte=0"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name := f.Tag.Get("field"); name != "" {
			return name
		}
		return f.Name
	})

	if err := v.RegisterValidation("cents", func(fl validator.FieldLevel) bool {
		return HasCentPrecision(fl.Field().Float())
	}); err != nil {
		panic(err)
	}

	return v
}

// HasCentPrecision reports whether v is a finite multiple of 0.01
func HasCentPrecision(v float64) bool {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return false
	}
	d := decimal.NewFromFloat(v)
	return d.Equal(d.Round(2))
}

func validateProduct(r productRules) error {
	return toValidationError(validate.Struct(r))
}

func validatePartial(r productRules, fields ...string) error {
	return toValidationError(validate.StructPartial(r, fields...))
}

func toValidationError(err error) error {
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate product: %w", err)
	}

	ve := &ValidationError{Fields: make([]FieldError, 0, len(verrs))}
	for _, fe := range verrs {
		ve.Fields = append(ve.Fields, FieldError{
			Field:   fe.Field(),
			Message: describe(fe),
		})
	}
	return ve
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "must not be empty"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "cents":
		return "must be a multiple of 0.01"
	default:
		return "is invalid"
	}
}
