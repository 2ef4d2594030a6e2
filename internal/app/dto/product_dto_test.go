package dto

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/mrops-br/products-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeUpdate(t *testing.T, body string) UpdateProductRequest {
	t.Helper()
	var req UpdateProductRequest
	require.NoError(t, json.Unmarshal([]byte(body), &req))
	return req
}

func TestUpdateRequestDistinguishesAbsentFromZero(t *testing.T) {
	req := decodeUpdate(t, `{"quantity": 0}`)

	assert.False(t, req.Name.Set)
	assert.False(t, req.Price.Set)
	assert.True(t, req.Quantity.Set)
	assert.False(t, req.Quantity.Null)

	in, err := req.ToDomain()
	require.NoError(t, err)

	q, ok := in.Quantity.Get()
	assert.True(t, ok)
	assert.Equal(t, int64(0), q)
	assert.False(t, in.Name.IsSet())
	assert.False(t, in.Price.IsSet())
}

func TestUpdateRequestEmptyObject(t *testing.T) {
	in, err := decodeUpdate(t, `{}`).ToDomain()
	require.NoError(t, err)
	assert.True(t, in.IsEmpty())
}

func TestUpdateRequestRejectsNull(t *testing.T) {
	req := decodeUpdate(t, `{"name": null, "price": 2}`)
	assert.True(t, req.Name.Set)
	assert.True(t, req.Name.Null)

	_, err := req.ToDomain()
	require.ErrorIs(t, err, domain.ErrValidation)

	var ve *domain.ValidationError
	require.True(t, errors.As(err, &ve))
	require.Len(t, ve.Fields, 1)
	assert.Equal(t, domain.FieldError{Field: "name", Message: "must not be null"}, ve.Fields[0])
}

func TestUpdateRequestValidatesValues(t *testing.T) {
	_, err := decodeUpdate(t, `{"price": -1}`).ToDomain()
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestUpdateRequestWrongTypeFailsDecoding(t *testing.T) {
	var req UpdateProductRequest
	err := json.Unmarshal([]byte(`{"quantity": "many"}`), &req)

	var typeErr *json.UnmarshalTypeError
	require.True(t, errors.As(err, &typeErr))
}

func TestCreateRequestRequiresAllFields(t *testing.T) {
	var req CreateProductRequest
	require.NoError(t, json.Unmarshal([]byte(`{"name": "Widget"}`), &req))

	_, err := req.ToDomain()
	var ve *domain.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, []domain.FieldError{
		{Field: "price", Message: "is required"},
		{Field: "quantity", Message: "is required"},
	}, ve.Fields)
}

func TestCreateRequestToDomain(t *testing.T) {
	var req CreateProductRequest
	require.NoError(t, json.Unmarshal([]byte(`{"name": " Widget ", "price": 9.99, "quantity": 10}`), &req))

	in, err := req.ToDomain()
	require.NoError(t, err)
	assert.Equal(t, domain.ProductCreate{Name: "Widget", Price: 9.99, Quantity: 10}, in)
}

func TestToProductResponseListNeverNil(t *testing.T) {
	b, err := json.Marshal(ToProductResponseList(nil))
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(b))
}
