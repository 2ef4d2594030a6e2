package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/mrops-br/products-api/internal/app/dto"
	"github.com/mrops-br/products-api/internal/app/service"
	"github.com/mrops-br/products-api/internal/domain"
	"github.com/mrops-br/products-api/internal/infrastructure/config"
	"github.com/mrops-br/products-api/internal/infrastructure/http/response"
)

const maxBodyBytes = 1 << 20

var (
	errInternal     = errors.New("internal server error")
	errTrailingData = errors.New("unexpected data after JSON object")
)

// ProductHandler handles HTTP requests for products
type ProductHandler struct {
	service *service.ProductService
	app     config.AppConfig
	logger  *slog.Logger
}

// NewProductHandler creates a new product handler
func NewProductHandler(service *service.ProductService, app config.AppConfig, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{
		service: service,
		app:     app,
		logger:  logger,
	}
}

// Health godoc
//
//	@Summary	Health check
//	@Tags		Health
//	@Produce	json
//	@Success	200	{object}	dto.HealthResponse
//	@Router		/health [get]
//	@Router		/ [get]
func (h *ProductHandler) Health(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, dto.HealthResponse{
		Status:  "ok",
		Service: h.app.Name,
		Version: h.app.Version,
	})
}

// ListProducts godoc
//
//	@Summary	List products
//	@Tags		Products
//	@Produce	json
//	@Success	200	{array}	dto.ProductResponse
//	@Router		/api/v1/products [get]
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.ListProducts(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, dto.ToProductResponseList(products))
}

// GetProduct godoc
//
//	@Summary	Get a product
//	@Tags		Products
//	@Produce	json
//	@Param		id	path		int	true	"Product ID"	minimum(1)
//	@Success	200	{object}	dto.ProductResponse
//	@Failure	404	{object}	response.ErrorResponse
//	@Failure	422	{object}	response.ErrorResponse
//	@Router		/api/v1/products/{id} [get]
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := productID(r)
	if err != nil {
		response.Validation(w, r, err)
		return
	}

	product, err := h.service.GetProduct(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, dto.ToProductResponse(product))
}

// CreateProduct godoc
//
//	@Summary	Create a product
//	@Tags		Products
//	@Accept		json
//	@Produce	json
//	@Param		product	body		dto.CreateProductRequest	true	"Product"
//	@Success	201		{object}	dto.ProductResponse
//	@Failure	400		{object}	response.ErrorResponse
//	@Failure	422		{object}	response.ErrorResponse
//	@Router		/api/v1/products [post]
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateProductRequest
	if !h.decode(w, r, &req) {
		return
	}

	in, err := req.ToDomain()
	if err != nil {
		response.Validation(w, r, err)
		return
	}

	product, err := h.service.CreateProduct(r.Context(), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	response.JSON(w, http.StatusCreated, dto.ToProductResponse(product))
}

// UpdateProduct godoc
//
//	@Summary		Update a product
//	@Description	Only the fields present in the body are changed.
//	@Tags			Products
//	@Accept			json
//	@Produce		json
//	@Param			id		path		int							true	"Product ID"	minimum(1)
//	@Param			product	body		dto.UpdateProductRequest	true	"Fields to change"
//	@Success		200		{object}	dto.ProductResponse
//	@Failure		400		{object}	response.ErrorResponse
//	@Failure		404		{object}	response.ErrorResponse
//	@Failure		422		{object}	response.ErrorResponse
//	@Router			/api/v1/products/{id} [put]
//	@Router			/api/v1/products/{id} [patch]
func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := productID(r)
	if err != nil {
		response.Validation(w, r, err)
		return
	}

	var req dto.UpdateProductRequest
	if !h.decode(w, r, &req) {
		return
	}

	in, err := req.ToDomain()
	if err != nil {
		response.Validation(w, r, err)
		return
	}

	product, err := h.service.UpdateProduct(r.Context(), id, in)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, dto.ToProductResponse(product))
}

// DeleteProduct godoc
//
//	@Summary	Delete a product
//	@Tags		Products
//	@Param		id	path	int	true	"Product ID"	minimum(1)
//	@Success	204
//	@Failure	404	{object}	response.ErrorResponse
//	@Failure	422	{object}	response.ErrorResponse
//	@Router		/api/v1/products/{id} [delete]
func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := productID(r)
	if err != nil {
		response.Validation(w, r, err)
		return
	}

	if err := h.service.DeleteProduct(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}

	response.NoContent(w)
}

// ResetProducts godoc
//
//	@Summary		Remove every product
//	@Description	Only routed when ADMIN_RESET_ENABLED is set. Ids restart at 1.
//	@Tags			Products
//	@Success		204
//	@Router			/api/v1/admin/products [delete]
func (h *ProductHandler) ResetProducts(w http.ResponseWriter, r *http.Request) {
	if err := h.service.ResetProducts(r.Context()); err != nil {
		h.fail(w, r, err)
		return
	}

	response.NoContent(w)
}

// decode writes a 400 (malformed body or trailing data), 413 (body over
// maxBodyBytes) or 422 (wrong value type) and returns false when the body
// cannot be decoded into dst.
func (h *ProductHandler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))

	err := dec.Decode(dst)
	if err == nil {
		if err = dec.Decode(&struct{}{}); errors.Is(err, io.EOF) {
			return true
		}
		if err == nil {
			err = errTrailingData
		}
	}

	h.logger.WarnContext(r.Context(), "Failed to decode request body",
		slog.String("error", err.Error()),
	)

	var (
		typeErr *json.UnmarshalTypeError
		sizeErr *http.MaxBytesError
	)
	switch {
	case errors.As(err, &sizeErr):
		response.Error(w, r, http.StatusRequestEntityTooLarge,
			fmt.Errorf("request body exceeds %d bytes", sizeErr.Limit))
	case errors.As(err, &typeErr):
		field := typeErr.Field
		if field == "" {
			field = "body"
		}
		response.Validation(w, r, domain.NewValidationError(field, fmt.Sprintf("must be of type %s", typeErr.Type)))
	default:
		response.Error(w, r, http.StatusBadRequest, fmt.Errorf("malformed JSON body: %w", err))
	}
	return false
}

func (h *ProductHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		response.Error(w, r, http.StatusNotFound, err)
	case errors.Is(err, domain.ErrValidation):
		response.Validation(w, r, err)
	default:
		h.logger.ErrorContext(r.Context(), "Unhandled error",
			slog.String("error", err.Error()),
		)
		response.Error(w, r, http.StatusInternalServerError, errInternal)
	}
}

func productID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 1 {
		return 0, domain.NewValidationError("id", "must be a positive integer")
	}
	return id, nil
}
