package service

import (
	"context"
	"log/slog"

	"github.com/mrops-br/products-api/internal/domain"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// ProductService handles product use cases
type ProductService struct {
	repo                  domain.ProductRepository
	tracer                trace.Tracer
	logger                *slog.Logger
	productCreatedCounter metric.Int64Counter
	productOperations     metric.Int64Counter
}

// NewProductService creates a new product service
func NewProductService(
	repo domain.ProductRepository,
	tracer trace.Tracer,
	meter metric.Meter,
	logger *slog.Logger,
) *ProductService {
	productCreatedCounter, _ := meter.Int64Counter(
		"products.created.total",
		metric.WithDescription("Total number of products created"),
	)

	productOperations, _ := meter.Int64Counter(
		"products.operations",
		metric.WithDescription("Total number of product operations"),
	)

	return &ProductService{
		repo:                  repo,
		tracer:                tracer,
		logger:                logger,
		productCreatedCounter: productCreatedCounter,
		productOperations:     productOperations,
	}
}

// finish records the outcome of an operation on its span and the operations counter.
func (s *ProductService) finish(ctx context.Context, span trace.Span, operation string, err error) {
	res := result(err)
	s.productOperations.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("operation", operation),
			attribute.String("result", res),
		),
	)

	if err == nil {
		span.SetStatus(codes.Ok, operation+" succeeded")
		return
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	switch res {
	case "not_found", "invalid":
		s.logger.WarnContext(ctx, "Product operation rejected",
			slog.String("operation", operation),
			slog.String("error", err.Error()),
		)
	default:
		s.logger.ErrorContext(ctx, "Product operation failed",
			slog.String("operation", operation),
			slog.String("error", err.Error()),
		)
	}
}

// ListProducts retrieves all products
func (s *ProductService) ListProducts(ctx context.Context) ([]domain.Product, error) {
	ctx, span := s.tracer.Start(ctx, "ProductService.ListProducts")
	defer span.End()

	products, err := s.repo.FindAll(ctx)
	s.finish(ctx, span, "list", err)
	if err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.Int("product.count", len(products)))

	s.logger.InfoContext(ctx, "Products listed successfully",
		slog.Int("count", len(products)),
	)

	return products, nil
}

// GetProduct retrieves a product by ID
func (s *ProductService) GetProduct(ctx context.Context, id int64) (domain.Product, error) {
	ctx, span := s.tracer.Start(ctx, "ProductService.GetProduct")
	defer span.End()

	span.SetAttributes(attribute.Int64("product.id", id))

	product, err := s.repo.FindByID(ctx, id)
	err = translate(err)
	s.finish(ctx, span, "read", err)
	if err != nil {
		return domain.Product{}, err
	}

	return product, nil
}

// CreateProduct stores a new product built from validated input
func (s *ProductService) CreateProduct(ctx context.Context, in domain.ProductCreate) (domain.Product, error) {
	ctx, span := s.tracer.Start(ctx, "ProductService.CreateProduct")
	defer span.End()

	span.SetAttributes(
		attribute.String("product.name", in.Name),
		attribute.Float64("product.price", in.Price),
	)

	product, err := s.repo.Create(ctx, in)
	s.finish(ctx, span, "create", err)
	if err != nil {
		return domain.Product{}, err
	}

	s.productCreatedCounter.Add(ctx, 1)
	span.SetAttributes(attribute.Int64("product.id", product.ID))

	s.logger.InfoContext(ctx, "Product created successfully",
		slog.Int64("product_id", product.ID),
	)

	return product, nil
}

// UpdateProduct applies a partial update to an existing product
func (s *ProductService) UpdateProduct(ctx context.Context, id int64, in domain.ProductUpdate) (domain.Product, error) {
	ctx, span := s.tracer.Start(ctx, "ProductService.UpdateProduct")
	defer span.End()

	span.SetAttributes(attribute.Int64("product.id", id))

	product, err := s.repo.Update(ctx, id, in)
	err = translate(err)
	s.finish(ctx, span, "update", err)
	if err != nil {
		return domain.Product{}, err
	}

	s.logger.InfoContext(ctx, "Product updated successfully",
		slog.Int64("product_id", id),
	)

	return product, nil
}

// DeleteProduct removes a product by ID
func (s *ProductService) DeleteProduct(ctx context.Context, id int64) error {
	ctx, span := s.tracer.Start(ctx, "ProductService.DeleteProduct")
	defer span.End()

	span.SetAttributes(attribute.Int64("product.id", id))

	err := translate(s.repo.Delete(ctx, id))
	s.finish(ctx, span, "delete", err)
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "Product deleted successfully",
		slog.Int64("product_id", id),
	)

	return nil
}

// ResetProducts empties the store and restarts id assignment.
func (s *ProductService) ResetProducts(ctx context.Context) error {
	ctx, span := s.tracer.Start(ctx, "ProductService.ResetProducts")
	defer span.End()

	err := s.repo.Clear(ctx)
	s.finish(ctx, span, "reset", err)
	if err != nil {
		return err
	}

	s.logger.WarnContext(ctx, "Product store reset")
	return nil
}
