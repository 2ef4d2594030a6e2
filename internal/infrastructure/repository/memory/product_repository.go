package memory

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/mrops-br/products-api/internal/domain"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ProductRepository is an in-memory implementation of domain.ProductRepository.
//
// A single mutex guards both the map and the id sequence, and every method
// holds it for its whole duration, reads included.
type ProductRepository struct {
	mu       sync.Mutex
	products map[int64]domain.Product
	seq      int64
	tracer   trace.Tracer
	logger   *slog.Logger
}

var _ domain.ProductRepository = (*ProductRepository)(nil)

// NewProductRepository creates a new in-memory product repository
func NewProductRepository(tracer trace.Tracer, logger *slog.Logger) *ProductRepository {
	return &ProductRepository{
		products: make(map[int64]domain.Product),
		tracer:   tracer,
		logger:   logger,
	}
}

// nextIDLocked advances the sequence. r.mu must be held.
func (r *ProductRepository) nextIDLocked() int64 {
	r.seq++
	return r.seq
}

// FindAll returns a snapshot of all products ordered by id
func (r *ProductRepository) FindAll(ctx context.Context) ([]domain.Product, error) {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.FindAll")
	defer span.End()

	r.mu.Lock()
	defer r.mu.Unlock()

	products := make([]domain.Product, 0, len(r.products))
	for _, p := range r.products {
		products = append(products, p)
	}
	sort.Slice(products, func(i, j int) bool { return products[i].ID < products[j].ID })

	span.SetAttributes(attribute.Int("product.count", len(products)))

	r.logger.DebugContext(ctx, "Products retrieved from repository",
		slog.Int("count", len(products)),
	)

	span.SetStatus(codes.Ok, "Products retrieved successfully")
	return products, nil
}

// FindByID retrieves a product by ID
func (r *ProductRepository) FindByID(ctx context.Context, id int64) (domain.Product, error) {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.FindByID")
	defer span.End()

	span.SetAttributes(attribute.Int64("product.id", id))

	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.products[id]
	if !ok {
		return domain.Product{}, r.notFound(ctx, span, id)
	}

	r.logger.DebugContext(ctx, "Product found in repository",
		slog.Int64("product_id", id),
		slog.String("product_name", p.Name),
	)

	span.SetStatus(codes.Ok, "Product found")
	return p, nil
}

// Create assigns the next id and stores a new product. Invalid input is
// rejected before an id is consumed.
func (r *ProductRepository) Create(ctx context.Context, in domain.ProductCreate) (domain.Product, error) {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.Create")
	defer span.End()

	if err := in.Validate(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Product input is invalid")
		return domain.Product{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	p := domain.NewProduct(r.nextIDLocked(), in)
	r.products[p.ID] = p

	span.SetAttributes(
		attribute.Int64("product.id", p.ID),
		attribute.String("product.name", p.Name),
	)

	r.logger.InfoContext(ctx, "Product created in repository",
		slog.Int64("product_id", p.ID),
		slog.String("product_name", p.Name),
	)

	span.SetStatus(codes.Ok, "Product created successfully")
	return p, nil
}

// Update merges the supplied fields onto an existing product
func (r *ProductRepository) Update(ctx context.Context, id int64, in domain.ProductUpdate) (domain.Product, error) {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.Update")
	defer span.End()

	span.SetAttributes(attribute.Int64("product.id", id))

	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.products[id]
	if !ok {
		return domain.Product{}, r.notFound(ctx, span, id)
	}

	updated := current.Apply(in)
	if err := updated.Validate(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Merged product is invalid")
		r.logger.WarnContext(ctx, "Rejected invalid product update",
			slog.Int64("product_id", id),
			slog.String("error", err.Error()),
		)
		return domain.Product{}, err
	}
	r.products[id] = updated

	r.logger.InfoContext(ctx, "Product updated in repository",
		slog.Int64("product_id", id),
	)

	span.SetStatus(codes.Ok, "Product updated successfully")
	return updated, nil
}

// Delete removes a product by ID
func (r *ProductRepository) Delete(ctx context.Context, id int64) error {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.Delete")
	defer span.End()

	span.SetAttributes(attribute.Int64("product.id", id))

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[id]; !ok {
		return r.notFound(ctx, span, id)
	}
	delete(r.products, id)

	r.logger.InfoContext(ctx, "Product deleted from repository",
		slog.Int64("product_id", id),
	)

	span.SetStatus(codes.Ok, "Product deleted successfully")
	return nil
}

// Clear removes every product and resets the id sequence to zero
func (r *ProductRepository) Clear(ctx context.Context) error {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.Clear")
	defer span.End()

	r.mu.Lock()
	defer r.mu.Unlock()

	removed := len(r.products)
	clear(r.products)
	r.seq = 0

	span.SetAttributes(attribute.Int("product.count", removed))

	r.logger.InfoContext(ctx, "Repository cleared",
		slog.Int("removed", removed),
	)

	span.SetStatus(codes.Ok, "Repository cleared")
	return nil
}

func (r *ProductRepository) notFound(ctx context.Context, span trace.Span, id int64) error {
	err := &domain.ProductNotFoundError{ID: id}
	span.RecordError(err)
	span.SetStatus(codes.Error, "Product not found")
	r.logger.WarnContext(ctx, "Product not found",
		slog.Int64("product_id", id),
	)
	return err
}
