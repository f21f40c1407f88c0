package catalog

import (
	"context"

	"github.com/agrofamilia/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductRepository defines the interface for product persistence
type ProductRepository interface {
	// FindByID finds a product by its ID regardless of availability
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)

	// FindAvailableByID finds a product that is currently orderable
	FindAvailableByID(ctx context.Context, id uuid.UUID) (*Product, error)

	// FindByIDs finds multiple products by their IDs
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Product, error)

	// FindAvailable lists orderable products matching the filter
	// Supported filters: category, producer_id; Search matches name/description
	FindAvailable(ctx context.Context, filter shared.Filter) ([]Product, error)

	// FindByProducer lists all products owned by a producer, including
	// deactivated ones
	FindByProducer(ctx context.Context, producerID uuid.UUID, filter shared.Filter) ([]Product, error)

	// Save creates or updates a product
	Save(ctx context.Context, product *Product) error

	// SaveWithLock saves with optimistic locking (version check)
	SaveWithLock(ctx context.Context, product *Product) error

	// Count counts orderable products matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)
}

// CategoryRepository defines the interface for category lookups
type CategoryRepository interface {
	// FindAll lists all categories ordered by name
	FindAll(ctx context.Context) ([]Category, error)

	// Save creates or updates a category
	Save(ctx context.Context, category *Category) error
}

// StockLine identifies a quantity of a single product to reserve or restore
type StockLine struct {
	ProductID uuid.UUID
	Quantity  decimal.Decimal
}
