package order

import (
	"context"

	"github.com/agrofamilia/backend/internal/domain/catalog"
	"github.com/agrofamilia/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Repository defines the persistence operations for orders
//
// PlaceWithReservation and CancelWithRestock are transactional: the order
// mutation and the corresponding stock adjustments either all commit or
// none do.
type Repository interface {
	// FindByID loads an order with its items
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)

	// FindByUser returns orders placed by the given user, newest first,
	// optionally filtered to a single status
	FindByUser(ctx context.Context, userID uuid.UUID, status *Status, filter shared.Filter) ([]*Order, int64, error)

	// FindByProducer returns orders containing at least one product owned
	// by the given producer, newest first, optionally filtered to a single
	// status. Each returned order carries only the producer's items.
	FindByProducer(ctx context.Context, producerID uuid.UUID, status *Status, filter shared.Filter) ([]*Order, int64, error)

	// PlaceWithReservation persists a new order with its items and
	// decrements product stock for every line in the same transaction.
	// A line whose product is unavailable or short on stock fails the
	// whole placement with INSUFFICIENT_STOCK.
	PlaceWithReservation(ctx context.Context, o *Order, lines []catalog.StockLine) error

	// UpdateStatus persists a plain status transition
	UpdateStatus(ctx context.Context, o *Order) error

	// CancelWithRestock marks the order cancelled and adds the quantities
	// of the given lines back to product stock in the same transaction.
	// The status update is conditional on the order still being in a
	// cancellable state, so a concurrent cancel restocks only once.
	CancelWithRestock(ctx context.Context, o *Order, lines []catalog.StockLine) error
}
