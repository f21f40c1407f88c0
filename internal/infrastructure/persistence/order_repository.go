package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/agrofamilia/backend/internal/domain/catalog"
	"github.com/agrofamilia/backend/internal/domain/order"
	"github.com/agrofamilia/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormOrderRepository implements order.Repository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// FindByID loads an order with its items
func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	var o order.Order
	if err := r.db.WithContext(ctx).
		Preload("Items").
		First(&o, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}

// FindByUser returns orders placed by the given user, newest first
func (r *GormOrderRepository) FindByUser(ctx context.Context, userID uuid.UUID, status *order.Status, filter shared.Filter) ([]*order.Order, int64, error) {
	base := r.db.WithContext(ctx).Model(&order.Order{}).Where("user_id = ?", userID)
	if status != nil {
		base = base.Where("status = ?", *status)
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var orders []*order.Order
	query := r.applyFilter(base, filter).Preload("Items")
	if err := query.Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// FindByProducer returns orders containing at least one of the producer's
// products, with the items trimmed to that producer's lines
func (r *GormOrderRepository) FindByProducer(ctx context.Context, producerID uuid.UUID, status *order.Status, filter shared.Filter) ([]*order.Order, int64, error) {
	base := r.db.WithContext(ctx).Model(&order.Order{}).
		Where("orders.id IN (?)", r.db.Model(&order.Item{}).
			Select("order_items.order_id").
			Joins("JOIN products ON products.id = order_items.product_id").
			Where("products.producer_id = ?", producerID))
	if status != nil {
		base = base.Where("status = ?", *status)
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var orders []*order.Order
	query := r.applyFilter(base, filter).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Where("order_items.product_id IN (?)", r.db.Model(&catalog.Product{}).
				Select("products.id").
				Where("products.producer_id = ?", producerID))
		})
	if err := query.Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// PlaceWithReservation persists the order and decrements product stock for
// every line in one transaction. Stock is taken with a conditional UPDATE,
// so two concurrent placements can never both consume the last unit.
func (r *GormOrderRepository) PlaceWithReservation(ctx context.Context, o *order.Order, lines []catalog.StockLine) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, line := range lines {
			result := tx.Model(&catalog.Product{}).
				Where("id = ? AND is_available = ? AND stock_quantity >= ?", line.ProductID, true, line.Quantity).
				Update("stock_quantity", gorm.Expr("stock_quantity - ?", line.Quantity))
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return shared.NewDomainError("INSUFFICIENT_STOCK", "Not enough stock to fulfill the order")
			}
		}

		if err := tx.Create(o).Error; err != nil {
			return err
		}
		return nil
	})
}

// UpdateStatus persists a status transition with optimistic locking
func (r *GormOrderRepository) UpdateStatus(ctx context.Context, o *order.Order) error {
	result := r.db.WithContext(ctx).
		Model(&order.Order{}).
		Where("id = ? AND version = ?", o.ID, o.Version-1).
		Updates(map[string]interface{}{
			"status":       o.Status,
			"cancelled_at": o.CancelledAt,
			"version":      o.Version,
			"updated_at":   o.UpdatedAt,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError("CONCURRENT_MODIFICATION", "The order has been modified by another user")
	}
	return nil
}

// CancelWithRestock marks the order cancelled and restores the given stock
// lines in one transaction. The status flip is conditional on the current
// status still being cancellable, so a racing cancel restocks only once.
func (r *GormOrderRepository) CancelWithRestock(ctx context.Context, o *order.Order, lines []catalog.StockLine) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&order.Order{}).
			Where("id = ? AND status IN ?", o.ID, []order.Status{order.StatusPending, order.StatusConfirmed}).
			Updates(map[string]interface{}{
				"status":       order.StatusCancelled,
				"cancelled_at": o.CancelledAt,
				"version":      o.Version,
				"updated_at":   o.UpdatedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.NewDomainError("INVALID_STATE", "Order is no longer cancellable")
		}

		for _, line := range lines {
			result := tx.Model(&catalog.Product{}).
				Where("id = ?", line.ProductID).
				Update("stock_quantity", gorm.Expr("stock_quantity + ?", line.Quantity))
			if result.Error != nil {
				return result.Error
			}
		}
		return nil
	})
}

// applyFilter applies pagination and ordering to the query
func (r *GormOrderRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	if filter.OrderBy != "" {
		orderDir := "ASC"
		if strings.ToLower(filter.OrderDir) == "desc" {
			orderDir = "DESC"
		}
		query = query.Order(filter.OrderBy + " " + orderDir)
	} else {
		query = query.Order("created_at DESC")
	}

	return query
}

// Ensure GormOrderRepository implements order.Repository
var _ order.Repository = (*GormOrderRepository)(nil)
