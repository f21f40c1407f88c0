package persistence

import (
	"context"
	"database/sql"
	"errors"

	"github.com/agrofamilia/backend/internal/domain/catalog"
	"github.com/agrofamilia/backend/internal/domain/identity"
	"github.com/agrofamilia/backend/internal/domain/order"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormStatsRepository implements identity.StatsRepository with aggregate
// queries over the products and orders tables
type GormStatsRepository struct {
	db *gorm.DB
}

// NewGormStatsRepository creates a new GormStatsRepository
func NewGormStatsRepository(db *gorm.DB) *GormStatsRepository {
	return &GormStatsRepository{db: db}
}

// ProducerStats returns listed-product count, gross sales over the producer's
// order lines, and the number of distinct orders containing them
func (r *GormStatsRepository) ProducerStats(ctx context.Context, producerID uuid.UUID) (*identity.ProducerStats, error) {
	stats := &identity.ProducerStats{TotalSales: decimal.Zero}

	if err := r.db.WithContext(ctx).
		Model(&catalog.Product{}).
		Where("producer_id = ? AND is_available = ?", producerID, true).
		Count(&stats.TotalProducts).Error; err != nil {
		return nil, err
	}

	producerLines := func(db *gorm.DB) *gorm.DB {
		return db.Model(&order.Item{}).
			Joins("JOIN products ON products.id = order_items.product_id").
			Where("products.producer_id = ?", producerID)
	}

	row := producerLines(r.db.WithContext(ctx)).
		Select("COALESCE(SUM(order_items.total_price), 0)").
		Row()
	if err := row.Scan(&stats.TotalSales); err != nil {
		return nil, err
	}

	if err := producerLines(r.db.WithContext(ctx)).
		Distinct("order_items.order_id").
		Count(&stats.TotalOrders).Error; err != nil {
		return nil, err
	}

	return stats, nil
}

// ConsumerStats returns order count, lifetime spend, and the most-ordered
// product category for the given buyer
func (r *GormStatsRepository) ConsumerStats(ctx context.Context, userID uuid.UUID) (*identity.ConsumerStats, error) {
	stats := &identity.ConsumerStats{TotalSpent: decimal.Zero}

	if err := r.db.WithContext(ctx).
		Model(&order.Order{}).
		Where("user_id = ?", userID).
		Count(&stats.TotalOrders).Error; err != nil {
		return nil, err
	}

	row := r.db.WithContext(ctx).
		Model(&order.Order{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(total_amount), 0)").
		Row()
	if err := row.Scan(&stats.TotalSpent); err != nil {
		return nil, err
	}

	row = r.db.WithContext(ctx).
		Model(&order.Item{}).
		Joins("JOIN products ON products.id = order_items.product_id").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.user_id = ?", userID).
		Select("products.category").
		Group("products.category").
		Order("COUNT(*) DESC").
		Limit(1).
		Row()
	if err := row.Scan(&stats.FavoriteCategory); err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
	}

	return stats, nil
}

// Ensure GormStatsRepository implements identity.StatsRepository
var _ identity.StatsRepository = (*GormStatsRepository)(nil)
