package identity

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProducerStats summarizes a producer's marketplace activity
type ProducerStats struct {
	TotalProducts int64
	TotalSales    decimal.Decimal
	TotalOrders   int64
}

// ConsumerStats summarizes a consumer's purchasing activity
// FavoriteCategory is empty when the user has never ordered
type ConsumerStats struct {
	TotalOrders      int64
	TotalSpent       decimal.Decimal
	FavoriteCategory string
}

// StatsRepository provides aggregate activity queries for user dashboards
type StatsRepository interface {
	ProducerStats(ctx context.Context, producerID uuid.UUID) (*ProducerStats, error)
	ConsumerStats(ctx context.Context, userID uuid.UUID) (*ConsumerStats, error)
}
