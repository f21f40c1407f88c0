package persistence

import (
	"context"
	"testing"

	"github.com/agrofamilia/backend/internal/domain/catalog"
	"github.com/agrofamilia/backend/internal/domain/order"
	"github.com/agrofamilia/backend/internal/domain/shared"
	"github.com/agrofamilia/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupSQLiteDB opens an in-memory database with the marketplace schema.
// It covers the repository paths that use portable SQL; Postgres-specific
// queries (ILIKE search) are exercised by the integration suite instead.
func setupSQLiteDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(&catalog.Product{}, &order.Order{}, &order.Item{}))

	return db
}

func seedSQLiteProduct(t *testing.T, db *gorm.DB, producerID uuid.UUID, name string, price string, stock int64) *catalog.Product {
	money, err := valueobject.NewMoneyBRLFromString(price)
	require.NoError(t, err)

	product, err := catalog.NewProduct(producerID, name, money)
	require.NoError(t, err)
	require.NoError(t, product.SetStock(decimal.NewFromInt(stock)))
	product.ClearDomainEvents()

	require.NoError(t, db.Create(product).Error)
	return product
}

func buildSQLiteOrder(t *testing.T, userID uuid.UUID, product *catalog.Product, quantity int64) *order.Order {
	o, err := order.New(userID, "Sitio Boa Vista, km 12")
	require.NoError(t, err)

	price := valueobject.NewMoneyBRL(product.Price)

	_, err = o.AddItem(product.ID, product.Name, product.ImageURL, decimal.NewFromInt(quantity), price)
	require.NoError(t, err)
	require.NoError(t, o.Place())
	o.ClearDomainEvents()

	return o
}

func TestGormOrderRepository_SQLiteRoundTrip(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewGormOrderRepository(db)
	ctx := context.Background()

	producerID := uuid.New()
	buyerID := uuid.New()
	product := seedSQLiteProduct(t, db, producerID, "Queijo minas frescal", "32.90", 10)

	o := buildSQLiteOrder(t, buyerID, product, 4)
	lines := []catalog.StockLine{{ProductID: product.ID, Quantity: decimal.NewFromInt(4)}}

	t.Run("place reserves stock and persists items", func(t *testing.T) {
		require.NoError(t, repo.PlaceWithReservation(ctx, o, lines))

		var stored catalog.Product
		require.NoError(t, db.First(&stored, "id = ?", product.ID).Error)
		assert.True(t, stored.StockQuantity.Equal(decimal.NewFromInt(6)),
			"expected stock 6, got %s", stored.StockQuantity)

		found, err := repo.FindByID(ctx, o.ID)
		require.NoError(t, err)
		require.Len(t, found.Items, 1)
		assert.Equal(t, "Queijo minas frescal", found.Items[0].ProductName)
		assert.True(t, found.TotalAmount.Equal(decimal.RequireFromString("131.60")))
	})

	t.Run("rejects placement beyond remaining stock", func(t *testing.T) {
		over := buildSQLiteOrder(t, buyerID, product, 7)
		err := repo.PlaceWithReservation(ctx, over, []catalog.StockLine{
			{ProductID: product.ID, Quantity: decimal.NewFromInt(7)},
		})

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INSUFFICIENT_STOCK", domainErr.Code)

		// The failed transaction must not leak a partial decrement
		var stored catalog.Product
		require.NoError(t, db.First(&stored, "id = ?", product.ID).Error)
		assert.True(t, stored.StockQuantity.Equal(decimal.NewFromInt(6)))
	})

	t.Run("lists orders for the buyer", func(t *testing.T) {
		orders, total, err := repo.FindByUser(ctx, buyerID, nil, shared.Filter{Page: 1, PageSize: 10})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, orders, 1)
		assert.Equal(t, o.ID, orders[0].ID)

		confirmed := order.StatusConfirmed
		_, total, err = repo.FindByUser(ctx, buyerID, &confirmed, shared.Filter{Page: 1, PageSize: 10})
		require.NoError(t, err)
		assert.Equal(t, int64(0), total)
	})

	t.Run("lists orders received by the producer with scoped items", func(t *testing.T) {
		orders, total, err := repo.FindByProducer(ctx, producerID, nil, shared.Filter{Page: 1, PageSize: 10})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, orders, 1)
		require.Len(t, orders[0].Items, 1)

		_, total, err = repo.FindByProducer(ctx, uuid.New(), nil, shared.Filter{Page: 1, PageSize: 10})
		require.NoError(t, err)
		assert.Equal(t, int64(0), total)
	})

	t.Run("status update enforces optimistic locking", func(t *testing.T) {
		require.NoError(t, o.TransitionTo(order.StatusConfirmed))
		o.ClearDomainEvents()
		require.NoError(t, repo.UpdateStatus(ctx, o))

		// Replaying the same write finds no row at the previous version
		err := repo.UpdateStatus(ctx, o)

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "CONCURRENT_MODIFICATION", domainErr.Code)
	})

	t.Run("cancel restores stock exactly once", func(t *testing.T) {
		require.NoError(t, o.TransitionTo(order.StatusCancelled))
		o.ClearDomainEvents()
		require.NoError(t, repo.CancelWithRestock(ctx, o, lines))

		var stored catalog.Product
		require.NoError(t, db.First(&stored, "id = ?", product.ID).Error)
		assert.True(t, stored.StockQuantity.Equal(decimal.NewFromInt(10)),
			"expected stock restored to 10, got %s", stored.StockQuantity)

		// A second cancel finds no cancellable row and must not restock again
		err := repo.CancelWithRestock(ctx, o, lines)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_STATE", domainErr.Code)

		require.NoError(t, db.First(&stored, "id = ?", product.ID).Error)
		assert.True(t, stored.StockQuantity.Equal(decimal.NewFromInt(10)))
	})
}

func TestGormProductRepository_SQLiteRoundTrip(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewGormProductRepository(db)
	ctx := context.Background()

	producerID := uuid.New()
	product := seedSQLiteProduct(t, db, producerID, "Alface crespa", "4.50", 20)

	t.Run("finds by ids", func(t *testing.T) {
		other := seedSQLiteProduct(t, db, producerID, "Rucula", "5.00", 8)

		products, err := repo.FindByIDs(ctx, []uuid.UUID{product.ID, other.ID})
		require.NoError(t, err)
		assert.Len(t, products, 2)
	})

	t.Run("save with lock bumps version", func(t *testing.T) {
		loaded, err := repo.FindByID(ctx, product.ID)
		require.NoError(t, err)

		newPrice, err := valueobject.NewMoneyBRLFromString("5.20")
		require.NoError(t, err)
		require.NoError(t, loaded.SetPrice(newPrice))
		loaded.ClearDomainEvents()

		require.NoError(t, repo.SaveWithLock(ctx, loaded))

		reloaded, err := repo.FindByID(ctx, product.ID)
		require.NoError(t, err)
		assert.Equal(t, loaded.Version, reloaded.Version)
		assert.True(t, reloaded.Price.Equal(decimal.RequireFromString("5.20")))
	})

	t.Run("save with lock rejects stale version", func(t *testing.T) {
		stale, err := repo.FindByID(ctx, product.ID)
		require.NoError(t, err)
		stale.Version += 5

		err = repo.SaveWithLock(ctx, stale)

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "CONCURRENT_MODIFICATION", domainErr.Code)
	})

	t.Run("deactivated product disappears from availability", func(t *testing.T) {
		loaded, err := repo.FindByID(ctx, product.ID)
		require.NoError(t, err)
		loaded.Deactivate()
		loaded.ClearDomainEvents()
		require.NoError(t, repo.SaveWithLock(ctx, loaded))

		_, err = repo.FindAvailableByID(ctx, product.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)

		// Still reachable by plain lookup for order history
		_, err = repo.FindByID(ctx, product.ID)
		assert.NoError(t, err)
	})
}
