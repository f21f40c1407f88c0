package order

import (
	"context"
	"errors"
	"testing"

	"github.com/agrofamilia/backend/internal/domain/catalog"
	"github.com/agrofamilia/backend/internal/domain/identity"
	"github.com/agrofamilia/backend/internal/domain/order"
	"github.com/agrofamilia/backend/internal/domain/shared"
	"github.com/agrofamilia/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockOrderRepository is a mock implementation of order.Repository
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderRepository) FindByUser(ctx context.Context, userID uuid.UUID, status *order.Status, filter shared.Filter) ([]*order.Order, int64, error) {
	args := m.Called(ctx, userID, status, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*order.Order), args.Get(1).(int64), args.Error(2)
}

func (m *MockOrderRepository) FindByProducer(ctx context.Context, producerID uuid.UUID, status *order.Status, filter shared.Filter) ([]*order.Order, int64, error) {
	args := m.Called(ctx, producerID, status, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*order.Order), args.Get(1).(int64), args.Error(2)
}

func (m *MockOrderRepository) PlaceWithReservation(ctx context.Context, o *order.Order, lines []catalog.StockLine) error {
	args := m.Called(ctx, o, lines)
	return args.Error(0)
}

func (m *MockOrderRepository) UpdateStatus(ctx context.Context, o *order.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockOrderRepository) CancelWithRestock(ctx context.Context, o *order.Order, lines []catalog.StockLine) error {
	args := m.Called(ctx, o, lines)
	return args.Error(0)
}

// MockProductRepository is a mock implementation of catalog.ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindAvailableByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]catalog.Product, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindAvailable(ctx context.Context, filter shared.Filter) ([]catalog.Product, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindByProducer(ctx context.Context, producerID uuid.UUID, filter shared.Filter) ([]catalog.Product, error) {
	args := m.Called(ctx, producerID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *MockProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockProductRepository) SaveWithLock(ctx context.Context, product *catalog.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockProductRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

// MockUserRepository is a mock implementation of identity.Repository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*identity.User, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*identity.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*identity.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserRepository) Save(ctx context.Context, user *identity.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func newTestService() (*Service, *MockOrderRepository, *MockProductRepository, *MockUserRepository) {
	orderRepo := new(MockOrderRepository)
	productRepo := new(MockProductRepository)
	userRepo := new(MockUserRepository)
	return NewService(orderRepo, productRepo, userRepo), orderRepo, productRepo, userRepo
}

func newStockedProduct(t *testing.T, producerID uuid.UUID, name string, priceStr string, stock int64) catalog.Product {
	t.Helper()
	m, err := valueobject.NewMoneyBRLFromString(priceStr)
	require.NoError(t, err)
	p, err := catalog.NewProduct(producerID, name, m)
	require.NoError(t, err)
	require.NoError(t, p.SetStock(decimal.NewFromInt(stock)))
	p.ClearDomainEvents()
	return *p
}

func newPlacedOrder(t *testing.T, userID uuid.UUID, products ...catalog.Product) *order.Order {
	t.Helper()
	o, err := order.New(userID, "Rua das Flores 123")
	require.NoError(t, err)
	for _, p := range products {
		_, err := o.AddItem(p.ID, p.Name, p.ImageURL, decimal.NewFromInt(1), p.GetPriceMoney())
		require.NoError(t, err)
	}
	return o
}

func TestService_Place(t *testing.T) {
	userID := uuid.New()

	t.Run("places order and reserves stock", func(t *testing.T) {
		svc, orderRepo, productRepo, _ := newTestService()
		tomato := newStockedProduct(t, uuid.New(), "Tomate", "8.00", 10)
		eggs := newStockedProduct(t, uuid.New(), "Ovos", "15.50", 5)

		productRepo.On("FindByIDs", mock.Anything, mock.Anything).Return([]catalog.Product{tomato, eggs}, nil)
		orderRepo.On("PlaceWithReservation", mock.Anything, mock.Anything, mock.Anything).Return(nil)

		resp, err := svc.Place(context.Background(), userID, CreateOrderRequest{
			DeliveryAddress: "Rua das Flores 123",
			Items: []CreateOrderItemInput{
				{ProductID: tomato.ID, Quantity: decimal.NewFromFloat(2.5)},
				{ProductID: eggs.ID, Quantity: decimal.NewFromInt(2)},
			},
		})

		require.NoError(t, err)
		assert.Equal(t, "pending", resp.Status)
		assert.Len(t, resp.Items, 2)
		assert.True(t, resp.TotalAmount.Equal(decimal.NewFromFloat(51.00)), "got %s", resp.TotalAmount)

		orderRepo.AssertCalled(t, "PlaceWithReservation", mock.Anything, mock.Anything, mock.MatchedBy(func(lines []catalog.StockLine) bool {
			return len(lines) == 2
		}))
	})

	t.Run("rejects empty items", func(t *testing.T) {
		svc, _, _, _ := newTestService()
		_, err := svc.Place(context.Background(), userID, CreateOrderRequest{DeliveryAddress: "Rua A"})
		assert.Error(t, err)
	})

	t.Run("unknown product fails whole order with no stock movement", func(t *testing.T) {
		svc, orderRepo, productRepo, _ := newTestService()
		tomato := newStockedProduct(t, uuid.New(), "Tomate", "8.00", 10)

		productRepo.On("FindByIDs", mock.Anything, mock.Anything).Return([]catalog.Product{tomato}, nil)

		_, err := svc.Place(context.Background(), userID, CreateOrderRequest{
			DeliveryAddress: "Rua A",
			Items: []CreateOrderItemInput{
				{ProductID: tomato.ID, Quantity: decimal.NewFromInt(1)},
				{ProductID: uuid.New(), Quantity: decimal.NewFromInt(1)},
			},
		})

		assert.ErrorIs(t, err, shared.ErrNotFound)
		orderRepo.AssertNotCalled(t, "PlaceWithReservation", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("deactivated product reads as missing", func(t *testing.T) {
		svc, _, productRepo, _ := newTestService()
		tomato := newStockedProduct(t, uuid.New(), "Tomate", "8.00", 10)
		tomato.Deactivate()

		productRepo.On("FindByIDs", mock.Anything, mock.Anything).Return([]catalog.Product{tomato}, nil)

		_, err := svc.Place(context.Background(), userID, CreateOrderRequest{
			DeliveryAddress: "Rua A",
			Items:           []CreateOrderItemInput{{ProductID: tomato.ID, Quantity: decimal.NewFromInt(1)}},
		})

		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("insufficient stock aborts placement", func(t *testing.T) {
		svc, orderRepo, productRepo, _ := newTestService()
		tomato := newStockedProduct(t, uuid.New(), "Tomate", "8.00", 3)

		productRepo.On("FindByIDs", mock.Anything, mock.Anything).Return([]catalog.Product{tomato}, nil)

		_, err := svc.Place(context.Background(), userID, CreateOrderRequest{
			DeliveryAddress: "Rua A",
			Items:           []CreateOrderItemInput{{ProductID: tomato.ID, Quantity: decimal.NewFromInt(4)}},
		})

		require.Error(t, err)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INSUFFICIENT_STOCK", domainErr.Code)
		orderRepo.AssertNotCalled(t, "PlaceWithReservation", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("surfaces repository reservation failure", func(t *testing.T) {
		svc, orderRepo, productRepo, _ := newTestService()
		tomato := newStockedProduct(t, uuid.New(), "Tomate", "8.00", 10)

		productRepo.On("FindByIDs", mock.Anything, mock.Anything).Return([]catalog.Product{tomato}, nil)
		orderRepo.On("PlaceWithReservation", mock.Anything, mock.Anything, mock.Anything).Return(shared.ErrInsufficientStock)

		_, err := svc.Place(context.Background(), userID, CreateOrderRequest{
			DeliveryAddress: "Rua A",
			Items:           []CreateOrderItemInput{{ProductID: tomato.ID, Quantity: decimal.NewFromInt(1)}},
		})

		assert.ErrorIs(t, err, shared.ErrInsufficientStock)
	})
}

func TestService_GetByID(t *testing.T) {
	t.Run("owner sees full order", func(t *testing.T) {
		svc, orderRepo, _, _ := newTestService()
		userID := uuid.New()
		o := newPlacedOrder(t, userID,
			newStockedProduct(t, uuid.New(), "Tomate", "8.00", 10),
			newStockedProduct(t, uuid.New(), "Ovos", "15.50", 5),
		)

		orderRepo.On("FindByID", mock.Anything, o.ID).Return(o, nil)

		resp, err := svc.GetByID(context.Background(), userID, o.ID)

		require.NoError(t, err)
		assert.Len(t, resp.Items, 2)
	})

	t.Run("producer sees only own items", func(t *testing.T) {
		svc, orderRepo, productRepo, _ := newTestService()
		producerID := uuid.New()
		mine := newStockedProduct(t, producerID, "Tomate", "8.00", 10)
		other := newStockedProduct(t, uuid.New(), "Ovos", "15.50", 5)
		o := newPlacedOrder(t, uuid.New(), mine, other)

		orderRepo.On("FindByID", mock.Anything, o.ID).Return(o, nil)
		productRepo.On("FindByIDs", mock.Anything, mock.Anything).Return([]catalog.Product{mine, other}, nil)

		resp, err := svc.GetByID(context.Background(), producerID, o.ID)

		require.NoError(t, err)
		require.Len(t, resp.Items, 1)
		assert.Equal(t, mine.ID, resp.Items[0].ProductID)
	})

	t.Run("stranger gets not found", func(t *testing.T) {
		svc, orderRepo, productRepo, _ := newTestService()
		product := newStockedProduct(t, uuid.New(), "Tomate", "8.00", 10)
		o := newPlacedOrder(t, uuid.New(), product)

		orderRepo.On("FindByID", mock.Anything, o.ID).Return(o, nil)
		productRepo.On("FindByIDs", mock.Anything, mock.Anything).Return([]catalog.Product{product}, nil)

		_, err := svc.GetByID(context.Background(), uuid.New(), o.ID)

		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestService_UpdateStatus(t *testing.T) {
	t.Run("producer advances lifecycle", func(t *testing.T) {
		svc, orderRepo, productRepo, _ := newTestService()
		producerID := uuid.New()
		product := newStockedProduct(t, producerID, "Tomate", "8.00", 10)
		o := newPlacedOrder(t, uuid.New(), product)

		orderRepo.On("FindByID", mock.Anything, o.ID).Return(o, nil)
		productRepo.On("FindByIDs", mock.Anything, mock.Anything).Return([]catalog.Product{product}, nil)
		orderRepo.On("UpdateStatus", mock.Anything, mock.Anything).Return(nil)

		resp, err := svc.UpdateStatus(context.Background(), producerID, o.ID, UpdateOrderStatusRequest{Status: "confirmed"})

		require.NoError(t, err)
		assert.Equal(t, "confirmed", resp.Status)
	})

	t.Run("owner cannot advance lifecycle", func(t *testing.T) {
		svc, orderRepo, _, _ := newTestService()
		userID := uuid.New()
		o := newPlacedOrder(t, userID, newStockedProduct(t, uuid.New(), "Tomate", "8.00", 10))

		orderRepo.On("FindByID", mock.Anything, o.ID).Return(o, nil)

		_, err := svc.UpdateStatus(context.Background(), userID, o.ID, UpdateOrderStatusRequest{Status: "confirmed"})

		assert.ErrorIs(t, err, shared.ErrForbidden)
	})

	t.Run("owner cancel restores all items", func(t *testing.T) {
		svc, orderRepo, _, _ := newTestService()
		userID := uuid.New()
		o := newPlacedOrder(t, userID,
			newStockedProduct(t, uuid.New(), "Tomate", "8.00", 10),
			newStockedProduct(t, uuid.New(), "Ovos", "15.50", 5),
		)

		orderRepo.On("FindByID", mock.Anything, o.ID).Return(o, nil)
		orderRepo.On("CancelWithRestock", mock.Anything, mock.Anything, mock.Anything).Return(nil)

		resp, err := svc.UpdateStatus(context.Background(), userID, o.ID, UpdateOrderStatusRequest{Status: "cancelled"})

		require.NoError(t, err)
		assert.Equal(t, "cancelled", resp.Status)
		orderRepo.AssertCalled(t, "CancelWithRestock", mock.Anything, mock.Anything, mock.MatchedBy(func(lines []catalog.StockLine) bool {
			return len(lines) == 2
		}))
	})

	t.Run("producer cancel restores only own items", func(t *testing.T) {
		svc, orderRepo, productRepo, _ := newTestService()
		producerID := uuid.New()
		mine := newStockedProduct(t, producerID, "Tomate", "8.00", 10)
		other := newStockedProduct(t, uuid.New(), "Ovos", "15.50", 5)
		o := newPlacedOrder(t, uuid.New(), mine, other)

		orderRepo.On("FindByID", mock.Anything, o.ID).Return(o, nil)
		productRepo.On("FindByIDs", mock.Anything, mock.Anything).Return([]catalog.Product{mine, other}, nil)
		orderRepo.On("CancelWithRestock", mock.Anything, mock.Anything, mock.Anything).Return(nil)

		_, err := svc.UpdateStatus(context.Background(), producerID, o.ID, UpdateOrderStatusRequest{Status: "cancelled"})

		require.NoError(t, err)
		orderRepo.AssertCalled(t, "CancelWithRestock", mock.Anything, mock.Anything, mock.MatchedBy(func(lines []catalog.StockLine) bool {
			return len(lines) == 1 && lines[0].ProductID == mine.ID
		}))
	})

	t.Run("cancel after delivery is rejected", func(t *testing.T) {
		svc, orderRepo, _, _ := newTestService()
		userID := uuid.New()
		o := newPlacedOrder(t, userID, newStockedProduct(t, uuid.New(), "Tomate", "8.00", 10))
		for _, next := range []order.Status{order.StatusConfirmed, order.StatusPreparing, order.StatusDelivering, order.StatusDelivered} {
			require.NoError(t, o.TransitionTo(next))
		}
		o.ClearDomainEvents()

		orderRepo.On("FindByID", mock.Anything, o.ID).Return(o, nil)

		_, err := svc.UpdateStatus(context.Background(), userID, o.ID, UpdateOrderStatusRequest{Status: "cancelled"})

		require.Error(t, err)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_STATE", domainErr.Code)
		orderRepo.AssertNotCalled(t, "CancelWithRestock", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unknown status is rejected before loading", func(t *testing.T) {
		svc, orderRepo, _, _ := newTestService()

		_, err := svc.UpdateStatus(context.Background(), uuid.New(), uuid.New(), UpdateOrderStatusRequest{Status: "shipped"})

		require.Error(t, err)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_INPUT", domainErr.Code)
		orderRepo.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
	})

	t.Run("stranger gets not found", func(t *testing.T) {
		svc, orderRepo, productRepo, _ := newTestService()
		product := newStockedProduct(t, uuid.New(), "Tomate", "8.00", 10)
		o := newPlacedOrder(t, uuid.New(), product)

		orderRepo.On("FindByID", mock.Anything, o.ID).Return(o, nil)
		productRepo.On("FindByIDs", mock.Anything, mock.Anything).Return([]catalog.Product{product}, nil)

		_, err := svc.UpdateStatus(context.Background(), uuid.New(), o.ID, UpdateOrderStatusRequest{Status: "confirmed"})

		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestService_ListMine(t *testing.T) {
	t.Run("returns user orders", func(t *testing.T) {
		svc, orderRepo, _, _ := newTestService()
		userID := uuid.New()
		o := newPlacedOrder(t, userID, newStockedProduct(t, uuid.New(), "Tomate", "8.00", 10))

		orderRepo.On("FindByUser", mock.Anything, userID, (*order.Status)(nil), mock.Anything).Return([]*order.Order{o}, int64(1), nil)

		resp, total, err := svc.ListMine(context.Background(), userID, OrderListFilter{})

		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, resp, 1)
	})

	t.Run("passes status filter through", func(t *testing.T) {
		svc, orderRepo, _, _ := newTestService()
		userID := uuid.New()
		status := "pending"

		orderRepo.On("FindByUser", mock.Anything, userID, mock.MatchedBy(func(s *order.Status) bool {
			return s != nil && *s == order.StatusPending
		}), mock.Anything).Return([]*order.Order{}, int64(0), nil)

		_, _, err := svc.ListMine(context.Background(), userID, OrderListFilter{Status: &status})

		require.NoError(t, err)
	})

	t.Run("rejects unknown status filter", func(t *testing.T) {
		svc, _, _, _ := newTestService()
		status := "bogus"

		_, _, err := svc.ListMine(context.Background(), uuid.New(), OrderListFilter{Status: &status})

		assert.Error(t, err)
	})
}

func TestService_ListReceived(t *testing.T) {
	t.Run("returns producer orders", func(t *testing.T) {
		svc, orderRepo, _, userRepo := newTestService()
		producer, err := identity.NewUser("Joao", "joao@example.com")
		require.NoError(t, err)
		producer.BecomeProducer()

		userRepo.On("FindByID", mock.Anything, producer.ID).Return(producer, nil)
		orderRepo.On("FindByProducer", mock.Anything, producer.ID, (*order.Status)(nil), mock.Anything).Return([]*order.Order{}, int64(0), nil)

		_, _, err = svc.ListReceived(context.Background(), producer.ID, OrderListFilter{})

		require.NoError(t, err)
	})

	t.Run("denormalizes buyer contact onto orders", func(t *testing.T) {
		svc, orderRepo, _, userRepo := newTestService()
		producer, err := identity.NewUser("Joao", "joao@example.com")
		require.NoError(t, err)
		producer.BecomeProducer()

		buyer, err := identity.NewUser("Ana Souza", "ana@example.com")
		require.NoError(t, err)
		require.NoError(t, buyer.UpdateProfile("Ana Souza", "(19) 99876-1234", "", "", ""))

		o := newPlacedOrder(t, buyer.ID, newStockedProduct(t, producer.ID, "Tomate", "8.00", 10))

		userRepo.On("FindByID", mock.Anything, producer.ID).Return(producer, nil)
		orderRepo.On("FindByProducer", mock.Anything, producer.ID, (*order.Status)(nil), mock.Anything).Return([]*order.Order{o}, int64(1), nil)
		userRepo.On("FindByIDs", mock.Anything, []uuid.UUID{buyer.ID}).Return([]*identity.User{buyer}, nil)

		resp, _, err := svc.ListReceived(context.Background(), producer.ID, OrderListFilter{})

		require.NoError(t, err)
		require.Len(t, resp, 1)
		assert.Equal(t, "Ana Souza", resp[0].CustomerName)
		assert.Equal(t, "(19) 99876-1234", resp[0].CustomerPhone)
	})

	t.Run("forbids non-producers", func(t *testing.T) {
		svc, orderRepo, _, userRepo := newTestService()
		consumer, err := identity.NewUser("Maria", "maria@example.com")
		require.NoError(t, err)

		userRepo.On("FindByID", mock.Anything, consumer.ID).Return(consumer, nil)

		_, _, err = svc.ListReceived(context.Background(), consumer.ID, OrderListFilter{})

		assert.ErrorIs(t, err, shared.ErrForbidden)
		orderRepo.AssertNotCalled(t, "FindByProducer", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("surfaces unknown user", func(t *testing.T) {
		svc, _, _, userRepo := newTestService()
		userID := uuid.New()

		userRepo.On("FindByID", mock.Anything, userID).Return(nil, errors.New("connection reset"))

		_, _, err := svc.ListReceived(context.Background(), userID, OrderListFilter{})

		assert.Error(t, err)
	})
}
