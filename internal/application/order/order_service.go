package order

import (
	"context"

	"github.com/agrofamilia/backend/internal/domain/catalog"
	"github.com/agrofamilia/backend/internal/domain/identity"
	"github.com/agrofamilia/backend/internal/domain/order"
	"github.com/agrofamilia/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Service handles order placement, lifecycle and queries
type Service struct {
	orderRepo      order.Repository
	productRepo    catalog.ProductRepository
	userRepo       identity.Repository
	eventPublisher shared.EventPublisher
}

// NewService creates a new order Service
func NewService(orderRepo order.Repository, productRepo catalog.ProductRepository, userRepo identity.Repository) *Service {
	return &Service{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		userRepo:    userRepo,
	}
}

// SetEventPublisher sets the publisher for domain events
func (s *Service) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Place converts the requested items into a committed order
// Validation is all-or-nothing: any failing line aborts the whole placement
// and no stock moves. The final stock reservation happens inside the
// repository transaction, so a concurrent placement of the same product
// cannot oversell even when this pre-check passed for both.
func (s *Service) Place(ctx context.Context, userID uuid.UUID, req CreateOrderRequest) (*OrderResponse, error) {
	if len(req.Items) == 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "Order must contain at least one item")
	}

	productIDs := make([]uuid.UUID, 0, len(req.Items))
	for _, line := range req.Items {
		productIDs = append(productIDs, line.ProductID)
	}

	products, err := s.productRepo.FindByIDs(ctx, productIDs)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*catalog.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}

	o, err := order.New(userID, req.DeliveryAddress)
	if err != nil {
		return nil, err
	}
	if req.DeliveryDate != nil {
		o.SetDeliveryDate(*req.DeliveryDate)
	}
	if req.Notes != "" {
		o.SetNotes(req.Notes)
	}

	lines := make([]catalog.StockLine, 0, len(req.Items))
	for _, line := range req.Items {
		product, ok := byID[line.ProductID]
		if !ok || !product.IsAvailable {
			return nil, shared.ErrNotFound
		}
		if err := product.CanFulfill(line.Quantity); err != nil {
			return nil, err
		}
		if _, err := o.AddItem(product.ID, product.Name, product.ImageURL, line.Quantity, product.GetPriceMoney()); err != nil {
			return nil, err
		}
		lines = append(lines, catalog.StockLine{ProductID: product.ID, Quantity: line.Quantity})
	}

	if err := o.Place(); err != nil {
		return nil, err
	}

	if err := s.orderRepo.PlaceWithReservation(ctx, o, lines); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, o)

	response := ToOrderResponse(o)
	return &response, nil
}

// GetByID returns an order visible to the acting user
// The owner sees the full order; a producer with items in it sees only their
// own items; anyone else gets NOT_FOUND so order existence never leaks.
func (s *Service) GetByID(ctx context.Context, userID, orderID uuid.UUID) (*OrderResponse, error) {
	o, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if o.IsOwnedBy(userID) {
		response := ToOrderResponse(o)
		return &response, nil
	}

	owned, err := s.ownedProducts(ctx, userID, o)
	if err != nil {
		return nil, err
	}
	if len(owned) == 0 {
		return nil, shared.ErrNotFound
	}

	o.Items = o.ItemsOfProducts(owned)
	response := ToOrderResponse(o)
	return &response, nil
}

// ListMine returns the acting user's own orders, newest first
func (s *Service) ListMine(ctx context.Context, userID uuid.UUID, filter OrderListFilter) ([]OrderResponse, int64, error) {
	status, err := parseStatusFilter(filter.Status)
	if err != nil {
		return nil, 0, err
	}

	orders, total, err := s.orderRepo.FindByUser(ctx, userID, status, toSharedFilter(filter))
	if err != nil {
		return nil, 0, err
	}

	return ToOrderResponseList(orders), total, nil
}

// ListReceived returns orders containing the producer's products, with items
// filtered to their own
func (s *Service) ListReceived(ctx context.Context, userID uuid.UUID, filter OrderListFilter) ([]OrderResponse, int64, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, 0, err
	}
	if !user.IsProducer {
		return nil, 0, shared.ErrForbidden
	}

	status, err := parseStatusFilter(filter.Status)
	if err != nil {
		return nil, 0, err
	}

	orders, total, err := s.orderRepo.FindByProducer(ctx, userID, status, toSharedFilter(filter))
	if err != nil {
		return nil, 0, err
	}

	responses := ToOrderResponseList(orders)
	if err := s.attachCustomerContacts(ctx, orders, responses); err != nil {
		return nil, 0, err
	}
	return responses, total, nil
}

// attachCustomerContacts denormalizes buyer name and phone onto producer-facing
// order views
func (s *Service) attachCustomerContacts(ctx context.Context, orders []*order.Order, responses []OrderResponse) error {
	if len(orders) == 0 {
		return nil
	}

	seen := make(map[uuid.UUID]bool, len(orders))
	userIDs := make([]uuid.UUID, 0, len(orders))
	for _, o := range orders {
		if !seen[o.UserID] {
			seen[o.UserID] = true
			userIDs = append(userIDs, o.UserID)
		}
	}

	users, err := s.userRepo.FindByIDs(ctx, userIDs)
	if err != nil {
		return err
	}
	byID := make(map[uuid.UUID]*identity.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	for i := range responses {
		if u, ok := byID[responses[i].UserID]; ok {
			responses[i].CustomerName = u.Name
			responses[i].CustomerPhone = u.Phone
		}
	}
	return nil
}

// UpdateStatus applies a status transition on behalf of the acting user
//
// The order's owner may only cancel. A producer with items in the order may
// advance the lifecycle or cancel. Cancellation restores stock scoped to the
// acting party: all items for the owner, only owned items for a producer.
func (s *Service) UpdateStatus(ctx context.Context, userID, orderID uuid.UUID, req UpdateOrderStatusRequest) (*OrderResponse, error) {
	target := order.Status(req.Status)
	if !target.IsValid() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Unknown order status "+req.Status)
	}

	o, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	isOwner := o.IsOwnedBy(userID)
	var owned map[uuid.UUID]bool
	if !isOwner {
		owned, err = s.ownedProducts(ctx, userID, o)
		if err != nil {
			return nil, err
		}
		if len(owned) == 0 {
			return nil, shared.ErrNotFound
		}
	}

	if target == order.StatusCancelled {
		return s.cancel(ctx, o, isOwner, owned)
	}

	if isOwner {
		return nil, shared.ErrForbidden
	}

	if err := o.TransitionTo(target); err != nil {
		return nil, err
	}
	if err := s.orderRepo.UpdateStatus(ctx, o); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, o)

	response := ToOrderResponse(o)
	return &response, nil
}

func (s *Service) cancel(ctx context.Context, o *order.Order, isOwner bool, owned map[uuid.UUID]bool) (*OrderResponse, error) {
	if err := o.Cancel(); err != nil {
		return nil, err
	}

	restockItems := o.Items
	if !isOwner {
		restockItems = o.ItemsOfProducts(owned)
	}
	lines := make([]catalog.StockLine, 0, len(restockItems))
	for _, item := range restockItems {
		lines = append(lines, catalog.StockLine{ProductID: item.ProductID, Quantity: item.Quantity})
	}

	if err := s.orderRepo.CancelWithRestock(ctx, o, lines); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, o)

	response := ToOrderResponse(o)
	return &response, nil
}

// ownedProducts returns the set of product IDs in the order owned by userID
func (s *Service) ownedProducts(ctx context.Context, userID uuid.UUID, o *order.Order) (map[uuid.UUID]bool, error) {
	productIDs := make([]uuid.UUID, 0, len(o.Items))
	for _, item := range o.Items {
		productIDs = append(productIDs, item.ProductID)
	}

	products, err := s.productRepo.FindByIDs(ctx, productIDs)
	if err != nil {
		return nil, err
	}

	owned := make(map[uuid.UUID]bool)
	for _, p := range products {
		if p.IsOwnedBy(userID) {
			owned[p.ID] = true
		}
	}
	return owned, nil
}

func (s *Service) publishEvents(ctx context.Context, o *order.Order) {
	if s.eventPublisher == nil {
		return
	}
	for _, event := range o.GetDomainEvents() {
		// Delivery failures must not fail the committed operation
		_ = s.eventPublisher.Publish(ctx, event)
	}
	o.ClearDomainEvents()
}

func parseStatusFilter(raw *string) (*order.Status, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	status := order.Status(*raw)
	if !status.IsValid() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Unknown order status "+*raw)
	}
	return &status, nil
}

func toSharedFilter(filter OrderListFilter) shared.Filter {
	f := shared.DefaultFilter()
	if filter.Page > 0 {
		f.Page = filter.Page
	}
	if filter.PageSize > 0 {
		f.PageSize = filter.PageSize
	}
	return f
}
