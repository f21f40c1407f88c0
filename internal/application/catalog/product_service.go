package catalog

import (
	"context"

	"github.com/agrofamilia/backend/internal/domain/catalog"
	"github.com/agrofamilia/backend/internal/domain/identity"
	"github.com/agrofamilia/backend/internal/domain/shared"
	"github.com/agrofamilia/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// ProductService handles product catalog operations
// Mutations are gated on the acting user being an active producer, and on
// ownership of the product being changed.
type ProductService struct {
	productRepo    catalog.ProductRepository
	userRepo       identity.Repository
	eventPublisher shared.EventPublisher
}

// NewProductService creates a new ProductService
func NewProductService(productRepo catalog.ProductRepository, userRepo identity.Repository) *ProductService {
	return &ProductService{
		productRepo: productRepo,
		userRepo:    userRepo,
	}
}

// SetEventPublisher sets the publisher for domain events
func (s *ProductService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Create publishes a new product owned by the acting user
func (s *ProductService) Create(ctx context.Context, userID uuid.UUID, req CreateProductRequest) (*ProductResponse, error) {
	if err := s.requireProducer(ctx, userID); err != nil {
		return nil, err
	}

	product, err := catalog.NewProduct(userID, req.Name, valueobject.NewMoneyBRL(req.Price))
	if err != nil {
		return nil, err
	}

	if req.Description != "" || req.Category != "" {
		if err := product.Update(req.Name, req.Description, req.Category); err != nil {
			return nil, err
		}
	}
	if req.Unit != "" {
		if err := product.SetUnit(req.Unit); err != nil {
			return nil, err
		}
	}
	if !req.StockQuantity.IsZero() {
		if err := product.SetStock(req.StockQuantity); err != nil {
			return nil, err
		}
	}
	if req.ImageURL != "" {
		product.SetImageURL(req.ImageURL)
	}

	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, product)

	response := ToProductResponse(product)
	return &response, nil
}

// Update changes a product owned by the acting user
func (s *ProductService) Update(ctx context.Context, userID, productID uuid.UUID, req UpdateProductRequest) (*ProductResponse, error) {
	product, err := s.ownedProduct(ctx, userID, productID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil || req.Description != nil || req.Category != nil {
		name := product.Name
		if req.Name != nil {
			name = *req.Name
		}
		description := product.Description
		if req.Description != nil {
			description = *req.Description
		}
		category := product.Category
		if req.Category != nil {
			category = *req.Category
		}
		if err := product.Update(name, description, category); err != nil {
			return nil, err
		}
	}
	if req.Price != nil {
		if err := product.SetPrice(valueobject.NewMoneyBRL(*req.Price)); err != nil {
			return nil, err
		}
	}
	if req.Unit != nil {
		if err := product.SetUnit(*req.Unit); err != nil {
			return nil, err
		}
	}
	if req.StockQuantity != nil {
		if err := product.SetStock(*req.StockQuantity); err != nil {
			return nil, err
		}
	}
	if req.ImageURL != nil {
		product.SetImageURL(*req.ImageURL)
	}
	if req.IsAvailable != nil {
		if *req.IsAvailable {
			product.Activate()
		} else {
			product.Deactivate()
		}
	}

	if err := s.productRepo.SaveWithLock(ctx, product); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, product)

	response := ToProductResponse(product)
	return &response, nil
}

// Delete deactivates a product owned by the acting user
// Rows are never removed so existing order items keep their references
func (s *ProductService) Delete(ctx context.Context, userID, productID uuid.UUID) error {
	product, err := s.ownedProduct(ctx, userID, productID)
	if err != nil {
		return err
	}

	product.Deactivate()

	if err := s.productRepo.SaveWithLock(ctx, product); err != nil {
		return err
	}

	s.publishEvents(ctx, product)

	return nil
}

// GetByID returns a single orderable product
func (s *ProductService) GetByID(ctx context.Context, productID uuid.UUID) (*ProductResponse, error) {
	product, err := s.productRepo.FindAvailableByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	response := ToProductResponse(product)
	return &response, nil
}

// List returns orderable products matching the filter
func (s *ProductService) List(ctx context.Context, filter ProductListFilter) ([]ProductResponse, int64, error) {
	f := shared.DefaultFilter()
	if filter.Page > 0 {
		f.Page = filter.Page
	}
	if filter.PageSize > 0 {
		f.PageSize = filter.PageSize
	}
	f.Search = filter.Search
	if filter.Category != "" {
		f.Filters["category"] = filter.Category
	}
	if filter.ProducerID != nil {
		f.Filters["producer_id"] = *filter.ProducerID
	}

	products, err := s.productRepo.FindAvailable(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.productRepo.Count(ctx, f)
	if err != nil {
		return nil, 0, err
	}

	return ToProductResponseList(products), total, nil
}

// ListMine returns all of the acting producer's products, deactivated included
func (s *ProductService) ListMine(ctx context.Context, userID uuid.UUID, filter ProductListFilter) ([]ProductResponse, error) {
	if err := s.requireProducer(ctx, userID); err != nil {
		return nil, err
	}

	f := shared.DefaultFilter()
	if filter.Page > 0 {
		f.Page = filter.Page
	}
	if filter.PageSize > 0 {
		f.PageSize = filter.PageSize
	}

	products, err := s.productRepo.FindByProducer(ctx, userID, f)
	if err != nil {
		return nil, err
	}

	return ToProductResponseList(products), nil
}

func (s *ProductService) requireProducer(ctx context.Context, userID uuid.UUID) error {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if !user.CanManageProducts() {
		return shared.ErrForbidden
	}
	return nil
}

func (s *ProductService) ownedProduct(ctx context.Context, userID, productID uuid.UUID) (*catalog.Product, error) {
	if err := s.requireProducer(ctx, userID); err != nil {
		return nil, err
	}

	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !product.IsOwnedBy(userID) {
		return nil, shared.ErrForbidden
	}
	return product, nil
}

func (s *ProductService) publishEvents(ctx context.Context, product *catalog.Product) {
	if s.eventPublisher == nil {
		return
	}
	for _, event := range product.GetDomainEvents() {
		_ = s.eventPublisher.Publish(ctx, event)
	}
	product.ClearDomainEvents()
}
