package catalog

import (
	"time"

	"github.com/agrofamilia/backend/internal/domain/catalog"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateProductRequest represents a request to publish a product
type CreateProductRequest struct {
	Name          string          `json:"name" binding:"required,min=1,max=200"`
	Description   string          `json:"description" binding:"max=2000"`
	Category      string          `json:"category" binding:"max=100"`
	Unit          string          `json:"unit" binding:"max=20"`
	Price         decimal.Decimal `json:"price" binding:"required"`
	StockQuantity decimal.Decimal `json:"stock_quantity"`
	ImageURL      string          `json:"image_url" binding:"omitempty,url,max=500"`
}

// UpdateProductRequest represents a request to update a product
// Nil fields are left unchanged
type UpdateProductRequest struct {
	Name          *string          `json:"name" binding:"omitempty,min=1,max=200"`
	Description   *string          `json:"description" binding:"omitempty,max=2000"`
	Category      *string          `json:"category" binding:"omitempty,max=100"`
	Unit          *string          `json:"unit" binding:"omitempty,max=20"`
	Price         *decimal.Decimal `json:"price"`
	StockQuantity *decimal.Decimal `json:"stock_quantity"`
	ImageURL      *string          `json:"image_url" binding:"omitempty,url,max=500"`
	IsAvailable   *bool            `json:"is_available"`
}

// ProductListFilter represents filter options for product listings
type ProductListFilter struct {
	Category   string     `form:"category"`
	Search     string     `form:"search"`
	ProducerID *uuid.UUID `form:"producer_id"`
	Page       int        `form:"page" binding:"omitempty,min=1"`
	PageSize   int        `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// ProductResponse represents a product in API responses
type ProductResponse struct {
	ID            uuid.UUID       `json:"id"`
	Name          string          `json:"name"`
	Description   string          `json:"description,omitempty"`
	Category      string          `json:"category,omitempty"`
	Unit          string          `json:"unit"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity decimal.Decimal `json:"stock_quantity"`
	ImageURL      string          `json:"image_url,omitempty"`
	ProducerID    uuid.UUID       `json:"producer_id"`
	IsAvailable   bool            `json:"is_available"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// CategoryResponse represents a category in API responses
type CategoryResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
}

// ToProductResponse converts a domain product to its response DTO
func ToProductResponse(p *catalog.Product) ProductResponse {
	return ProductResponse{
		ID:            p.ID,
		Name:          p.Name,
		Description:   p.Description,
		Category:      p.Category,
		Unit:          p.Unit,
		Price:         p.Price,
		StockQuantity: p.StockQuantity,
		ImageURL:      p.ImageURL,
		ProducerID:    p.ProducerID,
		IsAvailable:   p.IsAvailable,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

// ToProductResponseList converts a slice of domain products
func ToProductResponseList(products []catalog.Product) []ProductResponse {
	out := make([]ProductResponse, 0, len(products))
	for i := range products {
		out = append(out, ToProductResponse(&products[i]))
	}
	return out
}

// ToCategoryResponse converts a domain category to its response DTO
func ToCategoryResponse(c *catalog.Category) CategoryResponse {
	return CategoryResponse{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
	}
}

// ToCategoryResponseList converts a slice of domain categories
func ToCategoryResponseList(categories []catalog.Category) []CategoryResponse {
	out := make([]CategoryResponse, 0, len(categories))
	for i := range categories {
		out = append(out, ToCategoryResponse(&categories[i]))
	}
	return out
}
