package catalog

import (
	"strings"
	"time"

	"github.com/agrofamilia/backend/internal/domain/shared"
	"github.com/agrofamilia/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultUnit is the unit of measure assigned when none is provided
const DefaultUnit = "kg"

// Product represents a product offered by a producer
// It is the aggregate root for catalog operations; stock_quantity is shared
// mutable state arbitrated by the order engine during placement and cancellation
type Product struct {
	shared.BaseAggregateRoot
	Name          string          `gorm:"type:varchar(200);not null"`
	Description   string          `gorm:"type:text"`
	Category      string          `gorm:"type:varchar(100);index"`
	Unit          string          `gorm:"type:varchar(20);not null;default:'kg'"`
	Price         decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	StockQuantity decimal.Decimal `gorm:"type:decimal(18,3);not null;default:0"`
	ImageURL      string          `gorm:"type:varchar(500)"`
	ProducerID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	IsAvailable   bool            `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (Product) TableName() string {
	return "products"
}

// NewProduct creates a new product owned by the given producer
func NewProduct(producerID uuid.UUID, name string, price valueobject.Money) (*Product, error) {
	if producerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCER", "Producer ID cannot be empty")
	}
	if err := validateName(name); err != nil {
		return nil, err
	}
	if err := validatePrice(price); err != nil {
		return nil, err
	}

	product := &Product{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              strings.TrimSpace(name),
		Unit:              DefaultUnit,
		Price:             price.Amount(),
		StockQuantity:     decimal.Zero,
		ProducerID:        producerID,
		IsAvailable:       true,
	}

	product.AddDomainEvent(NewProductCreatedEvent(product))

	return product, nil
}

// Update updates the product's descriptive information
func (p *Product) Update(name, description, category string) error {
	if err := validateName(name); err != nil {
		return err
	}

	p.Name = strings.TrimSpace(name)
	p.Description = description
	p.Category = category
	p.UpdatedAt = time.Now()
	p.IncrementVersion()

	p.AddDomainEvent(NewProductUpdatedEvent(p))

	return nil
}

// SetPrice updates the selling price
// Existing order items keep their snapshotted unit price
func (p *Product) SetPrice(price valueobject.Money) error {
	if err := validatePrice(price); err != nil {
		return err
	}

	p.Price = price.Amount()
	p.UpdatedAt = time.Now()
	p.IncrementVersion()

	p.AddDomainEvent(NewProductPriceChangedEvent(p))

	return nil
}

// SetUnit updates the unit of measure
func (p *Product) SetUnit(unit string) error {
	unit = strings.TrimSpace(unit)
	if unit == "" {
		unit = DefaultUnit
	}
	if len(unit) > 20 {
		return shared.NewDomainError("INVALID_UNIT", "Unit cannot exceed 20 characters")
	}

	p.Unit = unit
	p.UpdatedAt = time.Now()

	return nil
}

// SetStock replaces the stock quantity (producer-initiated restock)
func (p *Product) SetStock(quantity decimal.Decimal) error {
	if quantity.IsNegative() {
		return shared.NewDomainError("INVALID_QUANTITY", "Stock quantity cannot be negative")
	}

	p.StockQuantity = quantity
	p.UpdatedAt = time.Now()
	p.IncrementVersion()

	return nil
}

// SetImageURL updates the display image
func (p *Product) SetImageURL(url string) {
	p.ImageURL = url
	p.UpdatedAt = time.Now()
}

// Deactivate soft-deletes the product; rows are never removed
func (p *Product) Deactivate() {
	if !p.IsAvailable {
		return
	}

	p.IsAvailable = false
	p.UpdatedAt = time.Now()
	p.IncrementVersion()

	p.AddDomainEvent(NewProductDeactivatedEvent(p))
}

// Activate makes the product orderable again
func (p *Product) Activate() {
	if p.IsAvailable {
		return
	}

	p.IsAvailable = true
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
}

// IsOwnedBy returns true if the given user is the owning producer
func (p *Product) IsOwnedBy(userID uuid.UUID) bool {
	return p.ProducerID == userID
}

// CanFulfill returns nil if the product is orderable for the requested quantity
func (p *Product) CanFulfill(quantity decimal.Decimal) error {
	if !p.IsAvailable {
		return shared.ErrNotFound
	}
	if quantity.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if p.StockQuantity.LessThan(quantity) {
		return shared.NewDomainError("INSUFFICIENT_STOCK", "Insufficient stock for product "+p.Name)
	}
	return nil
}

// GetPriceMoney returns the price as a Money value object
func (p *Product) GetPriceMoney() valueobject.Money {
	return valueobject.NewMoneyBRL(p.Price)
}

func validateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Product name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Product name cannot exceed 200 characters")
	}
	return nil
}

func validatePrice(price valueobject.Money) error {
	if !price.IsPositive() {
		return shared.NewDomainError("INVALID_PRICE", "Price must be greater than zero")
	}
	return nil
}
