package order

import (
	"fmt"
	"strings"
	"time"

	"github.com/agrofamilia/backend/internal/domain/shared"
	"github.com/agrofamilia/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status represents the lifecycle status of an order
type Status string

const (
	StatusPending    Status = "pending"
	StatusConfirmed  Status = "confirmed"
	StatusPreparing  Status = "preparing"
	StatusDelivering Status = "delivering"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

// IsValid checks if the status is one of the recognized values
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusPreparing, StatusDelivering, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status
func (s Status) CanTransitionTo(target Status) bool {
	switch s {
	case StatusPending:
		return target == StatusConfirmed || target == StatusCancelled
	case StatusConfirmed:
		return target == StatusPreparing || target == StatusCancelled
	case StatusPreparing:
		return target == StatusDelivering
	case StatusDelivering:
		return target == StatusDelivered
	case StatusDelivered, StatusCancelled:
		return false // Terminal states
	}
	return false
}

// IsTerminal returns true for delivered and cancelled
func (s Status) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// Item represents one product line within an order
// UnitPrice is the price snapshot taken at order creation; it never tracks
// later product price changes
type Item struct {
	ID           uuid.UUID       `gorm:"type:uuid;primary_key"`
	OrderID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductName  string          `gorm:"type:varchar(200);not null"`
	ProductImage string          `gorm:"type:varchar(500)"`
	Quantity     decimal.Decimal `gorm:"type:decimal(18,3);not null"`
	UnitPrice    decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	TotalPrice   decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	CreatedAt    time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (Item) TableName() string {
	return "order_items"
}

// NewItem creates a new order item with a frozen unit price
func NewItem(orderID, productID uuid.UUID, productName, productImage string, quantity decimal.Decimal, unitPrice valueobject.Money) (*Item, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if quantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if !unitPrice.IsPositive() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Unit price must be positive")
	}

	return &Item{
		ID:           uuid.New(),
		OrderID:      orderID,
		ProductID:    productID,
		ProductName:  productName,
		ProductImage: productImage,
		Quantity:     quantity,
		UnitPrice:    unitPrice.Amount(),
		TotalPrice:   quantity.Mul(unitPrice.Amount()),
		CreatedAt:    time.Now(),
	}, nil
}

// Order represents a consumer's committed purchase
// It is created atomically with its items; TotalAmount is immutable after
// creation
type Order struct {
	shared.BaseAggregateRoot
	UserID          uuid.UUID       `gorm:"type:uuid;not null;index"`
	Items           []Item          `gorm:"foreignKey:OrderID"`
	TotalAmount     decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	Status          Status          `gorm:"type:varchar(20);not null;default:'pending';index"`
	DeliveryAddress string          `gorm:"type:varchar(300);not null"`
	DeliveryDate    *time.Time
	Notes           string `gorm:"type:text"`
	CancelledAt     *time.Time
}

// TableName returns the table name for GORM
func (Order) TableName() string {
	return "orders"
}

// New creates a new pending order for the given user
func New(userID uuid.UUID, deliveryAddress string) (*Order, error) {
	if userID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_USER", "User ID cannot be empty")
	}
	if strings.TrimSpace(deliveryAddress) == "" {
		return nil, shared.NewDomainError("INVALID_ADDRESS", "Delivery address is required")
	}

	return &Order{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		UserID:            userID,
		Items:             make([]Item, 0),
		TotalAmount:       decimal.Zero,
		Status:            StatusPending,
		DeliveryAddress:   strings.TrimSpace(deliveryAddress),
	}, nil
}

// SetDeliveryDate sets the optional requested delivery date
func (o *Order) SetDeliveryDate(date time.Time) {
	o.DeliveryDate = &date
	o.UpdatedAt = time.Now()
}

// SetNotes sets free-form order notes
func (o *Order) SetNotes(notes string) {
	o.Notes = notes
	o.UpdatedAt = time.Now()
}

// AddItem adds a product line to a not-yet-placed order
// Duplicate products must be merged by the caller before adding
func (o *Order) AddItem(productID uuid.UUID, productName, productImage string, quantity decimal.Decimal, unitPrice valueobject.Money) (*Item, error) {
	if o.Status != StatusPending {
		return nil, shared.NewDomainError("INVALID_STATE", "Cannot add items to a placed order")
	}
	for _, item := range o.Items {
		if item.ProductID == productID {
			return nil, shared.NewDomainError("DUPLICATE_PRODUCT", "Product already present in order")
		}
	}

	item, err := NewItem(o.ID, productID, productName, productImage, quantity, unitPrice)
	if err != nil {
		return nil, err
	}

	o.Items = append(o.Items, *item)
	o.recalculateTotal()
	o.UpdatedAt = time.Now()

	return item, nil
}

// Place finalizes the order for persistence and emits the placed event
// Requires at least one item
func (o *Order) Place() error {
	if len(o.Items) == 0 {
		return shared.NewDomainError("INVALID_INPUT", "Order must contain at least one item")
	}
	if o.TotalAmount.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_AMOUNT", "Order total must be positive")
	}

	o.AddDomainEvent(NewOrderPlacedEvent(o))

	return nil
}

// TransitionTo moves the order to the target status
// The target must be a recognized status and reachable from the current one
func (o *Order) TransitionTo(target Status) error {
	if !target.IsValid() {
		return shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("Unknown order status %q", target))
	}
	if !o.Status.CanTransitionTo(target) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot move order from %s to %s", o.Status, target))
	}

	from := o.Status
	now := time.Now()
	o.Status = target
	o.UpdatedAt = now
	o.IncrementVersion()

	if target == StatusCancelled {
		o.CancelledAt = &now
		o.AddDomainEvent(NewOrderCancelledEvent(o, from))
	} else {
		o.AddDomainEvent(NewOrderStatusChangedEvent(o, from))
	}

	return nil
}

// Cancel is a convenience wrapper for TransitionTo(StatusCancelled)
func (o *Order) Cancel() error {
	return o.TransitionTo(StatusCancelled)
}

// CanBeCancelled returns true while the order is in a cancellable state
func (o *Order) CanBeCancelled() bool {
	return o.Status.CanTransitionTo(StatusCancelled)
}

// IsOwnedBy returns true if the given user placed the order
func (o *Order) IsOwnedBy(userID uuid.UUID) bool {
	return o.UserID == userID
}

// IsTerminal returns true if the order is delivered or cancelled
func (o *Order) IsTerminal() bool {
	return o.Status.IsTerminal()
}

// ItemsOfProducts returns the order items whose product is in the given set
func (o *Order) ItemsOfProducts(productIDs map[uuid.UUID]bool) []Item {
	out := make([]Item, 0, len(o.Items))
	for _, item := range o.Items {
		if productIDs[item.ProductID] {
			out = append(out, item)
		}
	}
	return out
}

// GetTotalAmountMoney returns the total as a Money value object
func (o *Order) GetTotalAmountMoney() valueobject.Money {
	return valueobject.NewMoneyBRL(o.TotalAmount)
}

// recalculateTotal recomputes TotalAmount from the item totals
func (o *Order) recalculateTotal() {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.TotalPrice)
	}
	o.TotalAmount = total
}
