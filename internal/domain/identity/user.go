package identity

import (
	"strings"

	"github.com/agrofamilia/backend/internal/domain/shared"
)

// User represents an account on the marketplace
// A user with IsProducer set can publish products and receives the orders
// containing them; every user can place orders as a consumer.
type User struct {
	shared.BaseAggregateRoot
	Name       string `gorm:"type:varchar(200);not null"`
	Email      string `gorm:"type:varchar(255);not null;uniqueIndex"`
	Phone      string `gorm:"type:varchar(30)"`
	Address    string `gorm:"type:varchar(300)"`
	City       string `gorm:"type:varchar(100)"`
	State      string `gorm:"type:varchar(2)"`
	IsProducer bool   `gorm:"not null;default:false"`
	IsActive   bool   `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (User) TableName() string {
	return "users"
}

// NewUser creates an active consumer account
func NewUser(name, email string) (*User, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))

	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Name cannot be empty")
	}
	if email == "" || !strings.Contains(email, "@") {
		return nil, shared.NewDomainError("INVALID_EMAIL", "A valid email is required")
	}

	return &User{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		Email:             email,
		IsActive:          true,
	}, nil
}

// BecomeProducer flags the account as a producer
func (u *User) BecomeProducer() {
	u.IsProducer = true
}

// UpdateProfile updates the user's contact details
func (u *User) UpdateProfile(name, phone, address, city, state string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Name cannot be empty")
	}

	u.Name = name
	u.Phone = strings.TrimSpace(phone)
	u.Address = strings.TrimSpace(address)
	u.City = strings.TrimSpace(city)
	u.State = strings.TrimSpace(state)

	return nil
}

// Deactivate disables the account
func (u *User) Deactivate() {
	u.IsActive = false
}

// CanManageProducts returns true for active producers
func (u *User) CanManageProducts() bool {
	return u.IsActive && u.IsProducer
}
