package identity

import (
	"context"
	"time"

	"github.com/agrofamilia/backend/internal/domain/identity"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// UserResponse represents a user profile in API responses
type UserResponse struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone,omitempty"`
	Address    string    `json:"address,omitempty"`
	City       string    `json:"city,omitempty"`
	State      string    `json:"state,omitempty"`
	IsProducer bool      `json:"is_producer"`
	CreatedAt  time.Time `json:"created_at"`
}

// UpdateProfileRequest represents a profile update
type UpdateProfileRequest struct {
	Name    string `json:"name" binding:"required,min=1,max=200"`
	Phone   string `json:"phone" binding:"max=30"`
	Address string `json:"address" binding:"max=500"`
	City    string `json:"city" binding:"max=100"`
	State   string `json:"state" binding:"max=50"`
}

// UserStatsResponse represents a user's activity summary
// Producer accounts carry total_products/total_sales; consumer accounts carry
// total_spent/favorite_category
type UserStatsResponse struct {
	IsProducer       bool             `json:"is_producer"`
	TotalOrders      int64            `json:"total_orders"`
	TotalProducts    *int64           `json:"total_products,omitempty"`
	TotalSales       *decimal.Decimal `json:"total_sales,omitempty"`
	TotalSpent       *decimal.Decimal `json:"total_spent,omitempty"`
	FavoriteCategory *string          `json:"favorite_category,omitempty"`
}

// UserService handles user profile operations
type UserService struct {
	userRepo  identity.Repository
	statsRepo identity.StatsRepository
}

// NewUserService creates a new UserService
func NewUserService(userRepo identity.Repository, statsRepo identity.StatsRepository) *UserService {
	return &UserService{userRepo: userRepo, statsRepo: statsRepo}
}

// GetProfile returns the acting user's own profile
func (s *UserService) GetProfile(ctx context.Context, userID uuid.UUID) (*UserResponse, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	response := ToUserResponse(user)
	return &response, nil
}

// UpdateProfile updates the acting user's contact details
func (s *UserService) UpdateProfile(ctx context.Context, userID uuid.UUID, req UpdateProfileRequest) (*UserResponse, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := user.UpdateProfile(req.Name, req.Phone, req.Address, req.City, req.State); err != nil {
		return nil, err
	}

	if err := s.userRepo.Save(ctx, user); err != nil {
		return nil, err
	}

	response := ToUserResponse(user)
	return &response, nil
}

// Stats returns the acting user's activity summary, shaped by their role
func (s *UserService) Stats(ctx context.Context, userID uuid.UUID) (*UserStatsResponse, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if user.IsProducer {
		stats, err := s.statsRepo.ProducerStats(ctx, userID)
		if err != nil {
			return nil, err
		}
		return &UserStatsResponse{
			IsProducer:    true,
			TotalOrders:   stats.TotalOrders,
			TotalProducts: &stats.TotalProducts,
			TotalSales:    &stats.TotalSales,
		}, nil
	}

	stats, err := s.statsRepo.ConsumerStats(ctx, userID)
	if err != nil {
		return nil, err
	}
	resp := &UserStatsResponse{
		IsProducer:  false,
		TotalOrders: stats.TotalOrders,
		TotalSpent:  &stats.TotalSpent,
	}
	if stats.FavoriteCategory != "" {
		resp.FavoriteCategory = &stats.FavoriteCategory
	}
	return resp, nil
}

// ToUserResponse converts a domain user to its response DTO
func ToUserResponse(u *identity.User) UserResponse {
	return UserResponse{
		ID:         u.ID,
		Name:       u.Name,
		Email:      u.Email,
		Phone:      u.Phone,
		Address:    u.Address,
		City:       u.City,
		State:      u.State,
		IsProducer: u.IsProducer,
		CreatedAt:  u.CreatedAt,
	}
}
