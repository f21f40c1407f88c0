package router

import (
	"github.com/agrofamilia/backend/internal/infrastructure/auth"
	"github.com/agrofamilia/backend/internal/infrastructure/logger"
	"github.com/agrofamilia/backend/internal/interfaces/http/handler"
	"github.com/agrofamilia/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Config holds everything the router needs to wire the API surface
type Config struct {
	Logger         *zap.Logger
	JWTService     *auth.JWTService
	TokenBlacklist auth.TokenBlacklist
	CORS           middleware.CORSConfig

	System  *handler.SystemHandler
	Product *handler.ProductHandler
	Order   *handler.OrderHandler
	User    *handler.UserHandler
}

// New builds the gin engine with all middleware and routes registered
func New(cfg Config) *gin.Engine {
	engine := gin.New()

	engine.Use(middleware.RequestID())
	engine.Use(logger.GinMiddleware(cfg.Logger))
	engine.Use(logger.Recovery(cfg.Logger))
	engine.Use(middleware.CORSWithConfig(cfg.CORS))

	// Public surface
	engine.GET("/health", cfg.System.Health)
	engine.GET("/system/info", cfg.System.GetSystemInfo)

	api := engine.Group("/api/v1")
	{
		api.GET("/catalog/products", cfg.Product.List)
		api.GET("/catalog/products/:id", cfg.Product.Get)
		api.GET("/catalog/categories", cfg.Product.ListCategories)
	}

	// Authenticated surface
	authed := engine.Group("/api/v1")
	authed.Use(middleware.JWTAuthMiddlewareWithConfig(middleware.JWTMiddlewareConfig{
		JWTService:     cfg.JWTService,
		TokenBlacklist: cfg.TokenBlacklist,
		Logger:         cfg.Logger,
	}))
	{
		authed.POST("/orders", cfg.Order.Create)
		authed.GET("/orders/mine", cfg.Order.ListMine)
		authed.GET("/orders/received", cfg.Order.ListReceived)
		authed.GET("/orders/:id", cfg.Order.Get)
		authed.PATCH("/orders/:id/status", cfg.Order.UpdateStatus)

		authed.POST("/catalog/products", cfg.Product.Create)
		authed.GET("/catalog/products/mine", cfg.Product.ListMine)
		authed.PUT("/catalog/products/:id", cfg.Product.Update)
		authed.DELETE("/catalog/products/:id", cfg.Product.Delete)

		authed.GET("/users/me", cfg.User.Me)
		authed.PUT("/users/me", cfg.User.UpdateMe)
		authed.GET("/users/me/stats", cfg.User.Stats)
	}

	return engine
}
