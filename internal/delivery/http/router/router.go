// Package router contains routing and server setup for the HTTP delivery.
package router

import (
	"bazaar/internal/delivery/http/router/handler"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

type RouterParams struct {
	fx.In

	SessionHandler *handler.SessionHandler
	CartHandler    *handler.CartHandler
}

// router holds all the handlers that need to be registered.
type router struct {
	sessionHandler *handler.SessionHandler
	cartHandler    *handler.CartHandler
}

// NewRouter is the constructor for the Router.
// Fx will inject the required handlers here.
func NewRouter(params RouterParams) *router {
	return &router{
		sessionHandler: params.SessionHandler,
		cartHandler:    params.CartHandler,
	}
}

// RegisterRoutes sets up all the API routes for the application.
func (r *router) RegisterRoutes(e *echo.Echo) {
	// Health check endpoint
	e.GET("/health", handler.HealthCheck)

	// Auth routes
	authGroup := e.Group("/auth")
	{
		authGroup.POST("/login", r.sessionHandler.Login)
		authGroup.POST("/oauth", r.sessionHandler.OAuthLogin)
		authGroup.POST("/register", r.sessionHandler.Register)
		authGroup.POST("/register/shop-owner", r.sessionHandler.RegisterShopOwner)
		authGroup.POST("/logout", r.sessionHandler.Logout)
		authGroup.GET("/session", r.sessionHandler.GetSession)
	}

	// Shop management routes
	shopGroup := e.Group("/shop")
	{
		shopGroup.PUT("/active", r.sessionHandler.SetActiveShop)
		shopGroup.GET("/qr", r.sessionHandler.ShopShareQR)
	}

	// Cart routes
	cartGroup := e.Group("/cart")
	{
		cartGroup.GET("", r.cartHandler.GetCart)
		cartGroup.POST("/items", r.cartHandler.AddItem)
		cartGroup.PATCH("/items/:id", r.cartHandler.UpdateQuantity)
		cartGroup.DELETE("/items/:id", r.cartHandler.RemoveItem)
		cartGroup.POST("/clear", r.cartHandler.ClearCart)
		cartGroup.POST("/toggle", r.cartHandler.ToggleCart)
	}
}
