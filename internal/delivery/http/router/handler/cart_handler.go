package handler

import (
	"log/slog"
	"net/http"

	"bazaar/internal/delivery/http/response"
	"bazaar/internal/domain/entity"
	"bazaar/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// cartView is the cart plus its derived totals, computed per response so the
// rendering layer never does money math.
type cartView struct {
	Cart            entity.Cart `json:"cart"`
	TotalItems      int         `json:"total_items"`
	TotalPriceCents int64       `json:"total_price"`
}

// CartHandler holds dependencies for cart-related handlers.
type CartHandler struct {
	uc     usecase.CartUsecase
	logger *slog.Logger
}

// NewCartHandler is the constructor for CartHandler, injected by Fx.
func NewCartHandler(uc usecase.CartUsecase, logger *slog.Logger) *CartHandler {
	return &CartHandler{
		uc:     uc,
		logger: logger,
	}
}

// view derives both totals from one cart copy, so a response never pairs an
// item list with totals from a different state.
func (h *CartHandler) view() cartView {
	cart := h.uc.Cart()

	return cartView{
		Cart:            cart,
		TotalItems:      cart.TotalItems(),
		TotalPriceCents: cart.TotalPriceCents(),
	}
}

// GetCart returns the cart contents and derived totals.
func (h *CartHandler) GetCart(c echo.Context) error {
	return response.Success(c, http.StatusOK, h.view(), "Cart retrieved successfully")
}

// AddItem adds a product snapshot to the cart.
func (h *CartHandler) AddItem(c echo.Context) error {
	// The binder leaves the pointer nil on an empty body, so the nil check
	// is part of input validation.
	var input *usecase.AddItemInput
	if err := c.Bind(&input); err != nil || input == nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid cart item input")
	}
	if err := c.Validate(input); err != nil {
		return errors.WithStack(err)
	}

	h.uc.AddItem(c.Request().Context(), input.Product, input.Variant, input.Quantity)

	return response.Success(c, http.StatusOK, h.view(), "Item added to cart")
}

// UpdateQuantity replaces an item's quantity; zero or below removes it.
func (h *CartHandler) UpdateQuantity(c echo.Context) error {
	itemID := c.Param("id")
	if itemID == "" {
		return response.BadRequest(c, "INVALID_INPUT", "Missing cart item id")
	}

	var input *usecase.UpdateQuantityInput
	if err := c.Bind(&input); err != nil || input == nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid quantity input")
	}

	h.uc.UpdateQuantity(c.Request().Context(), itemID, input.Quantity)

	return response.Success(c, http.StatusOK, h.view(), "Quantity updated")
}

// RemoveItem removes a cart row unconditionally.
func (h *CartHandler) RemoveItem(c echo.Context) error {
	itemID := c.Param("id")
	if itemID == "" {
		return response.BadRequest(c, "INVALID_INPUT", "Missing cart item id")
	}

	h.uc.RemoveItem(c.Request().Context(), itemID)

	return response.Success(c, http.StatusOK, h.view(), "Item removed from cart")
}

// ClearCart empties the cart.
func (h *CartHandler) ClearCart(c echo.Context) error {
	h.uc.ClearCart(c.Request().Context())

	return response.Success(c, http.StatusOK, h.view(), "Cart cleared")
}

// ToggleCart flips the transient visibility flag.
func (h *CartHandler) ToggleCart(c echo.Context) error {
	h.uc.ToggleCart()

	return response.Success(c, http.StatusOK, h.view(), "Cart visibility toggled")
}
