package usecase

import (
	"context"

	"bazaar/internal/domain/entity"
)

// AddItemInput defines the data required to add a product to the cart. The
// rendering layer supplies the product snapshot it already holds; the cart
// performs no catalog lookups of its own.
type AddItemInput struct {
	Product  entity.Product         `json:"product" validate:"required"`
	Variant  *entity.ProductVariant `json:"variant"`
	Quantity int                    `json:"quantity"`
}

// UpdateQuantityInput defines the data for a quantity update.
type UpdateQuantityInput struct {
	Quantity int `json:"quantity"`
}

// CartUsecase is the cart store: the owner of cart contents and derived
// totals. Operations are total functions over in-memory state; the only
// side effect is mirroring mutations into the persisted snapshot. All
// methods are safe for concurrent use.
type CartUsecase interface {
	// Rehydrate loads the persisted cart snapshot once at process start.
	// An absent or malformed snapshot yields the empty cart.
	Rehydrate(ctx context.Context) error

	// AddItem merges the product/variant combination into the cart:
	// an existing row's quantity grows, a new combination appends a row.
	// Quantities below one are normalized to one.
	AddItem(ctx context.Context, product entity.Product, variant *entity.ProductVariant, quantity int)

	// RemoveItem removes a row unconditionally. A missing id is a no-op.
	RemoveItem(ctx context.Context, itemID string)

	// UpdateQuantity replaces a row's quantity. Zero or below removes the
	// row instead; the cart never holds a non-positive quantity.
	UpdateQuantity(ctx context.Context, itemID string, quantity int)

	// ClearCart empties the cart. Idempotent.
	ClearCart(ctx context.Context)

	// ToggleCart flips the transient visibility flag. No data impact and
	// no snapshot write.
	ToggleCart()

	// SetCartOpen sets the transient visibility flag directly.
	SetCartOpen(open bool)

	// Cart returns a copy of the current cart state.
	Cart() entity.Cart

	// TotalItems is the sum of quantities, derived on every call.
	TotalItems() int

	// TotalPriceCents is the derived total over effective prices.
	TotalPriceCents() int64
}
