// Package entity contains the core business objects of the project.
package entity

import (
	"time"

	"github.com/google/uuid"
)

// cartItemDefaultVariant is the variant segment of a cart item key when the
// product was added without a variant.
const cartItemDefaultVariant = "default"

// Product carries the slice of catalog data the cart needs to identify an
// item and price it. Prices are integer cents to keep totals exact.
type Product struct {
	ID              uuid.UUID `json:"id"`          // The unique identifier of the product.
	ShopID          uuid.UUID `json:"shop_id"`     // The shop this product belongs to.
	Name            string    `json:"name"`        // The product's display name.
	ImageURL        string    `json:"image"`       // URL of the primary product image.
	PriceCents      int64     `json:"price"`       // Base unit price in cents.
	PromoPriceCents *int64    `json:"promo_price"` // Promotional unit price in cents, nil when no promotion runs.
}

// ProductVariant is a concrete purchasable variation of a product, such as
// a size or color, with a price adjustment relative to the base price.
type ProductVariant struct {
	ID                   uuid.UUID `json:"id"`               // The unique identifier of the variant.
	Name                 string    `json:"name"`             // The variant's display name, e.g. "XL".
	PriceAdjustmentCents int64     `json:"price_adjustment"` // Signed adjustment applied on top of the unit price, in cents.
}

// CartItem is one row of the cart. Its ID is the composite deduplication
// key derived from the product and variant; identity is immutable after
// creation and only Quantity may change.
type CartItem struct {
	ID       string          `json:"id"`       // Composite key, see CartItemID.
	Product  Product         `json:"product"`  // Snapshot of the product at the time it was added.
	Variant  *ProductVariant `json:"variant"`  // The selected variant, nil when none.
	Quantity int             `json:"quantity"` // Always >= 1; a zero-or-below update removes the item instead.
	AddedAt  time.Time       `json:"addedAt"`  // When the item first entered the cart.
}

// CartItemID computes the composite key for a product/variant combination.
// Adding the same combination again merges quantities instead of appending
// a duplicate row.
func CartItemID(productID uuid.UUID, variant *ProductVariant) string {
	variantKey := cartItemDefaultVariant
	if variant != nil {
		variantKey = variant.ID.String()
	}

	return productID.String() + ":" + variantKey
}

// EffectivePriceCents is the per-unit price used for totals: the
// promotional price when present and lower than the base price, plus the
// variant adjustment when a variant is attached.
func (i CartItem) EffectivePriceCents() int64 {
	price := i.Product.PriceCents
	if promo := i.Product.PromoPriceCents; promo != nil && *promo < price {
		price = *promo
	}
	if i.Variant != nil {
		price += i.Variant.PriceAdjustmentCents
	}

	return price
}

// SubtotalCents is the line total for this item.
func (i CartItem) SubtotalCents() int64 {
	return i.EffectivePriceCents() * int64(i.Quantity)
}

// Cart holds the shopping cart contents. Items keep insertion order for
// display. IsOpen is a transient UI flag and is never persisted.
type Cart struct {
	Items  []CartItem `json:"items"`
	IsOpen bool       `json:"-"`
}

// TotalItems is the sum of all quantities. It is recomputed on every call;
// totals are never maintained as separate mutable state, so they cannot
// drift from Items.
func (c Cart) TotalItems() int {
	total := 0
	for _, item := range c.Items {
		total += item.Quantity
	}

	return total
}

// TotalPriceCents is the sum of line subtotals over all items.
func (c Cart) TotalPriceCents() int64 {
	var total int64
	for _, item := range c.Items {
		total += item.SubtotalCents()
	}

	return total
}
