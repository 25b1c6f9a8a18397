package impl

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.uber.org/fx"

	deliverycontext "bazaar/internal/delivery/context"
	"bazaar/internal/domain/entity"
	"bazaar/internal/domain/service"
	"bazaar/internal/errors"
	"bazaar/internal/usecase"
)

// cartStore implements the CartUsecase interface. All mutations run under
// one mutex, so each operation is atomic; derived totals are computed from
// the item list on every read and never cached.
type cartStore struct {
	snapshots service.SnapshotStore
	bus       service.EventBus
	logger    *slog.Logger

	mu   sync.Mutex
	cart entity.Cart
}

// CartStoreParams holds dependencies for the cart store, injected by Fx.
type CartStoreParams struct {
	fx.In

	Snapshots service.SnapshotStore
	Bus       service.EventBus
	Logger    *slog.Logger
}

// NewCartStore is the constructor for cartStore.
func NewCartStore(params CartStoreParams) usecase.CartUsecase {
	return &cartStore{
		snapshots: params.Snapshots,
		bus:       params.Bus,
		logger:    params.Logger,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the store's logger.
func (s *cartStore) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, s.logger)
}

// Rehydrate loads the persisted cart snapshot. Absent or malformed
// snapshots yield the empty cart rather than an error: a cart the user can
// keep shopping with beats a startup failure.
func (s *cartStore) Rehydrate(ctx context.Context) error {
	data, err := s.snapshots.Load(ctx, service.SnapshotKeyCart)
	if err != nil {
		if !errors.Is(err, service.ErrSnapshotNotFound) {
			s.log(ctx).Warn("Failed to load cart snapshot, starting empty", slog.Any("error", err))
		}

		return nil
	}

	cart, err := unmarshalCartSnapshot(data)
	if err != nil {
		s.log(ctx).Warn("Malformed cart snapshot, starting empty", slog.Any("error", err))

		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cart.Items = cart.Items
	s.log(ctx).Debug("Cart rehydrated", slog.Int("items", len(cart.Items)))

	return nil
}

// AddItem merges by composite key: the same product/variant combination
// grows the existing row instead of appending a duplicate.
func (s *cartStore) AddItem(ctx context.Context, product entity.Product, variant *entity.ProductVariant, quantity int) {
	if quantity < 1 {
		quantity = 1
	}
	itemID := entity.CartItemID(product.ID, variant)

	s.mu.Lock()
	defer s.mu.Unlock()

	merged := false
	for i := range s.cart.Items {
		if s.cart.Items[i].ID == itemID {
			s.cart.Items[i].Quantity += quantity
			merged = true

			break
		}
	}
	if !merged {
		s.cart.Items = append(s.cart.Items, entity.CartItem{
			ID:       itemID,
			Product:  product,
			Variant:  variant,
			Quantity: quantity,
			AddedAt:  time.Now(),
		})
	}

	s.log(ctx).Debug("Cart item added", slog.String("item_id", itemID), slog.Int("quantity", quantity), slog.Bool("merged", merged))
	s.persistLocked(ctx)
	s.publishLocked()
}

// RemoveItem removes unconditionally; a missing id is a no-op, not an error.
func (s *cartStore) RemoveItem(ctx context.Context, itemID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeItemLocked(ctx, itemID)
}

func (s *cartStore) removeItemLocked(ctx context.Context, itemID string) {
	for i := range s.cart.Items {
		if s.cart.Items[i].ID != itemID {
			continue
		}
		s.cart.Items = append(s.cart.Items[:i], s.cart.Items[i+1:]...)
		if len(s.cart.Items) == 0 {
			s.cart.Items = nil
		}

		s.log(ctx).Debug("Cart item removed", slog.String("item_id", itemID))
		s.persistLocked(ctx)
		s.publishLocked()

		return
	}
}

// UpdateQuantity enforces the quantity floor: zero or below delegates to
// removal, so a non-positive quantity is never stored.
func (s *cartStore) UpdateQuantity(ctx context.Context, itemID string, quantity int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if quantity <= 0 {
		s.removeItemLocked(ctx, itemID)

		return
	}

	for i := range s.cart.Items {
		if s.cart.Items[i].ID != itemID {
			continue
		}
		s.cart.Items[i].Quantity = quantity

		s.log(ctx).Debug("Cart quantity updated", slog.String("item_id", itemID), slog.Int("quantity", quantity))
		s.persistLocked(ctx)
		s.publishLocked()

		return
	}
}

// ClearCart empties the cart. Idempotent.
func (s *cartStore) ClearCart(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cart.Items = nil
	s.log(ctx).Debug("Cart cleared")
	s.persistLocked(ctx)
	s.publishLocked()
}

// ToggleCart flips the visibility flag only. The flag is outside the
// persistence whitelist, so no snapshot write happens here.
func (s *cartStore) ToggleCart() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cart.IsOpen = !s.cart.IsOpen
}

// SetCartOpen sets the visibility flag directly.
func (s *cartStore) SetCartOpen(open bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cart.IsOpen = open
}

// Cart returns a copy of the current state.
func (s *cartStore) Cart() entity.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.snapshotLocked()
}

// TotalItems derives the item count from the current items.
func (s *cartStore) TotalItems() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.cart.TotalItems()
}

// TotalPriceCents derives the total price from the current items.
func (s *cartStore) TotalPriceCents() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.cart.TotalPriceCents()
}

// snapshotLocked copies the cart so callers cannot alias internal state.
func (s *cartStore) snapshotLocked() entity.Cart {
	copied := entity.Cart{IsOpen: s.cart.IsOpen}
	if len(s.cart.Items) > 0 {
		copied.Items = make([]entity.CartItem, len(s.cart.Items))
		copy(copied.Items, s.cart.Items)
	}

	return copied
}

// persistLocked mirrors the items into the snapshot store within the same
// locked mutation. Write failures are diagnostics only; the in-memory cart
// wins and the next mutation overwrites the snapshot.
func (s *cartStore) persistLocked(ctx context.Context) {
	data, err := marshalCartSnapshot(s.cart)
	if err != nil {
		s.log(ctx).Warn("Failed to marshal cart snapshot", slog.Any("error", err))

		return
	}
	if err := s.snapshots.Save(ctx, service.SnapshotKeyCart, data); err != nil {
		s.log(ctx).Warn("Failed to persist cart snapshot", slog.Any("error", err))
	}
}

func (s *cartStore) publishLocked() {
	s.bus.Publish(service.TopicCartChanged, s.snapshotLocked())
}
