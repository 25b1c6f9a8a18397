package impl

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bazaar/internal/domain/entity"
	"bazaar/internal/domain/service"
	"bazaar/internal/infra/eventbus"
	"bazaar/internal/infra/persistence/snapshot"
)

func TestCartStoreAddItem(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("same product and variant merges into one row", func(t *testing.T) {
		t.Parallel()

		store, _ := newTestCartStore(t)
		product := testProduct("Olive Oil", 50)

		store.AddItem(ctx, product, nil, 1)
		store.AddItem(ctx, product, nil, 2)

		cart := store.Cart()
		require.Len(t, cart.Items, 1)
		assert.Equal(t, 3, cart.Items[0].Quantity)
		assert.Equal(t, 3, store.TotalItems())
		assert.Equal(t, int64(150), store.TotalPriceCents())
	})

	t.Run("different variants of one product stay separate rows", func(t *testing.T) {
		t.Parallel()

		store, _ := newTestCartStore(t)
		product := testProduct("T-Shirt", 1000)
		small := &entity.ProductVariant{ID: uuid.New(), Name: "S"}
		large := &entity.ProductVariant{ID: uuid.New(), Name: "L", PriceAdjustmentCents: 200}

		store.AddItem(ctx, product, small, 1)
		store.AddItem(ctx, product, large, 1)

		cart := store.Cart()
		require.Len(t, cart.Items, 2)
		assert.Equal(t, int64(2200), store.TotalPriceCents())
	})

	t.Run("non-positive quantity is clamped to one", func(t *testing.T) {
		t.Parallel()

		store, _ := newTestCartStore(t)

		store.AddItem(ctx, testProduct("Bread", 30), nil, 0)

		cart := store.Cart()
		require.Len(t, cart.Items, 1)
		assert.Equal(t, 1, cart.Items[0].Quantity)
	})
}

func TestCartStoreUpdateQuantity(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("positive quantity replaces the row quantity", func(t *testing.T) {
		t.Parallel()

		store, _ := newTestCartStore(t)
		product := testProduct("Milk", 25)
		store.AddItem(ctx, product, nil, 2)

		store.UpdateQuantity(ctx, entity.CartItemID(product.ID, nil), 5)

		assert.Equal(t, 5, store.TotalItems())
		assert.Equal(t, int64(125), store.TotalPriceCents())
	})

	t.Run("zero or below removes the row", func(t *testing.T) {
		t.Parallel()

		store, _ := newTestCartStore(t)
		product := testProduct("Milk", 25)
		store.AddItem(ctx, product, nil, 3)

		store.UpdateQuantity(ctx, entity.CartItemID(product.ID, nil), 0)

		assert.Empty(t, store.Cart().Items)
		assert.Zero(t, store.TotalItems())
		assert.Zero(t, store.TotalPriceCents())
	})

	t.Run("unknown item id is a no-op", func(t *testing.T) {
		t.Parallel()

		store, _ := newTestCartStore(t)
		store.AddItem(ctx, testProduct("Milk", 25), nil, 1)

		store.UpdateQuantity(ctx, "missing:default", 7)

		assert.Equal(t, 1, store.TotalItems())
	})
}

func TestCartStoreRemoveAndClear(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store, snapshots := newTestCartStore(t)
	first := testProduct("Apples", 40)
	second := testProduct("Pears", 60)

	store.AddItem(ctx, first, nil, 2)
	store.AddItem(ctx, second, nil, 1)

	store.RemoveItem(ctx, entity.CartItemID(first.ID, nil))
	cart := store.Cart()
	require.Len(t, cart.Items, 1)
	assert.Equal(t, second.ID, cart.Items[0].Product.ID)

	store.ClearCart(ctx)
	assert.Empty(t, store.Cart().Items)

	// The persisted snapshot mirrors the cleared state.
	data, err := snapshots.Load(ctx, service.SnapshotKeyCart)
	require.NoError(t, err)
	restored, err := unmarshalCartSnapshot(data)
	require.NoError(t, err)
	assert.Empty(t, restored.Items)
}

func TestCartStoreToggleNotPersisted(t *testing.T) {
	t.Parallel()

	store, snapshots := newTestCartStore(t)

	store.ToggleCart()
	assert.True(t, store.Cart().IsOpen)

	// Visibility is transient: toggling alone writes nothing.
	_, err := snapshots.Load(context.Background(), service.SnapshotKeyCart)
	assert.ErrorIs(t, err, service.ErrSnapshotNotFound)

	store.SetCartOpen(false)
	assert.False(t, store.Cart().IsOpen)
}

func TestCartStoreRehydrate(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("restores items from a previous run", func(t *testing.T) {
		t.Parallel()

		logger := newDiscardLogger()
		snapshots := snapshot.NewMemory(logger)
		bus := eventbus.New(eventbus.Params{Logger: logger})

		previous := NewCartStore(CartStoreParams{Snapshots: snapshots, Bus: bus, Logger: logger})
		previous.AddItem(ctx, testProduct("Coffee", 85), nil, 2)

		next := NewCartStore(CartStoreParams{Snapshots: snapshots, Bus: bus, Logger: logger})
		require.NoError(t, next.Rehydrate(ctx))

		assert.Equal(t, 2, next.TotalItems())
		assert.Equal(t, int64(170), next.TotalPriceCents())
		assert.False(t, next.Cart().IsOpen)
	})

	t.Run("missing snapshot yields the empty cart", func(t *testing.T) {
		t.Parallel()

		store, _ := newTestCartStore(t)
		require.NoError(t, store.Rehydrate(ctx))
		assert.Empty(t, store.Cart().Items)
	})

	t.Run("malformed snapshot yields the empty cart", func(t *testing.T) {
		t.Parallel()

		logger := newDiscardLogger()
		snapshots := snapshot.NewMemory(logger)
		require.NoError(t, snapshots.Save(ctx, service.SnapshotKeyCart, []byte("{not json")))

		store := NewCartStore(CartStoreParams{
			Snapshots: snapshots,
			Bus:       eventbus.New(eventbus.Params{Logger: logger}),
			Logger:    logger,
		})
		require.NoError(t, store.Rehydrate(ctx))
		assert.Empty(t, store.Cart().Items)
	})
}

func TestCartStorePublishesChanges(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	logger := newDiscardLogger()
	bus := eventbus.New(eventbus.Params{Logger: logger})
	store := NewCartStore(CartStoreParams{
		Snapshots: snapshot.NewMemory(logger),
		Bus:       bus,
		Logger:    logger,
	})

	events, cancel := bus.Subscribe(service.TopicCartChanged)
	defer cancel()

	store.AddItem(ctx, testProduct("Tea", 45), nil, 1)

	event := <-events
	cart, ok := event.Payload.(entity.Cart)
	require.True(t, ok)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, "Tea", cart.Items[0].Product.Name)
}

func TestCartStoreReturnsCopies(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store, _ := newTestCartStore(t)
	store.AddItem(ctx, testProduct("Honey", 120), nil, 1)

	copied := store.Cart()
	copied.Items[0].Quantity = 99

	assert.Equal(t, 1, store.TotalItems())
}
