package impl

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"

	"bazaar/internal/domain/entity"
	"bazaar/internal/domain/service"
	"bazaar/internal/errors"
	"bazaar/internal/infra/eventbus"
	"bazaar/internal/infra/persistence/snapshot"
	"bazaar/internal/usecase"
)

func newDiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeMarketAPI is a function-field test double. Unset fields fail the call,
// so each test only wires the endpoints it expects to be hit.
type fakeMarketAPI struct {
	LoginFn             func(ctx context.Context, identifier, password string) (*service.AuthResult, error)
	OAuthLoginFn        func(ctx context.Context, provider entity.Provider, token string, role entity.Role) (*service.OAuthResult, error)
	RegisterFn          func(ctx context.Context, payload *service.RegisterPayload) (*service.AuthResult, error)
	RegisterShopOwnerFn func(ctx context.Context, payload *service.ShopOwnerPayload) (*service.AuthResult, error)
	LogoutFn            func(ctx context.Context, refreshToken string) error
	GetProfileFn        func(ctx context.Context, accessToken string) (*service.ProfileResult, error)
	GetMyShopsFn        func(ctx context.Context, accessToken string) ([]entity.Shop, error)

	profileCalls int
}

func (f *fakeMarketAPI) Login(ctx context.Context, identifier, password string) (*service.AuthResult, error) {
	if f.LoginFn == nil {
		return nil, errors.New("unexpected Login call")
	}

	return f.LoginFn(ctx, identifier, password)
}

func (f *fakeMarketAPI) OAuthLogin(ctx context.Context, provider entity.Provider, token string, role entity.Role) (*service.OAuthResult, error) {
	if f.OAuthLoginFn == nil {
		return nil, errors.New("unexpected OAuthLogin call")
	}

	return f.OAuthLoginFn(ctx, provider, token, role)
}

func (f *fakeMarketAPI) Register(ctx context.Context, payload *service.RegisterPayload) (*service.AuthResult, error) {
	if f.RegisterFn == nil {
		return nil, errors.New("unexpected Register call")
	}

	return f.RegisterFn(ctx, payload)
}

func (f *fakeMarketAPI) RegisterShopOwner(ctx context.Context, payload *service.ShopOwnerPayload) (*service.AuthResult, error) {
	if f.RegisterShopOwnerFn == nil {
		return nil, errors.New("unexpected RegisterShopOwner call")
	}

	return f.RegisterShopOwnerFn(ctx, payload)
}

func (f *fakeMarketAPI) Logout(ctx context.Context, refreshToken string) error {
	if f.LogoutFn == nil {
		return nil
	}

	return f.LogoutFn(ctx, refreshToken)
}

func (f *fakeMarketAPI) GetProfile(ctx context.Context, accessToken string) (*service.ProfileResult, error) {
	f.profileCalls++
	if f.GetProfileFn == nil {
		return nil, errors.New("unexpected GetProfile call")
	}

	return f.GetProfileFn(ctx, accessToken)
}

func (f *fakeMarketAPI) GetMyShops(ctx context.Context, accessToken string) ([]entity.Shop, error) {
	if f.GetMyShopsFn == nil {
		return nil, errors.New("unexpected GetMyShops call")
	}

	return f.GetMyShopsFn(ctx, accessToken)
}

type fakeQRService struct {
	GenerateFn func(shop entity.Shop) ([]byte, error)
}

func (f *fakeQRService) GenerateShopQR(shop entity.Shop) ([]byte, error) {
	if f.GenerateFn == nil {
		return []byte("png"), nil
	}

	return f.GenerateFn(shop)
}

func (f *fakeQRService) ParseShopQR(qrData string) (uuid.UUID, error) {
	return uuid.Nil, errors.New("unexpected ParseShopQR call")
}

// --- fixtures ---

func newTestSessionStore(t *testing.T, api service.MarketAPI) (usecase.SessionUsecase, service.SnapshotStore) {
	t.Helper()

	logger := newDiscardLogger()
	snapshots := snapshot.NewMemory(logger)
	store := NewSessionStore(SessionStoreParams{
		API:       api,
		Snapshots: snapshots,
		Bus:       eventbus.New(eventbus.Params{Logger: logger}),
		QRCode:    &fakeQRService{},
		Logger:    logger,
	})

	return store, snapshots
}

func newTestCartStore(t *testing.T) (usecase.CartUsecase, service.SnapshotStore) {
	t.Helper()

	logger := newDiscardLogger()
	snapshots := snapshot.NewMemory(logger)
	store := NewCartStore(CartStoreParams{
		Snapshots: snapshots,
		Bus:       eventbus.New(eventbus.Params{Logger: logger}),
		Logger:    logger,
	})

	return store, snapshots
}

func customerAuthResult() *service.AuthResult {
	id := uuid.New()

	return &service.AuthResult{
		AccessToken:  "access-token",
		RefreshToken: "refresh-token",
		User:         &entity.User{ID: id, Username: "alice", Email: "alice@example.com"},
		Profile:      &entity.UserProfile{UserID: id},
	}
}

func shopOwnerAuthResult() *service.AuthResult {
	id := uuid.New()
	shop := entity.Shop{ID: uuid.New(), OwnerID: id, Name: "Corner Grocer", Slug: "corner-grocer"}

	return &service.AuthResult{
		AccessToken:  "owner-access",
		RefreshToken: "owner-refresh",
		User:         &entity.User{ID: id, Username: "bob", IsShopOwner: true},
		Profile:      &entity.UserProfile{UserID: id, IsShopOwner: true},
		Shop:         &shop,
	}
}

func testProduct(name string, priceCents int64) entity.Product {
	return entity.Product{
		ID:         uuid.New(),
		Name:       name,
		PriceCents: priceCents,
	}
}
