package impl

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/fx"

	deliverycontext "bazaar/internal/delivery/context"
	"bazaar/internal/domain/entity"
	domainerrors "bazaar/internal/domain/errors"
	"bazaar/internal/domain/service"
	"bazaar/internal/errors"
	"bazaar/internal/usecase"
)

// sessionStore implements the SessionUsecase interface.
//
// The store is mutex-guarded, so the synchronous portion of every operation
// is atomic. Operations that cross a network boundary are not atomic across
// the await; overlapping attempts are resolved with a monotonic attempt
// counter: an attempt records the counter when it starts, and its response
// commits only if no later attempt or logout has bumped the counter since.
// A stale response is discarded instead of resurrecting cleared state.
type sessionStore struct {
	api       service.MarketAPI
	snapshots service.SnapshotStore
	bus       service.EventBus
	qr        service.QRCodeService
	logger    *slog.Logger

	mu      sync.Mutex
	session entity.Session
	attempt uint64
}

// SessionStoreParams holds dependencies for the session store, injected by Fx.
type SessionStoreParams struct {
	fx.In

	API       service.MarketAPI
	Snapshots service.SnapshotStore
	Bus       service.EventBus
	QRCode    service.QRCodeService
	Logger    *slog.Logger
}

// NewSessionStore is the constructor for sessionStore.
func NewSessionStore(params SessionStoreParams) usecase.SessionUsecase {
	return &sessionStore{
		api:       params.API,
		snapshots: params.Snapshots,
		bus:       params.Bus,
		qr:        params.QRCode,
		logger:    params.Logger,
		session:   entity.Session{Role: entity.RoleCustomer},
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the store's logger.
func (s *sessionStore) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, s.logger)
}

// Rehydrate loads the persisted session snapshot once at process start.
// Absent or malformed snapshots yield the empty anonymous session.
func (s *sessionStore) Rehydrate(ctx context.Context) error {
	data, err := s.snapshots.Load(ctx, service.SnapshotKeySession)
	if err != nil {
		if !errors.Is(err, service.ErrSnapshotNotFound) {
			s.log(ctx).Warn("Failed to load session snapshot, starting anonymous", slog.Any("error", err))
		}

		return nil
	}

	session, err := unmarshalSessionSnapshot(data)
	if err != nil {
		s.log(ctx).Warn("Malformed session snapshot, starting anonymous", slog.Any("error", err))

		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = session
	s.log(ctx).Debug("Session rehydrated",
		slog.Bool("authenticated", session.IsAuthenticated),
		slog.String("role", session.Role.String()))

	return nil
}

// CheckAuth silently verifies persisted tokens at startup. This is the sole
// path by which an expired or revoked token is detected and purged.
func (s *sessionStore) CheckAuth(ctx context.Context) error {
	s.mu.Lock()
	if !s.session.HasTokens() {
		s.session.IsAuthenticated = false
		s.mu.Unlock()
		s.log(ctx).Debug("No persisted tokens, staying anonymous")

		return nil
	}
	attempt := s.beginAttemptLocked()
	accessToken := s.session.AccessToken
	s.mu.Unlock()

	result, err := s.api.GetProfile(ctx, accessToken)
	if err != nil {
		// Expected condition: the session is simply no longer valid.
		s.log(ctx).Info("Silent verification failed, clearing session", slog.Any("error", err))
		s.clearIfCurrent(ctx, attempt)

		return nil
	}

	// Never trust the stale local profile over the fresh server response.
	shops := s.fetchShops(ctx, accessToken, result.Profile, result.Shop)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.attempt != attempt {
		s.log(ctx).Debug("Discarding stale verification response")

		return nil
	}

	s.session.User = result.User
	s.session.Profile = result.Profile
	s.session.Shops = shops
	s.session.ActiveShop = pickActiveShop(s.session.ActiveShop, shops)
	s.session.IsAuthenticated = true
	s.session.IsLoading = false
	s.session.Role = entity.RoleForProfile(result.Profile)
	s.persistLocked(ctx)
	s.publishLocked()
	s.log(ctx).Info("Session verified", slog.String("role", s.session.Role.String()))

	return nil
}

// Login authenticates with credentials. A failed login leaves any existing
// authenticated state untouched and returns the error for the caller to
// display.
func (s *sessionStore) Login(ctx context.Context, input *usecase.LoginInput) (*entity.Session, error) {
	s.log(ctx).Debug("Starting login", slog.String("identifier", input.Identifier))

	attempt := s.beginAttempt()

	result, err := s.api.Login(ctx, input.Identifier, input.Password)
	if err != nil {
		s.failAttempt(attempt)
		s.log(ctx).Warn("Login failed", slog.String("identifier", input.Identifier), slog.Any("error", err))

		return nil, errors.Wrap(err, "login failed")
	}

	session, ok := s.commitAuth(ctx, attempt, result, entity.RoleForProfile(result.Profile))
	if !ok {
		return nil, errors.Wrap(domainerrors.ErrAttemptSuperseded, "login superseded")
	}
	s.log(ctx).Info("Login succeeded", slog.String("role", session.Role.String()))

	return &session, nil
}

// LoginWithOAuth authenticates with a provider token. The intended role is
// forwarded to the backend as a hint only; the committed role still derives
// from the returned profile.
func (s *sessionStore) LoginWithOAuth(ctx context.Context, input *usecase.OAuthLoginInput) (*usecase.OAuthLoginOutput, error) {
	s.log(ctx).Debug("Starting OAuth login", slog.String("provider", input.Provider.String()))

	attempt := s.beginAttempt()

	result, err := s.api.OAuthLogin(ctx, input.Provider, input.Token, input.IntendedRole)
	if err != nil {
		s.failAttempt(attempt)
		s.log(ctx).Warn("OAuth login failed", slog.String("provider", input.Provider.String()), slog.Any("error", err))

		return nil, errors.Wrap(err, "oauth login failed")
	}

	session, ok := s.commitAuth(ctx, attempt, &result.AuthResult, entity.RoleForProfile(result.Profile))
	if !ok {
		return nil, errors.Wrap(domainerrors.ErrAttemptSuperseded, "oauth login superseded")
	}
	s.log(ctx).Info("OAuth login succeeded",
		slog.String("provider", input.Provider.String()),
		slog.Bool("is_new_user", result.IsNewUser))

	return &usecase.OAuthLoginOutput{
		Session:        session,
		IsNewUser:      result.IsNewUser,
		NeedsShopSetup: result.NeedsShopSetup,
	}, nil
}

// Register creates a customer account. The committed role is fixed by the
// registration path, since the fresh profile may not yet reflect it.
func (s *sessionStore) Register(ctx context.Context, input *usecase.RegisterInput) (*entity.Session, error) {
	s.log(ctx).Debug("Starting registration", slog.String("username", input.Username))

	attempt := s.beginAttempt()

	result, err := s.api.Register(ctx, &service.RegisterPayload{
		Username:    input.Username,
		Email:       input.Email,
		Password:    input.Password,
		DisplayName: input.DisplayName,
	})
	if err != nil {
		s.failAttempt(attempt)
		s.log(ctx).Warn("Registration failed", slog.String("username", input.Username), slog.Any("error", err))

		return nil, errors.Wrap(err, "registration failed")
	}

	session, ok := s.commitAuth(ctx, attempt, result, entity.RoleCustomer)
	if !ok {
		return nil, errors.Wrap(domainerrors.ErrAttemptSuperseded, "registration superseded")
	}
	s.log(ctx).Info("Registration succeeded", slog.String("username", input.Username))

	return &session, nil
}

// RegisterShopOwner creates a shop-owner account with its first shop.
func (s *sessionStore) RegisterShopOwner(ctx context.Context, input *usecase.RegisterShopOwnerInput) (*entity.Session, error) {
	s.log(ctx).Debug("Starting shop-owner registration", slog.String("username", input.Username))

	attempt := s.beginAttempt()

	result, err := s.api.RegisterShopOwner(ctx, &service.ShopOwnerPayload{
		RegisterPayload: service.RegisterPayload{
			Username:    input.Username,
			Email:       input.Email,
			Password:    input.Password,
			DisplayName: input.DisplayName,
		},
		ShopName:        input.ShopName,
		ShopDescription: input.ShopDescription,
	})
	if err != nil {
		s.failAttempt(attempt)
		s.log(ctx).Warn("Shop-owner registration failed", slog.String("username", input.Username), slog.Any("error", err))

		return nil, errors.Wrap(err, "shop owner registration failed")
	}

	session, ok := s.commitAuth(ctx, attempt, result, entity.RoleShopOwner)
	if !ok {
		return nil, errors.Wrap(domainerrors.ErrAttemptSuperseded, "shop owner registration superseded")
	}
	s.log(ctx).Info("Shop-owner registration succeeded", slog.String("username", input.Username))

	return &session, nil
}

// Logout invalidates the session server-side on a best-effort basis, then
// clears in-memory and persisted state in one atomic step. The user must
// never appear stuck logged in because the server call failed. The clear
// itself obeys the attempt ordering: a login that starts and commits while
// the backend logout is in flight is newer and keeps its session.
func (s *sessionStore) Logout(ctx context.Context) error {
	s.mu.Lock()
	refreshToken := s.session.RefreshToken
	// Bumping the counter here supersedes any in-flight login so its late
	// response cannot repopulate the session after this clear.
	s.attempt++
	attempt := s.attempt
	s.mu.Unlock()

	if refreshToken != "" {
		if err := s.api.Logout(ctx, refreshToken); err != nil {
			s.log(ctx).Warn("Backend logout failed, clearing locally anyway", slog.Any("error", err))
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.attempt != attempt {
		s.log(ctx).Debug("Skipping logout clear, a newer authentication attempt committed")

		return nil
	}
	s.clearLocked(ctx)
	s.log(ctx).Info("Logged out")

	return nil
}

// Session returns a copy of the current state.
func (s *sessionStore) Session() entity.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.snapshotLocked()
}

// SetUser replaces identity data validated elsewhere. Supplying a profile
// recomputes the role; the derivation invariant is preserved on every path
// that touches the profile.
func (s *sessionStore) SetUser(ctx context.Context, user *entity.User, profile *entity.UserProfile, shops ...entity.Shop) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.session.User = user
	if profile != nil {
		s.session.Profile = profile
		s.session.Role = entity.RoleForProfile(profile)
	}
	if len(shops) > 0 {
		s.session.Shops = shops
		s.session.ActiveShop = pickActiveShop(s.session.ActiveShop, shops)
	}
	s.persistLocked(ctx)
	s.publishLocked()
}

// SetTokens replaces the token pair and mirrors it into the snapshot in the
// same step, so persisted and in-memory tokens never disagree beyond this
// synchronous update.
func (s *sessionStore) SetTokens(ctx context.Context, accessToken, refreshToken string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.session.AccessToken = accessToken
	s.session.RefreshToken = refreshToken
	s.session.IsAuthenticated = s.session.HasTokens()
	s.persistLocked(ctx)
	s.publishLocked()
}

// UpdateRole overrides the role for flows holding out-of-band knowledge.
func (s *sessionStore) UpdateRole(ctx context.Context, role entity.Role) {
	if !role.IsValid() {
		s.log(ctx).Warn("Ignoring invalid role update", slog.String("role", role.String()))

		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.session.Role = role
	s.persistLocked(ctx)
	s.publishLocked()
}

// SetActiveShop selects one of the owned shops for management operations.
func (s *sessionStore) SetActiveShop(ctx context.Context, shopID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	shop := s.session.ShopByID(shopID)
	if shop == nil {
		return errors.Wrap(domainerrors.ErrShopNotFound, "cannot activate shop")
	}

	s.session.ActiveShop = shop
	s.persistLocked(ctx)
	s.publishLocked()
	s.log(ctx).Debug("Active shop changed", slog.String("shop_id", shopID.String()))

	return nil
}

// ShopShareQR renders a QR code for the active shop's public page.
func (s *sessionStore) ShopShareQR() ([]byte, error) {
	s.mu.Lock()
	activeShop := s.session.ActiveShop
	s.mu.Unlock()

	if activeShop == nil {
		return nil, errors.WithStack(domainerrors.ErrNoActiveShop)
	}

	png, err := s.qr.GenerateShopQR(*activeShop)
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate shop QR")
	}

	return png, nil
}

// --- attempt bookkeeping ---

// beginAttempt marks the start of an authentication attempt and raises the
// loading flag.
func (s *sessionStore) beginAttempt() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.beginAttemptLocked()
}

func (s *sessionStore) beginAttemptLocked() uint64 {
	s.attempt++
	s.session.IsLoading = true

	return s.attempt
}

// failAttempt lowers the loading flag without touching any other state:
// a failed re-login does not log the user out.
func (s *sessionStore) failAttempt(attempt uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.attempt == attempt {
		s.session.IsLoading = false
	}
}

// commitAuth installs the authenticated session produced by an attempt,
// unless a newer attempt or a logout has superseded it.
func (s *sessionStore) commitAuth(ctx context.Context, attempt uint64, result *service.AuthResult, role entity.Role) (entity.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.attempt != attempt {
		s.log(ctx).Debug("Discarding superseded authentication response")

		return entity.Session{}, false
	}

	var shops []entity.Shop
	var activeShop *entity.Shop
	if result.Shop != nil {
		shops = []entity.Shop{*result.Shop}
		activeShop = &shops[0]
	}

	s.session = entity.Session{
		User:            result.User,
		Profile:         result.Profile,
		Shops:           shops,
		ActiveShop:      activeShop,
		AccessToken:     result.AccessToken,
		RefreshToken:    result.RefreshToken,
		IsAuthenticated: result.AccessToken != "" && result.RefreshToken != "",
		IsLoading:       false,
		Role:            role,
	}
	s.persistLocked(ctx)
	s.publishLocked()

	return s.snapshotLocked(), true
}

// clearIfCurrent resets to anonymous unless the attempt was superseded.
func (s *sessionStore) clearIfCurrent(ctx context.Context, attempt uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.attempt != attempt {
		return
	}
	s.clearLocked(ctx)
}

// clearLocked resets every session field and removes the persisted snapshot
// in one step. No partial clear is ever observable.
func (s *sessionStore) clearLocked(ctx context.Context) {
	s.session = entity.Session{Role: entity.RoleCustomer}
	if err := s.snapshots.Delete(ctx, service.SnapshotKeySession); err != nil {
		s.log(ctx).Warn("Failed to delete session snapshot", slog.Any("error", err))
	}
	s.publishLocked()
}

// persistLocked mirrors the whitelisted projection into the snapshot store
// within the same locked transition. Write failures are diagnostics only;
// memory wins.
func (s *sessionStore) persistLocked(ctx context.Context) {
	data, err := marshalSessionSnapshot(s.session)
	if err != nil {
		s.log(ctx).Warn("Failed to marshal session snapshot", slog.Any("error", err))

		return
	}
	if err := s.snapshots.Save(ctx, service.SnapshotKeySession, data); err != nil {
		s.log(ctx).Warn("Failed to persist session snapshot", slog.Any("error", err))
	}
}

func (s *sessionStore) publishLocked() {
	s.bus.Publish(service.TopicSessionChanged, s.snapshotLocked())
}

// snapshotLocked copies the session so callers cannot alias internal state.
func (s *sessionStore) snapshotLocked() entity.Session {
	copied := s.session
	if len(s.session.Shops) > 0 {
		copied.Shops = make([]entity.Shop, len(s.session.Shops))
		copy(copied.Shops, s.session.Shops)
		if s.session.ActiveShop != nil {
			for i := range copied.Shops {
				if copied.Shops[i].ID == s.session.ActiveShop.ID {
					copied.ActiveShop = &copied.Shops[i]

					break
				}
			}
		}
	}

	return copied
}

// fetchShops loads the shop list for shop-owner profiles. Failures degrade
// to whatever single shop the profile response carried.
func (s *sessionStore) fetchShops(ctx context.Context, accessToken string, profile *entity.UserProfile, fallback *entity.Shop) []entity.Shop {
	if profile == nil || !profile.IsShopOwner {
		return nil
	}

	shops, err := s.api.GetMyShops(ctx, accessToken)
	if err != nil {
		s.log(ctx).Warn("Failed to fetch shops, keeping profile shop", slog.Any("error", err))
		if fallback != nil {
			return []entity.Shop{*fallback}
		}

		return nil
	}

	return shops
}

// pickActiveShop keeps the previous selection when it still exists,
// otherwise falls back to the first owned shop.
func pickActiveShop(previous *entity.Shop, shops []entity.Shop) *entity.Shop {
	if len(shops) == 0 {
		return nil
	}
	if previous != nil {
		for i := range shops {
			if shops[i].ID == previous.ID {
				return &shops[i]
			}
		}
	}

	return &shops[0]
}
