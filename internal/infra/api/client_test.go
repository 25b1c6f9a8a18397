package api

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"bazaar/config"
	"bazaar/internal/domain/entity"
	domainerrors "bazaar/internal/domain/errors"
	"bazaar/internal/domain/service"
	"bazaar/internal/errors"
)

var testSigningKey = []byte("test-signing-key")

type backendUser struct {
	user         entity.User
	passwordHash []byte
	profile      entity.UserProfile
	shops        []entity.Shop
}

// fakeBackend is a minimal marketplace backend: one seeded customer and one
// seeded shop owner, HS256 access tokens, bcrypt-checked passwords.
type fakeBackend struct {
	users map[string]*backendUser

	profileCalls int
}

func hashPassword(t *testing.T, password string) []byte {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)

	return hash
}

func newFakeBackend(t *testing.T) *fakeBackend {
	t.Helper()

	customerID := uuid.New()
	ownerID := uuid.New()
	shop := entity.Shop{
		ID:      uuid.New(),
		OwnerID: ownerID,
		Name:    "Corner Grocer",
		Slug:    "corner-grocer",
	}

	return &fakeBackend{
		users: map[string]*backendUser{
			"alice": {
				user:         entity.User{ID: customerID, Username: "alice", Email: "alice@example.com"},
				passwordHash: hashPassword(t, "correct horse"),
				profile:      entity.UserProfile{UserID: customerID},
			},
			"bob": {
				user:         entity.User{ID: ownerID, Username: "bob", Email: "bob@example.com", IsShopOwner: true},
				passwordHash: hashPassword(t, "open sesame"),
				profile:      entity.UserProfile{UserID: ownerID, IsShopOwner: true},
				shops:        []entity.Shop{shop},
			},
		},
	}
}

func (b *fakeBackend) issueToken(t *testing.T, username string) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   username,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := token.SignedString(testSigningKey)
	require.NoError(t, err)

	return signed
}

func (b *fakeBackend) authenticate(c echo.Context) (*backendUser, error) {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if len(header) <= len("Bearer ") {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, map[string]string{"detail": "missing token"})
	}

	claims := jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(header[len("Bearer "):], &claims, func(*jwt.Token) (any, error) {
		return testSigningKey, nil
	})
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, map[string]string{"detail": "invalid token"})
	}

	user, ok := b.users[claims.Subject]
	if !ok {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, map[string]string{"detail": "unknown subject"})
	}

	return user, nil
}

func (b *fakeBackend) router(t *testing.T) *echo.Echo {
	t.Helper()

	e := echo.New()

	e.POST("/api/auth/login", func(c echo.Context) error {
		req := map[string]string{}
		if err := c.Bind(&req); err != nil {
			return err
		}

		user, ok := b.users[req["identifier"]]
		if !ok {
			return c.JSON(http.StatusUnauthorized, map[string]string{"detail": "unknown user"})
		}
		if bcrypt.CompareHashAndPassword(user.passwordHash, []byte(req["password"])) != nil {
			return c.JSON(http.StatusUnauthorized, map[string]string{"detail": "wrong password"})
		}

		body := map[string]any{
			"access":  b.issueToken(t, user.user.Username),
			"refresh": "refresh-" + user.user.Username,
			"user":    user.user,
			"profile": user.profile,
		}
		if len(user.shops) > 0 {
			body["shop"] = user.shops[0]
		}

		return c.JSON(http.StatusOK, body)
	})

	e.POST("/api/auth/register", func(c echo.Context) error {
		req := map[string]string{}
		if err := c.Bind(&req); err != nil {
			return err
		}
		if _, exists := b.users[req["username"]]; exists {
			return c.JSON(http.StatusConflict, map[string]string{"detail": "username taken"})
		}

		id := uuid.New()
		b.users[req["username"]] = &backendUser{
			user:         entity.User{ID: id, Username: req["username"], Email: req["email"]},
			passwordHash: hashPassword(t, req["password"]),
			profile:      entity.UserProfile{UserID: id},
		}
		user := b.users[req["username"]]

		return c.JSON(http.StatusCreated, map[string]any{
			"access":  b.issueToken(t, user.user.Username),
			"refresh": "refresh-" + user.user.Username,
			"user":    user.user,
			"profile": user.profile,
		})
	})

	e.GET("/api/auth/profile", func(c echo.Context) error {
		b.profileCalls++
		user, err := b.authenticate(c)
		if err != nil {
			return err
		}

		body := map[string]any{"user": user.user, "profile": user.profile}
		if len(user.shops) > 0 {
			body["shop"] = user.shops[0]
		}

		return c.JSON(http.StatusOK, body)
	})

	e.GET("/api/shops/mine", func(c echo.Context) error {
		user, err := b.authenticate(c)
		if err != nil {
			return err
		}

		return c.JSON(http.StatusOK, user.shops)
	})

	e.POST("/api/auth/logout", func(c echo.Context) error {
		return c.NoContent(http.StatusNoContent)
	})

	return e
}

func newTestClient(t *testing.T, baseURL string) service.MarketAPI {
	t.Helper()

	cfg := &config.Config{}
	cfg.API.BaseURL = baseURL
	cfg.API.Timeout = 5 * time.Second

	client, err := NewClient(ClientParams{
		Config: cfg,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, err)

	return client
}

func TestClientLogin(t *testing.T) {
	t.Parallel()

	backend := newFakeBackend(t)
	server := httptest.NewServer(backend.router(t))
	defer server.Close()

	client := newTestClient(t, server.URL)

	t.Run("valid credentials return tokens and identity", func(t *testing.T) {
		result, err := client.Login(context.Background(), "alice", "correct horse")
		require.NoError(t, err)

		assert.NotEmpty(t, result.AccessToken)
		assert.Equal(t, "refresh-alice", result.RefreshToken)
		require.NotNil(t, result.User)
		assert.Equal(t, "alice", result.User.Username)
		assert.Nil(t, result.Shop)
	})

	t.Run("shop owner login carries the shop", func(t *testing.T) {
		result, err := client.Login(context.Background(), "bob", "open sesame")
		require.NoError(t, err)

		require.NotNil(t, result.Shop)
		assert.Equal(t, "corner-grocer", result.Shop.Slug)
	})

	t.Run("wrong password maps to ErrInvalidCredentials", func(t *testing.T) {
		_, err := client.Login(context.Background(), "alice", "wrong")
		require.Error(t, err)
		assert.True(t, errors.Is(err, domainerrors.ErrInvalidCredentials))
	})

	t.Run("unknown user maps to ErrInvalidCredentials", func(t *testing.T) {
		_, err := client.Login(context.Background(), "nobody", "whatever")
		require.Error(t, err)
		assert.True(t, errors.Is(err, domainerrors.ErrInvalidCredentials))
	})
}

func TestClientRegister(t *testing.T) {
	t.Parallel()

	backend := newFakeBackend(t)
	server := httptest.NewServer(backend.router(t))
	defer server.Close()

	client := newTestClient(t, server.URL)

	t.Run("new account is created and logged in", func(t *testing.T) {
		result, err := client.Register(context.Background(), &service.RegisterPayload{
			Username: "carol",
			Email:    "carol@example.com",
			Password: "hunter2hunter2",
		})
		require.NoError(t, err)

		assert.NotEmpty(t, result.AccessToken)
		require.NotNil(t, result.User)
		assert.Equal(t, "carol", result.User.Username)
	})

	t.Run("duplicate username maps to ErrUserAlreadyExists", func(t *testing.T) {
		_, err := client.Register(context.Background(), &service.RegisterPayload{
			Username: "alice",
			Email:    "alice2@example.com",
			Password: "hunter2hunter2",
		})
		require.Error(t, err)
		assert.True(t, errors.Is(err, domainerrors.ErrUserAlreadyExists))
	})
}

func TestClientGetProfile(t *testing.T) {
	t.Parallel()

	backend := newFakeBackend(t)
	server := httptest.NewServer(backend.router(t))
	defer server.Close()

	client := newTestClient(t, server.URL)

	t.Run("valid token returns fresh identity", func(t *testing.T) {
		login, err := client.Login(context.Background(), "bob", "open sesame")
		require.NoError(t, err)

		result, err := client.GetProfile(context.Background(), login.AccessToken)
		require.NoError(t, err)

		require.NotNil(t, result.User)
		assert.Equal(t, "bob", result.User.Username)
		assert.True(t, result.Profile.IsShopOwner)
	})

	t.Run("garbage token maps to ErrSessionExpired", func(t *testing.T) {
		_, err := client.GetProfile(context.Background(), "not-a-jwt")
		require.Error(t, err)
		assert.True(t, errors.Is(err, domainerrors.ErrSessionExpired))
	})
}

func TestClientGetMyShops(t *testing.T) {
	t.Parallel()

	backend := newFakeBackend(t)
	server := httptest.NewServer(backend.router(t))
	defer server.Close()

	client := newTestClient(t, server.URL)

	login, err := client.Login(context.Background(), "bob", "open sesame")
	require.NoError(t, err)

	shops, err := client.GetMyShops(context.Background(), login.AccessToken)
	require.NoError(t, err)
	require.Len(t, shops, 1)
	assert.Equal(t, "Corner Grocer", shops[0].Name)
}

func TestClientBackendUnreachable(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, "http://127.0.0.1:1")

	_, err := client.Login(context.Background(), "alice", "correct horse")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domainerrors.ErrBackendUnavailable))
}
