// Package api implements the MarketAPI contract over the marketplace
// backend's REST surface.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/fx"

	"bazaar/config"
	"bazaar/internal/domain/entity"
	domainerrors "bazaar/internal/domain/errors"
	"bazaar/internal/domain/service"
	"bazaar/internal/errors"
)

type client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// ClientParams holds dependencies for the API client, injected by Fx.
type ClientParams struct {
	fx.In

	Config *config.Config
	Logger *slog.Logger
}

// NewClient is the constructor for the backend API client.
func NewClient(params ClientParams) (service.MarketAPI, error) {
	baseURL := strings.TrimRight(params.Config.API.BaseURL, "/")
	if baseURL == "" {
		return nil, errors.New("api base url must be provided")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, errors.Wrap(err, "invalid api base url")
	}

	timeout := params.Config.API.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     params.Logger,
	}, nil
}

// --- wire DTOs ---

type authResponse struct {
	Access         string              `json:"access"`
	Refresh        string              `json:"refresh"`
	User           *entity.User        `json:"user"`
	Profile        *entity.UserProfile `json:"profile"`
	Shop           *entity.Shop        `json:"shop"`
	IsNewUser      bool                `json:"is_new_user"`
	NeedsShopSetup bool                `json:"needs_shop_setup"`
}

type profileResponse struct {
	User    *entity.User        `json:"user"`
	Profile *entity.UserProfile `json:"profile"`
	Shop    *entity.Shop        `json:"shop"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

// Login exchanges credentials for a token pair and session data.
func (c *client) Login(ctx context.Context, identifier, password string) (*service.AuthResult, error) {
	body := map[string]string{"identifier": identifier, "password": password}

	var resp authResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", "", body, &resp); err != nil {
		return nil, err
	}

	return authResultFrom(&resp), nil
}

// OAuthLogin exchanges a provider token for a session.
func (c *client) OAuthLogin(ctx context.Context, provider entity.Provider, token string, intendedRole entity.Role) (*service.OAuthResult, error) {
	body := map[string]string{
		"provider": provider.String(),
		"token":    token,
		"role":     intendedRole.String(),
	}

	var resp authResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/oauth", "", body, &resp); err != nil {
		return nil, err
	}

	return &service.OAuthResult{
		AuthResult:     *authResultFrom(&resp),
		IsNewUser:      resp.IsNewUser,
		NeedsShopSetup: resp.NeedsShopSetup,
	}, nil
}

// Register creates a customer account and logs it in.
func (c *client) Register(ctx context.Context, payload *service.RegisterPayload) (*service.AuthResult, error) {
	body := map[string]string{
		"username":     payload.Username,
		"email":        payload.Email,
		"password":     payload.Password,
		"display_name": payload.DisplayName,
	}

	var resp authResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/register", "", body, &resp); err != nil {
		return nil, err
	}

	return authResultFrom(&resp), nil
}

// RegisterShopOwner creates a shop-owner account with its first shop.
func (c *client) RegisterShopOwner(ctx context.Context, payload *service.ShopOwnerPayload) (*service.AuthResult, error) {
	body := map[string]string{
		"username":         payload.Username,
		"email":            payload.Email,
		"password":         payload.Password,
		"display_name":     payload.DisplayName,
		"shop_name":        payload.ShopName,
		"shop_description": payload.ShopDescription,
	}

	var resp authResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/register/shop-owner", "", body, &resp); err != nil {
		return nil, err
	}

	return authResultFrom(&resp), nil
}

// Logout invalidates the refresh token server-side.
func (c *client) Logout(ctx context.Context, refreshToken string) error {
	body := map[string]string{"refresh": refreshToken}

	return c.do(ctx, http.MethodPost, "/api/auth/logout", "", body, nil)
}

// GetProfile verifies the access token and returns fresh session data.
func (c *client) GetProfile(ctx context.Context, accessToken string) (*service.ProfileResult, error) {
	var resp profileResponse
	if err := c.do(ctx, http.MethodGet, "/api/auth/profile", accessToken, nil, &resp); err != nil {
		return nil, err
	}

	return &service.ProfileResult{User: resp.User, Profile: resp.Profile, Shop: resp.Shop}, nil
}

// GetMyShops lists the shops owned by the authenticated user.
func (c *client) GetMyShops(ctx context.Context, accessToken string) ([]entity.Shop, error) {
	var shops []entity.Shop
	if err := c.do(ctx, http.MethodGet, "/api/shops/mine", accessToken, nil, &shops); err != nil {
		return nil, err
	}

	return shops, nil
}

func authResultFrom(resp *authResponse) *service.AuthResult {
	return &service.AuthResult{
		AccessToken:  resp.Access,
		RefreshToken: resp.Refresh,
		User:         resp.User,
		Profile:      resp.Profile,
		Shop:         resp.Shop,
	}
}

// do performs one JSON round trip and maps non-2xx answers onto the domain
// error taxonomy so callers can match with errors.Is.
func (c *client) do(ctx context.Context, method, path, accessToken string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "failed to encode request body")
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return errors.Wrap(err, "failed to build request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrapf(domainerrors.ErrBackendUnavailable, "%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return c.mapError(resp, method, path)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrapf(err, "failed to decode %s %s response", method, path)
	}

	return nil
}

func (c *client) mapError(resp *http.Response, method, path string) error {
	var detail errorResponse
	if data, err := io.ReadAll(io.LimitReader(resp.Body, 4096)); err == nil {
		_ = json.Unmarshal(data, &detail)
	}
	c.logger.Debug("Backend returned error",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", resp.StatusCode),
		slog.String("detail", detail.Detail))

	call := fmt.Sprintf("%s %s", method, path)
	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		if strings.HasPrefix(path, "/api/auth/login") || strings.HasPrefix(path, "/api/auth/oauth") {
			return errors.Wrap(domainerrors.ErrInvalidCredentials, call)
		}

		return errors.Wrap(domainerrors.ErrSessionExpired, call)
	case http.StatusConflict:
		return errors.Wrap(domainerrors.ErrUserAlreadyExists, call)
	case http.StatusBadRequest:
		return errors.Wrap(domainerrors.ErrValidationFailed.WithDetails(detail.Detail), call)
	case http.StatusNotFound:
		return errors.Wrap(domainerrors.ErrNotFound, call)
	default:
		return errors.Wrapf(domainerrors.ErrBackendUnavailable, "%s: status %d", call, resp.StatusCode)
	}
}
