// Package service defines the contracts the application core consumes.
// Implementations live under internal/infra.
package service

import (
	"context"

	"bazaar/internal/domain/entity"
)

// AuthResult is the backend's answer to any credential exchange: a token
// pair plus the identity data the session is built from.
type AuthResult struct {
	AccessToken  string
	RefreshToken string
	User         *entity.User
	Profile      *entity.UserProfile
	Shop         *entity.Shop // Present for shop-owner flows only.
}

// OAuthResult extends AuthResult with onboarding hints for OAuth sign-in.
type OAuthResult struct {
	AuthResult
	IsNewUser      bool
	NeedsShopSetup bool
}

// ProfileResult is the backend's answer to a profile verification call.
type ProfileResult struct {
	User    *entity.User
	Profile *entity.UserProfile
	Shop    *entity.Shop
}

// RegisterPayload carries the data for a customer registration.
type RegisterPayload struct {
	Username    string
	Email       string
	Password    string
	DisplayName string
}

// ShopOwnerPayload carries the data for a shop-owner registration,
// including the initial shop to create.
type ShopOwnerPayload struct {
	RegisterPayload
	ShopName        string
	ShopDescription string
}

// MarketAPI is the opaque backend surface the session store calls. The core
// only consumes this contract; transport, retries and serialization are the
// implementation's concern.
type MarketAPI interface {
	// Login exchanges credentials for a token pair and session data.
	Login(ctx context.Context, identifier, password string) (*AuthResult, error)

	// OAuthLogin exchanges a provider token for a session. The intended
	// role is a request hint only; the session role always derives from
	// the returned profile.
	OAuthLogin(ctx context.Context, provider entity.Provider, token string, intendedRole entity.Role) (*OAuthResult, error)

	// Register creates a customer account and logs it in.
	Register(ctx context.Context, payload *RegisterPayload) (*AuthResult, error)

	// RegisterShopOwner creates a shop-owner account with its first shop
	// and logs it in.
	RegisterShopOwner(ctx context.Context, payload *ShopOwnerPayload) (*AuthResult, error)

	// Logout invalidates the refresh token server-side. Callers treat
	// failures as diagnostics only.
	Logout(ctx context.Context, refreshToken string) error

	// GetProfile verifies the access token and returns fresh session data.
	GetProfile(ctx context.Context, accessToken string) (*ProfileResult, error)

	// GetMyShops lists the shops owned by the authenticated user.
	GetMyShops(ctx context.Context, accessToken string) ([]entity.Shop, error)
}
