// Package usecase contains the application-specific business rules.
// It orchestrates the domain layer to perform tasks.
package usecase

import (
	"context"

	"github.com/google/uuid"

	"bazaar/internal/domain/entity"
)

// --- Input DTOs ---

// LoginInput defines the data required for a credential login.
type LoginInput struct {
	Identifier string `json:"identifier" validate:"required"`
	Password   string `json:"password" validate:"required"`
}

// OAuthLoginInput defines the data required for an OAuth login. The
// intended role is a request hint forwarded to the backend; the session
// role always derives from the profile the backend returns.
type OAuthLoginInput struct {
	Provider     entity.Provider `json:"provider" validate:"required,oneof=google facebook"`
	Token        string          `json:"token" validate:"required"`
	IntendedRole entity.Role     `json:"intended_role" validate:"omitempty,oneof=customer shop_owner"`
}

// RegisterInput defines the data required to register a customer account.
type RegisterInput struct {
	Username    string `json:"username" validate:"required,min=3"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8"`
	DisplayName string `json:"display_name"`
}

// RegisterShopOwnerInput defines the data required to register a shop-owner
// account together with its first shop.
type RegisterShopOwnerInput struct {
	RegisterInput
	ShopName        string `json:"shop_name" validate:"required"`
	ShopDescription string `json:"shop_description"`
}

// --- Output DTOs ---

// OAuthLoginOutput returns the authenticated session plus onboarding hints
// so the caller can redirect new users to setup flows.
type OAuthLoginOutput struct {
	Session        entity.Session `json:"session"`
	IsNewUser      bool           `json:"is_new_user"`
	NeedsShopSetup bool           `json:"needs_shop_setup"`
}

// SessionUsecase is the session store: the owner of authentication state
// and its transitions. All methods are safe for concurrent use.
type SessionUsecase interface {
	// Rehydrate loads the persisted session snapshot once at process
	// start. An absent or malformed snapshot yields the empty default.
	Rehydrate(ctx context.Context) error

	// CheckAuth silently verifies persisted tokens at startup. Without
	// tokens it completes locally; with tokens it re-fetches the profile
	// and either rehydrates from the fresh response or clears everything.
	// Verification failure is an expected condition, never an error.
	CheckAuth(ctx context.Context) error

	// Login authenticates with credentials. On failure the error is
	// returned to the caller for display and existing authenticated state
	// is left untouched.
	Login(ctx context.Context, input *LoginInput) (*entity.Session, error)

	// LoginWithOAuth authenticates with a provider token.
	LoginWithOAuth(ctx context.Context, input *OAuthLoginInput) (*OAuthLoginOutput, error)

	// Register creates and logs in a customer account.
	Register(ctx context.Context, input *RegisterInput) (*entity.Session, error)

	// RegisterShopOwner creates and logs in a shop-owner account.
	RegisterShopOwner(ctx context.Context, input *RegisterShopOwnerInput) (*entity.Session, error)

	// Logout invalidates the session server-side on a best-effort basis
	// and unconditionally clears in-memory and persisted state.
	Logout(ctx context.Context) error

	// Session returns a copy of the current session state.
	Session() entity.Session

	// SetUser replaces identity data already validated elsewhere (e.g. a
	// profile-edit save). The role is recomputed whenever a profile is
	// supplied.
	SetUser(ctx context.Context, user *entity.User, profile *entity.UserProfile, shops ...entity.Shop)

	// SetTokens replaces the token pair.
	SetTokens(ctx context.Context, accessToken, refreshToken string)

	// UpdateRole overrides the session role. Reserved for flows that hold
	// out-of-band knowledge, such as a just-completed shop-owner
	// registration whose profile does not yet carry the flag; any later
	// profile change recomputes the role and wins.
	UpdateRole(ctx context.Context, role entity.Role)

	// SetActiveShop selects one of the owned shops for management.
	SetActiveShop(ctx context.Context, shopID uuid.UUID) error

	// ShopShareQR renders a QR code for the active shop's public page.
	ShopShareQR() ([]byte, error)
}
