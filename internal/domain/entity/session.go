// Package entity contains the core business objects of the project.
package entity

import (
	"github.com/google/uuid"
)

// Session is the aggregate authentication state for the current client
// context. It is created empty at process start, populated by login,
// registration or silent verification, and cleared atomically on logout or
// verification failure; no partially-cleared state is ever observable.
//
// Invariants:
//   - IsAuthenticated is true iff both tokens are non-empty and the last
//     verification of them succeeded.
//   - Role is derived solely from Profile via RoleForProfile and is
//     recomputed whenever Profile changes. The two registration paths fix
//     the role deterministically because the fresh profile may not yet
//     carry the shop-owner flag.
type Session struct {
	User            *User        `json:"user"`            // The authenticated identity, nil when anonymous.
	Profile         *UserProfile `json:"userProfile"`     // The profile the role derives from.
	Shops           []Shop       `json:"shops"`           // Shops owned by the user, empty for customers.
	ActiveShop      *Shop        `json:"activeShop"`      // The shop currently selected for management.
	AccessToken     string       `json:"accessToken"`     // Short-lived bearer token for API calls.
	RefreshToken    string       `json:"refreshToken"`    // Long-lived token used to invalidate the session.
	IsAuthenticated bool         `json:"isAuthenticated"` // See the invariant above.
	IsLoading       bool         `json:"-"`               // True while an authentication request is in flight. Never persisted.
	Role            Role         `json:"role"`            // Derived capability level.
}

// HasTokens reports whether both tokens are present. Startup verification
// is skipped entirely when this is false.
func (s Session) HasTokens() bool {
	return s.AccessToken != "" && s.RefreshToken != ""
}

// ShopByID returns the owned shop with the given id, or nil.
func (s Session) ShopByID(id uuid.UUID) *Shop {
	for i := range s.Shops {
		if s.Shops[i].ID == id {
			return &s.Shops[i]
		}
	}

	return nil
}
