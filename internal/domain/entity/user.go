// Package entity contains the core business objects of the project,
// each representing a unique, identifiable concept within the domain.
package entity

import (
	"github.com/google/uuid"
)

// User is the identity the backend reports for the current session.
// The core treats it as immutable while a session is live; it is only
// replaced wholesale when a fresh profile response arrives.
type User struct {
	ID          uuid.UUID `json:"id"`           // The Global Unique Identifier (GUID) for the user.
	Username    string    `json:"username"`     // The login identifier chosen by the user.
	DisplayName string    `json:"display_name"` // The name shown across the marketplace UI.
	Email       string    `json:"email"`        // The user's primary contact email.
	IsShopOwner bool      `json:"is_shopowner"` // Whether the backend flags this account as a shop owner.
	IsStaff     bool      `json:"is_staff"`     // Whether the account has staff privileges.
	IsSuperuser bool      `json:"is_superuser"` // Whether the account has superuser privileges.
}

// UserProfile extends User with profile-completeness data. It is the sole
// source for role derivation: Session.Role is always computed from
// IsShopOwner here, never stored independently.
type UserProfile struct {
	UserID      uuid.UUID `json:"user_id"`      // Foreign key linking this profile to its User.
	Bio         string    `json:"bio"`          // Free-form self description.
	AvatarURL   string    `json:"avatar"`       // URL of the profile picture.
	Address     string    `json:"address"`      // Default shipping/contact address.
	Phone       string    `json:"phone"`        // Contact phone number.
	IsShopOwner bool      `json:"is_shopowner"` // The role-determining flag.
}
