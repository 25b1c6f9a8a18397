// Package entity contains the core business objects of the project.
package entity

// Role represents the capability level of the current session.
type Role string

const (
	// RoleCustomer indicates a regular buyer session.
	RoleCustomer Role = "customer"
	// RoleShopOwner indicates a session that may manage shops.
	RoleShopOwner Role = "shop_owner"
)

// String returns the string representation of the Role.
func (r Role) String() string {
	return string(r)
}

// IsValid checks if the Role is a valid value.
func (r Role) IsValid() bool {
	switch r {
	case RoleCustomer, RoleShopOwner:
		return true
	default:
		return false
	}
}

// RoleForProfile derives the session role from a profile. This is the only
// place the derivation rule lives: a nil profile or a profile without the
// shop-owner flag yields a customer session.
func RoleForProfile(profile *UserProfile) Role {
	if profile != nil && profile.IsShopOwner {
		return RoleShopOwner
	}

	return RoleCustomer
}

// Provider identifies an external OAuth identity provider.
type Provider string

const (
	// ProviderGoogle is Google Sign-In.
	ProviderGoogle Provider = "google"
	// ProviderFacebook is Facebook Login.
	ProviderFacebook Provider = "facebook"
)

// String returns the string representation of the Provider.
func (p Provider) String() string {
	return string(p)
}

// IsValid checks if the Provider is a supported value.
func (p Provider) IsValid() bool {
	switch p {
	case ProviderGoogle, ProviderFacebook:
		return true
	default:
		return false
	}
}
