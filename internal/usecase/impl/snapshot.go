// Package impl contains the application-specific business rules
// implementations: the session and cart store engines.
package impl

import (
	"encoding/json"

	"bazaar/internal/domain/entity"
	"bazaar/internal/errors"
)

// sessionSnapshot is the whitelisted projection of the session persisted
// across restarts. IsLoading is deliberately absent: transient flags are
// never durable.
type sessionSnapshot struct {
	User            *entity.User        `json:"user"`
	Profile         *entity.UserProfile `json:"userProfile"`
	Shops           []entity.Shop       `json:"shops"`
	ActiveShop      *entity.Shop        `json:"activeShop"`
	AccessToken     string              `json:"accessToken"`
	RefreshToken    string              `json:"refreshToken"`
	IsAuthenticated bool                `json:"isAuthenticated"`
	Role            entity.Role         `json:"role"`
}

// cartSnapshot is the whitelisted projection of the cart. The IsOpen flag
// is transient and never persisted.
type cartSnapshot struct {
	Items []entity.CartItem `json:"items"`
}

func marshalSessionSnapshot(session entity.Session) ([]byte, error) {
	snapshot := sessionSnapshot{
		User:            session.User,
		Profile:         session.Profile,
		Shops:           session.Shops,
		ActiveShop:      session.ActiveShop,
		AccessToken:     session.AccessToken,
		RefreshToken:    session.RefreshToken,
		IsAuthenticated: session.IsAuthenticated,
		Role:            session.Role,
	}

	data, err := json.Marshal(snapshot)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal session snapshot")
	}

	return data, nil
}

// unmarshalSessionSnapshot rebuilds a session from its persisted
// projection, re-establishing the invariants the snapshot cannot be
// trusted with: authentication requires both tokens, and the role is
// recomputed from the profile rather than read back.
func unmarshalSessionSnapshot(data []byte) (entity.Session, error) {
	var snapshot sessionSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return entity.Session{}, errors.Wrap(err, "failed to unmarshal session snapshot")
	}

	session := entity.Session{
		User:            snapshot.User,
		Profile:         snapshot.Profile,
		Shops:           snapshot.Shops,
		ActiveShop:      snapshot.ActiveShop,
		AccessToken:     snapshot.AccessToken,
		RefreshToken:    snapshot.RefreshToken,
		IsAuthenticated: snapshot.IsAuthenticated && snapshot.AccessToken != "" && snapshot.RefreshToken != "",
		Role:            snapshot.Role,
	}
	if session.Profile != nil {
		session.Role = entity.RoleForProfile(session.Profile)
	}
	if !session.Role.IsValid() {
		session.Role = entity.RoleCustomer
	}

	return session, nil
}

func marshalCartSnapshot(cart entity.Cart) ([]byte, error) {
	data, err := json.Marshal(cartSnapshot{Items: cart.Items})
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal cart snapshot")
	}

	return data, nil
}

// unmarshalCartSnapshot rebuilds the cart items, dropping rows that violate
// the quantity floor so a tampered snapshot cannot smuggle them in.
func unmarshalCartSnapshot(data []byte) (entity.Cart, error) {
	var snapshot cartSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return entity.Cart{}, errors.Wrap(err, "failed to unmarshal cart snapshot")
	}

	items := make([]entity.CartItem, 0, len(snapshot.Items))
	for _, item := range snapshot.Items {
		if item.Quantity < 1 {
			continue
		}
		items = append(items, item)
	}
	if len(items) == 0 {
		items = nil
	}

	return entity.Cart{Items: items}, nil
}
