// Package entity contains the core business objects of the project.
package entity

import (
	"github.com/google/uuid"
)

// Shop is a business entity owned by a shop-owner account. A session may
// hold zero, one or many shops; exactly one of them is the active shop at
// any time.
type Shop struct {
	ID          uuid.UUID `json:"id"`          // The unique identifier of the shop.
	OwnerID     uuid.UUID `json:"owner_id"`    // The User that owns this shop.
	Name        string    `json:"name"`        // The shop's display name.
	Slug        string    `json:"slug"`        // URL-safe identifier used in public shop links.
	Description string    `json:"description"` // A description of the shop and its products.
	LogoURL     string    `json:"logo"`        // URL of the shop's logo image.
}
