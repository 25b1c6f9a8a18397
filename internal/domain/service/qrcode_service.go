package service

import (
	"github.com/google/uuid"

	"bazaar/internal/domain/entity"
)

// QRCodeService generates shareable QR codes for shop pages.
type QRCodeService interface {
	// GenerateShopQR renders a PNG QR code pointing at the shop's public page.
	GenerateShopQR(shop entity.Shop) ([]byte, error)

	// ParseShopQR extracts the shop id from scanned QR payload data.
	ParseShopQR(qrData string) (uuid.UUID, error)
}
