package service

import (
	"github.com/google/uuid"
)

// QRCodeService defines the interface for QR code generation and parsing services
type QRCodeService interface {
	// GenerateStoreQR renders a PNG QR code pointing at the public store page.
	GenerateStoreQR(storeID uuid.UUID) ([]byte, error)

	// ParseStoreQR extracts the store ID from the encoded link.
	ParseStoreQR(qrData string) (uuid.UUID, error)
}
