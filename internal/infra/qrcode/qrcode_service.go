package qrcode

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/brunoeugeniodev/NaLojaTem/config"
	"github.com/brunoeugeniodev/NaLojaTem/internal/domain/service"

	"github.com/google/uuid"
	"github.com/skip2/go-qrcode"
)

const (
	defaultSize    = 256
	storePathToken = "lojas"
)

type qrcodeService struct {
	baseURL              string
	size                 int
	errorCorrectionLevel qrcode.RecoveryLevel
}

// NewQRCodeService builds store share codes that link to {app.baseUrl}/lojas/{id}.
func NewQRCodeService(cfg *config.Config) service.QRCodeService {
	size, level := defaultSize, ""
	if cfg.QRCode != nil {
		size, level = cfg.QRCode.Size, cfg.QRCode.ErrorCorrectionLevel
	}

	return newQRCodeService(cfg.App.BaseURL, size, level)
}

func newQRCodeService(baseURL string, size int, errorCorrectionLevel string) *qrcodeService {
	if size <= 0 {
		size = defaultSize
	}

	return &qrcodeService{
		baseURL:              strings.TrimRight(baseURL, "/"),
		size:                 size,
		errorCorrectionLevel: parseRecoveryLevel(errorCorrectionLevel),
	}
}

func parseRecoveryLevel(level string) qrcode.RecoveryLevel {
	switch strings.ToLower(level) {
	case "l", "low":
		return qrcode.Low
	case "q", "high":
		return qrcode.High
	case "h", "highest":
		return qrcode.Highest
	default:
		return qrcode.Medium
	}
}

func (s *qrcodeService) storeLink(storeID uuid.UUID) string {
	return fmt.Sprintf("%s/%s/%s", s.baseURL, storePathToken, storeID)
}

// GenerateStoreQR renders the store link as a PNG.
func (s *qrcodeService) GenerateStoreQR(storeID uuid.UUID) ([]byte, error) {
	qrCode, err := qrcode.New(s.storeLink(storeID), s.errorCorrectionLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to create QR code: %w", err)
	}

	pngBytes, err := qrCode.PNG(s.size)
	if err != nil {
		return nil, fmt.Errorf("failed to generate PNG: %w", err)
	}

	return pngBytes, nil
}

// ParseStoreQR accepts the decoded content of a store code and returns the store ID.
func (s *qrcodeService) ParseStoreQR(qrData string) (uuid.UUID, error) {
	link, err := url.Parse(strings.TrimSpace(qrData))
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to parse QR code link: %w", err)
	}

	segments := strings.Split(strings.Trim(link.Path, "/"), "/")
	if len(segments) < 2 || segments[len(segments)-2] != storePathToken {
		return uuid.Nil, fmt.Errorf("invalid QR code link: %s", qrData)
	}

	storeID, err := uuid.Parse(segments[len(segments)-1])
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to parse store ID: %w", err)
	}

	return storeID, nil
}
