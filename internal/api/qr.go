package api

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/skip2/go-qrcode"
	"go.uber.org/zap"
)

// QRCodeManager renders share codes pointing at a session's web page
type QRCodeManager struct {
	publicURL string
	logger    *zap.Logger
}

// NewQRCodeManager creates a new QR code manager
func NewQRCodeManager(publicURL string, logger *zap.Logger) *QRCodeManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QRCodeManager{
		publicURL: strings.TrimRight(publicURL, "/"),
		logger:    logger,
	}
}

// SessionURL returns the public link of a session
func (qm *QRCodeManager) SessionURL(session string) string {
	return qm.publicURL + "/sessions/" + url.PathEscape(session)
}

// SessionQRCode returns a PNG QR code encoding the session's public link
func (qm *QRCodeManager) SessionQRCode(session string) ([]byte, error) {
	link := qm.SessionURL(session)
	png, err := qrcode.Encode(link, qrcode.Medium, 256)
	if err != nil {
		qm.logger.Error("Failed to generate QR code",
			zap.String("session", session),
			zap.Error(err))
		return nil, fmt.Errorf("failed to generate QR code image: %w", err)
	}

	qm.logger.Debug("QR code generated",
		zap.String("session", session),
		zap.String("url", link))

	return png, nil
}
