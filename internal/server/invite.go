package server

import (
	"fmt"

	"github.com/skip2/go-qrcode"
	"go.uber.org/zap"
)

// InviteManager builds QR codes pointing at session join links
type InviteManager struct {
	baseURL string
	logger  *zap.Logger
}

// NewInviteManager creates an invite manager
func NewInviteManager(baseURL string, logger *zap.Logger) *InviteManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InviteManager{
		baseURL: baseURL,
		logger:  logger,
	}
}

// JoinURL returns the link encoded into a session's invite
func (im *InviteManager) JoinURL(sessionID string) string {
	return fmt.Sprintf("%s/api/sessions/%s/join", im.baseURL, sessionID)
}

// GenerateJoinQR renders a session invite as a PNG QR code
func (im *InviteManager) GenerateJoinQR(sessionID string) ([]byte, error) {
	url := im.JoinURL(sessionID)

	png, err := qrcode.Encode(url, qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("failed to generate QR code: %w", err)
	}

	im.logger.Info("Invite QR generated",
		zap.String("session_id", sessionID),
		zap.String("url", url))

	return png, nil
}
