package notification

import (
	"context"
	"log"

	"lumapay/internal/models"
)

// Service is a minimal notification service implementation. It logs; a
// real deployment swaps in push or email delivery behind the same method.
type Service struct{}

// NewService creates a new notification service.
func NewService() *Service { return &Service{} }

// SendTransferNotification logs a transfer notification.
func (s *Service) SendTransferNotification(ctx context.Context, walletID uint, payment *models.Payment) error {
	log.Printf("Notify wallet %d of %s payment %s", walletID, payment.Direction, payment.ReferenceNumber)
	return nil
}
