// internal/notify/service.go

package notify

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/techswap/techswap-backend/internal/profile"
)

// RecipientDirectory looks up where to reach a user.
type RecipientDirectory interface {
	Recipient(ctx context.Context, userID string) (email, name string, err error)
}

// Service delivers offline notifications. It implements the
// messaging package's OfflineNotifier.
type Service struct {
	email     EmailService
	directory RecipientDirectory
	enabled   bool
}

func NewService(email EmailService, directory RecipientDirectory, enabled bool) *Service {
	return &Service{
		email:     email,
		directory: directory,
		enabled:   enabled,
	}
}

// NotifyNewMessage emails a recipient about a message they were not
// connected to receive.
func (s *Service) NotifyNewMessage(ctx context.Context, recipientID, senderName, preview string) error {
	if !s.enabled {
		return nil
	}

	email, name, err := s.directory.Recipient(ctx, recipientID)
	if errors.Is(err, profile.ErrNoEmailOnFile) || errors.Is(err, profile.ErrProfileNotFound) {
		// Nothing to deliver to; not an error worth surfacing.
		return nil
	}
	if err != nil {
		return err
	}

	notification := &EmailNotification{
		To:      email,
		ToName:  name,
		Subject: fmt.Sprintf("New message from %s", senderName),
		Body:    fmt.Sprintf("%s sent you a message:\n\n%s\n\nSign in to reply.", senderName, preview),
	}

	if err := s.email.SendEmail(ctx, notification); err != nil {
		log.Printf("Failed to notify %s about new message: %v", recipientID, err)
		return err
	}

	return nil
}
