package services

import (
	"context"

	"github.com/workhive/backend/internal/models"
)

const notificationsLimit = 50

type NotificationReader interface {
	ListByEmail(ctx context.Context, email string, limit int) ([]*models.Notification, error)
}

type NotificationService struct {
	notifications NotificationReader
}

func NewNotificationService(notifications NotificationReader) *NotificationService {
	return &NotificationService{notifications: notifications}
}

// List returns the most recent notifications addressed to email.
func (s *NotificationService) List(ctx context.Context, caller *models.User, email string) ([]*models.Notification, error) {
	if err := authorizeSelf(caller, email); err != nil {
		return nil, err
	}
	return s.notifications.ListByEmail(ctx, normalizeEmail(email), notificationsLimit)
}
