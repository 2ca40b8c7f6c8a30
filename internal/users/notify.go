package users

import (
	"context"
	"fmt"

	"fleettrack-backend/internal/apperr"
	"fleettrack-backend/internal/mailer"
	"fleettrack-backend/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// NotificationStore persists in-app notifications for admins.
type NotificationStore interface {
	Create(ctx context.Context, n *models.Notification) error
}

type GormNotificationStore struct {
	DB *gorm.DB
}

func (s GormNotificationStore) Create(ctx context.Context, n *models.Notification) error {
	return s.DB.WithContext(ctx).Create(n).Error
}

// AdminNotifier delivers a manager's message to an admin over email and, when
// delivery succeeds, records a matching in-app notification.
type AdminNotifier struct {
	email mailer.EmailSender
	store NotificationStore
	log   *zap.Logger
}

func NewAdminNotifier(email mailer.EmailSender, store NotificationStore, log *zap.Logger) *AdminNotifier {
	return &AdminNotifier{email: email, store: store, log: log}
}

// Notify sends the email first; the notification row is only written for a
// delivered message, so the unread list never advertises mail that never
// arrived.
func (n *AdminNotifier) Notify(ctx context.Context, admin *models.User, managerName, message string) error {
	subject := "New Contact Attempt by Manager"
	body := fmt.Sprintf("Manager %s sent the following message:\n\n%s", managerName, message)
	if err := n.email.Send(ctx, admin.Email, subject, body); err != nil {
		n.log.Warn("admin email delivery failed",
			zap.String("admin_id", admin.ID.String()),
			zap.Error(err))
		return apperr.Wrap(apperr.CodeDeliveryFailure, "message could not be delivered to the admin", err)
	}

	notif := &models.Notification{
		UserID:  admin.ID,
		Message: fmt.Sprintf("Manager %s sent a message: %s", managerName, message),
	}
	if err := n.store.Create(ctx, notif); err != nil {
		n.log.Error("notification record could not be written",
			zap.String("admin_id", admin.ID.String()),
			zap.Error(err))
	}
	return nil
}
