package users

import (
	"strings"
	"time"

	"fleettrack-backend/internal/apperr"
	"fleettrack-backend/internal/auth"
	"fleettrack-backend/internal/authz"
	"fleettrack-backend/internal/database"
	"fleettrack-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ContactAdminRequest struct {
	AdminID uuid.UUID `json:"admin_id"`
	Message string    `json:"message"`
}

// ContactAdminHandler lets a Manager send a message to a chosen Admin. The
// attempt is stored regardless; if email delivery fails the record survives
// and the response says so.
func ContactAdminHandler(notifier *AdminNotifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := auth.CurrentPrincipal(c)
		if err != nil {
			return err
		}
		if err := authz.Require(p, authz.ActionContactAdmin); err != nil {
			return err
		}

		var body ContactAdminRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		body.Message = strings.TrimSpace(body.Message)
		if body.AdminID == uuid.Nil || body.Message == "" {
			return apperr.New(apperr.CodeValidation, "admin_id and message are required")
		}

		var admin models.User
		if err := database.DB.First(&admin, "id = ?", body.AdminID).Error; err != nil {
			return apperr.New(apperr.CodeNotFound, "admin not found")
		}
		var adminRole models.UserRole
		if err := database.DB.Where("user_id = ?", admin.ID).First(&adminRole).Error; err != nil || adminRole.Role != models.RoleAdmin {
			return apperr.New(apperr.CodeValidation, "the selected recipient is not an Admin")
		}

		var sender models.User
		if err := database.DB.First(&sender, "id = ?", p.UserID).Error; err != nil {
			return apperr.New(apperr.CodeNotFound, "user not found")
		}

		attempt := models.ContactAttempt{
			UserID:  p.UserID,
			AdminID: admin.ID,
			Message: body.Message,
		}
		if err := database.DB.Create(&attempt).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "contact attempt could not be stored")
		}

		if err := notifier.Notify(c.Context(), &admin, sender.Username, body.Message); err != nil {
			if apperr.Is(err, apperr.CodeDeliveryFailure) {
				return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
					"message": "Message stored but delivery to the Admin failed.",
				})
			}
			return err
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"message": "Your message has been sent to the Admin.",
		})
	}
}

// ListContactAttemptsHandler returns the contact attempts addressed to the
// calling Admin, newest first.
func ListContactAttemptsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := auth.CurrentPrincipal(c)
		if err != nil {
			return err
		}
		if err := authz.Require(p, authz.ActionViewContactAttempts); err != nil {
			return err
		}

		var attempts []models.ContactAttempt
		if err := database.DB.Preload("User").
			Where("admin_id = ?", p.UserID).
			Order("created_at DESC").
			Find(&attempts).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "contact attempts could not be listed")
		}

		res := make([]fiber.Map, 0, len(attempts))
		for _, a := range attempts {
			res = append(res, fiber.Map{
				"id":        a.ID,
				"sender":    a.User.Username,
				"message":   a.Message,
				"timestamp": a.CreatedAt,
			})
		}
		return c.JSON(res)
	}
}

type notificationItem struct {
	ID        uint      `json:"id"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// NotificationsHandler drains the caller's unread notifications: it returns
// them and flags them read in the same transaction, so a repeat call comes
// back empty.
func NotificationsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := auth.CurrentPrincipal(c)
		if err != nil {
			return err
		}
		if err := authz.Require(p, authz.ActionViewNotifications); err != nil {
			return err
		}

		var items []notificationItem
		err = database.DB.Transaction(func(tx *gorm.DB) error {
			var unread []models.Notification
			if err := tx.Where("user_id = ? AND is_read = ?", p.UserID, false).
				Order("created_at ASC").
				Find(&unread).Error; err != nil {
				return err
			}
			if len(unread) == 0 {
				return nil
			}

			ids := make([]uint, 0, len(unread))
			for _, n := range unread {
				ids = append(ids, n.ID)
				items = append(items, notificationItem{
					ID:        n.ID,
					Message:   n.Message,
					CreatedAt: n.CreatedAt,
				})
			}
			return tx.Model(&models.Notification{}).
				Where("id IN ?", ids).
				Update("is_read", true).Error
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "notifications could not be read")
		}

		if len(items) == 0 {
			return c.JSON(fiber.Map{"message": "No unread notifications."})
		}
		return c.JSON(items)
	}
}
