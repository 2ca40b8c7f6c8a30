package users

import (
	"strings"

	"fleettrack-backend/internal/apperr"
	"fleettrack-backend/internal/database"
	"fleettrack-backend/internal/models"
	"fleettrack-backend/internal/otp"

	"github.com/gofiber/fiber/v2"
)

type SendOTPRequest struct {
	ContactNumber string `json:"contact_number"`
}

type VerifyOTPRequest struct {
	ContactNumber string `json:"contact_number"`
	OTP           string `json:"otp"`
}

// SendOTPHandler starts the staff OTP login: a code is cached and texted to
// the registered contact number.
func SendOTPHandler(svc *otp.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body SendOTPRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		body.ContactNumber = strings.TrimSpace(body.ContactNumber)
		if body.ContactNumber == "" {
			return apperr.New(apperr.CodeValidation, "contact_number is required")
		}

		if err := svc.Request(c.Context(), body.ContactNumber); err != nil {
			return err
		}
		return c.JSON(fiber.Map{"message": "OTP sent successfully."})
	}
}

// VerifyOTPHandler finishes the staff OTP login and returns the caller's
// long-lived token with the profile summary.
func VerifyOTPHandler(svc *otp.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body VerifyOTPRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		body.ContactNumber = strings.TrimSpace(body.ContactNumber)
		body.OTP = strings.TrimSpace(body.OTP)
		if body.ContactNumber == "" || body.OTP == "" {
			return apperr.New(apperr.CodeValidation, "contact_number and otp are required")
		}

		result, err := svc.Verify(c.Context(), body.ContactNumber, body.OTP)
		if err != nil {
			return err
		}

		var user models.User
		if err := database.DB.First(&user, "id = ?", result.AccountID).Error; err != nil {
			return apperr.New(apperr.CodeNotFound, "user not found")
		}
		var role models.UserRole
		if err := database.DB.Where("user_id = ?", user.ID).First(&role).Error; err != nil {
			return apperr.New(apperr.CodeNotFound, "user role not found")
		}

		return c.JSON(fiber.Map{
			"message":   "OTP verified successfully.",
			"token":     result.Token,
			"user_id":   user.ID,
			"email":     user.Email,
			"username":  user.Username,
			"user_type": role.Role,
		})
	}
}
