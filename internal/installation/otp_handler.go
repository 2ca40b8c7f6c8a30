package installation

import (
	"strings"

	"fleettrack-backend/internal/apperr"
	"fleettrack-backend/internal/auth"
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

// SendOTPHandler starts the vehicle OTP flow for the owner's registered
// contact number.
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

// VerifyOTPHandler finishes the vehicle OTP flow and returns the vehicle's
// long-lived token alongside the installation summary.
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

		var inst models.VehicleInstallation
		if err := database.DB.First(&inst, "id = ?", result.AccountID).Error; err != nil {
			return apperr.New(apperr.CodeNotFound, "installation not found")
		}

		return c.JSON(fiber.Map{
			"message":             "OTP verified successfully.",
			"token":               result.Token,
			"vehicle_id":          inst.ID,
			"registration_number": inst.RegistrationNumber,
			"username":            inst.OwnerName,
			"status":              inst.Status,
		})
	}
}

// MyInstallationHandler returns the authenticated vehicle's own record.
func MyInstallationHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		vehicleID, err := auth.CurrentVehicleID(c)
		if err != nil {
			return err
		}

		var inst models.VehicleInstallation
		if err := database.DB.Preload("Branch").First(&inst, "id = ?", vehicleID).Error; err != nil {
			return apperr.New(apperr.CodeNotFound, "installation not found")
		}
		return c.JSON(inst)
	}
}

// MyStatusHandler returns just the authenticated vehicle's current status.
func MyStatusHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		vehicleID, err := auth.CurrentVehicleID(c)
		if err != nil {
			return err
		}

		var inst models.VehicleInstallation
		if err := database.DB.First(&inst, "id = ?", vehicleID).Error; err != nil {
			return apperr.New(apperr.CodeNotFound, "installation not found")
		}
		return c.JSON(fiber.Map{
			"vehicle_id":          inst.ID,
			"registration_number": inst.RegistrationNumber,
			"status":              inst.Status,
		})
	}
}
