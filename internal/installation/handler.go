package installation

import (
	"strings"

	"fleettrack-backend/internal/apperr"
	"fleettrack-backend/internal/auth"
	"fleettrack-backend/internal/authz"
	"fleettrack-backend/internal/database"
	"fleettrack-backend/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

type CreateInstallationRequest struct {
	OwnerName          string  `json:"owner_name" validate:"required"`
	ContactNumber      string  `json:"contact_number" validate:"required,min=10,max=15"`
	VehicleClass       string  `json:"vehicle_class" validate:"required"`
	RegistrationNumber string  `json:"registration_number" validate:"required"`
	InsuranceDetails   string  `json:"insurance_details"`
	Status             *string `json:"status"`
	BranchID           *uint   `json:"branch"`
}

type UpdateInstallationRequest struct {
	OwnerName        *string `json:"owner_name"`
	ContactNumber    *string `json:"contact_number" validate:"omitempty,min=10,max=15"`
	VehicleClass     *string `json:"vehicle_class"`
	InsuranceDetails *string `json:"insurance_details"`
	Status           *string `json:"status"`
	BranchID         *uint   `json:"branch"`
}

// CreateInstallationHandler registers a new vehicle installation. Admin only;
// the installation timestamp is set by the database, never by the caller.
func CreateInstallationHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := auth.CurrentPrincipal(c)
		if err != nil {
			return err
		}
		if err := authz.Require(p, authz.ActionCreateInstallation); err != nil {
			return err
		}

		var body CreateInstallationRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		body.RegistrationNumber = strings.TrimSpace(strings.ToUpper(body.RegistrationNumber))
		if err := validator.New().Struct(body); err != nil {
			return apperr.Wrap(apperr.CodeValidation, "invalid installation payload", err)
		}

		class := models.VehicleClass(body.VehicleClass)
		if !class.Valid() {
			return apperr.Newf(apperr.CodeValidation, "invalid vehicle class: %s", body.VehicleClass)
		}
		status := models.StatusActive
		if body.Status != nil {
			status = models.InstallationStatus(*body.Status)
			if !status.Valid() {
				return apperr.Newf(apperr.CodeValidation, "invalid status: %s", *body.Status)
			}
		}
		if body.BranchID != nil {
			var b models.Branch
			if err := database.DB.First(&b, "id = ?", *body.BranchID).Error; err != nil {
				return apperr.New(apperr.CodeNotFound, "branch not found")
			}
		}

		inst := models.VehicleInstallation{
			OwnerName:          body.OwnerName,
			ContactNumber:      body.ContactNumber,
			VehicleClass:       class,
			RegistrationNumber: body.RegistrationNumber,
			InsuranceDetails:   body.InsuranceDetails,
			Status:             status,
			BranchID:           body.BranchID,
		}
		if err := database.DB.Create(&inst).Error; err != nil {
			return apperr.Wrap(apperr.CodeValidation, "installation could not be created; the registration number may already exist", err)
		}

		return c.Status(fiber.StatusCreated).JSON(inst)
	}
}

// UpdateInstallationHandler applies a partial update. Managers may only touch
// installations of their own branch and cannot move a record between
// branches; the installation timestamp is immutable.
func UpdateInstallationHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := auth.CurrentPrincipal(c)
		if err != nil {
			return err
		}

		var inst models.VehicleInstallation
		if err := database.DB.First(&inst, "id = ?", c.Params("id")).Error; err != nil {
			return apperr.New(apperr.CodeNotFound, "installation not found")
		}
		if err := authz.RequireBranch(p, authz.ActionUpdateInstallation, inst.BranchID); err != nil {
			return err
		}

		var body UpdateInstallationRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if err := validator.New().Struct(body); err != nil {
			return apperr.Wrap(apperr.CodeValidation, "invalid update payload", err)
		}

		if body.BranchID != nil {
			if p.Role != models.RoleAdmin {
				return apperr.New(apperr.CodePermissionDenied, "only an Admin can move an installation between branches")
			}
			var b models.Branch
			if err := database.DB.First(&b, "id = ?", *body.BranchID).Error; err != nil {
				return apperr.New(apperr.CodeNotFound, "branch not found")
			}
			inst.BranchID = body.BranchID
		}
		if body.OwnerName != nil {
			inst.OwnerName = *body.OwnerName
		}
		if body.ContactNumber != nil {
			inst.ContactNumber = *body.ContactNumber
		}
		if body.VehicleClass != nil {
			class := models.VehicleClass(*body.VehicleClass)
			if !class.Valid() {
				return apperr.Newf(apperr.CodeValidation, "invalid vehicle class: %s", *body.VehicleClass)
			}
			inst.VehicleClass = class
		}
		if body.InsuranceDetails != nil {
			inst.InsuranceDetails = *body.InsuranceDetails
		}
		if body.Status != nil {
			status := models.InstallationStatus(*body.Status)
			if !status.Valid() {
				return apperr.Newf(apperr.CodeValidation, "invalid status: %s", *body.Status)
			}
			inst.Status = status
		}

		if err := database.DB.Save(&inst).Error; err != nil {
			return apperr.Wrap(apperr.CodeValidation, "installation could not be updated", err)
		}
		return c.JSON(inst)
	}
}

// ListInstallationsHandler lists installations: Admins see the whole fleet,
// Managers only their branch.
func ListInstallationsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := auth.CurrentPrincipal(c)
		if err != nil {
			return err
		}
		if err := authz.Require(p, authz.ActionListInstallations); err != nil {
			return err
		}

		query := database.DB.Preload("Branch").Order("datetime_installed DESC, id DESC")
		if p.Role == models.RoleManager {
			if p.BranchID == nil {
				return apperr.New(apperr.CodePermissionDenied, "no branch is assigned to your account")
			}
			query = query.Where("branch_id = ?", *p.BranchID)
		}

		var installations []models.VehicleInstallation
		if err := query.Find(&installations).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "installations could not be listed")
		}

		return c.JSON(fiber.Map{
			"count":         len(installations),
			"installations": installations,
		})
	}
}

// DeleteInstallationHandler removes an installation. Admin only; the vehicle
// token, if any, goes with it via the cascade constraint.
func DeleteInstallationHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := auth.CurrentPrincipal(c)
		if err != nil {
			return err
		}
		if err := authz.Require(p, authz.ActionDeleteInstallation); err != nil {
			return err
		}

		var inst models.VehicleInstallation
		if err := database.DB.First(&inst, "id = ?", c.Params("id")).Error; err != nil {
			return apperr.New(apperr.CodeNotFound, "installation not found")
		}
		if err := database.DB.Delete(&inst).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "installation could not be deleted")
		}
		return c.JSON(fiber.Map{"message": "Installation deleted successfully."})
	}
}
