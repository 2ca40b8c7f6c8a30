package admin

import (
	"strings"

	"fleettrack-backend/internal/apperr"
	"fleettrack-backend/internal/auth"
	"fleettrack-backend/internal/authz"
	"fleettrack-backend/internal/database"
	"fleettrack-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type BranchRequest struct {
	Name     string `json:"name"`
	Location string `json:"location"`
}

func requireBranchAdmin(c *fiber.Ctx) error {
	p, err := auth.CurrentPrincipal(c)
	if err != nil {
		return err
	}
	return authz.Require(p, authz.ActionManageBranches)
}

func CreateBranchHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := requireBranchAdmin(c); err != nil {
			return err
		}

		var body BranchRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		body.Name = strings.TrimSpace(body.Name)
		if body.Name == "" {
			return apperr.New(apperr.CodeValidation, "branch name is required")
		}

		branch := models.Branch{Name: body.Name, Location: body.Location}
		if err := database.DB.Create(&branch).Error; err != nil {
			return apperr.Newf(apperr.CodeValidation, "a branch named '%s' already exists", body.Name)
		}
		return c.Status(fiber.StatusCreated).JSON(branch)
	}
}

func ListBranchesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := requireBranchAdmin(c); err != nil {
			return err
		}

		var branches []models.Branch
		if err := database.DB.Order("id").Find(&branches).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "branches could not be listed")
		}
		return c.JSON(branches)
	}
}

func GetBranchHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := requireBranchAdmin(c); err != nil {
			return err
		}

		var branch models.Branch
		if err := database.DB.First(&branch, "id = ?", c.Params("id")).Error; err != nil {
			return apperr.New(apperr.CodeNotFound, "branch not found")
		}
		return c.JSON(branch)
	}
}

func UpdateBranchHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := requireBranchAdmin(c); err != nil {
			return err
		}

		var branch models.Branch
		if err := database.DB.First(&branch, "id = ?", c.Params("id")).Error; err != nil {
			return apperr.New(apperr.CodeNotFound, "branch not found")
		}

		var body BranchRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if name := strings.TrimSpace(body.Name); name != "" {
			branch.Name = name
		}
		if body.Location != "" {
			branch.Location = body.Location
		}

		if err := database.DB.Save(&branch).Error; err != nil {
			return apperr.Newf(apperr.CodeValidation, "a branch named '%s' already exists", body.Name)
		}
		return c.JSON(branch)
	}
}

// DeleteBranchHandler removes a branch. Installations and manager roles that
// pointed at it fall back to a null branch via the SET NULL constraints.
func DeleteBranchHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := requireBranchAdmin(c); err != nil {
			return err
		}

		var branch models.Branch
		if err := database.DB.First(&branch, "id = ?", c.Params("id")).Error; err != nil {
			return apperr.New(apperr.CodeNotFound, "branch not found")
		}
		if err := database.DB.Delete(&branch).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "branch could not be deleted")
		}
		return c.JSON(fiber.Map{"message": "Branch deleted successfully."})
	}
}
