package installation

import (
	"strconv"

	"fleettrack-backend/internal/apperr"
	"fleettrack-backend/internal/auth"
	"fleettrack-backend/internal/authz"
	"fleettrack-backend/internal/database"
	"fleettrack-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

const defaultRecentLimit = 5

func recentLimit(c *fiber.Ctx) int {
	limit := defaultRecentLimit
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}
	return limit
}

// RecentInstallationsHandler returns the newest installations. Admins see the
// fleet-wide tail, Managers the tail of their own branch. Ties on the install
// timestamp break on the higher id, so the ordering is total.
func RecentInstallationsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := auth.CurrentPrincipal(c)
		if err != nil {
			return err
		}
		if err := authz.Require(p, authz.ActionViewRecent); err != nil {
			return err
		}

		query := database.DB.Preload("Branch").
			Order("datetime_installed DESC, id DESC").
			Limit(recentLimit(c))
		if p.Role == models.RoleManager {
			if p.BranchID == nil {
				return apperr.New(apperr.CodePermissionDenied, "no branch is assigned to your account")
			}
			query = query.Where("branch_id = ?", *p.BranchID)
		}

		var installations []models.VehicleInstallation
		if err := query.Find(&installations).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "recent installations could not be listed")
		}
		return c.JSON(installations)
	}
}

// BranchWiseRecentHandler returns, for each branch, its single most recent
// installation. Admin only.
func BranchWiseRecentHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := auth.CurrentPrincipal(c)
		if err != nil {
			return err
		}
		if err := authz.Require(p, authz.ActionViewBranchWiseRecent); err != nil {
			return err
		}

		var installations []models.VehicleInstallation
		err = database.DB.Raw(`
			SELECT DISTINCT ON (branch_id) *
			FROM vehicle_installations
			WHERE branch_id IS NOT NULL
			ORDER BY branch_id, datetime_installed DESC, id DESC`).
			Scan(&installations).Error
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "branch-wise recent installations could not be listed")
		}

		res := make([]fiber.Map, 0, len(installations))
		for _, inst := range installations {
			var branch models.Branch
			entry := fiber.Map{"installation": inst}
			if inst.BranchID != nil {
				if err := database.DB.First(&branch, "id = ?", *inst.BranchID).Error; err == nil {
					entry["branch"] = fiber.Map{"id": branch.ID, "name": branch.Name}
				}
			}
			res = append(res, entry)
		}
		return c.JSON(res)
	}
}

// BranchRecentHandler returns the recent installations of one branch. Only
// the Manager who owns that branch may call it.
func BranchRecentHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := auth.CurrentPrincipal(c)
		if err != nil {
			return err
		}

		branchID64, err := strconv.ParseUint(c.Params("id"), 10, 32)
		if err != nil {
			return apperr.New(apperr.CodeValidation, "invalid branch id")
		}
		branchID := uint(branchID64)

		var branch models.Branch
		if err := database.DB.First(&branch, "id = ?", branchID).Error; err != nil {
			return apperr.New(apperr.CodeNotFound, "branch not found")
		}
		if err := authz.RequireBranch(p, authz.ActionViewBranchRecent, &branchID); err != nil {
			return err
		}

		var installations []models.VehicleInstallation
		if err := database.DB.
			Where("branch_id = ?", branchID).
			Order("datetime_installed DESC, id DESC").
			Limit(recentLimit(c)).
			Find(&installations).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "recent installations could not be listed")
		}

		return c.JSON(fiber.Map{
			"branch":        fiber.Map{"id": branch.ID, "name": branch.Name, "location": branch.Location},
			"installations": installations,
		})
	}
}
