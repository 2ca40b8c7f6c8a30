package users

import (
	"strings"
	"time"

	"fleettrack-backend/internal/apperr"
	"fleettrack-backend/internal/auth"
	"fleettrack-backend/internal/authz"
	"fleettrack-backend/internal/database"
	"fleettrack-backend/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type RegisterRequest struct {
	Email         string   `json:"email" validate:"required,email"`
	Username      string   `json:"username" validate:"required"`
	Password      string   `json:"password" validate:"required,min=8"`
	ContactNumber *string  `json:"contact_number" validate:"omitempty,min=10,max=15"`
	SalaryDetails *float64 `json:"salary_details"`
	UserType      string   `json:"user_type" validate:"required"`
	BranchID      *uint    `json:"branch"`
}

type UpdateUserRequest struct {
	Email         *string    `json:"email" validate:"omitempty,email"`
	Username      *string    `json:"username"`
	Password      *string    `json:"password" validate:"omitempty,min=8"`
	ContactNumber *string    `json:"contact_number"`
	SalaryDetails *float64   `json:"salary_details"`
	DateOfJoining *time.Time `json:"date_of_joining"`
	UserType      *string    `json:"user_type"`
	BranchID      *uint      `json:"branch"`
}

type userResponse struct {
	ID            uuid.UUID  `json:"id"`
	Email         string     `json:"email"`
	Username      string     `json:"username"`
	ContactNumber *string    `json:"contact_number"`
	DateOfJoining time.Time  `json:"date_of_joining"`
	SalaryDetails *float64   `json:"salary_details"`
	UserType      models.Role `json:"user_type"`
	Branch        string     `json:"branch"`
}

// branchHasManager reports whether a Manager other than excludeUserID already
// owns the branch. The unique index on user_roles.branch_id is the final
// arbiter under concurrent writes; this check turns the common case into a
// readable validation error.
func branchHasManager(db *gorm.DB, branchID uint, excludeUserID uuid.UUID) (bool, error) {
	var count int64
	err := db.Model(&models.UserRole{}).
		Where("role = ? AND branch_id = ? AND user_id <> ?", models.RoleManager, branchID, excludeUserID).
		Count(&count).Error
	return count > 0, err
}

func toUserResponse(u *models.User, role *models.UserRole) userResponse {
	resp := userResponse{
		ID:            u.ID,
		Email:         u.Email,
		Username:      u.Username,
		ContactNumber: u.ContactNumber,
		DateOfJoining: u.DateOfJoining,
		SalaryDetails: u.SalaryDetails,
	}
	if role != nil {
		resp.UserType = role.Role
		if role.Branch != nil {
			resp.Branch = role.Branch.Name
		}
	}
	return resp
}

// RegisterHandler creates a user together with its role assignment. Admin
// only. A Manager must come with a branch and takes exclusive ownership of
// it; any other role must come without one.
func RegisterHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := auth.CurrentPrincipal(c)
		if err != nil {
			return err
		}
		if err := authz.Require(p, authz.ActionCreateUser); err != nil {
			return err
		}

		var body RegisterRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		body.Email = strings.TrimSpace(strings.ToLower(body.Email))
		body.Username = strings.TrimSpace(body.Username)
		if err := validator.New().Struct(body); err != nil {
			return apperr.Wrap(apperr.CodeValidation, "invalid user payload", err)
		}

		role := models.Role(body.UserType)
		if !role.Valid() {
			return apperr.Newf(apperr.CodeValidation, "invalid user type: %s", body.UserType)
		}

		var branch *models.Branch
		if role == models.RoleManager {
			if body.BranchID == nil {
				return apperr.New(apperr.CodeValidation, "branch must be provided for a Manager")
			}
			var b models.Branch
			if err := database.DB.First(&b, "id = ?", *body.BranchID).Error; err != nil {
				return apperr.New(apperr.CodeNotFound, "branch not found")
			}
			branch = &b

			taken, err := branchHasManager(database.DB, b.ID, uuid.Nil)
			if err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "branch lookup failed")
			}
			if taken {
				return apperr.Newf(apperr.CodeValidation, "the branch '%s' already has a Manager", b.Name)
			}
		} else if body.BranchID != nil {
			return apperr.Newf(apperr.CodeValidation, "a branch cannot be assigned to a user with the '%s' user type", role)
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "password hashing failed")
		}

		user := models.User{
			Email:         body.Email,
			Username:      body.Username,
			PasswordHash:  string(hash),
			ContactNumber: body.ContactNumber,
			SalaryDetails: body.SalaryDetails,
			IsActive:      true,
		}
		roleRec := models.UserRole{Role: role}
		if branch != nil {
			roleRec.BranchID = &branch.ID
			roleRec.Branch = branch
		}

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&user).Error; err != nil {
				return err
			}
			roleRec.UserID = user.ID
			return tx.Create(&roleRec).Error
		})
		if err != nil {
			// Unique indexes (email, username, contact number, branch
			// manager) are the final arbiter under concurrent writes.
			return apperr.Wrap(apperr.CodeValidation, "user could not be created", err)
		}

		return c.Status(fiber.StatusCreated).JSON(toUserResponse(&user, &roleRec))
	}
}

// UpdateUserHandler applies a partial profile update, guarded by the
// self-modification and cross-role rules.
func UpdateUserHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := auth.CurrentPrincipal(c)
		if err != nil {
			return err
		}
		if err := authz.Require(p, authz.ActionUpdateUser); err != nil {
			return err
		}

		targetID, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return apperr.New(apperr.CodeValidation, "invalid user id")
		}

		var user models.User
		if err := database.DB.First(&user, "id = ?", targetID).Error; err != nil {
			return apperr.New(apperr.CodeNotFound, "user not found")
		}
		var targetRole models.UserRole
		if err := database.DB.Where("user_id = ?", targetID).First(&targetRole).Error; err != nil {
			return apperr.New(apperr.CodeRoleNotAssigned, "user does not have a valid role assigned")
		}

		var body UpdateUserRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if err := validator.New().Struct(body); err != nil {
			return apperr.Wrap(apperr.CodeValidation, "invalid update payload", err)
		}

		patch := authz.ProfilePatch{
			Role:          body.UserType != nil,
			Branch:        body.BranchID != nil,
			DateOfJoining: body.DateOfJoining != nil,
			SalaryDetails: body.SalaryDetails != nil,
		}
		if body.UserType != nil {
			requested := models.Role(*body.UserType)
			if !requested.Valid() {
				return apperr.Newf(apperr.CodeValidation, "invalid user type: %s", *body.UserType)
			}
			patch.RoleValue = requested
		}
		if err := authz.CheckProfileUpdate(p, targetID, targetRole.Role, patch); err != nil {
			return err
		}

		if body.BranchID != nil {
			taken, err := branchHasManager(database.DB, *body.BranchID, targetID)
			if err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "branch lookup failed")
			}
			if taken {
				return apperr.New(apperr.CodeValidation, "the branch already has a Manager")
			}
			var b models.Branch
			if err := database.DB.First(&b, "id = ?", *body.BranchID).Error; err != nil {
				return apperr.New(apperr.CodeNotFound, "branch not found")
			}
		}

		if body.Email != nil {
			user.Email = strings.TrimSpace(strings.ToLower(*body.Email))
		}
		if body.Username != nil {
			user.Username = strings.TrimSpace(*body.Username)
		}
		if body.ContactNumber != nil {
			user.ContactNumber = body.ContactNumber
		}
		if body.SalaryDetails != nil {
			user.SalaryDetails = body.SalaryDetails
		}
		if body.DateOfJoining != nil {
			user.DateOfJoining = *body.DateOfJoining
		}
		if body.Password != nil {
			hash, err := bcrypt.GenerateFromPassword([]byte(*body.Password), bcrypt.DefaultCost)
			if err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "password hashing failed")
			}
			user.PasswordHash = string(hash)
		}

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Save(&user).Error; err != nil {
				return err
			}
			if body.UserType != nil {
				targetRole.Role = patch.RoleValue
				// demotion releases the branch so a future Manager can take it
				if patch.RoleValue != models.RoleManager {
					targetRole.BranchID = nil
				}
			}
			if body.BranchID != nil {
				targetRole.BranchID = body.BranchID
			}
			if body.UserType != nil || body.BranchID != nil {
				return tx.Save(&targetRole).Error
			}
			return nil
		})
		if err != nil {
			return apperr.Wrap(apperr.CodeValidation, "user could not be updated", err)
		}

		if targetRole.BranchID != nil {
			database.DB.Preload("Branch").First(&targetRole, targetRole.ID)
		}
		return c.JSON(toUserResponse(&user, &targetRole))
	}
}

// ManagerDeleteHandler removes a Manager account. The role record,
// notifications and contact attempts go with it via the cascade constraints.
func ManagerDeleteHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := auth.CurrentPrincipal(c)
		if err != nil {
			return err
		}
		if err := authz.Require(p, authz.ActionDeleteManager); err != nil {
			return err
		}

		targetID, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return apperr.New(apperr.CodeValidation, "invalid user id")
		}

		var role models.UserRole
		if err := database.DB.Where("user_id = ?", targetID).First(&role).Error; err != nil {
			return apperr.New(apperr.CodeNotFound, "manager not found")
		}
		if role.Role != models.RoleManager {
			return apperr.New(apperr.CodeValidation, "user is not a Manager")
		}

		if err := database.DB.Delete(&models.User{}, "id = ?", targetID).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "manager could not be deleted")
		}
		return c.JSON(fiber.Map{"message": "Manager deleted successfully."})
	}
}

// ListManagersHandler lists every Manager with its branch.
func ListManagersHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := auth.CurrentPrincipal(c)
		if err != nil {
			return err
		}
		if err := authz.Require(p, authz.ActionListManagers); err != nil {
			return err
		}

		var roles []models.UserRole
		if err := database.DB.Preload("Branch").
			Joins("JOIN users ON users.id = user_roles.user_id").
			Where("user_roles.role = ?", models.RoleManager).
			Find(&roles).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "managers could not be listed")
		}

		res := make([]fiber.Map, 0, len(roles))
		for _, r := range roles {
			var u models.User
			if err := database.DB.First(&u, "id = ?", r.UserID).Error; err != nil {
				continue
			}
			entry := fiber.Map{
				"user": fiber.Map{
					"id":              u.ID,
					"username":        u.Username,
					"email":           u.Email,
					"date_of_joining": u.DateOfJoining,
					"salary_details":  u.SalaryDetails,
				},
			}
			if r.Branch != nil {
				entry["branch"] = fiber.Map{
					"id":       r.Branch.ID,
					"name":     r.Branch.Name,
					"location": r.Branch.Location,
				}
			}
			res = append(res, entry)
		}
		return c.JSON(res)
	}
}

// ListAdminsHandler lists Admin accounts; Managers use it to pick a
// recipient for the contact workflow.
func ListAdminsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := auth.CurrentPrincipal(c)
		if err != nil {
			return err
		}
		if err := authz.Require(p, authz.ActionListAdmins); err != nil {
			return err
		}

		var admins []models.User
		if err := database.DB.
			Joins("JOIN user_roles ON user_roles.user_id = users.id").
			Where("user_roles.role = ?", models.RoleAdmin).
			Find(&admins).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "admins could not be listed")
		}

		res := make([]fiber.Map, 0, len(admins))
		for _, a := range admins {
			res = append(res, fiber.Map{
				"id":       a.ID,
				"username": a.Username,
				"email":    a.Email,
			})
		}
		return c.JSON(res)
	}
}
