package auth

import (
	"strings"

	"fleettrack-backend/internal/apperr"
	"fleettrack-backend/internal/config"
	"fleettrack-backend/internal/database"
	"fleettrack-backend/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
)

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8"`
}

func LoginHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body LoginRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		body.Email = strings.TrimSpace(strings.ToLower(body.Email))
		if err := validator.New().Struct(body); err != nil {
			return apperr.New(apperr.CodeValidation, "both email and password are required")
		}

		var user models.User
		if err := database.DB.Where("email = ?", body.Email).First(&user).Error; err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid email or password")
		}
		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(body.Password)); err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid email or password")
		}

		var role *models.UserRole
		var roleRec models.UserRole
		if err := database.DB.Preload("Branch").Where("user_id = ?", user.ID).First(&roleRec).Error; err == nil {
			role = &roleRec
		}

		token, err := GenerateToken(cfg.JWTSecret, &user, role)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "token generation failed")
		}

		resp := fiber.Map{
			"message":  "Login successful.",
			"token":    token,
			"user_id":  user.ID,
			"email":    user.Email,
			"username": user.Username,
		}
		if role != nil {
			resp["user_type"] = role.Role
			if role.Branch != nil {
				resp["branch"] = role.Branch.Name
			}
		}
		return c.JSON(resp)
	}
}

// LogoutHandler revokes the caller's opaque token. JWT sessions carry no
// server-side state, so for them this only confirms the logout.
func LogoutHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := CurrentUserID(c)
		if err != nil {
			return err
		}
		database.DB.Where("user_id = ?", userID).Delete(&models.AuthToken{})
		return c.JSON(fiber.Map{"message": "Successfully logged out."})
	}
}

func ChangePasswordHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := CurrentUserID(c)
		if err != nil {
			return err
		}

		var body ChangePasswordRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if err := validator.New().Struct(body); err != nil {
			return apperr.New(apperr.CodeValidation, "old password and a new password of at least 8 characters are required")
		}

		var user models.User
		if err := database.DB.First(&user, "id = ?", userID).Error; err != nil {
			return apperr.New(apperr.CodeNotFound, "user not found")
		}
		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(body.OldPassword)); err != nil {
			return apperr.New(apperr.CodeValidation, "old password is incorrect")
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(body.NewPassword), bcrypt.DefaultCost)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "password hashing failed")
		}
		if err := database.DB.Model(&user).Update("password_hash", string(hash)).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "password update failed")
		}

		return c.JSON(fiber.Map{"message": "Password changed successfully."})
	}
}

// MeHandler returns the caller's own profile with role and branch details.
func MeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := CurrentUserID(c)
		if err != nil {
			return err
		}

		var user models.User
		if err := database.DB.Preload("Role").Preload("Role.Branch").First(&user, "id = ?", userID).Error; err != nil {
			return apperr.New(apperr.CodeNotFound, "user not found")
		}

		resp := fiber.Map{
			"user_id":         user.ID,
			"username":        user.Username,
			"email":           user.Email,
			"contact_number":  user.ContactNumber,
			"date_of_joining": user.DateOfJoining,
			"salary_details":  user.SalaryDetails,
		}
		if user.Role != nil {
			resp["user_type"] = user.Role.Role
			if user.Role.Branch != nil {
				resp["branch"] = fiber.Map{
					"id":       user.Role.Branch.ID,
					"name":     user.Role.Branch.Name,
					"location": user.Role.Branch.Location,
				}
			}
		}
		return c.JSON(resp)
	}
}
