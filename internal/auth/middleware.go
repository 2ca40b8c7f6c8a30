package auth

import (
	"fmt"
	"strings"

	"fleettrack-backend/internal/apperr"
	"fleettrack-backend/internal/authz"
	"fleettrack-backend/internal/config"
	"fleettrack-backend/internal/database"
	"fleettrack-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	CtxUserIDKey    = "user_id"
	CtxVehicleIDKey = "vehicle_id"
)

// parseAuthHeader splits an Authorization header into its scheme (lowercased)
// and credential value.
func parseAuthHeader(header string) (scheme, value string, err error) {
	if header == "" {
		return "", "", apperr.New(apperr.CodeUnauthenticated, "authorization header missing")
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || strings.TrimSpace(parts[1]) == "" {
		return "", "", apperr.New(apperr.CodeUnauthenticated, "authorization header must be '<scheme> <credential>'")
	}
	return strings.ToLower(parts[0]), strings.TrimSpace(parts[1]), nil
}

// UserAuthMiddleware authenticates staff requests. Two credential schemes are
// accepted: "Bearer <jwt>" from password login, and "Token <opaque>" minted by
// the OTP flow.
func UserAuthMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		scheme, credential, err := parseAuthHeader(c.Get("Authorization"))
		if err != nil {
			return err
		}

		switch scheme {
		case "bearer":
			token, err := jwt.ParseWithClaims(credential, &JWTCustomClaims{}, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method")
				}
				return []byte(cfg.JWTSecret), nil
			})
			if err != nil || !token.Valid {
				return apperr.New(apperr.CodeUnauthenticated, "invalid or expired token")
			}
			claims, ok := token.Claims.(*JWTCustomClaims)
			if !ok {
				return apperr.New(apperr.CodeUnauthenticated, "invalid token claims")
			}
			userID, err := uuid.Parse(claims.UserID)
			if err != nil {
				return apperr.New(apperr.CodeUnauthenticated, "invalid token subject")
			}
			c.Locals(CtxUserIDKey, userID)

		case "token":
			var authToken models.AuthToken
			if err := database.DB.Where("token = ?", credential).First(&authToken).Error; err != nil {
				return apperr.New(apperr.CodeUnauthenticated, "invalid token")
			}
			c.Locals(CtxUserIDKey, authToken.UserID)

		default:
			return apperr.New(apperr.CodeUnauthenticated, "unsupported authorization scheme")
		}

		return c.Next()
	}
}

// VehicleAuthMiddleware authenticates vehicle principals via the opaque
// "Token <value>" credential minted on OTP verification.
func VehicleAuthMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		scheme, credential, err := parseAuthHeader(c.Get("Authorization"))
		if err != nil {
			return err
		}
		if scheme != "token" {
			return apperr.New(apperr.CodeUnauthenticated, "vehicle requests must use the Token scheme")
		}

		var vt models.VehicleToken
		if err := database.DB.Where("token = ?", credential).First(&vt).Error; err != nil {
			return apperr.New(apperr.CodeUnauthenticated, "invalid token")
		}
		c.Locals(CtxVehicleIDKey, vt.VehicleID)

		return c.Next()
	}
}

// CurrentUserID returns the authenticated user id placed by the middleware.
func CurrentUserID(c *fiber.Ctx) (uuid.UUID, error) {
	id, ok := c.Locals(CtxUserIDKey).(uuid.UUID)
	if !ok {
		return uuid.Nil, apperr.New(apperr.CodeUnauthenticated, "authentication required")
	}
	return id, nil
}

// CurrentVehicleID returns the authenticated vehicle id placed by the
// middleware.
func CurrentVehicleID(c *fiber.Ctx) (uint, error) {
	id, ok := c.Locals(CtxVehicleIDKey).(uint)
	if !ok {
		return 0, apperr.New(apperr.CodeUnauthenticated, "authentication required")
	}
	return id, nil
}

// CurrentPrincipal resolves the caller into an authorization principal. The
// role lookup happens here, so a missing role record surfaces as the distinct
// RoleNotAssigned deny.
func CurrentPrincipal(c *fiber.Ctx) (*authz.Principal, error) {
	userID, err := CurrentUserID(c)
	if err != nil {
		return nil, err
	}
	engine := authz.NewEngine(authz.GormRoleLookup(database.DB))
	return engine.Resolve(c.Context(), userID)
}
