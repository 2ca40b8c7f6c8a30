package auth

import (
	"time"

	"fleettrack-backend/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

type JWTCustomClaims struct {
	UserID   string       `json:"user_id"`
	Email    string       `json:"email"`
	Role     models.Role  `json:"role,omitempty"`
	BranchID *uint        `json:"branch_id,omitempty"`
	jwt.RegisteredClaims
}

func GenerateToken(secret string, user *models.User, role *models.UserRole) (string, error) {
	claims := &JWTCustomClaims{
		UserID: user.ID.String(),
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	if role != nil {
		claims.Role = role.Role
		claims.BranchID = role.BranchID
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}
