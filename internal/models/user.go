package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Role string

const (
	RoleAdmin      Role = "Admin"
	RoleManager    Role = "Manager"
	RoleNormalUser Role = "Normal User"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleNormalUser:
		return true
	}
	return false
}

type User struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Username      string    `gorm:"size:150;uniqueIndex;not null" json:"username"`
	Email         string    `gorm:"size:100;uniqueIndex;not null" json:"email"`
	PasswordHash  string    `gorm:"size:255;not null" json:"-"`
	ContactNumber *string   `gorm:"size:15;uniqueIndex" json:"contact_number"`
	DateOfJoining time.Time `gorm:"autoCreateTime" json:"date_of_joining"`
	SalaryDetails *float64  `json:"salary_details"`
	IsActive      bool      `gorm:"default:true" json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	Role *UserRole `gorm:"constraint:OnDelete:CASCADE" json:"role,omitempty"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// UserRole assigns exactly one role to a user. BranchID is set only for
// Managers; the unique index is the final arbiter of the one-manager-per-branch
// invariant (NULLs do not collide under Postgres unique indexes).
type UserRole struct {
	ID       uint      `gorm:"primaryKey" json:"-"`
	UserID   uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"-"`
	Role     Role      `gorm:"size:25;not null" json:"role"`
	BranchID *uint     `gorm:"uniqueIndex" json:"branch_id"`
	Branch   *Branch   `gorm:"constraint:OnDelete:SET NULL" json:"branch,omitempty"`
}

// AuthToken is the long-lived opaque credential minted by the OTP flow.
// One per user; verification is idempotent and always hands back the same value.
type AuthToken struct {
	ID        uint      `gorm:"primaryKey"`
	UserID    uuid.UUID `gorm:"type:uuid;uniqueIndex;not null"`
	User      *User     `gorm:"constraint:OnDelete:CASCADE"`
	Token     string    `gorm:"size:36;uniqueIndex;not null"`
	CreatedAt time.Time
}
