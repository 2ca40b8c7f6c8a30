// Package authz decides whether an acting principal may perform an action.
// Roles are a closed set with an explicit capability table; call sites never
// compare role strings directly.
package authz

import (
	"context"

	"fleettrack-backend/internal/apperr"
	"fleettrack-backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Action string

const (
	ActionCreateInstallation   Action = "installation:create"
	ActionUpdateInstallation   Action = "installation:update"
	ActionDeleteInstallation   Action = "installation:delete"
	ActionListInstallations    Action = "installation:list"
	ActionViewRecent           Action = "installation:recent"
	ActionViewBranchWiseRecent Action = "installation:branch-wise-recent"
	ActionViewBranchRecent     Action = "installation:branch-recent"
	ActionCompareBranches      Action = "installation:compare"
	ActionManageBranches       Action = "branch:manage"
	ActionCreateUser           Action = "user:create"
	ActionUpdateUser           Action = "user:update"
	ActionDeleteManager        Action = "user:delete-manager"
	ActionListManagers         Action = "user:list-managers"
	ActionListAdmins           Action = "user:list-admins"
	ActionContactAdmin         Action = "contact:send"
	ActionViewContactAttempts  Action = "contact:list"
	ActionViewNotifications    Action = "notification:list"
)

// capabilities is the full permission matrix. Admins hold every system-wide
// capability; the manager-to-admin workflow and the branch-scoped report and
// recent-per-branch queries belong to Managers alone. Normal Users hold no
// administrative capability at all.
var capabilities = map[models.Role]map[Action]bool{
	models.RoleAdmin: {
		ActionCreateInstallation:   true,
		ActionUpdateInstallation:   true,
		ActionDeleteInstallation:   true,
		ActionListInstallations:    true,
		ActionViewRecent:           true,
		ActionViewBranchWiseRecent: true,
		ActionManageBranches:       true,
		ActionCreateUser:           true,
		ActionUpdateUser:           true,
		ActionDeleteManager:        true,
		ActionListManagers:         true,
		ActionListAdmins:           true,
		ActionViewContactAttempts:  true,
		ActionViewNotifications:    true,
	},
	models.RoleManager: {
		ActionUpdateInstallation: true,
		ActionListInstallations:  true,
		ActionViewRecent:         true,
		ActionViewBranchRecent:   true,
		ActionCompareBranches:    true,
		ActionUpdateUser:         true,
		ActionListAdmins:         true,
		ActionContactAdmin:       true,
	},
	models.RoleNormalUser: {},
}

// Principal is the resolved acting identity: a user together with its role
// record. A Manager's BranchID is its exclusively owned branch.
type Principal struct {
	UserID   uuid.UUID
	Role     models.Role
	BranchID *uint
}

// RoleLookup resolves the role assignment for a user. A nil result with a nil
// error means no role record exists.
type RoleLookup func(ctx context.Context, userID uuid.UUID) (*models.UserRole, error)

// GormRoleLookup reads role assignments from the persistence layer.
func GormRoleLookup(db *gorm.DB) RoleLookup {
	return func(ctx context.Context, userID uuid.UUID) (*models.UserRole, error) {
		var role models.UserRole
		err := db.WithContext(ctx).Where("user_id = ?", userID).First(&role).Error
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return &role, nil
	}
}

type Engine struct {
	roles RoleLookup
}

func NewEngine(roles RoleLookup) *Engine {
	return &Engine{roles: roles}
}

// Resolve turns an authenticated user id into a Principal. A missing role
// record is a deny with a distinct diagnostic, never a default grant.
func (e *Engine) Resolve(ctx context.Context, userID uuid.UUID) (*Principal, error) {
	role, err := e.roles(ctx, userID)
	if err != nil {
		return nil, err
	}
	if role == nil {
		return nil, apperr.New(apperr.CodeRoleNotAssigned, "user does not have a valid role assigned")
	}
	return &Principal{UserID: userID, Role: role.Role, BranchID: role.BranchID}, nil
}

// Can reports whether the role holds the capability.
func Can(role models.Role, action Action) bool {
	return capabilities[role][action]
}

// Require denies with PermissionDenied unless the principal's role holds the
// capability.
func Require(p *Principal, action Action) error {
	if p == nil {
		return apperr.New(apperr.CodeUnauthenticated, "authentication required")
	}
	if !Can(p.Role, action) {
		return apperr.New(apperr.CodePermissionDenied, "you do not have permission to perform this action")
	}
	return nil
}

// RequireBranch applies the branch-scope rule on top of the capability check:
// Admins pass for any target branch, Managers only when the target branch is
// their own. A target without a branch is reachable only by Admins.
func RequireBranch(p *Principal, action Action, targetBranch *uint) error {
	if err := Require(p, action); err != nil {
		return err
	}
	if p.Role == models.RoleAdmin {
		return nil
	}
	if p.BranchID == nil || targetBranch == nil || *p.BranchID != *targetBranch {
		return apperr.New(apperr.CodePermissionDenied, "this record belongs to another branch")
	}
	return nil
}
