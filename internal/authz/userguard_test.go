package authz

import (
	"testing"

	"fleettrack-backend/internal/apperr"
	"fleettrack-backend/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckProfileUpdate(t *testing.T) {
	adminID := uuid.New()
	managerID := uuid.New()
	otherID := uuid.New()

	admin := &Principal{UserID: adminID, Role: models.RoleAdmin}
	manager := &Principal{UserID: managerID, Role: models.RoleManager, BranchID: uintPtr(1)}

	tests := []struct {
		name       string
		actor      *Principal
		targetID   uuid.UUID
		targetRole models.Role
		patch      ProfilePatch
		wantCode   apperr.Code
	}{
		{
			name:  "admin updates plain fields on another user",
			actor: admin, targetID: otherID, targetRole: models.RoleNormalUser,
			patch: ProfilePatch{},
		},
		{
			name:  "admin cannot change own role",
			actor: admin, targetID: adminID, targetRole: models.RoleAdmin,
			patch:    ProfilePatch{Role: true, RoleValue: models.RoleManager},
			wantCode: apperr.CodePermissionDenied,
		},
		{
			name:  "admin cannot change own branch",
			actor: admin, targetID: adminID, targetRole: models.RoleAdmin,
			patch:    ProfilePatch{Branch: true},
			wantCode: apperr.CodePermissionDenied,
		},
		{
			name:  "admin cannot change own salary details",
			actor: admin, targetID: adminID, targetRole: models.RoleAdmin,
			patch:    ProfilePatch{SalaryDetails: true},
			wantCode: apperr.CodePermissionDenied,
		},
		{
			name:  "admin cannot change own date of joining",
			actor: admin, targetID: adminID, targetRole: models.RoleAdmin,
			patch:    ProfilePatch{DateOfJoining: true},
			wantCode: apperr.CodePermissionDenied,
		},
		{
			name:  "admin may change another user's salary details",
			actor: admin, targetID: otherID, targetRole: models.RoleManager,
			patch: ProfilePatch{SalaryDetails: true},
		},
		{
			name:  "admin cannot promote another user to Admin",
			actor: admin, targetID: otherID, targetRole: models.RoleManager,
			patch:    ProfilePatch{Role: true, RoleValue: models.RoleAdmin},
			wantCode: apperr.CodeValidation,
		},
		{
			name:  "admin may demote a manager",
			actor: admin, targetID: otherID, targetRole: models.RoleManager,
			patch: ProfilePatch{Role: true, RoleValue: models.RoleNormalUser},
		},
		{
			name:  "manager updates plain fields on a normal user",
			actor: manager, targetID: otherID, targetRole: models.RoleNormalUser,
			patch: ProfilePatch{},
		},
		{
			name:  "manager never modifies an admin profile",
			actor: manager, targetID: otherID, targetRole: models.RoleAdmin,
			patch:    ProfilePatch{},
			wantCode: apperr.CodePermissionDenied,
		},
		{
			name:  "manager cannot change anyone's salary details",
			actor: manager, targetID: otherID, targetRole: models.RoleNormalUser,
			patch:    ProfilePatch{SalaryDetails: true},
			wantCode: apperr.CodePermissionDenied,
		},
		{
			name:  "manager cannot change own branch",
			actor: manager, targetID: managerID, targetRole: models.RoleManager,
			patch:    ProfilePatch{Branch: true},
			wantCode: apperr.CodePermissionDenied,
		},
		{
			name:  "manager cannot change own date of joining",
			actor: manager, targetID: managerID, targetRole: models.RoleManager,
			patch:    ProfilePatch{DateOfJoining: true},
			wantCode: apperr.CodePermissionDenied,
		},
		{
			name:  "admin cannot assign a branch to a normal user",
			actor: admin, targetID: otherID, targetRole: models.RoleNormalUser,
			patch:    ProfilePatch{Branch: true},
			wantCode: apperr.CodeValidation,
		},
		{
			name:  "admin cannot keep a branch while demoting a manager",
			actor: admin, targetID: otherID, targetRole: models.RoleManager,
			patch:    ProfilePatch{Role: true, RoleValue: models.RoleNormalUser, Branch: true},
			wantCode: apperr.CodeValidation,
		},
		{
			name:  "admin may move a manager to another branch",
			actor: admin, targetID: otherID, targetRole: models.RoleManager,
			patch: ProfilePatch{Branch: true},
		},
		{
			name:  "admin may promote a normal user to manager with a branch",
			actor: admin, targetID: otherID, targetRole: models.RoleNormalUser,
			patch: ProfilePatch{Role: true, RoleValue: models.RoleManager, Branch: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckProfileUpdate(tt.actor, tt.targetID, tt.targetRole, tt.patch)
			if tt.wantCode == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, apperr.Is(err, tt.wantCode), "got %v", err)
		})
	}
}
