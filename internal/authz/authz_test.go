package authz

import (
	"context"
	"testing"

	"fleettrack-backend/internal/apperr"
	"fleettrack-backend/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uintPtr(v uint) *uint { return &v }

func TestCapabilityTable(t *testing.T) {
	tests := []struct {
		name   string
		role   models.Role
		action Action
		want   bool
	}{
		{"admin creates installations", models.RoleAdmin, ActionCreateInstallation, true},
		{"admin deletes installations", models.RoleAdmin, ActionDeleteInstallation, true},
		{"admin manages branches", models.RoleAdmin, ActionManageBranches, true},
		{"admin views notifications", models.RoleAdmin, ActionViewNotifications, true},
		{"admin cannot use the manager contact workflow", models.RoleAdmin, ActionContactAdmin, false},
		{"admin cannot use the manager comparison report", models.RoleAdmin, ActionCompareBranches, false},
		{"admin has a dedicated per-branch recent endpoint instead", models.RoleAdmin, ActionViewBranchRecent, false},
		{"admin views the branch-wise recent digest", models.RoleAdmin, ActionViewBranchWiseRecent, true},
		{"manager cannot view the branch-wise recent digest", models.RoleManager, ActionViewBranchWiseRecent, false},
		{"manager updates installations", models.RoleManager, ActionUpdateInstallation, true},
		{"manager lists installations", models.RoleManager, ActionListInstallations, true},
		{"manager lists admins", models.RoleManager, ActionListAdmins, true},
		{"manager contacts admin", models.RoleManager, ActionContactAdmin, true},
		{"manager compares branches", models.RoleManager, ActionCompareBranches, true},
		{"manager cannot create installations", models.RoleManager, ActionCreateInstallation, false},
		{"manager cannot delete installations", models.RoleManager, ActionDeleteInstallation, false},
		{"manager cannot manage branches", models.RoleManager, ActionManageBranches, false},
		{"manager cannot register users", models.RoleManager, ActionCreateUser, false},
		{"normal user has no administrative capability", models.RoleNormalUser, ActionListInstallations, false},
		{"normal user cannot contact admin", models.RoleNormalUser, ActionContactAdmin, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Can(tt.role, tt.action))
		})
	}
}

func TestRequire(t *testing.T) {
	admin := &Principal{UserID: uuid.New(), Role: models.RoleAdmin}
	normal := &Principal{UserID: uuid.New(), Role: models.RoleNormalUser}

	assert.NoError(t, Require(admin, ActionCreateInstallation))

	err := Require(normal, ActionCreateInstallation)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.CodePermissionDenied))

	err = Require(nil, ActionCreateInstallation)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.CodeUnauthenticated))
}

func TestRequireBranch(t *testing.T) {
	admin := &Principal{UserID: uuid.New(), Role: models.RoleAdmin}
	managerB1 := &Principal{UserID: uuid.New(), Role: models.RoleManager, BranchID: uintPtr(1)}
	unassignedManager := &Principal{UserID: uuid.New(), Role: models.RoleManager}

	tests := []struct {
		name     string
		p        *Principal
		target   *uint
		wantCode apperr.Code
	}{
		{"admin touches any branch", admin, uintPtr(2), ""},
		{"admin touches unassigned records", admin, nil, ""},
		{"manager touches own branch", managerB1, uintPtr(1), ""},
		{"manager denied on other branch", managerB1, uintPtr(2), apperr.CodePermissionDenied},
		{"manager denied on unassigned record", managerB1, nil, apperr.CodePermissionDenied},
		{"manager without branch denied everywhere", unassignedManager, uintPtr(1), apperr.CodePermissionDenied},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := RequireBranch(tt.p, ActionUpdateInstallation, tt.target)
			if tt.wantCode == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, apperr.Is(err, tt.wantCode))
		})
	}
}

func TestEngineResolve(t *testing.T) {
	userID := uuid.New()
	branchID := uintPtr(7)

	t.Run("role record found", func(t *testing.T) {
		eng := NewEngine(func(ctx context.Context, id uuid.UUID) (*models.UserRole, error) {
			require.Equal(t, userID, id)
			return &models.UserRole{UserID: id, Role: models.RoleManager, BranchID: branchID}, nil
		})

		p, err := eng.Resolve(context.Background(), userID)
		require.NoError(t, err)
		assert.Equal(t, models.RoleManager, p.Role)
		assert.Equal(t, branchID, p.BranchID)
	})

	t.Run("missing role record is a distinct deny", func(t *testing.T) {
		eng := NewEngine(func(ctx context.Context, id uuid.UUID) (*models.UserRole, error) {
			return nil, nil
		})

		_, err := eng.Resolve(context.Background(), userID)
		require.Error(t, err)
		assert.True(t, apperr.Is(err, apperr.CodeRoleNotAssigned))
		assert.False(t, apperr.Is(err, apperr.CodePermissionDenied))
	})
}
