package authz

import (
	"fleettrack-backend/internal/apperr"
	"fleettrack-backend/internal/models"

	"github.com/google/uuid"
)

// ProfilePatch lists the guarded fields present in a profile update request.
// RoleValue carries the requested role when Role is set.
type ProfilePatch struct {
	Role          bool
	RoleValue     models.Role
	Branch        bool
	DateOfJoining bool
	SalaryDetails bool
}

// CheckProfileUpdate enforces the self-modification and cross-role guards on
// top of the capability check:
//
//   - nobody may change their own role or branch assignment
//   - Admins may not change their own date_of_joining or salary_details
//   - Managers may not change date_of_joining, salary_details, role or branch
//     on any profile, their own included
//   - Managers may never modify a profile whose role is Admin
//   - Admins may not promote another user to Admin
//   - a branch may only be assigned when the post-patch role is Manager
func CheckProfileUpdate(actor *Principal, targetID uuid.UUID, targetRole models.Role, patch ProfilePatch) error {
	self := actor.UserID == targetID

	if actor.Role == models.RoleManager {
		if !self && targetRole == models.RoleAdmin {
			return apperr.New(apperr.CodePermissionDenied, "managers cannot update admin profiles")
		}
		if patch.Role || patch.Branch || patch.DateOfJoining || patch.SalaryDetails {
			return apperr.New(apperr.CodePermissionDenied, "managers cannot change role, branch, date of joining or salary details")
		}
		return nil
	}

	if self {
		if patch.Role {
			return apperr.New(apperr.CodePermissionDenied, "you cannot change your own role")
		}
		if patch.Branch {
			return apperr.New(apperr.CodePermissionDenied, "you cannot change your own branch")
		}
		if actor.Role == models.RoleAdmin && (patch.DateOfJoining || patch.SalaryDetails) {
			return apperr.New(apperr.CodePermissionDenied, "date of joining and salary details cannot be changed on your own profile")
		}
		return nil
	}

	if actor.Role == models.RoleAdmin && patch.Role && patch.RoleValue == models.RoleAdmin {
		return apperr.New(apperr.CodeValidation, "cannot change role to Admin")
	}

	if patch.Branch {
		effective := targetRole
		if patch.Role {
			effective = patch.RoleValue
		}
		if effective != models.RoleManager {
			return apperr.New(apperr.CodeValidation, "a branch can only be assigned to a Manager")
		}
	}

	return nil
}
