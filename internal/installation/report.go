package installation

import (
	"fleettrack-backend/internal/apperr"
	"fleettrack-backend/internal/auth"
	"fleettrack-backend/internal/authz"
	"fleettrack-backend/internal/database"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// BranchOutput is one branch's installation count in the comparison report.
type BranchOutput struct {
	BranchID      uint   `json:"branch_id" gorm:"column:branch_id"`
	BranchName    string `json:"branch_name" gorm:"column:branch_name"`
	Installations int64  `json:"installations" gorm:"column:installations"`
}

// BranchComparison contrasts the caller's branch against every other branch.
type BranchComparison struct {
	YourBranch    *BranchOutput  `json:"your_branch"`
	OtherBranches []BranchOutput `json:"other_branches"`
}

const branchOutputQuery = `
SELECT b.id AS branch_id, b.name AS branch_name, COUNT(v.id) AS installations
FROM branches b
LEFT JOIN vehicle_installations v ON v.branch_id = b.id
GROUP BY b.id, b.name
ORDER BY b.id`

// CompareBranchOutputs aggregates installation counts per branch and splits
// the caller's branch out of the list. Branches without installations show a
// zero count rather than disappearing.
func CompareBranchOutputs(db *gorm.DB, ownBranchID uint) (*BranchComparison, error) {
	var rows []BranchOutput
	if err := db.Raw(branchOutputQuery).Scan(&rows).Error; err != nil {
		return nil, err
	}

	cmp := &BranchComparison{OtherBranches: make([]BranchOutput, 0, len(rows))}
	for _, row := range rows {
		if row.BranchID == ownBranchID {
			own := row
			cmp.YourBranch = &own
			continue
		}
		cmp.OtherBranches = append(cmp.OtherBranches, row)
	}
	if cmp.YourBranch == nil {
		return nil, apperr.New(apperr.CodeNotFound, "branch not found")
	}
	return cmp, nil
}

// CompareBranchesHandler serves the Manager-only branch output comparison.
func CompareBranchesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := auth.CurrentPrincipal(c)
		if err != nil {
			return err
		}
		if err := authz.Require(p, authz.ActionCompareBranches); err != nil {
			return err
		}
		if p.BranchID == nil {
			return apperr.New(apperr.CodePermissionDenied, "no branch is assigned to your account")
		}

		cmp, err := CompareBranchOutputs(database.DB, *p.BranchID)
		if err != nil {
			return err
		}
		return c.JSON(cmp)
	}
}
