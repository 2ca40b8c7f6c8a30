package installation

import (
	"context"
	"strconv"

	"fleettrack-backend/internal/apperr"
	"fleettrack-backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Vehicles resolves vehicle contact numbers for the OTP flow. Account ids are
// the installation's numeric id in string form.
type Vehicles struct {
	DB *gorm.DB
}

func (v Vehicles) Exists(ctx context.Context, contactNumber string) (bool, error) {
	var count int64
	err := v.DB.WithContext(ctx).Model(&models.VehicleInstallation{}).
		Where("contact_number = ?", contactNumber).
		Count(&count).Error
	return count > 0, err
}

func (v Vehicles) Resolve(ctx context.Context, contactNumber string) (string, error) {
	var inst models.VehicleInstallation
	err := v.DB.WithContext(ctx).
		Where("contact_number = ?", contactNumber).
		Order("datetime_installed DESC, id DESC").
		First(&inst).Error
	if err == gorm.ErrRecordNotFound {
		return "", apperr.New(apperr.CodeNotFound, "no installation found for this contact number")
	}
	if err != nil {
		return "", err
	}
	return strconv.FormatUint(uint64(inst.ID), 10), nil
}

// VehicleTokens issues the per-vehicle opaque token, lazily on the first
// verification and idempotently afterwards.
type VehicleTokens struct {
	DB *gorm.DB
}

func (t VehicleTokens) IssueToken(ctx context.Context, accountID string) (string, error) {
	vehicleID64, err := strconv.ParseUint(accountID, 10, 32)
	if err != nil {
		return "", err
	}
	vehicleID := uint(vehicleID64)

	fresh := models.VehicleToken{VehicleID: vehicleID, Token: uuid.NewString()}
	if err := t.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "vehicle_id"}},
			DoNothing: true,
		}).
		Create(&fresh).Error; err != nil {
		return "", err
	}

	var current models.VehicleToken
	if err := t.DB.WithContext(ctx).
		Where("vehicle_id = ?", vehicleID).
		First(&current).Error; err != nil {
		return "", err
	}
	return current.Token, nil
}
