package models

import "time"

type VehicleClass string

const (
	VehicleClassTruck VehicleClass = "Truck"
	VehicleClassBus   VehicleClass = "Bus"
	VehicleClassVan   VehicleClass = "Van"
)

func (v VehicleClass) Valid() bool {
	switch v {
	case VehicleClassTruck, VehicleClassBus, VehicleClassVan:
		return true
	}
	return false
}

type InstallationStatus string

const (
	StatusActive           InstallationStatus = "Active"
	StatusInactive         InstallationStatus = "Inactive"
	StatusUnderMaintenance InstallationStatus = "Under Maintenance"
	StatusEmergency        InstallationStatus = "Emergency"
)

func (s InstallationStatus) Valid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusUnderMaintenance, StatusEmergency:
		return true
	}
	return false
}

type VehicleInstallation struct {
	ID                 uint               `gorm:"primaryKey" json:"id"`
	OwnerName          string             `gorm:"size:255;not null" json:"owner_name"`
	ContactNumber      string             `gorm:"size:15;not null;index" json:"contact_number"`
	VehicleClass       VehicleClass       `gorm:"size:50;not null" json:"vehicle_class"`
	RegistrationNumber string             `gorm:"size:20;uniqueIndex;not null" json:"registration_number"`
	InsuranceDetails   string             `gorm:"type:text" json:"insurance_details"`
	DatetimeInstalled  time.Time          `gorm:"autoCreateTime;index" json:"datetime_installed"`
	Status             InstallationStatus `gorm:"size:50;not null;default:Active" json:"status"`
	BranchID           *uint              `json:"branch_id"`
	Branch             *Branch            `gorm:"constraint:OnDelete:SET NULL" json:"branch,omitempty"`
}

// VehicleToken is the vehicle-side counterpart of AuthToken, created lazily on
// the first successful OTP verification for the vehicle's contact number.
type VehicleToken struct {
	ID        uint                 `gorm:"primaryKey"`
	VehicleID uint                 `gorm:"uniqueIndex;not null"`
	Vehicle   *VehicleInstallation `gorm:"foreignKey:VehicleID;constraint:OnDelete:CASCADE"`
	Token     string               `gorm:"size:36;uniqueIndex;not null"`
	CreatedAt time.Time
}
