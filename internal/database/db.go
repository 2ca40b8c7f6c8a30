package database

import (
	"fleettrack-backend/internal/config"
	"fleettrack-backend/internal/models"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func Init(cfg *config.Config, log *zap.Logger) {
	var err error

	DB, err = gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{})
	if err != nil {
		log.Fatal("database connection failed", zap.Error(err))
	}

	err = DB.AutoMigrate(
		&models.Branch{},
		&models.User{},
		&models.UserRole{},
		&models.AuthToken{},
		&models.VehicleInstallation{},
		&models.VehicleToken{},
		&models.ContactAttempt{},
		&models.Notification{},
	)
	if err != nil {
		log.Fatal("auto migrate failed", zap.Error(err))
	}

	if err := seedAdmin(cfg, log); err != nil {
		log.Fatal("admin seed failed", zap.Error(err))
	}

	log.Info("database ready")
}

// seedAdmin creates a bootstrap Admin account when the system has none, so a
// fresh deployment is never locked out of the privileged endpoints.
func seedAdmin(cfg *config.Config, log *zap.Logger) error {
	var count int64
	if err := DB.Model(&models.UserRole{}).
		Where("role = ?", models.RoleAdmin).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.SeedAdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	return DB.Transaction(func(tx *gorm.DB) error {
		admin := models.User{
			Username:     "Admin",
			Email:        cfg.SeedAdminEmail,
			PasswordHash: string(hash),
			IsActive:     true,
		}
		if err := tx.Create(&admin).Error; err != nil {
			return err
		}
		if err := tx.Create(&models.UserRole{UserID: admin.ID, Role: models.RoleAdmin}).Error; err != nil {
			return err
		}
		log.Info("seeded bootstrap admin", zap.String("email", admin.Email))
		return nil
	})
}
