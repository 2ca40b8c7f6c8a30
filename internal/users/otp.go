package users

import (
	"context"

	"fleettrack-backend/internal/apperr"
	"fleettrack-backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Accounts resolves staff contact numbers for the OTP flow.
type Accounts struct {
	DB *gorm.DB
}

func (a Accounts) Exists(ctx context.Context, contactNumber string) (bool, error) {
	var count int64
	err := a.DB.WithContext(ctx).Model(&models.User{}).
		Where("contact_number = ?", contactNumber).
		Count(&count).Error
	return count > 0, err
}

func (a Accounts) Resolve(ctx context.Context, contactNumber string) (string, error) {
	var user models.User
	err := a.DB.WithContext(ctx).
		Where("contact_number = ?", contactNumber).
		First(&user).Error
	if err == gorm.ErrRecordNotFound {
		return "", apperr.New(apperr.CodeNotFound, "user not found")
	}
	if err != nil {
		return "", err
	}
	return user.ID.String(), nil
}

// Tokens issues the per-user opaque session token. The insert is an upsert
// that backs off on conflict, so two concurrent verifications still converge
// on a single token row.
type Tokens struct {
	DB *gorm.DB
}

func (t Tokens) IssueToken(ctx context.Context, accountID string) (string, error) {
	userID, err := uuid.Parse(accountID)
	if err != nil {
		return "", err
	}

	fresh := models.AuthToken{UserID: userID, Token: uuid.NewString()}
	if err := t.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoNothing: true,
		}).
		Create(&fresh).Error; err != nil {
		return "", err
	}

	var current models.AuthToken
	if err := t.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&current).Error; err != nil {
		return "", err
	}
	return current.Token, nil
}
