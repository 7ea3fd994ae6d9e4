package repositories

import (
	"context"
	"time"

	"gymgate/internal/adapters/persistence/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// How long an unconfirmed enrollment may sit before cleanup reclaims it
const pendingEnrollmentTTL = 24 * time.Hour

// mfaRepository implements MFARepository interface
type mfaRepository struct {
	db *gorm.DB
}

// NewMFARepository creates a new MFA repository
func NewMFARepository(db *gorm.DB) MFARepository {
	return &mfaRepository{db: db}
}

// GetEnrollment gets the enrollment for a user
func (r *mfaRepository) GetEnrollment(ctx context.Context, userID string) (*models.MFAEnrollment, error) {
	var enrollment models.MFAEnrollment
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&enrollment).Error
	if err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// SaveEnrollment creates or replaces the enrollment for a user
func (r *mfaRepository) SaveEnrollment(ctx context.Context, enrollment *models.MFAEnrollment) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			UpdateAll: true,
		}).
		Create(enrollment).Error
}

// DeleteEnrollment removes the enrollment for a user
func (r *mfaRepository) DeleteEnrollment(ctx context.Context, userID string) error {
	return r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&models.MFAEnrollment{}).Error
}

// SaveBackupCodes stores a fresh set of backup codes
func (r *mfaRepository) SaveBackupCodes(ctx context.Context, codes []*models.MFABackupCode) error {
	return r.db.WithContext(ctx).Create(codes).Error
}

// GetBackupCodes gets all backup codes for a user
func (r *mfaRepository) GetBackupCodes(ctx context.Context, userID string) ([]*models.MFABackupCode, error) {
	var codes []*models.MFABackupCode
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Find(&codes).Error
	if err != nil {
		return nil, err
	}
	return codes, nil
}

// RedeemBackupCode marks a matching unused code as used. The conditional
// update guarantees that concurrent redemptions of the same code produce
// exactly one success.
func (r *mfaRepository) RedeemBackupCode(ctx context.Context, userID, codeHash string) (bool, error) {
	now := time.Now()
	result := r.db.WithContext(ctx).
		Model(&models.MFABackupCode{}).
		Where("user_id = ?", userID).
		Where("code_hash = ?", codeHash).
		Where("used = ?", false).
		Updates(map[string]interface{}{"used": true, "used_at": &now})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// DeleteBackupCodes removes all backup codes for a user
func (r *mfaRepository) DeleteBackupCodes(ctx context.Context, userID string) error {
	return r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&models.MFABackupCode{}).Error
}

// DeleteStalePending removes enrollments that were never confirmed (cleanup job)
func (r *mfaRepository) DeleteStalePending(ctx context.Context) error {
	cutoff := time.Now().Add(-pendingEnrollmentTTL)
	return r.db.WithContext(ctx).
		Where("enabled = ?", false).
		Where("created_at < ?", cutoff).
		Delete(&models.MFAEnrollment{}).Error
}
