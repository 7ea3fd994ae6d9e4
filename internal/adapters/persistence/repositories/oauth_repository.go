package repositories

import (
	"context"

	"gymgate/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// oauthRepository implements OAuthRepository interface
type oauthRepository struct {
	db *gorm.DB
}

// NewOAuthRepository creates a new OAuth account repository
func NewOAuthRepository(db *gorm.DB) OAuthRepository {
	return &oauthRepository{db: db}
}

// GetByProviderID gets the account linked to a provider identity
func (r *oauthRepository) GetByProviderID(ctx context.Context, provider, providerID string) (*models.OAuthAccount, error) {
	var account models.OAuthAccount
	err := r.db.WithContext(ctx).
		Where("provider = ?", provider).
		Where("provider_id = ?", providerID).
		First(&account).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// GetByUserID gets all linked accounts for a user
func (r *oauthRepository) GetByUserID(ctx context.Context, userID string) ([]*models.OAuthAccount, error) {
	var accounts []*models.OAuthAccount
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Find(&accounts).Error
	if err != nil {
		return nil, err
	}
	return accounts, nil
}

// Save creates a new linked account. The unique (provider, provider_id)
// index rejects a second link of the same provider identity.
func (r *oauthRepository) Save(ctx context.Context, account *models.OAuthAccount) error {
	return r.db.WithContext(ctx).Create(account).Error
}

// Delete removes a linked account. Deleting a non-existent link is a no-op.
func (r *oauthRepository) Delete(ctx context.Context, userID, provider string) error {
	return r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Where("provider = ?", provider).
		Delete(&models.OAuthAccount{}).Error
}
