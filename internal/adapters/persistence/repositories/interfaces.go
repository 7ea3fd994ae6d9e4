package repositories

import (
	"context"

	"gymgate/internal/adapters/persistence/models"
)

// UserRepository defines the credential store interface
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	UpdatePassword(ctx context.Context, userID, hash string) error
	SetActive(ctx context.Context, userID string, active bool) error
	SetVerified(ctx context.Context, userID string, verified bool) error
}

// RefreshTokenRepository defines refresh token repository interface
type RefreshTokenRepository interface {
	Create(ctx context.Context, token *models.RefreshToken) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error)
	Revoke(ctx context.Context, id uint) error
	RevokeByTokenHash(ctx context.Context, tokenHash string) error
	RevokeAllByUserID(ctx context.Context, userID string) error
	DeleteExpired(ctx context.Context) error
	CountActiveByUserID(ctx context.Context, userID string) (int64, error)
}

// MFARepository defines MFA enrollment and backup code persistence
type MFARepository interface {
	GetEnrollment(ctx context.Context, userID string) (*models.MFAEnrollment, error)
	SaveEnrollment(ctx context.Context, enrollment *models.MFAEnrollment) error
	DeleteEnrollment(ctx context.Context, userID string) error
	SaveBackupCodes(ctx context.Context, codes []*models.MFABackupCode) error
	GetBackupCodes(ctx context.Context, userID string) ([]*models.MFABackupCode, error)
	// RedeemBackupCode marks the unused code with the given hash as used.
	// The update is atomic: exactly one concurrent caller can succeed.
	RedeemBackupCode(ctx context.Context, userID, codeHash string) (bool, error)
	DeleteBackupCodes(ctx context.Context, userID string) error
	DeleteStalePending(ctx context.Context) error
}

// OAuthRepository defines linked provider account persistence
type OAuthRepository interface {
	GetByProviderID(ctx context.Context, provider, providerID string) (*models.OAuthAccount, error)
	GetByUserID(ctx context.Context, userID string) ([]*models.OAuthAccount, error)
	Save(ctx context.Context, account *models.OAuthAccount) error
	Delete(ctx context.Context, userID, provider string) error
}
