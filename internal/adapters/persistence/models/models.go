package models

import (
	"time"

	"gorm.io/gorm"
)

// User represents users table. The password hash is never serialized and
// rows are soft deleted, never removed.
type User struct {
	ID            string         `gorm:"primaryKey;size:36" json:"id"`
	Email         string         `gorm:"uniqueIndex;size:100;not null" json:"email"`
	PasswordHash  string         `gorm:"size:255;not null" json:"-"`
	Role          string         `gorm:"size:20;default:'member'" json:"role"`
	BranchID      string         `gorm:"size:36;index" json:"branch_id,omitempty"`
	Permissions   string         `gorm:"size:1000" json:"-"`
	Phone         string         `gorm:"size:20" json:"phone,omitempty"`
	IsActive      bool           `gorm:"default:true" json:"is_active"`
	EmailVerified bool           `gorm:"default:false" json:"email_verified"`
	CreatedAt     time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string {
	return "users"
}

// UserResponse DTO
type UserResponse struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	Role          string    `json:"role"`
	BranchID      string    `json:"branch_id,omitempty"`
	Permissions   []string  `json:"permissions,omitempty"`
	IsActive      bool      `json:"is_active"`
	EmailVerified bool      `json:"email_verified"`
	MFAEnabled    bool      `json:"mfa_enabled"`
	CreatedAt     time.Time `json:"created_at"`
}

func (u *User) ToResponse() *UserResponse {
	return &UserResponse{
		ID:            u.ID,
		Email:         u.Email,
		Role:          u.Role,
		BranchID:      u.BranchID,
		Permissions:   u.PermissionList(),
		IsActive:      u.IsActive,
		EmailVerified: u.EmailVerified,
		CreatedAt:     u.CreatedAt,
	}
}

// PermissionList splits the stored permission set
func (u *User) PermissionList() []string {
	if u.Permissions == "" {
		return nil
	}
	return splitPermissions(u.Permissions)
}

// RefreshToken represents refresh_tokens table
type RefreshToken struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    string     `gorm:"size:36;index;not null" json:"user_id"`
	TokenHash string     `gorm:"size:255;not null;index" json:"-"`
	ExpiresAt time.Time  `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	RevokedAt *time.Time `gorm:"index" json:"revoked_at"`
}

func (RefreshToken) TableName() string {
	return "refresh_tokens"
}

func (rt *RefreshToken) IsRevoked() bool {
	return rt.RevokedAt != nil
}

func (rt *RefreshToken) IsExpired() bool {
	return time.Now().After(rt.ExpiresAt)
}

// MFAEnrollment represents mfa_enrollments table. Enabled stays false until
// the post-enrollment verify step succeeds.
type MFAEnrollment struct {
	UserID      string     `gorm:"primaryKey;size:36" json:"user_id"`
	Secret      string     `gorm:"size:64;not null" json:"-"`
	Method      string     `gorm:"size:10;not null;default:'totp'" json:"method"`
	Phone       string     `gorm:"size:20" json:"phone,omitempty"`
	Enabled     bool       `gorm:"default:false" json:"enabled"`
	ConfirmedAt *time.Time `json:"confirmed_at,omitempty"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (MFAEnrollment) TableName() string {
	return "mfa_enrollments"
}

// MFABackupCode represents mfa_backup_codes table. Codes are stored hashed
// and each is redeemable at most once.
type MFABackupCode struct {
	ID        string     `gorm:"primaryKey;size:36" json:"id"`
	UserID    string     `gorm:"size:36;index;not null" json:"user_id"`
	CodeHash  string     `gorm:"size:64;not null;index" json:"-"`
	Used      bool       `gorm:"default:false" json:"used"`
	UsedAt    *time.Time `json:"used_at,omitempty"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

func (MFABackupCode) TableName() string {
	return "mfa_backup_codes"
}

// OAuthAccount represents oauth_accounts table. A (provider, provider_id)
// pair maps to at most one local user.
type OAuthAccount struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	UserID     string    `gorm:"size:36;index;not null" json:"user_id"`
	Provider   string    `gorm:"size:20;not null;uniqueIndex:idx_provider_identity" json:"provider"`
	ProviderID string    `gorm:"size:100;not null;uniqueIndex:idx_provider_identity" json:"provider_id"`
	Email      string    `gorm:"size:100" json:"email"`
	Name       string    `gorm:"size:100" json:"name,omitempty"`
	Avatar     string    `gorm:"size:255" json:"avatar,omitempty"`
	LinkedAt   time.Time `gorm:"autoCreateTime" json:"linked_at"`
}

func (OAuthAccount) TableName() string {
	return "oauth_accounts"
}

// AutoMigrate creates or updates all tables
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&RefreshToken{},
		&MFAEnrollment{},
		&MFABackupCode{},
		&OAuthAccount{},
	)
}
