package config

import (
	"log"

	"gymgate/internal/adapters/persistence/models"
	"gymgate/internal/core/domain"
	"gymgate/internal/pkg/password"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SeedBootstrapAdmin creates the initial super_admin credential when the
// users table is empty. Credentials come from SEED_ADMIN_EMAIL and
// SEED_ADMIN_PASSWORD; without them seeding is skipped.
func SeedBootstrapAdmin(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.User{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	email := getEnv("SEED_ADMIN_EMAIL", "")
	plain := getEnv("SEED_ADMIN_PASSWORD", "")
	if email == "" || plain == "" {
		log.Println("⚠️ No bootstrap admin configured, skipping seed")
		return nil
	}

	hash, err := password.Hash(plain)
	if err != nil {
		return err
	}

	admin := &models.User{
		ID:            uuid.New().String(),
		Email:         email,
		PasswordHash:  hash,
		Role:          domain.RoleSuperAdmin.String(),
		IsActive:      true,
		EmailVerified: true,
	}

	if err := db.Create(admin).Error; err != nil {
		return err
	}

	log.Printf("✅ Bootstrap admin seeded: %s", email)
	return nil
}
