// Command resetpw sets a new password for a user from the operator console.
// It writes the hash directly and revokes every active session, so it works
// even when the account is locked out of the API.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"gymgate/internal/adapters/persistence/repositories"
	"gymgate/internal/config"
	"gymgate/internal/pkg/password"
)

func main() {
	email := flag.String("email", "", "email of the account to reset")
	newPassword := flag.String("password", "", "new password (min 8 characters)")
	flag.Parse()

	if *email == "" || *newPassword == "" {
		log.Fatal("❌ Both -email and -password are required")
	}
	if !password.ValidatePassword(*newPassword) {
		log.Fatal("❌ Password must be at least 8 characters")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load configuration: %v", err)
	}

	db, err := config.ConnectDatabase(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer config.CloseDatabase(db)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	userRepo := repositories.NewUserRepository(db)
	refreshTokenRepo := repositories.NewRefreshTokenRepository(db)

	user, err := userRepo.FindByEmail(ctx, *email)
	if err != nil {
		log.Fatalf("❌ User not found: %s", *email)
	}

	hash, err := password.Hash(*newPassword)
	if err != nil {
		log.Fatalf("❌ Failed to hash password: %v", err)
	}

	if err := userRepo.UpdatePassword(ctx, user.ID, hash); err != nil {
		log.Fatalf("❌ Failed to update password: %v", err)
	}
	if err := refreshTokenRepo.RevokeAllByUserID(ctx, user.ID); err != nil {
		log.Fatalf("❌ Password updated but session revocation failed: %v", err)
	}

	log.Printf("✅ Password reset for %s, all sessions revoked", *email)
}
