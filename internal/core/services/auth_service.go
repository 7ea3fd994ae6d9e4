package services

import (
	"context"
	"errors"
	"log"
	"strings"

	"gymgate/internal/adapters/persistence/models"
	"gymgate/internal/adapters/persistence/repositories"
	"gymgate/internal/config"
	"gymgate/internal/core/domain"
	"gymgate/internal/pkg/jwt"
	"gymgate/internal/pkg/password"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// A user holds at most this many live refresh tokens. Hitting the cap
// revokes all of them before the new session is stored.
const maxActiveSessions = 10

// AuthService handles authentication business logic
type AuthService struct {
	userRepo         repositories.UserRepository
	refreshTokenRepo repositories.RefreshTokenRepository
	mfa              *MFAService
	cfg              *config.Config
}

// NewAuthService creates a new auth service
func NewAuthService(
	userRepo repositories.UserRepository,
	refreshTokenRepo repositories.RefreshTokenRepository,
	mfa *MFAService,
	cfg *config.Config,
) *AuthService {
	return &AuthService{
		userRepo:         userRepo,
		refreshTokenRepo: refreshTokenRepo,
		mfa:              mfa,
		cfg:              cfg,
	}
}

// RegisterInput represents registration input
type RegisterInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Phone    string `json:"phone"`
	BranchID string `json:"branch_id"`
}

// LoginInput represents login input
type LoginInput struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// TokenPair represents access and refresh tokens
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// AuthResponse represents authentication response. When MFARequired is set
// the token fields are empty and the client must finish login with a second
// factor and the pending token.
type AuthResponse struct {
	User         *models.UserResponse `json:"user,omitempty"`
	AccessToken  string               `json:"access_token,omitempty"`
	RefreshToken string               `json:"refresh_token,omitempty"`
	MFARequired  bool                 `json:"mfa_required,omitempty"`
	PendingToken string               `json:"pending_token,omitempty"`
}

// Register registers a new user with the member role
func (s *AuthService) Register(ctx context.Context, input *RegisterInput) (*AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))

	// 1. Check if email already registered
	exists, err := s.userRepo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.ErrUserAlreadyExists
	}

	// 2. Hash password
	hashedPassword, err := password.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	// 3. Create user
	user := &models.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: hashedPassword,
		Role:         domain.RoleMember.String(),
		BranchID:     input.BranchID,
		Phone:        input.Phone,
		IsActive:     true,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, domain.ErrUserAlreadyExists
		}
		return nil, err
	}

	// 4. Issue tokens
	resp, err := s.issueSession(ctx, user)
	if err != nil {
		return nil, err
	}

	log.Printf("✅ User registered: %s", user.Email)
	return resp, nil
}

// Login authenticates a user. When the user has MFA enabled the result
// carries a pending token instead of a session; CompleteMFALogin finishes
// the flow.
func (s *AuthService) Login(ctx context.Context, input *LoginInput) (*AuthResponse, error) {
	// 1. Find user by email
	user, err := s.userRepo.FindByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	// 2. Check if user is active
	if !user.IsActive {
		return nil, domain.ErrUserInactive
	}

	// 3. Verify password
	ok, err := password.Verify(input.Password, user.PasswordHash)
	if err != nil {
		// Malformed stored hash is an operator problem, not the caller's
		log.Printf("⚠️ Stored hash unreadable for user %s: %v", user.ID, err)
		return nil, domain.ErrInvalidCredentials
	}
	if !ok {
		return nil, domain.ErrInvalidCredentials
	}

	// 4. Second factor gate
	if s.mfa != nil && s.mfa.Enabled(ctx, user.ID) {
		pending, err := jwt.GeneratePendingMFAToken(user.ID, s.cfg.JWT.Secret, s.cfg.JWT.PendingMFAMins)
		if err != nil {
			return nil, err
		}
		// An sms enrollment gets its challenge dispatched here; the caller
		// holds only the pending token at this point. A dispatch failure
		// (rate limit) keeps the previous code valid, so login proceeds.
		if err := s.mfa.SendChallenge(ctx, user.ID); err != nil && !errors.Is(err, domain.ErrUnsupportedMethod) {
			log.Printf("⚠️ SMS challenge not dispatched for user %s: %v", user.ID, err)
		}
		log.Printf("✅ Password accepted, awaiting second factor: %s", user.Email)
		return &AuthResponse{MFARequired: true, PendingToken: pending}, nil
	}

	resp, err := s.issueSession(ctx, user)
	if err != nil {
		return nil, err
	}

	log.Printf("✅ User logged in: %s", user.Email)
	return resp, nil
}

// CompleteMFALogin exchanges a pending token plus a valid second factor for
// a full session.
func (s *AuthService) CompleteMFALogin(ctx context.Context, pendingToken string, input *MFAVerifyInput) (*AuthResponse, error) {
	claims, err := jwt.ValidatePendingMFAToken(pendingToken, s.cfg.JWT.Secret)
	if err != nil {
		return nil, err
	}

	if err := s.mfa.Verify(ctx, claims.UserID, input); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, domain.ErrUserNotFound
	}
	if !user.IsActive {
		return nil, domain.ErrUserInactive
	}

	resp, err := s.issueSession(ctx, user)
	if err != nil {
		return nil, err
	}

	log.Printf("✅ User logged in with second factor: %s", user.Email)
	return resp, nil
}

// RefreshToken rotates the refresh token and issues a new session
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	// 1. Validate refresh token JWT
	claims, err := jwt.ValidateRefreshToken(refreshToken, s.cfg.JWT.RefreshSecret)
	if err != nil {
		return nil, err
	}

	// 2. Hash the token to find in DB
	tokenHash := password.HashToken(refreshToken)

	// 3. Find token in DB
	storedToken, err := s.refreshTokenRepo.GetByTokenHash(ctx, tokenHash)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrTokenRevoked
		}
		return nil, err
	}

	// 4. Check if token is expired
	if storedToken.IsExpired() {
		return nil, domain.ErrTokenExpired
	}

	// 5. Get user
	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, domain.ErrUserNotFound
	}

	// 6. Check if user is active
	if !user.IsActive {
		return nil, domain.ErrUserInactive
	}

	// 7. Revoke old refresh token (rotation)
	if err := s.refreshTokenRepo.Revoke(ctx, storedToken.ID); err != nil {
		return nil, err
	}

	// 8. Issue new session
	resp, err := s.issueSession(ctx, user)
	if err != nil {
		return nil, err
	}

	log.Printf("✅ Token refreshed for user: %s", user.Email)
	return resp, nil
}

// Logout revokes the refresh token
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	tokenHash := password.HashToken(refreshToken)

	if err := s.refreshTokenRepo.RevokeByTokenHash(ctx, tokenHash); err != nil {
		return err
	}

	log.Printf("✅ User logged out")
	return nil
}

// LogoutAll revokes all refresh tokens for a user
func (s *AuthService) LogoutAll(ctx context.Context, userID string) error {
	if err := s.refreshTokenRepo.RevokeAllByUserID(ctx, userID); err != nil {
		return err
	}

	log.Printf("✅ All sessions revoked for user: %s", userID)
	return nil
}

// ChangePassword verifies the current password and stores a new hash. All
// other sessions are revoked.
func (s *AuthService) ChangePassword(ctx context.Context, userID, current, next string) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return domain.ErrUserNotFound
	}

	ok, err := password.Verify(current, user.PasswordHash)
	if err != nil {
		log.Printf("⚠️ Stored hash unreadable for user %s: %v", user.ID, err)
		return domain.ErrInvalidCredentials
	}
	if !ok {
		return domain.ErrInvalidCredentials
	}

	hash, err := password.Hash(next)
	if err != nil {
		return err
	}

	if err := s.userRepo.UpdatePassword(ctx, userID, hash); err != nil {
		return err
	}

	if err := s.refreshTokenRepo.RevokeAllByUserID(ctx, userID); err != nil {
		return err
	}

	log.Printf("✅ Password changed for user: %s", user.Email)
	return nil
}

// ResetPassword stores a new hash without checking the old one. Reserved for
// admin flows; all sessions are revoked.
func (s *AuthService) ResetPassword(ctx context.Context, userID, next string) error {
	hash, err := password.Hash(next)
	if err != nil {
		return err
	}

	if err := s.userRepo.UpdatePassword(ctx, userID, hash); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrUserNotFound
		}
		return err
	}

	return s.refreshTokenRepo.RevokeAllByUserID(ctx, userID)
}

// SetActive toggles a user's active flag
func (s *AuthService) SetActive(ctx context.Context, userID string, active bool) error {
	if err := s.userRepo.SetActive(ctx, userID, active); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrUserNotFound
		}
		return err
	}
	if !active {
		// A deactivated user keeps no live sessions
		return s.refreshTokenRepo.RevokeAllByUserID(ctx, userID)
	}
	return nil
}

// SetVerified toggles a user's email verified flag
func (s *AuthService) SetVerified(ctx context.Context, userID string, verified bool) error {
	if err := s.userRepo.SetVerified(ctx, userID, verified); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrUserNotFound
		}
		return err
	}
	return nil
}

// ValidateAccessToken validates an access token
func (s *AuthService) ValidateAccessToken(accessToken string) (*jwt.Claims, error) {
	return jwt.ValidateAccessToken(accessToken, s.cfg.JWT.Secret)
}

// GetUserByID gets a user by ID
func (s *AuthService) GetUserByID(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// issueSession generates a token pair, stores the refresh token hash and
// builds the response
func (s *AuthService) issueSession(ctx context.Context, user *models.User) (*AuthResponse, error) {
	accessToken, err := jwt.GenerateAccessToken(
		user.ID,
		user.Email,
		user.Role,
		user.BranchID,
		user.PermissionList(),
		s.cfg.JWT.Secret,
		s.cfg.JWT.AccessTokenMins,
	)
	if err != nil {
		return nil, err
	}

	tokenID := uuid.New().String()

	refreshToken, err := jwt.GenerateRefreshToken(
		user.ID,
		tokenID,
		s.cfg.JWT.RefreshSecret,
		s.cfg.JWT.RefreshTokenDays,
	)
	if err != nil {
		return nil, err
	}

	count, err := s.refreshTokenRepo.CountActiveByUserID(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if count >= maxActiveSessions {
		if err := s.refreshTokenRepo.RevokeAllByUserID(ctx, user.ID); err != nil {
			return nil, err
		}
		log.Printf("⚠️ Session cap reached for user %s, older sessions revoked", user.ID)
	}

	token := &models.RefreshToken{
		UserID:    user.ID,
		TokenHash: password.HashToken(refreshToken),
		ExpiresAt: jwt.GetExpiryTime(s.cfg.JWT.RefreshTokenDays),
	}
	if err := s.refreshTokenRepo.Create(ctx, token); err != nil {
		return nil, err
	}

	userResponse := user.ToResponse()
	if s.mfa != nil {
		userResponse.MFAEnabled = s.mfa.Enabled(ctx, user.ID)
	}

	return &AuthResponse{
		User:         userResponse,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}
