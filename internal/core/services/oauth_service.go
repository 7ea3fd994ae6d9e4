package services

import (
	"context"
	"errors"
	"log"

	"gymgate/internal/adapters/persistence/models"
	"gymgate/internal/adapters/persistence/repositories"
	"gymgate/internal/core/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OAuthService manages external identity provider links
type OAuthService struct {
	oauthRepo repositories.OAuthRepository
	userRepo  repositories.UserRepository
	provider  IdentityProvider
	states    *StateStore
}

// NewOAuthService creates a new OAuth link service
func NewOAuthService(
	oauthRepo repositories.OAuthRepository,
	userRepo repositories.UserRepository,
	provider IdentityProvider,
	states *StateStore,
) *OAuthService {
	return &OAuthService{
		oauthRepo: oauthRepo,
		userRepo:  userRepo,
		provider:  provider,
		states:    states,
	}
}

// CallbackInput carries the query parameters the provider redirects with
type CallbackInput struct {
	Code  string `json:"code"`
	State string `json:"state"`
}

// BeginLink issues a state token and returns the provider redirect URL
func (s *OAuthService) BeginLink(ctx context.Context, userID string, provider domain.OAuthProvider) (string, error) {
	if !provider.IsValid() {
		return "", domain.ErrUnknownProvider
	}
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return "", domain.ErrUserNotFound
	}

	state, err := s.states.Issue(userID, string(provider))
	if err != nil {
		return "", err
	}

	return s.provider.AuthCodeURL(provider, state)
}

// Callback finishes a link flow started by BeginLink. A missing, expired or
// foreign state token fails closed.
func (s *OAuthService) Callback(ctx context.Context, input *CallbackInput) (*models.OAuthAccount, error) {
	if input.State == "" || input.Code == "" {
		return nil, domain.ErrCSRFValidation
	}

	userID, providerName, ok := s.states.Consume(input.State)
	if !ok {
		return nil, domain.ErrCSRFValidation
	}
	provider := domain.OAuthProvider(providerName)

	identity, err := s.provider.ExchangeIdentity(ctx, provider, input.Code)
	if err != nil {
		return nil, err
	}

	return s.link(ctx, userID, provider, identity)
}

// Link associates a provider account with a user from an already-obtained
// provider token
func (s *OAuthService) Link(ctx context.Context, userID string, provider domain.OAuthProvider, accessToken string) (*models.OAuthAccount, error) {
	if !provider.IsValid() {
		return nil, domain.ErrUnknownProvider
	}

	identity, err := s.provider.VerifyToken(ctx, provider, accessToken)
	if err != nil {
		return nil, err
	}

	return s.link(ctx, userID, provider, identity)
}

// Unlink removes a provider link. Unlinking a provider that is not linked is
// a no-op success so clients can retry freely.
func (s *OAuthService) Unlink(ctx context.Context, userID string, provider domain.OAuthProvider) error {
	if !provider.IsValid() {
		return domain.ErrUnknownProvider
	}
	if err := s.oauthRepo.Delete(ctx, userID, string(provider)); err != nil {
		return err
	}
	log.Printf("✅ Provider %s unlinked for user: %s", provider, userID)
	return nil
}

// Accounts lists all provider accounts linked to a user
func (s *OAuthService) Accounts(ctx context.Context, userID string) ([]*models.OAuthAccount, error) {
	return s.oauthRepo.GetByUserID(ctx, userID)
}

// link persists the association, enforcing that one provider identity maps
// to at most one local user
func (s *OAuthService) link(ctx context.Context, userID string, provider domain.OAuthProvider, identity *ProviderIdentity) (*models.OAuthAccount, error) {
	existing, err := s.oauthRepo.GetByProviderID(ctx, string(provider), identity.ProviderID)
	if err == nil {
		if existing.UserID != userID {
			return nil, domain.ErrAlreadyLinked
		}
		// Already linked to this user, nothing to do
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	account := &models.OAuthAccount{
		ID:         uuid.New().String(),
		UserID:     userID,
		Provider:   string(provider),
		ProviderID: identity.ProviderID,
		Email:      identity.Email,
		Name:       identity.Name,
		Avatar:     identity.Avatar,
	}

	if err := s.oauthRepo.Save(ctx, account); err != nil {
		// A concurrent link of the same provider identity loses here
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, domain.ErrAlreadyLinked
		}
		return nil, err
	}

	log.Printf("✅ Provider %s linked for user: %s", provider, userID)
	return account, nil
}
