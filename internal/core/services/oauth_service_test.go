package services

import (
	"context"
	"fmt"
	"testing"

	"gymgate/internal/adapters/persistence/models"
	"gymgate/internal/adapters/persistence/repositories"
	"gymgate/internal/core/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeIdentityProvider resolves every code and token to a fixed identity
type fakeIdentityProvider struct {
	identity ProviderIdentity
	fail     bool
}

func (p *fakeIdentityProvider) AuthCodeURL(provider domain.OAuthProvider, state string) (string, error) {
	return fmt.Sprintf("https://provider.example/%s/authorize?state=%s", provider, state), nil
}

func (p *fakeIdentityProvider) ExchangeIdentity(ctx context.Context, provider domain.OAuthProvider, code string) (*ProviderIdentity, error) {
	if p.fail {
		return nil, domain.ErrProviderVerification
	}
	identity := p.identity
	return &identity, nil
}

func (p *fakeIdentityProvider) VerifyToken(ctx context.Context, provider domain.OAuthProvider, accessToken string) (*ProviderIdentity, error) {
	return p.ExchangeIdentity(ctx, provider, accessToken)
}

type oauthFixture struct {
	oauth    *OAuthService
	users    *repositories.MemoryUserRepository
	provider *fakeIdentityProvider
	states   *StateStore
}

func newOAuthFixture(t *testing.T) *oauthFixture {
	t.Helper()

	users := repositories.NewMemoryUserRepository()
	provider := &fakeIdentityProvider{
		identity: ProviderIdentity{
			ProviderID: "ext-12345",
			Email:      "linked@provider.example",
			Name:       "Linked Person",
		},
	}
	states := NewStateStore()
	t.Cleanup(states.Stop)

	return &oauthFixture{
		oauth:    NewOAuthService(repositories.NewMemoryOAuthRepository(), users, provider, states),
		users:    users,
		provider: provider,
		states:   states,
	}
}

func seedOAuthUser(t *testing.T, f *oauthFixture, email string) string {
	t.Helper()
	user := &models.User{
		ID:       uuid.New().String(),
		Email:    email,
		Role:     domain.RoleMember.String(),
		IsActive: true,
	}
	require.NoError(t, f.users.Create(context.Background(), user))
	return user.ID
}

func TestBeginLink(t *testing.T) {
	f := newOAuthFixture(t)
	userID := seedOAuthUser(t, f, "a@gym.fit")

	url, err := f.oauth.BeginLink(context.Background(), userID, domain.ProviderGoogle)
	require.NoError(t, err)
	assert.Contains(t, url, "https://provider.example/google/authorize?state=")
}

func TestBeginLinkUnknownProvider(t *testing.T) {
	f := newOAuthFixture(t)
	userID := seedOAuthUser(t, f, "a@gym.fit")

	_, err := f.oauth.BeginLink(context.Background(), userID, "myspace")
	assert.ErrorIs(t, err, domain.ErrUnknownProvider)
}

func TestBeginLinkUnknownUser(t *testing.T) {
	f := newOAuthFixture(t)

	_, err := f.oauth.BeginLink(context.Background(), "missing", domain.ProviderGoogle)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestCallbackLinksAccount(t *testing.T) {
	f := newOAuthFixture(t)
	ctx := context.Background()
	userID := seedOAuthUser(t, f, "a@gym.fit")

	state, err := f.states.Issue(userID, string(domain.ProviderGoogle))
	require.NoError(t, err)

	account, err := f.oauth.Callback(ctx, &CallbackInput{Code: "authcode", State: state})
	require.NoError(t, err)
	assert.Equal(t, userID, account.UserID)
	assert.Equal(t, "google", account.Provider)
	assert.Equal(t, "ext-12345", account.ProviderID)

	accounts, err := f.oauth.Accounts(ctx, userID)
	require.NoError(t, err)
	require.Len(t, accounts, 1)
}

func TestCallbackBadState(t *testing.T) {
	f := newOAuthFixture(t)
	ctx := context.Background()

	_, err := f.oauth.Callback(ctx, &CallbackInput{Code: "authcode", State: "forged"})
	assert.ErrorIs(t, err, domain.ErrCSRFValidation)

	_, err = f.oauth.Callback(ctx, &CallbackInput{Code: "authcode", State: ""})
	assert.ErrorIs(t, err, domain.ErrCSRFValidation)
}

func TestCallbackStateSingleUse(t *testing.T) {
	f := newOAuthFixture(t)
	ctx := context.Background()
	userID := seedOAuthUser(t, f, "a@gym.fit")

	state, err := f.states.Issue(userID, string(domain.ProviderGoogle))
	require.NoError(t, err)

	_, err = f.oauth.Callback(ctx, &CallbackInput{Code: "authcode", State: state})
	require.NoError(t, err)

	// Replaying the same state fails closed
	_, err = f.oauth.Callback(ctx, &CallbackInput{Code: "authcode", State: state})
	assert.ErrorIs(t, err, domain.ErrCSRFValidation)
}

func TestCallbackProviderFailure(t *testing.T) {
	f := newOAuthFixture(t)
	userID := seedOAuthUser(t, f, "a@gym.fit")
	f.provider.fail = true

	state, err := f.states.Issue(userID, string(domain.ProviderGoogle))
	require.NoError(t, err)

	_, err = f.oauth.Callback(context.Background(), &CallbackInput{Code: "authcode", State: state})
	assert.ErrorIs(t, err, domain.ErrProviderVerification)
}

func TestLinkByToken(t *testing.T) {
	f := newOAuthFixture(t)
	userID := seedOAuthUser(t, f, "a@gym.fit")

	account, err := f.oauth.Link(context.Background(), userID, domain.ProviderGitHub, "provider-token")
	require.NoError(t, err)
	assert.Equal(t, "github", account.Provider)
}

func TestLinkIdentityBoundToOneUser(t *testing.T) {
	f := newOAuthFixture(t)
	ctx := context.Background()
	first := seedOAuthUser(t, f, "first@gym.fit")
	second := seedOAuthUser(t, f, "second@gym.fit")

	_, err := f.oauth.Link(ctx, first, domain.ProviderGoogle, "token")
	require.NoError(t, err)

	// Same provider identity cannot attach to a second user
	_, err = f.oauth.Link(ctx, second, domain.ProviderGoogle, "token")
	assert.ErrorIs(t, err, domain.ErrAlreadyLinked)

	// Re-linking the same user is a no-op success
	account, err := f.oauth.Link(ctx, first, domain.ProviderGoogle, "token")
	require.NoError(t, err)
	assert.Equal(t, first, account.UserID)
}

func TestUnlink(t *testing.T) {
	f := newOAuthFixture(t)
	ctx := context.Background()
	userID := seedOAuthUser(t, f, "a@gym.fit")

	_, err := f.oauth.Link(ctx, userID, domain.ProviderGoogle, "token")
	require.NoError(t, err)

	require.NoError(t, f.oauth.Unlink(ctx, userID, domain.ProviderGoogle))

	accounts, err := f.oauth.Accounts(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, accounts)

	// Unlinking again is still a success
	require.NoError(t, f.oauth.Unlink(ctx, userID, domain.ProviderGoogle))
}

func TestUnlinkUnknownProvider(t *testing.T) {
	f := newOAuthFixture(t)
	userID := seedOAuthUser(t, f, "a@gym.fit")

	err := f.oauth.Unlink(context.Background(), userID, "myspace")
	assert.ErrorIs(t, err, domain.ErrUnknownProvider)
}
