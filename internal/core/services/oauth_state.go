package services

import (
	"crypto/rand"
	"encoding/base64"
	"sync"
	"time"
)

// How long an issued state token stays redeemable
const stateTTL = 10 * time.Minute

// stateEntry binds an anti-forgery token to the user and provider that
// started the redirect
type stateEntry struct {
	UserID    string
	Provider  string
	ExpiresAt time.Time
}

// StateStore holds outstanding OAuth state tokens in memory. Each token is
// single-use: Consume removes it.
type StateStore struct {
	store map[string]*stateEntry
	mu    sync.Mutex
	done  chan struct{}
}

// NewStateStore creates a state store with a background cleanup loop
func NewStateStore() *StateStore {
	s := &StateStore{
		store: make(map[string]*stateEntry),
		done:  make(chan struct{}),
	}
	go s.cleanupLoop()
	return s
}

// Issue mints a fresh random state token bound to a user and provider
func (s *StateStore) Issue(userID, provider string) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	token := base64.RawURLEncoding.EncodeToString(buf)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.store[token] = &stateEntry{
		UserID:    userID,
		Provider:  provider,
		ExpiresAt: time.Now().Add(stateTTL),
	}
	return token, nil
}

// Consume redeems a state token. It returns false for unknown, expired or
// already-consumed tokens.
func (s *StateStore) Consume(token string) (userID, provider string, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, found := s.store[token]
	if !found {
		return "", "", false
	}
	delete(s.store, token)

	if time.Now().After(entry.ExpiresAt) {
		return "", "", false
	}
	return entry.UserID, entry.Provider, true
}

// Stop terminates the cleanup loop
func (s *StateStore) Stop() {
	close(s.done)
}

// cleanupLoop periodically removes expired state tokens
func (s *StateStore) cleanupLoop() {
	ticker := time.NewTicker(stateTTL)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.mu.Lock()
			for token, entry := range s.store {
				if time.Now().After(entry.ExpiresAt) {
					delete(s.store, token)
				}
			}
			s.mu.Unlock()
		}
	}
}
