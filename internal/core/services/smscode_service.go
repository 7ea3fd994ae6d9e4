package services

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"sync"
	"time"
)

// SMSCodeEntry represents a single verification code record in memory
type SMSCodeEntry struct {
	Code      string
	Phone     string
	ExpiresAt time.Time
	Attempts  int
	Verified  bool
}

// SMSCodeService handles short verification codes for the sms MFA method.
// Codes live in memory only; they expire within minutes and are worthless
// across restarts.
type SMSCodeService struct {
	store map[string]*SMSCodeEntry // key = user id
	mu    sync.RWMutex
	done  chan struct{}
}

// NewSMSCodeService creates a new SMS code service
func NewSMSCodeService() *SMSCodeService {
	svc := &SMSCodeService{
		store: make(map[string]*SMSCodeEntry),
		done:  make(chan struct{}),
	}
	// Cleanup expired codes every 5 minutes
	go svc.cleanupLoop()
	return svc
}

// Generate creates a new 6-digit code for a user. Asking again within a
// minute of the previous code is rejected.
func (s *SMSCodeService) Generate(userID, phone string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.store[userID]; ok {
		// Codes live 5 minutes; more than 4 minutes left means one was just issued
		if time.Until(existing.ExpiresAt) > 4*time.Minute {
			return "", fmt.Errorf("a code was sent recently, wait a minute before requesting another")
		}
	}

	code, err := generateSecureCode(6)
	if err != nil {
		return "", fmt.Errorf("could not generate verification code: %w", err)
	}

	s.store[userID] = &SMSCodeEntry{
		Code:      code,
		Phone:     phone,
		ExpiresAt: time.Now().Add(5 * time.Minute),
		Attempts:  0,
		Verified:  false,
	}

	return code, nil
}

// Verify checks if the provided code is valid
func (s *SMSCodeService) Verify(userID, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.store[userID]
	if !ok {
		return fmt.Errorf("no code pending, request a new one")
	}

	if time.Now().After(entry.ExpiresAt) {
		delete(s.store, userID)
		return fmt.Errorf("code expired, request a new one")
	}

	// Check attempts (max 5)
	if entry.Attempts >= 5 {
		delete(s.store, userID)
		return fmt.Errorf("too many wrong attempts, request a new code")
	}

	entry.Attempts++
	if entry.Code != code {
		return fmt.Errorf("incorrect code (%d attempts left)", 5-entry.Attempts)
	}

	// Success - a code verifies once
	entry.Verified = true
	delete(s.store, userID)
	return nil
}

// Clear removes any pending code for a user
func (s *SMSCodeService) Clear(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.store, userID)
}

// Stop terminates the cleanup loop
func (s *SMSCodeService) Stop() {
	close(s.done)
}

// cleanupLoop periodically removes expired codes
func (s *SMSCodeService) cleanupLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.mu.Lock()
			for key, entry := range s.store {
				if time.Now().After(entry.ExpiresAt) {
					delete(s.store, key)
				}
			}
			s.mu.Unlock()
		}
	}
}

// generateSecureCode generates a cryptographically secure random digit code
func generateSecureCode(length int) (string, error) {
	result := ""
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		result += fmt.Sprintf("%d", n.Int64())
	}
	return result, nil
}
