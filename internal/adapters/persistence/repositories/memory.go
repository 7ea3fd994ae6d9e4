package repositories

import (
	"context"
	"strings"
	"sync"
	"time"

	"gymgate/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// In-memory repository implementations. They honor the same contracts as the
// GORM ones, including gorm.ErrRecordNotFound on misses and single-success
// backup-code redemption, so services can run against them in tests.

// MemoryUserRepository is an in-memory UserRepository
type MemoryUserRepository struct {
	mu    sync.RWMutex
	users map[string]*models.User
}

// NewMemoryUserRepository creates an empty in-memory user repository
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{users: make(map[string]*models.User)}
}

func (r *MemoryUserRepository) Create(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user.Email = strings.ToLower(user.Email)
	for _, u := range r.users {
		if u.Email == user.Email {
			return gorm.ErrDuplicatedKey
		}
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = time.Now()
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *MemoryUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *MemoryUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	email = strings.ToLower(email)
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *MemoryUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := r.FindByEmail(ctx, email)
	if err == nil {
		return true, nil
	}
	return false, nil
}

func (r *MemoryUserRepository) UpdatePassword(ctx context.Context, userID, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.PasswordHash = hash
	u.UpdatedAt = time.Now()
	return nil
}

func (r *MemoryUserRepository) SetActive(ctx context.Context, userID string, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.IsActive = active
	u.UpdatedAt = time.Now()
	return nil
}

func (r *MemoryUserRepository) SetVerified(ctx context.Context, userID string, verified bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.EmailVerified = verified
	u.UpdatedAt = time.Now()
	return nil
}

// MemoryRefreshTokenRepository is an in-memory RefreshTokenRepository
type MemoryRefreshTokenRepository struct {
	mu     sync.Mutex
	nextID uint
	tokens map[uint]*models.RefreshToken
}

// NewMemoryRefreshTokenRepository creates an empty in-memory token repository
func NewMemoryRefreshTokenRepository() *MemoryRefreshTokenRepository {
	return &MemoryRefreshTokenRepository{nextID: 1, tokens: make(map[uint]*models.RefreshToken)}
}

func (r *MemoryRefreshTokenRepository) Create(ctx context.Context, token *models.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	token.ID = r.nextID
	r.nextID++
	token.CreatedAt = time.Now()
	cp := *token
	r.tokens[token.ID] = &cp
	return nil
}

func (r *MemoryRefreshTokenRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tokens {
		if t.TokenHash == tokenHash && t.RevokedAt == nil {
			cp := *t
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *MemoryRefreshTokenRepository) Revoke(ctx context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tokens[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	now := time.Now()
	t.RevokedAt = &now
	return nil
}

func (r *MemoryRefreshTokenRepository) RevokeByTokenHash(ctx context.Context, tokenHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	for _, t := range r.tokens {
		if t.TokenHash == tokenHash {
			t.RevokedAt = &now
		}
	}
	return nil
}

func (r *MemoryRefreshTokenRepository) RevokeAllByUserID(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	for _, t := range r.tokens {
		if t.UserID == userID && t.RevokedAt == nil {
			t.RevokedAt = &now
		}
	}
	return nil
}

func (r *MemoryRefreshTokenRepository) DeleteExpired(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, t := range r.tokens {
		if t.IsExpired() {
			delete(r.tokens, id)
		}
	}
	return nil
}

func (r *MemoryRefreshTokenRepository) CountActiveByUserID(ctx context.Context, userID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, t := range r.tokens {
		if t.UserID == userID && t.RevokedAt == nil && !t.IsExpired() {
			count++
		}
	}
	return count, nil
}

// MemoryMFARepository is an in-memory MFARepository
type MemoryMFARepository struct {
	mu          sync.Mutex
	enrollments map[string]*models.MFAEnrollment
	codes       map[string]*models.MFABackupCode
}

// NewMemoryMFARepository creates an empty in-memory MFA repository
func NewMemoryMFARepository() *MemoryMFARepository {
	return &MemoryMFARepository{
		enrollments: make(map[string]*models.MFAEnrollment),
		codes:       make(map[string]*models.MFABackupCode),
	}
}

func (r *MemoryMFARepository) GetEnrollment(ctx context.Context, userID string) (*models.MFAEnrollment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.enrollments[userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *e
	return &cp, nil
}

func (r *MemoryMFARepository) SaveEnrollment(ctx context.Context, enrollment *models.MFAEnrollment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if enrollment.CreatedAt.IsZero() {
		enrollment.CreatedAt = time.Now()
	}
	enrollment.UpdatedAt = time.Now()
	cp := *enrollment
	r.enrollments[enrollment.UserID] = &cp
	return nil
}

func (r *MemoryMFARepository) DeleteEnrollment(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.enrollments, userID)
	return nil
}

func (r *MemoryMFARepository) SaveBackupCodes(ctx context.Context, codes []*models.MFABackupCode) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range codes {
		c.CreatedAt = time.Now()
		cp := *c
		r.codes[c.ID] = &cp
	}
	return nil
}

func (r *MemoryMFARepository) GetBackupCodes(ctx context.Context, userID string) ([]*models.MFABackupCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.MFABackupCode
	for _, c := range r.codes {
		if c.UserID == userID {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *MemoryMFARepository) RedeemBackupCode(ctx context.Context, userID, codeHash string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.codes {
		if c.UserID == userID && c.CodeHash == codeHash && !c.Used {
			now := time.Now()
			c.Used = true
			c.UsedAt = &now
			return true, nil
		}
	}
	return false, nil
}

func (r *MemoryMFARepository) DeleteBackupCodes(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, c := range r.codes {
		if c.UserID == userID {
			delete(r.codes, id)
		}
	}
	return nil
}

func (r *MemoryMFARepository) DeleteStalePending(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cutoff := time.Now().Add(-pendingEnrollmentTTL)
	for userID, e := range r.enrollments {
		if !e.Enabled && e.CreatedAt.Before(cutoff) {
			delete(r.enrollments, userID)
		}
	}
	return nil
}

// MemoryOAuthRepository is an in-memory OAuthRepository
type MemoryOAuthRepository struct {
	mu       sync.Mutex
	accounts map[string]*models.OAuthAccount // key = provider + "/" + providerID
}

// NewMemoryOAuthRepository creates an empty in-memory OAuth repository
func NewMemoryOAuthRepository() *MemoryOAuthRepository {
	return &MemoryOAuthRepository{accounts: make(map[string]*models.OAuthAccount)}
}

func (r *MemoryOAuthRepository) GetByProviderID(ctx context.Context, provider, providerID string) (*models.OAuthAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[provider+"/"+providerID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *MemoryOAuthRepository) GetByUserID(ctx context.Context, userID string) ([]*models.OAuthAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.OAuthAccount
	for _, a := range r.accounts {
		if a.UserID == userID {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *MemoryOAuthRepository) Save(ctx context.Context, account *models.OAuthAccount) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := account.Provider + "/" + account.ProviderID
	if _, ok := r.accounts[key]; ok {
		return gorm.ErrDuplicatedKey
	}
	account.LinkedAt = time.Now()
	cp := *account
	r.accounts[key] = &cp
	return nil
}

func (r *MemoryOAuthRepository) Delete(ctx context.Context, userID, provider string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for key, a := range r.accounts {
		if a.UserID == userID && a.Provider == provider {
			delete(r.accounts, key)
		}
	}
	return nil
}
