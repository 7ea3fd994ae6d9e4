package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log"
	"time"

	"gymgate/internal/adapters/persistence/models"
	"gymgate/internal/adapters/persistence/repositories"
	"gymgate/internal/core/domain"
	"gymgate/internal/pkg/password"

	"github.com/google/uuid"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"gorm.io/gorm"
)

// MFA parameters. Secrets are 160-bit, codes are 6 digits over 30s steps
// with ±1 step of drift tolerance. Backup codes are 10 hex chars each.
const (
	totpSecretSize  = 20
	totpPeriod      = 30
	totpSkew        = 1
	backupCodeCount = 10
	backupCodeBytes = 5
)

// SMSSender delivers a short verification code to a phone number. The real
// gateway lives outside this service.
type SMSSender interface {
	Send(ctx context.Context, phone, code string) error
}

// logSMSSender is the default sender used until a gateway is wired in. It
// never logs the code itself.
type logSMSSender struct{}

func (logSMSSender) Send(ctx context.Context, phone, code string) error {
	log.Printf("📱 SMS verification code dispatched to %s", maskPhone(phone))
	return nil
}

// MFAService manages second-factor enrollment and verification
type MFAService struct {
	mfaRepo  repositories.MFARepository
	userRepo repositories.UserRepository
	smsCodes *SMSCodeService
	sender   SMSSender
	issuer   string
}

// NewMFAService creates a new MFA service
func NewMFAService(
	mfaRepo repositories.MFARepository,
	userRepo repositories.UserRepository,
	smsCodes *SMSCodeService,
	sender SMSSender,
	issuer string,
) *MFAService {
	if sender == nil {
		sender = logSMSSender{}
	}
	return &MFAService{
		mfaRepo:  mfaRepo,
		userRepo: userRepo,
		smsCodes: smsCodes,
		sender:   sender,
		issuer:   issuer,
	}
}

// EnrollmentSetup is returned once at enrollment start. The secret and the
// plaintext backup codes are never retrievable again.
type EnrollmentSetup struct {
	Secret      string   `json:"secret"`
	QRCodeURL   string   `json:"qr_code_url"`
	BackupCodes []string `json:"backup_codes"`
}

// MFAVerifyInput carries either a one-time code or a backup code
type MFAVerifyInput struct {
	Token      string `json:"token,omitempty"`
	BackupCode string `json:"backup_code,omitempty"`
}

// BeginEnrollment generates a fresh secret and backup codes. The enrollment
// stays pending until ConfirmEnrollment sees a valid code.
func (s *MFAService) BeginEnrollment(ctx context.Context, userID string, method domain.MFAMethod, phone string) (*EnrollmentSetup, error) {
	if !method.IsValid() {
		return nil, domain.ErrUnsupportedMethod
	}

	existing, err := s.mfaRepo.GetEnrollment(ctx, userID)
	if err == nil && existing.Enabled {
		return nil, domain.ErrAlreadyEnrolled
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, domain.ErrUserNotFound
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.issuer,
		AccountName: user.Email,
		SecretSize:  totpSecretSize,
	})
	if err != nil {
		return nil, err
	}

	if method == domain.MFAMethodSMS && phone == "" {
		phone = user.Phone
	}
	if method == domain.MFAMethodSMS && phone == "" {
		return nil, domain.ErrInvalidInput
	}

	enrollment := &models.MFAEnrollment{
		UserID:  userID,
		Secret:  key.Secret(),
		Method:  string(method),
		Phone:   phone,
		Enabled: false,
	}
	if err := s.mfaRepo.SaveEnrollment(ctx, enrollment); err != nil {
		return nil, err
	}

	// Replace any codes left over from an abandoned enrollment
	if err := s.mfaRepo.DeleteBackupCodes(ctx, userID); err != nil {
		return nil, err
	}
	plain, rows, err := generateBackupCodes(userID)
	if err != nil {
		return nil, err
	}
	if err := s.mfaRepo.SaveBackupCodes(ctx, rows); err != nil {
		return nil, err
	}

	if method == domain.MFAMethodSMS {
		if err := s.sendSMSCode(ctx, userID, phone); err != nil {
			return nil, err
		}
	}

	log.Printf("✅ MFA enrollment started for user: %s [method: %s]", userID, method)

	return &EnrollmentSetup{
		Secret:      key.Secret(),
		QRCodeURL:   key.URL(),
		BackupCodes: plain,
	}, nil
}

// ConfirmEnrollment validates the first code and activates the enrollment
func (s *MFAService) ConfirmEnrollment(ctx context.Context, userID, code string) error {
	enrollment, err := s.mfaRepo.GetEnrollment(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrEnrollmentNotFound
		}
		return err
	}
	if enrollment.Enabled {
		return domain.ErrAlreadyEnrolled
	}

	if !s.checkCode(enrollment, userID, code) {
		return domain.ErrInvalidMFACode
	}

	now := time.Now()
	enrollment.Enabled = true
	enrollment.ConfirmedAt = &now
	if err := s.mfaRepo.SaveEnrollment(ctx, enrollment); err != nil {
		return err
	}

	log.Printf("✅ MFA enabled for user: %s", userID)
	return nil
}

// Verify checks a second factor for an enabled enrollment. Backup codes are
// single-use: redemption is atomic, concurrent attempts on the same code
// yield exactly one success.
func (s *MFAService) Verify(ctx context.Context, userID string, input *MFAVerifyInput) error {
	enrollment, err := s.mfaRepo.GetEnrollment(ctx, userID)
	if err != nil || !enrollment.Enabled {
		return domain.ErrNotEnrolled
	}

	if input.BackupCode != "" {
		hash := password.HashToken(input.BackupCode)
		redeemed, err := s.mfaRepo.RedeemBackupCode(ctx, userID, hash)
		if err != nil {
			return err
		}
		if !redeemed {
			if s.backupCodeSpent(ctx, userID, hash) {
				return domain.ErrBackupCodeUsed
			}
			return domain.ErrInvalidMFACode
		}
		log.Printf("✅ Backup code redeemed for user: %s", userID)
		return nil
	}

	if !s.checkCode(enrollment, userID, input.Token) {
		return domain.ErrInvalidMFACode
	}
	return nil
}

// Disable discards the enrollment and all remaining backup codes
func (s *MFAService) Disable(ctx context.Context, userID string) error {
	_, err := s.mfaRepo.GetEnrollment(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrNotEnrolled
		}
		return err
	}

	if err := s.mfaRepo.DeleteBackupCodes(ctx, userID); err != nil {
		return err
	}
	if err := s.mfaRepo.DeleteEnrollment(ctx, userID); err != nil {
		return err
	}

	log.Printf("✅ MFA disabled for user: %s", userID)
	return nil
}

// Enabled reports whether the user has an active enrollment
func (s *MFAService) Enabled(ctx context.Context, userID string) bool {
	enrollment, err := s.mfaRepo.GetEnrollment(ctx, userID)
	return err == nil && enrollment.Enabled
}

// RegenerateBackupCodes replaces all backup codes for an enabled enrollment
func (s *MFAService) RegenerateBackupCodes(ctx context.Context, userID string) ([]string, error) {
	enrollment, err := s.mfaRepo.GetEnrollment(ctx, userID)
	if err != nil || !enrollment.Enabled {
		return nil, domain.ErrNotEnrolled
	}

	if err := s.mfaRepo.DeleteBackupCodes(ctx, userID); err != nil {
		return nil, err
	}
	plain, rows, err := generateBackupCodes(userID)
	if err != nil {
		return nil, err
	}
	if err := s.mfaRepo.SaveBackupCodes(ctx, rows); err != nil {
		return nil, err
	}

	log.Printf("✅ Backup codes regenerated for user: %s", userID)
	return plain, nil
}

// BackupCodesRemaining counts the unredeemed backup codes for a user
func (s *MFAService) BackupCodesRemaining(ctx context.Context, userID string) (int, error) {
	codes, err := s.mfaRepo.GetBackupCodes(ctx, userID)
	if err != nil {
		return 0, err
	}
	remaining := 0
	for _, c := range codes {
		if !c.Used {
			remaining++
		}
	}
	return remaining, nil
}

// backupCodeSpent reports whether the hash matches an already-redeemed code
func (s *MFAService) backupCodeSpent(ctx context.Context, userID, codeHash string) bool {
	codes, err := s.mfaRepo.GetBackupCodes(ctx, userID)
	if err != nil {
		return false
	}
	for _, c := range codes {
		if c.CodeHash == codeHash && c.Used {
			return true
		}
	}
	return false
}

// SendChallenge dispatches a fresh SMS code for an sms-method enrollment
func (s *MFAService) SendChallenge(ctx context.Context, userID string) error {
	enrollment, err := s.mfaRepo.GetEnrollment(ctx, userID)
	if err != nil || !enrollment.Enabled {
		return domain.ErrNotEnrolled
	}
	if enrollment.Method != string(domain.MFAMethodSMS) {
		return domain.ErrUnsupportedMethod
	}
	return s.sendSMSCode(ctx, userID, enrollment.Phone)
}

// checkCode validates a code against the enrollment's method
func (s *MFAService) checkCode(enrollment *models.MFAEnrollment, userID, code string) bool {
	if code == "" {
		return false
	}
	switch enrollment.Method {
	case string(domain.MFAMethodSMS):
		return s.smsCodes.Verify(userID, code) == nil
	default:
		ok, err := totp.ValidateCustom(code, enrollment.Secret, time.Now(), totp.ValidateOpts{
			Period:    totpPeriod,
			Skew:      totpSkew,
			Digits:    otp.DigitsSix,
			Algorithm: otp.AlgorithmSHA1,
		})
		return err == nil && ok
	}
}

// sendSMSCode generates and dispatches a short verification code
func (s *MFAService) sendSMSCode(ctx context.Context, userID, phone string) error {
	code, err := s.smsCodes.Generate(userID, phone)
	if err != nil {
		return err
	}
	return s.sender.Send(ctx, phone, code)
}

// generateBackupCodes builds a fresh plaintext set plus the hashed rows
func generateBackupCodes(userID string) ([]string, []*models.MFABackupCode, error) {
	plain := make([]string, 0, backupCodeCount)
	rows := make([]*models.MFABackupCode, 0, backupCodeCount)
	for i := 0; i < backupCodeCount; i++ {
		buf := make([]byte, backupCodeBytes)
		if _, err := rand.Read(buf); err != nil {
			return nil, nil, err
		}
		code := hex.EncodeToString(buf)
		plain = append(plain, code)
		rows = append(rows, &models.MFABackupCode{
			ID:       uuid.New().String(),
			UserID:   userID,
			CodeHash: password.HashToken(code),
			Used:     false,
		})
	}
	return plain, rows, nil
}

// maskPhone hides all but the last two digits
func maskPhone(phone string) string {
	if len(phone) <= 2 {
		return "**"
	}
	masked := make([]byte, len(phone)-2)
	for i := range masked {
		masked[i] = '*'
	}
	return string(masked) + phone[len(phone)-2:]
}
