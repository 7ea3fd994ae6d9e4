package services

import (
	"context"
	"testing"
	"time"

	"gymgate/internal/adapters/persistence/repositories"
	"gymgate/internal/config"
	"gymgate/internal/core/domain"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		AppMode: "dev",
		JWT: config.JWTConfig{
			Secret:           "test-secret",
			RefreshSecret:    "test-refresh-secret",
			AccessTokenMins:  15,
			RefreshTokenDays: 7,
			PendingMFAMins:   5,
		},
		MFA: config.MFAConfig{Issuer: "GymGate"},
	}
}

type authFixture struct {
	auth     *AuthService
	mfa      *MFAService
	smsCodes *SMSCodeService
	sender   *captureSender
	users    *repositories.MemoryUserRepository
	tokens   *repositories.MemoryRefreshTokenRepository
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	users := repositories.NewMemoryUserRepository()
	tokens := repositories.NewMemoryRefreshTokenRepository()
	mfaRepo := repositories.NewMemoryMFARepository()
	sender := &captureSender{}

	smsCodes := NewSMSCodeService()
	t.Cleanup(smsCodes.Stop)

	mfa := NewMFAService(mfaRepo, users, smsCodes, sender, "GymGate")
	auth := NewAuthService(users, tokens, mfa, testConfig())

	return &authFixture{auth: auth, mfa: mfa, smsCodes: smsCodes, sender: sender, users: users, tokens: tokens}
}

func registerUser(t *testing.T, f *authFixture, email string) *AuthResponse {
	t.Helper()
	resp, err := f.auth.Register(context.Background(), &RegisterInput{
		Email:    email,
		Password: "password123",
	})
	require.NoError(t, err)
	return resp
}

func TestRegister(t *testing.T) {
	f := newAuthFixture(t)

	resp := registerUser(t, f, "New.Member@Gym.fit")

	require.NotNil(t, resp.User)
	assert.Equal(t, "new.member@gym.fit", resp.User.Email)
	assert.Equal(t, domain.RoleMember.String(), resp.User.Role)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)

	claims, err := f.auth.ValidateAccessToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, claims.UserID)
	assert.Equal(t, "member", claims.Role)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	f := newAuthFixture(t)
	registerUser(t, f, "dup@gym.fit")

	_, err := f.auth.Register(context.Background(), &RegisterInput{
		Email:    "DUP@gym.fit",
		Password: "password123",
	})
	assert.ErrorIs(t, err, domain.ErrUserAlreadyExists)
}

func TestLogin(t *testing.T) {
	f := newAuthFixture(t)
	registerUser(t, f, "login@gym.fit")

	resp, err := f.auth.Login(context.Background(), &LoginInput{
		Email:    "login@gym.fit",
		Password: "password123",
	})
	require.NoError(t, err)
	assert.False(t, resp.MFARequired)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
}

func TestLoginWrongPassword(t *testing.T) {
	f := newAuthFixture(t)
	registerUser(t, f, "login@gym.fit")

	_, err := f.auth.Login(context.Background(), &LoginInput{
		Email:    "login@gym.fit",
		Password: "wrongpassword",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestLoginUnknownEmail(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.auth.Login(context.Background(), &LoginInput{
		Email:    "ghost@gym.fit",
		Password: "password123",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestLoginInactiveUser(t *testing.T) {
	f := newAuthFixture(t)
	resp := registerUser(t, f, "frozen@gym.fit")

	require.NoError(t, f.auth.SetActive(context.Background(), resp.User.ID, false))

	_, err := f.auth.Login(context.Background(), &LoginInput{
		Email:    "frozen@gym.fit",
		Password: "password123",
	})
	assert.ErrorIs(t, err, domain.ErrUserInactive)
}

func TestRefreshTokenRotation(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	first := registerUser(t, f, "rotate@gym.fit")

	second, err := f.auth.RefreshToken(ctx, first.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, second.AccessToken)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)

	// The rotated-out token is dead
	_, err = f.auth.RefreshToken(ctx, first.RefreshToken)
	assert.ErrorIs(t, err, domain.ErrTokenRevoked)

	// The replacement still works
	_, err = f.auth.RefreshToken(ctx, second.RefreshToken)
	assert.NoError(t, err)
}

func TestRefreshTokenGarbage(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.auth.RefreshToken(context.Background(), "not-a-token")
	assert.ErrorIs(t, err, domain.ErrMalformedToken)
}

func TestLogout(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	resp := registerUser(t, f, "bye@gym.fit")

	require.NoError(t, f.auth.Logout(ctx, resp.RefreshToken))

	_, err := f.auth.RefreshToken(ctx, resp.RefreshToken)
	assert.ErrorIs(t, err, domain.ErrTokenRevoked)
}

func TestLogoutAll(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	first := registerUser(t, f, "multi@gym.fit")

	second, err := f.auth.Login(ctx, &LoginInput{Email: "multi@gym.fit", Password: "password123"})
	require.NoError(t, err)

	require.NoError(t, f.auth.LogoutAll(ctx, first.User.ID))

	_, err = f.auth.RefreshToken(ctx, first.RefreshToken)
	assert.ErrorIs(t, err, domain.ErrTokenRevoked)
	_, err = f.auth.RefreshToken(ctx, second.RefreshToken)
	assert.ErrorIs(t, err, domain.ErrTokenRevoked)
}

func TestChangePassword(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	resp := registerUser(t, f, "rotatepw@gym.fit")

	err := f.auth.ChangePassword(ctx, resp.User.ID, "password123", "newpassword456")
	require.NoError(t, err)

	// Old sessions are revoked
	_, err = f.auth.RefreshToken(ctx, resp.RefreshToken)
	assert.ErrorIs(t, err, domain.ErrTokenRevoked)

	// Old password stops working, new one logs in
	_, err = f.auth.Login(ctx, &LoginInput{Email: "rotatepw@gym.fit", Password: "password123"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	_, err = f.auth.Login(ctx, &LoginInput{Email: "rotatepw@gym.fit", Password: "newpassword456"})
	assert.NoError(t, err)
}

func TestChangePasswordWrongCurrent(t *testing.T) {
	f := newAuthFixture(t)
	resp := registerUser(t, f, "guess@gym.fit")

	err := f.auth.ChangePassword(context.Background(), resp.User.ID, "wrongcurrent", "newpassword456")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestResetPasswordRevokesSessions(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	resp := registerUser(t, f, "reset@gym.fit")

	require.NoError(t, f.auth.ResetPassword(ctx, resp.User.ID, "freshpassword"))

	_, err := f.auth.RefreshToken(ctx, resp.RefreshToken)
	assert.ErrorIs(t, err, domain.ErrTokenRevoked)

	_, err = f.auth.Login(ctx, &LoginInput{Email: "reset@gym.fit", Password: "freshpassword"})
	assert.NoError(t, err)
}

func TestDeactivationRevokesSessions(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	resp := registerUser(t, f, "kicked@gym.fit")

	require.NoError(t, f.auth.SetActive(ctx, resp.User.ID, false))

	_, err := f.auth.RefreshToken(ctx, resp.RefreshToken)
	assert.ErrorIs(t, err, domain.ErrTokenRevoked)
}

// enableTOTP enrolls and confirms a TOTP second factor, returning the secret
// and the backup codes
func enableTOTP(t *testing.T, f *authFixture, userID string) (string, []string) {
	t.Helper()
	ctx := context.Background()

	setup, err := f.mfa.BeginEnrollment(ctx, userID, domain.MFAMethodTOTP, "")
	require.NoError(t, err)

	code := currentTOTP(t, setup.Secret)
	require.NoError(t, f.mfa.ConfirmEnrollment(ctx, userID, code))

	return setup.Secret, setup.BackupCodes
}

func currentTOTP(t *testing.T, secret string) string {
	t.Helper()
	code, err := totp.GenerateCodeCustom(secret, time.Now(), totp.ValidateOpts{
		Period:    30,
		Skew:      1,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	require.NoError(t, err)
	return code
}

func TestLoginWithMFAEnabled(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	resp := registerUser(t, f, "second@gym.fit")
	secret, _ := enableTOTP(t, f, resp.User.ID)

	gated, err := f.auth.Login(ctx, &LoginInput{Email: "second@gym.fit", Password: "password123"})
	require.NoError(t, err)
	assert.True(t, gated.MFARequired)
	assert.NotEmpty(t, gated.PendingToken)
	assert.Empty(t, gated.AccessToken)
	assert.Empty(t, gated.RefreshToken)

	final, err := f.auth.CompleteMFALogin(ctx, gated.PendingToken, &MFAVerifyInput{
		Token: currentTOTP(t, secret),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, final.AccessToken)
	assert.True(t, final.User.MFAEnabled)
}

func TestCompleteMFALoginWrongCode(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	resp := registerUser(t, f, "second@gym.fit")
	enableTOTP(t, f, resp.User.ID)

	gated, err := f.auth.Login(ctx, &LoginInput{Email: "second@gym.fit", Password: "password123"})
	require.NoError(t, err)

	_, err = f.auth.CompleteMFALogin(ctx, gated.PendingToken, &MFAVerifyInput{Token: "000000"})
	assert.ErrorIs(t, err, domain.ErrInvalidMFACode)
}

func TestCompleteMFALoginWithBackupCode(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	resp := registerUser(t, f, "second@gym.fit")
	_, backupCodes := enableTOTP(t, f, resp.User.ID)

	gated, err := f.auth.Login(ctx, &LoginInput{Email: "second@gym.fit", Password: "password123"})
	require.NoError(t, err)

	final, err := f.auth.CompleteMFALogin(ctx, gated.PendingToken, &MFAVerifyInput{
		BackupCode: backupCodes[0],
	})
	require.NoError(t, err)
	assert.NotEmpty(t, final.AccessToken)
}

func TestLoginWithSMSMFA(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	resp := registerUser(t, f, "sms@gym.fit")

	_, err := f.mfa.BeginEnrollment(ctx, resp.User.ID, domain.MFAMethodSMS, "+66812345678")
	require.NoError(t, err)
	enrollCode := f.sender.last()
	require.NoError(t, f.mfa.ConfirmEnrollment(ctx, resp.User.ID, enrollCode))

	// The password step dispatches a fresh challenge alongside the pending token
	gated, err := f.auth.Login(ctx, &LoginInput{Email: "sms@gym.fit", Password: "password123"})
	require.NoError(t, err)
	assert.True(t, gated.MFARequired)
	assert.Empty(t, gated.AccessToken)

	challenge := f.sender.last()
	require.NotEmpty(t, challenge)
	assert.NotEqual(t, enrollCode, challenge)

	final, err := f.auth.CompleteMFALogin(ctx, gated.PendingToken, &MFAVerifyInput{Token: challenge})
	require.NoError(t, err)
	assert.NotEmpty(t, final.AccessToken)
	assert.True(t, final.User.MFAEnabled)
}

func TestLoginWithTOTPDoesNotDispatchSMS(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	resp := registerUser(t, f, "quiet@gym.fit")
	enableTOTP(t, f, resp.User.ID)

	gated, err := f.auth.Login(ctx, &LoginInput{Email: "quiet@gym.fit", Password: "password123"})
	require.NoError(t, err)
	assert.True(t, gated.MFARequired)
	assert.Empty(t, f.sender.last())
}

func TestSessionCapRevokesOlderSessions(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	first := registerUser(t, f, "hoarder@gym.fit")

	var last *AuthResponse
	for i := 0; i < maxActiveSessions; i++ {
		resp, err := f.auth.Login(ctx, &LoginInput{Email: "hoarder@gym.fit", Password: "password123"})
		require.NoError(t, err)
		last = resp
	}

	// Crossing the cap killed everything issued before it
	_, err := f.auth.RefreshToken(ctx, first.RefreshToken)
	assert.ErrorIs(t, err, domain.ErrTokenRevoked)
	_, err = f.auth.RefreshToken(ctx, last.RefreshToken)
	assert.NoError(t, err)
}

func TestCompleteMFALoginBadPendingToken(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.auth.CompleteMFALogin(context.Background(), "garbage", &MFAVerifyInput{Token: "123456"})
	assert.ErrorIs(t, err, domain.ErrMalformedToken)
}

func TestAccessTokenNotAcceptedAsPendingToken(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	resp := registerUser(t, f, "sneaky@gym.fit")
	enableTOTP(t, f, resp.User.ID)

	// A full access token must not pass the pending-stage check
	_, err := f.auth.CompleteMFALogin(ctx, resp.AccessToken, &MFAVerifyInput{Token: "123456"})
	assert.Error(t, err)
}
