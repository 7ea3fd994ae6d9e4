package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSMSCodeFixture(t *testing.T) *SMSCodeService {
	t.Helper()
	svc := NewSMSCodeService()
	t.Cleanup(svc.Stop)
	return svc
}

func TestSMSCodeGenerateAndVerify(t *testing.T) {
	svc := newSMSCodeFixture(t)

	code, err := svc.Generate("user-1", "+66812345678")
	require.NoError(t, err)
	assert.Len(t, code, 6)

	require.NoError(t, svc.Verify("user-1", code))

	// A code verifies once
	assert.Error(t, svc.Verify("user-1", code))
}

func TestSMSCodeWrongCode(t *testing.T) {
	svc := newSMSCodeFixture(t)

	code, err := svc.Generate("user-1", "+66812345678")
	require.NoError(t, err)

	assert.Error(t, svc.Verify("user-1", "000000"))

	// Still valid after a wrong attempt
	require.NoError(t, svc.Verify("user-1", code))
}

func TestSMSCodeAttemptLimit(t *testing.T) {
	svc := newSMSCodeFixture(t)

	code, err := svc.Generate("user-1", "+66812345678")
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		assert.Error(t, svc.Verify("user-1", "999999"))
	}

	// The code burned after 5 wrong attempts
	assert.Error(t, svc.Verify("user-1", code))
}

func TestSMSCodeRateLimit(t *testing.T) {
	svc := newSMSCodeFixture(t)

	_, err := svc.Generate("user-1", "+66812345678")
	require.NoError(t, err)

	_, err = svc.Generate("user-1", "+66812345678")
	assert.Error(t, err)
}

func TestSMSCodeClear(t *testing.T) {
	svc := newSMSCodeFixture(t)

	code, err := svc.Generate("user-1", "+66812345678")
	require.NoError(t, err)

	svc.Clear("user-1")
	assert.Error(t, svc.Verify("user-1", code))
}

func TestSMSCodeNoPending(t *testing.T) {
	svc := newSMSCodeFixture(t)
	assert.Error(t, svc.Verify("user-1", "123456"))
}

func TestStateStoreSingleUse(t *testing.T) {
	states := NewStateStore()
	t.Cleanup(states.Stop)

	token, err := states.Issue("user-1", "google")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	userID, provider, ok := states.Consume(token)
	require.True(t, ok)
	assert.Equal(t, "user-1", userID)
	assert.Equal(t, "google", provider)

	_, _, ok = states.Consume(token)
	assert.False(t, ok)
}

func TestStateStoreUnknownToken(t *testing.T) {
	states := NewStateStore()
	t.Cleanup(states.Stop)

	_, _, ok := states.Consume("never-issued")
	assert.False(t, ok)
}

func TestStateTokensUnique(t *testing.T) {
	states := NewStateStore()
	t.Cleanup(states.Stop)

	a, err := states.Issue("user-1", "google")
	require.NoError(t, err)
	b, err := states.Issue("user-1", "google")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}
