package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "safeline/pkg/domain-errors"
)

func newTestService(t *testing.T, ttl time.Duration) *Service {
	t.Helper()
	hash, err := HashPIN("4821")
	require.NoError(t, err)
	return New(hash, "test-signing-key", ttl)
}

func Test_Login(t *testing.T) {
	svc := newTestService(t, time.Hour)

	token, err := svc.Login("4821")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	session, err := svc.ValidateSessionToken(token)
	require.NoError(t, err)
	assert.NotEmpty(t, session.SessionID)
}

func Test_Login_WrongPIN(t *testing.T) {
	svc := newTestService(t, time.Hour)

	_, err := svc.Login("9999")
	require.Error(t, err)
	assert.True(t, dErrors.Is(err, dErrors.CodeUnauthorized))
}

func Test_ValidateSessionToken_Garbage(t *testing.T) {
	svc := newTestService(t, time.Hour)

	_, err := svc.ValidateSessionToken("not-a-token")
	require.Error(t, err)
	assert.True(t, dErrors.Is(err, dErrors.CodeUnauthorized))
}

func Test_ValidateSessionToken_Expired(t *testing.T) {
	svc := newTestService(t, -time.Hour)

	token, err := svc.Login("4821")
	require.NoError(t, err)

	_, err = svc.ValidateSessionToken(token)
	require.Error(t, err)
	assert.True(t, dErrors.Is(err, dErrors.CodeUnauthorized))
}

func Test_ValidateSessionToken_WrongKey(t *testing.T) {
	svc := newTestService(t, time.Hour)
	token, err := svc.Login("4821")
	require.NoError(t, err)

	hash, err := HashPIN("4821")
	require.NoError(t, err)
	other := New(hash, "different-signing-key", time.Hour)

	_, err = other.ValidateSessionToken(token)
	require.Error(t, err)
	assert.True(t, dErrors.Is(err, dErrors.CodeUnauthorized))
}

func Test_HashPIN_Empty(t *testing.T) {
	_, err := HashPIN("")
	require.Error(t, err)
	assert.True(t, dErrors.Is(err, dErrors.CodeInvalidInput))
}
