package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndVerify(t *testing.T) {
	svc, err := NewService("test-secret", time.Hour)
	require.NoError(t, err)

	token, playerID, err := svc.IssueGuest("Alice")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	gotID, name, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, playerID, gotID)
	assert.Equal(t, "Alice", name)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	issuer, err := NewService("secret-a", time.Hour)
	require.NoError(t, err)
	verifier, err := NewService("secret-b", time.Hour)
	require.NoError(t, err)

	token, _, err := issuer.IssueGuest("Alice")
	require.NoError(t, err)

	_, _, err = verifier.Verify(token)
	assert.Error(t, err)
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	svc, err := NewService("test-secret", -time.Minute)
	require.NoError(t, err)

	token, _, err := svc.IssueGuest("Alice")
	require.NoError(t, err)

	_, _, err = svc.Verify(token)
	assert.Error(t, err)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	svc, err := NewService("test-secret", time.Hour)
	require.NoError(t, err)

	_, _, err = svc.Verify("not.a.token")
	assert.Error(t, err)
}

func TestNewServiceRequiresSecret(t *testing.T) {
	_, err := NewService("", time.Hour)
	assert.Error(t, err)
}
