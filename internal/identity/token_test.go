package identity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("unit-test-secret", 30)

	token, expiresAt, err := tm.Generate("alice@example.com")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(30*time.Minute), expiresAt, time.Minute)

	email, err := tm.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", email)
}

func TestTokenWrongSecretRejected(t *testing.T) {
	token, _, err := NewTokenManager("secret-a", 30).Generate("alice@example.com")
	require.NoError(t, err)

	_, err = NewTokenManager("secret-b", 30).Parse(token)
	assert.Error(t, err)
}

func TestTokenGarbageRejected(t *testing.T) {
	tm := NewTokenManager("unit-test-secret", 30)

	_, err := tm.Parse("not.a.token")
	assert.Error(t, err)

	_, err = tm.Parse("")
	assert.Error(t, err)
}

func TestTokenTTLDefaultsWhenNonPositive(t *testing.T) {
	tm := NewTokenManager("unit-test-secret", 0)

	_, expiresAt, err := tm.Generate("alice@example.com")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, time.Minute)
}
