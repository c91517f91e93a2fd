package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenManager_RoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", time.Minute)
	token, expiresAt, err := tm.GenerateToken("a@example.com")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Minute), expiresAt, 5*time.Second)

	identity, err := tm.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", identity.Email)
}

func TestTokenManager_RejectsForeignSecret(t *testing.T) {
	token, _, err := NewTokenManager("one", time.Minute).GenerateToken("a@example.com")
	require.NoError(t, err)

	_, err = NewTokenManager("two", time.Minute).Verify(context.Background(), token)
	assert.ErrorIs(t, err, ErrInvalidCredential)
}

func TestExtractBearer(t *testing.T) {
	tests := []struct {
		header string
		want   string
		ok     bool
	}{
		{header: "Bearer abc", want: "abc", ok: true},
		{header: "bearer  abc ", want: "abc", ok: true},
		{header: "", ok: false},
		{header: "Bearer", ok: false},
		{header: "Bearer   ", ok: false},
		{header: "Basic abc", ok: false},
	}
	for _, tt := range tests {
		got, err := ExtractBearer(tt.header)
		if tt.ok {
			require.NoError(t, err, tt.header)
			assert.Equal(t, tt.want, got)
		} else {
			assert.ErrorIs(t, err, ErrMissingCredential, tt.header)
		}
	}
}
