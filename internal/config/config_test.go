package config

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DecodesServiceAccountProjectID(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("IDENTITY_PROVIDER", "firebase")
	t.Setenv("FIREBASE_SERVICE_ACCOUNT", base64.StdEncoding.EncodeToString([]byte(`{"project_id":"liveflow-test","client_email":"x@y"}`)))
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "liveflow-test", cfg.Identity.ProjectID)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
	assert.False(t, cfg.Policy.EnforceRoles)
	assert.False(t, cfg.Redis.Enabled())
}

func TestLoad_MalformedServiceAccount(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("FIREBASE_SERVICE_ACCOUNT", "%%%not-base64")

	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name: "memory with local identity",
			cfg:  Config{Store: StoreConfig{Driver: StoreMemory}, Identity: IdentityConfig{Provider: IdentityLocal, JWTSecret: "s"}},
		},
		{
			name:    "mongo without uri",
			cfg:     Config{Store: StoreConfig{Driver: StoreMongo}, Identity: IdentityConfig{Provider: IdentityLocal, JWTSecret: "s"}},
			wantErr: true,
		},
		{
			name:    "postgres without dsn",
			cfg:     Config{Store: StoreConfig{Driver: StorePostgres}, Identity: IdentityConfig{Provider: IdentityLocal, JWTSecret: "s"}},
			wantErr: true,
		},
		{
			name:    "firebase without project",
			cfg:     Config{Store: StoreConfig{Driver: StoreMemory}, Identity: IdentityConfig{Provider: IdentityFirebase}},
			wantErr: true,
		},
		{
			name:    "unknown driver",
			cfg:     Config{Store: StoreConfig{Driver: "sqlite"}, Identity: IdentityConfig{Provider: IdentityLocal, JWTSecret: "s"}},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestProjectIDFromServiceAccount_MissingField(t *testing.T) {
	_, err := ProjectIDFromServiceAccount(base64.StdEncoding.EncodeToString([]byte(`{}`)))
	assert.Error(t, err)
}
