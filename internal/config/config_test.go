package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"TASKS_AUTH_JWTSECRET", "JWT_SECRET", "TASKS_AUTH_TOKENTTL", "TASKS_AUTH_BCRYPTCOST",
		"TASKS_AUTH_MAXPASSWORDBYTES", "TASKS_AUTH_HASHWORKERS", "TASKS_SERVER_ADDR", "TASKS_DATABASE_PATH",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Addr)
	assert.Equal(t, "data/tasks.db", cfg.Database.Path)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, 10, cfg.Auth.BcryptCost)
	assert.Equal(t, 72, cfg.Auth.MaxPasswordBytes)
	assert.Positive(t, cfg.Auth.HashWorkers)
	assert.Empty(t, cfg.Auth.JWTSecret)

	require.ErrorIs(t, cfg.Validate(), ErrMissingSecret)
}

func TestLoad_FromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("TASKS_AUTH_JWTSECRET", "s3cr3t")
	t.Setenv("TASKS_AUTH_TOKENTTL", "90m")
	t.Setenv("TASKS_AUTH_BCRYPTCOST", "12")
	t.Setenv("TASKS_SERVER_ADDR", "127.0.0.1:9999")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "s3cr3t", cfg.Auth.JWTSecret)
	assert.Equal(t, 90*time.Minute, cfg.Auth.TokenTTL)
	assert.Equal(t, 12, cfg.Auth.BcryptCost)
	assert.Equal(t, "127.0.0.1:9999", cfg.Server.Addr)
	require.NoError(t, cfg.Validate())
}

func TestLoad_LegacySecretVariable(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "legacy")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "legacy", cfg.Auth.JWTSecret)
}

func TestValidate(t *testing.T) {
	base := func() Config {
		var c Config
		c.Auth.JWTSecret = "secret"
		c.Auth.TokenTTL = time.Hour
		c.Auth.BcryptCost = 10
		c.Auth.MaxPasswordBytes = 72
		c.Auth.HashWorkers = 2
		return c
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "blank secret", mutate: func(c *Config) { c.Auth.JWTSecret = "  " }, wantErr: true},
		{name: "zero ttl", mutate: func(c *Config) { c.Auth.TokenTTL = 0 }, wantErr: true},
		{name: "cost lowered", mutate: func(c *Config) { c.Auth.BcryptCost = 4 }, wantErr: true},
		{name: "cost too high", mutate: func(c *Config) { c.Auth.BcryptCost = 32 }, wantErr: true},
		{name: "password limit above bcrypt", mutate: func(c *Config) { c.Auth.MaxPasswordBytes = 73 }, wantErr: true},
		{name: "no workers", mutate: func(c *Config) { c.Auth.HashWorkers = 0 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
