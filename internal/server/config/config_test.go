package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var allEnv = []string{
	EnvHTTPAddr, EnvGRPCAddr, EnvDatabaseURL, EnvTokenAlgorithm, EnvTokenTTL,
	EnvTokenSecret, EnvAdminUsername, EnvAdminPassword, EnvBcryptCost,
	EnvRequestTimeout, EnvLogLevel,
}

// clearEnv unsets every variable parseEnv looks at. t.Setenv records the
// previous value so it is restored when the test ends.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range allEnv {
		t.Setenv(name, "")
		require.NoError(t, os.Unsetenv(name))
	}
}

func validConfig() *Config {
	c := &Config{}
	c.LoadDefaults()
	c.DatabaseURL = "memory://"
	c.TokenSecret = "secret"
	c.AdminUsername = "admin"
	c.AdminPassword = "secret"
	return c
}

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, ":8080", c.HTTPAddr)
	assert.Equal(t, ":50051", c.GRPCAddr)
	assert.Equal(t, "HS256", c.TokenAlgorithm)
	assert.Equal(t, 30*time.Minute, c.TokenTTL)
	assert.Equal(t, bcrypt.DefaultCost, c.BcryptCost)
	assert.Equal(t, 5*time.Second, c.RequestTimeout)
	assert.Equal(t, "info", c.LogLevel)
	assert.Empty(t, c.DatabaseURL)
	assert.Empty(t, c.TokenSecret)
	assert.Empty(t, c.AdminUsername)
	assert.Empty(t, c.AdminPassword)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "missing db url", mutate: func(c *Config) { c.DatabaseURL = "" }, wantErr: "database URL is required"},
		{name: "missing secret", mutate: func(c *Config) { c.TokenSecret = "" }, wantErr: "token secret is required"},
		{name: "bad algorithm", mutate: func(c *Config) { c.TokenAlgorithm = "RS256" }, wantErr: "unsupported token algorithm"},
		{name: "none algorithm", mutate: func(c *Config) { c.TokenAlgorithm = "none" }, wantErr: "unsupported token algorithm"},
		{name: "zero ttl", mutate: func(c *Config) { c.TokenTTL = 0 }, wantErr: "token TTL must be positive"},
		{name: "missing admin password", mutate: func(c *Config) { c.AdminPassword = "" }, wantErr: "admin username and password are required"},
		{name: "cost too low", mutate: func(c *Config) { c.BcryptCost = 1 }, wantErr: "bcrypt cost"},
		{name: "cost too high", mutate: func(c *Config) { c.BcryptCost = 40 }, wantErr: "bcrypt cost"},
		{name: "zero timeout", mutate: func(c *Config) { c.RequestTimeout = 0 }, wantErr: "request timeout must be positive"},
		{name: "missing http addr", mutate: func(c *Config) { c.HTTPAddr = "" }, wantErr: "HTTP address is required"},
		{name: "missing grpc addr", mutate: func(c *Config) { c.GRPCAddr = "" }, wantErr: "gRPC address is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_ReportsAllProblems(t *testing.T) {
	var c Config
	c.LoadDefaults()

	err := c.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database URL is required")
	assert.Contains(t, err.Error(), "token secret is required")
	assert.Contains(t, err.Error(), "admin username and password are required")
}

func TestLoadConfig_FailsWithoutRequiredSettings(t *testing.T) {
	clearEnv(t)

	c, err := LoadConfig([]string{})
	require.Error(t, err)
	assert.Nil(t, c)
}

func TestLoadConfig_Precedence(t *testing.T) {
	clearEnv(t)
	path := writeTempFile(t, "cfg.yaml", `
database_url: "postgres://file/db"
token_secret: "file-secret"
admin_username: "root"
admin_password: "file-pass"
token_ttl: 10m
`)
	t.Setenv(EnvTokenSecret, "env-secret")
	t.Setenv(EnvTokenTTL, "20")

	c, err := LoadConfig([]string{"-c", path, "-s", "flag-secret", "-a", ":9999"})
	require.NoError(t, err)

	assert.Equal(t, "postgres://file/db", c.DatabaseURL)
	assert.Equal(t, "flag-secret", c.TokenSecret)
	assert.Equal(t, 20*time.Minute, c.TokenTTL)
	assert.Equal(t, ":9999", c.HTTPAddr)
	assert.Equal(t, "root", c.AdminUsername)
	assert.Equal(t, "file-pass", c.AdminPassword)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	clearEnv(t)

	_, err := LoadConfig([]string{"-config", "/nonexistent/userkeeper.yaml"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config file")
}
