package config

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_parseFlags(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected *Config
		wantErr  bool
	}{
		{
			name: "all flags",
			args: []string{
				"-a", "127.0.0.1:9090", "-g", "127.0.0.1:9091", "-d", "memory://",
				"-s", "secret", "-m", "HS512", "-t", "1", "-u", "root", "-p", "pw",
			},
			expected: &Config{
				HTTPAddr:       "127.0.0.1:9090",
				GRPCAddr:       "127.0.0.1:9091",
				DatabaseURL:    "memory://",
				TokenSecret:    "secret",
				TokenAlgorithm: "HS512",
				TokenTTL:       1 * time.Minute,
				AdminUsername:  "root",
				AdminPassword:  "pw",
			},
		},
		{
			name:     "foreign flags are ignored",
			args:     []string{"-c", "x.yaml", "-v", "-d", "memory://"},
			expected: &Config{DatabaseURL: "memory://"},
		},
		{
			name:    "ttl overflowing duration",
			args:    []string{"-t", "307445734561825861"},
			wantErr: true,
		},
		{
			name:    "non-numeric ttl",
			args:    []string{"-t", "soon"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := &Config{}
			err := parseFlags(config, tt.args)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Empty(t, cmp.Diff(tt.expected, config))
		})
	}
}

func Test_parseFlags_TTLUntouchedWithoutFlag(t *testing.T) {
	config := &Config{TokenTTL: 90 * time.Second}
	require.NoError(t, parseFlags(config, []string{"-s", "x"}))
	assert.Equal(t, 90*time.Second, config.TokenTTL)
}
