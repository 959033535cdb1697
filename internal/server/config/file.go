package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dmitrijs2005/userkeeper/internal/flagx"
)

// fileConfig mirrors Config for YAML decoding. Pointer fields tell "absent"
// apart from zero values so that only keys present in the file override.
// Durations accept Go syntax such as "30m" or "5s".
type fileConfig struct {
	HTTPAddr       *string        `yaml:"http_addr"`
	GRPCAddr       *string        `yaml:"grpc_addr"`
	DatabaseURL    *string        `yaml:"database_url"`
	TokenAlgorithm *string        `yaml:"token_algorithm"`
	TokenSecret    *string        `yaml:"token_secret"`
	TokenTTL       *time.Duration `yaml:"token_ttl"`
	AdminUsername  *string        `yaml:"admin_username"`
	AdminPassword  *string        `yaml:"admin_password"`
	BcryptCost     *int           `yaml:"bcrypt_cost"`
	RequestTimeout *time.Duration `yaml:"request_timeout"`
	LogLevel       *string        `yaml:"log_level"`
}

// parseFile overlays the YAML file named by -c/-config onto config.
// Without the flag nothing is loaded.
func parseFile(config *Config, args []string) error {
	path := flagx.ConfigFileFlag(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return err
	}

	setString(&config.HTTPAddr, fc.HTTPAddr)
	setString(&config.GRPCAddr, fc.GRPCAddr)
	setString(&config.DatabaseURL, fc.DatabaseURL)
	setString(&config.TokenAlgorithm, fc.TokenAlgorithm)
	setString(&config.TokenSecret, fc.TokenSecret)
	setString(&config.AdminUsername, fc.AdminUsername)
	setString(&config.AdminPassword, fc.AdminPassword)
	setString(&config.LogLevel, fc.LogLevel)
	if fc.TokenTTL != nil {
		config.TokenTTL = *fc.TokenTTL
	}
	if fc.RequestTimeout != nil {
		config.RequestTimeout = *fc.RequestTimeout
	}
	if fc.BcryptCost != nil {
		config.BcryptCost = *fc.BcryptCost
	}
	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
