// Package config handles configuration for the server component:
// defaults, YAML file overlay, .env / environment variables and
// command-line flags, followed by validation.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Config holds runtime settings for the userkeeper server.
//
// Fields:
//   - HTTPAddr / GRPCAddr: bind addresses of the public API and the ops health endpoint.
//   - DatabaseURL: user directory location; the scheme selects the backend.
//   - TokenAlgorithm / TokenSecret / TokenTTL: JWT signing settings.
//   - AdminUsername / AdminPassword: account seeded at startup when absent.
//   - BcryptCost: password hashing cost factor.
//   - RequestTimeout: deadline applied to every HTTP request.
type Config struct {
	HTTPAddr       string
	GRPCAddr       string
	DatabaseURL    string
	TokenAlgorithm string
	TokenSecret    string
	TokenTTL       time.Duration
	AdminUsername  string
	AdminPassword  string
	BcryptCost     int
	RequestTimeout time.Duration
	LogLevel       string
}

// SupportedAlgorithms lists the accepted TokenAlgorithm values.
var SupportedAlgorithms = []string{"HS256", "HS384", "HS512"}

// LoadDefaults populates the optional settings. Secrets, the database URL and
// the admin credentials have no defaults on purpose and must be supplied.
func (c *Config) LoadDefaults() {
	c.HTTPAddr = ":8080"
	c.GRPCAddr = ":50051"
	c.TokenAlgorithm = "HS256"
	c.TokenTTL = 30 * time.Minute
	c.BcryptCost = bcrypt.DefaultCost
	c.RequestTimeout = 5 * time.Second
	c.LogLevel = "info"
}

// LoadConfig builds a Config from defaults, then the file named by -c/-config,
// then .env and the process environment, and finally the command-line flags
// in args (usually os.Args[1:]). The result is validated.
func LoadConfig(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseFile(cfg, args); err != nil {
		return nil, fmt.Errorf("config file: %w", err)
	}
	if err := parseEnv(cfg, ".env"); err != nil {
		return nil, fmt.Errorf("environment: %w", err)
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, fmt.Errorf("flags: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every missing or malformed setting at once.
func (c *Config) Validate() error {
	var errs []error

	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("database URL is required"))
	}
	if c.TokenSecret == "" {
		errs = append(errs, errors.New("token secret is required"))
	}
	if !isSupportedAlgorithm(c.TokenAlgorithm) {
		errs = append(errs, fmt.Errorf("unsupported token algorithm %q (want one of %s)",
			c.TokenAlgorithm, strings.Join(SupportedAlgorithms, ", ")))
	}
	if c.TokenTTL <= 0 {
		errs = append(errs, fmt.Errorf("token TTL must be positive, got %s", c.TokenTTL))
	}
	if c.AdminUsername == "" || c.AdminPassword == "" {
		errs = append(errs, errors.New("admin username and password are required"))
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		errs = append(errs, fmt.Errorf("bcrypt cost must be within [%d, %d], got %d",
			bcrypt.MinCost, bcrypt.MaxCost, c.BcryptCost))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, fmt.Errorf("request timeout must be positive, got %s", c.RequestTimeout))
	}
	if c.HTTPAddr == "" {
		errs = append(errs, errors.New("HTTP address is required"))
	}
	if c.GRPCAddr == "" {
		errs = append(errs, errors.New("gRPC address is required"))
	}

	return errors.Join(errs...)
}

func isSupportedAlgorithm(alg string) bool {
	for _, a := range SupportedAlgorithms {
		if a == alg {
			return true
		}
	}
	return false
}
