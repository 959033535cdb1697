package config

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Environment variable names. The JWT_* and ADMIN_USER_* names are kept
// compatible with existing deployments.
const (
	EnvHTTPAddr       = "HTTP_ADDR"
	EnvGRPCAddr       = "GRPC_ADDR"
	EnvDatabaseURL    = "DB_URL"
	EnvTokenAlgorithm = "JWT_ALGORITHM"
	EnvTokenTTL       = "JWT_EXPIRE_MINUTES"
	EnvTokenSecret    = "JWT_SECRET_KEY"
	EnvAdminUsername  = "ADMIN_USER_USERNAME"
	EnvAdminPassword  = "ADMIN_USER_PASSWORD"
	EnvBcryptCost     = "BCRYPT_COST"
	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvLogLevel       = "LOG_LEVEL"
)

// parseEnv loads dotenvPath (if it exists) into the process environment
// without overriding variables that are already present (even if empty), then
// overlays every non-empty variable onto config; an empty variable counts as unset. Malformed numbers and durations are errors,
// not silent fallbacks.
func parseEnv(config *Config, dotenvPath string) error {
	if dotenvPath != "" {
		if err := godotenv.Load(dotenvPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", dotenvPath, err)
		}
	}

	envString(&config.HTTPAddr, EnvHTTPAddr)
	envString(&config.GRPCAddr, EnvGRPCAddr)
	envString(&config.DatabaseURL, EnvDatabaseURL)
	envString(&config.TokenAlgorithm, EnvTokenAlgorithm)
	envString(&config.TokenSecret, EnvTokenSecret)
	envString(&config.AdminUsername, EnvAdminUsername)
	envString(&config.AdminPassword, EnvAdminPassword)
	envString(&config.LogLevel, EnvLogLevel)

	if v := os.Getenv(EnvTokenTTL); v != "" {
		minutes, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvTokenTTL, err)
		}
		if config.TokenTTL, err = minutesToTTL(minutes); err != nil {
			return fmt.Errorf("%s: %w", EnvTokenTTL, err)
		}
	}
	if v := os.Getenv(EnvBcryptCost); v != "" {
		cost, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvBcryptCost, err)
		}
		config.BcryptCost = cost
	}
	if v := os.Getenv(EnvRequestTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvRequestTimeout, err)
		}
		config.RequestTimeout = d
	}
	return nil
}

// minutesToTTL converts a token validity in minutes, refusing values that
// would overflow time.Duration.
func minutesToTTL(minutes int) (time.Duration, error) {
	if int64(minutes) > maxTTLMinutes || int64(minutes) < -maxTTLMinutes {
		return 0, fmt.Errorf("token TTL of %d minutes is out of range", minutes)
	}
	return time.Duration(minutes) * time.Minute, nil
}

const maxTTLMinutes = math.MaxInt64 / int64(time.Minute)

func envString(dst *string, name string) {
	if v := os.Getenv(name); v != "" {
		*dst = v
	}
}
