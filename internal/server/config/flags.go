package config

import (
	"flag"
	"fmt"
	"io"

	"github.com/dmitrijs2005/userkeeper/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-g string   gRPC health endpoint bind address
//	-d string   user directory URL
//	-s string   JWT HMAC secret key
//	-m string   JWT signing algorithm (HS256, HS384, HS512)
//	-t int      access token validity, minutes
//	-u string   bootstrap admin username
//	-p string   bootstrap admin password
//
// Only the flags above are picked out of args, so -c/-config and unknown
// flags do not break parsing. The token validity is given in minutes and
// only overrides earlier sources when the flag is actually present.
func parseFlags(config *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-g", "-d", "-s", "-m", "-t", "-u", "-p"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "HTTP address and port to run server")
	fs.StringVar(&config.GRPCAddr, "g", config.GRPCAddr, "gRPC health endpoint address")
	fs.StringVar(&config.DatabaseURL, "d", config.DatabaseURL, "user directory URL")
	fs.StringVar(&config.TokenSecret, "s", config.TokenSecret, "token secret key")
	fs.StringVar(&config.TokenAlgorithm, "m", config.TokenAlgorithm, "token signing algorithm")
	ttl := fs.Int("t", int(config.TokenTTL.Minutes()), "access token validity (in minutes)")
	fs.StringVar(&config.AdminUsername, "u", config.AdminUsername, "bootstrap admin username")
	fs.StringVar(&config.AdminPassword, "p", config.AdminPassword, "bootstrap admin password")

	if err := fs.Parse(args); err != nil {
		return err
	}

	var ttlErr error
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "t" {
			config.TokenTTL, ttlErr = minutesToTTL(*ttl)
		}
	})
	if ttlErr != nil {
		return fmt.Errorf("-t: %w", ttlErr)
	}
	return nil
}
