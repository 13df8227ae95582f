package config

import (
	"flag"
	"io"

	"github.com/dmitrijs2005/accountd/internal/flagx"
	"github.com/dmitrijs2005/accountd/internal/timex"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":3000")
//	-d string   PostgreSQL DSN
//	-s string   JWT HMAC secret key
//	-t string   token validity ("24h", "1d")
//	-e string   environment (development, test, production)
//	-r string   Redis address for the revocation store
//
// Only these flags are parsed; everything else in args is left to other
// flag sets (see flagx.FilterArgs).
func parseFlags(config *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-d", "-s", "-t", "-e", "-r"})

	fs := flag.NewFlagSet("accountd", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	tokenValidity := fs.String("t", config.TokenValidityDuration.String(), "token validity duration")
	fs.StringVar(&config.Environment, "e", config.Environment, "deployment environment")
	fs.StringVar(&config.RedisAddr, "r", config.RedisAddr, "redis address")

	if err := fs.Parse(args); err != nil {
		return err
	}

	d, err := timex.ParseDuration(*tokenValidity)
	if err != nil {
		return err
	}
	config.TokenValidityDuration = d

	return nil
}
