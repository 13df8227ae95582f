package config

import (
	"fmt"
	"strconv"

	"github.com/dmitrijs2005/accountd/internal/timex"
)

// parseEnv overlays values from environment variables:
//
//	APP_ADDR, APP_ENV, DATABASE_DSN, JWT_SECRET, JWT_EXPIRES_IN,
//	COOKIE_NAME, COOKIE_SAMESITE, REDIS_ADDR, REDIS_PASSWORD, REDIS_DB,
//	VERIFY_ACCOUNT_ON_RESOLVE, HASH_CONCURRENCY, DEBUG
//
// JWT_EXPIRES_IN takes Go durations or whole days ("24h", "1d").
func parseEnv(config *Config, lookupEnv func(string) (string, bool)) error {
	if lookupEnv == nil {
		return nil
	}

	strs := map[string]*string{
		"APP_ADDR":        &config.EndpointAddrHTTP,
		"APP_ENV":         &config.Environment,
		"DATABASE_DSN":    &config.DatabaseDSN,
		"JWT_SECRET":      &config.SecretKey,
		"COOKIE_NAME":     &config.CookieName,
		"COOKIE_SAMESITE": &config.CookieSameSite,
		"REDIS_ADDR":      &config.RedisAddr,
		"REDIS_PASSWORD":  &config.RedisPassword,
	}
	for name, dst := range strs {
		if v, ok := lookupEnv(name); ok && v != "" {
			*dst = v
		}
	}

	if v, ok := lookupEnv("JWT_EXPIRES_IN"); ok && v != "" {
		d, err := timex.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("JWT_EXPIRES_IN: %w", err)
		}
		config.TokenValidityDuration = d
	}

	ints := map[string]*int{
		"REDIS_DB":         &config.RedisDB,
		"HASH_CONCURRENCY": &config.HashConcurrency,
	}
	for name, dst := range ints {
		if v, ok := lookupEnv(name); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			*dst = n
		}
	}

	bools := map[string]*bool{
		"VERIFY_ACCOUNT_ON_RESOLVE": &config.VerifyAccountOnResolve,
		"DEBUG":                     &config.Debug,
	}
	for name, dst := range bools {
		if v, ok := lookupEnv(name); ok && v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			*dst = b
		}
	}

	return nil
}
