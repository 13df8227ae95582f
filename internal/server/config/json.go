package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/accountd/internal/flagx"
	"github.com/dmitrijs2005/accountd/internal/timex"
)

// JsonConfig is the on-disk shape of the configuration file. Durations use
// timex.Duration so "24h", "1d" and integer nanoseconds are all accepted.
// Pointer fields distinguish "absent" from the zero value so a partial file
// only overrides what it names.
type JsonConfig struct {
	EndpointAddrHTTP       *string         `json:"endpoint_addr_http"`
	DatabaseDSN            *string         `json:"database_dsn"`
	SecretKey              *string         `json:"secret_key"`
	TokenValidityDuration  *timex.Duration `json:"token_validity_duration"`
	CookieName             *string         `json:"cookie_name"`
	CookieSameSite         *string         `json:"cookie_same_site"`
	Environment            *string         `json:"environment"`
	RedisAddr              *string         `json:"redis_addr"`
	RedisPassword          *string         `json:"redis_password"`
	RedisDB                *int            `json:"redis_db"`
	VerifyAccountOnResolve *bool           `json:"verify_account_on_resolve"`
	HashConcurrency        *int            `json:"hash_concurrency"`
	Argon2Memory           *uint32         `json:"argon2_memory"`
	Argon2Iterations       *uint32         `json:"argon2_iterations"`
	Argon2Parallelism      *uint8          `json:"argon2_parallelism"`
	Debug                  *bool           `json:"debug"`
}

// parseJson overlays values from the file named by -c/-config. Without the
// flag nothing is loaded.
func parseJson(config *Config, args []string) error {
	path := flagx.ConfigPath(args)
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return err
	}

	setIf(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setIf(&config.DatabaseDSN, c.DatabaseDSN)
	setIf(&config.SecretKey, c.SecretKey)
	if c.TokenValidityDuration != nil {
		config.TokenValidityDuration = c.TokenValidityDuration.Duration
	}
	setIf(&config.CookieName, c.CookieName)
	setIf(&config.CookieSameSite, c.CookieSameSite)
	setIf(&config.Environment, c.Environment)
	setIf(&config.RedisAddr, c.RedisAddr)
	setIf(&config.RedisPassword, c.RedisPassword)
	setIf(&config.RedisDB, c.RedisDB)
	setIf(&config.VerifyAccountOnResolve, c.VerifyAccountOnResolve)
	setIf(&config.HashConcurrency, c.HashConcurrency)
	setIf(&config.Argon2Memory, c.Argon2Memory)
	setIf(&config.Argon2Iterations, c.Argon2Iterations)
	setIf(&config.Argon2Parallelism, c.Argon2Parallelism)
	setIf(&config.Debug, c.Debug)

	return nil
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}
