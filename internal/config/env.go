package config

import (
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variables recognized by Load.
const (
	EnvAPIURL = "GHE_APIURL"
	EnvOrg    = "GHE_ORG"
	EnvToken  = "GHE_TOKEN"
	EnvDryRun = "GHE_DRYRUN"
)

var dotEnvFiles = []string{".env", ".env.local"}

// loadDotEnv imports .env files that exist. godotenv never overrides
// variables already present in the process environment.
func loadDotEnv() {
	for _, f := range dotEnvFiles {
		_ = godotenv.Load(f)
	}
}

// applyEnv overlays GHE_* variables onto cfg.
func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvAPIURL); ok && v != "" {
		cfg.APIURL = v
	}
	if v, ok := lookup(EnvOrg); ok && v != "" {
		cfg.Org = v
	}
	if v, ok := lookup(EnvToken); ok && v != "" {
		cfg.Token = v
	}
	if v, ok := lookup(EnvDryRun); ok && v != "" {
		dry, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return ErrConfiguration.WithCause(err).WithContext("variable", EnvDryRun)
		}
		cfg.DryRun = &dry
	}
	return nil
}
