// Package config loads runtime settings from MOFIT_* environment variables.
//
// A .env file in the working directory is loaded first when present. Every
// key has a default, so a bare Lambda environment only needs AWS credentials.
package config

import (
	"fmt"
	"strings"
	"time"

	"mofit_api/auth"
	"mofit_api/models"

	"github.com/go-playground/validator/v10"
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is stripped from environment variable names, and the remainder
// lowercased, to form config keys: MOFIT_WORKOUTS_TABLE -> workouts_table.
const EnvPrefix = "MOFIT_"

type Config struct {
	Env            string        `koanf:"env" validate:"required,oneof=production development test"`
	AWSRegion      string        `koanf:"aws_region" validate:"required"`
	DynamoEndpoint string        `koanf:"dynamo_endpoint" validate:"omitempty,url"`
	ProfilesTable  string        `koanf:"profiles_table" validate:"required"`
	WorkoutsTable  string        `koanf:"workouts_table" validate:"required"`
	JWKSURL        string        `koanf:"jwks_url" validate:"required,url"`
	JWKSCacheTTL   time.Duration `koanf:"jwks_cache_ttl" validate:"gt=0"`
	Port           string        `koanf:"port" validate:"required,numeric"`
}

// Defaults returns the configuration used when no variable is set.
func Defaults() Config {
	return Config{
		Env:           "production",
		AWSRegion:     "us-west-1",
		ProfilesTable: models.UserProfilesTable,
		WorkoutsTable: models.WorkoutsTable,
		JWKSURL:       auth.DefaultJWKSURL,
		JWKSCacheTTL:  15 * time.Minute,
		Port:          "8080",
	}
}

// Load reads the environment on top of Defaults and validates the result.
func Load() (*Config, error) {
	k := koanf.New(".")

	err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("could not load environment: %w", err)
	}

	cfg := Defaults()
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("could not unmarshal config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}
