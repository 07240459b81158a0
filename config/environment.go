package config

import (
	"fmt"
	"os"
	"strings"
)

// Deployment environments, read from APP_ENV.
const (
	EnvironmentDevelopment = "development"
	EnvironmentStaging     = "staging"
	EnvironmentProduction  = "production"
)

// DefaultConfigPath is used when no -config flag is given.
const DefaultConfigPath = "config/config.yml"

// AppEnvironment returns the normalised APP_ENV value, development when
// unset. Short forms such as "prod" are accepted.
func AppEnvironment() string {
	env := strings.ToLower(strings.TrimSpace(os.Getenv("APP_ENV")))
	switch {
	case env == "":
		return EnvironmentDevelopment
	case strings.HasPrefix(env, "prod"):
		return EnvironmentProduction
	case strings.HasPrefix(env, "stag"):
		return EnvironmentStaging
	}
	return env
}

// IsProductionLike reports whether env holds real catalog data.
func IsProductionLike(env string) bool {
	return env == EnvironmentProduction || env == EnvironmentStaging
}

// ResolvePath maps the default config path to config/config.<env>.yml for
// production-like environments. Explicit paths are returned unchanged.
func ResolvePath(path string) string {
	if path != "" && path != DefaultConfigPath {
		return path
	}
	if env := AppEnvironment(); IsProductionLike(env) {
		return fmt.Sprintf("config/config.%s.yml", env)
	}
	return DefaultConfigPath
}

// CheckEnvironment rejects settings that are unsafe for env.
func (c *Config) CheckEnvironment(env string) error {
	if IsProductionLike(env) && c.Storage.Backend == "memory" {
		return fmt.Errorf("storage.backend memory is not allowed in %s", env)
	}
	return nil
}
