package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

const minProductionSecretLength = 32

// ValidateConfig checks if the configuration meets the requirements for its environment
func ValidateConfig(cfg *Config) error {
	var problems []string
	add := func(field, msg string) {
		problems = append(problems, ValidationError{Field: field, Message: msg}.Error())
	}

	if cfg.Auth.JWTSecret == "" {
		add("auth.jwt_secret", "is required (JWT_SECRET or jwt_secret secret)")
	}
	if cfg.Server.Port == "" {
		add("server.port", "is required")
	}

	switch cfg.Database.Driver {
	case "postgres":
		if cfg.Database.Host == "" || cfg.Database.Name == "" {
			add("db", "host and name are required for postgres")
		}
	case "sqlite":
		if cfg.Database.Path == "" {
			add("db.path", "is required for sqlite")
		}
	default:
		add("db.driver", fmt.Sprintf("unsupported driver %q", cfg.Database.Driver))
	}

	if cfg.Environment.IsProduction() {
		if len(cfg.Auth.JWTSecret) < minProductionSecretLength {
			add("auth.jwt_secret", fmt.Sprintf("must be at least %d characters in production", minProductionSecretLength))
		}
		if cfg.Database.Driver == "postgres" && cfg.Database.Password == "" {
			add("db.password", "is required in production")
		}
		if cfg.Database.Driver == "sqlite" {
			add("db.driver", "sqlite is not supported in production")
		}
	}

	if cfg.RateLimit.ChatPerHour < 0 || cfg.RateLimit.RecipePerHour < 0 {
		add("ratelimit", "limits cannot be negative")
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed:\n%s", strings.Join(problems, "\n"))
	}
	return nil
}
