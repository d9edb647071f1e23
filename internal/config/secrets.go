package config

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rentitout/backend/internal/integrations/paramstore"
)

// secretKeys are the settings that may live in SSM instead of the environment.
var secretKeys = []string{"DATABASE_URL", "JWT_SECRET", "REDIS_PASSWORD", "R2_SECRET_ACCESS_KEY"}

// ResolveSecrets overrides empty secret fields with values stored under
// SSMParameterPrefix. Values already set in the environment win.
func (c *Config) ResolveSecrets(ctx context.Context, params paramstore.Getter) error {
	if c.SSMParameterPrefix == "" {
		return nil
	}
	if params == nil {
		return errors.New("config: SSM prefix set but no parameter store client")
	}

	prefix := strings.TrimRight(c.SSMParameterPrefix, "/")
	for _, key := range secretKeys {
		field := c.secretField(key)
		if *field != "" {
			continue
		}
		v, err := params.GetParameter(ctx, prefix+"/"+key)
		if err != nil {
			return fmt.Errorf("config: resolve %s: %w", key, err)
		}
		*field = v
	}
	return nil
}

func (c *Config) secretField(key string) *string {
	switch key {
	case "DATABASE_URL":
		return &c.DatabaseURL
	case "JWT_SECRET":
		return &c.JWTSecret
	case "REDIS_PASSWORD":
		return &c.RedisPassword
	default:
		return &c.R2SecretAccessKey
	}
}

// Validate checks the settings the server cannot start without.
func (c *Config) Validate() error {
	var missing []string
	if c.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if c.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if len(missing) > 0 {
		return fmt.Errorf("config: missing required settings: %s", strings.Join(missing, ", "))
	}
	return nil
}
