package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/kiosk404/nubabel/internal/hivemind/options"
)

// TokenEnv is read when auth is enabled and no token is configured.
const TokenEnv = "HIVEMIND_AUTH_TOKEN"

// Config is the running configuration structure of the hivemind service.
type Config struct {
	*options.Options
}

// CreateConfigFromOptions validates opts and creates a running configuration.
func CreateConfigFromOptions(opts *options.Options) (*Config, error) {
	if errs := opts.Validate(); len(errs) != 0 {
		return nil, errors.Join(errs...)
	}
	if opts.AuthOptions.Enabled && opts.AuthOptions.Token == "" {
		opts.AuthOptions.Token = os.Getenv(TokenEnv)
	}
	if opts.AuthOptions.Enabled && opts.AuthOptions.Token == "" {
		return nil, fmt.Errorf("--auth.enabled requires --auth.token or %s", TokenEnv)
	}
	return &Config{opts}, nil
}
