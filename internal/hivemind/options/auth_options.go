package options

import (
	"github.com/spf13/pflag"
)

// AuthOptions configures Bearer authentication of the admin API.
type AuthOptions struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	Token   string `json:"-"       mapstructure:"token"`
}

// NewAuthOptions returns auth disabled.
func NewAuthOptions() *AuthOptions {
	return &AuthOptions{}
}

// Validate checks AuthOptions fields.
func (o *AuthOptions) Validate() []error {
	return nil
}

// AddFlags adds flags for admin API authentication.
func (o *AuthOptions) AddFlags(fs *pflag.FlagSet) {
	fs.BoolVar(&o.Enabled, "auth.enabled", o.Enabled, "Require a Bearer token on the admin API for non-loopback clients.")
	fs.StringVar(&o.Token, "auth.token", o.Token, "Bearer token. Falls back to HIVEMIND_AUTH_TOKEN.")
}
