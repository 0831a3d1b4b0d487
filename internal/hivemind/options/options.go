package options

import (
	genericoptions "github.com/kiosk404/nubabel/internal/pkg/options"
	"github.com/kiosk404/nubabel/pkg/utils/json"
	"github.com/spf13/pflag"
)

// Options is the full configuration of the hivemind host process.
type Options struct {
	ServerRunOptions *genericoptions.ServerRunOptions `json:"server"     mapstructure:"server"`
	LogOptions       *genericoptions.LogOptions       `json:"log"        mapstructure:"log"`
	ExtensionOptions *ExtensionOptions                `json:"extensions" mapstructure:"extensions"`
	MCPOptions       *MCPOptions                      `json:"mcp"        mapstructure:"mcp"`
	AuthOptions      *AuthOptions                     `json:"auth"       mapstructure:"auth"`
}

// NewOptions returns Options with every group at its defaults.
func NewOptions() *Options {
	return &Options{
		ServerRunOptions: genericoptions.NewServerRunOptions(),
		LogOptions:       genericoptions.NewLogOptions(),
		ExtensionOptions: NewExtensionOptions(),
		MCPOptions:       NewMCPOptions(),
		AuthOptions:      NewAuthOptions(),
	}
}

// AddFlags registers every option group on fs.
func (o *Options) AddFlags(fs *pflag.FlagSet) {
	o.ServerRunOptions.AddFlags(fs)
	o.LogOptions.AddFlags(fs)
	o.ExtensionOptions.AddFlags(fs)
	o.MCPOptions.AddFlags(fs)
	o.AuthOptions.AddFlags(fs)
}

// Validate collects the errors of every option group.
func (o *Options) Validate() []error {
	var errs []error
	errs = append(errs, o.ServerRunOptions.Validate()...)
	errs = append(errs, o.LogOptions.Validate()...)
	errs = append(errs, o.ExtensionOptions.Validate()...)
	errs = append(errs, o.MCPOptions.Validate()...)
	errs = append(errs, o.AuthOptions.Validate()...)
	return errs
}

func (o *Options) String() string {
	data, _ := json.Marshal(o)

	return string(data)
}
