package options

import (
	"fmt"
	"net"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/pflag"
)

// ServerRunOptions holds the HTTP serving configuration.
type ServerRunOptions struct {
	// Mode is the gin mode: debug, test or release.
	Mode string `json:"mode" mapstructure:"mode"`
	// BindAddress is the IP address to listen on.
	BindAddress string `json:"bind-address" mapstructure:"bind-address"`
	// BindPort is the port to listen on.
	BindPort int `json:"bind-port" mapstructure:"bind-port"`
	// Healthz installs the /healthz endpoint.
	Healthz bool `json:"healthz" mapstructure:"healthz"`
	// ShutdownTimeout bounds graceful shutdown of in-flight requests.
	ShutdownTimeout time.Duration `json:"shutdown-timeout" mapstructure:"shutdown-timeout"`
}

// NewServerRunOptions creates a ServerRunOptions object with default parameters.
func NewServerRunOptions() *ServerRunOptions {
	return &ServerRunOptions{
		Mode:            gin.ReleaseMode,
		BindAddress:     "127.0.0.1",
		BindPort:        11789,
		Healthz:         true,
		ShutdownTimeout: 10 * time.Second,
	}
}

// Address returns host:port.
func (s *ServerRunOptions) Address() string {
	return net.JoinHostPort(s.BindAddress, fmt.Sprintf("%d", s.BindPort))
}

// Validate checks validation of ServerRunOptions.
func (s *ServerRunOptions) Validate() []error {
	var errs []error

	switch s.Mode {
	case gin.DebugMode, gin.TestMode, gin.ReleaseMode:
	default:
		errs = append(errs, fmt.Errorf("--server.mode must be one of debug, test, release; got %q", s.Mode))
	}
	if s.BindPort < 0 || s.BindPort > 65535 {
		errs = append(errs, fmt.Errorf("--server.bind-port %v must be between 0 and 65535", s.BindPort))
	}
	if net.ParseIP(s.BindAddress) == nil {
		errs = append(errs, fmt.Errorf("--server.bind-address %q is not a valid IP address", s.BindAddress))
	}
	if s.ShutdownTimeout <= 0 {
		errs = append(errs, fmt.Errorf("--server.shutdown-timeout must be positive"))
	}

	return errs
}

// AddFlags adds flags for the HTTP server to the specified FlagSet.
func (s *ServerRunOptions) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&s.Mode, "server.mode", s.Mode, ""+
		"Start the server in a specified server mode. Supported server mode: debug, test, release.")
	fs.StringVar(&s.BindAddress, "server.bind-address", s.BindAddress, ""+
		"The IP address on which to serve the admin API, extension routes and MCP.")
	fs.IntVar(&s.BindPort, "server.bind-port", s.BindPort, ""+
		"The port on which to serve the admin API, extension routes and MCP.")
	fs.BoolVar(&s.Healthz, "server.healthz", s.Healthz, ""+
		"Add self readiness check and install /healthz router.")
	fs.DurationVar(&s.ShutdownTimeout, "server.shutdown-timeout", s.ShutdownTimeout, ""+
		"How long to wait for in-flight requests on shutdown.")
}
