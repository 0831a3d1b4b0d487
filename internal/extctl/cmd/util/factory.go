package util

import (
	"net/http"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Flag names shared by every command that talks to a running host.
const (
	FlagServer = "server"
	FlagToken  = "token"

	DefaultServer = "http://127.0.0.1:11789"
)

// Factory provides the collaborators commands need, so tests can swap the
// transport without touching command code.
type Factory interface {
	// HTTPClient returns the client used for admin API calls.
	HTTPClient() *http.Client
	// AdminClient returns a client for the configured hivemind server.
	AdminClient() *AdminClient
}

type defaultFactory struct {
	v          *viper.Viper
	httpClient *http.Client
}

// NewDefaultFactory creates a Factory that reads --server and --token (or
// EXTCTL_SERVER and EXTCTL_TOKEN) from v.
func NewDefaultFactory(v *viper.Viper) Factory {
	return &defaultFactory{v: v}
}

// NewFactoryWithClient is NewDefaultFactory with a fixed HTTP client.
func NewFactoryWithClient(v *viper.Viper, c *http.Client) Factory {
	return &defaultFactory{v: v, httpClient: c}
}

func (f *defaultFactory) HTTPClient() *http.Client {
	if f.httpClient != nil {
		return f.httpClient
	}
	// No overall timeout: the events command keeps its stream open.
	return &http.Client{Transport: &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		ResponseHeaderTimeout: 30 * time.Second,
	}}
}

func (f *defaultFactory) AdminClient() *AdminClient {
	server := f.v.GetString(FlagServer)
	if server == "" {
		server = DefaultServer
	}
	if !strings.HasPrefix(server, "http://") && !strings.HasPrefix(server, "https://") {
		server = "http://" + server
	}
	return NewAdminClient(server, f.v.GetString(FlagToken), f.HTTPClient())
}
