package options

import (
	"fmt"
	"os"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/spf13/pflag"
)

// EnvName selects environment-dependent defaults. "development" turns hot
// reload on unless --extensions.hot-reload says otherwise.
const EnvName = "HIVEMIND_ENV"

// ExtensionOptions configures the extension host.
type ExtensionOptions struct {
	Dir           string        `json:"dir"            mapstructure:"dir"`
	PackagePaths  []string      `json:"package-paths"  mapstructure:"package-paths"`
	HostVersion   string        `json:"host-version"   mapstructure:"host-version"`
	ValidatePaths bool          `json:"validate-paths" mapstructure:"validate-paths"`
	HotReload     bool          `json:"hot-reload"     mapstructure:"hot-reload"`
	LoadTimeout   time.Duration `json:"load-timeout"   mapstructure:"load-timeout"`
	OrgScope      string        `json:"org-scope"      mapstructure:"org-scope"`
	StoreType     string        `json:"store-type"     mapstructure:"store-type"`
	BoltDBPath    string        `json:"boltdb-path"    mapstructure:"boltdb-path"`
	Restore       bool          `json:"restore"        mapstructure:"restore"`
}

// NewExtensionOptions returns the default extension options.
func NewExtensionOptions() *ExtensionOptions {
	return &ExtensionOptions{
		Dir:           "extensions",
		HostVersion:   "1.0.0",
		ValidatePaths: true,
		HotReload:     os.Getenv(EnvName) == "development",
		LoadTimeout:   30 * time.Second,
		OrgScope:      "default",
		StoreType:     "boltdb",
		BoltDBPath:    "data/extensions.db",
		Restore:       true,
	}
}

// Validate checks ExtensionOptions fields.
func (o *ExtensionOptions) Validate() []error {
	var errs []error

	if _, err := semver.StrictNewVersion(o.HostVersion); err != nil {
		errs = append(errs, fmt.Errorf("--extensions.host-version %q: %w", o.HostVersion, err))
	}
	if o.LoadTimeout <= 0 {
		errs = append(errs, fmt.Errorf("--extensions.load-timeout must be positive"))
	}
	switch o.StoreType {
	case "inmemory":
	case "boltdb":
		if o.BoltDBPath == "" {
			errs = append(errs, fmt.Errorf("--extensions.boltdb-path is required for the boltdb store"))
		}
	default:
		errs = append(errs, fmt.Errorf("--extensions.store-type must be inmemory or boltdb; got %q", o.StoreType))
	}
	if o.OrgScope == "" {
		errs = append(errs, fmt.Errorf("--extensions.org-scope must not be empty"))
	}

	return errs
}

// AddFlags adds flags for the extension host.
func (o *ExtensionOptions) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.Dir, "extensions.dir", o.Dir, "Directory whose subdirectories are loaded as extensions at startup. Empty disables the scan.")
	fs.StringSliceVar(&o.PackagePaths, "extensions.package-paths", o.PackagePaths, "Roots searched when loading an extension by package name.")
	fs.StringVar(&o.HostVersion, "extensions.host-version", o.HostVersion, "Host version matched against manifest nubabelVersion requirements.")
	fs.BoolVar(&o.ValidatePaths, "extensions.validate-paths", o.ValidatePaths, "Check that files referenced by a manifest exist before loading.")
	fs.BoolVar(&o.HotReload, "extensions.hot-reload", o.HotReload, "Reload extensions when their files change. Defaults to true when "+EnvName+"=development.")
	fs.DurationVar(&o.LoadTimeout, "extensions.load-timeout", o.LoadTimeout, "Upper bound on loading the components of one extension.")
	fs.StringVar(&o.OrgScope, "extensions.org-scope", o.OrgScope, "Catalog scope skills and agents are published in.")
	fs.StringVar(&o.StoreType, "extensions.store-type", o.StoreType, "Catalog and state backend: inmemory or boltdb.")
	fs.StringVar(&o.BoltDBPath, "extensions.boltdb-path", o.BoltDBPath, "BoltDB file used by the boltdb store.")
	fs.BoolVar(&o.Restore, "extensions.restore", o.Restore, "Reload the extensions that were active before the last shutdown.")
}
