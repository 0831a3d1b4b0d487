package options

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
)

// LogOptions configures pkg/logger.
type LogOptions struct {
	// Level is a logrus level name.
	Level string `json:"level" mapstructure:"level"`
	// File, when set, receives a copy of the log output.
	File string `json:"file" mapstructure:"file"`
}

// NewLogOptions returns the default log options.
func NewLogOptions() *LogOptions {
	return &LogOptions{Level: "info"}
}

// Validate checks LogOptions fields.
func (o *LogOptions) Validate() []error {
	if _, err := logrus.ParseLevel(o.Level); err != nil {
		return []error{fmt.Errorf("--log.level: %w", err)}
	}
	return nil
}

// AddFlags adds flags for logging.
func (o *LogOptions) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.Level, "log.level", o.Level, "Minimum log level (debug, info, warn, error).")
	fs.StringVar(&o.File, "log.file", o.File, "Also write logs to this file.")
}
