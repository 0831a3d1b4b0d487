package hivemind

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/kiosk404/nubabel/internal/hivemind/config"
	"github.com/kiosk404/nubabel/internal/hivemind/options"
	"github.com/kiosk404/nubabel/pkg/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. HIVEMIND_SERVER_BIND_PORT.
const EnvPrefix = "HIVEMIND"

// NewApp returns the hivemind root command.
func NewApp(basename string) *cobra.Command {
	opts := options.NewOptions()
	var cfgFile string

	cmd := &cobra.Command{
		Use:   basename,
		Short: "hivemind hosts nubabel extensions",
		Long: heredoc.Doc(`
			hivemind is the nubabel extension host.

			It loads every extension found under --extensions.dir, restores the
			extensions that were active before the last shutdown, and serves:

			  /v1/...          admin API (list, load, reload, unload, events)
			  /ext/<id>/...    routes declared by extensions
			  /mcp             extension MCP tools (streamable HTTP)

			Flags can also be set in a YAML config file (--config) or through
			HIVEMIND_* environment variables, e.g. HIVEMIND_SERVER_BIND_PORT=8080.
		`),
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := loadConfig(cmd.Flags(), cfgFile, opts); err != nil {
				return err
			}
			return run(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&cfgFile, "config", "c", "", "Read configuration from this YAML file.")
	opts.AddFlags(cmd.Flags())
	return cmd
}

// loadConfig layers the config file and HIVEMIND_* variables under the
// command-line flags and decodes the result into opts.
func loadConfig(fs *pflag.FlagSet, cfgFile string, opts *options.Options) error {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config file %s: %w", cfgFile, err)
		}
	}
	if err := v.BindPFlags(fs); err != nil {
		return err
	}
	if err := v.Unmarshal(opts); err != nil {
		return fmt.Errorf("decode configuration: %w", err)
	}
	return nil
}

func run(ctx context.Context, opts *options.Options) error {
	if err := logger.SetLevel(opts.LogOptions.Level); err != nil {
		return err
	}
	if err := logger.InitLog(opts.LogOptions.File); err != nil {
		return err
	}
	defer logger.FlushLog()

	cfg, err := config.CreateConfigFromOptions(opts)
	if err != nil {
		return err
	}
	logger.Debug("[Hivemind] configuration: %s", opts)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return Run(ctx, cfg)
}
