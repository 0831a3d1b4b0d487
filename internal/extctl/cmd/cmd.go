package cmd

import (
	"io"
	"os"
	"strings"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/kiosk404/nubabel/internal/extctl/cmd/deps"
	"github.com/kiosk404/nubabel/internal/extctl/cmd/events"
	"github.com/kiosk404/nubabel/internal/extctl/cmd/extension"
	"github.com/kiosk404/nubabel/internal/extctl/cmd/inspect"
	"github.com/kiosk404/nubabel/internal/extctl/cmd/util"
	"github.com/kiosk404/nubabel/internal/extctl/cmd/validate"
	"github.com/kiosk404/nubabel/internal/extctl/cmd/versioncheck"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of the environment variables extctl reads,
// e.g. EXTCTL_SERVER and EXTCTL_TOKEN.
const EnvPrefix = "EXTCTL"

const (
	groupAuthoring = "authoring"
	groupHost      = "host"
)

// NewDefaultExtctlCommand creates the `extctl` command with default arguments.
func NewDefaultExtctlCommand() *cobra.Command {
	return NewExtctlCommand(os.Stdin, os.Stdout, os.Stderr)
}

// NewExtctlCommand creates the `extctl` command and its subcommands.
func NewExtctlCommand(in io.Reader, out, errOut io.Writer) *cobra.Command {
	v := newViper()

	cmds := &cobra.Command{
		Use:   "extctl",
		Short: "extctl checks extensions and manages them on a hivemind host",
		Long: heredoc.Doc(`
			extctl is the operator tool for nubabel extensions.

			The authoring commands work on extension directories and need no
			server. The host commands talk to the admin API of a running
			hivemind (--server, or EXTCTL_SERVER) and send --token (or
			EXTCTL_TOKEN) as a bearer token when set.
		`),
		SilenceUsage: true,
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
		},
	}
	cmds.SetIn(in)
	cmds.SetOut(out)
	cmds.SetErr(errOut)

	flags := cmds.PersistentFlags()
	flags.String(util.FlagServer, util.DefaultServer, "Address of the hivemind server")
	flags.String(util.FlagToken, "", "Bearer token for the admin API")
	_ = v.BindPFlags(flags)

	ioStreams := util.IOStreams{In: in, Out: out, ErrOut: errOut}
	f := util.NewDefaultFactory(v)

	cmds.AddGroup(
		&cobra.Group{ID: groupAuthoring, Title: "Authoring Commands:"},
		&cobra.Group{ID: groupHost, Title: "Host Commands:"},
	)
	addToGroup(cmds, groupAuthoring,
		validate.NewCmdValidate(ioStreams),
		inspect.NewCmdInspect(ioStreams),
		deps.NewCmdDeps(ioStreams),
		versioncheck.NewCmdVersionCheck(ioStreams),
	)
	addToGroup(cmds, groupHost,
		extension.NewCmdExtension(f, ioStreams),
		events.NewCmdEmit(f, ioStreams),
		events.NewCmdEvents(f, ioStreams),
	)
	return cmds
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

func addToGroup(root *cobra.Command, group string, cmds ...*cobra.Command) {
	for _, c := range cmds {
		c.GroupID = group
		root.AddCommand(c)
	}
}
