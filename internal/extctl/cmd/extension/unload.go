package extension

import (
	"context"

	"github.com/kiosk404/nubabel/internal/extctl/cmd/util"
	"github.com/spf13/cobra"
)

// UnloadOptions holds the arguments of `extctl ext unload`.
type UnloadOptions struct {
	IDs []string

	factory util.Factory
	util.IOStreams
}

// NewCmdUnload creates the unload command.
func NewCmdUnload(f util.Factory, ioStreams util.IOStreams) *cobra.Command {
	o := &UnloadOptions{factory: f, IOStreams: ioStreams}

	cmd := &cobra.Command{
		Use:     "unload <id>...",
		Aliases: []string{"rm"},
		Short:   "Unload one or more extensions",
		Example: `  extctl ext unload @acme/weather weather-widgets`,
		Args:    cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			o.IDs = args
			util.CheckErr(o.Run(cmd.Context()))
		},
	}
	return cmd
}

// Run unloads every id and keeps going after a failure.
func (o *UnloadOptions) Run(ctx context.Context) error {
	client := o.factory.AdminClient()
	p := util.NewPrinter(o.Out)
	failed := false
	for _, id := range o.IDs {
		if err := client.Unload(ctx, id); err != nil {
			p.Failure("%s: %v", id, err)
			failed = true
			continue
		}
		p.OK("unloaded %s", id)
	}
	if failed {
		return util.ErrExit
	}
	return nil
}
