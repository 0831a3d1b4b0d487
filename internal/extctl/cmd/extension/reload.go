package extension

import (
	"context"

	"github.com/kiosk404/nubabel/internal/extctl/cmd/util"
	"github.com/spf13/cobra"
)

// ReloadOptions holds the arguments of `extctl ext reload`.
type ReloadOptions struct {
	ID string

	factory util.Factory
	util.IOStreams
}

// NewCmdReload creates the reload command.
func NewCmdReload(f util.Factory, ioStreams util.IOStreams) *cobra.Command {
	o := &ReloadOptions{factory: f, IOStreams: ioStreams}

	cmd := &cobra.Command{
		Use:     "reload <id>",
		Short:   "Reload an extension from its original source",
		Example: `  extctl ext reload @acme/weather`,
		Args:    cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			o.ID = args[0]
			util.CheckErr(o.Run(cmd.Context()))
		},
	}
	return cmd
}

func (o *ReloadOptions) Run(ctx context.Context) error {
	resp, err := o.factory.AdminClient().Reload(ctx, o.ID)
	if err != nil {
		return reportFailure(o.IOStreams, err)
	}
	p := util.NewPrinter(o.Out)
	printWarnings(p, resp.Warnings)
	p.OK("reloaded %s %s", resp.Extension.ID, resp.Extension.Version)
	return nil
}
